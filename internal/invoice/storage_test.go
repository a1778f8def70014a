package invoice

import (
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalStorage", func() {
	var (
		tmpDir  string
		storage *LocalStorage
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		var err error
		storage, err = NewLocalStorage(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		storage.Close()
	})

	Describe("Save", func() {
		var (
			filename  string
			data      []byte
			savedPath string
			err       error
		)

		BeforeEach(func() {
			filename = "test-id_invoice.pdf"
			data = []byte("test file content")
		})

		JustBeforeEach(func() {
			savedPath, err = storage.Save(filename, data)
		})

		When("saving succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return the name", func() {
				Expect(savedPath).To(Equal(filename))
			})

			It("should save the file to disk", func() {
				Expect(filepath.Join(tmpDir, filename)).To(BeAnExistingFile())
			})
		})

		When("the name escapes the directory", func() {
			BeforeEach(func() {
				filename = "../escaped.pdf"
			})

			It("returns an error", func() {
				Expect(err).To(HaveOccurred())
				Expect(filepath.Join(filepath.Dir(tmpDir), "escaped.pdf")).NotTo(BeAnExistingFile())
			})
		})
	})

	Describe("Get", func() {
		It("reads a saved file", func() {
			_, err := storage.Save("doc.png", []byte("png data"))
			Expect(err).NotTo(HaveOccurred())

			data, err := storage.Get("doc.png")
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte("png data")))
		})

		It("returns an error for a missing file", func() {
			_, err := storage.Get("missing.png")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Delete", func() {
		It("removes a saved file", func() {
			_, err := storage.Save("doc.png", []byte("png data"))
			Expect(err).NotTo(HaveOccurred())

			Expect(storage.Delete("doc.png")).To(Succeed())
			Expect(filepath.Join(tmpDir, "doc.png")).NotTo(BeAnExistingFile())
		})

		It("returns an error for a missing file", func() {
			Expect(storage.Delete("missing.png")).NotTo(Succeed())
		})
	})

	Describe("NewLocalStorage", func() {
		It("creates the directory", func() {
			dir := filepath.Join(GinkgoT().TempDir(), "nested", "invoices")
			s, err := NewLocalStorage(dir)
			Expect(err).NotTo(HaveOccurred())
			defer s.Close()
			Expect(dir).To(BeADirectory())
		})
	})
})
