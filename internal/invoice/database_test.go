package invoice

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/invoice-extractor/internal/normalize"
)

var _ = Describe("BoltDB", func() {
	var (
		tmpDir string
		dbPath string
		db     *BoltDB
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		dbPath = filepath.Join(tmpDir, "test.db")
		var err error
		db, err = NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	newSession := func(id string) *Session {
		return &Session{
			ID:           id,
			OriginalName: "Invoice.pdf",
			Filename:     id + "_Invoice.pdf",
			ContentType:  "application/pdf",
			Extracted:    true,
			Fields: normalize.FieldsTable{
				{Key: "VendorName", Value: "Contoso", Confidence: normalize.Confidence{Value: 0.93, Valid: true}},
				{Key: "DueDate", Value: normalize.NotAvailable},
			},
			Tables: normalize.Grid{
				Columns: []string{"Column 0", "Column 1"},
				Rows:    []normalize.Row{{"Column 0": "Item"}, {"Column 0": "Widget", "Column 1": "9.99"}},
			},
			Errors:    []PassError{{Pass: PassLayout, Model: "prebuilt-layout", Message: "Error processing layout analysis: timeout"}},
			CreatedAt: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
			UpdatedAt: time.Date(2024, 1, 15, 11, 0, 0, 0, time.UTC),
		}
	}

	Describe("SaveSession", func() {
		var (
			session *Session
			err     error
		)

		BeforeEach(func() {
			session = newSession("test-id")
		})

		JustBeforeEach(func() {
			err = db.SaveSession(session)
		})

		When("saving succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("round trips the whole session", func() {
				saved, getErr := db.GetSession("test-id")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved).To(Equal(session))
			})
		})

		When("saving a session again", func() {
			It("replaces the stored session", func() {
				session.ReadyToExport = true
				Expect(db.SaveSession(session)).To(Succeed())

				saved, getErr := db.GetSession("test-id")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.ReadyToExport).To(BeTrue())
			})
		})
	})

	Describe("GetSession", func() {
		When("the session does not exist", func() {
			It("returns ErrSessionNotFound", func() {
				session, err := db.GetSession("missing")
				Expect(err).To(MatchError(ErrSessionNotFound))
				Expect(session).To(BeNil())
			})
		})
	})

	Describe("ListSessions", func() {
		When("there are no sessions", func() {
			It("returns an empty list", func() {
				sessions, err := db.ListSessions()
				Expect(err).NotTo(HaveOccurred())
				Expect(sessions).To(BeEmpty())
			})
		})

		When("there are sessions", func() {
			BeforeEach(func() {
				Expect(db.SaveSession(newSession("a"))).To(Succeed())
				Expect(db.SaveSession(newSession("b"))).To(Succeed())
			})

			It("returns all of them", func() {
				sessions, err := db.ListSessions()
				Expect(err).NotTo(HaveOccurred())
				Expect(sessions).To(HaveLen(2))
			})
		})
	})

	Describe("DeleteSession", func() {
		BeforeEach(func() {
			Expect(db.SaveSession(newSession("test-id"))).To(Succeed())
		})

		It("removes the session", func() {
			Expect(db.DeleteSession("test-id")).To(Succeed())
			_, err := db.GetSession("test-id")
			Expect(err).To(MatchError(ErrSessionNotFound))
		})

		It("ignores unknown IDs", func() {
			Expect(db.DeleteSession("missing")).To(Succeed())
		})
	})

	Describe("reopening", func() {
		It("keeps the saved sessions", func() {
			Expect(db.SaveSession(newSession("test-id"))).To(Succeed())
			Expect(db.Close()).To(Succeed())

			var err error
			db, err = NewBoltDB(dbPath)
			Expect(err).NotTo(HaveOccurred())

			saved, err := db.GetSession("test-id")
			Expect(err).NotTo(HaveOccurred())
			Expect(saved.Fields).To(HaveLen(2))
		})
	})
})
