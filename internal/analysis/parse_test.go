package analysis

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("parseResultJSON", func() {
	var (
		text   string
		result *Result
		err    error
	)

	JustBeforeEach(func() {
		result, err = parseResultJSON(text, InvoiceModel)
	})

	When("parsing valid JSON", func() {
		BeforeEach(func() {
			text = `{"documents": [{"fields": {"VendorName": {"type": "string", "content": "CVS Pharmacy", "confidence": 0.9}}}]}`
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should parse the fields", func() {
			vendor, ok := result.Documents[0].Fields.Get("VendorName")
			Expect(ok).To(BeTrue())
			Expect(*vendor.Content).To(Equal("CVS Pharmacy"))
		})

		It("should record the model", func() {
			Expect(result.ModelID).To(Equal(InvoiceModel))
		})

		It("should default the document type to the model", func() {
			Expect(result.Documents[0].DocType).To(Equal(InvoiceModel))
		})
	})

	When("parsing JSON with markdown code blocks", func() {
		BeforeEach(func() {
			text = "```json\n{\"tables\": [{\"cells\": [{\"rowIndex\": 0, \"columnIndex\": 1, \"content\": \"Qty\"}]}]}\n```"
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should parse the tables", func() {
			Expect(result.Tables).To(HaveLen(1))
			Expect(result.Tables[0].Cells[0].ColumnIndex).To(Equal(1))
		})
	})

	When("parsing JSON surrounded by prose", func() {
		BeforeEach(func() {
			text = `Here is the result: {"documents": []} Hope this helps.`
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should return an empty result", func() {
			Expect(result.Documents).To(BeEmpty())
		})
	})

	When("parsing text without a JSON object", func() {
		BeforeEach(func() {
			text = `I cannot read this document`
		})

		It("returns the error", func() {
			Expect(err).To(MatchError(ContainSubstring("no JSON object")))
		})
	})

	When("parsing invalid JSON", func() {
		BeforeEach(func() {
			text = `{"documents": [}`
		})

		It("returns the error", func() {
			Expect(err).To(HaveOccurred())
		})
	})
})

var _ = Describe("promptForModel", func() {
	It("asks for tables for the layout model", func() {
		Expect(promptForModel(LayoutModel)).To(ContainSubstring(`"tables"`))
	})

	It("asks for fields tagged with the model for other models", func() {
		prompt := promptForModel("my-custom-model")
		Expect(prompt).To(ContainSubstring(`"docType": "my-custom-model"`))
		Expect(prompt).To(ContainSubstring(`"fields"`))
	})
})
