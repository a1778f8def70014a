package analysis

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func names(entries []NamedField) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out
}

var _ = Describe("Result", func() {
	var (
		body   string
		result Result
		err    error
	)

	JustBeforeEach(func() {
		result = Result{}
		err = json.Unmarshal([]byte(body), &result)
	})

	When("decoding an analyze result", func() {
		BeforeEach(func() {
			body = `{
				"modelId": "prebuilt-invoice",
				"documents": [{
					"docType": "invoice",
					"fields": {
						"VendorName": {"type": "string", "content": "Contoso", "confidence": 0.93},
						"InvoiceTotal": {"type": "currency", "content": "$110.00", "confidence": 0.97},
						"CustomerAddress": {
							"type": "address",
							"content": "123 Main St Redmond",
							"confidence": 0.8
						},
						"BillingAddress": {
							"type": "object",
							"valueObject": {
								"Street": {"type": "string", "content": "1 Way"},
								"City": {"type": "string", "content": "Oslo"}
							}
						},
						"Items": {
							"type": "array",
							"valueArray": [
								{"type": "object", "valueObject": {"Amount": {"type": "string", "content": "60.00"}}},
								{"type": "object", "valueObject": {"Amount": {"type": "string", "content": "50.00"}}}
							]
						},
						"DueDate": {"type": "date", "confidence": 0.4}
					}
				}],
				"tables": [{"rowCount": 1, "columnCount": 1, "cells": [{"rowIndex": 0, "columnIndex": 0, "content": "x"}]}]
			}`
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("keeps the fields in document order", func() {
			Expect(names(Entries(result.Documents[0].Fields))).To(Equal([]string{
				"VendorName", "InvoiceTotal", "CustomerAddress", "BillingAddress", "Items", "DueDate",
			}))
		})

		It("keeps nested fields in document order", func() {
			billing, _ := result.Documents[0].Fields.Get("BillingAddress")
			Expect(names(billing.Children())).To(Equal([]string{"Street", "City"}))
		})

		It("names array items by position", func() {
			items, _ := result.Documents[0].Fields.Get("Items")
			Expect(names(items.Children())).To(Equal([]string{"1", "2"}))
			Expect(items.IsComposite()).To(BeTrue())
		})

		It("treats fields with content only as leaves", func() {
			address, _ := result.Documents[0].Fields.Get("CustomerAddress")
			Expect(address.IsComposite()).To(BeFalse())
			Expect(*address.Content).To(Equal("123 Main St Redmond"))
		})

		It("leaves absent content and confidence unset", func() {
			due, _ := result.Documents[0].Fields.Get("DueDate")
			Expect(due.Content).To(BeNil())
			Expect(*due.Confidence).To(Equal(0.4))

			billing, _ := result.Documents[0].Fields.Get("BillingAddress")
			Expect(billing.Children()[0].Field.Confidence).To(BeNil())
		})

		It("collects result level tables", func() {
			Expect(result.AllTables()).To(HaveLen(1))
		})
	})

	When("documents carry their own tables", func() {
		BeforeEach(func() {
			body = `{
				"tables": [{"cells": [{"rowIndex": 0, "columnIndex": 0, "content": "result"}]}],
				"documents": [
					{"tables": [{"cells": [{"rowIndex": 0, "columnIndex": 0, "content": "doc 1"}]}]},
					{"tables": [{"cells": [{"rowIndex": 0, "columnIndex": 0, "content": "doc 2"}]}]}
				]
			}`
		})

		It("lists result tables before document tables", func() {
			tables := result.AllTables()
			Expect(tables).To(HaveLen(3))
			Expect(tables[0].Cells[0].Content).To(Equal("result"))
			Expect(tables[1].Cells[0].Content).To(Equal("doc 1"))
			Expect(tables[2].Cells[0].Content).To(Equal("doc 2"))
		})
	})

	Describe("builders", func() {
		It("builds ordered composite fields", func() {
			field := Object(
				Named("Zeta", Text("z", 0.1)),
				Named("Alpha", Text("a", 0.2)),
			)
			Expect(names(field.Children())).To(Equal([]string{"Zeta", "Alpha"}))
		})

		It("has no children for a nil field or nil mapping", func() {
			var field *Field
			Expect(field.Children()).To(BeEmpty())
			Expect(Entries(nil)).To(BeEmpty())
		})

		It("has no tables for a nil result", func() {
			var r *Result
			Expect(r.AllTables()).To(BeEmpty())
		})
	})
})
