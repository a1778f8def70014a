package analysis

import "fmt"

// fieldsPrompt asks a vision model for invoice fields in the analysis-result JSON shape
const fieldsPrompt = `You are analyzing an invoice document. Carefully read all text in the image and extract every labelled value you can find, such as the vendor name and address, customer name and address, invoice id, invoice date, due date, purchase order, subtotal, total tax and invoice total.

Return ONLY valid JSON in this exact format:
{
  "documents": [
    {
      "docType": "%s",
      "fields": {
        "VendorName": {"type": "string", "content": "Contoso Ltd.", "confidence": 0.95},
        "VendorAddress": {
          "type": "object",
          "valueObject": {
            "StreetAddress": {"type": "string", "content": "123 Main St", "confidence": 0.9},
            "City": {"type": "string", "content": "Redmond", "confidence": 0.9}
          }
        },
        "InvoiceTotal": {"type": "string", "content": "$110.00", "confidence": 0.97}
      }
    }
  ]
}

Important:
- Field names are PascalCase with no spaces
- "content" is the text exactly as printed on the document
- "confidence" is a number between 0 and 1
- Use "valueObject" only for values that are made of named parts, like addresses
- Omit fields you cannot find
- Do not include any text before or after the JSON
- Do not use markdown code blocks`

// layoutPrompt asks a vision model for the tables of a document
const layoutPrompt = `You are analyzing the layout of an invoice document. Find every table in the image, such as line items or tax summaries, and transcribe each cell.

Return ONLY valid JSON in this exact format:
{
  "tables": [
    {
      "rowCount": 2,
      "columnCount": 2,
      "cells": [
        {"rowIndex": 0, "columnIndex": 0, "content": "Description"},
        {"rowIndex": 0, "columnIndex": 1, "content": "Amount"},
        {"rowIndex": 1, "columnIndex": 0, "content": "Consulting"},
        {"rowIndex": 1, "columnIndex": 1, "content": "100.00"}
      ]
    }
  ]
}

Important:
- rowIndex and columnIndex start at 0, row 0 is the header row when there is one
- "content" is the cell text exactly as printed, use "" for empty cells
- Return {"tables": []} when the document has no tables
- Do not include any text before or after the JSON
- Do not use markdown code blocks`

// promptForModel returns the instruction sent to a vision model for the given model id
func promptForModel(modelID string) string {
	if modelID == LayoutModel {
		return layoutPrompt
	}
	return fmt.Sprintf(fieldsPrompt, modelID)
}
