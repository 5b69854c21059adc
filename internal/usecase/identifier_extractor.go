package usecase

import (
	"log"
	"regexp"
)

// IdentifierExtractor pulls SKU and barcode candidates out of OCR text
type IdentifierExtractor struct {
	enableDebugLogging bool
}

// Compiled patterns, tried in order; the first hit wins
var (
	skuPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)SKU[:\s]*([A-Z0-9-]+)`),
		regexp.MustCompile(`(?i)ITEM[:\s]*([A-Z0-9-]+)`),
		regexp.MustCompile(`(?i)#([A-Z0-9-]+)`),
	}

	barcodePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(\d{8})\b`),  // EAN-8
		regexp.MustCompile(`\b(\d{12})\b`), // UPC-A
		regexp.MustCompile(`\b(\d{13})\b`), // EAN-13
	}
)

// Identifiers holds what could be read from a label
type Identifiers struct {
	SKU     string `json:"sku"`
	Barcode string `json:"barcode"`
}

// NewIdentifierExtractor creates a new identifier extractor
func NewIdentifierExtractor(enableDebugLogging bool) *IdentifierExtractor {
	return &IdentifierExtractor{enableDebugLogging: enableDebugLogging}
}

// Extract returns the first SKU-looking and barcode-looking tokens in text.
// Missing identifiers are left empty.
func (e *IdentifierExtractor) Extract(text string) Identifiers {
	ids := Identifiers{
		SKU:     firstSubmatch(skuPatterns, text),
		Barcode: firstSubmatch(barcodePatterns, text),
	}

	if e.enableDebugLogging {
		log.Printf("[EXTRACT] %q -> sku=%q barcode=%q", text, ids.SKU, ids.Barcode)
	}

	return ids
}

func firstSubmatch(patterns []*regexp.Regexp, text string) string {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return ""
}
