package ocr

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/fundamentals-cli/internal/config"
)

// Extractor extracts text content from PDF files.
type Extractor interface {
	ExtractText(ctx context.Context, pdfPath string) (string, error)
}

// NewExtractor creates an Extractor based on config.
func NewExtractor(cfg config.DocumentsConfig) (Extractor, error) {
	switch cfg.OCRProvider {
	case "local", "":
		return NewPdfToText(cfg.PdfToTextPath), nil
	case "mistral":
		if cfg.MistralKey == "" {
			return nil, eris.New("ocr: mistral provider requires documents.mistral_key")
		}
		return NewMistralOCR(cfg.MistralKey, ""), nil
	default:
		return nil, eris.Errorf("ocr: unknown provider %q", cfg.OCRProvider)
	}
}
