package circuit

import (
	"fmt"

	"github.com/ledongthuc/pdf"
)

// VerifyPDF checks that path parses as a PDF with at least one page. The
// compiler can leave a truncated file behind on fatal errors.
func VerifyPDF(path string) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("malformed pdf: %v", p)
		}
	}()
	f, r, err := pdf.Open(path)
	if err != nil {
		return fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()
	if r.NumPage() < 1 {
		return fmt.Errorf("pdf has no pages")
	}
	return nil
}
