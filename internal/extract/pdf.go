package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	errEmptyInput  = errors.New("empty input")
	errNoPages     = errors.New("document has no pages")
	errNoTextLayer = errors.New("document has no text layer")
)

type pdfDecoder struct{}

// Decode joins the text runs of each page with single spaces and the pages
// with newlines. Layout is not reconstructed.
func (pdfDecoder) Decode(ctx context.Context, src Source) (res Result, err error) {
	// ledongthuc/pdf panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			res, err = Result{}, fmt.Errorf("parse pdf: %v", r)
		}
	}()

	if len(src.Data) == 0 {
		return Result{}, errEmptyInput
	}
	reader, err := pdf.NewReader(bytes.NewReader(src.Data), int64(len(src.Data)))
	if err != nil {
		return Result{}, fmt.Errorf("parse pdf: %w", err)
	}

	n := reader.NumPage()
	if n == 0 {
		return Result{}, errNoPages
	}

	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		p := reader.Page(i)
		if p.V.IsNull() {
			return Result{}, fmt.Errorf("page %d: missing page object", i)
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return Result{}, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, collapseSpaces(text))
	}

	text := strings.Join(pages, "\n")
	if strings.TrimSpace(text) == "" {
		return Result{}, errNoTextLayer
	}
	return Result{Text: text, Pages: n}, nil
}
