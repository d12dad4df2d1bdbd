package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	docxBodyPart = "word/document.xml"
	// markupCompatNS is the namespace of mc:AlternateContent.
	markupCompatNS = "http://schemas.openxmlformats.org/markup-compatibility/2006"
	// maxPartSize bounds the decompressed size of a single OOXML part.
	maxPartSize = 64 << 20
)

var errPartTooLarge = errors.New("document part exceeds decompressed size limit")

type docxDecoder struct{}

// Decode returns the paragraph text of the document body, one paragraph per
// line. Tables, headers, footers and formatting are not treated specially.
func (docxDecoder) Decode(_ context.Context, src Source) (Result, error) {
	if len(src.Data) == 0 {
		return Result{}, errEmptyInput
	}
	zr, err := zip.NewReader(bytes.NewReader(src.Data), int64(len(src.Data)))
	if err != nil {
		return Result{}, fmt.Errorf("open docx zip: %w", err)
	}

	for _, f := range zr.File {
		if f.Name != docxBodyPart {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return Result{}, fmt.Errorf("open %s: %w", docxBodyPart, err)
		}
		defer rc.Close()
		text, err := parseDOCXXML(&capReader{r: rc, n: maxPartSize})
		if err != nil {
			return Result{}, err
		}
		return Result{Text: text}, nil
	}
	return Result{}, fmt.Errorf("%s not found in docx", docxBodyPart)
}

func parseDOCXXML(r io.Reader) (string, error) {
	var (
		paragraphs []string
		current    strings.Builder
	)
	decoder := xml.NewDecoder(r)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse %s: %w", docxBodyPart, err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "Choice":
				// Text boxes and shapes repeat their content under mc:Fallback.
				if el.Name.Space == markupCompatNS || el.Name.Space == "mc" {
					if err := decoder.Skip(); err != nil {
						return "", fmt.Errorf("parse %s: %w", docxBodyPart, err)
					}
				}
			case "t":
				var content struct {
					Text string `xml:",chardata"`
				}
				if err := decoder.DecodeElement(&content, &el); err != nil {
					return "", fmt.Errorf("parse %s: %w", docxBodyPart, err)
				}
				current.WriteString(content.Text)
			case "tab":
				current.WriteByte('\t')
			case "br", "cr":
				current.WriteByte('\n')
			}
		case xml.EndElement:
			if el.Name.Local == "p" {
				if p := strings.TrimSpace(current.String()); p != "" {
					paragraphs = append(paragraphs, p)
				}
				current.Reset()
			}
		}
	}
	if p := strings.TrimSpace(current.String()); p != "" {
		paragraphs = append(paragraphs, p)
	}
	return strings.Join(paragraphs, "\n"), nil
}

// capReader fails once more than n bytes have been read.
type capReader struct {
	r io.Reader
	n int64
}

func (c *capReader) Read(p []byte) (int, error) {
	if c.n <= 0 {
		return 0, errPartTooLarge
	}
	if int64(len(p)) > c.n {
		p = p[:c.n]
	}
	n, err := c.r.Read(p)
	c.n -= int64(n)
	return n, err
}

type xlsxDecoder struct{}

// Decode returns every non-empty row of every sheet, cells tab-separated.
func (xlsxDecoder) Decode(_ context.Context, src Source) (Result, error) {
	if len(src.Data) == 0 {
		return Result{}, errEmptyInput
	}
	xf, err := excelize.OpenReader(bytes.NewReader(src.Data), excelize.Options{
		UnzipSizeLimit:    4 * maxPartSize,
		UnzipXMLSizeLimit: maxPartSize / 4,
	})
	if err != nil {
		return Result{}, fmt.Errorf("open xlsx: %w", err)
	}
	defer xf.Close()

	var sb strings.Builder
	sheets := xf.GetSheetList()
	for _, sheet := range sheets {
		rows, err := xf.GetRows(sheet)
		if err != nil {
			return Result{}, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		for _, row := range rows {
			line := strings.TrimRight(strings.Join(row, "\t"), "\t ")
			if line == "" {
				continue
			}
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	return Result{Text: strings.TrimSpace(sb.String()), Pages: len(sheets)}, nil
}
