package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var errInvalidEncoding = errors.New("text is not valid UTF-8")

type textDecoder struct{}

// Decode returns the text unmodified. A byte order mark selects UTF-8 or
// UTF-16; a charset parameter on the declared media type selects a legacy
// encoding. Anything else must already be valid UTF-8: invalid input is a
// decode failure, never mojibake.
func (textDecoder) Decode(_ context.Context, src Source) (Result, error) {
	if label := mediaTypeParam(src.MediaType, "charset"); label != "" && !isUTF8Label(label) {
		if enc, name := charset.Lookup(label); enc != nil {
			out, err := enc.NewDecoder().Bytes(src.Data)
			if err != nil {
				return Result{}, fmt.Errorf("decode %s: %w", name, err)
			}
			return Result{Text: string(out)}, nil
		}
	}

	out, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), src.Data)
	if err != nil {
		return Result{}, fmt.Errorf("decode text: %w", err)
	}
	if !utf8.Valid(out) {
		return Result{}, errInvalidEncoding
	}
	return Result{Text: string(out)}, nil
}

func isUTF8Label(label string) bool {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "utf-8", "utf8", "unicode-1-1-utf-8":
		return true
	}
	return false
}
