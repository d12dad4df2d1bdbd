package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// blockElements start a new line in the extracted text.
var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "br": true,
	"dd": true, "div": true, "dl": true, "dt": true, "footer": true, "h1": true,
	"h2": true, "h3": true, "h4": true, "h5": true, "h6": true, "header": true,
	"hr": true, "li": true, "main": true, "nav": true, "ol": true, "p": true,
	"pre": true, "section": true, "table": true, "td": true, "th": true, "tr": true,
	"ul": true,
}

type htmlDecoder struct{}

// Decode returns the visible text of the document body, one block per line.
func (htmlDecoder) Decode(_ context.Context, src Source) (Result, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(src.Data))
	if err != nil {
		return Result{}, fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style, noscript, template, head").Remove()

	var sb strings.Builder
	for _, n := range doc.Find("body").Nodes {
		writeText(&sb, n)
	}

	var lines []string
	for _, line := range strings.Split(sb.String(), "\n") {
		if line = collapseSpaces(line); line != "" {
			lines = append(lines, line)
		}
	}
	return Result{Text: strings.Join(lines, "\n")}, nil
}

func writeText(sb *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.ElementNode:
		if blockElements[n.Data] {
			sb.WriteByte('\n')
			defer sb.WriteByte('\n')
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(sb, c)
	}
}
