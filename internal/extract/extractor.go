// Package extract turns uploaded documents (PDF, DOCX, XLSX, HTML or plain
// text) into a single normalized UTF-8 string suitable for prompting.
//
// Extraction is all-or-nothing: a document either yields text or a typed
// *Error whose Kind tells callers why it could not be read.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

const (
	// DefaultMinTextLength is the shortest extracted text considered usable.
	DefaultMinTextLength = 10
	// DefaultMaxSize bounds the size of a single source document.
	DefaultMaxSize = 50 << 20
	// DefaultTimeout bounds the decode time of a single source document.
	DefaultTimeout = 30 * time.Second
)

// ErrTooLarge is wrapped in a decode failure when a source exceeds the size limit.
var ErrTooLarge = errors.New("document exceeds size limit")

// Format names a decoding strategy.
type Format string

const (
	FormatPDF       Format = "pdf"
	FormatDOCX      Format = "docx"
	FormatXLSX      Format = "xlsx"
	FormatHTML      Format = "html"
	FormatPlainText Format = "text"
	// FormatPlainTextFallback is selected for unrecognized inputs, which are
	// read as text on a best-effort basis unless the extractor is strict.
	FormatPlainTextFallback Format = "text-fallback"
)

var extensionFormats = map[string]Format{
	".pdf":      FormatPDF,
	".docx":     FormatDOCX,
	".xlsx":     FormatXLSX,
	".html":     FormatHTML,
	".htm":      FormatHTML,
	".txt":      FormatPlainText,
	".text":     FormatPlainText,
	".md":       FormatPlainText,
	".markdown": FormatPlainText,
	".json":     FormatPlainText,
	".csv":      FormatPlainText,
}

var mediaTypeFormats = map[string]Format{
	"application/pdf": FormatPDF,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": FormatDOCX,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       FormatXLSX,
	"text/html":        FormatHTML,
	"application/json": FormatPlainText,
}

// Detect selects a format from the filename extension, falling back to the
// declared media type when the extension is missing or unknown.
func Detect(filename, mediaType string) Format {
	if f, ok := extensionFormats[strings.ToLower(filepath.Ext(filename))]; ok {
		return f
	}
	mt := baseMediaType(mediaType)
	if f, ok := mediaTypeFormats[mt]; ok {
		return f
	}
	if strings.HasPrefix(mt, "text/") {
		return FormatPlainText
	}
	return FormatPlainTextFallback
}

func baseMediaType(mediaType string) string {
	mt := strings.SplitN(mediaType, ";", 2)[0]
	return strings.TrimSpace(strings.ToLower(mt))
}

// mediaTypeParam returns a parameter of a declared media type, or "".
func mediaTypeParam(mediaType, key string) string {
	if mediaType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(mediaType)
	if err != nil {
		return ""
	}
	return params[key]
}

// Source is a document handed to the extractor. Data is never retained.
type Source struct {
	Filename  string
	MediaType string
	Data      []byte
}

// Result is the normalized text of a document.
type Result struct {
	Text   string `json:"text"`
	Format Format `json:"format"`
	Pages  int    `json:"pages,omitempty"`
}

// Decoder turns the bytes of one format into text.
type Decoder interface {
	Decode(ctx context.Context, src Source) (Result, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(ctx context.Context, src Source) (Result, error)

func (f DecoderFunc) Decode(ctx context.Context, src Source) (Result, error) { return f(ctx, src) }

// Extractor dispatches documents to format decoders.
type Extractor struct {
	caps          *Capabilities
	minTextLength int
	maxSize       int64
	timeout       time.Duration
	strict        bool
	logger        *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithMinTextLength sets the minimum usable text length in runes. Zero
// disables the check and leaves it to the caller.
func WithMinTextLength(n int) Option { return func(e *Extractor) { e.minTextLength = n } }

// WithMaxSize sets the largest accepted document in bytes. Zero disables the limit.
func WithMaxSize(n int64) Option { return func(e *Extractor) { e.maxSize = n } }

// WithTimeout bounds decoding of a single document. Zero disables the deadline.
func WithTimeout(d time.Duration) Option { return func(e *Extractor) { e.timeout = d } }

// WithStrictFormats rejects unrecognized inputs with KindUnsupportedFormat
// instead of reading them as text.
func WithStrictFormats() Option { return func(e *Extractor) { e.strict = true } }

// WithCapabilities replaces the process-wide decoder registry.
func WithCapabilities(c *Capabilities) Option { return func(e *Extractor) { e.caps = c } }

// WithLogger sets the logger used for failure diagnostics.
func WithLogger(l *slog.Logger) Option { return func(e *Extractor) { e.logger = l } }

// New creates an Extractor backed by the process-wide capabilities.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		minTextLength: DefaultMinTextLength,
		maxSize:       DefaultMaxSize,
		timeout:       DefaultTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.caps == nil {
		e.caps = DefaultCapabilities()
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

var defaultExtractor = sync.OnceValue(func() *Extractor { return New() })

// Extract runs src through the default Extractor.
func Extract(ctx context.Context, src Source) (Result, error) {
	return defaultExtractor().Extract(ctx, src)
}

// Extract returns the normalized text of src or an *Error.
func (e *Extractor) Extract(ctx context.Context, src Source) (Result, error) {
	format := Detect(src.Filename, src.MediaType)
	res, err := e.extract(ctx, format, src)
	if err != nil {
		var xe *Error
		if !errors.As(err, &xe) {
			xe = &Error{Kind: KindDecodeFailure, Err: err}
			err = xe
		}
		if xe.Format == "" {
			xe.Format = format
		}
		if xe.Filename == "" {
			xe.Filename = src.Filename
		}
		e.logger.Warn("extract: failed",
			"kind", xe.Kind.String(), "format", string(format), "filename", src.Filename,
			"size", len(src.Data), "err", xe.Err)
		return Result{}, err
	}
	return res, nil
}

func (e *Extractor) extract(ctx context.Context, format Format, src Source) (Result, error) {
	if e.strict && format == FormatPlainTextFallback {
		ext := filepath.Ext(src.Filename)
		return Result{}, &Error{Kind: KindUnsupportedFormat, Err: fmt.Errorf("extension %q, media type %q", ext, src.MediaType)}
	}
	if e.maxSize > 0 && int64(len(src.Data)) > e.maxSize {
		return Result{}, decodeError(fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, len(src.Data), e.maxSize))
	}

	dec, err := e.caps.Get(ctx, format)
	if err != nil {
		return Result{}, err
	}

	res, err := e.decode(ctx, dec, src)
	if err != nil {
		return Result{}, decodeError(err)
	}
	res.Format = format
	res.Text = Scrub(res.Text)

	if e.minTextLength > 0 {
		if n := utf8.RuneCountInString(strings.TrimSpace(res.Text)); n < e.minTextLength {
			return Result{}, &Error{Kind: KindEmptyOrTooShort, Err: fmt.Errorf("%d characters (min %d)", n, e.minTextLength)}
		}
	}
	return res, nil
}

// decode runs dec under the per-document deadline. Decoders that ignore ctx
// keep running in the background until they return; their result is dropped.
func (e *Extractor) decode(ctx context.Context, dec Decoder, src Source) (Result, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	type outcome struct {
		res Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		var out outcome
		defer func() {
			if r := recover(); r != nil {
				out = outcome{err: fmt.Errorf("decoder panic: %v", r)}
			}
			done <- out
		}()
		out.res, out.err = dec.Decode(ctx, src)
	}()

	select {
	case out := <-done:
		return out.res, out.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}
