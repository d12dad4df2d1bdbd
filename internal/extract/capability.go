package extract

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Loader obtains the decoder for one format.
type Loader func(ctx context.Context) (Decoder, error)

// Capabilities is a registry of format decoders. Each decoder is loaded at
// most once: a successful load is memoized, a failed load is not, so the
// next Get retries it. Concurrent loads of the same format are collapsed.
type Capabilities struct {
	mu      sync.RWMutex
	loaders map[Format]Loader
	gens    map[Format]uint64 // bumped by Register
	loaded  map[Format]Decoder
	group   singleflight.Group
}

// NewCapabilities returns a registry populated with the built-in decoders.
func NewCapabilities() *Capabilities {
	c := &Capabilities{
		loaders: make(map[Format]Loader),
		gens:    make(map[Format]uint64),
		loaded:  make(map[Format]Decoder),
	}
	for f, l := range builtinLoaders() {
		c.loaders[f] = l
	}
	return c
}

var defaultCapabilities = sync.OnceValue(NewCapabilities)

// DefaultCapabilities returns the process-wide registry.
func DefaultCapabilities() *Capabilities { return defaultCapabilities() }

func builtinLoaders() map[Format]Loader {
	static := func(d Decoder) Loader {
		return func(context.Context) (Decoder, error) { return d, nil }
	}
	return map[Format]Loader{
		FormatPDF:               static(pdfDecoder{}),
		FormatDOCX:              static(docxDecoder{}),
		FormatXLSX:              static(xlsxDecoder{}),
		FormatHTML:              static(htmlDecoder{}),
		FormatPlainText:         static(textDecoder{}),
		FormatPlainTextFallback: static(textDecoder{}),
	}
}

// Register installs a loader for f and drops any decoder already loaded for
// it. A load still running for the previous loader is not memoized.
func (c *Capabilities) Register(f Format, l Loader) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaders[f] = l
	c.gens[f]++
	delete(c.loaded, f)
}

// Loaded reports whether the decoder for f has been loaded successfully.
func (c *Capabilities) Loaded(f Format) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.loaded[f]
	return ok
}

// Get returns the decoder for f, loading it on first use. The load is
// shared by concurrent callers and does not stop when one of them cancels.
func (c *Capabilities) Get(ctx context.Context, f Format) (Decoder, error) {
	c.mu.RLock()
	dec, ok := c.loaded[f]
	loader, known := c.loaders[f]
	gen := c.gens[f]
	c.mu.RUnlock()
	if ok {
		return dec, nil
	}
	if !known {
		return nil, &Error{Kind: KindUnsupportedFormat, Format: f, Err: fmt.Errorf("no decoder registered")}
	}

	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := c.group.Do(fmt.Sprintf("%s#%d", f, gen), func() (any, error) {
		c.mu.RLock()
		dec, ok := c.loaded[f]
		current := c.gens[f] == gen
		c.mu.RUnlock()
		if ok && current {
			return dec, nil
		}
		dec, err := loader(loadCtx)
		if err != nil {
			return nil, err
		}
		if dec == nil {
			return nil, fmt.Errorf("loader returned no decoder")
		}
		c.mu.Lock()
		if c.gens[f] == gen {
			c.loaded[f] = dec
		}
		c.mu.Unlock()
		return dec, nil
	})
	if err != nil {
		return nil, &Error{Kind: KindCapabilityLoadFailure, Format: f, Err: err}
	}
	return v.(Decoder), nil
}
