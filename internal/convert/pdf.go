package convert

import (
	"context"
	"fmt"
	"os"

	"github.com/gen2brain/go-fitz"
	rpdf "rsc.io/pdf"
)

// DefaultZoom matches a 2x rasterization (144 DPI).
const DefaultZoom = 2.0

// Renderer rasterizes pages from..to (1-based, inclusive) into PNG images.
type Renderer interface {
	Render(ctx context.Context, path string, from, to int, zoom float64) ([]PageImage, error)
}

// FitzRenderer renders pages with MuPDF.
type FitzRenderer struct{}

func (FitzRenderer) Render(ctx context.Context, path string, from, to int, zoom float64) ([]PageImage, error) {
	if zoom <= 0 {
		zoom = DefaultZoom
	}
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	if n := doc.NumPage(); to > n {
		return nil, fmt.Errorf("page %d out of range: document has %d pages", to, n)
	}

	pages := make([]PageImage, 0, to-from+1)
	for p := from; p <= to; p++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b, err := doc.ImagePNG(p-1, 72*zoom)
		if err != nil {
			return nil, fmt.Errorf("render page %d: %w", p, err)
		}
		pages = append(pages, PageImage{Page: p, PNG: b})
	}
	return pages, nil
}

// PageCount returns the number of pages in the PDF, or 0 when the file cannot
// be parsed by the pure-Go reader.
func PageCount(path string) (n int) {
	// rsc.io/pdf panics on some malformed trailers
	defer func() {
		if recover() != nil {
			n = 0
		}
	}()
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return 0
	}
	doc, err := rpdf.NewReader(f, st.Size())
	if err != nil {
		return 0
	}
	return doc.NumPage()
}
