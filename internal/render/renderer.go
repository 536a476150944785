// Package render turns PDF bytes into page images for the extraction stage.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var (
	ErrEmptyDocument = errors.New("document is empty")
	ErrNoPages       = errors.New("document has no pages")
)

// RenderError reports a PDF that could not be opened or rasterised.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string {
	return "render pdf: " + e.Err.Error()
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// PageImage is one rasterised page.
type PageImage struct {
	Index    int
	Width    int
	Height   int
	MIMEType string
	Data     []byte
}

// Renderer rasterises PDF pages to PNG.
type Renderer struct {
	dpi  float64
	conf *model.Configuration
}

// NewRenderer returns a renderer producing images at the given DPI.
func NewRenderer(dpi float64) *Renderer {
	if dpi <= 0 {
		dpi = 150
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Renderer{dpi: dpi, conf: conf}
}

// RenderFirstPage rasterises page 0. Later pages are never looked at.
func (r *Renderer) RenderFirstPage(ctx context.Context, pdf []byte) (*PageImage, error) {
	pages, err := r.RenderPages(ctx, pdf, 1)
	if err != nil {
		return nil, err
	}
	return &pages[0], nil
}

// RenderPages rasterises up to limit pages from the start of the document.
// limit <= 0 renders every page.
func (r *Renderer) RenderPages(ctx context.Context, pdf []byte, limit int) ([]PageImage, error) {
	pageCount, err := r.PageCount(pdf)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > pageCount {
		limit = pageCount
	}

	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, &RenderError{Err: err}
	}
	defer doc.Close()

	pages := make([]PageImage, 0, limit)
	for i := 0; i < limit; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := r.renderPage(doc, i)
		if err != nil {
			return nil, &RenderError{Err: fmt.Errorf("page %d: %w", i, err)}
		}
		pages = append(pages, page)
	}
	return pages, nil
}

// PageCount parses the document and returns its page count.
func (r *Renderer) PageCount(pdf []byte) (int, error) {
	if len(pdf) == 0 {
		return 0, &RenderError{Err: ErrEmptyDocument}
	}
	n, err := api.PageCount(bytes.NewReader(pdf), r.conf)
	if err != nil {
		return 0, &RenderError{Err: err}
	}
	if n == 0 {
		return 0, &RenderError{Err: ErrNoPages}
	}
	return n, nil
}

func (r *Renderer) renderPage(doc *fitz.Document, index int) (PageImage, error) {
	img, err := doc.ImageDPI(index, r.dpi)
	if err != nil {
		return PageImage{}, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return PageImage{}, fmt.Errorf("encode png: %w", err)
	}

	bounds := img.Bounds()
	return PageImage{
		Index:    index,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		MIMEType: "image/png",
		Data:     buf.Bytes(),
	}, nil
}
