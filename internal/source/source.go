package source

import (
	"fmt"
	"image"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// Source is an ordered set of pages that become slides.
type Source interface {
	PageCount() int
	Label(index int) string
	GetPageDimensions(index int) (width, height float64, err error)
	RenderPage(index int, dpi int) (image.Image, error)
	Close() error
}

// IsPDF reports whether path names a PDF document.
func IsPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// Open picks the source for an images path: a PDF document or a directory.
func Open(path string, maxImages int) (Source, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("images path: %w", err)
	}
	if !fi.IsDir() {
		if IsPDF(path) {
			return NewFitzPDFSource(path, maxImages)
		}
		return nil, fmt.Errorf("images path %q is neither a directory nor a PDF: %w", path, fs.ErrNotExist)
	}
	return NewImageSource(path, maxImages)
}

type FitzPDFSource struct {
	doc   *fitz.Document
	path  string
	pages int
}

func NewFitzPDFSource(path string, maxPages int) (*FitzPDFSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	pages := doc.NumPage()
	if pages == 0 {
		doc.Close()
		return nil, fmt.Errorf("no pages in %q: %w", path, fs.ErrNotExist)
	}
	if maxPages > 0 && pages > maxPages {
		pages = maxPages
	}
	return &FitzPDFSource{doc: doc, path: path, pages: pages}, nil
}

func (f *FitzPDFSource) PageCount() int {
	return f.pages
}

func (f *FitzPDFSource) Label(index int) string {
	return fmt.Sprintf("%s#%d", filepath.Base(f.path), index+1)
}

func (f *FitzPDFSource) GetPageDimensions(index int) (float64, float64, error) {
	rect, err := f.doc.Bound(index)
	if err != nil {
		return 0, 0, err
	}
	return float64(rect.Dx()), float64(rect.Dy()), nil
}

func (f *FitzPDFSource) RenderPage(index int, dpi int) (image.Image, error) {
	return f.doc.ImageDPI(index, float64(dpi))
}

func (f *FitzPDFSource) Close() error {
	return f.doc.Close()
}

// Materialize returns file paths for every page of src. Directory sources
// return their files as is; other sources are rasterised into dir as
// numbered PNGs.
func Materialize(src Source, dpi int, dir string) ([]string, error) {
	if s, ok := src.(*ImageSource); ok {
		return s.Paths(), nil
	}
	paths := make([]string, 0, src.PageCount())
	for i := 0; i < src.PageCount(); i++ {
		img, err := src.RenderPage(i, dpi)
		if err != nil {
			return nil, fmt.Errorf("render page %d: %w", i+1, err)
		}
		dst := filepath.Join(dir, fmt.Sprintf("page_%03d.png", i))
		if err := writePNG(dst, img); err != nil {
			return nil, fmt.Errorf("write page %d: %w", i+1, err)
		}
		paths = append(paths, dst)
	}
	return paths, nil
}

// Labels returns display names for every page of src.
func Labels(src Source) []string {
	labels := make([]string, src.PageCount())
	for i := range labels {
		labels[i] = src.Label(i)
	}
	return labels
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
