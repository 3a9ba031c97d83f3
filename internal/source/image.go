package source

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/text/cases"
)

// Collect lists the files matching "*.*" in dir, sorted by case-folded base
// name, truncated to maxImages when maxImages > 0. Hidden files are skipped.
func Collect(dir string, maxImages int) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.*"))
	if err != nil {
		return nil, err
	}
	files := lo.Filter(matches, func(path string, _ int) bool {
		if strings.HasPrefix(filepath.Base(path), ".") {
			return false
		}
		fi, err := os.Stat(path)
		return err == nil && fi.Mode().IsRegular()
	})
	if len(files) == 0 {
		return nil, fmt.Errorf("no images in %q: %w", dir, fs.ErrNotExist)
	}

	fold := cases.Fold()
	sort.SliceStable(files, func(i, j int) bool {
		return fold.String(filepath.Base(files[i])) < fold.String(filepath.Base(files[j]))
	})

	if maxImages > 0 && len(files) > maxImages {
		files = files[:maxImages]
	}
	return files, nil
}

// ImageSource serves already collected image files.
type ImageSource struct {
	paths []string
}

func NewImageSource(dir string, maxImages int) (*ImageSource, error) {
	paths, err := Collect(dir, maxImages)
	if err != nil {
		return nil, err
	}
	return &ImageSource{paths: paths}, nil
}

func (s *ImageSource) PageCount() int {
	return len(s.paths)
}

func (s *ImageSource) Label(index int) string {
	return s.paths[index]
}

func (s *ImageSource) GetPageDimensions(index int) (float64, float64, error) {
	f, err := os.Open(s.paths[index])
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return float64(cfg.Width), float64(cfg.Height), nil
}

func (s *ImageSource) RenderPage(index int, dpi int) (image.Image, error) {
	f, err := os.Open(s.paths[index])
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// Paths returns the collected files; image files need no extraction.
func (s *ImageSource) Paths() []string {
	return append([]string(nil), s.paths...)
}

func (s *ImageSource) Close() error {
	return nil
}
