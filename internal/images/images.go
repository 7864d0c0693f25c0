// Package images validates, resizes and stores note image uploads.
package images

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder

	"github.com/sbilibin2017/gw-notes/internal/logger"
)

const (
	DefaultMaxSize = 800
	JPEGQuality    = 85
	WebPQuality    = 85

	// DefaultMaxPixels bounds the decoded size of an upload (40 MP).
	DefaultMaxPixels = 40_000_000

	nameEntropyBytes = 8
)

var (
	// ErrInvalidFileType is returned when the file extension is not an allowed image type.
	ErrInvalidFileType = errors.New("invalid file type")
	// ErrInvalidImage is returned when the upload cannot be decoded as an image.
	ErrInvalidImage = errors.New("invalid image file")
	// ErrInvalidName is returned for stored names that would leave the upload directory.
	ErrInvalidName = errors.New("invalid image name")
)

var allowedExtensions = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"gif":  {},
	"bmp":  {},
	"webp": {},
}

// Storage keeps resized images under a single upload directory.
type Storage struct {
	dir       string
	maxSize   int
	maxPixels int
}

// Opt configures a Storage.
type Opt func(*Storage)

// WithMaxSize sets the bounding box (in pixels) images are shrunk into.
func WithMaxSize(px int) Opt {
	return func(s *Storage) {
		if px > 0 {
			s.maxSize = px
		}
	}
}

// WithMaxPixels sets the largest width*height accepted for decoding.
func WithMaxPixels(n int) Opt {
	return func(s *Storage) {
		if n > 0 {
			s.maxPixels = n
		}
	}
}

// New creates the upload directory if needed and returns a Storage over it.
func New(dir string, opts ...Opt) (*Storage, error) {
	s := &Storage{dir: dir, maxSize: DefaultMaxSize, maxPixels: DefaultMaxPixels}
	for _, opt := range opts {
		opt(s)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return s, nil
}

// Dir returns the upload directory.
func (s *Storage) Dir() string {
	return s.dir
}

// AllowedFile reports whether filename carries an allowed image extension.
func AllowedFile(filename string) bool {
	_, ok := allowedExtensions[extension(filename)]
	return ok
}

// Accept decodes the upload, flattens transparency, shrinks it into the
// bounding box and writes it under a random name keeping the original
// extension. It returns the stored file name.
func (s *Storage) Accept(r io.Reader, filename string) (string, error) {
	if !AllowedFile(filename) {
		return "", ErrInvalidFileType
	}
	ext := extension(filename)

	// The header is read first so oversized images are rejected before
	// their pixels are allocated.
	var header bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(r, &header))
	if err != nil {
		logger.Log.Infow("failed to read image header", "filename", filename, "error", err)
		return "", ErrInvalidImage
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > int64(s.maxPixels) {
		logger.Log.Infow("image dimensions rejected", "filename", filename, "width", cfg.Width, "height", cfg.Height)
		return "", ErrInvalidImage
	}

	src, format, err := image.Decode(io.MultiReader(&header, r))
	if err != nil {
		logger.Log.Infow("failed to decode upload", "filename", filename, "error", err)
		return "", ErrInvalidImage
	}

	img := resizeToFit(flatten(src), s.maxSize, s.maxSize)

	data, err := encode(img, ext)
	if err != nil {
		return "", fmt.Errorf("encode %s image: %w", ext, err)
	}

	name, err := randomName(ext)
	if err != nil {
		return "", fmt.Errorf("generate image name: %w", err)
	}

	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o640); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}

	b := img.Bounds()
	logger.Log.Infow("image stored",
		"name", name,
		"source_format", format,
		"width", b.Dx(),
		"height", b.Dy(),
		"size", len(data),
	)
	return name, nil
}

// Remove deletes a stored image. A missing file is not an error.
func (s *Storage) Remove(name string) error {
	path, err := s.Path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Path resolves a stored name to its location on disk.
func (s *Storage) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", ErrInvalidName
	}
	return filepath.Join(s.dir, name), nil
}

func extension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

func randomName(ext string) (string, error) {
	buf := make([]byte, nameEntropyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf) + "." + ext, nil
}

// flatten draws images that may carry alpha onto an opaque white canvas.
func flatten(src image.Image) image.Image {
	if isOpaque(src) {
		return src
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	return dst
}

func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := float64(maxWidth) / float64(w)
	if scaleH := float64(maxHeight) / float64(h); scaleH < scale {
		scale = scaleH
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encode(img image.Image, ext string) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	var err error
	switch ext {
	case "jpg", "jpeg":
		err = jpeg.Encode(buf, img, &jpeg.Options{Quality: JPEGQuality})
	case "webp":
		err = webp.Encode(buf, img, &webp.Options{Quality: WebPQuality})
	case "png":
		err = png.Encode(buf, img)
	case "gif":
		err = gif.Encode(buf, img, nil)
	case "bmp":
		err = bmp.Encode(buf, img)
	default:
		return nil, ErrInvalidFileType
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
