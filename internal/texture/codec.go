package texture

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/assetconv/internal/logger"
	"github.com/Faultbox/assetconv/pkg/dds"
)

// Codec runs the texture pipeline against the local filesystem. Decoded
// sources are cached; the cache is safe for concurrent use.
type Codec struct {
	cache      *Cache
	previewDir string
}

// Option configures a Codec.
type Option func(*Codec)

// WithPreviewDir makes Save also write a WebP preview of mip 0 into dir.
func WithPreviewDir(dir string) Option {
	return func(c *Codec) { c.previewDir = dir }
}

// WithoutCache disables decode caching.
func WithoutCache() Option {
	return func(c *Codec) { c.cache = nil }
}

// NewCodec creates a codec with a decode cache.
func NewCodec(opts ...Option) *Codec {
	c := &Codec{cache: NewCache()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Decode loads the image at path. The returned image is owned by the caller.
func (c *Codec) Decode(path string, space ColorSpace) (*Image, error) {
	if c.cache != nil {
		if img, ok := c.cache.Get(path, space); ok {
			return img.Clone(), nil
		}
	}

	img, err := DecodeFile(path, space)
	if err != nil {
		return nil, err
	}
	logger.Debug("decoded texture",
		zap.String("path", path),
		zap.Int("width", img.Width),
		zap.Int("height", img.Height),
		zap.Stringer("space", img.Space))

	if c.cache != nil {
		c.cache.Set(path, space, img)
		return img.Clone(), nil
	}
	return img, nil
}

// Resize resamples img to w x h.
func (c *Codec) Resize(img *Image, w, h int) (*Image, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: resize to %dx%d", ErrInvalidDimensions, w, h)
	}
	return Resize(img, w, h), nil
}

// Premultiply multiplies colour by alpha in place.
func (c *Codec) Premultiply(img *Image) error {
	if err := img.Validate(); err != nil {
		return err
	}
	Premultiply(img)
	return nil
}

// GenerateMips builds the full mip chain.
func (c *Codec) GenerateMips(img *Image) ([]*Image, error) {
	return GenerateMips(img)
}

// ScaleAlphaForCoverage preserves alpha-test coverage down the chain.
func (c *Codec) ScaleAlphaForCoverage(chain []*Image, cutoff float32) error {
	return ScaleAlphaForCoverage(chain, cutoff)
}

// Compress block-compresses the chain.
func (c *Codec) Compress(chain []*Image, format dds.Format) (*dds.Texture, error) {
	return Compress(chain, format)
}

// Save writes tex as a DDS file and, when configured, a WebP preview.
func (c *Codec) Save(path string, tex *dds.Texture) error {
	if err := dds.Save(path, tex); err != nil {
		return err
	}
	logger.Debug("wrote texture",
		zap.String("path", path),
		zap.Stringer("format", tex.Format),
		zap.Int("mips", len(tex.Levels)))

	if c.previewDir == "" {
		return nil
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".webp"
	if err := os.MkdirAll(c.previewDir, 0755); err != nil {
		return err
	}
	return SavePreview(filepath.Join(c.previewDir, name), tex)
}

// CacheStats returns decode cache hits and misses.
func (c *Codec) CacheStats() (hits, misses int) {
	if c.cache == nil {
		return 0, 0
	}
	return c.cache.Stats()
}
