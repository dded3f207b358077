package texture

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

// Texture errors.
var (
	ErrUnsupportedImage  = errors.New("unsupported image format")
	ErrInvalidDimensions = errors.New("invalid image dimensions")
	ErrEmptyMipChain     = errors.New("empty mip chain")
)

type decodeFunc func(io.Reader) (image.Image, error)

// decoders maps a lowercase file extension to its decoder. TGA has no magic
// number, so dispatch is by extension rather than image.Decode sniffing.
var decoders = map[string]decodeFunc{
	".png":  png.Decode,
	".jpg":  jpeg.Decode,
	".jpeg": jpeg.Decode,
	".gif":  gif.Decode,
	".bmp":  bmp.Decode,
	".tif":  tiff.Decode,
	".tiff": tiff.Decode,
	".webp": webp.Decode,
	".tga":  tga.Decode,
}

// Supported reports whether path has an extension the decoder understands.
func Supported(path string) bool {
	_, ok := decoders[strings.ToLower(filepath.Ext(path))]
	return ok
}

// DecodeReader decodes r using the decoder registered for ext.
func DecodeReader(r io.Reader, ext string, space ColorSpace) (*Image, error) {
	dec, ok := decoders[strings.ToLower(ext)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedImage, ext)
	}
	src, err := dec(r)
	if err != nil {
		return nil, err
	}
	img := FromImage(src, space)
	if err := img.Validate(); err != nil {
		return nil, err
	}
	return img, nil
}

// DecodeFile reads and decodes the image at path. RGB values are kept in
// their stored encoding and tagged with space.
func DecodeFile(path string, space ColorSpace) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := DecodeReader(bufio.NewReader(f), filepath.Ext(path), space)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return img, nil
}
