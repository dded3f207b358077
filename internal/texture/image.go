// Package texture implements the pixel side of texture conversion: decoding
// source images, premultiplying alpha, building mip chains with alpha
// coverage preservation, block compression and DDS output.
package texture

import (
	"fmt"
	"image"
	"image/color"
	"math"
)

// ColorSpace tells how the stored RGB values are encoded. Alpha is always
// linear.
type ColorSpace uint8

const (
	Linear ColorSpace = iota
	SRGB
)

func (s ColorSpace) String() string {
	if s == SRGB {
		return "sRGB"
	}
	return "linear"
}

// Image is an uncompressed RGBA surface with float32 components in [0, 1],
// stored row by row without padding.
type Image struct {
	Width  int
	Height int
	Space  ColorSpace
	Pix    []float32
}

// NewImage allocates a zeroed w x h image.
func NewImage(w, h int, space ColorSpace) *Image {
	return &Image{Width: w, Height: h, Space: space, Pix: make([]float32, w*h*4)}
}

// Offset returns the index of the red component of texel (x, y).
func (img *Image) Offset(x, y int) int {
	return (y*img.Width + x) * 4
}

// At returns the RGBA components of texel (x, y).
func (img *Image) At(x, y int) [4]float32 {
	i := img.Offset(x, y)
	return [4]float32{img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3]}
}

// Set stores the RGBA components of texel (x, y).
func (img *Image) Set(x, y int, c [4]float32) {
	copy(img.Pix[img.Offset(x, y):], c[:])
}

// Clone returns a deep copy.
func (img *Image) Clone() *Image {
	out := *img
	out.Pix = append([]float32(nil), img.Pix...)
	return &out
}

// Validate checks that the pixel buffer matches the dimensions.
func (img *Image) Validate() error {
	if img.Width <= 0 || img.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, img.Width, img.Height)
	}
	if len(img.Pix) != img.Width*img.Height*4 {
		return fmt.Errorf("%w: %d components for %dx%d", ErrInvalidDimensions, len(img.Pix), img.Width, img.Height)
	}
	return nil
}

// FromImage converts a decoded Go image to straight (non-premultiplied) float
// components, tagging them with space.
func FromImage(src image.Image, space ColorSpace) *Image {
	b := src.Bounds()
	img := NewImage(b.Dx(), b.Dy(), space)

	if n, ok := src.(*image.NRGBA); ok {
		for y := 0; y < img.Height; y++ {
			row := n.Pix[n.PixOffset(b.Min.X, b.Min.Y+y):]
			for x := 0; x < img.Width; x++ {
				i := img.Offset(x, y)
				for c := 0; c < 4; c++ {
					img.Pix[i+c] = float32(row[x*4+c]) / 255
				}
			}
		}
		return img
	}

	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			c := color.NRGBA64Model.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA64)
			i := img.Offset(x, y)
			img.Pix[i+0] = float32(c.R) / 0xffff
			img.Pix[i+1] = float32(c.G) / 0xffff
			img.Pix[i+2] = float32(c.B) / 0xffff
			img.Pix[i+3] = float32(c.A) / 0xffff
		}
	}
	return img
}

// ToNRGBA quantizes the image to 8 bits per channel without changing its
// encoding.
func (img *Image) ToNRGBA() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, img.Width, img.Height))
	for i, v := range img.Pix {
		out.Pix[i] = uint8(clamp01(v)*255 + 0.5)
	}
	return out
}

func clamp01(v float32) float32 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// SRGBToLinear decodes one sRGB-encoded component.
func SRGBToLinear(v float32) float32 {
	if v <= 0.04045 {
		return v / 12.92
	}
	return float32(math.Pow((float64(v)+0.055)/1.055, 2.4))
}

// LinearToSRGB encodes one linear component.
func LinearToSRGB(v float32) float32 {
	v = clamp01(v)
	if v <= 0.0031308 {
		return v * 12.92
	}
	return float32(1.055*math.Pow(float64(v), 1/2.4) - 0.055)
}

// ConvertSpace returns a copy of img with RGB re-encoded in space.
func (img *Image) ConvertSpace(space ColorSpace) *Image {
	out := img.Clone()
	if img.Space == space {
		return out
	}
	out.Space = space
	conv := SRGBToLinear
	if space == SRGB {
		conv = LinearToSRGB
	}
	for i := 0; i < len(out.Pix); i += 4 {
		out.Pix[i+0] = conv(out.Pix[i+0])
		out.Pix[i+1] = conv(out.Pix[i+1])
		out.Pix[i+2] = conv(out.Pix[i+2])
	}
	return out
}
