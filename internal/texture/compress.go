package texture

import (
	"fmt"

	"github.com/Faultbox/assetconv/pkg/bcn"
	"github.com/Faultbox/assetconv/pkg/dds"
)

// Compress block-compresses every level of chain into format. Levels are
// re-encoded to sRGB first when format stores sRGB and the level is linear.
func Compress(chain []*Image, format dds.Format) (*dds.Texture, error) {
	if len(chain) == 0 {
		return nil, ErrEmptyMipChain
	}
	encode, err := encoderFor(format)
	if err != nil {
		return nil, err
	}

	tex := &dds.Texture{
		Width:  chain[0].Width,
		Height: chain[0].Height,
		Format: format,
	}
	for i, level := range chain {
		if err := level.Validate(); err != nil {
			return nil, fmt.Errorf("mip %d: %w", i, err)
		}
		w, h := dds.MipDimensions(tex.Width, tex.Height, i)
		if level.Width != w || level.Height != h {
			return nil, fmt.Errorf("%w: mip %d is %dx%d, want %dx%d",
				ErrInvalidDimensions, i, level.Width, level.Height, w, h)
		}
		if format.SRGB() && level.Space == Linear {
			level = level.ConvertSpace(SRGB)
		}
		tex.Levels = append(tex.Levels, encode(level.Pix, level.Width, level.Height))
	}
	return tex, nil
}

type encodeFunc func(pix []float32, w, h int) []byte

func encoderFor(format dds.Format) (encodeFunc, error) {
	switch format {
	case dds.FormatBC1UNorm, dds.FormatBC1UNormSRGB:
		return bcn.EncodeBC1, nil
	case dds.FormatBC3UNorm, dds.FormatBC3UNormSRGB:
		return bcn.EncodeBC3, nil
	case dds.FormatBC4UNorm:
		return func(pix []float32, w, h int) []byte { return bcn.EncodeBC4(pix, w, h, 0) }, nil
	case dds.FormatBC5UNorm:
		return bcn.EncodeBC5, nil
	default:
		return nil, fmt.Errorf("%w: %s", dds.ErrUnsupportedFormat, format)
	}
}

// DecodeLevel expands one compressed mip level back to an Image.
func DecodeLevel(tex *dds.Texture, level int) (*Image, error) {
	if level < 0 || level >= len(tex.Levels) {
		return nil, fmt.Errorf("%w: level %d of %d", ErrInvalidDimensions, level, len(tex.Levels))
	}
	w, h := dds.MipDimensions(tex.Width, tex.Height, level)
	data := tex.Levels[level]

	var pix []float32
	switch tex.Format {
	case dds.FormatBC1UNorm, dds.FormatBC1UNormSRGB:
		pix = bcn.DecodeBC1(data, w, h)
	case dds.FormatBC3UNorm, dds.FormatBC3UNormSRGB:
		pix = bcn.DecodeBC3(data, w, h)
	case dds.FormatBC4UNorm:
		pix = bcn.DecodeBC4(data, w, h)
	case dds.FormatBC5UNorm:
		pix = bcn.DecodeBC5(data, w, h)
	default:
		return nil, fmt.Errorf("%w: %s", dds.ErrUnsupportedFormat, tex.Format)
	}

	space := Linear
	if tex.Format.SRGB() {
		space = SRGB
	}
	return &Image{Width: w, Height: h, Space: space, Pix: pix}, nil
}
