package texture

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// Premultiply multiplies RGB by alpha in place. sRGB images are premultiplied
// in linear light and re-encoded. Fully opaque texels are unchanged.
func Premultiply(img *Image) {
	for i := 0; i < len(img.Pix); i += 4 {
		a := img.Pix[i+3]
		if a >= 1 {
			continue
		}
		for c := 0; c < 3; c++ {
			v := img.Pix[i+c]
			if img.Space == SRGB {
				v = LinearToSRGB(SRGBToLinear(v) * a)
			} else {
				v *= a
			}
			img.Pix[i+c] = v
		}
	}
}

// MipCount returns the number of levels in a full chain down to 1x1.
func MipCount(w, h int) int {
	n := 1
	for w > 1 || h > 1 {
		w, h = max(1, w/2), max(1, h/2)
		n++
	}
	return n
}

// GenerateMips returns the full mip chain of img down to 1x1, with img as
// level 0. Each level averages the source texels it covers, so odd sizes fold
// their last row or column into the neighbouring texel. sRGB colour is
// averaged in linear light.
func GenerateMips(img *Image) ([]*Image, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}

	chain := []*Image{img}
	cur := img
	if img.Space == SRGB {
		cur = img.ConvertSpace(Linear)
	}
	for cur.Width > 1 || cur.Height > 1 {
		cur = downsample(cur)
		level := cur
		if img.Space == SRGB {
			level = cur.ConvertSpace(SRGB)
		}
		chain = append(chain, level)
	}
	return chain, nil
}

func downsample(src *Image) *Image {
	w, h := max(1, src.Width/2), max(1, src.Height/2)
	dst := NewImage(w, h, src.Space)
	for y := 0; y < h; y++ {
		y0 := y * src.Height / h
		y1 := max(y0+1, (y+1)*src.Height/h)
		for x := 0; x < w; x++ {
			x0 := x * src.Width / w
			x1 := max(x0+1, (x+1)*src.Width/w)

			var sum [4]float32
			for sy := y0; sy < y1; sy++ {
				for sx := x0; sx < x1; sx++ {
					i := src.Offset(sx, sy)
					sum[0] += src.Pix[i]
					sum[1] += src.Pix[i+1]
					sum[2] += src.Pix[i+2]
					sum[3] += src.Pix[i+3]
				}
			}
			n := float32((y1 - y0) * (x1 - x0))
			dst.Set(x, y, [4]float32{sum[0] / n, sum[1] / n, sum[2] / n, sum[3] / n})
		}
	}
	return dst
}

// Coverage returns the fraction of texels whose alpha, multiplied by scale
// and clamped to 1, is at least cutoff.
func Coverage(img *Image, cutoff, scale float32) float32 {
	texels := len(img.Pix) / 4
	if texels == 0 {
		return 0
	}
	pass := 0
	for i := 3; i < len(img.Pix); i += 4 {
		if min(img.Pix[i]*scale, 1) >= cutoff {
			pass++
		}
	}
	return float32(pass) / float32(texels)
}

const (
	coverageMaxScale   = 4
	coverageIterations = 16
)

// ScaleAlphaForCoverage rescales the alpha of every level after the first so
// that its alpha-test coverage at cutoff matches level 0. The scale for each
// level is found by bisection over [0, 4].
func ScaleAlphaForCoverage(chain []*Image, cutoff float32) error {
	if len(chain) == 0 {
		return ErrEmptyMipChain
	}
	target := Coverage(chain[0], cutoff, 1)
	for _, level := range chain[1:] {
		scale := coverageScale(level, cutoff, target)
		for i := 3; i < len(level.Pix); i += 4 {
			level.Pix[i] = min(level.Pix[i]*scale, 1)
		}
	}
	return nil
}

func coverageScale(img *Image, cutoff, target float32) float32 {
	lo, hi := float32(0), float32(coverageMaxScale)
	scale := float32(1)
	best, bestErr := scale, float32(math.MaxFloat32)
	for i := 0; i < coverageIterations; i++ {
		cov := Coverage(img, cutoff, scale)
		diff := cov - target
		if diff < 0 {
			diff = -diff
		}
		if diff < bestErr {
			best, bestErr = scale, diff
		}
		switch {
		case cov < target:
			lo = scale
		case cov > target:
			hi = scale
		default:
			return scale
		}
		scale = (lo + hi) / 2
	}
	return best
}

func sqrt32(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}

// Resize resamples img to w x h with a Catmull-Rom filter.
func Resize(img *Image, w, h int) *Image {
	if img.Width == w && img.Height == h {
		return img.Clone()
	}
	src := image.NewNRGBA64(image.Rect(0, 0, img.Width, img.Height))
	for i, v := range img.Pix {
		q := uint16(clamp01(v)*0xffff + 0.5)
		src.Pix[i*2] = uint8(q >> 8)
		src.Pix[i*2+1] = uint8(q)
	}
	dst := image.NewNRGBA64(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	return FromImage(dst, img.Space)
}
