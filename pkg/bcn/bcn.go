// Package bcn encodes and decodes the BC1, BC3, BC4 and BC5 block compression
// formats.
//
// Surfaces are passed as tightly packed RGBA float32 rows with components in
// [0, 1]. Values outside that range are clamped. Partial edge blocks replicate
// the last row and column.
package bcn

import "math"

// BC1BlockSize and friends are the encoded bytes per 4x4 block.
const (
	BC1BlockSize = 8
	BC3BlockSize = 16
	BC4BlockSize = 8
	BC5BlockSize = 16
)

func blocks(w, h int) (int, int) {
	return (w + 3) / 4, (h + 3) / 4
}

func unorm8(v float32) uint8 {
	if !(v > 0) {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

// fetchBlock gathers channel c of the 4x4 block at (bx, by) as 8-bit values.
func fetchBlock(pix []float32, w, h, bx, by, c int, out *[16]uint8) {
	for y := 0; y < 4; y++ {
		sy := min(by*4+y, h-1)
		for x := 0; x < 4; x++ {
			sx := min(bx*4+x, w-1)
			out[y*4+x] = unorm8(pix[(sy*w+sx)*4+c])
		}
	}
}

type rgb [3]int32

func fetchColorBlock(pix []float32, w, h, bx, by int, out *[16]rgb) {
	var ch [16]uint8
	for c := 0; c < 3; c++ {
		fetchBlock(pix, w, h, bx, by, c, &ch)
		for i, v := range ch {
			out[i][c] = int32(v)
		}
	}
}

func pack565(c rgb) uint16 {
	r := (c[0]*31 + 127) / 255
	g := (c[1]*63 + 127) / 255
	b := (c[2]*31 + 127) / 255
	return uint16(r<<11 | g<<5 | b)
}

func unpack565(v uint16) rgb {
	r := int32(v>>11) & 31
	g := int32(v>>5) & 63
	b := int32(v) & 31
	return rgb{r<<3 | r>>2, g<<2 | g>>4, b<<3 | b>>2}
}

func colorPalette(c0, c1 uint16) [4]rgb {
	p0, p1 := unpack565(c0), unpack565(c1)
	var p [4]rgb
	p[0], p[1] = p0, p1
	if c0 > c1 {
		for i := 0; i < 3; i++ {
			p[2][i] = (2*p0[i] + p1[i]) / 3
			p[3][i] = (p0[i] + 2*p1[i]) / 3
		}
	} else {
		for i := 0; i < 3; i++ {
			p[2][i] = (p0[i] + p1[i]) / 2
		}
	}
	return p
}

func distSq(a, b rgb) int32 {
	dr, dg, db := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return dr*dr + dg*dg + db*db
}

// colorEndpoints fits a line through the block colors along their principal
// axis and returns its extremes.
func colorEndpoints(block *[16]rgb) (rgb, rgb) {
	var mean [3]float64
	for _, c := range block {
		for i := range mean {
			mean[i] += float64(c[i])
		}
	}
	for i := range mean {
		mean[i] /= 16
	}

	var cov [6]float64 // rr rg rb gg gb bb
	for _, c := range block {
		r, g, b := float64(c[0])-mean[0], float64(c[1])-mean[1], float64(c[2])-mean[2]
		cov[0] += r * r
		cov[1] += r * g
		cov[2] += r * b
		cov[3] += g * g
		cov[4] += g * b
		cov[5] += b * b
	}

	axis := [3]float64{1, 1, 1}
	for iter := 0; iter < 8; iter++ {
		x := cov[0]*axis[0] + cov[1]*axis[1] + cov[2]*axis[2]
		y := cov[1]*axis[0] + cov[3]*axis[1] + cov[4]*axis[2]
		z := cov[2]*axis[0] + cov[4]*axis[1] + cov[5]*axis[2]
		n := math.Sqrt(x*x + y*y + z*z)
		if n < 1e-9 {
			break
		}
		axis = [3]float64{x / n, y / n, z / n}
	}
	if n := math.Sqrt(axis[0]*axis[0] + axis[1]*axis[1] + axis[2]*axis[2]); n > 0 {
		axis = [3]float64{axis[0] / n, axis[1] / n, axis[2] / n}
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, c := range block {
		t := (float64(c[0])-mean[0])*axis[0] + (float64(c[1])-mean[1])*axis[1] + (float64(c[2])-mean[2])*axis[2]
		lo = math.Min(lo, t)
		hi = math.Max(hi, t)
	}

	point := func(t float64) rgb {
		var c rgb
		for i := range c {
			v := math.Round(mean[i] + axis[i]*t)
			c[i] = int32(math.Max(0, math.Min(255, v)))
		}
		return c
	}
	return point(hi), point(lo)
}

// encodeColorBlock writes an 8-byte BC1 color block. The block always uses
// four-color mode (color0 > color1).
func encodeColorBlock(block *[16]rgb, dst []byte) {
	e0, e1 := colorEndpoints(block)
	c0, c1 := pack565(e0), pack565(e1)
	if c0 < c1 {
		c0, c1 = c1, c0
	}
	if c0 == c1 {
		if c1 > 0 {
			c1--
		} else {
			c0++
		}
	}

	palette := colorPalette(c0, c1)
	var indices uint32
	for i, c := range block {
		best, bestDist := 0, int32(math.MaxInt32)
		for j, p := range palette {
			if d := distSq(c, p); d < bestDist {
				best, bestDist = j, d
			}
		}
		indices |= uint32(best) << (2 * i)
	}

	dst[0], dst[1] = byte(c0), byte(c0>>8)
	dst[2], dst[3] = byte(c1), byte(c1>>8)
	dst[4], dst[5], dst[6], dst[7] = byte(indices), byte(indices>>8), byte(indices>>16), byte(indices>>24)
}

func alphaPalette(a0, a1 uint8) [8]int32 {
	p := [8]int32{int32(a0), int32(a1)}
	if a0 > a1 {
		for i := 1; i < 7; i++ {
			p[i+1] = (int32(7-i)*p[0] + int32(i)*p[1] + 3) / 7
		}
	} else {
		for i := 1; i < 5; i++ {
			p[i+1] = (int32(5-i)*p[0] + int32(i)*p[1] + 2) / 5
		}
		p[6], p[7] = 0, 255
	}
	return p
}

// encodeScalarBlock writes an 8-byte BC4 block in eight-value mode.
func encodeScalarBlock(block *[16]uint8, dst []byte) {
	lo, hi := block[0], block[0]
	for _, v := range block {
		lo = min(lo, v)
		hi = max(hi, v)
	}

	var indices uint64
	if hi != lo {
		palette := alphaPalette(hi, lo)
		for i, v := range block {
			best, bestDist := 0, int32(math.MaxInt32)
			for j, p := range palette {
				d := p - int32(v)
				if d < 0 {
					d = -d
				}
				if d < bestDist {
					best, bestDist = j, d
				}
			}
			indices |= uint64(best) << (3 * i)
		}
	}

	dst[0], dst[1] = hi, lo
	for i := 0; i < 6; i++ {
		dst[2+i] = byte(indices >> (8 * i))
	}
}

func decodeColorBlock(src []byte, alpha bool) [16][4]float32 {
	c0 := uint16(src[0]) | uint16(src[1])<<8
	c1 := uint16(src[2]) | uint16(src[3])<<8
	indices := uint32(src[4]) | uint32(src[5])<<8 | uint32(src[6])<<16 | uint32(src[7])<<24

	palette := colorPalette(c0, c1)
	var out [16][4]float32
	for i := range out {
		idx := (indices >> (2 * i)) & 3
		p := palette[idx]
		out[i] = [4]float32{float32(p[0]) / 255, float32(p[1]) / 255, float32(p[2]) / 255, 1}
		if alpha && c0 <= c1 && idx == 3 {
			out[i] = [4]float32{}
		}
	}
	return out
}

func decodeScalarBlock(src []byte) [16]float32 {
	palette := alphaPalette(src[0], src[1])
	var bits uint64
	for i := 0; i < 6; i++ {
		bits |= uint64(src[2+i]) << (8 * i)
	}
	var out [16]float32
	for i := range out {
		out[i] = float32(palette[(bits>>(3*i))&7]) / 255
	}
	return out
}
