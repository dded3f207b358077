package bcn

import (
	"encoding/binary"
	"math"
	"testing"
)

func solid(w, h int, c [4]float32) []float32 {
	pix := make([]float32, w*h*4)
	for i := 0; i < w*h; i++ {
		copy(pix[i*4:], c[:])
	}
	return pix
}

func gradient(w, h int) []float32 {
	pix := make([]float32, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 4
			pix[i+0] = float32(x) / float32(w-1)
			pix[i+1] = float32(y) / float32(h-1)
			pix[i+2] = 0.5
			pix[i+3] = float32(x+y) / float32(w+h-2)
		}
	}
	return pix
}

// ramp varies every channel together along x so each block is colinear.
func ramp(w, h int) []float32 {
	pix := make([]float32, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := float32(x) / float32(w-1)
			copy(pix[(y*w+x)*4:], []float32{v, v, 0.5, v})
		}
	}
	return pix
}

func maxError(a, b []float32, channels ...int) float64 {
	var worst float64
	for i := 0; i < len(a); i += 4 {
		for _, c := range channels {
			worst = math.Max(worst, math.Abs(float64(a[i+c]-b[i+c])))
		}
	}
	return worst
}

func TestEncodedSizes(t *testing.T) {
	tests := []struct {
		name string
		w, h int
		enc  func([]float32, int, int) []byte
		want int
	}{
		{"bc1 4x4", 4, 4, EncodeBC1, 8},
		{"bc1 1x1", 1, 1, EncodeBC1, 8},
		{"bc1 5x5", 5, 5, EncodeBC1, 4 * 8},
		{"bc3 8x4", 8, 4, EncodeBC3, 2 * 16},
		{"bc5 2x9", 2, 9, EncodeBC5, 3 * 16},
		{"bc4 8x8", 8, 8, func(p []float32, w, h int) []byte { return EncodeBC4(p, w, h, 0) }, 4 * 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.enc(solid(tt.w, tt.h, [4]float32{0.2, 0.4, 0.6, 1}), tt.w, tt.h)
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestBC1FourColorMode(t *testing.T) {
	colors := [][4]float32{
		{0, 0, 0, 1},
		{1, 1, 1, 1},
		{0.5, 0.25, 0.75, 1},
	}
	for _, c := range colors {
		data := EncodeBC1(solid(8, 8, c), 8, 8)
		for off := 0; off < len(data); off += BC1BlockSize {
			c0 := binary.LittleEndian.Uint16(data[off:])
			c1 := binary.LittleEndian.Uint16(data[off+2:])
			if c0 <= c1 {
				t.Errorf("color %v block %d: color0 %#04x <= color1 %#04x", c, off/8, c0, c1)
			}
		}
	}
}

func TestBC1SolidColor(t *testing.T) {
	c := [4]float32{0.3, 0.6, 0.9, 1}
	in := solid(4, 4, c)
	out := DecodeBC1(EncodeBC1(in, 4, 4), 4, 4)
	// 5-bit channels quantize in steps of 8/255.
	if e := maxError(in, out, 0, 1, 2); e > 5.0/255 {
		t.Errorf("max error = %f", e)
	}
	for i := 3; i < len(out); i += 4 {
		if out[i] != 1 {
			t.Fatalf("alpha = %f, want 1", out[i])
		}
	}
}

func TestBC1Ramp(t *testing.T) {
	in := ramp(16, 16)
	out := DecodeBC1(EncodeBC1(in, 16, 16), 16, 16)
	if e := maxError(in, out, 0, 1, 2); e > 0.05 {
		t.Errorf("max error = %f", e)
	}
}

func TestBC3Alpha(t *testing.T) {
	in := gradient(8, 8)
	out := DecodeBC3(EncodeBC3(in, 8, 8), 8, 8)
	if e := maxError(in, out, 3); e > 0.05 {
		t.Errorf("alpha max error = %f", e)
	}
	in = ramp(8, 8)
	out = DecodeBC3(EncodeBC3(in, 8, 8), 8, 8)
	if e := maxError(in, out, 0, 1, 2, 3); e > 0.05 {
		t.Errorf("ramp max error = %f", e)
	}
}

func TestBC4PreservesExtremes(t *testing.T) {
	in := make([]float32, 4*4*4)
	for i := 0; i < 16; i++ {
		if i%3 == 0 {
			in[i*4] = 1
		}
	}
	out := DecodeBC4(EncodeBC4(in, 4, 4, 0), 4, 4)
	for i := 0; i < 16; i++ {
		if out[i*4] != in[i*4] {
			t.Errorf("texel %d = %f, want %f", i, out[i*4], in[i*4])
		}
	}
}

func TestBC4EightValueMode(t *testing.T) {
	data := EncodeBC4(gradient(4, 4), 4, 4, 0)
	if data[0] <= data[1] {
		t.Errorf("red0 %d <= red1 %d", data[0], data[1])
	}
}

func TestBC5(t *testing.T) {
	in := gradient(12, 12)
	out := DecodeBC5(EncodeBC5(in, 12, 12), 12, 12)
	if e := maxError(in, out, 0, 1); e > 0.05 {
		t.Errorf("max error = %f", e)
	}
	for i := 0; i < len(out); i += 4 {
		if out[i+2] != 0 || out[i+3] != 1 {
			t.Fatalf("texel %d = %v, want B=0 A=1", i/4, out[i:i+4])
		}
	}
}

func TestPartialBlockEdges(t *testing.T) {
	in := ramp(6, 3)
	out := DecodeBC3(EncodeBC3(in, 6, 3), 6, 3)
	if len(out) != len(in) {
		t.Fatalf("len = %d, want %d", len(out), len(in))
	}
	if e := maxError(in, out, 0, 1, 2, 3); e > 0.05 {
		t.Errorf("max error = %f", e)
	}
}

func TestDecodeShortInput(t *testing.T) {
	out := DecodeBC1([]byte{1, 2, 3}, 4, 4)
	if len(out) != 4*4*4 {
		t.Errorf("len = %d", len(out))
	}
}
