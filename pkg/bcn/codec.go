package bcn

// EncodeBC1 compresses the RGB channels of an opaque surface.
func EncodeBC1(pix []float32, w, h int) []byte {
	bw, bh := blocks(w, h)
	out := make([]byte, bw*bh*BC1BlockSize)
	var block [16]rgb
	for by := 0; by < bh; by++ {
		for bx := 0; bx < bw; bx++ {
			fetchColorBlock(pix, w, h, bx, by, &block)
			off := (by*bw + bx) * BC1BlockSize
			encodeColorBlock(&block, out[off:off+BC1BlockSize])
		}
	}
	return out
}

// EncodeBC3 compresses RGB into a BC1 color block and alpha into a BC4 block.
func EncodeBC3(pix []float32, w, h int) []byte {
	bw, bh := blocks(w, h)
	out := make([]byte, bw*bh*BC3BlockSize)
	var color [16]rgb
	var alpha [16]uint8
	for by := 0; by < bh; by++ {
		for bx := 0; bx < bw; bx++ {
			off := (by*bw + bx) * BC3BlockSize
			fetchBlock(pix, w, h, bx, by, 3, &alpha)
			encodeScalarBlock(&alpha, out[off:off+8])
			fetchColorBlock(pix, w, h, bx, by, &color)
			encodeColorBlock(&color, out[off+8:off+16])
		}
	}
	return out
}

// EncodeBC4 compresses a single channel.
func EncodeBC4(pix []float32, w, h, channel int) []byte {
	bw, bh := blocks(w, h)
	out := make([]byte, bw*bh*BC4BlockSize)
	var block [16]uint8
	for by := 0; by < bh; by++ {
		for bx := 0; bx < bw; bx++ {
			fetchBlock(pix, w, h, bx, by, channel, &block)
			off := (by*bw + bx) * BC4BlockSize
			encodeScalarBlock(&block, out[off:off+BC4BlockSize])
		}
	}
	return out
}

// EncodeBC5 compresses the red and green channels.
func EncodeBC5(pix []float32, w, h int) []byte {
	bw, bh := blocks(w, h)
	out := make([]byte, bw*bh*BC5BlockSize)
	var block [16]uint8
	for by := 0; by < bh; by++ {
		for bx := 0; bx < bw; bx++ {
			off := (by*bw + bx) * BC5BlockSize
			fetchBlock(pix, w, h, bx, by, 0, &block)
			encodeScalarBlock(&block, out[off:off+8])
			fetchBlock(pix, w, h, bx, by, 1, &block)
			encodeScalarBlock(&block, out[off+8:off+16])
		}
	}
	return out
}

// decode walks every block and hands the decoded texels to store.
func decode(data []byte, w, h, blockSize int, store func(dst []float32, src []byte)) []float32 {
	bw, bh := blocks(w, h)
	pix := make([]float32, w*h*4)
	if len(data) < bw*bh*blockSize {
		return pix
	}
	var texels [16 * 4]float32
	for by := 0; by < bh; by++ {
		for bx := 0; bx < bw; bx++ {
			off := (by*bw + bx) * blockSize
			store(texels[:], data[off:off+blockSize])
			for y := 0; y < 4; y++ {
				py := by*4 + y
				if py >= h {
					break
				}
				for x := 0; x < 4; x++ {
					px := bx*4 + x
					if px >= w {
						break
					}
					copy(pix[(py*w+px)*4:], texels[(y*4+x)*4:(y*4+x)*4+4])
				}
			}
		}
	}
	return pix
}

// DecodeBC1 expands BC1 blocks to RGBA. Three-color blocks decode index 3 as
// transparent black.
func DecodeBC1(data []byte, w, h int) []float32 {
	return decode(data, w, h, BC1BlockSize, func(dst []float32, src []byte) {
		colors := decodeColorBlock(src, true)
		for i, c := range colors {
			copy(dst[i*4:], c[:])
		}
	})
}

// DecodeBC3 expands BC3 blocks to RGBA.
func DecodeBC3(data []byte, w, h int) []float32 {
	return decode(data, w, h, BC3BlockSize, func(dst []float32, src []byte) {
		alpha := decodeScalarBlock(src[:8])
		colors := decodeColorBlock(src[8:], false)
		for i, c := range colors {
			c[3] = alpha[i]
			copy(dst[i*4:], c[:])
		}
	})
}

// DecodeBC4 expands BC4 blocks to (R, 0, 0, 1).
func DecodeBC4(data []byte, w, h int) []float32 {
	return decode(data, w, h, BC4BlockSize, func(dst []float32, src []byte) {
		r := decodeScalarBlock(src)
		for i, v := range r {
			copy(dst[i*4:], []float32{v, 0, 0, 1})
		}
	})
}

// DecodeBC5 expands BC5 blocks to (R, G, 0, 1).
func DecodeBC5(data []byte, w, h int) []float32 {
	return decode(data, w, h, BC5BlockSize, func(dst []float32, src []byte) {
		r := decodeScalarBlock(src[:8])
		g := decodeScalarBlock(src[8:])
		for i := range r {
			copy(dst[i*4:], []float32{r[i], g[i], 0, 1})
		}
	})
}
