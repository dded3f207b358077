package texture

import (
	"fmt"
	"os"

	"github.com/HugoSmits86/nativewebp"

	"github.com/Faultbox/assetconv/pkg/dds"
)

// SavePreview decodes mip 0 of tex and writes it as a lossless WebP.
// Two-channel normal maps get their blue channel reconstructed so they look
// like ordinary tangent-space normal maps.
func SavePreview(path string, tex *dds.Texture) error {
	img, err := DecodeLevel(tex, 0)
	if err != nil {
		return err
	}
	if tex.Format == dds.FormatBC5UNorm {
		reconstructNormalZ(img)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := nativewebp.Encode(f, img.ToNRGBA(), nil); err != nil {
		f.Close()
		return fmt.Errorf("webp encode %s: %w", path, err)
	}
	return f.Close()
}

func reconstructNormalZ(img *Image) {
	for i := 0; i < len(img.Pix); i += 4 {
		x := img.Pix[i]*2 - 1
		y := img.Pix[i+1]*2 - 1
		z := float32(0)
		if d := 1 - x*x - y*y; d > 0 {
			z = sqrt32(d)
		}
		img.Pix[i+2] = z*0.5 + 0.5
	}
}
