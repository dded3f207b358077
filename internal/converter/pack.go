package converter

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/assetconv/internal/logger"
	"github.com/Faultbox/assetconv/internal/texture"
)

// ormChannels lists the packed sources in allocation order. Each source
// contributes the channel at the same index to the output.
var ormChannels = [3]TextureSlot{SlotOcclusion, SlotRoughness, SlotMetalness}

// packORM merges occlusion, roughness and metalness sources into one linear
// image: red from occlusion, green from roughness, blue from metalness, alpha
// 1. Missing sources leave their channel at 0. The output takes the size of
// the first present source; others are resampled to it.
func (c *Converter) packORM(paths [3]string) (*texture.Image, error) {
	var out *texture.Image
	for ch, path := range paths {
		if path == "" {
			continue
		}
		src, err := c.codec.Decode(path, texture.Linear)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ormChannels[ch], err)
		}

		if out == nil {
			out = texture.NewImage(src.Width, src.Height, texture.Linear)
			for i := 3; i < len(out.Pix); i += 4 {
				out.Pix[i] = 1
			}
		} else if src.Width != out.Width || src.Height != out.Height {
			logger.Warn("resampling packed texture source",
				zap.Stringer("slot", ormChannels[ch]),
				zap.String("path", path),
				zap.Int("width", src.Width),
				zap.Int("height", src.Height),
				zap.Int("targetWidth", out.Width),
				zap.Int("targetHeight", out.Height))
			if src, err = c.codec.Resize(src, out.Width, out.Height); err != nil {
				return nil, fmt.Errorf("%s: %w", ormChannels[ch], err)
			}
		}

		for i := ch; i < len(out.Pix); i += 4 {
			out.Pix[i] = src.Pix[i]
		}
	}
	return out, nil
}
