package converter

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/assetconv/internal/logger"
	"github.com/Faultbox/assetconv/internal/texture"
	"github.com/Faultbox/assetconv/pkg/dds"
	"github.com/Faultbox/assetconv/pkg/mdl"
)

// TextureRole is the purpose of an output texture. It decides the block
// format and the output file name.
type TextureRole uint8

const (
	RoleBaseColor TextureRole = iota
	RoleORM
	RoleEmissive
	RoleNormal
)

func (r TextureRole) String() string {
	switch r {
	case RoleBaseColor:
		return "baseColor"
	case RoleORM:
		return "occlusionRoughnessMetalness"
	case RoleEmissive:
		return "emissive"
	case RoleNormal:
		return "normal"
	default:
		return fmt.Sprintf("role%d", uint8(r))
	}
}

// TextureFormat returns the block format for a texture role. Only base colour
// depends on the alpha mode; it keeps an alpha channel unless opaque.
func TextureFormat(role TextureRole, alpha mdl.AlphaMode) dds.Format {
	switch role {
	case RoleBaseColor:
		if alpha == mdl.AlphaOpaque {
			return dds.FormatBC1UNormSRGB
		}
		return dds.FormatBC3UNormSRGB
	case RoleEmissive:
		return dds.FormatBC1UNormSRGB
	case RoleNormal:
		return dds.FormatBC5UNorm
	default:
		return dds.FormatBC1UNorm
	}
}

// TextureFileName returns the output file name for a role and texture ID.
func TextureFileName(role TextureRole, id int) string {
	return fmt.Sprintf("%s%d.dds", role, id)
}

// sourceSpace returns how a role's source image is decoded.
func sourceSpace(role TextureRole) texture.ColorSpace {
	if role == RoleBaseColor || role == RoleEmissive {
		return texture.SRGB
	}
	return texture.Linear
}

// processTexture premultiplies, mips, coverage-scales and compresses img, then
// writes it to outDir. It returns the file name written.
func (c *Converter) processTexture(img *texture.Image, role TextureRole, alpha mdl.AlphaMode, cutoff float32, outDir string, id int) (string, error) {
	if alpha != mdl.AlphaOpaque {
		if err := c.codec.Premultiply(img); err != nil {
			return "", fmt.Errorf("premultiply: %w", err)
		}
	}

	chain, err := c.codec.GenerateMips(img)
	if err != nil {
		return "", fmt.Errorf("generating mips: %w", err)
	}

	if alpha == mdl.AlphaMask {
		if err := c.codec.ScaleAlphaForCoverage(chain, cutoff); err != nil {
			return "", fmt.Errorf("scaling alpha coverage: %w", err)
		}
	}

	format := TextureFormat(role, alpha)
	tex, err := c.codec.Compress(chain, format)
	if err != nil {
		return "", fmt.Errorf("compressing to %s: %w", format, err)
	}

	name := TextureFileName(role, id)
	if err := c.codec.Save(filepath.Join(outDir, name), tex); err != nil {
		return "", fmt.Errorf("writing %s: %w", name, err)
	}

	logger.Info("processed texture",
		zap.Stringer("role", role),
		zap.String("file", name),
		zap.Stringer("format", format),
		zap.Int("width", img.Width),
		zap.Int("height", img.Height),
		zap.Int("mips", len(chain)))
	return name, nil
}
