package converter

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/assetconv/internal/logger"
	"github.com/Faultbox/assetconv/internal/texture"
	"github.com/Faultbox/assetconv/pkg/encoding"
	"github.com/Faultbox/assetconv/pkg/mdl"
)

var slotBits = [...]mdl.TextureType{
	SlotBaseColor: mdl.TextureBaseColor,
	SlotMetalness: mdl.TextureMetalness,
	SlotRoughness: mdl.TextureRoughness,
	SlotOcclusion: mdl.TextureOcclusion,
	SlotNormal:    mdl.TextureNormal,
	SlotEmissive:  mdl.TextureEmissive,
}

// addressMode maps a source wrap mode; ok is false when the mode should
// leave the default in place.
func addressMode(w WrapMode) (mdl.AddressMode, bool) {
	switch w {
	case WrapRepeat:
		return mdl.AddressWrap, true
	case WrapMirror:
		return mdl.AddressMirror, true
	case WrapClamp:
		return mdl.AddressClamp, true
	default:
		return 0, false
	}
}

// extractMaterial builds a Material from src and writes its textures into
// outDir. Texture references are resolved against srcDir.
func (c *Converter) extractMaterial(src MaterialSource, srcDir, outDir string) (mdl.Material, error) {
	mat := mdl.DefaultMaterial()
	matName := zap.String("material", src.Name())

	// The base colour wrap mode stands in for every slot.
	u, v := src.Wrap()
	if m, ok := addressMode(u); ok {
		mat.AddressU = m
	}
	if m, ok := addressMode(v); ok {
		mat.AddressV = m
	}

	if s, ok := src.AlphaMode(); ok {
		if mode, known := mdl.ParseAlphaMode(s); known {
			mat.AlphaMode = mode
			logger.Debug("alpha mode", matName, zap.Stringer("mode", mode))
		} else {
			logger.Warn("ignoring unknown alpha mode", matName, zap.String("mode", s))
		}
	}
	if f, ok := src.AlphaCutoff(); ok {
		mat.AlphaCutoff = f
		logger.Debug("alpha cutoff", matName, zap.Float32("cutoff", f))
	}

	if f, ok := src.BaseColorFactor(); ok {
		mat.BaseColorFactor = f
		logger.Debug("base color factor", matName, zap.Float32s("factor", f[:]))
	}
	if f, ok := src.EmissiveFactor(); ok {
		mat.EmissiveFactor = f
		logger.Debug("emissive factor", matName, zap.Float32s("factor", f[:]))
	}
	if f, ok := src.RoughnessFactor(); ok {
		mat.RoughnessFactor = f
		logger.Debug("roughness factor", matName, zap.Float32("factor", f))
	}
	if f, ok := src.MetallicFactor(); ok {
		mat.MetallicFactor = f
		logger.Debug("metallic factor", matName, zap.Float32("factor", f))
	}

	var paths [len(slotBits)]string
	for slot, bit := range slotBits {
		ref, ok := src.Texture(TextureSlot(slot))
		if !ok || ref == "" {
			continue
		}
		path, err := filepath.Abs(encoding.ResolveRef(srcDir, ref))
		if err != nil {
			return mat, fmt.Errorf("%s texture %q: %w", TextureSlot(slot), ref, err)
		}
		if !texture.Supported(path) {
			return mat, fmt.Errorf("%s texture %q: %w", TextureSlot(slot), ref, texture.ErrUnsupportedImage)
		}
		paths[slot] = path
		mat.Textures |= bit
		logger.Info("found texture", matName, zap.Stringer("slot", TextureSlot(slot)), zap.String("path", path))
	}

	if err := c.writeTextures(&mat, paths, outDir); err != nil {
		return mat, err
	}
	return mat, nil
}

// writeTextures converts the material's textures in the order ORM, base
// colour, emissive, normal, recording each file name. The texture ID advances
// once per material even when nothing is written.
func (c *Converter) writeTextures(mat *mdl.Material, paths [len(slotBits)]string, outDir string) error {
	id := c.textureID
	c.textureID++

	orm := [3]string{paths[SlotOcclusion], paths[SlotRoughness], paths[SlotMetalness]}
	if orm != [3]string{} {
		img, err := c.packORM(orm)
		if err != nil {
			return fmt.Errorf("packing %s: %w", RoleORM, err)
		}
		name, err := c.processTexture(img, RoleORM, mdl.AlphaOpaque, mat.AlphaCutoff, outDir, id)
		if err != nil {
			return fmt.Errorf("%s texture: %w", RoleORM, err)
		}
		mat.OcclusionRoughnessMetalness = name
	}

	single := []struct {
		role  TextureRole
		path  string
		alpha mdl.AlphaMode
		dst   *string
	}{
		{RoleBaseColor, paths[SlotBaseColor], mat.AlphaMode, &mat.BaseColor},
		{RoleEmissive, paths[SlotEmissive], mdl.AlphaOpaque, &mat.Emissive},
		{RoleNormal, paths[SlotNormal], mdl.AlphaOpaque, &mat.Normal},
	}
	for _, s := range single {
		if s.path == "" {
			continue
		}
		img, err := c.codec.Decode(s.path, sourceSpace(s.role))
		if err != nil {
			return fmt.Errorf("%s texture: %w", s.role, err)
		}
		name, err := c.processTexture(img, s.role, s.alpha, mat.AlphaCutoff, outDir, id)
		if err != nil {
			return fmt.Errorf("%s texture: %w", s.role, err)
		}
		*s.dst = name
	}
	return nil
}
