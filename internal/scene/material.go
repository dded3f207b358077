package scene

import (
	"fmt"

	"github.com/qmuntal/gltf"

	"github.com/Faultbox/assetconv/internal/converter"
	"github.com/Faultbox/assetconv/pkg/encoding"
)

// Material adapts a glTF material to converter.MaterialSource. Texture
// references are resolved to image URIs when the scene is loaded.
type Material struct {
	name     string
	src      *gltf.Material
	wrapU    converter.WrapMode
	wrapV    converter.WrapMode
	textures map[converter.TextureSlot]string
}

type textureRef struct {
	slot converter.TextureSlot
	idx  int
}

func newMaterial(doc *gltf.Document, m *gltf.Material) (*Material, error) {
	mat := &Material{name: m.Name, src: m, textures: make(map[converter.TextureSlot]string)}

	var refs []textureRef
	add := func(slot converter.TextureSlot, idx int) {
		refs = append(refs, textureRef{slot, idx})
	}

	if pbr := m.PBRMetallicRoughness; pbr != nil {
		if pbr.BaseColorTexture != nil {
			add(converter.SlotBaseColor, int(pbr.BaseColorTexture.Index))
		}
		// Roughness lives in green and metalness in blue of the same image.
		if pbr.MetallicRoughnessTexture != nil {
			add(converter.SlotMetalness, int(pbr.MetallicRoughnessTexture.Index))
			add(converter.SlotRoughness, int(pbr.MetallicRoughnessTexture.Index))
		}
	}
	if m.OcclusionTexture != nil && m.OcclusionTexture.Index != nil {
		add(converter.SlotOcclusion, int(*m.OcclusionTexture.Index))
	}
	if m.NormalTexture != nil && m.NormalTexture.Index != nil {
		add(converter.SlotNormal, int(*m.NormalTexture.Index))
	}
	if m.EmissiveTexture != nil {
		add(converter.SlotEmissive, int(m.EmissiveTexture.Index))
	}

	for _, r := range refs {
		uri, err := textureURI(doc, r.idx)
		if err != nil {
			return nil, fmt.Errorf("%s texture: %w", r.slot, err)
		}
		mat.textures[r.slot] = uri
		if r.slot == converter.SlotBaseColor {
			mat.wrapU, mat.wrapV = textureWrap(doc, r.idx)
		}
	}
	return mat, nil
}

func textureURI(doc *gltf.Document, idx int) (string, error) {
	if idx < 0 || idx >= len(doc.Textures) {
		return "", fmt.Errorf("texture index %d out of range", idx)
	}
	tex := doc.Textures[idx]
	if tex.Source == nil || int(*tex.Source) >= len(doc.Images) {
		return "", fmt.Errorf("texture %d has no image source", idx)
	}
	img := doc.Images[*tex.Source]
	if img.BufferView != nil || encoding.IsDataURI(img.URI) {
		return "", fmt.Errorf("%w: image %d (%s)", ErrEmbeddedTexture, *tex.Source, img.Name)
	}
	if img.URI == "" {
		return "", fmt.Errorf("image %d has no URI", *tex.Source)
	}
	return img.URI, nil
}

// textureWrap returns the sampler wrap modes of texture idx. A texture without
// a sampler repeats.
func textureWrap(doc *gltf.Document, idx int) (u, v converter.WrapMode) {
	tex := doc.Textures[idx]
	if tex.Sampler == nil || int(*tex.Sampler) >= len(doc.Samplers) {
		return converter.WrapRepeat, converter.WrapRepeat
	}
	s := doc.Samplers[*tex.Sampler]
	return wrapMode(s.WrapS), wrapMode(s.WrapT)
}

func wrapMode(w gltf.WrappingMode) converter.WrapMode {
	switch w {
	case gltf.WrapRepeat:
		return converter.WrapRepeat
	case gltf.WrapMirroredRepeat:
		return converter.WrapMirror
	case gltf.WrapClampToEdge:
		return converter.WrapClamp
	default:
		return converter.WrapOther
	}
}

func (m *Material) Name() string { return m.name }

func (m *Material) Wrap() (u, v converter.WrapMode) { return m.wrapU, m.wrapV }

// AlphaMode reports the glTF alpha mode. glTF always defines one.
func (m *Material) AlphaMode() (string, bool) {
	if m.src == nil {
		return "", false
	}
	switch m.src.AlphaMode {
	case gltf.AlphaOpaque:
		return "OPAQUE", true
	case gltf.AlphaMask:
		return "MASK", true
	case gltf.AlphaBlend:
		return "BLEND", true
	default:
		return fmt.Sprint(m.src.AlphaMode), true
	}
}

func (m *Material) AlphaCutoff() (float32, bool) {
	if m.src == nil {
		return 0, false
	}
	return optional(m.src.AlphaCutoff)
}

func (m *Material) BaseColorFactor() ([4]float32, bool) {
	if m.src == nil || m.src.PBRMetallicRoughness == nil || m.src.PBRMetallicRoughness.BaseColorFactor == nil {
		return [4]float32{}, false
	}
	return vec4Of(*m.src.PBRMetallicRoughness.BaseColorFactor), true
}

func (m *Material) EmissiveFactor() ([3]float32, bool) {
	if m.src == nil {
		return [3]float32{}, false
	}
	return vec3Of(m.src.EmissiveFactor).Array(), true
}

func (m *Material) RoughnessFactor() (float32, bool) {
	if m.src == nil || m.src.PBRMetallicRoughness == nil {
		return 0, false
	}
	return optional(m.src.PBRMetallicRoughness.RoughnessFactor)
}

func (m *Material) MetallicFactor() (float32, bool) {
	if m.src == nil || m.src.PBRMetallicRoughness == nil {
		return 0, false
	}
	return optional(m.src.PBRMetallicRoughness.MetallicFactor)
}

// Texture returns the image URI bound to slot.
func (m *Material) Texture(slot converter.TextureSlot) (string, bool) {
	ref, ok := m.textures[slot]
	return ref, ok
}
