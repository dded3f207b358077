// Package mdl defines the static model artifact produced by the converter and
// its binary encoding.
package mdl

import (
	"fmt"
	"strings"

	"github.com/Faultbox/assetconv/pkg/math"
)

// AlphaMode controls how a material's alpha channel is interpreted.
type AlphaMode uint8

const (
	AlphaOpaque AlphaMode = 0 // Alpha ignored
	AlphaMask   AlphaMode = 1 // Alpha tested against the cutoff
	AlphaBlend  AlphaMode = 2 // Alpha blended
)

// String returns the glTF spelling of the mode.
func (a AlphaMode) String() string {
	switch a {
	case AlphaOpaque:
		return "OPAQUE"
	case AlphaMask:
		return "MASK"
	case AlphaBlend:
		return "BLEND"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(a))
	}
}

// ParseAlphaMode parses "OPAQUE", "MASK" or "BLEND".
func ParseAlphaMode(s string) (AlphaMode, bool) {
	switch s {
	case "OPAQUE":
		return AlphaOpaque, true
	case "MASK":
		return AlphaMask, true
	case "BLEND":
		return AlphaBlend, true
	}
	return AlphaOpaque, false
}

func (a AlphaMode) valid() bool {
	return a <= AlphaBlend
}

// TextureType is a bitmask of the texture slots a material populates.
type TextureType uint32

const (
	TextureBaseColor TextureType = 1 << 0
	TextureMetalness TextureType = 1 << 1
	TextureRoughness TextureType = 1 << 2
	TextureOcclusion TextureType = 1 << 3
	TextureNormal    TextureType = 1 << 4
	TextureEmissive  TextureType = 1 << 5

	// TextureORM covers the slots packed into the occlusion-roughness-metalness map.
	TextureORM = TextureOcclusion | TextureRoughness | TextureMetalness

	textureAll = TextureBaseColor | TextureORM | TextureNormal | TextureEmissive
)

var textureNames = []struct {
	bit  TextureType
	name string
}{
	{TextureBaseColor, "BaseColor"},
	{TextureMetalness, "Metalness"},
	{TextureRoughness, "Roughness"},
	{TextureOcclusion, "Occlusion"},
	{TextureNormal, "Normal"},
	{TextureEmissive, "Emissive"},
}

// Has reports whether every bit in other is set.
func (t TextureType) Has(other TextureType) bool {
	return t&other == other
}

// Any reports whether at least one bit in other is set.
func (t TextureType) Any(other TextureType) bool {
	return t&other != 0
}

// String returns the set slots joined by "|".
func (t TextureType) String() string {
	if t == 0 {
		return "None"
	}
	var parts []string
	for _, n := range textureNames {
		if t&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	if rest := t &^ textureAll; rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint32(rest)))
	}
	return strings.Join(parts, "|")
}

// AddressMode is a sampler addressing mode, numbered as in D3D11.
type AddressMode uint8

const (
	AddressWrap   AddressMode = 1
	AddressMirror AddressMode = 2
	AddressClamp  AddressMode = 3
)

// String returns a human-readable address mode name.
func (a AddressMode) String() string {
	switch a {
	case AddressWrap:
		return "Wrap"
	case AddressMirror:
		return "Mirror"
	case AddressClamp:
		return "Clamp"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(a))
	}
}

func (a AddressMode) valid() bool {
	return a >= AddressWrap && a <= AddressClamp
}

// Material describes how a mesh is shaded. Texture fields hold filenames
// relative to the directory containing the model file; empty means absent.
type Material struct {
	Textures TextureType

	BaseColorFactor [4]float32
	MetallicFactor  float32
	RoughnessFactor float32
	EmissiveFactor  [3]float32
	AlphaCutoff     float32

	AlphaMode AlphaMode
	AddressU  AddressMode
	AddressV  AddressMode

	BaseColor                   string
	OcclusionRoughnessMetalness string
	Normal                      string
	Emissive                    string
}

// DefaultMaterial returns a material with the glTF default factors.
func DefaultMaterial() Material {
	return Material{
		BaseColorFactor: [4]float32{1, 1, 1, 1},
		MetallicFactor:  1,
		RoughnessFactor: 1,
		AlphaCutoff:     0.5,
		AlphaMode:       AlphaOpaque,
		AddressU:        AddressClamp,
		AddressV:        AddressClamp,
	}
}

// Validate checks that texture bits and filenames agree.
func (m *Material) Validate() error {
	checks := []struct {
		bits TextureType
		file string
		name string
	}{
		{TextureBaseColor, m.BaseColor, "base color"},
		{TextureORM, m.OcclusionRoughnessMetalness, "occlusion-roughness-metalness"},
		{TextureNormal, m.Normal, "normal"},
		{TextureEmissive, m.Emissive, "emissive"},
	}
	for _, c := range checks {
		if m.Textures.Any(c.bits) != (c.file != "") {
			return fmt.Errorf("%w: %s flag=%v file=%q", ErrTextureMismatch, c.name, m.Textures.Any(c.bits), c.file)
		}
	}
	return nil
}

// VertexLayout tags which vertex shape a mesh uses.
type VertexLayout uint8

const (
	LayoutP3N3     VertexLayout = 0 // Position + normal
	LayoutP3N3U2   VertexLayout = 1 // Position + normal + UV
	LayoutP3N3U2T3 VertexLayout = 2 // Position + normal + UV + tangent
)

// String returns the layout name.
func (l VertexLayout) String() string {
	switch l {
	case LayoutP3N3:
		return "P3N3"
	case LayoutP3N3U2:
		return "P3N3U2"
	case LayoutP3N3U2T3:
		return "P3N3U2T3"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(l))
	}
}

// VertexP3N3 is a vertex with position and normal.
type VertexP3N3 struct {
	Position math.Vec3
	Normal   math.Vec3
}

// VertexP3N3U2 is a vertex with position, normal and texture coordinate.
type VertexP3N3U2 struct {
	Position math.Vec3
	Normal   math.Vec3
	UV       math.Vec2
}

// VertexP3N3U2T3 is a vertex with position, normal, texture coordinate and tangent.
type VertexP3N3U2T3 struct {
	Position math.Vec3
	Normal   math.Vec3
	UV       math.Vec2
	Tangent  math.Vec3
}

// Vertices is a vertex buffer in exactly one of the three layouts. It is
// implemented only by P3N3Vertices, P3N3U2Vertices and P3N3U2T3Vertices.
type Vertices interface {
	Layout() VertexLayout
	Len() int
	vertices()
}

// P3N3Vertices is a LayoutP3N3 vertex buffer.
type P3N3Vertices []VertexP3N3

// P3N3U2Vertices is a LayoutP3N3U2 vertex buffer.
type P3N3U2Vertices []VertexP3N3U2

// P3N3U2T3Vertices is a LayoutP3N3U2T3 vertex buffer.
type P3N3U2T3Vertices []VertexP3N3U2T3

func (P3N3Vertices) Layout() VertexLayout     { return LayoutP3N3 }
func (P3N3U2Vertices) Layout() VertexLayout   { return LayoutP3N3U2 }
func (P3N3U2T3Vertices) Layout() VertexLayout { return LayoutP3N3U2T3 }

func (v P3N3Vertices) Len() int     { return len(v) }
func (v P3N3U2Vertices) Len() int   { return len(v) }
func (v P3N3U2T3Vertices) Len() int { return len(v) }

func (P3N3Vertices) vertices()     {}
func (P3N3U2Vertices) vertices()   {}
func (P3N3U2T3Vertices) vertices() {}

// Mesh is one draw call: a vertex buffer, a triangle list and its material.
type Mesh struct {
	Vertices Vertices
	Indices  []uint32
	Material Material
}

// Layout returns the layout of the mesh's vertex buffer.
func (m *Mesh) Layout() VertexLayout {
	return m.Vertices.Layout()
}

// Validate checks the vertex buffer, index range and material consistency.
func (m *Mesh) Validate() error {
	if m.Vertices == nil {
		return ErrMissingVertices
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("%w: %d indices is not a triangle list", ErrIndexOutOfRange, len(m.Indices))
	}
	n := uint32(m.Vertices.Len())
	for i, idx := range m.Indices {
		if idx >= n {
			return fmt.Errorf("%w: index %d = %d, vertex count %d", ErrIndexOutOfRange, i, idx, n)
		}
	}
	return m.Material.Validate()
}

// StaticModel is an ordered list of meshes already in a single coordinate space.
type StaticModel struct {
	Meshes []Mesh
}
