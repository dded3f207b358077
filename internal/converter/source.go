package converter

import (
	"github.com/Faultbox/assetconv/internal/texture"
	"github.com/Faultbox/assetconv/pkg/dds"
	"github.com/Faultbox/assetconv/pkg/math"
)

// Node is one node of an imported scene. Meshes index into the scene's mesh
// array; only the first entry of a node is converted.
type Node struct {
	Name     string
	Meshes   []int
	Children []*Node
}

// SourceMesh is triangle geometry as delivered by an importer, already in
// model space. Optional attributes are nil when absent.
type SourceMesh struct {
	Name          string
	Positions     []math.Vec3
	Normals       []math.Vec3
	TexCoords     []math.Vec2 // first UV channel
	Tangents      []math.Vec3
	Indices       []uint32
	MaterialIndex int
}

// WrapMode is a texture wrap mode as reported by the source asset.
type WrapMode uint8

const (
	WrapUnset WrapMode = iota
	WrapRepeat
	WrapMirror
	WrapClamp
	WrapOther // present but not representable
)

// TextureSlot identifies a material texture input.
type TextureSlot uint8

const (
	SlotBaseColor TextureSlot = iota
	SlotMetalness
	SlotRoughness
	SlotOcclusion
	SlotNormal
	SlotEmissive
)

var slotNames = [...]string{"base color", "metalness", "roughness", "occlusion", "normal", "emissive"}

func (s TextureSlot) String() string {
	if int(s) < len(slotNames) {
		return slotNames[s]
	}
	return "unknown"
}

// MaterialSource answers property queries for one source material. Every
// getter reports whether the property is present.
type MaterialSource interface {
	Name() string
	// Wrap returns the U and V wrap modes of the base colour texture.
	Wrap() (u, v WrapMode)
	AlphaMode() (string, bool)
	AlphaCutoff() (float32, bool)
	BaseColorFactor() ([4]float32, bool)
	EmissiveFactor() ([3]float32, bool)
	RoughnessFactor() (float32, bool)
	MetallicFactor() (float32, bool)
	// Texture returns the file reference for slot, relative to the source
	// asset's directory unless absolute.
	Texture(slot TextureSlot) (string, bool)
}

// SceneSource is an imported scene.
type SceneSource interface {
	RootNode() *Node
	// Mesh returns mesh i, or nil when out of range.
	Mesh(i int) *SourceMesh
	// Material returns material i, or nil when out of range.
	Material(i int) MaterialSource
}

// Importer loads a scene from a source asset file.
type Importer interface {
	Import(path string) (SceneSource, error)
}

// ImageCodec is the pixel-processing service used for textures.
type ImageCodec interface {
	Decode(path string, space texture.ColorSpace) (*texture.Image, error)
	Resize(img *texture.Image, w, h int) (*texture.Image, error)
	Premultiply(img *texture.Image) error
	GenerateMips(img *texture.Image) ([]*texture.Image, error)
	ScaleAlphaForCoverage(chain []*texture.Image, cutoff float32) error
	Compress(chain []*texture.Image, format dds.Format) (*dds.Texture, error)
	Save(path string, tex *dds.Texture) error
}
