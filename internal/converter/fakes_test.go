package converter

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/Faultbox/assetconv/internal/texture"
	"github.com/Faultbox/assetconv/pkg/dds"
	"github.com/Faultbox/assetconv/pkg/math"
)

type fakeMaterial struct {
	name      string
	wrapU     WrapMode
	wrapV     WrapMode
	alphaMode string
	cutoff    *float32
	baseColor *[4]float32
	emissive  *[3]float32
	roughness *float32
	metallic  *float32
	textures  map[TextureSlot]string
}

func (m *fakeMaterial) Name() string { return m.name }

func (m *fakeMaterial) Wrap() (WrapMode, WrapMode) { return m.wrapU, m.wrapV }

func (m *fakeMaterial) AlphaMode() (string, bool) { return m.alphaMode, m.alphaMode != "" }

func (m *fakeMaterial) AlphaCutoff() (float32, bool) {
	if m.cutoff == nil {
		return 0, false
	}
	return *m.cutoff, true
}

func (m *fakeMaterial) BaseColorFactor() ([4]float32, bool) {
	if m.baseColor == nil {
		return [4]float32{}, false
	}
	return *m.baseColor, true
}

func (m *fakeMaterial) EmissiveFactor() ([3]float32, bool) {
	if m.emissive == nil {
		return [3]float32{}, false
	}
	return *m.emissive, true
}

func (m *fakeMaterial) RoughnessFactor() (float32, bool) {
	if m.roughness == nil {
		return 0, false
	}
	return *m.roughness, true
}

func (m *fakeMaterial) MetallicFactor() (float32, bool) {
	if m.metallic == nil {
		return 0, false
	}
	return *m.metallic, true
}

func (m *fakeMaterial) Texture(slot TextureSlot) (string, bool) {
	ref, ok := m.textures[slot]
	return ref, ok
}

type fakeScene struct {
	root      *Node
	meshes    []*SourceMesh
	materials []*fakeMaterial
}

func (s *fakeScene) RootNode() *Node { return s.root }

func (s *fakeScene) Mesh(i int) *SourceMesh {
	if i < 0 || i >= len(s.meshes) {
		return nil
	}
	return s.meshes[i]
}

func (s *fakeScene) Material(i int) MaterialSource {
	if i < 0 || i >= len(s.materials) {
		return nil
	}
	return s.materials[i]
}

type fakeImporter struct {
	scene SceneSource
	err   error
}

func (f *fakeImporter) Import(string) (SceneSource, error) {
	return f.scene, f.err
}

// triangle returns a one-triangle mesh using material mat. Attributes are
// included per the flags.
func triangle(mat int, uvs, tangents bool) *SourceMesh {
	m := &SourceMesh{
		Name:          fmt.Sprintf("tri%d", mat),
		Positions:     []math.Vec3{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}},
		Normals:       []math.Vec3{{Z: 1}, {Z: 1}, {Z: 1}},
		Indices:       []uint32{0, 1, 2},
		MaterialIndex: mat,
	}
	if uvs {
		m.TexCoords = []math.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}
	}
	if tangents {
		m.Tangents = []math.Vec3{{X: 1}, {X: 1}, {X: 1}}
	}
	return m
}

var errNoImage = errors.New("no such image")

// recordingCodec serves images from memory and records every call.
type recordingCodec struct {
	images map[string]*texture.Image // keyed by base name
	calls  []string
	saved  []savedTexture
}

type savedTexture struct {
	name   string
	format dds.Format
	levels int
}

func newRecordingCodec() *recordingCodec {
	return &recordingCodec{images: make(map[string]*texture.Image)}
}

func (c *recordingCodec) Decode(path string, space texture.ColorSpace) (*texture.Image, error) {
	name := filepath.Base(path)
	c.calls = append(c.calls, fmt.Sprintf("decode %s %s", name, space))
	img, ok := c.images[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, errNoImage)
	}
	out := img.Clone()
	out.Space = space
	return out, nil
}

func (c *recordingCodec) Resize(img *texture.Image, w, h int) (*texture.Image, error) {
	c.calls = append(c.calls, fmt.Sprintf("resize %dx%d", w, h))
	return texture.Resize(img, w, h), nil
}

func (c *recordingCodec) Premultiply(img *texture.Image) error {
	c.calls = append(c.calls, "premultiply")
	texture.Premultiply(img)
	return nil
}

func (c *recordingCodec) GenerateMips(img *texture.Image) ([]*texture.Image, error) {
	c.calls = append(c.calls, "mips")
	return texture.GenerateMips(img)
}

func (c *recordingCodec) ScaleAlphaForCoverage(chain []*texture.Image, cutoff float32) error {
	c.calls = append(c.calls, fmt.Sprintf("coverage %.2f", cutoff))
	return nil
}

func (c *recordingCodec) Compress(chain []*texture.Image, format dds.Format) (*dds.Texture, error) {
	c.calls = append(c.calls, "compress "+format.String())
	return &dds.Texture{
		Width:  chain[0].Width,
		Height: chain[0].Height,
		Format: format,
		Levels: make([][]byte, len(chain)),
	}, nil
}

func (c *recordingCodec) Save(path string, tex *dds.Texture) error {
	name := filepath.Base(path)
	c.calls = append(c.calls, "save "+name)
	c.saved = append(c.saved, savedTexture{name: name, format: tex.Format, levels: len(tex.Levels)})
	return nil
}

func (c *recordingCodec) savedNames() []string {
	var names []string
	for _, s := range c.saved {
		names = append(names, s.name)
	}
	return names
}

func ptr[T any](v T) *T { return &v }

// flatImage returns a w x h image filled with c.
func flatImage(w, h int, c [4]float32) *texture.Image {
	img := texture.NewImage(w, h, texture.Linear)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}
