// Package scene imports glTF 2.0 assets into the converter's scene model.
//
// The node hierarchy is flattened: every triangle primitive instanced by a node
// becomes one child of a synthetic root, with positions, normals and tangents
// already transformed into model space.
package scene

import (
	"errors"
	"fmt"

	"github.com/qmuntal/gltf"
	"go.uber.org/zap"

	"github.com/Faultbox/assetconv/internal/converter"
	"github.com/Faultbox/assetconv/internal/logger"
	"github.com/Faultbox/assetconv/pkg/math"
)

// Import errors.
var (
	ErrNoScene         = errors.New("document has no scene")
	ErrEmbeddedTexture = errors.New("embedded textures are not supported")
	ErrNodeCycle       = errors.New("node hierarchy contains a cycle")
)

// Options controls post-processing applied while importing.
type Options struct {
	// FlipWindingOrder reverses every triangle.
	FlipWindingOrder bool
	// GenerateTangents computes tangents for primitives that have texture
	// coordinates but no TANGENT attribute.
	GenerateTangents bool
}

// DefaultOptions returns the options the converter runs with by default.
func DefaultOptions() Options {
	return Options{FlipWindingOrder: true, GenerateTangents: true}
}

// Importer loads glTF files. It implements converter.Importer.
type Importer struct {
	opts Options
}

// NewImporter creates an importer.
func NewImporter(opts Options) *Importer {
	return &Importer{opts: opts}
}

// Import opens a .gltf or .glb file.
func (imp *Importer) Import(path string) (converter.SceneSource, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return imp.Load(doc)
}

// Scene is an imported, flattened glTF scene. It implements
// converter.SceneSource.
type Scene struct {
	root      *converter.Node
	meshes    []*converter.SourceMesh
	materials []*Material
}

// RootNode returns the synthetic root. It carries no geometry itself.
func (s *Scene) RootNode() *converter.Node {
	return s.root
}

// Mesh returns mesh i, or nil when out of range.
func (s *Scene) Mesh(i int) *converter.SourceMesh {
	if i < 0 || i >= len(s.meshes) {
		return nil
	}
	return s.meshes[i]
}

// Material returns material i, or nil when out of range.
func (s *Scene) Material(i int) converter.MaterialSource {
	if i < 0 || i >= len(s.materials) {
		return nil
	}
	return s.materials[i]
}

// Load builds a Scene from an already decoded document. The default scene is
// used, or the first one when the document names none.
func (imp *Importer) Load(doc *gltf.Document) (*Scene, error) {
	if len(doc.Scenes) == 0 {
		return nil, ErrNoScene
	}
	sceneIdx := 0
	if doc.Scene != nil {
		sceneIdx = int(*doc.Scene)
	}
	if sceneIdx >= len(doc.Scenes) {
		return nil, fmt.Errorf("%w: index %d of %d", ErrNoScene, sceneIdx, len(doc.Scenes))
	}
	gs := doc.Scenes[sceneIdx]

	s := &Scene{root: &converter.Node{Name: gs.Name}}
	for i, m := range doc.Materials {
		mat, err := newMaterial(doc, m)
		if err != nil {
			return nil, fmt.Errorf("material %d (%s): %w", i, m.Name, err)
		}
		s.materials = append(s.materials, mat)
	}

	b := &builder{doc: doc, opts: imp.opts, scene: s, defaultMaterial: -1, visiting: make(map[int]bool)}
	for _, n := range gs.Nodes {
		if err := b.visit(int(n), math.Identity()); err != nil {
			return nil, err
		}
	}

	logger.Info("imported scene",
		zap.String("scene", gs.Name),
		zap.Int("nodes", len(s.root.Children)),
		zap.Int("meshes", len(s.meshes)),
		zap.Int("materials", len(s.materials)))
	return s, nil
}

type builder struct {
	doc             *gltf.Document
	opts            Options
	scene           *Scene
	defaultMaterial int
	visiting        map[int]bool
}

func (b *builder) visit(idx int, parent math.Mat4) error {
	if idx < 0 || idx >= len(b.doc.Nodes) {
		return fmt.Errorf("node index %d out of range", idx)
	}
	if b.visiting[idx] {
		return fmt.Errorf("%w: node %d", ErrNodeCycle, idx)
	}
	b.visiting[idx] = true
	defer delete(b.visiting, idx)

	node := b.doc.Nodes[idx]
	world := parent.Mul(localTransform(node))

	if node.Mesh != nil {
		if err := b.addMesh(idx, int(*node.Mesh), world); err != nil {
			return err
		}
	}
	for _, child := range node.Children {
		if err := b.visit(int(child), world); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) addMesh(nodeIdx, meshIdx int, world math.Mat4) error {
	if meshIdx >= len(b.doc.Meshes) {
		return fmt.Errorf("node %d: mesh index %d out of range", nodeIdx, meshIdx)
	}
	node := b.doc.Nodes[nodeIdx]
	gm := b.doc.Meshes[meshIdx]

	name := node.Name
	if name == "" {
		name = gm.Name
	}
	if name == "" {
		name = fmt.Sprintf("node%d", nodeIdx)
	}

	for p, prim := range gm.Primitives {
		primName := name
		if len(gm.Primitives) > 1 {
			primName = fmt.Sprintf("%s.%d", name, p)
		}
		if prim.Mode != gltf.PrimitiveTriangles {
			logger.Warn("skipping non-triangle primitive", zap.String("mesh", primName), zap.Int("mode", int(prim.Mode)))
			continue
		}

		sm, err := readPrimitive(b.doc, prim, world, b.opts)
		if errors.Is(err, errEmptyPrimitive) {
			logger.Warn("skipping empty primitive", zap.String("mesh", primName))
			continue
		}
		if err != nil {
			return fmt.Errorf("mesh %d (%s) primitive %d: %w", meshIdx, gm.Name, p, err)
		}
		sm.Name = primName
		if prim.Material != nil {
			sm.MaterialIndex = int(*prim.Material)
		} else {
			sm.MaterialIndex = b.fallbackMaterial()
		}

		b.scene.meshes = append(b.scene.meshes, sm)
		b.scene.root.Children = append(b.scene.root.Children, &converter.Node{
			Name:   primName,
			Meshes: []int{len(b.scene.meshes) - 1},
		})
	}
	return nil
}

// fallbackMaterial returns the index of a default material for primitives
// that reference none, adding it on first use.
func (b *builder) fallbackMaterial() int {
	if b.defaultMaterial < 0 {
		b.scene.materials = append(b.scene.materials, &Material{name: "default", textures: map[converter.TextureSlot]string{}})
		b.defaultMaterial = len(b.scene.materials) - 1
	}
	return b.defaultMaterial
}

// localTransform returns a node's matrix, or its TRS properties composed when
// no matrix is set.
func localTransform(n *gltf.Node) math.Mat4 {
	if m := mat4Of(n.Matrix); m != (math.Mat4{}) && m != math.Identity() {
		return m
	}
	r := quatOf(n.Rotation)
	if r == (math.Quat{}) {
		r = math.QuatIdentity()
	}
	s := vec3Of(n.Scale)
	if s == (math.Vec3{}) {
		s = math.Vec3{X: 1, Y: 1, Z: 1}
	}
	return math.TRS(vec3Of(n.Translation), r.Normalize(), s)
}

type float interface {
	~float32 | ~float64
}

func vec3Of[T float](a [3]T) math.Vec3 {
	return math.Vec3{X: float32(a[0]), Y: float32(a[1]), Z: float32(a[2])}
}

func vec4Of[T float](a [4]T) [4]float32 {
	return [4]float32{float32(a[0]), float32(a[1]), float32(a[2]), float32(a[3])}
}

func quatOf[T float](a [4]T) math.Quat {
	return math.QuatFrom(vec4Of(a))
}

func mat4Of[T float](a [16]T) math.Mat4 {
	var m math.Mat4
	for i, v := range a {
		m[i] = float32(v)
	}
	return m
}

func optional[T float](p *T) (float32, bool) {
	if p == nil {
		return 0, false
	}
	return float32(*p), true
}
