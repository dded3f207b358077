// Package converter turns an imported scene into a StaticModel and its
// block-compressed textures.
package converter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/assetconv/internal/logger"
	"github.com/Faultbox/assetconv/pkg/mdl"
)

// Converter converts scenes. It owns the texture ID counter that keeps texture
// file names unique across every material it converts, so one Converter
// should be used per output directory. It is not safe for concurrent use.
type Converter struct {
	codec     ImageCodec
	textureID int
}

// New creates a Converter that processes textures with codec.
func New(codec ImageCodec) *Converter {
	return &Converter{codec: codec}
}

// TextureID returns the ID the next material's textures will use.
func (c *Converter) TextureID() int {
	return c.textureID
}

// Convert visits the root node and its direct children in order and extracts
// one mesh from the first geometry reference of each node that has one.
// Textures are written to outDir; references resolve against srcDir. Any
// failure aborts the conversion.
func (c *Converter) Convert(scene SceneSource, srcDir, outDir string) (*mdl.StaticModel, error) {
	root := scene.RootNode()
	if root == nil {
		return nil, ErrEmptyScene
	}

	model := &mdl.StaticModel{}
	materials := make(map[int]mdl.Material)

	nodes := append([]*Node{root}, root.Children...)
	for _, node := range nodes {
		if node == nil || len(node.Meshes) == 0 {
			continue
		}
		logger.Info("processing node", zap.Int("node", len(model.Meshes)), zap.String("name", node.Name))

		mesh, err := c.convertNode(scene, node, materials, srcDir, outDir)
		if err != nil {
			return nil, fmt.Errorf("node %d (%s): %w", len(model.Meshes), node.Name, err)
		}
		model.Meshes = append(model.Meshes, mesh)
	}

	logger.Info("finished processing model", zap.Int("meshes", len(model.Meshes)), zap.Int("materials", len(materials)))
	return model, nil
}

func (c *Converter) convertNode(scene SceneSource, node *Node, materials map[int]mdl.Material, srcDir, outDir string) (mdl.Mesh, error) {
	meshIdx := node.Meshes[0]
	src := scene.Mesh(meshIdx)
	if src == nil {
		return mdl.Mesh{}, fmt.Errorf("%w: index %d", ErrMeshNotFound, meshIdx)
	}

	// Meshes sharing a material reuse its textures.
	mat, ok := materials[src.MaterialIndex]
	if !ok {
		matSrc := scene.Material(src.MaterialIndex)
		if matSrc == nil {
			return mdl.Mesh{}, fmt.Errorf("%w: index %d", ErrNoMaterial, src.MaterialIndex)
		}
		var err error
		if mat, err = c.extractMaterial(matSrc, srcDir, outDir); err != nil {
			return mdl.Mesh{}, fmt.Errorf("material %q: %w", matSrc.Name(), err)
		}
		materials[src.MaterialIndex] = mat
	}

	mesh, err := ExtractMesh(src, mat)
	if err != nil {
		return mdl.Mesh{}, fmt.Errorf("mesh %d (%s): %w", meshIdx, src.Name, err)
	}
	logger.Debug("extracted mesh",
		zap.String("mesh", src.Name),
		zap.Stringer("layout", mesh.Layout()),
		zap.Int("vertices", mesh.Vertices.Len()),
		zap.Int("triangles", len(mesh.Indices)/3),
		zap.Stringer("textures", mat.Textures))
	return mesh, nil
}

// Options controls ConvertFile.
type Options struct {
	// ModelName overrides the model file name, without extension.
	ModelName string
}

// ModelName returns the default model name for an output directory: its base
// name without extension.
func ModelName(outDir string) string {
	if abs, err := filepath.Abs(outDir); err == nil {
		outDir = abs
	}
	base := filepath.Base(outDir)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ConvertFile imports src, converts it and writes <outDir>/<name>.mdl. The
// output directory must exist. It returns the model path.
func ConvertFile(imp Importer, codec ImageCodec, src, outDir string, opts Options) (string, error) {
	logger.Info("loading model", zap.String("path", src))
	scene, err := imp.Import(src)
	if err != nil {
		return "", fmt.Errorf("importing %s: %w", src, err)
	}

	if st, err := os.Stat(outDir); err != nil {
		return "", err
	} else if !st.IsDir() {
		return "", fmt.Errorf("%s is not a directory", outDir)
	}

	model, err := New(codec).Convert(scene, filepath.Dir(src), outDir)
	if err != nil {
		return "", fmt.Errorf("converting %s: %w", src, err)
	}

	name := opts.ModelName
	if name == "" {
		name = ModelName(outDir)
	}
	dst := filepath.Join(outDir, name+".mdl")
	if err := mdl.Save(dst, model); err != nil {
		return "", err
	}
	logger.Info("saved model", zap.String("path", dst), zap.Int("meshes", len(model.Meshes)))
	return dst, nil
}
