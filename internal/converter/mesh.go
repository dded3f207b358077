package converter

import (
	"fmt"

	"github.com/Faultbox/assetconv/pkg/mdl"
)

// SelectLayout picks the vertex layout for a mesh: normal-mapped materials
// need tangents, otherwise UVs are kept when the mesh has them.
func SelectLayout(mat *mdl.Material, src *SourceMesh) mdl.VertexLayout {
	switch {
	case mat.Textures.Has(mdl.TextureNormal):
		return mdl.LayoutP3N3U2T3
	case len(src.TexCoords) > 0:
		return mdl.LayoutP3N3U2
	default:
		return mdl.LayoutP3N3
	}
}

// ExtractMesh copies src into a Mesh with the layout chosen by SelectLayout.
// Attributes the layout needs must be present for every vertex.
func ExtractMesh(src *SourceMesh, mat mdl.Material) (mdl.Mesh, error) {
	n := len(src.Positions)
	if n == 0 {
		return mdl.Mesh{}, mdl.ErrMissingVertices
	}
	if len(src.Normals) != n {
		return mdl.Mesh{}, fmt.Errorf("%w: %d normals for %d vertices", ErrMissingNormals, len(src.Normals), n)
	}
	if err := checkIndices(src.Indices, n); err != nil {
		return mdl.Mesh{}, err
	}

	layout := SelectLayout(&mat, src)
	if layout != mdl.LayoutP3N3 && len(src.TexCoords) != n {
		return mdl.Mesh{}, fmt.Errorf("%w: %d texture coordinates for %d vertices", ErrMissingTexCoords, len(src.TexCoords), n)
	}
	if layout == mdl.LayoutP3N3U2T3 && len(src.Tangents) != n {
		return mdl.Mesh{}, fmt.Errorf("%w: %d tangents for %d vertices", ErrMissingTangents, len(src.Tangents), n)
	}

	var vertices mdl.Vertices
	switch layout {
	case mdl.LayoutP3N3U2T3:
		vs := make(mdl.P3N3U2T3Vertices, n)
		for i := range vs {
			vs[i] = mdl.VertexP3N3U2T3{
				Position: src.Positions[i],
				Normal:   src.Normals[i],
				UV:       src.TexCoords[i],
				Tangent:  src.Tangents[i],
			}
		}
		vertices = vs
	case mdl.LayoutP3N3U2:
		vs := make(mdl.P3N3U2Vertices, n)
		for i := range vs {
			vs[i] = mdl.VertexP3N3U2{Position: src.Positions[i], Normal: src.Normals[i], UV: src.TexCoords[i]}
		}
		vertices = vs
	default:
		vs := make(mdl.P3N3Vertices, n)
		for i := range vs {
			vs[i] = mdl.VertexP3N3{Position: src.Positions[i], Normal: src.Normals[i]}
		}
		vertices = vs
	}

	return mdl.Mesh{
		Vertices: vertices,
		Indices:  append([]uint32(nil), src.Indices...),
		Material: mat,
	}, nil
}

func checkIndices(indices []uint32, vertexCount int) error {
	if len(indices)%3 != 0 {
		return fmt.Errorf("%w: %d indices is not a triangle list", ErrInvalidIndices, len(indices))
	}
	for i, idx := range indices {
		if int64(idx) >= int64(vertexCount) {
			return fmt.Errorf("%w: index %d references vertex %d of %d", ErrInvalidIndices, i, idx, vertexCount)
		}
	}
	return nil
}
