package converter

import "errors"

// Conversion errors.
var (
	ErrEmptyScene       = errors.New("scene has no root node")
	ErrMeshNotFound     = errors.New("mesh not found")
	ErrNoMaterial       = errors.New("material not found")
	ErrMissingNormals   = errors.New("mesh has no normals")
	ErrMissingTexCoords = errors.New("mesh has no texture coordinates")
	ErrMissingTangents  = errors.New("mesh has no tangents")
	ErrInvalidIndices   = errors.New("invalid index buffer")
)
