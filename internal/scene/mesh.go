package scene

import (
	"errors"
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/assetconv/internal/converter"
	"github.com/Faultbox/assetconv/internal/logger"
	"github.com/Faultbox/assetconv/pkg/math"
	"github.com/Faultbox/assetconv/pkg/mdl"
)

// errEmptyPrimitive marks a primitive with no vertices; it is skipped.
var errEmptyPrimitive = errors.New("primitive has no vertices")

func accessor(doc *gltf.Document, prim *gltf.Primitive, name string) (*gltf.Accessor, bool, error) {
	idx, ok := prim.Attributes[name]
	if !ok {
		return nil, false, nil
	}
	if int(idx) >= len(doc.Accessors) {
		return nil, false, fmt.Errorf("%s accessor %d out of range", name, idx)
	}
	return doc.Accessors[idx], true, nil
}

// readPrimitive reads one triangle primitive and moves it into model space
// with world.
func readPrimitive(doc *gltf.Document, prim *gltf.Primitive, world math.Mat4, opts Options) (*converter.SourceMesh, error) {
	acr, ok, err := accessor(doc, prim, gltf.POSITION)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no POSITION attribute: %w", mdl.ErrMissingVertices)
	}
	if acr.Count == 0 {
		return nil, errEmptyPrimitive
	}
	pos, err := modeler.ReadPosition(doc, acr, nil)
	if err != nil {
		return nil, fmt.Errorf("reading positions: %w", err)
	}
	n := len(pos)

	sm := &converter.SourceMesh{Positions: make([]math.Vec3, n)}
	for i, p := range pos {
		sm.Positions[i] = math.Vec3From(p)
	}

	if prim.Indices != nil {
		if int(*prim.Indices) >= len(doc.Accessors) {
			return nil, fmt.Errorf("index accessor %d out of range", *prim.Indices)
		}
		if sm.Indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil); err != nil {
			return nil, fmt.Errorf("reading indices: %w", err)
		}
	} else {
		sm.Indices = make([]uint32, n)
		for i := range sm.Indices {
			sm.Indices[i] = uint32(i)
		}
	}

	if acr, ok, err := accessor(doc, prim, gltf.NORMAL); err != nil {
		return nil, err
	} else if ok {
		normals, err := modeler.ReadNormal(doc, acr, nil)
		if err != nil {
			return nil, fmt.Errorf("reading normals: %w", err)
		}
		sm.Normals = make([]math.Vec3, len(normals))
		for i, v := range normals {
			sm.Normals[i] = math.Vec3From(v)
		}
	}

	if acr, ok, err := accessor(doc, prim, gltf.TEXCOORD_0); err != nil {
		return nil, err
	} else if ok {
		uvs, err := modeler.ReadTextureCoord(doc, acr, nil)
		if err != nil {
			return nil, fmt.Errorf("reading texture coordinates: %w", err)
		}
		sm.TexCoords = make([]math.Vec2, len(uvs))
		for i, v := range uvs {
			sm.TexCoords[i] = math.Vec2From(v)
		}
	}

	if acr, ok, err := accessor(doc, prim, gltf.TANGENT); err != nil {
		return nil, err
	} else if ok {
		tangents, err := modeler.ReadTangent(doc, acr, nil)
		if err != nil {
			return nil, fmt.Errorf("reading tangents: %w", err)
		}
		sm.Tangents = make([]math.Vec3, len(tangents))
		for i, v := range tangents {
			sm.Tangents[i] = math.Vec3{X: v[0], Y: v[1], Z: v[2]}
		}
	}

	if sm.Normals == nil {
		sm.Normals = generateNormals(sm.Positions, sm.Indices)
		logger.Debug("generated normals", zap.Int("vertices", n))
	}
	if opts.GenerateTangents && sm.Tangents == nil && len(sm.TexCoords) == n && len(sm.Normals) == n {
		sm.Tangents = generateTangents(sm.Positions, sm.Normals, sm.TexCoords, sm.Indices)
		logger.Debug("generated tangents", zap.Int("vertices", n))
	}

	transform(sm, world)

	// A mirroring transform already reversed every triangle.
	if opts.FlipWindingOrder != (world.Determinant3x3() < 0) {
		flipWinding(sm.Indices)
	}
	return sm, nil
}

func transform(sm *converter.SourceMesh, world math.Mat4) {
	if world == math.Identity() {
		return
	}
	normalMatrix := world.NormalMatrix()
	for i, p := range sm.Positions {
		sm.Positions[i] = world.TransformPoint(p)
	}
	for i, v := range sm.Normals {
		sm.Normals[i] = normalMatrix.TransformDirection(v).Normalize()
	}
	for i, v := range sm.Tangents {
		sm.Tangents[i] = world.TransformDirection(v).Normalize()
	}
}

func flipWinding(indices []uint32) {
	for t := 0; t+2 < len(indices); t += 3 {
		indices[t+1], indices[t+2] = indices[t+2], indices[t+1]
	}
}

func triangleVertices(indices []uint32, t, n int) (i0, i1, i2 uint32, ok bool) {
	i0, i1, i2 = indices[t], indices[t+1], indices[t+2]
	ok = int(i0) < n && int(i1) < n && int(i2) < n
	return
}

// generateNormals returns area-weighted smooth vertex normals.
func generateNormals(pos []math.Vec3, indices []uint32) []math.Vec3 {
	normals := make([]math.Vec3, len(pos))
	for t := 0; t+2 < len(indices); t += 3 {
		i0, i1, i2, ok := triangleVertices(indices, t, len(pos))
		if !ok {
			continue
		}
		face := pos[i1].Sub(pos[i0]).Cross(pos[i2].Sub(pos[i0]))
		normals[i0] = normals[i0].Add(face)
		normals[i1] = normals[i1].Add(face)
		normals[i2] = normals[i2].Add(face)
	}
	for i, v := range normals {
		if v = v.Normalize(); v == (math.Vec3{}) {
			v = math.Vec3{Y: 1}
		}
		normals[i] = v
	}
	return normals
}

// generateTangents returns per-vertex tangents pointing along increasing U,
// orthogonalised against the normal.
func generateTangents(pos, normals []math.Vec3, uvs []math.Vec2, indices []uint32) []math.Vec3 {
	tangents := make([]math.Vec3, len(pos))
	for t := 0; t+2 < len(indices); t += 3 {
		i0, i1, i2, ok := triangleVertices(indices, t, len(pos))
		if !ok {
			continue
		}
		e1, e2 := pos[i1].Sub(pos[i0]), pos[i2].Sub(pos[i0])
		d1, d2 := uvs[i1].Sub(uvs[i0]), uvs[i2].Sub(uvs[i0])
		det := d1.X*d2.Y - d2.X*d1.Y
		if det > -1e-12 && det < 1e-12 {
			continue
		}
		tan := e1.Scale(d2.Y).Sub(e2.Scale(d1.Y)).Scale(1 / det)
		tangents[i0] = tangents[i0].Add(tan)
		tangents[i1] = tangents[i1].Add(tan)
		tangents[i2] = tangents[i2].Add(tan)
	}
	for i, t := range tangents {
		n := normals[i]
		t = t.Sub(n.Scale(n.Dot(t))).Normalize()
		if t == (math.Vec3{}) {
			t = perpendicular(n)
		}
		tangents[i] = t
	}
	return tangents
}

func perpendicular(n math.Vec3) math.Vec3 {
	axis := math.Vec3{X: 1}
	if n.X > 0.9 || n.X < -0.9 {
		axis = math.Vec3{Y: 1}
	}
	return axis.Sub(n.Scale(n.Dot(axis))).Normalize()
}
