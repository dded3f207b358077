package mdl

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"
)

// reader keeps the first error so decoding code can stay linear.
type reader struct {
	r   io.Reader
	err error
}

func (r *reader) get(v any) {
	if r.err != nil {
		return
	}
	if err := binary.Read(r.r, binary.LittleEndian, v); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			err = ErrTruncatedData
		}
		r.err = err
	}
}

func (r *reader) u8() uint8 {
	var v uint8
	r.get(&v)
	return v
}

func (r *reader) u32() uint32 {
	var v uint32
	r.get(&v)
	return v
}

func (r *reader) count(limit uint32, what string) int {
	n := r.u32()
	if r.err == nil && n > limit {
		r.err = fmt.Errorf("%w: %s count %d exceeds %d", ErrTruncatedData, what, n, limit)
	}
	return int(n)
}

// readChunk bounds each binary.Read in readRecords.
const readChunk = 4096

// readRecords reads n fixed-size records in chunks, so memory grows with the
// bytes actually present rather than with a count read from the stream.
// It returns nil when n is 0.
func readRecords[T any](r *reader, n int) []T {
	if n == 0 || r.err != nil {
		return nil
	}
	buf := make([]T, min(n, readChunk))
	out := make([]T, 0, len(buf))
	for len(out) < n {
		k := min(n-len(out), readChunk)
		r.get(buf[:k])
		if r.err != nil {
			return nil
		}
		out = append(out, buf[:k]...)
	}
	return out
}

func (r *reader) str() string {
	present := r.u8()
	if r.err != nil || present == 0 {
		return ""
	}
	if present != 1 {
		r.err = fmt.Errorf("%w: presence flag %d", ErrInvalidString, present)
		return ""
	}
	n := r.count(maxStringBytes, "string")
	if r.err != nil {
		return ""
	}
	buf := make([]byte, n)
	r.get(buf)
	if r.err != nil {
		return ""
	}
	s := string(buf)
	if err := validString(s); err != nil {
		r.err = err
		return ""
	}
	return s
}

// Read decodes a model from r.
func Read(r io.Reader) (*StaticModel, error) {
	br := &reader{r: r}

	magic := make([]byte, len(Magic))
	br.get(magic)
	if br.err != nil {
		return nil, br.err
	}
	if string(magic) != Magic {
		return nil, ErrInvalidMagic
	}

	ver := Version{Major: br.u8(), Minor: br.u8()}
	if br.err != nil {
		return nil, br.err
	}
	if ver.Major != CurrentVersion.Major {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedVersion, ver)
	}

	n := br.count(maxMeshes, "mesh")
	if br.err != nil {
		return nil, br.err
	}

	model := &StaticModel{}
	for i := 0; i < n; i++ {
		mesh, err := readMesh(br)
		if err != nil {
			return nil, fmt.Errorf("mesh %d: %w", i, err)
		}
		model.Meshes = append(model.Meshes, mesh)
	}
	return model, nil
}

func readMesh(r *reader) (Mesh, error) {
	var mesh Mesh

	layout := VertexLayout(r.u8())
	nv := r.count(maxVertices, "vertex")
	if r.err != nil {
		return mesh, r.err
	}

	switch layout {
	case LayoutP3N3:
		mesh.Vertices = P3N3Vertices(readRecords[VertexP3N3](r, nv))
	case LayoutP3N3U2:
		mesh.Vertices = P3N3U2Vertices(readRecords[VertexP3N3U2](r, nv))
	case LayoutP3N3U2T3:
		mesh.Vertices = P3N3U2T3Vertices(readRecords[VertexP3N3U2T3](r, nv))
	default:
		return mesh, fmt.Errorf("%w: %d", ErrInvalidLayout, layout)
	}

	ni := r.count(maxIndices, "index")
	if r.err != nil {
		return mesh, r.err
	}
	mesh.Indices = readRecords[uint32](r, ni)

	mesh.Material = readMaterial(r)
	if r.err != nil {
		return mesh, r.err
	}
	if err := checkMaterial(&mesh.Material); err != nil {
		return mesh, err
	}
	if err := mesh.Validate(); err != nil {
		return mesh, err
	}
	return mesh, nil
}

func readMaterial(r *reader) Material {
	var m Material
	m.Textures = TextureType(r.u32())
	r.get(&m.BaseColorFactor)
	r.get(&m.MetallicFactor)
	r.get(&m.RoughnessFactor)
	r.get(&m.EmissiveFactor)
	r.get(&m.AlphaCutoff)
	m.AlphaMode = AlphaMode(r.u8())
	m.AddressU = AddressMode(r.u8())
	m.AddressV = AddressMode(r.u8())
	m.BaseColor = r.str()
	m.OcclusionRoughnessMetalness = r.str()
	m.Normal = r.str()
	m.Emissive = r.str()
	return m
}

func validString(s string) error {
	if len(s) > maxStringBytes {
		return fmt.Errorf("%w: %d bytes", ErrInvalidString, len(s))
	}
	if !utf8.ValidString(s) {
		return fmt.Errorf("%w: not UTF-8", ErrInvalidString)
	}
	return nil
}

// Load reads a model file from disk.
func Load(path string) (*StaticModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := Read(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return m, nil
}
