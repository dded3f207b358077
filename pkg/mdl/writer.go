package mdl

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// writer accumulates the first error so encoding code can stay linear.
type writer struct {
	w   io.Writer
	err error
}

func (w *writer) put(v any) {
	if w.err != nil {
		return
	}
	w.err = binary.Write(w.w, binary.LittleEndian, v)
}

func (w *writer) putString(s string) {
	if s == "" {
		w.put(uint8(0))
		return
	}
	w.put(uint8(1))
	w.put(uint32(len(s)))
	if w.err == nil {
		_, w.err = io.WriteString(w.w, s)
	}
}

// Write encodes m to w. Meshes are validated before anything is written.
func Write(w io.Writer, m *StaticModel) error {
	for i := range m.Meshes {
		if err := m.Meshes[i].Validate(); err != nil {
			return fmt.Errorf("mesh %d: %w", i, err)
		}
		if err := checkMaterial(&m.Meshes[i].Material); err != nil {
			return fmt.Errorf("mesh %d: %w", i, err)
		}
	}

	bw := &writer{w: w}
	bw.put([]byte(Magic))
	bw.put(CurrentVersion.Major)
	bw.put(CurrentVersion.Minor)
	bw.put(uint32(len(m.Meshes)))

	for i := range m.Meshes {
		writeMesh(bw, &m.Meshes[i])
	}
	return bw.err
}

func writeMesh(w *writer, mesh *Mesh) {
	w.put(uint8(mesh.Layout()))
	w.put(uint32(mesh.Vertices.Len()))
	switch v := mesh.Vertices.(type) {
	case P3N3Vertices:
		w.put([]VertexP3N3(v))
	case P3N3U2Vertices:
		w.put([]VertexP3N3U2(v))
	case P3N3U2T3Vertices:
		w.put([]VertexP3N3U2T3(v))
	}

	w.put(uint32(len(mesh.Indices)))
	w.put(mesh.Indices)

	writeMaterial(w, &mesh.Material)
}

func writeMaterial(w *writer, m *Material) {
	w.put(uint32(m.Textures))
	w.put(m.BaseColorFactor)
	w.put(m.MetallicFactor)
	w.put(m.RoughnessFactor)
	w.put(m.EmissiveFactor)
	w.put(m.AlphaCutoff)
	w.put(uint8(m.AlphaMode))
	w.put(uint8(m.AddressU))
	w.put(uint8(m.AddressV))
	w.putString(m.BaseColor)
	w.putString(m.OcclusionRoughnessMetalness)
	w.putString(m.Normal)
	w.putString(m.Emissive)
}

func checkMaterial(m *Material) error {
	if !m.AlphaMode.valid() {
		return fmt.Errorf("%w: alpha mode %d", ErrInvalidEnum, m.AlphaMode)
	}
	if !m.AddressU.valid() || !m.AddressV.valid() {
		return fmt.Errorf("%w: address mode %d/%d", ErrInvalidEnum, m.AddressU, m.AddressV)
	}
	for _, s := range []string{m.BaseColor, m.OcclusionRoughnessMetalness, m.Normal, m.Emissive} {
		if err := validString(s); err != nil {
			return err
		}
	}
	return nil
}

// Save writes m to path, replacing any existing file.
func Save(path string, m *StaticModel) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(f)
	if err := Write(bw, m); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
