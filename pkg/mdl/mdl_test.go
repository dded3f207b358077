package mdl

import (
	"bytes"
	"encoding/binary"
	"errors"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"

	"github.com/Faultbox/assetconv/pkg/math"
)

func sampleModel() *StaticModel {
	plain := DefaultMaterial()

	textured := DefaultMaterial()
	textured.Textures = TextureBaseColor | TextureOcclusion | TextureRoughness
	textured.BaseColor = "baseColor1.dds"
	textured.OcclusionRoughnessMetalness = "occlusionRoughnessMetalness1.dds"
	textured.AddressU = AddressWrap
	textured.BaseColorFactor = [4]float32{0.5, 0.25, 1, 0.75}

	mapped := DefaultMaterial()
	mapped.Textures = TextureNormal | TextureEmissive | TextureBaseColor
	mapped.BaseColor = "baseColor2.dds"
	mapped.Normal = "normal2.dds"
	mapped.Emissive = "émissive2.dds"
	mapped.AlphaMode = AlphaMask
	mapped.AlphaCutoff = 0.3
	mapped.EmissiveFactor = [3]float32{1, 0.5, 0}
	mapped.MetallicFactor = 0
	mapped.AddressV = AddressMirror

	return &StaticModel{Meshes: []Mesh{
		{
			Vertices: P3N3Vertices{
				{Position: math.Vec3{X: 0, Y: 0, Z: 0}, Normal: math.Vec3{Z: 1}},
				{Position: math.Vec3{X: 1, Y: 0, Z: 0}, Normal: math.Vec3{Z: 1}},
				{Position: math.Vec3{X: 0, Y: 1, Z: 0}, Normal: math.Vec3{Z: 1}},
			},
			Indices:  []uint32{0, 1, 2},
			Material: plain,
		},
		{
			Vertices: P3N3U2Vertices{
				{Position: math.Vec3{X: -1}, Normal: math.Vec3{Y: 1}, UV: math.Vec2{X: 0, Y: 1}},
				{Position: math.Vec3{X: 1}, Normal: math.Vec3{Y: 1}, UV: math.Vec2{X: 1, Y: 1}},
				{Position: math.Vec3{Z: 1}, Normal: math.Vec3{Y: 1}, UV: math.Vec2{X: 0.5, Y: 0}},
				{Position: math.Vec3{Z: -1}, Normal: math.Vec3{Y: 1}, UV: math.Vec2{X: 0.5, Y: 0.5}},
			},
			Indices:  []uint32{0, 1, 2, 0, 3, 1},
			Material: textured,
		},
		{
			Vertices: P3N3U2T3Vertices{
				{Position: math.Vec3{X: 1, Y: 2, Z: 3}, Normal: math.Vec3{Z: 1}, UV: math.Vec2{X: 0.1, Y: 0.2}, Tangent: math.Vec3{X: 1}},
				{Position: math.Vec3{X: 4, Y: 5, Z: 6}, Normal: math.Vec3{Z: 1}, UV: math.Vec2{X: 0.3, Y: 0.4}, Tangent: math.Vec3{X: 1}},
				{Position: math.Vec3{X: 7, Y: 8, Z: 9}, Normal: math.Vec3{Z: 1}, UV: math.Vec2{X: 0.5, Y: 0.6}, Tangent: math.Vec3{X: 1}},
			},
			Indices:  []uint32{2, 1, 0},
			Material: mapped,
		},
	}}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		model *StaticModel
	}{
		{"zero value", &StaticModel{}},
		{"mixed layouts", sampleModel()},
		{"no indices", &StaticModel{Meshes: []Mesh{{
			Vertices: P3N3Vertices{{Position: math.Vec3{X: 1}, Normal: math.Vec3{Y: 1}}},
			Material: DefaultMaterial(),
		}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Write(&buf, tt.model); err != nil {
				t.Fatalf("Write: %v", err)
			}
			got, err := Read(&buf)
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			if !reflect.DeepEqual(got, tt.model) {
				t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, tt.model)
			}
			if buf.Len() != 0 {
				t.Errorf("%d trailing bytes after Read", buf.Len())
			}
		})
	}
}

func TestRoundTripPreservesLayoutTags(t *testing.T) {
	m := sampleModel()
	var buf bytes.Buffer
	if err := Write(&buf, m); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	want := []VertexLayout{LayoutP3N3, LayoutP3N3U2, LayoutP3N3U2T3}
	for i := range got.Meshes {
		if l := got.Meshes[i].Layout(); l != want[i] {
			t.Errorf("mesh %d layout = %s, want %s", i, l, want[i])
		}
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.mdl")
	m := sampleModel()
	if err := Save(path, m); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, m) {
		t.Error("Load(Save(m)) != m")
	}
}

func TestHeaderLayout(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, &StaticModel{}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data := buf.Bytes()
	if len(data) != 10 {
		t.Fatalf("empty model encodes to %d bytes, want 10", len(data))
	}
	if string(data[:4]) != Magic {
		t.Errorf("magic = %q, want %q", data[:4], Magic)
	}
	if data[4] != CurrentVersion.Major || data[5] != CurrentVersion.Minor {
		t.Errorf("version = %d.%d, want %s", data[4], data[5], CurrentVersion)
	}
	if n := binary.LittleEndian.Uint32(data[6:]); n != 0 {
		t.Errorf("mesh count = %d, want 0", n)
	}
}

func makeHeader(magic string, major, minor uint8, meshes uint32) []byte {
	buf := []byte(magic)
	buf = append(buf, major, minor)
	return binary.LittleEndian.AppendUint32(buf, meshes)
}

func TestReadHeaderValidation(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"valid empty", makeHeader("SMDL", 1, 0, 0), nil},
		{"newer minor", makeHeader("SMDL", 1, 7, 0), nil},
		{"invalid magic", makeHeader("XXXX", 1, 0, 0), ErrInvalidMagic},
		{"future major", makeHeader("SMDL", 2, 0, 0), ErrUnsupportedVersion},
		{"empty data", []byte{}, ErrTruncatedData},
		{"truncated magic", []byte{'S', 'M'}, ErrTruncatedData},
		{"missing mesh", makeHeader("SMDL", 1, 0, 1), ErrTruncatedData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(bytes.NewReader(tt.data))
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got error %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestReadTruncatedEverywhere(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleModel()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data := buf.Bytes()

	for n := 0; n < len(data); n += 7 {
		if _, err := Read(bytes.NewReader(data[:n])); !errors.Is(err, ErrTruncatedData) {
			t.Fatalf("Read of %d/%d bytes: got %v, want ErrTruncatedData", n, len(data), err)
		}
	}
}

func TestReadHugeCountsAllocateWithInput(t *testing.T) {
	tests := []struct {
		name   string
		layout VertexLayout
		verts  uint32
		index  bool
	}{
		{"vertices", LayoutP3N3U2T3, maxVertices, false},
		{"indices", LayoutP3N3, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			buf.WriteString(Magic)
			buf.Write([]byte{CurrentVersion.Major, CurrentVersion.Minor})
			binary.Write(&buf, binary.LittleEndian, uint32(1))
			buf.WriteByte(byte(tt.layout))
			binary.Write(&buf, binary.LittleEndian, tt.verts)
			if tt.index {
				binary.Write(&buf, binary.LittleEndian, uint32(maxIndices))
			}

			var before, after runtime.MemStats
			runtime.ReadMemStats(&before)
			_, err := Read(bytes.NewReader(buf.Bytes()))
			runtime.ReadMemStats(&after)

			if !errors.Is(err, ErrTruncatedData) {
				t.Fatalf("Read() error = %v, want ErrTruncatedData", err)
			}
			if delta := after.TotalAlloc - before.TotalAlloc; delta > 4<<20 {
				t.Errorf("Read of a %d-byte stream allocated %d bytes", buf.Len(), delta)
			}
		})
	}
}

func TestReadInvalidLayout(t *testing.T) {
	data := makeHeader("SMDL", 1, 0, 1)
	data = append(data, 9)
	data = binary.LittleEndian.AppendUint32(data, 0)

	_, err := Read(bytes.NewReader(data))
	if !errors.Is(err, ErrInvalidLayout) {
		t.Errorf("got %v, want ErrInvalidLayout", err)
	}
}

func TestWriteRejectsInvalidMeshes(t *testing.T) {
	oneTri := P3N3Vertices{{}, {}, {}}

	badFlags := DefaultMaterial()
	badFlags.Textures = TextureNormal

	badMode := DefaultMaterial()
	badMode.AlphaMode = 7

	badAddress := DefaultMaterial()
	badAddress.AddressU = 0

	tests := []struct {
		name    string
		mesh    Mesh
		wantErr error
	}{
		{"index out of range", Mesh{Vertices: oneTri, Indices: []uint32{0, 1, 3}, Material: DefaultMaterial()}, ErrIndexOutOfRange},
		{"not a triangle list", Mesh{Vertices: oneTri, Indices: []uint32{0, 1}, Material: DefaultMaterial()}, ErrIndexOutOfRange},
		{"no vertices", Mesh{Material: DefaultMaterial()}, ErrMissingVertices},
		{"flag without file", Mesh{Vertices: oneTri, Material: badFlags}, ErrTextureMismatch},
		{"bad alpha mode", Mesh{Vertices: oneTri, Material: badMode}, ErrInvalidEnum},
		{"bad address mode", Mesh{Vertices: oneTri, Material: badAddress}, ErrInvalidEnum},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := Write(&buf, &StaticModel{Meshes: []Mesh{tt.mesh}})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
			if buf.Len() != 0 {
				t.Errorf("wrote %d bytes for an invalid model", buf.Len())
			}
		})
	}
}

func TestReadRejectsInvalidUTF8(t *testing.T) {
	m := &StaticModel{Meshes: []Mesh{{
		Vertices: P3N3Vertices{{}, {}, {}},
		Indices:  []uint32{0, 1, 2},
		Material: DefaultMaterial(),
	}}}
	m.Meshes[0].Material.Textures = TextureEmissive
	m.Meshes[0].Material.Emissive = "ok.dds"

	var buf bytes.Buffer
	if err := Write(&buf, m); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data := buf.Bytes()
	// The emissive filename is the last field; corrupt its first byte.
	data[len(data)-len("ok.dds")] = 0xff

	_, err := Read(bytes.NewReader(data))
	if !errors.Is(err, ErrInvalidString) {
		t.Errorf("got %v, want ErrInvalidString", err)
	}
}

func TestVersion(t *testing.T) {
	tests := []struct {
		version Version
		major   uint8
		minor   uint8
		want    bool
	}{
		{Version{1, 0}, 1, 0, true},
		{Version{1, 2}, 1, 1, true},
		{Version{1, 2}, 1, 3, false},
		{Version{2, 0}, 1, 9, true},
		{Version{1, 9}, 2, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.version.String(), func(t *testing.T) {
			if got := tt.version.AtLeast(tt.major, tt.minor); got != tt.want {
				t.Errorf("AtLeast(%d, %d) = %v, want %v", tt.major, tt.minor, got, tt.want)
			}
		})
	}
}

func TestTextureTypeString(t *testing.T) {
	tests := []struct {
		t    TextureType
		want string
	}{
		{0, "None"},
		{TextureBaseColor, "BaseColor"},
		{TextureBaseColor | TextureNormal, "BaseColor|Normal"},
		{TextureORM, "Metalness|Roughness|Occlusion"},
	}
	for _, tt := range tests {
		if got := tt.t.String(); got != tt.want {
			t.Errorf("TextureType(%d).String() = %q, want %q", uint32(tt.t), got, tt.want)
		}
	}
}

func TestParseAlphaMode(t *testing.T) {
	for _, mode := range []AlphaMode{AlphaOpaque, AlphaMask, AlphaBlend} {
		got, ok := ParseAlphaMode(mode.String())
		if !ok || got != mode {
			t.Errorf("ParseAlphaMode(%q) = %v, %v", mode.String(), got, ok)
		}
	}
	if _, ok := ParseAlphaMode("ADDITIVE"); ok {
		t.Error("ParseAlphaMode accepted ADDITIVE")
	}
}

func TestDefaultMaterial(t *testing.T) {
	m := DefaultMaterial()
	if m.BaseColorFactor != [4]float32{1, 1, 1, 1} {
		t.Errorf("base color factor = %v", m.BaseColorFactor)
	}
	if m.MetallicFactor != 1 || m.RoughnessFactor != 1 {
		t.Errorf("metallic/roughness = %v/%v, want 1/1", m.MetallicFactor, m.RoughnessFactor)
	}
	if m.EmissiveFactor != [3]float32{} {
		t.Errorf("emissive factor = %v", m.EmissiveFactor)
	}
	if m.AlphaCutoff != 0.5 || m.AlphaMode != AlphaOpaque {
		t.Errorf("alpha = %v/%s, want 0.5/OPAQUE", m.AlphaCutoff, m.AlphaMode)
	}
	if m.AddressU != AddressClamp || m.AddressV != AddressClamp {
		t.Errorf("address = %s/%s, want Clamp/Clamp", m.AddressU, m.AddressV)
	}
	if err := m.Validate(); err != nil {
		t.Errorf("default material invalid: %v", err)
	}
}
