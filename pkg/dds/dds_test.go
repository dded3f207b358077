package dds

import (
	"bytes"
	"encoding/binary"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

func sampleTexture(w, h, levels int, f Format) *Texture {
	t := &Texture{Width: w, Height: h, Format: f}
	for i := 0; i < levels; i++ {
		lw, lh := MipDimensions(w, h, i)
		lvl := make([]byte, LevelSize(lw, lh, f))
		for j := range lvl {
			lvl[j] = byte(i*31 + j)
		}
		t.Levels = append(t.Levels, lvl)
	}
	return t
}

func TestLevelSize(t *testing.T) {
	tests := []struct {
		w, h int
		f    Format
		want int
	}{
		{4, 4, FormatBC1UNorm, 8},
		{4, 4, FormatBC3UNorm, 16},
		{1, 1, FormatBC1UNorm, 8},
		{5, 4, FormatBC5UNorm, 32},
		{256, 128, FormatBC1UNormSRGB, 64 * 32 * 8},
		{256, 128, FormatBC3UNormSRGB, 64 * 32 * 16},
	}
	for _, tt := range tests {
		if got := LevelSize(tt.w, tt.h, tt.f); got != tt.want {
			t.Errorf("LevelSize(%d, %d, %s) = %d, want %d", tt.w, tt.h, tt.f, got, tt.want)
		}
	}
}

func TestFormatProperties(t *testing.T) {
	if !FormatBC1UNormSRGB.SRGB() || !FormatBC3UNormSRGB.SRGB() {
		t.Error("sRGB formats not reported as sRGB")
	}
	if FormatBC1UNorm.SRGB() || FormatBC5UNorm.SRGB() {
		t.Error("linear formats reported as sRGB")
	}
	if Format(2).BlockSize() != 0 {
		t.Error("unsupported format should have zero block size")
	}
	if got := FormatBC5UNorm.String(); got != "BC5_UNORM" {
		t.Errorf("String() = %q", got)
	}
}

func TestHeaderFields(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleTexture(64, 32, 7, FormatBC3UNormSRGB)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	data := buf.Bytes()
	le := binary.LittleEndian

	if string(data[:4]) != "DDS " {
		t.Errorf("magic = %q", data[:4])
	}
	if got := le.Uint32(data[12:]); got != 32 {
		t.Errorf("height = %d, want 32", got)
	}
	if got := le.Uint32(data[16:]); got != 64 {
		t.Errorf("width = %d, want 64", got)
	}
	if got := le.Uint32(data[28:]); got != 7 {
		t.Errorf("mip count = %d, want 7", got)
	}
	if string(data[84:88]) != "DX10" {
		t.Errorf("fourCC = %q, want DX10", data[84:88])
	}
	if got := Format(le.Uint32(data[128:])); got != FormatBC3UNormSRGB {
		t.Errorf("dxgi format = %s", got)
	}
	if got := le.Uint32(data[108:]); got&capsMipMap == 0 {
		t.Errorf("caps = %#x, missing mipmap bit", got)
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		w, h   int
		levels int
		f      Format
	}{
		{"single level", 4, 4, 1, FormatBC1UNorm},
		{"full chain square", 16, 16, 5, FormatBC5UNorm},
		{"full chain wide", 8, 2, 4, FormatBC3UNormSRGB},
		{"non multiple of four", 6, 3, 3, FormatBC4UNorm},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := sampleTexture(tt.w, tt.h, tt.levels, tt.f)
			var buf bytes.Buffer
			if err := Write(&buf, in); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			out, err := Read(&buf)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(in, out) {
				t.Errorf("round trip mismatch")
			}
		})
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tex.dds")
	in := sampleTexture(32, 32, 6, FormatBC1UNormSRGB)
	if err := Save(path, in); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	out, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Error("loaded texture differs")
	}
}

func TestWriteValidation(t *testing.T) {
	bad := sampleTexture(8, 8, 2, FormatBC1UNorm)
	bad.Levels[1] = bad.Levels[1][:4]

	tests := []struct {
		name string
		tex  *Texture
		want error
	}{
		{"unsupported format", &Texture{Width: 4, Height: 4, Format: 28, Levels: [][]byte{{0}}}, ErrUnsupportedFormat},
		{"zero width", &Texture{Width: 0, Height: 4, Format: FormatBC1UNorm, Levels: [][]byte{{0}}}, ErrInvalidDimensions},
		{"no levels", &Texture{Width: 4, Height: 4, Format: FormatBC1UNorm}, ErrInvalidDimensions},
		{"short level", bad, ErrLevelSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Write(&bytes.Buffer{}, tt.tex); !errors.Is(err, tt.want) {
				t.Errorf("Write() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestReadErrors(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleTexture(8, 8, 4, FormatBC1UNorm)); err != nil {
		t.Fatal(err)
	}
	valid := buf.Bytes()

	badMagic := bytes.Clone(valid)
	copy(badMagic, "XDS ")

	legacy := bytes.Clone(valid)
	copy(legacy[84:], "DXT1")

	badFormat := bytes.Clone(valid)
	binary.LittleEndian.PutUint32(badFormat[128:], 28)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrTruncatedData},
		{"bad magic", badMagic, ErrInvalidMagic},
		{"legacy header", legacy, ErrUnsupportedFormat},
		{"unsupported format", badFormat, ErrUnsupportedFormat},
		{"truncated levels", valid[:len(valid)-1], ErrTruncatedData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Read(bytes.NewReader(tt.data)); !errors.Is(err, tt.want) {
				t.Errorf("Read() error = %v, want %v", err, tt.want)
			}
		})
	}
}
