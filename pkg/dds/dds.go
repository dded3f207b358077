// Package dds reads and writes DirectDraw Surface texture containers with the
// DX10 header extension.
package dds

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// Format is a DXGI_FORMAT value.
type Format uint32

// Block-compressed formats produced by the converter.
const (
	FormatUnknown      Format = 0
	FormatBC1UNorm     Format = 71
	FormatBC1UNormSRGB Format = 72
	FormatBC3UNorm     Format = 77
	FormatBC3UNormSRGB Format = 78
	FormatBC4UNorm     Format = 80
	FormatBC5UNorm     Format = 83
)

// String returns the DXGI name without the DXGI_FORMAT_ prefix.
func (f Format) String() string {
	switch f {
	case FormatBC1UNorm:
		return "BC1_UNORM"
	case FormatBC1UNormSRGB:
		return "BC1_UNORM_SRGB"
	case FormatBC3UNorm:
		return "BC3_UNORM"
	case FormatBC3UNormSRGB:
		return "BC3_UNORM_SRGB"
	case FormatBC4UNorm:
		return "BC4_UNORM"
	case FormatBC5UNorm:
		return "BC5_UNORM"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint32(f))
	}
}

// BlockSize returns the bytes per 4x4 block, or 0 for unsupported formats.
func (f Format) BlockSize() int {
	switch f {
	case FormatBC1UNorm, FormatBC1UNormSRGB, FormatBC4UNorm:
		return 8
	case FormatBC3UNorm, FormatBC3UNormSRGB, FormatBC5UNorm:
		return 16
	default:
		return 0
	}
}

// SRGB reports whether texel values are sRGB encoded.
func (f Format) SRGB() bool {
	return f == FormatBC1UNormSRGB || f == FormatBC3UNormSRGB
}

// DDS errors.
var (
	ErrInvalidMagic      = errors.New("invalid DDS magic")
	ErrUnsupportedFormat = errors.New("unsupported DDS format")
	ErrInvalidDimensions = errors.New("invalid DDS dimensions")
	ErrLevelSize         = errors.New("mip level size mismatch")
	ErrTruncatedData     = errors.New("truncated DDS data")
)

// DDS header constants
const (
	magic          = 0x20534444 // "DDS "
	headerSize     = 124
	pixelFmtSize   = 32
	dx10HeaderSize = 20
	fileHeaderSize = 4 + headerSize + dx10HeaderSize

	flagsCaps        = 0x1
	flagsHeight      = 0x2
	flagsWidth       = 0x4
	flagsPixelFormat = 0x1000
	flagsMipMapCount = 0x20000
	flagsLinearSize  = 0x80000

	capsComplex = 0x8
	capsTexture = 0x1000
	capsMipMap  = 0x400000

	pfFourCC   = 0x4
	fourCCDX10 = 0x30315844 // "DX10"

	dimensionTexture2D = 3
)

// Texture is a 2D texture with a full or partial mip chain of compressed blocks.
type Texture struct {
	Width  int
	Height int
	Format Format
	Levels [][]byte // Level 0 first
}

// LevelSize returns the byte size of one mip level of a w x h texture.
func LevelSize(w, h int, f Format) int {
	return ((w + 3) / 4) * ((h + 3) / 4) * f.BlockSize()
}

// MipDimensions returns the size of mip level i.
func MipDimensions(w, h, level int) (int, int) {
	return max(1, w>>level), max(1, h>>level)
}

// Validate checks dimensions and that every level has the expected size.
func (t *Texture) Validate() error {
	if t.Format.BlockSize() == 0 {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, t.Format)
	}
	if t.Width <= 0 || t.Height <= 0 || len(t.Levels) == 0 {
		return fmt.Errorf("%w: %dx%d with %d levels", ErrInvalidDimensions, t.Width, t.Height, len(t.Levels))
	}
	for i, lvl := range t.Levels {
		w, h := MipDimensions(t.Width, t.Height, i)
		if want := LevelSize(w, h, t.Format); len(lvl) != want {
			return fmt.Errorf("%w: level %d has %d bytes, want %d", ErrLevelSize, i, len(lvl), want)
		}
	}
	return nil
}

// Write encodes t as a DDS file with a DX10 header.
func Write(w io.Writer, t *Texture) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if _, err := w.Write(createHeader(t)); err != nil {
		return err
	}
	for _, lvl := range t.Levels {
		if _, err := w.Write(lvl); err != nil {
			return err
		}
	}
	return nil
}

func createHeader(t *Texture) []byte {
	header := make([]byte, fileHeaderSize)
	le := binary.LittleEndian

	le.PutUint32(header[0:], magic)

	flags := uint32(flagsCaps | flagsHeight | flagsWidth | flagsPixelFormat | flagsLinearSize)
	caps := uint32(capsTexture)
	if len(t.Levels) > 1 {
		flags |= flagsMipMapCount
		caps |= capsComplex | capsMipMap
	}

	// DDS_HEADER
	le.PutUint32(header[4:], headerSize)
	le.PutUint32(header[8:], flags)
	le.PutUint32(header[12:], uint32(t.Height))
	le.PutUint32(header[16:], uint32(t.Width))
	le.PutUint32(header[20:], uint32(LevelSize(t.Width, t.Height, t.Format)))
	le.PutUint32(header[28:], uint32(len(t.Levels)))

	// DDS_PIXELFORMAT at 76
	le.PutUint32(header[76:], pixelFmtSize)
	le.PutUint32(header[80:], pfFourCC)
	le.PutUint32(header[84:], fourCCDX10)

	le.PutUint32(header[108:], caps)

	// DDS_HEADER_DXT10 at 128
	le.PutUint32(header[128:], uint32(t.Format))
	le.PutUint32(header[132:], dimensionTexture2D)
	le.PutUint32(header[140:], 1) // array size

	return header
}

// Read decodes a DDS file written by Write.
func Read(r io.Reader) (*Texture, error) {
	header := make([]byte, fileHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, ErrTruncatedData
	}
	le := binary.LittleEndian

	if le.Uint32(header[0:]) != magic || le.Uint32(header[4:]) != headerSize {
		return nil, ErrInvalidMagic
	}
	if le.Uint32(header[84:]) != fourCCDX10 {
		return nil, fmt.Errorf("%w: legacy header without DX10 extension", ErrUnsupportedFormat)
	}

	t := &Texture{
		Height: int(le.Uint32(header[12:])),
		Width:  int(le.Uint32(header[16:])),
		Format: Format(le.Uint32(header[128:])),
	}
	if t.Format.BlockSize() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, t.Format)
	}
	if t.Width <= 0 || t.Height <= 0 || t.Width > 1<<15 || t.Height > 1<<15 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, t.Width, t.Height)
	}

	levels := int(le.Uint32(header[28:]))
	if levels == 0 {
		levels = 1
	}
	if levels > 16 {
		return nil, fmt.Errorf("%w: %d mip levels", ErrInvalidDimensions, levels)
	}

	for i := 0; i < levels; i++ {
		w, h := MipDimensions(t.Width, t.Height, i)
		lvl := make([]byte, LevelSize(w, h, t.Format))
		if _, err := io.ReadFull(r, lvl); err != nil {
			return nil, fmt.Errorf("%w: level %d", ErrTruncatedData, i)
		}
		t.Levels = append(t.Levels, lvl)
	}
	return t, nil
}

// Save writes t to path.
func Save(path string, t *Texture) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, t); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// Load reads a DDS file from disk.
func Load(path string) (*Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return t, nil
}
