package mdl

import (
	"errors"
	"fmt"
)

// Magic identifies a model file.
const Magic = "SMDL"

// Model format errors.
var (
	ErrInvalidMagic       = errors.New("invalid model magic: expected 'SMDL'")
	ErrUnsupportedVersion = errors.New("unsupported model version")
	ErrTruncatedData      = errors.New("truncated model data")
	ErrInvalidLayout      = errors.New("invalid vertex layout")
	ErrInvalidEnum        = errors.New("invalid enum value")
	ErrInvalidString      = errors.New("invalid string field")
	ErrIndexOutOfRange    = errors.New("index out of range")
	ErrMissingVertices    = errors.New("mesh has no vertex buffer")
	ErrTextureMismatch    = errors.New("texture flags do not match filenames")
)

// Version is a model format version.
type Version struct {
	Major uint8
	Minor uint8
}

// CurrentVersion is the version written by Write.
var CurrentVersion = Version{Major: 1, Minor: 0}

// String returns the version as "Major.Minor".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// AtLeast returns true if version is >= major.minor.
func (v Version) AtLeast(major, minor uint8) bool {
	if v.Major > major {
		return true
	}
	return v.Major == major && v.Minor >= minor
}

// Limits that guard against allocating from corrupt length fields.
const (
	maxMeshes      = 1 << 16
	maxVertices    = 1 << 24
	maxIndices     = 1 << 26
	maxStringBytes = 4096
)
