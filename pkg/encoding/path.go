// Package encoding normalizes texture references found in source assets into
// UTF-8 filesystem paths.
package encoding

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// LegacyToUTF8 converts bytes that are not valid UTF-8 from Windows-1252,
// which older exporters write into material paths. Valid UTF-8 is returned
// unchanged.
func LegacyToUTF8(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	result, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	if err != nil {
		return string(data)
	}
	return string(result)
}

// NormalizeRef converts a texture reference into a clean slash-separated
// path in NFC form. Percent escapes are decoded; references that fail to
// unescape are kept literally.
func NormalizeRef(ref string) string {
	if unescaped, err := url.PathUnescape(ref); err == nil {
		ref = unescaped
	}
	ref = LegacyToUTF8([]byte(ref))
	ref = strings.ReplaceAll(ref, "\\", "/")
	ref = norm.NFC.String(ref)
	if ref == "" {
		return ""
	}
	return path.Clean(ref)
}

// ResolveRef returns the filesystem path of ref relative to the directory of
// the model that names it. Absolute references are kept as-is.
func ResolveRef(modelDir, ref string) string {
	ref = NormalizeRef(ref)
	if ref == "" {
		return ""
	}
	p := filepath.FromSlash(ref)
	if filepath.IsAbs(p) || path.IsAbs(ref) {
		return p
	}
	return filepath.Join(modelDir, p)
}

// IsDataURI reports whether ref embeds its payload instead of naming a file.
func IsDataURI(ref string) bool {
	return strings.HasPrefix(ref, "data:")
}
