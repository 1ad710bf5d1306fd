package pipeline

import (
	"path"
	"strings"
)

// Outcome is the settled result of one matched asset's transformation.
// Exactly one Outcome is produced per matched asset; transforms are
// never retried.
type Outcome struct {
	// OriginalName is the asset name as found in the snapshot.
	OriginalName string `json:"original_name"`

	// NewName is the derived output name, valid whether or not the
	// transform succeeded.
	NewName string `json:"new_name"`

	// SavedBytes is original size minus transformed size. Negative
	// when the codec output is larger than the input.
	SavedBytes int64 `json:"saved_bytes"`

	// Succeeded reports whether the codec call completed.
	Succeeded bool `json:"succeeded"`

	// Err carries the codec or snapshot failure for this asset.
	Err error `json:"-"`
}

// OutputName derives the transformed asset's name. With override set,
// the existing extension is stripped before the target extension is
// appended; otherwise the target extension is appended to the
// unmodified name. Derivation is independent of codec success.
func OutputName(name, targetExt string, override bool) string {
	if !override {
		return name + targetExt
	}

	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext) + targetExt
}
