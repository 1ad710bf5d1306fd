// Package codec provides the byte-level transformation codecs the
// pipeline invokes for matched assets. A codec is an opaque, fallible
// operation: output may be smaller, equal, or larger than the input,
// and the pipeline never inspects it.
package codec

import (
	"context"
	"fmt"
	"sort"
)

// Options carries the per-rule codec configuration. It is opaque to
// the pipeline; only the codec interprets it.
type Options struct {
	// Ext overrides the codec's default output extension (with leading dot).
	Ext string `mapstructure:"ext" yaml:"ext"`

	// Level selects the codec-specific compression level. Zero means
	// the codec's default.
	Level int `mapstructure:"level" yaml:"level"`
}

// OutputExt returns the effective output extension for these options
// against the given codec.
func (o Options) OutputExt(c Codec) string {
	if o.Ext != "" {
		return o.Ext
	}
	return c.DefaultExt()
}

// Codec transforms raw asset bytes into their re-encoded form.
type Codec interface {
	// Name is the identifier rules use to select this codec.
	Name() string

	// DefaultExt is the output extension applied when a rule does not
	// override it (with leading dot).
	DefaultExt() string

	// Transform re-encodes content. It must not retain or mutate the
	// input slice.
	Transform(ctx context.Context, content []byte, opts Options) ([]byte, error)
}

var registry = map[string]Codec{}

func register(c Codec) {
	registry[c.Name()] = c
}

// Lookup resolves a codec by name.
func Lookup(name string) (Codec, error) {
	c, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown codec %q (available: %v)", name, Names())
	}
	return c, nil
}

// Names returns all registered codec names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
