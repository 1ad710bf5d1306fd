package codec

import (
	"bytes"
	"context"
	"fmt"

	"github.com/pierrec/lz4/v4"
)

func init() {
	register(lz4Codec{})
}

// lz4Codec re-encodes assets as lz4 frames (decodable by the standard
// lz4 tooling, unlike raw block compression).
type lz4Codec struct{}

func (lz4Codec) Name() string       { return "lz4" }
func (lz4Codec) DefaultExt() string { return ".lz4" }

func (lz4Codec) Transform(ctx context.Context, content []byte, opts Options) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writer := lz4.NewWriter(&buf)

	if opts.Level != 0 {
		level, err := lz4Level(opts.Level)
		if err != nil {
			return nil, err
		}
		if err := writer.Apply(lz4.CompressionLevelOption(level)); err != nil {
			return nil, fmt.Errorf("lz4 options: %w", err)
		}
	}

	if _, err := writer.Write(content); err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	return buf.Bytes(), nil
}

// lz4Level maps the numeric rule option onto the lz4 level constants.
func lz4Level(n int) (lz4.CompressionLevel, error) {
	levels := []lz4.CompressionLevel{
		lz4.Fast,
		lz4.Level1, lz4.Level2, lz4.Level3,
		lz4.Level4, lz4.Level5, lz4.Level6,
		lz4.Level7, lz4.Level8, lz4.Level9,
	}
	if n < 0 || n >= len(levels) {
		return lz4.Fast, fmt.Errorf("lz4 level out of range [0,9]: %d", n)
	}
	return levels[n], nil
}
