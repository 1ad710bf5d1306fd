package codec

import (
	"bytes"
	"context"
	"fmt"

	"github.com/klauspost/compress/gzip"
)

func init() {
	register(gzipCodec{})
}

type gzipCodec struct{}

func (gzipCodec) Name() string       { return "gzip" }
func (gzipCodec) DefaultExt() string { return ".gz" }

func (gzipCodec) Transform(ctx context.Context, content []byte, opts Options) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	level := gzip.DefaultCompression
	if opts.Level != 0 {
		level = opts.Level
	}

	var buf bytes.Buffer
	writer, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("gzip options: %w", err)
	}
	if _, err := writer.Write(content); err != nil {
		return nil, fmt.Errorf("gzip compress: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("gzip compress: %w", err)
	}
	return buf.Bytes(), nil
}
