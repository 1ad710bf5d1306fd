package codec

import (
	"context"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

func init() {
	register(&zstdCodec{encoders: make(map[zstd.EncoderLevel]*zstd.Encoder)})
}

// zstdCodec re-encodes assets with zstandard. Encoders are cached per
// level; zstd.Encoder is safe for concurrent use.
type zstdCodec struct {
	mu       sync.Mutex
	encoders map[zstd.EncoderLevel]*zstd.Encoder
}

func (z *zstdCodec) Name() string       { return "zstd" }
func (z *zstdCodec) DefaultExt() string { return ".zst" }

func (z *zstdCodec) Transform(ctx context.Context, content []byte, opts Options) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	level := zstd.SpeedDefault
	if opts.Level != 0 {
		level = zstd.EncoderLevelFromZstd(opts.Level)
	}

	encoder, err := z.encoder(level)
	if err != nil {
		return nil, err
	}
	return encoder.EncodeAll(content, nil), nil
}

func (z *zstdCodec) encoder(level zstd.EncoderLevel) (*zstd.Encoder, error) {
	z.mu.Lock()
	defer z.mu.Unlock()

	if encoder, ok := z.encoders[level]; ok {
		return encoder, nil
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	z.encoders[level] = encoder
	return encoder, nil
}
