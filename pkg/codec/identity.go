package codec

import "context"

func init() {
	register(identityCodec{})
}

// identityCodec copies content unchanged. Useful for exercising the
// rename/rewrite path without re-encoding, and as a test codec.
type identityCodec struct{}

func (identityCodec) Name() string       { return "identity" }
func (identityCodec) DefaultExt() string { return ".out" }

func (identityCodec) Transform(ctx context.Context, content []byte, _ Options) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]byte(nil), content...), nil
}
