package cache

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

var (
	zstdOnce    sync.Once
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
	zstdInitErr error
)

func zstdCodec() (*zstd.Encoder, *zstd.Decoder, error) {
	zstdOnce.Do(func() {
		zstdEncoder, zstdInitErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if zstdInitErr != nil {
			return
		}
		zstdDecoder, zstdInitErr = zstd.NewReader(nil)
	})
	return zstdEncoder, zstdDecoder, zstdInitErr
}

// MarshalCompressed encodes v as JSON and compresses it with zstd.
// The returned string holds raw bytes and is only meant for cache values.
func MarshalCompressed(v interface{}) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal cache value failed: %w", err)
	}
	enc, _, err := zstdCodec()
	if err != nil {
		return "", fmt.Errorf("init zstd failed: %w", err)
	}
	return string(enc.EncodeAll(raw, make([]byte, 0, len(raw)/2))), nil
}

// UnmarshalCompressed reverses MarshalCompressed into v.
func UnmarshalCompressed(data string, v interface{}) error {
	_, dec, err := zstdCodec()
	if err != nil {
		return fmt.Errorf("init zstd failed: %w", err)
	}
	raw, err := dec.DecodeAll([]byte(data), nil)
	if err != nil {
		return fmt.Errorf("decompress cache value failed: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("unmarshal cache value failed: %w", err)
	}
	return nil
}
