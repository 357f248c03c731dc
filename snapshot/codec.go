package snapshot

import (
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec selects the payload compression.
type Codec uint8

const (
	CodecNone Codec = 0
	CodecLZ4  Codec = 1
	CodecZSTD Codec = 2
)

func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecLZ4:
		return "lz4"
	case CodecZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(c))
	}
}

// ParseCodec maps "none", "lz4" or "zstd" to a Codec.
func ParseCodec(s string) (Codec, error) {
	switch s {
	case "", "none":
		return CodecNone, nil
	case "lz4":
		return CodecLZ4, nil
	case "zstd":
		return CodecZSTD, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCodec, s)
	}
}

var errSizeMismatch = errors.New("snapshot: decompressed size mismatch")

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// pack compresses raw. A nil result means the payload is stored as is,
// either because c is CodecNone or because compression did not pay off.
func pack(raw []byte, c Codec) ([]byte, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var packed []byte
	switch c {
	case CodecNone:
		return nil, nil
	case CodecLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(raw)))
		n, err := lz4.CompressBlock(raw, buf, nil)
		if err != nil {
			return nil, err
		}
		packed = buf[:n]
	case CodecZSTD:
		enc := getZstdEncoder()
		packed = enc.EncodeAll(raw, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCodec, c)
	}

	if len(packed) == 0 || float64(len(packed)) > float64(len(raw))*0.9 {
		return nil, nil
	}
	return packed, nil
}

func unpack(packed []byte, rawSize int, c Codec) ([]byte, error) {
	raw := make([]byte, rawSize)

	switch c {
	case CodecLZ4:
		n, err := lz4.UncompressBlock(packed, raw)
		if err != nil {
			return nil, err
		}
		if n != rawSize {
			return nil, errSizeMismatch
		}
		return raw, nil
	case CodecZSTD:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)

		out, err := dec.DecodeAll(packed, raw[:0])
		if err != nil {
			return nil, err
		}
		if len(out) != rawSize {
			return nil, errSizeMismatch
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCodec, c)
	}
}
