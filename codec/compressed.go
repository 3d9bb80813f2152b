package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/zeebo/xxh3"
)

// Compression identifies the algorithm applied to a framed payload body.
type Compression uint8

const (
	// NoCompression stores the body as produced by the inner codec.
	NoCompression Compression = 0x0

	// SnappyCompression uses Google Snappy block compression.
	SnappyCompression Compression = 0x1

	// LZ4Compression uses the LZ4 frame format.
	LZ4Compression Compression = 0x4

	// ZstdCompression uses Zstandard at the default level.
	ZstdCompression Compression = 0x7
)

// headerSize is one compression byte plus a 64-bit checksum.
const headerSize = 1 + 8

// String returns the human-readable name of the compression type.
func (c Compression) String() string {
	switch c {
	case NoCompression:
		return "NoCompression"
	case SnappyCompression:
		return "Snappy"
	case LZ4Compression:
		return "LZ4"
	case ZstdCompression:
		return "ZSTD"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(c))
	}
}

type compressedCodec[T any] struct {
	inner Codec[T]
	kind  Compression
}

// Compressed wraps inner so every payload is compressed with kind and framed
// as [compression type][xxh3 of body, little endian][body].
//
// Decode accepts any supported compression type regardless of kind, so the
// compression setting can change without rewriting stored rows.
func Compressed[T any](inner Codec[T], kind Compression) Codec[T] {
	return compressedCodec[T]{inner: inner, kind: kind}
}

func (c compressedCodec[T]) Encode(v T) ([]byte, error) {
	raw, err := c.inner.Encode(v)
	if err != nil {
		return nil, err
	}
	body, err := compress(c.kind, raw)
	if err != nil {
		return nil, err
	}

	frame := make([]byte, headerSize, headerSize+len(body))
	frame[0] = byte(c.kind)
	binary.LittleEndian.PutUint64(frame[1:headerSize], xxh3.Hash(body))
	return append(frame, body...), nil
}

func (c compressedCodec[T]) Decode(data []byte) (T, error) {
	var zero T
	if len(data) < headerSize {
		return zero, ErrShortPayload
	}
	kind := Compression(data[0])
	body := data[headerSize:]
	if binary.LittleEndian.Uint64(data[1:headerSize]) != xxh3.Hash(body) {
		return zero, ErrChecksumMismatch
	}
	raw, err := decompress(kind, body)
	if err != nil {
		return zero, err
	}
	return c.inner.Decode(raw)
}

func compress(kind Compression, data []byte) ([]byte, error) {
	switch kind {
	case NoCompression:
		return data, nil
	case SnappyCompression:
		return snappy.Encode(nil, data), nil
	case LZ4Compression:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("lz4 write: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("lz4 close: %w", err)
		}
		return buf.Bytes(), nil
	case ZstdCompression:
		encoder, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, fmt.Errorf("zstd encoder: %w", err)
		}
		defer encoder.Close()
		return encoder.EncodeAll(data, nil), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCompression, kind)
	}
}

func decompress(kind Compression, data []byte) ([]byte, error) {
	switch kind {
	case NoCompression:
		return data, nil
	case SnappyCompression:
		return snappy.Decode(nil, data)
	case LZ4Compression:
		return io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
	case ZstdCompression:
		decoder, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decoder: %w", err)
		}
		defer decoder.Close()
		return decoder.DecodeAll(data, nil)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCompression, kind)
	}
}
