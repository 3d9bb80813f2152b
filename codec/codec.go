// Package codec converts typed entity values to and from the opaque payloads
// kept by the table store.
//
// The store never looks inside a payload. Any [Codec] can be plugged into
// a store.Client; [Attribute] is the default and produces DynamoDB JSON.
package codec

import (
	"encoding/json"
	"errors"
)

var (
	// ErrChecksumMismatch is returned when a framed payload fails its checksum.
	ErrChecksumMismatch = errors.New("tablemock: payload checksum mismatch")

	// ErrUnknownCompression is returned when a framed payload names an unsupported compression type.
	ErrUnknownCompression = errors.New("tablemock: unknown payload compression")

	// ErrShortPayload is returned when a framed payload is smaller than its header.
	ErrShortPayload = errors.New("tablemock: payload too short")
)

// Codec encodes values of type T into payload bytes and back.
type Codec[T any] interface {
	Encode(v T) ([]byte, error)
	Decode(data []byte) (T, error)
}

type jsonCodec[T any] struct{}

// JSON returns a codec backed by encoding/json.
func JSON[T any]() Codec[T] {
	return jsonCodec[T]{}
}

func (jsonCodec[T]) Encode(v T) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec[T]) Decode(data []byte) (T, error) {
	var v T
	err := json.Unmarshal(data, &v)
	return v, err
}
