package codec

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// encoding used to make encoder output safe for the record format.
// The raw URL alphabet is [A-Za-z0-9-_] without padding, so it never
// produces '=' or any other reserved character.
var textEncoding = base64.RawURLEncoding

// Encoded adapts any Go value to the codec contract by running it through an
// IEncoder and storing the bytes as unpadded URL-safe base64.
// The zero value uses the JSON encoder.
//
// Example:
//
//	v := codec.NewEncoded(codec.NewJSONEncoder(), myParams)
//	record.SetValues("MySolver", v)
type Encoded[T any] struct {
	Value   T
	encoder IEncoder
	err     error
}

// NewEncoded wraps value using the given encoder.
func NewEncoded[T any](encoder IEncoder, value T) *Encoded[T] {
	return &Encoded[T]{Value: value, encoder: encoder}
}

// Serialize writes the encoded value. Encoding errors are kept and reported
// by Err, since Serialize itself cannot fail.
func (e *Encoded[T]) Serialize(sb *strings.Builder) {
	b, err := e.byteEncoder().Encode(e.Value)
	if err != nil {
		e.err = err
		return
	}
	e.err = nil
	sb.WriteString(textEncoding.EncodeToString(b))
}

func (e *Encoded[T]) byteEncoder() IEncoder {
	if e.encoder == nil {
		return jsonEncoderImpl{}
	}
	return e.encoder
}

// Err returns the error of the last Serialize call, if any.
func (e *Encoded[T]) Err() error {
	return e.err
}

func (e *Encoded[T]) Deserialize(s string) error {
	b, err := textEncoding.DecodeString(s)
	if err != nil {
		return fmt.Errorf("invalid encoded value: %w", err)
	}
	var v T
	if err := e.byteEncoder().Decode(b, &v); err != nil {
		return fmt.Errorf("decoding value: %w", err)
	}
	e.Value = v
	return nil
}
