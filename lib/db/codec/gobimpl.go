package codec

import (
	"bytes"
	"encoding/gob"
)

// NewGOBEncoder creates a new encoder using Go's binary gob format
func NewGOBEncoder() IEncoder {
	return &gobEncoderImpl{}
}

// gobEncoderImpl implements the IEncoder interface using gob encoding
type gobEncoderImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see codec.IEncoder)
// --------------------------------------------------------------------------

func (g gobEncoderImpl) Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g gobEncoderImpl) Decode(b []byte, v any) error {
	buf := bytes.NewBuffer(b)
	dec := gob.NewDecoder(buf)
	return dec.Decode(v)
}
