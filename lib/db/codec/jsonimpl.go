package codec

import (
	"encoding/json"
)

// NewJSONEncoder creates a new encoder using json encoding
func NewJSONEncoder() IEncoder {
	return &jsonEncoderImpl{}
}

// jsonEncoderImpl implements the IEncoder interface using json encoding
type jsonEncoderImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see codec.IEncoder)
// --------------------------------------------------------------------------

func (j jsonEncoderImpl) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (j jsonEncoderImpl) Decode(b []byte, v any) error {
	return json.Unmarshal(b, v)
}
