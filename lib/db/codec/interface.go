package codec

import "strings"

// ISerializable is implemented by every type that is used as a record key
// (a problem configuration) or stored as record values (tuning parameters).
//
// Serialize must be pure and deterministic: the same value must always
// produce the same text. The produced text must not contain any of the
// reserved characters (see ReservedChars).
type ISerializable interface {
	Serialize(sb *strings.Builder)
}

// IDeserializable is implemented by every type that can be restored from the
// text previously produced by its Serialize method.
//
// Deserialize either fully reconstructs the receiver and returns nil, or
// returns an error describing why the text is malformed. It must never panic.
// The state of the receiver after a failed Deserialize is unspecified.
type IDeserializable interface {
	Deserialize(s string) error
}

// ISerDes combines both halves of the codec contract.
type ISerDes interface {
	ISerializable
	IDeserializable
}

// IEncoder converts arbitrary Go values to and from bytes. It is used by
// Encoded to store values that do not implement the codec contract themselves.
type IEncoder interface {
	// Encode serializes v into a byte array
	Encode(v any) ([]byte, error)
	// Decode deserializes b into the value pointed to by v
	Decode(b []byte, v any) error
}
