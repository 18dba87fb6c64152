// Package codec defines the serialization contract between the perfDB record
// store and the types it persists.
//
// A perfDB line has the form KEY=ID:VALUES;ID:VALUES. The KEY is produced by
// serializing a problem configuration, the VALUES by serializing tuning
// parameters. Both sides only ever see opaque text, so any type can be stored
// as long as it satisfies the contract:
//
//   - ISerializable: a pure, deterministic Serialize method writing text that
//     contains none of the reserved characters "=", ":", ";" or a newline.
//   - IDeserializable: a Deserialize method that either fully restores the
//     value or returns an error. It must never panic.
//
// There is no escaping mechanism. ValidateText and ContainsReserved can be
// used to check text before it is handed to the database.
//
// Key Components:
//
//   - String and IntList: ready-made value types. IntList uses "," as the
//     element separator, which is the recommended way to store a set of
//     numeric tunables (e.g. "4,4,1").
//
//   - Encoded: a generic wrapper that stores any Go value through an IEncoder
//     (JSON or GOB) and unpadded URL-safe base64. The base64 alphabet never
//     contains reserved characters, so arbitrary structs become record-safe.
//
// Thread Safety:
//
//	The encoders are stateless and safe for concurrent use. Encoded keeps the
//	error of its last Serialize call and must not be shared across goroutines.
package codec
