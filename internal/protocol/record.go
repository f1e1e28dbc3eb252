// Package protocol defines the sum types that cross the storage boundary
// (Record, persisted to the log) and the network boundary (Request/Response,
// exchanged with a client), plus their shared self-delimiting JSON codec.
package protocol

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// ErrSerde wraps any failure to decode a Record, Request or Response from
// its wire/disk representation.
var ErrSerde = errors.New("serde error")

// RecordKind discriminates the two shapes a Record can take.
type RecordKind string

const (
	// KindSet asserts key -> value.
	KindSet RecordKind = "set"
	// KindRemove asserts key is absent.
	KindRemove RecordKind = "remove"
)

// Record is one persisted mutation: either a Set{Key, Value} or a
// Remove{Key}. It is independently self-delimiting when concatenated with
// other records, which is what lets the log be a plain append-only stream
// with no length prefixes or separators.
type Record struct {
	Kind  RecordKind `json:"kind"`
	Key   string     `json:"key"`
	Value string     `json:"value,omitempty"`
}

// SetRecord builds a Set record.
func SetRecord(key, value string) Record {
	return Record{Kind: KindSet, Key: key, Value: value}
}

// RemoveRecord builds a Remove record.
func RemoveRecord(key string) Record {
	return Record{Kind: KindRemove, Key: key}
}

// EncodeRecord appends the JSON encoding of r to w, followed by the newline
// json.Encoder always writes. No length prefix is needed: the decoder on
// the other end knows where one object ends by parsing exactly one JSON
// value, and skips the newline as whitespace.
func EncodeRecord(w io.Writer, r Record) error {
	if err := json.NewEncoder(w).Encode(r); err != nil {
		return errors.Wrap(ErrSerde, err.Error())
	}
	return nil
}

// DecodeRecord reads exactly one Record from dec. Callers that need to
// know how many bytes were consumed read dec.InputOffset() themselves,
// which lets repeated calls against the same decoder track a read cursor.
func DecodeRecord(dec *json.Decoder) (Record, error) {
	var rec Record
	if err := dec.Decode(&rec); err != nil {
		if err == io.EOF {
			return Record{}, err
		}
		return Record{}, errors.Wrap(ErrSerde, err.Error())
	}
	return rec, nil
}
