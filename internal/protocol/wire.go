package protocol

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// RequestKind discriminates the three request shapes a client may send.
type RequestKind string

const (
	RequestGet RequestKind = "get"
	RequestSet RequestKind = "set"
	RequestRm  RequestKind = "rm"
)

// Request is the single object a client sends per connection.
type Request struct {
	Kind  RequestKind `json:"kind"`
	Key   string      `json:"key"`
	Value string      `json:"value,omitempty"`
}

// GetRequest builds a Get request.
func GetRequest(key string) Request { return Request{Kind: RequestGet, Key: key} }

// SetRequest builds a Set request.
func SetRequest(key, value string) Request {
	return Request{Kind: RequestSet, Key: key, Value: value}
}

// RmRequest builds a Rm request.
func RmRequest(key string) Request { return Request{Kind: RequestRm, Key: key} }

// Response is the single object a server sends per connection.
//
// For Get, Value non-nil is the value and a nil Value means absent. For
// Set/Rm, a nil Value with no Err means success. Err carries the
// stringified engine error; clients recognize the literal "Key not found"
// as a distinguished sentinel (see ErrKeyNotFoundMessage).
type Response struct {
	Value *string `json:"value,omitempty"`
	Err   *string `json:"err,omitempty"`
}

// ErrKeyNotFoundMessage is the literal error string clients must recognize
// to distinguish a missing key from any other failure.
const ErrKeyNotFoundMessage = "Key not found"

// OkResponse builds a successful response. value is nil for Set/Rm and for
// a Get of an absent key.
func OkResponse(value *string) Response {
	return Response{Value: value}
}

// ErrResponse builds a failed response carrying message.
func ErrResponse(message string) Response {
	return Response{Err: &message}
}

// IsErr reports whether r represents a failed response.
func (r Response) IsErr() bool { return r.Err != nil }

// EncodeRequest writes exactly one Request to w.
func EncodeRequest(w io.Writer, req Request) error {
	if err := json.NewEncoder(w).Encode(req); err != nil {
		return errors.Wrap(ErrSerde, err.Error())
	}
	return nil
}

// DecodeRequest reads exactly one Request from dec.
func DecodeRequest(dec *json.Decoder) (Request, error) {
	var req Request
	if err := dec.Decode(&req); err != nil {
		if err == io.EOF {
			return Request{}, err
		}
		return Request{}, errors.Wrap(ErrSerde, err.Error())
	}
	return req, nil
}

// EncodeResponse writes exactly one Response to w.
func EncodeResponse(w io.Writer, resp Response) error {
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		return errors.Wrap(ErrSerde, err.Error())
	}
	return nil
}

// DecodeResponse reads exactly one Response from dec.
func DecodeResponse(dec *json.Decoder) (Response, error) {
	var resp Response
	if err := dec.Decode(&resp); err != nil {
		if err == io.EOF {
			return Response{}, err
		}
		return Response{}, errors.Wrap(ErrSerde, err.Error())
	}
	return resp, nil
}
