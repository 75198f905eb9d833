// Package grpcjson provides a grpc/encoding.Codec that marshals messages as
// JSON instead of protobuf wire format.
//
// The service contracts in proto/ are specified as .proto files for
// documentation and cross-language parity, but this repository's build does
// not run protoc; the Go message types are plain structs rather than
// generated protobuf bindings. Registering this codec under the "json"
// content-subtype lets grpc-go carry them over HTTP/2 with full streaming,
// metadata, and status-code semantics intact.
package grpcjson

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
)

// Name is the content-subtype under which this codec is registered.
const Name = "json"

type codec struct{}

func (codec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (codec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("grpcjson: unmarshal: %w", err)
	}
	return nil
}

func (codec) Name() string { return Name }

func init() {
	encoding.RegisterCodec(codec{})
}
