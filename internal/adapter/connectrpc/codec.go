package connectrpc

import (
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
)

// jsonCodec lets connect carry plain Go structs. It registers under the
// "json" name so clients can post application/json bodies.
type jsonCodec struct{}

var _ connect.Codec = jsonCodec{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", v, err)
	}
	return data, nil
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal %T: %w", v, err)
	}
	return nil
}

// Codec returns the handler and client option that installs the JSON codec.
func Codec() connect.Option { return connect.WithCodec(jsonCodec{}) }
