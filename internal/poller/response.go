package poller

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-stamp/pkg/metadata"
	"github.com/Klingon-tech/klingnet-stamp/pkg/tx"
	jsoniter "github.com/json-iterator/go"
)

// envelope is the top-level shape of reply metadata.
type envelope struct {
	Response jsoniter.RawMessage `json:"response"`
}

// EssenceMetadata returns the metadata bytes carried by essence: the
// tagged-data payload when present, otherwise the first output's metadata.
func EssenceMetadata(essence *tx.Essence) []byte {
	if essence.Payload != nil && len(essence.Payload.Data) > 0 {
		return essence.Payload.Data
	}
	for _, out := range essence.Outputs {
		if out != nil && len(out.Metadata) > 0 {
			return out.Metadata
		}
	}
	return nil
}

// DecodeResponse parses the essence metadata as JSON and unmarshals its
// "response" field into v.
func DecodeResponse(essence *tx.Essence, v any) error {
	data := EssenceMetadata(essence)
	if len(data) == 0 {
		return fmt.Errorf("%w: no metadata", ErrNoResponse)
	}
	var env envelope
	if err := metadata.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("%w: %w", ErrNoResponse, err)
	}
	if len(env.Response) == 0 || string(env.Response) == "null" {
		return fmt.Errorf("%w: missing response field", ErrNoResponse)
	}
	if err := metadata.Unmarshal(env.Response, v); err != nil {
		return fmt.Errorf("%w: %w", ErrNoResponse, err)
	}
	return nil
}
