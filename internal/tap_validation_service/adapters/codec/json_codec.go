package codec

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/RoamIT/roamhub/golang_services/internal/tap_validation_service/domain"
)

var ErrEmptyInterchange = errors.New("interchange carries neither transfer batch nor notification")

// JSONCodec is the decoded-tree codec: one JSON document per interchange
// record or return batch.
type JSONCodec struct{}

func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

func (c *JSONCodec) Decode(data []byte) (*domain.DataInterchange, error) {
	var record domain.DataInterchange
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decoding interchange record: %w", err)
	}
	if record.TransferBatch == nil && record.Notification == nil {
		return nil, ErrEmptyInterchange
	}
	return &record, nil
}

func (c *JSONCodec) Encode(batch *domain.ReturnBatch) ([]byte, error) {
	data, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("encoding return batch: %w", err)
	}
	return data, nil
}
