package codec

import (
	"github.com/RoamIT/roamhub/golang_services/internal/tap_validation_service/domain"
)

// InterchangeDecoder turns the bytes of a received file into the decoded
// interchange tree. The BER wire codec sits outside this service; decoded
// trees are exchanged in the JSON representation.
type InterchangeDecoder interface {
	Decode(data []byte) (*domain.DataInterchange, error)
}

// ReturnBatchEncoder serializes a finalized return batch for handoff.
type ReturnBatchEncoder interface {
	Encode(batch *domain.ReturnBatch) ([]byte, error)
}
