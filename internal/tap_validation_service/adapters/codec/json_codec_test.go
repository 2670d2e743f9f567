package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RoamIT/roamhub/golang_services/internal/tap_validation_service/domain"
)

func TestJSONCodec_DecodeTransferBatch(t *testing.T) {
	data := []byte(`{
		"transferBatch": {
			"batchControlInfo": {
				"sender": "VISDE",
				"recipient": "HOMNL",
				"fileSequenceNumber": "00012"
			},
			"accountingInfo": {
				"localCurrency": "EUR",
				"tapDecimalPlaces": 5
			},
			"callEventDetails": [
				{
					"mobileOriginatedCall": {
						"basicServiceUsedList": [
							{
								"chargeInformationList": [
									{
										"exchangeRateCode": 1,
										"chargeDetailList": [
											{"chargeType": "00", "charge": 700}
										]
									}
								]
							}
						]
					}
				}
			]
		}
	}`)

	record, err := NewJSONCodec().Decode(data)
	require.NoError(t, err)
	require.NotNil(t, record.TransferBatch)
	assert.False(t, record.IsNotification())

	bci := record.TransferBatch.BatchControlInfo
	require.NotNil(t, bci)
	assert.Equal(t, "VISDE", *bci.Sender)
	assert.Equal(t, "00012", *bci.FileSequenceNumber)
	assert.Equal(t, 5, *record.TransferBatch.AccountingInfo.TapDecimalPlaces)
	assert.Equal(t, int64(700), record.TransferBatch.TotalCharge())
}

func TestJSONCodec_DecodeNotification(t *testing.T) {
	data := []byte(`{"notification": {"sender": "VISDE", "recipient": "HOMNL", "fileSequenceNumber": "00013"}}`)

	record, err := NewJSONCodec().Decode(data)
	require.NoError(t, err)
	assert.True(t, record.IsNotification())
	assert.Equal(t, "00013", *record.Notification.FileSequenceNumber)
}

func TestJSONCodec_DecodeEmptyRecord(t *testing.T) {
	_, err := NewJSONCodec().Decode([]byte(`{}`))
	assert.ErrorIs(t, err, ErrEmptyInterchange)
}

func TestJSONCodec_DecodeMalformed(t *testing.T) {
	_, err := NewJSONCodec().Decode([]byte(`{not json`))
	assert.Error(t, err)
}

func TestJSONCodec_EncodeRoundTrip(t *testing.T) {
	spec := 3
	batch := &domain.ReturnBatch{
		RapBatchControlInfo: &domain.RapBatchControlInfo{
			Sender:                     "HOMNL",
			Recipient:                  "VISDE",
			RapFileSequenceNumber:      "00001",
			SpecificationVersionNumber: &spec,
		},
		ReturnDetails: []domain.ReturnDetail{{
			FatalReturn: &domain.FatalReturn{
				FileSequenceNumber: "00012",
				ErrorBlock: domain.ErrorBlock{
					Section:     domain.SectionTransferBatch,
					ErrorDetail: []domain.ErrorDetail{{Code: 30}},
				},
			},
		}},
		RapAuditControlInfo: &domain.RapAuditControlInfo{ReturnDetailsCount: 1},
	}

	data, err := NewJSONCodec().Encode(batch)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"rapFileSequenceNumber":"00001"`)
	assert.Contains(t, string(data), `"fatalReturn"`)
	// Unset union members stay out of the document.
	assert.NotContains(t, string(data), `"severeReturn"`)
}
