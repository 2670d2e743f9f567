package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/RoamIT/roamhub/golang_services/internal/tap_validation_service/domain"
	"github.com/RoamIT/roamhub/golang_services/internal/tap_validation_service/repository"
)

var ErrAlreadyFinalized = errors.New("return batch already finalized")

// ReturnBatchBuilder accumulates the RAP counter-file for one validation
// run. It is lazily opened on the first failure; a run that finds nothing
// never touches the sequence counter. One builder per run, never shared.
type ReturnBatchBuilder struct {
	repo    repository.ReferenceRepository
	logger  *slog.Logger
	partner domain.PartnerID

	header    *domain.ReturnHeader
	sender    string
	recipient string
	details   []domain.ReturnDetail
	charge    int64
	finalized bool

	specVersion    *int
	releaseVersion *int
	fileType       *string
}

func NewReturnBatchBuilder(repo repository.ReferenceRepository, logger *slog.Logger, partner domain.PartnerID) *ReturnBatchBuilder {
	return &ReturnBatchBuilder{
		repo:    repo,
		logger:  logger.With("component", "return_batch_builder"),
		partner: partner,
	}
}

// HeaderSource is what the builder copies out of the validated file's
// batch control info when deriving the counter-file header.
type HeaderSource struct {
	Sender            string
	Recipient         string
	AvailableAt       *domain.Timestamp
	SpecVersion       *int
	ReleaseVersion    *int
	FileTypeIndicator *string
}

// Open derives the counter-file header the first time it is called and
// no-ops thereafter. Sender and recipient are swapped: the RAP goes back
// to the network that sent the TAP file.
func (b *ReturnBatchBuilder) Open(ctx context.Context, src HeaderSource) error {
	if b.finalized {
		return ErrAlreadyFinalized
	}
	if b.header != nil {
		return nil
	}

	isTest := src.FileTypeIndicator != nil && *src.FileTypeIndicator != ""
	h, err := b.repo.IssueReturnHeader(ctx, b.partner, src.AvailableAt, isTest)
	if err != nil {
		return fmt.Errorf("opening return batch: %w", err)
	}

	b.header = &h
	b.sender = src.Recipient
	b.recipient = src.Sender
	b.specVersion = src.SpecVersion
	b.releaseVersion = src.ReleaseVersion
	b.fileType = src.FileTypeIndicator

	b.logger.InfoContext(ctx, "Return batch opened",
		"rap_sequence", h.SequenceNumber, "rap_filename", h.Filename, "partner_id", b.partner)
	return nil
}

// Opened reports whether a header has been issued for this run.
func (b *ReturnBatchBuilder) Opened() bool {
	return b.header != nil
}

// RapSequenceNumber is the assigned RAP sequence, empty before Open.
func (b *ReturnBatchBuilder) RapSequenceNumber() string {
	if b.header == nil {
		return ""
	}
	return b.header.SequenceNumber
}

// Filename is the assigned RAP filename, empty before Open.
func (b *ReturnBatchBuilder) Filename() string {
	if b.header == nil {
		return ""
	}
	return b.header.Filename
}

// Add appends one return detail and accounts its affected charge. Calling
// Add before Open is a programming error: headers exist before content.
func (b *ReturnBatchBuilder) Add(detail domain.ReturnDetail, affectedCharge int64) {
	if b.header == nil {
		panic("ReturnBatchBuilder.Add called before Open")
	}
	if b.finalized {
		panic("ReturnBatchBuilder.Add called after Finalize")
	}
	b.details = append(b.details, detail)
	b.charge += affectedCharge
}

// EntryCount is the number of accumulated return details.
func (b *ReturnBatchBuilder) EntryCount() int {
	return len(b.details)
}

// Finalize recomputes the audit totals from the accumulated entries and
// freezes the batch. The running totals are never trusted on their own.
func (b *ReturnBatchBuilder) Finalize() (*domain.ReturnBatch, error) {
	if b.header == nil {
		return nil, errors.New("finalizing a return batch that was never opened")
	}
	if b.finalized {
		return nil, ErrAlreadyFinalized
	}
	b.finalized = true

	var total int64
	for _, d := range b.details {
		if d.SevereReturn != nil {
			total += d.SevereReturn.CallEventDetail.TotalCharge()
		}
	}
	if total != b.charge {
		b.logger.Warn("Running severe total disagrees with recomputed total, using recomputed",
			"running", b.charge, "recomputed", total, "rap_sequence", b.header.SequenceNumber)
	}

	decimals := b.header.TapDecimalPlaces
	stamp := &domain.Timestamp{
		LocalTimeStamp: b.header.CreationStamp,
		UtcTimeOffset:  b.header.UtcOffset,
	}
	batch := &domain.ReturnBatch{
		RapBatchControlInfo: &domain.RapBatchControlInfo{
			Sender:                        b.sender,
			Recipient:                     b.recipient,
			RapFileSequenceNumber:         b.header.SequenceNumber,
			RapFileCreationTimeStamp:      stamp,
			RapFileAvailableTimeStamp:     stamp,
			SpecificationVersionNumber:    b.specVersion,
			ReleaseVersionNumber:          b.releaseVersion,
			RapSpecificationVersionNumber: &b.header.RapSpecificationVersion,
			RapReleaseVersionNumber:       &b.header.RapReleaseVersion,
			FileTypeIndicator:             b.fileType,
			TapDecimalPlaces:              &decimals,
		},
		ReturnDetails: b.details,
		RapAuditControlInfo: &domain.RapAuditControlInfo{
			ReturnDetailsCount:     len(b.details),
			TotalSevereReturnValue: total,
		},
	}
	return batch, nil
}
