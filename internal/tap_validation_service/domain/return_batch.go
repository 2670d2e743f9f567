package domain

// RAP (TD.32) return batch model. The service synthesizes fatal and severe
// returns; stop and missing returns appear only when loading a foreign RAP
// file, so the union keeps members for them without construction helpers.

type ReturnBatch struct {
	RapBatchControlInfo *RapBatchControlInfo `json:"rapBatchControlInfoRap,omitempty"`
	ReturnDetails       []ReturnDetail       `json:"returnDetails,omitempty"`
	RapAuditControlInfo *RapAuditControlInfo `json:"rapAuditControlInfo,omitempty"`
}

// RapBatchControlInfo is the RAP header. Sender and recipient are swapped
// relative to the validated TAP file: the home network reports back to the
// visited network that sent the data.
type RapBatchControlInfo struct {
	Sender                        string     `json:"sender"`
	Recipient                     string     `json:"recipient"`
	RapFileSequenceNumber         string     `json:"rapFileSequenceNumber"`
	RapFileCreationTimeStamp      *Timestamp `json:"rapFileCreationTimeStamp,omitempty"`
	RapFileAvailableTimeStamp     *Timestamp `json:"rapFileAvailableTimeStamp,omitempty"`
	SpecificationVersionNumber    *int       `json:"specificationVersionNumber,omitempty"`
	ReleaseVersionNumber          *int       `json:"releaseVersionNumber,omitempty"`
	RapSpecificationVersionNumber *int       `json:"rapSpecificationVersionNumber,omitempty"`
	RapReleaseVersionNumber       *int       `json:"rapReleaseVersionNumber,omitempty"`
	FileTypeIndicator             *string    `json:"fileTypeIndicator,omitempty"`
	TapDecimalPlaces              *int       `json:"tapDecimalPlaces,omitempty"`
}

type RapAuditControlInfo struct {
	ReturnDetailsCount     int   `json:"returnDetailsCount"`
	TotalSevereReturnValue int64 `json:"totalSevereReturnValue"`
}

// ReturnDetail is the per-return union: exactly one member is set.
type ReturnDetail struct {
	FatalReturn   *FatalReturn   `json:"fatalReturn,omitempty"`
	SevereReturn  *SevereReturn  `json:"severeReturn,omitempty"`
	StopReturn    *StopReturn    `json:"stopReturn,omitempty"`
	MissingReturn *MissingReturn `json:"missingReturn,omitempty"`
}

// FatalReturn rejects a whole TAP file. The error block names the tree
// section the rejection belongs to.
type FatalReturn struct {
	FileSequenceNumber string     `json:"fileSequenceNumber"`
	ErrorBlock         ErrorBlock `json:"errorBlock"`
}

// ErrorBlock ties a batch section to the errors found in it.
type ErrorBlock struct {
	Section     SectionKind   `json:"section"`
	ErrorDetail []ErrorDetail `json:"errorDetail"`
}

// SevereReturn rejects a single call event. It carries a deep copy of the
// offending event so the originator can re-rate it.
type SevereReturn struct {
	FileSequenceNumber string          `json:"fileSequenceNumber"`
	CallEventDetail    CallEventDetail `json:"callEventDetail"`
	ErrorDetail        []ErrorDetail   `json:"errorDetail"`
	OperatorSpecInfo   []string        `json:"operatorSpecInformation,omitempty"`
}

type StopReturn struct {
	FileSequenceNumber string   `json:"fileSequenceNumber"`
	OperatorSpecInfo   []string `json:"operatorSpecInformation,omitempty"`
}

type MissingReturn struct {
	FileSequenceNumber string `json:"fileSequenceNumber"`
}

// ErrorDetail is one validation finding: the TD.32 error code plus the
// context path locating the offending element.
type ErrorDetail struct {
	Code    int            `json:"errorCode"`
	Context []ErrorContext `json:"errorContext"`
}

// ErrorContext is one step of the path from the tree root down to the
// offending element. ItemOccurrence is set only for repeated elements.
type ErrorContext struct {
	PathItemID     int  `json:"pathItemId"`
	ItemLevel      int  `json:"itemLevel"`
	ItemOccurrence *int `json:"itemOccurrence,omitempty"`
}

// Kind reports which union member a return detail carries.
func (r *ReturnDetail) Kind() string {
	switch {
	case r.FatalReturn != nil:
		return "fatal"
	case r.SevereReturn != nil:
		return "severe"
	case r.StopReturn != nil:
		return "stop"
	case r.MissingReturn != nil:
		return "missing"
	default:
		return "unknown"
	}
}
