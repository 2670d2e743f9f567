package app

import (
	"github.com/RoamIT/roamhub/golang_services/internal/tap_validation_service/domain"
)

// PathItem is one step of an error location: the tree section plus its
// 1-based occurrence when the section repeats. Occurrence 0 means the
// section is not repeated and the index is omitted from the output.
type PathItem struct {
	Section    domain.SectionKind
	Occurrence int
}

// BuildContextPath translates a nesting of tree sections into the error
// context list a RAP error detail carries. Levels are assigned 1..n in
// input order; the path reads top to bottom exactly as the counterparty
// will re-locate the field.
func BuildContextPath(items []PathItem) []domain.ErrorContext {
	out := make([]domain.ErrorContext, 0, len(items))
	for i, item := range items {
		ctx := domain.ErrorContext{
			PathItemID: item.Section.ApplicationTagID(),
			ItemLevel:  i + 1,
		}
		if item.Occurrence > 0 {
			occ := item.Occurrence
			ctx.ItemOccurrence = &occ
		}
		out = append(out, ctx)
	}
	return out
}
