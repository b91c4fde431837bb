package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Stages at which a pair can fail during distribution.
const (
	StageAssign = "assign"
	StageRender = "render"
	StageSVG    = "write_svg"
	StageInfo   = "write_info"
)

type PairFailure struct {
	ProductID   uuid.UUID `json:"productId"`
	Product     string    `json:"product"`
	StoreUserID uuid.UUID `json:"storeUserId"`
	StoreID     string    `json:"storeId"`
	Stage       string    `json:"stage"`
	Error       string    `json:"error"`
}

// DistributionReport is the outcome of a fan-out. Generated counts pairs
// whose two artifacts were both written; Pairs lists them.
type DistributionReport struct {
	Requested int           `json:"requested"`
	Generated int           `json:"generated"`
	Pairs     []PairRef     `json:"pairs"`
	Skipped   []PairRef     `json:"skipped"`
	Failures  []PairFailure `json:"failures"`
	Message   string        `json:"message"`
}

// Summary renders the user-facing "N of M" line.
func (r *DistributionReport) Summary() string {
	msg := fmt.Sprintf("%d of %d QR codes generated", r.Generated, r.Requested)
	if len(r.Skipped) > 0 {
		msg += fmt.Sprintf(" (%d already distributed)", len(r.Skipped))
	}
	if len(r.Failures) == 0 {
		return msg
	}
	parts := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		parts = append(parts, fmt.Sprintf("%s @ %s (%s: %s)", f.Product, f.StoreID, f.Stage, f.Error))
	}
	return msg + "; failures: " + strings.Join(parts, ", ")
}

// FailedPairs returns the pairs a caller may retry.
func (r *DistributionReport) FailedPairs() []PairRef {
	seen := make(map[PairRef]bool)
	var out []PairRef
	for _, f := range r.Failures {
		p := PairRef{ProductID: f.ProductID, StoreUserID: f.StoreUserID, StoreID: f.StoreID}
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

// DistributedEvent is published after a distribution that generated at
// least one pair.
type DistributedEvent struct {
	SupplierID   uuid.UUID `json:"supplierId"`
	SupplierSlug string    `json:"supplierSlug"`
	Generated    []PairRef `json:"generated"`
	OccurredAt   time.Time `json:"occurredAt"`
}
