package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	PlanStatusDraft          = "draft"
	PlanStatusPendingUnit    = "pending_unit"
	PlanStatusPendingFinance = "pending_finance"
	PlanStatusPendingBoard   = "pending_board"
	PlanStatusApproved       = "approved"
	PlanStatusRejected       = "rejected"
)

// PlanTerminal reports whether a plan status accepts no further transitions.
func PlanTerminal(status string) bool {
	return status == PlanStatusApproved || status == PlanStatusRejected
}

// BusinessPlan is the profitability plan (PAKD) attached to a contract and
// routed through the approval workflow. Totals is the financial snapshot
// frozen at submission; it is not recomputed for the rest of the review
// cycle so that every reviewer decides on the same numbers.
type BusinessPlan struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	ContractID uint64 `gorm:"not null;index"`

	Status string `gorm:"type:varchar(20);not null;default:'draft';index"`

	Totals       datatypes.JSON `gorm:"type:jsonb"`
	AutoApproved bool           `gorm:"not null;default:false"`

	SubmittedBy    string     `gorm:"type:varchar(100);not null"`
	SubmittedAt    *time.Time `gorm:"type:timestamptz"`
	ApprovedBy     string     `gorm:"type:varchar(100)"`
	ApprovedAt     *time.Time `gorm:"type:timestamptz"`
	RejectedReason string     `gorm:"type:text"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (BusinessPlan) TableName() string {
	return "business_plans"
}
