package models

import "time"

const (
	ReviewActionSubmit  = "submit"
	ReviewActionApprove = "approve"
	ReviewActionReject  = "reject"
)

// ReviewLog is one immutable audit record per workflow transition. Rows are
// append-only: no update or delete path exists anywhere in the codebase.
type ReviewLog struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	PlanID     uint64 `gorm:"not null;index"`
	ContractID uint64 `gorm:"not null;index"`

	ReviewerID string `gorm:"type:varchar(100);not null"`
	Role       string `gorm:"type:varchar(30);not null"`
	Action     string `gorm:"type:varchar(20);not null"`

	FromStatus string `gorm:"type:varchar(20);not null"`
	ToStatus   string `gorm:"type:varchar(20);not null"`

	Comment      string `gorm:"type:text"`
	AutoApproved bool   `gorm:"not null;default:false"`
	RequestID    string `gorm:"type:varchar(64);index"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
}

func (ReviewLog) TableName() string {
	return "plan_review_logs"
}
