package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentStatusScheduled = "scheduled"
	PaymentStatusPaid      = "paid"
	PaymentStatusOverdue   = "overdue"
)

type PlannedPayment struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	ContractID uint64 `gorm:"not null;index"`

	Name    string          `gorm:"type:varchar(255);not null"`
	Amount  decimal.Decimal `gorm:"type:numeric(30,4);not null;default:0"`
	DueDate time.Time       `gorm:"type:timestamptz;not null;index"`

	Status     string           `gorm:"type:varchar(20);not null;default:'scheduled';index"`
	PaidAt     *time.Time       `gorm:"type:timestamptz"`
	PaidAmount *decimal.Decimal `gorm:"type:numeric(30,4)"`

	Notes string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (PlannedPayment) TableName() string {
	return "planned_payments"
}
