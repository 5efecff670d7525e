package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ContractStatusDraft     = "draft"
	ContractStatusActive    = "active"
	ContractStatusCompleted = "completed"
	ContractStatusCancelled = "cancelled"
)

type Contract struct {
	ID   uint64 `gorm:"primaryKey;autoIncrement"`
	Code string `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name string `gorm:"type:varchar(255);not null"`

	CustomerID   uint64 `gorm:"not null;index"`
	SalesOwnerID string `gorm:"type:varchar(100);not null;index"`
	UnitName     string `gorm:"type:varchar(100);index"`

	Status   string     `gorm:"type:varchar(20);not null;default:'draft';index"`
	SignedAt *time.Time `gorm:"type:timestamptz"`

	// Applied against total input cost when deriving totals.
	SupplierDiscountPercent decimal.Decimal `gorm:"type:numeric(10,4);not null;default:0"`

	Notes string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Contract) TableName() string {
	return "contracts"
}
