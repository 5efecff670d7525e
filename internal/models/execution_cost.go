package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExecutionCost is a named cost entry on a contract. Amount and
// PercentOfInput are kept in sync by the contract service against the
// contract's total input cost; setting one recomputes the other.
type ExecutionCost struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	ContractID uint64 `gorm:"not null;index"`

	Name string `gorm:"type:varchar(255);not null"`

	Amount         decimal.Decimal `gorm:"type:numeric(30,4);not null;default:0"`
	PercentOfInput decimal.Decimal `gorm:"type:numeric(10,4);not null;default:0"`

	// RequiresExpert marks an external expert-hire cost. Any such entry with
	// a positive amount forces board review regardless of margin.
	RequiresExpert bool `gorm:"not null;default:false"`

	Position int `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (ExecutionCost) TableName() string {
	return "contract_execution_costs"
}
