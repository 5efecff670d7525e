package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItem belongs to a contract and is replaced wholesale through the
// contract edit surface; it is never mutated row-by-row.
type LineItem struct {
	ID         uint64  `gorm:"primaryKey;autoIncrement"`
	ContractID uint64  `gorm:"not null;index"`
	ProductID  *uint64 `gorm:"index"`

	Name string `gorm:"type:varchar(255);not null"`
	Unit string `gorm:"type:varchar(30)"`

	Quantity    decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`
	InputPrice  decimal.Decimal `gorm:"type:numeric(30,4);not null;default:0"`
	OutputPrice decimal.Decimal `gorm:"type:numeric(30,4);not null;default:0"`
	DirectCost  decimal.Decimal `gorm:"type:numeric(30,4);not null;default:0"`

	Position int `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (LineItem) TableName() string {
	return "contract_line_items"
}
