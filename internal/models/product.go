package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID   uint64 `gorm:"primaryKey;autoIncrement"`
	Code string `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name string `gorm:"type:varchar(255);not null;index"`
	Unit string `gorm:"type:varchar(30)"`

	DefaultInputPrice  decimal.Decimal `gorm:"type:numeric(30,4);not null;default:0"`
	DefaultOutputPrice decimal.Decimal `gorm:"type:numeric(30,4);not null;default:0"`

	Active bool `gorm:"not null;default:true;index"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Product) TableName() string {
	return "products"
}
