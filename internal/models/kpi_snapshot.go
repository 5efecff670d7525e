package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// KPISnapshot is one daily rollup row produced by the dashboard cron.
type KPISnapshot struct {
	ID  uint64 `gorm:"primaryKey;autoIncrement"`
	Day string `gorm:"type:varchar(10);not null;uniqueIndex"`

	ContractsTotal  int64 `gorm:"not null;default:0"`
	ContractsActive int64 `gorm:"not null;default:0"`
	PlansApproved   int64 `gorm:"not null;default:0"`
	PlansRejected   int64 `gorm:"not null;default:0"`

	SigningValueSum decimal.Decimal `gorm:"type:numeric(30,4);not null;default:0"`
	GrossProfitSum  decimal.Decimal `gorm:"type:numeric(30,4);not null;default:0"`
	PaymentsDueSum  decimal.Decimal `gorm:"type:numeric(30,4);not null;default:0"`
	PaymentsPaidSum decimal.Decimal `gorm:"type:numeric(30,4);not null;default:0"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (KPISnapshot) TableName() string {
	return "kpi_snapshots"
}
