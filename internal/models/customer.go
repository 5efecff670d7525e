package models

import "time"

type Customer struct {
	ID   uint64 `gorm:"primaryKey;autoIncrement"`
	Code string `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name string `gorm:"type:varchar(255);not null;index"`

	TaxCode string `gorm:"type:varchar(50)"`
	Address string `gorm:"type:text"`

	ContactName  string `gorm:"type:varchar(255)"`
	ContactPhone string `gorm:"type:varchar(30)"`
	ContactEmail string `gorm:"type:varchar(255)"`

	Notes string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Customer) TableName() string {
	return "customers"
}
