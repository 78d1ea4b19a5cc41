package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MenuItem is a dish or drink served on a given day. Date is midnight UTC.
type MenuItem struct {
	gorm.Model
	Name   string          `json:"name" gorm:"index:idx_menu_name_date"`
	Date   time.Time       `json:"date" gorm:"index:idx_menu_name_date;index"`
	Price  decimal.Decimal `json:"price" gorm:"type:decimal(10,2)"`
	IsFood bool            `json:"is_food"`
}

func (m MenuItem) IsDrink() bool {
	return !m.IsFood
}
