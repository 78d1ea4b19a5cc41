package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Bill is a member's charge for one calendar month. PeriodAnchor is the
// first day of that month; the bill ledger keeps one bill per user and
// anchor month.
type Bill struct {
	gorm.Model
	UserID       uint            `json:"user_id" gorm:"index"`
	User         User            `json:"user"`
	Amount       decimal.Decimal `json:"amount" gorm:"type:decimal(10,2)"`
	PeriodAnchor time.Time       `json:"period_anchor" gorm:"index"`
	Paid         bool            `json:"paid"`
}
