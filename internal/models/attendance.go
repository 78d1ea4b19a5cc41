package models

import (
	"gorm.io/gorm"
)

// Attendance records whether a user consumed a menu item. There is at most
// one row per (UserID, MenuItemID); the attendance ledger upserts on that
// pair rather than relying on a storage constraint.
type Attendance struct {
	gorm.Model
	UserID     uint     `json:"user_id" gorm:"index:idx_attendance_pair"`
	User       User     `json:"-"`
	MenuItemID uint     `json:"menu_item_id" gorm:"index:idx_attendance_pair"`
	MenuItem   MenuItem `json:"menu_item"`
	Attended   bool     `json:"attended"`
}
