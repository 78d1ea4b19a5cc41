// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gdg-garage/mess-billing/internal/calendar"
	"github.com/gdg-garage/mess-billing/internal/database"
	"github.com/gdg-garage/mess-billing/internal/models"
)

// OpenDB returns a migrated in-memory database closed at test end.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// User inserts a member with the given name.
func User(t *testing.T, db *gorm.DB, name string) models.User {
	t.Helper()
	u := models.User{FullName: name, Role: models.RoleUser}
	require.NoError(t, db.Create(&u).Error)
	return u
}

// Admin inserts an administrator.
func Admin(t *testing.T, db *gorm.DB, name string) models.User {
	t.Helper()
	u := models.User{FullName: name, Role: models.RoleAdmin}
	require.NoError(t, db.Create(&u).Error)
	return u
}

// Food inserts a food item served on day.
func Food(t *testing.T, db *gorm.DB, name, day string, price int64) models.MenuItem {
	t.Helper()
	return menuItem(t, db, name, day, price, true)
}

// Drink inserts a drink served on day.
func Drink(t *testing.T, db *gorm.DB, name, day string, price int64) models.MenuItem {
	t.Helper()
	return menuItem(t, db, name, day, price, false)
}

func menuItem(t *testing.T, db *gorm.DB, name, day string, price int64, food bool) models.MenuItem {
	m := models.MenuItem{
		Name:   name,
		Date:   calendar.MustParseDay(day).Time(),
		Price:  decimal.NewFromInt(price),
		IsFood: food,
	}
	require.NoError(t, db.Create(&m).Error)
	return m
}

// Mark writes an attendance row directly, bypassing the ledger.
func Mark(t *testing.T, db *gorm.DB, userID, itemID uint, attended bool) models.Attendance {
	t.Helper()
	a := models.Attendance{UserID: userID, MenuItemID: itemID, Attended: attended}
	require.NoError(t, db.Create(&a).Error)
	return a
}

// Clock returns a Now func fixed at the given instant.
func Clock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
