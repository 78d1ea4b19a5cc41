// Package attendance records who consumed which menu item, and sweeps
// default drink attendance for a day.
package attendance

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/gdg-garage/mess-billing/internal/calendar"
	"github.com/gdg-garage/mess-billing/internal/failure"
	"github.com/gdg-garage/mess-billing/internal/models"
)

// Ledger is the per-user, per-item attendance store.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Set records whether userID attended menuItemID, creating the row on first
// use and overwriting Attended afterwards. It does not touch bills.
func (l *Ledger) Set(ctx context.Context, userID, menuItemID uint, attended bool) (*models.Attendance, error) {
	var rec models.Attendance
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := exists(tx, &models.User{}, userID, "user"); err != nil {
			return err
		}
		if err := exists(tx, &models.MenuItem{}, menuItemID, "menu item"); err != nil {
			return err
		}
		var err error
		rec, _, err = upsert(tx, userID, menuItemID, attended, func(cur *models.Attendance) bool {
			return cur == nil || cur.Attended != attended
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// upsert is a compare-and-write keyed on (user, item) inside tx. want is
// given the current row, nil when absent, and decides whether to write
// attended. The bool result reports whether a write happened.
func upsert(tx *gorm.DB, userID, menuItemID uint, attended bool, want func(*models.Attendance) bool) (models.Attendance, bool, error) {
	var rec models.Attendance
	err := tx.Where("user_id = ? AND menu_item_id = ?", userID, menuItemID).First(&rec).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if !want(nil) {
			return rec, false, nil
		}
		rec = models.Attendance{UserID: userID, MenuItemID: menuItemID, Attended: attended}
		if err := tx.Create(&rec).Error; err != nil {
			return rec, false, failure.Storage(err, "failed to record attendance")
		}
		return rec, true, nil
	case err != nil:
		return rec, false, failure.Storage(err, "failed to load attendance")
	}

	if !want(&rec) {
		return rec, false, nil
	}
	rec.Attended = attended
	if err := tx.Model(&rec).Update("attended", attended).Error; err != nil {
		return rec, false, failure.Storage(err, "failed to update attendance")
	}
	return rec, true, nil
}

func exists(tx *gorm.DB, model any, id uint, what string) error {
	var n int64
	if err := tx.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return failure.Storage(err, "failed to look up %s %d", what, id)
	}
	if n == 0 {
		return failure.NotFound("%s %d not found", what, id)
	}
	return nil
}

// joined scopes an attendance query to rows whose menu item is live, so
// date and type filters apply to the item.
func joined(tx *gorm.DB) *gorm.DB {
	return tx.Model(&models.Attendance{}).
		Joins("MenuItem").
		Where("MenuItem.id IS NOT NULL")
}

// ForDay lists every attendance row for items served on day.
func (l *Ledger) ForDay(ctx context.Context, day calendar.Day) ([]models.Attendance, error) {
	var recs []models.Attendance
	err := joined(l.db.WithContext(ctx)).
		Where("MenuItem.date >= ? AND MenuItem.date < ?", day.Time(), day.AddDays(1).Time()).
		Order("attendances.user_id, attendances.menu_item_id").
		Find(&recs).Error
	if err != nil {
		return nil, failure.Storage(err, "failed to list attendance for %s", day)
	}
	return recs, nil
}

// ForUser lists a member's attendance, newest item first.
func (l *Ledger) ForUser(ctx context.Context, userID uint, attendedOnly bool) ([]models.Attendance, error) {
	q := joined(l.db.WithContext(ctx)).Where("attendances.user_id = ?", userID)
	if attendedOnly {
		q = q.Where("attendances.attended = ?", true)
	}
	var recs []models.Attendance
	if err := q.Order("MenuItem.date DESC, MenuItem.name").Find(&recs).Error; err != nil {
		return nil, failure.Storage(err, "failed to list attendance for user %d", userID)
	}
	return recs, nil
}

// ForWindow lists a member's attendance for items within w.
func (l *Ledger) ForWindow(ctx context.Context, userID uint, w calendar.Window, attendedOnly bool) ([]models.Attendance, error) {
	return ForWindow(l.db.WithContext(ctx), userID, w, attendedOnly)
}

// ForWindow runs the window query on tx.
func ForWindow(tx *gorm.DB, userID uint, w calendar.Window, attendedOnly bool) ([]models.Attendance, error) {
	q := joined(tx).
		Where("attendances.user_id = ?", userID).
		Where("MenuItem.date >= ? AND MenuItem.date < ?", w.From.Time(), w.End().Time())
	if attendedOnly {
		q = q.Where("attendances.attended = ?", true)
	}
	var recs []models.Attendance
	if err := q.Order("MenuItem.date, MenuItem.name").Find(&recs).Error; err != nil {
		return nil, failure.Storage(err, "failed to list attendance for user %d in %s", userID, w)
	}
	return recs, nil
}

// Marks maps menu item ID to the member's recorded attendance within w.
// Items with no row are absent from the map.
func Marks(tx *gorm.DB, userID uint, w calendar.Window) (map[uint]bool, error) {
	recs, err := ForWindow(tx, userID, w, false)
	if err != nil {
		return nil, err
	}
	marks := make(map[uint]bool, len(recs))
	for _, r := range recs {
		marks[r.MenuItemID] = r.Attended
	}
	return marks, nil
}

// Stats summarises a member's attended items.
type Stats struct {
	Total     int `json:"total"`
	Food      int `json:"food"`
	Drink     int `json:"drink"`
	ThisMonth int `json:"this_month"`
}

// History returns a member's attended items with counts; today picks the
// month counted in ThisMonth.
func (l *Ledger) History(ctx context.Context, userID uint, today calendar.Day) ([]models.Attendance, Stats, error) {
	recs, err := l.ForUser(ctx, userID, true)
	if err != nil {
		return nil, Stats{}, err
	}
	var s Stats
	for _, r := range recs {
		s.Total++
		if r.MenuItem.IsFood {
			s.Food++
		} else {
			s.Drink++
		}
		if calendar.DayOf(r.MenuItem.Date.In(time.UTC)).SameMonth(today) {
			s.ThisMonth++
		}
	}
	return recs, s, nil
}
