package attendance

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/gdg-garage/mess-billing/internal/calendar"
	"github.com/gdg-garage/mess-billing/internal/catalog"
	"github.com/gdg-garage/mess-billing/internal/failure"
	"github.com/gdg-garage/mess-billing/internal/members"
	"github.com/gdg-garage/mess-billing/internal/models"
)

// FallbackWarning is reported when drinks were only found on the UTC day.
const FallbackWarning = "auto-mark used UTC date fallback to find drink menus"

// UserFailure is one member's error inside a batch. It does not abort the
// rest of the batch.
type UserFailure struct {
	UserID  uint   `json:"user_id"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

// MarkReport is the outcome of a drink sweep.
type MarkReport struct {
	Day          calendar.Day  `json:"day"`
	Drinks       int           `json:"drinks"`
	Users        int           `json:"users"`
	Marked       int           `json:"marked"`
	UsedFallback bool          `json:"used_fallback"`
	Warning      string        `json:"warning,omitempty"`
	Failures     []UserFailure `json:"failures,omitempty"`
}

// AutoMarker opts every member into the day's drinks.
type AutoMarker struct {
	db *gorm.DB
}

func NewAutoMarker(db *gorm.DB) *AutoMarker {
	return &AutoMarker{db: db}
}

// Sweep marks every member as having had every drink served on primary.
// When primary has no drinks it retries with fallback (the UTC day). Rows
// already true are left alone; false rows are flipped; missing rows are
// created. Food is never touched.
//
// The sweep is one transaction. Each member runs in a savepoint, so one
// member's failure rolls back only that member's writes.
func (m *AutoMarker) Sweep(ctx context.Context, primary, fallback calendar.Day) (*MarkReport, error) {
	report := &MarkReport{Day: primary}

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		drinks, err := catalog.ForDay(tx, primary, catalog.DrinksOnly)
		if err != nil {
			return err
		}
		if len(drinks) == 0 && !fallback.IsZero() && !fallback.Equal(primary) {
			drinks, err = catalog.ForDay(tx, fallback, catalog.DrinksOnly)
			if err != nil {
				return err
			}
			if len(drinks) > 0 {
				report.Day = fallback
				report.UsedFallback = true
				report.Warning = FallbackWarning
			}
		}
		report.Drinks = len(drinks)
		if len(drinks) == 0 {
			return nil
		}

		users, err := members.List(tx)
		if err != nil {
			return err
		}
		report.Users = len(users)

		for _, u := range users {
			var marked int
			err := tx.Transaction(func(utx *gorm.DB) error {
				n, err := markUser(utx, u, drinks)
				marked = n
				return err
			})
			if err != nil {
				slog.Warn("Auto-mark failed for user", "user_id", u.ID, "day", report.Day, "error", err)
				report.Failures = append(report.Failures, UserFailure{
					UserID:  u.ID,
					Name:    u.FullName,
					Message: failure.Message(err),
				})
				continue
			}
			report.Marked += marked
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func markUser(tx *gorm.DB, u models.User, drinks []models.MenuItem) (int, error) {
	marked := 0
	for _, d := range drinks {
		if d.IsFood {
			return marked, fmt.Errorf("menu item %d is not a drink", d.ID)
		}
		_, wrote, err := upsert(tx, u.ID, d.ID, true, func(cur *models.Attendance) bool {
			return cur == nil || !cur.Attended
		})
		if err != nil {
			return marked, err
		}
		if wrote {
			marked++
		}
	}
	return marked, nil
}
