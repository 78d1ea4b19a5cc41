package billing

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gdg-garage/mess-billing/internal/attendance"
	"github.com/gdg-garage/mess-billing/internal/calendar"
	"github.com/gdg-garage/mess-billing/internal/catalog"
	"github.com/gdg-garage/mess-billing/internal/failure"
	"github.com/gdg-garage/mess-billing/internal/members"
	"github.com/gdg-garage/mess-billing/internal/models"
)

// RunReport is the outcome of one bill generation batch.
type RunReport struct {
	Period   calendar.Period          `json:"period"`
	Window   calendar.Window          `json:"window"`
	Users    int                      `json:"users"`
	Created  int                      `json:"created"`
	Updated  int                      `json:"updated"`
	Skipped  int                      `json:"skipped"`
	Failures []attendance.UserFailure `json:"failures,omitempty"`
}

// Generator aggregates attendance into bills.
type Generator struct {
	db   *gorm.DB
	rule DrinkRule
}

func NewGenerator(db *gorm.DB, rule DrinkRule) *Generator {
	if rule == "" {
		rule = DrinkRuleAlways
	}
	return &Generator{db: db, rule: rule}
}

func (g *Generator) Rule() DrinkRule { return g.rule }

// Generate bills every member for the window period derives from today.
// The batch is one transaction with a savepoint per member: a member whose
// charge cannot be computed or stored is reported and skipped, the rest
// still commit. Concurrent runs are not coordinated; the last write wins.
func (g *Generator) Generate(ctx context.Context, period calendar.Period, today calendar.Day) (*RunReport, error) {
	w := calendar.WindowFor(period, today)
	report := &RunReport{Period: period, Window: w}

	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items, err := catalog.InWindow(tx, w, catalog.AnyKind)
		if err != nil {
			return err
		}
		users, err := members.List(tx)
		if err != nil {
			return err
		}
		report.Users = len(users)

		for _, u := range users {
			var outcome Outcome
			err := tx.Transaction(func(utx *gorm.DB) error {
				var err error
				outcome, err = g.billUser(utx, u, w, items)
				return err
			})
			if err != nil {
				slog.Warn("Bill generation failed for user", "user_id", u.ID, "window", w.String(), "error", err)
				report.Failures = append(report.Failures, attendance.UserFailure{
					UserID:  u.ID,
					Name:    u.FullName,
					Message: failure.Message(err),
				})
				continue
			}
			switch outcome {
			case Created:
				report.Created++
			case Updated:
				report.Updated++
			default:
				report.Skipped++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (g *Generator) billUser(tx *gorm.DB, u models.User, w calendar.Window, items []models.MenuItem) (Outcome, error) {
	marks, err := attendance.Marks(tx, u.ID, w)
	if err != nil {
		return Skipped, err
	}
	amount := Charge(items, marks, g.rule)
	outcome, _, err := Upsert(tx, u.ID, w.Anchor(), amount)
	if err != nil {
		return Skipped, err
	}
	slog.Debug("Billed user", "user_id", u.ID, "amount", amount.String(), "outcome", outcome.String())
	return outcome, nil
}

// Quote is an unsaved charge.
type Quote struct {
	UserID uint            `json:"user_id"`
	Window calendar.Window `json:"window"`
	Amount decimal.Decimal `json:"amount"`
}

// Preview computes a member's charge for the window without writing.
func (g *Generator) Preview(ctx context.Context, userID uint, w calendar.Window) (Quote, error) {
	tx := g.db.WithContext(ctx)
	items, err := catalog.InWindow(tx, w, catalog.AnyKind)
	if err != nil {
		return Quote{}, err
	}
	marks, err := attendance.Marks(tx, userID, w)
	if err != nil {
		return Quote{}, err
	}
	return Quote{UserID: userID, Window: w, Amount: Charge(items, marks, g.rule)}, nil
}
