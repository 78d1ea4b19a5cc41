package billing

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gdg-garage/mess-billing/internal/attendance"
	"github.com/gdg-garage/mess-billing/internal/calendar"
	"github.com/gdg-garage/mess-billing/internal/catalog"
	"github.com/gdg-garage/mess-billing/internal/failure"
	"github.com/gdg-garage/mess-billing/internal/models"
)

// Outcome is what an upsert did to the ledger.
type Outcome int

const (
	Skipped Outcome = iota
	Created
	Updated
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Updated:
		return "updated"
	default:
		return "skipped"
	}
}

// Status filters bills by payment state.
type Status string

const (
	StatusAll    Status = "all"
	StatusPaid   Status = "paid"
	StatusUnpaid Status = "unpaid"
)

// ParseStatus maps user input to a Status; unknown values mean all.
func ParseStatus(s string) Status {
	switch Status(s) {
	case StatusPaid, StatusUnpaid:
		return Status(s)
	}
	return StatusAll
}

// Ledger is the persisted set of monthly bills. It keeps at most one bill
// per member and month; nothing in the schema enforces that.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Upsert writes amount as userID's bill for the month of anchor, inside tx.
// With no bill for that month a new unpaid bill is created, unless amount is
// zero. An existing bill gets its amount overwritten, even to zero; Paid is
// never touched.
func Upsert(tx *gorm.DB, userID uint, anchor calendar.Day, amount decimal.Decimal) (Outcome, *models.Bill, error) {
	month := calendar.MonthWindow(anchor)

	var bill models.Bill
	err := tx.Where("user_id = ? AND period_anchor >= ? AND period_anchor < ?",
		userID, month.From.Time(), month.End().Time()).
		Order("id").
		First(&bill).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if !amount.IsPositive() {
			return Skipped, nil, nil
		}
		bill = models.Bill{
			UserID:       userID,
			Amount:       amount,
			PeriodAnchor: month.From.Time(),
			Paid:         false,
		}
		if err := tx.Create(&bill).Error; err != nil {
			return Skipped, nil, failure.Storage(err, "failed to create bill for user %d", userID)
		}
		return Created, &bill, nil
	case err != nil:
		return Skipped, nil, failure.Storage(err, "failed to look up bill for user %d", userID)
	}

	bill.Amount = amount
	if err := tx.Model(&bill).Update("amount", amount).Error; err != nil {
		return Skipped, nil, failure.Storage(err, "failed to update bill %d", bill.ID)
	}
	return Updated, &bill, nil
}

// Upsert runs the compare-and-upsert in its own transaction.
func (l *Ledger) Upsert(ctx context.Context, userID uint, anchor calendar.Day, amount decimal.Decimal) (Outcome, *models.Bill, error) {
	var (
		outcome Outcome
		bill    *models.Bill
	)
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		outcome, bill, err = Upsert(tx, userID, anchor, amount)
		return err
	})
	return outcome, bill, err
}

func (l *Ledger) Get(ctx context.Context, id uint) (*models.Bill, error) {
	var bill models.Bill
	err := l.db.WithContext(ctx).Preload("User").First(&bill, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, failure.NotFound("bill %d not found", id)
	}
	if err != nil {
		return nil, failure.Storage(err, "failed to load bill %d", id)
	}
	return &bill, nil
}

// ForUser lists a member's bills, newest month first.
func (l *Ledger) ForUser(ctx context.Context, userID uint, status Status) ([]models.Bill, error) {
	q := l.db.WithContext(ctx).Preload("User").Where("user_id = ?", userID)
	switch status {
	case StatusPaid:
		q = q.Where("paid = ?", true)
	case StatusUnpaid:
		q = q.Where("paid = ?", false)
	}
	var bills []models.Bill
	if err := q.Order("period_anchor DESC, id DESC").Find(&bills).Error; err != nil {
		return nil, failure.Storage(err, "failed to list bills for user %d", userID)
	}
	return bills, nil
}

// All lists every bill, newest month first, then by member name.
func (l *Ledger) All(ctx context.Context) ([]models.Bill, error) {
	var bills []models.Bill
	err := l.db.WithContext(ctx).
		Joins("User").
		Order("bills.period_anchor DESC, User.full_name, bills.id").
		Find(&bills).Error
	if err != nil {
		return nil, failure.Storage(err, "failed to list bills")
	}
	return bills, nil
}

// ForMonth lists the bills anchored in the given month, by member name.
func (l *Ledger) ForMonth(ctx context.Context, year int, month time.Month) ([]models.Bill, error) {
	if month < time.January || month > time.December {
		return nil, failure.Validation("month must be between 1 and 12, got %d", month)
	}
	w := calendar.MonthWindow(calendar.Date(year, month, 1))
	var bills []models.Bill
	err := l.db.WithContext(ctx).
		Joins("User").
		Where("bills.period_anchor >= ? AND bills.period_anchor < ?", w.From.Time(), w.End().Time()).
		Order("User.full_name, bills.id").
		Find(&bills).Error
	if err != nil {
		return nil, failure.Storage(err, "failed to list bills for %d-%02d", year, month)
	}
	return bills, nil
}

// SetPaid flips a bill's payment state.
func (l *Ledger) SetPaid(ctx context.Context, id uint, paid bool) (*models.Bill, error) {
	var bill models.Bill
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("User").First(&bill, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return failure.NotFound("bill %d not found", id)
			}
			return failure.Storage(err, "failed to load bill %d", id)
		}
		bill.Paid = paid
		if err := tx.Model(&bill).Update("paid", paid).Error; err != nil {
			return failure.Storage(err, "failed to update bill %d", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &bill, nil
}

// Delete removes a bill. Unlike menu items, bills carry no references that
// block deletion.
func (l *Ledger) Delete(ctx context.Context, id uint) error {
	res := l.db.WithContext(ctx).Delete(&models.Bill{}, id)
	if res.Error != nil {
		return failure.Storage(res.Error, "failed to delete bill %d", id)
	}
	if res.RowsAffected == 0 {
		return failure.NotFound("bill %d not found", id)
	}
	return nil
}

// Summary totals a set of bills.
type Summary struct {
	Count        int             `json:"count"`
	PaidCount    int             `json:"paid_count"`
	UnpaidCount  int             `json:"unpaid_count"`
	Total        decimal.Decimal `json:"total"`
	PaidAmount   decimal.Decimal `json:"paid_amount"`
	UnpaidAmount decimal.Decimal `json:"unpaid_amount"`
}

func Summarize(bills []models.Bill) Summary {
	s := Summary{Total: decimal.Zero, PaidAmount: decimal.Zero, UnpaidAmount: decimal.Zero}
	for _, b := range bills {
		s.Count++
		s.Total = s.Total.Add(b.Amount)
		if b.Paid {
			s.PaidCount++
			s.PaidAmount = s.PaidAmount.Add(b.Amount)
		} else {
			s.UnpaidCount++
			s.UnpaidAmount = s.UnpaidAmount.Add(b.Amount)
		}
	}
	return s
}

// Breakdown is the itemised view of one bill. Items, FoodTotal and
// DrinkTotal cover attended items only. Drinks the member has no attended
// mark for are charged under every drink rule, so they are totalled
// separately; they span the whole month, including days a current-period
// bill has not reached yet.
type Breakdown struct {
	Bill               models.Bill         `json:"bill"`
	Items              []models.Attendance `json:"items"`
	FoodTotal          decimal.Decimal     `json:"food_total"`
	DrinkTotal         decimal.Decimal     `json:"drink_total"`
	FoodCount          int                 `json:"food_count"`
	DrinkCount         int                 `json:"drink_count"`
	UnmarkedDrinkTotal decimal.Decimal     `json:"unmarked_drink_total"`
	UnmarkedDrinkCount int                 `json:"unmarked_drink_count"`
}

// Breakdown lists the attended items in a bill's month plus the unmarked
// drinks. userID restricts access to the bill's owner; zero skips the check.
func (l *Ledger) Breakdown(ctx context.Context, billID, userID uint) (*Breakdown, error) {
	bill, err := l.Get(ctx, billID)
	if err != nil {
		return nil, err
	}
	if userID != 0 && bill.UserID != userID {
		return nil, failure.NotFound("bill %d not found", billID)
	}
	month := calendar.MonthWindow(calendar.DayOf(bill.PeriodAnchor.UTC()))
	db := l.db.WithContext(ctx)
	recs, err := attendance.ForWindow(db, bill.UserID, month, true)
	if err != nil {
		return nil, err
	}
	drinks, err := catalog.InWindow(db, month, catalog.DrinksOnly)
	if err != nil {
		return nil, err
	}
	marks, err := attendance.Marks(db, bill.UserID, month)
	if err != nil {
		return nil, err
	}

	b := &Breakdown{
		Bill:               *bill,
		Items:              recs,
		FoodTotal:          decimal.Zero,
		DrinkTotal:         decimal.Zero,
		UnmarkedDrinkTotal: decimal.Zero,
	}
	for _, d := range drinks {
		if !marks[d.ID] {
			b.UnmarkedDrinkCount++
			b.UnmarkedDrinkTotal = b.UnmarkedDrinkTotal.Add(d.Price)
		}
	}
	for _, r := range recs {
		if r.MenuItem.IsFood {
			b.FoodCount++
			b.FoodTotal = b.FoodTotal.Add(r.MenuItem.Price)
		} else {
			b.DrinkCount++
			b.DrinkTotal = b.DrinkTotal.Add(r.MenuItem.Price)
		}
	}
	return b, nil
}
