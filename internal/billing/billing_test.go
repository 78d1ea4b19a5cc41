package billing

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gdg-garage/mess-billing/internal/calendar"
	"github.com/gdg-garage/mess-billing/internal/failure"
	"github.com/gdg-garage/mess-billing/internal/models"
	"github.com/gdg-garage/mess-billing/internal/testutil"
)

func billsFor(t *testing.T, db *gorm.DB, userID uint) []models.Bill {
	t.Helper()
	var bills []models.Bill
	require.NoError(t, db.Where("user_id = ?", userID).Order("id").Find(&bills).Error)
	return bills
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestGenerateCreatesUnpaidBill(t *testing.T) {
	db := testutil.OpenDB(t)
	g := NewGenerator(db, DrinkRuleAlways)
	ctx := context.Background()

	u := testutil.User(t, db, "Alice")
	lunch := testutil.Food(t, db, "Lunch", "2025-03-03", 50)
	testutil.Drink(t, db, "Tea", "2025-03-05", 10)
	testutil.Mark(t, db, u.ID, lunch.ID, true)

	report, err := g.Generate(ctx, calendar.PeriodCurrent, calendar.MustParseDay("2025-03-10"))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)
	assert.Zero(t, report.Updated)
	assert.Empty(t, report.Failures)
	assert.Equal(t, "2025-03-01..2025-03-10", report.Window.String())

	bills := billsFor(t, db, u.ID)
	require.Len(t, bills, 1)
	assert.True(t, bills[0].Amount.Equal(dec(60)), "got %s", bills[0].Amount)
	assert.False(t, bills[0].Paid)
	assert.Equal(t, "2025-03-01", calendar.DayOf(bills[0].PeriodAnchor).String())
}

func TestGenerateRerunUpdatesInPlace(t *testing.T) {
	tests := []struct {
		rule DrinkRule
		want int64
	}{
		{DrinkRuleUnmarked, 50},
		{DrinkRuleAlways, 60},
	}
	for _, tt := range tests {
		t.Run(string(tt.rule), func(t *testing.T) {
			db := testutil.OpenDB(t)
			g := NewGenerator(db, tt.rule)
			ctx := context.Background()
			today := calendar.MustParseDay("2025-03-10")

			u := testutil.User(t, db, "Alice")
			lunch := testutil.Food(t, db, "Lunch", "2025-03-03", 50)
			tea := testutil.Drink(t, db, "Tea", "2025-03-05", 10)
			testutil.Mark(t, db, u.ID, lunch.ID, true)

			first, err := g.Generate(ctx, calendar.PeriodCurrent, today)
			require.NoError(t, err)
			require.Equal(t, 1, first.Created)

			bill := billsFor(t, db, u.ID)[0]
			require.NoError(t, db.Model(&bill).Update("paid", true).Error)
			testutil.Mark(t, db, u.ID, tea.ID, true)

			second, err := g.Generate(ctx, calendar.PeriodCurrent, today)
			require.NoError(t, err)
			assert.Zero(t, second.Created)
			assert.Equal(t, 1, second.Updated)

			bills := billsFor(t, db, u.ID)
			require.Len(t, bills, 1)
			assert.Equal(t, bill.ID, bills[0].ID)
			assert.True(t, bills[0].Amount.Equal(dec(tt.want)), "got %s", bills[0].Amount)
			assert.True(t, bills[0].Paid, "paid is never touched by generation")
		})
	}
}

func TestGenerateSkipsZeroChargeButOverwritesExisting(t *testing.T) {
	db := testutil.OpenDB(t)
	g := NewGenerator(db, DrinkRuleAlways)
	ctx := context.Background()
	today := calendar.MustParseDay("2025-03-10")

	alice := testutil.User(t, db, "Alice")
	bob := testutil.User(t, db, "Bob")
	lunch := testutil.Food(t, db, "Lunch", "2025-03-03", 50)
	mark := testutil.Mark(t, db, alice.ID, lunch.ID, true)

	report, err := g.Generate(ctx, calendar.PeriodCurrent, today)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 1, report.Skipped)
	assert.Empty(t, billsFor(t, db, bob.ID), "no zero-amount bill")

	require.NoError(t, db.Model(&mark).Update("attended", false).Error)
	report, err = g.Generate(ctx, calendar.PeriodCurrent, today)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Updated)

	bills := billsFor(t, db, alice.ID)
	require.Len(t, bills, 1)
	assert.True(t, bills[0].Amount.IsZero())
}

func TestGenerateIsolatesFailingMember(t *testing.T) {
	db := testutil.OpenDB(t)
	g := NewGenerator(db, DrinkRuleAlways)

	alice := testutil.User(t, db, "Alice")
	bob := testutil.User(t, db, "Bob")
	carol := testutil.User(t, db, "Carol")
	lunch := testutil.Food(t, db, "Lunch", "2025-03-03", 50)
	testutil.Drink(t, db, "Tea", "2025-03-05", 10)
	testutil.Mark(t, db, alice.ID, lunch.ID, true)
	testutil.Mark(t, db, bob.ID, lunch.ID, true)

	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_bob_bill", func(tx *gorm.DB) {
		if b, ok := tx.Statement.Dest.(*models.Bill); ok && b.UserID == bob.ID {
			tx.AddError(errors.New("disk full"))
		}
	}))

	report, err := g.Generate(context.Background(), calendar.PeriodCurrent, calendar.MustParseDay("2025-03-10"))
	require.NoError(t, err, "one member failing does not fail the run")
	assert.Equal(t, 2, report.Created)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, bob.ID, report.Failures[0].UserID)
	assert.Equal(t, "Bob", report.Failures[0].Name)
	assert.Equal(t, fmt.Sprintf("failed to create bill for user %d", bob.ID), report.Failures[0].Message)

	assert.Empty(t, billsFor(t, db, bob.ID))
	aliceBills := billsFor(t, db, alice.ID)
	require.Len(t, aliceBills, 1)
	assert.True(t, aliceBills[0].Amount.Equal(dec(60)), "got %s", aliceBills[0].Amount)
	carolBills := billsFor(t, db, carol.ID)
	require.Len(t, carolBills, 1)
	assert.True(t, carolBills[0].Amount.Equal(dec(10)), "got %s", carolBills[0].Amount)
}

func TestGenerateIsDeterministic(t *testing.T) {
	db := testutil.OpenDB(t)
	g := NewGenerator(db, DrinkRuleAlways)
	ctx := context.Background()
	today := calendar.MustParseDay("2025-03-31")

	u := testutil.User(t, db, "Alice")
	lunch := testutil.Food(t, db, "Lunch", "2025-03-03", 50)
	testutil.Drink(t, db, "Tea", "2025-03-05", 10)
	testutil.Mark(t, db, u.ID, lunch.ID, true)

	var amounts []string
	for range 3 {
		_, err := g.Generate(ctx, calendar.PeriodCurrent, today)
		require.NoError(t, err)
		bills := billsFor(t, db, u.ID)
		require.Len(t, bills, 1, "one bill per user and month")
		amounts = append(amounts, bills[0].Amount.String())
	}
	assert.Equal(t, []string{"60", "60", "60"}, amounts)
}

func TestGeneratePreviousPeriod(t *testing.T) {
	db := testutil.OpenDB(t)
	g := NewGenerator(db, DrinkRuleAlways)
	ctx := context.Background()

	u := testutil.User(t, db, "Alice")
	jan := testutil.Food(t, db, "Dinner", "2025-01-31", 70)
	feb := testutil.Food(t, db, "Lunch", "2025-02-14", 50)
	testutil.Mark(t, db, u.ID, jan.ID, true)
	testutil.Mark(t, db, u.ID, feb.ID, true)

	report, err := g.Generate(ctx, calendar.PeriodPrevious, calendar.MustParseDay("2025-02-20"))
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01..2025-01-31", report.Window.String())

	bills := billsFor(t, db, u.ID)
	require.Len(t, bills, 1)
	assert.True(t, bills[0].Amount.Equal(dec(70)))
	assert.Equal(t, "2025-01-01", calendar.DayOf(bills[0].PeriodAnchor).String())
}

func TestGenerateCurrentExcludesLaterDays(t *testing.T) {
	db := testutil.OpenDB(t)
	g := NewGenerator(db, DrinkRuleAlways)

	u := testutil.User(t, db, "Alice")
	testutil.Drink(t, db, "Tea", "2025-03-05", 10)
	testutil.Drink(t, db, "Coffee", "2025-03-20", 15)

	_, err := g.Generate(context.Background(), calendar.PeriodCurrent, calendar.MustParseDay("2025-03-10"))
	require.NoError(t, err)
	bills := billsFor(t, db, u.ID)
	require.Len(t, bills, 1)
	assert.True(t, bills[0].Amount.Equal(dec(10)))
}

func TestGenerateStorageFailure(t *testing.T) {
	db := testutil.OpenDB(t)
	g := NewGenerator(db, DrinkRuleAlways)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = g.Generate(context.Background(), calendar.PeriodCurrent, calendar.MustParseDay("2025-03-10"))
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.KindStorage))
}

func TestPreview(t *testing.T) {
	db := testutil.OpenDB(t)
	g := NewGenerator(db, DrinkRuleUnmarked)

	u := testutil.User(t, db, "Alice")
	tea := testutil.Drink(t, db, "Tea", "2025-03-05", 10)
	testutil.Drink(t, db, "Coffee", "2025-03-06", 15)
	testutil.Mark(t, db, u.ID, tea.ID, true)

	q, err := g.Preview(context.Background(), u.ID, calendar.MonthWindow(calendar.MustParseDay("2025-03-01")))
	require.NoError(t, err)
	assert.True(t, q.Amount.Equal(dec(15)))
	assert.Empty(t, billsFor(t, db, u.ID))
}

func TestLedgerUpsertWithinMonth(t *testing.T) {
	db := testutil.OpenDB(t)
	l := NewLedger(db)
	ctx := context.Background()
	u := testutil.User(t, db, "Alice")

	outcome, bill, err := l.Upsert(ctx, u.ID, calendar.MustParseDay("2025-03-17"), dec(40))
	require.NoError(t, err)
	assert.Equal(t, Created, outcome)
	assert.Equal(t, "2025-03-01", calendar.DayOf(bill.PeriodAnchor).String())

	outcome, again, err := l.Upsert(ctx, u.ID, calendar.MustParseDay("2025-03-01"), dec(45))
	require.NoError(t, err)
	assert.Equal(t, Updated, outcome)
	assert.Equal(t, bill.ID, again.ID)

	outcome, _, err = l.Upsert(ctx, u.ID, calendar.MustParseDay("2025-04-01"), decimal.Zero)
	require.NoError(t, err)
	assert.Equal(t, Skipped, outcome)
	assert.Len(t, billsFor(t, db, u.ID), 1)
}

func TestLedgerQueries(t *testing.T) {
	db := testutil.OpenDB(t)
	l := NewLedger(db)
	ctx := context.Background()

	alice := testutil.User(t, db, "Alice")
	bob := testutil.User(t, db, "Bob")
	_, feb, err := l.Upsert(ctx, alice.ID, calendar.MustParseDay("2025-02-01"), dec(30))
	require.NoError(t, err)
	_, _, err = l.Upsert(ctx, alice.ID, calendar.MustParseDay("2025-03-01"), dec(60))
	require.NoError(t, err)
	_, _, err = l.Upsert(ctx, bob.ID, calendar.MustParseDay("2025-03-01"), dec(25))
	require.NoError(t, err)

	paid, err := l.SetPaid(ctx, feb.ID, true)
	require.NoError(t, err)
	assert.True(t, paid.Paid)

	mine, err := l.ForUser(ctx, alice.ID, StatusAll)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "2025-03-01", calendar.DayOf(mine[0].PeriodAnchor).String(), "newest first")

	unpaid, err := l.ForUser(ctx, alice.ID, StatusUnpaid)
	require.NoError(t, err)
	require.Len(t, unpaid, 1)
	assert.True(t, unpaid[0].Amount.Equal(dec(60)))

	all, err := l.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Alice", all[0].User.FullName)
	assert.Equal(t, "Bob", all[1].User.FullName)

	march, err := l.ForMonth(ctx, 2025, time.March)
	require.NoError(t, err)
	assert.Len(t, march, 2)

	_, err = l.ForMonth(ctx, 2025, 13)
	assert.True(t, failure.Is(err, failure.KindValidation))

	s := Summarize(all)
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 1, s.PaidCount)
	assert.True(t, s.Total.Equal(dec(115)))
	assert.True(t, s.UnpaidAmount.Equal(dec(85)))
}

func TestLedgerMissingBills(t *testing.T) {
	db := testutil.OpenDB(t)
	l := NewLedger(db)
	ctx := context.Background()

	_, err := l.SetPaid(ctx, 42, true)
	assert.True(t, failure.Is(err, failure.KindNotFound))

	err = l.Delete(ctx, 42)
	assert.True(t, failure.Is(err, failure.KindNotFound))

	_, err = l.Get(ctx, 42)
	assert.True(t, failure.Is(err, failure.KindNotFound))
}

func TestLedgerDelete(t *testing.T) {
	db := testutil.OpenDB(t)
	l := NewLedger(db)
	ctx := context.Background()
	u := testutil.User(t, db, "Alice")

	_, bill, err := l.Upsert(ctx, u.ID, calendar.MustParseDay("2025-03-01"), dec(10))
	require.NoError(t, err)
	require.NoError(t, l.Delete(ctx, bill.ID))
	assert.Empty(t, billsFor(t, db, u.ID))

	outcome, _, err := l.Upsert(ctx, u.ID, calendar.MustParseDay("2025-03-01"), dec(10))
	require.NoError(t, err)
	assert.Equal(t, Created, outcome, "deleted bills are not revived")
}

func TestBreakdown(t *testing.T) {
	db := testutil.OpenDB(t)
	l := NewLedger(db)
	ctx := context.Background()

	alice := testutil.User(t, db, "Alice")
	bob := testutil.User(t, db, "Bob")
	lunch := testutil.Food(t, db, "Lunch", "2025-03-03", 50)
	tea := testutil.Drink(t, db, "Tea", "2025-03-05", 10)
	coffee := testutil.Drink(t, db, "Coffee", "2025-03-06", 15)
	testutil.Mark(t, db, alice.ID, lunch.ID, true)
	testutil.Mark(t, db, alice.ID, tea.ID, true)
	testutil.Mark(t, db, alice.ID, coffee.ID, false)

	_, bill, err := l.Upsert(ctx, alice.ID, calendar.MustParseDay("2025-03-01"), dec(75))
	require.NoError(t, err)

	b, err := l.Breakdown(ctx, bill.ID, alice.ID)
	require.NoError(t, err)
	assert.Len(t, b.Items, 2)
	assert.Equal(t, 1, b.FoodCount)
	assert.Equal(t, 1, b.DrinkCount)
	assert.True(t, b.FoodTotal.Equal(dec(50)))
	assert.True(t, b.DrinkTotal.Equal(dec(10)))
	assert.Equal(t, 1, b.UnmarkedDrinkCount, "coffee was declined, so it is charged without an attended mark")
	assert.True(t, b.UnmarkedDrinkTotal.Equal(dec(15)))
	assert.True(t, b.FoodTotal.Add(b.DrinkTotal).Add(b.UnmarkedDrinkTotal).Equal(bill.Amount),
		"itemised totals add up to the bill")

	_, err = l.Breakdown(ctx, bill.ID, bob.ID)
	assert.True(t, failure.Is(err, failure.KindNotFound), "other members cannot see the bill")

	_, err = l.Breakdown(ctx, bill.ID, 0)
	assert.NoError(t, err)
}
