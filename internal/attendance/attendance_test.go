package attendance

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gdg-garage/mess-billing/internal/calendar"
	"github.com/gdg-garage/mess-billing/internal/failure"
	"github.com/gdg-garage/mess-billing/internal/models"
	"github.com/gdg-garage/mess-billing/internal/testutil"
)

func countAttendance(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Attendance{}).Count(&n).Error)
	return n
}

func lookup(t *testing.T, db *gorm.DB, userID, itemID uint) *models.Attendance {
	t.Helper()
	var recs []models.Attendance
	require.NoError(t, db.Where("user_id = ? AND menu_item_id = ?", userID, itemID).Find(&recs).Error)
	require.LessOrEqual(t, len(recs), 1, "at most one row per (user, item)")
	if len(recs) == 0 {
		return nil
	}
	return &recs[0]
}

func TestLedgerSetUpserts(t *testing.T) {
	db := testutil.OpenDB(t)
	l := NewLedger(db)
	ctx := context.Background()

	u := testutil.User(t, db, "Alice")
	lunch := testutil.Food(t, db, "Lunch", "2025-03-09", 50)

	rec, err := l.Set(ctx, u.ID, lunch.ID, true)
	require.NoError(t, err)
	assert.True(t, rec.Attended)

	rec2, err := l.Set(ctx, u.ID, lunch.ID, true)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, rec2.ID, "second call is a no-op")

	rec3, err := l.Set(ctx, u.ID, lunch.ID, false)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, rec3.ID)
	assert.False(t, rec3.Attended)

	assert.Equal(t, int64(1), countAttendance(t, db))
	assert.False(t, lookup(t, db, u.ID, lunch.ID).Attended)
}

func TestLedgerSetUnknownReferences(t *testing.T) {
	db := testutil.OpenDB(t)
	l := NewLedger(db)
	ctx := context.Background()

	u := testutil.User(t, db, "Alice")
	lunch := testutil.Food(t, db, "Lunch", "2025-03-09", 50)

	_, err := l.Set(ctx, 999, lunch.ID, true)
	assert.True(t, failure.Is(err, failure.KindNotFound))

	_, err = l.Set(ctx, u.ID, 999, true)
	assert.True(t, failure.Is(err, failure.KindNotFound))

	assert.Zero(t, countAttendance(t, db))
}

func TestLedgerSetStorageFailureSurfaces(t *testing.T) {
	db := testutil.OpenDB(t)
	l := NewLedger(db)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = l.Set(context.Background(), 1, 1, true)
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.KindStorage))
}

func TestLedgerProjections(t *testing.T) {
	db := testutil.OpenDB(t)
	l := NewLedger(db)
	ctx := context.Background()

	alice := testutil.User(t, db, "Alice")
	bob := testutil.User(t, db, "Bob")
	lunch := testutil.Food(t, db, "Lunch", "2025-03-09", 50)
	tea := testutil.Drink(t, db, "Tea", "2025-03-09", 10)
	dinner := testutil.Food(t, db, "Dinner", "2025-02-20", 70)

	testutil.Mark(t, db, alice.ID, lunch.ID, true)
	testutil.Mark(t, db, alice.ID, tea.ID, false)
	testutil.Mark(t, db, alice.ID, dinner.ID, true)
	testutil.Mark(t, db, bob.ID, tea.ID, true)

	day, err := l.ForDay(ctx, calendar.MustParseDay("2025-03-09"))
	require.NoError(t, err)
	assert.Len(t, day, 3)
	for _, r := range day {
		assert.NotZero(t, r.MenuItem.ID, "menu item is joined")
	}

	mine, err := l.ForUser(ctx, alice.ID, true)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "Lunch", mine[0].MenuItem.Name, "newest first")

	march := calendar.MonthWindow(calendar.MustParseDay("2025-03-01"))
	inMarch, err := l.ForWindow(ctx, alice.ID, march, false)
	require.NoError(t, err)
	assert.Len(t, inMarch, 2)

	marks, err := Marks(db, alice.ID, march)
	require.NoError(t, err)
	assert.Equal(t, map[uint]bool{lunch.ID: true, tea.ID: false}, marks)

	recs, stats, err := l.History(ctx, alice.ID, calendar.MustParseDay("2025-03-15"))
	require.NoError(t, err)
	assert.Len(t, recs, 2)
	assert.Equal(t, Stats{Total: 2, Food: 2, Drink: 0, ThisMonth: 1}, stats)
}

func TestAutoMarkCreatesRowsForEveryUser(t *testing.T) {
	db := testutil.OpenDB(t)
	m := NewAutoMarker(db)
	ctx := context.Background()

	tea := testutil.Drink(t, db, "Tea", "2025-03-09", 10)
	users := []models.User{
		testutil.User(t, db, "Alice"),
		testutil.User(t, db, "Bob"),
		testutil.User(t, db, "Carol"),
	}

	day := calendar.MustParseDay("2025-03-09")
	report, err := m.Sweep(ctx, day, day)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Marked)
	assert.False(t, report.UsedFallback)
	assert.Empty(t, report.Failures)

	for _, u := range users {
		rec := lookup(t, db, u.ID, tea.ID)
		require.NotNil(t, rec)
		assert.True(t, rec.Attended)
	}
}

func TestAutoMarkIsolatesFailingMember(t *testing.T) {
	db := testutil.OpenDB(t)
	m := NewAutoMarker(db)

	alice := testutil.User(t, db, "Alice")
	bob := testutil.User(t, db, "Bob")
	carol := testutil.User(t, db, "Carol")
	coffee := testutil.Drink(t, db, "Coffee", "2025-03-09", 15)
	tea := testutil.Drink(t, db, "Tea", "2025-03-09", 10)

	// Coffee sorts first, so Bob's coffee row is written before his tea
	// fails and must be rolled back with it.
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_bob_tea", func(tx *gorm.DB) {
		if a, ok := tx.Statement.Dest.(*models.Attendance); ok && a.UserID == bob.ID && a.MenuItemID == tea.ID {
			tx.AddError(errors.New("disk full"))
		}
	}))

	day := calendar.MustParseDay("2025-03-09")
	report, err := m.Sweep(context.Background(), day, day)
	require.NoError(t, err, "one member failing does not fail the sweep")
	assert.Equal(t, 4, report.Marked)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, bob.ID, report.Failures[0].UserID)
	assert.Equal(t, "Bob", report.Failures[0].Name)

	assert.Nil(t, lookup(t, db, bob.ID, coffee.ID))
	assert.Nil(t, lookup(t, db, bob.ID, tea.ID))
	for _, u := range []models.User{alice, carol} {
		for _, item := range []models.MenuItem{coffee, tea} {
			rec := lookup(t, db, u.ID, item.ID)
			require.NotNil(t, rec, "%s / %s", u.FullName, item.Name)
			assert.True(t, rec.Attended)
		}
	}
}

func TestAutoMarkIsMonotonicAndIdempotent(t *testing.T) {
	db := testutil.OpenDB(t)
	m := NewAutoMarker(db)
	ctx := context.Background()

	alice := testutil.User(t, db, "Alice")
	bob := testutil.User(t, db, "Bob")
	carol := testutil.User(t, db, "Carol")
	tea := testutil.Drink(t, db, "Tea", "2025-03-09", 10)
	lunch := testutil.Food(t, db, "Lunch", "2025-03-09", 50)

	testutil.Mark(t, db, alice.ID, tea.ID, true)
	testutil.Mark(t, db, bob.ID, tea.ID, false)
	testutil.Mark(t, db, carol.ID, lunch.ID, false)

	day := calendar.MustParseDay("2025-03-09")
	report, err := m.Sweep(ctx, day, day)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Marked, "bob flipped, carol created, alice untouched")

	assert.True(t, lookup(t, db, alice.ID, tea.ID).Attended)
	assert.True(t, lookup(t, db, bob.ID, tea.ID).Attended)
	assert.True(t, lookup(t, db, carol.ID, tea.ID).Attended)

	assert.False(t, lookup(t, db, carol.ID, lunch.ID).Attended, "food untouched")
	assert.Nil(t, lookup(t, db, alice.ID, lunch.ID), "no food rows created")
	assert.Nil(t, lookup(t, db, bob.ID, lunch.ID))

	again, err := m.Sweep(ctx, day, day)
	require.NoError(t, err)
	assert.Zero(t, again.Marked)
}

func TestAutoMarkUTCFallback(t *testing.T) {
	db := testutil.OpenDB(t)
	m := NewAutoMarker(db)
	ctx := context.Background()

	u := testutil.User(t, db, "Alice")
	tea := testutil.Drink(t, db, "Tea", "2025-03-09", 10)

	report, err := m.Sweep(ctx, calendar.MustParseDay("2025-03-10"), calendar.MustParseDay("2025-03-09"))
	require.NoError(t, err)
	assert.True(t, report.UsedFallback)
	assert.Equal(t, FallbackWarning, report.Warning)
	assert.Equal(t, "2025-03-09", report.Day.String())
	assert.Equal(t, 1, report.Marked)
	assert.True(t, lookup(t, db, u.ID, tea.ID).Attended)
}

func TestAutoMarkNoDrinksIsNoop(t *testing.T) {
	db := testutil.OpenDB(t)
	m := NewAutoMarker(db)

	testutil.User(t, db, "Alice")
	testutil.Food(t, db, "Lunch", "2025-03-09", 50)

	day := calendar.MustParseDay("2025-03-09")
	report, err := m.Sweep(context.Background(), day, day.AddDays(1))
	require.NoError(t, err)
	assert.Zero(t, report.Marked)
	assert.Zero(t, report.Drinks)
	assert.False(t, report.UsedFallback)
	assert.Zero(t, countAttendance(t, db))
}
