package mess

import (
	"context"
	"time"

	"github.com/gdg-garage/mess-billing/internal/billing"
	"github.com/gdg-garage/mess-billing/internal/calendar"
	"github.com/gdg-garage/mess-billing/internal/catalog"
	"github.com/gdg-garage/mess-billing/internal/failure"
	"github.com/gdg-garage/mess-billing/internal/models"
)

// Board is the admin's attendance sheet for one day.
type Board struct {
	Day        calendar.Day        `json:"day"`
	Source     calendar.Source     `json:"source"`
	Menu       []models.MenuItem   `json:"menu"`
	Members    []models.User       `json:"members"`
	Attendance []models.Attendance `json:"attendance"`
}

// TodayBoard loads the resolved day's menu, the members and what has been
// recorded so far.
func (s *Service) TodayBoard(ctx context.Context, h calendar.Hints) failure.Result[*Board] {
	res := s.resolver.Today(h)
	b := &Board{Day: res.Day, Source: res.Source}

	var err error
	if b.Menu, err = s.catalog.ForDay(ctx, res.Day, catalog.AnyKind); err != nil {
		return finish[*Board](s, "today_board", nil, err)
	}
	if b.Members, err = s.members.List(ctx); err != nil {
		return finish[*Board](s, "today_board", nil, err)
	}
	if b.Attendance, err = s.attendance.ForDay(ctx, res.Day); err != nil {
		return finish[*Board](s, "today_board", nil, err)
	}
	return failure.OK(b)
}

// Dashboard holds the admin landing page totals.
type Dashboard struct {
	Today           calendar.Day    `json:"today"`
	Members         int             `json:"members"`
	MenuToday       int             `json:"menu_today"`
	AttendanceToday int             `json:"attendance_today"`
	ThisMonth       billing.Summary `json:"this_month"`
	AllTime         billing.Summary `json:"all_time"`
}

func (s *Service) Dashboard(ctx context.Context, h calendar.Hints) failure.Result[*Dashboard] {
	board := s.TodayBoard(ctx, h)
	if !board.IsOK() {
		return failure.Fail[*Dashboard](board.Failure())
	}
	b := board.Value()

	attended := 0
	for _, a := range b.Attendance {
		if a.Attended {
			attended++
		}
	}

	month, err := s.bills.ForMonth(ctx, b.Day.Year(), b.Day.Month())
	if err != nil {
		return finish[*Dashboard](s, "dashboard", nil, err)
	}
	all, err := s.bills.All(ctx)
	if err != nil {
		return finish[*Dashboard](s, "dashboard", nil, err)
	}

	return failure.OK(&Dashboard{
		Today:           b.Day,
		Members:         len(b.Members),
		MenuToday:       len(b.Menu),
		AttendanceToday: attended,
		ThisMonth:       billing.Summarize(month),
		AllTime:         billing.Summarize(all),
	})
}

// MonthlyReport lists one month's bills with totals.
type MonthlyReport struct {
	Year    int             `json:"year"`
	Month   time.Month      `json:"month"`
	Bills   []models.Bill   `json:"bills"`
	Summary billing.Summary `json:"summary"`
}

// MonthlyReport builds the report for year and month. A zero year or month
// falls back to the resolved day's.
func (s *Service) MonthlyReport(ctx context.Context, year int, month time.Month, h calendar.Hints) failure.Result[*MonthlyReport] {
	if year == 0 || month == 0 {
		today := s.resolver.Today(h).Day
		if year == 0 {
			year = today.Year()
		}
		if month == 0 {
			month = today.Month()
		}
	}
	bills, err := s.bills.ForMonth(ctx, year, month)
	if err != nil {
		return finish[*MonthlyReport](s, "monthly_report", nil, err)
	}
	return failure.OK(&MonthlyReport{Year: year, Month: month, Bills: bills, Summary: billing.Summarize(bills)})
}

func (s *Service) Menu(ctx context.Context) failure.Result[[]models.MenuItem] {
	items, err := s.catalog.List(ctx)
	return finish(s, "menu", items, err)
}

// AddMenuItem creates an item; dates before the resolved day are rejected.
func (s *Service) AddMenuItem(ctx context.Context, d catalog.Draft, h calendar.Hints) failure.Result[*models.MenuItem] {
	item, err := s.catalog.Add(ctx, d, s.resolver.Today(h).Day)
	return finish(s, "add_menu_item", item, err)
}

func (s *Service) UpdateMenuItem(ctx context.Context, id uint, d catalog.Draft, h calendar.Hints) failure.Result[*models.MenuItem] {
	item, err := s.catalog.Update(ctx, id, d, s.resolver.Today(h).Day)
	return finish(s, "update_menu_item", item, err)
}

func (s *Service) DeleteMenuItem(ctx context.Context, id uint) failure.Result[uint] {
	err := s.catalog.Delete(ctx, id)
	return finish(s, "delete_menu_item", id, err)
}
