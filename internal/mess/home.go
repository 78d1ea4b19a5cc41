package mess

import (
	"context"

	"github.com/gdg-garage/mess-billing/internal/billing"
	"github.com/gdg-garage/mess-billing/internal/calendar"
	"github.com/gdg-garage/mess-billing/internal/catalog"
	"github.com/gdg-garage/mess-billing/internal/failure"
	"github.com/gdg-garage/mess-billing/internal/models"
)

const recentBills = 5

// Home is a member's landing page: the resolved day's menu with what they
// were marked as having, and their bill totals.
type Home struct {
	Day           calendar.Day      `json:"day"`
	Source        calendar.Source   `json:"source"`
	Member        *models.User      `json:"member"`
	Menu          []models.MenuItem `json:"menu"`
	AttendedIDs   []uint            `json:"attended_ids"`
	CurrentMonth  billing.Summary   `json:"current_month"`
	PreviousMonth billing.Summary   `json:"previous_month"`
	AllTime       billing.Summary   `json:"all_time"`
	RecentBills   []models.Bill     `json:"recent_bills"`
}

func (s *Service) MemberHome(ctx context.Context, userID uint, h calendar.Hints) failure.Result[*Home] {
	res := s.resolver.Today(h)
	home := &Home{Day: res.Day, Source: res.Source, AttendedIDs: []uint{}}

	var err error
	if home.Member, err = s.members.Get(ctx, userID); err != nil {
		return finish[*Home](s, "member_home", nil, err)
	}
	if home.Menu, err = s.catalog.ForDay(ctx, res.Day, catalog.AnyKind); err != nil {
		return finish[*Home](s, "member_home", nil, err)
	}
	day, err := s.attendance.ForDay(ctx, res.Day)
	if err != nil {
		return finish[*Home](s, "member_home", nil, err)
	}
	for _, a := range day {
		if a.UserID == userID && a.Attended {
			home.AttendedIDs = append(home.AttendedIDs, a.MenuItemID)
		}
	}

	bills, err := s.bills.ForUser(ctx, userID, billing.StatusAll)
	if err != nil {
		return finish[*Home](s, "member_home", nil, err)
	}
	current := res.Day.FirstOfMonth()
	previous := current.AddMonths(-1)
	var thisMonth, lastMonth []models.Bill
	for _, b := range bills {
		anchor := calendar.DayOf(b.PeriodAnchor.UTC())
		switch {
		case anchor.SameMonth(current):
			thisMonth = append(thisMonth, b)
		case anchor.SameMonth(previous):
			lastMonth = append(lastMonth, b)
		}
	}
	home.CurrentMonth = billing.Summarize(thisMonth)
	home.PreviousMonth = billing.Summarize(lastMonth)
	home.AllTime = billing.Summarize(bills)
	home.RecentBills = bills[:min(len(bills), recentBills)]

	return failure.OK(home)
}
