// Package mess is the engine facade: it resolves the request day once and
// runs the attendance and billing operations, returning tagged results.
package mess

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gdg-garage/mess-billing/internal/attendance"
	"github.com/gdg-garage/mess-billing/internal/billing"
	"github.com/gdg-garage/mess-billing/internal/calendar"
	"github.com/gdg-garage/mess-billing/internal/catalog"
	"github.com/gdg-garage/mess-billing/internal/failure"
	"github.com/gdg-garage/mess-billing/internal/members"
	"github.com/gdg-garage/mess-billing/internal/metrics"
	"github.com/gdg-garage/mess-billing/internal/models"
	"github.com/gdg-garage/mess-billing/internal/notifier"
)

// Options configures a Service. Zero values are usable: server-local
// resolver, the always drink rule, no notifier and no metrics.
type Options struct {
	Resolver  *calendar.Resolver
	DrinkRule billing.DrinkRule
	Notifier  notifier.Notifier
	Metrics   *metrics.Recorder
}

type Service struct {
	resolver   *calendar.Resolver
	attendance *attendance.Ledger
	marker     *attendance.AutoMarker
	generator  *billing.Generator
	bills      *billing.Ledger
	catalog    *catalog.Catalog
	members    *members.Directory
	notifier   notifier.Notifier
	metrics    *metrics.Recorder
}

func New(db *gorm.DB, opts Options) *Service {
	resolver := opts.Resolver
	if resolver == nil {
		resolver = calendar.NewResolver(nil)
	}
	return &Service{
		resolver:   resolver,
		attendance: attendance.NewLedger(db),
		marker:     attendance.NewAutoMarker(db),
		generator:  billing.NewGenerator(db, opts.DrinkRule),
		bills:      billing.NewLedger(db),
		catalog:    catalog.New(db),
		members:    members.New(db),
		notifier:   opts.Notifier,
		metrics:    opts.Metrics,
	}
}

// Resolve exposes the day resolution used by every operation.
func (s *Service) Resolve(h calendar.Hints) calendar.Resolution {
	return s.resolver.Today(h)
}

// finish turns a (value, error) pair into a Result, counting and logging
// failures on the way.
func finish[T any](s *Service, op string, v T, err error) failure.Result[T] {
	r := failure.From(v, err)
	if f := r.Failure(); f != nil {
		s.metrics.Failure(op, f.Kind.String())
		if f.Kind == failure.KindStorage {
			slog.Error("Operation failed", "operation", op, "error", err)
		} else {
			slog.Debug("Operation rejected", "operation", op, "kind", f.Kind.String(), "message", f.Message)
		}
	}
	return r
}

// MarkAttendance records whether a member consumed a menu item. It does not
// touch bills; they change on the next generation run.
func (s *Service) MarkAttendance(ctx context.Context, userID, menuItemID uint, attended bool) failure.Result[*models.Attendance] {
	rec, err := s.attendance.Set(ctx, userID, menuItemID, attended)
	if err == nil {
		s.metrics.Mark(attended)
	}
	return finish(s, "mark_attendance", rec, err)
}

// AutoMarkResult is the outcome of a drink auto-mark call.
type AutoMarkResult struct {
	OperationID  string                   `json:"operation_id"`
	MarkedCount  int                      `json:"marked_count"`
	UsedFallback bool                     `json:"used_fallback"`
	Day          calendar.Day             `json:"day"`
	Source       calendar.Source          `json:"source"`
	Warning      string                   `json:"warning,omitempty"`
	Drinks       int                      `json:"drinks"`
	Failures     []attendance.UserFailure `json:"failures,omitempty"`
}

// AutoMarkDrinks opts every member into the resolved day's drinks, falling
// back to the UTC day when the resolved day has none.
func (s *Service) AutoMarkDrinks(ctx context.Context, h calendar.Hints) failure.Result[*AutoMarkResult] {
	opID := uuid.NewString()
	res := s.resolver.Today(h)
	utc := s.resolver.UTCToday()

	report, err := s.marker.Sweep(ctx, res.Day, utc)
	if err != nil {
		return finish[*AutoMarkResult](s, "auto_mark_drinks", nil, err)
	}

	out := &AutoMarkResult{
		OperationID:  opID,
		MarkedCount:  report.Marked,
		UsedFallback: report.UsedFallback,
		Day:          report.Day,
		Source:       res.Source,
		Warning:      report.Warning,
		Drinks:       report.Drinks,
		Failures:     report.Failures,
	}
	slog.Info("Auto-marked drinks",
		"operation_id", opID,
		"day", report.Day.String(),
		"source", string(res.Source),
		"drinks", report.Drinks,
		"marked", report.Marked,
		"fallback", report.UsedFallback,
		"failures", len(report.Failures),
	)
	s.metrics.AutoMark(report.Marked, len(report.Failures), report.UsedFallback)
	if report.Drinks > 0 {
		s.notify(func(n notifier.Notifier) error { return n.NotifyAutoMark(*report) })
	}
	return failure.OK(out)
}

// BillRun is the outcome of a bill generation call.
type BillRun struct {
	OperationID string          `json:"operation_id"`
	Today       calendar.Day    `json:"today"`
	Source      calendar.Source `json:"source"`
	billing.RunReport
}

// GenerateBills computes every member's charge for period relative to the
// resolved day and upserts their bills.
func (s *Service) GenerateBills(ctx context.Context, period calendar.Period, h calendar.Hints) failure.Result[*BillRun] {
	opID := uuid.NewString()
	res := s.resolver.Today(h)

	report, err := s.generator.Generate(ctx, period, res.Day)
	if err != nil {
		return finish[*BillRun](s, "generate_bills", nil, err)
	}

	slog.Info("Generated bills",
		"operation_id", opID,
		"period", string(period),
		"window", report.Window.String(),
		"source", string(res.Source),
		"rule", string(s.generator.Rule()),
		"created", report.Created,
		"updated", report.Updated,
		"skipped", report.Skipped,
		"failures", len(report.Failures),
	)
	s.metrics.BillRun(string(period), report.Created, report.Updated, report.Skipped, len(report.Failures))
	s.notify(func(n notifier.Notifier) error { return n.NotifyBillRun(*report) })

	return failure.OK(&BillRun{OperationID: opID, Today: res.Day, Source: res.Source, RunReport: *report})
}

func (s *Service) notify(send func(notifier.Notifier) error) {
	if s.notifier == nil {
		return
	}
	if err := send(s.notifier); err != nil {
		slog.Warn("Notification failed", "error", err)
	}
}

// UserBills is a member's bill list with its totals.
type UserBills struct {
	Bills   []models.Bill   `json:"bills"`
	Summary billing.Summary `json:"summary"`
}

func (s *Service) ListBillsForUser(ctx context.Context, userID uint, status billing.Status) failure.Result[*UserBills] {
	bills, err := s.bills.ForUser(ctx, userID, status)
	if err != nil {
		return finish[*UserBills](s, "list_user_bills", nil, err)
	}
	return failure.OK(&UserBills{Bills: bills, Summary: billing.Summarize(bills)})
}

func (s *Service) ListAllBills(ctx context.Context) failure.Result[[]models.Bill] {
	bills, err := s.bills.All(ctx)
	return finish(s, "list_all_bills", bills, err)
}

func (s *Service) SetBillPaid(ctx context.Context, billID uint, paid bool) failure.Result[*models.Bill] {
	bill, err := s.bills.SetPaid(ctx, billID, paid)
	if err == nil {
		slog.Info("Bill payment state changed", "bill_id", billID, "paid", paid)
	}
	return finish(s, "set_bill_paid", bill, err)
}

func (s *Service) DeleteBill(ctx context.Context, billID uint) failure.Result[uint] {
	err := s.bills.Delete(ctx, billID)
	if err == nil {
		slog.Info("Bill deleted", "bill_id", billID)
	}
	return finish(s, "delete_bill", billID, err)
}

// BillBreakdown itemises a bill. A non-zero userID restricts it to the
// bill's owner.
func (s *Service) BillBreakdown(ctx context.Context, billID, userID uint) failure.Result[*billing.Breakdown] {
	b, err := s.bills.Breakdown(ctx, billID, userID)
	return finish(s, "bill_breakdown", b, err)
}

// History is a member's attendance history page.
type History struct {
	Records []models.Attendance `json:"records"`
	Stats   attendance.Stats    `json:"stats"`
}

func (s *Service) AttendanceHistory(ctx context.Context, userID uint, h calendar.Hints) failure.Result[*History] {
	today := s.resolver.Today(h).Day
	recs, stats, err := s.attendance.History(ctx, userID, today)
	if err != nil {
		return finish[*History](s, "attendance_history", nil, err)
	}
	return failure.OK(&History{Records: recs, Stats: stats})
}

func (s *Service) Member(ctx context.Context, userID uint) failure.Result[*models.User] {
	u, err := s.members.Get(ctx, userID)
	return finish(s, "member", u, err)
}

func (s *Service) Members(ctx context.Context) failure.Result[[]models.User] {
	users, err := s.members.List(ctx)
	return finish(s, "members", users, err)
}

func (s *Service) AddMember(ctx context.Context, fullName, email string, role models.Role) failure.Result[*models.User] {
	u, err := s.members.Create(ctx, fullName, email, role)
	return finish(s, "add_member", u, err)
}
