package handlers

import (
	"context"
	"time"

	"github.com/gdg-garage/mess-billing/internal/auth"
	"github.com/gdg-garage/mess-billing/internal/billing"
	"github.com/gdg-garage/mess-billing/internal/calendar"
	"github.com/gdg-garage/mess-billing/internal/mess"
	"github.com/gdg-garage/mess-billing/internal/models"
)

type GenerateBillsInput struct {
	DatedInput
	Period string `query:"period" doc:"current (month to date) or previous (last full month). Anything else means current."`
}

type GenerateBillsOutput struct {
	Body *mess.BillRun
}

func (h *MessHandler) HandleGenerateBills(ctx context.Context, input *GenerateBillsInput) (*GenerateBillsOutput, error) {
	if _, err := h.authHandler.AuthorizeAdmin(ctx, input.AuthInput); err != nil {
		return nil, err
	}
	run, err := respond(h.svc.GenerateBills(ctx, calendar.ParsePeriod(input.Period), h.hints(input.DatedInput)))
	if err != nil {
		return nil, err
	}
	return &GenerateBillsOutput{Body: run}, nil
}

type BillsOutput struct {
	Body []models.Bill
}

func (h *MessHandler) HandleAllBills(ctx context.Context, input *auth.AuthInput) (*BillsOutput, error) {
	if _, err := h.authHandler.AuthorizeAdmin(ctx, *input); err != nil {
		return nil, err
	}
	bills, err := respond(h.svc.ListAllBills(ctx))
	if err != nil {
		return nil, err
	}
	return &BillsOutput{Body: bills}, nil
}

type MonthlyReportInput struct {
	DatedInput
	Year  int `query:"year" doc:"Defaults to the resolved day's year"`
	Month int `query:"month" doc:"1-12, defaults to the resolved day's month"`
}

type MonthlyReportOutput struct {
	Body *mess.MonthlyReport
}

func (h *MessHandler) HandleMonthlyReport(ctx context.Context, input *MonthlyReportInput) (*MonthlyReportOutput, error) {
	if _, err := h.authHandler.AuthorizeAdmin(ctx, input.AuthInput); err != nil {
		return nil, err
	}
	report, err := respond(h.svc.MonthlyReport(ctx, input.Year, time.Month(input.Month), h.hints(input.DatedInput)))
	if err != nil {
		return nil, err
	}
	return &MonthlyReportOutput{Body: report}, nil
}

type BillIDInput struct {
	auth.AuthInput
	ID uint `path:"id"`
}

type BillOutput struct {
	Body *models.Bill
}

func (h *MessHandler) setPaid(ctx context.Context, input *BillIDInput, paid bool) (*BillOutput, error) {
	if _, err := h.authHandler.AuthorizeAdmin(ctx, input.AuthInput); err != nil {
		return nil, err
	}
	bill, err := respond(h.svc.SetBillPaid(ctx, input.ID, paid))
	if err != nil {
		return nil, err
	}
	return &BillOutput{Body: bill}, nil
}

func (h *MessHandler) HandleMarkPaid(ctx context.Context, input *BillIDInput) (*BillOutput, error) {
	return h.setPaid(ctx, input, true)
}

func (h *MessHandler) HandleMarkUnpaid(ctx context.Context, input *BillIDInput) (*BillOutput, error) {
	return h.setPaid(ctx, input, false)
}

func (h *MessHandler) HandleDeleteBill(ctx context.Context, input *BillIDInput) (*struct{}, error) {
	if _, err := h.authHandler.AuthorizeAdmin(ctx, input.AuthInput); err != nil {
		return nil, err
	}
	if _, err := respond(h.svc.DeleteBill(ctx, input.ID)); err != nil {
		return nil, err
	}
	return nil, nil
}

type MyBillsInput struct {
	auth.AuthInput
	Status string `query:"status" doc:"all, paid or unpaid"`
}

type MyBillsOutput struct {
	Body *mess.UserBills
}

func (h *MessHandler) HandleMyBills(ctx context.Context, input *MyBillsInput) (*MyBillsOutput, error) {
	p, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}
	bills, err := respond(h.svc.ListBillsForUser(ctx, p.UserID, billing.ParseStatus(input.Status)))
	if err != nil {
		return nil, err
	}
	return &MyBillsOutput{Body: bills}, nil
}

type BreakdownOutput struct {
	Body *billing.Breakdown
}

// HandleBillDetail itemises one bill. Members only see their own bills;
// admins see any.
func (h *MessHandler) HandleBillDetail(ctx context.Context, input *BillIDInput) (*BreakdownOutput, error) {
	p, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}
	owner := p.UserID
	if p.IsAdmin() {
		owner = 0
	}
	b, err := respond(h.svc.BillBreakdown(ctx, input.ID, owner))
	if err != nil {
		return nil, err
	}
	return &BreakdownOutput{Body: b}, nil
}

type DashboardOutput struct {
	Body *mess.Dashboard
}

func (h *MessHandler) HandleDashboard(ctx context.Context, input *DatedInput) (*DashboardOutput, error) {
	if _, err := h.authHandler.AuthorizeAdmin(ctx, input.AuthInput); err != nil {
		return nil, err
	}
	d, err := respond(h.svc.Dashboard(ctx, h.hints(*input)))
	if err != nil {
		return nil, err
	}
	return &DashboardOutput{Body: d}, nil
}
