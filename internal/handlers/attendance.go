package handlers

import (
	"context"

	"github.com/gdg-garage/mess-billing/internal/auth"
	"github.com/gdg-garage/mess-billing/internal/mess"
	"github.com/gdg-garage/mess-billing/internal/models"
)

type BoardOutput struct {
	Body *mess.Board
}

// HandleBoard returns the resolved day's menu, members and recorded marks.
func (h *MessHandler) HandleBoard(ctx context.Context, input *DatedInput) (*BoardOutput, error) {
	if _, err := h.authHandler.AuthorizeAdmin(ctx, input.AuthInput); err != nil {
		return nil, err
	}
	board, err := respond(h.svc.TodayBoard(ctx, h.hints(*input)))
	if err != nil {
		return nil, err
	}
	return &BoardOutput{Body: board}, nil
}

type MarkAttendanceInput struct {
	auth.AuthInput
	Body struct {
		UserID     uint `json:"user_id" doc:"Member the mark is for" minimum:"1"`
		MenuItemID uint `json:"menu_item_id" doc:"Menu item consumed or declined" minimum:"1"`
		Attended   bool `json:"attended" doc:"Whether the member had the item"`
	}
}

type MarkAttendanceOutput struct {
	Body *models.Attendance
}

func (h *MessHandler) HandleMarkAttendance(ctx context.Context, input *MarkAttendanceInput) (*MarkAttendanceOutput, error) {
	if _, err := h.authHandler.AuthorizeAdmin(ctx, input.AuthInput); err != nil {
		return nil, err
	}
	rec, err := respond(h.svc.MarkAttendance(ctx, input.Body.UserID, input.Body.MenuItemID, input.Body.Attended))
	if err != nil {
		return nil, err
	}
	return &MarkAttendanceOutput{Body: rec}, nil
}

type AutoMarkOutput struct {
	Body *mess.AutoMarkResult
}

func (h *MessHandler) HandleAutoMarkDrinks(ctx context.Context, input *DatedInput) (*AutoMarkOutput, error) {
	if _, err := h.authHandler.AuthorizeAdmin(ctx, input.AuthInput); err != nil {
		return nil, err
	}
	res, err := respond(h.svc.AutoMarkDrinks(ctx, h.hints(*input)))
	if err != nil {
		return nil, err
	}
	return &AutoMarkOutput{Body: res}, nil
}

type HistoryOutput struct {
	Body *mess.History
}

// HandleHistory lists the caller's own attended items.
func (h *MessHandler) HandleHistory(ctx context.Context, input *DatedInput) (*HistoryOutput, error) {
	p, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}
	hist, err := respond(h.svc.AttendanceHistory(ctx, p.UserID, h.hints(*input)))
	if err != nil {
		return nil, err
	}
	return &HistoryOutput{Body: hist}, nil
}

type HomeOutput struct {
	Body *mess.Home
}

// HandleHome shows the caller the resolved day's menu, what they were
// marked as having, and their bill totals.
func (h *MessHandler) HandleHome(ctx context.Context, input *DatedInput) (*HomeOutput, error) {
	p, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}
	home, err := respond(h.svc.MemberHome(ctx, p.UserID, h.hints(*input)))
	if err != nil {
		return nil, err
	}
	return &HomeOutput{Body: home}, nil
}
