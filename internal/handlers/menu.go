package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shopspring/decimal"

	"github.com/gdg-garage/mess-billing/internal/auth"
	"github.com/gdg-garage/mess-billing/internal/calendar"
	"github.com/gdg-garage/mess-billing/internal/catalog"
	"github.com/gdg-garage/mess-billing/internal/models"
)

type MenuOutput struct {
	Body []models.MenuItem
}

func (h *MessHandler) HandleListMenu(ctx context.Context, input *auth.AuthInput) (*MenuOutput, error) {
	if _, err := h.authHandler.AuthorizeAdmin(ctx, *input); err != nil {
		return nil, err
	}
	items, err := respond(h.svc.Menu(ctx))
	if err != nil {
		return nil, err
	}
	return &MenuOutput{Body: items}, nil
}

type MenuItemBody struct {
	Name   string  `json:"name" doc:"Dish or drink name"`
	Date   string  `json:"date" doc:"Day it is served, e.g. 2025-03-09"`
	Price  float64 `json:"price" doc:"Price, greater than 0"`
	IsFood bool    `json:"is_food" doc:"false for drinks"`
}

func (b MenuItemBody) draft() (catalog.Draft, error) {
	d := catalog.Draft{
		Name:   b.Name,
		Price:  decimal.NewFromFloat(b.Price).Round(2),
		IsFood: b.IsFood,
	}
	if b.Date != "" {
		day, err := calendar.ParseDay(b.Date)
		if err != nil {
			return d, huma.Error400BadRequest("Invalid date: " + b.Date)
		}
		d.Date = day
	}
	return d, nil
}

type AddMenuItemInput struct {
	DatedInput
	Body MenuItemBody
}

type MenuItemOutput struct {
	Body *models.MenuItem
}

func (h *MessHandler) HandleAddMenuItem(ctx context.Context, input *AddMenuItemInput) (*MenuItemOutput, error) {
	if _, err := h.authHandler.AuthorizeAdmin(ctx, input.AuthInput); err != nil {
		return nil, err
	}
	d, err := input.Body.draft()
	if err != nil {
		return nil, err
	}
	item, err := respond(h.svc.AddMenuItem(ctx, d, h.hints(input.DatedInput)))
	if err != nil {
		return nil, err
	}
	return &MenuItemOutput{Body: item}, nil
}

type UpdateMenuItemInput struct {
	DatedInput
	ID   uint `path:"id"`
	Body MenuItemBody
}

func (h *MessHandler) HandleUpdateMenuItem(ctx context.Context, input *UpdateMenuItemInput) (*MenuItemOutput, error) {
	if _, err := h.authHandler.AuthorizeAdmin(ctx, input.AuthInput); err != nil {
		return nil, err
	}
	d, err := input.Body.draft()
	if err != nil {
		return nil, err
	}
	item, err := respond(h.svc.UpdateMenuItem(ctx, input.ID, d, h.hints(input.DatedInput)))
	if err != nil {
		return nil, err
	}
	return &MenuItemOutput{Body: item}, nil
}

type MenuItemIDInput struct {
	auth.AuthInput
	ID uint `path:"id"`
}

func (h *MessHandler) HandleDeleteMenuItem(ctx context.Context, input *MenuItemIDInput) (*struct{}, error) {
	if _, err := h.authHandler.AuthorizeAdmin(ctx, input.AuthInput); err != nil {
		return nil, err
	}
	if _, err := respond(h.svc.DeleteMenuItem(ctx, input.ID)); err != nil {
		return nil, err
	}
	return nil, nil
}
