package auth

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gdg-garage/mess-billing/internal/failure"
	"github.com/gdg-garage/mess-billing/internal/models"
)

type MeOutput struct {
	Body struct {
		ID       uint        `json:"id"`
		FullName string      `json:"full_name"`
		Email    string      `json:"email"`
		Avatar   string      `json:"avatar"`
		Role     models.Role `json:"role"`
	}
}

func (h *AuthHandler) HandleMe(ctx context.Context, input *AuthInput) (*MeOutput, error) {
	p, err := h.Authorize(ctx, *input)
	if err != nil {
		return nil, err
	}

	user, err := h.members.Get(ctx, p.UserID)
	if failure.Is(err, failure.KindNotFound) {
		return nil, huma.Error404NotFound("User not found")
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to load user")
	}

	resp := &MeOutput{}
	resp.Body.ID = user.ID
	resp.Body.FullName = user.FullName
	resp.Body.Email = user.Email
	resp.Body.Avatar = user.Avatar
	resp.Body.Role = user.Role
	return resp, nil
}
