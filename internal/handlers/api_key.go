package handlers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"gorm.io/gorm"

	"github.com/gdg-garage/mess-billing/internal/auth"
	"github.com/gdg-garage/mess-billing/internal/models"
)

// APIKeyHandler manages the keys admin scripts use in place of a session,
// for example a nightly drink auto-mark or a month-end bill run.
type APIKeyHandler struct {
	db          *gorm.DB
	authHandler *auth.AuthHandler
	now         func() time.Time
}

func NewAPIKeyHandler(db *gorm.DB, authHandler *auth.AuthHandler) *APIKeyHandler {
	return &APIKeyHandler{db: db, authHandler: authHandler, now: time.Now}
}

type CreateAPIKeyInput struct {
	auth.AuthInput
	Body struct {
		Name      string `json:"name" minLength:"1" doc:"What the key is for, e.g. nightly-auto-mark"`
		ValidDays int    `json:"valid_days,omitempty" minimum:"0" maximum:"365" doc:"Days until the key expires, 0 for never"`
	}
}

type APIKeyResponse struct {
	ID         uint       `json:"id"`
	Name       string     `json:"name"`
	Key        string     `json:"key"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  *time.Time `json:"expires_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
}

func keyResponse(k models.APIKey, shown string) APIKeyResponse {
	return APIKeyResponse{
		ID:         k.ID,
		Name:       k.Name,
		Key:        shown,
		CreatedAt:  k.CreatedAt,
		ExpiresAt:  k.ExpiresAt,
		LastUsedAt: k.LastUsedAt,
	}
}

type CreateAPIKeyOutput struct {
	Body APIKeyResponse
}

// HandleCreate issues a key. The plain key is only ever returned here.
func (h *APIKeyHandler) HandleCreate(ctx context.Context, input *CreateAPIKeyInput) (*CreateAPIKeyOutput, error) {
	p, err := h.authHandler.AuthorizeAdmin(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Body.Name)
	if name == "" {
		return nil, huma.Error400BadRequest("Key name is required")
	}

	keyBytes := make([]byte, 32)
	if _, err := rand.Read(keyBytes); err != nil {
		return nil, huma.Error500InternalServerError("Failed to generate key")
	}
	key := hex.EncodeToString(keyBytes)

	apiKey := models.APIKey{
		UserID: p.UserID,
		Hash:   auth.HashAPIKey(key),
		Suffix: key[len(key)-4:],
		Name:   name,
	}
	if input.Body.ValidDays > 0 {
		expires := h.now().UTC().AddDate(0, 0, input.Body.ValidDays)
		apiKey.ExpiresAt = &expires
	}

	if err := h.db.WithContext(ctx).Create(&apiKey).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to create API key")
	}

	return &CreateAPIKeyOutput{Body: keyResponse(apiKey, key)}, nil
}

type ListAPIKeysOutput struct {
	Body []APIKeyResponse
}

// HandleList shows the caller's keys with only their last four characters.
func (h *APIKeyHandler) HandleList(ctx context.Context, input *auth.AuthInput) (*ListAPIKeysOutput, error) {
	p, err := h.authHandler.AuthorizeAdmin(ctx, *input)
	if err != nil {
		return nil, err
	}

	var apiKeys []models.APIKey
	if err := h.db.WithContext(ctx).Where("user_id = ?", p.UserID).Order("id").Find(&apiKeys).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to list API keys")
	}

	response := make([]APIKeyResponse, 0, len(apiKeys))
	for _, k := range apiKeys {
		response = append(response, keyResponse(k, "..."+k.Suffix))
	}
	return &ListAPIKeysOutput{Body: response}, nil
}

type DeleteAPIKeyInput struct {
	auth.AuthInput
	ID uint `path:"id"`
}

func (h *APIKeyHandler) HandleDelete(ctx context.Context, input *DeleteAPIKeyInput) (*struct{}, error) {
	p, err := h.authHandler.AuthorizeAdmin(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	res := h.db.WithContext(ctx).Where("id = ? AND user_id = ?", input.ID, p.UserID).Delete(&models.APIKey{})
	if res.Error != nil {
		return nil, huma.Error500InternalServerError("Failed to delete API key")
	}
	if res.RowsAffected == 0 {
		return nil, huma.Error404NotFound("API key not found")
	}
	return nil, nil
}
