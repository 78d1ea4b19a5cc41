// Package members is the user directory the engine iterates when
// auto-marking and billing.
package members

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/gdg-garage/mess-billing/internal/failure"
	"github.com/gdg-garage/mess-billing/internal/models"
)

type Directory struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Directory {
	return &Directory{db: db}
}

// List returns every member ordered by name.
func (d *Directory) List(ctx context.Context) ([]models.User, error) {
	return List(d.db.WithContext(ctx))
}

// List runs the member query on tx.
func List(tx *gorm.DB) ([]models.User, error) {
	var users []models.User
	if err := tx.Order("full_name, id").Find(&users).Error; err != nil {
		return nil, failure.Storage(err, "failed to list users")
	}
	return users, nil
}

func (d *Directory) Get(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	err := d.db.WithContext(ctx).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, failure.NotFound("user %d not found", id)
	}
	if err != nil {
		return nil, failure.Storage(err, "failed to load user %d", id)
	}
	return &u, nil
}

// Create adds a member. Used by the CLI to seed members without Discord.
func (d *Directory) Create(ctx context.Context, fullName, email string, role models.Role) (*models.User, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, failure.Validation("full name is required")
	}
	if role != models.RoleAdmin && role != models.RoleUser {
		return nil, failure.Validation("role must be Admin or User, got %q", role)
	}
	u := models.User{FullName: fullName, Email: email, Role: role}
	if err := d.db.WithContext(ctx).Create(&u).Error; err != nil {
		return nil, failure.Storage(err, "failed to create user")
	}
	return &u, nil
}

// DiscordProfile is what the login callback learns about a member.
type DiscordProfile struct {
	ID       string
	Username string
	Email    string
	Avatar   string
}

// UpsertDiscord creates or refreshes the member linked to a Discord account.
// Members listed as admins are promoted; existing admins are never demoted
// here.
func (d *Directory) UpsertDiscord(ctx context.Context, p DiscordProfile, admin bool) (*models.User, error) {
	var user models.User
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		discordID := p.ID
		if err := tx.FirstOrInit(&user, models.User{DiscordID: &discordID}).Error; err != nil {
			return err
		}
		if user.FullName == "" {
			user.FullName = p.Username
		}
		user.Email = p.Email
		user.Avatar = p.Avatar
		if user.Role == "" {
			user.Role = models.RoleUser
		}
		if admin {
			user.Role = models.RoleAdmin
		}
		return tx.Save(&user).Error
	})
	if err != nil {
		return nil, failure.Storage(err, "failed to save user")
	}
	return &user, nil
}
