package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/gdg-garage/mess-billing/internal/config"
	"github.com/gdg-garage/mess-billing/internal/members"
	"github.com/gdg-garage/mess-billing/internal/models"
)

const (
	DiscordAuthorizeEndpoint = "https://discord.com/api/oauth2/authorize"
	DiscordTokenEndpoint     = "https://discord.com/api/oauth2/token"
	DiscordUserAPI           = "https://discord.com/api/users/@me"
)

const (
	CookieName      = "auth_token"
	stateCookieName = "oauth_state"
	TokenDuration   = 24 * time.Hour
)

type AuthHandler struct {
	oauthConfig *oauth2.Config
	db          *gorm.DB
	members     *members.Directory
	cfg         *config.Config
	userAPI     string
}

func NewAuthHandler(cfg *config.Config, db *gorm.DB) *AuthHandler {
	return &AuthHandler{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.DiscordClientID,
			ClientSecret: cfg.DiscordClientSecret,
			RedirectURL:  cfg.DiscordRedirectURL,
			Scopes:       []string{"identify", "email"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  DiscordAuthorizeEndpoint,
				TokenURL: DiscordTokenEndpoint,
			},
		},
		db:      db,
		members: members.New(db),
		cfg:     cfg,
		userAPI: DiscordUserAPI,
	}
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Expires:  time.Now().Add(10 * time.Minute),
		HttpOnly: true,
		Path:     "/",
	})
	url := h.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "Code not found", http.StatusBadRequest)
		return
	}
	state, err := r.Cookie(stateCookieName)
	if err != nil || state.Value != r.URL.Query().Get("state") {
		http.Error(w, "Invalid OAuth state", http.StatusBadRequest)
		return
	}

	token, err := h.oauthConfig.Exchange(r.Context(), code)
	if err != nil {
		slog.Warn("Discord token exchange failed", "error", err)
		http.Error(w, "Failed to exchange token", http.StatusInternalServerError)
		return
	}

	client := h.oauthConfig.Client(r.Context(), token)

	resp, err := client.Get(h.userAPI)
	if err != nil {
		http.Error(w, "Failed to get user info", http.StatusInternalServerError)
		return
	}
	defer resp.Body.Close()

	var discordUser struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Avatar   string `json:"avatar"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&discordUser); err != nil {
		http.Error(w, "Failed to decode user info", http.StatusInternalServerError)
		return
	}
	if discordUser.ID == "" {
		http.Error(w, "Discord returned no user", http.StatusBadGateway)
		return
	}

	user, err := h.members.UpsertDiscord(r.Context(), members.DiscordProfile{
		ID:       discordUser.ID,
		Username: discordUser.Username,
		Email:    discordUser.Email,
		Avatar:   discordUser.Avatar,
	}, h.cfg.IsAdminDiscordID(discordUser.ID))
	if err != nil {
		http.Error(w, "Failed to save user", http.StatusInternalServerError)
		return
	}

	jwtToken, err := h.GenerateToken(user.ID, user.Role)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	h.setSessionCookie(w, jwtToken)
	http.SetCookie(w, &http.Cookie{Name: stateCookieName, Value: "", Path: "/", MaxAge: -1})
	slog.Info("User logged in", "user_id", user.ID, "role", string(user.Role))

	w.Write([]byte(fmt.Sprintf("Welcome %s! You are logged in.", user.FullName)))
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Expires:  time.Now().Add(TokenDuration),
		HttpOnly: true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
}

// GenerateToken signs a session token for the user.
func (h *AuthHandler) GenerateToken(userID uint, role models.Role) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    string(role),
		"exp":     time.Now().Add(TokenDuration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.cfg.JWTSecret))
}

// Principal is the authenticated caller.
type Principal struct {
	UserID uint
	Role   models.Role
}

func (p Principal) IsAdmin() bool { return p.Role == models.RoleAdmin }

// parseToken validates a session token. expires is the token's expiry.
func (h *AuthHandler) parseToken(tokenString string) (Principal, time.Time, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(h.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return Principal{}, time.Time{}, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, time.Time{}, fmt.Errorf("invalid token claims")
	}
	userIDFloat, ok := claims["user_id"].(float64)
	if !ok {
		return Principal{}, time.Time{}, fmt.Errorf("invalid token claims")
	}
	role, _ := claims["role"].(string)
	if role == "" {
		role = string(models.RoleUser)
	}

	var expires time.Time
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expires = exp.Time
	}
	return Principal{UserID: uint(userIDFloat), Role: models.Role(role)}, expires, nil
}

// HashAPIKey is the stored form of an API key.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// lookupAPIKey resolves an API key to its owner, recording its use.
func (h *AuthHandler) lookupAPIKey(ctx context.Context, key string) (Principal, error) {
	var apiKey models.APIKey
	err := h.db.WithContext(ctx).Joins("User").Where("api_keys.hash = ?", HashAPIKey(key)).First(&apiKey).Error
	if err != nil {
		return Principal{}, fmt.Errorf("unknown API key")
	}
	now := time.Now()
	if apiKey.ExpiresAt != nil && now.After(*apiKey.ExpiresAt) {
		return Principal{}, fmt.Errorf("API key expired")
	}
	if err := h.db.WithContext(ctx).Model(&apiKey).Update("last_used_at", now).Error; err != nil {
		slog.Warn("Failed to record API key use", "key_id", apiKey.ID, "error", err)
	}
	return Principal{UserID: apiKey.UserID, Role: apiKey.User.Role}, nil
}
