package app

import (
	"fmt"
	"strings"
	"time"

	"ideaforge/pkg/auth"
	"ideaforge/pkg/domain"
)

// ResolveDevice returns the user id for a device fingerprint, creating a new
// anonymous user on first contact. The same device and platform always maps
// to the same user, so anonymous history survives restarts and new sessions.
func (a *App) ResolveDevice(deviceID string, platform domain.Platform) (domain.User, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return domain.User{}, ErrDeviceIDRequired
	}
	if platform == "" {
		platform = domain.PlatformWeb
	}
	user, ok, err := a.store.FindAnonymousUser(deviceID, platform)
	if err != nil {
		return domain.User{}, fmt.Errorf("lookup anonymous user: %w", err)
	}
	if ok {
		return user, nil
	}
	now := time.Now().UTC()
	user = domain.User{
		ID:          newID(),
		IsAnonymous: true,
		DeviceID:    deviceID,
		Platform:    platform,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := a.store.SaveUser(user); err != nil {
		return domain.User{}, fmt.Errorf("create anonymous user: %w", err)
	}
	return user, nil
}

// AuthResult is the response for register and login.
type AuthResult struct {
	AccessToken string      `json:"access_token"`
	User        domain.User `json:"user"`
}

// RegisterRequest captures a registration. Device fields are optional; when
// they match an existing anonymous user, that user is converted in place so
// its threads carry over.
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
	DeviceID string
	Platform domain.Platform
}

// Register creates an authenticated account. If the caller's device already
// has an anonymous user, that row is converted rather than a new one
// created, which is what preserves pre-registration history.
func (a *App) Register(req RegisterRequest) (AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return AuthResult{}, ErrEmailRequired
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		return AuthResult{}, err
	}
	taken, err := a.store.HasUserEmail(email)
	if err != nil {
		return AuthResult{}, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return AuthResult{}, ErrEmailTaken
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return AuthResult{}, err
	}

	now := time.Now().UTC()
	var user domain.User
	if deviceID := strings.TrimSpace(req.DeviceID); deviceID != "" {
		platform := req.Platform
		if platform == "" {
			platform = domain.PlatformWeb
		}
		if existing, ok, err := a.store.FindAnonymousUser(deviceID, platform); err != nil {
			return AuthResult{}, fmt.Errorf("lookup anonymous user: %w", err)
		} else if ok {
			user = existing
		}
	}
	if user.ID == "" {
		user = domain.User{ID: newID(), CreatedAt: now}
	}

	user.Name = req.Name
	user.Email = email
	user.PasswordHash = hash
	user.IsAnonymous = false
	user.AuthenticatedAt = &now
	user.UpdatedAt = now
	if err := a.store.SaveUser(user); err != nil {
		return AuthResult{}, fmt.Errorf("save user: %w", err)
	}

	return a.issueAuth(user)
}

// Login verifies credentials and issues an access token.
func (a *App) Login(email, password string) (AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return AuthResult{}, ErrInvalidCredentials
	}
	user, ok, err := a.store.GetUserByEmail(email)
	if err != nil {
		return AuthResult{}, fmt.Errorf("lookup user: %w", err)
	}
	if !ok || user.PasswordHash == "" || !auth.CheckPassword(user.PasswordHash, password) {
		return AuthResult{}, ErrInvalidCredentials
	}
	return a.issueAuth(user)
}

// VerifyToken resolves a bearer token to its user.
func (a *App) VerifyToken(token string) (domain.User, error) {
	if a.tokens == nil {
		return domain.User{}, auth.ErrInvalidToken
	}
	claims, err := a.tokens.Verify(token)
	if err != nil {
		return domain.User{}, err
	}
	user, ok, err := a.store.GetUserByID(claims.UserID)
	if err != nil {
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}
	if !ok {
		return domain.User{}, auth.ErrInvalidToken
	}
	return user, nil
}

func (a *App) issueAuth(user domain.User) (AuthResult, error) {
	if a.tokens == nil {
		return AuthResult{}, fmt.Errorf("token issuer not configured")
	}
	token, err := a.tokens.Issue(user.ID, user.Email, user.Name)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{AccessToken: token, User: user}, nil
}
