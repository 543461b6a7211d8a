package app

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"genna-quiz-service/internal/domain"
	"genna-quiz-service/internal/storage"
)

const (
	DefaultLoginDelay  = 800 * time.Millisecond
	DefaultLogoutDelay = 500 * time.Millisecond
)

// MockProfile is the identity every login returns.
var MockProfile = domain.UserProfile{
	ID:       "user_12345",
	Name:     "Genna Pilgrim",
	Email:    "guest@example.com",
	PhotoURL: "https://picsum.photos/seed/me/100",
}

// AuthService is a stand-in for Google sign-in. It only simulates latency and
// persists the fixed profile in the client's local storage.
type AuthService struct {
	loginDelay  time.Duration
	logoutDelay time.Duration
}

func NewAuthService(loginDelay, logoutDelay time.Duration) *AuthService {
	return &AuthService{loginDelay: loginDelay, logoutDelay: logoutDelay}
}

// LoginWithGoogle always succeeds unless ctx is canceled while waiting.
// A failure to store the profile is logged and does not fail the login.
func (a *AuthService) LoginWithGoogle(ctx context.Context, local *storage.Local) (domain.UserProfile, error) {
	if err := wait(ctx, a.loginDelay); err != nil {
		return domain.UserProfile{}, err
	}
	profile := MockProfile
	raw, err := json.Marshal(profile)
	if err == nil {
		err = local.SetItem(ctx, storage.UserKey, string(raw))
	}
	if err != nil {
		log.Printf("warn: storing profile for client %s: %v", local.ClientID(), err)
	}
	return profile, nil
}

// Logout forgets the profile and the saved high score.
func (a *AuthService) Logout(ctx context.Context, local *storage.Local) error {
	if err := wait(ctx, a.logoutDelay); err != nil {
		return err
	}
	if err := local.RemoveItem(ctx, storage.UserKey); err != nil {
		return err
	}
	return local.RemoveItem(ctx, storage.ScoreKey)
}

// CurrentUser returns the stored profile, or nil when nobody is signed in.
// An unreadable profile is removed and treated as signed out.
func (a *AuthService) CurrentUser(ctx context.Context, local *storage.Local) (*domain.UserProfile, error) {
	raw, ok, err := local.GetItem(ctx, storage.UserKey)
	if err != nil || !ok {
		return nil, err
	}
	var profile domain.UserProfile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		log.Printf("warn: discarding corrupt profile for client %s: %v", local.ClientID(), err)
		if err := local.RemoveItem(ctx, storage.UserKey); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return &profile, nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
