// Package storage provides the per-client "local storage" the game persists
// its profile and high score in.
package storage

import (
	"context"
	"fmt"
)

const (
	// UserKey holds the serialized UserProfile JSON.
	UserKey = "genna_user"
	// ScoreKey holds the saved high score as a decimal string.
	ScoreKey = "genna_score"
)

// KV is the backend contract every infra store implements.
// Get reports found=false, not an error, for a missing key.
type KV interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Local is the key space owned by one client, mirroring a browser's localStorage.
type Local struct {
	kv       KV
	clientID string
}

// ForClient scopes kv to a single client id.
func ForClient(kv KV, clientID string) *Local {
	return &Local{kv: kv, clientID: clientID}
}

// ClientID returns the owning client id.
func (l *Local) ClientID() string { return l.clientID }

func (l *Local) key(name string) string {
	return "client:" + l.clientID + ":" + name
}

// GetItem returns the stored value or found=false.
func (l *Local) GetItem(ctx context.Context, name string) (string, bool, error) {
	v, ok, err := l.kv.Get(ctx, l.key(name))
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", name, err)
	}
	return v, ok, nil
}

// SetItem stores value under name.
func (l *Local) SetItem(ctx context.Context, name, value string) error {
	if err := l.kv.Set(ctx, l.key(name), value); err != nil {
		return fmt.Errorf("set %s: %w", name, err)
	}
	return nil
}

// RemoveItem deletes name; removing a missing key is not an error.
func (l *Local) RemoveItem(ctx context.Context, name string) error {
	if err := l.kv.Delete(ctx, l.key(name)); err != nil {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}
