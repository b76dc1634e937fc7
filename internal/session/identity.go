package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vovakirdan/minechat/internal/store"
)

// IdentityKey is the slot the username is persisted under.
const IdentityKey = "chatUsername"

// ErrNoIdentity is returned when an operation needs a logged-in user.
var ErrNoIdentity = errors.New("no username set")

// Identity is the session context: the current username and its persisted slot.
type Identity struct {
	slot     store.KV
	username string
}

// NewIdentity binds an identity to a persisted slot. slot may be nil for a
// purely in-memory identity.
func NewIdentity(slot store.KV) *Identity {
	return &Identity{slot: slot}
}

// Username returns the current username, empty when logged out.
func (i *Identity) Username() string { return i.username }

// LoggedIn reports whether a username is set.
func (i *Identity) LoggedIn() bool { return i.username != "" }

// Restore loads a previously persisted username. It reports whether one was found.
func (i *Identity) Restore(ctx context.Context) (bool, error) {
	if i.slot == nil {
		return i.LoggedIn(), nil
	}
	name, err := i.slot.Get(ctx, IdentityKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("restore identity: %w", err)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return false, nil
	}
	i.username = name
	return true, nil
}

// Login sets and persists the username. Surrounding whitespace is trimmed and
// an empty result is rejected.
func (i *Identity) Login(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNoIdentity
	}
	if i.slot != nil {
		if err := i.slot.Set(ctx, IdentityKey, name); err != nil {
			return fmt.Errorf("persist identity: %w", err)
		}
	}
	i.username = name
	return nil
}

// Logout clears the username and its persisted slot.
func (i *Identity) Logout(ctx context.Context) error {
	i.username = ""
	if i.slot == nil {
		return nil
	}
	if err := i.slot.Delete(ctx, IdentityKey); err != nil {
		return fmt.Errorf("clear identity: %w", err)
	}
	return nil
}
