// Package accounts owns the in-memory user directory used for login and
// signup.
package accounts

import (
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/inkwellapp/inkwell-server/internal/domain"
	domainerrors "github.com/inkwellapp/inkwell-server/internal/errors"
	"github.com/inkwellapp/inkwell-server/internal/util"
)

// Hasher hashes and verifies user secrets.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(encodedHash, password string) (bool, error)
}

// AvatarURL returns the generated avatar reference for username.
func AvatarURL(username string) string {
	return "https://i.pravatar.cc/150?u=" + url.QueryEscape(username)
}

// Directory holds the authoritative list of users in signup order.
type Directory struct {
	mu     sync.RWMutex
	users  []*domain.User
	hasher Hasher
	now    func() time.Time
}

// NewDirectory creates a directory seeded with initial users, which must be
// in signup (id) order. The users are copied.
func NewDirectory(initial []*domain.User, hasher Hasher) *Directory {
	d := &Directory{
		users:  make([]*domain.User, 0, len(initial)),
		hasher: hasher,
		now:    time.Now,
	}
	for _, u := range initial {
		c := *u
		d.users = append(d.users, &c)
	}
	return d
}

// Login finds the first user, in signup order, whose username or email
// equals identifier case-insensitively and whose secret matches password.
// Every other outcome is InvalidCredentials.
func (d *Directory) Login(identifier, password string) (*domain.User, error) {
	identifier = strings.TrimSpace(identifier)

	d.mu.RLock()
	candidates := make([]domain.User, 0, 1)
	for _, u := range d.users {
		if util.EqualFold(u.Username, identifier) || util.EqualFold(u.Email, identifier) {
			candidates = append(candidates, *u)
		}
	}
	d.mu.RUnlock()

	// Hash verification is slow; it runs outside the lock. A stored hash
	// that cannot be parsed never matches.
	for i := range candidates {
		ok, err := d.hasher.Verify(candidates[i].PasswordHash, password)
		if err == nil && ok {
			return &candidates[i], nil
		}
	}
	return nil, domainerrors.ErrInvalidCredentials
}

// Signup registers a new user. Username and email must not already be taken,
// compared case-insensitively, or DuplicateIdentity is returned. The new user
// gets the next sequential id and a generated avatar.
func (d *Directory) Signup(draft domain.SignupDraft) (*domain.User, error) {
	draft.Username = strings.TrimSpace(draft.Username)
	draft.Email = strings.TrimSpace(draft.Email)
	draft.FullName = strings.TrimSpace(draft.FullName)

	// Hash before taking the lock so concurrent signups do not queue behind
	// each other's key derivation.
	hash, err := d.hasher.Hash(draft.Password)
	if err != nil {
		return nil, domainerrors.Validation(err.Error())
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, u := range d.users {
		if util.EqualFold(u.Username, draft.Username) {
			return nil, domainerrors.DuplicateIdentity("username already exists")
		}
		if util.EqualFold(u.Email, draft.Email) {
			return nil, domainerrors.DuplicateIdentity("email already exists")
		}
	}

	var maxID int64
	for _, u := range d.users {
		maxID = max(maxID, u.ID)
	}

	u := &domain.User{
		ID:           maxID + 1,
		Username:     draft.Username,
		FullName:     draft.FullName,
		Email:        draft.Email,
		AvatarURL:    AvatarURL(draft.Username),
		PasswordHash: hash,
		CreatedAt:    d.now().UTC(),
	}
	d.users = append(d.users, u)

	c := *u
	return &c, nil
}

// Remove deletes the user with id. Used to roll back a signup whose
// persistence failed.
func (d *Directory) Remove(id int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, u := range d.users {
		if u.ID == id {
			d.users = append(d.users[:i], d.users[i+1:]...)
			return
		}
	}
}

// Get returns the user with id.
func (d *Directory) Get(id int64) (*domain.User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, u := range d.users {
		if u.ID == id {
			c := *u
			return &c, true
		}
	}
	return nil, false
}

// All returns every user in signup order.
func (d *Directory) All() []*domain.User {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*domain.User, len(d.users))
	for i, u := range d.users {
		c := *u
		out[i] = &c
	}
	return out
}

// Len returns the number of users.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.users)
}
