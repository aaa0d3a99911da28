// Package store persists users, posts, image metadata and session records
// in an embedded Badger database.
//
// The in-memory post and user collections are authoritative while the
// process runs; the store mirrors every committed change so a restart
// restores them.
package store

import (
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/inkwellapp/inkwell-server/internal/domain"
	"github.com/inkwellapp/inkwell-server/internal/util"
)

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	Users  *Entity[domain.User]
	Posts  *Entity[domain.Post]
	Images *Entity[domain.Image]
}

// New opens (or creates) the database at path.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Sync every commit so a crash never loses an acknowledged write
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	return open(opts, logger)
}

// NewInMemory opens a database that lives only in memory. Used by tests and
// the seed command's dry-run mode.
func NewInMemory(logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts, logger)
}

func open(opts badger.Options, logger *slog.Logger) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger,
	}

	s.initUsers()
	s.initPosts()
	s.initImages()

	if logger != nil {
		logger.Info("Badger database opened", "path", opts.Dir, "in_memory", opts.InMemory)
	}

	return s, nil
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing database connection")
	}
	return s.db.Close()
}

// initUsers sets up the Users entity with case-insensitive unique indexes on
// username and email.
func (s *Store) initUsers() {
	s.Users = NewEntity[domain.User](s, "user:").
		WithIndex("username",
			func(u *domain.User) []string { return []string{util.Fold(u.Username)} },
			util.Fold,
		).
		WithIndex("email",
			func(u *domain.User) []string { return []string{util.Fold(u.Email)} },
			util.Fold,
		)
}

func (s *Store) initPosts() {
	s.Posts = NewEntity[domain.Post](s, "post:")
}

func (s *Store) initImages() {
	s.Images = NewEntity[domain.Image](s, "image:")
}
