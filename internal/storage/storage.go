package storage

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/illegalcall/reelwriter/internal/models"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("record not found")

// ProfileStore defines the profile operations of the record store
type ProfileStore interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	ListProfiles(ctx context.Context, accountID string) ([]models.Profile, error)
	CountProfiles(ctx context.Context, accountID string) (int, error)
	CreateProfile(ctx context.Context, profile *models.Profile) error
	UpdateProfile(ctx context.Context, profile *models.Profile) error
	DeleteProfile(ctx context.Context, accountID, id string) error
}

// ScriptStore defines the script library operations of the record store
type ScriptStore interface {
	// ListExamples returns up to limit scripts from the given pool, newest first.
	ListExamples(ctx context.Context, profileID string, source models.ExampleSource, limit int) ([]models.Script, error)
	CreateScript(ctx context.Context, script *models.Script) error
	GetScript(ctx context.Context, id string) (*models.Script, error)
	ListScripts(ctx context.Context, profileID string, status models.ScriptStatus) ([]models.Script, error)
	UpdateContent(ctx context.Context, id string, content models.ScriptContent) error
	UpdateStatus(ctx context.Context, id string, status models.ScriptStatus) error
	SetViral(ctx context.Context, id string, viral bool) error
	// DeleteScript removes a script permanently. Only rejected scripts can be deleted.
	DeleteScript(ctx context.Context, id string) error
	PurgeRejected(ctx context.Context, profileID string) (int64, error)
}

// Postgres implements ProfileStore and ScriptStore on top of sqlx
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres creates a new Postgres store
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}
