package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/illegalcall/reelwriter/internal/models"
)

const scriptColumns = "id, profile_id, hook_type, content, status, is_viral, created_at"

func (s *Postgres) ListExamples(ctx context.Context, profileID string, source models.ExampleSource, limit int) ([]models.Script, error) {
	var filter string
	switch source {
	case models.SourceViral:
		filter = "is_viral = TRUE"
	case models.SourceReady:
		filter = "status = 'ready'"
	default:
		return nil, fmt.Errorf("unknown example source %q", source)
	}

	scripts := []models.Script{}
	query := "SELECT " + scriptColumns + " FROM scripts WHERE profile_id = $1 AND " + filter +
		" ORDER BY created_at DESC LIMIT $2"
	if err := s.db.SelectContext(ctx, &scripts, query, profileID, limit); err != nil {
		return nil, fmt.Errorf("failed to list %s examples: %w", source, err)
	}
	return scripts, nil
}

func (s *Postgres) CreateScript(ctx context.Context, script *models.Script) error {
	if script.ID == "" {
		script.ID = uuid.NewString()
	}
	err := s.db.QueryRowxContext(ctx,
		`INSERT INTO scripts (id, profile_id, hook_type, content, status, is_viral)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`,
		script.ID, script.ProfileID, script.HookType, script.Content, script.Status, script.IsViral,
	).Scan(&script.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create script: %w", err)
	}
	return nil
}

func (s *Postgres) GetScript(ctx context.Context, id string) (*models.Script, error) {
	var script models.Script
	err := s.db.GetContext(ctx, &script, "SELECT "+scriptColumns+" FROM scripts WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get script: %w", err)
	}
	return &script, nil
}

// ListScripts returns the profile's library, newest first. An empty status
// lists every script that is not rejected.
func (s *Postgres) ListScripts(ctx context.Context, profileID string, status models.ScriptStatus) ([]models.Script, error) {
	scripts := []models.Script{}
	var err error
	if status == "" {
		err = s.db.SelectContext(ctx, &scripts,
			"SELECT "+scriptColumns+" FROM scripts WHERE profile_id = $1 AND status <> 'rejected' ORDER BY created_at DESC",
			profileID)
	} else {
		err = s.db.SelectContext(ctx, &scripts,
			"SELECT "+scriptColumns+" FROM scripts WHERE profile_id = $1 AND status = $2 ORDER BY created_at DESC",
			profileID, status)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list scripts: %w", err)
	}
	return scripts, nil
}

func (s *Postgres) UpdateContent(ctx context.Context, id string, content models.ScriptContent) error {
	res, err := s.db.ExecContext(ctx, "UPDATE scripts SET content = $1 WHERE id = $2", content, id)
	if err != nil {
		return fmt.Errorf("failed to update script content: %w", err)
	}
	return expectRow(res)
}

func (s *Postgres) UpdateStatus(ctx context.Context, id string, status models.ScriptStatus) error {
	res, err := s.db.ExecContext(ctx, "UPDATE scripts SET status = $1 WHERE id = $2", status, id)
	if err != nil {
		return fmt.Errorf("failed to update script status: %w", err)
	}
	return expectRow(res)
}

func (s *Postgres) SetViral(ctx context.Context, id string, viral bool) error {
	res, err := s.db.ExecContext(ctx, "UPDATE scripts SET is_viral = $1 WHERE id = $2", viral, id)
	if err != nil {
		return fmt.Errorf("failed to update viral flag: %w", err)
	}
	return expectRow(res)
}

func (s *Postgres) DeleteScript(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM scripts WHERE id = $1 AND status = 'rejected'", id)
	if err != nil {
		return fmt.Errorf("failed to delete script: %w", err)
	}
	return expectRow(res)
}

func (s *Postgres) PurgeRejected(ctx context.Context, profileID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM scripts WHERE profile_id = $1 AND status = 'rejected'", profileID)
	if err != nil {
		return 0, fmt.Errorf("failed to purge rejected scripts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}
