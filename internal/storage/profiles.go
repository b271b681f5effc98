package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/illegalcall/reelwriter/internal/models"
)

const profileColumns = "id, account_id, name, niche, city, tone_of_voice, created_at"

func (s *Postgres) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	var profile models.Profile
	err := s.db.GetContext(ctx, &profile, "SELECT "+profileColumns+" FROM profiles WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &profile, nil
}

func (s *Postgres) ListProfiles(ctx context.Context, accountID string) ([]models.Profile, error) {
	profiles := []models.Profile{}
	err := s.db.SelectContext(ctx, &profiles,
		"SELECT "+profileColumns+" FROM profiles WHERE account_id = $1 ORDER BY created_at ASC", accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return profiles, nil
}

func (s *Postgres) CountProfiles(ctx context.Context, accountID string) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM profiles WHERE account_id = $1", accountID); err != nil {
		return 0, fmt.Errorf("failed to count profiles: %w", err)
	}
	return count, nil
}

func (s *Postgres) CreateProfile(ctx context.Context, profile *models.Profile) error {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	err := s.db.QueryRowxContext(ctx,
		`INSERT INTO profiles (id, account_id, name, niche, city, tone_of_voice)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`,
		profile.ID, profile.AccountID, profile.Name, profile.Niche, profile.City, profile.ToneOfVoice,
	).Scan(&profile.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

func (s *Postgres) UpdateProfile(ctx context.Context, profile *models.Profile) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE profiles SET name = $1, niche = $2, city = $3, tone_of_voice = $4
		WHERE id = $5 AND account_id = $6`,
		profile.Name, profile.Niche, profile.City, profile.ToneOfVoice, profile.ID, profile.AccountID,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return expectRow(res)
}

func (s *Postgres) DeleteProfile(ctx context.Context, accountID, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM profiles WHERE id = $1 AND account_id = $2", id, accountID)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return expectRow(res)
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
