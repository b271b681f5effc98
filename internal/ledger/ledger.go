// Package ledger meters daily credits and tracks the consecutive-day usage
// streak of an account.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/illegalcall/reelwriter/internal/models"
)

var (
	// ErrQuotaExceeded means the account has no credits left today.
	ErrQuotaExceeded = errors.New("daily credit limit reached")
	// ErrAccountNotFound means no ledger row exists for the account.
	ErrAccountNotFound = errors.New("account not found")
)

// Reservation is one credit taken from an account's daily allowance.
type Reservation struct {
	AccountID string
	Day       string
	Used      int
	Limit     int
}

type Ledger struct {
	db  *sqlx.DB
	now func() time.Time
}

func New(db *sqlx.DB) *Ledger {
	return &Ledger{db: db, now: time.Now}
}

// Reserve takes one credit in a single conditional update. The row only
// changes while credits_used_today < daily_credits_limit, so concurrent
// requests can never push usage past the limit. The first reservation of
// a new day resets the counter.
func (l *Ledger) Reserve(ctx context.Context, accountID string) (Reservation, error) {
	day := Day(l.now()).Format(dayLayout)
	r := Reservation{AccountID: accountID, Day: day}

	err := l.db.QueryRowxContext(ctx, `
		UPDATE saas_accounts
		SET credits_used_today = CASE WHEN credits_date IS DISTINCT FROM $2::date THEN 1 ELSE credits_used_today + 1 END,
			credits_date = $2::date
		WHERE id = $1
			AND daily_credits_limit > 0
			AND (credits_date IS DISTINCT FROM $2::date OR credits_used_today < daily_credits_limit)
		RETURNING credits_used_today, daily_credits_limit`,
		accountID, day,
	).Scan(&r.Used, &r.Limit)
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Reservation{}, fmt.Errorf("failed to reserve credit: %w", err)
	}

	var exists bool
	if err := l.db.GetContext(ctx, &exists, "SELECT EXISTS(SELECT 1 FROM saas_accounts WHERE id = $1)", accountID); err != nil {
		return Reservation{}, fmt.Errorf("failed to look up account: %w", err)
	}
	if !exists {
		return Reservation{}, ErrAccountNotFound
	}
	return Reservation{}, ErrQuotaExceeded
}

// Release gives a reserved credit back after a failed operation.
func (l *Ledger) Release(ctx context.Context, r Reservation) error {
	_, err := l.db.ExecContext(ctx, `
		UPDATE saas_accounts
		SET credits_used_today = GREATEST(credits_used_today - 1, 0)
		WHERE id = $1 AND credits_date = $2::date`,
		r.AccountID, r.Day,
	)
	if err != nil {
		return fmt.Errorf("failed to release credit: %w", err)
	}
	return nil
}

// RecordActivity advances the account's streak for a successful generation
// and returns the new value.
func (l *Ledger) RecordActivity(ctx context.Context, accountID string) (int, error) {
	today := Day(l.now())

	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		current int
		last    sql.NullTime
	)
	err = tx.QueryRowxContext(ctx,
		"SELECT current_streak, last_activity_date FROM saas_accounts WHERE id = $1 FOR UPDATE", accountID,
	).Scan(&current, &last)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrAccountNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read streak: %w", err)
	}

	var lastActivity *time.Time
	if last.Valid {
		lastActivity = &last.Time
	}
	streak := NextStreak(current, lastActivity, today)

	if _, err := tx.ExecContext(ctx,
		"UPDATE saas_accounts SET current_streak = $1, last_activity_date = $2::date WHERE id = $3",
		streak, today.Format(dayLayout), accountID,
	); err != nil {
		return 0, fmt.Errorf("failed to update streak: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit streak: %w", err)
	}

	slog.Info("Streak updated", "account_id", accountID, "streak", streak)
	return streak, nil
}

// EnsureAccount creates the ledger row for a new account. Existing rows are
// left untouched.
func (l *Ledger) EnsureAccount(ctx context.Context, accountID string, dailyLimit int) error {
	_, err := l.db.ExecContext(ctx,
		"INSERT INTO saas_accounts (id, daily_credits_limit) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING",
		accountID, dailyLimit,
	)
	if err != nil {
		return fmt.Errorf("failed to ensure account: %w", err)
	}
	return nil
}

// Summary reports the account's credits and streak as of today.
func (l *Ledger) Summary(ctx context.Context, accountID string) (models.AccountSummary, error) {
	var acc models.Account
	err := l.db.GetContext(ctx, &acc, `
		SELECT id, daily_credits_limit, credits_used_today, credits_date, current_streak,
			last_activity_date, subscription_status
		FROM saas_accounts WHERE id = $1`, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.AccountSummary{}, ErrAccountNotFound
	}
	if err != nil {
		return models.AccountSummary{}, fmt.Errorf("failed to get account: %w", err)
	}

	today := Day(l.now())
	used := acc.CreditsUsedToday
	if !acc.CreditsDate.Valid || !Day(acc.CreditsDate.Time).Equal(today) {
		used = 0
	}

	summary := models.AccountSummary{
		DailyCreditsLimit:  acc.DailyCreditsLimit,
		CreditsUsedToday:   used,
		CreditsRemaining:   max(acc.DailyCreditsLimit-used, 0),
		CurrentStreak:      acc.CurrentStreak,
		SubscriptionStatus: acc.SubscriptionStatus.String,
	}
	if acc.LastActivityDate.Valid {
		summary.LastActivityDate = acc.LastActivityDate.Time.Format(dayLayout)
	}
	return summary, nil
}
