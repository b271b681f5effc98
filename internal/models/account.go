package models

import (
	"database/sql"
)

// Account is the per-user ledger row holding credits and streak.
type Account struct {
	ID                 string         `json:"id" db:"id"`
	DailyCreditsLimit  int            `json:"daily_credits_limit" db:"daily_credits_limit"`
	CreditsUsedToday   int            `json:"credits_used_today" db:"credits_used_today"`
	CreditsDate        sql.NullTime   `json:"-" db:"credits_date"`
	CurrentStreak      int            `json:"current_streak" db:"current_streak"`
	LastActivityDate   sql.NullTime   `json:"-" db:"last_activity_date"`
	SubscriptionStatus sql.NullString `json:"-" db:"subscription_status"`
}

// AccountSummary is what the account endpoint reports back to the client.
type AccountSummary struct {
	DailyCreditsLimit  int    `json:"daily_credits_limit"`
	CreditsUsedToday   int    `json:"credits_used_today"`
	CreditsRemaining   int    `json:"credits_remaining"`
	CurrentStreak      int    `json:"current_streak"`
	LastActivityDate   string `json:"last_activity_date,omitempty"`
	SubscriptionStatus string `json:"subscription_status,omitempty"`
}
