package models

import (
	"time"
)

// DefaultTone is used for profiles created before tone of voice existed.
const DefaultTone = 50

// Profile is one business identity managed by an account.
type Profile struct {
	ID          string    `json:"id" db:"id"`
	AccountID   string    `json:"account_id" db:"account_id"`
	Name        string    `json:"name" db:"name"`
	Niche       string    `json:"niche" db:"niche"`
	City        string    `json:"city" db:"city"`
	ToneOfVoice *int      `json:"tone_of_voice" db:"tone_of_voice"` // 0-100
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Tone returns the profile's tone of voice, or DefaultTone when unset.
func (p Profile) Tone() int {
	if p.ToneOfVoice == nil {
		return DefaultTone
	}
	return *p.ToneOfVoice
}

// ProfileRequest is the body for creating or updating a profile
type ProfileRequest struct {
	Name        string `json:"name"`
	Niche       string `json:"niche"`
	City        string `json:"city"`
	ToneOfVoice *int   `json:"tone_of_voice"`
}
