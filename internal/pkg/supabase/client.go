package supabase

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/supabase-community/gotrue-go"
)

// ErrInvalidCredentials is returned when GoTrue accepts the request but
// issues no session.
var ErrInvalidCredentials = errors.New("invalid credentials")

// extractProjectRef extracts just the project reference ID from a Supabase URL
// From: akrqbuajqkirdekonpzy.supabase.co
// To: akrqbuajqkirdekonpzy
func extractProjectRef(url string) string {
	url = strings.TrimPrefix(url, "https://")
	url = strings.TrimPrefix(url, "http://")

	parts := strings.Split(url, ".")
	return parts[0]
}

// Authenticator checks email and password credentials against Supabase Auth.
type Authenticator struct {
	client gotrue.Client
}

// NewAuthenticator creates an authenticator for a Supabase project.
func NewAuthenticator(supabaseURL, supabaseKey string) (*Authenticator, error) {
	if supabaseURL == "" || supabaseKey == "" {
		return nil, fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_KEY environment variables must be set")
	}
	projectRef := extractProjectRef(supabaseURL)

	truncatedKey := ""
	if len(supabaseKey) > 10 {
		truncatedKey = supabaseKey[:10] + "..."
	}
	slog.Info("Initializing Supabase client", "project_ref", projectRef, "key", truncatedKey)

	return &Authenticator{client: gotrue.New(projectRef, supabaseKey)}, nil
}

// Ping checks that the auth service is reachable.
func (a *Authenticator) Ping() error {
	if _, err := a.client.GetSettings(); err != nil {
		return fmt.Errorf("failed to connect to Supabase: %w", err)
	}
	return nil
}

// SignIn validates the credentials and returns the Supabase user id.
func (a *Authenticator) SignIn(email, password string) (string, error) {
	res, err := a.client.SignInWithEmailPassword(email, password)
	if err != nil {
		return "", fmt.Errorf("authentication failed: %w", err)
	}
	if res == nil || res.AccessToken == "" {
		return "", ErrInvalidCredentials
	}
	return res.User.ID.String(), nil
}
