package models

// LoginRequest represents the login credentials
type LoginRequest struct {
	// User's email address
	Email string `json:"email" example:"user@example.com"`
	// User's password
	Password string `json:"password" example:"password123"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	// JWT token for authentication
	Token     string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	TokenType string `json:"type" example:"Bearer"`
}

// GenerateRequest is the body of POST /api/generate
type GenerateRequest struct {
	ProfileID       string `json:"profileId"`
	Offer           string `json:"offer"`
	MandatoryPhrase string `json:"mandatoryPhrase"`
	Duration        string `json:"duration"`
}

// RemixRequest is the body of POST /api/remix
type RemixRequest struct {
	ProfileID string `json:"profileId"`
	BlockKey  string `json:"blockKey"`
	Context   string `json:"context"`
	// Optional. When set, the remixed segment is written into this script.
	ScriptID string `json:"scriptId"`
}

// StatusRequest is the body of PATCH /api/scripts/:id/status
type StatusRequest struct {
	Status ScriptStatus `json:"status"`
}

// ViralRequest is the body of PATCH /api/scripts/:id/viral
type ViralRequest struct {
	IsViral bool `json:"is_viral"`
}
