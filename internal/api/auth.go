package api

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/illegalcall/reelwriter/internal/apperr"
	"github.com/illegalcall/reelwriter/internal/models"
)

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		return apperr.New(apperr.KindMalformedRequest, "Email and password are required")
	}

	userID, err := s.auth.SignIn(req.Email, req.Password)
	if err != nil {
		slog.Warn("Authentication failed", "email", req.Email, "error", err)
		return apperr.Wrap(err, apperr.KindUnauthenticated, "Invalid credentials")
	}

	if err := s.ledger.EnsureAccount(c.UserContext(), userID, s.cfg.Ledger.DefaultDailyCredits); err != nil {
		return apperr.Wrap(err, apperr.KindStorageFailed, "Failed to prepare account")
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID,
		"email": req.Email,
		"exp":   now.Add(s.cfg.JWT.Expiration).Unix(),
		"iat":   now.Unix(),
	})

	tokenString, err := token.SignedString([]byte(s.cfg.JWT.Secret))
	if err != nil {
		return apperr.Wrap(err, apperr.KindInternal, "Failed to generate token")
	}

	return c.JSON(models.LoginResponse{
		Token:     tokenString,
		TokenType: "Bearer",
	})
}
