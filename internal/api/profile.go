package api

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/illegalcall/reelwriter/internal/apperr"
	"github.com/illegalcall/reelwriter/internal/models"
	"github.com/illegalcall/reelwriter/internal/storage"
)

func (s *Server) handleListProfiles(c *fiber.Ctx) error {
	account, err := accountID(c)
	if err != nil {
		return err
	}
	profiles, err := s.store.ListProfiles(c.UserContext(), account)
	if err != nil {
		return apperr.Wrap(err, apperr.KindStorageFailed, "Failed to fetch profiles")
	}
	return c.JSON(fiber.Map{"profiles": profiles})
}

// handleCreateProfile adds a business profile to the caller's account, up
// to the configured maximum.
func (s *Server) handleCreateProfile(c *fiber.Ctx) error {
	account, err := accountID(c)
	if err != nil {
		return err
	}
	var req models.ProfileRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := validateProfile(req); err != nil {
		return err
	}

	count, err := s.store.CountProfiles(c.UserContext(), account)
	if err != nil {
		return apperr.Wrap(err, apperr.KindStorageFailed, "Failed to check existing profiles")
	}
	if count >= s.cfg.Ledger.MaxProfiles {
		return apperr.New(apperr.KindConflict, "Profile limit reached")
	}

	profile := models.Profile{
		AccountID:   account,
		Name:        strings.TrimSpace(req.Name),
		Niche:       strings.TrimSpace(req.Niche),
		City:        strings.TrimSpace(req.City),
		ToneOfVoice: req.ToneOfVoice,
	}
	if err := s.store.CreateProfile(c.UserContext(), &profile); err != nil {
		return apperr.Wrap(err, apperr.KindStorageFailed, "Failed to create profile")
	}
	return c.Status(fiber.StatusCreated).JSON(profile)
}

func (s *Server) handleUpdateProfile(c *fiber.Ctx) error {
	account, err := accountID(c)
	if err != nil {
		return err
	}
	var req models.ProfileRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := validateProfile(req); err != nil {
		return err
	}

	profile, err := s.ownedProfile(c.UserContext(), account, c.Params("id"))
	if err != nil {
		return err
	}
	profile.Name = strings.TrimSpace(req.Name)
	profile.Niche = strings.TrimSpace(req.Niche)
	profile.City = strings.TrimSpace(req.City)
	profile.ToneOfVoice = req.ToneOfVoice

	if err := s.store.UpdateProfile(c.UserContext(), profile); err != nil {
		return storeError(err, apperr.KindProfileNotFound, "Failed to update profile")
	}
	return c.JSON(profile)
}

func (s *Server) handleDeleteProfile(c *fiber.Ctx) error {
	account, err := accountID(c)
	if err != nil {
		return err
	}
	if err := s.store.DeleteProfile(c.UserContext(), account, c.Params("id")); err != nil {
		return storeError(err, apperr.KindProfileNotFound, "Failed to delete profile")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ownedProfile loads a profile and hides profiles of other accounts.
func (s *Server) ownedProfile(ctx context.Context, account, id string) (*models.Profile, error) {
	profile, err := s.store.GetProfile(ctx, id)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && profile.AccountID != account) {
		return nil, apperr.New(apperr.KindProfileNotFound, "Profile not found")
	}
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindStorageFailed, "Failed to fetch profile")
	}
	return profile, nil
}

func validateProfile(req models.ProfileRequest) error {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Niche) == "" {
		return apperr.New(apperr.KindMalformedRequest, "Name and niche are required")
	}
	if req.ToneOfVoice != nil && (*req.ToneOfVoice < 0 || *req.ToneOfVoice > 100) {
		return apperr.New(apperr.KindMalformedRequest, "tone_of_voice must be between 0 and 100")
	}
	return nil
}

// storeError maps a missing row to notFound and anything else to a
// storage failure.
func storeError(err error, notFound apperr.Kind, message string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.Wrap(err, notFound, "Not found")
	}
	return apperr.Wrap(err, apperr.KindStorageFailed, message)
}
