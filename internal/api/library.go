package api

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/illegalcall/reelwriter/internal/apperr"
	"github.com/illegalcall/reelwriter/internal/events"
	"github.com/illegalcall/reelwriter/internal/models"
	"github.com/illegalcall/reelwriter/internal/storage"
)

// handleListScripts lists a profile's library. Without ?status it returns
// every script that is not rejected.
func (s *Server) handleListScripts(c *fiber.Ctx) error {
	account, err := accountID(c)
	if err != nil {
		return err
	}
	profile, err := s.ownedProfile(c.UserContext(), account, c.Params("id"))
	if err != nil {
		return err
	}

	status := models.ScriptStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		return apperr.New(apperr.KindMalformedRequest, "Unknown status filter")
	}

	scripts, err := s.store.ListScripts(c.UserContext(), profile.ID, status)
	if err != nil {
		return apperr.Wrap(err, apperr.KindStorageFailed, "Failed to fetch scripts")
	}
	return c.JSON(fiber.Map{"scripts": scripts})
}

func (s *Server) handleUpdateContent(c *fiber.Ctx) error {
	account, script, err := s.scriptFromRequest(c)
	if err != nil {
		return err
	}
	var content models.ScriptContent
	if err := parseBody(c, &content); err != nil {
		return err
	}

	if err := s.store.UpdateContent(c.UserContext(), script.ID, content); err != nil {
		return storeError(err, apperr.KindNotFound, "Failed to update script")
	}
	s.retriever.Evict(c.UserContext(), script.ProfileID)
	script.Content = content

	s.publish(c.UserContext(), events.New(events.ScriptContentUpdated, account, script.ProfileID, script.ID))
	return c.JSON(script)
}

// handleUpdateStatus moves a script between draft, ready and rejected.
// Rejecting is a soft delete and restoring sets it back to draft.
func (s *Server) handleUpdateStatus(c *fiber.Ctx) error {
	account, script, err := s.scriptFromRequest(c)
	if err != nil {
		return err
	}
	var req models.StatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	switch req.Status {
	case models.StatusDraft, models.StatusReady, models.StatusRejected:
	default:
		return apperr.New(apperr.KindMalformedRequest, "status must be draft, ready or rejected")
	}

	if err := s.store.UpdateStatus(c.UserContext(), script.ID, req.Status); err != nil {
		return storeError(err, apperr.KindNotFound, "Failed to update script status")
	}
	s.retriever.Evict(c.UserContext(), script.ProfileID)
	script.Status = req.Status

	event := events.New(events.ScriptStatusChanged, account, script.ProfileID, script.ID)
	event.Status = string(req.Status)
	s.publish(c.UserContext(), event)
	return c.JSON(script)
}

func (s *Server) handleSetViral(c *fiber.Ctx) error {
	account, script, err := s.scriptFromRequest(c)
	if err != nil {
		return err
	}
	var req models.ViralRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if err := s.store.SetViral(c.UserContext(), script.ID, req.IsViral); err != nil {
		return storeError(err, apperr.KindNotFound, "Failed to update viral flag")
	}
	s.retriever.Evict(c.UserContext(), script.ProfileID)
	script.IsViral = req.IsViral

	s.publish(c.UserContext(), events.New(events.ScriptViralChanged, account, script.ProfileID, script.ID))
	return c.JSON(script)
}

// handleDeleteScript permanently removes a script. Only rejected scripts can
// be deleted.
func (s *Server) handleDeleteScript(c *fiber.Ctx) error {
	account, script, err := s.scriptFromRequest(c)
	if err != nil {
		return err
	}
	if script.Status != models.StatusRejected {
		return apperr.New(apperr.KindConflict, "Only rejected scripts can be deleted")
	}

	if err := s.store.DeleteScript(c.UserContext(), script.ID); err != nil {
		return storeError(err, apperr.KindConflict, "Failed to delete script")
	}
	s.retriever.Evict(c.UserContext(), script.ProfileID)

	s.publish(c.UserContext(), events.New(events.ScriptDeleted, account, script.ProfileID, script.ID))
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handlePurgeRejected(c *fiber.Ctx) error {
	account, err := accountID(c)
	if err != nil {
		return err
	}
	profile, err := s.ownedProfile(c.UserContext(), account, c.Params("id"))
	if err != nil {
		return err
	}

	n, err := s.store.PurgeRejected(c.UserContext(), profile.ID)
	if err != nil {
		return apperr.Wrap(err, apperr.KindStorageFailed, "Failed to empty trash")
	}
	if n > 0 {
		s.retriever.Evict(c.UserContext(), profile.ID)
		s.publish(c.UserContext(), events.New(events.ScriptsPurged, account, profile.ID, ""))
	}
	return c.JSON(fiber.Map{"deleted": n})
}

// scriptFromRequest loads the :id script and checks that its profile
// belongs to the caller.
func (s *Server) scriptFromRequest(c *fiber.Ctx) (string, *models.Script, error) {
	account, err := accountID(c)
	if err != nil {
		return "", nil, err
	}
	script, err := s.ownedScript(c.UserContext(), account, c.Params("id"))
	if err != nil {
		return "", nil, err
	}
	return account, script, nil
}

func (s *Server) ownedScript(ctx context.Context, account, id string) (*models.Script, error) {
	script, err := s.store.GetScript(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.New(apperr.KindNotFound, "Script not found")
	}
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindStorageFailed, "Failed to fetch script")
	}
	if _, err := s.ownedProfile(ctx, account, script.ProfileID); err != nil {
		if apperr.IsKind(err, apperr.KindProfileNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "Script not found")
		}
		return nil, err
	}
	return script, nil
}

func (s *Server) publish(ctx context.Context, event events.ScriptEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		slog.Error("Failed to publish script event", "type", event.Type, "profile_id", event.ProfileID, "error", err)
	}
}
