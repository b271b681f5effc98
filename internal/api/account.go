package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/illegalcall/reelwriter/internal/activity"
	"github.com/illegalcall/reelwriter/internal/apperr"
	"github.com/illegalcall/reelwriter/internal/ledger"
)

func (s *Server) handleGetAccount(c *fiber.Ctx) error {
	account, err := accountID(c)
	if err != nil {
		return err
	}
	summary, err := s.ledger.Summary(c.UserContext(), account)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		return apperr.Wrap(err, apperr.KindNotFound, "Account not found")
	}
	if err != nil {
		return apperr.Wrap(err, apperr.KindStorageFailed, "Failed to fetch account")
	}
	return c.JSON(summary)
}

// handleGetActivity returns the event counters of a profile for ?day
// (YYYY-MM-DD, default today).
func (s *Server) handleGetActivity(c *fiber.Ctx) error {
	account, err := accountID(c)
	if err != nil {
		return err
	}
	profile, err := s.ownedProfile(c.UserContext(), account, c.Params("id"))
	if err != nil {
		return err
	}

	day, err := activity.ParseDay(c.Query("day"), time.Now())
	if err != nil {
		return apperr.Wrap(err, apperr.KindMalformedRequest, "day must be YYYY-MM-DD")
	}
	counts, err := s.activity.Day(c.UserContext(), profile.ID, day)
	if err != nil {
		return apperr.Wrap(err, apperr.KindStorageFailed, "Failed to fetch activity")
	}
	return c.JSON(fiber.Map{
		"profile_id": profile.ID,
		"day":        day.Format("2006-01-02"),
		"counts":     counts,
	})
}
