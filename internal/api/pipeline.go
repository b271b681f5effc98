package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/illegalcall/reelwriter/internal/models"
)

func (s *Server) handleGenerate(c *fiber.Ctx) error {
	account, err := accountID(c)
	if err != nil {
		return err
	}
	var req models.GenerateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	script, err := s.pipeline.Generate(c.UserContext(), account, req)
	if err != nil {
		return err
	}
	return c.JSON(script)
}

func (s *Server) handleRemix(c *fiber.Ctx) error {
	account, err := accountID(c)
	if err != nil {
		return err
	}
	var req models.RemixRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	segment, err := s.pipeline.Remix(c.UserContext(), account, req)
	if err != nil {
		return err
	}
	return c.JSON(segment)
}
