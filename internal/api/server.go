package api

import (
	"context"
	"errors"
	"log/slog"

	"github.com/IBM/sarama"
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	jwtware "github.com/gofiber/jwt/v3"
	jwtv4 "github.com/golang-jwt/jwt/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/illegalcall/reelwriter/internal/activity"
	"github.com/illegalcall/reelwriter/internal/apperr"
	"github.com/illegalcall/reelwriter/internal/config"
	"github.com/illegalcall/reelwriter/internal/events"
	"github.com/illegalcall/reelwriter/internal/generation"
	"github.com/illegalcall/reelwriter/internal/ledger"
	"github.com/illegalcall/reelwriter/internal/llm"
	"github.com/illegalcall/reelwriter/internal/rag"
	"github.com/illegalcall/reelwriter/internal/storage"
	"github.com/illegalcall/reelwriter/pkg/database"
)

// Authenticator verifies login credentials and returns the user id.
type Authenticator interface {
	SignIn(email, password string) (string, error)
}

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	db        *database.Clients
	auth      Authenticator
	store     *storage.Postgres
	ledger    *ledger.Ledger
	pipeline  *generation.Service
	retriever *rag.Retriever
	publisher events.Publisher
	activity  *activity.Counter
}

func NewServer(cfg *config.Config, db *database.Clients, producer sarama.SyncProducer, auth Authenticator, generator llm.Generator) *Server {
	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.Server.MaxRequests,
		Expiration: cfg.Server.RequestWindow,
	}))

	store := storage.NewPostgres(db.DB)
	l := ledger.New(db.DB)
	publisher := events.NewKafkaPublisher(producer, cfg.Kafka.Topic)
	retriever := rag.NewRetriever(store, db.Redis, cfg.RAG.CacheTTL)

	server := &Server{
		app:       app,
		cfg:       cfg,
		db:        db,
		auth:      auth,
		store:     store,
		ledger:    l,
		pipeline:  generation.NewService(l, store, store, retriever, generator, publisher),
		retriever: retriever,
		publisher: publisher,
		activity:  activity.NewCounter(db.Redis),
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := s.app.Group("/api")

	// Public routes
	api.Post("/login", s.handleLogin)

	// Protected routes
	protected := api.Group("", jwtware.New(jwtware.Config{
		SigningKey: []byte(s.cfg.JWT.Secret),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return apperr.Wrap(err, apperr.KindUnauthenticated, "missing or invalid token")
		},
	}))

	protected.Post("/generate", s.handleGenerate)
	protected.Post("/remix", s.handleRemix)

	protected.Get("/account", s.handleGetAccount)

	protected.Get("/profiles", s.handleListProfiles)
	protected.Post("/profiles", s.handleCreateProfile)
	protected.Put("/profiles/:id", s.handleUpdateProfile)
	protected.Delete("/profiles/:id", s.handleDeleteProfile)
	protected.Get("/profiles/:id/scripts", s.handleListScripts)
	protected.Delete("/profiles/:id/scripts/rejected", s.handlePurgeRejected)
	protected.Get("/profiles/:id/activity", s.handleGetActivity)

	protected.Put("/scripts/:id/content", s.handleUpdateContent)
	protected.Patch("/scripts/:id/status", s.handleUpdateStatus)
	protected.Patch("/scripts/:id/viral", s.handleSetViral)
	protected.Delete("/scripts/:id", s.handleDeleteScript)
}

func (s *Server) Start() error {
	return s.app.Listen(s.cfg.Server.Port)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// errorHandler renders every handler error as {"error", "code"}.
func errorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{
			"error": fiberErr.Message,
			"code":  apperr.KindForStatus(fiberErr.Code),
		})
	}

	appErr := apperr.From(err)
	status := appErr.HTTPStatus()
	if status >= fiber.StatusInternalServerError {
		slog.Error("Request failed", "method", c.Method(), "path", c.Path(), "kind", appErr.Kind, "error", err)
	}
	return c.Status(status).JSON(fiber.Map{
		"error": appErr.Message,
		"code":  appErr.Kind,
	})
}

// accountID returns the authenticated account, which is the Supabase user
// id carried in the token's sub claim.
func accountID(c *fiber.Ctx) (string, error) {
	token, ok := c.Locals("user").(*jwtv4.Token)
	if !ok {
		return "", apperr.New(apperr.KindUnauthenticated, "missing token")
	}
	claims, ok := token.Claims.(jwtv4.MapClaims)
	if !ok {
		return "", apperr.New(apperr.KindUnauthenticated, "invalid token claims")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", apperr.New(apperr.KindUnauthenticated, "token has no subject")
	}
	return sub, nil
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return apperr.Wrap(err, apperr.KindMalformedRequest, "Invalid request body")
	}
	return nil
}
