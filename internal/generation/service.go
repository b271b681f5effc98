// Package generation runs the script pipeline: credit reservation, example
// retrieval, prompt assembly, the model call, reconciliation, persistence
// and ledger updates.
package generation

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/illegalcall/reelwriter/internal/apperr"
	"github.com/illegalcall/reelwriter/internal/events"
	"github.com/illegalcall/reelwriter/internal/ledger"
	"github.com/illegalcall/reelwriter/internal/llm"
	"github.com/illegalcall/reelwriter/internal/metrics"
	"github.com/illegalcall/reelwriter/internal/models"
	"github.com/illegalcall/reelwriter/internal/prompt"
	"github.com/illegalcall/reelwriter/internal/rag"
	"github.com/illegalcall/reelwriter/internal/reconcile"
	"github.com/illegalcall/reelwriter/internal/storage"
)

const (
	opGenerate = "generate"
	opRemix    = "remix"
)

// Ledger meters credits and streaks.
type Ledger interface {
	Reserve(ctx context.Context, accountID string) (ledger.Reservation, error)
	Release(ctx context.Context, r ledger.Reservation) error
	RecordActivity(ctx context.Context, accountID string) (int, error)
}

// Profiles loads creator profiles.
type Profiles interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
}

// Scripts persists generated scripts.
type Scripts interface {
	CreateScript(ctx context.Context, script *models.Script) error
	GetScript(ctx context.Context, id string) (*models.Script, error)
	UpdateContent(ctx context.Context, id string, content models.ScriptContent) error
}

// Retriever finds reference scripts for a profile.
type Retriever interface {
	Examples(ctx context.Context, profileID string) (rag.Examples, error)
	Evict(ctx context.Context, profileID string)
}

type Service struct {
	ledger    Ledger
	profiles  Profiles
	scripts   Scripts
	retriever Retriever
	generator llm.Generator
	publisher events.Publisher
	assembler *prompt.Assembler
}

// NewService wires the pipeline. publisher may be nil.
func NewService(l Ledger, profiles Profiles, scripts Scripts, retriever Retriever, generator llm.Generator, publisher events.Publisher) *Service {
	return &Service{
		ledger:    l,
		profiles:  profiles,
		scripts:   scripts,
		retriever: retriever,
		generator: generator,
		publisher: publisher,
		assembler: prompt.NewAssembler(),
	}
}

// Generate creates and stores a new draft script for one of the caller's
// profiles.
func (s *Service) Generate(ctx context.Context, accountID string, req models.GenerateRequest) (script *models.Script, err error) {
	if strings.TrimSpace(req.ProfileID) == "" {
		return nil, apperr.New(apperr.KindMalformedRequest, "profileId is required")
	}
	if strings.TrimSpace(req.Offer) == "" {
		return nil, apperr.New(apperr.KindMalformedRequest, "offer is required")
	}
	duration := prompt.Duration(strings.TrimSpace(req.Duration))
	if duration == "" {
		duration = prompt.DefaultDuration
	}
	if !duration.Known() {
		slog.Warn("Unknown duration, generating without duration rule", "duration", duration, "profile_id", req.ProfileID)
	}

	start := time.Now()
	defer func() { observe(opGenerate, start, err) }()

	reservation, err := s.reserve(ctx, accountID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			s.release(reservation)
		}
	}()

	profile, examples, err := s.loadContext(ctx, accountID, req.ProfileID)
	if err != nil {
		return nil, err
	}

	request := s.assembler.Generation(prompt.GenerationInput{
		Profile:         *profile,
		Duration:        duration,
		Offer:           req.Offer,
		MandatoryPhrase: req.MandatoryPhrase,
		ExampleSource:   examples.Source,
		Examples:        examples.Scripts,
	})

	raw, err := s.generator.GenerateJSON(ctx, request)
	if err != nil {
		return nil, generationError(err)
	}

	env, err := reconcile.Decode(raw)
	if err != nil {
		return nil, generationError(err)
	}
	metrics.ReconcileShapeTotal.WithLabelValues(env.Shape.String()).Inc()
	result, err := reconcile.Reconcile(env)
	if err != nil {
		return nil, generationError(err)
	}

	script = &models.Script{
		ProfileID: profile.ID,
		HookType:  result.HookType,
		Content:   result.Content,
		Status:    models.StatusDraft,
		IsViral:   false,
	}
	if err := s.scripts.CreateScript(ctx, script); err != nil {
		return nil, apperr.Wrap(err, apperr.KindStorageFailed, "failed to save script")
	}

	// The script is stored and the credit stays spent; a streak failure is
	// only logged.
	if streak, err := s.ledger.RecordActivity(ctx, accountID); err != nil {
		slog.Error("Failed to update streak", "account_id", accountID, "error", err)
	} else {
		slog.Info("Script generated", "script_id", script.ID, "profile_id", profile.ID,
			"examples", examples.Source, "credits_used", reservation.Used, "streak", streak)
	}

	s.publish(ctx, events.New(events.ScriptGenerated, accountID, profile.ID, script.ID))
	return script, nil
}

// Remix rewrites one segment. With a script id and a canonical segment key
// the new segment is also written into that script.
func (s *Service) Remix(ctx context.Context, accountID string, req models.RemixRequest) (segment models.Segment, err error) {
	if strings.TrimSpace(req.ProfileID) == "" {
		return models.Segment{}, apperr.New(apperr.KindMalformedRequest, "profileId is required")
	}
	key := models.SegmentKey(strings.TrimSpace(req.BlockKey))
	if key == "" {
		return models.Segment{}, apperr.New(apperr.KindMalformedRequest, "blockKey is required")
	}
	if !key.Canonical() {
		slog.Warn("Unknown segment key, using generic objective", "block_key", key, "profile_id", req.ProfileID)
	}

	start := time.Now()
	defer func() { observe(opRemix, start, err) }()

	reservation, err := s.reserve(ctx, accountID)
	if err != nil {
		return models.Segment{}, err
	}
	defer func() {
		if err != nil {
			s.release(reservation)
		}
	}()

	profile, examples, err := s.loadContext(ctx, accountID, req.ProfileID)
	if err != nil {
		return models.Segment{}, err
	}

	var target *models.Script
	if req.ScriptID != "" && key.Canonical() {
		target, err = s.scripts.GetScript(ctx, req.ScriptID)
		if errors.Is(err, storage.ErrNotFound) || (err == nil && target.ProfileID != profile.ID) {
			return models.Segment{}, apperr.New(apperr.KindNotFound, "script not found")
		}
		if err != nil {
			return models.Segment{}, apperr.Wrap(err, apperr.KindStorageFailed, "failed to load script")
		}
	}

	request := s.assembler.Remix(prompt.RemixInput{
		Profile:  *profile,
		Segment:  key,
		Context:  req.Context,
		Examples: examples.Scripts,
	})

	raw, err := s.generator.GenerateJSON(ctx, request)
	if err != nil {
		return models.Segment{}, generationError(err)
	}
	segment, err = reconcile.Segment(raw, key)
	if err != nil {
		return models.Segment{}, generationError(err)
	}

	eventType := events.ScriptRemixed
	scriptID := ""
	if target != nil {
		content, err := target.Content.WithSegment(key, segment)
		if err != nil {
			return models.Segment{}, apperr.Wrap(err, apperr.KindMalformedRequest, "invalid segment")
		}
		if err := s.scripts.UpdateContent(ctx, target.ID, content); err != nil {
			return models.Segment{}, apperr.Wrap(err, apperr.KindStorageFailed, "failed to save remixed segment")
		}
		s.retriever.Evict(ctx, profile.ID)
		eventType, scriptID = events.ScriptContentUpdated, target.ID
	}

	slog.Info("Segment remixed", "profile_id", profile.ID, "block_key", key, "script_id", scriptID, "credits_used", reservation.Used)
	s.publish(ctx, events.New(eventType, accountID, profile.ID, scriptID))
	return segment, nil
}

func (s *Service) reserve(ctx context.Context, accountID string) (ledger.Reservation, error) {
	r, err := s.ledger.Reserve(ctx, accountID)
	switch {
	case err == nil:
		return r, nil
	case errors.Is(err, ledger.ErrQuotaExceeded):
		return ledger.Reservation{}, apperr.Wrap(err, apperr.KindQuotaExceeded, "no credits left for today")
	case errors.Is(err, ledger.ErrAccountNotFound):
		return ledger.Reservation{}, apperr.Wrap(err, apperr.KindQuotaExceeded, "account has no credit allowance")
	default:
		return ledger.Reservation{}, apperr.Wrap(err, apperr.KindStorageFailed, "failed to check credits")
	}
}

// release returns a reserved credit. It runs on a fresh context so that a
// cancelled request still gets its credit back.
func (s *Service) release(r ledger.Reservation) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.ledger.Release(ctx, r); err != nil {
		slog.Error("Failed to release credit", "account_id", r.AccountID, "day", r.Day, "error", err)
	}
}

// loadContext loads the profile and its examples concurrently. The profile
// must belong to the account.
func (s *Service) loadContext(ctx context.Context, accountID, profileID string) (*models.Profile, rag.Examples, error) {
	var (
		profile  *models.Profile
		examples rag.Examples
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.profiles.GetProfile(gctx, profileID)
		if errors.Is(err, storage.ErrNotFound) || (err == nil && p.AccountID != accountID) {
			return apperr.New(apperr.KindProfileNotFound, "profile not found")
		}
		if err != nil {
			return apperr.Wrap(err, apperr.KindStorageFailed, "failed to load profile")
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		e, err := s.retriever.Examples(gctx, profileID)
		if err != nil {
			return apperr.Wrap(err, apperr.KindStorageFailed, "failed to load reference scripts")
		}
		examples = e
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, rag.Examples{}, err
	}

	source := string(examples.Source)
	if source == "" {
		source = "none"
	}
	metrics.ExampleSourceTotal.WithLabelValues(source).Inc()
	return profile, examples, nil
}

func (s *Service) publish(ctx context.Context, event events.ScriptEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		slog.Error("Failed to publish script event", "type", event.Type, "profile_id", event.ProfileID, "error", err)
	}
}

func generationError(err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperr.Wrap(err, apperr.KindGenerationFailed, err.Error())
}

func observe(op string, start time.Time, err error) {
	outcome := metrics.OutcomeSuccess
	switch {
	case err == nil:
	case apperr.IsKind(err, apperr.KindQuotaExceeded):
		outcome = metrics.OutcomeQuota
	default:
		outcome = metrics.OutcomeFailure
	}
	metrics.GenerationsTotal.WithLabelValues(op, outcome).Inc()
	metrics.GenerationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
