package api

import (
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illegalcall/reelwriter/internal/events"
	"github.com/illegalcall/reelwriter/internal/models"
	"github.com/illegalcall/reelwriter/internal/prompt"
	"github.com/illegalcall/reelwriter/internal/rag"
)

var profileCols = []string{"id", "account_id", "name", "niche", "city", "tone_of_voice", "created_at"}

func expectProfile(env *testEnv, id, account string, tone interface{}) {
	env.mock.ExpectQuery(regexp.QuoteMeta("FROM profiles WHERE id = $1")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(profileCols).AddRow(id, account, "Luigi's", "pizzeria", "Naples", tone, time.Now()))
}

func expectReserve(env *testEnv, used, limit int) {
	env.mock.ExpectQuery(regexp.QuoteMeta("UPDATE saas_accounts")).
		WithArgs(testAccount, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"credits_used_today", "daily_credits_limit"}).AddRow(used, limit))
}

// cacheNoExamples primes the example cache so retrieval needs no queries.
func cacheNoExamples(t *testing.T, env *testEnv, profileID string) {
	require.NoError(t, env.redis.Set(rag.CacheKey(profileID), `{"source":"","scripts":null}`))
}

func TestHandleGenerateQuotaExceeded(t *testing.T) {
	env := setupTestServer(t)

	env.mock.ExpectQuery(regexp.QuoteMeta("UPDATE saas_accounts")).
		WillReturnRows(sqlmock.NewRows([]string{"credits_used_today", "daily_credits_limit"}))
	env.mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs(testAccount).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	resp := env.do(t, "POST", "/api/generate", models.GenerateRequest{ProfileID: "p1", Offer: "2 for 1"})

	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "quota_exceeded", decode(t, resp)["code"])
	assert.Empty(t, env.generator.requests)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestHandleGenerate(t *testing.T) {
	env := setupTestServer(t)
	cacheNoExamples(t, env, "p1")
	env.generator.answer = `{"gancho_type":"Shock","a":{"visual":"oven","audio":"Nobody tells you this."},` +
		`"u":{"visual":"dough","audio":"48 hours."},"r":{"visual":"card","audio":"Only 10 left."}}`

	expectReserve(env, 5, 5)
	expectProfile(env, "p1", testAccount, nil)
	env.mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO scripts")).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	env.mock.ExpectBegin()
	env.mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(testAccount).
		WillReturnRows(sqlmock.NewRows([]string{"current_streak", "last_activity_date"}).AddRow(4, time.Now().AddDate(0, 0, -1)))
	env.mock.ExpectExec(regexp.QuoteMeta("UPDATE saas_accounts SET current_streak = $1")).
		WithArgs(5, sqlmock.AnyArg(), testAccount).
		WillReturnResult(sqlmock.NewResult(0, 1))
	env.mock.ExpectCommit()

	resp := env.do(t, "POST", "/api/generate", models.GenerateRequest{ProfileID: "p1", Offer: "2 for 1", Duration: "45s"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	result := decode(t, resp)
	assert.Equal(t, "Shock", result["hook_type"])
	assert.Equal(t, "draft", result["status"])
	assert.Equal(t, false, result["is_viral"])
	content := result["content"].(map[string]interface{})
	closing := content["a_final"].(map[string]interface{})
	assert.Equal(t, "Nobody tells you this.", closing["audio"], "closing falls back to the opening")

	require.Len(t, env.generator.requests, 1)
	assert.Equal(t, prompt.TemperatureExploratory, env.generator.requests[0].Temperature)

	published := env.producer.events(t)
	require.Len(t, published, 1)
	assert.Equal(t, events.ScriptGenerated, published[0].Type)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestHandleGenerateForeignProfile(t *testing.T) {
	env := setupTestServer(t)
	cacheNoExamples(t, env, "p2")

	expectReserve(env, 1, 5)
	expectProfile(env, "p2", "someone-else", nil)
	env.mock.ExpectExec(regexp.QuoteMeta("GREATEST(credits_used_today - 1, 0)")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	resp := env.do(t, "POST", "/api/generate", models.GenerateRequest{ProfileID: "p2", Offer: "2 for 1"})

	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "profile_not_found", decode(t, resp)["code"])
	assert.Empty(t, env.generator.requests)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestHandleGenerateMalformedAnswer(t *testing.T) {
	env := setupTestServer(t)
	cacheNoExamples(t, env, "p1")
	env.generator.answer = `{"gancho_type":"X","content":{"u":{"audio":"no opening"}}}`

	expectReserve(env, 1, 5)
	expectProfile(env, "p1", testAccount, nil)
	env.mock.ExpectExec(regexp.QuoteMeta("GREATEST(credits_used_today - 1, 0)")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	resp := env.do(t, "POST", "/api/generate", models.GenerateRequest{ProfileID: "p1", Offer: "2 for 1"})

	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
	result := decode(t, resp)
	assert.Equal(t, "generation_failed", result["code"])
	assert.Contains(t, result["error"], "opening segment")
	assert.Empty(t, env.producer.messages)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestHandleRemix(t *testing.T) {
	env := setupTestServer(t)
	cacheNoExamples(t, env, "p1")
	env.generator.answer = `{"visual":"close up","audio":"Tap the link."}`

	expectReserve(env, 2, 5)
	expectProfile(env, "p1", testAccount, 85)

	resp := env.do(t, "POST", "/api/remix", models.RemixRequest{ProfileID: "p1", BlockKey: "a_final", Context: "2 for 1"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	result := decode(t, resp)
	assert.Equal(t, "close up", result["visual"])
	assert.Equal(t, "Tap the link.", result["audio"])

	system := env.generator.requests[0].System
	assert.Contains(t, system, prompt.PersonaFor(85).Block())
	assert.Contains(t, system, prompt.ObjectiveFor(models.SegmentAction))

	published := env.producer.events(t)
	require.Len(t, published, 1)
	assert.Equal(t, events.ScriptRemixed, published[0].Type)
	assert.NoError(t, env.mock.ExpectationsWereMet(), "remix must not touch the streak")
}

func TestHandleRemixMissingBlockKey(t *testing.T) {
	env := setupTestServer(t)

	resp := env.do(t, "POST", "/api/remix", models.RemixRequest{ProfileID: "p1"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "malformed_request", decode(t, resp)["code"])
	assert.NoError(t, env.mock.ExpectationsWereMet())
}
