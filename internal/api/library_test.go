package api

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illegalcall/reelwriter/internal/activity"
	"github.com/illegalcall/reelwriter/internal/events"
	"github.com/illegalcall/reelwriter/internal/models"
	"github.com/illegalcall/reelwriter/internal/rag"
)

var scriptCols = []string{"id", "profile_id", "hook_type", "content", "status", "is_viral", "created_at"}

func expectScript(env *testEnv, id, profileID string, status models.ScriptStatus) {
	env.mock.ExpectQuery(regexp.QuoteMeta("FROM scripts WHERE id = $1")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(scriptCols).
			AddRow(id, profileID, "Shock", []byte(`{"a":{"visual":"v","audio":"hook"}}`), status, false, time.Now()))
}

func TestHandleUpdateStatus(t *testing.T) {
	env := setupTestServer(t)

	expectScript(env, "s1", "p1", models.StatusDraft)
	expectProfile(env, "p1", testAccount, nil)
	env.mock.ExpectExec(regexp.QuoteMeta("UPDATE scripts SET status = $1 WHERE id = $2")).
		WithArgs(models.StatusReady, "s1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	resp := env.do(t, "PATCH", "/api/scripts/s1/status", models.StatusRequest{Status: models.StatusReady})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ready", decode(t, resp)["status"])

	published := env.producer.events(t)
	require.Len(t, published, 1)
	assert.Equal(t, events.ScriptStatusChanged, published[0].Type)
	assert.Equal(t, "ready", published[0].Status)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestHandleUpdateStatusRejectsReservedStatus(t *testing.T) {
	env := setupTestServer(t)

	expectScript(env, "s1", "p1", models.StatusDraft)
	expectProfile(env, "p1", testAccount, nil)

	resp := env.do(t, "PATCH", "/api/scripts/s1/status", models.StatusRequest{Status: models.StatusPublished})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestHandleSetViral(t *testing.T) {
	env := setupTestServer(t)

	expectScript(env, "s1", "p1", models.StatusReady)
	expectProfile(env, "p1", testAccount, nil)
	env.mock.ExpectExec(regexp.QuoteMeta("UPDATE scripts SET is_viral = $1 WHERE id = $2")).
		WithArgs(true, "s1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	resp := env.do(t, "PATCH", "/api/scripts/s1/viral", models.ViralRequest{IsViral: true})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decode(t, resp)["is_viral"])
	assert.Equal(t, events.ScriptViralChanged, env.producer.events(t)[0].Type)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestHandleDeleteScript(t *testing.T) {
	t.Run("only rejected scripts", func(t *testing.T) {
		env := setupTestServer(t)
		expectScript(env, "s1", "p1", models.StatusReady)
		expectProfile(env, "p1", testAccount, nil)

		resp := env.do(t, "DELETE", "/api/scripts/s1", nil)
		assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
		assert.Empty(t, env.producer.messages)
		assert.NoError(t, env.mock.ExpectationsWereMet())
	})

	t.Run("rejected script is removed", func(t *testing.T) {
		env := setupTestServer(t)
		expectScript(env, "s1", "p1", models.StatusRejected)
		expectProfile(env, "p1", testAccount, nil)
		env.mock.ExpectExec(regexp.QuoteMeta("DELETE FROM scripts WHERE id = $1 AND status = 'rejected'")).
			WithArgs("s1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		resp := env.do(t, "DELETE", "/api/scripts/s1", nil)
		assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
		assert.Equal(t, events.ScriptDeleted, env.producer.events(t)[0].Type)
		assert.NoError(t, env.mock.ExpectationsWereMet())
	})
}

func TestScriptOfAnotherAccountIsHidden(t *testing.T) {
	env := setupTestServer(t)

	expectScript(env, "s9", "p9", models.StatusReady)
	expectProfile(env, "p9", "someone-else", nil)

	resp := env.do(t, "PUT", "/api/scripts/s9/content", models.ScriptContent{})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", decode(t, resp)["code"])
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestHandleListScripts(t *testing.T) {
	env := setupTestServer(t)

	expectProfile(env, "p1", testAccount, nil)
	env.mock.ExpectQuery(regexp.QuoteMeta("FROM scripts WHERE profile_id = $1 AND status = $2")).
		WithArgs("p1", models.StatusRejected).
		WillReturnRows(sqlmock.NewRows(scriptCols).
			AddRow("s1", "p1", "Shock", []byte(`{}`), models.StatusRejected, false, time.Now()))

	resp := env.do(t, "GET", "/api/profiles/p1/scripts?status=rejected", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	scripts := decode(t, resp)["scripts"].([]interface{})
	assert.Len(t, scripts, 1)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestHandlePurgeRejected(t *testing.T) {
	env := setupTestServer(t)

	expectProfile(env, "p1", testAccount, nil)
	env.mock.ExpectExec(regexp.QuoteMeta("DELETE FROM scripts WHERE profile_id = $1 AND status = 'rejected'")).
		WithArgs("p1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	resp := env.do(t, "DELETE", "/api/profiles/p1/scripts/rejected", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(3), decode(t, resp)["deleted"])
	assert.Equal(t, events.ScriptsPurged, env.producer.events(t)[0].Type)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestHandleCreateProfile(t *testing.T) {
	t.Run("limit reached", func(t *testing.T) {
		env := setupTestServer(t)
		env.mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM profiles WHERE account_id = $1")).
			WithArgs(testAccount).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

		resp := env.do(t, "POST", "/api/profiles", models.ProfileRequest{Name: "Luigi's", Niche: "pizzeria"})
		assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
		assert.NoError(t, env.mock.ExpectationsWereMet())
	})

	t.Run("created", func(t *testing.T) {
		env := setupTestServer(t)
		tone := 30
		env.mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM profiles WHERE account_id = $1")).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		env.mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO profiles")).
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

		resp := env.do(t, "POST", "/api/profiles", models.ProfileRequest{Name: " Luigi's ", Niche: "pizzeria", ToneOfVoice: &tone})
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
		result := decode(t, resp)
		assert.Equal(t, "Luigi's", result["name"])
		assert.Equal(t, testAccount, result["account_id"])
		assert.NotEmpty(t, result["id"])
		assert.NoError(t, env.mock.ExpectationsWereMet())
	})

	t.Run("tone out of range", func(t *testing.T) {
		env := setupTestServer(t)
		tone := 140
		resp := env.do(t, "POST", "/api/profiles", models.ProfileRequest{Name: "x", Niche: "y", ToneOfVoice: &tone})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})
}

func TestHandleGetAccount(t *testing.T) {
	env := setupTestServer(t)

	today := time.Now().UTC()
	env.mock.ExpectQuery(regexp.QuoteMeta("FROM saas_accounts WHERE id = $1")).
		WithArgs(testAccount).
		WillReturnRows(sqlmock.NewRows([]string{"id", "daily_credits_limit", "credits_used_today", "credits_date",
			"current_streak", "last_activity_date", "subscription_status"}).
			AddRow(testAccount, 5, 2, today, 3, today, "active"))

	resp := env.do(t, "GET", "/api/account", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	result := decode(t, resp)
	assert.Equal(t, float64(3), result["credits_remaining"])
	assert.Equal(t, float64(3), result["current_streak"])
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestHandleGetActivity(t *testing.T) {
	env := setupTestServer(t)

	day := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	env.redis.HSet(activity.Key("p1", day), "script.generated", "4")
	expectProfile(env, "p1", testAccount, nil)

	resp := env.do(t, "GET", "/api/profiles/p1/activity?day=2026-10-19", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	result := decode(t, resp)
	assert.Equal(t, "2026-10-19", result["day"])
	counts := result["counts"].(map[string]interface{})
	assert.Equal(t, float64(4), counts["script.generated"])
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestLibraryChangesEvictCachedExamples(t *testing.T) {
	env := setupTestServer(t)
	require.NoError(t, env.redis.Set(rag.CacheKey("p1"), `{"source":"ready","scripts":[{"id":"r1"},{"id":"r2"}]}`))

	expectScript(env, "v3", "p1", models.StatusReady)
	expectProfile(env, "p1", testAccount, nil)
	env.mock.ExpectExec(regexp.QuoteMeta("UPDATE scripts SET is_viral = $1 WHERE id = $2")).
		WithArgs(true, "v3").
		WillReturnResult(sqlmock.NewResult(0, 1))

	resp := env.do(t, "PATCH", "/api/scripts/v3/viral", models.ViralRequest{IsViral: true})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.False(t, env.redis.Exists(rag.CacheKey("p1")), "cached examples must not outlive the change")

	now := time.Now()
	env.mock.ExpectQuery(regexp.QuoteMeta("FROM scripts WHERE profile_id = $1 AND is_viral = TRUE")).
		WithArgs("p1", rag.MaxExamples).
		WillReturnRows(sqlmock.NewRows(scriptCols).
			AddRow("v3", "p1", "Shock", []byte(`{}`), models.StatusReady, true, now).
			AddRow("v2", "p1", "Shock", []byte(`{}`), models.StatusReady, true, now.Add(-time.Hour)).
			AddRow("v1", "p1", "Shock", []byte(`{}`), models.StatusReady, true, now.Add(-2*time.Hour)))

	examples, err := env.server.retriever.Examples(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, models.SourceViral, examples.Source)
	assert.Len(t, examples.Scripts, 3)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestPurgeEvictsCachedExamples(t *testing.T) {
	env := setupTestServer(t)
	require.NoError(t, env.redis.Set(rag.CacheKey("p1"), `{"source":"ready","scripts":[{"id":"r1"}]}`))

	expectProfile(env, "p1", testAccount, nil)
	env.mock.ExpectExec(regexp.QuoteMeta("DELETE FROM scripts WHERE profile_id = $1 AND status = 'rejected'")).
		WithArgs("p1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	resp := env.do(t, "DELETE", "/api/profiles/p1/scripts/rejected", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.False(t, env.redis.Exists(rag.CacheKey("p1")))
}
