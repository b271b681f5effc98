package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"github.com/illegalcall/reelwriter/internal/models"
)

func TestHandleLogin(t *testing.T) {
	tests := []struct {
		name           string
		reqBody        models.LoginRequest
		setup          func(env *testEnv)
		expectedStatus int
		checkResponse  func(*testing.T, *testEnv, *http.Response)
	}{
		{
			name:    "successful login",
			reqBody: models.LoginRequest{Email: "owner@bakery.com", Password: "password"},
			setup: func(env *testEnv) {
				env.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO saas_accounts (id, daily_credits_limit) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING")).
					WithArgs(testAccount, 5).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			expectedStatus: fiber.StatusOK,
			checkResponse: func(t *testing.T, env *testEnv, resp *http.Response) {
				var result models.LoginResponse
				err := json.NewDecoder(resp.Body).Decode(&result)
				assert.NoError(t, err)

				assert.NotEmpty(t, result.Token)
				assert.Equal(t, "Bearer", result.TokenType)

				token, err := jwt.Parse(result.Token, func(token *jwt.Token) (interface{}, error) {
					return []byte(env.server.cfg.JWT.Secret), nil
				})
				assert.NoError(t, err)
				assert.True(t, token.Valid)

				claims := token.Claims.(jwt.MapClaims)
				assert.Equal(t, testAccount, claims["sub"])
				assert.Equal(t, "owner@bakery.com", claims["email"])
				exp := int64(claims["exp"].(float64))
				assert.Greater(t, exp, time.Now().Unix())
			},
		},
		{
			name:    "invalid credentials",
			reqBody: models.LoginRequest{Email: "wrong@bakery.com", Password: "wrong"},
			setup: func(env *testEnv) {
				env.auth.err = errors.New("invalid login credentials")
			},
			expectedStatus: fiber.StatusUnauthorized,
			checkResponse: func(t *testing.T, env *testEnv, resp *http.Response) {
				result := decode(t, resp)
				assert.Equal(t, "Invalid credentials", result["error"])
				assert.Equal(t, "unauthenticated", result["code"])
			},
		},
		{
			name:           "missing credentials",
			reqBody:        models.LoginRequest{},
			setup:          func(env *testEnv) {},
			expectedStatus: fiber.StatusBadRequest,
			checkResponse: func(t *testing.T, env *testEnv, resp *http.Response) {
				result := decode(t, resp)
				assert.Equal(t, "Email and password are required", result["error"])
				assert.Equal(t, "malformed_request", result["code"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestServer(t)
			tt.setup(env)

			body, _ := json.Marshal(tt.reqBody)
			req := httptest.NewRequest("POST", "/api/login", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")

			resp, err := env.server.app.Test(req)
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			tt.checkResponse(t, env, resp)
			assert.NoError(t, env.mock.ExpectationsWereMet())
		})
	}
}

func TestHandleLoginMalformedBody(t *testing.T) {
	env := setupTestServer(t)

	req := httptest.NewRequest("POST", "/api/login", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")

	resp, err := env.server.app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
