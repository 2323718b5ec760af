package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"virtualwardrobe/dbhelper"
	"virtualwardrobe/logging"
	"virtualwardrobe/services"
	"virtualwardrobe/test"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	e         *echo.Echo
	db        *gorm.DB
	blobs     *test.FakeObjectStore
	generator *test.FakeGenerator
	enqueuer  *test.FakeEnqueuer
}

func newTestEnv(t *testing.T) *testEnv {
	db := dbhelper.SetupTestDB(t)
	env := &testEnv{
		db:        db,
		blobs:     test.NewFakeObjectStore(),
		generator: &test.FakeGenerator{},
		enqueuer:  &test.FakeEnqueuer{},
	}
	env.e = SetupServer(Deps{
		Config:    test.TestConfig(),
		DB:        db,
		Identity:  &services.JWTIdentityProvider{Issuer: test.TokenIssuer()},
		Tokens:    test.TokenIssuer(),
		Store:     env.blobs,
		URLs:      env.blobs,
		Generator: env.generator,
		Enqueuer:  env.enqueuer,
		Logger:    logging.NewTestLogger(t),
	})
	return env
}

func (env *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
}
