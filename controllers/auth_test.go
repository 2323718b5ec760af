package controllers

import (
	"net/http"
	"testing"

	"virtualwardrobe/models"
	"virtualwardrobe/test"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(test.NewJSONRequest(http.MethodPost, "/auth/register", models.RegisterIn{
		Email:    "New.User@Example.com",
		Password: "Sup3rSecret",
		UserName: "newbie",
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var registered models.SuccessOut
	decode(t, rec, &registered)
	assert.True(t, registered.Success)

	var user models.UserAccount
	require.NoError(t, env.db.First(&user, "email = ?", "new.user@example.com").Error)
	assert.NotEqual(t, "Sup3rSecret", user.PasswordHash)
	assert.Equal(t, models.ProviderLocal, user.Provider)

	rec = env.do(test.NewJSONRequest(http.MethodPost, "/auth/login", models.LoginIn{Email: "new.user@example.com", Password: "Sup3rSecret"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var login models.LoginOut
	decode(t, rec, &login)
	assert.NotEmpty(t, login.Token)
	assert.NotEmpty(t, login.RefreshToken)
	assert.Equal(t, user.ID, login.User.UID)
	assert.Equal(t, "newbie", login.User.UserName)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	test.FakeUser(env.db, "taken@example.com")

	rec := env.do(test.NewJSONRequest(http.MethodPost, "/auth/register", models.RegisterIn{Email: "taken@example.com", Password: "Sup3rSecret"}))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterWeakPassword(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(test.NewJSONRequest(http.MethodPost, "/auth/register", models.RegisterIn{Email: "weak@example.com", Password: "alllowercase"}))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body struct {
		Error  string `json:"error"`
		Errors []struct {
			Field string `json:"field"`
		} `json:"errors"`
	}
	decode(t, rec, &body)
	assert.Equal(t, "Validation error", body.Error)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "password", body.Errors[0].Field)
}

func TestLoginBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	test.FakeUser(env.db, "user@example.com")

	rec := env.do(test.NewJSONRequest(http.MethodPost, "/auth/login", models.LoginIn{Email: "user@example.com", Password: "WrongPass1"}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(test.NewJSONRequest(http.MethodPost, "/auth/login", models.LoginIn{Email: "nobody@example.com", Password: "Passw0rdOk"}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshToken(t *testing.T) {
	env := newTestEnv(t)
	user := test.FakeUser(env.db, "")
	pair, err := test.TokenIssuer().Issue(user)
	require.NoError(t, err)

	rec := env.do(test.NewJSONRequest(http.MethodPost, "/auth/refresh", models.RefreshIn{RefreshToken: pair.RefreshToken}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var refreshed models.TokenPairOut
	decode(t, rec, &refreshed)
	assert.NotEmpty(t, refreshed.Token)

	rec = env.do(test.NewJSONRequest(http.MethodPost, "/auth/refresh", echo.Map{}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// access tokens are not refresh tokens
	rec = env.do(test.NewJSONRequest(http.MethodPost, "/auth/refresh", models.RefreshIn{RefreshToken: pair.Token}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(test.NewJSONRequest(http.MethodGet, "/wardrobe/items", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// valid signature, unknown user
	rec = env.do(test.NewAuthRequest(http.MethodGet, "/wardrobe/items", "5f0e2a0c-0000-0000-0000-000000000000"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPushTokenRegistration(t *testing.T) {
	env := newTestEnv(t)
	user := test.FakeUser(env.db, "")

	rec := env.do(test.NewJSONAuthRequest(http.MethodPost, "/profile/push-token", user.ID, models.UserPushIn{Token: "fcm-token-1", Platform: models.PlatformIOS}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var token models.UserPushToken
	require.NoError(t, env.db.First(&token, "token = ?", "fcm-token-1").Error)
	assert.Equal(t, user.ID, token.UserAccountID)
	assert.True(t, token.Active)

	rec = env.do(test.NewJSONAuthRequest(http.MethodPost, "/profile/push-token", user.ID, models.UserPushIn{Token: "fcm-token-2", Platform: "symbian"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
