// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Imfractical/uprofile/internal/account/accounttest"
	"github.com/Imfractical/uprofile/internal/observability"
	"github.com/Imfractical/uprofile/internal/validation"
	"github.com/Imfractical/uprofile/internal/web"
)

const alicePassword = "Str0ng!Pass"

type fixture struct {
	t       *testing.T
	svcs    *accounttest.Services
	handler http.Handler

	mu     sync.Mutex
	tokens map[string]string
}

// newFixture builds the API over in-memory services. Reset tokens are
// captured unless opts already carries a delivery.
func newFixture(t *testing.T, opts web.Options) *fixture {
	t.Helper()
	return buildFixture(t, opts, true)
}

func buildFixture(t *testing.T, opts web.Options, captureResets bool) *fixture {
	t.Helper()
	f := &fixture{t: t, svcs: accounttest.NewServices(t), tokens: map[string]string{}}
	if captureResets && opts.ResetDelivery == nil {
		opts.ResetDelivery = func(_ context.Context, identifier, token string) error {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.tokens[identifier] = token
			return nil
		}
	}
	h, err := web.NewRouter(web.Dependencies{
		Accounts: f.svcs.Accounts,
		Resets:   f.svcs.Resets,
		Profiles: f.svcs.Profiles,
	}, opts)
	require.NoError(t, err)
	f.handler = h
	return f
}

func (f *fixture) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	f.t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(f.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) resetToken(identifier string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokens[identifier]
}

func registration(identifier string) map[string]string {
	return map[string]string{
		"identifier":              identifier,
		"identifier_confirmation": identifier,
		"password":                alicePassword,
		"password_confirmation":   alicePassword,
		"given_name":              "Alice",
		"family_name":             "Liddell",
		"birth_date":              time.Now().AddDate(-30, 0, 0).Format("2006-01-02"),
	}
}

type grantBody struct {
	Account struct {
		ID         string `json:"id"`
		Identifier string `json:"identifier"`
		GivenName  string `json:"given_name"`
		Active     bool   `json:"active"`
	} `json:"account"`
	Session struct {
		ID        string    `json:"id"`
		ExpiresAt time.Time `json:"expires_at"`
	} `json:"session"`
	Token string `json:"token"`
}

type profileBody struct {
	Account struct {
		ID         string `json:"id"`
		Identifier string `json:"identifier"`
		GivenName  string `json:"given_name"`
	} `json:"account"`
	Profile struct {
		BirthDate string `json:"birth_date"`
		Bio       string `json:"bio"`
		Location  string `json:"location"`
	} `json:"profile"`
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func failureCodes(t *testing.T, rec *httptest.ResponseRecorder) []validation.Code {
	t.Helper()
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	return decodeBody[validation.Outcome](t, rec).Codes()
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == web.SessionCookie {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", web.SessionCookie)
	return nil
}

// register creates an account and returns its session token.
func (f *fixture) register(identifier string) (grantBody, string) {
	f.t.Helper()
	rec := f.do(http.MethodPost, "/v1/accounts", registration(identifier), "")
	require.Equal(f.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[grantBody](f.t, rec), sessionCookie(f.t, rec).Value
}

func TestGrantBodyTokenAuthenticatesBearerRequests(t *testing.T) {
	f := newFixture(t, web.Options{})
	grant, cookie := f.register("alice@example.com")
	require.NotEmpty(t, grant.Token)
	assert.Equal(t, cookie, grant.Token, "body and cookie carry the same session")

	rec := f.do(http.MethodPost, "/v1/sessions", map[string]string{
		"identifier": "alice@example.com",
		"password":   alicePassword,
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	login := decodeBody[grantBody](t, rec)
	require.NotEmpty(t, login.Token)
	assert.NotEqual(t, grant.Token, login.Token)

	rec = f.do(http.MethodGet, "/v1/accounts/"+login.Account.ID, nil, login.Token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "alice@example.com", decodeBody[profileBody](t, rec).Account.Identifier, "owner view via bearer token")
}

func TestNewRouterRequiresServices(t *testing.T) {
	_, err := web.NewRouter(web.Dependencies{}, web.Options{})
	require.Error(t, err)
}

func TestPasswordPolicy(t *testing.T) {
	f := newFixture(t, web.Options{})

	rec := f.do(http.MethodGet, "/v1/password-policy", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[struct {
		HelpTexts []string `json:"help_texts"`
	}](t, rec)
	assert.Equal(t, f.svcs.Accounts.PasswordHelpTexts(), body.HelpTexts)
}

func TestRegister(t *testing.T) {
	f := newFixture(t, web.Options{SecureCookies: true})

	rec := f.do(http.MethodPost, "/v1/accounts", registration("Alice@Example.com"), "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decodeBody[grantBody](t, rec)
	assert.Equal(t, "alice@example.com", body.Account.Identifier)
	assert.True(t, body.Account.Active)
	assert.NotEmpty(t, body.Session.ID)

	cookie := sessionCookie(t, rec)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, 1, f.svcs.Store.AccountCount())
}

func TestRegisterReportsEveryFailure(t *testing.T) {
	f := newFixture(t, web.Options{})

	req := registration("alice@example.com")
	req["identifier_confirmation"] = "bob@example.com"
	req["password_confirmation"] = "something else"
	req["birth_date"] = time.Now().AddDate(-5, 0, 0).Format("2006-01-02")

	rec := f.do(http.MethodPost, "/v1/accounts", req, "")
	codes := failureCodes(t, rec)
	assert.Contains(t, codes, validation.CodeIdentifierMismatch)
	assert.Contains(t, codes, validation.CodePasswordMismatch)
	assert.Contains(t, codes, validation.CodeUnderage)
	assert.Empty(t, rec.Result().Cookies())
	assert.Zero(t, f.svcs.Store.AccountCount())
}

func TestRegisterRejectsTakenIdentifier(t *testing.T) {
	f := newFixture(t, web.Options{})
	f.register("alice@example.com")

	rec := f.do(http.MethodPost, "/v1/accounts", registration("ALICE@example.com"), "")
	assert.Equal(t, []validation.Code{validation.CodeIdentifierTaken}, failureCodes(t, rec))
}

func TestRegisterRejectsMalformedRequests(t *testing.T) {
	tests := []struct {
		name   string
		body   any
		status int
		code   validation.Code
		field  string
	}{
		{name: "not json", body: "{", status: http.StatusBadRequest},
		{name: "unknown field", body: `{"identifier":"a@example.com","admin":true}`, status: http.StatusBadRequest},
		{
			name: "bad birth date",
			body: func() map[string]string {
				r := registration("alice@example.com")
				r["birth_date"] = "31/12/1990"
				return r
			}(),
			status: http.StatusUnprocessableEntity,
			code:   validation.CodeInvalid,
			field:  "birth_date",
		},
		{
			name: "oversized password",
			body: func() map[string]string {
				r := registration("alice@example.com")
				r["password"] = strings.Repeat("a", 5000)
				return r
			}(),
			status: http.StatusUnprocessableEntity,
			code:   validation.CodeTooLong,
			field:  "password",
		},
		{name: "oversized body", body: `{"identifier":"` + strings.Repeat("a", 70<<10) + `"}`, status: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, web.Options{})
			rec := f.do(http.MethodPost, "/v1/accounts", tt.body, "")
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.code != "" {
				out := decodeBody[validation.Outcome](t, rec)
				require.Len(t, out.Failures, 1)
				assert.Equal(t, tt.code, out.Failures[0].Code)
				assert.Equal(t, tt.field, out.Failures[0].Field)
			}
			assert.Zero(t, f.svcs.Store.AccountCount())
		})
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(t, web.Options{})
	f.register("alice@example.com")

	rec := f.do(http.MethodPost, "/v1/sessions", map[string]string{
		"identifier": "alice@example.com",
		"password":   alicePassword,
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, sessionCookie(t, rec).Value)

	for _, creds := range []map[string]string{
		{"identifier": "alice@example.com", "password": "wrong"},
		{"identifier": "nobody@example.com", "password": alicePassword},
	} {
		rec := f.do(http.MethodPost, "/v1/sessions", creds, "")
		assert.Equal(t, []validation.Code{validation.CodeInvalidLogin}, failureCodes(t, rec))
	}
}

func TestLoginInactiveAccount(t *testing.T) {
	f := newFixture(t, web.Options{})
	grant, _ := f.register("alice@example.com")
	id := ulid.MustParse(grant.Account.ID)
	require.NoError(t, f.svcs.Accounts.SetActive(context.Background(), id, false))

	rec := f.do(http.MethodPost, "/v1/sessions", map[string]string{
		"identifier": "alice@example.com",
		"password":   alicePassword,
	}, "")
	assert.Equal(t, []validation.Code{validation.CodeInactiveAccount}, failureCodes(t, rec))
}

func TestAuthenticatedRoutesRequireSession(t *testing.T) {
	f := newFixture(t, web.Options{})

	routes := []struct{ method, path string }{
		{http.MethodGet, "/v1/accounts/me"},
		{http.MethodDelete, "/v1/sessions/current"},
		{http.MethodPut, "/v1/accounts/me/password"},
		{http.MethodPatch, "/v1/accounts/me/profile"},
		{http.MethodGet, "/v1/accounts/" + ulid.Make().String()},
	}
	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			assert.Equal(t, http.StatusUnauthorized, f.do(route.method, route.path, nil, "").Code)
			assert.Equal(t, http.StatusUnauthorized, f.do(route.method, route.path, nil, "bogus").Code)
		})
	}
}

func TestSessionCookieAuthenticates(t *testing.T) {
	f := newFixture(t, web.Options{})
	_, token := f.register("alice@example.com")

	req := httptest.NewRequest(http.MethodGet, "/v1/accounts/me", nil)
	req.AddCookie(&http.Cookie{Name: web.SessionCookie, Value: token})
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestViewProfiles(t *testing.T) {
	f := newFixture(t, web.Options{})
	alice, aliceToken := f.register("alice@example.com")
	_, bobToken := f.register("bob@example.com")

	rec := f.do(http.MethodGet, "/v1/accounts/me", nil, aliceToken)
	require.Equal(t, http.StatusOK, rec.Code)
	own := decodeBody[profileBody](t, rec)
	assert.Equal(t, "alice@example.com", own.Account.Identifier)
	assert.NotEmpty(t, own.Profile.BirthDate)

	rec = f.do(http.MethodGet, "/v1/accounts/"+alice.Account.ID, nil, bobToken)
	require.Equal(t, http.StatusOK, rec.Code)
	other := decodeBody[profileBody](t, rec)
	assert.Equal(t, alice.Account.ID, other.Account.ID)
	assert.Equal(t, "Alice", other.Account.GivenName)
	assert.Empty(t, other.Account.Identifier)
	assert.Empty(t, other.Profile.BirthDate)

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/v1/accounts/not-a-ulid", nil, bobToken).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/v1/accounts/"+ulid.Make().String(), nil, bobToken).Code)

	require.NoError(t, f.svcs.Accounts.SetActive(context.Background(), ulid.MustParse(alice.Account.ID), false))
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/v1/accounts/"+alice.Account.ID, nil, bobToken).Code)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t, web.Options{})
	_, token := f.register("alice@example.com")

	rec := f.do(http.MethodPatch, "/v1/accounts/me/profile", map[string]string{
		"bio":      "<script>alert(1)</script>Curious <b>girl</b>",
		"location": "Oxford",
	}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody[profileBody](t, rec)
	assert.Equal(t, "Curious girl", body.Profile.Bio)
	assert.Equal(t, "Oxford", body.Profile.Location)
	assert.Equal(t, "Alice", body.Account.GivenName)

	rec = f.do(http.MethodPatch, "/v1/accounts/me/profile", map[string]string{
		"location": strings.Repeat("x", 101),
	}, token)
	assert.Equal(t, []validation.Code{validation.CodeTooLong}, failureCodes(t, rec))
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t, web.Options{})
	_, token := f.register("alice@example.com")
	other := f.do(http.MethodPost, "/v1/sessions", map[string]string{
		"identifier": "alice@example.com",
		"password":   alicePassword,
	}, "")
	require.Equal(t, http.StatusOK, other.Code)
	otherToken := sessionCookie(t, other).Value

	rec := f.do(http.MethodPut, "/v1/accounts/me/password", map[string]string{
		"current_password":          "wrong",
		"new_password":              "N3w!Secret",
		"new_password_confirmation": "different",
	}, token)
	codes := failureCodes(t, rec)
	assert.Contains(t, codes, validation.CodeCurrentPasswordIncorrect)
	assert.Contains(t, codes, validation.CodePasswordMismatch)

	rec = f.do(http.MethodPut, "/v1/accounts/me/password", map[string]string{
		"current_password":          alicePassword,
		"new_password":              "N3w!Secret",
		"new_password_confirmation": "N3w!Secret",
	}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	fresh := sessionCookie(t, rec).Value
	assert.NotEqual(t, token, fresh)

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/v1/accounts/me", nil, token).Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/v1/accounts/me", nil, otherToken).Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/v1/accounts/me", nil, fresh).Code)
}

func TestLogout(t *testing.T) {
	f := newFixture(t, web.Options{})
	_, token := f.register("alice@example.com")

	rec := f.do(http.MethodDelete, "/v1/sessions/current", nil, token)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, -1, sessionCookie(t, rec).MaxAge)

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/v1/accounts/me", nil, token).Code)
}

func TestPasswordReset(t *testing.T) {
	f := newFixture(t, web.Options{})
	_, token := f.register("alice@example.com")

	rec := f.do(http.MethodPost, "/v1/password-resets", map[string]string{"identifier": "nobody@example.com"}, "")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Empty(t, f.resetToken("nobody@example.com"))

	rec = f.do(http.MethodPost, "/v1/password-resets", map[string]string{"identifier": "Alice@Example.com"}, "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	resetToken := f.resetToken("alice@example.com")
	require.NotEmpty(t, resetToken)

	confirm := map[string]string{
		"token":                     resetToken,
		"new_password":              "N3w!Secret",
		"new_password_confirmation": "N3w!Secret",
	}
	rec = f.do(http.MethodPost, "/v1/password-resets/confirm", confirm, "")
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/v1/accounts/me", nil, token).Code)

	rec = f.do(http.MethodPost, "/v1/password-resets/confirm", confirm, "")
	assert.Equal(t, []validation.Code{validation.CodeResetTokenInvalid}, failureCodes(t, rec))

	rec = f.do(http.MethodPost, "/v1/sessions", map[string]string{
		"identifier": "alice@example.com",
		"password":   "N3w!Secret",
	}, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPasswordResetRequiresIdentifier(t *testing.T) {
	f := newFixture(t, web.Options{})

	rec := f.do(http.MethodPost, "/v1/password-resets", map[string]string{}, "")
	out := decodeBody[validation.Outcome](t, rec)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, []validation.Failure{{
		Field:   "identifier",
		Code:    validation.CodeRequired,
		Message: "This field is required",
	}}, out.Failures)
}

func TestPasswordResetWithoutDelivery(t *testing.T) {
	ctx := context.Background()
	f := buildFixture(t, web.Options{}, false)
	f.register("alice@example.com")
	acct, err := f.svcs.Store.Accounts().GetByIdentifier(ctx, "alice@example.com")
	require.NoError(t, err)

	rec := f.do(http.MethodPost, "/v1/password-resets", map[string]string{"identifier": "alice@example.com"}, "")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
	assert.Equal(t, "password reset requests are not enabled", decodeBody[map[string]string](t, rec)["error"])
	assert.Empty(t, f.svcs.Store.ResetsOf(acct.ID), "no token issued")

	token, err := f.svcs.Resets.RequestReset(ctx, "alice@example.com")
	require.NoError(t, err)
	rec = f.do(http.MethodPost, "/v1/password-resets/confirm", map[string]string{
		"token":                     token,
		"new_password":              "N3w!Secret",
		"new_password_confirmation": "N3w!Secret",
	}, "")
	assert.Equal(t, http.StatusNoContent, rec.Code, "out-of-band tokens are still accepted")
}

func TestMetricsObserveRoutePattern(t *testing.T) {
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	f := newFixture(t, web.Options{Metrics: metrics})

	f.do(http.MethodGet, "/v1/password-policy", nil, "")
	f.do(http.MethodGet, "/v1/accounts/"+ulid.Make().String(), nil, "")
	f.do(http.MethodGet, "/nowhere", nil, "")

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/v1/password-policy", "200")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/v1/accounts/{id}", "401")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")), 0)
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, web.Options{AllowedOrigins: []string{"https://app.example"}})

	req := httptest.NewRequest(http.MethodOptions, "/v1/sessions", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}
