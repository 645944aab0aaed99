package auth

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/akeren/archive-waitlist/config/router"
	"github.com/akeren/archive-waitlist/internal/log"
	"github.com/akeren/archive-waitlist/internal/models"
	"github.com/akeren/archive-waitlist/internal/session"
	apperrors "github.com/akeren/archive-waitlist/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type stubFactory struct {
	service AuthService
	options ControllerOptions
}

func (f *stubFactory) CreateService() AuthService { return f.service }

func (f *stubFactory) CreateController() *router.RESTController {
	return NewAuthController(f, f.options)
}

var testCookie = session.CookieConfig{Name: "app_session_id", SameSite: http.SameSiteLaxMode}

func newAuthRouter(t *testing.T, service AuthService, provider OIDCProvider) *router.RouterService {
	t.Helper()

	rs := router.CreateRouterService(log.NewLogger(io.Discard, slog.LevelError), &router.RouterConfig{RequestTimeout: 5 * time.Second})
	rs.MountController((&stubFactory{
		service: service,
		options: ControllerOptions{Cookie: testCookie, OIDC: provider, PostLoginRedirect: "/welcome"},
	}).CreateController())
	return rs
}

func do(rs *router.RouterService, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)
	return w
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func testGrant() *SessionGrant {
	email := "test@example.com"
	return &SessionGrant{
		User:      &models.User{ID: 1, OpenID: "local:test", Email: &email, Role: models.UserRoleUser},
		Token:     "signed.session.token",
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func TestLoginHandler(t *testing.T) {
	t.Run("sets the session cookie", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		service := NewMockAuthService(ctrl)
		service.EXPECT().
			Login(gomock.Any(), &LoginRequest{Email: "test@example.com", Password: "pw"}).
			Return(testGrant(), nil)

		req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", bytes.NewBufferString(`{"email":"test@example.com","password":"pw"}`))
		req.Header.Set("Content-Type", "application/json")
		w := do(newAuthRouter(t, service, nil), req)

		require.Equal(t, http.StatusOK, w.Code)
		cookie := findCookie(w, "app_session_id")
		require.NotNil(t, cookie)
		assert.Equal(t, "signed.session.token", cookie.Value)
		assert.True(t, cookie.HttpOnly)

		var body struct {
			Data LoginResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "local:test", body.Data.User.OpenID)
		assert.Equal(t, "signed.session.token", body.Data.Token)
	})

	t.Run("bad credentials", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		service := NewMockAuthService(ctrl)
		service.EXPECT().Login(gomock.Any(), gomock.Any()).Return(nil, apperrors.NewUnauthorizedError("Invalid email or password", nil))

		req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", bytes.NewBufferString(`{"email":"test@example.com","password":"nope"}`))
		req.Header.Set("Content-Type", "application/json")
		w := do(newAuthRouter(t, service, nil), req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Nil(t, findCookie(w, "app_session_id"))
	})

	t.Run("malformed body", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		service := NewMockAuthService(ctrl)

		req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", bytes.NewBufferString(`{`))
		req.Header.Set("Content-Type", "application/json")
		w := do(newAuthRouter(t, service, nil), req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLogoutHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	service := NewMockAuthService(ctrl)
	service.EXPECT().Logout(gomock.Any(), "signed.session.token").Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "app_session_id", Value: "signed.session.token"})
	w := do(newAuthRouter(t, service, nil), req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"code":200,"data":{"success":true},"message":"Logged out"}`, w.Body.String())
	cookie := findCookie(w, "app_session_id")
	require.NotNil(t, cookie)
	assert.Equal(t, -1, cookie.MaxAge)
}

func TestMeHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	service := NewMockAuthService(ctrl)
	service.EXPECT().Me(gomock.Any()).Return(nil, nil)

	w := do(newAuthRouter(t, service, nil), httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"data":null`)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestOIDCRoutes_NotMountedWithoutProvider(t *testing.T) {
	ctrl := gomock.NewController(t)

	w := do(newAuthRouter(t, NewMockAuthService(ctrl), nil), httptest.NewRequest(http.MethodGet, "/v1/auth/oidc/login", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOIDCLoginHandler_RedirectsWithFlowCookies(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := NewMockOIDCProvider(ctrl)

	var state, nonce, verifier string
	provider.EXPECT().
		AuthCodeURL(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(s, n, v string) string {
			state, nonce, verifier = s, n, v
			return "https://issuer.example/authorize?state=" + s
		})

	w := do(newAuthRouter(t, NewMockAuthService(ctrl), provider), httptest.NewRequest(http.MethodGet, "/v1/auth/oidc/login", nil))

	require.Equal(t, http.StatusFound, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "https://issuer.example/authorize"))

	assert.NotEqual(t, state, nonce)
	assert.NotEqual(t, nonce, verifier)
	for name, value := range map[string]string{oidcStateCookie: state, oidcNonceCookie: nonce, oidcVerifierCookie: verifier} {
		cookie := findCookie(w, name)
		require.NotNil(t, cookie, name)
		assert.Equal(t, value, cookie.Value)
		assert.Equal(t, oidcFlowPath, cookie.Path)
		assert.True(t, cookie.HttpOnly)
	}
}

func callbackRequest(query string, cookies map[string]string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/v1/auth/oidc/callback?"+query, nil)
	for name, value := range cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}
	return req
}

func TestOIDCCallbackHandler(t *testing.T) {
	flow := map[string]string{oidcStateCookie: "st", oidcNonceCookie: "nn", oidcVerifierCookie: "vv"}

	t.Run("completes sign-in and redirects", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		service := NewMockAuthService(ctrl)
		provider := NewMockOIDCProvider(ctrl)

		identity := &OIDCIdentity{Subject: "sub-123", Email: "ada@example.com"}
		provider.EXPECT().Exchange(gomock.Any(), "the-code", "vv", "nn").Return(identity, nil)
		service.EXPECT().CompleteOIDCLogin(gomock.Any(), identity).Return(testGrant(), nil)

		w := do(newAuthRouter(t, service, provider), callbackRequest("code=the-code&state=st", flow))

		require.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/welcome", w.Header().Get("Location"))
		require.NotNil(t, findCookie(w, "app_session_id"))
		assert.Equal(t, -1, findCookie(w, oidcStateCookie).MaxAge)
	})

	t.Run("state mismatch", func(t *testing.T) {
		ctrl := gomock.NewController(t)

		w := do(newAuthRouter(t, NewMockAuthService(ctrl), NewMockOIDCProvider(ctrl)), callbackRequest("code=c&state=forged", flow))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Nil(t, findCookie(w, "app_session_id"))
	})

	t.Run("missing flow cookies", func(t *testing.T) {
		ctrl := gomock.NewController(t)

		w := do(newAuthRouter(t, NewMockAuthService(ctrl), NewMockOIDCProvider(ctrl)), callbackRequest("code=c&state=st", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("provider error", func(t *testing.T) {
		ctrl := gomock.NewController(t)

		w := do(newAuthRouter(t, NewMockAuthService(ctrl), NewMockOIDCProvider(ctrl)), callbackRequest("error=access_denied&state=st", flow))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
