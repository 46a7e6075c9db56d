package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthApp(s *Server) *fiber.App {
	app := fiber.New()
	app.Post("/auth/signup", s.Signup)
	app.Post("/auth/login", s.Login)
	return app
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestSignup(t *testing.T) {
	s, _ := newTestServer(t)
	app := newAuthApp(s)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/auth/signup",
		`{"username":"alice","email":"alice@example.com","password":"Sup3r-Secret-Pw!"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		Token string `json:"token"`
		User  struct {
			ID       uint   `json:"id"`
			Username string `json:"username"`
		} `json:"user"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "alice", body.User.Username)
	require.NotEmpty(t, body.Token)

	// The token must carry the expected issuer, audience and subject.
	token, err := jwt.Parse(body.Token, func(tok *jwt.Token) (interface{}, error) {
		return []byte(s.config.JWTSecret), nil
	})
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, tokenIssuer, claims["iss"])
	assert.Equal(t, tokenAudience, claims["aud"])
	assert.Equal(t, "1", claims["sub"])
}

func TestSignup_Validation(t *testing.T) {
	s, _ := newTestServer(t)
	app := newAuthApp(s)

	tests := []struct {
		name string
		body string
	}{
		{"missing fields", `{"username":"alice"}`},
		{"bad username", `{"username":"a!","email":"alice@example.com","password":"Sup3r-Secret-Pw!"}`},
		{"bad email", `{"username":"alice","email":"not-an-email","password":"Sup3r-Secret-Pw!"}`},
		{"weak password", `{"username":"alice","email":"alice@example.com","password":"password"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(jsonRequest(http.MethodPost, "/auth/signup", tt.body))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestSignup_DuplicateUsername(t *testing.T) {
	s, _ := newTestServer(t)
	app := newAuthApp(s)

	body := `{"username":"alice","email":"alice@example.com","password":"Sup3r-Secret-Pw!"}`
	resp, err := app.Test(jsonRequest(http.MethodPost, "/auth/signup", body))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = app.Test(jsonRequest(http.MethodPost, "/auth/signup", body))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestLogin(t *testing.T) {
	s, _ := newTestServer(t)
	app := newAuthApp(s)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/auth/signup",
		`{"username":"alice","email":"alice@example.com","password":"Sup3r-Secret-Pw!"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = app.Test(jsonRequest(http.MethodPost, "/auth/login",
		`{"email":"alice@example.com","password":"Sup3r-Secret-Pw!"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Token string `json:"token"`
	}
	decodeBody(t, resp, &body)
	assert.NotEmpty(t, body.Token)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	s, _ := newTestServer(t)
	app := newAuthApp(s)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/auth/signup",
		`{"username":"alice","email":"alice@example.com","password":"Sup3r-Secret-Pw!"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	// Wrong password and unknown email produce the same response.
	resp, err = app.Test(jsonRequest(http.MethodPost, "/auth/login",
		`{"email":"alice@example.com","password":"wrong-password"}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp2, err := app.Test(jsonRequest(http.MethodPost, "/auth/login",
		`{"email":"nobody@example.com","password":"Sup3r-Secret-Pw!"}`))
	require.NoError(t, err)
	defer func() { _ = resp2.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, resp2.StatusCode)
}
