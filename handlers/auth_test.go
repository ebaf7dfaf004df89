package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/inkpress/inkpress/internal/authors"
	"github.com/inkpress/inkpress/internal/config"
	"github.com/inkpress/inkpress/internal/models"
	"github.com/inkpress/inkpress/internal/sessions"
)

type memAuthorRepo struct {
	bySub map[string]*models.Author
}

func (r *memAuthorRepo) UpsertBySub(ctx context.Context, a *models.Author) (*models.Author, error) {
	cp := *a
	r.bySub[a.Sub] = &cp
	return &cp, nil
}

func (r *memAuthorRepo) GetBySub(ctx context.Context, sub string) (*models.Author, error) {
	if a, ok := r.bySub[sub]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

// unsignedJWT builds header.payload.signature with an unverified signature,
// enough for the insecure verifier used in these tests.
func unsignedJWT(t *testing.T, claims map[string]interface{}) string {
	t.Helper()
	enc := func(v interface{}) string {
		b, err := json.Marshal(v)
		require.NoError(t, err)
		return base64.RawURLEncoding.EncodeToString(b)
	}
	return enc(map[string]string{"alg": "none", "typ": "JWT"}) + "." + enc(claims) + ".x"
}

// fakeIdP serves only the token endpoint; OIDC discovery 404s, which pushes
// verification onto the insecure fallback.
func fakeIdP(t *testing.T, idToken string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/realms/testrealm/protocol/openid-connect/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("grant_type") == "password" && r.Form.Get("password") != "correct" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"access_token": "idp-access",
			"id_token":     idToken,
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func setupAuth(t *testing.T, idpURL string) (*gin.Engine, *sessions.Service, *config.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("ALLOW_INSECURE_TOKEN", "true")

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := &config.Config{
		Keycloak: config.KeycloakConfig{URL: idpURL, Realm: "testrealm", ClientID: "inkpress"},
		JWT: config.JWTConfig{
			Secret:          "test-secret",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: time.Hour,
		},
	}
	authorsSvc := authors.NewService(&memAuthorRepo{bySub: make(map[string]*models.Author)})
	sessionsSvc := sessions.NewService(sessions.NewRedisRepository(client, ""))

	r := gin.New()
	NewAuthHandler(cfg, authorsSvc, sessionsSvc).Register(r.Group(""))
	return r, sessionsSvc, cfg
}

func postJSON(t *testing.T, r *gin.Engine, path string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLoginPasswordFlow(t *testing.T) {
	idToken := unsignedJWT(t, map[string]interface{}{
		"sub": "kc-123", "name": "Qiang Kou", "email": "author@example.com",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	idp := fakeIdP(t, idToken)
	r, _, _ := setupAuth(t, idp.URL)

	w := postJSON(t, r, "/auth/login", gin.H{
		"mode": "password", "username": "qkou", "password": "correct",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		AccessToken  string        `json:"accessToken"`
		RefreshToken string        `json:"refreshToken"`
		Author       models.Author `json:"author"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	require.Len(t, resp.RefreshToken, 64)
	require.Equal(t, "kc-123", resp.Author.Sub)
}

func TestLogin_BadPassword(t *testing.T) {
	idp := fakeIdP(t, "unused")
	r, _, _ := setupAuth(t, idp.URL)

	w := postJSON(t, r, "/auth/login", gin.H{
		"mode": "password", "username": "qkou", "password": "wrong",
	}, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin_UnsupportedMode(t *testing.T) {
	idp := fakeIdP(t, "unused")
	r, _, _ := setupAuth(t, idp.URL)

	w := postJSON(t, r, "/auth/login", gin.H{"mode": "magic-link"}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRefreshAndLogout(t *testing.T) {
	idToken := unsignedJWT(t, map[string]interface{}{
		"sub": "kc-123", "name": "Qiang Kou",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	idp := fakeIdP(t, idToken)
	r, _, _ := setupAuth(t, idp.URL)

	w := postJSON(t, r, "/auth/login", gin.H{
		"mode": "password", "username": "qkou", "password": "correct",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		RefreshToken string `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))

	w = postJSON(t, r, "/auth/refresh", gin.H{"refresh_token": login.RefreshToken}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "access_token")

	w = postJSON(t, r, "/auth/logout", gin.H{"refresh_token": login.RefreshToken}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// the session is gone, refresh must fail now
	w = postJSON(t, r, "/auth/refresh", gin.H{"refresh_token": login.RefreshToken}, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefresh_UnknownToken(t *testing.T) {
	idp := fakeIdP(t, "unused")
	r, _, _ := setupAuth(t, idp.URL)

	w := postJSON(t, r, "/auth/refresh", gin.H{"refresh_token": "never-issued"}, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestParseExpFromJWT(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tok := unsignedJWT(t, map[string]interface{}{"sub": "kc-123", "exp": exp.Unix()})

	got, err := parseExpFromJWT(tok)
	require.NoError(t, err)
	require.True(t, got.Equal(exp))

	_, err = parseExpFromJWT("not-a-jwt")
	require.Error(t, err)

	noExp := unsignedJWT(t, map[string]interface{}{"sub": "kc-123"})
	_, err = parseExpFromJWT(noExp)
	require.Error(t, err)
}
