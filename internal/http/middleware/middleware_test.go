package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gestaoportuaria/backoffice/internal/auth"
	"github.com/gestaoportuaria/backoffice/internal/repo"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthSemToken(t *testing.T) {
	jwtMgr := auth.NewJWTManager(testSecret, time.Minute)
	handler := Auth(jwtMgr)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
}

func TestAuthTokenInvalido(t *testing.T) {
	jwtMgr := auth.NewJWTManager(testSecret, time.Minute)
	handler := Auth(jwtMgr)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer nao-e-um-jwt")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
}

func TestAuthInjetaClaims(t *testing.T) {
	jwtMgr := auth.NewJWTManager(testSecret, time.Minute)
	subject := uuid.New().String()
	ogmoID := uuid.New().String()

	token, _, err := jwtMgr.GenerateAccessToken(subject, "ogmo", ogmoID, []string{repo.RoleOgmo})
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	var (
		gotSubject  string
		gotAudience string
		gotRoles    []string
		gotOgmo     string
	)
	handler := Auth(jwtMgr)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSubject = GetSubject(r.Context())
		gotAudience = GetAudience(r.Context())
		gotRoles = GetRoles(r.Context())
		gotOgmo = GetOgmoID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if gotSubject != subject {
		t.Fatalf("subject: expected %s, got %s", subject, gotSubject)
	}
	if gotAudience != "ogmo" {
		t.Fatalf("audience: expected ogmo, got %s", gotAudience)
	}
	if len(gotRoles) != 1 || gotRoles[0] != repo.RoleOgmo {
		t.Fatalf("roles inesperadas: %v", gotRoles)
	}
	if gotOgmo != ogmoID {
		t.Fatalf("ogmo: expected %s, got %s", ogmoID, gotOgmo)
	}
}

func TestRequireAdminRejeitaOutraAudience(t *testing.T) {
	jwtMgr := auth.NewJWTManager(testSecret, time.Minute)
	token, _, err := jwtMgr.GenerateAccessToken(uuid.New().String(), "ogmo", uuid.New().String(), []string{repo.RoleOgmo})
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	handler := Auth(jwtMgr)(RequireAdmin(okHandler()))

	req := httptest.NewRequest(http.MethodGet, "/admin/ogmos", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", res.Code)
	}
}

func TestRequireAdminAceitaUsuario(t *testing.T) {
	jwtMgr := auth.NewJWTManager(testSecret, time.Minute)
	token, _, err := jwtMgr.GenerateAccessToken(uuid.New().String(), "admin", "", []string{repo.RoleUsuario})
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	handler := Auth(jwtMgr)(RequireAdmin(okHandler()))

	req := httptest.NewRequest(http.MethodGet, "/admin/ogmos", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
}

func TestRequireOgmoExigeVinculo(t *testing.T) {
	jwtMgr := auth.NewJWTManager(testSecret, time.Minute)
	token, _, err := jwtMgr.GenerateAccessToken(uuid.New().String(), "ogmo", "", []string{repo.RoleOgmo})
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	handler := Auth(jwtMgr)(RequireOgmo(okHandler()))

	req := httptest.NewRequest(http.MethodGet, "/ogmo/operadores", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403 sem ogmo vinculado, got %d", res.Code)
	}
}

func TestCORSExatoEWildcard(t *testing.T) {
	handler := CORS([]string{"https://painel.portolabor.com.br", "*.portolabor.com.br"})(okHandler())

	casos := []struct {
		origin   string
		liberado bool
	}{
		{"https://painel.portolabor.com.br", true},
		{"https://ogmo.portolabor.com.br", true},
		{"https://portolabor.com.br", false},
		{"https://malicioso.com", false},
	}

	for _, c := range casos {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", c.origin)
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)

		got := res.Header().Get("Access-Control-Allow-Origin")
		if c.liberado && got != c.origin {
			t.Fatalf("origin %s deveria ser liberada, header %q", c.origin, got)
		}
		if !c.liberado && got != "" {
			t.Fatalf("origin %s não deveria ser liberada, header %q", c.origin, got)
		}
	}
}

func TestRateLimitBloqueiaAposBurst(t *testing.T) {
	limiter := NewRateLimiter(1, 2)
	handler := IPRateLimit(limiter)(okHandler())

	var ultimo int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Real-IP", "10.0.0.1")
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		ultimo = res.Code
	}

	if ultimo != http.StatusTooManyRequests {
		t.Fatalf("expected 429 na terceira requisição, got %d", ultimo)
	}

	// outro IP não compartilha o limite
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Real-IP", "10.0.0.2")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 para outro IP, got %d", res.Code)
	}
}
