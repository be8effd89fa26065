package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gestaoportuaria/backoffice/internal/auth"
	"github.com/gestaoportuaria/backoffice/internal/repo"
)

type contextKey string

const (
	ContextKeySubject  contextKey = "subject"
	ContextKeyAudience contextKey = "audience"
	ContextKeyRoles    contextKey = "roles"
	ContextKeyOgmo     contextKey = "ogmo"
)

// Auth valida JWT de acesso e injeta claims no contexto.
func Auth(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "AUTH", "token ausente")
				return
			}

			claims, err := jwtManager.ParseAndValidate(parts[1])
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "token inválido")
				return
			}

			if len(claims.Audience) == 0 {
				writeError(w, http.StatusUnauthorized, "AUTH", "audience inválida")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySubject, claims.Subject)
			ctx = context.WithValue(ctx, ContextKeyAudience, claims.Audience[0])
			ctx = context.WithValue(ctx, ContextKeyRoles, claims.Roles)
			if claims.OgmoID != "" {
				ctx = context.WithValue(ctx, ContextKeyOgmo, claims.OgmoID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSubject recupera subject do contexto.
func GetSubject(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeySubject).(string)
	return val
}

// GetAudience recupera audience do contexto.
func GetAudience(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeyAudience).(string)
	return val
}

// GetRoles recupera roles do contexto.
func GetRoles(ctx context.Context) []string {
	val, _ := ctx.Value(ContextKeyRoles).([]string)
	return val
}

// GetOgmoID recupera o OGMO vinculado à sessão, quando houver.
func GetOgmoID(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeyOgmo).(string)
	return val
}

// RequireAdmin restringe ao back office administrativo.
func RequireAdmin(next http.Handler) http.Handler {
	return requireAudienceRoles("admin", repo.RoleAdmin, repo.RoleUsuario)(next)
}

// RequireOgmo restringe a sessões de gestores OGMO.
func RequireOgmo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.EqualFold(GetAudience(r.Context()), "ogmo") {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "acesso restrito a gestores OGMO")
			return
		}
		if GetOgmoID(r.Context()) == "" {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "sessão sem OGMO vinculado")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireTPA restringe a sessões de trabalhadores avulsos.
func RequireTPA(next http.Handler) http.Handler {
	return requireAudienceRoles("tpa", repo.RoleTrabalhadorAvulso)(next)
}

func requireAudienceRoles(audience string, requiredRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.EqualFold(GetAudience(r.Context()), audience) {
				writeError(w, http.StatusForbidden, "FORBIDDEN", "acesso não autorizado para este painel")
				return
			}

			roles := GetRoles(r.Context())
			for _, role := range roles {
				for _, required := range requiredRoles {
					if strings.EqualFold(role, required) {
						next.ServeHTTP(w, r)
						return
					}
				}
			}

			writeError(w, http.StatusForbidden, "FORBIDDEN", "acesso não autorizado para este painel")
		})
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": nil,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
