package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/gestaoportuaria/backoffice/internal/alerta"
	"github.com/gestaoportuaria/backoffice/internal/billing"
	"github.com/gestaoportuaria/backoffice/internal/cadastro"
	"github.com/gestaoportuaria/backoffice/internal/config"
	"github.com/gestaoportuaria/backoffice/internal/extrato"
	httpmiddleware "github.com/gestaoportuaria/backoffice/internal/http/middleware"
	"github.com/gestaoportuaria/backoffice/internal/ogmo"
	"github.com/gestaoportuaria/backoffice/internal/perfil"
	"github.com/gestaoportuaria/backoffice/internal/service"
	"github.com/gestaoportuaria/backoffice/internal/storage"
	"github.com/gestaoportuaria/backoffice/internal/tasks"
)

// Handler agrega os serviços expostos pela API.
type Handler struct {
	cfg           *config.Config
	pool          *pgxpool.Pool
	redis         *redis.Client
	authService   *service.AuthService
	users         *service.UserService
	ogmos         *ogmo.Service
	cadastros     *cadastro.Service
	billing       *billing.Service
	extratos      *extrato.Service
	alertas       *alerta.Service
	perfis        *perfil.Repository
	policy        *perfil.Policy
	tasks         *tasks.Client
	storage       storage.Uploader
	publicLimiter *httpmiddleware.RateLimiter
	authLimiter   *httpmiddleware.RateLimiter
	devCookies    bool
}

// NewRouter devolve roteador configurado.
func NewRouter(cfg *config.Config, pool *pgxpool.Pool, redisClient *redis.Client, authService *service.AuthService, users *service.UserService, tasksClient *tasks.Client) (http.Handler, error) {
	devCookies := false
	for _, origin := range cfg.AllowOrigins {
		if strings.Contains(origin, "localhost") {
			devCookies = true
			break
		}
	}

	ogmoRepo := ogmo.NewRepository(pool)
	ogmoService := ogmo.NewService(ogmoRepo)

	cadastroRepo := cadastro.NewRepository(pool)
	cadastroService := cadastro.NewService(cadastroRepo, log.With().Str("component", "cadastro").Logger())

	billingRepo := billing.NewRepository(pool)
	billingService := billing.NewService(billingRepo, ogmoService, cfg.Billing.DiaVencimento)

	alertaRepo := alerta.NewRepository(pool)
	alertaService := alerta.NewService(alertaRepo, log.With().Str("component", "alerta").Logger())

	perfilRepo := perfil.NewRepository(pool)
	policy := perfil.NewPolicy(perfilRepo)

	var uploader storage.Uploader = storage.NoopUploader{}
	switch cfg.Storage.Provider {
	case "", "noop":
		// mantém uploader padrão
	case "s3", "r2", "cloudflare-r2":
		s3Cfg := storage.S3Config{
			Endpoint:     cfg.Storage.S3Endpoint,
			Region:       cfg.Storage.S3Region,
			Bucket:       cfg.Storage.S3Bucket,
			AccessKey:    cfg.Storage.S3AccessKey,
			SecretKey:    cfg.Storage.S3SecretKey,
			PublicDomain: cfg.Storage.S3PublicURL,
		}
		var err error
		uploader, err = storage.NewS3Uploader(s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
	default:
		return nil, fmt.Errorf("storage: provedor %s não suportado", cfg.Storage.Provider)
	}

	extratoService := extrato.NewService(billingRepo, alertaRepo, uploader, log.With().Str("component", "extrato").Logger())

	h := &Handler{
		cfg:           cfg,
		pool:          pool,
		redis:         redisClient,
		authService:   authService,
		users:         users,
		ogmos:         ogmoService,
		cadastros:     cadastroService,
		billing:       billingService,
		extratos:      extratoService,
		alertas:       alertaService,
		perfis:        perfilRepo,
		policy:        policy,
		tasks:         tasksClient,
		storage:       uploader,
		publicLimiter: httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
		authLimiter:   httpmiddleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst),
		devCookies:    devCookies,
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))

	r.Group(func(public chi.Router) {
		public.Use(httpmiddleware.IPRateLimit(h.publicLimiter))

		public.Get("/health", h.Health)
		public.Get("/ready", h.Ready)

		public.Route("/auth", func(auth chi.Router) {
			auth.Post("/admin/login", h.LoginAdmin)
			auth.Post("/ogmo/login", h.LoginOgmo)
			auth.Post("/tpa/login", h.LoginTPA)
			auth.Post("/refresh", h.Refresh)
			auth.Post("/logout", h.Logout)
		})
	})

	r.Group(func(private chi.Router) {
		private.Use(httpmiddleware.Auth(authService.JWT()))
		private.Use(httpmiddleware.UserRateLimit(h.authLimiter))

		private.Get("/me", h.Me)
		private.Post("/auth/senha", h.ChangePassword)
	})

	adminRouter := chi.NewRouter()
	adminRouter.Use(httpmiddleware.Auth(authService.JWT()))
	adminRouter.Use(httpmiddleware.UserRateLimit(h.authLimiter))
	adminRouter.Use(httpmiddleware.RequireAdmin)

	adminRouter.Route("/ogmos", func(o chi.Router) {
		o.Get("/", h.ListOgmos)
		o.Post("/", h.CreateOgmo)
		o.Get("/{id}", h.GetOgmo)
		o.Put("/{id}", h.UpdateOgmo)
		o.Patch("/{id}/bloqueio", h.SetOgmoBloqueado)
		o.Delete("/{id}", h.DeleteOgmo)
	})

	adminRouter.Route("/terminais", func(t chi.Router) {
		t.Get("/", h.ListTerminais)
		t.Post("/", h.CreateTerminal)
		t.Get("/{id}", h.GetTerminal)
		t.Put("/{id}", h.UpdateTerminal)
		t.Patch("/{id}/bloqueio", h.SetTerminalBloqueado)
		t.Delete("/{id}", h.DeleteTerminal)
	})

	adminRouter.Route("/usuarios", func(u chi.Router) {
		u.Get("/", h.ListAdminUsers)
		u.Post("/", h.CreateAdminUser)
		u.Put("/{id}", h.UpdateAdminUser)
		u.Patch("/{id}/ativo", h.SetContaAtiva)
		u.Delete("/{id}", h.DeleteConta)
	})

	adminRouter.Route("/mensalidades", func(m chi.Router) {
		m.Get("/", h.ListMensalidades)
		m.Post("/gerar", h.GerarMensalidades)
		m.Get("/resumo", h.ResumoFinanceiro)
		m.Get("/export", h.ExportMensalidades)
		m.Get("/{id}", h.GetMensalidade)
		m.Patch("/{id}/pagamento", h.MarcarPagamento)
		m.Patch("/{id}/nota-fiscal", h.SetNotaFiscal)
	})

	adminRouter.Route("/configuracoes", func(c chi.Router) {
		c.Get("/valor-operador", h.GetValorPorOperador)
		c.Put("/valor-operador", h.UpdateValorPorOperador)
	})

	adminRouter.Post("/extratos", h.UploadExtrato)

	r.Mount("/admin", adminRouter)

	ogmoRouter := chi.NewRouter()
	ogmoRouter.Use(httpmiddleware.Auth(authService.JWT()))
	ogmoRouter.Use(httpmiddleware.UserRateLimit(h.authLimiter))
	ogmoRouter.Use(httpmiddleware.RequireOgmo)

	ogmoRouter.Route("/operadores", func(op chi.Router) {
		op.With(h.exigePermissao(perfil.RecursoOperadores, perfil.AcaoVisualizar)).Get("/", h.ListOperadores)
		op.With(h.exigePermissao(perfil.RecursoOperadores, perfil.AcaoCriar)).Post("/", h.CreateOperador)
		op.With(h.exigePermissao(perfil.RecursoOperadores, perfil.AcaoVisualizar)).Get("/{id}", h.GetOperador)
		op.With(h.exigePermissao(perfil.RecursoOperadores, perfil.AcaoEditar)).Put("/{id}", h.UpdateOperador)
		op.With(h.exigePermissao(perfil.RecursoOperadores, perfil.AcaoExcluir)).Delete("/{id}", h.DeleteOperador)
	})

	ogmoRouter.Route("/tpas", func(t chi.Router) {
		t.With(h.exigePermissao(perfil.RecursoTPAs, perfil.AcaoVisualizar)).Get("/", h.ListTPAs)
		t.With(h.exigePermissao(perfil.RecursoTPAs, perfil.AcaoCriar)).Post("/", h.CreateTPA)
		t.With(h.exigePermissao(perfil.RecursoTPAs, perfil.AcaoCriar)).Post("/importar", h.ImportarTPAs)
		t.With(h.exigePermissao(perfil.RecursoTPAs, perfil.AcaoVisualizar)).Get("/{id}", h.GetTPA)
		t.With(h.exigePermissao(perfil.RecursoTPAs, perfil.AcaoEditar)).Put("/{id}", h.UpdateTPA)
		t.With(h.exigePermissao(perfil.RecursoTPAs, perfil.AcaoEditar)).Post("/{id}/reset-senha", h.ResetTPAPassword)
		t.With(h.exigePermissao(perfil.RecursoTPAs, perfil.AcaoExcluir)).Delete("/{id}", h.DeleteTPA)
	})

	ogmoRouter.Route("/alertas", func(a chi.Router) {
		a.With(h.exigePermissao(perfil.RecursoAlertas, perfil.AcaoVisualizar)).Get("/", h.ListAlertas)
		a.With(h.exigePermissao(perfil.RecursoAlertas, perfil.AcaoVisualizar)).Get("/nao-lidos", h.AlertasNaoLidos)
		a.With(h.exigePermissao(perfil.RecursoAlertas, perfil.AcaoEditar)).Patch("/{id}/lida", h.MarcarAlertaLido)
		a.With(h.exigePermissao(perfil.RecursoAlertas, perfil.AcaoEditar)).Post("/visualizados", h.MarcarAlertasVisualizados)
		a.With(h.exigePermissao(perfil.RecursoAlertas, perfil.AcaoExcluir)).Delete("/{id}", h.DeleteAlerta)
	})

	ogmoRouter.Route("/perfis", func(p chi.Router) {
		p.Get("/", h.ListPerfis)
		p.Post("/", h.CreatePerfil)
		p.Put("/{id}", h.UpdatePerfil)
		p.Delete("/{id}", h.DeletePerfil)
		p.Get("/{id}/permissoes", h.ListPermissoes)
		p.Put("/{id}/permissoes", h.ReplacePermissoes)
		p.Post("/{id}/atribuir", h.AtribuirPerfil)
		p.Delete("/{id}/atribuir/{userID}", h.RemoverPerfil)
	})

	ogmoRouter.With(h.exigePermissao(perfil.RecursoMensalidades, perfil.AcaoVisualizar)).Get("/mensalidades", h.ListMensalidadesOgmo)
	ogmoRouter.Get("/terminais", h.ListTerminaisOgmo)

	r.Mount("/ogmo", ogmoRouter)

	tpaRouter := chi.NewRouter()
	tpaRouter.Use(httpmiddleware.Auth(authService.JWT()))
	tpaRouter.Use(httpmiddleware.UserRateLimit(h.authLimiter))
	tpaRouter.Use(httpmiddleware.RequireTPA)

	tpaRouter.Get("/perfil", h.PerfilTPA)

	r.Mount("/tpa", tpaRouter)

	return r, nil
}

// Health responde status simples.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready valida conexões com Postgres e Redis.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	dbErr := h.pool.Ping(ctx)
	redisErr := h.redis.Ping(ctx).Err()

	if dbErr != nil || redisErr != nil {
		WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "dependências indisponíveis", map[string]any{
			"db":    errorString(dbErr),
			"redis": errorString(redisErr),
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ready": true})
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// exigePermissao valida a permissão granular do usuário OGMO via perfis.
func (h *Handler) exigePermissao(recurso, acao string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, err := h.subjectUUID(r)
			if err != nil {
				WriteError(w, http.StatusUnauthorized, "AUTH", "subject inválido", nil)
				return
			}

			roles := httpmiddleware.GetRoles(r.Context())
			ok, err := h.policy.Authorize(r.Context(), subject, roles, recurso, acao)
			if err != nil {
				WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível avaliar permissões", nil)
				return
			}
			if !ok {
				WriteError(w, http.StatusForbidden, "FORBIDDEN", "permissão insuficiente para "+acao+" "+recurso, nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (h *Handler) subjectUUID(r *http.Request) (uuid.UUID, error) {
	subjectStr := httpmiddleware.GetSubject(r.Context())
	if strings.TrimSpace(subjectStr) == "" {
		return uuid.Nil, errors.New("subject ausente")
	}
	return uuid.Parse(subjectStr)
}

// ogmoUUID resolve o OGMO da sessão autenticada.
func (h *Handler) ogmoUUID(r *http.Request) (uuid.UUID, error) {
	raw := httpmiddleware.GetOgmoID(r.Context())
	if strings.TrimSpace(raw) == "" {
		return uuid.Nil, errors.New("sessão sem OGMO vinculado")
	}
	return uuid.Parse(raw)
}

func parseUUIDString(value string) (uuid.UUID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return uuid.Nil, errors.New("empty")
	}
	return uuid.Parse(value)
}

func parseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	value := strings.TrimSpace(chi.URLParam(r, name))
	if value == "" {
		return uuid.Nil, errors.New("empty")
	}
	return uuid.Parse(value)
}

const (
	refreshCookieAdmin = "admin"
	refreshCookieOgmo  = "ogmo"
	refreshCookieTPA   = "tpa"
)

func getRefreshFromRequest(r *http.Request) (string, string, error) {
	if c, err := r.Cookie(refreshCookieAdmin); err == nil && c.Value != "" {
		return "admin", c.Value, nil
	}
	if c, err := r.Cookie(refreshCookieOgmo); err == nil && c.Value != "" {
		return "ogmo", c.Value, nil
	}
	if c, err := r.Cookie(refreshCookieTPA); err == nil && c.Value != "" {
		return "tpa", c.Value, nil
	}
	return "", "", errors.New("refresh ausente")
}

func (h *Handler) setRefreshCookie(w http.ResponseWriter, audience, token string, expires time.Time) {
	secure := !h.devCookies
	sameSite := http.SameSiteNoneMode
	if h.devCookies {
		sameSite = http.SameSiteLaxMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieNameFor(audience),
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	})
}

func (h *Handler) clearRefreshCookie(w http.ResponseWriter, audience string) {
	secure := !h.devCookies
	sameSite := http.SameSiteNoneMode
	if h.devCookies {
		sameSite = http.SameSiteLaxMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieNameFor(audience),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	})
}

func cookieNameFor(audience string) string {
	switch audience {
	case "ogmo":
		return refreshCookieOgmo
	case "tpa":
		return refreshCookieTPA
	default:
		return refreshCookieAdmin
	}
}
