package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/gestaoportuaria/backoffice/internal/auth"
	"github.com/gestaoportuaria/backoffice/internal/cadastro"
	"github.com/gestaoportuaria/backoffice/internal/ogmo"
	"github.com/gestaoportuaria/backoffice/internal/repo"
)

var (
	// ErrInvalidCredentials indica falha na autenticação.
	ErrInvalidCredentials = errors.New("credenciais inválidas")
	// ErrAccountDisabled indica conta desativada.
	ErrAccountDisabled = errors.New("conta desativada")
	// ErrRefreshInvalid indica refresh token inválido ou expirado.
	ErrRefreshInvalid = errors.New("refresh token inválido")
	// ErrNoEligibleRoles indica ausência de papéis autorizados.
	ErrNoEligibleRoles = errors.New("usuário sem papel elegível")
	// ErrOgmoBloqueado indica OGMO com acesso suspenso por inadimplência.
	ErrOgmoBloqueado = errors.New("ogmo bloqueado")
	// ErrSenhaAtualIncorreta indica senha atual errada na troca de senha.
	ErrSenhaAtualIncorreta = errors.New("senha atual incorreta")
)

type authRepository interface {
	GetContaByEmail(ctx context.Context, email string) (repo.Conta, error)
	GetContaByID(ctx context.Context, id uuid.UUID) (repo.Conta, error)
	ListRolesByConta(ctx context.Context, userID uuid.UUID) ([]string, error)
	GetProfile(ctx context.Context, id uuid.UUID) (repo.Profile, error)
	UpdateSenha(ctx context.Context, id uuid.UUID, hash string) error
	GetRefreshTokenByHash(ctx context.Context, tokenHash string) (repo.TokenRefresh, error)
	InsertRefreshToken(ctx context.Context, arg repo.InsertRefreshTokenParams) (repo.TokenRefresh, error)
	InvalidateOtherRefreshTokens(ctx context.Context, subject uuid.UUID, audience, keepHash string) error
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
}

type redisCommander interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type ogmoResolver interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*ogmo.Ogmo, error)
}

type tpaResolver interface {
	ResolveLoginTPA(ctx context.Context, identificador string) (string, error)
	GetTPAByUserID(ctx context.Context, userID uuid.UUID) (*cadastro.TPA, error)
}

// AuthService concentra regras de autenticação e sessões.
type AuthService struct {
	repo       authRepository
	redis      redisCommander
	jwt        *auth.JWTManager
	ogmos      ogmoResolver
	tpas       tpaResolver
	refreshTTL time.Duration
}

// NewAuthService cria novo serviço.
func NewAuthService(r authRepository, redisClient redisCommander, jwtMgr *auth.JWTManager, ogmos ogmoResolver, tpas tpaResolver, refreshTTL time.Duration) *AuthService {
	return &AuthService{repo: r, redis: redisClient, jwt: jwtMgr, ogmos: ogmos, tpas: tpas, refreshTTL: refreshTTL}
}

// JWT expõe gerenciador de JWT (útil em middlewares).
func (s *AuthService) JWT() *auth.JWTManager {
	return s.jwt
}

// LoginResult representa retorno padrão de autenticações.
type LoginResult struct {
	Audience      string
	AccessToken   string
	RefreshToken  string
	Subject       uuid.UUID
	Roles         []string
	Profile       any
	RefreshHash   string
	RefreshExpiry time.Time
}

// AdminProfile descreve usuária(o) da retaguarda administrativa.
type AdminProfile struct {
	ID    string   `json:"id"`
	Nome  string   `json:"nome"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

// OgmoProfile descreve a conta institucional do OGMO.
type OgmoProfile struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	OgmoID    string `json:"ogmo_id"`
	Nome      string `json:"nome"`
	CNPJ      string `json:"cnpj"`
	Bloqueado bool   `json:"bloqueado"`
}

// TPAProfile descreve o trabalhador avulso autenticado no app.
type TPAProfile struct {
	ID            string `json:"id"`
	Nome          string `json:"nome"`
	Matricula     string `json:"matricula"`
	Email         string `json:"email"`
	OgmoID        string `json:"ogmo_id"`
	SenhaAlterada bool   `json:"senha_alterada"`
}

// LoginAdmin autentica contas da retaguarda (papéis admin e usuario).
func (s *AuthService) LoginAdmin(ctx context.Context, email, senha string) (*LoginResult, error) {
	conta, err := s.autenticar(ctx, email, senha)
	if err != nil {
		return nil, err
	}

	roles, err := s.repo.ListRolesByConta(ctx, conta.ID)
	if err != nil {
		return nil, err
	}
	roles = filtrarRoles(roles, repo.RoleAdmin, repo.RoleUsuario)
	if len(roles) == 0 {
		return nil, ErrNoEligibleRoles
	}

	profile := &AdminProfile{ID: conta.ID.String(), Email: conta.Email, Roles: roles}
	if p, err := s.repo.GetProfile(ctx, conta.ID); err == nil && p.NomeCompleto != nil {
		profile.Nome = *p.NomeCompleto
	}

	return s.emitirSessao(ctx, conta.ID, auth.AudienceAdmin, "", roles, profile)
}

// LoginOgmo autentica a conta institucional do OGMO. Contas de OGMO
// bloqueado por inadimplência são recusadas.
func (s *AuthService) LoginOgmo(ctx context.Context, email, senha string) (*LoginResult, error) {
	conta, err := s.autenticar(ctx, email, senha)
	if err != nil {
		return nil, err
	}

	roles, err := s.repo.ListRolesByConta(ctx, conta.ID)
	if err != nil {
		return nil, err
	}
	if !contemRole(roles, repo.RoleOgmo) {
		return nil, ErrNoEligibleRoles
	}

	o, err := s.ogmos.GetByUserID(ctx, conta.ID)
	if err != nil {
		if errors.Is(err, ogmo.ErrNotFound) {
			return nil, ErrNoEligibleRoles
		}
		return nil, err
	}
	if o.Bloqueado {
		log.Warn().Str("ogmo_id", o.ID.String()).Msg("login ogmo: acesso bloqueado por inadimplência")
		return nil, ErrOgmoBloqueado
	}

	profile := &OgmoProfile{
		ID:     conta.ID.String(),
		Email:  conta.Email,
		OgmoID: o.ID.String(),
		Nome:   o.Nome,
		CNPJ:   ogmo.FormatCNPJ(o.CNPJ),
	}

	return s.emitirSessao(ctx, conta.ID, auth.AudienceOgmo, o.ID.String(), []string{repo.RoleOgmo}, profile)
}

// LoginTPA autentica o trabalhador avulso. O identificador pode ser o e-mail
// ou a matrícula, que é resolvida para o e-mail da conta.
func (s *AuthService) LoginTPA(ctx context.Context, identificador, senha string) (*LoginResult, error) {
	email, err := s.tpas.ResolveLoginTPA(ctx, identificador)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	conta, err := s.autenticar(ctx, email, senha)
	if err != nil {
		return nil, err
	}

	roles, err := s.repo.ListRolesByConta(ctx, conta.ID)
	if err != nil {
		return nil, err
	}
	if !contemRole(roles, repo.RoleTrabalhadorAvulso) {
		return nil, ErrNoEligibleRoles
	}

	profile, err := s.perfilTPA(ctx, conta)
	if err != nil {
		return nil, err
	}

	return s.emitirSessao(ctx, conta.ID, auth.AudienceTPA, profile.OgmoID, []string{repo.RoleTrabalhadorAvulso}, profile)
}

func (s *AuthService) autenticar(ctx context.Context, email, senha string) (repo.Conta, error) {
	conta, err := s.repo.GetContaByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			log.Warn().Msg("login: conta não encontrada")
			return repo.Conta{}, ErrInvalidCredentials
		}
		return repo.Conta{}, err
	}

	ok, err := auth.Verify(senha, conta.SenhaHash)
	if err != nil {
		log.Warn().Err(err).Msg("login: verificação de senha falhou")
		return repo.Conta{}, ErrInvalidCredentials
	}
	if !ok {
		return repo.Conta{}, ErrInvalidCredentials
	}

	if !conta.Ativo {
		return repo.Conta{}, ErrAccountDisabled
	}
	return conta, nil
}

func (s *AuthService) perfilTPA(ctx context.Context, conta repo.Conta) (*TPAProfile, error) {
	tpa, err := s.tpas.GetTPAByUserID(ctx, conta.ID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNoEligibleRoles
		}
		return nil, err
	}

	profile := &TPAProfile{
		ID:        conta.ID.String(),
		Nome:      tpa.Nome,
		Matricula: tpa.Matricula,
		Email:     conta.Email,
		OgmoID:    tpa.OgmoID.String(),
	}
	if p, err := s.repo.GetProfile(ctx, conta.ID); err == nil {
		profile.SenhaAlterada = p.SenhaAlterada
	}
	return profile, nil
}

func (s *AuthService) emitirSessao(ctx context.Context, subject uuid.UUID, audience, ogmoID string, roles []string, profile any) (*LoginResult, error) {
	token, _, err := s.jwt.GenerateAccessToken(subject.String(), audience, ogmoID, roles)
	if err != nil {
		return nil, err
	}

	rawRefresh, refreshHash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	expires := time.Now().UTC().Add(s.refreshTTL)
	if err := s.persistRefresh(ctx, subject, audience, refreshHash, expires); err != nil {
		return nil, err
	}

	return &LoginResult{
		Audience:      audience,
		AccessToken:   token,
		RefreshToken:  rawRefresh,
		Subject:       subject,
		Roles:         roles,
		Profile:       profile,
		RefreshHash:   refreshHash,
		RefreshExpiry: expires,
	}, nil
}

// Refresh valida o refresh token (banco + espelho no Redis), emite nova
// sessão e revoga o token anterior.
func (s *AuthService) Refresh(ctx context.Context, audience, rawToken string) (*LoginResult, error) {
	if rawToken == "" {
		return nil, ErrRefreshInvalid
	}

	hash := auth.HashRefreshToken(rawToken)
	record, err := s.repo.GetRefreshTokenByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRefreshInvalid
		}
		return nil, err
	}

	if record.Revogado || time.Now().UTC().After(record.Expiracao) || record.Audience != audience {
		return nil, ErrRefreshInvalid
	}

	redisKey := auth.RefreshRedisKey(audience, hash)
	status, err := s.redis.Get(ctx, redisKey).Result()
	if err == redis.Nil {
		return nil, ErrRefreshInvalid
	}
	if err != nil {
		return nil, err
	}
	if status != "active" {
		return nil, ErrRefreshInvalid
	}

	conta, err := s.repo.GetContaByID(ctx, record.Subject)
	if err != nil {
		return nil, err
	}
	if !conta.Ativo {
		return nil, ErrAccountDisabled
	}

	var result *LoginResult
	switch audience {
	case auth.AudienceAdmin:
		roles, err := s.repo.ListRolesByConta(ctx, conta.ID)
		if err != nil {
			return nil, err
		}
		roles = filtrarRoles(roles, repo.RoleAdmin, repo.RoleUsuario)
		if len(roles) == 0 {
			return nil, ErrNoEligibleRoles
		}

		profile := &AdminProfile{ID: conta.ID.String(), Email: conta.Email, Roles: roles}
		if p, err := s.repo.GetProfile(ctx, conta.ID); err == nil && p.NomeCompleto != nil {
			profile.Nome = *p.NomeCompleto
		}

		result, err = s.emitirSessao(ctx, conta.ID, audience, "", roles, profile)
		if err != nil {
			return nil, err
		}
	case auth.AudienceOgmo:
		o, err := s.ogmos.GetByUserID(ctx, conta.ID)
		if err != nil {
			return nil, err
		}
		if o.Bloqueado {
			return nil, ErrOgmoBloqueado
		}

		profile := &OgmoProfile{
			ID:     conta.ID.String(),
			Email:  conta.Email,
			OgmoID: o.ID.String(),
			Nome:   o.Nome,
			CNPJ:   ogmo.FormatCNPJ(o.CNPJ),
		}

		result, err = s.emitirSessao(ctx, conta.ID, audience, o.ID.String(), []string{repo.RoleOgmo}, profile)
		if err != nil {
			return nil, err
		}
	case auth.AudienceTPA:
		profile, err := s.perfilTPA(ctx, conta)
		if err != nil {
			return nil, err
		}

		result, err = s.emitirSessao(ctx, conta.ID, audience, profile.OgmoID, []string{repo.RoleTrabalhadorAvulso}, profile)
		if err != nil {
			return nil, err
		}
	default:
		return nil, ErrRefreshInvalid
	}

	// Revoga token anterior (DB + Redis)
	if err := s.repo.RevokeRefreshToken(ctx, hash); err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	if err := s.redis.Del(ctx, redisKey).Err(); err != nil && err != redis.Nil {
		return nil, err
	}

	return result, nil
}

// Logout revoga refresh token atual.
func (s *AuthService) Logout(ctx context.Context, audience, rawToken string) error {
	if rawToken == "" {
		return nil
	}
	hash := auth.HashRefreshToken(rawToken)
	if err := s.repo.RevokeRefreshToken(ctx, hash); err != nil && !errors.Is(err, repo.ErrNotFound) {
		return err
	}
	redisKey := auth.RefreshRedisKey(audience, hash)
	if err := s.redis.Del(ctx, redisKey).Err(); err != nil && err != redis.Nil {
		return err
	}
	return nil
}

// GetMe retorna perfil completo para subject/audience.
func (s *AuthService) GetMe(ctx context.Context, audience string, subject uuid.UUID) (any, []string, error) {
	conta, err := s.repo.GetContaByID(ctx, subject)
	if err != nil {
		return nil, nil, err
	}

	switch audience {
	case auth.AudienceAdmin:
		roles, err := s.repo.ListRolesByConta(ctx, conta.ID)
		if err != nil {
			return nil, nil, err
		}
		roles = filtrarRoles(roles, repo.RoleAdmin, repo.RoleUsuario)
		if len(roles) == 0 {
			return nil, nil, ErrNoEligibleRoles
		}

		profile := &AdminProfile{ID: conta.ID.String(), Email: conta.Email, Roles: roles}
		if p, err := s.repo.GetProfile(ctx, conta.ID); err == nil && p.NomeCompleto != nil {
			profile.Nome = *p.NomeCompleto
		}
		return profile, roles, nil
	case auth.AudienceOgmo:
		o, err := s.ogmos.GetByUserID(ctx, conta.ID)
		if err != nil {
			return nil, nil, err
		}
		profile := &OgmoProfile{
			ID:        conta.ID.String(),
			Email:     conta.Email,
			OgmoID:    o.ID.String(),
			Nome:      o.Nome,
			CNPJ:      ogmo.FormatCNPJ(o.CNPJ),
			Bloqueado: o.Bloqueado,
		}
		return profile, []string{repo.RoleOgmo}, nil
	case auth.AudienceTPA:
		profile, err := s.perfilTPA(ctx, conta)
		if err != nil {
			return nil, nil, err
		}
		return profile, []string{repo.RoleTrabalhadorAvulso}, nil
	default:
		return nil, nil, errors.New("audience desconhecida")
	}
}

// ChangePassword troca a senha do próprio usuário após conferir a atual.
func (s *AuthService) ChangePassword(ctx context.Context, subject uuid.UUID, senhaAtual, senhaNova string) error {
	conta, err := s.repo.GetContaByID(ctx, subject)
	if err != nil {
		return err
	}

	ok, err := auth.Verify(senhaAtual, conta.SenhaHash)
	if err != nil || !ok {
		return ErrSenhaAtualIncorreta
	}

	if len(senhaNova) < 8 {
		return errors.New("senha nova deve ter ao menos 8 caracteres")
	}

	hash, err := auth.Hash(senhaNova)
	if err != nil {
		return err
	}
	return s.repo.UpdateSenha(ctx, conta.ID, hash)
}

func (s *AuthService) persistRefresh(ctx context.Context, subject uuid.UUID, audience, hash string, expires time.Time) error {
	_, err := s.repo.InsertRefreshToken(ctx, repo.InsertRefreshTokenParams{
		ID:        uuid.New(),
		Subject:   subject,
		Audience:  audience,
		TokenHash: hash,
		Expiracao: expires,
		CriadoEm:  time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	if err := s.repo.InvalidateOtherRefreshTokens(ctx, subject, audience, hash); err != nil {
		return err
	}

	return s.redis.Set(ctx, auth.RefreshRedisKey(audience, hash), "active", time.Until(expires)).Err()
}

func filtrarRoles(roles []string, permitidos ...string) []string {
	var out []string
	for _, role := range roles {
		for _, p := range permitidos {
			if role == p {
				out = append(out, role)
				break
			}
		}
	}
	return out
}

func contemRole(roles []string, want string) bool {
	for _, role := range roles {
		if role == want {
			return true
		}
	}
	return false
}
