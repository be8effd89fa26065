package perfil

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gestaoportuaria/backoffice/internal/repo"
)

// PermissaoSource fornece as permissões efetivas de um usuário.
type PermissaoSource interface {
	ListPermissoesPorUsuario(ctx context.Context, userID uuid.UUID) ([]Permissao, error)
}

// Policy concentra toda a decisão de autorização em um único ponto:
// papéis globais primeiro, depois as permissões granulares dos perfis.
type Policy struct {
	permissoes PermissaoSource

	mu    sync.Mutex
	cache map[uuid.UUID]policyEntry
	ttl   time.Duration
}

type policyEntry struct {
	permissoes []Permissao
	expira     time.Time
}

// NewPolicy cria a política com cache curto de permissões por usuário.
func NewPolicy(permissoes PermissaoSource) *Policy {
	return &Policy{
		permissoes: permissoes,
		cache:      make(map[uuid.UUID]policyEntry),
		ttl:        time.Minute,
	}
}

// Authorize decide se o usuário pode executar a ação sobre o recurso.
// Administradores têm acesso irrestrito; contas OGMO operam livremente sobre
// os próprios recursos; usuários comuns dependem das permissões de perfil.
func (p *Policy) Authorize(ctx context.Context, userID uuid.UUID, roles []string, recurso, acao string) (bool, error) {
	for _, role := range roles {
		switch role {
		case repo.RoleAdmin:
			return true, nil
		case repo.RoleOgmo:
			return true, nil
		}
	}

	if !hasRole(roles, repo.RoleUsuario) {
		return false, nil
	}

	permissoes, err := p.permissoesDoUsuario(ctx, userID)
	if err != nil {
		return false, err
	}

	for _, permissao := range permissoes {
		if permissao.Recurso == recurso && permissao.Permite(acao) {
			return true, nil
		}
	}
	return false, nil
}

// Invalidate descarta o cache de permissões do usuário; chamada após
// alterações de perfil ou vínculo.
func (p *Policy) Invalidate(userID uuid.UUID) {
	p.mu.Lock()
	delete(p.cache, userID)
	p.mu.Unlock()
}

func (p *Policy) permissoesDoUsuario(ctx context.Context, userID uuid.UUID) ([]Permissao, error) {
	now := time.Now()

	p.mu.Lock()
	entry, ok := p.cache[userID]
	p.mu.Unlock()
	if ok && now.Before(entry.expira) {
		return entry.permissoes, nil
	}

	permissoes, err := p.permissoes.ListPermissoesPorUsuario(ctx, userID)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.cache[userID] = policyEntry{permissoes: permissoes, expira: now.Add(p.ttl)}
	p.mu.Unlock()

	return permissoes, nil
}

func hasRole(roles []string, want string) bool {
	for _, role := range roles {
		if role == want {
			return true
		}
	}
	return false
}
