package ogmo

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Service contém as regras de negócio para cadastro e resolução de OGMOs.
type Service struct {
	repo     *Repository
	cache    sync.Map
	cacheTTL time.Duration
}

// cachedOgmo armazena dados no cache em memória (chave: CNPJ normalizado).
type cachedOgmo struct {
	ogmo     Ogmo
	expireAt time.Time
}

// NewService cria uma nova instância de Service.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo, cacheTTL: 2 * time.Minute}
}

// Get busca OGMO pelo identificador.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Ogmo, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByUserID devolve o OGMO associado à conta informada.
func (s *Service) GetByUserID(ctx context.Context, userID uuid.UUID) (*Ogmo, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// ResolveByCNPJ encontra o OGMO pelo CNPJ (formatado ou só dígitos).
func (s *Service) ResolveByCNPJ(ctx context.Context, cnpj string) (*Ogmo, error) {
	normalized := NormalizeCNPJ(cnpj)
	if normalized == "" {
		return nil, ErrNotFound
	}

	if v, ok := s.cache.Load(normalized); ok {
		entry := v.(cachedOgmo)
		if time.Now().Before(entry.expireAt) {
			ogmoCopy := entry.ogmo
			return &ogmoCopy, nil
		}
		s.cache.Delete(normalized)
	}

	found, err := s.repo.GetByCNPJ(ctx, FormatCNPJ(normalized))
	if err != nil {
		return nil, err
	}

	s.cache.Store(normalized, cachedOgmo{ogmo: *found, expireAt: time.Now().Add(s.cacheTTL)})

	ogmoCopy := *found
	return &ogmoCopy, nil
}

// Create registra um novo OGMO.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Ogmo, error) {
	input.Nome = strings.TrimSpace(input.Nome)
	if input.Nome == "" {
		return nil, errors.New("nome é obrigatório")
	}
	if len(NormalizeCNPJ(input.CNPJ)) != 14 {
		return nil, errors.New("cnpj inválido")
	}

	created, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, err
	}

	s.cache.Store(NormalizeCNPJ(created.CNPJ), cachedOgmo{ogmo: *created, expireAt: time.Now().Add(s.cacheTTL)})
	return created, nil
}

// Update altera os dados do OGMO e invalida o cache.
func (s *Service) Update(ctx context.Context, input UpdateInput) (*Ogmo, error) {
	input.Nome = strings.TrimSpace(input.Nome)
	if input.Nome == "" {
		return nil, errors.New("nome é obrigatório")
	}

	updated, err := s.repo.Update(ctx, input)
	if err != nil {
		return nil, err
	}

	s.invalidate(updated.ID)
	return updated, nil
}

// SetBloqueado alterna o bloqueio de acesso do OGMO.
func (s *Service) SetBloqueado(ctx context.Context, id uuid.UUID, bloqueado bool) error {
	if err := s.repo.SetBloqueado(ctx, id, bloqueado); err != nil {
		return err
	}
	s.invalidate(id)
	return nil
}

// Delete remove o OGMO.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(id)
	return nil
}

// List devolve todos os OGMOs.
func (s *Service) List(ctx context.Context) ([]Ogmo, error) {
	ogmos, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	// Atualiza cache com o snapshot atual.
	for _, o := range ogmos {
		s.cache.Store(NormalizeCNPJ(o.CNPJ), cachedOgmo{ogmo: o, expireAt: time.Now().Add(s.cacheTTL)})
	}

	return ogmos, nil
}

func (s *Service) invalidate(id uuid.UUID) {
	s.cache.Range(func(key, value any) bool {
		entry := value.(cachedOgmo)
		if entry.ogmo.ID == id {
			s.cache.Delete(key)
			return false
		}
		return true
	})
}
