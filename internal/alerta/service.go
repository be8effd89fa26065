package alerta

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrInvalidInput aponta dados insuficientes para emitir o alerta.
var ErrInvalidInput = errors.New("alerta: dados obrigatórios ausentes")

// Service aplica regras de negócio sobre alertas.
type Service struct {
	repo   *Repository
	logger zerolog.Logger
}

func NewService(repo *Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Emitir valida e registra um alerta para o OGMO.
func (s *Service) Emitir(ctx context.Context, input CreateInput) (*Alerta, error) {
	if input.OgmoID == uuid.Nil || strings.TrimSpace(input.Tipo) == "" || strings.TrimSpace(input.NomeOperador) == "" {
		return nil, ErrInvalidInput
	}
	if input.DataEvento.IsZero() {
		input.DataEvento = time.Now().UTC()
	}

	a, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("alerta_id", a.ID.String()).
		Str("ogmo_id", a.OgmoID.String()).
		Str("tipo", a.Tipo).
		Msg("alerta emitido")

	return a, nil
}

// Listar devolve alertas conforme o filtro.
func (s *Service) Listar(ctx context.Context, filter Filter) ([]Alerta, error) {
	return s.repo.List(ctx, filter)
}

// MarcarLida marca um alerta individual como lido.
func (s *Service) MarcarLida(ctx context.Context, id uuid.UUID) error {
	return s.repo.MarcarLida(ctx, id)
}

// MarcarVisualizadosPorOgmo baixa em lote os alertas do OGMO.
func (s *Service) MarcarVisualizadosPorOgmo(ctx context.Context, ogmoID uuid.UUID) error {
	return s.repo.MarcarVisualizadosPorOgmo(ctx, ogmoID)
}

// Remover exclui um alerta.
func (s *Service) Remover(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// NaoLidos conta alertas pendentes de leitura do OGMO.
func (s *Service) NaoLidos(ctx context.Context, ogmoID uuid.UUID) (int, error) {
	return s.repo.CountNaoLidos(ctx, ogmoID)
}
