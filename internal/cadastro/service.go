package cadastro

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gestaoportuaria/backoffice/internal/ogmo"
	"github.com/gestaoportuaria/backoffice/internal/repo"
)

var (
	// ErrCPFInvalido indica CPF fora do formato de 11 dígitos.
	ErrCPFInvalido = errors.New("cadastro: cpf deve ter 11 dígitos")
	// ErrCNPJInvalido indica CNPJ fora do formato de 14 dígitos.
	ErrCNPJInvalido = errors.New("cadastro: cnpj deve ter 14 dígitos")
	// ErrNomeObrigatorio indica nome ausente.
	ErrNomeObrigatorio = errors.New("cadastro: nome é obrigatório")
	// ErrMatriculaObrigatoria indica matrícula ausente no TPA.
	ErrMatriculaObrigatoria = errors.New("cadastro: matrícula é obrigatória")
	// ErrEmailObrigatorio indica e-mail ausente no TPA.
	ErrEmailObrigatorio = errors.New("cadastro: e-mail é obrigatório")
	// ErrCPFDuplicado indica CPF já cadastrado para o OGMO.
	ErrCPFDuplicado = errors.New("cadastro: cpf já cadastrado para este ogmo")
)

// Service aplica validações cadastrais antes de delegar ao repositório.
type Service struct {
	repo   *Repository
	logger zerolog.Logger
}

func NewService(repo *Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func validarOperador(input OperadorInput) error {
	if strings.TrimSpace(input.Nome) == "" {
		return ErrNomeObrigatorio
	}
	if len(NormalizeCPF(input.CPF)) != 11 {
		return ErrCPFInvalido
	}
	return nil
}

// CreateOperador valida e insere um operador portuário, recusando CPF
// repetido dentro do mesmo OGMO.
func (s *Service) CreateOperador(ctx context.Context, input OperadorInput) (*Operador, error) {
	if err := validarOperador(input); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetOperadorByCPF(ctx, input.OgmoID, input.CPF); err == nil {
		return nil, ErrCPFDuplicado
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	op, err := s.repo.CreateOperador(ctx, input)
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("operador_id", op.ID.String()).
		Str("ogmo_id", op.OgmoID.String()).
		Msg("operador cadastrado")
	return op, nil
}

// UpdateOperador valida e atualiza um operador portuário.
func (s *Service) UpdateOperador(ctx context.Context, id uuid.UUID, input OperadorInput) (*Operador, error) {
	if err := validarOperador(input); err != nil {
		return nil, err
	}
	return s.repo.UpdateOperador(ctx, id, input)
}

// GetOperador busca um operador.
func (s *Service) GetOperador(ctx context.Context, id uuid.UUID) (*Operador, error) {
	return s.repo.GetOperador(ctx, id)
}

// ListOperadores lista os operadores do OGMO.
func (s *Service) ListOperadores(ctx context.Context, ogmoID uuid.UUID) ([]Operador, error) {
	return s.repo.ListOperadores(ctx, ogmoID)
}

// DeleteOperador remove um operador.
func (s *Service) DeleteOperador(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteOperador(ctx, id)
}

func validarTerminal(input TerminalInput) error {
	if strings.TrimSpace(input.Nome) == "" {
		return ErrNomeObrigatorio
	}
	if len(ogmo.NormalizeCNPJ(input.CNPJ)) != 14 {
		return ErrCNPJInvalido
	}
	return nil
}

// CreateTerminal valida e insere um terminal portuário.
func (s *Service) CreateTerminal(ctx context.Context, input TerminalInput) (*Terminal, error) {
	if err := validarTerminal(input); err != nil {
		return nil, err
	}

	term, err := s.repo.CreateTerminal(ctx, input)
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("terminal_id", term.ID.String()).
		Str("cnpj", term.CNPJ).
		Msg("terminal cadastrado")
	return term, nil
}

// UpdateTerminal valida e atualiza um terminal portuário.
func (s *Service) UpdateTerminal(ctx context.Context, id uuid.UUID, input TerminalInput) (*Terminal, error) {
	if err := validarTerminal(input); err != nil {
		return nil, err
	}
	return s.repo.UpdateTerminal(ctx, id, input)
}

// GetTerminal busca um terminal.
func (s *Service) GetTerminal(ctx context.Context, id uuid.UUID) (*Terminal, error) {
	return s.repo.GetTerminal(ctx, id)
}

// ListTerminais lista terminais, opcionalmente filtrando por OGMO.
func (s *Service) ListTerminais(ctx context.Context, ogmoID *uuid.UUID) ([]Terminal, error) {
	return s.repo.ListTerminais(ctx, ogmoID)
}

// SetTerminalBloqueado alterna o bloqueio do terminal.
func (s *Service) SetTerminalBloqueado(ctx context.Context, id uuid.UUID, bloqueado bool) error {
	return s.repo.SetTerminalBloqueado(ctx, id, bloqueado)
}

// DeleteTerminal remove um terminal.
func (s *Service) DeleteTerminal(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteTerminal(ctx, id)
}

// ValidarTPA verifica os campos obrigatórios de um TPA.
func ValidarTPA(input TPAInput) error {
	if strings.TrimSpace(input.Nome) == "" {
		return ErrNomeObrigatorio
	}
	if len(NormalizeCPF(input.CPF)) != 11 {
		return ErrCPFInvalido
	}
	if strings.TrimSpace(input.Matricula) == "" {
		return ErrMatriculaObrigatoria
	}
	if !strings.Contains(input.Email, "@") {
		return ErrEmailObrigatorio
	}
	return nil
}

// GetTPAByUserID resolve o TPA titular da conta.
func (s *Service) GetTPAByUserID(ctx context.Context, userID uuid.UUID) (*TPA, error) {
	return s.repo.GetTPAByUserID(ctx, userID)
}

// GetTPA busca um TPA.
func (s *Service) GetTPA(ctx context.Context, id uuid.UUID) (*TPA, error) {
	return s.repo.GetTPA(ctx, id)
}

// ListTPAs lista os TPAs do OGMO.
func (s *Service) ListTPAs(ctx context.Context, ogmoID uuid.UUID) ([]TPA, error) {
	return s.repo.ListTPAs(ctx, ogmoID)
}

// UpdateTPA valida e atualiza um TPA.
func (s *Service) UpdateTPA(ctx context.Context, id uuid.UUID, input TPAInput) (*TPA, error) {
	if err := ValidarTPA(input); err != nil {
		return nil, err
	}
	return s.repo.UpdateTPA(ctx, id, input)
}

// ResolveLoginTPA traduz o identificador de login (matrícula ou e-mail) para
// o e-mail da conta. Matrículas são sequências numéricas curtas.
func (s *Service) ResolveLoginTPA(ctx context.Context, identificador string) (string, error) {
	identificador = strings.TrimSpace(identificador)
	if strings.Contains(identificador, "@") {
		return strings.ToLower(identificador), nil
	}

	tpa, err := s.repo.GetTPAByMatricula(ctx, identificador)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", fmt.Errorf("cadastro: matrícula %q não encontrada: %w", identificador, repo.ErrNotFound)
		}
		return "", err
	}
	return strings.ToLower(tpa.Email), nil
}
