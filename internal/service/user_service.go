package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/gestaoportuaria/backoffice/internal/alerta"
	"github.com/gestaoportuaria/backoffice/internal/auth"
	"github.com/gestaoportuaria/backoffice/internal/cadastro"
	"github.com/gestaoportuaria/backoffice/internal/db"
	"github.com/gestaoportuaria/backoffice/internal/ogmo"
	"github.com/gestaoportuaria/backoffice/internal/repo"
)

var (
	// ErrEmailInvalido indica e-mail malformado.
	ErrEmailInvalido = errors.New("e-mail inválido")
	// ErrSenhaFraca indica senha abaixo do mínimo.
	ErrSenhaFraca = errors.New("senha deve ter ao menos 8 caracteres")
	// ErrRoleInvalida indica papel fora do conjunto administrável.
	ErrRoleInvalida = errors.New("papel inválido para usuário administrativo")
	// ErrTPASemConta indica TPA ainda não provisionado com conta de acesso.
	ErrTPASemConta = errors.New("tpa sem conta de acesso")
)

// TPAStore abstrai a persistência de TPAs usada pelo provisionamento.
type TPAStore interface {
	GetTPA(ctx context.Context, id uuid.UUID) (*cadastro.TPA, error)
	GetTPAByMatricula(ctx context.Context, matricula string) (*cadastro.TPA, error)
	CreateTPATx(ctx context.Context, tx pgx.Tx, input cadastro.TPAInput, userID uuid.UUID) (*cadastro.TPA, error)
	DeleteTPA(ctx context.Context, id uuid.UUID) error
}

// AlertaEmissor registra eventos cadastrais no histórico de alertas do OGMO.
type AlertaEmissor interface {
	Emitir(ctx context.Context, input alerta.CreateInput) (*alerta.Alerta, error)
}

// UserService provisiona contas de acesso: usuários administrativos, contas
// institucionais de OGMO e contas de TPA.
type UserService struct {
	pool    *pgxpool.Pool
	queries *repo.Queries
	ogmos   *ogmo.Repository
	tpas    TPAStore
	alertas AlertaEmissor
}

// NewUserService cria novo serviço de provisionamento.
func NewUserService(pool *pgxpool.Pool, queries *repo.Queries, ogmos *ogmo.Repository, tpas TPAStore, alertas AlertaEmissor) *UserService {
	return &UserService{pool: pool, queries: queries, ogmos: ogmos, tpas: tpas, alertas: alertas}
}

// eventoCadastralTPA monta o alerta de cadastro/descadastro do trabalhador.
func eventoCadastralTPA(tpa *cadastro.TPA, tipo, descricao string) alerta.CreateInput {
	return alerta.CreateInput{
		OgmoID:       tpa.OgmoID,
		Tipo:         tipo,
		NomeOperador: tpa.Nome,
		CPFOperador:  cadastro.NormalizeCPF(tpa.CPF),
		Descricao:    descricao,
	}
}

// CreateAdminUser cria conta administrativa com papel admin ou usuario.
func (s *UserService) CreateAdminUser(ctx context.Context, nome, email, senha, role string) (*repo.Conta, error) {
	if role != repo.RoleAdmin && role != repo.RoleUsuario {
		return nil, ErrRoleInvalida
	}
	if !strings.Contains(email, "@") {
		return nil, ErrEmailInvalido
	}
	if len(senha) < 8 {
		return nil, ErrSenhaFraca
	}

	hash, err := auth.Hash(senha)
	if err != nil {
		return nil, err
	}

	var conta repo.Conta
	err = db.WithTx(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		conta, err = s.queries.CreateContaTx(ctx, tx, email, hash)
		if err != nil {
			return err
		}
		if err := s.queries.AddRoleTx(ctx, tx, conta.ID, role); err != nil {
			return err
		}
		nome := strings.TrimSpace(nome)
		return s.queries.UpsertProfileTx(ctx, tx, repo.Profile{
			ID:            conta.ID,
			NomeCompleto:  &nome,
			SenhaAlterada: true,
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("conta_id", conta.ID.String()).Str("role", role).Msg("usuário administrativo criado")
	return &conta, nil
}

// CreateOgmoUser registra o OGMO junto com sua conta institucional em uma
// única transação.
func (s *UserService) CreateOgmoUser(ctx context.Context, input ogmo.CreateInput, email, senha string) (*ogmo.Ogmo, error) {
	if strings.TrimSpace(input.Nome) == "" || len(ogmo.NormalizeCNPJ(input.CNPJ)) != 14 {
		return nil, errors.New("nome e cnpj válidos são obrigatórios")
	}
	if !strings.Contains(email, "@") {
		return nil, ErrEmailInvalido
	}
	if len(senha) < 8 {
		return nil, ErrSenhaFraca
	}

	hash, err := auth.Hash(senha)
	if err != nil {
		return nil, err
	}

	var criado *ogmo.Ogmo
	err = db.WithTx(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		conta, err := s.queries.CreateContaTx(ctx, tx, email, hash)
		if err != nil {
			return err
		}
		if err := s.queries.AddRoleTx(ctx, tx, conta.ID, repo.RoleOgmo); err != nil {
			return err
		}
		nome := strings.TrimSpace(input.Nome)
		if err := s.queries.UpsertProfileTx(ctx, tx, repo.Profile{
			ID:            conta.ID,
			NomeCompleto:  &nome,
			SenhaAlterada: true,
		}); err != nil {
			return err
		}

		input.UserID = &conta.ID
		criado, err = s.ogmos.CreateTx(ctx, tx, input)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("ogmo_id", criado.ID.String()).Msg("ogmo provisionado com conta institucional")
	return criado, nil
}

// CreateTPAUser registra o TPA e sua conta de acesso. A senha inicial é o
// próprio CPF (somente dígitos) e o perfil nasce com senha_alterada falso,
// forçando a troca no primeiro acesso.
func (s *UserService) CreateTPAUser(ctx context.Context, input cadastro.TPAInput) (*cadastro.TPA, error) {
	if err := cadastro.ValidarTPA(input); err != nil {
		return nil, err
	}

	cpf := cadastro.NormalizeCPF(input.CPF)
	hash, err := auth.Hash(cpf)
	if err != nil {
		return nil, err
	}

	var criado *cadastro.TPA
	err = db.WithTx(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		conta, err := s.queries.CreateContaTx(ctx, tx, input.Email, hash)
		if err != nil {
			return err
		}
		if err := s.queries.AddRoleTx(ctx, tx, conta.ID, repo.RoleTrabalhadorAvulso); err != nil {
			return err
		}

		nome := strings.TrimSpace(input.Nome)
		profile := repo.Profile{
			ID:           conta.ID,
			NomeCompleto: &nome,
			CPF:          &cpf,
			OgmoID:       &input.OgmoID,
		}
		if matricula, err := strconv.ParseInt(strings.TrimSpace(input.Matricula), 10, 64); err == nil {
			profile.Matricula = &matricula
		}
		if err := s.queries.UpsertProfileTx(ctx, tx, profile); err != nil {
			return err
		}

		criado, err = s.tpas.CreateTPATx(ctx, tx, input, conta.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.alertas.Emitir(ctx, eventoCadastralTPA(criado, alerta.TipoCadastro, "Trabalhador avulso cadastrado")); err != nil {
		log.Warn().Err(err).Str("tpa_id", criado.ID.String()).Msg("evento de cadastro não registrado")
	}

	log.Info().
		Str("tpa_id", criado.ID.String()).
		Str("ogmo_id", criado.OgmoID.String()).
		Msg("tpa provisionado com senha inicial igual ao cpf")
	return criado, nil
}

// DeleteTPA remove o trabalhador avulso junto com sua conta de acesso e
// registra o descadastro no histórico de alertas do OGMO.
func (s *UserService) DeleteTPA(ctx context.Context, id uuid.UUID) error {
	tpa, err := s.tpas.GetTPA(ctx, id)
	if err != nil {
		return err
	}
	if err := s.tpas.DeleteTPA(ctx, id); err != nil {
		return err
	}
	if tpa.UserID != nil {
		if err := s.queries.DeleteConta(ctx, *tpa.UserID); err != nil && !errors.Is(err, repo.ErrNotFound) {
			log.Warn().Err(err).Str("tpa_id", id.String()).Msg("conta do tpa não pôde ser removida")
		}
	}

	if _, err := s.alertas.Emitir(ctx, eventoCadastralTPA(tpa, alerta.TipoDescadastro, "Trabalhador avulso descadastrado")); err != nil {
		log.Warn().Err(err).Str("tpa_id", id.String()).Msg("evento de descadastro não registrado")
	}

	log.Info().
		Str("tpa_id", id.String()).
		Str("ogmo_id", tpa.OgmoID.String()).
		Msg("tpa removido")
	return nil
}

// ImportarTPAs provisiona trabalhadores avulsos em lote a partir de uma
// planilha XLSX, pulando matrículas já cadastradas e acumulando erros linha
// a linha.
func (s *UserService) ImportarTPAs(ctx context.Context, ogmoID uuid.UUID, conteudo []byte) (*cadastro.ResultadoImportacao, error) {
	linhas, err := cadastro.ParsePlanilhaTPAs(conteudo)
	if err != nil {
		return nil, err
	}

	resultado := &cadastro.ResultadoImportacao{Total: len(linhas)}
	for _, linha := range linhas {
		input := cadastro.TPAInput{
			OgmoID:    ogmoID,
			Nome:      linha.Nome,
			CPF:       linha.CPF,
			Matricula: linha.Matricula,
			Email:     linha.Email,
			Celular:   linha.Celular,
		}

		if _, err := s.tpas.GetTPAByMatricula(ctx, input.Matricula); err == nil {
			resultado.Duplicados++
			continue
		} else if !errors.Is(err, repo.ErrNotFound) {
			resultado.Erros = append(resultado.Erros, cadastro.ErroImportacao{Linha: linha.Linha, Motivo: err.Error()})
			continue
		}

		if _, err := s.CreateTPAUser(ctx, input); err != nil {
			resultado.Erros = append(resultado.Erros, cadastro.ErroImportacao{Linha: linha.Linha, Motivo: err.Error()})
			continue
		}
		resultado.Importados++
	}

	log.Info().
		Str("ogmo_id", ogmoID.String()).
		Int("total", resultado.Total).
		Int("importados", resultado.Importados).
		Int("duplicados", resultado.Duplicados).
		Int("erros", len(resultado.Erros)).
		Msg("planilha de tpas importada")

	return resultado, nil
}

// ResetTPAPassword restaura a senha do TPA para o CPF e volta a exigir troca
// no próximo acesso.
func (s *UserService) ResetTPAPassword(ctx context.Context, tpaID uuid.UUID) error {
	tpa, err := s.tpas.GetTPA(ctx, tpaID)
	if err != nil {
		return err
	}
	if tpa.UserID == nil {
		return ErrTPASemConta
	}

	hash, err := auth.Hash(cadastro.NormalizeCPF(tpa.CPF))
	if err != nil {
		return err
	}
	if err := s.queries.ResetSenha(ctx, *tpa.UserID, hash); err != nil {
		return err
	}

	log.Info().Str("tpa_id", tpaID.String()).Msg("senha do tpa restaurada para o cpf")
	return nil
}

// ListAdminUsers lista contas administrativas (papéis admin e usuario).
func (s *UserService) ListAdminUsers(ctx context.Context) ([]repo.ContaComRole, error) {
	return s.queries.ListContasByRoles(ctx, []string{repo.RoleAdmin, repo.RoleUsuario})
}

// UpdateAdminUser atualiza e-mail, senha e papel de uma conta administrativa.
// Campos vazios são mantidos como estão.
func (s *UserService) UpdateAdminUser(ctx context.Context, id uuid.UUID, email, senha, role string) error {
	if email = strings.TrimSpace(email); email != "" {
		if !strings.Contains(email, "@") {
			return ErrEmailInvalido
		}
		if err := s.queries.UpdateContaEmail(ctx, id, email); err != nil {
			return err
		}
	}

	if senha != "" {
		if len(senha) < 8 {
			return ErrSenhaFraca
		}
		hash, err := auth.Hash(senha)
		if err != nil {
			return err
		}
		if err := s.queries.UpdateSenha(ctx, id, hash); err != nil {
			return err
		}
	}

	if role != "" {
		if role != repo.RoleAdmin && role != repo.RoleUsuario {
			return ErrRoleInvalida
		}
		if err := s.queries.UpdateRole(ctx, id, role); err != nil {
			return err
		}
	}

	log.Info().Str("conta_id", id.String()).Msg("usuário administrativo atualizado")
	return nil
}

// SetContaAtiva habilita ou suspende o acesso de uma conta.
func (s *UserService) SetContaAtiva(ctx context.Context, id uuid.UUID, ativa bool) error {
	return s.queries.SetContaAtiva(ctx, id, ativa)
}

// DeleteConta remove definitivamente uma conta de acesso.
func (s *UserService) DeleteConta(ctx context.Context, id uuid.UUID) error {
	return s.queries.DeleteConta(ctx, id)
}
