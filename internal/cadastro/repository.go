package cadastro

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gestaoportuaria/backoffice/internal/ogmo"
	"github.com/gestaoportuaria/backoffice/internal/repo"
)

const (
	operadorColumns = "id, ogmo_id, nome, cpf, email, telefone, created_at, updated_at"
	terminalColumns = "id, ogmo_id, nome, cnpj, email, telefone, endereco, COALESCE(bloqueado, false), user_id, created_at, updated_at"
	tpaColumns      = "id, ogmo_id, nome, cpf, matricula, email, celular, user_id, created_at, updated_at"
)

// Repository provê acesso às tabelas cadastrais do OGMO.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository cria instância do repositório.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// --- operadores portuários ---

// CreateOperador insere um operador.
func (r *Repository) CreateOperador(ctx context.Context, input OperadorInput) (*Operador, error) {
	const query = `
        INSERT INTO operadores_portuarios (ogmo_id, nome, cpf, email, telefone)
        VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''))
        RETURNING ` + operadorColumns + `
    `
	row := r.pool.QueryRow(ctx, query,
		input.OgmoID,
		strings.TrimSpace(input.Nome),
		NormalizeCPF(input.CPF),
		strings.TrimSpace(input.Email),
		strings.TrimSpace(input.Telefone),
	)
	return scanOperador(row)
}

// GetOperador busca um operador pelo identificador.
func (r *Repository) GetOperador(ctx context.Context, id uuid.UUID) (*Operador, error) {
	const query = `SELECT ` + operadorColumns + ` FROM operadores_portuarios WHERE id = $1`
	return scanOperador(r.pool.QueryRow(ctx, query, id))
}

// GetOperadorByCPF busca um operador do OGMO pelo CPF.
func (r *Repository) GetOperadorByCPF(ctx context.Context, ogmoID uuid.UUID, cpf string) (*Operador, error) {
	const query = `SELECT ` + operadorColumns + ` FROM operadores_portuarios WHERE ogmo_id = $1 AND cpf = $2`
	return scanOperador(r.pool.QueryRow(ctx, query, ogmoID, NormalizeCPF(cpf)))
}

// ListOperadores lista operadores do OGMO em ordem alfabética.
func (r *Repository) ListOperadores(ctx context.Context, ogmoID uuid.UUID) ([]Operador, error) {
	const query = `SELECT ` + operadorColumns + ` FROM operadores_portuarios WHERE ogmo_id = $1 ORDER BY nome ASC`
	rows, err := r.pool.Query(ctx, query, ogmoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var operadores []Operador
	for rows.Next() {
		o, err := scanOperador(rows)
		if err != nil {
			return nil, err
		}
		operadores = append(operadores, *o)
	}
	return operadores, rows.Err()
}

// UpdateOperador atualiza os dados do operador.
func (r *Repository) UpdateOperador(ctx context.Context, id uuid.UUID, input OperadorInput) (*Operador, error) {
	const query = `
        UPDATE operadores_portuarios
        SET nome = $2,
            cpf = $3,
            email = NULLIF($4, ''),
            telefone = NULLIF($5, ''),
            updated_at = now()
        WHERE id = $1
        RETURNING ` + operadorColumns + `
    `
	row := r.pool.QueryRow(ctx, query,
		id,
		strings.TrimSpace(input.Nome),
		NormalizeCPF(input.CPF),
		strings.TrimSpace(input.Email),
		strings.TrimSpace(input.Telefone),
	)
	return scanOperador(row)
}

// DeleteOperador remove o operador.
func (r *Repository) DeleteOperador(ctx context.Context, id uuid.UUID) error {
	return execAffecting(r.pool, ctx, `DELETE FROM operadores_portuarios WHERE id = $1`, id)
}

// --- terminais portuários ---

// CreateTerminal insere um terminal.
func (r *Repository) CreateTerminal(ctx context.Context, input TerminalInput) (*Terminal, error) {
	const query = `
        INSERT INTO terminais_portuarios (ogmo_id, nome, cnpj, email, telefone, endereco)
        VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''))
        RETURNING ` + terminalColumns + `
    `
	row := r.pool.QueryRow(ctx, query,
		input.OgmoID,
		strings.TrimSpace(input.Nome),
		ogmo.NormalizeCNPJ(input.CNPJ),
		strings.TrimSpace(input.Email),
		strings.TrimSpace(input.Telefone),
		strings.TrimSpace(input.Endereco),
	)
	return scanTerminal(row)
}

// GetTerminal busca um terminal pelo identificador.
func (r *Repository) GetTerminal(ctx context.Context, id uuid.UUID) (*Terminal, error) {
	const query = `SELECT ` + terminalColumns + ` FROM terminais_portuarios WHERE id = $1`
	return scanTerminal(r.pool.QueryRow(ctx, query, id))
}

// ListTerminais lista terminais; ogmoID nulo devolve todos.
func (r *Repository) ListTerminais(ctx context.Context, ogmoID *uuid.UUID) ([]Terminal, error) {
	query := `SELECT ` + terminalColumns + ` FROM terminais_portuarios`
	var args []any
	if ogmoID != nil {
		query += ` WHERE ogmo_id = $1`
		args = append(args, *ogmoID)
	}
	query += ` ORDER BY nome ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var terminais []Terminal
	for rows.Next() {
		t, err := scanTerminal(rows)
		if err != nil {
			return nil, err
		}
		terminais = append(terminais, *t)
	}
	return terminais, rows.Err()
}

// UpdateTerminal atualiza os dados do terminal.
func (r *Repository) UpdateTerminal(ctx context.Context, id uuid.UUID, input TerminalInput) (*Terminal, error) {
	const query = `
        UPDATE terminais_portuarios
        SET ogmo_id = $2,
            nome = $3,
            cnpj = $4,
            email = NULLIF($5, ''),
            telefone = NULLIF($6, ''),
            endereco = NULLIF($7, ''),
            updated_at = now()
        WHERE id = $1
        RETURNING ` + terminalColumns + `
    `
	row := r.pool.QueryRow(ctx, query,
		id,
		input.OgmoID,
		strings.TrimSpace(input.Nome),
		ogmo.NormalizeCNPJ(input.CNPJ),
		strings.TrimSpace(input.Email),
		strings.TrimSpace(input.Telefone),
		strings.TrimSpace(input.Endereco),
	)
	return scanTerminal(row)
}

// SetTerminalBloqueado alterna o bloqueio de acesso do terminal.
func (r *Repository) SetTerminalBloqueado(ctx context.Context, id uuid.UUID, bloqueado bool) error {
	return execAffecting(r.pool, ctx, `UPDATE terminais_portuarios SET bloqueado = $2, updated_at = now() WHERE id = $1`, id, bloqueado)
}

// DeleteTerminal remove o terminal.
func (r *Repository) DeleteTerminal(ctx context.Context, id uuid.UUID) error {
	return execAffecting(r.pool, ctx, `DELETE FROM terminais_portuarios WHERE id = $1`, id)
}

// --- trabalhadores portuários avulsos ---

// CreateTPATx insere um TPA já vinculado à conta criada na mesma transação.
func (r *Repository) CreateTPATx(ctx context.Context, tx pgx.Tx, input TPAInput, userID uuid.UUID) (*TPA, error) {
	const query = `
        INSERT INTO tpas (ogmo_id, nome, cpf, matricula, email, celular, user_id)
        VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)
        RETURNING ` + tpaColumns + `
    `
	row := tx.QueryRow(ctx, query,
		input.OgmoID,
		strings.TrimSpace(input.Nome),
		NormalizeCPF(input.CPF),
		strings.TrimSpace(input.Matricula),
		strings.ToLower(strings.TrimSpace(input.Email)),
		strings.TrimSpace(input.Celular),
		userID,
	)
	return scanTPA(row)
}

// GetTPA busca um TPA pelo identificador.
func (r *Repository) GetTPA(ctx context.Context, id uuid.UUID) (*TPA, error) {
	const query = `SELECT ` + tpaColumns + ` FROM tpas WHERE id = $1`
	return scanTPA(r.pool.QueryRow(ctx, query, id))
}

// GetTPAByMatricula resolve um TPA pela matrícula dentro do OGMO.
func (r *Repository) GetTPAByMatricula(ctx context.Context, matricula string) (*TPA, error) {
	const query = `SELECT ` + tpaColumns + ` FROM tpas WHERE matricula = $1`
	return scanTPA(r.pool.QueryRow(ctx, query, strings.TrimSpace(matricula)))
}

// GetTPAByUserID resolve o TPA dono da conta.
func (r *Repository) GetTPAByUserID(ctx context.Context, userID uuid.UUID) (*TPA, error) {
	const query = `SELECT ` + tpaColumns + ` FROM tpas WHERE user_id = $1`
	return scanTPA(r.pool.QueryRow(ctx, query, userID))
}

// ListTPAs lista os TPAs do OGMO em ordem alfabética.
func (r *Repository) ListTPAs(ctx context.Context, ogmoID uuid.UUID) ([]TPA, error) {
	const query = `SELECT ` + tpaColumns + ` FROM tpas WHERE ogmo_id = $1 ORDER BY nome ASC`
	rows, err := r.pool.Query(ctx, query, ogmoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tpas []TPA
	for rows.Next() {
		t, err := scanTPA(rows)
		if err != nil {
			return nil, err
		}
		tpas = append(tpas, *t)
	}
	return tpas, rows.Err()
}

// UpdateTPA atualiza os dados cadastrais do TPA.
func (r *Repository) UpdateTPA(ctx context.Context, id uuid.UUID, input TPAInput) (*TPA, error) {
	const query = `
        UPDATE tpas
        SET nome = $2,
            cpf = $3,
            matricula = $4,
            email = $5,
            celular = NULLIF($6, ''),
            updated_at = now()
        WHERE id = $1
        RETURNING ` + tpaColumns + `
    `
	row := r.pool.QueryRow(ctx, query,
		id,
		strings.TrimSpace(input.Nome),
		NormalizeCPF(input.CPF),
		strings.TrimSpace(input.Matricula),
		strings.ToLower(strings.TrimSpace(input.Email)),
		strings.TrimSpace(input.Celular),
	)
	return scanTPA(row)
}

// DeleteTPA remove o TPA.
func (r *Repository) DeleteTPA(ctx context.Context, id uuid.UUID) error {
	return execAffecting(r.pool, ctx, `DELETE FROM tpas WHERE id = $1`, id)
}

func execAffecting(pool *pgxpool.Pool, ctx context.Context, query string, args ...any) error {
	tag, err := pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func scanOperador(row pgx.Row) (*Operador, error) {
	var o Operador
	err := row.Scan(&o.ID, &o.OgmoID, &o.Nome, &o.CPF, &o.Email, &o.Telefone, &o.CriadoEm, &o.AtualizadoEm)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func scanTerminal(row pgx.Row) (*Terminal, error) {
	var t Terminal
	err := row.Scan(&t.ID, &t.OgmoID, &t.Nome, &t.CNPJ, &t.Email, &t.Telefone, &t.Endereco, &t.Bloqueado, &t.UserID, &t.CriadoEm, &t.AtualizadoEm)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func scanTPA(row pgx.Row) (*TPA, error) {
	var t TPA
	err := row.Scan(&t.ID, &t.OgmoID, &t.Nome, &t.CPF, &t.Matricula, &t.Email, &t.Celular, &t.UserID, &t.CriadoEm, &t.AtualizadoEm)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}
