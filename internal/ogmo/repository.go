package ogmo

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const ogmoColumns = `id, nome, cnpj, email, telefone, endereco, contato_emergencia, valor_por_operador, bloqueado, user_id, created_at, updated_at`

// Repository provê acesso ao armazenamento de OGMOs.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository cria um novo repositório de OGMOs.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID busca OGMO pelo identificador.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Ogmo, error) {
	const query = `SELECT ` + ogmoColumns + ` FROM ogmos WHERE id = $1`
	return scanOgmo(r.pool.QueryRow(ctx, query, id))
}

// GetByCNPJ busca OGMO pelo CNPJ formatado.
func (r *Repository) GetByCNPJ(ctx context.Context, cnpj string) (*Ogmo, error) {
	const query = `SELECT ` + ogmoColumns + ` FROM ogmos WHERE cnpj = $1`
	return scanOgmo(r.pool.QueryRow(ctx, query, cnpj))
}

// GetByUserID busca o OGMO associado a uma conta de login.
func (r *Repository) GetByUserID(ctx context.Context, userID uuid.UUID) (*Ogmo, error) {
	const query = `SELECT ` + ogmoColumns + ` FROM ogmos WHERE user_id = $1`
	return scanOgmo(r.pool.QueryRow(ctx, query, userID))
}

// List devolve todos os OGMOs ordenados por nome.
func (r *Repository) List(ctx context.Context) ([]Ogmo, error) {
	const query = `SELECT ` + ogmoColumns + ` FROM ogmos ORDER BY nome ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ogmos []Ogmo
	for rows.Next() {
		o, err := scanOgmo(rows)
		if err != nil {
			return nil, err
		}
		ogmos = append(ogmos, *o)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return ogmos, nil
}

// Create insere um novo OGMO e devolve os dados persistidos.
func (r *Repository) Create(ctx context.Context, input CreateInput) (*Ogmo, error) {
	const query = `
        INSERT INTO ogmos (nome, cnpj, email, telefone, endereco, contato_emergencia, valor_por_operador, user_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING ` + ogmoColumns + `
    `

	row := r.pool.QueryRow(ctx, query,
		strings.TrimSpace(input.Nome),
		FormatCNPJ(input.CNPJ),
		input.Email,
		input.Telefone,
		input.Endereco,
		input.ContatoEmergencia,
		input.ValorPorOperador,
		input.UserID,
	)
	return scanOgmo(row)
}

// CreateTx insere o OGMO dentro da transação de provisionamento da conta.
func (r *Repository) CreateTx(ctx context.Context, tx pgx.Tx, input CreateInput) (*Ogmo, error) {
	const query = `
        INSERT INTO ogmos (nome, cnpj, email, telefone, endereco, contato_emergencia, valor_por_operador, user_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING ` + ogmoColumns + `
    `

	row := tx.QueryRow(ctx, query,
		strings.TrimSpace(input.Nome),
		FormatCNPJ(input.CNPJ),
		input.Email,
		input.Telefone,
		input.Endereco,
		input.ContatoEmergencia,
		input.ValorPorOperador,
		input.UserID,
	)
	return scanOgmo(row)
}

// Update altera os dados cadastrais do OGMO.
func (r *Repository) Update(ctx context.Context, input UpdateInput) (*Ogmo, error) {
	const query = `
        UPDATE ogmos
        SET nome = $2,
            email = $3,
            telefone = $4,
            endereco = $5,
            contato_emergencia = $6,
            valor_por_operador = $7,
            updated_at = now()
        WHERE id = $1
        RETURNING ` + ogmoColumns + `
    `

	row := r.pool.QueryRow(ctx, query,
		input.ID,
		strings.TrimSpace(input.Nome),
		input.Email,
		input.Telefone,
		input.Endereco,
		input.ContatoEmergencia,
		input.ValorPorOperador,
	)
	return scanOgmo(row)
}

// SetBloqueado alterna o bloqueio de acesso do OGMO.
func (r *Repository) SetBloqueado(ctx context.Context, id uuid.UUID, bloqueado bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE ogmos SET bloqueado = $2, updated_at = now() WHERE id = $1`, id, bloqueado)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete remove definitivamente o OGMO.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM ogmos WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanOgmo(row pgx.Row) (*Ogmo, error) {
	var o Ogmo
	err := row.Scan(&o.ID, &o.Nome, &o.CNPJ, &o.Email, &o.Telefone, &o.Endereco,
		&o.ContatoEmergencia, &o.ValorPorOperador, &o.Bloqueado, &o.UserID, &o.CriadoEm, &o.AtualizadoEm)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}
