package alerta

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gestaoportuaria/backoffice/internal/repo"
)

const alertaColumns = "id, ogmo_id, operador_id, tipo, nome_operador, cpf_operador, descricao, data_evento, documento_id, tipo_documento, lida, visualizado, created_at"

// Repository provê acesso à tabela de alertas.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository cria instância do repositório.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create insere um novo alerta.
func (r *Repository) Create(ctx context.Context, input CreateInput) (*Alerta, error) {
	const query = `
        INSERT INTO alertas_operadores (ogmo_id, operador_id, tipo, nome_operador, cpf_operador, descricao, data_evento, documento_id, tipo_documento)
        VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, NULLIF($9, ''))
        RETURNING ` + alertaColumns + `
    `

	row := r.pool.QueryRow(ctx, query,
		input.OgmoID,
		input.OperadorID,
		strings.TrimSpace(input.Tipo),
		strings.TrimSpace(input.NomeOperador),
		strings.TrimSpace(input.CPFOperador),
		strings.TrimSpace(input.Descricao),
		input.DataEvento,
		input.DocumentoID,
		strings.TrimSpace(input.TipoDocumento),
	)
	return scanAlerta(row)
}

// GetByID busca um alerta específico.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Alerta, error) {
	const query = `SELECT ` + alertaColumns + ` FROM alertas_operadores WHERE id = $1`
	return scanAlerta(r.pool.QueryRow(ctx, query, id))
}

// List lista alertas aplicando filtros simples.
func (r *Repository) List(ctx context.Context, filter Filter) ([]Alerta, error) {
	base := `SELECT ` + alertaColumns + ` FROM alertas_operadores`

	var (
		clauses []string
		args    []any
		idx     = 1
	)

	if filter.OgmoID != nil {
		clauses = append(clauses, fmt.Sprintf("ogmo_id = $%d", idx))
		args = append(args, *filter.OgmoID)
		idx++
	}

	if tipo := strings.TrimSpace(filter.Tipo); tipo != "" {
		clauses = append(clauses, fmt.Sprintf("tipo = $%d", idx))
		args = append(args, tipo)
		idx++
	}

	if filter.SomenteNaoLidos {
		clauses = append(clauses, "COALESCE(lida, false) = false")
	}

	query := base
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query += fmt.Sprintf(" ORDER BY data_evento DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alertas []Alerta
	for rows.Next() {
		a, err := scanAlerta(rows)
		if err != nil {
			return nil, err
		}
		alertas = append(alertas, *a)
	}
	return alertas, rows.Err()
}

// MarcarLida marca um alerta como lido.
func (r *Repository) MarcarLida(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE alertas_operadores SET lida = true WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// MarcarVisualizadosPorOgmo marca como visualizados todos os alertas do OGMO.
// Usado pela conciliação bancária após a baixa de mensalidade.
func (r *Repository) MarcarVisualizadosPorOgmo(ctx context.Context, ogmoID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE alertas_operadores SET visualizado = true WHERE ogmo_id = $1 AND visualizado = false`, ogmoID)
	return err
}

// Delete remove um alerta.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM alertas_operadores WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// CountNaoLidos conta alertas não lidos do OGMO.
func (r *Repository) CountNaoLidos(ctx context.Context, ogmoID uuid.UUID) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM alertas_operadores WHERE ogmo_id = $1 AND COALESCE(lida, false) = false`, ogmoID).Scan(&total)
	return total, err
}

func scanAlerta(row pgx.Row) (*Alerta, error) {
	var a Alerta
	err := row.Scan(
		&a.ID,
		&a.OgmoID,
		&a.OperadorID,
		&a.Tipo,
		&a.NomeOperador,
		&a.CPFOperador,
		&a.Descricao,
		&a.DataEvento,
		&a.DocumentoID,
		&a.TipoDocumento,
		&a.Lida,
		&a.Visualizado,
		&a.CriadoEm,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}
