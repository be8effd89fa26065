package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const mensalidadeColumns = `id, ogmo_id, mes_referencia, quantidade_operadores, valor_total, data_vencimento, data_pagamento, status, cnpj_pagador, nf_emitida, observacoes, created_at, updated_at`

// Repository provê acesso às mensalidades e à configuração financeira global.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository cria um novo repositório de mensalidades.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CountBillableOperators delega à função agregada do banco o cálculo de
// operadores faturáveis do OGMO no mês de referência.
func (r *Repository) CountBillableOperators(ctx context.Context, ogmoID uuid.UUID, ref time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT count_billable_operators($1, $2)`, ogmoID, ref).Scan(&count)
	return count, err
}

// Insert grava uma mensalidade pendente. A unicidade por (ogmo, mês) é
// garantida pelo upsert atômico: quando já houver registro o insert é um
// no-op e o retorno indica created=false.
func (r *Repository) Insert(ctx context.Context, input CreateInput) (*Mensalidade, bool, error) {
	const query = `
        INSERT INTO mensalidades_ogmo (ogmo_id, mes_referencia, quantidade_operadores, valor_total, data_vencimento, status, cnpj_pagador)
        VALUES ($1, $2, $3, $4, $5, 'pendente', $6)
        ON CONFLICT (ogmo_id, mes_referencia) DO NOTHING
        RETURNING ` + mensalidadeColumns + `
    `

	row := r.pool.QueryRow(ctx, query,
		input.OgmoID,
		input.MesReferencia,
		input.QuantidadeOperadores,
		input.ValorTotal,
		input.DataVencimento,
		input.CNPJPagador,
	)

	m, err := scanMensalidade(row)
	if err != nil {
		if err == ErrNotFound {
			// Conflito: mensalidade do mês já existe.
			return nil, false, nil
		}
		return nil, false, err
	}
	return m, true, nil
}

// GetByID busca mensalidade pelo identificador.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Mensalidade, error) {
	const query = `SELECT ` + mensalidadeColumns + ` FROM mensalidades_ogmo WHERE id = $1`
	return scanMensalidade(r.pool.QueryRow(ctx, query, id))
}

// ListByOgmo devolve as mensalidades do OGMO, mais recentes primeiro.
func (r *Repository) ListByOgmo(ctx context.Context, ogmoID uuid.UUID) ([]Mensalidade, error) {
	const query = `
        SELECT ` + mensalidadeColumns + `
        FROM mensalidades_ogmo
        WHERE ogmo_id = $1
        ORDER BY mes_referencia DESC
    `
	return r.list(ctx, query, ogmoID)
}

// ListAll devolve todas as mensalidades, mais recentes primeiro.
func (r *Repository) ListAll(ctx context.Context) ([]Mensalidade, error) {
	const query = `
        SELECT ` + mensalidadeColumns + `
        FROM mensalidades_ogmo
        ORDER BY mes_referencia DESC, created_at DESC
    `
	return r.list(ctx, query)
}

// ListOutstanding devolve mensalidades não pagas do OGMO na ordem de
// referência crescente. A conciliação casa a primeira encontrada.
func (r *Repository) ListOutstanding(ctx context.Context, ogmoID uuid.UUID) ([]Mensalidade, error) {
	const query = `
        SELECT ` + mensalidadeColumns + `
        FROM mensalidades_ogmo
        WHERE ogmo_id = $1 AND status IN ('pendente', 'atrasado')
        ORDER BY mes_referencia ASC
    `
	return r.list(ctx, query, ogmoID)
}

// MarkPaid marca a mensalidade como paga, com data e observação.
func (r *Repository) MarkPaid(ctx context.Context, id uuid.UUID, dataPagamento time.Time, observacoes string) error {
	const query = `
        UPDATE mensalidades_ogmo
        SET status = 'pago',
            data_pagamento = $2,
            observacoes = NULLIF($3, ''),
            updated_at = now()
        WHERE id = $1
    `
	tag, err := r.pool.Exec(ctx, query, id, dataPagamento, observacoes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetNotaFiscal alterna a flag de nota fiscal emitida.
func (r *Repository) SetNotaFiscal(ctx context.Context, id uuid.UUID, emitida bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE mensalidades_ogmo SET nf_emitida = $2, updated_at = now() WHERE id = $1`, id, emitida)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetValorPorOperadorGlobal lê a linha única de configuração financeira.
func (r *Repository) GetValorPorOperadorGlobal(ctx context.Context) (float64, error) {
	var valor float64
	err := r.pool.QueryRow(ctx, `SELECT valor_por_operador FROM configuracoes_financeiras LIMIT 1`).Scan(&valor)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, ErrConfigMissing
		}
		return 0, err
	}
	return valor, nil
}

// UpdateValorPorOperadorGlobal grava o valor padrão global.
func (r *Repository) UpdateValorPorOperadorGlobal(ctx context.Context, valor float64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE configuracoes_financeiras SET valor_por_operador = $1, updated_at = now()`, valor)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConfigMissing
	}
	return nil
}

// RegistrarExtrato grava o registro de um extrato bancário importado.
func (r *Repository) RegistrarExtrato(ctx context.Context, nomeArquivo string, registros, conciliados int, importadoPor *uuid.UUID) error {
	const query = `
        INSERT INTO extratos_bancarios (nome_arquivo, quantidade_registros, quantidade_conciliados, importado_por)
        VALUES ($1, $2, $3, $4)
    `
	_, err := r.pool.Exec(ctx, query, nomeArquivo, registros, conciliados, importadoPor)
	return err
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]Mensalidade, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mensalidades []Mensalidade
	for rows.Next() {
		m, err := scanMensalidade(rows)
		if err != nil {
			return nil, err
		}
		mensalidades = append(mensalidades, *m)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return mensalidades, nil
}

func scanMensalidade(row pgx.Row) (*Mensalidade, error) {
	var m Mensalidade
	err := row.Scan(&m.ID, &m.OgmoID, &m.MesReferencia, &m.QuantidadeOperadores, &m.ValorTotal,
		&m.DataVencimento, &m.DataPagamento, &m.Status, &m.CNPJPagador, &m.NFEmitida,
		&m.Observacoes, &m.CriadoEm, &m.AtualizadoEm)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}
