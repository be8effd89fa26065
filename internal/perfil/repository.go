package perfil

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gestaoportuaria/backoffice/internal/db"
	"github.com/gestaoportuaria/backoffice/internal/repo"
)

// Repository provê acesso a perfis, permissões e vínculos de usuário.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository cria instância do repositório.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create insere um perfil.
func (r *Repository) Create(ctx context.Context, input PerfilInput) (*Perfil, error) {
	const query = `
        INSERT INTO perfis_usuario (ogmo_id, nome, descricao)
        VALUES ($1, $2, NULLIF($3, ''))
        RETURNING id, ogmo_id, nome, descricao, created_at, updated_at
    `
	row := r.pool.QueryRow(ctx, query, input.OgmoID, strings.TrimSpace(input.Nome), strings.TrimSpace(input.Descricao))
	return scanPerfil(row)
}

// GetByID busca um perfil.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Perfil, error) {
	const query = `SELECT id, ogmo_id, nome, descricao, created_at, updated_at FROM perfis_usuario WHERE id = $1`
	return scanPerfil(r.pool.QueryRow(ctx, query, id))
}

// ListByOgmo lista os perfis do OGMO.
func (r *Repository) ListByOgmo(ctx context.Context, ogmoID uuid.UUID) ([]Perfil, error) {
	const query = `SELECT id, ogmo_id, nome, descricao, created_at, updated_at FROM perfis_usuario WHERE ogmo_id = $1 ORDER BY nome ASC`
	rows, err := r.pool.Query(ctx, query, ogmoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perfis []Perfil
	for rows.Next() {
		p, err := scanPerfil(rows)
		if err != nil {
			return nil, err
		}
		perfis = append(perfis, *p)
	}
	return perfis, rows.Err()
}

// Update altera nome e descrição do perfil.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, input PerfilInput) (*Perfil, error) {
	const query = `
        UPDATE perfis_usuario
        SET nome = $2, descricao = NULLIF($3, ''), updated_at = now()
        WHERE id = $1
        RETURNING id, ogmo_id, nome, descricao, created_at, updated_at
    `
	row := r.pool.QueryRow(ctx, query, id, strings.TrimSpace(input.Nome), strings.TrimSpace(input.Descricao))
	return scanPerfil(row)
}

// Delete remove o perfil e, por cascata, permissões e vínculos.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM perfis_usuario WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// ListPermissoes devolve as permissões do perfil.
func (r *Repository) ListPermissoes(ctx context.Context, perfilID uuid.UUID) ([]Permissao, error) {
	const query = `
        SELECT id, perfil_id, recurso, COALESCE(pode_visualizar, false), COALESCE(pode_criar, false), COALESCE(pode_editar, false), COALESCE(pode_excluir, false)
        FROM permissoes_perfil
        WHERE perfil_id = $1
        ORDER BY recurso ASC
    `
	rows, err := r.pool.Query(ctx, query, perfilID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPermissoes(rows)
}

// ReplacePermissoes substitui atomicamente todas as permissões do perfil.
func (r *Repository) ReplacePermissoes(ctx context.Context, perfilID uuid.UUID, permissoes []PermissaoInput) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM permissoes_perfil WHERE perfil_id = $1`, perfilID); err != nil {
			return err
		}

		const insert = `
            INSERT INTO permissoes_perfil (perfil_id, recurso, pode_visualizar, pode_criar, pode_editar, pode_excluir)
            VALUES ($1, $2, $3, $4, $5, $6)
        `
		for _, p := range permissoes {
			recurso := strings.TrimSpace(p.Recurso)
			if recurso == "" {
				continue
			}
			if _, err := tx.Exec(ctx, insert, perfilID, recurso, p.PodeVisualizar, p.PodeCriar, p.PodeEditar, p.PodeExcluir); err != nil {
				return err
			}
		}
		return nil
	})
}

// AtribuirPerfil vincula o perfil ao usuário.
func (r *Repository) AtribuirPerfil(ctx context.Context, userID, perfilID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO usuario_perfis (user_id, perfil_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, userID, perfilID)
	return err
}

// RemoverPerfil desvincula o perfil do usuário.
func (r *Repository) RemoverPerfil(ctx context.Context, userID, perfilID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM usuario_perfis WHERE user_id = $1 AND perfil_id = $2`, userID, perfilID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// ListPermissoesPorUsuario reúne as permissões de todos os perfis do usuário.
func (r *Repository) ListPermissoesPorUsuario(ctx context.Context, userID uuid.UUID) ([]Permissao, error) {
	const query = `
        SELECT pp.id, pp.perfil_id, pp.recurso, COALESCE(pp.pode_visualizar, false), COALESCE(pp.pode_criar, false), COALESCE(pp.pode_editar, false), COALESCE(pp.pode_excluir, false)
        FROM permissoes_perfil pp
        JOIN usuario_perfis up ON up.perfil_id = pp.perfil_id
        WHERE up.user_id = $1
    `
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPermissoes(rows)
}

func collectPermissoes(rows pgx.Rows) ([]Permissao, error) {
	var permissoes []Permissao
	for rows.Next() {
		var p Permissao
		if err := rows.Scan(&p.ID, &p.PerfilID, &p.Recurso, &p.PodeVisualizar, &p.PodeCriar, &p.PodeEditar, &p.PodeExcluir); err != nil {
			return nil, err
		}
		permissoes = append(permissoes, p)
	}
	return permissoes, rows.Err()
}

func scanPerfil(row pgx.Row) (*Perfil, error) {
	var p Perfil
	err := row.Scan(&p.ID, &p.OgmoID, &p.Nome, &p.Descricao, &p.CriadoEm, &p.AtualizadoEm)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}
