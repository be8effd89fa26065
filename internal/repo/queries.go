package repo

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Queries concentra acesso às tabelas de contas, papéis e perfis.
type Queries struct {
	pool *pgxpool.Pool
}

// New cria o conjunto de queries sobre o pool.
func New(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}

// QueryRowContext expõe consulta pontual para serviços que precisam de SQL ad hoc.
func (q *Queries) QueryRowContext(ctx context.Context, sql string, args ...any) pgx.Row {
	return q.pool.QueryRow(ctx, sql, args...)
}

// GetContaByEmail busca conta pelo e-mail normalizado.
func (q *Queries) GetContaByEmail(ctx context.Context, email string) (Conta, error) {
	const query = `
        SELECT id, email, senha_hash, ativo, created_at
        FROM contas
        WHERE email = $1
    `
	var c Conta
	err := q.pool.QueryRow(ctx, query, strings.ToLower(strings.TrimSpace(email))).
		Scan(&c.ID, &c.Email, &c.SenhaHash, &c.Ativo, &c.CriadoEm)
	if err != nil {
		if err == pgx.ErrNoRows {
			return Conta{}, ErrNotFound
		}
		return Conta{}, err
	}
	return c, nil
}

// GetContaByID busca conta pelo identificador.
func (q *Queries) GetContaByID(ctx context.Context, id uuid.UUID) (Conta, error) {
	const query = `
        SELECT id, email, senha_hash, ativo, created_at
        FROM contas
        WHERE id = $1
    `
	var c Conta
	err := q.pool.QueryRow(ctx, query, id).
		Scan(&c.ID, &c.Email, &c.SenhaHash, &c.Ativo, &c.CriadoEm)
	if err != nil {
		if err == pgx.ErrNoRows {
			return Conta{}, ErrNotFound
		}
		return Conta{}, err
	}
	return c, nil
}

// ListRolesByConta devolve os papéis atribuídos à conta.
func (q *Queries) ListRolesByConta(ctx context.Context, userID uuid.UUID) ([]string, error) {
	const query = `SELECT role FROM user_roles WHERE user_id = $1 ORDER BY created_at ASC`

	rows, err := q.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// HasRole verifica se a conta possui o papel informado.
func (q *Queries) HasRole(ctx context.Context, userID uuid.UUID, role string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM user_roles WHERE user_id = $1 AND role = $2)`
	var ok bool
	if err := q.pool.QueryRow(ctx, query, userID, role).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// GetProfile recupera o perfil cadastral da conta.
func (q *Queries) GetProfile(ctx context.Context, id uuid.UUID) (Profile, error) {
	const query = `
        SELECT id, nome_completo, cpf, matricula, ogmo_id, senha_alterada, created_at, updated_at
        FROM profiles
        WHERE id = $1
    `
	var p Profile
	err := q.pool.QueryRow(ctx, query, id).
		Scan(&p.ID, &p.NomeCompleto, &p.CPF, &p.Matricula, &p.OgmoID, &p.SenhaAlterada, &p.CriadoEm, &p.AtualizadoEm)
	if err != nil {
		if err == pgx.ErrNoRows {
			return Profile{}, ErrNotFound
		}
		return Profile{}, err
	}
	return p, nil
}

// UpdateSenha troca o hash da senha e marca senha_alterada no perfil.
func (q *Queries) UpdateSenha(ctx context.Context, id uuid.UUID, hash string) error {
	tag, err := q.pool.Exec(ctx, `UPDATE contas SET senha_hash = $2 WHERE id = $1`, id, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	_, err = q.pool.Exec(ctx, `UPDATE profiles SET senha_alterada = true, updated_at = now() WHERE id = $1`, id)
	return err
}

// CreateContaTx insere uma conta dentro da transação corrente.
func (q *Queries) CreateContaTx(ctx context.Context, tx pgx.Tx, email, senhaHash string) (Conta, error) {
	const query = `
        INSERT INTO contas (email, senha_hash, ativo)
        VALUES ($1, $2, true)
        RETURNING id, email, senha_hash, ativo, created_at
    `
	var c Conta
	err := tx.QueryRow(ctx, query, strings.ToLower(strings.TrimSpace(email)), senhaHash).
		Scan(&c.ID, &c.Email, &c.SenhaHash, &c.Ativo, &c.CriadoEm)
	return c, err
}

// AddRoleTx atribui um papel à conta dentro da transação corrente.
func (q *Queries) AddRoleTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, role string) error {
	_, err := tx.Exec(ctx, `INSERT INTO user_roles (user_id, role) VALUES ($1, $2) ON CONFLICT DO NOTHING`, userID, role)
	return err
}

// UpsertProfileTx grava o perfil cadastral da conta dentro da transação.
func (q *Queries) UpsertProfileTx(ctx context.Context, tx pgx.Tx, p Profile) error {
	const query = `
        INSERT INTO profiles (id, nome_completo, cpf, matricula, ogmo_id, senha_alterada)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (id) DO UPDATE SET
            nome_completo = EXCLUDED.nome_completo,
            cpf = EXCLUDED.cpf,
            matricula = EXCLUDED.matricula,
            ogmo_id = EXCLUDED.ogmo_id,
            updated_at = now()
    `
	_, err := tx.Exec(ctx, query, p.ID, p.NomeCompleto, p.CPF, p.Matricula, p.OgmoID, p.SenhaAlterada)
	return err
}

// ResetSenha troca o hash e zera a flag senha_alterada (senha provisória).
func (q *Queries) ResetSenha(ctx context.Context, id uuid.UUID, hash string) error {
	tag, err := q.pool.Exec(ctx, `UPDATE contas SET senha_hash = $2 WHERE id = $1`, id, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	_, err = q.pool.Exec(ctx, `UPDATE profiles SET senha_alterada = false, updated_at = now() WHERE id = $1`, id)
	return err
}

// UpdateContaEmail troca o e-mail de login da conta.
func (q *Queries) UpdateContaEmail(ctx context.Context, id uuid.UUID, email string) error {
	tag, err := q.pool.Exec(ctx, `UPDATE contas SET email = $2 WHERE id = $1`,
		id, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateRole substitui o papel da conta.
func (q *Queries) UpdateRole(ctx context.Context, userID uuid.UUID, role string) error {
	tag, err := q.pool.Exec(ctx, `UPDATE user_roles SET role = $2 WHERE user_id = $1`, userID, role)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetContaAtiva liga ou desliga o acesso da conta.
func (q *Queries) SetContaAtiva(ctx context.Context, id uuid.UUID, ativa bool) error {
	tag, err := q.pool.Exec(ctx, `UPDATE contas SET ativo = $2 WHERE id = $1`, id, ativa)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteConta remove a conta; papéis e perfil caem por cascata.
func (q *Queries) DeleteConta(ctx context.Context, id uuid.UUID) error {
	tag, err := q.pool.Exec(ctx, `DELETE FROM contas WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetRefreshTokenByHash devolve registro de refresh pelo hash.
func (q *Queries) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (TokenRefresh, error) {
	const query = `
        SELECT id, subject, audience, token_hash, expiracao, created_at, revogado
        FROM tokens_refresh
        WHERE token_hash = $1
    `
	var t TokenRefresh
	err := q.pool.QueryRow(ctx, query, tokenHash).
		Scan(&t.ID, &t.Subject, &t.Audience, &t.TokenHash, &t.Expiracao, &t.CriadoEm, &t.Revogado)
	if err != nil {
		if err == pgx.ErrNoRows {
			return TokenRefresh{}, ErrNotFound
		}
		return TokenRefresh{}, err
	}
	return t, nil
}

// InsertRefreshToken registra novo refresh token.
func (q *Queries) InsertRefreshToken(ctx context.Context, arg InsertRefreshTokenParams) (TokenRefresh, error) {
	const query = `
        INSERT INTO tokens_refresh (id, subject, audience, token_hash, expiracao, created_at, revogado)
        VALUES ($1, $2, $3, $4, $5, $6, false)
        RETURNING id, subject, audience, token_hash, expiracao, created_at, revogado
    `
	var t TokenRefresh
	err := q.pool.QueryRow(ctx, query, arg.ID, arg.Subject, arg.Audience, arg.TokenHash, arg.Expiracao, arg.CriadoEm).
		Scan(&t.ID, &t.Subject, &t.Audience, &t.TokenHash, &t.Expiracao, &t.CriadoEm, &t.Revogado)
	return t, err
}

// InvalidateOtherRefreshTokens revoga os demais tokens do subject/audience.
func (q *Queries) InvalidateOtherRefreshTokens(ctx context.Context, subject uuid.UUID, audience, keepHash string) error {
	const query = `
        UPDATE tokens_refresh
        SET revogado = true
        WHERE subject = $1 AND audience = $2 AND token_hash <> $3 AND NOT revogado
    `
	_, err := q.pool.Exec(ctx, query, subject, audience, keepHash)
	return err
}

// RevokeRefreshToken revoga um token específico.
func (q *Queries) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	tag, err := q.pool.Exec(ctx, `UPDATE tokens_refresh SET revogado = true WHERE token_hash = $1`, tokenHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListContasByRoles devolve contas cujos papéis estejam no conjunto informado.
func (q *Queries) ListContasByRoles(ctx context.Context, roles []string) ([]ContaComRole, error) {
	const query = `
        SELECT c.id, c.email, ur.role, c.created_at
        FROM contas c
        JOIN user_roles ur ON ur.user_id = c.id
        WHERE ur.role = ANY($1)
        ORDER BY c.created_at ASC
    `
	rows, err := q.pool.Query(ctx, query, roles)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contas []ContaComRole
	for rows.Next() {
		var c ContaComRole
		if err := rows.Scan(&c.ID, &c.Email, &c.Role, &c.CriadoEm); err != nil {
			return nil, err
		}
		contas = append(contas, c)
	}
	return contas, rows.Err()
}
