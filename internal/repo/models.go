package repo

import (
	"time"

	"github.com/google/uuid"
)

// Papéis planos atribuídos a contas de login.
const (
	RoleAdmin             = "admin"
	RoleUsuario           = "usuario"
	RoleOgmo              = "ogmo"
	RoleTerminal          = "terminal"
	RoleOperadorPortuario = "operador_portuario"
	RoleTrabalhadorAvulso = "trabalhador_avulso"
	RoleSindicato         = "sindicato"
)

// Conta representa uma conta de login da plataforma.
type Conta struct {
	ID        uuid.UUID
	Email     string
	SenhaHash string
	Ativo     bool
	CriadoEm  time.Time
}

// UserRole vincula conta a um papel enumerado.
type UserRole struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Role     string
	CriadoEm time.Time
}

// Profile guarda dados cadastrais associados 1:1 à conta.
type Profile struct {
	ID            uuid.UUID // mesmo id da conta
	NomeCompleto  *string
	CPF           *string
	Matricula     *int64
	OgmoID        *uuid.UUID
	SenhaAlterada bool
	CriadoEm      time.Time
	AtualizadoEm  time.Time
}

// TokenRefresh modela tabela de refresh tokens.
type TokenRefresh struct {
	ID        uuid.UUID
	Subject   uuid.UUID
	Audience  string
	TokenHash string
	Expiracao time.Time
	CriadoEm  time.Time
	Revogado  bool
}

// InsertRefreshTokenParams agrupa os campos do insert de refresh.
type InsertRefreshTokenParams struct {
	ID        uuid.UUID
	Subject   uuid.UUID
	Audience  string
	TokenHash string
	Expiracao time.Time
	CriadoEm  time.Time
}

// ContaComRole agrega conta e papel para listagens administrativas.
type ContaComRole struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	CriadoEm time.Time `json:"created_at"`
}
