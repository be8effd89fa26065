package cadastro

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Operador é um operador portuário vinculado a um OGMO.
type Operador struct {
	ID           uuid.UUID  `json:"id"`
	OgmoID       uuid.UUID  `json:"ogmo_id"`
	Nome         string     `json:"nome"`
	CPF          string     `json:"cpf"`
	Email        *string    `json:"email,omitempty"`
	Telefone     *string    `json:"telefone,omitempty"`
	CriadoEm     time.Time  `json:"created_at"`
	AtualizadoEm *time.Time `json:"updated_at,omitempty"`
}

// OperadorInput agrupa os campos de criação/edição de operador.
type OperadorInput struct {
	OgmoID   uuid.UUID
	Nome     string
	CPF      string
	Email    string
	Telefone string
}

// Terminal é um terminal portuário, opcionalmente vinculado a um OGMO.
type Terminal struct {
	ID           uuid.UUID  `json:"id"`
	OgmoID       *uuid.UUID `json:"ogmo_id,omitempty"`
	Nome         string     `json:"nome"`
	CNPJ         string     `json:"cnpj"`
	Email        *string    `json:"email,omitempty"`
	Telefone     *string    `json:"telefone,omitempty"`
	Endereco     *string    `json:"endereco,omitempty"`
	Bloqueado    bool       `json:"bloqueado"`
	UserID       *uuid.UUID `json:"user_id,omitempty"`
	CriadoEm     time.Time  `json:"created_at"`
	AtualizadoEm time.Time  `json:"updated_at"`
}

// TerminalInput agrupa os campos de criação/edição de terminal.
type TerminalInput struct {
	OgmoID   *uuid.UUID
	Nome     string
	CNPJ     string
	Email    string
	Telefone string
	Endereco string
}

// TPA é um trabalhador portuário avulso registrado no OGMO.
type TPA struct {
	ID           uuid.UUID  `json:"id"`
	OgmoID       uuid.UUID  `json:"ogmo_id"`
	Nome         string     `json:"nome"`
	CPF          string     `json:"cpf"`
	Matricula    string     `json:"matricula"`
	Email        string     `json:"email"`
	Celular      *string    `json:"celular,omitempty"`
	UserID       *uuid.UUID `json:"user_id,omitempty"`
	CriadoEm     time.Time  `json:"created_at"`
	AtualizadoEm *time.Time `json:"updated_at,omitempty"`
}

// TPAInput agrupa os campos de criação/edição de TPA.
type TPAInput struct {
	OgmoID    uuid.UUID
	Nome      string
	CPF       string
	Matricula string
	Email     string
	Celular   string
}

// NormalizeCPF remove a máscara, mantendo apenas dígitos.
func NormalizeCPF(cpf string) string {
	var b strings.Builder
	for _, r := range cpf {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
