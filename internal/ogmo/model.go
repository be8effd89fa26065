package ogmo

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("ogmo not found")
)

// Ogmo representa um órgão gestor de mão de obra (tenant da plataforma).
type Ogmo struct {
	ID                uuid.UUID  `json:"id"`
	Nome              string     `json:"nome"`
	CNPJ              string     `json:"cnpj"`
	Email             *string    `json:"email,omitempty"`
	Telefone          *string    `json:"telefone,omitempty"`
	Endereco          *string    `json:"endereco,omitempty"`
	ContatoEmergencia *string    `json:"contato_emergencia,omitempty"`
	ValorPorOperador  *float64   `json:"valor_por_operador,omitempty"`
	Bloqueado         bool       `json:"bloqueado"`
	UserID            *uuid.UUID `json:"user_id,omitempty"`
	CriadoEm          time.Time  `json:"created_at"`
	AtualizadoEm      time.Time  `json:"updated_at"`
}

// CreateInput contém os campos necessários para registrar um OGMO.
type CreateInput struct {
	Nome              string
	CNPJ              string
	Email             *string
	Telefone          *string
	Endereco          *string
	ContatoEmergencia *string
	ValorPorOperador  *float64
	UserID            *uuid.UUID
}

// UpdateInput contém os campos mutáveis de um OGMO.
type UpdateInput struct {
	ID                uuid.UUID
	Nome              string
	Email             *string
	Telefone          *string
	Endereco          *string
	ContatoEmergencia *string
	ValorPorOperador  *float64
}

// NormalizeCNPJ remove a formatação, mantendo apenas dígitos.
func NormalizeCNPJ(cnpj string) string {
	var b strings.Builder
	for _, r := range cnpj {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatCNPJ devolve o CNPJ no formato 00.000.000/0000-00 quando houver 14 dígitos.
func FormatCNPJ(cnpj string) string {
	digits := NormalizeCNPJ(cnpj)
	if len(digits) != 14 {
		return cnpj
	}
	return digits[0:2] + "." + digits[2:5] + "." + digits[5:8] + "/" + digits[8:12] + "-" + digits[12:14]
}
