package billing

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("mensalidade not found")
	ErrConfigMissing = errors.New("configuração financeira ausente")
)

// Status persistidos de uma mensalidade. "atrasado" é derivado na leitura
// comparando o vencimento com o relógio, mas também é aceito como valor
// gravado por compatibilidade com dados antigos.
const (
	StatusPendente = "pendente"
	StatusPago     = "pago"
	StatusAtrasado = "atrasado"
)

// Mensalidade representa a cobrança mensal devida por um OGMO.
type Mensalidade struct {
	ID                   uuid.UUID  `json:"id"`
	OgmoID               uuid.UUID  `json:"ogmo_id"`
	MesReferencia        time.Time  `json:"mes_referencia"`
	QuantidadeOperadores int        `json:"quantidade_operadores"`
	ValorTotal           float64    `json:"valor_total"`
	DataVencimento       time.Time  `json:"data_vencimento"`
	DataPagamento        *time.Time `json:"data_pagamento,omitempty"`
	Status               string     `json:"status"`
	CNPJPagador          *string    `json:"cnpj_pagador,omitempty"`
	NFEmitida            bool       `json:"nf_emitida"`
	Observacoes          *string    `json:"observacoes,omitempty"`
	CriadoEm             time.Time  `json:"created_at"`
	AtualizadoEm         time.Time  `json:"updated_at"`
}

// EffectiveStatus deriva "atrasado" quando a mensalidade pendente passou do vencimento.
func (m Mensalidade) EffectiveStatus(now time.Time) string {
	if m.Status == StatusPago {
		return StatusPago
	}
	if now.After(m.DataVencimento) {
		return StatusAtrasado
	}
	return StatusPendente
}

// CreateInput agrupa os campos do insert de mensalidade.
type CreateInput struct {
	OgmoID               uuid.UUID
	MesReferencia        time.Time
	QuantidadeOperadores int
	ValorTotal           float64
	DataVencimento       time.Time
	CNPJPagador          string
}

// MensalidadeGerada resume um item criado pelo lote mensal.
type MensalidadeGerada struct {
	ID                   uuid.UUID `json:"mensalidade_id"`
	Ogmo                 string    `json:"ogmo"`
	CNPJ                 string    `json:"cnpj"`
	QuantidadeOperadores int       `json:"quantidade_operadores"`
	ValorTotal           float64   `json:"valor_total"`
}

// ErroGeracao descreve uma falha por OGMO dentro do lote.
type ErroGeracao struct {
	Ogmo string `json:"ogmo"`
	Erro string `json:"erro"`
}

// RelatorioGeracao é o resumo devolvido ao final do lote mensal.
type RelatorioGeracao struct {
	MesReferencia  time.Time           `json:"mes_referencia"`
	DataVencimento time.Time           `json:"data_vencimento"`
	Criadas        []MensalidadeGerada `json:"detalhes"`
	JaExistentes   int                 `json:"ja_existentes"`
	Erros          []ErroGeracao       `json:"erros,omitempty"`
}

// ResumoFinanceiro agrega o quadro geral das mensalidades.
type ResumoFinanceiro struct {
	TotalFaturado   float64 `json:"total_faturado"`
	TotalRecebido   float64 `json:"total_recebido"`
	TotalPendente   float64 `json:"total_pendente"`
	TotalAtrasado   float64 `json:"total_atrasado"`
	QtdePagas       int     `json:"qtde_pagas"`
	QtdePendentes   int     `json:"qtde_pendentes"`
	QtdeAtrasadas   int     `json:"qtde_atrasadas"`
	QtdeMensalidade int     `json:"qtde_mensalidades"`
}

// ResumoPorOgmo agrega mensalidades de um único OGMO.
type ResumoPorOgmo struct {
	OgmoID uuid.UUID `json:"ogmo_id"`
	ResumoFinanceiro
}

// MesReferencia normaliza uma data para o primeiro dia do mês, em UTC.
func MesReferencia(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
