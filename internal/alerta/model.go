package alerta

import (
	"time"

	"github.com/google/uuid"
)

// Tipos de alerta emitidos para os OGMOs.
const (
	TipoCadastro           = "cadastro"
	TipoDescadastro        = "descadastro"
	TipoDocumentoVencido   = "documento_vencido"
	TipoDocumentoVencendo  = "documento_vencendo"
	TipoMensalidadeAberta  = "mensalidade_aberta"
	TipoCadastroIncompleto = "cadastro_incompleto"
)

// Alerta é uma notificação dirigida a um OGMO sobre um operador ou cobrança.
type Alerta struct {
	ID            uuid.UUID  `json:"id"`
	OgmoID        uuid.UUID  `json:"ogmo_id"`
	OperadorID    *uuid.UUID `json:"operador_id,omitempty"`
	Tipo          string     `json:"tipo"`
	NomeOperador  string     `json:"nome_operador"`
	CPFOperador   string     `json:"cpf_operador"`
	Descricao     *string    `json:"descricao,omitempty"`
	DataEvento    time.Time  `json:"data_evento"`
	DocumentoID   *uuid.UUID `json:"documento_id,omitempty"`
	TipoDocumento *string    `json:"tipo_documento,omitempty"`
	Lida          bool       `json:"lida"`
	Visualizado   bool       `json:"visualizado"`
	CriadoEm      time.Time  `json:"created_at"`
}

// CreateInput agrupa os campos para emissão de um alerta.
type CreateInput struct {
	OgmoID        uuid.UUID
	OperadorID    *uuid.UUID
	Tipo          string
	NomeOperador  string
	CPFOperador   string
	Descricao     string
	DataEvento    time.Time
	DocumentoID   *uuid.UUID
	TipoDocumento string
}

// Filter restringe listagens de alertas.
type Filter struct {
	OgmoID          *uuid.UUID
	Tipo            string
	SomenteNaoLidos bool
	Limit           int
	Offset          int
}
