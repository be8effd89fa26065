package perfil

import (
	"time"

	"github.com/google/uuid"
)

// Ações autorizáveis sobre um recurso.
const (
	AcaoVisualizar = "visualizar"
	AcaoCriar      = "criar"
	AcaoEditar     = "editar"
	AcaoExcluir    = "excluir"
)

// Recursos conhecidos do painel OGMO.
const (
	RecursoOperadores   = "operadores"
	RecursoTPAs         = "tpas"
	RecursoAlertas      = "alertas"
	RecursoMensalidades = "mensalidades"
)

// Perfil agrupa permissões nomeadas dentro de um OGMO.
type Perfil struct {
	ID           uuid.UUID  `json:"id"`
	OgmoID       uuid.UUID  `json:"ogmo_id"`
	Nome         string     `json:"nome"`
	Descricao    *string    `json:"descricao,omitempty"`
	CriadoEm     *time.Time `json:"created_at,omitempty"`
	AtualizadoEm *time.Time `json:"updated_at,omitempty"`
}

// Permissao descreve o que um perfil pode fazer sobre um recurso.
type Permissao struct {
	ID             uuid.UUID `json:"id"`
	PerfilID       uuid.UUID `json:"perfil_id"`
	Recurso        string    `json:"recurso"`
	PodeVisualizar bool      `json:"pode_visualizar"`
	PodeCriar      bool      `json:"pode_criar"`
	PodeEditar     bool      `json:"pode_editar"`
	PodeExcluir    bool      `json:"pode_excluir"`
}

// Permite responde se a permissão cobre a ação pedida.
func (p Permissao) Permite(acao string) bool {
	switch acao {
	case AcaoVisualizar:
		return p.PodeVisualizar
	case AcaoCriar:
		return p.PodeCriar
	case AcaoEditar:
		return p.PodeEditar
	case AcaoExcluir:
		return p.PodeExcluir
	}
	return false
}

// PerfilInput agrupa campos de criação/edição de perfil.
type PerfilInput struct {
	OgmoID    uuid.UUID
	Nome      string
	Descricao string
}

// PermissaoInput define uma permissão a gravar no perfil.
type PermissaoInput struct {
	Recurso        string
	PodeVisualizar bool
	PodeCriar      bool
	PodeEditar     bool
	PodeExcluir    bool
}
