package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gestaoportuaria/backoffice/internal/billing"
	"github.com/gestaoportuaria/backoffice/internal/export"
	"github.com/gestaoportuaria/backoffice/internal/tasks"
)

// ListMensalidades devolve mensalidades; aceita filtro ?ogmo_id= (admin).
func (h *Handler) ListMensalidades(w http.ResponseWriter, r *http.Request) {
	mensalidades, err := h.listarMensalidades(r)
	if err != nil {
		if errors.Is(err, errOgmoIDInvalido) {
			WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível listar mensalidades", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"mensalidades": mensalidades})
}

// ListMensalidadesOgmo devolve as mensalidades do OGMO da sessão.
func (h *Handler) ListMensalidadesOgmo(w http.ResponseWriter, r *http.Request) {
	ogmoID, err := h.ogmoUUID(r)
	if err != nil {
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "sessão sem OGMO vinculado", nil)
		return
	}

	mensalidades, err := h.billing.ListByOgmo(r.Context(), ogmoID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível listar mensalidades", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"mensalidades": mensalidades,
		"resumo":       billing.Resumo(mensalidades, time.Now()),
	})
}

// GetMensalidade devolve uma mensalidade pelo identificador.
func (h *Handler) GetMensalidade(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	m, err := h.billing.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, billing.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", "mensalidade não encontrada", nil)
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível carregar mensalidade", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"mensalidade": m})
}

// GerarMensalidades dispara o lote mensal. Por padrão enfileira o job;
// com {"sincrono": true} executa na hora e devolve o relatório.
func (h *Handler) GerarMensalidades(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		DataBase *time.Time `json:"data_base"`
		Sincrono bool       `json:"sincrono"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}

	base := time.Now()
	if payload.DataBase != nil {
		base = *payload.DataBase
	}

	if !payload.Sincrono && h.tasks != nil {
		if err := h.tasks.EnqueueGerarMensalidades(tasks.GerarMensalidadesPayload{DataBase: base}); err != nil {
			WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível enfileirar geração", nil)
			return
		}
		WriteJSON(w, http.StatusAccepted, map[string]string{"status": "agendado"})
		return
	}

	globalRate, err := h.billing.ValorPorOperadorGlobal(r.Context())
	if err != nil {
		if errors.Is(err, billing.ErrConfigMissing) {
			WriteError(w, http.StatusConflict, "VALIDATION", "valor por operador não configurado", nil)
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível carregar configuração", nil)
		return
	}

	relatorio, err := h.billing.GenerateMonthly(r.Context(), base, globalRate)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível gerar mensalidades", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"relatorio": relatorio})
}

// MarcarPagamento registra o pagamento manual de uma mensalidade.
func (h *Handler) MarcarPagamento(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	var payload struct {
		DataPagamento *time.Time `json:"data_pagamento"`
		Observacoes   string     `json:"observacoes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	dataPagamento := time.Now()
	if payload.DataPagamento != nil {
		dataPagamento = *payload.DataPagamento
	}

	if err := h.billing.MarkPaid(r.Context(), id, dataPagamento, payload.Observacoes); err != nil {
		if errors.Is(err, billing.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", "mensalidade não encontrada", nil)
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível registrar pagamento", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "pago"})
}

// SetNotaFiscal marca ou desmarca a emissão de nota fiscal.
func (h *Handler) SetNotaFiscal(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	var payload struct {
		Emitida bool `json:"emitida"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	if err := h.billing.SetNotaFiscal(r.Context(), id, payload.Emitida); err != nil {
		if errors.Is(err, billing.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", "mensalidade não encontrada", nil)
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível atualizar nota fiscal", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"id": id, "nota_fiscal_emitida": payload.Emitida})
}

// ResumoFinanceiro agrega o quadro financeiro global e por OGMO.
func (h *Handler) ResumoFinanceiro(w http.ResponseWriter, r *http.Request) {
	mensalidades, err := h.listarMensalidades(r)
	if err != nil {
		if errors.Is(err, errOgmoIDInvalido) {
			WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível listar mensalidades", nil)
		return
	}

	now := time.Now()
	WriteJSON(w, http.StatusOK, map[string]any{
		"resumo":    billing.Resumo(mensalidades, now),
		"por_ogmo":  billing.ResumoPorOgmoAgrupado(mensalidades, now),
		"gerado_em": now,
	})
}

// ExportMensalidades exporta o quadro em XLSX ou PDF (?formato=xlsx|pdf).
func (h *Handler) ExportMensalidades(w http.ResponseWriter, r *http.Request) {
	formato := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("formato")))
	if formato == "" {
		formato = "xlsx"
	}
	if formato != "xlsx" && formato != "pdf" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "formato deve ser xlsx ou pdf", nil)
		return
	}

	mensalidades, err := h.listarMensalidades(r)
	if err != nil {
		if errors.Is(err, errOgmoIDInvalido) {
			WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível listar mensalidades", nil)
		return
	}

	ogmos, err := h.ogmos.List(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível carregar OGMOs", nil)
		return
	}
	nomes := make(map[uuid.UUID]string, len(ogmos))
	for _, o := range ogmos {
		nomes[o.ID] = o.Nome
	}

	linhas := export.Linhas(mensalidades, nomes, time.Now())

	var (
		conteudo    []byte
		contentType string
	)
	switch formato {
	case "pdf":
		conteudo, err = export.MensalidadesPDF("Mensalidades OGMO", linhas)
		contentType = "application/pdf"
	default:
		conteudo, err = export.MensalidadesXLSX(linhas)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível gerar o arquivo", nil)
		return
	}

	nome := fmt.Sprintf("mensalidades-%s.%s", time.Now().Format("2006-01-02"), formato)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+nome+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(conteudo)
}

// GetValorPorOperador devolve o valor padrão por operador.
func (h *Handler) GetValorPorOperador(w http.ResponseWriter, r *http.Request) {
	valor, err := h.billing.ValorPorOperadorGlobal(r.Context())
	if err != nil {
		if errors.Is(err, billing.ErrConfigMissing) {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", "valor por operador não configurado", nil)
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível carregar configuração", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]float64{"valor_por_operador": valor})
}

// UpdateValorPorOperador grava o valor padrão por operador.
func (h *Handler) UpdateValorPorOperador(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ValorPorOperador float64 `json:"valor_por_operador"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	if err := h.billing.AtualizarValorPorOperadorGlobal(r.Context(), payload.ValorPorOperador); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]float64{"valor_por_operador": payload.ValorPorOperador})
}

var errOgmoIDInvalido = errors.New("ogmo_id inválido")

func (h *Handler) listarMensalidades(r *http.Request) ([]billing.Mensalidade, error) {
	if raw := strings.TrimSpace(r.URL.Query().Get("ogmo_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, errOgmoIDInvalido
		}
		return h.billing.ListByOgmo(r.Context(), id)
	}
	return h.billing.ListAll(r.Context())
}
