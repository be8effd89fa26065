package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gestaoportuaria/backoffice/internal/alerta"
	"github.com/gestaoportuaria/backoffice/internal/repo"
)

// ListAlertas devolve os alertas do OGMO da sessão.
// Filtros: ?tipo=, ?nao_lidos=true, ?limit=, ?offset=.
func (h *Handler) ListAlertas(w http.ResponseWriter, r *http.Request) {
	ogmoID, err := h.ogmoUUID(r)
	if err != nil {
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "sessão sem OGMO vinculado", nil)
		return
	}

	filter := alerta.Filter{
		OgmoID:          &ogmoID,
		Tipo:            strings.TrimSpace(r.URL.Query().Get("tipo")),
		SomenteNaoLidos: r.URL.Query().Get("nao_lidos") == "true",
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			filter.Limit = n
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			filter.Offset = n
		}
	}

	alertas, err := h.alertas.Listar(r.Context(), filter)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível listar alertas", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"alertas": alertas})
}

// AlertasNaoLidos devolve o contador de alertas pendentes de leitura.
func (h *Handler) AlertasNaoLidos(w http.ResponseWriter, r *http.Request) {
	ogmoID, err := h.ogmoUUID(r)
	if err != nil {
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "sessão sem OGMO vinculado", nil)
		return
	}

	total, err := h.alertas.NaoLidos(r.Context(), ogmoID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível contar alertas", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]int{"nao_lidos": total})
}

// MarcarAlertaLido marca um alerta como lido.
func (h *Handler) MarcarAlertaLido(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	if err := h.alertas.MarcarLida(r.Context(), id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", "alerta não encontrado", nil)
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível atualizar alerta", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "lido"})
}

// MarcarAlertasVisualizados marca todos os alertas do OGMO como visualizados.
func (h *Handler) MarcarAlertasVisualizados(w http.ResponseWriter, r *http.Request) {
	ogmoID, err := h.ogmoUUID(r)
	if err != nil {
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "sessão sem OGMO vinculado", nil)
		return
	}

	if err := h.alertas.MarcarVisualizadosPorOgmo(r.Context(), ogmoID); err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível atualizar alertas", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "visualizados"})
}

// DeleteAlerta remove um alerta.
func (h *Handler) DeleteAlerta(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	if err := h.alertas.Remover(r.Context(), id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", "alerta não encontrado", nil)
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível remover alerta", nil)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
