package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gestaoportuaria/backoffice/internal/ogmo"
	"github.com/gestaoportuaria/backoffice/internal/service"
)

type ogmoPayload struct {
	Nome              string   `json:"nome"`
	CNPJ              string   `json:"cnpj"`
	Email             string   `json:"email"`
	Telefone          string   `json:"telefone"`
	Endereco          string   `json:"endereco"`
	ContatoEmergencia string   `json:"contato_emergencia"`
	ValorPorOperador  *float64 `json:"valor_por_operador"`
	LoginEmail        string   `json:"login_email"`
	LoginSenha        string   `json:"login_senha"`
}

// ListOgmos devolve todos os OGMOs cadastrados.
func (h *Handler) ListOgmos(w http.ResponseWriter, r *http.Request) {
	ogmos, err := h.ogmos.List(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível listar OGMOs", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"ogmos": ogmos})
}

// CreateOgmo registra um OGMO, opcionalmente com conta de acesso.
func (h *Handler) CreateOgmo(w http.ResponseWriter, r *http.Request) {
	var payload ogmoPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	input := ogmo.CreateInput{
		Nome:              payload.Nome,
		CNPJ:              payload.CNPJ,
		Email:             optionalString(payload.Email),
		Telefone:          optionalString(payload.Telefone),
		Endereco:          optionalString(payload.Endereco),
		ContatoEmergencia: optionalString(payload.ContatoEmergencia),
		ValorPorOperador:  payload.ValorPorOperador,
	}

	if strings.TrimSpace(payload.LoginEmail) != "" {
		created, err := h.users.CreateOgmoUser(r.Context(), input, payload.LoginEmail, payload.LoginSenha)
		if err != nil {
			h.handleUserError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, map[string]any{"ogmo": created})
		return
	}

	created, err := h.ogmos.Create(r.Context(), input)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]any{"ogmo": created})
}

// GetOgmo devolve um OGMO pelo identificador.
func (h *Handler) GetOgmo(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	o, err := h.ogmos.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ogmo.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", "OGMO não encontrado", nil)
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível carregar OGMO", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"ogmo": o})
}

// UpdateOgmo atualiza os campos mutáveis do OGMO.
func (h *Handler) UpdateOgmo(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	var payload ogmoPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	updated, err := h.ogmos.Update(r.Context(), ogmo.UpdateInput{
		ID:                id,
		Nome:              payload.Nome,
		Email:             optionalString(payload.Email),
		Telefone:          optionalString(payload.Telefone),
		Endereco:          optionalString(payload.Endereco),
		ContatoEmergencia: optionalString(payload.ContatoEmergencia),
		ValorPorOperador:  payload.ValorPorOperador,
	})
	if err != nil {
		if errors.Is(err, ogmo.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", "OGMO não encontrado", nil)
			return
		}
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"ogmo": updated})
}

// SetOgmoBloqueado alterna o bloqueio de acesso do OGMO.
func (h *Handler) SetOgmoBloqueado(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	var payload struct {
		Bloqueado bool `json:"bloqueado"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	if err := h.ogmos.SetBloqueado(r.Context(), id, payload.Bloqueado); err != nil {
		if errors.Is(err, ogmo.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", "OGMO não encontrado", nil)
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível atualizar bloqueio", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"id": id, "bloqueado": payload.Bloqueado})
}

// DeleteOgmo remove um OGMO.
func (h *Handler) DeleteOgmo(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	if err := h.ogmos.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ogmo.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", "OGMO não encontrado", nil)
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível remover OGMO", nil)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleUserError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrEmailInvalido),
		errors.Is(err, service.ErrSenhaFraca),
		errors.Is(err, service.ErrRoleInvalida):
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	default:
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível concluir a operação", nil)
	}
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
