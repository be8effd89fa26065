package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gestaoportuaria/backoffice/internal/repo"
)

// ListAdminUsers devolve as contas da retaguarda administrativa.
func (h *Handler) ListAdminUsers(w http.ResponseWriter, r *http.Request) {
	contas, err := h.users.ListAdminUsers(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível listar usuários", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"usuarios": contas})
}

// CreateAdminUser registra uma conta administrativa (papéis admin ou usuario).
func (h *Handler) CreateAdminUser(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Nome  string `json:"nome"`
		Email string `json:"email"`
		Senha string `json:"senha"`
		Role  string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	if payload.Role == "" {
		payload.Role = repo.RoleUsuario
	}

	conta, err := h.users.CreateAdminUser(r.Context(), payload.Nome, payload.Email, payload.Senha, payload.Role)
	if err != nil {
		h.handleUserError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]any{
		"usuario": map[string]any{
			"id":    conta.ID,
			"email": conta.Email,
			"role":  payload.Role,
		},
	})
}

// UpdateAdminUser atualiza e-mail, senha e papel de uma conta administrativa.
func (h *Handler) UpdateAdminUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	var payload struct {
		Email string `json:"email"`
		Senha string `json:"senha"`
		Role  string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	if err := h.users.UpdateAdminUser(r.Context(), id, payload.Email, payload.Senha, payload.Role); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", "usuário não encontrado", nil)
			return
		}
		h.handleUserError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetContaAtiva ativa ou desativa uma conta de acesso.
func (h *Handler) SetContaAtiva(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	var payload struct {
		Ativo bool `json:"ativo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	if err := h.users.SetContaAtiva(r.Context(), id, payload.Ativo); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", "conta não encontrada", nil)
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível atualizar conta", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"id": id, "ativo": payload.Ativo})
}

// DeleteConta remove uma conta de acesso.
func (h *Handler) DeleteConta(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	if err := h.users.DeleteConta(r.Context(), id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", "conta não encontrada", nil)
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível remover conta", nil)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
