package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gestaoportuaria/backoffice/internal/perfil"
	"github.com/gestaoportuaria/backoffice/internal/repo"
)

// ListPerfis devolve os perfis de acesso do OGMO da sessão.
func (h *Handler) ListPerfis(w http.ResponseWriter, r *http.Request) {
	ogmoID, err := h.ogmoUUID(r)
	if err != nil {
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "sessão sem OGMO vinculado", nil)
		return
	}

	perfis, err := h.perfis.ListByOgmo(r.Context(), ogmoID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível listar perfis", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"perfis": perfis})
}

// CreatePerfil registra um perfil de acesso.
func (h *Handler) CreatePerfil(w http.ResponseWriter, r *http.Request) {
	ogmoID, err := h.ogmoUUID(r)
	if err != nil {
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "sessão sem OGMO vinculado", nil)
		return
	}

	var payload struct {
		Nome      string `json:"nome"`
		Descricao string `json:"descricao"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}
	if strings.TrimSpace(payload.Nome) == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "nome é obrigatório", nil)
		return
	}

	criado, err := h.perfis.Create(r.Context(), perfil.PerfilInput{
		OgmoID:    ogmoID,
		Nome:      payload.Nome,
		Descricao: payload.Descricao,
	})
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível criar perfil", nil)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]any{"perfil": criado})
}

// UpdatePerfil atualiza nome e descrição de um perfil do OGMO.
func (h *Handler) UpdatePerfil(w http.ResponseWriter, r *http.Request) {
	ogmoID, err := h.ogmoUUID(r)
	if err != nil {
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "sessão sem OGMO vinculado", nil)
		return
	}

	id, err := parseUUIDParam(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	atual, err := h.perfis.GetByID(r.Context(), id)
	if err != nil || atual.OgmoID != ogmoID {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "perfil não encontrado", nil)
		return
	}

	var payload struct {
		Nome      string `json:"nome"`
		Descricao string `json:"descricao"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	atualizado, err := h.perfis.Update(r.Context(), id, perfil.PerfilInput{
		OgmoID:    ogmoID,
		Nome:      payload.Nome,
		Descricao: payload.Descricao,
	})
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível atualizar perfil", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"perfil": atualizado})
}

// DeletePerfil remove um perfil do OGMO da sessão.
func (h *Handler) DeletePerfil(w http.ResponseWriter, r *http.Request) {
	ogmoID, err := h.ogmoUUID(r)
	if err != nil {
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "sessão sem OGMO vinculado", nil)
		return
	}

	id, err := parseUUIDParam(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	atual, err := h.perfis.GetByID(r.Context(), id)
	if err != nil || atual.OgmoID != ogmoID {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "perfil não encontrado", nil)
		return
	}

	if err := h.perfis.Delete(r.Context(), id); err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível remover perfil", nil)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListPermissoes devolve as permissões de um perfil.
func (h *Handler) ListPermissoes(w http.ResponseWriter, r *http.Request) {
	ogmoID, err := h.ogmoUUID(r)
	if err != nil {
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "sessão sem OGMO vinculado", nil)
		return
	}

	id, err := parseUUIDParam(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	atual, err := h.perfis.GetByID(r.Context(), id)
	if err != nil || atual.OgmoID != ogmoID {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "perfil não encontrado", nil)
		return
	}

	permissoes, err := h.perfis.ListPermissoes(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível listar permissões", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"permissoes": permissoes})
}

// ReplacePermissoes substitui o conjunto de permissões de um perfil.
func (h *Handler) ReplacePermissoes(w http.ResponseWriter, r *http.Request) {
	ogmoID, err := h.ogmoUUID(r)
	if err != nil {
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "sessão sem OGMO vinculado", nil)
		return
	}

	id, err := parseUUIDParam(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	atual, err := h.perfis.GetByID(r.Context(), id)
	if err != nil || atual.OgmoID != ogmoID {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "perfil não encontrado", nil)
		return
	}

	var payload struct {
		Permissoes []struct {
			Recurso        string `json:"recurso"`
			PodeVisualizar bool   `json:"pode_visualizar"`
			PodeCriar      bool   `json:"pode_criar"`
			PodeEditar     bool   `json:"pode_editar"`
			PodeExcluir    bool   `json:"pode_excluir"`
		} `json:"permissoes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	inputs := make([]perfil.PermissaoInput, 0, len(payload.Permissoes))
	for _, p := range payload.Permissoes {
		if strings.TrimSpace(p.Recurso) == "" {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "recurso é obrigatório em cada permissão", nil)
			return
		}
		inputs = append(inputs, perfil.PermissaoInput{
			Recurso:        p.Recurso,
			PodeVisualizar: p.PodeVisualizar,
			PodeCriar:      p.PodeCriar,
			PodeEditar:     p.PodeEditar,
			PodeExcluir:    p.PodeExcluir,
		})
	}

	if err := h.perfis.ReplacePermissoes(r.Context(), id, inputs); err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível gravar permissões", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "permissoes_atualizadas"})
}

// AtribuirPerfil vincula o perfil a uma conta de usuário.
func (h *Handler) AtribuirPerfil(w http.ResponseWriter, r *http.Request) {
	ogmoID, err := h.ogmoUUID(r)
	if err != nil {
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "sessão sem OGMO vinculado", nil)
		return
	}

	id, err := parseUUIDParam(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	atual, err := h.perfis.GetByID(r.Context(), id)
	if err != nil || atual.OgmoID != ogmoID {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "perfil não encontrado", nil)
		return
	}

	var payload struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	userID, err := parseUUIDString(payload.UserID)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "user_id inválido", nil)
		return
	}

	if err := h.perfis.AtribuirPerfil(r.Context(), userID, id); err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível atribuir perfil", nil)
		return
	}

	h.policy.Invalidate(userID)
	WriteJSON(w, http.StatusOK, map[string]string{"status": "atribuido"})
}

// RemoverPerfil desvincula o perfil de uma conta de usuário.
func (h *Handler) RemoverPerfil(w http.ResponseWriter, r *http.Request) {
	ogmoID, err := h.ogmoUUID(r)
	if err != nil {
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "sessão sem OGMO vinculado", nil)
		return
	}

	id, err := parseUUIDParam(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	userID, err := parseUUIDParam(r, "userID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "user_id inválido", nil)
		return
	}

	atual, err := h.perfis.GetByID(r.Context(), id)
	if err != nil || atual.OgmoID != ogmoID {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "perfil não encontrado", nil)
		return
	}

	if err := h.perfis.RemoverPerfil(r.Context(), userID, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", "vínculo não encontrado", nil)
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível remover vínculo", nil)
		return
	}

	h.policy.Invalidate(userID)
	w.WriteHeader(http.StatusNoContent)
}
