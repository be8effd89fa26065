package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/gestaoportuaria/backoffice/internal/cadastro"
	"github.com/gestaoportuaria/backoffice/internal/repo"
)

// ListOperadores devolve os operadores do OGMO autenticado.
func (h *Handler) ListOperadores(w http.ResponseWriter, r *http.Request) {
	ogmoID, err := h.ogmoUUID(r)
	if err != nil {
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "sessão sem OGMO vinculado", nil)
		return
	}

	operadores, err := h.cadastros.ListOperadores(r.Context(), ogmoID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível listar operadores", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"operadores": operadores})
}

// CreateOperador registra um operador portuário no OGMO autenticado.
func (h *Handler) CreateOperador(w http.ResponseWriter, r *http.Request) {
	ogmoID, err := h.ogmoUUID(r)
	if err != nil {
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "sessão sem OGMO vinculado", nil)
		return
	}

	var payload struct {
		Nome     string `json:"nome"`
		CPF      string `json:"cpf"`
		Email    string `json:"email"`
		Telefone string `json:"telefone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	operador, err := h.cadastros.CreateOperador(r.Context(), cadastro.OperadorInput{
		OgmoID:   ogmoID,
		Nome:     payload.Nome,
		CPF:      payload.CPF,
		Email:    payload.Email,
		Telefone: payload.Telefone,
	})
	if err != nil {
		h.handleCadastroError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]any{"operador": operador})
}

// GetOperador devolve um operador, restrito ao OGMO da sessão.
func (h *Handler) GetOperador(w http.ResponseWriter, r *http.Request) {
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

	operador, err := h.cadastros.GetOperador(r.Context(), id)
	if err != nil || operador.OgmoID != ogmoID {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "operador não encontrado", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"operador": operador})
}

// UpdateOperador atualiza dados de um operador do OGMO autenticado.
func (h *Handler) UpdateOperador(w http.ResponseWriter, r *http.Request) {
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

	atual, err := h.cadastros.GetOperador(r.Context(), id)
	if err != nil || atual.OgmoID != ogmoID {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "operador não encontrado", nil)
		return
	}

	var payload struct {
		Nome     string `json:"nome"`
		CPF      string `json:"cpf"`
		Email    string `json:"email"`
		Telefone string `json:"telefone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	operador, err := h.cadastros.UpdateOperador(r.Context(), id, cadastro.OperadorInput{
		OgmoID:   ogmoID,
		Nome:     payload.Nome,
		CPF:      payload.CPF,
		Email:    payload.Email,
		Telefone: payload.Telefone,
	})
	if err != nil {
		h.handleCadastroError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"operador": operador})
}

// DeleteOperador remove um operador do OGMO autenticado.
func (h *Handler) DeleteOperador(w http.ResponseWriter, r *http.Request) {
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

	atual, err := h.cadastros.GetOperador(r.Context(), id)
	if err != nil || atual.OgmoID != ogmoID {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "operador não encontrado", nil)
		return
	}

	if err := h.cadastros.DeleteOperador(r.Context(), id); err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível remover operador", nil)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ImportarTPAs provisiona trabalhadores avulsos em lote a partir de
// planilha XLSX, um cadastro completo (conta + papel + registro) por linha.
func (h *Handler) ImportarTPAs(w http.ResponseWriter, r *http.Request) {
	ogmoID, err := h.ogmoUUID(r)
	if err != nil {
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "sessão sem OGMO vinculado", nil)
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "dados multipart inválidos", nil)
		return
	}

	fileHeader, err := getFirstFile(r.MultipartForm, "file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	data, _, err := readMultipartFile(fileHeader, 10<<20)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	resultado, err := h.users.ImportarTPAs(r.Context(), ogmoID, data)
	if err != nil {
		if errors.Is(err, cadastro.ErrPlanilhaVazia) || errors.Is(err, cadastro.ErrColunasAusentes) {
			WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível importar planilha", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"importacao": resultado})
}

// ListTerminais devolve terminais; aceita filtro ?ogmo_id= (admin).
func (h *Handler) ListTerminais(w http.ResponseWriter, r *http.Request) {
	var filtro *uuid.UUID
	if raw := strings.TrimSpace(r.URL.Query().Get("ogmo_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "ogmo_id inválido", nil)
			return
		}
		filtro = &id
	}

	terminais, err := h.cadastros.ListTerminais(r.Context(), filtro)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível listar terminais", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"terminais": terminais})
}

// ListTerminaisOgmo devolve os terminais vinculados ao OGMO da sessão.
func (h *Handler) ListTerminaisOgmo(w http.ResponseWriter, r *http.Request) {
	ogmoID, err := h.ogmoUUID(r)
	if err != nil {
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "sessão sem OGMO vinculado", nil)
		return
	}

	terminais, err := h.cadastros.ListTerminais(r.Context(), &ogmoID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível listar terminais", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"terminais": terminais})
}

type terminalPayload struct {
	OgmoID   *uuid.UUID `json:"ogmo_id"`
	Nome     string     `json:"nome"`
	CNPJ     string     `json:"cnpj"`
	Email    string     `json:"email"`
	Telefone string     `json:"telefone"`
	Endereco string     `json:"endereco"`
}

// CreateTerminal registra um terminal portuário (admin).
func (h *Handler) CreateTerminal(w http.ResponseWriter, r *http.Request) {
	var payload terminalPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	terminal, err := h.cadastros.CreateTerminal(r.Context(), cadastro.TerminalInput{
		OgmoID:   payload.OgmoID,
		Nome:     payload.Nome,
		CNPJ:     payload.CNPJ,
		Email:    payload.Email,
		Telefone: payload.Telefone,
		Endereco: payload.Endereco,
	})
	if err != nil {
		h.handleCadastroError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]any{"terminal": terminal})
}

// GetTerminal devolve um terminal pelo identificador (admin).
func (h *Handler) GetTerminal(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	terminal, err := h.cadastros.GetTerminal(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", "terminal não encontrado", nil)
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível carregar terminal", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"terminal": terminal})
}

// UpdateTerminal atualiza um terminal (admin).
func (h *Handler) UpdateTerminal(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	var payload terminalPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	terminal, err := h.cadastros.UpdateTerminal(r.Context(), id, cadastro.TerminalInput{
		OgmoID:   payload.OgmoID,
		Nome:     payload.Nome,
		CNPJ:     payload.CNPJ,
		Email:    payload.Email,
		Telefone: payload.Telefone,
		Endereco: payload.Endereco,
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", "terminal não encontrado", nil)
			return
		}
		h.handleCadastroError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"terminal": terminal})
}

// SetTerminalBloqueado alterna o bloqueio do terminal (admin).
func (h *Handler) SetTerminalBloqueado(w http.ResponseWriter, r *http.Request) {
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

	if err := h.cadastros.SetTerminalBloqueado(r.Context(), id, payload.Bloqueado); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", "terminal não encontrado", nil)
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível atualizar bloqueio", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"id": id, "bloqueado": payload.Bloqueado})
}

// DeleteTerminal remove um terminal (admin).
func (h *Handler) DeleteTerminal(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	if err := h.cadastros.DeleteTerminal(r.Context(), id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", "terminal não encontrado", nil)
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível remover terminal", nil)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type tpaPayload struct {
	Nome      string `json:"nome"`
	CPF       string `json:"cpf"`
	Matricula string `json:"matricula"`
	Email     string `json:"email"`
	Celular   string `json:"celular"`
}

// ListTPAs devolve os trabalhadores avulsos do OGMO autenticado.
func (h *Handler) ListTPAs(w http.ResponseWriter, r *http.Request) {
	ogmoID, err := h.ogmoUUID(r)
	if err != nil {
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "sessão sem OGMO vinculado", nil)
		return
	}

	tpas, err := h.cadastros.ListTPAs(r.Context(), ogmoID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível listar trabalhadores", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"tpas": tpas})
}

// CreateTPA provisiona um trabalhador avulso com conta de acesso.
// A senha inicial é o CPF; a troca é exigida no primeiro login.
func (h *Handler) CreateTPA(w http.ResponseWriter, r *http.Request) {
	ogmoID, err := h.ogmoUUID(r)
	if err != nil {
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "sessão sem OGMO vinculado", nil)
		return
	}

	var payload tpaPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	tpa, err := h.users.CreateTPAUser(r.Context(), cadastro.TPAInput{
		OgmoID:    ogmoID,
		Nome:      payload.Nome,
		CPF:       payload.CPF,
		Matricula: payload.Matricula,
		Email:     payload.Email,
		Celular:   payload.Celular,
	})
	if err != nil {
		h.handleCadastroError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]any{"tpa": tpa})
}

// GetTPA devolve um trabalhador avulso do OGMO da sessão.
func (h *Handler) GetTPA(w http.ResponseWriter, r *http.Request) {
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

	tpa, err := h.cadastros.GetTPA(r.Context(), id)
	if err != nil || tpa.OgmoID != ogmoID {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "trabalhador não encontrado", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"tpa": tpa})
}

// UpdateTPA atualiza o cadastro de um trabalhador avulso.
func (h *Handler) UpdateTPA(w http.ResponseWriter, r *http.Request) {
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

	atual, err := h.cadastros.GetTPA(r.Context(), id)
	if err != nil || atual.OgmoID != ogmoID {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "trabalhador não encontrado", nil)
		return
	}

	var payload tpaPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	tpa, err := h.cadastros.UpdateTPA(r.Context(), id, cadastro.TPAInput{
		OgmoID:    ogmoID,
		Nome:      payload.Nome,
		CPF:       payload.CPF,
		Matricula: payload.Matricula,
		Email:     payload.Email,
		Celular:   payload.Celular,
	})
	if err != nil {
		h.handleCadastroError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"tpa": tpa})
}

// ResetTPAPassword volta a senha do trabalhador para o CPF.
func (h *Handler) ResetTPAPassword(w http.ResponseWriter, r *http.Request) {
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

	atual, err := h.cadastros.GetTPA(r.Context(), id)
	if err != nil || atual.OgmoID != ogmoID {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "trabalhador não encontrado", nil)
		return
	}

	if err := h.users.ResetTPAPassword(r.Context(), id); err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível redefinir a senha", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "senha_redefinida"})
}

// DeleteTPA remove um trabalhador avulso do OGMO da sessão.
func (h *Handler) DeleteTPA(w http.ResponseWriter, r *http.Request) {
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

	atual, err := h.cadastros.GetTPA(r.Context(), id)
	if err != nil || atual.OgmoID != ogmoID {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "trabalhador não encontrado", nil)
		return
	}

	if err := h.users.DeleteTPA(r.Context(), id); err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível remover trabalhador", nil)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCadastroError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cadastro.ErrCPFInvalido),
		errors.Is(err, cadastro.ErrCNPJInvalido),
		errors.Is(err, cadastro.ErrNomeObrigatorio),
		errors.Is(err, cadastro.ErrMatriculaObrigatoria),
		errors.Is(err, cadastro.ErrEmailObrigatorio):
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	case errors.Is(err, cadastro.ErrCPFDuplicado):
		WriteError(w, http.StatusConflict, "CONFLICT", err.Error(), nil)
	default:
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível concluir a operação", nil)
	}
}
