package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/gestaoportuaria/backoffice/internal/extrato"
)

// UploadExtrato recebe um extrato bancário (CSV ou OFX) e executa a
// conciliação automática contra as mensalidades em aberto.
func (h *Handler) UploadExtrato(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "dados multipart inválidos", nil)
		return
	}

	fileHeader, err := getFirstFile(r.MultipartForm, "file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	ogmoID, err := parseUUIDString(r.FormValue("ogmo_id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "ogmo_id inválido", nil)
		return
	}

	ext := strings.ToLower(fileHeader.Filename)
	if !strings.HasSuffix(ext, ".csv") && !strings.HasSuffix(ext, ".ofx") {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "apenas arquivos .csv ou .ofx são aceitos", nil)
		return
	}

	data, _, err := readMultipartFile(fileHeader, 10<<20)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	var importadoPor *uuid.UUID
	if subject, err := h.subjectUUID(r); err == nil {
		importadoPor = &subject
	}

	resultado, err := h.extratos.Reconcile(r.Context(), ogmoID, fileHeader.Filename, data, importadoPor)
	if err != nil {
		if errors.Is(err, extrato.ErrArquivoVazio) {
			WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível conciliar o extrato", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"conciliacao": resultado})
}

func getFirstFile(form *multipart.Form, field string) (*multipart.FileHeader, error) {
	if form == nil {
		return nil, errors.New("arquivo ausente")
	}
	files := form.File[field]
	if len(files) == 0 {
		return nil, errors.New("arquivo ausente")
	}
	return files[0], nil
}

func readMultipartFile(header *multipart.FileHeader, limit int64) ([]byte, string, error) {
	file, err := header.Open()
	if err != nil {
		return nil, "", fmt.Errorf("falha ao abrir arquivo: %w", err)
	}
	defer file.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(file, limit)); err != nil {
		return nil, "", fmt.Errorf("falha ao ler arquivo: %w", err)
	}

	if int64(buf.Len()) >= limit {
		return nil, "", fmt.Errorf("arquivo excede %d bytes", limit)
	}

	contentType := header.Header.Get("Content-Type")
	if strings.TrimSpace(contentType) == "" {
		contentType = http.DetectContentType(buf.Bytes())
	}

	return buf.Bytes(), contentType, nil
}
