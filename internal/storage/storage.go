package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"
)

// UploadInput representa uma operação de upload simples.
type UploadInput struct {
	Key          string
	Body         []byte
	ContentType  string
	CacheControl string
}

// UploadResult descreve o artefato persistido.
type UploadResult struct {
	URL  string
	ETag string
}

// Uploader define comportamento básico para armazenar blobs.
type Uploader interface {
	Upload(ctx context.Context, input UploadInput) (*UploadResult, error)
}

// ExtratoKey monta a chave de arquivamento de um extrato bancário importado,
// prefixada pela data de importação para facilitar auditoria.
func ExtratoKey(nomeArquivo string, importadoEm time.Time) string {
	base := strings.TrimSpace(path.Base(nomeArquivo))
	if base == "" || base == "." || base == "/" {
		base = "extrato"
	}
	return fmt.Sprintf("extratos/%s/%d-%s", importadoEm.UTC().Format("2006/01"), importadoEm.UTC().Unix(), base)
}
