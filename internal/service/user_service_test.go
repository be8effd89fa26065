package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gestaoportuaria/backoffice/internal/alerta"
	"github.com/gestaoportuaria/backoffice/internal/cadastro"
	"github.com/gestaoportuaria/backoffice/internal/repo"
)

type stubTPAStore struct {
	tpa       *cadastro.TPA
	deletados []uuid.UUID
}

func (s *stubTPAStore) GetTPA(_ context.Context, id uuid.UUID) (*cadastro.TPA, error) {
	if s.tpa != nil && s.tpa.ID == id {
		return s.tpa, nil
	}
	return nil, repo.ErrNotFound
}

func (s *stubTPAStore) GetTPAByMatricula(context.Context, string) (*cadastro.TPA, error) {
	return nil, repo.ErrNotFound
}

func (s *stubTPAStore) CreateTPATx(context.Context, pgx.Tx, cadastro.TPAInput, uuid.UUID) (*cadastro.TPA, error) {
	return nil, errors.New("não implementado")
}

func (s *stubTPAStore) DeleteTPA(_ context.Context, id uuid.UUID) error {
	s.deletados = append(s.deletados, id)
	return nil
}

type stubAlertaEmissor struct {
	emitidos []alerta.CreateInput
}

func (s *stubAlertaEmissor) Emitir(_ context.Context, input alerta.CreateInput) (*alerta.Alerta, error) {
	s.emitidos = append(s.emitidos, input)
	return &alerta.Alerta{ID: uuid.New(), OgmoID: input.OgmoID, Tipo: input.Tipo}, nil
}

func TestDeleteTPARegistraDescadastro(t *testing.T) {
	tpa := &cadastro.TPA{
		ID:     uuid.New(),
		OgmoID: uuid.New(),
		Nome:   "João da Silva",
		CPF:    "123.456.789-01",
	}
	store := &stubTPAStore{tpa: tpa}
	emissor := &stubAlertaEmissor{}
	svc := NewUserService(nil, nil, nil, store, emissor)

	if err := svc.DeleteTPA(context.Background(), tpa.ID); err != nil {
		t.Fatalf("DeleteTPA: %v", err)
	}

	if len(store.deletados) != 1 || store.deletados[0] != tpa.ID {
		t.Fatalf("tpa não removido do repositório: %v", store.deletados)
	}
	if len(emissor.emitidos) != 1 {
		t.Fatalf("expected 1 alerta emitido, got %d", len(emissor.emitidos))
	}

	evento := emissor.emitidos[0]
	if evento.Tipo != alerta.TipoDescadastro {
		t.Errorf("tipo = %q, want %q", evento.Tipo, alerta.TipoDescadastro)
	}
	if evento.OgmoID != tpa.OgmoID {
		t.Errorf("ogmo do alerta = %s, want %s", evento.OgmoID, tpa.OgmoID)
	}
	if evento.NomeOperador != tpa.Nome {
		t.Errorf("nome = %q, want %q", evento.NomeOperador, tpa.Nome)
	}
	if evento.CPFOperador != "12345678901" {
		t.Errorf("cpf = %q, want somente dígitos", evento.CPFOperador)
	}
}

func TestDeleteTPANaoEncontrado(t *testing.T) {
	store := &stubTPAStore{}
	emissor := &stubAlertaEmissor{}
	svc := NewUserService(nil, nil, nil, store, emissor)

	err := svc.DeleteTPA(context.Background(), uuid.New())
	if !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(store.deletados) != 0 {
		t.Fatalf("nada deveria ter sido removido: %v", store.deletados)
	}
	if len(emissor.emitidos) != 0 {
		t.Fatalf("nenhum alerta deveria ser emitido: %v", emissor.emitidos)
	}
}

func TestEventoCadastralTPA(t *testing.T) {
	tpa := &cadastro.TPA{
		OgmoID: uuid.New(),
		Nome:   "Maria Souza",
		CPF:    "987.654.321-00",
	}

	evento := eventoCadastralTPA(tpa, alerta.TipoCadastro, "Trabalhador avulso cadastrado")
	if evento.Tipo != alerta.TipoCadastro {
		t.Errorf("tipo = %q, want %q", evento.Tipo, alerta.TipoCadastro)
	}
	if evento.CPFOperador != "98765432100" {
		t.Errorf("cpf = %q, want somente dígitos", evento.CPFOperador)
	}
	if evento.Descricao != "Trabalhador avulso cadastrado" {
		t.Errorf("descricao = %q", evento.Descricao)
	}
}
