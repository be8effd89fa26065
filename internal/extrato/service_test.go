package extrato

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gestaoportuaria/backoffice/internal/billing"
)

type stubMensalidadeStore struct {
	outstanding []billing.Mensalidade
	pagas       map[uuid.UUID]string
	registros   []int
}

func (s *stubMensalidadeStore) ListOutstanding(ctx context.Context, ogmoID uuid.UUID) ([]billing.Mensalidade, error) {
	var out []billing.Mensalidade
	for _, m := range s.outstanding {
		if m.OgmoID == ogmoID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *stubMensalidadeStore) MarkPaid(ctx context.Context, id uuid.UUID, dataPagamento time.Time, observacoes string) error {
	if s.pagas == nil {
		s.pagas = make(map[uuid.UUID]string)
	}
	s.pagas[id] = observacoes
	return nil
}

func (s *stubMensalidadeStore) RegistrarExtrato(ctx context.Context, nomeArquivo string, registros, conciliados int, importadoPor *uuid.UUID) error {
	s.registros = []int{registros, conciliados}
	return nil
}

type stubAlertas struct {
	visualizados []uuid.UUID
}

func (s *stubAlertas) MarcarVisualizadosPorOgmo(ctx context.Context, ogmoID uuid.UUID) error {
	s.visualizados = append(s.visualizados, ogmoID)
	return nil
}

func cnpjPtr(s string) *string { return &s }

func mensalidade(cnpj string, valor float64, ref time.Time) billing.Mensalidade {
	return billing.Mensalidade{
		ID:            uuid.New(),
		OgmoID:        uuid.New(),
		MesReferencia: ref,
		ValorTotal:    valor,
		Status:        billing.StatusPendente,
		CNPJPagador:   cnpjPtr(cnpj),
	}
}

func TestReconcileCasaMaisAntiga(t *testing.T) {
	jan := mensalidade("12.345.678/0001-90", 1500, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	fev := mensalidade("12.345.678/0001-90", 1500, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	fev.OgmoID = jan.OgmoID

	store := &stubMensalidadeStore{outstanding: []billing.Mensalidade{jan, fev}}
	alertas := &stubAlertas{}
	svc := NewService(store, alertas, nil, zerolog.Nop())

	csv := "Data;Descrição;CNPJ;Valor\n10/02/2025;PIX recebido;12.345.678/0001-90;1500,00\n"
	res, err := svc.Reconcile(context.Background(), jan.OgmoID, "extrato.csv", []byte(csv), nil)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	if res.Conciliados != 1 {
		t.Fatalf("conciliados = %d, quer 1", res.Conciliados)
	}
	if _, ok := store.pagas[jan.ID]; !ok {
		t.Errorf("mensalidade de janeiro deveria ter sido baixada")
	}
	if _, ok := store.pagas[fev.ID]; ok {
		t.Errorf("mensalidade de fevereiro não deveria ter sido baixada")
	}
	if obs := store.pagas[jan.ID]; obs != "Conciliado automaticamente - PIX recebido" {
		t.Errorf("observacoes = %q", obs)
	}
	if len(alertas.visualizados) != 1 || alertas.visualizados[0] != jan.OgmoID {
		t.Errorf("alertas visualizados = %v", alertas.visualizados)
	}
}

func TestReconcileNaoCasaDuasVezes(t *testing.T) {
	m := mensalidade("12.345.678/0001-90", 1500, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	store := &stubMensalidadeStore{outstanding: []billing.Mensalidade{m}}
	svc := NewService(store, &stubAlertas{}, nil, zerolog.Nop())

	csv := "Data;Descrição;CNPJ;Valor\n" +
		"10/01/2025;Primeiro;12.345.678/0001-90;1500,00\n" +
		"11/01/2025;Segundo;12.345.678/0001-90;1500,00\n"
	res, err := svc.Reconcile(context.Background(), m.OgmoID, "extrato.csv", []byte(csv), nil)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	if res.Registros != 2 {
		t.Errorf("registros = %d, quer 2", res.Registros)
	}
	if res.Conciliados != 1 {
		t.Errorf("conciliados = %d, quer 1", res.Conciliados)
	}
}

func TestReconcileSemCorrespondencia(t *testing.T) {
	m := mensalidade("12.345.678/0001-90", 1500, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	store := &stubMensalidadeStore{outstanding: []billing.Mensalidade{m}}
	svc := NewService(store, &stubAlertas{}, nil, zerolog.Nop())

	// valor fora da tolerância
	csv := "Data;Descrição;CNPJ;Valor\n10/01/2025;Pgto;12.345.678/0001-90;1500,05\n"
	res, err := svc.Reconcile(context.Background(), m.OgmoID, "extrato.csv", []byte(csv), nil)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	if res.Conciliados != 0 {
		t.Errorf("conciliados = %d, quer 0", res.Conciliados)
	}
	if len(store.pagas) != 0 {
		t.Errorf("nenhuma mensalidade deveria ter sido baixada: %v", store.pagas)
	}
	if len(store.registros) != 2 || store.registros[0] != 1 || store.registros[1] != 0 {
		t.Errorf("registro de importação = %v", store.registros)
	}
}

func TestReconcileArquivoVazio(t *testing.T) {
	svc := NewService(&stubMensalidadeStore{}, &stubAlertas{}, nil, zerolog.Nop())
	if _, err := svc.Reconcile(context.Background(), uuid.New(), "extrato.csv", []byte("Data;Descrição;CNPJ;Valor\n"), nil); !errors.Is(err, ErrArquivoVazio) {
		t.Fatalf("err = %v, quer ErrArquivoVazio", err)
	}
}
