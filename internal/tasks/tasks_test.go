package tasks

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/gestaoportuaria/backoffice/internal/billing"
)

type stubGerador struct {
	rate      float64
	baseVista time.Time
	rateVista float64
}

func (s *stubGerador) ValorPorOperadorGlobal(ctx context.Context) (float64, error) {
	return s.rate, nil
}

func (s *stubGerador) GenerateMonthly(ctx context.Context, now time.Time, globalRate float64) (*billing.RelatorioGeracao, error) {
	s.baseVista = now
	s.rateVista = globalRate
	return &billing.RelatorioGeracao{MesReferencia: billing.MesReferencia(now)}, nil
}

func TestProcessTaskComDataBase(t *testing.T) {
	gerador := &stubGerador{rate: 150}
	handler := NewBillingHandler(gerador, zerolog.Nop())

	base := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	payload, err := json.Marshal(GerarMensalidadesPayload{DataBase: base})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	if err := handler.ProcessTask(context.Background(), asynq.NewTask(TypeGerarMensalidades, payload)); err != nil {
		t.Fatalf("ProcessTask: %v", err)
	}

	if !gerador.baseVista.Equal(base) {
		t.Errorf("data base = %v, quer %v", gerador.baseVista, base)
	}
	if gerador.rateVista != 150 {
		t.Errorf("rate = %v, quer 150", gerador.rateVista)
	}
}

func TestProcessTaskPayloadVazio(t *testing.T) {
	gerador := &stubGerador{rate: 150}
	handler := NewBillingHandler(gerador, zerolog.Nop())

	antes := time.Now().UTC()
	if err := handler.ProcessTask(context.Background(), asynq.NewTask(TypeGerarMensalidades, nil)); err != nil {
		t.Fatalf("ProcessTask: %v", err)
	}
	if gerador.baseVista.Before(antes) {
		t.Errorf("data base deveria ser agora, veio %v", gerador.baseVista)
	}
}

func TestProcessTaskPayloadInvalido(t *testing.T) {
	handler := NewBillingHandler(&stubGerador{}, zerolog.Nop())
	if err := handler.ProcessTask(context.Background(), asynq.NewTask(TypeGerarMensalidades, []byte("{nope"))); err == nil {
		t.Fatal("payload inválido deveria falhar")
	}
}
