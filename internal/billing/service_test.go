package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gestaoportuaria/backoffice/internal/ogmo"
)

type stubRepo struct {
	operadores  map[uuid.UUID]int
	countErr    map[uuid.UUID]error
	existentes  map[uuid.UUID]bool
	inseridas   []CreateInput
	valorGlobal float64
}

func (s *stubRepo) CountBillableOperators(ctx context.Context, ogmoID uuid.UUID, ref time.Time) (int, error) {
	if err := s.countErr[ogmoID]; err != nil {
		return 0, err
	}
	return s.operadores[ogmoID], nil
}

func (s *stubRepo) Insert(ctx context.Context, input CreateInput) (*Mensalidade, bool, error) {
	if s.existentes[input.OgmoID] {
		return nil, false, nil
	}
	s.inseridas = append(s.inseridas, input)
	return &Mensalidade{
		ID:                   uuid.New(),
		OgmoID:               input.OgmoID,
		MesReferencia:        input.MesReferencia,
		QuantidadeOperadores: input.QuantidadeOperadores,
		ValorTotal:           input.ValorTotal,
		DataVencimento:       input.DataVencimento,
		Status:               StatusPendente,
	}, true, nil
}

func (s *stubRepo) GetByID(ctx context.Context, id uuid.UUID) (*Mensalidade, error) {
	return nil, ErrNotFound
}

func (s *stubRepo) ListByOgmo(ctx context.Context, ogmoID uuid.UUID) ([]Mensalidade, error) {
	return nil, nil
}

func (s *stubRepo) ListAll(ctx context.Context) ([]Mensalidade, error) { return nil, nil }

func (s *stubRepo) MarkPaid(ctx context.Context, id uuid.UUID, dataPagamento time.Time, observacoes string) error {
	return nil
}

func (s *stubRepo) SetNotaFiscal(ctx context.Context, id uuid.UUID, emitida bool) error {
	return nil
}

func (s *stubRepo) GetValorPorOperadorGlobal(ctx context.Context) (float64, error) {
	return s.valorGlobal, nil
}

func (s *stubRepo) UpdateValorPorOperadorGlobal(ctx context.Context, valor float64) error {
	s.valorGlobal = valor
	return nil
}

type stubLister struct {
	ogmos []ogmo.Ogmo
}

func (s *stubLister) List(ctx context.Context) ([]ogmo.Ogmo, error) {
	return s.ogmos, nil
}

func floatPtr(v float64) *float64 { return &v }

func TestGenerateMonthly(t *testing.T) {
	comCustom := ogmo.Ogmo{ID: uuid.New(), Nome: "OGMO Santos", CNPJ: "11.111.111/0001-11", ValorPorOperador: floatPtr(200)}
	semCustom := ogmo.Ogmo{ID: uuid.New(), Nome: "OGMO Paranaguá", CNPJ: "22.222.222/0001-22"}
	bloqueado := ogmo.Ogmo{ID: uuid.New(), Nome: "OGMO Itajaí", CNPJ: "33.333.333/0001-33", Bloqueado: true}

	repo := &stubRepo{
		operadores: map[uuid.UUID]int{comCustom.ID: 10, semCustom.ID: 4, bloqueado.ID: 7},
	}
	svc := NewService(repo, &stubLister{ogmos: []ogmo.Ogmo{comCustom, semCustom, bloqueado}}, 5)

	now := time.Date(2025, 3, 18, 9, 0, 0, 0, time.UTC)
	relatorio, err := svc.GenerateMonthly(context.Background(), now, 150)
	if err != nil {
		t.Fatalf("GenerateMonthly: %v", err)
	}

	if len(relatorio.Criadas) != 3 {
		t.Fatalf("criadas = %d, quer 3 (bloqueados também são faturados)", len(relatorio.Criadas))
	}
	if !relatorio.MesReferencia.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("mes_referencia = %v", relatorio.MesReferencia)
	}
	if !relatorio.DataVencimento.Equal(time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("data_vencimento = %v", relatorio.DataVencimento)
	}

	valores := map[uuid.UUID]float64{}
	for _, input := range repo.inseridas {
		valores[input.OgmoID] = input.ValorTotal
	}
	if valores[comCustom.ID] != 10*200 {
		t.Errorf("valor com taxa customizada = %v, quer 2000", valores[comCustom.ID])
	}
	if valores[semCustom.ID] != 4*150 {
		t.Errorf("valor com taxa global = %v, quer 600", valores[semCustom.ID])
	}
}

func TestGenerateMonthlyNaoDuplica(t *testing.T) {
	o := ogmo.Ogmo{ID: uuid.New(), Nome: "OGMO Santos", CNPJ: "11.111.111/0001-11"}
	repo := &stubRepo{
		operadores: map[uuid.UUID]int{o.ID: 5},
		existentes: map[uuid.UUID]bool{o.ID: true},
	}
	svc := NewService(repo, &stubLister{ogmos: []ogmo.Ogmo{o}}, 5)

	relatorio, err := svc.GenerateMonthly(context.Background(), time.Now().UTC(), 150)
	if err != nil {
		t.Fatalf("GenerateMonthly: %v", err)
	}

	if len(relatorio.Criadas) != 0 {
		t.Errorf("criadas = %d, quer 0", len(relatorio.Criadas))
	}
	if relatorio.JaExistentes != 1 {
		t.Errorf("ja_existentes = %d, quer 1", relatorio.JaExistentes)
	}
}

func TestGenerateMonthlySemOperadores(t *testing.T) {
	o := ogmo.Ogmo{ID: uuid.New(), Nome: "OGMO Novo", CNPJ: "44.444.444/0001-44"}
	repo := &stubRepo{operadores: map[uuid.UUID]int{o.ID: 0}}
	svc := NewService(repo, &stubLister{ogmos: []ogmo.Ogmo{o}}, 5)

	relatorio, err := svc.GenerateMonthly(context.Background(), time.Now().UTC(), 150)
	if err != nil {
		t.Fatalf("GenerateMonthly: %v", err)
	}

	if len(relatorio.Criadas) != 1 {
		t.Fatalf("criadas = %d, quer 1 (fatura zerada é emitida)", len(relatorio.Criadas))
	}
	if repo.inseridas[0].ValorTotal != 0 {
		t.Errorf("valor total = %v, quer 0", repo.inseridas[0].ValorTotal)
	}
}

func TestGenerateMonthlyAcumulaErros(t *testing.T) {
	falha := ogmo.Ogmo{ID: uuid.New(), Nome: "OGMO Falho", CNPJ: "55.555.555/0001-55"}
	ok := ogmo.Ogmo{ID: uuid.New(), Nome: "OGMO Bom", CNPJ: "66.666.666/0001-66"}

	repo := &stubRepo{
		operadores: map[uuid.UUID]int{ok.ID: 3},
		countErr:   map[uuid.UUID]error{falha.ID: errors.New("timeout")},
	}
	svc := NewService(repo, &stubLister{ogmos: []ogmo.Ogmo{falha, ok}}, 5)

	relatorio, err := svc.GenerateMonthly(context.Background(), time.Now().UTC(), 150)
	if err != nil {
		t.Fatalf("GenerateMonthly: %v", err)
	}

	if len(relatorio.Erros) != 1 || relatorio.Erros[0].Ogmo != "OGMO Falho" {
		t.Errorf("erros = %+v", relatorio.Erros)
	}
	if len(relatorio.Criadas) != 1 {
		t.Errorf("criadas = %d, quer 1 (lote segue após falha)", len(relatorio.Criadas))
	}
}

func TestEffectiveStatus(t *testing.T) {
	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	vencida := Mensalidade{Status: StatusPendente, DataVencimento: time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)}
	if got := vencida.EffectiveStatus(now); got != StatusAtrasado {
		t.Errorf("status = %q, quer %q", got, StatusAtrasado)
	}

	emDia := Mensalidade{Status: StatusPendente, DataVencimento: time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)}
	if got := emDia.EffectiveStatus(now); got != StatusPendente {
		t.Errorf("status = %q, quer %q", got, StatusPendente)
	}

	paga := Mensalidade{Status: StatusPago, DataVencimento: time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)}
	if got := paga.EffectiveStatus(now); got != StatusPago {
		t.Errorf("status = %q, quer %q", got, StatusPago)
	}
}

func TestResumo(t *testing.T) {
	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	mensalidades := []Mensalidade{
		{ValorTotal: 1000, Status: StatusPago, DataVencimento: now.AddDate(0, 0, -10)},
		{ValorTotal: 500, Status: StatusPendente, DataVencimento: now.AddDate(0, 0, -5)},
		{ValorTotal: 300, Status: StatusPendente, DataVencimento: now.AddDate(0, 0, 5)},
	}

	r := Resumo(mensalidades, now)
	if r.TotalFaturado != 1800 {
		t.Errorf("faturado = %v", r.TotalFaturado)
	}
	if r.TotalRecebido != 1000 {
		t.Errorf("recebido = %v", r.TotalRecebido)
	}
	if r.TotalAtrasado != 500 {
		t.Errorf("atrasado = %v", r.TotalAtrasado)
	}
	if r.TotalPendente != 800 {
		t.Errorf("pendente = %v", r.TotalPendente)
	}
	if r.QtdePagas != 1 || r.QtdeAtrasadas != 1 || r.QtdePendentes != 1 {
		t.Errorf("contagens = %+v", r)
	}
}
