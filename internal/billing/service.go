package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gestaoportuaria/backoffice/internal/ogmo"
)

// Repositorio define o acesso a dados exigido pelo serviço de faturamento.
type Repositorio interface {
	CountBillableOperators(ctx context.Context, ogmoID uuid.UUID, ref time.Time) (int, error)
	Insert(ctx context.Context, input CreateInput) (*Mensalidade, bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Mensalidade, error)
	ListByOgmo(ctx context.Context, ogmoID uuid.UUID) ([]Mensalidade, error)
	ListAll(ctx context.Context) ([]Mensalidade, error)
	MarkPaid(ctx context.Context, id uuid.UUID, dataPagamento time.Time, observacoes string) error
	SetNotaFiscal(ctx context.Context, id uuid.UUID, emitida bool) error
	GetValorPorOperadorGlobal(ctx context.Context) (float64, error)
	UpdateValorPorOperadorGlobal(ctx context.Context, valor float64) error
}

// OgmoLister enumera os tenants a faturar.
type OgmoLister interface {
	List(ctx context.Context) ([]ogmo.Ogmo, error)
}

// Service implementa a geração e consulta de mensalidades.
type Service struct {
	repo          Repositorio
	ogmos         OgmoLister
	diaVencimento int
}

// NewService cria o serviço de faturamento. diaVencimento segue a configuração
// (dia 5 por padrão).
func NewService(repo Repositorio, ogmos OgmoLister, diaVencimento int) *Service {
	if diaVencimento < 1 || diaVencimento > 28 {
		diaVencimento = 5
	}
	return &Service{repo: repo, ogmos: ogmos, diaVencimento: diaVencimento}
}

// ValorPorOperadorGlobal expõe o valor padrão configurado.
func (s *Service) ValorPorOperadorGlobal(ctx context.Context) (float64, error) {
	return s.repo.GetValorPorOperadorGlobal(ctx)
}

// AtualizarValorPorOperadorGlobal grava o valor padrão configurado.
func (s *Service) AtualizarValorPorOperadorGlobal(ctx context.Context, valor float64) error {
	if valor < 0 {
		return fmt.Errorf("valor por operador não pode ser negativo")
	}
	return s.repo.UpdateValorPorOperadorGlobal(ctx, valor)
}

// EffectiveRate resolve a taxa aplicável ao OGMO: valor customizado quando
// presente, senão o valor global informado pelo chamador.
func EffectiveRate(o ogmo.Ogmo, globalRate float64) float64 {
	if o.ValorPorOperador != nil {
		return *o.ValorPorOperador
	}
	return globalRate
}

// GenerateMonthly executa o lote de geração: uma mensalidade pendente por
// OGMO ainda não faturado no mês de referência. Falhas por OGMO entram no
// relatório e não interrompem o restante do lote.
func (s *Service) GenerateMonthly(ctx context.Context, now time.Time, globalRate float64) (*RelatorioGeracao, error) {
	ref := MesReferencia(now)
	vencimento := time.Date(now.Year(), now.Month(), s.diaVencimento, 0, 0, 0, 0, time.UTC)

	relatorio := &RelatorioGeracao{
		MesReferencia:  ref,
		DataVencimento: vencimento,
	}

	ogmos, err := s.ogmos.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listar ogmos: %w", err)
	}

	for _, o := range ogmos {
		quantidade, err := s.repo.CountBillableOperators(ctx, o.ID, ref)
		if err != nil {
			relatorio.Erros = append(relatorio.Erros, ErroGeracao{Ogmo: o.Nome, Erro: err.Error()})
			continue
		}

		valorTotal := float64(quantidade) * EffectiveRate(o, globalRate)

		criada, inserted, err := s.repo.Insert(ctx, CreateInput{
			OgmoID:               o.ID,
			MesReferencia:        ref,
			QuantidadeOperadores: quantidade,
			ValorTotal:           valorTotal,
			DataVencimento:       vencimento,
			CNPJPagador:          o.CNPJ,
		})
		if err != nil {
			relatorio.Erros = append(relatorio.Erros, ErroGeracao{Ogmo: o.Nome, Erro: err.Error()})
			continue
		}
		if !inserted {
			relatorio.JaExistentes++
			continue
		}

		relatorio.Criadas = append(relatorio.Criadas, MensalidadeGerada{
			ID:                   criada.ID,
			Ogmo:                 o.Nome,
			CNPJ:                 o.CNPJ,
			QuantidadeOperadores: quantidade,
			ValorTotal:           valorTotal,
		})
	}

	log.Info().
		Time("mes_referencia", ref).
		Int("criadas", len(relatorio.Criadas)).
		Int("ja_existentes", relatorio.JaExistentes).
		Int("erros", len(relatorio.Erros)).
		Msg("geração de mensalidades concluída")

	return relatorio, nil
}

// Get busca mensalidade com status efetivo derivado.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Mensalidade, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	m.Status = m.EffectiveStatus(time.Now().UTC())
	return m, nil
}

// ListByOgmo devolve as mensalidades do OGMO com status efetivo.
func (s *Service) ListByOgmo(ctx context.Context, ogmoID uuid.UUID) ([]Mensalidade, error) {
	return s.withEffectiveStatus(s.repo.ListByOgmo(ctx, ogmoID))
}

// ListAll devolve todas as mensalidades com status efetivo.
func (s *Service) ListAll(ctx context.Context) ([]Mensalidade, error) {
	return s.withEffectiveStatus(s.repo.ListAll(ctx))
}

// MarkPaid registra o pagamento manual da mensalidade.
func (s *Service) MarkPaid(ctx context.Context, id uuid.UUID, dataPagamento time.Time, observacoes string) error {
	return s.repo.MarkPaid(ctx, id, dataPagamento, observacoes)
}

// SetNotaFiscal alterna a flag de nota fiscal emitida.
func (s *Service) SetNotaFiscal(ctx context.Context, id uuid.UUID, emitida bool) error {
	return s.repo.SetNotaFiscal(ctx, id, emitida)
}

// Resumo agrega o quadro financeiro de um conjunto de mensalidades.
func Resumo(mensalidades []Mensalidade, now time.Time) ResumoFinanceiro {
	var r ResumoFinanceiro
	for _, m := range mensalidades {
		r.QtdeMensalidade++
		r.TotalFaturado += m.ValorTotal
		switch m.EffectiveStatus(now) {
		case StatusPago:
			r.QtdePagas++
			r.TotalRecebido += m.ValorTotal
		case StatusAtrasado:
			r.QtdeAtrasadas++
			r.TotalAtrasado += m.ValorTotal
			r.TotalPendente += m.ValorTotal
		default:
			r.QtdePendentes++
			r.TotalPendente += m.ValorTotal
		}
	}
	return r
}

// ResumoPorOgmoAgrupado agrega mensalidades por OGMO.
func ResumoPorOgmoAgrupado(mensalidades []Mensalidade, now time.Time) []ResumoPorOgmo {
	porOgmo := make(map[uuid.UUID][]Mensalidade)
	ordem := make([]uuid.UUID, 0)
	for _, m := range mensalidades {
		if _, ok := porOgmo[m.OgmoID]; !ok {
			ordem = append(ordem, m.OgmoID)
		}
		porOgmo[m.OgmoID] = append(porOgmo[m.OgmoID], m)
	}

	resumos := make([]ResumoPorOgmo, 0, len(ordem))
	for _, id := range ordem {
		resumos = append(resumos, ResumoPorOgmo{OgmoID: id, ResumoFinanceiro: Resumo(porOgmo[id], now)})
	}
	return resumos
}

func (s *Service) withEffectiveStatus(mensalidades []Mensalidade, err error) ([]Mensalidade, error) {
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	for i := range mensalidades {
		mensalidades[i].Status = mensalidades[i].EffectiveStatus(now)
	}
	return mensalidades, nil
}
