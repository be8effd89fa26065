package extrato

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gestaoportuaria/backoffice/internal/billing"
	"github.com/gestaoportuaria/backoffice/internal/ogmo"
	"github.com/gestaoportuaria/backoffice/internal/storage"
)

// toleranciaValor absorve diferenças de arredondamento entre o extrato e o
// valor faturado.
const toleranciaValor = 0.01

// ErrArquivoVazio indica que o arquivo enviado não produziu lançamentos.
var ErrArquivoVazio = errors.New("extrato: nenhum lançamento interpretável no arquivo")

// MensalidadeStore é a fatia do repositório financeiro usada pela conciliação.
type MensalidadeStore interface {
	ListOutstanding(ctx context.Context, ogmoID uuid.UUID) ([]billing.Mensalidade, error)
	MarkPaid(ctx context.Context, id uuid.UUID, dataPagamento time.Time, observacoes string) error
	RegistrarExtrato(ctx context.Context, nomeArquivo string, registros, conciliados int, importadoPor *uuid.UUID) error
}

// AlertaMarcador marca como visualizados os alertas de cobrança do OGMO cuja
// mensalidade acabou de ser conciliada.
type AlertaMarcador interface {
	MarcarVisualizadosPorOgmo(ctx context.Context, ogmoID uuid.UUID) error
}

// Conciliacao descreve um lançamento casado com uma mensalidade.
type Conciliacao struct {
	MensalidadeID uuid.UUID `json:"mensalidade_id"`
	OgmoID        uuid.UUID `json:"ogmo_id"`
	CNPJ          string    `json:"cnpj"`
	Valor         float64   `json:"valor"`
	Data          time.Time `json:"data"`
	Descricao     string    `json:"descricao"`
}

// Resultado resume uma importação de extrato.
type Resultado struct {
	NomeArquivo string        `json:"nome_arquivo"`
	Registros   int           `json:"registros"`
	Conciliados int           `json:"conciliados"`
	Detalhes    []Conciliacao `json:"detalhes"`
}

// Service executa a conciliação bancária automática.
type Service struct {
	mensalidades MensalidadeStore
	alertas      AlertaMarcador
	arquivos     storage.Uploader
	logger       zerolog.Logger
}

func NewService(mensalidades MensalidadeStore, alertas AlertaMarcador, arquivos storage.Uploader, logger zerolog.Logger) *Service {
	if arquivos == nil {
		arquivos = storage.NoopUploader{}
	}
	return &Service{
		mensalidades: mensalidades,
		alertas:      alertas,
		arquivos:     arquivos,
		logger:       logger,
	}
}

// Reconcile interpreta o arquivo, casa cada lançamento com a mensalidade em
// aberto mais antiga do OGMO de mesmo CNPJ e valor e marca as casadas como
// pagas. Cada mensalidade é casada no máximo uma vez por importação.
func (s *Service) Reconcile(ctx context.Context, ogmoID uuid.UUID, nomeArquivo string, conteudo []byte, importadoPor *uuid.UUID) (*Resultado, error) {
	items := Parse(string(conteudo), nomeArquivo)
	if len(items) == 0 {
		return nil, ErrArquivoVazio
	}

	pendentes, err := s.mensalidades.ListOutstanding(ctx, ogmoID)
	if err != nil {
		return nil, fmt.Errorf("extrato: carregar mensalidades em aberto: %w", err)
	}

	resultado := &Resultado{NomeArquivo: nomeArquivo, Registros: len(items)}
	casadas := make(map[uuid.UUID]bool)

	for _, item := range items {
		m := matchMensalidade(pendentes, casadas, item)
		if m == nil {
			continue
		}

		obs := "Conciliado automaticamente - " + item.Descricao
		if err := s.mensalidades.MarkPaid(ctx, m.ID, item.Data, obs); err != nil {
			s.logger.Error().Err(err).
				Str("mensalidade_id", m.ID.String()).
				Msg("extrato: falha ao baixar mensalidade conciliada")
			continue
		}
		casadas[m.ID] = true

		if s.alertas != nil {
			if err := s.alertas.MarcarVisualizadosPorOgmo(ctx, m.OgmoID); err != nil {
				s.logger.Warn().Err(err).
					Str("ogmo_id", m.OgmoID.String()).
					Msg("extrato: falha ao marcar alertas visualizados")
			}
		}

		resultado.Conciliados++
		resultado.Detalhes = append(resultado.Detalhes, Conciliacao{
			MensalidadeID: m.ID,
			OgmoID:        m.OgmoID,
			CNPJ:          item.CNPJ,
			Valor:         item.Valor,
			Data:          item.Data,
			Descricao:     item.Descricao,
		})
	}

	if err := s.mensalidades.RegistrarExtrato(ctx, nomeArquivo, resultado.Registros, resultado.Conciliados, importadoPor); err != nil {
		return nil, fmt.Errorf("extrato: registrar importação: %w", err)
	}

	s.arquivar(ctx, nomeArquivo, conteudo)

	s.logger.Info().
		Str("arquivo", nomeArquivo).
		Int("registros", resultado.Registros).
		Int("conciliados", resultado.Conciliados).
		Msg("extrato processado")

	return resultado, nil
}

// matchMensalidade devolve a primeira mensalidade em aberto ainda não casada
// nesta importação com o mesmo CNPJ e valor do lançamento. A lista vem
// ordenada por mês de referência crescente, então a mais antiga vence.
func matchMensalidade(pendentes []billing.Mensalidade, casadas map[uuid.UUID]bool, item Item) *billing.Mensalidade {
	itemCNPJ := ogmo.NormalizeCNPJ(item.CNPJ)
	for i := range pendentes {
		m := &pendentes[i]
		if casadas[m.ID] {
			continue
		}
		if m.CNPJPagador == nil || ogmo.NormalizeCNPJ(*m.CNPJPagador) != itemCNPJ {
			continue
		}
		if math.Abs(m.ValorTotal-item.Valor) >= toleranciaValor {
			continue
		}
		return m
	}
	return nil
}

// arquivar guarda o arquivo bruto para auditoria. Falhas não interrompem a
// conciliação já aplicada.
func (s *Service) arquivar(ctx context.Context, nomeArquivo string, conteudo []byte) {
	res, err := s.arquivos.Upload(ctx, storage.UploadInput{
		Key:         storage.ExtratoKey(nomeArquivo, time.Now().UTC()),
		Body:        conteudo,
		ContentType: "text/plain; charset=utf-8",
	})
	if err != nil {
		s.logger.Debug().Err(err).Str("arquivo", nomeArquivo).Msg("extrato: arquivamento indisponível")
		return
	}
	s.logger.Info().Str("arquivo", nomeArquivo).Str("url", res.URL).Msg("extrato arquivado")
}
