package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/gestaoportuaria/backoffice/internal/billing"
)

// Tipos de tarefa processados pelo worker.
const (
	TypeGerarMensalidades = "billing:gerar_mensalidades"
)

// GerarMensalidadesPayload parametriza a geração de faturas do mês.
type GerarMensalidadesPayload struct {
	// DataBase define o mês de referência; zero usa o instante atual.
	DataBase time.Time `json:"data_base,omitempty"`
}

// Client enfileira tarefas de retaguarda no Redis.
type Client struct {
	client *asynq.Client
}

// NewClient cria o produtor de tarefas a partir da URL do Redis.
func NewClient(redisURL string) (*Client, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("tasks: redis url inválida: %w", err)
	}
	return &Client{client: asynq.NewClient(opt)}, nil
}

// Close encerra a conexão do produtor.
func (c *Client) Close() error {
	return c.client.Close()
}

// NewGerarMensalidadesTask monta a tarefa de geração de mensalidades,
// também usada pelo scheduler do worker.
func NewGerarMensalidadesTask(payload GerarMensalidadesPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("tasks: marshal payload: %w", err)
	}
	return asynq.NewTask(TypeGerarMensalidades, data, asynq.MaxRetry(3), asynq.Timeout(10*time.Minute), asynq.Unique(time.Hour)), nil
}

// EnqueueGerarMensalidades agenda a geração de mensalidades do mês.
func (c *Client) EnqueueGerarMensalidades(payload GerarMensalidadesPayload) error {
	task, err := NewGerarMensalidadesTask(payload)
	if err != nil {
		return err
	}
	if _, err := c.client.Enqueue(task); err != nil {
		return fmt.Errorf("tasks: enqueue %s: %w", TypeGerarMensalidades, err)
	}
	return nil
}

// Gerador é a fatia do serviço financeiro usada pelo worker.
type Gerador interface {
	ValorPorOperadorGlobal(ctx context.Context) (float64, error)
	GenerateMonthly(ctx context.Context, now time.Time, globalRate float64) (*billing.RelatorioGeracao, error)
}

// BillingHandler processa as tarefas financeiras.
type BillingHandler struct {
	gerador Gerador
	logger  zerolog.Logger
}

// NewBillingHandler cria o handler do worker financeiro.
func NewBillingHandler(gerador Gerador, logger zerolog.Logger) *BillingHandler {
	return &BillingHandler{gerador: gerador, logger: logger}
}

// ProcessTask executa a geração mensal de faturas.
func (h *BillingHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload GerarMensalidadesPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("tasks: payload inválido: %w", err)
		}
	}

	base := payload.DataBase
	if base.IsZero() {
		base = time.Now().UTC()
	}

	rate, err := h.gerador.ValorPorOperadorGlobal(ctx)
	if err != nil {
		return fmt.Errorf("tasks: valor global por operador: %w", err)
	}

	relatorio, err := h.gerador.GenerateMonthly(ctx, base, rate)
	if err != nil {
		return err
	}

	h.logger.Info().
		Time("mes_referencia", relatorio.MesReferencia).
		Int("criadas", len(relatorio.Criadas)).
		Int("ja_existentes", relatorio.JaExistentes).
		Int("erros", len(relatorio.Erros)).
		Msg("geração mensal concluída")

	return nil
}

// Mux devolve o roteador de tarefas com todos os handlers registrados.
func Mux(billingHandler *BillingHandler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TypeGerarMensalidades, asynq.HandlerFunc(billingHandler.ProcessTask))
	return mux
}
