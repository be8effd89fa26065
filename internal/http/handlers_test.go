package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gestaoportuaria/backoffice/internal/billing"
	"github.com/gestaoportuaria/backoffice/internal/extrato"
	httpmiddleware "github.com/gestaoportuaria/backoffice/internal/http/middleware"
	"github.com/gestaoportuaria/backoffice/internal/ogmo"
	"github.com/gestaoportuaria/backoffice/internal/perfil"
	"github.com/gestaoportuaria/backoffice/internal/repo"
)

type stubBillingRepo struct {
	operadores  int
	valorGlobal float64
	pendentes   []billing.Mensalidade
	pagas       []uuid.UUID
	registros   []int
}

func (s *stubBillingRepo) CountBillableOperators(context.Context, uuid.UUID, time.Time) (int, error) {
	return s.operadores, nil
}

func (s *stubBillingRepo) Insert(_ context.Context, input billing.CreateInput) (*billing.Mensalidade, bool, error) {
	return &billing.Mensalidade{
		ID:                   uuid.New(),
		OgmoID:               input.OgmoID,
		MesReferencia:        input.MesReferencia,
		QuantidadeOperadores: input.QuantidadeOperadores,
		ValorTotal:           input.ValorTotal,
		DataVencimento:       input.DataVencimento,
		Status:               billing.StatusPendente,
	}, true, nil
}

func (s *stubBillingRepo) GetByID(context.Context, uuid.UUID) (*billing.Mensalidade, error) {
	return nil, billing.ErrNotFound
}

func (s *stubBillingRepo) ListByOgmo(context.Context, uuid.UUID) ([]billing.Mensalidade, error) {
	return s.pendentes, nil
}

func (s *stubBillingRepo) ListAll(context.Context) ([]billing.Mensalidade, error) {
	return s.pendentes, nil
}

func (s *stubBillingRepo) ListOutstanding(_ context.Context, ogmoID uuid.UUID) ([]billing.Mensalidade, error) {
	var out []billing.Mensalidade
	for _, m := range s.pendentes {
		if m.OgmoID == ogmoID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *stubBillingRepo) MarkPaid(_ context.Context, id uuid.UUID, _ time.Time, _ string) error {
	for _, m := range s.pendentes {
		if m.ID == id {
			s.pagas = append(s.pagas, id)
			return nil
		}
	}
	return billing.ErrNotFound
}

func (s *stubBillingRepo) SetNotaFiscal(context.Context, uuid.UUID, bool) error {
	return nil
}

func (s *stubBillingRepo) GetValorPorOperadorGlobal(context.Context) (float64, error) {
	return s.valorGlobal, nil
}

func (s *stubBillingRepo) UpdateValorPorOperadorGlobal(_ context.Context, valor float64) error {
	s.valorGlobal = valor
	return nil
}

func (s *stubBillingRepo) RegistrarExtrato(_ context.Context, _ string, registros, conciliados int, _ *uuid.UUID) error {
	s.registros = []int{registros, conciliados}
	return nil
}

type stubOgmoLister struct {
	ogmos []ogmo.Ogmo
}

func (s stubOgmoLister) List(context.Context) ([]ogmo.Ogmo, error) {
	return s.ogmos, nil
}

type stubAlertaMarcador struct {
	marcados []uuid.UUID
}

func (s *stubAlertaMarcador) MarcarVisualizadosPorOgmo(_ context.Context, ogmoID uuid.UUID) error {
	s.marcados = append(s.marcados, ogmoID)
	return nil
}

type stubPermissaoSource struct {
	permissoes []perfil.Permissao
}

func (s stubPermissaoSource) ListPermissoesPorUsuario(context.Context, uuid.UUID) ([]perfil.Permissao, error) {
	return s.permissoes, nil
}

func ctxComSessaoOgmo(req *http.Request, ogmoID uuid.UUID, roles ...string) *http.Request {
	ctx := context.WithValue(req.Context(), httpmiddleware.ContextKeySubject, uuid.New().String())
	ctx = context.WithValue(ctx, httpmiddleware.ContextKeyAudience, "ogmo")
	ctx = context.WithValue(ctx, httpmiddleware.ContextKeyRoles, roles)
	ctx = context.WithValue(ctx, httpmiddleware.ContextKeyOgmo, ogmoID.String())
	return req.WithContext(ctx)
}

func TestGerarMensalidadesSincrono(t *testing.T) {
	ogmoID := uuid.New()
	repo := &stubBillingRepo{operadores: 4, valorGlobal: 150}
	lister := stubOgmoLister{ogmos: []ogmo.Ogmo{{ID: ogmoID, Nome: "OGMO Santos", CNPJ: "12.345.678/0001-90"}}}

	h := &Handler{billing: billing.NewService(repo, lister, 5)}

	req := httptest.NewRequest(http.MethodPost, "/admin/mensalidades/gerar", strings.NewReader(`{"sincrono":true}`))
	res := httptest.NewRecorder()
	h.GerarMensalidades(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}

	var envelope struct {
		Data struct {
			Relatorio billing.RelatorioGeracao `json:"relatorio"`
		} `json:"data"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(envelope.Data.Relatorio.Criadas) != 1 {
		t.Fatalf("expected 1 mensalidade criada, got %d", len(envelope.Data.Relatorio.Criadas))
	}
	if got := envelope.Data.Relatorio.Criadas[0].ValorTotal; got != 600 {
		t.Fatalf("expected valor 600, got %f", got)
	}
}

func TestMarcarPagamentoNaoEncontrada(t *testing.T) {
	h := &Handler{billing: billing.NewService(&stubBillingRepo{}, stubOgmoLister{}, 5)}

	req := httptest.NewRequest(http.MethodPatch, "/admin/mensalidades/x/pagamento", strings.NewReader(`{}`))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", uuid.New().String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	res := httptest.NewRecorder()
	h.MarcarPagamento(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestUploadExtratoConcilia(t *testing.T) {
	ogmoID := uuid.New()
	cnpj := "12.345.678/0001-90"
	pendente := billing.Mensalidade{
		ID:             uuid.New(),
		OgmoID:         ogmoID,
		MesReferencia:  time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		ValorTotal:     1500,
		DataVencimento: time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC),
		Status:         billing.StatusPendente,
		CNPJPagador:    &cnpj,
	}

	repo := &stubBillingRepo{pendentes: []billing.Mensalidade{pendente}}
	alertas := &stubAlertaMarcador{}
	h := &Handler{extratos: extrato.NewService(repo, alertas, nil, zerolog.Nop())}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "extrato.csv")
	if err != nil {
		t.Fatalf("multipart: %v", err)
	}
	csv := "Data;Descrição;CNPJ;Valor\n15/03/2026;PIX OGMO SANTOS;12345678000190;1500,00\n"
	if _, err := part.Write([]byte(csv)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := writer.WriteField("ogmo_id", ogmoID.String()); err != nil {
		t.Fatalf("field: %v", err)
	}
	_ = writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/admin/extratos", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	res := httptest.NewRecorder()
	h.UploadExtrato(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}

	if len(repo.pagas) != 1 || repo.pagas[0] != pendente.ID {
		t.Fatalf("mensalidade não foi baixada: %v", repo.pagas)
	}
	if len(alertas.marcados) != 1 || alertas.marcados[0] != ogmoID {
		t.Fatalf("alertas não foram marcados: %v", alertas.marcados)
	}
	if len(repo.registros) != 2 || repo.registros[0] != 1 || repo.registros[1] != 1 {
		t.Fatalf("registro do extrato inesperado: %v", repo.registros)
	}
}

func TestUploadExtratoExtensaoInvalida(t *testing.T) {
	h := &Handler{}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, _ := writer.CreateFormFile("file", "extrato.txt")
	_, _ = part.Write([]byte("qualquer coisa"))
	_ = writer.WriteField("ogmo_id", uuid.New().String())
	_ = writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/admin/extratos", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	res := httptest.NewRecorder()
	h.UploadExtrato(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestExigePermissaoNegaUsuarioSemPerfil(t *testing.T) {
	h := &Handler{policy: perfil.NewPolicy(stubPermissaoSource{})}

	handler := h.exigePermissao(perfil.RecursoOperadores, perfil.AcaoCriar)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/ogmo/operadores", nil)
	req = ctxComSessaoOgmo(req, uuid.New(), repo.RoleUsuario)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", res.Code)
	}
}

func TestExigePermissaoLiberaPerfilComAcesso(t *testing.T) {
	src := stubPermissaoSource{permissoes: []perfil.Permissao{{
		Recurso:   perfil.RecursoOperadores,
		PodeCriar: true,
	}}}
	h := &Handler{policy: perfil.NewPolicy(src)}

	handler := h.exigePermissao(perfil.RecursoOperadores, perfil.AcaoCriar)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/ogmo/operadores", nil)
	req = ctxComSessaoOgmo(req, uuid.New(), repo.RoleUsuario)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
}

func TestGetRefreshFromRequestPorAudience(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "ogmo", Value: "token-ogmo"})

	audience, token, err := getRefreshFromRequest(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if audience != "ogmo" || token != "token-ogmo" {
		t.Fatalf("expected ogmo/token-ogmo, got %s/%s", audience, token)
	}
}
