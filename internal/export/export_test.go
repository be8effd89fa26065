package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/gestaoportuaria/backoffice/internal/billing"
)

func exemplo(t *testing.T) []Linha {
	t.Helper()

	ogmoID := uuid.New()
	pago := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	mensalidades := []billing.Mensalidade{
		{
			OgmoID:               ogmoID,
			MesReferencia:        time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			QuantidadeOperadores: 12,
			ValorTotal:           1800,
			DataVencimento:       time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
			Status:               billing.StatusPago,
			DataPagamento:        &pago,
		},
		{
			OgmoID:               ogmoID,
			MesReferencia:        time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
			QuantidadeOperadores: 12,
			ValorTotal:           1800,
			DataVencimento:       time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC),
			Status:               billing.StatusPendente,
		},
	}

	return Linhas(mensalidades, map[uuid.UUID]string{ogmoID: "OGMO Santos"}, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
}

func TestLinhas(t *testing.T) {
	linhas := exemplo(t)
	if len(linhas) != 2 {
		t.Fatalf("linhas = %d, quer 2", len(linhas))
	}

	if linhas[0].Ogmo != "OGMO Santos" {
		t.Errorf("ogmo = %q", linhas[0].Ogmo)
	}
	if linhas[0].Referencia != "01/2025" {
		t.Errorf("referencia = %q", linhas[0].Referencia)
	}
	if linhas[0].Pagamento != "10/01/2025" {
		t.Errorf("pagamento = %q", linhas[0].Pagamento)
	}

	// vencida e não paga aparece como atrasada na data do relatório
	if linhas[1].Status != billing.StatusAtrasado {
		t.Errorf("status = %q, quer %q", linhas[1].Status, billing.StatusAtrasado)
	}
}

func TestMensalidadesXLSX(t *testing.T) {
	conteudo, err := MensalidadesXLSX(exemplo(t))
	if err != nil {
		t.Fatalf("MensalidadesXLSX: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(conteudo))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Mensalidades")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, quer 3 (cabeçalho + 2)", len(rows))
	}
	if rows[0][0] != "OGMO" {
		t.Errorf("cabeçalho = %q", rows[0][0])
	}
	if rows[1][0] != "OGMO Santos" {
		t.Errorf("linha 1 = %q", rows[1][0])
	}
}

func TestMensalidadesPDF(t *testing.T) {
	conteudo, err := MensalidadesPDF("Mensalidades 2025", exemplo(t))
	if err != nil {
		t.Fatalf("MensalidadesPDF: %v", err)
	}
	if !bytes.HasPrefix(conteudo, []byte("%PDF")) {
		t.Fatalf("saída não parece um PDF (%d bytes)", len(conteudo))
	}
}
