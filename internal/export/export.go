package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/gestaoportuaria/backoffice/internal/billing"
)

var cabecalho = []string{"OGMO", "Mês Referência", "Qtde Operadores", "Valor Total (R$)", "Vencimento", "Status", "Pagamento"}

// Linha materializa uma mensalidade pronta para exportação.
type Linha struct {
	Ogmo       string
	Referencia string
	Operadores int
	ValorTotal float64
	Vencimento string
	Status     string
	Pagamento  string
}

// Linhas converte mensalidades em linhas exportáveis, resolvendo o nome do
// OGMO pelo mapa informado.
func Linhas(mensalidades []billing.Mensalidade, nomes map[uuid.UUID]string, now time.Time) []Linha {
	linhas := make([]Linha, 0, len(mensalidades))
	for _, m := range mensalidades {
		nome := nomes[m.OgmoID]
		if nome == "" {
			nome = m.OgmoID.String()
		}

		pagamento := ""
		if m.DataPagamento != nil {
			pagamento = m.DataPagamento.Format("02/01/2006")
		}

		linhas = append(linhas, Linha{
			Ogmo:       nome,
			Referencia: m.MesReferencia.Format("01/2006"),
			Operadores: m.QuantidadeOperadores,
			ValorTotal: m.ValorTotal,
			Vencimento: m.DataVencimento.Format("02/01/2006"),
			Status:     m.EffectiveStatus(now),
			Pagamento:  pagamento,
		})
	}
	return linhas
}

// MensalidadesXLSX gera uma planilha com as mensalidades informadas.
func MensalidadesXLSX(linhas []Linha) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetList()[0]
	if err := f.SetSheetName(sheet, "Mensalidades"); err != nil {
		return nil, err
	}
	sheet = "Mensalidades"

	for i, titulo := range cabecalho {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, titulo); err != nil {
			return nil, err
		}
	}

	for i, linha := range linhas {
		valores := []any{linha.Ogmo, linha.Referencia, linha.Operadores, linha.ValorTotal, linha.Vencimento, linha.Status, linha.Pagamento}
		for j, valor := range valores {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, valor); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MensalidadesPDF gera um relatório tabular simples em PDF.
func MensalidadesPDF(titulo string, linhas []Linha) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(titulo, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, titulo, "", 1, "C", false, 0, "")
	pdf.Ln(2)

	larguras := []float64{70, 28, 30, 35, 28, 26, 28}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, coluna := range cabecalho {
		pdf.CellFormat(larguras[i], 8, coluna, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	var total float64
	for _, linha := range linhas {
		celulas := []string{
			linha.Ogmo,
			linha.Referencia,
			fmt.Sprintf("%d", linha.Operadores),
			fmt.Sprintf("%.2f", linha.ValorTotal),
			linha.Vencimento,
			linha.Status,
			linha.Pagamento,
		}
		for i, celula := range celulas {
			align := "L"
			if i >= 2 && i <= 3 {
				align = "R"
			}
			pdf.CellFormat(larguras[i], 7, celula, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
		total += linha.ValorTotal
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(larguras[0]+larguras[1]+larguras[2], 8, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(larguras[3], 8, fmt.Sprintf("%.2f", total), "1", 0, "R", false, 0, "")
	pdf.Ln(-1)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
