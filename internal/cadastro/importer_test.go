package cadastro

import (
	"bytes"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"
)

func planilha(t *testing.T, rows [][]string) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetList()[0]
	for i, row := range rows {
		for j, value := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("CoordinatesToCellName: %v", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				t.Fatalf("SetCellValue: %v", err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return buf.Bytes()
}

func TestParsePlanilhaTPAs(t *testing.T) {
	conteudo := planilha(t, [][]string{
		{"Nome Completo", "CPF", "Matrícula", "E-mail", "Celular"},
		{"João da Silva", "123.456.789-01", "10001", "joao@example.com", "(13) 99999-0001"},
		{"", "", "", "", ""},
		{"Maria Souza", "987.654.321-09", "10002", "maria@example.com", ""},
	})

	linhas, err := ParsePlanilhaTPAs(conteudo)
	if err != nil {
		t.Fatalf("ParsePlanilhaTPAs: %v", err)
	}

	if len(linhas) != 2 {
		t.Fatalf("linhas = %d, quer 2", len(linhas))
	}

	first := linhas[0]
	if first.Linha != 2 {
		t.Errorf("linha = %d, quer 2", first.Linha)
	}
	if first.Nome != "João da Silva" {
		t.Errorf("nome = %q", first.Nome)
	}
	if first.CPF != "123.456.789-01" {
		t.Errorf("cpf = %q", first.CPF)
	}
	if first.Matricula != "10001" {
		t.Errorf("matricula = %q", first.Matricula)
	}
	if first.Email != "joao@example.com" {
		t.Errorf("email = %q", first.Email)
	}

	if linhas[1].Nome != "Maria Souza" {
		t.Errorf("nome = %q", linhas[1].Nome)
	}
}

func TestParsePlanilhaCabecalhoVariado(t *testing.T) {
	conteudo := planilha(t, [][]string{
		{"TRABALHADOR", "Documento", "Registro", "Celular"},
		{"Pedro Santos", "11122233344", "10003", "(13) 98888-0002"},
	})

	linhas, err := ParsePlanilhaTPAs(conteudo)
	if err != nil {
		t.Fatalf("ParsePlanilhaTPAs: %v", err)
	}
	if len(linhas) != 1 {
		t.Fatalf("linhas = %d, quer 1", len(linhas))
	}
	if linhas[0].Matricula != "10003" {
		t.Errorf("matricula = %q", linhas[0].Matricula)
	}
	if linhas[0].Celular != "(13) 98888-0002" {
		t.Errorf("celular = %q", linhas[0].Celular)
	}
}

func TestParsePlanilhaSemColunasObrigatorias(t *testing.T) {
	conteudo := planilha(t, [][]string{
		{"Nome", "CPF"},
		{"x", "y"},
	})

	if _, err := ParsePlanilhaTPAs(conteudo); !errors.Is(err, ErrColunasAusentes) {
		t.Fatalf("err = %v, quer ErrColunasAusentes", err)
	}
}

func TestParsePlanilhaVazia(t *testing.T) {
	conteudo := planilha(t, [][]string{
		{"Nome", "CPF", "Matrícula"},
	})

	if _, err := ParsePlanilhaTPAs(conteudo); !errors.Is(err, ErrPlanilhaVazia) {
		t.Fatalf("err = %v, quer ErrPlanilhaVazia", err)
	}
}

func TestNormalizeCPF(t *testing.T) {
	if got := NormalizeCPF("123.456.789-01"); got != "12345678901" {
		t.Errorf("NormalizeCPF = %q", got)
	}
}
