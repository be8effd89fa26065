package cadastro

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrPlanilhaVazia indica planilha sem linhas de dados.
	ErrPlanilhaVazia = errors.New("cadastro: planilha sem dados")
	// ErrColunasAusentes indica cabeçalho sem as colunas nome, cpf e matricula.
	ErrColunasAusentes = errors.New("cadastro: planilha precisa das colunas nome, cpf e matricula")
)

// LinhaTPA é uma linha de trabalhador avulso extraída da planilha.
type LinhaTPA struct {
	Linha     int
	Nome      string
	CPF       string
	Matricula string
	Email     string
	Celular   string
}

// ErroImportacao registra a falha de uma linha específica.
type ErroImportacao struct {
	Linha  int    `json:"linha"`
	Motivo string `json:"motivo"`
}

// ResultadoImportacao resume uma importação de planilha.
type ResultadoImportacao struct {
	Total      int              `json:"total"`
	Importados int              `json:"importados"`
	Duplicados int              `json:"duplicados"`
	Erros      []ErroImportacao `json:"erros,omitempty"`
}

// ParsePlanilhaTPAs lê a primeira aba de um arquivo XLSX e extrai as linhas
// de trabalhadores avulsos. As colunas são localizadas pelo nome no
// cabeçalho, tolerando variações de caixa e acentuação comuns.
func ParsePlanilhaTPAs(conteudo []byte) ([]LinhaTPA, error) {
	f, err := excelize.OpenReader(bytes.NewReader(conteudo))
	if err != nil {
		return nil, fmt.Errorf("cadastro: abrir planilha: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrPlanilhaVazia
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("cadastro: ler linhas: %w", err)
	}
	if len(rows) < 2 {
		return nil, ErrPlanilhaVazia
	}

	cols := mapearColunas(rows[0])
	if cols.nome < 0 || cols.cpf < 0 || cols.matricula < 0 {
		return nil, ErrColunasAusentes
	}

	var linhas []LinhaTPA
	for i, row := range rows[1:] {
		linha := LinhaTPA{
			Linha:     i + 2, // 1-based, pulando cabeçalho
			Nome:      cell(row, cols.nome),
			CPF:       cell(row, cols.cpf),
			Matricula: cell(row, cols.matricula),
			Email:     cell(row, cols.email),
			Celular:   cell(row, cols.celular),
		}
		if linha.Nome == "" && linha.CPF == "" {
			continue
		}
		linhas = append(linhas, linha)
	}

	if len(linhas) == 0 {
		return nil, ErrPlanilhaVazia
	}
	return linhas, nil
}

type colunas struct {
	nome, cpf, matricula, email, celular int
}

func mapearColunas(header []string) colunas {
	cols := colunas{nome: -1, cpf: -1, matricula: -1, email: -1, celular: -1}
	for i, h := range header {
		switch normalizarCabecalho(h) {
		case "nome", "nome completo", "trabalhador", "nome do trabalhador":
			if cols.nome < 0 {
				cols.nome = i
			}
		case "cpf", "documento", "cpf do trabalhador":
			if cols.cpf < 0 {
				cols.cpf = i
			}
		case "matricula", "registro", "numero de matricula":
			if cols.matricula < 0 {
				cols.matricula = i
			}
		case "email", "e-mail", "e mail":
			if cols.email < 0 {
				cols.email = i
			}
		case "celular", "telefone", "fone", "contato":
			if cols.celular < 0 {
				cols.celular = i
			}
		}
	}
	return cols
}

func normalizarCabecalho(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	replacer := strings.NewReplacer("á", "a", "ã", "a", "â", "a", "é", "e", "ê", "e", "í", "i", "ó", "o", "õ", "o", "ú", "u", "ç", "c")
	return replacer.Replace(h)
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
