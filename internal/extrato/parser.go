package extrato

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gestaoportuaria/backoffice/internal/ogmo"
)

// Item é um lançamento extraído do extrato bancário.
type Item struct {
	Data      time.Time `json:"data"`
	Descricao string    `json:"descricao"`
	CNPJ      string    `json:"cnpj"` // sempre no formato 00.000.000/0000-00
	Valor     float64   `json:"valor"`
}

var (
	stmttrnRe  = regexp.MustCompile(`(?s)<STMTTRN>(.*?)</STMTTRN>`)
	dtPostedRe = regexp.MustCompile(`(?i)<DTPOSTED>(\d{8})`)
	trnAmtRe   = regexp.MustCompile(`(?i)<TRNAMT>([-\d.]+)`)
	// No OFX orientado a linhas o valor do <MEMO> termina na quebra de
	// linha, sem tag de fechamento.
	memoRe = regexp.MustCompile(`(?i)<MEMO>([^<\r\n]*)`)
	cnpjRe = regexp.MustCompile(`\d{2}\.\d{3}\.\d{3}/\d{4}-\d{2}|\d{14}`)
)

// Parse interpreta o conteúdo do extrato. O formato é detectado pela extensão
// do arquivo; linhas/blocos não interpretáveis são descartados silenciosamente.
func Parse(content, filename string) []Item {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".csv"):
		return parseCSV(content)
	case strings.HasSuffix(lower, ".ofx"):
		return parseOFX(content)
	}
	return nil
}

// parseCSV assume colunas fixas Data;Descrição;CNPJ;Valor com cabeçalho na
// primeira linha, data DD/MM/YYYY e decimal com vírgula.
func parseCSV(content string) []Item {
	var items []Item

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if i == 0 {
			continue // cabeçalho
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.Split(line, ";")
		if len(parts) < 4 {
			continue
		}

		digits := onlyDigits(parts[2])
		if len(digits) != 14 {
			continue
		}

		valor, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(parts[3]), ",", "."), 64)
		if err != nil {
			continue
		}

		data, err := time.Parse("02/01/2006", strings.TrimSpace(parts[0]))
		if err != nil {
			continue
		}

		items = append(items, Item{
			Data:      data,
			Descricao: strings.TrimSpace(parts[1]),
			CNPJ:      ogmo.FormatCNPJ(digits),
			Valor:     math.Abs(valor),
		})
	}

	return items
}

// parseOFX extrai blocos <STMTTRN> e recupera o CNPJ do texto livre do <MEMO>.
func parseOFX(content string) []Item {
	var items []Item

	for _, match := range stmttrnRe.FindAllStringSubmatch(content, -1) {
		trx := match[1]

		dateMatch := dtPostedRe.FindStringSubmatch(trx)
		amountMatch := trnAmtRe.FindStringSubmatch(trx)
		memoMatch := memoRe.FindStringSubmatch(trx)
		if dateMatch == nil || amountMatch == nil || memoMatch == nil {
			continue
		}

		memo := strings.TrimSpace(memoMatch[1])
		cnpj := cnpjRe.FindString(memo)
		if cnpj == "" {
			continue
		}

		valor, err := strconv.ParseFloat(amountMatch[1], 64)
		if err != nil {
			continue
		}

		data, err := time.Parse("20060102", dateMatch[1])
		if err != nil {
			continue
		}

		items = append(items, Item{
			Data:      data,
			Descricao: memo,
			CNPJ:      ogmo.FormatCNPJ(onlyDigits(cnpj)),
			Valor:     math.Abs(valor),
		})
	}

	return items
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
