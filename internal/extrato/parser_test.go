package extrato

import (
	"math"
	"testing"
	"time"
)

func TestParseCSV(t *testing.T) {
	content := "Data;Descrição;CNPJ;Valor\n" +
		"05/01/2025;Pagamento Mensalidade;12.345.678/0001-90;1500,00\n" +
		"linha invalida\n" +
		"06/01/2025;Sem CNPJ;abc;100,00\n" +
		"07/01/2025;Debito;98.765.432/0001-10;-250,50\n"

	items := Parse(content, "extrato-janeiro.csv")
	if len(items) != 2 {
		t.Fatalf("items = %d, quer 2", len(items))
	}

	first := items[0]
	if got := first.Data.Format("2006-01-02"); got != "2025-01-05" {
		t.Errorf("data = %s, quer 2025-01-05", got)
	}
	if first.Descricao != "Pagamento Mensalidade" {
		t.Errorf("descricao = %q", first.Descricao)
	}
	if first.CNPJ != "12.345.678/0001-90" {
		t.Errorf("cnpj = %q", first.CNPJ)
	}
	if first.Valor != 1500.00 {
		t.Errorf("valor = %v, quer 1500.00", first.Valor)
	}

	// valores negativos entram em módulo
	if items[1].Valor != 250.50 {
		t.Errorf("valor = %v, quer 250.50", items[1].Valor)
	}
}

func TestParseCSVHeaderOnly(t *testing.T) {
	if items := Parse("Data;Descrição;CNPJ;Valor\n", "vazio.csv"); len(items) != 0 {
		t.Fatalf("items = %d, quer 0", len(items))
	}
}

func TestParseOFX(t *testing.T) {
	content := `OFXHEADER:100
<OFX><BANKMSGSRSV1><STMTTRNRS><STMTRS><BANKTRANLIST>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20250105
<TRNAMT>-1500.00
<MEMO>Ref 12345678000190
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20250110
<TRNAMT>300.00
<MEMO>Pgto 98.765.432/0001-10 mensalidade
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20250111
<TRNAMT>10.00
<MEMO>Tarifa sem documento
</STMTTRN>
</BANKTRANLIST></STMTRS></STMTTRNRS></BANKMSGSRSV1></OFX>`

	items := Parse(content, "extrato.ofx")
	if len(items) != 2 {
		t.Fatalf("items = %d, quer 2", len(items))
	}

	first := items[0]
	if !first.Data.Equal(time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("data = %v", first.Data)
	}
	if first.CNPJ != "12.345.678/0001-90" {
		t.Errorf("cnpj = %q, quer formato pontuado", first.CNPJ)
	}
	if math.Abs(first.Valor-1500.00) > 1e-9 {
		t.Errorf("valor = %v, quer 1500.00", first.Valor)
	}

	if items[1].CNPJ != "98.765.432/0001-10" {
		t.Errorf("cnpj = %q", items[1].CNPJ)
	}
}

func TestParseOFXMemoComTagDeFechamento(t *testing.T) {
	content := `<OFX><BANKTRANLIST>
<STMTTRN><DTPOSTED>20250105<TRNAMT>-1500.00<MEMO>Ref 12345678000190</MEMO></STMTTRN>
</BANKTRANLIST></OFX>`

	items := Parse(content, "extrato.ofx")
	if len(items) != 1 {
		t.Fatalf("items = %d, quer 1", len(items))
	}
	if items[0].Descricao != "Ref 12345678000190" {
		t.Errorf("descricao = %q", items[0].Descricao)
	}
	if items[0].CNPJ != "12.345.678/0001-90" {
		t.Errorf("cnpj = %q", items[0].CNPJ)
	}
}

func TestParseExtensaoDesconhecida(t *testing.T) {
	if items := Parse("qualquer coisa", "extrato.pdf"); items != nil {
		t.Fatalf("items = %v, quer nil", items)
	}
}
