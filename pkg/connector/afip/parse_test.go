package afip

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmountARS(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    float64
		wantErr bool
	}{
		{name: "currency with thousands", input: "$10.500,50", want: 10500.50},
		{name: "no symbol", input: "1.234,56", want: 1234.56},
		{name: "no thousands", input: "500,00", want: 500},
		{name: "whitespace", input: "  $ 99,10 ", want: 99.10},
		{name: "garbage", input: "n/a", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAmountARS(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}
}

func TestParseAmountEN(t *testing.T) {
	got, err := parseAmountEN("236,701.14")
	require.NoError(t, err)
	assert.InDelta(t, 236701.14, got, 0.001)

	_, err = parseAmountEN("not a number")
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	got, err := parseDate("15/03/2026")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC), got)

	_, err = parseDate("2026-03-15")
	assert.Error(t, err)
}

func TestParsePaymentStatus(t *testing.T) {
	assert.Equal(t, PaymentPending, parsePaymentStatus("Pendiente"))
	assert.Equal(t, PaymentOverdue, parsePaymentStatus("VENCIDO"))
	assert.Equal(t, PaymentPaid, parsePaymentStatus("pagado"))
	assert.Equal(t, PaymentPartial, parsePaymentStatus(" parcial "))

	// Unknown statuses fall back to pending.
	assert.Equal(t, PaymentPending, parsePaymentStatus("en proceso"))
}

func TestNormalizeCUIT(t *testing.T) {
	assert.Equal(t, "20123456789", normalizeCUIT("20-12345678-9"))
	assert.Equal(t, "20123456789", normalizeCUIT("20123456789"))
}

func TestParsePayments(t *testing.T) {
	const page = `<html><body>
		<table id="tablaDeuda">
			<tr><th>ID</th><th>Concepto</th><th>Importe</th><th>Vencimiento</th><th>Estado</th><th>Impuesto</th><th>Período</th></tr>
			<tr>
				<td>001</td><td>IVA</td><td>$10.500,50</td><td>15/07/2026</td>
				<td>Pendiente</td><td>IVA</td><td>06/2026</td>
			</tr>
			<tr>
				<td>002</td><td>Ganancias</td><td>$2.300,00</td><td>01/06/2026</td>
				<td>Vencido</td><td>Ganancias</td><td>05/2026</td>
			</tr>
			<tr>
				<td>003</td><td>Monotributo</td><td>no disponible</td><td>15/07/2026</td>
				<td>Pendiente</td>
			</tr>
		</table>
	</body></html>`

	c := &Connector{}
	payments := c.parsePayments(page)

	// The row with the unparseable amount is skipped, the rest survive.
	require.Len(t, payments, 2)

	assert.Equal(t, "001", payments[0].ID)
	assert.Equal(t, "IVA", payments[0].Description)
	assert.InDelta(t, 10500.50, payments[0].Amount, 0.001)
	assert.Equal(t, PaymentPending, payments[0].Status)
	assert.Equal(t, "06/2026", payments[0].Period)

	assert.Equal(t, "002", payments[1].ID)
	assert.Equal(t, PaymentOverdue, payments[1].Status)
}

func TestParsePayments_ClassSelector(t *testing.T) {
	const page = `<html><body>
		<table class="tabla-deudas">
			<tr><th>h</th></tr>
			<tr><td>9</td><td>Aportes</td><td>100,00</td><td>01/01/2026</td><td>pagado</td></tr>
		</table>
	</body></html>`

	c := &Connector{}
	payments := c.parsePayments(page)

	require.Len(t, payments, 1)
	assert.Equal(t, PaymentPaid, payments[0].Status)
	assert.Empty(t, payments[0].TaxType)
}

func TestParsePayments_TableIDMatchIsCaseInsensitive(t *testing.T) {
	const row = `<tr><th>h</th></tr>
		<tr><td>1</td><td>IVA</td><td>100,00</td><td>01/01/2026</td><td>pendiente</td></tr>`

	c := &Connector{}
	for _, id := range []string{"tabladeuda", "tablaDeuda", "tablaDEUDA"} {
		page := `<html><body><table id="` + id + `">` + row + `</table></body></html>`
		assert.Len(t, c.parsePayments(page), 1, id)
	}
}

func TestParsePayments_NoTables(t *testing.T) {
	c := &Connector{}
	assert.Empty(t, c.parsePayments("<html><body><p>sin deudas</p></body></html>"))
}

func TestParsePayments_ShortRowsSkipped(t *testing.T) {
	const page = `<html><body>
		<table id="deuda">
			<tr><th>h</th></tr>
			<tr><td>solo</td><td>cuatro</td><td>celdas</td><td>aca</td></tr>
		</table>
	</body></html>`

	c := &Connector{}
	assert.Empty(t, c.parsePayments(page))
}

func TestParseTotalDebt(t *testing.T) {
	const page = `<html><body>
		<table>
			<tr>
				<td>Total Saldo Deudor</td>
				<td><table><tr><td>236,701.14</td></tr></table></td>
			</tr>
		</table>
	</body></html>`

	amount, found := parseTotalDebt(page)
	require.True(t, found)
	assert.InDelta(t, 236701.14, amount, 0.001)
}

func TestParseTotalDebt_NotFound(t *testing.T) {
	_, found := parseTotalDebt("<html><body><td>Saldo</td></body></html>")
	assert.False(t, found)
}

func TestParseTotalDebt_IgnoresNonNumericTables(t *testing.T) {
	const page = `<html><body>
		<table>
			<tr>
				<td>Total Saldo Deudor</td>
				<td><table><tr><td>ver detalle</td></tr></table></td>
				<td><table><tr><td>1,500.00</td></tr></table></td>
			</tr>
		</table>
	</body></html>`

	amount, found := parseTotalDebt(page)
	require.True(t, found)
	assert.InDelta(t, 1500.00, amount, 0.001)
}
