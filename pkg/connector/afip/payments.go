package afip

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

const (
	paymentsURL           = "https://portalcf.cloud.afip.gob.ar/portal/app/consultaDeuda"
	paymentsTableSelector = `table[id*="deuda"], .tabla-deudas`
)

// PendingPayments scrapes the payment consultation page and returns the
// pending obligations. Rows that fail to parse are logged and skipped so
// one malformed row never hides the rest.
func (c *Connector) PendingPayments(ctx context.Context) ([]Payment, error) {
	if c.current == nil {
		return nil, fmt.Errorf("not logged in")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := c.navigate(paymentsURL); err != nil {
		return nil, err
	}
	if err := c.browserSession.WaitForSelector(paymentsTableSelector, 15000); err != nil {
		return nil, fmt.Errorf("payments table never loaded: %w", err)
	}

	content, err := c.browserSession.Content()
	if err != nil {
		return nil, fmt.Errorf("reading payments page: %w", err)
	}

	payments := c.parsePayments(content)
	c.logf("retrieved %d pending payments", len(payments))
	return payments, nil
}

// parsePayments extracts payment rows from the page HTML. A row needs at
// least five cells (id, description, amount, due date, status); tax type
// and period follow when present.
func (c *Connector) parsePayments(content string) []Payment {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		c.logf("parsing payments page: %v", err)
		return nil
	}

	var payments []Payment
	for _, table := range findPaymentTables(doc) {
		rows := findElements(table, "tr")
		for i, row := range rows {
			if i == 0 {
				continue // header
			}
			cells := cellTexts(row)
			if len(cells) < 5 {
				continue
			}

			payment, err := buildPayment(cells)
			if err != nil {
				c.logf("skipping unparseable payment row %q: %v", cells, err)
				continue
			}
			payments = append(payments, payment)
		}
	}
	return payments
}

func buildPayment(cells []string) (Payment, error) {
	amount, err := parseAmountARS(cells[2])
	if err != nil {
		return Payment{}, err
	}
	dueDate, err := parseDate(cells[3])
	if err != nil {
		return Payment{}, err
	}

	payment := Payment{
		ID:          cells[0],
		Description: cells[1],
		Amount:      amount,
		DueDate:     dueDate,
		Status:      parsePaymentStatus(cells[4]),
	}
	if len(cells) > 5 {
		payment.TaxType = cells[5]
	}
	if len(cells) > 6 {
		payment.Period = cells[6]
	}
	return payment, nil
}

// findPaymentTables locates debt tables the same way the page selector
// does: an id containing "deuda" or the tabla-deudas class. The id match is
// case-insensitive so camelCase ids like "tablaDeuda" are caught too.
func findPaymentTables(doc *html.Node) []*html.Node {
	var tables []*html.Node
	walk(doc, func(n *html.Node) {
		if n.Type != html.ElementNode || n.Data != "table" {
			return
		}
		if strings.Contains(strings.ToLower(attrValue(n, "id")), "deuda") ||
			hasClass(n, "tabla-deudas") {
			tables = append(tables, n)
		}
	})
	return tables
}

func walk(n *html.Node, visit func(*html.Node)) {
	visit(n)
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		walk(child, visit)
	}
}

func findElements(root *html.Node, tag string) []*html.Node {
	var found []*html.Node
	walk(root, func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag {
			found = append(found, n)
		}
	})
	return found
}

func cellTexts(row *html.Node) []string {
	cells := findElements(row, "td")
	texts := make([]string, 0, len(cells))
	for _, cell := range cells {
		texts = append(texts, strings.TrimSpace(nodeText(cell)))
	}
	return texts
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(child *html.Node) {
		if child.Type == html.TextNode {
			sb.WriteString(child.Data)
		}
	})
	return sb.String()
}

func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attrValue(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}
