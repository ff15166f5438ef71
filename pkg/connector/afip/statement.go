package afip

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
	"golang.org/x/net/html"
)

const (
	statementURL      = "https://servicios2.afip.gob.ar/tramites_con_clave_fiscal/ccam/P02_ctacte.asp"
	statementFragment = "P02_ctacte.asp"

	shortcutContainer = "#contenidoAccesosPrincipales"
)

// calculoSelectors locate the "CALCULO DE DEUDA" button; the legacy page
// is inconsistent about how it renders it.
var calculoSelectors = []string{
	`input[name="CalDeud"]`,
	`input[value="CALCULO DE DEUDA"]`,
	`input[type="button"][value*="CALCULO"]`,
}

// totalDebtPattern matches the statement total as the page renders it:
// comma thousands separators, dot decimal point.
var totalDebtPattern = regexp.MustCompile(`^[0-9]{1,3}(,[0-9]{3})*\.[0-9]{2}$`)

// clickEstadoCuentaJS finds the "Estado de cuenta" tile on the dashboard by
// its visible label and clicks it. Returns false when no tile matched.
const clickEstadoCuentaJS = `() => {
	const container = document.querySelector('#contenidoAccesosPrincipales');
	if (!container) return false;
	for (const link of container.querySelectorAll('a.accesoPrincipal')) {
		if (link.innerText.toLowerCase().includes('estado de cuenta')) {
			link.scrollIntoView({block: 'center'});
			link.click();
			return true;
		}
	}
	return false;
}`

// AccountStatement runs the "Estado de cuenta" flow: open the statement
// service from the dashboard, request a debt calculation for the given
// period, screenshot the result, and parse the total.
//
// periodFrom and periodTo use MM/YYYY, calculationDate uses DD/MM/YYYY.
// Empty values default to the current year up to the current month,
// calculated as of today.
func (c *Connector) AccountStatement(ctx context.Context, periodFrom, periodTo, calculationDate string) (*AccountStatement, error) {
	if c.current == nil {
		return nil, fmt.Errorf("not logged in")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := time.Now()
	if periodFrom == "" {
		periodFrom = fmt.Sprintf("01/%d", now.Year())
	}
	if periodTo == "" {
		periodTo = now.Format("01/2006")
	}
	if calculationDate == "" {
		calculationDate = now.Format("02/01/2006")
	}

	if err := c.navigate(portalURL); err != nil {
		return nil, err
	}
	// Dashboard widgets mount asynchronously.
	time.Sleep(2 * time.Second)

	if err := c.browserSession.WaitForSelector(shortcutContainer, 5000); err != nil {
		return nil, fmt.Errorf("dashboard shortcuts never loaded: %w", err)
	}

	clicked, err := c.browserSession.Evaluate(clickEstadoCuentaJS)
	if err != nil {
		return nil, fmt.Errorf("clicking statement tile: %w", err)
	}
	if ok, _ := clicked.(bool); !ok {
		// Label may have changed; the dollar icon is unique to the tile.
		if err := c.browserSession.Click(shortcutContainer+" i.fa-dollar", 2000); err != nil {
			return nil, fmt.Errorf("statement tile not found on dashboard")
		}
	}

	// The tile opens the legacy service in a new tab.
	time.Sleep(3 * time.Second)
	accountPage, err := c.findStatementPage()
	if err != nil {
		return nil, err
	}
	time.Sleep(3 * time.Second)

	if err := accountPage.Fill(`input[name="perdesde2"]`, periodFrom); err != nil {
		c.logf("period-from field not found: %v", err)
	}
	if err := accountPage.Fill(`input[name="perhasta2"]`, periodTo); err != nil {
		c.logf("period-to field not found: %v", err)
	}
	if err := accountPage.Fill(`input[name="feccalculo"]`, calculationDate); err != nil {
		c.logf("calculation-date field not found: %v", err)
	}

	if err := clickFirst(accountPage, calculoSelectors); err != nil {
		return nil, fmt.Errorf("debt calculation button not found: %w", err)
	}

	// The calculation renders server-side and repaints the page.
	time.Sleep(5 * time.Second)

	screenshotPath, err := c.screenshotStatement(accountPage)
	if err != nil {
		c.logf("statement screenshot failed: %v", err)
	}

	content, err := accountPage.Content()
	if err != nil {
		return nil, fmt.Errorf("reading statement page: %w", err)
	}

	totalDebt, found := parseTotalDebt(content)
	if !found {
		c.logf("total debt figure not found in statement")
	}

	return &AccountStatement{
		TotalDebt:       totalDebt,
		ScreenshotPath:  screenshotPath,
		PeriodFrom:      periodFrom,
		PeriodTo:        periodTo,
		CalculationDate: calculationDate,
		RetrievedAt:     time.Now(),
	}, nil
}

// findStatementPage locates the tab the statement service opened in, or
// opens the service directly when no tab showed up.
func (c *Connector) findStatementPage() (playwright.Page, error) {
	for _, page := range c.browserSession.Pages() {
		if strings.Contains(page.URL(), statementFragment) {
			return page, nil
		}
	}

	c.logf("statement tab not detected, opening service directly")
	if !c.guard.Allowed(statementURL) {
		return nil, fmt.Errorf("navigation to %q blocked by allowlist", statementURL)
	}
	page, err := c.browserSession.Context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("opening statement page: %w", err)
	}
	if _, err := page.Goto(statementURL); err != nil {
		return nil, fmt.Errorf("loading statement service: %w", err)
	}
	return page, nil
}

func clickFirst(page playwright.Page, selectors []string) error {
	var lastErr error
	for _, selector := range selectors {
		err := page.Click(selector, playwright.PageClickOptions{
			Timeout: playwright.Float(5000),
		})
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return lastErr
}

func (c *Connector) screenshotStatement(page playwright.Page) (string, error) {
	if c.screenshotDir == "" {
		return "", nil
	}
	if err := os.MkdirAll(c.screenshotDir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(c.screenshotDir, fmt.Sprintf(
		"estado_cuenta_%s_%s.png", c.current.CUIT, time.Now().Format("20060102_150405")))
	_, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

// parseTotalDebt finds the "Total Saldo Deudor" cell and pulls the amount
// out of the nested table next to it. The figure sits in a small table
// whose entire text is just the number.
func parseTotalDebt(content string) (float64, bool) {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return 0, false
	}

	for _, cell := range findElements(doc, "td") {
		if !strings.Contains(nodeText(cell), "Total Saldo Deudor") {
			continue
		}
		row := cell.Parent
		if row == nil {
			continue
		}
		for _, table := range findElements(row, "table") {
			text := strings.TrimSpace(nodeText(table))
			if totalDebtPattern.MatchString(text) {
				amount, err := parseAmountEN(text)
				if err != nil {
					continue
				}
				return amount, true
			}
		}
	}
	return 0, false
}
