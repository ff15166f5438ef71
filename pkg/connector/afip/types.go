// Package afip automates authentication and data retrieval against AFIP
// (Administración Federal de Ingresos Públicos, Argentina's federal tax
// authority) through browser automation. It drives the portal's login form,
// resolves captcha challenges through a solver chain, persists sessions to
// reduce captcha encounters, and scrapes payment and account statement data.
package afip

import (
	"time"

	"github.com/fiscal-ar/afip-connector/pkg/connector/afip/session"
)

// LoginStatus is the result of a login attempt.
type LoginStatus string

const (
	// StatusSuccess means the login completed and a session is active.
	StatusSuccess LoginStatus = "success"

	// StatusFailed means the login failed, typically bad credentials.
	StatusFailed LoginStatus = "failed"

	// StatusCaptchaRequired means a captcha was presented and could not
	// be resolved automatically; manual intervention is needed.
	StatusCaptchaRequired LoginStatus = "captcha_required"

	// StatusCertificateRequired means the account requires digital
	// certificate authentication, which password login cannot satisfy.
	StatusCertificateRequired LoginStatus = "certificate_required"

	// StatusSessionExpired means a previously valid session has expired.
	StatusSessionExpired LoginStatus = "session_expired"
)

// PaymentStatus is the state of a tax payment obligation.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentOverdue PaymentStatus = "overdue"
	PaymentPartial PaymentStatus = "partial"
)

// Credentials holds AFIP login credentials. CUIT is the 11-digit taxpayer
// identification number; hyphens are tolerated and stripped before use.
type Credentials struct {
	CUIT     string
	Password string
}

// Session is an authenticated AFIP session. The type lives in the session
// subpackage alongside its persistence; it is aliased here because it is
// part of this package's API surface.
type Session = session.Session

// Payment is a single tax payment obligation scraped from the portal.
type Payment struct {
	ID          string        `json:"id"`
	Description string        `json:"description"`
	Amount      float64       `json:"amount"`
	DueDate     time.Time     `json:"due_date"`
	Status      PaymentStatus `json:"status"`
	TaxType     string        `json:"tax_type"`
	Period      string        `json:"period"`
}

// AccountStatement is the "Estado de cuenta" result: the computed total debt
// plus a full-page screenshot of the statement.
type AccountStatement struct {
	TotalDebt       float64   `json:"total_debt"`
	ScreenshotPath  string    `json:"screenshot_path"`
	PeriodFrom      string    `json:"period_from"`
	PeriodTo        string    `json:"period_to"`
	CalculationDate string    `json:"calculation_date"`
	RetrievedAt     time.Time `json:"retrieved_at"`
}
