package afip

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// parseAmountARS parses an amount in Argentine display format, where the
// thousands separator is a dot and the decimal separator is a comma:
// "$10.500,50" -> 10500.50.
func parseAmountARS(raw string) (float64, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.ReplaceAll(cleaned, ".", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")

	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	return amount, nil
}

// parseAmountEN parses an amount with comma thousands separators and a dot
// decimal point, the format the account statement page renders its totals
// in: "236,701.14" -> 236701.14.
func parseAmountEN(raw string) (float64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")

	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	return amount, nil
}

// parseDate parses a portal date in DD/MM/YYYY format.
func parseDate(raw string) (time.Time, error) {
	t, err := time.Parse("02/01/2006", strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", raw, err)
	}
	return t, nil
}

// parsePaymentStatus maps the portal's Spanish status words onto
// PaymentStatus values. Unknown statuses default to pending.
func parsePaymentStatus(raw string) PaymentStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pendiente":
		return PaymentPending
	case "vencido":
		return PaymentOverdue
	case "pagado":
		return PaymentPaid
	case "parcial":
		return PaymentPartial
	default:
		return PaymentPending
	}
}

// normalizeCUIT strips hyphens from a CUIT; the portal's form only accepts
// the bare 11 digits.
func normalizeCUIT(cuit string) string {
	return strings.ReplaceAll(cuit, "-", "")
}
