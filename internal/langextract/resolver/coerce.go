package resolver

import (
	"regexp"
	"strconv"
	"strings"

	"langextract/internal/langextract/types"
)

// attrCoercedKind labels which coercion matched, stored on the extraction's
// attribute bag so callers can tell what "coerced_value" means.
const (
	attrCoercedValue = "coerced_value"
	attrCoercedKind  = "coerced_kind"
)

var (
	percentRe = regexp.MustCompile(`^[+-]?\d+(\.\d+)?\s*%$`)
	emailRe   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe   = regexp.MustCompile(`^\+?[\d\s().-]{7,}\d$`)
	urlRe     = regexp.MustCompile(`^(https?|ftp)://[^\s]+$`)
	dateRe    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$|^\d{1,2}/\d{1,2}/\d{2,4}$`)
	currRe    = regexp.MustCompile(`^\$\s?[\d,]+(\.\d+)?\s*(million|billion|k|m|b)?$`)
	intRe     = regexp.MustCompile(`^[+-]?\d+$`)
	floatRe   = regexp.MustCompile(`^[+-]?\d+\.\d+$`)
)

var booleanWords = map[string]bool{
	"true": true, "false": true, "yes": true, "no": true,
	"1": true, "0": true, "on": true, "off": true,
	"enabled": true, "disabled": true,
}

var truthyWords = map[string]bool{
	"true": true, "yes": true, "1": true, "on": true, "enabled": true,
}

// coerce attempts, in order, percentage -> email -> phone -> url -> date ->
// currency -> boolean -> integer -> float. A date-shaped string is not taken
// as a phone number even though the phone pattern would accept it. The
// first match wins; the
// original Text is never modified, only Attributes gains a parallel
// "corrected" value (§4.D).
func coerce(e *types.Extraction) {
	text := strings.TrimSpace(e.Text)
	lower := strings.ToLower(text)

	switch {
	case percentRe.MatchString(text):
		setCoerced(e, "percentage", strings.TrimSuffix(strings.TrimSpace(strings.TrimSuffix(text, "%")), " "))
	case emailRe.MatchString(text):
		setCoerced(e, "email", lower)
	case phoneRe.MatchString(text) && !dateRe.MatchString(text):
		setCoerced(e, "phone", normalizePhone(text))
	case urlRe.MatchString(text):
		setCoerced(e, "url", text)
	case dateRe.MatchString(text):
		setCoerced(e, "date", text)
	case currRe.MatchString(lower):
		setCoerced(e, "currency", normalizeCurrency(lower))
	case booleanWords[lower]:
		setCoerced(e, "boolean", truthyWords[lower])
	case intRe.MatchString(text):
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			setCoerced(e, "integer", n)
		}
	case floatRe.MatchString(text):
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			setCoerced(e, "float", f)
		}
	}
}

func setCoerced(e *types.Extraction, kind string, value any) {
	if e.Attributes == nil {
		e.Attributes = map[string]any{}
	}
	e.Attributes[attrCoercedKind] = kind
	e.Attributes[attrCoercedValue] = value
}

func normalizePhone(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r == '+' || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func normalizeCurrency(lower string) float64 {
	body := strings.TrimPrefix(lower, "$")
	body = strings.TrimSpace(body)
	multiplier := 1.0
	for suffix, m := range map[string]float64{"billion": 1e9, "million": 1e6, "b": 1e9, "m": 1e6, "k": 1e3} {
		if strings.HasSuffix(body, suffix) {
			multiplier = m
			body = strings.TrimSpace(strings.TrimSuffix(body, suffix))
			break
		}
	}
	body = strings.ReplaceAll(body, ",", "")
	f, err := strconv.ParseFloat(body, 64)
	if err != nil {
		return 0
	}
	return f * multiplier
}
