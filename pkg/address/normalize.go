package address

import "strings"

// Printable ASCII bounds kept by SanitizeString.
const (
	minPrintable = 0x20
	maxPrintable = 0x7E
)

// SanitizeString removes every character whose code point lies outside
// the printable ASCII range [0x20, 0x7E].
func SanitizeString(s string) string {
	clean := true
	for _, r := range s {
		if r < minPrintable || r > maxPrintable {
			clean = false
			break
		}
	}
	if clean {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= minPrintable && r <= maxPrintable {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Sanitize applies SanitizeString to string values.
// Any other value, including nil, is returned as is.
func Sanitize(v any) any {
	if s, ok := v.(string); ok {
		return SanitizeString(s)
	}
	return v
}

// Normalize flattens a raw record and sanitizes every extracted value.
// A nil deposit yields nil deposit fields.
func Normalize(raw Raw) Address {
	deposit := raw.Deposito
	if deposit == nil {
		deposit = &RawDeposit{}
	}

	return Address{
		ID:                 Sanitize(raw.ID),
		Description:        Sanitize(raw.Descricao),
		Barcode:            Sanitize(raw.CodigoBarras),
		DepositDescription: Sanitize(deposit.Descricao),
		DepositID:          Sanitize(deposit.ID),
		Situation:          Sanitize(raw.Situacao),
	}
}

// NormalizeAll normalizes records preserving their order.
func NormalizeAll(raws []Raw) []Address {
	out := make([]Address, 0, len(raws))
	for _, raw := range raws {
		out = append(out, Normalize(raw))
	}
	return out
}
