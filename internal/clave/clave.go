// Package clave generates and validates SRI access keys (clave de acceso).
//
// The access key is a 49-digit identifier: a 48-digit body built from
// fixed-width invoice fields plus a trailing modulo-11 check digit.
package clave

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/dfalconiUTC/api-midd-facturacion/internal/model"
)

// KeyLength is the total length of an access key including check digit
const KeyLength = 49

const dateLayout = "02/01/2006"

// Mint builds the 49-digit access key from the given fields.
// The numeric code is taken from fields as-is; callers mint a fresh one
// per submission (see NumericCode).
func Mint(fields model.AccessKeyFields) (string, error) {
	fecha, err := time.Parse(dateLayout, fields.FechaEmision)
	if err != nil {
		return "", model.NewFieldError("fechaEmision", fields.FechaEmision, "expected d/m/Y date")
	}

	parts := []struct {
		name  string
		value string
		width int
	}{
		{"codDoc", fields.CodDoc, 2},
		{"ruc", fields.RUC, 13},
		{"ambiente", fields.Ambiente, 1},
		{"estab", fields.Estab, 3},
		{"ptoEmi", fields.PtoEmi, 3},
		{"secuencial", fields.Secuencial, 9},
		{"codigoNumerico", fields.NumericCode, 8},
		{"tipoEmision", fields.TipoEmision, 1},
	}

	var body strings.Builder
	body.WriteString(fecha.Format("02012006"))

	for _, p := range parts {
		padded, err := padDigits(p.value, p.width)
		if err != nil {
			return "", model.NewFieldError(p.name, p.value, err.Error())
		}
		body.WriteString(padded)
	}

	key := body.String()
	return key + string(rune('0'+checkDigit(key))), nil
}

// Validate recomputes the check digit over the first 48 characters and
// compares it against the trailing digit. Used to detect corruption of
// a stored key.
func Validate(key string) bool {
	if len(key) != KeyLength || !allDigits(key) {
		return false
	}
	return checkDigit(key[:48]) == int(key[48]-'0')
}

// NumericCode returns a fresh 8-digit numeric filler. Uniqueness is
// best-effort: a new code is drawn on every mint so identical invoices
// re-minted never share a key.
func NumericCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(100000000))
	if err != nil {
		// crypto/rand failing means the platform is broken; fall back
		// to a time-derived code rather than aborting the mint
		return fmt.Sprintf("%08d", time.Now().UnixNano()%100000000)
	}
	return fmt.Sprintf("%08d", n.Int64())
}

// checkDigit computes the modulo-11 check digit over a digit string,
// weighting right-to-left with multipliers cycling 2..7.
func checkDigit(digits string) int {
	multiplier := 2
	sum := 0

	for i := len(digits) - 1; i >= 0; i-- {
		sum += int(digits[i]-'0') * multiplier
		if multiplier < 7 {
			multiplier++
		} else {
			multiplier = 2
		}
	}

	switch mod := 11 - (sum % 11); mod {
	case 11:
		return 0
	case 10:
		return 1
	default:
		return mod
	}
}

// padDigits left-pads a numeric string with zeros to the given width.
// Values longer than the width or containing non-digits are rejected.
func padDigits(value string, width int) (string, error) {
	if value == "" {
		return "", fmt.Errorf("value is empty")
	}
	if !allDigits(value) {
		return "", fmt.Errorf("value must be numeric")
	}
	if len(value) > width {
		return "", fmt.Errorf("value exceeds %d digits", width)
	}
	return strings.Repeat("0", width-len(value)) + value, nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}
