// Package facturalib provides a public API for working with Ecuadorian
// SRI electronic documents.
//
// It exposes the access key codec and the RIDE parser/renderer for
// programs that embed the middleware's document handling without
// running the HTTP API.
//
// Example usage:
//
//	key, err := facturalib.MintClave(facturalib.AccessKeyFields{
//	    FechaEmision: "18/07/2026",
//	    CodDoc:       facturalib.CodeFactura,
//	    RUC:          "1790012345001",
//	    Ambiente:     "1",
//	    Estab:        "001",
//	    PtoEmi:       "001",
//	    Secuencial:   "123",
//	    NumericCode:  facturalib.NumericCode(),
//	    TipoEmision:  "1",
//	})
package facturalib

import (
	"github.com/dfalconiUTC/api-midd-facturacion/internal/clave"
	"github.com/dfalconiUTC/api-midd-facturacion/internal/model"
	"github.com/dfalconiUTC/api-midd-facturacion/internal/ride"
)

// Re-export core types for public API
type (
	AccessKeyFields   = model.AccessKeyFields
	DocumentIdentity  = model.DocumentIdentity
	DocumentStatus    = model.DocumentStatus
	RideDocument      = model.RideDocument
	AuthorizationInfo = model.AuthorizationInfo

	Document       = ride.Document
	Section        = ride.Section
	BarcodeEncoder = ride.BarcodeEncoder
)

// Re-export document statuses
const (
	StatusAutorizado    = model.StatusAutorizado
	StatusEnviado       = model.StatusEnviado
	StatusError         = model.StatusError
	StatusErrorConexion = model.StatusErrorConexion
)

// Re-export document type codes
const (
	CodeFactura = model.CodeFactura
)

// Re-export error types
type (
	FieldError        = model.FieldError
	EnvelopeError     = model.EnvelopeError
	ComprobanteError  = model.ComprobanteError
	IncompleteError   = model.IncompleteError
	KeyIntegrityError = model.KeyIntegrityError
)

// MintClave builds a 49-digit clave de acceso from its fields
func MintClave(fields AccessKeyFields) (string, error) {
	return clave.Mint(fields)
}

// ValidateClave reports whether a key is 49 digits with a correct
// check digit
func ValidateClave(key string) bool {
	return clave.Validate(key)
}

// NumericCode returns a fresh 8-digit numeric filler for minting
func NumericCode() string {
	return clave.NumericCode()
}

// ParseAuthorization decodes an authorization envelope into the flat
// RIDE field set
func ParseAuthorization(raw string) (*RideDocument, error) {
	return ride.ParseAuthorization(raw)
}

// RenderRide assembles the printable representation of a parsed
// document
func RenderRide(doc *RideDocument, enc BarcodeEncoder) (*Document, error) {
	return ride.Render(doc, enc)
}
