package model

import (
	"fmt"
	"time"
)

// DocumentType identifies the kind of electronic document
type DocumentType string

const (
	DocumentTypeFactura DocumentType = "FAC"
)

// SRI document type codes used inside the access key
const (
	CodeFactura = "01"
)

// DocumentStatus is the authorization status of an electronic document
type DocumentStatus string

const (
	// StatusAutorizado is terminal: the outbound payload is frozen once reached
	StatusAutorizado    DocumentStatus = "AUTORIZADO"
	StatusEnviado       DocumentStatus = "ENVIADO"
	StatusError         DocumentStatus = "ERROR"
	StatusErrorConexion DocumentStatus = "ERROR_CONEXION"
)

// IsAuthorized reports whether the status is the terminal AUTORIZADO state
func (s DocumentStatus) IsAuthorized() bool {
	return s == StatusAutorizado
}

// DocumentIdentity identifies exactly one legal document.
// At most one ElectronicDocument may exist per identity.
type DocumentIdentity struct {
	CompanyID    int64
	DocumentType DocumentType
	Estab        string // 3 digits
	PtoEmi       string // 3 digits
	Secuencial   string // up to 9 digits
}

// Numero returns the human-readable document number estab-ptoEmi-secuencial
func (id DocumentIdentity) Numero() string {
	return fmt.Sprintf("%s-%s-%s", id.Estab, id.PtoEmi, id.Secuencial)
}

// ElectronicDocument is the persisted record for one document identity
type ElectronicDocument struct {
	ID                  int64
	Identity            DocumentIdentity
	ClaveAcceso         string // 49 digits, empty until minted
	Estado              DocumentStatus
	JSONEnvio           string // submitted payload, frozen once AUTORIZADO
	JSONRespuesta       string // last raw authority response
	SyncedWithAuthority bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Company is the issuing taxpayer registered with the middleware
type Company struct {
	ID                  int64
	CompanyID           int64
	RUC                 string // 13 digits
	RazonSocial         string
	CertificadoNombre   string
	CertificadoPath     string
	CertificadoPassword string
	Logo                string
	SyncedWithAuthority bool
	ResponseAPI         string
	Settings            string // JSON blob, holds email credentials
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// EmailRecord tracks one notification email for an authorized document
type EmailRecord struct {
	ID                   int64
	ElectronicDocumentID int64
	ClaveAcceso          string
	Correo               string
	Settings             string // JSON blob with attachment paths
	Estado               string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// AccessKeyFields holds the fixed-width fields concatenated into the
// 48-digit access key body. NumericCode must be freshly sourced per mint.
type AccessKeyFields struct {
	FechaEmision string // d/m/Y
	CodDoc       string // 2 digits
	RUC          string // 13 digits, zero-padded
	Ambiente     string // 1 digit
	Estab        string // 3 digits
	PtoEmi       string // 3 digits
	Secuencial   string // 9 digits, zero-padded
	NumericCode  string // 8 digits
	TipoEmision  string // 1 digit
}
