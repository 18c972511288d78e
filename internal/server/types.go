package server

import (
	"github.com/dfalconiUTC/api-midd-facturacion/internal/model"
	"github.com/dfalconiUTC/api-midd-facturacion/internal/ride"
)

// CompanyRequest registers or updates an issuing company
type CompanyRequest struct {
	CompanyID           int64  `json:"company_id" binding:"required"`
	RUC                 string `json:"ruc" binding:"required"`
	RazonSocial         string `json:"razon_social"`
	CertificadoNombre   string `json:"certificado_nombre"`
	CertificadoBase64   string `json:"certificado_base64"`
	CertificadoPassword string `json:"certificado_password"`
	LogoBase64          string `json:"logo_base64"`
	Settings            string `json:"settings"`
}

// CompanyResponse is the result of a company registration
type CompanyResponse struct {
	ID          int64  `json:"id"`
	CompanyID   int64  `json:"company_id"`
	RUC         string `json:"ruc"`
	RazonSocial string `json:"razon_social"`
	Synced      bool   `json:"sync_api"`
	ResponseAPI string `json:"response_api,omitempty"`
}

// EnvioRequest submits a document for authorization
type EnvioRequest struct {
	RUC          string                 `json:"ruc" binding:"required"`
	Ambiente     string                 `json:"ambiente" binding:"required"`
	FechaEmision string                 `json:"fecha_emision" binding:"required"`
	TipoEmision  string                 `json:"tipo_emision"`
	Estab        string                 `json:"estab" binding:"required"`
	PtoEmi       string                 `json:"pto_emi" binding:"required"`
	Secuencial   string                 `json:"secuencial" binding:"required"`
	Factura      map[string]interface{} `json:"factura" binding:"required"`
}

// DocumentResponse summarizes the persisted document state
type DocumentResponse struct {
	ID          int64                `json:"id"`
	Numero      string               `json:"numero"`
	ClaveAcceso string               `json:"clave_acceso"`
	Estado      model.DocumentStatus `json:"estado"`
	Synced      bool                 `json:"sync_api"`
}

// RideRequest asks for the printable representation of a document
type RideRequest struct {
	ClaveAcceso string `json:"clave_acceso" binding:"required"`
}

// RideResponse carries the structural RIDE and, when PDF rendering is
// configured, the stored artifact path
type RideResponse struct {
	Numero      string         `json:"numero"`
	ClaveAcceso string         `json:"clave_acceso"`
	Document    *ride.Document `json:"document"`
	RidePath    string         `json:"ride_path,omitempty"`
}

// NotificationRequest asks for an email delivery of a document
type NotificationRequest struct {
	ClaveAcceso string `json:"clave_acceso" binding:"required"`
	Correo      string `json:"correo" binding:"required"`
}

// NotificationResponse reports the delivery outcome
type NotificationResponse struct {
	ClaveAcceso string `json:"clave_acceso"`
	Correo      string `json:"correo"`
	Estado      string `json:"estado"`
}
