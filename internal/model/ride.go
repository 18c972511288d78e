package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RideDocument is the flat field set extracted from an authorization
// envelope. Built per render request, never persisted.
type RideDocument struct {
	Authorization AuthorizationInfo
	Issuer        IssuerInfo
	Invoice       InvoiceInfo
	Buyer         BuyerInfo
	Items         []RideLineItem
	Totals        TotalsInfo
	Additional    []AdditionalField
}

// AuthorizationInfo is the metadata the authority attached to the envelope
type AuthorizationInfo struct {
	Numero      string
	Fecha       string
	Ambiente    string
	Estado      string
	ClaveAcceso string
}

// IssuerInfo describes the selling taxpayer
type IssuerInfo struct {
	RUC                   string
	RazonSocial           string
	NombreComercial       string
	DirMatriz             string
	DirEstablecimiento    string
	ObligadoContabilidad  string
	ContribuyenteEspecial string
	Estab                 string
	PtoEmi                string
	Secuencial            string
}

// InvoiceInfo is the header block of the comprobante
type InvoiceInfo struct {
	FechaEmision time.Time
	Moneda       string
}

// BuyerInfo describes the receiving party
type BuyerInfo struct {
	RazonSocial    string
	Identificacion string
	Direccion      string
}

// RideLineItem is one detalle row of the comprobante
type RideLineItem struct {
	Codigo         string
	Descripcion    string
	Cantidad       decimal.Decimal
	PrecioUnitario decimal.Decimal
	Descuento      decimal.Decimal
	PrecioTotal    decimal.Decimal
}

// TotalsInfo is the totals block of the comprobante
type TotalsInfo struct {
	Subtotal     decimal.Decimal
	Descuento    decimal.Decimal
	Impuesto     decimal.Decimal
	ImporteTotal decimal.Decimal
	FormaPago    string
	PagoTotal    decimal.Decimal
}

// AdditionalField is one campoAdicional name/value pair
type AdditionalField struct {
	Nombre string
	Valor  string
}
