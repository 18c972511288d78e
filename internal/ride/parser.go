// Package ride turns a stored SRI authorization payload into a printable
// document representation (the RIDE).
//
// Parsing deals with the authority's doubly nested format: an XML
// authorization envelope whose comprobante element carries a second,
// HTML-entity-escaped XML document (the factura itself).
package ride

import (
	"encoding/json"
	"encoding/xml"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dfalconiUTC/api-midd-facturacion/internal/model"
)

const fechaLayout = "02/01/2006"

var xmlPrologRe = regexp.MustCompile(`<\?xml.*?\?>`)

// envelope maps the authorization wrapper. Authority versions have
// carried the metadata either as child elements or as attributes, so
// both are mapped; element values win when the two disagree.
type envelope struct {
	XMLName xml.Name

	Estado   string `xml:"estado"`
	Numero   string `xml:"numeroAutorizacion"`
	Fecha    string `xml:"fechaAutorizacion"`
	Ambiente string `xml:"ambiente"`

	EstadoAttr   string `xml:"estado,attr"`
	NumeroAttr   string `xml:"numeroAutorizacion,attr"`
	FechaAttr    string `xml:"fechaAutorizacion,attr"`
	AmbienteAttr string `xml:"ambiente,attr"`

	Comprobante string `xml:"comprobante"`

	// SOAP-style responses nest the autorizacion one level down
	Nested *envelope `xml:"autorizaciones>autorizacion"`
}

type facturaXML struct {
	XMLName        xml.Name           `xml:"factura"`
	InfoTributaria *infoTributariaXML `xml:"infoTributaria"`
	InfoFactura    *infoFacturaXML    `xml:"infoFactura"`
	Detalles       detallesXML        `xml:"detalles"`
	InfoAdicional  infoAdicionalXML   `xml:"infoAdicional"`
}

type infoTributariaXML struct {
	Ambiente        string `xml:"ambiente"`
	RazonSocial     string `xml:"razonSocial"`
	NombreComercial string `xml:"nombreComercial"`
	RUC             string `xml:"ruc"`
	ClaveAcceso     string `xml:"claveAcceso"`
	Estab           string `xml:"estab"`
	PtoEmi          string `xml:"ptoEmi"`
	Secuencial      string `xml:"secuencial"`
	DirMatriz       string `xml:"dirMatriz"`
}

type infoFacturaXML struct {
	FechaEmision            string        `xml:"fechaEmision"`
	DirEstablecimiento      string        `xml:"dirEstablecimiento"`
	ObligadoContabilidad    string        `xml:"obligadoContabilidad"`
	ContribuyenteEspecial   string        `xml:"contribuyenteEspecial"`
	RazonSocialComprador    string        `xml:"razonSocialComprador"`
	IdentificacionComprador string        `xml:"identificacionComprador"`
	DireccionComprador      string        `xml:"direccionComprador"`
	TotalSinImpuestos       string        `xml:"totalSinImpuestos"`
	TotalDescuento          string        `xml:"totalDescuento"`
	ImporteTotal            string        `xml:"importeTotal"`
	Moneda                  string        `xml:"moneda"`
	Impuestos               []impuestoXML `xml:"totalConImpuestos>totalImpuesto"`
	Pagos                   []pagoXML     `xml:"pagos>pago"`
}

type impuestoXML struct {
	Codigo string `xml:"codigo"`
	Valor  string `xml:"valor"`
}

type pagoXML struct {
	FormaPago string `xml:"formaPago"`
	Total     string `xml:"total"`
}

type detallesXML struct {
	Detalle []detalleXML `xml:"detalle"`
}

type detalleXML struct {
	CodigoPrincipal        string `xml:"codigoPrincipal"`
	Descripcion            string `xml:"descripcion"`
	Cantidad               string `xml:"cantidad"`
	PrecioUnitario         string `xml:"precioUnitario"`
	Descuento              string `xml:"descuento"`
	PrecioTotalSinImpuesto string `xml:"precioTotalSinImpuesto"`
}

type infoAdicionalXML struct {
	Campos []campoAdicionalXML `xml:"campoAdicional"`
}

type campoAdicionalXML struct {
	Nombre string `xml:"nombre,attr"`
	Valor  string `xml:",chardata"`
}

// FromStoredResponse extracts the authorization envelope from the raw
// authority response persisted with the document (data.autorized) and
// parses it.
func FromStoredResponse(jsonRespuesta string) (*model.RideDocument, error) {
	var response struct {
		Data struct {
			Autorized string `json:"autorized"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(jsonRespuesta), &response); err != nil {
		return nil, model.NewEnvelopeError("stored response is not valid JSON", err)
	}
	if response.Data.Autorized == "" {
		return nil, model.NewEnvelopeError("stored response has no autorized document", nil)
	}
	return ParseAuthorization(html.UnescapeString(response.Data.Autorized))
}

// ComprobanteXML returns the unescaped comprobante XML carried inside
// a stored authority response, ready for storage or delivery.
func ComprobanteXML(jsonRespuesta string) (string, error) {
	var response struct {
		Data struct {
			Autorized string `json:"autorized"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(jsonRespuesta), &response); err != nil {
		return "", model.NewEnvelopeError("stored response is not valid JSON", err)
	}
	if response.Data.Autorized == "" {
		return "", model.NewEnvelopeError("stored response has no autorized document", nil)
	}
	env, err := parseEnvelope(html.UnescapeString(response.Data.Autorized))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(html.UnescapeString(env.Comprobante)), nil
}

// ParseAuthorization decodes the two-layer XML envelope into the flat
// RIDE field set.
func ParseAuthorization(raw string) (*model.RideDocument, error) {
	env, err := parseEnvelope(raw)
	if err != nil {
		return nil, err
	}

	factura, err := parseComprobante(env.Comprobante)
	if err != nil {
		return nil, err
	}

	doc, err := buildRideDocument(factura)
	if err != nil {
		return nil, err
	}
	doc.Authorization = authorizationInfo(env, factura)
	return doc, nil
}

// parseEnvelope decodes the outer authorization wrapper, tolerating a
// leading BOM and the SOAP-style nested form
func parseEnvelope(raw string) (*envelope, error) {
	text := strings.TrimSpace(strings.TrimPrefix(raw, "\uFEFF"))
	if text == "" {
		return nil, model.NewEnvelopeError("empty authorization document", nil)
	}

	var env envelope
	if err := xml.Unmarshal([]byte(text), &env); err != nil {
		return nil, model.NewEnvelopeError("failed to parse envelope XML", err)
	}
	if env.Comprobante == "" && env.Nested != nil {
		env = *env.Nested
	}
	if strings.TrimSpace(env.Comprobante) == "" {
		return nil, model.NewEnvelopeError("comprobante element is absent", nil)
	}
	return &env, nil
}

// parseComprobante unescapes the inner document, strips the embedded
// XML prolog (a second declaration is invalid once nested) and parses
// the factura.
func parseComprobante(escaped string) (*facturaXML, error) {
	inner := html.UnescapeString(escaped)
	inner = xmlPrologRe.ReplaceAllString(inner, "")
	inner = strings.TrimSpace(inner)

	var factura facturaXML
	if err := xml.Unmarshal([]byte(inner), &factura); err != nil {
		return nil, model.NewComprobanteError("failed to parse comprobante XML", err)
	}
	return &factura, nil
}

func authorizationInfo(env *envelope, factura *facturaXML) model.AuthorizationInfo {
	info := model.AuthorizationInfo{
		Numero:   firstNonEmpty(env.Numero, env.NumeroAttr),
		Fecha:    firstNonEmpty(env.Fecha, env.FechaAttr),
		Ambiente: firstNonEmpty(env.Ambiente, env.AmbienteAttr),
		Estado:   firstNonEmpty(env.Estado, env.EstadoAttr),
	}
	if factura.InfoTributaria != nil {
		info.ClaveAcceso = factura.InfoTributaria.ClaveAcceso
	}
	if info.ClaveAcceso == "" {
		info.ClaveAcceso = info.Numero
	}
	return info
}

func buildRideDocument(factura *facturaXML) (*model.RideDocument, error) {
	if factura.InfoTributaria == nil {
		return nil, model.NewIncompleteError("infoTributaria", "issuer block is required")
	}
	if factura.InfoFactura == nil {
		return nil, model.NewIncompleteError("infoFactura", "invoice header block is required")
	}
	if len(factura.Detalles.Detalle) == 0 {
		return nil, model.NewIncompleteError("detalles", "at least one line item is required")
	}

	trib := factura.InfoTributaria
	info := factura.InfoFactura

	doc := &model.RideDocument{
		Issuer: model.IssuerInfo{
			RUC:                   trib.RUC,
			RazonSocial:           trib.RazonSocial,
			NombreComercial:       trib.NombreComercial,
			DirMatriz:             trib.DirMatriz,
			DirEstablecimiento:    info.DirEstablecimiento,
			ObligadoContabilidad:  info.ObligadoContabilidad,
			ContribuyenteEspecial: info.ContribuyenteEspecial,
			Estab:                 trib.Estab,
			PtoEmi:                trib.PtoEmi,
			Secuencial:            trib.Secuencial,
		},
		Buyer: model.BuyerInfo{
			RazonSocial:    info.RazonSocialComprador,
			Identificacion: info.IdentificacionComprador,
			Direccion:      info.DireccionComprador,
		},
		Invoice: model.InvoiceInfo{
			Moneda: info.Moneda,
		},
		Additional: []model.AdditionalField{},
	}

	if fecha, err := time.Parse(fechaLayout, info.FechaEmision); err == nil {
		doc.Invoice.FechaEmision = fecha
	}

	for _, d := range factura.Detalles.Detalle {
		doc.Items = append(doc.Items, model.RideLineItem{
			Codigo:         d.CodigoPrincipal,
			Descripcion:    d.Descripcion,
			Cantidad:       softDecimal(d.Cantidad),
			PrecioUnitario: softDecimal(d.PrecioUnitario),
			Descuento:      softDecimal(d.Descuento),
			PrecioTotal:    softDecimal(d.PrecioTotalSinImpuesto),
		})
	}

	doc.Totals = model.TotalsInfo{
		Subtotal:     softDecimal(info.TotalSinImpuestos),
		Descuento:    softDecimal(info.TotalDescuento),
		ImporteTotal: softDecimal(info.ImporteTotal),
	}
	for _, imp := range info.Impuestos {
		doc.Totals.Impuesto = doc.Totals.Impuesto.Add(softDecimal(imp.Valor))
	}
	if len(info.Pagos) > 0 {
		doc.Totals.FormaPago = info.Pagos[0].FormaPago
		doc.Totals.PagoTotal = softDecimal(info.Pagos[0].Total)
	}

	for _, campo := range factura.InfoAdicional.Campos {
		doc.Additional = append(doc.Additional, model.AdditionalField{
			Nombre: campo.Nombre,
			Valor:  strings.TrimSpace(campo.Valor),
		})
	}

	return doc, nil
}

// softDecimal parses an amount, treating absent or malformed values as
// zero; the authority controls these fields and the RIDE mirrors them
func softDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
