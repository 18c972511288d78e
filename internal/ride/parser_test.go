package ride_test

import (
	"encoding/json"
	"html"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfalconiUTC/api-midd-facturacion/internal/model"
	"github.com/dfalconiUTC/api-midd-facturacion/internal/ride"
)

const testClave = "1807202601179001234500110010010000001231234567815"

const innerFactura = `<?xml version="1.0" encoding="UTF-8"?>
<factura id="comprobante" version="1.1.0">
  <infoTributaria>
    <ambiente>2</ambiente>
    <razonSocial>Comercial Andina S.A.</razonSocial>
    <nombreComercial>Andina &amp; Cia</nombreComercial>
    <ruc>1790012345001</ruc>
    <claveAcceso>` + testClave + `</claveAcceso>
    <estab>001</estab>
    <ptoEmi>001</ptoEmi>
    <secuencial>000000123</secuencial>
    <dirMatriz>Av. Amazonas N21-147</dirMatriz>
  </infoTributaria>
  <infoFactura>
    <fechaEmision>18/07/2026</fechaEmision>
    <dirEstablecimiento>Av. Amazonas N21-147</dirEstablecimiento>
    <obligadoContabilidad>SI</obligadoContabilidad>
    <razonSocialComprador>Juan Pérez</razonSocialComprador>
    <identificacionComprador>0550080774</identificacionComprador>
    <direccionComprador>Latacunga</direccionComprador>
    <totalSinImpuestos>10.00</totalSinImpuestos>
    <totalDescuento>0.50</totalDescuento>
    <totalConImpuestos>
      <totalImpuesto><codigo>2</codigo><valor>1.14</valor></totalImpuesto>
    </totalConImpuestos>
    <importeTotal>10.64</importeTotal>
    <moneda>DOLAR</moneda>
    <pagos>
      <pago><formaPago>01</formaPago><total>10.64</total></pago>
    </pagos>
  </infoFactura>
  <detalles>
    <detalle>
      <codigoPrincipal>PRD-001</codigoPrincipal>
      <descripcion>Filtro de aceite</descripcion>
      <cantidad>2</cantidad>
      <precioUnitario>5.00</precioUnitario>
      <descuento>0.50</descuento>
      <precioTotalSinImpuesto>9.50</precioTotalSinImpuesto>
    </detalle>
  </detalles>
  <infoAdicional>
    <campoAdicional nombre="Correo">cliente@example.com</campoAdicional>
  </infoAdicional>
</factura>`

func wrapEnvelope(inner string) string {
	return `<autorizacion>
  <estado>AUTORIZADO</estado>
  <numeroAutorizacion>` + testClave + `</numeroAutorizacion>
  <fechaAutorizacion>18/07/2026 10:30:15</fechaAutorizacion>
  <ambiente>PRODUCCIÓN</ambiente>
  <comprobante>` + html.EscapeString(inner) + `</comprobante>
</autorizacion>`
}

func TestParseAuthorization(t *testing.T) {
	raw := "\uFEFF\n  " + wrapEnvelope(innerFactura)

	doc, err := ride.ParseAuthorization(raw)
	require.NoError(t, err)

	assert.Equal(t, "AUTORIZADO", doc.Authorization.Estado)
	assert.Equal(t, testClave, doc.Authorization.Numero)
	assert.Equal(t, "18/07/2026 10:30:15", doc.Authorization.Fecha)
	assert.Equal(t, "PRODUCCIÓN", doc.Authorization.Ambiente)
	assert.Equal(t, testClave, doc.Authorization.ClaveAcceso)

	assert.Equal(t, "1790012345001", doc.Issuer.RUC)
	assert.Equal(t, "Comercial Andina S.A.", doc.Issuer.RazonSocial)
	assert.Equal(t, "Andina & Cia", doc.Issuer.NombreComercial)
	assert.Equal(t, "SI", doc.Issuer.ObligadoContabilidad)

	assert.Equal(t, "Juan Pérez", doc.Buyer.RazonSocial)
	assert.Equal(t, "0550080774", doc.Buyer.Identificacion)
	assert.Equal(t, "18/07/2026", doc.Invoice.FechaEmision.Format("02/01/2006"))

	require.Len(t, doc.Items, 1)
	item := doc.Items[0]
	assert.Equal(t, "PRD-001", item.Codigo)
	assert.Equal(t, "2", item.Cantidad.String())
	assert.Equal(t, "5", item.PrecioUnitario.String())
	assert.Equal(t, "9.5", item.PrecioTotal.String())

	assert.Equal(t, "10", doc.Totals.Subtotal.String())
	assert.Equal(t, "0.5", doc.Totals.Descuento.String())
	assert.Equal(t, "1.14", doc.Totals.Impuesto.String())
	assert.Equal(t, "10.64", doc.Totals.ImporteTotal.String())
	assert.Equal(t, "01", doc.Totals.FormaPago)

	require.Len(t, doc.Additional, 1)
	assert.Equal(t, "Correo", doc.Additional[0].Nombre)
	assert.Equal(t, "cliente@example.com", doc.Additional[0].Valor)
}

func TestParseAuthorization_MetadataFromAttributes(t *testing.T) {
	raw := `<autorizacion estado="AUTORIZADO" numeroAutorizacion="` + testClave + `" fechaAutorizacion="19/07/2026 08:00:00" ambiente="PRUEBAS">
  <comprobante>` + html.EscapeString(innerFactura) + `</comprobante>
</autorizacion>`

	doc, err := ride.ParseAuthorization(raw)
	require.NoError(t, err)

	assert.Equal(t, "AUTORIZADO", doc.Authorization.Estado)
	assert.Equal(t, testClave, doc.Authorization.Numero)
	assert.Equal(t, "19/07/2026 08:00:00", doc.Authorization.Fecha)
	assert.Equal(t, "PRUEBAS", doc.Authorization.Ambiente)
}

func TestParseAuthorization_ElementWinsOverAttribute(t *testing.T) {
	raw := `<autorizacion ambiente="PRUEBAS">
  <ambiente>PRODUCCIÓN</ambiente>
  <estado>AUTORIZADO</estado>
  <numeroAutorizacion>` + testClave + `</numeroAutorizacion>
  <comprobante>` + html.EscapeString(innerFactura) + `</comprobante>
</autorizacion>`

	doc, err := ride.ParseAuthorization(raw)
	require.NoError(t, err)
	assert.Equal(t, "PRODUCCIÓN", doc.Authorization.Ambiente)
}

func TestParseAuthorization_NestedAutorizacionesWrapper(t *testing.T) {
	raw := `<respuestaAutorizacionComprobante>
  <claveAccesoConsultada>` + testClave + `</claveAccesoConsultada>
  <autorizaciones>
    <autorizacion>
      <estado>AUTORIZADO</estado>
      <numeroAutorizacion>` + testClave + `</numeroAutorizacion>
      <comprobante>` + html.EscapeString(innerFactura) + `</comprobante>
    </autorizacion>
  </autorizaciones>
</respuestaAutorizacionComprobante>`

	doc, err := ride.ParseAuthorization(raw)
	require.NoError(t, err)
	assert.Equal(t, "AUTORIZADO", doc.Authorization.Estado)
	require.Len(t, doc.Items, 1)
}

func TestParseAuthorization_Errors(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		target interface{}
	}{
		{
			name:   "empty input",
			raw:    "  \n ",
			target: new(*model.EnvelopeError),
		},
		{
			name:   "not xml",
			raw:    `{"estado":"AUTORIZADO"}`,
			target: new(*model.EnvelopeError),
		},
		{
			name:   "missing comprobante",
			raw:    `<autorizacion><estado>AUTORIZADO</estado></autorizacion>`,
			target: new(*model.EnvelopeError),
		},
		{
			name:   "garbage comprobante",
			raw:    `<autorizacion><comprobante>&lt;factura&gt;&lt;broken</comprobante></autorizacion>`,
			target: new(*model.ComprobanteError),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ride.ParseAuthorization(tt.raw)
			require.Error(t, err)

			switch target := tt.target.(type) {
			case **model.EnvelopeError:
				assert.ErrorAs(t, err, target)
			case **model.ComprobanteError:
				assert.ErrorAs(t, err, target)
			}
		})
	}
}

func TestParseAuthorization_IncompleteComprobante(t *testing.T) {
	tests := []struct {
		name  string
		strip string
		block string
	}{
		{"missing issuer block", "infoTributaria", "infoTributaria"},
		{"missing invoice header", "infoFactura", "infoFactura"},
		{"no line items", "detalles", "detalles"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner := removeBlock(innerFactura, tt.strip)
			_, err := ride.ParseAuthorization(wrapEnvelope(inner))
			require.Error(t, err)

			var incomplete *model.IncompleteError
			require.ErrorAs(t, err, &incomplete)
			assert.Equal(t, tt.block, incomplete.Block)
		})
	}
}

func TestParseAuthorization_OptionalBlocksYieldEmptyCollections(t *testing.T) {
	inner := removeBlock(innerFactura, "infoAdicional")
	doc, err := ride.ParseAuthorization(wrapEnvelope(inner))
	require.NoError(t, err)

	assert.NotNil(t, doc.Additional)
	assert.Empty(t, doc.Additional)
}

func TestFromStoredResponse(t *testing.T) {
	respuesta, err := json.Marshal(map[string]interface{}{
		"data": map[string]interface{}{
			"estado":    "AUTORIZADO",
			"autorized": wrapEnvelope(innerFactura),
		},
	})
	require.NoError(t, err)

	doc, err := ride.FromStoredResponse(string(respuesta))
	require.NoError(t, err)
	assert.Equal(t, testClave, doc.Authorization.ClaveAcceso)
	require.Len(t, doc.Items, 1)
}

func TestFromStoredResponse_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "<xml/>"},
		{"missing autorized", `{"data":{"estado":"AUTORIZADO"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ride.FromStoredResponse(tt.raw)
			require.Error(t, err)

			var envErr *model.EnvelopeError
			assert.ErrorAs(t, err, &envErr)
		})
	}
}

// removeBlock drops an element and its contents from the fixture XML
func removeBlock(xmlText, block string) string {
	start := strings.Index(xmlText, "<"+block+">")
	end := strings.Index(xmlText, "</"+block+">")
	if start == -1 || end == -1 {
		return xmlText
	}
	return xmlText[:start] + xmlText[end+len(block)+3:]
}
