package ride

import (
	"encoding/base64"

	"github.com/shopspring/decimal"

	"github.com/dfalconiUTC/api-midd-facturacion/internal/model"
)

// BarcodeEncoder renders text into a linear barcode image
type BarcodeEncoder interface {
	Encode(text string) ([]byte, error)
}

// Section names of a rendered RIDE, in layout order
const (
	SectionEmisor       = "emisor"
	SectionAutorizacion = "autorizacion"
	SectionComprador    = "comprador"
	SectionDetalles     = "detalles"
	SectionTotales      = "totales"
	SectionFooter       = "footer"
)

// Document is a renderer-agnostic description of the printable RIDE.
// Images are embedded inline so the document is self-contained and can
// be hashed or cached without touching the filesystem.
type Document struct {
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
}

// Section is one fixed block of the RIDE layout
type Section struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields,omitempty"`
	Table  *Table  `json:"table,omitempty"`
	Image  *Image  `json:"image,omitempty"`
}

// Field is a label/value pair inside a section
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Table is an ordered grid of cells
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Image is an inline base64-encoded image
type Image struct {
	MIME    string `json:"mime"`
	Base64  string `json:"base64"`
	Caption string `json:"caption"`
}

// Lookup returns the section with the given name, or nil
func (d *Document) Lookup(name string) *Section {
	for i := range d.Sections {
		if d.Sections[i].Name == name {
			return &d.Sections[i]
		}
	}
	return nil
}

// Render assembles the printable RIDE from the parsed document. Pure:
// the same input and encoder always produce the same output. Every
// monetary figure carries exactly two fractional digits.
func Render(doc *model.RideDocument, enc BarcodeEncoder) (*Document, error) {
	out := &Document{Title: "Factura Electrónica"}

	out.Sections = append(out.Sections, Section{
		Name: SectionEmisor,
		Fields: []Field{
			{"Razón Social", doc.Issuer.RazonSocial},
			{"Nombre Comercial", doc.Issuer.NombreComercial},
			{"RUC", doc.Issuer.RUC},
			{"Dirección Matriz", doc.Issuer.DirMatriz},
			{"Dirección Sucursal", doc.Issuer.DirEstablecimiento},
			{"Obligado a llevar contabilidad", doc.Issuer.ObligadoContabilidad},
			{"Contribuyente Especial", doc.Issuer.ContribuyenteEspecial},
		},
	})

	auth := Section{
		Name: SectionAutorizacion,
		Fields: []Field{
			{"Número de Autorización", doc.Authorization.Numero},
			{"Fecha y Hora de Autorización", doc.Authorization.Fecha},
			{"Ambiente", doc.Authorization.Ambiente},
			{"Estado", doc.Authorization.Estado},
			{"Clave de Acceso", doc.Authorization.ClaveAcceso},
		},
	}
	if doc.Authorization.Numero != "" {
		img, err := enc.Encode(doc.Authorization.Numero)
		if err != nil {
			return nil, err
		}
		auth.Image = &Image{
			MIME:    "image/png",
			Base64:  base64.StdEncoding.EncodeToString(img),
			Caption: doc.Authorization.ClaveAcceso,
		}
	}
	out.Sections = append(out.Sections, auth)

	comprador := Section{
		Name: SectionComprador,
		Fields: []Field{
			{"Razón Social / Nombres", doc.Buyer.RazonSocial},
			{"Identificación", doc.Buyer.Identificacion},
			{"Dirección", doc.Buyer.Direccion},
			{"No. Factura", doc.Issuer.Estab + "-" + doc.Issuer.PtoEmi + "-" + doc.Issuer.Secuencial},
		},
	}
	if !doc.Invoice.FechaEmision.IsZero() {
		comprador.Fields = append(comprador.Fields,
			Field{"Fecha Emisión", doc.Invoice.FechaEmision.Format("02/01/2006")})
	}
	out.Sections = append(out.Sections, comprador)

	items := &Table{
		Columns: []string{"Código", "Descripción", "Cantidad", "Precio Unitario", "Descuento", "Precio Total"},
	}
	for _, item := range doc.Items {
		items.Rows = append(items.Rows, []string{
			item.Codigo,
			item.Descripcion,
			item.Cantidad.String(),
			money(item.PrecioUnitario),
			money(item.Descuento),
			money(item.PrecioTotal),
		})
	}
	out.Sections = append(out.Sections, Section{Name: SectionDetalles, Table: items})

	totales := Section{
		Name: SectionTotales,
		Fields: []Field{
			{"Subtotal", money(doc.Totals.Subtotal)},
			{"Descuento", money(doc.Totals.Descuento)},
			{"IVA", money(doc.Totals.Impuesto)},
			{"Valor Total", money(doc.Totals.ImporteTotal)},
		},
	}
	if doc.Invoice.Moneda != "" {
		totales.Fields = append(totales.Fields, Field{"Moneda", doc.Invoice.Moneda})
	}
	if doc.Totals.FormaPago != "" {
		totales.Fields = append(totales.Fields,
			Field{"Forma de Pago", doc.Totals.FormaPago},
			Field{"Pago Total", money(doc.Totals.PagoTotal)},
		)
	}
	out.Sections = append(out.Sections, totales)

	footer := Section{Name: SectionFooter}
	for _, campo := range doc.Additional {
		footer.Fields = append(footer.Fields, Field{campo.Nombre, campo.Valor})
	}
	out.Sections = append(out.Sections, footer)

	return out, nil
}

// money formats a monetary figure with exactly two fractional digits,
// dot separator, no thousands grouping
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
