package ride

import (
	"html/template"
	"strings"
)

// htmlSection is the template view of one section. The barcode data
// URI is pre-built and marked safe; everything else is escaped by
// html/template.
type htmlSection struct {
	Name         string
	Fields       []Field
	Table        *Table
	ImageSrc     template.URL
	ImageCaption string
}

type htmlDocument struct {
	Title    string
	Sections []htmlSection
}

// rideTemplate lays the structural document out for an A4 portrait page
var rideTemplate = template.Must(template.New("ride").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
<style>
  body { font-family: Arial, sans-serif; font-size: 11px; color: #222; margin: 24px; }
  h1 { font-size: 16px; text-align: center; }
  .section { border: 1px solid #999; border-radius: 4px; padding: 8px; margin-bottom: 10px; }
  .field { margin: 2px 0; }
  .field .label { font-weight: bold; }
  .barcode { text-align: center; margin: 8px 0; }
  .barcode img { max-width: 100%; }
  .barcode .caption { font-family: monospace; font-size: 10px; letter-spacing: 1px; }
  table { width: 100%; border-collapse: collapse; margin-top: 4px; }
  th, td { border: 1px solid #bbb; padding: 4px 6px; text-align: left; }
  th { background: #eee; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{range .Sections}}
<div class="section section-{{.Name}}">
  {{range .Fields}}{{if .Value}}<div class="field"><span class="label">{{.Label}}:</span> {{.Value}}</div>
  {{end}}{{end}}
  {{if .ImageSrc}}<div class="barcode"><img src="{{.ImageSrc}}" alt="barcode"><div class="caption">{{.ImageCaption}}</div></div>{{end}}
  {{with .Table}}<table>
    <tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr>
    {{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
    {{end}}</table>{{end}}
</div>
{{end}}
</body>
</html>`))

// HTML renders the structural document as a standalone HTML page
// suitable for fixed-page PDF conversion. The markup has no external
// references: barcode images ride along as data URIs.
func HTML(doc *Document) (string, error) {
	view := htmlDocument{Title: doc.Title}
	for _, s := range doc.Sections {
		hs := htmlSection{
			Name:   s.Name,
			Fields: s.Fields,
			Table:  s.Table,
		}
		if s.Image != nil {
			hs.ImageSrc = template.URL("data:" + s.Image.MIME + ";base64," + s.Image.Base64)
			hs.ImageCaption = s.Image.Caption
		}
		view.Sections = append(view.Sections, hs)
	}

	var sb strings.Builder
	if err := rideTemplate.Execute(&sb, view); err != nil {
		return "", err
	}
	return sb.String(), nil
}
