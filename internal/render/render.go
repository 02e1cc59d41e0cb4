// Package render turns parcel reports into the HTML lookup page.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"net/url"

	"github.com/woozymasta/lotinfo/assets"
	"github.com/woozymasta/lotinfo/internal/gis"
	"github.com/woozymasta/lotinfo/internal/numfmt"
	"github.com/woozymasta/lotinfo/internal/parcel"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/svg"
)

// Input is what a page is rendered from. A nil Report renders the empty form.
type Input struct {
	Report  *parcel.Report
	Query   string
	Invalid string
}

// Row is one label/value line of a table.
type Row struct {
	Label string
	Value string
}

// Table is a titled list of rows.
type Table struct {
	Title string
	Rows  []Row
}

// Location is the converted parcel position prepared for display.
type Location struct {
	Latitude   string
	Longitude  string
	MapURL     string
	GeoJSONURL string
}

type view struct {
	Location          *Location
	CSS               template.CSS
	Query             string
	Invalid           string
	Message           string
	Warning           string
	LotTitle          string
	SupplementalTitle string
	Lot               []Row
	Params            []Row
	Supplemental      []Table
}

// Renderer renders pages. It is safe for concurrent use.
type Renderer struct {
	tmpl     *template.Template
	minifier *minify.M
	css      template.CSS
	favicon  []byte
	style    numfmt.Style
	minify   bool
}

// New parses the embedded template and prepares the stylesheet and icon.
// With minifyOutput set, every rendered page is minified.
func New(style numfmt.Style, minifyOutput bool) (*Renderer, error) {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("image/svg+xml", svg.Minify)

	tmpl, err := template.New("index").Parse(assets.IndexTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	cssMin, err := m.String("text/css", assets.Style)
	if err != nil {
		return nil, fmt.Errorf("minify CSS: %w", err)
	}

	svgMin, err := m.Bytes("image/svg+xml", assets.Favicon)
	if err != nil {
		return nil, fmt.Errorf("minify SVG: %w", err)
	}

	return &Renderer{
		tmpl:     tmpl,
		minifier: m,
		css:      template.CSS(cssMin),
		favicon:  svgMin,
		style:    style,
		minify:   minifyOutput,
	}, nil
}

// Favicon returns the minified site icon.
func (r *Renderer) Favicon() []byte {
	return r.favicon
}

// Page writes the lookup page for in.
func (r *Renderer) Page(w io.Writer, in Input) error {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, r.view(in)); err != nil {
		return fmt.Errorf("execute template: %w", err)
	}

	if !r.minify {
		_, err := buf.WriteTo(w)
		return err
	}

	if err := r.minifier.Minify("text/html", w, &buf); err != nil {
		return fmt.Errorf("minify HTML: %w", err)
	}
	return nil
}

func (r *Renderer) view(in Input) view {
	v := view{
		CSS:     r.css,
		Query:   in.Query,
		Invalid: in.Invalid,
	}

	rep := in.Report
	if rep == nil {
		return v
	}

	if !rep.Found {
		v.Message = fmt.Sprintf(
			"Nenhuma informação encontrada na Camada %d para a indicação fiscal fornecida.",
			rep.PrimaryLayer)
	} else {
		v.LotTitle = fmt.Sprintf("Dados do Lote (Camada %d)", rep.PrimaryLayer)
		v.Lot = recordRows(rep.Primary)

		if rep.ZoneWarning() {
			v.Warning = fmt.Sprintf("Zona '%s' não reconhecida ou área inválida.", rep.ZoneCode)
		} else {
			v.Params = r.paramRows(rep)
		}
	}

	if rep.Location != nil {
		v.Location = &Location{
			Latitude:  fmt.Sprintf("%.6f", rep.Location.Latitude),
			Longitude: fmt.Sprintf("%.6f", rep.Location.Longitude),
			MapURL: fmt.Sprintf("https://www.openstreetmap.org/?mlat=%.6f&mlon=%.6f#map=18/%.6f/%.6f",
				rep.Location.Latitude, rep.Location.Longitude,
				rep.Location.Latitude, rep.Location.Longitude),
			GeoJSONURL: "/parcel.geojson?id=" + url.QueryEscape(rep.ID),
		}
	}

	if len(rep.Supplemental) > 0 {
		v.SupplementalTitle = fmt.Sprintf("Dados Complementares (Camada %d)", rep.SupplementalLayer)
		for i, rec := range rep.Supplemental {
			v.Supplemental = append(v.Supplemental, Table{
				Title: fmt.Sprintf("Registro %d", i+1),
				Rows:  recordRows(rec),
			})
		}
	}

	return v
}

func (r *Renderer) paramRows(rep *parcel.Report) []Row {
	rule, p, s := rep.Rule, rep.Params, r.style

	return []Row{
		{"Zona", rep.ZoneCode},
		{"Área do Lote (m²)", s.Area(p.LotArea)},
		{"Coef. de Aproveitamento", s.Ratio(rule.FloorAreaRatio)},
		{"Taxa de Ocupação", s.Percent(rule.OccupationRatio)},
		{"Taxa de Permeabilidade", s.Percent(rule.PermeabilityRatio)},
		{"Altura Máxima (Pavimentos)", fmt.Sprintf("%d pavimentos", rule.MaxFloors)},
		{"Área Máx. Construída (m²)", s.Area(p.MaxBuiltArea)},
		{"Área Máx. Ocupada (m²)", s.Area(p.MaxOccupiedArea)},
		{"Área Mín. Permeável (m²)", s.Area(p.MinPermeableArea)},
		{"Recuo Mínimo", rule.MinSetback},
		{"Área Mínima do Lote", rule.MinLotArea},
		{"Testada Mínima", rule.MinFrontage},
	}
}

func recordRows(rec gis.Record) []Row {
	fields := rec.Fields()
	rows := make([]Row, 0, len(fields))
	for _, f := range fields {
		rows = append(rows, Row{Label: f.Name, Value: gis.FormatValue(f.Value)})
	}
	return rows
}
