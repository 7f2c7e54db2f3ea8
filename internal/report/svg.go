package report

import (
	"fmt"
	"io"
	"text/template"
)

var svgTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"num": num,
}).Parse(`<svg xmlns="http://www.w3.org/2000/svg" width="{{num .Chart.W}}" height="{{num .Chart.H}}" viewBox="0 0 {{num .Chart.W}} {{num .Chart.H}}">
  <title>Hotspot Frequency Report ({{.RangeLabel}})</title>
  <defs>
    <linearGradient id="lineGradient" x1="0" y1="0" x2="0" y2="1">
      <stop offset="0%" stop-color="#22d3ee" stop-opacity="0.9"/>
      <stop offset="100%" stop-color="#22d3ee" stop-opacity="0.05"/>
    </linearGradient>
    <linearGradient id="lineStroke" x1="0" y1="0" x2="1" y2="0">
      <stop offset="0%" stop-color="#14b8a6"/>
      <stop offset="60%" stop-color="#22d3ee"/>
      <stop offset="100%" stop-color="#f59e0b"/>
    </linearGradient>
  </defs>
  <rect width="100%" height="100%" fill="#0f172a"/>
{{- if .Chart.Empty}}
  <text x="{{num .MidX}}" y="{{num .MidY}}" fill="#64748b" font-size="14" text-anchor="middle">No frequency data</text>
{{- else}}
{{- range .Chart.Points}}
  <line x1="{{num .X}}" x2="{{num .X}}" y1="{{num $.Chart.PadY}}" y2="{{num $.Chart.Baseline}}" stroke="rgba(255,255,255,0.05)" stroke-width="1"/>
{{- end}}
{{- range .Chart.GridYs}}
  <line x1="{{num $.Chart.PadX}}" x2="{{num $.RightX}}" y1="{{num .}}" y2="{{num .}}" stroke="rgba(255,255,255,0.06)" stroke-width="1"/>
{{- end}}
  <path d="{{.Chart.AreaPath}}" fill="url(#lineGradient)" stroke="none"/>
  <path d="{{.Chart.LinePath}}" fill="none" stroke="url(#lineStroke)" stroke-width="2.2" stroke-linejoin="round" stroke-linecap="round"/>
{{- range $i, $p := .Chart.Points}}
  <circle cx="{{num $p.X}}" cy="{{num $p.Y}}" r="{{if eq $i $.Hover}}5{{else}}3{{end}}" fill="{{if eq $i $.Hover}}#f59e0b{{else}}#22d3ee{{end}}"/>
{{- end}}
{{- if ge .Hover 0}}
  <line x1="{{num .HoverX}}" x2="{{num .HoverX}}" y1="{{num .Chart.PadY}}" y2="{{num .Chart.Baseline}}" stroke="#f59e0b" stroke-dasharray="4 4" stroke-width="1"/>
{{- end}}
{{- end}}
</svg>
`))

type svgData struct {
	Report
	Hover  int
	HoverX float64
	MidX   float64
	MidY   float64
	RightX float64
}

// WriteSVG renders the report chart as a standalone SVG document. hover is the
// highlighted point index, or -1 for none.
func WriteSVG(w io.Writer, r Report, hover int) error {
	if hover >= len(r.Chart.Points) {
		hover = -1
	}
	d := svgData{
		Report: r,
		Hover:  hover,
		MidX:   r.Chart.W / 2,
		MidY:   r.Chart.H / 2,
		RightX: r.Chart.W - r.Chart.PadX,
	}
	if hover >= 0 {
		d.HoverX = r.Chart.Points[hover].X
	}
	if err := svgTemplate.Execute(w, d); err != nil {
		return fmt.Errorf("render report svg: %w", err)
	}
	return nil
}
