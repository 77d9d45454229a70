package service

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/jengzang/records-activity-go/internal/models"
)

var noteFuncs = template.FuncMap{
	"clock": func(s models.ActivitySession) string {
		return s.StartTime.Format(clockLayout) + "-" + s.EndTime.Format(clockLayout)
	},
	"km": func(m float64) string {
		return fmt.Sprintf("%.1f km", m/1000)
	},
	"pct": func(v float64) string {
		return fmt.Sprintf("%.0f%%", v*100)
	},
	// replaced in init
	"note": func(models.ActivitySession) string { return "" },
	"day":  func(models.DailySummary) string { return "" },
	"title": func(t models.ActivityType) string {
		s := strings.ReplaceAll(string(t), "_", " ")
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	},
}

var notes = template.Must(template.New("notes").Funcs(noteFuncs).Parse(`
{{- define "golf" -}}
### Golf at {{ .LocationName }}
- **Time:** {{ clock . }} ({{ printf "%.1f" .DurationHours }}h)
{{- with .Details.Golf }}
- **Holes:** {{ .HolesEstimate }} ({{ .RoundType }})
- **Distance walked:** {{ km .DistanceM }}
{{- end }}
- **Confidence:** {{ .Confidence }} ({{ pct .ConfidenceScore }})
{{ end -}}

{{- define "flight" -}}
### Flight {{ .LocationName }}
- **Time:** {{ clock . }} ({{ printf "%.1f" .DurationHours }}h)
{{- with .Details.Flight }}
{{- if .Origin }}
- **From:** {{ .Origin }}
{{- end }}
{{- if .Destination }}
- **To:** {{ .Destination }}
{{- end }}
- **Cruise:** {{ printf "%.0f" .MaxAltitudeM }} m at {{ printf "%.0f" .AvgSpeedMPS }} m/s
- **Distance:** {{ km .DistanceM }}
{{- end }}
- **Confidence:** {{ .Confidence }} ({{ pct .ConfidenceScore }})
{{ end -}}

{{- define "general" -}}
### {{ title .ActivityType }}{{ if .LocationName }} at {{ .LocationName }}{{ end }}
- **Time:** {{ clock . }} ({{ printf "%.1f" .DurationHours }}h)
- **Confidence:** {{ .Confidence }} ({{ pct .ConfidenceScore }})
{{ end -}}

{{- define "day" -}}
## {{ .Date }} ({{ .DayName }})

{{ .LocationSummary }}
{{ range .Activities }}
{{ note . }}
{{- else }}
_No activities detected._
{{ end -}}
{{ end -}}

{{- define "trip" -}}
# {{ if .TripInfo.Name }}{{ .TripInfo.Name }}{{ else }}Trip {{ .TripInfo.ID }}{{ end }}

{{ if .TripInfo.Destination }}**Destination:** {{ .TripInfo.Destination }}
{{ end -}}
**Period:** {{ .Period.Start }} to {{ .Period.End }} ({{ .Period.Days }} days)
**Activities:** {{ .Statistics.TotalActivities }}
{{ range $type, $n := .Statistics.ActivityTypeCounts }}- {{ title $type }}: {{ $n }}
{{ end }}
{{ range .DailySummaries }}{{ day . }}
{{ end -}}
{{ end -}}
`))

func init() {
	notes.Funcs(template.FuncMap{
		"note": FormatActivityNote,
		"day":  RenderDailySummary,
	})
}

func render(name string, data any) string {
	var buf bytes.Buffer
	if err := notes.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Sprintf("<!-- %s note failed: %v -->\n", name, err)
	}
	return buf.String()
}

// FormatGolfNote renders a golf round as markdown
func FormatGolfNote(s models.ActivitySession) string {
	return render("golf", s)
}

// FormatFlightNote renders a flight as markdown
func FormatFlightNote(s models.ActivitySession) string {
	return render("flight", s)
}

// FormatGeneralNote renders any session as markdown
func FormatGeneralNote(s models.ActivitySession) string {
	return render("general", s)
}

// FormatActivityNote picks the note format for the session's type
func FormatActivityNote(s models.ActivitySession) string {
	switch s.ActivityType {
	case models.ActivityGolf:
		return FormatGolfNote(s)
	case models.ActivityFlight:
		return FormatFlightNote(s)
	default:
		return FormatGeneralNote(s)
	}
}

// RenderDailySummary renders a day and its sessions as markdown
func RenderDailySummary(ds models.DailySummary) string {
	return render("day", ds)
}

// RenderTrip renders a whole trip as markdown
func RenderTrip(ta models.TripAnalysis) string {
	return render("trip", ta)
}
