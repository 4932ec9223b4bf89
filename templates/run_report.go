package templates

import (
	"bytes"
	"fmt"
	"text/template"

	"airfare-collector/internal/domain/entity"
)

var runReportTemplate = template.Must(template.New("run_report").Parse(`Airfare collector {{.Command}} {{.Status}}

Started:  {{.Started}}
Duration: {{.Duration}}
{{- if .Range}}
Dates:    {{.Range}}
{{- end}}
{{- with .Fetch}}

Fetch
  requested  {{.Requested}}
  succeeded  {{.Succeeded}}
  failed     {{.Failed}}
{{- end}}

Load
  responses  {{.Load.Responses}}
  accepted   {{.Load.Accepted}}
  skipped    {{.Load.Skipped}}
  rows       {{.Load.Rows}}
  bad offers {{.Load.OffersSkipped}}

Normalize
  output     {{.Normalize.Output}}
  skipped    {{.Normalize.Skipped}}

Merge
  before     {{.Merge.Before}}
  after      {{.Merge.After}}
  removed    {{.Merge.Removed}}
  inserted   {{.Merge.Inserted}}
  replaced   {{.Merge.Replaced}}
  retained   {{.Merge.Retained}}

Sink
  written    {{.Sink.Written}}
  skipped    {{.Sink.Skipped}}
  batches    {{.Sink.Batches}}
{{- if .Error}}

Error: {{.Error}}
{{- end}}
`))

type runReportView struct {
	entity.RunSummary
	Status  string
	Started string
	Range   string
	Error   string
}

// RunReportSubject is the mail subject for a run summary
func RunReportSubject(summary entity.RunSummary) string {
	status := "succeeded"
	if summary.Err != nil {
		status = "FAILED"
	}
	subject := fmt.Sprintf("[airfare] %s %s", summary.Command, status)
	if summary.Range != nil {
		subject += " " + summary.Range.String()
	}
	return subject
}

// RenderRunReport renders a plain text run summary
func RenderRunReport(summary entity.RunSummary) (string, error) {
	view := runReportView{
		RunSummary: summary,
		Status:     "succeeded",
		Started:    summary.StartedAt.Format("2006-01-02 15:04:05 MST"),
	}
	if summary.Range != nil {
		view.Range = summary.Range.String()
	}
	if summary.Err != nil {
		view.Status = "failed"
		view.Error = summary.Err.Error()
	}

	var buf bytes.Buffer
	if err := runReportTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("failed to render run report: %w", err)
	}
	return buf.String(), nil
}
