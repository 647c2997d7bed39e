package channel

import (
	"fmt"
	"html/template"
	"sort"
	"strings"
)

// humanTitle returns a readable title for well-known event types, falling
// back to the raw type string.
func humanTitle(eventType string) string {
	switch eventType {
	case "signup":
		return "New member signup"
	case "payment.received":
		return "Payment received"
	case "subscription.cancelled":
		return "Subscription cancelled"
	}
	return eventType
}

// sortedFields returns the event data as deterministic key/value pairs.
// Map iteration order would otherwise leak into rendered messages and make
// delivery bodies unstable across attempts.
func sortedFields(data map[string]any) [][2]string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([][2]string, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, [2]string{k, fmt.Sprintf("%v", data[k])})
	}
	return fields
}

// emailBodyTmpl is the fixed HTML template for email deliveries. Event
// fields are rendered as a simple definition table.
var emailBodyTmpl = template.Must(template.New("email_body").Parse(`<html>
<body>
  <h2>{{.Title}}</h2>
  <p>A <strong>{{.EventType}}</strong> event occurred at {{.OccurredAt}}.</p>
  <table>
    {{range .Fields}}<tr><td><strong>{{index . 0}}</strong></td><td>{{index . 1}}</td></tr>
    {{end}}
  </table>
</body>
</html>`))

// renderEmailBody renders the fixed HTML email body from event fields.
func renderEmailBody(ev Event) (string, error) {
	var sb strings.Builder
	err := emailBodyTmpl.Execute(&sb, struct {
		Title      string
		EventType  string
		OccurredAt string
		Fields     [][2]string
	}{
		Title:      humanTitle(ev.Type),
		EventType:  ev.Type,
		OccurredAt: ev.OccurredAt.UTC().Format("2006-01-02 15:04:05 UTC"),
		Fields:     sortedFields(ev.Data),
	})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}

// renderTextBody renders the fixed-format plain text message used by the
// messaging channel: a title line followed by "key: value" lines.
func renderTextBody(ev Event) string {
	var sb strings.Builder
	sb.WriteString(humanTitle(ev.Type))
	for _, f := range sortedFields(ev.Data) {
		sb.WriteString("\n")
		sb.WriteString(f[0])
		sb.WriteString(": ")
		sb.WriteString(f[1])
	}
	return sb.String()
}
