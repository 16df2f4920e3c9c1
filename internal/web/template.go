package web

import (
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/sweeney/strain-sensor/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"lower": strings.ToLower,
	"sci": func(v float64) string {
		return fmt.Sprintf("%.4e", v)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="2">
<title>Strain Sensor</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.normal { color: green; font-weight: bold; }
.notice { color: #b8a000; font-weight: bold; }
.warning { color: orange; font-weight: bold; }
.danger { color: red; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Strain Sensor</h1>

<h2>Reading{{if .Hold}} (held){{end}}</h2>
<table>
<tr><th>Mode</th><td>{{.Mode}}</td></tr>
<tr><th>Status</th><td class="{{lower .Status.String}}">{{.Status}}</td></tr>
<tr><th>Load</th><td>{{printf "%.1f" .Reading.PercentLoad}} %</td></tr>
<tr><th>Strain</th><td>{{sci .Reading.Strain}}</td></tr>
<tr><th>Stress</th><td>{{sci .Reading.Stress}} Pa</td></tr>
<tr><th>Elongation</th><td>{{sci .Reading.Elongation}} m</td></tr>
<tr><th>Bridge ratio</th><td>{{sci .Reading.BridgeRatio}}</td></tr>
<tr><th>Net ADC</th><td>{{printf "%.2f" .Reading.Net}}</td></tr>
<tr><th>Alert sent</th><td>{{if .AlertSent}}yes{{else}}no{{end}}</td></tr>
</table>

<h2>Calibration</h2>
<table>
{{if .Calibrated}}<tr><th>Offset</th><td>{{printf "%.2f" .Calibration.Offset}}</td></tr>
<tr><th>Noise</th><td>{{printf "%.3f" .Calibration.Noise}} (gate {{printf "%.3f" .Calibration.NoiseThreshold}})</td></tr>
<tr><th>Tared</th><td>{{.Calibration.At.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
{{else}}<tr><th>State</th><td class="danger">not calibrated</td></tr>
{{end}}<tr><th>Tares</th><td>{{.Tares}}</td></tr>
</table>

<h2>Load Cell</h2>
<table>
<tr><th>Weight</th><td>{{printf "%.2f" .LoadGrams}} g{{if .LoadHold}} (held){{end}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>Alerts sent</th><td>{{.Alerts}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Filter</th><td>{{.Config.FilterWindow}} samples</td></tr>
<tr><th>Telemetry</th><td>{{if eq .Config.TelemetryMs 0}}disabled{{else}}{{.Config.TelemetryMs}}ms{{end}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	return indexTmpl.Execute(w, data)
}
