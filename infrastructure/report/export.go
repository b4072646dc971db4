// Package report renders the inventory report to its export formats.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"sort"
	"strings"

	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/rios0rios0/repoatlas/application"
)

// Formats accepted by Export.
const (
	FormatJSON        = "json"
	FormatJSONCompact = "json-compact"
	FormatYAML        = "yaml"
	FormatMarkdown    = "markdown"
	FormatHTML        = "html"
)

// Export renders the report in the given format and writes it to path.
func Export(rep *application.Report, path, format string) error {
	data, err := render(rep, format)
	if err != nil {
		return err
	}

	if writeErr := os.WriteFile(path, data, 0o644); writeErr != nil {
		return fmt.Errorf("failed to write report to %q: %w", path, writeErr)
	}

	logger.Infof("Report written to %s (%s, %d bytes)", path, format, len(data))
	return nil
}

func render(rep *application.Report, format string) ([]byte, error) {
	switch format {
	case FormatJSON, "":
		data, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode report as JSON: %w", err)
		}
		return append(data, '\n'), nil
	case FormatJSONCompact:
		data, err := json.Marshal(rep)
		if err != nil {
			return nil, fmt.Errorf("failed to encode report as JSON: %w", err)
		}
		return data, nil
	case FormatYAML:
		data, err := yaml.Marshal(rep)
		if err != nil {
			return nil, fmt.Errorf("failed to encode report as YAML: %w", err)
		}
		return data, nil
	case FormatMarkdown:
		return renderMarkdown(rep), nil
	case FormatHTML:
		return renderHTML(rep)
	default:
		return nil, fmt.Errorf("report format %q is not supported", format)
	}
}

func renderMarkdown(rep *application.Report) []byte {
	var b strings.Builder

	b.WriteString("# Repository Inventory\n\n")
	if rep.GeneratedAt != "" {
		fmt.Fprintf(&b, "Generated at %s.\n\n", rep.GeneratedAt)
	}
	fmt.Fprintf(&b, "Repositories scanned: **%d**\n\n", rep.Summary.TotalRepositories)

	if len(rep.Summary.TopTechnologies) > 0 {
		b.WriteString("## Top technologies\n\n")
		b.WriteString("| Technology | Repositories |\n|---|---|\n")
		for _, tc := range rep.Summary.TopTechnologies {
			fmt.Fprintf(&b, "| %s | %d |\n", tc.Name, tc.Repositories)
		}
		b.WriteString("\n")
	}

	for _, category := range sortedKeys(rep.Summary.Categories) {
		counts := rep.Summary.Categories[category]
		if len(counts) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n", titleCase(category))
		for _, tc := range counts {
			fmt.Fprintf(&b, "- %s (%d)\n", tc.Name, tc.Repositories)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Repositories\n\n")
	for _, view := range rep.Repositories {
		fmt.Fprintf(&b, "### %s\n\n", view.Path)
		fmt.Fprintf(&b, "- Default ref: `%s`\n", view.DefaultRef)
		fmt.Fprintf(&b, "- Files analyzed: %d\n", view.AnalyzedFiles)
		for _, category := range sortedKeys(view.Technologies) {
			techs := view.Technologies[category]
			if len(techs) == 0 {
				continue
			}
			names := make([]string, 0, len(techs))
			for _, t := range techs {
				name := t.Name
				if t.Version != "" {
					name += " " + t.Version
				}
				names = append(names, name)
			}
			fmt.Fprintf(&b, "- %s: %s\n", category, strings.Join(names, ", "))
		}
		if len(view.APIs) > 0 {
			b.WriteString("- Endpoints:\n")
			for _, api := range view.APIs {
				fmt.Fprintf(&b, "  - `%s %s`\n", api.Method, api.Path)
			}
		}
		b.WriteString("\n")
	}

	conns := rep.Connections
	if len(conns.Services) > 0 || len(conns.Repositories) > 0 || len(conns.Packages) > 0 {
		b.WriteString("## Connections\n\n")
		for _, edge := range conns.Repositories {
			fmt.Fprintf(&b, "- %s → %s (API call)\n", edge.From, edge.To)
		}
		for _, edge := range conns.Services {
			fmt.Fprintf(&b, "- %s → %s (service reference)\n", edge.From, edge.To)
		}
		for _, edge := range conns.Packages {
			fmt.Fprintf(&b, "- %s → %s (package dependency)\n", edge.From, edge.To)
		}
		b.WriteString("\n")
	}

	return []byte(b.String())
}

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Repository Inventory</title>
<style>
body { font-family: sans-serif; margin: 2rem; color: #222; }
table { border-collapse: collapse; margin-bottom: 1.5rem; }
th, td { border: 1px solid #ccc; padding: 0.3rem 0.7rem; text-align: left; }
h2 { border-bottom: 1px solid #eee; padding-bottom: 0.2rem; }
.edge { color: #555; }
</style>
</head>
<body>
<h1>Repository Inventory</h1>
{{if .GeneratedAt}}<p>Generated at {{.GeneratedAt}}</p>{{end}}
<p>Repositories scanned: <strong>{{.Summary.TotalRepositories}}</strong></p>

{{if .Summary.TopTechnologies}}
<h2>Top technologies</h2>
<table>
<tr><th>Technology</th><th>Repositories</th></tr>
{{range .Summary.TopTechnologies}}<tr><td>{{.Name}}</td><td>{{.Repositories}}</td></tr>
{{end}}</table>
{{end}}

<h2>Repositories</h2>
<table>
<tr><th>Repository</th><th>Ref</th><th>Files</th><th>Endpoints</th></tr>
{{range .Repositories}}<tr><td>{{.Path}}</td><td>{{.DefaultRef}}</td><td>{{.AnalyzedFiles}}</td><td>{{len .APIs}}</td></tr>
{{end}}</table>

{{if or .Connections.Services .Connections.Repositories .Connections.Packages}}
<h2>Connections</h2>
<ul>
{{range .Connections.Repositories}}<li class="edge">{{.From}} &rarr; {{.To}} (API call)</li>
{{end}}{{range .Connections.Services}}<li class="edge">{{.From}} &rarr; {{.To}} (service reference)</li>
{{end}}{{range .Connections.Packages}}<li class="edge">{{.From}} &rarr; {{.To}} (package dependency)</li>
{{end}}</ul>
{{end}}
</body>
</html>
`))

func renderHTML(rep *application.Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, rep); err != nil {
		return nil, fmt.Errorf("failed to render HTML report: %w", err)
	}
	return buf.Bytes(), nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
