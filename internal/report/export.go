package report

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"
)

// ExportHTML renders a report as a standalone HTML document. HTML is the
// documented stand-in for PDF export; no binary format is produced.
func ExportHTML(r *Report) string {
	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	fmt.Fprintf(&sb, "<title>%s</title>\n", html.EscapeString(r.Metadata.Title))
	sb.WriteString("<style>body{font-family:sans-serif;max-width:800px;margin:2em auto;padding:0 1em}h1{border-bottom:2px solid #333}section{margin:1.5em 0}ul{color:#444}footer{color:#888;font-size:.85em}</style>\n")
	sb.WriteString("</head>\n<body>\n")

	fmt.Fprintf(&sb, "<h1>%s</h1>\n", html.EscapeString(r.Metadata.Title))
	fmt.Fprintf(&sb, "<p><strong>Source:</strong> %s &middot; <strong>Records:</strong> %d &middot; <strong>Generated:</strong> %s</p>\n",
		html.EscapeString(r.Metadata.DataSource), r.Metadata.RecordCount,
		r.Metadata.GeneratedAt.Format("2006-01-02 15:04 UTC"))
	fmt.Fprintf(&sb, "<p>%s</p>\n", html.EscapeString(r.Summary))

	for _, sec := range r.Sections {
		sb.WriteString("<section>\n")
		fmt.Fprintf(&sb, "<h2>%s</h2>\n<p>%s</p>\n", html.EscapeString(sec.Title), html.EscapeString(sec.Content))
		if len(sec.Insights) > 0 {
			sb.WriteString("<ul>\n")
			for _, ins := range sec.Insights {
				fmt.Fprintf(&sb, "<li>%s</li>\n", html.EscapeString(ins))
			}
			sb.WriteString("</ul>\n")
		}
		sb.WriteString("</section>\n")
	}

	if len(r.Recommendations) > 0 {
		sb.WriteString("<section>\n<h2>Recommendations</h2>\n<ul>\n")
		for _, rec := range r.Recommendations {
			fmt.Fprintf(&sb, "<li>%s</li>\n", html.EscapeString(rec))
		}
		sb.WriteString("</ul>\n</section>\n")
	}

	fmt.Fprintf(&sb, "<footer>%s report</footer>\n", html.EscapeString(r.Metadata.ReportType))
	sb.WriteString("</body>\n</html>\n")
	return sb.String()
}

// ExportMarkdown renders a report as Markdown.
func ExportMarkdown(r *Report) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", r.Metadata.Title)
	fmt.Fprintf(&sb, "**Source:** %s | **Records:** %d | **Generated:** %s\n\n",
		r.Metadata.DataSource, r.Metadata.RecordCount,
		r.Metadata.GeneratedAt.Format("2006-01-02 15:04 UTC"))
	fmt.Fprintf(&sb, "%s\n", r.Summary)

	for _, sec := range r.Sections {
		fmt.Fprintf(&sb, "\n## %s\n\n%s\n", sec.Title, sec.Content)
		if len(sec.Insights) > 0 {
			sb.WriteString("\n")
			for _, ins := range sec.Insights {
				fmt.Fprintf(&sb, "- %s\n", ins)
			}
		}
	}

	if len(r.Recommendations) > 0 {
		sb.WriteString("\n## Recommendations\n\n")
		for _, rec := range r.Recommendations {
			fmt.Fprintf(&sb, "- %s\n", rec)
		}
	}

	return sb.String()
}

// ExportJSON renders a report as indented JSON.
func ExportJSON(r *Report) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize report: %w", err)
	}
	return string(data), nil
}
