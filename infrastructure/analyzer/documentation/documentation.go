// Package docs collects README files and other documentation
// artifacts from scanned repositories, including sections embedded in the
// README itself.
//
// The package is deliberately not named "documentation": go/build ignores
// any file whose package clause is exactly "documentation".
package docs

import (
	"context"
	"path"
	"regexp"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/repoatlas/domain"
)

// readmeNames in priority order; the first match becomes the repository
// README.
var readmeNames = []string{
	"README.md", "readme.md", "Readme.md", "README.rst", "README.txt", "README",
}

var (
	apiDocPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^docs?/.*api.*\.(md|rst|ya?ml|json)$`),
		regexp.MustCompile(`(?i)^api\.(md|rst)$`),
		regexp.MustCompile(`(?i)(^|/)(swagger|openapi)[^/]*\.(ya?ml|json)$`),
	}
	setupDocPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^(docs?/)?(install|setup|getting[-_]?started)[^/]*\.(md|rst|txt)$`),
		regexp.MustCompile(`(?i)^contributing\.md$`),
	}
	architectureDocPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^(docs?/)?architecture[^/]*\.(md|rst)$`),
		regexp.MustCompile(`(?i)^docs?/adr/.*\.md$`),
		regexp.MustCompile(`(?i)^(docs?/)?design[^/]*\.(md|rst)$`),
	}
)

var headingPattern = regexp.MustCompile(`(?m)^#{1,3}\s+(.+)$`)

// Analyzer implements domain.Analyzer for documentation extraction. It works
// per repository and never crosses repository boundaries.
type Analyzer struct {
	reader domain.ContentReader
}

var _ domain.Analyzer = (*Analyzer)(nil)

// New creates a documentation analyzer reading files from the scan store.
func New(reader domain.ContentReader) *Analyzer {
	return &Analyzer{reader: reader}
}

func (a *Analyzer) Name() string { return "documentation" }

// Analyze attaches README, API, setup and architecture documentation to each
// record. The README is also split by headings so that sections like
// "## Installation" count as setup documentation.
func (a *Analyzer) Analyze(ctx context.Context, records []*domain.Record) {
	withReadme := 0
	for _, record := range records {
		a.collect(ctx, record)
		if record.Documentation.Readme != nil {
			withReadme++
		}
	}

	logger.Infof(
		"Documentation analysis: %d/%d repositories have a README",
		withReadme, len(records),
	)
}

func (a *Analyzer) collect(ctx context.Context, record *domain.Record) {
	a.collectReadme(ctx, record)

	for _, filePath := range record.AnalyzedFiles {
		switch {
		case matchesAny(apiDocPatterns, filePath):
			if content, ok := a.reader.FileContent(ctx, record, filePath); ok {
				record.AddAPIDoc(domain.DocRecord{Path: filePath, Content: content})
			}
		case matchesAny(setupDocPatterns, filePath):
			if content, ok := a.reader.FileContent(ctx, record, filePath); ok {
				record.AddSetupInstructions(domain.DocRecord{Path: filePath, Content: content})
			}
		case matchesAny(architectureDocPatterns, filePath):
			if content, ok := a.reader.FileContent(ctx, record, filePath); ok {
				record.AddArchitectureDoc(domain.DocRecord{Path: filePath, Content: content})
			}
		}
	}
}

// collectReadme resolves the README by name priority. README variants may
// sit outside the scan allow-list, so misses fall through to the provider
// via the content reader.
func (a *Analyzer) collectReadme(ctx context.Context, record *domain.Record) {
	for _, name := range readmeNames {
		content, ok := a.reader.FileContent(ctx, record, name)
		if !ok {
			continue
		}

		record.SetReadme(domain.DocRecord{Path: name, Content: content})
		splitReadmeSections(record, name, content)
		return
	}
}

// splitReadmeSections files README sections under the matching documentation
// kind based on their heading.
func splitReadmeSections(record *domain.Record, readmePath, content string) {
	headings := headingPattern.FindAllStringSubmatchIndex(content, -1)
	for i, loc := range headings {
		title := strings.TrimSpace(content[loc[2]:loc[3]])
		end := len(content)
		if i+1 < len(headings) {
			end = headings[i+1][0]
		}
		section := domain.DocRecord{
			Path:    readmePath + "#" + anchor(title),
			Content: strings.TrimSpace(content[loc[0]:end]),
		}

		lowered := strings.ToLower(title)
		switch {
		case strings.Contains(lowered, "api"):
			record.AddAPIDoc(section)
		case strings.Contains(lowered, "install"),
			strings.Contains(lowered, "setup"),
			strings.Contains(lowered, "getting started"):
			record.AddSetupInstructions(section)
		case strings.Contains(lowered, "architecture"),
			strings.Contains(lowered, "design"):
			record.AddArchitectureDoc(section)
		}
	}
}

func anchor(title string) string {
	lowered := strings.ToLower(strings.TrimSpace(title))
	return strings.ReplaceAll(lowered, " ", "-")
}

func matchesAny(patterns []*regexp.Regexp, filePath string) bool {
	cleaned := path.Clean(filePath)
	for _, pattern := range patterns {
		if pattern.MatchString(cleaned) {
			return true
		}
	}
	return false
}
