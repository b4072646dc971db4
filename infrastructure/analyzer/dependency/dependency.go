// Package dependency extracts declared dependencies from manifest files and
// links repositories that depend on each other's published packages.
package dependency

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"path"
	"regexp"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	logger "github.com/sirupsen/logrus"
	"github.com/zclconf/go-cty/cty"
	"golang.org/x/mod/modfile"

	"github.com/rios0rios0/repoatlas/domain"
)

// Analyzer implements domain.Analyzer over manifest files collected during
// the scan.
type Analyzer struct {
	reader domain.ContentReader
}

var _ domain.Analyzer = (*Analyzer)(nil)

// New creates a dependency analyzer reading manifests from the scan store.
func New(reader domain.ContentReader) *Analyzer {
	return &Analyzer{reader: reader}
}

func (a *Analyzer) Name() string { return "dependencies" }

// Analyze parses every recognized manifest in every record, stores the
// declared package names as "imports" dependencies with per-ecosystem
// totals on the record, then cross-links repositories whose names appear
// inside another repository's imports as "packages" dependencies.
func (a *Analyzer) Analyze(ctx context.Context, records []*domain.Record) {
	perEcosystem := map[string]int{}

	for _, record := range records {
		for _, filePath := range record.AnalyzedFiles {
			parse, ecosystem := parserFor(filePath)
			if parse == nil {
				continue
			}

			content, ok := a.reader.FileContent(ctx, record, filePath)
			if !ok {
				continue
			}

			names := parse(content)
			for _, name := range names {
				record.AddDependency(domain.DependencyImports, name)
			}
			record.CountDependencies(ecosystem, len(names))
			perEcosystem[ecosystem] += len(names)
		}
	}

	for ecosystem, total := range perEcosystem {
		logger.Debugf("Parsed %d %s dependencies", total, ecosystem)
	}

	linked := crossLink(records)
	logger.Infof(
		"Dependency analysis: %d cross-repository links across %d repositories",
		linked, len(records),
	)
}

type parseFunc func(content string) []string

// parserFor picks the manifest parser by file name. Non-manifest files get
// a nil parser.
func parserFor(filePath string) (parseFunc, string) {
	base := path.Base(filePath)
	switch {
	case base == "requirements.txt" || strings.HasPrefix(base, "requirements-") && strings.HasSuffix(base, ".txt"):
		return parseRequirements, "python"
	case base == "package.json":
		return parsePackageJSON, "node"
	case base == "composer.json":
		return parseComposerJSON, "php"
	case base == "pom.xml":
		return parsePomXML, "maven"
	case base == "build.gradle" || base == "build.gradle.kts":
		return parseGradle, "gradle"
	case base == "Gemfile":
		return parseGemfile, "ruby"
	case base == "go.mod":
		return parseGoMod, "go"
	case strings.HasSuffix(base, ".tf"):
		return parseTerraform, "terraform"
	}
	return nil, ""
}

var requirementPattern = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9_.-]*)`)

func parseRequirements(content string) []string {
	var names []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		if m := requirementPattern.FindStringSubmatch(line); m != nil {
			names = append(names, m[1])
		}
	}
	return names
}

func parsePackageJSON(content string) []string {
	var manifest struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal([]byte(content), &manifest); err != nil {
		return nil
	}

	var names []string
	for name := range manifest.Dependencies {
		names = append(names, name)
	}
	for name := range manifest.DevDependencies {
		names = append(names, name)
	}
	return names
}

func parseComposerJSON(content string) []string {
	var manifest struct {
		Require    map[string]string `json:"require"`
		RequireDev map[string]string `json:"require-dev"`
	}
	if err := json.Unmarshal([]byte(content), &manifest); err != nil {
		return nil
	}

	var names []string
	for name := range manifest.Require {
		if name == "php" || strings.HasPrefix(name, "ext-") {
			continue
		}
		names = append(names, name)
	}
	for name := range manifest.RequireDev {
		names = append(names, name)
	}
	return names
}

func parsePomXML(content string) []string {
	var project struct {
		Dependencies struct {
			Dependency []struct {
				GroupID    string `xml:"groupId"`
				ArtifactID string `xml:"artifactId"`
			} `xml:"dependency"`
		} `xml:"dependencies"`
	}
	if err := xml.Unmarshal([]byte(content), &project); err != nil {
		return nil
	}

	var names []string
	for _, dep := range project.Dependencies.Dependency {
		if dep.ArtifactID == "" {
			continue
		}
		names = append(names, dep.ArtifactID)
	}
	return names
}

var gradlePattern = regexp.MustCompile(
	`(?m)\b(?:implementation|api|compileOnly|runtimeOnly|testImplementation)\s*[\(\s]\s*['"]([^'"]+)['"]`,
)

func parseGradle(content string) []string {
	var names []string
	for _, m := range gradlePattern.FindAllStringSubmatch(content, -1) {
		coordinate := m[1]
		// group:artifact:version -> artifact
		parts := strings.Split(coordinate, ":")
		if len(parts) >= 2 {
			names = append(names, parts[1])
		} else {
			names = append(names, coordinate)
		}
	}
	return names
}

var gemPattern = regexp.MustCompile(`(?m)^\s*gem\s+['"]([^'"]+)['"]`)

func parseGemfile(content string) []string {
	var names []string
	for _, m := range gemPattern.FindAllStringSubmatch(content, -1) {
		names = append(names, m[1])
	}
	return names
}

// parseGoMod uses the real go.mod parser; indirect requirements are noise
// for cross-linking and are skipped.
func parseGoMod(content string) []string {
	file, err := modfile.Parse("go.mod", []byte(content), nil)
	if err != nil {
		return nil
	}

	var names []string
	for _, req := range file.Require {
		if req.Indirect {
			continue
		}
		names = append(names, req.Mod.Path)
	}
	return names
}

var terraformFallbackPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^\s*source\s*=\s*"([^"]+)"`),
	regexp.MustCompile(`(?m)^\s*provider\s+"([^"]+)"`),
}

// parseTerraform extracts module sources and provider names. HCL parsing is
// attempted first; files that do not parse (templated or partial snippets)
// fall back to line patterns.
func parseTerraform(content string) []string {
	parser := hclparse.NewParser()

	file, diags := parser.ParseHCL([]byte(content), "main.tf")
	if diags.HasErrors() || file == nil || file.Body == nil {
		return parseTerraformFallback(content)
	}

	bodyContent, _, partialDiags := file.Body.PartialContent(&hcl.BodySchema{
		Blocks: []hcl.BlockHeaderSchema{
			{Type: "module", LabelNames: []string{"name"}},
			{Type: "provider", LabelNames: []string{"name"}},
		},
	})
	if partialDiags.HasErrors() {
		return parseTerraformFallback(content)
	}

	var names []string
	for _, block := range bodyContent.Blocks {
		switch block.Type {
		case "provider":
			if len(block.Labels) > 0 {
				names = append(names, block.Labels[0])
			}
		case "module":
			attrs, _ := block.Body.JustAttributes()
			sourceAttr, hasSource := attrs["source"]
			if !hasSource {
				continue
			}

			sourceVal, sourceDiags := sourceAttr.Expr.Value(&hcl.EvalContext{})
			if sourceDiags.HasErrors() || sourceVal.Type() != cty.String {
				continue
			}
			names = append(names, sourceVal.AsString())
		}
	}

	return names
}

func parseTerraformFallback(content string) []string {
	var names []string
	for _, pattern := range terraformFallbackPatterns {
		for _, m := range pattern.FindAllStringSubmatch(content, -1) {
			names = append(names, m[1])
		}
	}
	return names
}

// minLinkNameLen guards cross-linking against short repository names that
// would match half the dependency universe.
const minLinkNameLen = 4

// crossLink adds a "packages" dependency from consumer to provider when any
// of the provider's name variants appears inside one of the consumer's
// imported package names. "acme-billing-client" links its consumer to the
// "billing" repository. The "repositories" kind stays reserved for matched
// API calls.
func crossLink(records []*domain.Record) int {
	linked := 0
	for _, consumer := range records {
		imports := consumer.Dependencies[domain.DependencyImports]
		if len(imports) == 0 {
			continue
		}

		for _, provider := range records {
			if provider == consumer {
				continue
			}
			if !importsMention(imports, nameVariants(provider.Name)) {
				continue
			}
			before := len(consumer.Dependencies[domain.DependencyPackages])
			consumer.AddDependency(domain.DependencyPackages, provider.Path)
			if len(consumer.Dependencies[domain.DependencyPackages]) > before {
				linked++
			}
		}
	}
	return linked
}

func importsMention(imports, variants []string) bool {
	for _, imported := range imports {
		lowered := strings.ToLower(imported)
		for _, variant := range variants {
			if strings.Contains(lowered, variant) {
				return true
			}
		}
	}
	return false
}

// nameVariants returns the lowercase spellings a repository's package might
// be published under: hyphenated and underscored forms of the name.
func nameVariants(name string) []string {
	lowered := strings.ToLower(name)
	if len(lowered) < minLinkNameLen {
		return nil
	}

	variants := []string{lowered}
	if hyphenated := strings.ReplaceAll(lowered, "_", "-"); hyphenated != lowered {
		variants = append(variants, hyphenated)
	}
	if underscored := strings.ReplaceAll(lowered, "-", "_"); underscored != lowered {
		variants = append(variants, underscored)
	}
	return variants
}
