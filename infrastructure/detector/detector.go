// Package detector holds the technology signature tables and the pattern
// matcher that applies them to scanned files. The tables are static data:
// they are compiled once at construction and treated as read-only.
package detector

import (
	"path"
	"regexp"
	"strings"

	"github.com/rios0rios0/repoatlas/config"
	"github.com/rios0rios0/repoatlas/domain"
)

const defaultConfidence = 1.0

// Rule is one technology signature: literal substrings (matched
// case-insensitively), regular expressions, and an optional version-capture
// expression.
type Rule struct {
	Name           string
	Confidence     float64 // defaults to 1.0 when zero
	Substrings     []string
	Patterns       []string
	VersionPattern string // first capture group is the version
}

type compiledRule struct {
	name       string
	confidence float64
	substrings []string // lowercased
	patterns   []*regexp.Regexp
	version    *regexp.Regexp
}

// PatternDetector implements domain.Detector over a rule table. Detect never
// fails: signatures that cannot be compiled are dropped at construction.
type PatternDetector struct {
	name         string
	category     domain.Category
	filePatterns []string
	rules        []compiledRule
}

var _ domain.Detector = (*PatternDetector)(nil)

// New builds a detector from a rule table. Invalid regular expressions are
// skipped so a bad table entry can never take down a scan.
func New(
	name string,
	category domain.Category,
	filePatterns []string,
	rules []Rule,
) *PatternDetector {
	compiled := make([]compiledRule, 0, len(rules))
	for _, rule := range rules {
		cr := compiledRule{
			name:       rule.Name,
			confidence: rule.Confidence,
		}
		if cr.confidence == 0 {
			cr.confidence = defaultConfidence
		}

		for _, s := range rule.Substrings {
			cr.substrings = append(cr.substrings, strings.ToLower(s))
		}
		for _, p := range rule.Patterns {
			if re, err := regexp.Compile(p); err == nil {
				cr.patterns = append(cr.patterns, re)
			}
		}
		if rule.VersionPattern != "" {
			if re, err := regexp.Compile(rule.VersionPattern); err == nil {
				cr.version = re
			}
		}

		compiled = append(compiled, cr)
	}

	return &PatternDetector{
		name:         name,
		category:     category,
		filePatterns: filePatterns,
		rules:        compiled,
	}
}

// NewCustom builds a detector from a user-supplied config pattern.
func NewCustom(p config.CustomPattern) *PatternDetector {
	category := domain.Category(p.Category)
	if category == "" {
		category = domain.Category("custom")
	}

	var filePatterns []string
	if p.FilePattern != "" && p.FilePattern != "*" {
		filePatterns = []string{p.FilePattern}
	}

	return New("custom:"+p.Name, category, filePatterns, []Rule{{
		Name:       p.Name,
		Substrings: []string{p.ContentPattern},
	}})
}

func (d *PatternDetector) Name() string { return d.name }

// Category returns the technology category this detector reports under.
func (d *PatternDetector) Category() domain.Category { return d.category }

// Detect applies every rule to the file and records one observation per
// matched technology, merged through the record's dedup rule.
func (d *PatternDetector) Detect(record *domain.Record, content, filePath string) {
	if !d.matchesFile(filePath) {
		return
	}

	lowered := strings.ToLower(content)
	for _, rule := range d.rules {
		if !rule.matches(content, lowered) {
			continue
		}

		obs := domain.TechnologyObservation{
			Name:       rule.name,
			Confidence: rule.confidence,
			DetectedIn: filePath,
		}
		if rule.version != nil {
			if m := rule.version.FindStringSubmatch(content); len(m) > 1 {
				obs.Version = m[1]
			}
		}

		record.AddTechnology(d.category, obs)
	}
}

func (r *compiledRule) matches(content, lowered string) bool {
	for _, s := range r.substrings {
		if strings.Contains(lowered, s) {
			return true
		}
	}
	for _, re := range r.patterns {
		if re.MatchString(content) {
			return true
		}
	}
	return false
}

// matchesFile checks the file against the detector's glob list; an empty
// list means every file is inspected.
func (d *PatternDetector) matchesFile(filePath string) bool {
	if len(d.filePatterns) == 0 {
		return true
	}

	base := path.Base(filePath)
	for _, pattern := range d.filePatterns {
		if ok, _ := path.Match(pattern, base); ok {
			return true
		}
		// Patterns with a directory component match the full path suffix,
		// e.g. ".github/workflows/*".
		if strings.Contains(pattern, "/") {
			if ok, _ := path.Match(pattern, filePath); ok {
				return true
			}
			if strings.HasSuffix(pattern, "/*") &&
				strings.Contains(filePath, strings.TrimSuffix(pattern, "*")) {
				return true
			}
		}
	}
	return false
}

// FromConfig builds the enabled detector set, built-ins first, then any
// custom patterns.
func FromConfig(cfg config.DetectorsConfig) []domain.Detector {
	var detectors []domain.Detector

	if config.Enabled(cfg.Frontend) {
		detectors = append(detectors, NewFrontend())
	}
	if config.Enabled(cfg.Backend) {
		detectors = append(detectors, NewBackend())
	}
	if config.Enabled(cfg.Database) {
		detectors = append(detectors, NewDatabase())
	}
	if config.Enabled(cfg.Infrastructure) {
		detectors = append(detectors, NewInfrastructure())
	}
	if config.Enabled(cfg.CICD) {
		detectors = append(detectors, NewCICD())
	}

	for _, p := range cfg.CustomPatterns {
		detectors = append(detectors, NewCustom(p))
	}

	return detectors
}
