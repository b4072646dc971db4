// Package connection infers edges between repositories by matching the
// endpoints one repository exposes against the calls another repository
// makes, plus service-name references found in code and configuration.
package connection

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/repoatlas/domain"
)

// Token thresholds for service-name matching. Hyphen segments longer than
// minSegmentTokenLen become standalone tokens; tokens longer than
// minContainsTokenLen also match by containment in a captured service name
// or a URL host, shorter ones only by exact equality.
const (
	minSegmentTokenLen  = 3
	minContainsTokenLen = 5
)

// exposurePatterns match route declarations. A pattern with two capture
// groups yields (method, path); one group yields the path with the method
// sniffed from the matched text.
var exposurePatterns = []*regexp.Regexp{
	// Flask/FastAPI style decorators.
	regexp.MustCompile(`@(?:app|router|api|blueprint|bp)\.route\(\s*["']([^"']+)["']`),
	regexp.MustCompile(`@(?:app|router|api)\.(get|post|put|delete|patch)\(\s*["']([^"']+)["']`),
	// Express/Koa/Gin style registrations.
	regexp.MustCompile(`\b(?:app|router|server|r|e)\.(get|post|put|delete|patch)\(\s*["']([^"']+)["']`),
	// Spring annotations.
	regexp.MustCompile(`@(Get|Post|Put|Delete|Patch)Mapping\(\s*(?:value\s*=\s*)?["']([^"']+)["']`),
	regexp.MustCompile(`@RequestMapping\(\s*(?:value\s*=\s*)?["']([^"']+)["']`),
	// Django URL configs.
	regexp.MustCompile(`\b(?:path|re_path)\(\s*r?["']([^"']+)["']`),
	// net/http style registration.
	regexp.MustCompile(`\bHandle(?:Func)?\(\s*"([^"]+)"`),
}

// clientPatterns match outbound HTTP calls; the single capture group is the
// target URL or path. \x60 is a backtick (JS template literals).
var clientPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\brequests\.(?:get|post|put|delete|patch)\(\s*f?["']([^"']+)["']`),
	regexp.MustCompile(`\bhttpx\.(?:get|post|put|delete|patch)\(\s*f?["']([^"']+)["']`),
	regexp.MustCompile("\\bfetch\\(\\s*[\"'\x60]([^\"'\x60]+)[\"'\x60]"),
	regexp.MustCompile("\\baxios\\.(?:get|post|put|delete|patch)\\(\\s*[\"'\x60]([^\"'\x60]+)[\"'\x60]"),
	regexp.MustCompile(`\baxios\(\s*\{[^}]*url:\s*["']([^"']+)["']`),
	regexp.MustCompile(`\bhttp\.(?:Get|Post|Head)\(\s*"([^"]+)"`),
	regexp.MustCompile(`\b(?:restTemplate|webClient)\.[a-zA-Z]+\(\s*"([^"]+)"`),
	regexp.MustCompile(`\.open\(\s*["'](?:GET|POST|PUT|DELETE|PATCH)["']\s*,\s*["']([^"']+)["']`),
}

// servicePatterns capture explicit service references: compose keys, k8s
// Service manifests, env-var naming conventions, client-library imports.
// The single capture group is the referenced service name.
var servicePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^services:\s*\n\s+([\w-]+):`),
	regexp.MustCompile(`(?s)kind:\s*Service\b.*?name:\s*([\w-]+)`),
	regexp.MustCompile(`\b([A-Za-z][A-Za-z0-9_]*)_SERVICE_HOST\b`),
	regexp.MustCompile(`\b([A-Za-z][A-Za-z0-9_]*)_API_URL\b`),
	regexp.MustCompile(`\bfrom\s+([\w-]+)\.client\s+import\b`),
	regexp.MustCompile(`\brequire\(\s*['"]@[\w-]+/([\w-]+-service)['"]`),
	regexp.MustCompile(`\bservice[:\s]\s*['"]([\w-]+)['"]`),
	regexp.MustCompile(`\bServiceName[:\s]\s*['"]([\w-]+)['"]`),
}

var (
	digitsPattern = regexp.MustCompile(`^\d+$`)
	uuidPattern   = regexp.MustCompile(
		`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`,
	)
)

// codeExtensions limits endpoint and call extraction to source files.
var codeExtensions = []string{
	".py", ".js", ".jsx", ".ts", ".tsx", ".java", ".go", ".rb", ".php", ".cs",
}

// configMarkers flag configuration-oriented files; those join the code files
// for the service-reference pass only.
var configMarkers = []string{
	"docker", "kubernetes", "k8s", ".yml", ".yaml", ".env", "config",
}

// Analyzer implements domain.Analyzer over the scanned file contents.
type Analyzer struct {
	reader domain.ContentReader
}

var _ domain.Analyzer = (*Analyzer)(nil)

// New creates a connection analyzer reading file contents from the store
// filled during scanning.
func New(reader domain.ContentReader) *Analyzer {
	return &Analyzer{reader: reader}
}

func (a *Analyzer) Name() string { return "connections" }

type fileContent struct {
	path    string
	content string
}

type outboundCall struct {
	path       string // normalized
	sourceFile string
}

// Analyze extracts exposed endpoints and outbound calls from every record,
// then connects consumers to providers. Matched API calls land on the caller
// as "repositories" dependencies holding the endpoint owner's name; service
// name references land as "services" dependencies.
func (a *Analyzer) Analyze(ctx context.Context, records []*domain.Record) {
	contents := a.loadContents(ctx, records)

	calls := make(map[*domain.Record][]outboundCall, len(records))
	for _, record := range records {
		code := codeOnly(contents[record])
		extractEndpoints(record, code)
		calls[record] = extractCalls(code)
	}

	index := buildEndpointIndex(records)
	edges := 0
	for _, consumer := range records {
		edges += matchCalls(consumer, calls[consumer], index)
		edges += matchServiceNames(consumer, records, contents[consumer])
	}

	logger.Infof(
		"Connection analysis: %d service edges across %d repositories",
		edges, len(records),
	)
}

func (a *Analyzer) loadContents(
	ctx context.Context,
	records []*domain.Record,
) map[*domain.Record][]fileContent {
	contents := make(map[*domain.Record][]fileContent, len(records))
	for _, record := range records {
		for _, path := range record.AnalyzedFiles {
			if !isCodeFile(path) && !isConfigFile(path) {
				continue
			}
			content, ok := a.reader.FileContent(ctx, record, path)
			if !ok {
				continue
			}
			contents[record] = append(contents[record], fileContent{
				path:    path,
				content: content,
			})
		}
	}
	return contents
}

func isCodeFile(path string) bool {
	for _, ext := range codeExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

func isConfigFile(path string) bool {
	lowered := strings.ToLower(path)
	for _, marker := range configMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

func codeOnly(files []fileContent) []fileContent {
	var out []fileContent
	for _, file := range files {
		if isCodeFile(file.path) {
			out = append(out, file)
		}
	}
	return out
}

// extractEndpoints records every route declaration found in the files.
func extractEndpoints(record *domain.Record, files []fileContent) {
	for _, file := range files {
		for _, pattern := range exposurePatterns {
			for _, match := range pattern.FindAllStringSubmatch(file.content, -1) {
				method, rawPath := splitMatch(pattern, match)
				if !plausibleEndpoint(rawPath) {
					continue
				}
				record.AddAPIEndpoint(normalizePath(rawPath), method, file.path)
			}
		}
	}
}

// splitMatch applies the capture-group convention: two groups are
// (method, path), one group is the path with the method sniffed from the
// matched text.
func splitMatch(pattern *regexp.Regexp, match []string) (method, path string) {
	if pattern.NumSubexp() >= 2 {
		return strings.ToUpper(match[1]), match[2]
	}
	return sniffMethod(match[0]), match[1]
}

func sniffMethod(matched string) string {
	lowered := strings.ToLower(matched)
	for _, m := range []string{"post", "put", "delete", "patch"} {
		if strings.Contains(lowered, m) {
			return strings.ToUpper(m)
		}
	}
	return "GET"
}

// plausibleEndpoint filters out matches that are clearly not HTTP paths,
// e.g. Django's regex-heavy route strings or bare format strings.
func plausibleEndpoint(path string) bool {
	if path == "" || strings.HasPrefix(path, "^") {
		return false
	}
	return strings.Contains(path, "/") || !strings.ContainsAny(path, " \t")
}

func extractCalls(files []fileContent) []outboundCall {
	var calls []outboundCall
	for _, file := range files {
		for _, pattern := range clientPatterns {
			for _, match := range pattern.FindAllStringSubmatch(file.content, -1) {
				target := pathOfURL(match[1])
				if target == "" {
					continue
				}
				calls = append(calls, outboundCall{
					path:       normalizePath(target),
					sourceFile: file.path,
				})
			}
		}
	}
	return calls
}

// pathOfURL strips the scheme and host from an absolute URL, keeping only
// the request path. Relative targets pass through unchanged.
func pathOfURL(target string) string {
	target = strings.TrimSpace(target)
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		rest := target[strings.Index(target, "://")+3:]
		slash := strings.Index(rest, "/")
		if slash < 0 {
			return ""
		}
		return rest[slash:]
	}
	return target
}

// normalizePath canonicalizes an endpoint path so that the same route
// written with different placeholder syntaxes compares equal: `/users/42`,
// `/users/{id}`, `/users/<int:id>` and `/users/:id` all become
// `/users/:param`. Normalizing twice is a no-op.
func normalizePath(path string) string {
	path = strings.TrimSpace(path)
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimRight(path, "/")
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	segments := strings.Split(path, "/")
	for i, segment := range segments {
		if segment != "" && isParamSegment(segment) {
			segments[i] = ":param"
		}
	}
	return strings.Join(segments, "/")
}

func isParamSegment(segment string) bool {
	switch {
	case segment == ":param",
		strings.HasPrefix(segment, ":"),
		strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}"),
		strings.HasPrefix(segment, "<") && strings.HasSuffix(segment, ">"),
		strings.HasPrefix(segment, "$"):
		return true
	case digitsPattern.MatchString(segment):
		return true
	case uuidPattern.MatchString(segment):
		return true
	}
	if _, err := strconv.Atoi(segment); err == nil {
		return true
	}
	return false
}

// buildEndpointIndex maps each normalized endpoint path to the records
// exposing it.
func buildEndpointIndex(records []*domain.Record) map[string][]*domain.Record {
	index := make(map[string][]*domain.Record)
	for _, record := range records {
		seen := map[string]bool{}
		for _, api := range record.APIs {
			if seen[api.Path] {
				continue
			}
			seen[api.Path] = true
			index[api.Path] = append(index[api.Path], record)
		}
	}
	return index
}

// matchCalls connects a consumer's outbound calls to exposing repositories.
// Matching is tiered; the first tier that produces owners wins for a given
// call, so an exact hit never degrades into a looser containment match.
// Matches record the endpoint owner's name on the caller's "repositories"
// dependency set.
func matchCalls(
	consumer *domain.Record,
	calls []outboundCall,
	index map[string][]*domain.Record,
) int {
	edges := 0
	for _, call := range calls {
		owners := index[call.path]

		if len(owners) == 0 {
			// A gateway often wraps a service's route in extra path
			// segments; containment catches that when either side carries
			// the /api marker.
			for endpoint, candidates := range index {
				if apiContained(endpoint, call.path) {
					owners = append(owners, candidates...)
				}
			}
		}

		if len(owners) == 0 {
			stripped := strings.TrimPrefix(call.path, "/api")
			for endpoint, candidates := range index {
				if strings.TrimPrefix(endpoint, "/api") == stripped && endpoint != call.path {
					owners = append(owners, candidates...)
				}
			}
		}

		for _, owner := range owners {
			if owner == consumer {
				continue
			}
			before := len(consumer.Dependencies[domain.DependencyRepositories])
			consumer.AddDependency(domain.DependencyRepositories, owner.Name)
			if len(consumer.Dependencies[domain.DependencyRepositories]) > before {
				edges++
				logger.Debugf(
					"%s calls %s (%s in %s)",
					consumer.Path, owner.Path, call.path, call.sourceFile,
				)
			}
		}
	}
	return edges
}

// apiContained reports whether one path contains the other while at least
// one of them starts with the /api marker. Equal paths belong to the exact
// tier, not here.
func apiContained(endpoint, clientPath string) bool {
	if endpoint == clientPath {
		return false
	}
	if !strings.HasPrefix(endpoint, "/api") && !strings.HasPrefix(clientPath, "/api") {
		return false
	}
	return strings.Contains(clientPath, endpoint) || strings.Contains(endpoint, clientPath)
}

// matchServiceNames connects a consumer to any repository whose name is
// referenced by the consumer's code or configuration: through a service
// idiom (compose key, k8s Service, env var, client import) or inside a URL.
// Matches record the provider's name on the "services" dependency set.
func matchServiceNames(
	consumer *domain.Record,
	records []*domain.Record,
	files []fileContent,
) int {
	refs := capturedServiceNames(files)

	edges := 0
	for _, provider := range records {
		if provider == consumer {
			continue
		}
		if !referencesService(provider.Name, refs, files) {
			continue
		}
		before := len(consumer.Dependencies[domain.DependencyServices])
		consumer.AddDependency(domain.DependencyServices, provider.Name)
		if len(consumer.Dependencies[domain.DependencyServices]) > before {
			edges++
		}
	}
	return edges
}

// capturedServiceNames collects every service name the idiom patterns find,
// lowercased, plus a hyphenated spelling for env-var style captures.
func capturedServiceNames(files []fileContent) map[string]bool {
	names := map[string]bool{}
	for _, file := range files {
		for _, pattern := range servicePatterns {
			for _, match := range pattern.FindAllStringSubmatch(file.content, -1) {
				name := strings.ToLower(match[1])
				names[name] = true
				if hyphenated := strings.ReplaceAll(name, "_", "-"); hyphenated != name {
					names[hyphenated] = true
				}
			}
		}
	}
	return names
}

// referencesService reports whether any of the repository's name tokens is
// referenced: equal to a captured service name, contained in one (for
// distinctive tokens), or showing up in a URL host.
func referencesService(
	name string,
	refs map[string]bool,
	files []fileContent,
) bool {
	for _, token := range serviceTokens(name) {
		for ref := range refs {
			if ref == token {
				return true
			}
			if len(token) > minContainsTokenLen && strings.Contains(ref, token) {
				return true
			}
		}
		if len(token) > minContainsTokenLen && urlMentions(token, files) {
			return true
		}
	}
	return false
}

func urlMentions(token string, files []fileContent) bool {
	urlRef := regexp.MustCompile(
		`https?://[a-z0-9.-]*` + regexp.QuoteMeta(token),
	)
	for _, file := range files {
		if urlRef.MatchString(strings.ToLower(file.content)) {
			return true
		}
	}
	return false
}

// genericSegments are name parts too common to identify a service on their
// own; "payment-service" must not match every other "*-service" repository.
var genericSegments = map[string]bool{
	"service": true, "server": true, "client": true, "backend": true,
	"frontend": true, "common": true, "shared": true, "core": true,
}

// serviceTokens derives the lookup tokens for a repository name: the full
// lowercased name plus each hyphen/underscore segment long enough to be
// distinctive.
func serviceTokens(name string) []string {
	lowered := strings.ToLower(name)
	tokens := []string{lowered}
	for _, segment := range strings.FieldsFunc(lowered, func(r rune) bool {
		return r == '-' || r == '_'
	}) {
		if len(segment) > minSegmentTokenLen && segment != lowered &&
			!genericSegments[segment] {
			tokens = append(tokens, segment)
		}
	}
	return tokens
}
