package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/repoatlas/config"
	"github.com/rios0rios0/repoatlas/domain"
)

// FailureReason classifies why a repository scan produced no record.
type FailureReason string

const (
	FailureNotFound  FailureReason = "not_found"
	FailureTimeout   FailureReason = "timeout"
	FailureRetrieval FailureReason = "retrieval_error"
	FailureCancelled FailureReason = "cancelled"
)

// ScanFailure describes one repository that was dropped from the result set.
type ScanFailure struct {
	Project domain.ProjectHandle
	Reason  FailureReason
	Err     error
	Elapsed time.Duration
}

// ScanResult is the outcome of one orchestration pass: the completed records
// (order not significant) plus the failure list for the run summary.
type ScanResult struct {
	Records   []*domain.Record
	Failures  []ScanFailure
	Attempted int
}

// Succeeded returns the number of repositories that produced a record.
func (r *ScanResult) Succeeded() int { return len(r.Records) }

// Scanner drives per-repository retrieval and detection under bounded
// parallelism. Repositories are scanned concurrently; within one repository
// files are processed sequentially, so detector mutations on a record are
// deterministic and never race.
type Scanner struct {
	provider   domain.Provider
	detectors  []domain.Detector
	contents   *ContentStore
	maxWorkers int
	timeout    time.Duration
	extensions []string
}

// NewScanner creates a scanner from the scanning config (already clamped by
// the config loader).
func NewScanner(
	provider domain.Provider,
	detectors []domain.Detector,
	cfg config.ScanningConfig,
) *Scanner {
	return &Scanner{
		provider:   provider,
		detectors:  detectors,
		contents:   NewContentStore(provider),
		maxWorkers: cfg.ConcurrentScans,
		timeout:    time.Duration(cfg.TimeoutSeconds) * time.Second,
		extensions: cfg.FileExtensions,
	}
}

// Contents returns the store of file contents collected so far, shared with
// the cross-repository analyzers after the scan barrier.
func (s *Scanner) Contents() *ContentStore { return s.contents }

// Scan processes every handle through a fixed-size worker pool and collects
// completed records. It always returns, regardless of how many repositories
// fail; failures are reported in the result, never raised.
func (s *Scanner) Scan(
	ctx context.Context,
	projects []domain.ProjectHandle,
) *ScanResult {
	result := &ScanResult{Attempted: len(projects)}
	if len(projects) == 0 {
		return result
	}

	workers := s.maxWorkers
	if workers > len(projects) {
		workers = len(projects)
	}
	if workers < 1 {
		workers = 1
	}

	logger.Infof(
		"Scanning %d repositories with %d workers (timeout %s per repository)",
		len(projects), workers, s.timeout,
	)

	type outcome struct {
		record  *domain.Record
		failure *ScanFailure
	}

	jobs := make(chan domain.ProjectHandle)
	outcomes := make(chan outcome)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for handle := range jobs {
				record, failure := s.scanWithTimeout(ctx, handle)
				outcomes <- outcome{record: record, failure: failure}
			}
		}()
	}

	go func() {
		for _, p := range projects {
			jobs <- p
		}
		close(jobs)
		wg.Wait()
		close(outcomes)
	}()

	// Single collector: the only writer to the result accumulator.
	completed := 0
	for out := range outcomes {
		completed++
		if out.failure != nil {
			f := out.failure
			result.Failures = append(result.Failures, *f)
			if f.Reason == FailureNotFound {
				logger.Debugf(
					"[%d/%d] skipped %s: not found",
					completed, len(projects), f.Project.Path,
				)
			} else {
				logger.Warnf(
					"[%d/%d] failed %s after %s: %v",
					completed, len(projects), f.Project.Path,
					f.Elapsed.Round(time.Millisecond), f.Err,
				)
			}
			continue
		}

		result.Records = append(result.Records, out.record)
		logger.Infof(
			"[%d/%d] scanned %s (%d files analyzed)",
			completed, len(projects), out.record.Path,
			len(out.record.AnalyzedFiles),
		)
	}

	logger.Infof(
		"Scan complete: %d/%d repositories succeeded, %d failed",
		result.Succeeded(), result.Attempted, len(result.Failures),
	)
	return result
}

// scanWithTimeout races one repository scan against its wall-clock budget.
// On expiry the in-flight work is abandoned: its late result is discarded
// when it arrives and is never attached to the result set.
func (s *Scanner) scanWithTimeout(
	ctx context.Context,
	handle domain.ProjectHandle,
) (*domain.Record, *ScanFailure) {
	scanCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type scanOutcome struct {
		record *domain.Record
		files  map[string]string
		err    error
	}
	done := make(chan scanOutcome, 1)
	start := time.Now()

	go func() {
		record, files, err := s.scanProject(scanCtx, handle)
		done <- scanOutcome{record: record, files: files, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return nil, s.classifyFailure(handle, out.err, time.Since(start))
		}
		s.contents.Commit(out.record.ID, out.files)
		return out.record, nil
	case <-scanCtx.Done():
		reason := FailureTimeout
		failureErr := fmt.Errorf("%w after %s", domain.ErrTimeout, s.timeout)
		if ctx.Err() != nil {
			reason = FailureCancelled
			failureErr = ctx.Err()
		}
		return nil, &ScanFailure{
			Project: handle,
			Reason:  reason,
			Err:     failureErr,
			Elapsed: time.Since(start),
		}
	}
}

// scanProject fetches the tree, filters by the extension allow-list, and
// runs every detector over each fetched file, in order. File-level
// retrieval errors skip only that file.
func (s *Scanner) scanProject(
	ctx context.Context,
	handle domain.ProjectHandle,
) (*domain.Record, map[string]string, error) {
	details, err := s.provider.GetProjectDetails(ctx, handle)
	if err != nil {
		return nil, nil, err
	}

	record := domain.NewRecord(details)

	tree, err := s.provider.GetProjectTree(ctx, details)
	if err != nil {
		return nil, nil, err
	}

	files := make(map[string]string)
	for _, path := range tree {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		if !s.allowedExtension(path) {
			continue
		}

		raw, fetchErr := s.provider.GetFileContent(ctx, details, path)
		if fetchErr != nil {
			if domain.IsNotFound(fetchErr) {
				continue
			}
			logger.Warnf(
				"Failed to fetch %s from %s: %v", path, details.Path, fetchErr,
			)
			continue
		}

		content := cleanContent(raw)
		s.processFile(record, content, path)
		record.AnalyzedFiles = append(record.AnalyzedFiles, path)
		files[path] = content
	}

	record.Scanned = true
	return record, files, nil
}

func (s *Scanner) processFile(record *domain.Record, content, path string) {
	for _, d := range s.detectors {
		detect(d, record, content, path)
	}
}

// detect shields the scan from a misbehaving detector: the contract says
// detectors never fail, so a panic is downgraded to "no observation".
func detect(d domain.Detector, record *domain.Record, content, path string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warnf("Detector %q panicked on %s: %v", d.Name(), path, r)
		}
	}()
	d.Detect(record, content, path)
}

func (s *Scanner) classifyFailure(
	handle domain.ProjectHandle,
	err error,
	elapsed time.Duration,
) *ScanFailure {
	reason := FailureRetrieval
	switch {
	case domain.IsNotFound(err):
		reason = FailureNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, domain.ErrTimeout):
		reason = FailureTimeout
	case errors.Is(err, context.Canceled):
		reason = FailureCancelled
	}
	return &ScanFailure{
		Project: handle,
		Reason:  reason,
		Err:     err,
		Elapsed: elapsed,
	}
}

func (s *Scanner) allowedExtension(path string) bool {
	for _, ext := range s.extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// cleanContent replaces invalid UTF-8 sequences so pattern matching never
// sees raw bytes. Decoding is permissive by contract: it never fails.
func cleanContent(content string) string {
	if utf8.ValidString(content) {
		return content
	}
	return strings.ToValidUTF8(content, "")
}
