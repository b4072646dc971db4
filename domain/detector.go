package domain

// Detector inspects one file's content and records technology observations.
// Detect must never fail: internal problems are swallowed and treated as "no
// observation". Detectors only add observations (via the record's merge
// rule), never remove or read back what other detectors wrote, so invocation
// order across detectors is irrelevant.
type Detector interface {
	// Name returns the detector identifier (e.g. "frontend").
	Name() string

	// Detect inspects content of the file at path and adds any technology
	// observations to the record.
	Detect(record *Record, content, path string)
}
