package backup

import "time"

// StoreResult records the outcome of one store's backup within a cycle.
// Immutable once appended to a Run.
type StoreResult struct {
	Store      string        `json:"store"`
	Success    bool          `json:"success"`
	Path       string        `json:"path,omitempty"`
	Error      string        `json:"error,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration_ms"`
	SizeBytes  int64         `json:"size_bytes,omitempty"`
	SweptCount int           `json:"swept_count"`
}

// Run is one backup cycle. It lives only in process memory and the cycle
// metadata file; the durable record is the artifact filesystem itself.
type Run struct {
	ID        string        `json:"run_id"`
	StartedAt time.Time     `json:"started_at"`
	Results   []StoreResult `json:"results"`
}

// Succeeded counts stores that produced an artifact.
func (r *Run) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.Success {
			n++
		}
	}
	return n
}

// Failed counts stores whose backup failed.
func (r *Run) Failed() int { return len(r.Results) - r.Succeeded() }

// AllFailed reports total failure: every configured store failed. The
// coordinator exits non-zero only in this case, to surface the condition to
// an external scheduler.
func (r *Run) AllFailed() bool {
	return len(r.Results) > 0 && r.Succeeded() == 0
}
