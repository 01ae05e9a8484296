package relay

import (
	"math/rand"
	"time"
)

// backoff computes a capped exponential backoff delay with jitter for
// retry attempt n (0-indexed): base 500ms, factor 2, ceiling 30s, matching
// the teacher's hand-rolled retry loops (pkg/batch/bpt_extractor.go) rather
// than a dependency — this is a five-line helper, not a concern worth a
// library.
const (
	backoffBase    = 500 * time.Millisecond
	backoffCeiling = 30 * time.Second
)

func backoffDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := backoffBase
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= backoffCeiling {
			d = backoffCeiling
			break
		}
	}
	jitter := time.Duration(rand.Int63n(int64(d) / 4))
	return d + jitter
}
