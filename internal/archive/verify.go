package archive

import (
	"context"
	"slices"
	"sync"

	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"
)

// VerifyReport is the result of checking every file in an archive.
type VerifyReport struct {
	Checked int
	Failed  map[string]error
}

// OK reports whether every file verified.
func (r *VerifyReport) OK() bool {
	return len(r.Failed) == 0
}

// FailedPaths returns the paths that failed, sorted.
func (r *VerifyReport) FailedPaths() []string {
	paths := lo.Keys(r.Failed)
	slices.Sort(paths)
	return paths
}

// Verify reads every file in the tree and checks its checksum, using up to
// workers goroutines. Per-file failures are recorded in the report; the
// returned error is only set if ctx is cancelled.
func (l *Loaded) Verify(ctx context.Context, workers int) (*VerifyReport, error) {
	report := &VerifyReport{Failed: make(map[string]error)}
	var mu sync.Mutex

	p := pool.New().WithMaxGoroutines(max(workers, 1)).WithContext(ctx)
	for _, path := range l.Files() {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}

			_, _, err := l.GetFile(path)

			mu.Lock()
			defer mu.Unlock()
			report.Checked++
			if err != nil {
				report.Failed[path] = err
			}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	l.archive.logger.Info("verified archive",
		"checked", report.Checked,
		"failed", len(report.Failed),
	)
	return report, nil
}
