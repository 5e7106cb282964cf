package fetcher

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Watch runs the standalone check on an interval until ctx is cancelled,
// instead of exiting after one pass. Fatal errors do not stop the watch;
// they are logged and retried on the next tick, since a transiently
// unreadable root should not take the staple refresher down. The returned
// error reflects the final pass, so a supervisor restarting on non-zero
// exit status still notices persistent failure.
func (f *Fetcher) Watch(ctx context.Context, interval time.Duration) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}

	var lastPassFailed atomic.Bool
	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			report, err := f.Run()
			if err != nil {
				f.log.Errf("staple check failed: %s", err)
				lastPassFailed.Store(true)
				return
			}
			lastPassFailed.Store(report.Failed())
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("scheduling staple check: %w", err)
	}

	f.log.Infof("watching lineages under %s every %s", f.rootDir, interval)
	sched.Start()
	<-ctx.Done()

	err = sched.Shutdown()
	if err != nil {
		return fmt.Errorf("shutting down scheduler: %w", err)
	}
	if lastPassFailed.Load() {
		return fmt.Errorf("most recent staple check failed")
	}
	return nil
}
