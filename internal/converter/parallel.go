package converter

import (
	"context"
	"sync"

	"github.com/tunebridge/tunebridge/internal/models"
	"golang.org/x/time/rate"
)

const (
	defaultWorkers   = 5
	maxWorkers       = 10
	defaultRateLimit = 5.0
)

type resolveJob struct {
	index int
	track models.Track
}

// resolveParallel fans track resolution out over a bounded worker pool. A
// shared rate limiter keeps the aggregate search rate under the destination's
// quota regardless of worker count. Results keep source order because each
// worker writes into its job's slot before signalling completion.
func (c *Converter) resolveParallel(ctx context.Context, tracks []models.Track, opts Options, progress chan<- ProgressUpdate) []Resolution {
	total := len(tracks)
	c.sendProgress(progress, resolvingTracksUpdate(0, total, nil))

	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	if workers > maxWorkers {
		workers = maxWorkers
	}
	if workers > total {
		workers = total
	}

	rateLimit := opts.RateLimit
	if rateLimit <= 0 {
		rateLimit = defaultRateLimit
	}
	limiter := rate.NewLimiter(rate.Limit(rateLimit), 1)

	resolutions := make([]Resolution, total)
	jobs := make(chan resolveJob, total)
	results := make(chan int, total)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				select {
				case <-ctx.Done():
					resolutions[job.index] = Resolution{Track: job.track, Status: StatusFailed, Err: ctx.Err()}
					results <- job.index
					continue
				default:
				}

				if err := limiter.Wait(ctx); err != nil {
					resolutions[job.index] = Resolution{Track: job.track, Status: StatusFailed, Err: err}
					results <- job.index
					continue
				}

				// The slot write happens before the channel send, so the
				// consumer below observes a fully populated Resolution.
				resolutions[job.index] = c.resolver.Resolve(ctx, job.track)
				results <- job.index
			}
		}()
	}

	for i, track := range tracks {
		jobs <- resolveJob{index: i, track: track}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for idx := range results {
		completed++
		c.sendProgress(progress, resolvingTracksUpdate(completed, total, &resolutions[idx].Track))
	}

	return resolutions
}
