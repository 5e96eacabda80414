package dedupe

import (
	"context"
	"sync"
	"time"

	"github.com/baditaflorin/go_fuzzy_dedupe/internal/debounce"
)

// Estimator recounts duplicates as the threshold changes. Changes arriving
// within the debounce delay of each other collapse into one run, a newer run
// cancels an older one, and only the newest result is delivered.
type Estimator struct {
	d         *Deduper
	onResult  func(Result)
	onError   func(error)
	debouncer *debounce.Debouncer
	gen       debounce.Generation

	mu        sync.Mutex
	records   []Record
	threshold *float64
	cancel    context.CancelFunc
}

// EstimatorOption configures an Estimator.
type EstimatorOption func(*Estimator)

// WithDebounce sets the quiet period before a run starts. The default is 300ms.
func WithDebounce(delay time.Duration) EstimatorOption {
	return func(e *Estimator) {
		e.debouncer = debounce.New(delay)
	}
}

// WithErrorHandler receives errors of runs that were still current.
func WithErrorHandler(fn func(error)) EstimatorOption {
	return func(e *Estimator) {
		e.onError = fn
	}
}

// NewEstimator creates an estimator over records. onResult runs on a
// background goroutine.
func (d *Deduper) NewEstimator(records []Record, onResult func(Result), opts ...EstimatorOption) *Estimator {
	e := &Estimator{
		d:         d,
		onResult:  onResult,
		debouncer: debounce.New(debounce.DefaultDelay),
		records:   append([]Record(nil), records...),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetThreshold schedules a recount at thresholdPercent.
func (e *Estimator) SetThreshold(thresholdPercent float64) {
	e.mu.Lock()
	t := thresholdPercent
	e.threshold = &t
	e.mu.Unlock()

	e.schedule(thresholdPercent)
}

// SetRecords replaces the record set and recounts at the last threshold, if any.
func (e *Estimator) SetRecords(records []Record) {
	e.mu.Lock()
	e.records = append([]Record(nil), records...)
	threshold := e.threshold
	e.mu.Unlock()

	if threshold != nil {
		e.schedule(*threshold)
	}
}

// Close drops any pending run and cancels the one in flight.
func (e *Estimator) Close() {
	e.gen.Next()
	e.debouncer.Stop()

	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.mu.Unlock()
}

func (e *Estimator) schedule(thresholdPercent float64) {
	token := e.gen.Next()
	e.debouncer.Trigger(func() {
		e.run(token, thresholdPercent)
	})
}

func (e *Estimator) run(token uint64, thresholdPercent float64) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	e.mu.Lock()
	if !e.gen.Current(token) {
		e.mu.Unlock()
		return
	}
	if e.cancel != nil {
		e.cancel()
	}
	e.cancel = cancel
	records := e.records
	e.mu.Unlock()

	res, err := e.d.Find(ctx, thresholdPercent, records)

	e.mu.Lock()
	current := e.gen.Current(token)
	e.mu.Unlock()
	if !current {
		return
	}

	if err != nil {
		if e.onError != nil {
			e.onError(err)
		}
		return
	}
	if e.onResult != nil {
		e.onResult(res)
	}
}
