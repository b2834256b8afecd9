package workload

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	perrors "github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/hanfei1991/blockingqueue/pkg/autoid"
	"github.com/hanfei1991/blockingqueue/pkg/containers"
	"github.com/hanfei1991/blockingqueue/pkg/errctx"
	"github.com/hanfei1991/blockingqueue/pkg/errors"
	"github.com/hanfei1991/blockingqueue/pkg/notifier"
	"github.com/hanfei1991/blockingqueue/pkg/promutil"
)

// poison is pushed to release consumers waiting for items that aborted
// producers will never push. Real items are never negative.
const poison int64 = -1

// queue is the part of the BlockingQueue contract a workload drives.
type queue interface {
	Push(item int64)
	Pop() int64
	TryPop() (int64, error)
	Empty() bool
	Lock()
	Unlock()
}

// Report summarizes a finished run.
type Report struct {
	RunID      string        `json:"run-id"`
	Mode       string        `json:"mode"`
	Pushed     int64         `json:"pushed"`
	Popped     int64         `json:"popped"`
	Elapsed    time.Duration `json:"elapsed"`
	Throughput float64       `json:"throughput"`
}

// ProducerDone is published once a producer stops pushing, either because
// it pushed all of its items or because it failed.
type ProducerDone struct {
	RunID    string
	Producer int
	Pushed   int
	Err      error
}

// Runner drives producers and consumers through one BlockingQueue and
// checks that every pushed item is popped exactly once.
type Runner struct {
	cfg      Config
	clock    clock.Clock
	factory  promutil.Factory
	progress *notifier.Notifier[ProducerDone]
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithClock replaces the clock used to measure the run.
func WithClock(clk clock.Clock) RunnerOption {
	return func(r *Runner) {
		r.clock = clk
	}
}

// WithMetricFactory makes the queue report metrics through f.
func WithMetricFactory(f promutil.Factory) RunnerOption {
	return func(r *Runner) {
		r.factory = f
	}
}

// WithProgress makes the runner publish a ProducerDone event to n for every
// producer. The caller owns n.
func WithProgress(n *notifier.Notifier[ProducerDone]) RunnerOption {
	return func(r *Runner) {
		r.progress = n
	}
}

// NewRunner validates cfg and creates a Runner.
func NewRunner(cfg Config, opts ...RunnerOption) (*Runner, error) {
	if err := cfg.Adjust(); err != nil {
		return nil, err
	}
	r := &Runner{
		cfg:   cfg,
		clock: clock.New(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Runner) newQueue() queue {
	var opts []containers.Option
	if r.factory != nil {
		opts = append(opts, containers.WithMetrics(containers.NewMetrics(r.factory)))
	}
	if r.cfg.Mode == ModePriority {
		return containers.NewBlockingPriorityQueue(func(a, b int64) bool { return a < b }, opts...)
	}
	return containers.NewBlockingQueue[int64](opts...)
}

// Run executes the workload. The returned Report is filled even when the
// run fails a check.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		RunID: autoid.NewUUIDAllocator().AllocID(),
		Mode:  r.cfg.Mode,
	}
	logger := log.L().With(zap.String("run-id", report.RunID))
	logger.Info("workload started", zap.Stringer("config", &r.cfg))

	q := r.newQueue()
	center := errctx.NewErrCenter()
	ctx, cancel := center.DeriveContext(ctx)
	defer cancel()

	var (
		total  = int64(r.cfg.Producers) * int64(r.cfg.ItemsPerProducer)
		pushed atomic.Int64
		popped atomic.Int64
		budget atomic.Int64
		chk    = newChecker(r.cfg)
	)
	budget.Store(total)
	start := r.clock.Now()

	producers, pctx := errgroup.WithContext(ctx)
	for p := 0; p < r.cfg.Producers; p++ {
		p := p
		producers.Go(func() error {
			n, err := r.produce(pctx, q, p)
			pushed.Add(int64(n))
			if r.progress != nil {
				r.progress.Notify(ProducerDone{RunID: report.RunID, Producer: p, Pushed: n, Err: err})
			}
			return err
		})
	}

	var consumers sync.WaitGroup
	for c := 0; c < r.cfg.Consumers; c++ {
		consumers.Add(1)
		go func() {
			defer consumers.Done()
			// Each claim is matched by exactly one item or poison pill,
			// so Pop never waits forever.
			for budget.Dec() >= 0 {
				item := q.Pop()
				if item == poison {
					continue
				}
				popped.Inc()
				center.OnError(chk.observe(item))
			}
		}()
	}

	if err := producers.Wait(); err != nil {
		center.OnError(err)
		missing := total - pushed.Load()
		logger.Warn("producers aborted, releasing consumers",
			zap.Int64("missing", missing), zap.Error(err))
		for i := int64(0); i < missing; i++ {
			q.Push(poison)
		}
	}
	consumers.Wait()

	report.Pushed = pushed.Load()
	report.Popped = popped.Load()
	report.Elapsed = r.clock.Now().Sub(start)
	if report.Elapsed > 0 {
		report.Throughput = float64(report.Popped) / report.Elapsed.Seconds()
	}

	if err := center.CheckError(); err != nil {
		logger.Warn("workload failed", zap.Error(err))
		return report, err
	}
	if err := verifyDrained(q, chk, total); err != nil {
		logger.Warn("workload failed", zap.Error(err))
		return report, err
	}

	logger.Info("workload finished",
		zap.Int64("pushed", report.Pushed),
		zap.Int64("popped", report.Popped),
		zap.Duration("elapsed", report.Elapsed),
		zap.Float64("throughput", report.Throughput))
	return report, nil
}

// produce pushes the producer's items and returns how many it pushed.
func (r *Runner) produce(ctx context.Context, q queue, producer int) (int, error) {
	alloc := autoid.NewIDAllocator(int64(producer))
	var limiter *rate.Limiter
	if r.cfg.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(r.cfg.Rate), r.cfg.BulkSize)
	}

	n := r.cfg.ItemsPerProducer
	for seq := 0; seq < n; seq += r.cfg.BulkSize {
		end := seq + r.cfg.BulkSize
		if end > n {
			end = n
		}

		if limiter != nil {
			if err := limiter.WaitN(ctx, end-seq); err != nil {
				return seq, perrors.Trace(err)
			}
		} else if err := ctx.Err(); err != nil {
			return seq, perrors.Trace(err)
		}

		q.Lock()
		for i := seq; i < end; i++ {
			q.Push(alloc.AllocID())
		}
		q.Unlock()
	}
	return n, nil
}

// verifyDrained checks the queue is empty once every claim was served and
// that no pushed item went missing.
func verifyDrained(q queue, chk *checker, total int64) error {
	if !q.Empty() {
		item, _ := q.TryPop()
		return perrors.Errorf("queue not drained, front item %#x", item)
	}
	if _, err := q.TryPop(); !errors.ErrQueueEmpty.Equal(err) {
		return perrors.Errorf("TryPop on a drained queue returned %v", err)
	}
	if lost := total - chk.distinct(); lost != 0 {
		return errors.ErrWorkloadLostItem.GenWithStackByArgs(lost)
	}
	return nil
}
