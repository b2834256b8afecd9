package workload

import (
	"context"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/pingcap/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	derrors "github.com/hanfei1991/blockingqueue/pkg/errors"
	"github.com/hanfei1991/blockingqueue/pkg/notifier"
	"github.com/hanfei1991/blockingqueue/pkg/promutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRunnerModes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		cfg  Config
	}{
		{
			name: "fifo single consumer checks order",
			cfg:  Config{Producers: 4, Consumers: 1, ItemsPerProducer: 2000, BulkSize: 1, Mode: ModeFIFO},
		},
		{
			name: "fifo many consumers",
			cfg:  Config{Producers: 4, Consumers: 6, ItemsPerProducer: 2000, BulkSize: 7, Mode: ModeFIFO},
		},
		{
			name: "priority",
			cfg:  Config{Producers: 3, Consumers: 3, ItemsPerProducer: 1000, BulkSize: 16, Mode: ModePriority},
		},
		{
			name: "more consumers than items",
			cfg:  Config{Producers: 1, Consumers: 8, ItemsPerProducer: 3, Mode: ModeFIFO},
		},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			r, err := NewRunner(c.cfg)
			require.NoError(t, err)
			report, err := r.Run(context.Background())
			require.NoError(t, err)

			total := int64(c.cfg.Producers * c.cfg.ItemsPerProducer)
			require.Equal(t, total, report.Pushed)
			require.Equal(t, total, report.Popped)
			require.Equal(t, c.cfg.Mode, report.Mode)
			require.NotEmpty(t, report.RunID)
		})
	}
}

func TestRunnerMockClock(t *testing.T) {
	t.Parallel()

	mockClock := clock.NewMock()
	r, err := NewRunner(Config{Producers: 1, Consumers: 1, ItemsPerProducer: 10}, WithClock(mockClock))
	require.NoError(t, err)

	report, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Zero(t, report.Elapsed)
	require.Zero(t, report.Throughput)
}

func TestRunnerCanceledReleasesConsumers(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, err := NewRunner(Config{Producers: 2, Consumers: 4, ItemsPerProducer: 100, Rate: 10})
	require.NoError(t, err)

	report, err := r.Run(ctx)
	require.Error(t, err)
	require.Equal(t, context.Canceled, errors.Cause(err))
	require.Equal(t, report.Pushed, report.Popped)
}

func TestRunnerPublishesProgress(t *testing.T) {
	t.Parallel()

	n := notifier.NewNotifier[ProducerDone]()
	defer n.Close()
	rcv := n.NewReceiver()
	defer rcv.Close()

	r, err := NewRunner(Config{Producers: 3, Consumers: 2, ItemsPerProducer: 100}, WithProgress(n))
	require.NoError(t, err)
	report, err := r.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, n.Flush(context.Background()))

	seen := make(map[int]struct{})
	for i := 0; i < 3; i++ {
		ev := <-rcv.C
		require.Equal(t, report.RunID, ev.RunID)
		require.Equal(t, 100, ev.Pushed)
		require.NoError(t, ev.Err)
		seen[ev.Producer] = struct{}{}
	}
	require.Len(t, seen, 3)
	require.Len(t, rcv.C, 0)
}

func TestRunnerReportsMetrics(t *testing.T) {
	t.Parallel()

	reg := promutil.NewRegistry()
	f := promutil.NewFactoryWithRegistry(reg, "workload-test", "bqstress")
	r, err := NewRunner(Config{Producers: 2, Consumers: 2, ItemsPerProducer: 50, BulkSize: 5}, WithMetricFactory(f))
	require.NoError(t, err)

	_, err = r.Run(context.Background())
	require.NoError(t, err)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	values := make(map[string]float64)
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			if m.GetCounter() != nil {
				values[mf.GetName()] = m.GetCounter().GetValue()
			}
		}
	}
	require.Equal(t, float64(100), values["bqstress_blocking_queue_pushed_total"])
	require.Equal(t, float64(100), values["bqstress_blocking_queue_popped_total"])
	// pushed, popped, cleared, depth and pop wait
	require.Len(t, mfs, 5)
}

func itemOf(producer, seq int64) int64 {
	return producer<<32 | seq
}

func TestCheckerDetectsDuplicatesAndDisorder(t *testing.T) {
	t.Parallel()

	chk := newChecker(Config{Producers: 2, Consumers: 1, ItemsPerProducer: 10, Mode: ModeFIFO})
	require.NoError(t, chk.observe(itemOf(0, 0)))
	require.NoError(t, chk.observe(itemOf(1, 0)))
	require.NoError(t, chk.observe(itemOf(0, 1)))

	err := chk.observe(itemOf(0, 1))
	require.True(t, derrors.ErrWorkloadDuplicateItem.Equal(err))

	require.NoError(t, chk.observe(itemOf(1, 5)))
	err = chk.observe(itemOf(1, 3))
	require.True(t, derrors.ErrWorkloadOrderViolation.Equal(err))
	require.Equal(t, int64(5), chk.distinct())

	// no order check with several consumers
	chk = newChecker(Config{Producers: 1, Consumers: 2, ItemsPerProducer: 10, Mode: ModeFIFO})
	require.NoError(t, chk.observe(itemOf(0, 5)))
	require.NoError(t, chk.observe(itemOf(0, 3)))
}
