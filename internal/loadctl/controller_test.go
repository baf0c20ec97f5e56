package loadctl

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/lead-insights/internal/notify"
	"github.com/odyssey-erp/lead-insights/internal/shared"
)

type result struct {
	value int
	err   error
}

// gated returns a fetch that blocks until a result is sent on the channel.
func gated() (chan result, func(context.Context) (int, error)) {
	ch := make(chan result)
	return ch, func(ctx context.Context) (int, error) {
		r := <-ch
		return r.value, r.err
	}
}

func itoa(v int) (string, error) {
	return strconv.Itoa(v), nil
}

type recorder struct {
	mu     sync.Mutex
	toasts []notify.Toast
}

func (r *recorder) Notify(_ context.Context, toast notify.Toast) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, toast)
}

func (r *recorder) all() []notify.Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Toast(nil), r.toasts...)
}

func wait(t *testing.T, c *Controller) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := c.Wait(ctx)
	require.False(t, errors.Is(err, context.DeadlineExceeded), "controller did not settle")
	return err
}

func TestInitializeLoadsAndSettles(t *testing.T) {
	ch, fetch := gated()
	slot := NewSlot("metrics", "Failed to load lead metrics", fetch, itoa)
	ctrl := New(Config{View: "lead-scorecard"}, slot)

	assert.Equal(t, Idle, ctrl.Status())
	require.NoError(t, ctrl.Initialize(context.Background()))
	assert.Equal(t, Loading, ctrl.Status())
	assert.Equal(t, Loading, slot.State().Status)

	ch <- result{value: 85}
	require.NoError(t, wait(t, ctrl))

	state := slot.State()
	assert.Equal(t, Ready, ctrl.Status())
	require.True(t, state.HasValue())
	assert.Equal(t, "85", *state.Value)
	assert.NoError(t, state.Err)
	assert.False(t, state.Settled.IsZero())

	assert.ErrorIs(t, ctrl.Initialize(context.Background()), ErrAlreadyInitialized)
	assert.True(t, ctrl.Initialized())
}

func TestFetchFailureNotifiesOnceAndRefreshRetries(t *testing.T) {
	ch, fetch := gated()
	rec := &recorder{}
	slot := NewSlot("metrics", "Failed to load lead metrics", fetch, itoa)
	ctrl := New(Config{View: "lead-scorecard", Entity: "00Q5g00000ABCDE", Notifier: rec}, slot)

	require.NoError(t, ctrl.Initialize(context.Background()))
	ch <- result{err: errors.New("upstream exploded: stack trace")}
	require.NoError(t, wait(t, ctrl))

	assert.Equal(t, Failed, ctrl.Status())
	assert.False(t, slot.State().HasValue())
	assert.EqualError(t, slot.State().Err, "upstream exploded: stack trace")

	toasts := rec.all()
	require.Len(t, toasts, 1)
	assert.Equal(t, notify.ErrorTitle, toasts[0].Title)
	assert.Equal(t, "Failed to load lead metrics", toasts[0].Message)
	assert.Equal(t, shared.VariantError, toasts[0].Variant)
	assert.Equal(t, "lead-scorecard", toasts[0].View)
	assert.Equal(t, "00Q5g00000ABCDE", toasts[0].Entity)

	ctrl.Refresh(context.Background())
	assert.Equal(t, Loading, ctrl.Status())
	ch <- result{value: 42}
	require.NoError(t, wait(t, ctrl))

	assert.Equal(t, Ready, ctrl.Status())
	assert.Equal(t, "42", *slot.State().Value)
	assert.NoError(t, slot.State().Err)
	assert.Len(t, rec.all(), 1)
}

func TestFailedRefreshKeepsPreviousValue(t *testing.T) {
	ch, fetch := gated()
	slot := NewSlot("dashboard", "Failed to load dashboard data", fetch, itoa)
	ctrl := New(Config{}, slot)

	require.NoError(t, ctrl.Initialize(context.Background()))
	ch <- result{value: 7}
	require.NoError(t, wait(t, ctrl))

	ctrl.Refresh(context.Background())
	ch <- result{err: errors.New("timeout")}
	require.NoError(t, wait(t, ctrl))

	state := slot.State()
	assert.Equal(t, Failed, state.Status)
	require.True(t, state.HasValue())
	assert.Equal(t, "7", *state.Value)
}

func TestShapingFailureIsReturnedNotNotified(t *testing.T) {
	ch, fetch := gated()
	rec := &recorder{}
	bug := errors.New("aggregate missing")
	slot := NewSlot("dashboard", "Failed to load dashboard data", fetch, func(int) (string, error) {
		return "", bug
	})
	ctrl := New(Config{Notifier: rec}, slot)

	require.NoError(t, ctrl.Initialize(context.Background()))
	ch <- result{value: 1}
	err := wait(t, ctrl)

	assert.ErrorIs(t, err, bug)
	assert.Equal(t, Failed, ctrl.Status())
	assert.Empty(t, rec.all())
}

func TestIndependentSlotsMergeAtRead(t *testing.T) {
	aggCh, aggFetch := gated()
	terrCh, terrFetch := gated()
	rec := &recorder{}
	agg := NewSlot("dashboard", "Failed to load dashboard data", aggFetch, itoa)
	terr := NewSlot("territory", "Failed to load territory metrics", terrFetch, itoa)
	ctrl := New(Config{View: "territory-dashboard", Notifier: rec}, agg, terr)
	assert.Equal(t, []string{"dashboard", "territory"}, ctrl.Slots())

	require.NoError(t, ctrl.Initialize(context.Background()))
	terrCh <- result{err: errors.New("no such territory")}
	assert.Equal(t, Loading, ctrl.Status(), "aggregate still in flight")
	aggCh <- result{value: 1200}
	require.NoError(t, wait(t, ctrl))

	assert.Equal(t, Ready, ctrl.Status())
	assert.Equal(t, Ready, agg.State().Status)
	assert.Equal(t, Failed, terr.State().Status)
	toasts := rec.all()
	require.Len(t, toasts, 1)
	assert.Equal(t, "Failed to load territory metrics", toasts[0].Message)

	ctrl.Refresh(context.Background())
	aggCh <- result{err: errors.New("down")}
	terrCh <- result{err: errors.New("down")}
	require.NoError(t, wait(t, ctrl))
	assert.Equal(t, Failed, ctrl.Status())
	assert.Len(t, rec.all(), 3)
}

func TestPassiveSlotNeverNotifies(t *testing.T) {
	mainCh, mainFetch := gated()
	recCh, recFetch := gated()
	rec := &recorder{}
	primary := NewSlot("metrics", "Failed to load lead metrics", mainFetch, itoa)
	record := NewSlot("record", "", recFetch, Identity[int], AsPassive())
	ctrl := New(Config{Notifier: rec}, primary, record)

	require.NoError(t, ctrl.Initialize(context.Background()))
	recCh <- result{err: errors.New("db offline")}
	mainCh <- result{value: 90}
	require.NoError(t, wait(t, ctrl))

	assert.True(t, record.Passive())
	assert.Equal(t, Failed, record.State().Status)
	assert.Equal(t, Ready, ctrl.Status())
	assert.Empty(t, rec.all())
}

func TestOverlappingRefreshStaysLoadingUntilAllSettle(t *testing.T) {
	ch, fetch := gated()
	slot := NewSlot("metrics", "Failed to load lead metrics", fetch, itoa)
	ctrl := New(Config{}, slot)

	require.NoError(t, ctrl.Initialize(context.Background()))
	ctrl.Refresh(context.Background())

	ch <- result{value: 2}
	assert.Eventually(t, func() bool {
		st := slot.State()
		return st.HasValue() && *st.Value == "2"
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, Loading, ctrl.Status(), "one fetch is still in flight")

	ch <- result{value: 1}
	require.NoError(t, wait(t, ctrl))
	assert.Equal(t, Ready, ctrl.Status())
	assert.Equal(t, "1", *slot.State().Value, "last settled wins")
}

func TestFetchesOutliveCallerContext(t *testing.T) {
	ch := make(chan error, 1)
	slot := NewSlot("metrics", "m", func(ctx context.Context) (int, error) {
		time.Sleep(20 * time.Millisecond)
		ch <- ctx.Err()
		return 1, nil
	}, itoa)
	ctrl := New(Config{}, slot)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, ctrl.Initialize(ctx))
	cancel()

	require.NoError(t, wait(t, ctrl))
	assert.NoError(t, <-ch)
	assert.Equal(t, Ready, ctrl.Status())
}

func TestSubscribersArePinged(t *testing.T) {
	ch, fetch := gated()
	ctrl := New(Config{}, NewSlot("metrics", "m", fetch, itoa))
	sub := ctrl.Subscribe()
	defer ctrl.Unsubscribe(sub)

	require.NoError(t, ctrl.Initialize(context.Background()))
	select {
	case <-sub:
	case <-time.After(time.Second):
		t.Fatal("expected ping on loading")
	}
	ch <- result{value: 3}
	select {
	case <-sub:
	case <-time.After(time.Second):
		t.Fatal("expected ping on settle")
	}
}

func TestWaitHonoursContext(t *testing.T) {
	_, fetch := gated()
	ctrl := New(Config{}, NewSlot("metrics", "m", fetch, itoa))
	require.NoError(t, ctrl.Initialize(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, ctrl.Wait(ctx), context.DeadlineExceeded)
	assert.Equal(t, Loading, ctrl.Status())
}

func TestMetricsRecordOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	ch, fetch := gated()
	ctrl := New(Config{View: "lead-scorecard", Metrics: metrics}, NewSlot("metrics", "m", fetch, itoa))

	require.NoError(t, ctrl.Initialize(context.Background()))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.pending.WithLabelValues("lead-scorecard")))
	ch <- result{value: 1}
	require.NoError(t, wait(t, ctrl))
	ctrl.Refresh(context.Background())
	ch <- result{err: errors.New("x")}
	require.NoError(t, wait(t, ctrl))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.fetches.WithLabelValues("lead-scorecard", "metrics", outcomeReady)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.fetches.WithLabelValues("lead-scorecard", "metrics", outcomeFetchError)))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.pending.WithLabelValues("lead-scorecard")))
}

func TestMerge(t *testing.T) {
	cases := []struct {
		in   []Status
		want Status
	}{
		{nil, Idle},
		{[]Status{Idle, Idle}, Idle},
		{[]Status{Loading, Ready}, Loading},
		{[]Status{Failed, Loading}, Loading},
		{[]Status{Ready, Failed}, Ready},
		{[]Status{Failed, Failed}, Failed},
		{[]Status{Ready}, Ready},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Merge(tc.in...), "%v", tc.in)
		assert.Equal(t, tc.want, Merge(reverse(tc.in)...), "order independent %v", tc.in)
	}
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "unknown", Status(9).String())
}

func TestStatusJSONRoundTrip(t *testing.T) {
	for _, st := range []Status{Idle, Loading, Ready, Failed} {
		raw, err := json.Marshal(struct {
			Status Status `json:"status"`
		}{st})
		require.NoError(t, err)

		var out struct {
			Status Status `json:"status"`
		}
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
		assert.Equal(t, st, out.Status)
	}

	var st Status
	assert.Error(t, json.Unmarshal([]byte(`"stale"`), &st))
	assert.Error(t, json.Unmarshal([]byte(`2`), &st))
}

func reverse(in []Status) []Status {
	out := make([]Status, len(in))
	for i, st := range in {
		out[len(in)-1-i] = st
	}
	return out
}
