package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestBreakerStartsClosed(t *testing.T) {
	b := NewBreaker("svc", Settings{FailureThreshold: 5, RecoveryTimeout: 30 * time.Second, SuccessThreshold: 1})
	require.Equal(t, StateClosed, b.State())
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := NewBreaker("svc", Settings{FailureThreshold: 3, RecoveryTimeout: 30 * time.Second, SuccessThreshold: 1})

	for i := 0; i < 2; i++ {
		_ = b.Execute(func() error { return errBoom })
		require.Equal(t, StateClosed, b.State())
	}
	_ = b.Execute(func() error { return errBoom })
	require.Equal(t, StateOpen, b.State())
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	b := NewBreaker("svc", Settings{FailureThreshold: 3, RecoveryTimeout: 30 * time.Second, SuccessThreshold: 1})

	_ = b.Execute(func() error { return errBoom })
	_ = b.Execute(func() error { return errBoom })
	require.NoError(t, b.Execute(func() error { return nil }))
	require.Equal(t, 0, b.Status().FailureCount)

	// Two more failures must not open it: the streak restarted.
	_ = b.Execute(func() error { return errBoom })
	_ = b.Execute(func() error { return errBoom })
	require.Equal(t, StateClosed, b.State())
}

func TestBreakerRejectsWhenOpenWithoutCalling(t *testing.T) {
	b := NewBreaker("svc", Settings{FailureThreshold: 2, RecoveryTimeout: 30 * time.Second, SuccessThreshold: 1})
	_ = b.Execute(func() error { return errBoom })
	_ = b.Execute(func() error { return errBoom })
	require.Equal(t, StateOpen, b.State())

	calls := 0
	err := b.Execute(func() error { calls++; return nil })
	require.ErrorIs(t, err, ErrCircuitOpen)
	require.Zero(t, calls)
}

func TestBreakerHalfOpenProbeAfterTimeout(t *testing.T) {
	b := NewBreaker("svc", Settings{FailureThreshold: 2, RecoveryTimeout: 100 * time.Millisecond, SuccessThreshold: 1})
	now := time.Now()
	b.nowFunc = func() time.Time { return now }

	_ = b.Execute(func() error { return errBoom })
	_ = b.Execute(func() error { return errBoom })
	require.Equal(t, StateOpen, b.State())

	now = now.Add(200 * time.Millisecond)

	calls := 0
	require.NoError(t, b.Execute(func() error { calls++; return nil }))
	require.Equal(t, 1, calls)
	require.Equal(t, StateClosed, b.State())
}

func TestBreakerProbeFailureReOpens(t *testing.T) {
	b := NewBreaker("svc", Settings{FailureThreshold: 2, RecoveryTimeout: 100 * time.Millisecond, SuccessThreshold: 1})
	now := time.Now()
	b.nowFunc = func() time.Time { return now }

	_ = b.Execute(func() error { return errBoom })
	_ = b.Execute(func() error { return errBoom })
	now = now.Add(150 * time.Millisecond)

	err := b.Execute(func() error { return errBoom })
	require.ErrorIs(t, err, errBoom)
	require.Equal(t, StateOpen, b.State())

	// Still open: the failed probe restarted the recovery window.
	calls := 0
	err = b.Execute(func() error { calls++; return nil })
	require.ErrorIs(t, err, ErrCircuitOpen)
	require.Zero(t, calls)
}

func TestBreakerSuccessThresholdTwo(t *testing.T) {
	b := NewBreaker("svc", Settings{FailureThreshold: 1, RecoveryTimeout: 50 * time.Millisecond, SuccessThreshold: 2})
	now := time.Now()
	b.nowFunc = func() time.Time { return now }

	_ = b.Execute(func() error { return errBoom })
	require.Equal(t, StateOpen, b.State())
	now = now.Add(60 * time.Millisecond)

	require.NoError(t, b.Execute(func() error { return nil }))
	require.Equal(t, StateHalfOpen, b.State())
	require.NoError(t, b.Execute(func() error { return nil }))
	require.Equal(t, StateClosed, b.State())
}

func TestBreakerSingleProbeInFlight(t *testing.T) {
	b := NewBreaker("svc", Settings{FailureThreshold: 1, RecoveryTimeout: 50 * time.Millisecond, SuccessThreshold: 1})
	now := time.Now()
	b.nowFunc = func() time.Time { return now }

	_ = b.Execute(func() error { return errBoom })
	now = now.Add(60 * time.Millisecond)

	require.NoError(t, b.Allow())
	// Probe in flight: concurrent callers are rejected until it resolves.
	require.ErrorIs(t, b.Allow(), ErrCircuitOpen)
	b.RecordSuccess()
	require.Equal(t, StateClosed, b.State())
}

func TestRegistryTierDefaults(t *testing.T) {
	critical := DefaultSettings(TierCritical)
	bestEffort := DefaultSettings(TierBestEffort)
	require.Less(t, critical.FailureThreshold, bestEffort.FailureThreshold)
	require.Less(t, critical.RecoveryTimeout, bestEffort.RecoveryTimeout)
}

func TestRegistryGetCreatesOnDemand(t *testing.T) {
	r := NewRegistry()
	b := r.Get("unregistered")
	require.NotNil(t, b)
	require.Same(t, b, r.Get("unregistered"))
}

func TestRegistryReset(t *testing.T) {
	r := NewRegistry()
	r.Register("svc", Settings{FailureThreshold: 1, RecoveryTimeout: time.Hour, SuccessThreshold: 1})
	b := r.Get("svc")
	_ = b.Execute(func() error { return errBoom })
	require.Equal(t, StateOpen, b.State())

	require.NoError(t, r.Reset("svc"))
	require.Equal(t, StateClosed, b.State())
	require.Error(t, r.Reset("nope"))
}

func TestRegistryStatusesSorted(t *testing.T) {
	r := NewRegistry()
	r.Register("zeta", DefaultSettings(TierBestEffort))
	r.Register("alpha", DefaultSettings(TierCritical))
	statuses := r.Statuses()
	require.Len(t, statuses, 2)
	require.Equal(t, "alpha", statuses[0].Service)
	require.Equal(t, "zeta", statuses[1].Service)
}
