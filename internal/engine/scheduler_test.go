package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSchedulerRunsTimerAfterDelay(t *testing.T) {
	s := NewScheduler(zap.NewNop().Sugar())
	go s.Run()
	defer s.Stop()

	done := make(chan struct{})
	s.Schedule(10*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer callback did not run")
	}
}

func TestSchedulerPostRunsOnNextWake(t *testing.T) {
	s := NewScheduler(zap.NewNop().Sugar())
	go s.Run()
	defer s.Stop()

	done := make(chan struct{})
	s.Post(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("posted event did not run")
	}
}

func TestSchedulerSurvivesPanickingCallback(t *testing.T) {
	s := NewScheduler(zap.NewNop().Sugar())
	go s.Run()
	defer s.Stop()

	s.Post(func() { panic("boom") })

	done := make(chan struct{})
	s.Post(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler stopped processing after a panicking callback")
	}
}

func TestSessionRegistryRegisterGetUnregister(t *testing.T) {
	r := NewSessionRegistry()
	var got string
	r.Register(1, func(text string) { got = text })

	send, ok := r.Get(1)
	require.True(t, ok)
	send("hello")
	require.Equal(t, "hello", got)

	r.Unregister(1)
	_, ok = r.Get(1)
	require.False(t, ok)
}

func TestSessionRegistryBroadcast(t *testing.T) {
	r := NewSessionRegistry()
	var a, b string
	r.Register(1, func(text string) { a = text })
	r.Register(2, func(text string) { b = text })

	r.Broadcast("hi")
	require.Equal(t, "hi", a)
	require.Equal(t, "hi", b)
}
