package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// recordingEmitter collects state changes.
type recordingEmitter struct {
	mu     sync.Mutex
	events []stateChange
}

type stateChange struct {
	previous, current State
	reason            string
}

func (r *recordingEmitter) OnStateChange(previous, current State, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, stateChange{previous, current, reason})
}

func (r *recordingEmitter) Events() []stateChange {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]stateChange(nil), r.events...)
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateStopped, "Stopped"},
		{StateStarting, "Starting"},
		{StateRunning, "Running"},
		{StateStopping, "Stopping"},
		{StateCrashed, "Crashed"},
		{State(42), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %s, want %s", tt.state, got, tt.want)
		}
	}
}

func TestLifecycle_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		from    State
		to      State
		wantErr error
	}{
		{"stopped to starting", StateStopped, StateStarting, nil},
		{"starting to running", StateStarting, StateRunning, nil},
		{"starting to stopping", StateStarting, StateStopping, nil},
		{"running to stopped after once", StateRunning, StateStopped, nil},
		{"running to crashed", StateRunning, StateCrashed, nil},
		{"stopping to stopped", StateStopping, StateStopped, nil},
		{"crashed to starting", StateCrashed, StateStarting, nil},
		{"stopped to running", StateStopped, StateRunning, ErrNotRunning},
		{"crashed to stopped", StateCrashed, StateStopped, ErrNotRunning},
		{"running to starting", StateRunning, StateStarting, ErrAlreadyRunning},
		{"stopping to running", StateStopping, StateRunning, ErrAlreadyRunning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLifecycle(nil, nil)
			l.state = tt.from

			err := l.TransitionTo(tt.to, "test")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("TransitionTo() = %v, want %v", err, tt.wantErr)
			}
			want := tt.to
			if tt.wantErr != nil {
				want = tt.from
			}
			if l.State() != want {
				t.Errorf("state = %v, want %v", l.State(), want)
			}
		})
	}
}

func TestLifecycle_EmitsEvents(t *testing.T) {
	emitter := &recordingEmitter{}
	l := NewLifecycle(nil, emitter)

	_ = l.TransitionTo(StateStarting, "start")
	_ = l.TransitionTo(StateRunning, "run")
	_ = l.TransitionTo(StateStarting, "invalid")

	events := emitter.Events()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[1].previous != StateStarting || events[1].current != StateRunning || events[1].reason != "run" {
		t.Errorf("event 1 = %+v", events[1])
	}
}

func TestLifecycle_CanStartCanStop(t *testing.T) {
	tests := []struct {
		state              State
		canStart, canStop bool
	}{
		{StateStopped, true, false},
		{StateStarting, false, true},
		{StateRunning, false, true},
		{StateStopping, false, false},
		{StateCrashed, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			l := NewLifecycle(nil, nil)
			l.state = tt.state
			if l.CanStart() != tt.canStart || l.CanStop() != tt.canStop {
				t.Errorf("CanStart=%v CanStop=%v", l.CanStart(), l.CanStop())
			}
		})
	}
}

func TestLifecycle_Cancel(t *testing.T) {
	l := NewLifecycle(nil, nil)
	l.Cancel() // nil cancel is fine

	ctx, cancel := context.WithCancel(context.Background())
	l.SetCancel(cancel)
	l.Cancel()
	select {
	case <-ctx.Done():
	default:
		t.Error("context not canceled")
	}
}

func TestLifecycle_WaitWithTimeout(t *testing.T) {
	l := NewLifecycle(nil, nil)
	l.AddWorker()
	go func() {
		time.Sleep(10 * time.Millisecond)
		l.WorkerDone()
	}()
	if err := l.WaitWithTimeout(time.Second); err != nil {
		t.Errorf("WaitWithTimeout() = %v", err)
	}

	l.AddWorker()
	if err := l.WaitWithTimeout(10 * time.Millisecond); !errors.Is(err, ErrShutdownTimeout) {
		t.Errorf("WaitWithTimeout() = %v, want ErrShutdownTimeout", err)
	}
	l.WorkerDone()
}

func TestLifecycle_ConcurrentUse(t *testing.T) {
	l := NewLifecycle(nil, nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = l.State()
				_ = l.CanStart()
				_ = l.TransitionTo(StateStarting, "race")
				_ = l.TransitionTo(StateRunning, "race")
			}
		}()
	}
	wg.Wait()
	if l.State() != StateRunning {
		t.Errorf("final state = %v, want Running", l.State())
	}
}

func TestBackoff(t *testing.T) {
	b := newBackoff(10*time.Millisecond, 40*time.Millisecond)
	for i, want := range []time.Duration{10, 20, 40, 40} {
		want *= time.Millisecond
		if b.Current() != want {
			t.Errorf("step %d: current = %v, want %v", i, b.Current(), want)
		}
		d := b.next()
		if d < want*8/10 || d > want*12/10 {
			t.Errorf("step %d: delay %v outside jitter of %v", i, d, want)
		}
	}
	b.Reset()
	if b.Current() != 10*time.Millisecond {
		t.Errorf("after Reset = %v", b.Current())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := newBackoff(time.Hour, time.Hour).Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait on canceled context = %v", err)
	}
}
