package timer

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestManager_Schedule(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	fired := make(chan struct{})
	m.Schedule(10*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("Scheduled task never fired")
	}
}

func TestManager_Cancel(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	var fired int32
	id := m.Schedule(300*time.Millisecond, func() { atomic.AddInt32(&fired, 1) })
	m.Cancel(id)

	time.Sleep(600 * time.Millisecond)
	if atomic.LoadInt32(&fired) != 0 {
		t.Error("Cancelled task fired anyway")
	}
}

func TestManager_ScheduleRepeating(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	var fired int32
	m.ScheduleRepeating(10*time.Millisecond, 50*time.Millisecond, func() {
		atomic.AddInt32(&fired, 1)
	})

	deadline := time.After(2 * time.Second)
	for atomic.LoadInt32(&fired) < 2 {
		select {
		case <-deadline:
			t.Fatal("Repeating task did not fire twice")
		case <-time.After(20 * time.Millisecond):
		}
	}
}
