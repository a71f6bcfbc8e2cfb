package shutdown

import (
	"sync"
	"testing"
	"time"
)

func TestFlagSetIdempotent(t *testing.T) {
	f := NewFlag()
	if f.IsSet() {
		t.Fatalf("new flag must not be set")
	}
	f.Set()
	f.Set() // second call must not panic or re-close
	if !f.IsSet() {
		t.Fatalf("flag not set after Set")
	}
	select {
	case <-f.Done():
	default:
		t.Fatalf("Done channel not closed after Set")
	}
}

func TestFlagConcurrentSet(t *testing.T) {
	f := NewFlag()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.Set()
		}()
	}
	wg.Wait()
	if !f.IsSet() {
		t.Fatalf("flag not set after concurrent Set")
	}
}

func TestSleepCompletes(t *testing.T) {
	f := NewFlag()
	start := time.Now()
	if !f.Sleep(30 * time.Millisecond) {
		t.Fatalf("Sleep reported interruption without Set")
	}
	if time.Since(start) < 30*time.Millisecond {
		t.Fatalf("Sleep returned early: %v", time.Since(start))
	}
}

func TestSleepInterrupted(t *testing.T) {
	f := NewFlag()
	go func() {
		time.Sleep(20 * time.Millisecond)
		f.Set()
	}()
	start := time.Now()
	if f.Sleep(5 * time.Second) {
		t.Fatalf("Sleep must report interruption when flag is set")
	}
	if time.Since(start) > time.Second {
		t.Fatalf("Sleep did not wake promptly: %v", time.Since(start))
	}
}

func TestSleepZeroDuration(t *testing.T) {
	f := NewFlag()
	if !f.Sleep(0) {
		t.Fatalf("zero sleep on unset flag must report success")
	}
	f.Set()
	if f.Sleep(0) {
		t.Fatalf("zero sleep on set flag must report interruption")
	}
}
