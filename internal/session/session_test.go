package session

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestDo_SerializesCalls(t *testing.T) {
	sess := New(nil, nil, nil, nil, nil)

	var inside, maxInside int
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = sess.Do(func() error {
				inside++
				if inside > maxInside {
					maxInside = inside
				}
				time.Sleep(time.Millisecond)
				inside--
				return nil
			})
		}()
	}
	wg.Wait()

	if maxInside != 1 {
		t.Fatalf("observed %d concurrent bodies, want 1", maxInside)
	}
}

func TestDo_PropagatesError(t *testing.T) {
	sess := New(nil, nil, nil, nil, nil)
	want := errors.New("boom")
	if err := sess.Do(func() error { return want }); !errors.Is(err, want) {
		t.Fatalf("err = %v, want %v", err, want)
	}
}
