package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestGetOrCreateBuildsOnce(t *testing.T) {
	c := New[string, int]()
	var calls atomic.Int32

	var wg sync.WaitGroup
	results := make([]int, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.GetOrCreate("k", func() (int, error) {
				calls.Add(1)
				return 42, nil
			})
			if err != nil {
				t.Errorf("GetOrCreate: %v", err)
			}
			results[i] = v
		}(i)
	}
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("create called %d times, want 1", n)
	}
	for i, v := range results {
		if v != 42 {
			t.Errorf("results[%d] = %d, want 42", i, v)
		}
	}
}

func TestGetOrCreateCachesErrors(t *testing.T) {
	c := New[int, string]()
	boom := errors.New("boom")
	calls := 0
	create := func() (string, error) {
		calls++
		return "", boom
	}

	for i := 0; i < 3; i++ {
		if _, err := c.GetOrCreate(1, create); !errors.Is(err, boom) {
			t.Fatalf("attempt %d: err = %v, want %v", i, err, boom)
		}
	}
	if calls != 1 {
		t.Errorf("create called %d times, want 1", calls)
	}
}

func TestGetOrCreatePanic(t *testing.T) {
	c := New[string, int]()
	func() {
		defer func() {
			if recover() == nil {
				t.Error("panic in create was swallowed")
			}
		}()
		_, _ = c.GetOrCreate("k", func() (int, error) { panic("build failed") })
	}()

	_, err := c.GetOrCreate("k", func() (int, error) { return 1, nil })
	if !errors.Is(err, errBuildAborted) {
		t.Errorf("err after panicked build = %v, want %v", err, errBuildAborted)
	}
}

func TestDrain(t *testing.T) {
	c := New[int, int]()
	for i := 0; i < 4; i++ {
		i := i
		_, _ = c.GetOrCreate(i, func() (int, error) {
			if i == 3 {
				return 0, errors.New("fail")
			}
			return i * 10, nil
		})
	}
	if c.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", c.Len())
	}

	sum := 0
	c.Drain(func(_ int, v int) { sum += v })
	if sum != 30 {
		t.Errorf("drained sum = %d, want 30 (failed entry skipped)", sum)
	}
	if c.Len() != 0 {
		t.Errorf("Len() after Drain = %d, want 0", c.Len())
	}
}

func TestDrainDuringBuild(t *testing.T) {
	c := New[string, int]()
	started := make(chan struct{})
	release := make(chan struct{})

	type result struct {
		v   int
		err error
	}
	got := make(chan result, 1)
	go func() {
		v, err := c.GetOrCreate("k", func() (int, error) {
			close(started)
			<-release
			return 5, nil
		})
		got <- result{v, err}
	}()
	<-started

	drained := make(chan int, 1)
	go c.Drain(func(_ string, v int) { drained <- v })
	close(release)

	if r := <-got; r.err != nil || r.v != 5 {
		t.Fatalf("GetOrCreate = (%d, %v), want (5, nil)", r.v, r.err)
	}
	if v := <-drained; v != 5 {
		t.Errorf("drained %d, want 5", v)
	}
}

func TestGetOrCreateConcurrentDrain(t *testing.T) {
	c := New[int, int]()
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := (g + i) % 4
				v, err := c.GetOrCreate(key, func() (int, error) { return key + 1, nil })
				if err != nil || v != key+1 {
					t.Errorf("GetOrCreate(%d) = (%d, %v)", key, v, err)
					return
				}
			}
		}(g)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			c.Drain(nil)
		}
	}()
	wg.Wait()
}
