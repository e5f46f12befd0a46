package pricing

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type fakeSource struct {
	mu     sync.Mutex
	values map[string]float64
	err    error
	loads  int
}

func (f *fakeSource) LoadAll(ctx context.Context) (map[string]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	if f.err != nil {
		return nil, f.err
	}
	return f.values, nil
}

func (f *fakeSource) loadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loads
}

func TestConfigLazyLoad(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{values: map[string]float64{"RATE_PER_KM_SEDAN": 14.0}}
	c := NewConfig(src)

	if got := c.Get(ctx, "RATE_PER_KM_SEDAN", 12.0); got != 14.0 {
		t.Fatalf("Get = %v, want 14.0", got)
	}
	// cache is warm, second read must not hit the source again
	_ = c.Get(ctx, "RATE_PER_KM_SEDAN", 12.0)
	if src.loadCount() != 1 {
		t.Fatalf("loads = %d, want 1", src.loadCount())
	}
}

func TestConfigMissingKeyFallsBack(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{values: map[string]float64{"RATE_PER_KM_SEDAN": 14.0}}
	c := NewConfig(src)

	if got := c.Get(ctx, "MINIMUM_FARE_SEDAN", 50.0); got != 50.0 {
		t.Fatalf("Get = %v, want default 50.0", got)
	}
}

func TestConfigInvalidateForcesReload(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{values: map[string]float64{"PRICE_VARIATION": 0.25}}
	c := NewConfig(src)

	_ = c.Get(ctx, "PRICE_VARIATION", 0.20)
	c.Invalidate()
	if got := c.Get(ctx, "PRICE_VARIATION", 0.20); got != 0.25 {
		t.Fatalf("Get after invalidate = %v, want 0.25", got)
	}
	if src.loadCount() != 2 {
		t.Fatalf("loads = %d, want 2", src.loadCount())
	}
}

func TestConfigSourceErrorUsesDefaults(t *testing.T) {
	ctx := context.Background()
	c := NewConfig(&fakeSource{err: errors.New("db down")})

	if got := c.Get(ctx, "RATE_PER_KM_SEDAN", 12.0); got != 12.0 {
		t.Fatalf("Get = %v, want default 12.0", got)
	}
}

func TestConfigNilSource(t *testing.T) {
	c := NewConfig(nil)
	if got := c.Get(context.Background(), "PLATFORM_CHARGE_PERCENTAGE", 0.15); got != 0.15 {
		t.Fatalf("Get = %v, want 0.15", got)
	}
}

func TestConfigConcurrentReads(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{values: map[string]float64{"RATE_PER_KM_SEDAN": 14.0}}
	c := NewConfig(src)

	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if got := c.Get(ctx, "RATE_PER_KM_SEDAN", 12.0); got != 14.0 {
				t.Errorf("Get = %v, want 14.0", got)
			}
		}()
	}
	close(start)
	wg.Wait()

	// the mutex is held across the reload, so only one load runs
	if src.loadCount() != 1 {
		t.Fatalf("loads = %d, want 1", src.loadCount())
	}
}
