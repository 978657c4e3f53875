package cache_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/shuttleroute/shuttleroute/internal/cache"
	"github.com/shuttleroute/shuttleroute/internal/fleet"
	"github.com/shuttleroute/shuttleroute/internal/geo"
)

type cachedPlan struct {
	Routes []string `json:"routes"`
	Total  float64  `json:"total"`
}

func newTestGateway(t *testing.T) (*cache.Gateway, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	backend := cache.NewRedisBackend(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = backend.Close() })

	gw := cache.NewGateway(cache.GatewayConfig{
		Backend: backend,
		TTL:     time.Hour,
		Logger:  zerolog.Nop(),
	})
	return gw, mr
}

func sampleInputs() ([]fleet.EmployeeStop, []fleet.Vehicle) {
	employees := []fleet.EmployeeStop{
		{ID: "emp-2", Location: geo.Point{Lat: 9.04, Lon: 38.75}},
		{ID: "emp-1", Location: geo.Point{Lat: 9.03, Lon: 38.74}},
	}
	vehicles := []fleet.Vehicle{
		{ID: "veh-b", Capacity: 6},
		{ID: "veh-a", Capacity: 4},
	}
	return employees, vehicles
}

func TestKey_OrderIndependent(t *testing.T) {
	gw, _ := newTestGateway(t)
	employees, vehicles := sampleInputs()

	key1 := gw.Key("org-1", employees, vehicles)

	reversedEmps := []fleet.EmployeeStop{employees[1], employees[0]}
	reversedVehs := []fleet.Vehicle{vehicles[1], vehicles[0]}
	key2 := gw.Key("org-1", reversedEmps, reversedVehs)

	if key1 != key2 {
		t.Errorf("key must be order-independent: %q vs %q", key1, key2)
	}
}

func TestKey_Shape(t *testing.T) {
	gw, _ := newTestGateway(t)
	employees, vehicles := sampleInputs()

	key := gw.Key("org-1", employees, vehicles)

	if !strings.HasPrefix(key, "clustering:org-1:") {
		t.Errorf("expected namespaced key, got %q", key)
	}
	parts := strings.Split(key, ":")
	if len(parts) != 3 || len(parts[2]) != 16 {
		t.Errorf("expected 16-char hash suffix, got %q", key)
	}
}

func TestKey_SensitiveToInputs(t *testing.T) {
	gw, _ := newTestGateway(t)
	employees, vehicles := sampleInputs()

	base := gw.Key("org-1", employees, vehicles)

	if got := gw.Key("org-2", employees, vehicles); got == base {
		t.Error("key must change with organization")
	}

	moved := make([]fleet.EmployeeStop, len(employees))
	copy(moved, employees)
	moved[0].Location.Lat += 0.01
	if got := gw.Key("org-1", moved, vehicles); got == base {
		t.Error("key must change when an employee moves")
	}

	resized := make([]fleet.Vehicle, len(vehicles))
	copy(resized, vehicles)
	resized[0].Capacity++
	if got := gw.Key("org-1", employees, resized); got == base {
		t.Error("key must change with vehicle capacity")
	}
}

func TestGateway_RoundTrip(t *testing.T) {
	gw, _ := newTestGateway(t)
	ctx := context.Background()

	want := cachedPlan{Routes: []string{"veh-a", "veh-b"}, Total: 12.5}
	gw.Set(ctx, "clustering:org-1:abc", want)

	var got cachedPlan
	if !gw.Get(ctx, "clustering:org-1:abc", &got) {
		t.Fatal("expected cache hit")
	}
	if got.Total != want.Total || len(got.Routes) != 2 {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestGateway_MissAfterTTL(t *testing.T) {
	gw, mr := newTestGateway(t)
	ctx := context.Background()

	gw.Set(ctx, "clustering:org-1:abc", cachedPlan{Total: 1})
	mr.FastForward(2 * time.Hour)

	var got cachedPlan
	if gw.Get(ctx, "clustering:org-1:abc", &got) {
		t.Error("expected miss after TTL expiry")
	}
}

func TestGateway_InvalidateOrganization(t *testing.T) {
	gw, _ := newTestGateway(t)
	ctx := context.Background()

	gw.Set(ctx, "clustering:org-1:aaa", cachedPlan{Total: 1})
	gw.Set(ctx, "clustering:org-1:bbb", cachedPlan{Total: 2})
	gw.Set(ctx, "clustering:org-2:ccc", cachedPlan{Total: 3})

	if err := gw.InvalidateOrganization(ctx, "org-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got cachedPlan
	if gw.Get(ctx, "clustering:org-1:aaa", &got) {
		t.Error("org-1 entry survived invalidation")
	}
	if gw.Get(ctx, "clustering:org-1:bbb", &got) {
		t.Error("org-1 entry survived invalidation")
	}
	if !gw.Get(ctx, "clustering:org-2:ccc", &got) {
		t.Error("org-2 entry must survive org-1 invalidation")
	}
}

func TestGateway_BackendDownDegradesToMiss(t *testing.T) {
	gw, mr := newTestGateway(t)
	ctx := context.Background()

	mr.Close()

	var got cachedPlan
	if gw.Get(ctx, "clustering:org-1:abc", &got) {
		t.Error("expected miss when backend is unreachable")
	}
	// Writes must not panic or propagate errors either.
	gw.Set(ctx, "clustering:org-1:abc", cachedPlan{Total: 1})
}

func TestGateway_ColdMissesDoNotDisableWrites(t *testing.T) {
	gw, mr := newTestGateway(t)
	ctx := context.Background()

	// A cold cache answers every read with a miss. The breaker must stay
	// closed through an all-miss warmup so the first computed plans can
	// still be stored.
	var got cachedPlan
	for i := 0; i < 10; i++ {
		if gw.Get(ctx, "clustering:org-1:cold", &got) {
			t.Fatal("unexpected hit on empty cache")
		}
	}

	gw.Set(ctx, "clustering:org-1:cold", cachedPlan{Total: 7})

	if !mr.Exists("clustering:org-1:cold") {
		t.Fatal("write after cold misses was dropped")
	}
	if !gw.Get(ctx, "clustering:org-1:cold", &got) || got.Total != 7 {
		t.Errorf("expected hit after warmup write, got %+v", got)
	}
}

func TestGateway_CorruptEntryIsMiss(t *testing.T) {
	gw, mr := newTestGateway(t)
	ctx := context.Background()

	if err := mr.Set("clustering:org-1:abc", "{not json"); err != nil {
		t.Fatal(err)
	}

	var got cachedPlan
	if gw.Get(ctx, "clustering:org-1:abc", &got) {
		t.Error("expected corrupt entry to be treated as a miss")
	}
}
