package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/shuttleroute/shuttleroute/internal/fleet"
)

// Namespace prefixes every clustering cache key.
const Namespace = "clustering"

// DefaultTTL is the default lifetime of a cached clustering result.
const DefaultTTL = 3600 * time.Second

// keyHashLen truncates the SHA-256 digest to a fixed-length hex prefix.
const keyHashLen = 16

// GatewayConfig holds configuration for the cache gateway.
type GatewayConfig struct {
	// Backend is the key-value store. Required.
	Backend Backend

	// TTL for stored entries (default: DefaultTTL).
	TTL time.Duration

	// Logger for cache diagnostics.
	Logger zerolog.Logger
}

// Gateway derives deterministic cache keys from planning inputs and performs
// best-effort reads and writes against the backend. A circuit breaker stops
// hammering an unreachable backend; while it is open every read is a miss and
// every write a no-op.
type Gateway struct {
	backend Backend
	ttl     time.Duration
	logger  zerolog.Logger
	breaker *gobreaker.CircuitBreaker[string]
}

// NewGateway creates a new cache gateway.
func NewGateway(cfg GatewayConfig) *Gateway {
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}

	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:    "clustering-cache",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
		},
		// A miss is the normal cold-cache answer and a cancelled request says
		// nothing about backend health; only genuine backend errors may trip
		// the breaker.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrCacheMiss) || errors.Is(err, context.Canceled)
		},
	})

	return &Gateway{
		backend: cfg.Backend,
		ttl:     ttl,
		logger:  cfg.Logger,
		breaker: breaker,
	}
}

// Key derives the deterministic cache key for one planning request.
// Employees and vehicles are sorted by ID before serialization, so any
// ordering of the same sets produces the same key.
func (g *Gateway) Key(orgID string, employees []fleet.EmployeeStop, vehicles []fleet.Vehicle) string {
	emps := make([]fleet.EmployeeStop, len(employees))
	copy(emps, employees)
	sort.Slice(emps, func(i, j int) bool { return emps[i].ID < emps[j].ID })

	vehs := make([]fleet.Vehicle, len(vehicles))
	copy(vehs, vehicles)
	sort.Slice(vehs, func(i, j int) bool { return vehs[i].ID < vehs[j].ID })

	var b strings.Builder
	b.WriteString(orgID)
	for _, e := range emps {
		fmt.Fprintf(&b, "|e:%s:%.6f:%.6f", e.ID, e.Location.Lat, e.Location.Lon)
	}
	for _, v := range vehs {
		fmt.Fprintf(&b, "|v:%s:%d", v.ID, v.Capacity)
	}

	sum := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%s:%s:%s", Namespace, orgID, hex.EncodeToString(sum[:])[:keyHashLen])
}

// Get loads and unmarshals a cached value into out. Returns false on miss,
// backend failure or a corrupt entry; failures are logged, never propagated.
func (g *Gateway) Get(ctx context.Context, key string, out any) bool {
	raw, err := g.breaker.Execute(func() (string, error) {
		return g.backend.Get(ctx, key)
	})
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			g.logger.Debug().Str("key", key).Msg("cache miss")
		} else {
			g.logger.Warn().Err(err).Str("key", key).Msg("cache read failed, recomputing")
		}
		return false
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		g.logger.Warn().Err(err).Str("key", key).Msg("corrupt cache entry, recomputing")
		return false
	}

	g.logger.Debug().Str("key", key).Msg("cache hit")
	return true
}

// Set marshals and stores a value under key. Best-effort: failures are logged
// and swallowed.
func (g *Gateway) Set(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		g.logger.Error().Err(err).Str("key", key).Msg("cache value not serializable")
		return
	}

	_, err = g.breaker.Execute(func() (string, error) {
		return "", g.backend.Set(ctx, key, string(raw), g.ttl)
	})
	if err != nil {
		g.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
		return
	}

	g.logger.Debug().Str("key", key).Dur("ttl", g.ttl).Msg("cached clustering result")
}

// Ping reports whether the cache backend is reachable.
func (g *Gateway) Ping(ctx context.Context) error {
	return g.backend.Ping(ctx)
}

// InvalidateOrganization deletes every cached entry for the organization.
// Called when the organization's employee or vehicle set changes.
func (g *Gateway) InvalidateOrganization(ctx context.Context, orgID string) error {
	pattern := fmt.Sprintf("%s:%s:*", Namespace, orgID)

	_, err := g.breaker.Execute(func() (string, error) {
		return "", g.backend.DeletePattern(ctx, pattern)
	})
	if err != nil {
		g.logger.Warn().Err(err).Str("org_id", orgID).Msg("cache invalidation failed")
		return err
	}

	g.logger.Info().Str("org_id", orgID).Msg("invalidated clustering cache")
	return nil
}
