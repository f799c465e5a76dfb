package realtime

import (
	"math"
	"sync"
	"time"

	"bustix/internal/domain"

	"golang.org/x/time/rate"
)

type GovernorConfig struct {
	MaxConnections    int
	MaxRoomJoins      int
	AttemptsPerSecond float64
	AttemptBurst      int
	BlockDuration     time.Duration
}

// BlockRecord exists only while a temporary suspension is active.
type BlockRecord struct {
	Reason    string
	BlockedAt time.Time
	ExpiresAt time.Time
}

// Governor tracks per-user connection counts, room joins and temporary
// blocks. All registries are owned here and guarded by one mutex; the
// lifecycle is tied to server start/stop, not ambient global state.
type Governor struct {
	cfg GovernorConfig
	now func() time.Time

	mu       sync.Mutex
	conns    map[string]int
	joins    map[string]int
	attempts map[string]*attemptWindow
	blocks   map[string]BlockRecord
}

// attemptWindow rate-limits connection attempts inside a short sliding
// window; lastSeen lets the sweep drop stale entries.
type attemptWindow struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewGovernor(cfg GovernorConfig, now func() time.Time) *Governor {
	if now == nil {
		now = time.Now
	}
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = 3
	}
	if cfg.MaxRoomJoins <= 0 {
		cfg.MaxRoomJoins = 10
	}
	if cfg.AttemptsPerSecond <= 0 {
		cfg.AttemptsPerSecond = 1
	}
	if cfg.AttemptBurst <= 0 {
		cfg.AttemptBurst = 5
	}
	if cfg.BlockDuration <= 0 {
		cfg.BlockDuration = 5 * time.Minute
	}
	return &Governor{
		cfg:      cfg,
		now:      now,
		conns:    map[string]int{},
		joins:    map[string]int{},
		attempts: map[string]*attemptWindow{},
		blocks:   map[string]BlockRecord{},
	}
}

// AllowConnect admits a new connection for the user or rejects it with the
// remaining cool-down. Rejections while blocked never extend the expiry.
func (g *Governor) AllowConnect(user string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if rec, ok := g.activeBlock(user, now); ok {
		return domain.ThrottleError{
			Kind:             domain.KindAlreadyBlocked,
			Reason:           rec.Reason,
			RemainingSeconds: remainingSeconds(rec, now),
		}
	}

	w, ok := g.attempts[user]
	if !ok {
		w = &attemptWindow{
			limiter: rate.NewLimiter(rate.Limit(g.cfg.AttemptsPerSecond), g.cfg.AttemptBurst),
		}
		g.attempts[user] = w
	}
	w.lastSeen = now
	if !w.limiter.AllowN(now, 1) {
		rec := g.block(user, "too many connection attempts", now)
		return domain.ThrottleError{
			Kind:             domain.KindConnectionThrottled,
			Reason:           rec.Reason,
			RemainingSeconds: remainingSeconds(rec, now),
		}
	}

	if g.conns[user] >= g.cfg.MaxConnections {
		rec := g.block(user, "too many concurrent connections", now)
		return domain.ThrottleError{
			Kind:             domain.KindConnectionThrottled,
			Reason:           rec.Reason,
			RemainingSeconds: remainingSeconds(rec, now),
		}
	}

	g.conns[user]++
	return nil
}

// Disconnect releases one connection slot. When the user's last connection
// closes, their join counter starts over.
func (g *Governor) Disconnect(user string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.conns[user] > 0 {
		g.conns[user]--
	}
	if g.conns[user] == 0 {
		delete(g.conns, user)
		delete(g.joins, user)
	}
}

// AllowJoin admits one more room join for the user, returning the running
// join count, or rejects with a throttle error that created a block.
func (g *Governor) AllowJoin(user string) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if rec, ok := g.activeBlock(user, now); ok {
		return 0, domain.ThrottleError{
			Kind:             domain.KindAlreadyBlocked,
			Reason:           rec.Reason,
			RemainingSeconds: remainingSeconds(rec, now),
		}
	}

	if g.joins[user] >= g.cfg.MaxRoomJoins {
		rec := g.block(user, "room join limit exceeded", now)
		return 0, domain.ThrottleError{
			Kind:             domain.KindRoomJoinThrottled,
			Reason:           rec.Reason,
			RemainingSeconds: remainingSeconds(rec, now),
		}
	}

	g.joins[user]++
	return g.joins[user], nil
}

// RefundJoin returns a join credit consumed for a join that never took
// effect, such as when the connection closed while the join was admitted.
func (g *Governor) RefundJoin(user string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.joins[user] > 0 {
		g.joins[user]--
	}
	if g.joins[user] == 0 {
		delete(g.joins, user)
	}
}

// ResetJoins zeroes the room-join counter, used by idle eviction.
func (g *Governor) ResetJoins(user string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.joins, user)
}

// Blocked reports the active block for a user, if any.
func (g *Governor) Blocked(user string) (BlockRecord, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.activeBlock(user, g.now())
}

// MaxRoomJoins exposes the configured join threshold for event payloads.
func (g *Governor) MaxRoomJoins() int {
	return g.cfg.MaxRoomJoins
}

// Sweep removes expired blocks and attempt windows idle for longer than the
// block duration.
func (g *Governor) Sweep() {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	for user, rec := range g.blocks {
		if now.After(rec.ExpiresAt) {
			delete(g.blocks, user)
		}
	}
	horizon := now.Add(-g.cfg.BlockDuration)
	for user, w := range g.attempts {
		if w.lastSeen.Before(horizon) {
			delete(g.attempts, user)
		}
	}
}

// activeBlock drops an expired record on read so a block never lingers past
// its expiry. Callers hold g.mu.
func (g *Governor) activeBlock(user string, now time.Time) (BlockRecord, bool) {
	rec, ok := g.blocks[user]
	if !ok {
		return BlockRecord{}, false
	}
	if now.After(rec.ExpiresAt) {
		delete(g.blocks, user)
		return BlockRecord{}, false
	}
	return rec, true
}

// block records a new suspension unless one is already active; an existing
// block is never extended. Callers hold g.mu.
func (g *Governor) block(user, reason string, now time.Time) BlockRecord {
	if rec, ok := g.activeBlock(user, now); ok {
		return rec
	}
	rec := BlockRecord{
		Reason:    reason,
		BlockedAt: now,
		ExpiresAt: now.Add(g.cfg.BlockDuration),
	}
	g.blocks[user] = rec
	return rec
}

func remainingSeconds(rec BlockRecord, now time.Time) int {
	remaining := rec.ExpiresAt.Sub(now).Seconds()
	if remaining < 0 {
		return 0
	}
	return int(math.Ceil(remaining))
}
