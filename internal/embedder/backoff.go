package embedder

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// backoffPolicy mirrors kernel/retry.BackoffPolicy's shape: exponential
// delay capped at MaxMs, plus up to MaxJitterMs of jitter.
type backoffPolicy struct {
	BaseMs      int64
	MaxMs       int64
	MaxJitterMs int64
	MaxAttempts int
}

var defaultBackoff = backoffPolicy{
	BaseMs:      200,
	MaxMs:       10_000,
	MaxJitterMs: 250,
	MaxAttempts: 5,
}

// computeBackoff returns the delay before attemptIndex (0-based) for
// policy, following kernel/retry.ComputeBackoff's doubling-with-cap shape.
// Unlike the kernel's deterministic, hash-seeded jitter (needed there for
// replayable scheduling), embedder retries are not on the replay-critical
// path, so jitter here is drawn from crypto/rand — a deliberate deviation
// from the teacher's deterministic PRF, recorded in DESIGN.md.
func computeBackoff(policy backoffPolicy, attemptIndex int) time.Duration {
	factor := int64(1)
	for i := 0; i < attemptIndex && factor < (1<<30); i++ {
		factor *= 2
	}
	delay := policy.BaseMs * factor
	if delay > policy.MaxMs {
		delay = policy.MaxMs
	}
	if policy.MaxJitterMs > 0 {
		delay += randomJitter(policy.MaxJitterMs)
	}
	return time.Duration(delay) * time.Millisecond
}

func randomJitter(maxMs int64) int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0
	}
	v := binary.BigEndian.Uint64(buf[:])
	return int64(v % uint64(maxMs))
}
