package server

import (
	"fmt"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per connection so a noisy client cannot
// crowd the session inbox.
type RateLimiter struct {
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter // connectionID -> bucket
	mu       sync.Mutex
}

// NewRateLimiter allows perSecond messages per connection with bursts of up
// to burst messages.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Allow reports whether the connection may send another message now.
func (r *RateLimiter) Allow(connectionID string) bool {
	r.mu.Lock()
	limiter, ok := r.limiters[connectionID]
	if !ok {
		limiter = rate.NewLimiter(r.limit, r.burst)
		r.limiters[connectionID] = limiter
	}
	r.mu.Unlock()

	return limiter.Allow()
}

// RemoveConnection forgets the bucket of a closed connection.
func (r *RateLimiter) RemoveConnection(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.limiters, connectionID)
}

func (r *RateLimiter) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.limiters)
}

var validTypes = map[string]bool{
	MsgJoin:         true,
	MsgChooseColour: true,
	MsgStart:        true,
	MsgMouseUpdate:  true,
	MsgRequestMove:  true,
	MsgRequestNoise: true,
	MsgAttack:       true,
	MsgDiscard:      true,
	MsgUseSigil:     true,
	MsgFinish:       true,
}

// ValidateMessageType checks if a message type is recognized
func ValidateMessageType(msgType string) error {
	if !validTypes[msgType] {
		return fmt.Errorf("INVALID_MESSAGE_TYPE: Unknown message type '%s'", msgType)
	}
	return nil
}
