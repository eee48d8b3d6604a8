package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	ActionSendMessage        = "send_message"
	ActionCreateConversation = "create_conversation"
	ActionTyping             = "typing"
	ActionAuth               = "auth"
	ActionRequest            = "request"
)

// Policy is a token bucket: one token every Every, at most Burst tokens.
type Policy struct {
	Every time.Duration
	Burst int
}

func DefaultPolicies() map[string]Policy {
	return map[string]Policy{
		// 10 messages, then one every 6 seconds
		ActionSendMessage:        {Every: 6 * time.Second, Burst: 10},
		ActionCreateConversation: {Every: 20 * time.Second, Burst: 30},
		ActionTyping:             {Every: 2 * time.Second, Burst: 30},
		ActionAuth:               {Every: 12 * time.Second, Burst: 5},
		ActionRequest:            {Every: time.Second, Burst: 60},
	}
}

var fallbackPolicy = Policy{Every: 3 * time.Second, Burst: 20}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one bucket per subject (user id or IP) and action.
type RateLimiter struct {
	policies map[string]Policy
	buckets  map[string]*bucket
	mutex    sync.Mutex
}

func NewRateLimiter(policies map[string]Policy) *RateLimiter {
	if policies == nil {
		policies = DefaultPolicies()
	}
	return &RateLimiter{
		policies: policies,
		buckets:  make(map[string]*bucket),
	}
}

// Allow consumes a token for subject/action. When the bucket is empty it
// returns false and the time until the next token.
func (rl *RateLimiter) Allow(subject, action string) (bool, time.Duration) {
	limiter := rl.limiter(subject, action)

	reservation := limiter.Reserve()
	if !reservation.OK() {
		return false, time.Minute
	}
	if delay := reservation.Delay(); delay > 0 {
		reservation.Cancel()
		return false, delay
	}
	return true, 0
}

func (rl *RateLimiter) limiter(subject, action string) *rate.Limiter {
	key := subject + ":" + action

	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	b, exists := rl.buckets[key]
	if !exists {
		policy, ok := rl.policies[action]
		if !ok {
			policy = fallbackPolicy
		}
		b = &bucket{limiter: rate.NewLimiter(rate.Every(policy.Every), policy.Burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = time.Now()
	return b.limiter
}

// Cleanup drops buckets idle for longer than maxIdle.
func (rl *RateLimiter) Cleanup(maxIdle time.Duration) {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := time.Now()
	for key, b := range rl.buckets {
		if now.Sub(b.lastSeen) > maxIdle {
			delete(rl.buckets, key)
		}
	}
}

func (rl *RateLimiter) size() int {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()
	return len(rl.buckets)
}

// StartCleanupRoutine runs Cleanup every 30 minutes until ctx is done.
func (rl *RateLimiter) StartCleanupRoutine(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.Cleanup(time.Hour)
			}
		}
	}()
}
