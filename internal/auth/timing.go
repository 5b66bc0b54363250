package auth

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// TimingConfig holds configuration for failure-path delays
type TimingConfig struct {
	BaseDelayMs   int // Base delay in milliseconds
	RandomDelayMs int // Random delay range in milliseconds
}

// TimingDelay pads failed verification paths with a randomized delay so that
// "no live code" and "wrong code" take indistinguishable time, matching their
// deliberately identical response shapes.
type TimingDelay struct {
	config TimingConfig
}

// NewTimingDelay creates a new TimingDelay instance
func NewTimingDelay(config TimingConfig) *TimingDelay {
	return &TimingDelay{config: config}
}

// cryptoRandMs returns a secure random number in [0, max); crypto/rand rather
// than math/rand because the delay is a security control
func cryptoRandMs(max int) int {
	if max <= 0 {
		return 0
	}

	randomBytes := make([]byte, 8)
	if _, err := rand.Read(randomBytes); err != nil {
		return 0
	}

	return int(binary.BigEndian.Uint64(randomBytes) % uint64(max))
}

// Wait sleeps for the base delay plus a random component. Call on failure
// paths only; success already pays the bcrypt comparison cost.
func (td *TimingDelay) Wait() {
	delay := time.Duration(td.config.BaseDelayMs+cryptoRandMs(td.config.RandomDelayMs)) * time.Millisecond
	time.Sleep(delay)
}
