package utils

import (
	"errors"
	"testing"
	"time"
)

func TestSnowflakeIDsAreUnique(t *testing.T) {
	gen := NewSnowflakeID(1)

	seen := make(map[int64]bool)
	for i := 0; i < 1000; i++ {
		id := gen.Generate()
		if seen[id] {
			t.Fatalf("duplicate id generated: %d", id)
		}
		seen[id] = true
	}
}

func TestRetryWithBackoffSucceedsAfterFailures(t *testing.T) {
	attempts := 0
	err := RetryWithBackoff(3, time.Millisecond, 5*time.Millisecond, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RetryWithBackoff = %v, want nil", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetryWithBackoffReturnsLastError(t *testing.T) {
	lastErr := errors.New("still down")
	attempts := 0
	err := RetryWithBackoff(3, time.Millisecond, 5*time.Millisecond, func() error {
		attempts++
		return lastErr
	})
	if !errors.Is(err, lastErr) {
		t.Errorf("RetryWithBackoff = %v, want %v", err, lastErr)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}
