package remote

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestClassification(t *testing.T) {
	if !IsThrottled(Throttled(time.Second)) {
		t.Error("Throttled error not recognized as throttled")
	}
	if !IsStaleBatch(StaleBatch()) {
		t.Error("StaleBatch error not recognized as stale")
	}
	if !IsNotFound(NotFound("123")) {
		t.Error("NotFound error not recognized as not found")
	}
	if !IsPermissionDenied(PermissionDenied()) {
		t.Error("PermissionDenied error not recognized")
	}
	if IsThrottled(errors.New("boom")) {
		t.Error("plain error misclassified as throttled")
	}
}

func TestRetryAfter(t *testing.T) {
	hint, ok := RetryAfter(Throttled(2 * time.Second))
	if !ok {
		t.Fatal("RetryAfter should find a hint on a throttled error")
	}
	if hint != 2*time.Second {
		t.Errorf("hint = %v, want 2s", hint)
	}

	if _, ok := RetryAfter(Throttled(0)); ok {
		t.Error("RetryAfter should report no hint when none was attached")
	}
	if _, ok := RetryAfter(errors.New("boom")); ok {
		t.Error("RetryAfter should report no hint on a plain error")
	}
	if _, ok := RetryAfter(StaleBatch()); ok {
		t.Error("RetryAfter should report no hint on a non-throttle status")
	}
}

func TestRetryAfterWrapped(t *testing.T) {
	wrapped := fmt.Errorf("client.BatchDelete: %w", Throttled(3*time.Second))

	hint, ok := RetryAfter(wrapped)
	if !ok {
		t.Fatal("RetryAfter should unwrap the status error")
	}
	if hint != 3*time.Second {
		t.Errorf("hint = %v, want 3s", hint)
	}
	if !IsThrottled(wrapped) {
		t.Error("wrapped throttle not recognized")
	}
}
