package resilience

import (
	"errors"
	"testing"
	"time"
)

func twoBackendGroup(cbCfg CircuitBreakerConfig) *FallbackGroup[string] {
	fg := NewFallbackGroup("whisper", "whisper", FallbackConfig{CircuitBreaker: cbCfg})
	fg.AddFallback("openai", "openai")
	return fg
}

func TestFallbackGroup_PrimaryAnswers(t *testing.T) {
	fg := twoBackendGroup(CircuitBreakerConfig{MaxFailures: 3})

	var answered string
	err := fg.Execute(func(backend string) error {
		answered = backend
		return nil
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if answered != "whisper" {
		t.Fatalf("answered by %q, want the primary", answered)
	}
}

func TestFallbackGroup_FallbackAnswersWhenPrimaryFails(t *testing.T) {
	fg := twoBackendGroup(CircuitBreakerConfig{MaxFailures: 3})

	var answered string
	err := fg.Execute(func(backend string) error {
		if backend == "whisper" {
			return errBackendDown
		}
		answered = backend
		return nil
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if answered != "openai" {
		t.Fatalf("answered by %q, want the fallback", answered)
	}
}

func TestFallbackGroup_AllFail(t *testing.T) {
	fg := twoBackendGroup(CircuitBreakerConfig{MaxFailures: 3})

	err := fg.Execute(func(string) error { return errBackendDown })
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("err = %v, want ErrAllFailed", err)
	}
}

func TestFallbackGroup_OpenBreakerSkipsBackend(t *testing.T) {
	fg := twoBackendGroup(CircuitBreakerConfig{
		MaxFailures:  2,
		ResetTimeout: time.Hour,
	})

	// Fail the primary until its breaker opens.
	for i := 0; i < 2; i++ {
		_ = fg.Execute(func(backend string) error {
			if backend == "whisper" {
				return errBackendDown
			}
			return nil
		})
	}

	// With the primary suspended, calls land on the fallback directly.
	var answered string
	err := fg.Execute(func(backend string) error {
		answered = backend
		return nil
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if answered != "openai" {
		t.Fatalf("answered by %q, want the fallback while the primary is suspended", answered)
	}
}

func TestExecuteWithResult_PrimaryAnswers(t *testing.T) {
	fg := twoBackendGroup(CircuitBreakerConfig{MaxFailures: 3})

	text, err := ExecuteWithResult(fg, func(backend string) (string, error) {
		return "transcript from " + backend, nil
	})
	if err != nil {
		t.Fatalf("ExecuteWithResult: %v", err)
	}
	if text != "transcript from whisper" {
		t.Fatalf("result = %q", text)
	}
}

func TestExecuteWithResult_Failover(t *testing.T) {
	fg := twoBackendGroup(CircuitBreakerConfig{MaxFailures: 3})

	text, err := ExecuteWithResult(fg, func(backend string) (string, error) {
		if backend == "whisper" {
			return "", errBackendDown
		}
		return "transcript from " + backend, nil
	})
	if err != nil {
		t.Fatalf("ExecuteWithResult: %v", err)
	}
	if text != "transcript from openai" {
		t.Fatalf("result = %q, want the fallback's transcript", text)
	}
}

func TestExecuteWithResult_AllFail(t *testing.T) {
	fg := NewFallbackGroup("whisper", "whisper", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})

	_, err := ExecuteWithResult(fg, func(string) (string, error) {
		return "", errBackendDown
	})
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("err = %v, want ErrAllFailed", err)
	}
}
