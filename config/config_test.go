package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Unity-Technologies/trace-exporter-go/exporter"
)

func TestBuild_RejectsUnselectedProtocol(t *testing.T) {
	_, err := NewBuilder().WithEndpoint("127.0.0.1:4317").Build()
	if err == nil {
		t.Fatal("expected a BuildError for an unselected protocol")
	}
	if _, ok := err.(*exporter.BuildError); !ok {
		t.Fatalf("expected *exporter.BuildError, got %T", err)
	}
}

func TestBuild_EmptyEnvFallsBackToDefaultEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_CAPNP_TRACES_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_CAPNP_ENDPOINT", "")
	h, err := NewBuilder().WithCapnp().WithTimeout(time.Millisecond).Build()
	if err != nil {
		t.Fatalf("expected empty env vars to fall back to DefaultEndpoint, got %v", err)
	}
	defer h.Shutdown()
}

func TestBuild_AcceptsExplicitEndpointWithEnvSet(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_CAPNP_ENDPOINT", "127.0.0.1:9999")
	h, err := NewBuilder().WithCapnp().WithEndpoint("127.0.0.1:4317").WithTimeout(time.Millisecond).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer h.Shutdown()
}

func TestBuild_AcceptsGenericEnvVarEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_CAPNP_TRACES_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_CAPNP_ENDPOINT", "127.0.0.1:9999")
	h, err := NewBuilder().WithCapnp().WithTimeout(time.Millisecond).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer h.Shutdown()
}

func TestWithPolicy_DoesNotOverrideExplicitRetryPolicy(t *testing.T) {
	explicit := exporter.RetryPolicy{MaxRetries: 9, InitialDelay: time.Second}
	b := NewBuilder().WithCapnp().WithRetryPolicy(explicit)
	b.WithPolicy(&Policy{
		RetryPolicy:  &yamlRetryPolicy{MaxRetries: 1, InitialDelayMs: 1},
		Backpressure: exporter.RejectNewest,
	})
	if b.retry != explicit {
		t.Errorf("retry policy was overridden: got %+v want %+v", b.retry, explicit)
	}
}

func TestWithPolicy_AppliesWhenNoExplicitRetrySet(t *testing.T) {
	b := NewBuilder().WithCapnp()
	b.WithPolicy(&Policy{
		RetryPolicy: &yamlRetryPolicy{MaxRetries: 7, InitialDelayMs: 50, MaxDelayMs: 500, JitterMs: 10},
	})
	want := exporter.RetryPolicy{
		MaxRetries:   7,
		InitialDelay: 50 * time.Millisecond,
		MaxDelay:     500 * time.Millisecond,
		Jitter:       10 * time.Millisecond,
	}
	if b.retry != want {
		t.Errorf("retry policy = %+v, want %+v", b.retry, want)
	}
}

func TestLoadPolicyFile_StrictDecodeAndCache(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	contents := "retry:\n  max_retries: 5\n  initial_delay_ms: 200\n  max_delay_ms: 2000\n  jitter_ms: 50\nbackpressure: reject_newest\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write policy file: %v", err)
	}

	p, err := LoadPolicyFile(path)
	if err != nil {
		t.Fatalf("LoadPolicyFile: %v", err)
	}
	if p.Backpressure != exporter.RejectNewest {
		t.Errorf("Backpressure = %v, want RejectNewest", p.Backpressure)
	}
	got := p.retryPolicy()
	want := exporter.RetryPolicy{
		MaxRetries: 5, InitialDelay: 200 * time.Millisecond,
		MaxDelay: 2000 * time.Millisecond, Jitter: 50 * time.Millisecond,
	}
	if got != want {
		t.Errorf("retryPolicy() = %+v, want %+v", got, want)
	}

	p2, err := LoadPolicyFile(path)
	if err != nil {
		t.Fatalf("LoadPolicyFile (cached): %v", err)
	}
	if p2 != p {
		t.Error("expected the cached *Policy pointer to be returned on the second load")
	}
}

func TestLoadPolicyFile_RejectsUnknownField(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("retyr:\n  max_retries: 1\n"), 0o644); err != nil {
		t.Fatalf("write policy file: %v", err)
	}
	if _, err := LoadPolicyFile(path); err == nil {
		t.Fatal("expected strict decode to reject an unknown field")
	}
}

func TestLoadPolicyFile_RejectsUnknownBackpressureName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "badbp.yaml")
	if err := os.WriteFile(path, []byte("backpressure: drop_oldest\n"), 0o644); err != nil {
		t.Fatalf("write policy file: %v", err)
	}
	if _, err := LoadPolicyFile(path); err == nil {
		t.Fatal("expected an error for an unrecognized backpressure policy name")
	}
}

func TestPolicy_RetryPolicyDefaultsWhenOmitted(t *testing.T) {
	p := &Policy{}
	if got, want := p.retryPolicy(), exporter.DefaultRetryPolicy(); got != want {
		t.Errorf("retryPolicy() = %+v, want default %+v", got, want)
	}
}
