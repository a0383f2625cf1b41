package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestAuditLoggerEmit(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := NewAuditLogger("test", WithoutStderr(), WithWriter(buf))
	if err != nil {
		t.Fatalf("NewAuditLogger: %v", err)
	}

	event := AuditEvent{EventType: EventDecipher, Decision: DecisionAllow, RequestID: "req-1"}
	if err := logger.Emit(event); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	var decoded AuditEvent
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}

	if decoded.Component != "test" {
		t.Fatalf("expected component 'test', got %q", decoded.Component)
	}
	if decoded.EventType != EventDecipher {
		t.Fatalf("expected event type %q, got %q", EventDecipher, decoded.EventType)
	}
	if decoded.Decision != DecisionAllow {
		t.Fatalf("expected decision %q, got %q", DecisionAllow, decoded.Decision)
	}
	if decoded.RequestID != "req-1" {
		t.Fatalf("expected request id to round-trip, got %q", decoded.RequestID)
	}
	if decoded.Timestamp.IsZero() {
		t.Fatalf("expected timestamp to be set")
	}
}

func TestAuditLoggerRedactsKeys(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := MustNewAuditLogger("cipher", WithoutStderr(), WithWriter(buf))

	err := logger.Emit(AuditEvent{
		EventType: EventKeyRejected,
		Decision:  DecisionDeny,
		Reason:    "rejected key=TOOLONGKEY",
		Metadata:  map[string]any{"key": "TOOLONGKEY", "key_length": 10},
	})
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if strings.Contains(buf.String(), "TOOLONGKEY") {
		t.Fatalf("audit line leaked the key: %s", buf.String())
	}

	var decoded AuditEvent
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}
	if decoded.Metadata["key_length"] != float64(10) {
		t.Fatalf("expected key_length to survive redaction, got %#v", decoded.Metadata["key_length"])
	}
}

func TestAuditLoggerWithComponentSharesWriters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	root, err := NewAuditLogger("root", WithoutStderr(), WithFile(path))
	if err != nil {
		t.Fatalf("NewAuditLogger: %v", err)
	}
	child := root.WithComponent("batch")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := child.Emit(AuditEvent{EventType: EventBatchJob}); err != nil {
				t.Errorf("Emit: %v", err)
			}
		}()
	}
	wg.Wait()

	if err := child.Close(); err != nil {
		t.Fatalf("child Close: %v", err)
	}
	if err := root.Close(); err != nil {
		t.Fatalf("root Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open audit file: %v", err)
	}
	defer f.Close()

	lines := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var event AuditEvent
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			t.Fatalf("line %d is not JSON: %v", lines, err)
		}
		if event.Component != "batch" {
			t.Fatalf("expected component batch, got %q", event.Component)
		}
		lines++
	}
	if lines != 8 {
		t.Fatalf("expected 8 audit lines, got %d", lines)
	}
}

func TestNewAuditLoggerRequiresWriter(t *testing.T) {
	if _, err := NewAuditLogger("x", WithoutStderr()); err == nil {
		t.Fatalf("expected error when every writer is removed")
	}
	if _, err := NewAuditLogger("x", WithFile("  ")); err == nil {
		t.Fatalf("expected error for blank file path")
	}
}

func TestEmitDefaultsDecisionToInfo(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := MustNewAuditLogger("selftest", WithoutStderr(), WithWriter(buf))

	if err := logger.Emit(AuditEvent{EventType: EventSelftestCheck}); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	var decoded AuditEvent
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}
	if decoded.Decision != DecisionInfo {
		t.Fatalf("expected decision %q, got %q", DecisionInfo, decoded.Decision)
	}
}

func TestEmitRequiresEventType(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := MustNewAuditLogger("cipher", WithoutStderr(), WithWriter(buf))

	if err := logger.Emit(AuditEvent{Decision: DecisionAllow}); err == nil {
		t.Fatal("expected error for event without type")
	}
	if buf.Len() != 0 {
		t.Fatalf("expected nothing written, got %q", buf.String())
	}
	if err := Discard().Emit(AuditEvent{}); err == nil {
		t.Fatal("expected discard logger to reject event without type")
	}
}

func TestDiscardDropsEvents(t *testing.T) {
	logger := Discard()
	if err := logger.Emit(AuditEvent{EventType: EventEncipher, Metadata: map[string]any{"key": "SECRET"}}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	child := logger.WithComponent("batch")
	if err := child.Emit(AuditEvent{EventType: EventBatchJob}); err != nil {
		t.Fatalf("child Emit: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
