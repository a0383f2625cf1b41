package cipher

import (
	"context"
	"encoding/base64"
	"reflect"
	"testing"
)

func TestDetect(t *testing.T) {
	detector := NewSmartDetector()
	ctx := context.Background()

	tests := []struct {
		name             string
		input            string
		expectedEncoding string
		minConfidence    float64
	}{
		{"raw ciphertext", "XFFAADGAAG", "adfgvx", 0.9},
		{"short ciphertext", "ADFG", "adfgvx", 0.6},
		{"odd length ciphertext", "ADF", "adfgvx", 0.5},
		{"grouped ciphertext", "XFFAA DGAAG", "adfgvx-grouped", 0.85},
		{"base64 armor", "WEZGQUFER0FBRw==", "base64", 0.85},
		{"plaintext", "ATTACK AT DAWN", "square-text", 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := detector.Detect(ctx, []byte(tt.input))
			if err != nil {
				t.Fatalf("detect failed: %v", err)
			}
			if len(results) == 0 {
				t.Fatalf("expected %s to be detected", tt.expectedEncoding)
			}

			top := results[0]
			if top.Encoding != tt.expectedEncoding {
				t.Fatalf("expected top result %s, got %s (%.2f: %s)", tt.expectedEncoding, top.Encoding, top.Confidence, top.Reasoning)
			}
			if top.Confidence < tt.minConfidence {
				t.Errorf("expected confidence >= %.2f, got %.2f", tt.minConfidence, top.Confidence)
			}
		})
	}
}

func TestDetectSortedByConfidence(t *testing.T) {
	results, err := NewSmartDetector().Detect(context.Background(), []byte("ADFG"))
	if err != nil {
		t.Fatalf("detect failed: %v", err)
	}
	if len(results) < 2 {
		t.Fatalf("expected ADFGVX and Base64 readings, got %d results", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i-1].Confidence < results[i].Confidence {
			t.Fatalf("results not sorted: %+v", results)
		}
	}
}

func TestDetectNothing(t *testing.T) {
	detector := NewSmartDetector()
	results, err := detector.Detect(context.Background(), []byte("hello, world!"))
	if err != nil {
		t.Fatalf("detect failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no detections, got %+v", results)
	}

	if _, err := detector.Detect(context.Background(), nil); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestSupportedEncodings(t *testing.T) {
	encodings := NewSmartDetector().SupportedEncodings()
	if len(encodings) != 4 {
		t.Errorf("expected 4 supported encodings, got %v", encodings)
	}
}

func TestPrepareCiphertext(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		input   string
		applied []string
	}{
		{"raw", "XFFAADGAAG\n", nil},
		{"grouped", "XFFAA DGAAG", []string{"ungroup_blocks"}},
		{"armored", "WEZGQUFER0FBRw==", []string{"base64_decode"}},
		{"armored groups", base64.StdEncoding.EncodeToString([]byte("XFFAA DGAAG")), []string{"base64_decode", "ungroup_blocks"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ciphertext, applied, err := PrepareCiphertext(ctx, []byte(tt.input))
			if err != nil {
				t.Fatalf("prepare failed: %v", err)
			}
			if string(ciphertext) != "XFFAADGAAG" {
				t.Errorf("expected raw ciphertext, got %q", ciphertext)
			}
			if !reflect.DeepEqual(applied, tt.applied) {
				t.Errorf("expected steps %v, got %v", tt.applied, applied)
			}
		})
	}

	if _, _, err := PrepareCiphertext(ctx, []byte("ATTACK AT DAWN")); err == nil {
		t.Error("expected plaintext to be rejected")
	}
}
