package cipher

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/RowanDark/adfgvx/internal/adfgvx"
)

var (
	adfgvxPattern  = regexp.MustCompile(`^[ADFGVX]+$`)
	groupedPattern = regexp.MustCompile(`^[ADFGVX]+(?:\s+[ADFGVX]+)+$`)
	base64Pattern  = regexp.MustCompile(`^[A-Za-z0-9+/]+=*$`)
)

// SmartDetector recognises the shapes a message takes around the cipher:
// raw ciphertext, ciphertext in transmission groups, Base64 armor and
// plaintext ready to encipher.
type SmartDetector struct{}

// NewSmartDetector creates a new smart detector
func NewSmartDetector() *SmartDetector {
	return &SmartDetector{}
}

// Detect attempts to identify the encoding of the input
func (d *SmartDetector) Detect(ctx context.Context, input []byte) ([]DetectionResult, error) {
	if len(input) == 0 {
		return nil, fmt.Errorf("empty input")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	inputStr := strings.TrimSpace(string(input))
	results := []DetectionResult{}
	results = append(results, d.detectADFGVX(inputStr)...)
	results = append(results, d.detectGrouped(inputStr)...)
	results = append(results, d.detectBase64(inputStr)...)
	results = append(results, d.detectPlaintext(inputStr)...)

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Confidence > results[j].Confidence
	})

	filtered := []DetectionResult{}
	for _, r := range results {
		if r.Confidence >= 0.3 {
			filtered = append(filtered, r)
		}
	}

	return filtered, nil
}

// SupportedEncodings returns a list of encodings this detector can identify
func (d *SmartDetector) SupportedEncodings() []string {
	return []string{
		"adfgvx",
		"adfgvx-grouped",
		"base64",
		"square-text",
	}
}

func (d *SmartDetector) detectADFGVX(inputStr string) []DetectionResult {
	if !adfgvxPattern.MatchString(inputStr) {
		return nil
	}
	if len(inputStr)%2 != 0 {
		return []DetectionResult{{
			Encoding:   "adfgvx",
			Confidence: 0.5,
			Reasoning:  fmt.Sprintf("Only ADFGVX symbols but odd length %d; ciphertext may be truncated", len(inputStr)),
			Operation:  "adfgvx_decrypt",
		}}
	}
	confidence := 0.95
	if len(inputStr) < 6 {
		confidence = 0.7
	}
	return []DetectionResult{{
		Encoding:   "adfgvx",
		Confidence: confidence,
		Reasoning:  fmt.Sprintf("%d ADFGVX symbols (%d pairs)", len(inputStr), len(inputStr)/2),
		Operation:  "adfgvx_decrypt",
	}}
}

func (d *SmartDetector) detectGrouped(inputStr string) []DetectionResult {
	if !groupedPattern.MatchString(inputStr) {
		return nil
	}
	groups := strings.Fields(inputStr)
	size := len(groups[0])
	uniform := true
	for _, g := range groups[:len(groups)-1] {
		if len(g) != size {
			uniform = false
			break
		}
	}
	confidence := 0.9
	reasoning := fmt.Sprintf("%d groups of %d ADFGVX symbols", len(groups), size)
	if !uniform {
		confidence = 0.6
		reasoning = fmt.Sprintf("%d groups of ADFGVX symbols with uneven sizes", len(groups))
	}
	return []DetectionResult{{
		Encoding:   "adfgvx-grouped",
		Confidence: confidence,
		Reasoning:  reasoning,
		Operation:  "ungroup_blocks",
	}}
}

func (d *SmartDetector) detectBase64(inputStr string) []DetectionResult {
	if !base64Pattern.MatchString(inputStr) {
		return nil
	}
	decoded, err := base64.StdEncoding.DecodeString(inputStr)
	if err != nil {
		return nil
	}

	confidence := 0.8
	reasoning := "Matches Base64 pattern and decodes successfully"
	switch {
	case adfgvxPattern.MatchString(inputStr):
		// Pure ADFGVX text is also valid Base64; prefer the cipher reading.
		confidence = 0.35
		reasoning = "Decodes as Base64 but consists only of ADFGVX symbols"
	case adfgvxPattern.Match(decoded):
		confidence = 0.9
		reasoning = "Base64 armor around ADFGVX ciphertext"
	}
	return []DetectionResult{{
		Encoding:   "base64",
		Confidence: confidence,
		Reasoning:  reasoning,
		Operation:  "base64_decode",
	}}
}

func (d *SmartDetector) detectPlaintext(inputStr string) []DetectionResult {
	if adfgvxPattern.MatchString(inputStr) || groupedPattern.MatchString(inputStr) {
		return nil
	}
	inSquare, letters := 0, 0
	for i := 0; i < len(inputStr); i++ {
		c := inputStr[i]
		if adfgvx.InSquare(c) {
			inSquare++
		}
		if c >= 'A' && c <= 'Z' {
			letters++
		}
	}
	if letters == 0 {
		return nil
	}
	ratio := float64(inSquare) / float64(len(inputStr))
	if ratio < 0.5 {
		return nil
	}
	return []DetectionResult{{
		Encoding:   "square-text",
		Confidence: 0.6 * ratio,
		Reasoning:  fmt.Sprintf("%.0f%% of characters can be enciphered", ratio*100),
		Operation:  "adfgvx_encrypt",
	}}
}

// PrepareCiphertext peels transport layers (Base64 armor, transmission
// groups) off input until raw ADFGVX ciphertext remains. It returns the
// ciphertext and the names of the operations applied.
func PrepareCiphertext(ctx context.Context, input []byte) ([]byte, []string, error) {
	detector := NewSmartDetector()
	current := input
	var applied []string

	for step := 0; step < 4; step++ {
		detections, err := detector.Detect(ctx, current)
		if err != nil {
			return nil, applied, err
		}
		if len(detections) == 0 {
			return nil, applied, fmt.Errorf("input is not recognised as ADFGVX ciphertext")
		}

		top := detections[0]
		switch top.Operation {
		case "adfgvx_decrypt":
			return []byte(strings.TrimSpace(string(current))), applied, nil
		case "ungroup_blocks", "base64_decode":
			op, ok := GetOperation(top.Operation)
			if !ok {
				return nil, applied, fmt.Errorf("operation %s is not registered", top.Operation)
			}
			current, err = op.Execute(ctx, current, nil)
			if err != nil {
				return nil, applied, err
			}
			applied = append(applied, top.Operation)
		default:
			return nil, applied, fmt.Errorf("input looks like %s, not ciphertext", top.Encoding)
		}
	}
	return nil, applied, fmt.Errorf("too many nested layers")
}
