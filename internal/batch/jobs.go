package batch

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/RowanDark/adfgvx/internal/adfgvx"
)

const maxLineBytes = 1 << 20

// Job is one ciphertext to decipher.
type Job struct {
	ID         string
	Key        string
	Ciphertext string
	// Line is the 1-based line the job was read from, zero when built in code.
	Line int
}

// Outcome pairs a job with its decipher result. Err is per job; a failed job
// never stops the others.
type Outcome struct {
	Job    Job
	Result adfgvx.Result
	Err    error
}

// ReadJobs parses JSON Lines of the form {"id","key","ciphertext"}. Blank
// lines are skipped and jobs without an id receive a random UUID.
func ReadJobs(r io.Reader) ([]Job, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var jobs []Job
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		if !gjson.ValidBytes(line) {
			return nil, fmt.Errorf("line %d: invalid JSON", lineNo)
		}
		fields := gjson.GetManyBytes(line, "id", "key", "ciphertext")
		if !fields[2].Exists() {
			return nil, fmt.Errorf("line %d: missing ciphertext", lineNo)
		}
		id := strings.TrimSpace(fields[0].String())
		if id == "" {
			id = uuid.NewString()
		}
		jobs = append(jobs, Job{
			ID:         id,
			Key:        fields[1].String(),
			Ciphertext: strings.TrimSpace(fields[2].String()),
			Line:       lineNo,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read jobs: %w", err)
	}
	return jobs, nil
}

type outcomeRecord struct {
	ID        string `json:"id"`
	Plaintext string `json:"plaintext"`
	Partial   bool   `json:"partial,omitempty"`
	Truncated bool   `json:"truncated,omitempty"`
	Error     string `json:"error,omitempty"`
}

// WriteOutcomes writes one JSON object per outcome, in order.
func WriteOutcomes(w io.Writer, outcomes []Outcome) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, o := range outcomes {
		rec := outcomeRecord{
			ID:        o.Job.ID,
			Plaintext: o.Result.Plaintext,
			Partial:   o.Result.Partial(),
			Truncated: o.Result.Truncated,
		}
		if o.Err != nil {
			rec.Error = o.Err.Error()
		}
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("write outcome %s: %w", o.Job.ID, err)
		}
	}
	return nil
}
