package batch

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RowanDark/adfgvx/internal/adfgvx"
	"github.com/RowanDark/adfgvx/internal/logging"
)

func encipherJob(t *testing.T, id, plaintext, key string) Job {
	t.Helper()
	res, err := adfgvx.Encipher(plaintext, key)
	require.NoError(t, err)
	return Job{ID: id, Key: key, Ciphertext: res.Ciphertext}
}

func TestRunnerPreservesOrder(t *testing.T) {
	keys := []string{"UM", "CAB", "SEMB2025", "CHAVE123", "K"}
	var jobs []Job
	var want []string
	for i := 0; i < 40; i++ {
		plaintext := "MESSAGE " + strings.Repeat("AB", i%7) + string(rune('A'+i%26))
		jobs = append(jobs, encipherJob(t, fmt.Sprintf("job-%d", i), plaintext, keys[i%len(keys)]))
		want = append(want, plaintext)
	}

	outcomes, err := NewRunner(WithWorkers(3)).Run(context.Background(), jobs)
	require.NoError(t, err)
	require.Len(t, outcomes, len(jobs))
	for i, o := range outcomes {
		require.NoError(t, o.Err, "job %s", o.Job.ID)
		assert.Equal(t, jobs[i].ID, o.Job.ID)
		assert.Equal(t, want[i], o.Result.Plaintext)
	}
}

func TestRunnerRecordsPerJobErrors(t *testing.T) {
	jobs := []Job{
		{ID: "bad-key", Key: "TOOLONGKEY", Ciphertext: "ADFG"},
		encipherJob(t, "good", "LUCAS", "UM"),
		{ID: "odd", Key: "UM", Ciphertext: "ADF"},
		{ID: "bad-symbol", Key: "A", Ciphertext: "ADZZ"},
	}

	outcomes, err := NewRunner(WithWorkers(2)).Run(context.Background(), jobs)
	require.NoError(t, err)

	assert.ErrorIs(t, outcomes[0].Err, adfgvx.ErrInvalidKeyLength)
	require.NoError(t, outcomes[1].Err)
	assert.Equal(t, "LUCAS", outcomes[1].Result.Plaintext)
	assert.ErrorIs(t, outcomes[2].Err, adfgvx.ErrOddSymbolCount)
	assert.ErrorIs(t, outcomes[3].Err, adfgvx.ErrInvalidSymbol)
	assert.Equal(t, "B", outcomes[3].Result.Plaintext)
	assert.True(t, outcomes[3].Result.Partial())
}

func TestRunnerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	jobs := []Job{encipherJob(t, "a", "LUCAS", "UM"), encipherJob(t, "b", "HI", "CAB")}
	outcomes, err := NewRunner().Run(ctx, jobs)
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, outcomes, 2)
	for _, o := range outcomes {
		assert.ErrorIs(t, o.Err, context.Canceled)
		assert.Empty(t, o.Result.Plaintext)
	}
}

func TestRunnerEmitsAuditEvents(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.NewAuditLogger("batch", logging.WithoutStderr(), logging.WithWriter(&buf))
	require.NoError(t, err)

	jobs := []Job{
		encipherJob(t, "good", "LUCAS", "SECRETK"),
		{ID: "bad", Key: "SECRETK", Ciphertext: "ADF"},
	}
	_, err = NewRunner(WithAuditLogger(logger)).Run(context.Background(), jobs)
	require.NoError(t, err)

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, `"event_type":"batch_job"`))
	assert.Contains(t, out, `"request_id":"good"`)
	assert.Contains(t, out, `"decision":"deny"`)
	assert.NotContains(t, out, "SECRETK")
}

func TestRunnerCapacityOption(t *testing.T) {
	jobs := []Job{encipherJob(t, "long", "ATTACK AT DAWN", "GERMAN")}
	outcomes, err := NewRunner(WithCipherOptions(adfgvx.WithPlaintextCapacity(6))).Run(context.Background(), jobs)
	require.NoError(t, err)

	assert.ErrorIs(t, outcomes[0].Err, adfgvx.ErrCapacityExceeded)
	assert.Equal(t, "ATTACK", outcomes[0].Result.Plaintext)
	assert.True(t, outcomes[0].Result.Truncated)
}
