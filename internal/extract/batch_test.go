package extract

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/question-bank/internal/explain"
	"github.com/pdiddy/question-bank/pkg/types"
)

func testPipeline(t *testing.T) *Pipeline {
	t.Helper()
	return &Pipeline{
		Extractor: newTestExtractor(t, types.ExtractionConfig{}),
		Rules:     explain.Default(),
		Workers:   2,
	}
}

func testBatchConfig(t *testing.T) types.ExtractionConfig {
	t.Helper()
	tmp := t.TempDir()
	cfg := types.ExtractionConfig{
		PoolsDir: filepath.Join(tmp, "pools"),
		BankDir:  filepath.Join(tmp, "bank"),
	}
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.PoolsDir, rawDir), 0o755))
	return cfg
}

func writeCorpus(t *testing.T, cfg types.ExtractionConfig, name, content string) string {
	t.Helper()
	path := filepath.Join(cfg.PoolsDir, rawDir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestPipelineRun(t *testing.T) {
	p := testPipeline(t)
	completed, res, err := p.Run(context.Background(), strings.Join([]string{t0a01, "T0A99 (A) broken", t0a03}, "\n"))
	require.NoError(t, err)

	require.Len(t, completed, 2)
	assert.Equal(t, 1, res.Dropped)
	assert.Contains(t, completed[0].Explanation, "Shorting a battery's terminals")
	assert.Contains(t, completed[1].Explanation, "black indicates the hot")
	for _, c := range completed {
		assert.NotEmpty(t, c.Explanation)
	}
}

func TestPipelineRunMalformedIdentifierKeepsExplanation(t *testing.T) {
	p := testPipeline(t)
	malformed := strings.Replace(t0a03, "T0A03", "T0A003", 1)
	completed, res, err := p.Run(context.Background(), strings.Join([]string{t0a01, malformed}, "\n"))
	require.NoError(t, err)

	require.Len(t, completed, 1)
	assert.Equal(t, 1, res.Dropped)
	assert.Equal(t, "Shorting the terminals can cause burns, fire, or an explosion", completed[0].CorrectText)
	assert.Contains(t, completed[0].Explanation, "Shorting a battery's terminals")
	assert.NotContains(t, completed[0].Explanation, "black indicates the hot")
}

func TestPipelineRunReject(t *testing.T) {
	ex := newTestExtractor(t, types.ExtractionConfig{Duplicates: types.DuplicateReject})
	p := &Pipeline{Extractor: ex, Rules: explain.Default()}

	_, _, err := p.Run(context.Background(), t0a01+"\n"+t0a01)
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestExtractAll(t *testing.T) {
	cfg := testBatchConfig(t)
	writeCorpus(t, cfg, "technician.txt", strings.Join([]string{"Group T0A", t0a01, t0a02, t0a03}, "\n"))
	writeCorpus(t, cfg, "notes.md", "ignored")

	var buf bytes.Buffer
	summary, err := testPipeline(t).ExtractAll(context.Background(), cfg, &buf)
	require.NoError(t, err)

	assert.Equal(t, BatchSummary{Extracted: 1}, summary)
	assert.Equal(t, 1, summary.Total())
	assert.False(t, summary.HasFailures())
	assert.Contains(t, buf.String(), "extracted technician (3 questions, 0 dropped)")

	set, err := ReadSet(filepath.Join(cfg.BankDir, extractedDir, "technician"+OutputSuffix))
	require.NoError(t, err)
	assert.Equal(t, "technician", set.Pool)
	require.Len(t, set.Questions, 3)
	assert.Equal(t, types.QuestionID("T0A02"), set.Questions[1].ID)
	assert.Equal(t, types.LetterD, set.Questions[1].CorrectLetter)
	assert.NotEmpty(t, set.Questions[1].Explanation)
}

func TestExtractAllSkipsUnchanged(t *testing.T) {
	cfg := testBatchConfig(t)
	path := writeCorpus(t, cfg, "technician.txt", t0a01)
	p := testPipeline(t)

	_, err := p.ExtractAll(context.Background(), cfg, &bytes.Buffer{})
	require.NoError(t, err)

	var buf bytes.Buffer
	summary, err := p.ExtractAll(context.Background(), cfg, &buf)
	require.NoError(t, err)
	assert.Equal(t, BatchSummary{Skipped: 1}, summary)
	assert.Contains(t, buf.String(), "skipped technician")

	// Touch the corpus into the future so it is newer than the output.
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	summary, err = p.ExtractAll(context.Background(), cfg, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, BatchSummary{Extracted: 1}, summary)
}

func TestExtractAllRecordsFailures(t *testing.T) {
	cfg := testBatchConfig(t)
	writeCorpus(t, cfg, "dupes.txt", t0a01+"\n"+t0a01)
	writeCorpus(t, cfg, "good.txt", t0a03)

	p := testPipeline(t)
	p.Extractor = newTestExtractor(t, types.ExtractionConfig{Duplicates: types.DuplicateReject})

	var buf bytes.Buffer
	summary, err := p.ExtractAll(context.Background(), cfg, &buf)
	require.NoError(t, err)
	assert.Equal(t, BatchSummary{Extracted: 1, Failed: 1}, summary)
	assert.True(t, summary.HasFailures())
	assert.Contains(t, buf.String(), "failed  dupes: duplicate question id: T0A01")
}

func TestExtractAllMissingDir(t *testing.T) {
	cfg := types.ExtractionConfig{
		PoolsDir: filepath.Join(t.TempDir(), "missing"),
		BankDir:  t.TempDir(),
	}
	_, err := testPipeline(t).ExtractAll(context.Background(), cfg, &bytes.Buffer{})
	require.ErrorContains(t, err, "reading corpus directory")
}

func TestExtractAllCancelled(t *testing.T) {
	cfg := testBatchConfig(t)
	writeCorpus(t, cfg, "technician.txt", t0a01)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testPipeline(t).ExtractAll(ctx, cfg, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHasChanged(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.txt")
	out := filepath.Join(dir, "out.yaml")
	require.NoError(t, os.WriteFile(in, []byte("x"), 0o644))

	changed, err := hasChanged(in, out)
	require.NoError(t, err)
	assert.True(t, changed, "missing output counts as changed")

	require.NoError(t, os.WriteFile(out, []byte("y"), 0o644))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(in, past, past))

	changed, err = hasChanged(in, out)
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = hasChanged(filepath.Join(dir, "nope.txt"), out)
	assert.Error(t, err)
}
