package results

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lehigh-university-libraries/covermatch/internal/eval/metrics"
)

func TestSaveAndLoadYAML(t *testing.T) {
	dir := t.TempDir()
	agg := metrics.AggregateEvaluationResults([]metrics.EvaluationResult{
		{ImagePath: "1/a.jpg", ExpectedBookID: 1, MatchedBookID: 1, Kind: "confirmed", Tier: "high", Style: "standard", Score: 0.9, HasScore: true, Gap: 0.3, ProcessingTime: time.Second},
		{ImagePath: "unknown/b.jpg", Kind: "unknown", Tier: "unknown", Style: "cartoon", Score: 0.2, HasScore: true},
	}, "clip", "ViT-L/14")

	path, err := SaveToYAML(dir, EvalConfig{Provider: "clip", Model: "ViT-L/14", Timestamp: "2025-01-02_03-04-05"}, agg)
	require.NoError(t, err)

	if filepath.Base(path) != "clip-ViT-L_14-2025-01-02_03-04-05.yaml" {
		t.Errorf("Unexpected file name %s", filepath.Base(path))
	}
	assert.True(t, strings.HasPrefix(path, dir) || filepath.IsAbs(path))

	spec, err := LoadYAML(path)
	require.NoError(t, err)
	assert.Equal(t, "clip", spec.Config.Provider)
	require.Len(t, spec.Results, 2)
	assert.Equal(t, "1/a.jpg", spec.Results[0].ImagePath)
	require.NotNil(t, spec.Summary)
	assert.Equal(t, 1, spec.Summary.CorrectAccepts)
	assert.Equal(t, 1, spec.Summary.CorrectRejections)
	assert.Len(t, spec.Summary.Results, 2)
}

func TestLoadYAMLMissing(t *testing.T) {
	_, err := LoadYAML(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
