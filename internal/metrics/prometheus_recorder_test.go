package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration("stage", 150*time.Millisecond)
	pr.ObserveBuildDuration(500 * time.Millisecond)
	pr.IncStageResult("stage", ResultSuccess)
	pr.IncBuildOutcome(BuildOutcomeSuccess)
	pr.SetFileCount("import", 4)
	pr.ObserveArchiveSize(2048)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, mfs)

	require.InDelta(t, 1, testutil.ToFloat64(pr.buildOutcome.WithLabelValues("success")), 0)
	require.InDelta(t, 4, testutil.ToFloat64(pr.fileCount.WithLabelValues("import")), 0)
	require.InDelta(t, 2048, testutil.ToFloat64(pr.archiveSize), 0)
}

func TestPrometheusRecorder_NilSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.ObserveStageDuration("build", time.Second)
	pr.IncBuildOutcome(BuildOutcomeFailed)
	pr.SetFileCount("filter", 1)
}

func TestWriteTextfile(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.IncBuildOutcome(BuildOutcomeFailed)

	path := filepath.Join(t.TempDir(), "tidyarxiv.prom")
	require.NoError(t, pr.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(data), `tidyarxiv_build_outcomes_total{outcome="failed"} 1`), string(data))
}
