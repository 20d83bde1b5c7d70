package report

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/conn-castle/c2-harness/internal/harness"
	"github.com/conn-castle/c2-harness/internal/messages"
)

const namespace = "c2h"

// Registry returns a registry holding the metrics for summary.
func Registry(summary harness.Summary) *prometheus.Registry {
	reg := prometheus.NewRegistry()

	checkStatus := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "check_status",
		Help:      "1 for the status each check ended in, 0 otherwise.",
	}, []string{"check", "status"})
	checkDuration := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "check_duration_seconds",
		Help:      "Wall time of each check.",
	}, []string{"check"})
	phaseDuration := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "phase_duration_seconds",
		Help:      "Wall time of environment setup and teardown.",
	}, []string{"phase"})
	phaseOK := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "phase_ok",
		Help:      "1 when the environment phase succeeded.",
	}, []string{"phase"})
	passed := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "run_passed",
		Help:      "1 when setup succeeded and no check failed.",
	})
	started := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "run_start_time_seconds",
		Help:      "Unix time the run started.",
	})
	reg.MustRegister(checkStatus, checkDuration, phaseDuration, phaseOK, passed, started)

	for _, r := range summary.Results {
		for _, status := range []harness.Status{harness.StatusPass, harness.StatusFail, harness.StatusSkip} {
			checkStatus.WithLabelValues(r.Check, string(status)).Set(boolValue(r.Status == status))
		}
		checkDuration.WithLabelValues(r.Check).Set(r.Duration.Seconds())
	}
	phaseDuration.WithLabelValues("setup").Set(summary.SetUpDuration.Seconds())
	phaseDuration.WithLabelValues("teardown").Set(summary.TearDownDuration.Seconds())
	phaseOK.WithLabelValues("setup").Set(boolValue(summary.SetUpErr == nil))
	phaseOK.WithLabelValues("teardown").Set(boolValue(summary.TearDownErr == nil))
	passed.Set(boolValue(summary.Passed()))
	if !summary.StartedAt.IsZero() {
		started.Set(float64(summary.StartedAt.Unix()))
	}
	return reg
}

// WriteMetrics writes summary to path in the node-exporter textfile format.
func WriteMetrics(path string, summary harness.Summary) error {
	if err := prometheus.WriteToTextfile(path, Registry(summary)); err != nil {
		return fmt.Errorf(messages.ReportMetricsFailedFmt, path, err)
	}
	return nil
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
