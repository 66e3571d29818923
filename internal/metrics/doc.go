// Package metrics records build observations for tidyarxiv runs.
//
// Components receive a Recorder; NoopRecorder is the default so callers never
// need nil checks. When a metrics file is configured the CLI injects a
// PrometheusRecorder backed by its own registry and, after the run, writes the
// registry in the Prometheus text exposition format with WriteTextfile so a
// node_exporter textfile collector can pick it up.
package metrics
