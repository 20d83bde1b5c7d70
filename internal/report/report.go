// Package report writes run results as a YAML or JSON document and as a
// Prometheus textfile.
package report

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/conn-castle/c2-harness/internal/fsutil"
	"github.com/conn-castle/c2-harness/internal/harness"
	"github.com/conn-castle/c2-harness/internal/messages"
)

// Phase is the outcome of SetUp or TearDown.
type Phase struct {
	OK              bool    `yaml:"ok" json:"ok"`
	Error           string  `yaml:"error,omitempty" json:"error,omitempty"`
	DurationSeconds float64 `yaml:"duration_seconds" json:"duration_seconds"`
}

// Check is one check result.
type Check struct {
	Name            string   `yaml:"name" json:"name"`
	Status          string   `yaml:"status" json:"status"`
	Failures        []string `yaml:"failures,omitempty" json:"failures,omitempty"`
	DurationSeconds float64  `yaml:"duration_seconds" json:"duration_seconds"`
}

// Totals counts checks by status.
type Totals struct {
	Pass int `yaml:"pass" json:"pass"`
	Fail int `yaml:"fail" json:"fail"`
	Skip int `yaml:"skip" json:"skip"`
}

// Document is the serialized form of a run.
type Document struct {
	StartedAt time.Time `yaml:"started_at" json:"started_at"`
	Passed    bool      `yaml:"passed" json:"passed"`
	SetUp     Phase     `yaml:"setup" json:"setup"`
	Checks    []Check   `yaml:"checks" json:"checks"`
	TearDown  Phase     `yaml:"teardown" json:"teardown"`
	Totals    Totals    `yaml:"totals" json:"totals"`
}

// Build converts a run summary into a Document.
func Build(summary harness.Summary) Document {
	doc := Document{
		StartedAt: summary.StartedAt.UTC(),
		Passed:    summary.Passed(),
		SetUp:     phase(summary.SetUpErr, summary.SetUpDuration),
		TearDown:  phase(summary.TearDownErr, summary.TearDownDuration),
		Checks:    make([]Check, 0, len(summary.Results)),
		Totals: Totals{
			Pass: summary.Count(harness.StatusPass),
			Fail: summary.Count(harness.StatusFail),
			Skip: summary.Count(harness.StatusSkip),
		},
	}
	for _, r := range summary.Results {
		doc.Checks = append(doc.Checks, Check{
			Name:            r.Check,
			Status:          string(r.Status),
			Failures:        r.Failures,
			DurationSeconds: r.Duration.Seconds(),
		})
	}
	return doc
}

func phase(err error, d time.Duration) Phase {
	p := Phase{OK: err == nil, DurationSeconds: d.Seconds()}
	if err != nil {
		p.Error = err.Error()
	}
	return p
}

// Encode renders doc in the format chosen by the extension of path.
func Encode(path string, doc Document) ([]byte, error) {
	ext := strings.ToLower(filepath.Ext(path))
	var (
		data []byte
		err  error
	)
	switch ext {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(doc)
	case ".json":
		data, err = json.MarshalIndent(doc, "", "  ")
		data = append(data, '\n')
	default:
		return nil, fmt.Errorf(messages.ReportFormatUnknownFmt, path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf(messages.ReportEncodeFailedFmt, path, err)
	}
	return data, nil
}

// WriteFile writes the report for summary to path.
func WriteFile(path string, summary harness.Summary) error {
	data, err := Encode(path, Build(summary))
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf(messages.ReportWriteFailedFmt, path, err)
	}
	return nil
}
