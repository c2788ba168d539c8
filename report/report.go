package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dendrascience/drsmap/drs"
	"github.com/dendrascience/drsmap/version"
	"github.com/google/renameio/v2"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// ErrPartial is returned by commands that completed with per-record failures.
var ErrPartial = errors.New("completed with errors")

// Exit codes of the drsmap binary.
const (
	ExitOK      = 0
	ExitFatal   = 1
	ExitPartial = 2
)

// Failure is one failed input.
type Failure struct {
	Input  string `json:"input" yaml:"input"`
	Kind   string `json:"kind" yaml:"kind"`
	Reason string `json:"reason" yaml:"reason"`
}

// Summary collects the outcome of one run. It is safe for concurrent use.
type Summary struct {
	RunID     string    `json:"run_id" yaml:"run_id"`
	Version   string    `json:"version" yaml:"version"`
	Command   string    `json:"command" yaml:"command"`
	DryRun    bool      `json:"dry_run" yaml:"dry_run"`
	Started   time.Time `json:"started" yaml:"started"`
	Finished  time.Time `json:"finished" yaml:"finished"`
	Succeeded int       `json:"succeeded" yaml:"succeeded"`
	Failed    int       `json:"failed" yaml:"failed"`
	Skipped   int       `json:"skipped" yaml:"skipped"`
	Failures  []Failure `json:"failures" yaml:"failures"`
	// SkipReasons counts skipped inputs per reason.
	SkipReasons map[string]int `json:"skip_reasons,omitempty" yaml:"skip_reasons,omitempty"`
	// Written lists output files produced by the run, when the command writes any.
	Written []string `json:"written,omitempty" yaml:"written,omitempty"`

	mu sync.Mutex
}

// New starts a summary for command with a fresh run ID.
func New(command string, dryRun bool) *Summary {
	return &Summary{
		RunID:    uuid.New().String(),
		Version:  version.Get().String(),
		Command:  command,
		DryRun:   dryRun,
		Started:  time.Now().UTC(),
		Failures: []Failure{},
	}
}

// Success records a succeeded input.
func (s *Summary) Success(input string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Succeeded++
}

// Skip records an input that needed no work.
func (s *Summary) Skip(input, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Skipped++
	if s.SkipReasons == nil {
		s.SkipReasons = make(map[string]int)
	}
	s.SkipReasons[reason]++
}

// Fail records a failed input with the reason it failed.
func (s *Summary) Fail(input string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Failed++
	s.Failures = append(s.Failures, Failure{Input: input, Kind: drs.Kind(err), Reason: err.Error()})
}

// AddWritten records an output file.
func (s *Summary) AddWritten(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Written = append(s.Written, path)
}

// Finish stamps the end time and sorts failures by input for stable output.
func (s *Summary) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Finished = time.Now().UTC()
	sort.SliceStable(s.Failures, func(i, j int) bool {
		return s.Failures[i].Input < s.Failures[j].Input
	})
	sort.Strings(s.Written)
}

// Total is the number of inputs seen.
func (s *Summary) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Succeeded + s.Failed + s.Skipped
}

// Err returns ErrPartial when any input failed.
func (s *Summary) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Failed > 0 {
		return fmt.Errorf("%w: %d of %d failed", ErrPartial, s.Failed, s.Succeeded+s.Failed+s.Skipped)
	}
	return nil
}

// ExitCode maps the error returned by a command to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrPartial):
		return ExitPartial
	default:
		return ExitFatal
	}
}

// Print writes the human readable summary.
func (s *Summary) Print(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mode := ""
	if s.DryRun {
		mode = " (dry run)"
	}
	fmt.Fprintf(w, "\n%s complete%s:\n", s.Command, mode)
	fmt.Fprintf(w, "  Run ID: %s\n", s.RunID)
	fmt.Fprintf(w, "  Succeeded: %d\n", s.Succeeded)
	fmt.Fprintf(w, "  Failed: %d\n", s.Failed)
	fmt.Fprintf(w, "  Skipped: %d\n", s.Skipped)
	reasons := make([]string, 0, len(s.SkipReasons))
	for r := range s.SkipReasons {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		fmt.Fprintf(w, "    %s: %d\n", r, s.SkipReasons[r])
	}
	if !s.Finished.IsZero() {
		fmt.Fprintf(w, "  Duration: %s\n", s.Finished.Sub(s.Started).Round(time.Millisecond))
	}
	if len(s.Failures) == 0 {
		return
	}
	fmt.Fprintf(w, "\nFailures:\n")
	for _, f := range s.Failures {
		fmt.Fprintf(w, "  - [%s] %s: %s\n", f.Kind, f.Input, f.Reason)
	}
}

// Write saves the summary to path, as YAML for .yaml/.yml extensions and JSON otherwise.
func (s *Summary) Write(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	var buf bytes.Buffer
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return err
		}
		if err := enc.Close(); err != nil {
			return err
		}
	default:
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(s); err != nil {
			return err
		}
	}
	// The file only appears once its content is fully flushed and closed.
	return renameio.WriteFile(path, buf.Bytes(), 0o644, renameio.WithTempDir(filepath.Dir(path)))
}
