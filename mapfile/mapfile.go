package mapfile

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dendrascience/drsmap/archive"
	"github.com/dendrascience/drsmap/drs"
	"go.uber.org/zap"
)

// DefaultOutputRoot is where converted mapfiles are written when no root is configured.
const DefaultOutputRoot = "with_var"

// maxLine bounds a single mapfile line.
const maxLine = 1 << 20

// Line is one non-blank mapfile line and its 1-based position in the file.
type Line struct {
	Number int
	Text   string
}

// Group is the set of rewritten lines sharing a new dataset identifier, in input order.
type Group struct {
	ID    string
	Lines []string
}

// LineError is a line that could not be remapped.
type LineError struct {
	Line int
	Err  error
}

func (e LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e LineError) Unwrap() error {
	return e.Err
}

// Read returns the non-blank lines of the mapfile at path and the number of blank
// lines it skipped.
func Read(path string) ([]Line, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: open %s: %w", drs.ErrIOFailure, path, err)
	}
	defer f.Close()

	var lines []Line
	blank := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)
	n := 0
	for scanner.Scan() {
		n++
		text := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			blank++
			continue
		}
		lines = append(lines, Line{Number: n, Text: text})
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: read %s: %w", drs.ErrIOFailure, path, err)
	}
	return lines, blank, nil
}

// Version returns the version suffix of a mapfile name, the part after its last dot,
// e.g. "v20110101" for "cmip5.output1.MOHC.HadGEM2-ES.historical.mon.atmos.Amon.r1i1p1.v20110101".
func Version(path string) (string, error) {
	base := filepath.Base(path)
	i := strings.LastIndex(base, ".")
	if i < 0 {
		return "", fmt.Errorf("%w: mapfile name %q has no version suffix", drs.ErrMalformedPath, base)
	}
	v := base[i+1:]
	if err := drs.CheckVersion(v); err != nil {
		return "", fmt.Errorf("mapfile %s: %w", base, err)
	}
	return v, nil
}

// Partition remaps every line once and groups the results by new identifier. Groups
// come in order of first appearance and keep the input order of their lines. Lines
// that fail to remap are returned as LineErrors and do not affect the others.
func Partition(lines []Line, r drs.Remapper) ([]Group, []LineError) {
	var groups []Group
	index := make(map[string]int)
	var failures []LineError
	for _, l := range lines {
		id, text, err := r.RemapLine(l.Text)
		if err != nil {
			failures = append(failures, LineError{Line: l.Number, Err: err})
			continue
		}
		i, ok := index[id]
		if !ok {
			i = len(groups)
			index[id] = i
			groups = append(groups, Group{ID: id})
		}
		groups[i].Lines = append(groups[i].Lines, text)
	}
	return groups, failures
}

// OutputDir is the directory receiving the partitions of mapfilePath: the mapfile's
// directory with every sourceTag segment replaced by targetTag, below outputRoot.
func OutputDir(outputRoot, mapfilePath, sourceTag, targetTag string) (string, error) {
	d := drs.Destination{
		Root:     outputRoot,
		Strategy: drs.Substitute,
		OldTag:   sourceTag,
		NewTag:   targetTag,
	}
	return d.Path(filepath.Dir(mapfilePath), drs.Facets{})
}

// WritePartitioned writes one "<id>.<version>" file per group into dir, creating dir
// when needed and overwriting existing files. It returns the written paths in group
// order.
func WritePartitioned(ops archive.Ops, groups []Group, dir, version string) ([]string, error) {
	if len(groups) == 0 {
		return nil, nil
	}
	if err := ops.MkdirAll(dir); err != nil {
		return nil, err
	}
	written := make([]string, 0, len(groups))
	for _, g := range groups {
		path := filepath.Join(dir, g.ID+"."+version)
		var b strings.Builder
		for _, l := range g.Lines {
			b.WriteString(l)
			b.WriteByte('\n')
		}
		if err := ops.WriteFile(path, []byte(b.String())); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

// Options configures Convert.
type Options struct {
	// OutputRoot receives the converted tree, DefaultOutputRoot if empty.
	OutputRoot string
	Remapper   drs.Remapper
}

// Result is the outcome of converting one mapfile.
type Result struct {
	Path     string
	Version  string
	Lines    int
	Blank    int
	Groups   []Group
	Written  []string
	Failures []LineError
}

// Convert partitions the mapfile at path by remapped identifier and writes the
// partitions. Line failures are returned in the result; the error is set only when
// the mapfile as a whole could not be processed.
func Convert(ops archive.Ops, path string, opts Options, log *zap.Logger) (Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	res := Result{Path: path}
	version, err := Version(path)
	if err != nil {
		return res, err
	}
	res.Version = version

	lines, blank, err := Read(path)
	if err != nil {
		return res, err
	}
	res.Lines, res.Blank = len(lines), blank

	res.Groups, res.Failures = Partition(lines, opts.Remapper)
	for _, f := range res.Failures {
		log.Warn("line not remapped", zap.String("mapfile", path), zap.Int("line", f.Line), zap.Error(f.Err))
	}

	root := opts.OutputRoot
	if root == "" {
		root = DefaultOutputRoot
	}
	dir, err := OutputDir(root, path, opts.Remapper.SourceTag, opts.Remapper.TargetTag)
	if err != nil {
		return res, err
	}
	res.Written, err = WritePartitioned(ops, res.Groups, dir, version)
	if err != nil {
		return res, err
	}
	for _, w := range res.Written {
		log.Info("wrote mapfile", zap.String("path", w))
	}
	return res, nil
}
