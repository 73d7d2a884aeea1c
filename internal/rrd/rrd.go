// Package rrd reads interface traffic series from RRD archives by driving
// the rrdtool binary, optionally through a running rrdcached.
package rrd

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"burstbill/internal/domain"
)

// MalformedSeriesError reports an archive unusable for billing: a billable
// interface must expose at least an in and an out data series.
type MalformedSeriesError struct {
	Path   string
	Series int
}

func (e *MalformedSeriesError) Error() string {
	return fmt.Sprintf("%s: %d data series, need at least 2 (in/out)", e.Path, e.Series)
}

// Series is one archive's fetch result: the stored data series names and
// one row per timestamp step, with NaN marking gaps.
type Series struct {
	Names []string
	Step  time.Duration
	Rows  []Row
}

type Row struct {
	Ts     time.Time
	Values []float64
}

type Config struct {
	Command string // rrdtool binary, default "rrdtool"
	Daemon  string // optional rrdcached address, passed as --daemon
	CF      string // consolidation function, default AVERAGE
}

// Client fetches and parses RRD archives. Safe for concurrent use.
type Client struct {
	bin    string
	daemon string
	cf     string

	run func(ctx context.Context, name string, args ...string) ([]byte, error)
}

func NewClient(cfg Config) *Client {
	if cfg.Command == "" {
		cfg.Command = "rrdtool"
	}
	if cfg.CF == "" {
		cfg.CF = "AVERAGE"
	}
	return &Client{bin: cfg.Command, daemon: cfg.Daemon, cf: cfg.CF, run: runCommand}
}

// Fetch returns the archive's rows for [start, end] as stored, one value
// per data series per step.
func (c *Client) Fetch(ctx context.Context, path string, start, end time.Time) (*Series, error) {
	args := []string{
		"fetch", path, c.cf,
		"--start", strconv.FormatInt(start.Unix(), 10),
		"--end", strconv.FormatInt(end.Unix(), 10),
	}
	if c.daemon != "" {
		args = append(args, "--daemon", c.daemon)
	}

	out, err := c.run(ctx, c.bin, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}
	series, err := parseFetchOutput(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("parse fetch output for %s: %w", path, err)
	}
	return series, nil
}

// Samples maps an archive's first two data series onto the in and out
// directions, dropping rows outside [start, end]. Gap values stay NaN;
// excluding them is the percentile computation's concern, not the loader's.
func (c *Client) Samples(ctx context.Context, path string, start, end time.Time) ([]domain.Sample, error) {
	series, err := c.Fetch(ctx, path, start, end)
	if err != nil {
		return nil, err
	}
	if len(series.Names) < 2 {
		return nil, &MalformedSeriesError{Path: path, Series: len(series.Names)}
	}

	samples := make([]domain.Sample, 0, len(series.Rows))
	for _, row := range series.Rows {
		if row.Ts.Before(start) || row.Ts.After(end) {
			continue
		}
		samples = append(samples, domain.Sample{Ts: row.Ts, In: row.Values[0], Out: row.Values[1]})
	}
	return samples, nil
}

// parseFetchOutput reads rrdtool fetch output: a header line of data series
// names, a blank line, then "timestamp: v1 v2 ..." rows in ascending
// timestamp order.
func parseFetchOutput(r *bytes.Reader) (*Series, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var names []string
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		names = strings.Fields(line)
		break
	}
	if len(names) == 0 {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("no data series header")
	}

	series := &Series{Names: names}
	var prevTs int64
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		tsField, rest, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("malformed row %q", line)
		}
		ts, err := strconv.ParseInt(strings.TrimSpace(tsField), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed timestamp in row %q", line)
		}
		fields := strings.Fields(rest)
		if len(fields) != len(names) {
			return nil, fmt.Errorf("row %d has %d values, want %d", ts, len(fields), len(names))
		}
		values := make([]float64, len(fields))
		for i, f := range fields {
			v, err := parseValue(f)
			if err != nil {
				return nil, fmt.Errorf("malformed value %q in row %d", f, ts)
			}
			values[i] = v
		}
		series.Rows = append(series.Rows, Row{Ts: time.Unix(ts, 0), Values: values})
		if series.Step == 0 && prevTs != 0 {
			series.Step = time.Duration(ts-prevTs) * time.Second
		}
		prevTs = ts
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return series, nil
}

// parseValue handles rrdtool's gap spellings ("nan", "-nan") alongside
// ordinary scientific notation.
func parseValue(s string) (float64, error) {
	if strings.TrimPrefix(strings.ToLower(s), "-") == "nan" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			// rrdtool reports most failures on stdout.
			detail = strings.TrimSpace(stdout.String())
		}
		if detail != "" {
			return nil, fmt.Errorf("%v: %s", err, detail)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}
