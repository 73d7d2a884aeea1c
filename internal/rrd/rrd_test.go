package rrd

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"
)

const fetchOutput = `                          INOCTETS           OUTOCTETS

1756684800: 1.2500000000e+06 2.5000000000e+06
1756685100: nan -nan
1756685400: 3.7500000000e+06 1.0000000000e+06
`

func stubClient(output string, err error) (*Client, *[][]string) {
	var calls [][]string
	c := NewClient(Config{})
	c.run = func(_ context.Context, name string, args ...string) ([]byte, error) {
		calls = append(calls, append([]string{name}, args...))
		return []byte(output), err
	}
	return c, &calls
}

func TestFetchParsesSeries(t *testing.T) {
	c, _ := stubClient(fetchOutput, nil)

	series, err := c.Fetch(context.Background(), "/rrd/host/port-1.rrd", time.Unix(1756684800, 0), time.Unix(1756685400, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(series.Names) != 2 || series.Names[0] != "INOCTETS" || series.Names[1] != "OUTOCTETS" {
		t.Fatalf("names: got %v", series.Names)
	}
	if len(series.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(series.Rows))
	}
	if series.Step != 300*time.Second {
		t.Fatalf("step: got %v, want 5m", series.Step)
	}
	if series.Rows[0].Values[0] != 1.25e6 || series.Rows[0].Values[1] != 2.5e6 {
		t.Fatalf("row 0 values: got %v", series.Rows[0].Values)
	}
	if !math.IsNaN(series.Rows[1].Values[0]) || !math.IsNaN(series.Rows[1].Values[1]) {
		t.Fatalf("gap row should parse as NaN, got %v", series.Rows[1].Values)
	}
}

func TestSamplesMapsDirectionsAndWindow(t *testing.T) {
	c, _ := stubClient(fetchOutput, nil)

	// Window excludes the last row.
	samples, err := c.Samples(context.Background(), "/rrd/host/port-1.rrd", time.Unix(1756684800, 0), time.Unix(1756685100, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples inside the window, got %d", len(samples))
	}
	if samples[0].In != 1.25e6 || samples[0].Out != 2.5e6 {
		t.Fatalf("sample 0: got in=%g out=%g", samples[0].In, samples[0].Out)
	}
	if !math.IsNaN(samples[1].In) {
		t.Fatal("gap must stay NaN, not zero")
	}
}

func TestSamplesRejectsSingleSeries(t *testing.T) {
	c, _ := stubClient("                 INOCTETS\n\n1756684800: 1.0e+06\n", nil)

	_, err := c.Samples(context.Background(), "/rrd/host/port-9.rrd", time.Unix(0, 0), time.Unix(1e10, 0))
	var merr *MalformedSeriesError
	if !errors.As(err, &merr) {
		t.Fatalf("expected MalformedSeriesError, got %v", err)
	}
	if merr.Series != 1 || merr.Path != "/rrd/host/port-9.rrd" {
		t.Fatalf("unexpected error detail: %+v", merr)
	}
}

func TestFetchBuildsArguments(t *testing.T) {
	c, calls := stubClient(fetchOutput, nil)
	c.daemon = "unix:/var/run/rrdcached.sock"

	_, err := c.Fetch(context.Background(), "/rrd/x.rrd", time.Unix(100, 0), time.Unix(200, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(*calls) != 1 {
		t.Fatalf("expected 1 exec call, got %d", len(*calls))
	}
	got := (*calls)[0]
	want := []string{"rrdtool", "fetch", "/rrd/x.rrd", "AVERAGE", "--start", "100", "--end", "200", "--daemon", "unix:/var/run/rrdcached.sock"}
	if len(got) != len(want) {
		t.Fatalf("args: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("arg %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFetchPropagatesExecError(t *testing.T) {
	c, _ := stubClient("", errors.New("rrdtool: No such file or directory"))

	_, err := c.Fetch(context.Background(), "/rrd/missing.rrd", time.Unix(0, 0), time.Unix(1, 0))
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestParseFetchOutputRejectsMalformedRows(t *testing.T) {
	c, _ := stubClient("  IN OUT\n\nnot-a-row\n", nil)
	if _, err := c.Fetch(context.Background(), "/rrd/x.rrd", time.Unix(0, 0), time.Unix(1, 0)); err == nil {
		t.Fatal("expected parse error for malformed row")
	}

	c2, _ := stubClient("  IN OUT\n\n100: 1.0\n", nil)
	if _, err := c2.Fetch(context.Background(), "/rrd/x.rrd", time.Unix(0, 0), time.Unix(1, 0)); err == nil {
		t.Fatal("expected parse error for short row")
	}
}
