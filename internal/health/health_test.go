package health

import (
	"context"
	"errors"
	"testing"
)

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestReadyAllChecksPass(t *testing.T) {
	check := Check{Directory: fakePinger{}, RRDBase: t.TempDir()}
	if err := check.Ready(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReadyDirectoryDown(t *testing.T) {
	check := Check{Directory: fakePinger{err: errors.New("connection refused")}}
	if err := check.Ready(context.Background()); err == nil {
		t.Fatal("expected error when directory ping fails")
	}
}

func TestReadyMissingRRDBase(t *testing.T) {
	check := Check{RRDBase: "/nonexistent/rrd"}
	if err := check.Ready(context.Background()); err == nil {
		t.Fatal("expected error for missing rrd base")
	}
}

func TestReadyMissingRRDTool(t *testing.T) {
	check := Check{RRDTool: "definitely-not-a-real-binary"}
	if err := check.Ready(context.Background()); err == nil {
		t.Fatal("expected error when rrdtool is not on PATH")
	}
}
