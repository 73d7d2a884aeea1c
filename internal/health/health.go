// Package health implements the readiness check for scheduled billing:
// a run can only succeed if the directory database answers, the RRD
// archive root exists, and the rrdtool binary resolves.
package health

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// Pinger validates connectivity to the directory database.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Check bundles what a billing run depends on. Zero-valued fields are
// skipped, so partial checks are possible in tests.
type Check struct {
	Directory Pinger
	RRDBase   string
	RRDTool   string
}

// Ready reports whether the next billing run could proceed.
func (c Check) Ready(ctx context.Context) error {
	if c.Directory != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := c.Directory.Ping(pingCtx); err != nil {
			return fmt.Errorf("directory ping failed: %w", err)
		}
	}
	if c.RRDBase != "" {
		info, err := os.Stat(c.RRDBase)
		if err != nil {
			return fmt.Errorf("rrd base: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("rrd base %s is not a directory", c.RRDBase)
		}
	}
	if c.RRDTool != "" {
		if _, err := exec.LookPath(c.RRDTool); err != nil {
			return fmt.Errorf("rrdtool not found: %w", err)
		}
	}
	return nil
}
