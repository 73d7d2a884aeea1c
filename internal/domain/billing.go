package domain

import "time"

// Period is the billing window a run measures, shared read-only by every
// loader call in that run.
type Period struct {
	Start time.Time
	End   time.Time
	Label string
}

// Sample is one traffic measurement on an interface. Rates are raw
// bytes/sec as stored; a direction with no recorded data is NaN.
type Sample struct {
	Ts  time.Time
	In  float64
	Out float64
}

// Interface is a customer-billable port discovered from the directory.
type Interface struct {
	IfIndex  int64
	Hostname string
	Alias    string
	Customer string

	// SeriesRef locates the interface's time series in storage, here the
	// RRD file path derived from hostname and ifIndex.
	SeriesRef string
}

// CustomerGroup is the set of interfaces attributed to one billable
// customer, in directory discovery order.
type CustomerGroup struct {
	Customer   string
	Interfaces []Interface
}

// BillingResult is the terminal artifact of a run: one billable figure
// per customer.
type BillingResult struct {
	Customer string
	Mbps     float64
}
