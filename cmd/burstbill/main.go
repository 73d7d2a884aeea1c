// Package main is the entry point for burstbill, a 95th-percentile
// bandwidth billing reporter for Observium installations.
package main

func main() {
	Execute()
}
