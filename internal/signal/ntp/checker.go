// Package ntp measures local clock skew against an NTP pool. Breaking-change
// upgrade deadlines are wall-clock dates, so a badly skewed clock silently
// shifts support-state decisions; doctor surfaces that before it matters.
package ntp

import (
	"fmt"
	"time"

	"github.com/beevik/ntp"
)

const (
	DefaultPool      = "pool.ntp.org"
	DefaultThreshold = 500 * time.Millisecond
)

// Report is the result of one skew measurement.
type Report struct {
	Offset    time.Duration
	Threshold time.Duration
	CheckedAt time.Time
}

// Healthy reports whether the measured offset is within the threshold.
func (r Report) Healthy() bool {
	offset := r.Offset
	if offset < 0 {
		offset = -offset
	}
	return offset <= r.Threshold
}

// QueryFunc resolves the local clock offset against a pool. Tests stub it.
type QueryFunc func(pool string) (time.Duration, error)

// Checker performs single-shot clock skew checks.
type Checker struct {
	Pool      string
	Threshold time.Duration
	Query     QueryFunc
}

func New() *Checker {
	return &Checker{Pool: DefaultPool, Threshold: DefaultThreshold}
}

// Check measures the current clock offset.
func (c *Checker) Check() (Report, error) {
	pool := c.Pool
	if pool == "" {
		pool = DefaultPool
	}
	threshold := c.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	query := c.Query
	if query == nil {
		query = queryPool
	}
	offset, err := query(pool)
	if err != nil {
		return Report{}, fmt.Errorf("query ntp pool %s: %w", pool, err)
	}

	return Report{Offset: offset, Threshold: threshold, CheckedAt: time.Now().UTC()}, nil
}

func queryPool(pool string) (time.Duration, error) {
	resp, err := ntp.Query(pool)
	if err != nil {
		return 0, err
	}
	if err := resp.Validate(); err != nil {
		return 0, err
	}
	return resp.ClockOffset, nil
}
