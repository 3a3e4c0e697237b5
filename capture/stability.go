package capture

import (
	"context"
	"log/slog"
	"time"
)

// Stability detection defaults.
const (
	DefaultStabilityBase    = 100 * time.Millisecond
	DefaultStabilityMax     = 800 * time.Millisecond
	DefaultStabilityTimeout = 10 * time.Second

	// requiredMatches is how many consecutive probes must repeat the
	// previous signature before the surface is declared stable.
	requiredMatches = 2

	// signatureSamples is the number of byte positions sampled per probe.
	signatureSamples = 16
)

// ProbeFunc takes a cheap, low-fidelity capture of the surface.
type ProbeFunc func(ctx context.Context) ([]byte, error)

// Detector decides when a newly rendered page has stopped changing,
// replacing a fixed post-navigation sleep with an adaptive wait.
//
// Consecutive probes are compared by a coarse signature: content length
// plus a handful of evenly spaced byte samples. Matching signatures mean
// "presumed stable", not pixel equality. The signature is deliberately
// cheap; a perceptual hash could replace it without changing this
// contract.
type Detector struct {
	// Probe takes the low-fidelity capture compared between polls.
	Probe ProbeFunc

	// BaseInterval is the initial polling interval. It doubles after
	// each matching probe, capped at MaxInterval, and resets to the
	// base on any change.
	BaseInterval time.Duration
	MaxInterval  time.Duration

	// Timeout bounds the whole wait. On expiry the detector logs a
	// warning and reports success so capture proceeds best-effort.
	Timeout time.Duration

	Logger *slog.Logger
}

// signature is a coarse fingerprint of one probe.
type signature struct {
	length  int
	samples [signatureSamples]byte
}

func signatureOf(data []byte) signature {
	sig := signature{length: len(data)}
	if len(data) == 0 {
		return sig
	}

	step := len(data) / signatureSamples
	if step == 0 {
		step = 1
	}
	for i := 0; i < signatureSamples; i++ {
		pos := i * step
		if pos >= len(data) {
			break
		}
		sig.samples[i] = data[pos]
	}
	return sig
}

// Wait polls the surface until its signature stops changing or the
// timeout elapses. Cancellation returns the context error; every other
// outcome, including timeout, returns nil.
func (d *Detector) Wait(ctx context.Context) error {
	base := d.BaseInterval
	if base <= 0 {
		base = DefaultStabilityBase
	}
	maxInterval := d.MaxInterval
	if maxInterval < base {
		maxInterval = base
	}
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultStabilityTimeout
	}

	deadline := time.Now().Add(timeout)
	interval := base
	matches := 0
	havePrev := false
	var prev signature

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !time.Now().Before(deadline) {
			d.logger().Warn("surface never stabilized, proceeding anyway", "timeout", timeout)
			return nil
		}

		data, err := d.Probe(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// A failed probe says nothing about stability.
			havePrev = false
			matches = 0
			interval = base
		} else {
			sig := signatureOf(data)
			if havePrev && sig == prev {
				matches++
				if matches >= requiredMatches {
					return nil
				}
				// Back off while the surface stays quiet.
				interval *= 2
				if interval > maxInterval {
					interval = maxInterval
				}
			} else {
				matches = 0
				interval = base
			}
			prev = sig
			havePrev = true
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

func (d *Detector) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}
