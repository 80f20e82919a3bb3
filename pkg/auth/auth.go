// GameShelf Core
// Copyright (c) 2026 The GameShelf Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of GameShelf Core.
//
// GameShelf Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// GameShelf Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with GameShelf Core.  If not, see <http://www.gnu.org/licenses/>.

// Package auth bridges scanners to out-of-process interactive logins. A
// scanner that finds itself unauthenticated asks a Provider to begin the
// login, then blocks on a Waiter polling the credential store until the
// user completes it or the wait times out.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

// Provider starts an interactive login for one source, e.g. by opening a
// browser. The resulting authorization code lands in the credential store
// out of band.
type Provider interface {
	// BeginAuth kicks off the login flow. Non-blocking.
	BeginAuth(ctx context.Context, sourceID string) error
}

const (
	// DefaultTimeout bounds the whole interactive hand-off.
	DefaultTimeout = 5 * time.Minute
	// pollInterval is how often the store is re-checked.
	pollInterval = 200 * time.Millisecond
)

// Waiter blocks until an out-of-band login completes.
type Waiter struct {
	clock   clockwork.Clock
	timeout time.Duration
}

// WaiterOption configures a Waiter.
type WaiterOption func(*Waiter)

// WithClock injects a clock, used by timeout tests.
func WithClock(c clockwork.Clock) WaiterOption {
	return func(w *Waiter) { w.clock = c }
}

// WithTimeout overrides the 5-minute default.
func WithTimeout(d time.Duration) WaiterOption {
	return func(w *Waiter) { w.timeout = d }
}

// NewWaiter creates a Waiter with the default timeout.
func NewWaiter(opts ...WaiterOption) *Waiter {
	w := &Waiter{
		clock:   clockwork.NewRealClock(),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Wait polls authenticated until it reports true, the timeout elapses or
// ctx is cancelled. Timing out returns a user-facing error, not a panic:
// the user simply never finished logging in.
func (w *Waiter) Wait(ctx context.Context, authenticated func() bool) error {
	deadline := w.clock.Now().Add(w.timeout)

	for {
		if authenticated() {
			return nil
		}
		if w.clock.Now().After(deadline) {
			return fmt.Errorf("authentication not completed within %s", w.timeout)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("authentication wait cancelled: %w", ctx.Err())
		case <-w.clock.After(pollInterval):
		}
	}
}
