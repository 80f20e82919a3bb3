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

// Package progress tracks long-running operations. Scanner goroutines
// mutate operation state only through the coordinator, which emits events
// on a buffered channel consumed by a single owner (CLI or UI loop), so
// workers never touch consumer state directly. Cancellation is cooperative:
// scanners poll IsOperationCancelled between items.
package progress

import (
	"fmt"

	"github.com/GameShelfProject/gameshelf-core/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
)

// EventKind discriminates coordinator events.
type EventKind int

const (
	EventStarted EventKind = iota
	EventUpdated
	EventCompleted
	EventErrored
	EventCancelled
)

// Event is one progress notification.
type Event struct {
	OperationID string
	Message     string
	Kind        EventKind
	Current     int
	Total       int
	// Indeterminate marks phases where no total is known yet.
	Indeterminate bool
}

// State is the tracked state of one operation.
type State struct {
	ID            string
	Message       string
	Current       int
	Total         int
	Indeterminate bool
	Cancellable   bool
	Cancelled     bool
	Completed     bool
	Failed        bool
	ErrorMessage  string
}

func (s *State) terminal() bool {
	return s.Completed || s.Failed || s.Cancelled
}

// Coordinator is the process-wide operation registry.
type Coordinator struct {
	ops    map[string]*State
	events chan Event
	mu     syncutil.Mutex
}

const eventBufferSize = 100

// NewCoordinator creates an empty registry.
func NewCoordinator() *Coordinator {
	return &Coordinator{
		ops:    make(map[string]*State),
		events: make(chan Event, eventBufferSize),
	}
}

// Events returns the channel the single consumer reads notifications from.
func (c *Coordinator) Events() <-chan Event {
	return c.events
}

// emit must not be called while holding the mutex.
func (c *Coordinator) emit(evt Event) {
	select {
	case c.events <- evt:
	default:
		log.Warn().Str("operation", evt.OperationID).
			Msg("progress event buffer full, dropping event")
	}
}

// OperationID builds the conventional operation key for a source scan.
func OperationID(sourceType, sourceID string) string {
	return fmt.Sprintf("scan_%s_%s", sourceType, sourceID)
}

// StartOperation registers a new operation and returns a callback bound to
// its id. Restarting an id that is still live returns nil.
func (c *Coordinator) StartOperation(id, message string, cancellable bool) *Callback {
	c.mu.Lock()
	if existing, ok := c.ops[id]; ok && !existing.terminal() {
		c.mu.Unlock()
		log.Warn().Str("operation", id).Msg("operation already running")
		return nil
	}
	c.ops[id] = &State{
		ID:            id,
		Message:       message,
		Indeterminate: true,
		Cancellable:   cancellable,
	}
	c.mu.Unlock()

	c.emit(Event{Kind: EventStarted, OperationID: id, Message: message, Indeterminate: true})
	return &Callback{coordinator: c, id: id}
}

// Update sets progress counts and message for an operation. Terminal
// operations ignore further mutation.
func (c *Coordinator) Update(id string, current, total int, message string) {
	c.mu.Lock()
	st, ok := c.ops[id]
	if !ok || st.terminal() {
		c.mu.Unlock()
		return
	}
	st.Current = current
	st.Total = total
	st.Indeterminate = false
	if message != "" {
		st.Message = message
	}
	evt := Event{
		Kind:        EventUpdated,
		OperationID: id,
		Current:     current,
		Total:       total,
		Message:     st.Message,
	}
	c.mu.Unlock()

	c.emit(evt)
}

// UpdateMessage changes only the display message.
func (c *Coordinator) UpdateMessage(id, message string) {
	c.mu.Lock()
	st, ok := c.ops[id]
	if !ok || st.terminal() {
		c.mu.Unlock()
		return
	}
	st.Message = message
	evt := Event{
		Kind:          EventUpdated,
		OperationID:   id,
		Current:       st.Current,
		Total:         st.Total,
		Message:       message,
		Indeterminate: st.Indeterminate,
	}
	c.mu.Unlock()

	c.emit(evt)
}

// SetIndeterminate marks an operation as having no known total.
func (c *Coordinator) SetIndeterminate(id string) {
	c.mu.Lock()
	st, ok := c.ops[id]
	if !ok || st.terminal() {
		c.mu.Unlock()
		return
	}
	st.Indeterminate = true
	evt := Event{
		Kind:          EventUpdated,
		OperationID:   id,
		Message:       st.Message,
		Indeterminate: true,
	}
	c.mu.Unlock()

	c.emit(evt)
}

// Complete marks an operation finished. Further mutation is frozen.
func (c *Coordinator) Complete(id, message string) {
	c.mu.Lock()
	st, ok := c.ops[id]
	if !ok || st.terminal() {
		c.mu.Unlock()
		return
	}
	st.Completed = true
	if message != "" {
		st.Message = message
	}
	evt := Event{Kind: EventCompleted, OperationID: id, Message: st.Message,
		Current: st.Current, Total: st.Total}
	c.mu.Unlock()

	c.emit(evt)
}

// Error marks an operation failed. Further mutation is frozen.
func (c *Coordinator) Error(id, message string) {
	c.mu.Lock()
	st, ok := c.ops[id]
	if !ok || st.terminal() {
		c.mu.Unlock()
		return
	}
	st.Failed = true
	st.ErrorMessage = message
	evt := Event{Kind: EventErrored, OperationID: id, Message: message}
	c.mu.Unlock()

	c.emit(evt)
}

// CancelOperation requests cooperative cancellation. Returns false when the
// operation is unknown, not cancellable or already terminal.
func (c *Coordinator) CancelOperation(id string) bool {
	c.mu.Lock()
	st, ok := c.ops[id]
	if !ok || !st.Cancellable || st.terminal() {
		c.mu.Unlock()
		return false
	}
	st.Cancelled = true
	evt := Event{Kind: EventCancelled, OperationID: id, Message: st.Message}
	c.mu.Unlock()

	c.emit(evt)
	return true
}

// IsOperationCancelled is polled by scanners between items.
func (c *Coordinator) IsOperationCancelled(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.ops[id]
	return ok && st.Cancelled
}

// GetState returns a copy of the operation state.
func (c *Coordinator) GetState(id string) (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.ops[id]
	if !ok {
		return State{}, false
	}
	return *st, true
}

// RemoveOperation drops a terminal operation from the registry.
func (c *Coordinator) RemoveOperation(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if st, ok := c.ops[id]; ok && st.terminal() {
		delete(c.ops, id)
	}
}

// Callback is handed to a scanner so it can report progress without
// knowing about the registry.
type Callback struct {
	coordinator *Coordinator
	id          string
}

// ID returns the bound operation id.
func (cb *Callback) ID() string { return cb.id }

// Update reports (current, total, message) for the bound operation.
func (cb *Callback) Update(current, total int, message string) {
	cb.coordinator.Update(cb.id, current, total, message)
}

// Message updates only the display message.
func (cb *Callback) Message(message string) {
	cb.coordinator.UpdateMessage(cb.id, message)
}

// Cancelled reports whether cancellation was requested.
func (cb *Callback) Cancelled() bool {
	return cb.coordinator.IsOperationCancelled(cb.id)
}
