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

package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drainEvents(c *Coordinator) []Event {
	var events []Event
	for {
		select {
		case evt := <-c.Events():
			events = append(events, evt)
		default:
			return events
		}
	}
}

func TestStartOperationEmitsStarted(t *testing.T) {
	t.Parallel()

	c := NewCoordinator()
	cb := c.StartOperation("scan_steam_src1", "scanning Steam", true)
	require.NotNil(t, cb)

	events := drainEvents(c)
	require.Len(t, events, 1)
	assert.Equal(t, EventStarted, events[0].Kind)
	assert.Equal(t, "scan_steam_src1", events[0].OperationID)
	assert.True(t, events[0].Indeterminate)
}

func TestStartDuplicateLiveOperation(t *testing.T) {
	t.Parallel()

	c := NewCoordinator()
	require.NotNil(t, c.StartOperation("op", "first", true))
	assert.Nil(t, c.StartOperation("op", "second", true))

	// A terminal operation may be restarted.
	c.Complete("op", "")
	assert.NotNil(t, c.StartOperation("op", "third", true))
}

func TestUpdateFlow(t *testing.T) {
	t.Parallel()

	c := NewCoordinator()
	cb := c.StartOperation("op", "start", true)
	drainEvents(c)

	cb.Update(2, 10, "processing item 2")

	st, ok := c.GetState("op")
	require.True(t, ok)
	assert.Equal(t, 2, st.Current)
	assert.Equal(t, 10, st.Total)
	assert.False(t, st.Indeterminate)
	assert.Equal(t, "processing item 2", st.Message)

	events := drainEvents(c)
	require.Len(t, events, 1)
	assert.Equal(t, EventUpdated, events[0].Kind)
}

func TestTerminalStateFreezesMutation(t *testing.T) {
	t.Parallel()

	c := NewCoordinator()
	cb := c.StartOperation("op", "start", true)
	c.Complete("op", "done")
	drainEvents(c)

	cb.Update(5, 10, "late update")
	c.Error("op", "late error")

	st, ok := c.GetState("op")
	require.True(t, ok)
	assert.True(t, st.Completed)
	assert.False(t, st.Failed)
	assert.Zero(t, st.Current)
	assert.Equal(t, "done", st.Message)
	assert.Empty(t, drainEvents(c))
}

func TestCancelOperation(t *testing.T) {
	t.Parallel()

	c := NewCoordinator()
	cb := c.StartOperation("op", "start", true)
	drainEvents(c)

	require.True(t, c.CancelOperation("op"))
	assert.True(t, cb.Cancelled())

	events := drainEvents(c)
	require.Len(t, events, 1)
	assert.Equal(t, EventCancelled, events[0].Kind)

	// Cancelling again is a no-op: the operation is terminal.
	assert.False(t, c.CancelOperation("op"))
}

func TestCancelUnknownOrNotCancellable(t *testing.T) {
	t.Parallel()

	c := NewCoordinator()
	assert.False(t, c.CancelOperation("missing"))

	c.StartOperation("fixed", "start", false)
	assert.False(t, c.CancelOperation("fixed"))
}

func TestRemoveOperationOnlyWhenTerminal(t *testing.T) {
	t.Parallel()

	c := NewCoordinator()
	c.StartOperation("op", "start", true)

	c.RemoveOperation("op")
	_, ok := c.GetState("op")
	assert.True(t, ok)

	c.Complete("op", "")
	c.RemoveOperation("op")
	_, ok = c.GetState("op")
	assert.False(t, ok)
}

func TestOperationID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "scan_steam_src42", OperationID("steam", "src42"))
}
