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

package taxonomy

// CompletionStatus tracks how far through a game the user is.
type CompletionStatus string

const (
	CompletionNotPlayed  CompletionStatus = "Not Played"
	CompletionPlanToPlay CompletionStatus = "Plan to Play"
	CompletionPlayed     CompletionStatus = "Played"
	CompletionPlaying    CompletionStatus = "Playing"
	CompletionOnHold     CompletionStatus = "On Hold"
	CompletionAbandoned  CompletionStatus = "Abandoned"
	CompletionBeaten     CompletionStatus = "Beaten"
	CompletionCompleted  CompletionStatus = "Completed"
)

// CompletionStatuses lists every status in escalation order.
var CompletionStatuses = []CompletionStatus{
	CompletionNotPlayed, CompletionPlanToPlay, CompletionPlayed,
	CompletionPlaying, CompletionOnHold, CompletionAbandoned,
	CompletionBeaten, CompletionCompleted,
}

var completionAliases = map[string]CompletionStatus{
	"notplayed":     CompletionNotPlayed,
	"not_played":    CompletionNotPlayed,
	"unplayed":      CompletionNotPlayed,
	"backlog":       CompletionPlanToPlay,
	"plan_to_play":  CompletionPlanToPlay,
	"wishlist":      CompletionPlanToPlay,
	"played":        CompletionPlayed,
	"in progress":   CompletionPlaying,
	"playing":       CompletionPlaying,
	"paused":        CompletionOnHold,
	"on_hold":       CompletionOnHold,
	"shelved":       CompletionOnHold,
	"dropped":       CompletionAbandoned,
	"abandoned":     CompletionAbandoned,
	"quit":          CompletionAbandoned,
	"finished":      CompletionBeaten,
	"beaten":        CompletionBeaten,
	"beat":          CompletionBeaten,
	"100%":          CompletionCompleted,
	"completed":     CompletionCompleted,
	"completionist": CompletionCompleted,
	"platinum":      CompletionCompleted,
}

var completionAliasKeys = sortedAliasKeys(completionAliases)

// completionRank orders statuses for monotonic escalation during merges. A
// re-scan may move a game forward in this ladder but never backward.
var completionRank = map[CompletionStatus]int{
	CompletionNotPlayed:  0,
	CompletionPlanToPlay: 1,
	CompletionPlayed:     2,
	CompletionPlaying:    3,
	CompletionOnHold:     4,
	CompletionAbandoned:  5,
	CompletionBeaten:     6,
	CompletionCompleted:  7,
}

// CompletionFromString maps a raw status string to a CompletionStatus. The
// empty string deliberately resolves to NotPlayed instead of failing, since
// providers omit the field for titles that were never launched.
func CompletionFromString(raw string) (CompletionStatus, error) {
	if lowerTrim(raw) == "" {
		return CompletionNotPlayed, nil
	}
	if s, ok := resolve(raw, CompletionStatuses, completionAliases, completionAliasKeys); ok {
		return s, nil
	}
	return "", ErrNotFound
}

// TryResolveCompletion is the fail-soft variant used by scanners.
func TryResolveCompletion(raw string) (CompletionStatus, bool) {
	s, err := CompletionFromString(raw)
	return s, err == nil
}

// Rank returns the status position in the escalation ladder. Unknown
// statuses rank lowest so a merge never regresses known progress.
func (c CompletionStatus) Rank() int {
	return completionRank[c]
}

// MaxCompletion returns whichever status ranks higher in the escalation
// ladder, used when merging a fresh scan into an existing record.
func MaxCompletion(a, b CompletionStatus) CompletionStatus {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}
