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

// Feature is a gameplay capability tag.
type Feature string

const (
	FeatureSinglePlayer     Feature = "Single Player"
	FeatureMultiplayer      Feature = "Multiplayer"
	FeatureOnlineMultiplayer Feature = "Online Multiplayer"
	FeatureLocalMultiplayer Feature = "Local Multiplayer"
	FeatureCoOp             Feature = "Co-Op"
	FeatureOnlineCoOp       Feature = "Online Co-Op"
	FeatureSplitScreen      Feature = "Split Screen"
	FeatureCrossPlatform    Feature = "Cross-Platform Play"
	FeatureCloudSaves       Feature = "Cloud Saves"
	FeatureControllerSupport Feature = "Controller Support"
	FeatureAchievements     Feature = "Achievements"
	FeatureVRSupport        Feature = "VR Support"
	FeatureLeaderboards     Feature = "Leaderboards"
)

// Features lists every capability tag.
var Features = []Feature{
	FeatureSinglePlayer, FeatureMultiplayer, FeatureOnlineMultiplayer,
	FeatureLocalMultiplayer, FeatureCoOp, FeatureOnlineCoOp,
	FeatureSplitScreen, FeatureCrossPlatform, FeatureCloudSaves,
	FeatureControllerSupport, FeatureAchievements, FeatureVRSupport,
	FeatureLeaderboards,
}

var featureAliases = map[string]Feature{
	"singleplayer":        FeatureSinglePlayer,
	"single-player":       FeatureSinglePlayer,
	"solo":                FeatureSinglePlayer,
	"multi-player":        FeatureMultiplayer,
	"pvp":                 FeatureMultiplayer,
	"online pvp":          FeatureOnlineMultiplayer,
	"online play":         FeatureOnlineMultiplayer,
	"local play":          FeatureLocalMultiplayer,
	"couch":               FeatureLocalMultiplayer,
	"coop":                FeatureCoOp,
	"co op":               FeatureCoOp,
	"cooperative":         FeatureCoOp,
	"online coop":         FeatureOnlineCoOp,
	"online co-op":        FeatureOnlineCoOp,
	"splitscreen":         FeatureSplitScreen,
	"split-screen":        FeatureSplitScreen,
	"shared screen":       FeatureSplitScreen,
	"crossplay":           FeatureCrossPlatform,
	"cross play":          FeatureCrossPlatform,
	"cross-play":          FeatureCrossPlatform,
	"cloud save":          FeatureCloudSaves,
	"cloud":               FeatureCloudSaves,
	"full controller":     FeatureControllerSupport,
	"partial controller":  FeatureControllerSupport,
	"gamepad":             FeatureControllerSupport,
	"trophies":            FeatureAchievements,
	"xbox achievements":   FeatureAchievements,
	"steam achievements":  FeatureAchievements,
	"vr":                  FeatureVRSupport,
	"virtual reality":     FeatureVRSupport,
	"vr only":             FeatureVRSupport,
	"steam leaderboards":  FeatureLeaderboards,
	"online leaderboards": FeatureLeaderboards,
}

var featureAliasKeys = sortedAliasKeys(featureAliases)

// ResolveFeature maps a raw provider capability string to a canonical Feature.
func ResolveFeature(raw string) (Feature, error) {
	if f, ok := resolve(raw, Features, featureAliases, featureAliasKeys); ok {
		return f, nil
	}
	return "", ErrNotFound
}

// TryResolveFeature is the fail-soft variant used by scanners.
func TryResolveFeature(raw string) (Feature, bool) {
	return resolve(raw, Features, featureAliases, featureAliasKeys)
}
