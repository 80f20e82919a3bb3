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

// AgeRating is a rating label from one of the supported rating boards
// (ESRB, PEGI and CERO).
type AgeRating string

const (
	AgeRatingESRBEveryone   AgeRating = "ESRB: Everyone"
	AgeRatingESRBEveryone10 AgeRating = "ESRB: Everyone 10+"
	AgeRatingESRBTeen       AgeRating = "ESRB: Teen"
	AgeRatingESRBMature     AgeRating = "ESRB: Mature 17+"
	AgeRatingESRBAdultsOnly AgeRating = "ESRB: Adults Only 18+"

	AgeRatingPEGI3  AgeRating = "PEGI: 3"
	AgeRatingPEGI7  AgeRating = "PEGI: 7"
	AgeRatingPEGI12 AgeRating = "PEGI: 12"
	AgeRatingPEGI16 AgeRating = "PEGI: 16"
	AgeRatingPEGI18 AgeRating = "PEGI: 18"

	AgeRatingCEROA AgeRating = "CERO: A"
	AgeRatingCEROB AgeRating = "CERO: B"
	AgeRatingCEROC AgeRating = "CERO: C"
	AgeRatingCEROD AgeRating = "CERO: D"
	AgeRatingCEROZ AgeRating = "CERO: Z"
)

// AgeRatings lists every rating label in board order.
var AgeRatings = []AgeRating{
	AgeRatingESRBEveryone, AgeRatingESRBEveryone10, AgeRatingESRBTeen,
	AgeRatingESRBMature, AgeRatingESRBAdultsOnly,
	AgeRatingPEGI3, AgeRatingPEGI7, AgeRatingPEGI12, AgeRatingPEGI16,
	AgeRatingPEGI18,
	AgeRatingCEROA, AgeRatingCEROB, AgeRatingCEROC, AgeRatingCEROD,
	AgeRatingCEROZ,
}

var ageRatingAliases = map[string]AgeRating{
	"e":            AgeRatingESRBEveryone,
	"everyone":     AgeRatingESRBEveryone,
	"e10":          AgeRatingESRBEveryone10,
	"e10+":         AgeRatingESRBEveryone10,
	"everyone 10+": AgeRatingESRBEveryone10,
	"t":            AgeRatingESRBTeen,
	"teen":         AgeRatingESRBTeen,
	"m":            AgeRatingESRBMature,
	"mature":       AgeRatingESRBMature,
	"m17+":         AgeRatingESRBMature,
	"ao":           AgeRatingESRBAdultsOnly,
	"adults only":  AgeRatingESRBAdultsOnly,
	"pegi 3":       AgeRatingPEGI3,
	"pegi 7":       AgeRatingPEGI7,
	"pegi 12":      AgeRatingPEGI12,
	"pegi 16":      AgeRatingPEGI16,
	"pegi 18":      AgeRatingPEGI18,
	"cero a":       AgeRatingCEROA,
	"cero b":       AgeRatingCEROB,
	"cero c":       AgeRatingCEROC,
	"cero d":       AgeRatingCEROD,
	"cero z":       AgeRatingCEROZ,
}

var ageRatingAliasKeys = sortedAliasKeys(ageRatingAliases)

// ResolveAgeRating maps a raw provider rating string to a canonical label.
func ResolveAgeRating(raw string) (AgeRating, error) {
	if r, ok := resolve(raw, AgeRatings, ageRatingAliases, ageRatingAliasKeys); ok {
		return r, nil
	}
	return "", ErrNotFound
}

// TryResolveAgeRating is the fail-soft variant used by scanners.
func TryResolveAgeRating(raw string) (AgeRating, bool) {
	return resolve(raw, AgeRatings, ageRatingAliases, ageRatingAliasKeys)
}

// AgeRatingsFromMinAge converts a provider minimum-age number into one
// equivalent label per rating board. Providers such as Xbox report a single
// numeric floor, so each bracket picks the closest label the three boards
// actually issue.
func AgeRatingsFromMinAge(minAge int) []AgeRating {
	switch {
	case minAge <= 0:
		return []AgeRating{AgeRatingESRBEveryone, AgeRatingPEGI3, AgeRatingCEROA}
	case minAge <= 3:
		return []AgeRating{AgeRatingESRBEveryone, AgeRatingPEGI3, AgeRatingCEROA}
	case minAge <= 7:
		return []AgeRating{AgeRatingESRBEveryone, AgeRatingPEGI7, AgeRatingCEROA}
	case minAge <= 10:
		return []AgeRating{AgeRatingESRBEveryone10, AgeRatingPEGI7, AgeRatingCEROA}
	case minAge <= 12:
		return []AgeRating{AgeRatingESRBEveryone10, AgeRatingPEGI12, AgeRatingCEROB}
	case minAge <= 13:
		return []AgeRating{AgeRatingESRBTeen, AgeRatingPEGI12, AgeRatingCEROC}
	case minAge <= 16:
		return []AgeRating{AgeRatingESRBTeen, AgeRatingPEGI16, AgeRatingCEROC}
	case minAge <= 17:
		return []AgeRating{AgeRatingESRBMature, AgeRatingPEGI18, AgeRatingCEROD}
	default:
		return []AgeRating{AgeRatingESRBAdultsOnly, AgeRatingPEGI18, AgeRatingCEROZ}
	}
}
