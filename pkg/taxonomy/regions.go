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

// Region is a release region, typically parsed from ROM filename tags
// such as "(USA)" or "(Europe)".
type Region string

const (
	RegionUSA       Region = "USA"
	RegionEurope    Region = "Europe"
	RegionJapan     Region = "Japan"
	RegionWorld     Region = "World"
	RegionAsia      Region = "Asia"
	RegionAustralia Region = "Australia"
	RegionBrazil    Region = "Brazil"
	RegionChina     Region = "China"
	RegionKorea     Region = "Korea"
	RegionFrance    Region = "France"
	RegionGermany   Region = "Germany"
	RegionItaly     Region = "Italy"
	RegionSpain     Region = "Spain"
)

// Regions lists every release region.
var Regions = []Region{
	RegionUSA, RegionEurope, RegionJapan, RegionWorld, RegionAsia,
	RegionAustralia, RegionBrazil, RegionChina, RegionKorea, RegionFrance,
	RegionGermany, RegionItaly, RegionSpain,
}

var regionAliases = map[string]Region{
	"us":            RegionUSA,
	"u.s.":          RegionUSA,
	"united states": RegionUSA,
	"america":       RegionUSA,
	"ntsc":          RegionUSA,
	"ntsc-u":        RegionUSA,
	"eu":            RegionEurope,
	"eur":           RegionEurope,
	"pal":           RegionEurope,
	"jp":            RegionJapan,
	"jpn":           RegionJapan,
	"ntsc-j":        RegionJapan,
	"global":        RegionWorld,
	"international": RegionWorld,
	"region free":   RegionWorld,
	"aus":           RegionAustralia,
	"br":            RegionBrazil,
	"cn":            RegionChina,
	"kr":            RegionKorea,
	"south korea":   RegionKorea,
	"fr":            RegionFrance,
	"de":            RegionGermany,
	"deu":           RegionGermany,
	"it":            RegionItaly,
	"es":            RegionSpain,
}

var regionAliasKeys = sortedAliasKeys(regionAliases)

// ResolveRegion maps a raw region tag to a canonical Region.
func ResolveRegion(raw string) (Region, error) {
	if r, ok := resolve(raw, Regions, regionAliases, regionAliasKeys); ok {
		return r, nil
	}
	return "", ErrNotFound
}

// TryResolveRegion is the fail-soft variant used by scanners.
func TryResolveRegion(raw string) (Region, bool) {
	return resolve(raw, Regions, regionAliases, regionAliasKeys)
}
