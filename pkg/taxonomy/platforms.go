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

// Platform is a canonical gaming platform. The string value is the display
// string used in the catalog and in source configuration.
type Platform string

const (
	PlatformPCWindows       Platform = "PC (Windows)"
	PlatformPCLinux         Platform = "PC (Linux)"
	PlatformPCMac           Platform = "PC (Mac)"
	PlatformPCDOS           Platform = "PC (DOS)"
	PlatformPlayStation     Platform = "PlayStation"
	PlatformPlayStation2    Platform = "PlayStation 2"
	PlatformPlayStation3    Platform = "PlayStation 3"
	PlatformPlayStation4    Platform = "PlayStation 4"
	PlatformPlayStation5    Platform = "PlayStation 5"
	PlatformPlayStationVita Platform = "PlayStation Vita"
	PlatformPSP             Platform = "PlayStation Portable"
	PlatformXbox            Platform = "Xbox"
	PlatformXbox360         Platform = "Xbox 360"
	PlatformXboxOne         Platform = "Xbox One"
	PlatformXboxSeries      Platform = "Xbox Series X/S"
	PlatformNES             Platform = "Nintendo Entertainment System"
	PlatformSNES            Platform = "Super Nintendo Entertainment System"
	PlatformNintendo64      Platform = "Nintendo 64"
	PlatformGameCube        Platform = "Nintendo GameCube"
	PlatformWii             Platform = "Nintendo Wii"
	PlatformWiiU            Platform = "Nintendo Wii U"
	PlatformSwitch          Platform = "Nintendo Switch"
	PlatformGameBoy         Platform = "Nintendo Game Boy"
	PlatformGameBoyColor    Platform = "Nintendo Game Boy Color"
	PlatformGameBoyAdvance  Platform = "Nintendo Game Boy Advance"
	PlatformNintendoDS      Platform = "Nintendo DS"
	PlatformNintendo3DS     Platform = "Nintendo 3DS"
	PlatformMasterSystem    Platform = "Sega Master System"
	PlatformGenesis         Platform = "Sega Genesis"
	PlatformSegaCD          Platform = "Sega CD"
	Platform32X             Platform = "Sega 32X"
	PlatformSaturn          Platform = "Sega Saturn"
	PlatformDreamcast       Platform = "Sega Dreamcast"
	PlatformGameGear        Platform = "Sega Game Gear"
	PlatformAtari2600       Platform = "Atari 2600"
	PlatformAtari7800       Platform = "Atari 7800"
	PlatformAtariLynx       Platform = "Atari Lynx"
	PlatformAtariJaguar     Platform = "Atari Jaguar"
	PlatformNeoGeo          Platform = "SNK Neo Geo AES"
	PlatformTurboGrafx16    Platform = "NEC TurboGrafx-16"
	PlatformArcade          Platform = "Arcade"
	Platform3DO             Platform = "3DO Interactive Multiplayer"
	PlatformAmiga           Platform = "Commodore Amiga"
	PlatformCommodore64     Platform = "Commodore 64"
	PlatformZXSpectrum      Platform = "Sinclair ZX Spectrum"
	PlatformMSX             Platform = "Microsoft MSX"
)

// Platforms lists every canonical platform in display order.
var Platforms = []Platform{
	PlatformPCWindows, PlatformPCLinux, PlatformPCMac, PlatformPCDOS,
	PlatformPlayStation, PlatformPlayStation2, PlatformPlayStation3,
	PlatformPlayStation4, PlatformPlayStation5, PlatformPlayStationVita,
	PlatformPSP,
	PlatformXbox, PlatformXbox360, PlatformXboxOne, PlatformXboxSeries,
	PlatformNES, PlatformSNES, PlatformNintendo64, PlatformGameCube,
	PlatformWii, PlatformWiiU, PlatformSwitch,
	PlatformGameBoy, PlatformGameBoyColor, PlatformGameBoyAdvance,
	PlatformNintendoDS, PlatformNintendo3DS,
	PlatformMasterSystem, PlatformGenesis, PlatformSegaCD, Platform32X,
	PlatformSaturn, PlatformDreamcast, PlatformGameGear,
	PlatformAtari2600, PlatformAtari7800, PlatformAtariLynx,
	PlatformAtariJaguar,
	PlatformNeoGeo, PlatformTurboGrafx16, PlatformArcade, Platform3DO,
	PlatformAmiga, PlatformCommodore64, PlatformZXSpectrum, PlatformMSX,
}

var platformAliases = map[string]Platform{
	"pc":              PlatformPCWindows,
	"windows":         PlatformPCWindows,
	"win":             PlatformPCWindows,
	"steamos":         PlatformPCLinux,
	"linux":           PlatformPCLinux,
	"mac":             PlatformPCMac,
	"macos":           PlatformPCMac,
	"osx":             PlatformPCMac,
	"dos":             PlatformPCDOS,
	"ms-dos":          PlatformPCDOS,
	"psx":             PlatformPlayStation,
	"ps1":             PlatformPlayStation,
	"playstation 1":   PlatformPlayStation,
	"ps2":             PlatformPlayStation2,
	"ps3":             PlatformPlayStation3,
	"ps4":             PlatformPlayStation4,
	"ps5":             PlatformPlayStation5,
	"psvita":          PlatformPlayStationVita,
	"ps vita":         PlatformPlayStationVita,
	"vita":            PlatformPlayStationVita,
	"psp":             PlatformPSP,
	"xbox one":        PlatformXboxOne,
	"xboxone":         PlatformXboxOne,
	"xbox series":     PlatformXboxSeries,
	"xboxseries":      PlatformXboxSeries,
	"series x":        PlatformXboxSeries,
	"series s":        PlatformXboxSeries,
	"xbox360":         PlatformXbox360,
	"x360":            PlatformXbox360,
	"nes":             PlatformNES,
	"famicom":         PlatformNES,
	"snes":            PlatformSNES,
	"super famicom":   PlatformSNES,
	"super nintendo":  PlatformSNES,
	"n64":             PlatformNintendo64,
	"gamecube":        PlatformGameCube,
	"ngc":             PlatformGameCube,
	"wiiu":            PlatformWiiU,
	"wii u":           PlatformWiiU,
	"wii":             PlatformWii,
	"switch":          PlatformSwitch,
	"nsw":             PlatformSwitch,
	"gameboy advance": PlatformGameBoyAdvance,
	"gba":             PlatformGameBoyAdvance,
	"gameboy color":   PlatformGameBoyColor,
	"gbc":             PlatformGameBoyColor,
	"gameboy":         PlatformGameBoy,
	"game boy":        PlatformGameBoy,
	"nds":             PlatformNintendoDS,
	"3ds":             PlatformNintendo3DS,
	"master system":   PlatformMasterSystem,
	"sms":             PlatformMasterSystem,
	"mega drive":      PlatformGenesis,
	"megadrive":       PlatformGenesis,
	"genesis":         PlatformGenesis,
	"sega cd":         PlatformSegaCD,
	"mega cd":         PlatformSegaCD,
	"32x":             Platform32X,
	"saturn":          PlatformSaturn,
	"dreamcast":       PlatformDreamcast,
	"game gear":       PlatformGameGear,
	"gamegear":        PlatformGameGear,
	"atari2600":       PlatformAtari2600,
	"vcs":             PlatformAtari2600,
	"atari7800":       PlatformAtari7800,
	"lynx":            PlatformAtariLynx,
	"jaguar":          PlatformAtariJaguar,
	"neogeo":          PlatformNeoGeo,
	"neo geo":         PlatformNeoGeo,
	"turbografx":      PlatformTurboGrafx16,
	"pc engine":       PlatformTurboGrafx16,
	"pcengine":        PlatformTurboGrafx16,
	"mame":            PlatformArcade,
	"arcade":          PlatformArcade,
	"3do":             Platform3DO,
	"amiga":           PlatformAmiga,
	"c64":             PlatformCommodore64,
	"commodore":       PlatformCommodore64,
	"zx spectrum":     PlatformZXSpectrum,
	"spectrum":        PlatformZXSpectrum,
	"msx":             PlatformMSX,
}

var platformAliasKeys = sortedAliasKeys(platformAliases)

// ResolvePlatform maps a raw provider string to a canonical Platform.
func ResolvePlatform(raw string) (Platform, error) {
	if p, ok := resolve(raw, Platforms, platformAliases, platformAliasKeys); ok {
		return p, nil
	}
	return "", ErrNotFound
}

// TryResolvePlatform is the fail-soft variant used by scanners.
func TryResolvePlatform(raw string) (Platform, bool) {
	return resolve(raw, Platforms, platformAliases, platformAliasKeys)
}
