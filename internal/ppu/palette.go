package ppu

// systemPalette is the NES 2C02's fixed 64-entry ARGB palette (one entry
// per 6-bit color index), grounded on the well-known "2C02G" reference
// table used throughout the emulator community. Index 0x0D ("pure
// black"/sync) is a true 0x000000 per most reference tables; real
// hardware emits a slightly out-of-gamut signal there, outside this
// core's scope (ARGB output only).
var systemPalette = [64]uint32{
	0xFF666666, 0xFF002A88, 0xFF1412A7, 0xFF3B00A4, 0xFF5C007E, 0xFF6E0040, 0xFF6C0600, 0xFF561D00,
	0xFF333500, 0xFF0B4800, 0xFF005200, 0xFF004F08, 0xFF00404D, 0xFF000000, 0xFF000000, 0xFF000000,
	0xFFADADAD, 0xFF155FD9, 0xFF4240FF, 0xFF7527FE, 0xFFA01ACC, 0xFFB71E7B, 0xFFB53120, 0xFF994E00,
	0xFF6B6D00, 0xFF388700, 0xFF0C9300, 0xFF008F32, 0xFF007C8D, 0xFF000000, 0xFF000000, 0xFF000000,
	0xFFFFFEFF, 0xFF64B0FF, 0xFF9290FF, 0xFFC676FF, 0xFFF36AFF, 0xFFFE6ECC, 0xFFFE8170, 0xFFEA9E22,
	0xFFBCBE00, 0xFF88D800, 0xFF5CE430, 0xFF45E082, 0xFF48CDDE, 0xFF4F4F4F, 0xFF000000, 0xFF000000,
	0xFFFFFEFF, 0xFFC0DFFF, 0xFFD3D2FF, 0xFFE8C8FF, 0xFFFBC2FF, 0xFFFEC4EA, 0xFFFECCC5, 0xFFF7D8A5,
	0xFFE4E594, 0xFFCFEF96, 0xFFBDF4AB, 0xFFB3F3CC, 0xFFB5EBF2, 0xFFB8B8B8, 0xFF000000, 0xFF000000,
}

// paletteRAMIndex folds a PPU palette-space address ($3F00-$3FFF) into
// its 0-31 index, applying the documented sprite/background aliasing:
// $3F10/$3F14/$3F18/$3F1C mirror $3F00/$3F04/$3F08/$3F0C on both reads
// and writes (spec.md §3, §8).
func paletteRAMIndex(addr uint16) uint8 {
	idx := addr & 0x1F
	if idx&0x13 == 0x10 {
		idx &^= 0x10
	}
	return uint8(idx)
}
