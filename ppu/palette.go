package ppu

// Color is one fixed system-palette entry: 8 bits per channel RGB.
type Color struct {
	R, G, B uint8
}

// SystemPalette is the 64-entry NTSC color table. Palette RAM holds
// indices 0x00-0x3F into this table; it never holds RGB values
// directly.
var SystemPalette = [64]Color{
	{84, 84, 84}, {0, 30, 116}, {8, 16, 144}, {48, 0, 136},
	{68, 0, 100}, {92, 0, 48}, {84, 4, 0}, {60, 24, 0},
	{32, 42, 0}, {8, 58, 0}, {0, 64, 0}, {0, 60, 0},
	{0, 50, 60}, {0, 0, 0}, {0, 0, 0}, {0, 0, 0},

	{152, 150, 152}, {8, 76, 196}, {48, 50, 236}, {92, 30, 228},
	{136, 20, 176}, {160, 20, 100}, {152, 34, 32}, {120, 60, 0},
	{84, 90, 0}, {40, 114, 0}, {8, 124, 0}, {0, 118, 40},
	{0, 102, 120}, {0, 0, 0}, {0, 0, 0}, {0, 0, 0},

	{236, 238, 236}, {76, 154, 236}, {120, 124, 236}, {176, 98, 236},
	{228, 84, 236}, {236, 88, 180}, {236, 106, 100}, {212, 136, 32},
	{160, 170, 0}, {116, 196, 0}, {76, 208, 32}, {56, 204, 108},
	{56, 180, 204}, {60, 60, 60}, {0, 0, 0}, {0, 0, 0},

	{236, 238, 236}, {168, 204, 236}, {188, 188, 236}, {212, 178, 236},
	{236, 174, 236}, {236, 174, 212}, {236, 180, 176}, {228, 196, 144},
	{204, 210, 120}, {180, 222, 120}, {168, 226, 144}, {152, 226, 180},
	{160, 214, 228}, {160, 162, 160}, {0, 0, 0}, {0, 0, 0},
}

// backgroundColor resolves a background pixel (0-3 within a 2-bit
// palette group 0-3) to a system-palette color. Index 0 within any
// group reads the universal backdrop at palette RAM 0x00.
func (p *PPU) backgroundColor(paletteGroup, pixel uint8) Color {
	if pixel == 0 {
		return SystemPalette[p.paletteRAM[0]&0x3F]
	}
	idx := paletteIndex(0x3F00 + uint16(paletteGroup)*4 + uint16(pixel))
	return SystemPalette[p.paletteRAM[idx]&0x3F]
}

// spriteColor resolves a sprite pixel the same way, except the
// sprite palette bank starts at 0x11: index 0 within any group is
// still the universal backdrop, never the sprite group's own entry 0.
func (p *PPU) spriteColor(paletteGroup, pixel uint8) Color {
	if pixel == 0 {
		return SystemPalette[p.paletteRAM[0]&0x3F]
	}
	start := 0x11 + uint16(paletteGroup)*4
	idx := paletteIndex(0x3F00 + start + uint16(pixel) - 1)
	return SystemPalette[p.paletteRAM[idx]&0x3F]
}
