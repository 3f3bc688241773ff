package ppu

import "github.com/tnnz/nesgo/nesrom"

// Render draws one complete frame from current picture-processor
// memory. It is invoked once per frame by the bus's vertical-blank
// callback, never incrementally per dot.
func (p *PPU) Render() *Frame {
	f := NewFrame()
	p.renderBackground(f)
	p.renderSprites(f)
	return f
}

// renderBackground walks the visible 32x30 tile grid of the main
// nametable (selected by mirroring and control's base-nametable bits)
// plus the complementary nametable exposed by scrolling.
func (p *PPU) renderBackground(f *Frame) {
	if !p.mask.ShowBackground() {
		return
	}

	patternTable := p.control.BackgroundPatternTable()
	scrollX, scrollY := int(p.scrollX), int(p.scrollY)

	for screenY := 0; screenY < FrameHeight; screenY++ {
		for screenX := 0; screenX < FrameWidth; screenX++ {
			x := screenX + scrollX
			y := screenY + scrollY

			nametableBase := p.nametableForScrolledPixel(screenX >= FrameWidth-scrollX, screenY >= FrameHeight-scrollY)
			tileX := (x % FrameWidth) / 8
			tileY := (y % FrameHeight) / 8

			tileIndex := p.readBus(nametableBase + uint16(tileY*32+tileX))
			group := p.attributeGroup(nametableBase, tileX, tileY)
			px, py := x%8, y%8
			pixel := p.backgroundPixel(patternTable, tileIndex, px, py)

			c := p.backgroundColor(group, pixel)
			f.setPixel(screenX, screenY, c, pixel == 0)
		}
	}
}

// nametableForScrolledPixel picks between the base nametable and its
// horizontal/vertical complement once scrolling exposes the edge of
// the base one, honoring the cartridge's mirroring mode.
func (p *PPU) nametableForScrolledPixel(pastRight, pastBottom bool) uint16 {
	base := p.control.BaseNametable()
	table := base
	switch p.mapper.Mirroring() {
	case nesrom.MirrorVertical:
		if pastRight {
			table ^= 1
		}
	case nesrom.MirrorHorizontal:
		if pastBottom {
			table ^= 2
		}
	}
	return 0x2000 + uint16(table)*0x400
}

// attributeGroup reads the 2-bit palette selector for the 8x8 tile at
// (tileX, tileY) from the attribute table trailing each nametable.
func (p *PPU) attributeGroup(nametableBase uint16, tileX, tileY int) uint8 {
	attrAddr := nametableBase + 0x3C0 + uint16((tileY/4)*8+(tileX/4))
	attrByte := p.readBus(attrAddr)

	quadrantX := (tileX % 4) / 2
	quadrantY := (tileY % 4) / 2
	shift := uint((quadrantY*2 + quadrantX) * 2)
	return (attrByte >> shift) & 0b11
}

// backgroundPixel fetches the 2-bit color index for pixel (px, py)
// within an 8x8 background tile from its two bitplanes.
func (p *PPU) backgroundPixel(patternTable uint16, tileIndex uint8, px, py int) uint8 {
	addr := patternTable + uint16(tileIndex)*16 + uint16(py)
	lo := p.mapper.PPURead(addr)
	hi := p.mapper.PPURead(addr + 8)
	bit := uint(7 - px)
	loBit := (lo >> bit) & 1
	hiBit := (hi >> bit) & 1
	return (hiBit << 1) | loBit
}

// renderSprites draws object attribute memory in reverse order so
// sprite 0 (drawn last) ends up visually on top of later sprites.
func (p *PPU) renderSprites(f *Frame) {
	if !p.mask.ShowSprites() {
		return
	}

	sixteen := p.control.SpriteSize16()
	for i := len(p.oam) - 4; i >= 0; i -= 4 {
		y := int(p.oam[i])
		tile := p.oam[i+1]
		attrs := p.oam[i+2]
		x := int(p.oam[i+3])

		flipH := attrs&0x40 != 0
		flipV := attrs&0x80 != 0
		behind := attrs&0x20 != 0
		group := attrs & 0b11

		height := 8
		if sixteen {
			height = 16
		}

		for row := 0; row < height; row++ {
			srcRow := row
			if flipV {
				srcRow = height - 1 - row
			}

			var patternTable uint16
			var effTile uint8
			var fineRow int
			if sixteen {
				if srcRow < 8 {
					effTile = tile &^ 1
					fineRow = srcRow
				} else {
					effTile = tile | 1
					fineRow = srcRow - 8
				}
				if tile&1 != 0 {
					patternTable = 0x1000
				}
			} else {
				patternTable = p.control.SpritePatternTable()
				effTile = tile
				fineRow = srcRow
			}

			addr := patternTable + uint16(effTile)*16 + uint16(fineRow)
			lo := p.mapper.PPURead(addr)
			hi := p.mapper.PPURead(addr + 8)

			for col := 0; col < 8; col++ {
				srcCol := col
				if flipH {
					srcCol = 7 - col
				}
				bit := uint(7 - srcCol)
				loBit := (lo >> bit) & 1
				hiBit := (hi >> bit) & 1
				pixel := (hiBit << 1) | loBit
				if pixel == 0 {
					continue
				}

				sx, sy := x+col, y+1+row
				if sx < 0 || sx >= f.Width || sy < 0 || sy >= f.Height {
					continue
				}
				if behind && !f.Transparent[sy*f.Width+sx] {
					continue
				}
				f.setPixel(sx, sy, p.spriteColor(group, pixel), false)
			}
		}
	}
}
