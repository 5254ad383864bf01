package ppu

import "gones/internal/cartridge"

// preRenderScanline runs scanline 261: it clears sprite-0-hit/overflow
// at dot 1, reuses the visible-scanline background fetch cadence (so
// the shift registers are primed for scanline 0), and copies the
// vertical scroll bits from t at dots 280-304 (spec.md §4.3).
func (p *PPU) preRenderScanline() {
	if p.dot == 1 {
		p.status &^= 0x40 | 0x20
		p.sprite0Hit = false
		p.spriteOverflow = false
	}
	p.backgroundFetchCycle()
	if p.dot >= 280 && p.dot <= 304 && p.renderingEnabled() {
		p.v = (p.v & 0x041F) | (p.t &^ 0x041F)
	}
	if p.dot == 257 && p.renderingEnabled() {
		p.evaluateAndFetchSprites()
	}
}

func (p *PPU) visibleScanline() {
	if p.dot >= 1 && p.dot <= 256 {
		p.outputPixel()
	}
	p.backgroundFetchCycle()
	if p.dot == 257 && p.renderingEnabled() {
		p.evaluateAndFetchSprites()
	}
}

// backgroundFetchCycle reproduces the nametable/attribute/pattern fetch
// cadence and the coarse-X/Y scroll increments, per spec.md §4.3's dot
// ranges. It runs identically on the pre-render and visible scanlines.
func (p *PPU) backgroundFetchCycle() {
	if !p.renderingEnabled() {
		return
	}
	fetching := (p.dot >= 1 && p.dot <= 256) || (p.dot >= 321 && p.dot <= 336)
	if fetching {
		switch p.dot % 8 {
		case 1:
			p.reloadShiftRegisters()
			p.ntLatch = p.vramRead(0x2000 | (p.v & 0x0FFF))
		case 3:
			addr := 0x23C0 | (p.v & 0x0C00) | ((p.v >> 4) & 0x38) | ((p.v >> 2) & 0x07)
			at := p.vramRead(addr)
			shift := ((p.v >> 4) & 4) | (p.v & 2)
			p.atLatch = (at >> shift) & 0x03
		case 5:
			base := uint16(0)
			if p.ctrl&0x10 != 0 {
				base = 0x1000
			}
			fineY := (p.v >> 12) & 0x07
			addr := base + uint16(p.ntLatch)*16 + fineY
			p.signalCHRAddress(addr)
			p.loLatch = p.cart.CHRRead(addr, cartridge.FetchBackground)
		case 7:
			base := uint16(0)
			if p.ctrl&0x10 != 0 {
				base = 0x1000
			}
			fineY := (p.v >> 12) & 0x07
			addr := base + uint16(p.ntLatch)*16 + fineY + 8
			p.signalCHRAddress(addr)
			p.hiLatch = p.cart.CHRRead(addr, cartridge.FetchBackground)
		case 0:
			p.incrementCoarseX()
		}
	}
	if p.dot == 256 {
		p.incrementY()
	}
	if p.dot == 257 {
		p.v = (p.v & 0x7BE0) | (p.t & 0x041F)
	}
	if (p.dot >= 2 && p.dot <= 257) || (p.dot >= 322 && p.dot <= 337) {
		p.bgShiftLo <<= 1
		p.bgShiftHi <<= 1
		p.atShiftLo = (p.atShiftLo << 1) | uint16(p.atLatch&1)
		p.atShiftHi = (p.atShiftHi << 1) | uint16((p.atLatch>>1)&1)
	}
}

func (p *PPU) reloadShiftRegisters() {
	p.bgShiftLo = (p.bgShiftLo &^ 0x00FF) | uint16(p.loLatch)
	p.bgShiftHi = (p.bgShiftHi &^ 0x00FF) | uint16(p.hiLatch)
}

func (p *PPU) incrementCoarseX() {
	if p.v&0x001F == 31 {
		p.v &^= 0x001F
		p.v ^= 0x0400
	} else {
		p.v++
	}
}

func (p *PPU) incrementY() {
	if p.v&0x7000 != 0x7000 {
		p.v += 0x1000
		return
	}
	p.v &^= 0x7000
	y := (p.v & 0x03E0) >> 5
	switch y {
	case 29:
		y = 0
		p.v ^= 0x0800
	case 31:
		y = 0
	default:
		y++
	}
	p.v = (p.v &^ 0x03E0) | (y << 5)
}

// outputPixel renders one dot's worth of composited background+sprite
// pixel into the frame buffer, including sprite-0-hit detection and
// left-8-pixel clipping (spec.md §4.3).
func (p *PPU) outputPixel() {
	x := p.dot - 1
	y := p.scanline

	bgIndex := uint8(0)
	if p.showBackground() && !(x < 8 && p.mask&0x02 == 0) {
		shift := 15 - p.x
		lo := (p.bgShiftLo >> shift) & 1
		hi := (p.bgShiftHi >> shift) & 1
		pal := ((p.atShiftLo >> shift) & 1) | (((p.atShiftHi >> shift) & 1) << 1)
		colorBits := uint8(lo) | uint8(hi)<<1
		if colorBits != 0 {
			bgIndex = (uint8(pal) << 2) | colorBits
		}
	}

	spriteIndex := uint8(0)
	spriteBehind := false
	spriteIsZero := false
	if p.showSprites() && !(x < 8 && p.mask&0x04 == 0) {
		for i := 0; i < p.spriteCount; i++ {
			offset := x - int(p.spriteX[i])
			if offset < 0 || offset > 7 {
				continue
			}
			attr := p.spriteAttr[i]
			bit := offset
			if attr&0x40 != 0 {
				bit = 7 - offset
			}
			lo := (p.spritePatternLo[i] >> uint(7-bit)) & 1
			hi := (p.spritePatternHi[i] >> uint(7-bit)) & 1
			colorBits := lo | hi<<1
			if colorBits == 0 {
				continue
			}
			spriteIndex = ((attr & 0x03) << 2) | colorBits
			spriteBehind = attr&0x20 != 0
			spriteIsZero = p.spriteIsZero[i]
			break
		}
	}

	if spriteIsZero && bgIndex&0x03 != 0 && spriteIndex&0x03 != 0 && x != 255 {
		p.sprite0Hit = true
		p.status |= 0x40
	}

	finalIndex := bgIndex
	if spriteIndex&0x03 != 0 && (bgIndex&0x03 == 0 || !spriteBehind) {
		finalIndex = 0x10 | spriteIndex
	}
	if finalIndex&0x03 == 0 {
		finalIndex &= 0x10 // background color 0 of any palette shares entry $3F00/$3F10
	}

	color := systemPalette[p.paletteRAM[paletteRAMIndex(0x3F00+uint16(finalIndex))]&0x3F]
	if p.mask&0xE0 != 0 {
		color = applyEmphasis(color, p.mask>>5)
	}
	p.frameBuffer[y*256+x] = color
}

// evaluateAndFetchSprites runs sprite evaluation for the upcoming
// scanline and immediately fetches the selected sprites' pattern data.
// Real hardware spreads evaluation over dots 65-256 and fetch over
// 257-320; folding both into one step at dot 257 is a simplification
// (see DESIGN.md) that preserves the final per-scanline state -
// including the overflow flag, set when a ninth in-range sprite follows
// the eighth - while still driving the mapper's A12 edge detector once
// per sprite-table fetch.
func (p *PPU) evaluateAndFetchSprites() {
	targetLine := p.scanline + 1
	height := 8
	if p.ctrl&0x20 != 0 {
		height = 16
	}

	count := 0
	overflow := false
	zeroOnLine := false
	var picked [8]int
	for n := 0; n < 64 && count < 8; n++ {
		y := int(p.oam[n*4])
		row := targetLine - y - 1
		if row < 0 || row >= height {
			continue
		}
		picked[count] = n
		if n == 0 {
			zeroOnLine = true
		}
		count++
	}
	if count == 8 {
		for n := picked[7] + 1; n < 64; n++ {
			y := int(p.oam[n*4])
			row := targetLine - y - 1
			if row >= 0 && row < height {
				overflow = true
				break
			}
		}
	}

	p.spriteCount = count
	p.spriteOverflow = p.spriteOverflow || overflow
	if overflow {
		p.status |= 0x20
	}
	p.sprite0OnLine = zeroOnLine

	base := uint16(0)
	if p.ctrl&0x08 != 0 {
		base = 0x1000
	}

	for i := 0; i < count; i++ {
		n := picked[i]
		y := int(p.oam[n*4])
		tile := p.oam[n*4+1]
		attr := p.oam[n*4+2]
		sx := p.oam[n*4+3]

		row := targetLine - y - 1
		flipY := attr&0x80 != 0

		var addr uint16
		if height == 16 {
			tableSel := uint16(tile&1) * 0x1000
			tileNum := uint16(tile &^ 1)
			r := row
			if flipY {
				r = 15 - r
			}
			if r >= 8 {
				tileNum++
				r -= 8
			}
			addr = tableSel + tileNum*16 + uint16(r)
		} else {
			r := row
			if flipY {
				r = 7 - r
			}
			addr = base + uint16(tile)*16 + uint16(r)
		}

		p.signalCHRAddress(addr)
		lo := p.cart.CHRRead(addr, cartridge.FetchSprite)
		p.signalCHRAddress(addr + 8)
		hi := p.cart.CHRRead(addr+8, cartridge.FetchSprite)

		p.spritePatternLo[i] = lo
		p.spritePatternHi[i] = hi
		p.spriteAttr[i] = attr
		p.spriteX[i] = sx
		p.spriteIsZero[i] = n == 0
	}
}

// applyEmphasis approximates the 2C02's color-emphasis channel scaling:
// the two non-emphasized channels are attenuated, matching the
// documented "one of 8 emphasis tables" behavior (spec.md §4.3) without
// reproducing the NTSC composite-artifact version real hardware
// produces for non-RGB output.
func applyEmphasis(c uint32, emphasis uint8) uint32 {
	r := (c >> 16) & 0xFF
	g := (c >> 8) & 0xFF
	b := c & 0xFF

	dim := func(v uint32) uint32 {
		v = v * 3 / 4
		return v
	}
	emphasizeR := emphasis&0x1 != 0
	emphasizeG := emphasis&0x2 != 0
	emphasizeB := emphasis&0x4 != 0
	if !emphasizeR {
		r = dim(r)
	}
	if !emphasizeG {
		g = dim(g)
	}
	if !emphasizeB {
		b = dim(b)
	}
	return 0xFF000000 | (r << 16) | (g << 8) | b
}
