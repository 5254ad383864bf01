package ppu

import "gones/internal/cartridge"

// ReadRegister services a CPU read of $2000-$2007 (already folded to
// that 8-byte range by the caller). busValue is the bus's current
// open-bus latch; the PPU only drives the bits spec.md §4.1 assigns it
// and leaves the rest as busValue, so the bus can fold the result back
// into its own latch unconditionally.
func (p *PPU) ReadRegister(reg uint16, busValue uint8) uint8 {
	switch reg & 7 {
	case 2: // PPUSTATUS
		return p.readStatus(busValue)
	case 4: // OAMDATA
		return p.oam[p.oamAddr]
	case 7: // PPUDATA
		return p.readData()
	default: // write-only registers: the whole byte is open bus
		return busValue
	}
}

// readStatus implements $2002's read side effects: clear the write
// latch, clear (and return) the VBlank flag, and the documented
// 3-dot-wide NMI-suppression race at the exact moment the VBlank flag
// is set (spec.md §4.3, §8 scenario 3).
func (p *PPU) readStatus(busValue uint8) uint8 {
	result := (p.status & 0xE0) | (busValue & 0x1F)

	if p.scanline == vblankStartLine && p.dot >= 1 && p.dot <= 3 {
		result &^= 0x80
		p.status &^= 0x80
		p.setNMIOccurred(false)
	}

	p.status &^= 0x80
	p.w = false
	return result
}

// readData implements $2007's buffered-read semantics: CHR/nametable
// reads return the previous buffer contents and refill it; palette
// reads return immediately while still refilling the buffer with the
// nametable byte underneath the palette mirror (spec.md §4.3).
func (p *PPU) readData() uint8 {
	addr := p.v & 0x3FFF
	var result uint8
	if addr >= 0x3F00 {
		result = p.paletteRAM[paletteRAMIndex(addr)]
		p.readBuffer = p.vramRead(addr - 0x1000)
	} else {
		result = p.readBuffer
		p.readBuffer = p.vramRead(addr)
	}
	p.incrementV()
	return result
}

// WriteRegister services a CPU write of $2000-$2007.
func (p *PPU) WriteRegister(reg uint16, value uint8) {
	if p.cart != nil && (reg&7 == 0 || reg&7 == 1) {
		p.cart.PPUWriteHook(0x2000+(reg&7), value)
	}
	switch reg & 7 {
	case 0: // PPUCTRL
		p.writeCtrl(value)
	case 1: // PPUMASK
		p.mask = value
	case 2: // PPUSTATUS: read-only
	case 3: // OAMADDR
		p.oamAddr = value
	case 4: // OAMDATA
		p.oam[p.oamAddr] = value
		p.oamAddr++
	case 5: // PPUSCROLL
		p.writeScroll(value)
	case 6: // PPUADDR
		p.writeAddr(value)
	case 7: // PPUDATA
		p.writeData(value)
	}
}

func (p *PPU) writeCtrl(value uint8) {
	p.ctrl = value
	p.t = (p.t & 0xF3FF) | (uint16(value&0x03) << 10)
	p.nmiOutput = value&0x80 != 0
	p.updateNMI()
}

func (p *PPU) writeScroll(value uint8) {
	if !p.w {
		p.t = (p.t & 0xFFE0) | uint16(value>>3)
		p.x = value & 0x07
	} else {
		p.t = (p.t & 0x8FFF) | (uint16(value&0x07) << 12)
		p.t = (p.t & 0xFC1F) | (uint16(value&0xF8) << 2)
	}
	p.w = !p.w
}

func (p *PPU) writeAddr(value uint8) {
	if !p.w {
		p.t = (p.t & 0x00FF) | (uint16(value&0x3F) << 8)
	} else {
		p.t = (p.t & 0xFF00) | uint16(value)
		p.v = p.t
	}
	p.w = !p.w
}

// writeData implements $2007's write, including the "glitch scroll"
// that replaces the documented VRAM increment with the normal
// coarse-X/Y scroll increments while rendering is active on a visible
// or pre-render scanline (spec.md §4.3).
func (p *PPU) writeData(value uint8) {
	addr := p.v & 0x3FFF
	if addr >= 0x3F00 {
		p.paletteRAM[paletteRAMIndex(addr)] = value
	} else {
		p.vramWrite(addr, value)
	}
	if p.renderingEnabled() && (p.scanline < visibleScanlines || p.scanline == preRenderLine) {
		p.incrementCoarseX()
		p.incrementY()
	} else {
		p.incrementV()
	}
}

func (p *PPU) incrementV() {
	if p.ctrl&0x04 != 0 {
		p.v += 32
	} else {
		p.v++
	}
	p.v &= 0x7FFF
}

// vramRead dereferences the PPU's 14-bit address space: CHR via the
// mapper, nametables via the cartridge's mirroring table.
func (p *PPU) vramRead(addr uint16) uint8 {
	addr &= 0x3FFF
	if addr < 0x2000 {
		p.signalCHRAddress(addr)
		return p.cart.CHRRead(addr, cartridge.FetchBackground)
	}
	return p.cart.NametableRead(mirrorNametable(addr))
}

func (p *PPU) vramWrite(addr uint16, value uint8) {
	addr &= 0x3FFF
	if addr < 0x2000 {
		p.cart.CHRWrite(addr, value)
		return
	}
	p.cart.NametableWrite(mirrorNametable(addr), value)
}

// mirrorNametable folds $3000-$3EFF down into its $2000-$2EFF mirror.
func mirrorNametable(addr uint16) uint16 {
	addr &= 0x2FFF
	return addr
}

// WriteOAM writes one byte of OAM directly, used by OAM DMA (spec.md
// §4.5).
func (p *PPU) WriteOAM(index uint8, value uint8) { p.oam[index] = value }

// OAMAddr returns the current OAMADDR, which OAM DMA starts writing at.
func (p *PPU) OAMAddr() uint8 { return p.oamAddr }
