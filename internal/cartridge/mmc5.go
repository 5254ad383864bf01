package cartridge

// mmc5Mapper implements MMC5 (mapper 5) scoped to PRG mode 3 (four
// independently switchable 8 KiB windows) and CHR mode 3 (eight
// independently switchable 1 KiB banks), the configuration almost every
// MMC5 game ships with. Grounded on
// _examples/original_source/src/mapper/mmc5.c. Extended attribute RAM,
// the split-screen vertical split region, and the two extra PCM/pulse
// expansion audio channels are documented Non-goals (spec.md §9) and
// are not implemented. Sprite size is not tracked: the CHR banks in
// effect are those of whichever register set (sprite $5120-$5127 or
// background $5128-$512B) was written last.
type mmc5Mapper struct {
	baseMapper

	prgMode uint8
	prg     [4]uint8 // 8KiB windows at $8000,$A000,$C000,$E000; $E000 always ROM

	chrMode uint8
	chrBG   [8]uint8
	chr     [8]uint8
	lastWriteWasBG bool

	mirror MirrorMode

	exRAM [1024]uint8

	irqScanline uint8
	irqEnabled  bool
	irqPending  bool
	renderingEnabled bool
	inFrame          bool
}

func newMMC5(c *Cartridge) *mmc5Mapper {
	return &mmc5Mapper{baseMapper: baseMapper{cart: c}, mirror: c.header.Mirror, prgMode: 3, chrMode: 3}
}

func (m *mmc5Mapper) Init() {
	for i := range m.prg {
		m.prg[i] = 0xFF
	}
	m.applyPRG()
	m.applyCHR()
}

func (m *mmc5Mapper) applyPRG() {
	c := m.cart
	banks8 := len(c.prgROM) / 0x2000
	if banks8 == 0 {
		banks8 = 1
	}
	for w := 0; w < 4; w++ {
		bank := int(m.prg[w]) % banks8
		off := bankOffset(bank, 0x2000, len(c.prgROM))
		c.prgSlots[w*2] = Slot{Arena: ArenaROM, Offset: off}
		c.prgSlots[w*2+1] = Slot{Arena: ArenaROM, Offset: off + prgSlotSize}
	}
}

func (m *mmc5Mapper) applyCHR() {
	c := m.cart
	if c.hasCHRRAM {
		return
	}
	src := m.chr
	if m.lastWriteWasBG {
		src = m.chrBG
	}
	for i := 0; i < 8; i++ {
		c.chrSlots[i] = Slot{Arena: ArenaROM, Offset: bankOffset(int(src[i]), chrSlotSize, len(c.chrROM))}
	}
}

func (m *mmc5Mapper) PRGRead(addr uint16) (uint8, bool) {
	if addr >= 0x5C00 && addr <= 0x5FFF {
		return m.exRAM[addr-0x5C00], true
	}
	if addr == 0x5204 {
		v := uint8(0)
		if m.irqPending {
			v |= 0x80
		}
		if m.inFrame {
			v |= 0x40
		}
		m.irqPending = false
		return v, true
	}
	return m.cart.readPRGSlots(addr)
}

func (m *mmc5Mapper) PRGWrite(addr uint16, value uint8) {
	switch {
	case addr == 0x5100:
		m.prgMode = value & 0x03
	case addr == 0x5101:
		m.chrMode = value & 0x03
	case addr == 0x5102 || addr == 0x5103:
		// PRG-RAM protect bits, not enforced (no banked PRG RAM beyond one bank here)
	case addr == 0x5113:
		// $6000-$7FFF PRG-RAM bank select; routed through the cartridge's
		// fixed single PRG-RAM window, not banked here.
	case addr >= 0x5114 && addr <= 0x5117:
		m.prg[addr-0x5114] = value & 0x7F
		m.applyPRG()
	case addr >= 0x5120 && addr <= 0x5127:
		m.chr[addr-0x5120] = value
		m.lastWriteWasBG = false
		m.applyCHR()
	case addr >= 0x5128 && addr <= 0x512B:
		idx := int(addr - 0x5128)
		m.chrBG[idx] = value
		m.chrBG[idx+4] = value
		m.lastWriteWasBG = true
		m.applyCHR()
	case addr == 0x5200:
		// vertical split control, unimplemented split region
	case addr == 0x5203:
		m.irqScanline = value
	case addr == 0x5204:
		m.irqEnabled = value&0x80 != 0
	case addr >= 0x5C00 && addr <= 0x5FFF:
		m.exRAM[addr-0x5C00] = value
	case addr < 0x8000:
		m.cart.writePRGSlots(addr, value)
	}
}

func (m *mmc5Mapper) Mirror() MirrorMode { return m.mirror }

// PPUWriteHook watches $2001 so the in-frame flag tracks whether
// background or sprite rendering is actually enabled.
func (m *mmc5Mapper) PPUWriteHook(addr uint16, value uint8) {
	if addr == 0x2001 {
		m.renderingEnabled = value&0x18 != 0
	}
}

// PPUScanlineHook compares the PPU's current rendering scanline against
// the IRQ target latch, matching MMC5's in-frame scanline counter.
func (m *mmc5Mapper) PPUScanlineHook(scanline int) {
	if scanline == 0 {
		m.inFrame = m.renderingEnabled
	}
	if !m.renderingEnabled {
		return
	}
	if scanline >= 0 && scanline <= 239 && uint8(scanline) == m.irqScanline {
		m.irqPending = true
	}
}

func (m *mmc5Mapper) IRQAsserted() bool { return m.irqEnabled && m.irqPending }
func (m *mmc5Mapper) AcknowledgeIRQ()   { m.irqPending = false }
