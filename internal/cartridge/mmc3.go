package cartridge

// mmc3Mapper implements MMC3/TxROM (mapper 4): eight bank registers, a
// PPU-A12-clocked scanline IRQ counter, grounded on
// _examples/original_source/src/mapper/mmc3.c and spec.md §4.2's shared
// irqBlock description.
type mmc3Mapper struct {
	baseMapper

	bankSelect uint8
	regs       [8]uint8
	mirror     MirrorMode
	prgRAMProtect uint8

	irq irqBlock
	irqReload bool
}

func newMMC3(c *Cartridge) *mmc3Mapper {
	return &mmc3Mapper{baseMapper: baseMapper{cart: c}, mirror: c.header.Mirror}
}

func (m *mmc3Mapper) Init() {
	m.applyPRG()
	m.applyCHR()
}

func (m *mmc3Mapper) PRGWrite(addr uint16, value uint8) {
	if addr < 0x8000 {
		m.cart.writePRGSlots(addr, value)
		return
	}

	even := addr&1 == 0
	switch {
	case addr < 0xA000:
		if even {
			m.bankSelect = value
		} else {
			m.regs[m.bankSelect&0x07] = value
		}
		m.applyPRG()
		m.applyCHR()
	case addr < 0xC000:
		if even {
			if value&1 != 0 {
				m.mirror = MirrorHorizontal
			} else {
				m.mirror = MirrorVertical
			}
			m.cart.SetMirror(m.mirror)
		} else {
			m.prgRAMProtect = value
		}
	case addr < 0xE000:
		if even {
			m.irq.period = uint16(value)
		} else {
			m.irqReload = true
		}
	default:
		if even {
			m.irq.enabled = false
			m.irq.pending = false
		} else {
			m.irq.enabled = true
		}
	}
}

func (m *mmc3Mapper) applyPRG() {
	c := m.cart
	bankCount := len(c.prgROM) / 0x2000
	if bankCount == 0 {
		bankCount = 1
	}
	r6 := int(m.regs[6]) % bankCount
	r7 := int(m.regs[7]) % bankCount
	last := bankCount - 1
	secondLast := bankCount - 2
	if secondLast < 0 {
		secondLast = 0
	}

	set := func(slotPair int, bank int) {
		off := bankOffset(bank, 0x2000, len(c.prgROM))
		c.prgSlots[slotPair] = Slot{Arena: ArenaROM, Offset: off}
		c.prgSlots[slotPair+1] = Slot{Arena: ArenaROM, Offset: off + prgSlotSize}
	}

	if m.bankSelect&0x40 == 0 {
		set(0, r6)
		set(2, r7)
		set(4, secondLast)
		set(6, last)
	} else {
		set(0, secondLast)
		set(2, r7)
		set(4, r6)
		set(6, last)
	}
}

func (m *mmc3Mapper) applyCHR() {
	c := m.cart
	if c.hasCHRRAM {
		return
	}
	r := func(i int) int { return int(m.regs[i]) }
	set1 := func(slot, bank int) {
		c.chrSlots[slot] = Slot{Arena: ArenaROM, Offset: bankOffset(bank, chrSlotSize, len(c.chrROM))}
	}
	set2 := func(slot, bank int) {
		off := bankOffset(bank>>1, 0x800, len(c.chrROM))
		c.chrSlots[slot] = Slot{Arena: ArenaROM, Offset: off}
		c.chrSlots[slot+1] = Slot{Arena: ArenaROM, Offset: off + chrSlotSize}
	}

	if m.bankSelect&0x80 == 0 {
		set2(0, r(0))
		set2(2, r(1))
		set1(4, r(2))
		set1(5, r(3))
		set1(6, r(4))
		set1(7, r(5))
	} else {
		set1(0, r(2))
		set1(1, r(3))
		set1(2, r(4))
		set1(3, r(5))
		set2(4, r(0))
		set2(6, r(1))
	}
}

func (m *mmc3Mapper) Mirror() MirrorMode { return m.mirror }

// PPUA12Toggle clocks the scanline IRQ counter on the PPU's A12 rising
// edge, per spec.md §4.2.
func (m *mmc3Mapper) PPUA12Toggle() {
	if m.irq.counter == 0 || m.irqReload {
		m.irq.counter = m.irq.period
		m.irqReload = false
	} else {
		m.irq.counter--
	}
	if m.irq.counter == 0 && m.irq.enabled {
		m.irq.pending = true
	}
}

func (m *mmc3Mapper) IRQAsserted() bool { return m.irq.asserted() }
func (m *mmc3Mapper) AcknowledgeIRQ()   { m.irq.acknowledge() }
func (m *mmc3Mapper) BusConflict() bool { return false }
