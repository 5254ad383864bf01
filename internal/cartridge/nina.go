package cartridge

// ninaMapper implements NINA-001 (mapper 34, submapper 1 under NES 2.0,
// or disambiguated from BNROM by CHR ROM size under archaic iNES): one
// 32 KiB PRG bank register and two independent 4 KiB CHR bank
// registers, each its own byte at a fixed address rather than packed
// into a single write like the rest of the table-driven family.
// Grounded on _examples/original_source/src/mapper/nina.c.
type ninaMapper struct {
	baseMapper

	prgBank  uint8
	chrBank0 uint8
	chrBank1 uint8
}

func newNINA(c *Cartridge) *ninaMapper {
	return &ninaMapper{baseMapper: baseMapper{cart: c}}
}

func (m *ninaMapper) Init() {
	m.applyPRG()
	m.applyCHR()
}

func (m *ninaMapper) applyPRG() {
	c := m.cart
	off := bankOffset(int(m.prgBank), 0x8000, len(c.prgROM))
	for i := 0; i < prgSlotCount; i++ {
		c.prgSlots[i] = Slot{Arena: ArenaROM, Offset: off + uint32(i)*prgSlotSize}
	}
}

func (m *ninaMapper) applyCHR() {
	c := m.cart
	if c.hasCHRRAM {
		return
	}
	off0 := bankOffset(int(m.chrBank0), 0x1000, len(c.chrROM))
	off1 := bankOffset(int(m.chrBank1), 0x1000, len(c.chrROM))
	for i := 0; i < 4; i++ {
		c.chrSlots[i] = Slot{Arena: ArenaROM, Offset: off0 + uint32(i)*chrSlotSize}
		c.chrSlots[4+i] = Slot{Arena: ArenaROM, Offset: off1 + uint32(i)*chrSlotSize}
	}
}

func (m *ninaMapper) PRGWrite(addr uint16, value uint8) {
	switch addr {
	case 0x7FFD:
		m.prgBank = value & 0x01
		m.applyPRG()
	case 0x7FFE:
		m.chrBank0 = value & 0x0F
		m.applyCHR()
	case 0x7FFF:
		m.chrBank1 = value & 0x0F
		m.applyCHR()
	default:
		if addr < 0x8000 {
			m.cart.writePRGSlots(addr, value)
		}
	}
}
