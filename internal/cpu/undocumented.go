package cpu

// addIllegalOpcodes fills in the opcode table slots with the
// well-documented NMOS 6502 "illegal" instructions that enough
// commercial NES software (and test ROMs) relies on to be worth
// modeling: the combined load/store/RMW families, the immediate-mode
// ANC/ALR/ARR/AXS accumulator tricks, and the common multi-byte/cycle
// NOP encodings. The small set of address-bus-instability opcodes
// (SHA/SHX/SHY/TAS/LAS) is deliberately left as the default NOP: their
// behavior depends on analog bus capacitance effects that differ
// across 2A03 revisions, not just on the opcode and operand.
func addIllegalOpcodes(t *[256]instruction) {
	read := func(op uint8, name string, mode AddressingMode, f func(c *CPU, v uint8)) {
		t[op] = instruction{name: name, mode: mode, kind: kindRead, read: f, illegal: true}
	}
	write := func(op uint8, name string, mode AddressingMode, f func(c *CPU) uint8) {
		t[op] = instruction{name: name, mode: mode, kind: kindWrite, write: f, illegal: true}
	}
	rmwOp := func(op uint8, name string, mode AddressingMode, f func(c *CPU, v uint8) uint8) {
		t[op] = instruction{name: name, mode: mode, kind: kindRMW, rmw: f, illegal: true}
	}
	implied := func(op uint8, f func(c *CPU)) {
		t[op] = instruction{name: "NOP", mode: Implied, kind: kindImplied, implied: f, illegal: true}
	}

	// LAX: load A and X together.
	lax := func(c *CPU, v uint8) { c.A, c.X = v, v; c.setZN(v) }
	read(0xA7, "LAX", ZeroPage, lax)
	read(0xB7, "LAX", ZeroPageY, lax)
	read(0xAF, "LAX", Absolute, lax)
	read(0xBF, "LAX", AbsoluteY, lax)
	read(0xA3, "LAX", IndexedIndirect, lax)
	read(0xB3, "LAX", IndirectIndexed, lax)

	// SAX: store A&X, no flags affected.
	sax := func(c *CPU) uint8 { return c.A & c.X }
	write(0x87, "SAX", ZeroPage, sax)
	write(0x97, "SAX", ZeroPageY, sax)
	write(0x8F, "SAX", Absolute, sax)
	write(0x83, "SAX", IndexedIndirect, sax)

	// DCP: DEC then CMP A.
	dcp := func(c *CPU, v uint8) uint8 { r := v - 1; compare(c, c.A, r); return r }
	rmwOp(0xC7, "DCP", ZeroPage, dcp)
	rmwOp(0xD7, "DCP", ZeroPageX, dcp)
	rmwOp(0xCF, "DCP", Absolute, dcp)
	rmwOp(0xDF, "DCP", AbsoluteX, dcp)
	rmwOp(0xDB, "DCP", AbsoluteY, dcp)
	rmwOp(0xC3, "DCP", IndexedIndirect, dcp)
	rmwOp(0xD3, "DCP", IndirectIndexed, dcp)

	// ISC (ISB): INC then SBC A.
	isc := func(c *CPU, v uint8) uint8 { r := v + 1; sbcValue(c, r); return r }
	rmwOp(0xE7, "ISC", ZeroPage, isc)
	rmwOp(0xF7, "ISC", ZeroPageX, isc)
	rmwOp(0xEF, "ISC", Absolute, isc)
	rmwOp(0xFF, "ISC", AbsoluteX, isc)
	rmwOp(0xFB, "ISC", AbsoluteY, isc)
	rmwOp(0xE3, "ISC", IndexedIndirect, isc)
	rmwOp(0xF3, "ISC", IndirectIndexed, isc)

	// SLO: ASL then ORA A.
	slo := func(c *CPU, v uint8) uint8 { r := asl(c, v); c.A |= r; c.setZN(c.A); return r }
	rmwOp(0x07, "SLO", ZeroPage, slo)
	rmwOp(0x17, "SLO", ZeroPageX, slo)
	rmwOp(0x0F, "SLO", Absolute, slo)
	rmwOp(0x1F, "SLO", AbsoluteX, slo)
	rmwOp(0x1B, "SLO", AbsoluteY, slo)
	rmwOp(0x03, "SLO", IndexedIndirect, slo)
	rmwOp(0x13, "SLO", IndirectIndexed, slo)

	// RLA: ROL then AND A.
	rla := func(c *CPU, v uint8) uint8 { r := rol(c, v); c.A &= r; c.setZN(c.A); return r }
	rmwOp(0x27, "RLA", ZeroPage, rla)
	rmwOp(0x37, "RLA", ZeroPageX, rla)
	rmwOp(0x2F, "RLA", Absolute, rla)
	rmwOp(0x3F, "RLA", AbsoluteX, rla)
	rmwOp(0x3B, "RLA", AbsoluteY, rla)
	rmwOp(0x23, "RLA", IndexedIndirect, rla)
	rmwOp(0x33, "RLA", IndirectIndexed, rla)

	// SRE: LSR then EOR A.
	sre := func(c *CPU, v uint8) uint8 { r := lsr(c, v); c.A ^= r; c.setZN(c.A); return r }
	rmwOp(0x47, "SRE", ZeroPage, sre)
	rmwOp(0x57, "SRE", ZeroPageX, sre)
	rmwOp(0x4F, "SRE", Absolute, sre)
	rmwOp(0x5F, "SRE", AbsoluteX, sre)
	rmwOp(0x5B, "SRE", AbsoluteY, sre)
	rmwOp(0x43, "SRE", IndexedIndirect, sre)
	rmwOp(0x53, "SRE", IndirectIndexed, sre)

	// RRA: ROR then ADC A.
	rra := func(c *CPU, v uint8) uint8 { r := ror(c, v); adcValue(c, r); return r }
	rmwOp(0x67, "RRA", ZeroPage, rra)
	rmwOp(0x77, "RRA", ZeroPageX, rra)
	rmwOp(0x6F, "RRA", Absolute, rra)
	rmwOp(0x7F, "RRA", AbsoluteX, rra)
	rmwOp(0x7B, "RRA", AbsoluteY, rra)
	rmwOp(0x63, "RRA", IndexedIndirect, rra)
	rmwOp(0x73, "RRA", IndirectIndexed, rra)

	// ANC: AND #imm, then C = N (bit 7 of the result, as if shifted into carry).
	anc := func(c *CPU, v uint8) { c.A &= v; c.setZN(c.A); c.C = c.N }
	read(0x0B, "ANC", Immediate, anc)
	read(0x2B, "ANC", Immediate, anc)

	// ALR (ASR): AND #imm, then LSR A.
	read(0x4B, "ALR", Immediate, func(c *CPU, v uint8) { c.A &= v; c.A = lsr(c, c.A) })

	// ARR: AND #imm, then ROR A, with C/V derived from the pre-shift bits.
	read(0x6B, "ARR", Immediate, func(c *CPU, v uint8) {
		c.A &= v
		carryIn := uint8(0)
		if c.C {
			carryIn = 0x80
		}
		c.A = c.A>>1 | carryIn
		c.setZN(c.A)
		c.C = c.A&0x40 != 0
		c.V = (c.A>>6)&1^(c.A>>5)&1 != 0
	})

	// AXS (SBX): X = (A&X) - #imm, sets flags like CMP.
	read(0xCB, "AXS", Immediate, func(c *CPU, v uint8) {
		t := c.A & c.X
		c.C = t >= v
		c.X = t - v
		c.setZN(c.X)
	})

	// SBC ($EB): byte-identical alias of the official SBC immediate.
	read(0xEB, "SBC", Immediate, func(c *CPU, v uint8) { sbcValue(c, v) })

	// Single-byte NOPs.
	for _, op := range []uint8{0x1A, 0x3A, 0x5A, 0x7A, 0xDA, 0xFA} {
		implied(op, func(c *CPU) {})
	}

	// Two-byte immediate-operand NOPs (operand fetched and discarded).
	nopImm := func(c *CPU, v uint8) {}
	for _, op := range []uint8{0x80, 0x82, 0x89, 0xC2, 0xE2} {
		read(op, "NOP", Immediate, nopImm)
	}

	// Zero-page operand NOPs.
	for _, op := range []uint8{0x04, 0x44, 0x64} {
		read(op, "NOP", ZeroPage, nopImm)
	}
	for _, op := range []uint8{0x14, 0x34, 0x54, 0x74, 0xD4, 0xF4} {
		read(op, "NOP", ZeroPageX, nopImm)
	}

	// Absolute operand NOPs (0x0C has no page-cross penalty; the 0x_C
	// family does, matching the other AbsoluteX read instructions).
	read(0x0C, "NOP", Absolute, nopImm)
	for _, op := range []uint8{0x1C, 0x3C, 0x5C, 0x7C, 0xDC, 0xFC} {
		read(op, "NOP", AbsoluteX, nopImm)
	}
}
