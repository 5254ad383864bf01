package cpu

// This file holds the official 6502 instruction semantics and the
// opcode table that maps each of the 256 possible opcode bytes to an
// instruction entry. Undefined bytes default to a two-cycle NOP-like
// implied instruction (undocumented.go overwrites the ones with
// well-known illegal behavior).

func adcValue(c *CPU, v uint8) {
	sum := uint16(c.A) + uint16(v)
	if c.C {
		sum++
	}
	result := uint8(sum)
	c.V = (c.A^v)&0x80 == 0 && (c.A^result)&0x80 != 0
	c.C = sum > 0xFF
	c.A = result
	c.setZN(c.A)
}

func sbcValue(c *CPU, v uint8) { adcValue(c, ^v) }

func compare(c *CPU, reg, v uint8) {
	c.C = reg >= v
	c.setZN(reg - v)
}

func asl(c *CPU, v uint8) uint8 {
	c.C = v&0x80 != 0
	r := v << 1
	c.setZN(r)
	return r
}

func lsr(c *CPU, v uint8) uint8 {
	c.C = v&0x01 != 0
	r := v >> 1
	c.setZN(r)
	return r
}

func rol(c *CPU, v uint8) uint8 {
	carryIn := uint8(0)
	if c.C {
		carryIn = 1
	}
	c.C = v&0x80 != 0
	r := v<<1 | carryIn
	c.setZN(r)
	return r
}

func ror(c *CPU, v uint8) uint8 {
	carryIn := uint8(0)
	if c.C {
		carryIn = 0x80
	}
	c.C = v&0x01 != 0
	r := v>>1 | carryIn
	c.setZN(r)
	return r
}

// buildOpcodeTable constructs the 256-entry dispatch table. Every slot
// starts as an implied 1-byte NOP so a ROM that executes a truly
// unassigned opcode doesn't panic; addIllegalOpcodes then fills in the
// slots with documented undocumented behavior.
func buildOpcodeTable() [256]instruction {
	var t [256]instruction
	for i := range t {
		t[i] = instruction{name: "NOP", mode: Implied, kind: kindImplied, illegal: true, implied: func(c *CPU) {}}
	}

	read := func(op uint8, name string, mode AddressingMode, f func(c *CPU, v uint8)) {
		t[op] = instruction{name: name, mode: mode, kind: kindRead, read: f}
	}
	write := func(op uint8, name string, mode AddressingMode, f func(c *CPU) uint8) {
		t[op] = instruction{name: name, mode: mode, kind: kindWrite, write: f}
	}
	rmw := func(op uint8, name string, mode AddressingMode, f func(c *CPU, v uint8) uint8) {
		t[op] = instruction{name: name, mode: mode, kind: kindRMW, rmw: f}
	}
	implied := func(op uint8, name string, f func(c *CPU)) {
		t[op] = instruction{name: name, mode: Implied, kind: kindImplied, implied: f}
	}
	branch := func(op uint8, name string, f func(c *CPU) bool) {
		t[op] = instruction{name: name, mode: Relative, kind: kindBranch, branch: f}
	}
	special := func(op uint8, name string, mode AddressingMode, f func(c *CPU)) {
		t[op] = instruction{name: name, mode: mode, kind: kindStack, special: f}
	}

	// ADC
	read(0x69, "ADC", Immediate, func(c *CPU, v uint8) { adcValue(c, v) })
	read(0x65, "ADC", ZeroPage, func(c *CPU, v uint8) { adcValue(c, v) })
	read(0x75, "ADC", ZeroPageX, func(c *CPU, v uint8) { adcValue(c, v) })
	read(0x6D, "ADC", Absolute, func(c *CPU, v uint8) { adcValue(c, v) })
	read(0x7D, "ADC", AbsoluteX, func(c *CPU, v uint8) { adcValue(c, v) })
	read(0x79, "ADC", AbsoluteY, func(c *CPU, v uint8) { adcValue(c, v) })
	read(0x61, "ADC", IndexedIndirect, func(c *CPU, v uint8) { adcValue(c, v) })
	read(0x71, "ADC", IndirectIndexed, func(c *CPU, v uint8) { adcValue(c, v) })

	// AND
	read(0x29, "AND", Immediate, func(c *CPU, v uint8) { c.A &= v; c.setZN(c.A) })
	read(0x25, "AND", ZeroPage, func(c *CPU, v uint8) { c.A &= v; c.setZN(c.A) })
	read(0x35, "AND", ZeroPageX, func(c *CPU, v uint8) { c.A &= v; c.setZN(c.A) })
	read(0x2D, "AND", Absolute, func(c *CPU, v uint8) { c.A &= v; c.setZN(c.A) })
	read(0x3D, "AND", AbsoluteX, func(c *CPU, v uint8) { c.A &= v; c.setZN(c.A) })
	read(0x39, "AND", AbsoluteY, func(c *CPU, v uint8) { c.A &= v; c.setZN(c.A) })
	read(0x21, "AND", IndexedIndirect, func(c *CPU, v uint8) { c.A &= v; c.setZN(c.A) })
	read(0x31, "AND", IndirectIndexed, func(c *CPU, v uint8) { c.A &= v; c.setZN(c.A) })

	// ASL
	rmw(0x06, "ASL", ZeroPage, asl)
	rmw(0x16, "ASL", ZeroPageX, asl)
	rmw(0x0E, "ASL", Absolute, asl)
	rmw(0x1E, "ASL", AbsoluteX, asl)
	t[0x0A] = instruction{name: "ASL", mode: Accumulator, kind: kindRMW, rmw: asl}

	// branches
	branch(0x90, "BCC", func(c *CPU) bool { return !c.C })
	branch(0xB0, "BCS", func(c *CPU) bool { return c.C })
	branch(0xF0, "BEQ", func(c *CPU) bool { return c.Z })
	branch(0x30, "BMI", func(c *CPU) bool { return c.N })
	branch(0xD0, "BNE", func(c *CPU) bool { return !c.Z })
	branch(0x10, "BPL", func(c *CPU) bool { return !c.N })
	branch(0x50, "BVC", func(c *CPU) bool { return !c.V })
	branch(0x70, "BVS", func(c *CPU) bool { return c.V })

	// BIT
	bit := func(c *CPU, v uint8) { c.Z = c.A&v == 0; c.N = v&0x80 != 0; c.V = v&0x40 != 0 }
	read(0x24, "BIT", ZeroPage, bit)
	read(0x2C, "BIT", Absolute, bit)

	// BRK
	special(0x00, "BRK", Implied, brk)

	// flag clears/sets
	implied(0x18, "CLC", func(c *CPU) { c.C = false })
	implied(0xD8, "CLD", func(c *CPU) { c.D = false })
	implied(0x58, "CLI", func(c *CPU) { c.I = false })
	implied(0xB8, "CLV", func(c *CPU) { c.V = false })
	implied(0x38, "SEC", func(c *CPU) { c.C = true })
	implied(0xF8, "SED", func(c *CPU) { c.D = true })
	implied(0x78, "SEI", func(c *CPU) { c.I = true })

	// CMP/CPX/CPY
	read(0xC9, "CMP", Immediate, func(c *CPU, v uint8) { compare(c, c.A, v) })
	read(0xC5, "CMP", ZeroPage, func(c *CPU, v uint8) { compare(c, c.A, v) })
	read(0xD5, "CMP", ZeroPageX, func(c *CPU, v uint8) { compare(c, c.A, v) })
	read(0xCD, "CMP", Absolute, func(c *CPU, v uint8) { compare(c, c.A, v) })
	read(0xDD, "CMP", AbsoluteX, func(c *CPU, v uint8) { compare(c, c.A, v) })
	read(0xD9, "CMP", AbsoluteY, func(c *CPU, v uint8) { compare(c, c.A, v) })
	read(0xC1, "CMP", IndexedIndirect, func(c *CPU, v uint8) { compare(c, c.A, v) })
	read(0xD1, "CMP", IndirectIndexed, func(c *CPU, v uint8) { compare(c, c.A, v) })
	read(0xE0, "CPX", Immediate, func(c *CPU, v uint8) { compare(c, c.X, v) })
	read(0xE4, "CPX", ZeroPage, func(c *CPU, v uint8) { compare(c, c.X, v) })
	read(0xEC, "CPX", Absolute, func(c *CPU, v uint8) { compare(c, c.X, v) })
	read(0xC0, "CPY", Immediate, func(c *CPU, v uint8) { compare(c, c.Y, v) })
	read(0xC4, "CPY", ZeroPage, func(c *CPU, v uint8) { compare(c, c.Y, v) })
	read(0xCC, "CPY", Absolute, func(c *CPU, v uint8) { compare(c, c.Y, v) })

	// DEC/DEX/DEY
	dec := func(c *CPU, v uint8) uint8 { r := v - 1; c.setZN(r); return r }
	rmw(0xC6, "DEC", ZeroPage, dec)
	rmw(0xD6, "DEC", ZeroPageX, dec)
	rmw(0xCE, "DEC", Absolute, dec)
	rmw(0xDE, "DEC", AbsoluteX, dec)
	implied(0xCA, "DEX", func(c *CPU) { c.X--; c.setZN(c.X) })
	implied(0x88, "DEY", func(c *CPU) { c.Y--; c.setZN(c.Y) })

	// EOR
	read(0x49, "EOR", Immediate, func(c *CPU, v uint8) { c.A ^= v; c.setZN(c.A) })
	read(0x45, "EOR", ZeroPage, func(c *CPU, v uint8) { c.A ^= v; c.setZN(c.A) })
	read(0x55, "EOR", ZeroPageX, func(c *CPU, v uint8) { c.A ^= v; c.setZN(c.A) })
	read(0x4D, "EOR", Absolute, func(c *CPU, v uint8) { c.A ^= v; c.setZN(c.A) })
	read(0x5D, "EOR", AbsoluteX, func(c *CPU, v uint8) { c.A ^= v; c.setZN(c.A) })
	read(0x59, "EOR", AbsoluteY, func(c *CPU, v uint8) { c.A ^= v; c.setZN(c.A) })
	read(0x41, "EOR", IndexedIndirect, func(c *CPU, v uint8) { c.A ^= v; c.setZN(c.A) })
	read(0x51, "EOR", IndirectIndexed, func(c *CPU, v uint8) { c.A ^= v; c.setZN(c.A) })

	// INC/INX/INY
	inc := func(c *CPU, v uint8) uint8 { r := v + 1; c.setZN(r); return r }
	rmw(0xE6, "INC", ZeroPage, inc)
	rmw(0xF6, "INC", ZeroPageX, inc)
	rmw(0xEE, "INC", Absolute, inc)
	rmw(0xFE, "INC", AbsoluteX, inc)
	implied(0xE8, "INX", func(c *CPU) { c.X++; c.setZN(c.X) })
	implied(0xC8, "INY", func(c *CPU) { c.Y++; c.setZN(c.Y) })

	// JMP/JSR
	special(0x4C, "JMP", Absolute, jmpAbsolute)
	special(0x6C, "JMP", Indirect, jmpIndirect)
	special(0x20, "JSR", Absolute, jsr)

	// LDA/LDX/LDY
	read(0xA9, "LDA", Immediate, func(c *CPU, v uint8) { c.A = v; c.setZN(c.A) })
	read(0xA5, "LDA", ZeroPage, func(c *CPU, v uint8) { c.A = v; c.setZN(c.A) })
	read(0xB5, "LDA", ZeroPageX, func(c *CPU, v uint8) { c.A = v; c.setZN(c.A) })
	read(0xAD, "LDA", Absolute, func(c *CPU, v uint8) { c.A = v; c.setZN(c.A) })
	read(0xBD, "LDA", AbsoluteX, func(c *CPU, v uint8) { c.A = v; c.setZN(c.A) })
	read(0xB9, "LDA", AbsoluteY, func(c *CPU, v uint8) { c.A = v; c.setZN(c.A) })
	read(0xA1, "LDA", IndexedIndirect, func(c *CPU, v uint8) { c.A = v; c.setZN(c.A) })
	read(0xB1, "LDA", IndirectIndexed, func(c *CPU, v uint8) { c.A = v; c.setZN(c.A) })
	read(0xA2, "LDX", Immediate, func(c *CPU, v uint8) { c.X = v; c.setZN(c.X) })
	read(0xA6, "LDX", ZeroPage, func(c *CPU, v uint8) { c.X = v; c.setZN(c.X) })
	read(0xB6, "LDX", ZeroPageY, func(c *CPU, v uint8) { c.X = v; c.setZN(c.X) })
	read(0xAE, "LDX", Absolute, func(c *CPU, v uint8) { c.X = v; c.setZN(c.X) })
	read(0xBE, "LDX", AbsoluteY, func(c *CPU, v uint8) { c.X = v; c.setZN(c.X) })
	read(0xA0, "LDY", Immediate, func(c *CPU, v uint8) { c.Y = v; c.setZN(c.Y) })
	read(0xA4, "LDY", ZeroPage, func(c *CPU, v uint8) { c.Y = v; c.setZN(c.Y) })
	read(0xB4, "LDY", ZeroPageX, func(c *CPU, v uint8) { c.Y = v; c.setZN(c.Y) })
	read(0xAC, "LDY", Absolute, func(c *CPU, v uint8) { c.Y = v; c.setZN(c.Y) })
	read(0xBC, "LDY", AbsoluteX, func(c *CPU, v uint8) { c.Y = v; c.setZN(c.Y) })

	// LSR
	rmw(0x46, "LSR", ZeroPage, lsr)
	rmw(0x56, "LSR", ZeroPageX, lsr)
	rmw(0x4E, "LSR", Absolute, lsr)
	rmw(0x5E, "LSR", AbsoluteX, lsr)
	t[0x4A] = instruction{name: "LSR", mode: Accumulator, kind: kindRMW, rmw: lsr}

	// NOP
	implied(0xEA, "NOP", func(c *CPU) {})

	// ORA
	read(0x09, "ORA", Immediate, func(c *CPU, v uint8) { c.A |= v; c.setZN(c.A) })
	read(0x05, "ORA", ZeroPage, func(c *CPU, v uint8) { c.A |= v; c.setZN(c.A) })
	read(0x15, "ORA", ZeroPageX, func(c *CPU, v uint8) { c.A |= v; c.setZN(c.A) })
	read(0x0D, "ORA", Absolute, func(c *CPU, v uint8) { c.A |= v; c.setZN(c.A) })
	read(0x1D, "ORA", AbsoluteX, func(c *CPU, v uint8) { c.A |= v; c.setZN(c.A) })
	read(0x19, "ORA", AbsoluteY, func(c *CPU, v uint8) { c.A |= v; c.setZN(c.A) })
	read(0x01, "ORA", IndexedIndirect, func(c *CPU, v uint8) { c.A |= v; c.setZN(c.A) })
	read(0x11, "ORA", IndirectIndexed, func(c *CPU, v uint8) { c.A |= v; c.setZN(c.A) })

	// stack ops
	special(0x48, "PHA", Implied, pha)
	special(0x08, "PHP", Implied, php)
	special(0x68, "PLA", Implied, pla)
	special(0x28, "PLP", Implied, plp)

	// ROL/ROR
	rmw(0x26, "ROL", ZeroPage, rol)
	rmw(0x36, "ROL", ZeroPageX, rol)
	rmw(0x2E, "ROL", Absolute, rol)
	rmw(0x3E, "ROL", AbsoluteX, rol)
	t[0x2A] = instruction{name: "ROL", mode: Accumulator, kind: kindRMW, rmw: rol}
	rmw(0x66, "ROR", ZeroPage, ror)
	rmw(0x76, "ROR", ZeroPageX, ror)
	rmw(0x6E, "ROR", Absolute, ror)
	rmw(0x7E, "ROR", AbsoluteX, ror)
	t[0x6A] = instruction{name: "ROR", mode: Accumulator, kind: kindRMW, rmw: ror}

	// RTI/RTS
	special(0x40, "RTI", Implied, rti)
	special(0x60, "RTS", Implied, rts)

	// SBC
	read(0xE9, "SBC", Immediate, func(c *CPU, v uint8) { sbcValue(c, v) })
	read(0xE5, "SBC", ZeroPage, func(c *CPU, v uint8) { sbcValue(c, v) })
	read(0xF5, "SBC", ZeroPageX, func(c *CPU, v uint8) { sbcValue(c, v) })
	read(0xED, "SBC", Absolute, func(c *CPU, v uint8) { sbcValue(c, v) })
	read(0xFD, "SBC", AbsoluteX, func(c *CPU, v uint8) { sbcValue(c, v) })
	read(0xF9, "SBC", AbsoluteY, func(c *CPU, v uint8) { sbcValue(c, v) })
	read(0xE1, "SBC", IndexedIndirect, func(c *CPU, v uint8) { sbcValue(c, v) })
	read(0xF1, "SBC", IndirectIndexed, func(c *CPU, v uint8) { sbcValue(c, v) })

	// STA/STX/STY
	write(0x85, "STA", ZeroPage, func(c *CPU) uint8 { return c.A })
	write(0x95, "STA", ZeroPageX, func(c *CPU) uint8 { return c.A })
	write(0x8D, "STA", Absolute, func(c *CPU) uint8 { return c.A })
	write(0x9D, "STA", AbsoluteX, func(c *CPU) uint8 { return c.A })
	write(0x99, "STA", AbsoluteY, func(c *CPU) uint8 { return c.A })
	write(0x81, "STA", IndexedIndirect, func(c *CPU) uint8 { return c.A })
	write(0x91, "STA", IndirectIndexed, func(c *CPU) uint8 { return c.A })
	write(0x86, "STX", ZeroPage, func(c *CPU) uint8 { return c.X })
	write(0x96, "STX", ZeroPageY, func(c *CPU) uint8 { return c.X })
	write(0x8E, "STX", Absolute, func(c *CPU) uint8 { return c.X })
	write(0x84, "STY", ZeroPage, func(c *CPU) uint8 { return c.Y })
	write(0x94, "STY", ZeroPageX, func(c *CPU) uint8 { return c.Y })
	write(0x8C, "STY", Absolute, func(c *CPU) uint8 { return c.Y })

	// register transfers
	implied(0xAA, "TAX", func(c *CPU) { c.X = c.A; c.setZN(c.X) })
	implied(0xA8, "TAY", func(c *CPU) { c.Y = c.A; c.setZN(c.Y) })
	implied(0xBA, "TSX", func(c *CPU) { c.X = c.SP; c.setZN(c.X) })
	implied(0x8A, "TXA", func(c *CPU) { c.A = c.X; c.setZN(c.A) })
	implied(0x9A, "TXS", func(c *CPU) { c.SP = c.X })
	implied(0x98, "TYA", func(c *CPU) { c.A = c.Y; c.setZN(c.A) })

	addIllegalOpcodes(&t)
	return t
}

var opcodeTable = buildOpcodeTable()

func jmpAbsolute(c *CPU) {
	var lo uint8
	c.push(func() { lo = c.read(c.PC); c.PC++ })
	c.push(func() { hi := c.read(c.PC); c.PC = uint16(lo) | uint16(hi)<<8 })
}

// jmpIndirect reproduces the classic 6502 page-boundary bug: if the
// pointer's low byte is $FF, the high byte of the target is fetched
// from the start of the same page rather than the next page.
func jmpIndirect(c *CPU) {
	var ptrLo, ptrHi, lo uint8
	c.push(func() { ptrLo = c.read(c.PC); c.PC++ })
	c.push(func() { ptrHi = c.read(c.PC); c.PC++ })
	c.push(func() { lo = c.read(uint16(ptrLo) | uint16(ptrHi)<<8) })
	c.push(func() {
		hiAddr := uint16(ptrHi)<<8 | uint16(uint8(ptrLo+1))
		hi := c.read(hiAddr)
		c.PC = uint16(lo) | uint16(hi)<<8
	})
}

func jsr(c *CPU) {
	var lo uint8
	c.push(func() { lo = c.read(c.PC); c.PC++ })
	c.push(func() { c.read(stackBase + uint16(c.SP)) })
	c.push(func() { c.write(stackBase+uint16(c.SP), uint8(c.PC>>8)); c.SP-- })
	c.push(func() { c.write(stackBase+uint16(c.SP), uint8(c.PC)); c.SP-- })
	c.push(func() {
		hi := c.read(c.PC)
		c.PC = uint16(lo) | uint16(hi)<<8
	})
}

func rts(c *CPU) {
	var lo uint8
	c.push(func() { c.read(c.PC) })
	c.push(func() { c.read(stackBase + uint16(c.SP)) })
	c.push(func() { c.SP++; lo = c.read(stackBase + uint16(c.SP)) })
	c.push(func() {
		c.SP++
		hi := c.read(stackBase + uint16(c.SP))
		c.PC = uint16(lo) | uint16(hi)<<8
	})
	c.push(func() { c.read(c.PC); c.PC++ })
}

func rti(c *CPU) {
	var lo uint8
	c.push(func() { c.read(c.PC) })
	c.push(func() { c.read(stackBase + uint16(c.SP)) })
	c.push(func() { c.SP++; c.setFlags(c.read(stackBase + uint16(c.SP))) })
	c.push(func() { c.SP++; lo = c.read(stackBase + uint16(c.SP)) })
	c.push(func() {
		c.SP++
		hi := c.read(stackBase + uint16(c.SP))
		c.PC = uint16(lo) | uint16(hi)<<8
	})
}

// brk pushes the padding-operand read (the byte after the BRK opcode,
// skipped rather than executed) then the shared hardware-interrupt
// sequence with the B flag set in the pushed status.
func brk(c *CPU) {
	c.push(func() { c.read(c.PC); c.PC++ })
	c.queueInterrupt(irqVector, true)
}

func pha(c *CPU) {
	c.push(func() { c.read(c.PC) })
	c.push(func() { c.write(stackBase+uint16(c.SP), c.A); c.SP-- })
}

func php(c *CPU) {
	c.push(func() { c.read(c.PC) })
	c.push(func() { c.write(stackBase+uint16(c.SP), c.pullFlags()|bFlagMask); c.SP-- })
}

func pla(c *CPU) {
	c.push(func() { c.read(c.PC) })
	c.push(func() { c.read(stackBase + uint16(c.SP)) })
	c.push(func() { c.SP++; c.A = c.read(stackBase + uint16(c.SP)); c.setZN(c.A) })
}

func plp(c *CPU) {
	c.push(func() { c.read(c.PC) })
	c.push(func() { c.read(stackBase + uint16(c.SP)) })
	c.push(func() { c.SP++; c.setFlags(c.read(stackBase + uint16(c.SP))) })
}
