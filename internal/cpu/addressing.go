package cpu

// decode turns one opcode table entry into a sequence of per-cycle
// closures pushed onto the queue. Branch, jump and stack-protocol
// instructions (JMP/JSR/RTS/RTI/BRK/PHx/PLx) have bespoke cycle shapes
// and are dispatched straight to their own builders; everything else is
// generated from its addressing mode plus its read/write/RMW/implied
// classification, since those share a handful of addressing shapes.
func (c *CPU) decode(in instruction) {
	switch in.kind {
	case kindBranch:
		c.decodeBranch(in)
	case kindStack:
		in.special(c)
	case kindRead:
		c.resolveRead(in.mode, in.read)
	case kindWrite:
		c.resolveWrite(in.mode, in.write)
	case kindRMW:
		c.resolveRMW(in.mode, in.rmw)
	case kindImplied:
		c.push(func() { c.read(c.PC); in.implied(c) })
	}
}

func (c *CPU) indexFor(mode AddressingMode) uint8 {
	switch mode {
	case ZeroPageX, AbsoluteX:
		return c.X
	case ZeroPageY, AbsoluteY:
		return c.Y
	}
	return 0
}

// resolveRead generates the addressing-mode cycle sequence for an
// instruction that only reads its operand (LDA, CMP, ADC, illegal LAX,
// ...), including the one-cycle page-crossing penalty indexed modes
// incur only when the effective address actually crosses a page.
func (c *CPU) resolveRead(mode AddressingMode, f func(*CPU, uint8)) {
	switch mode {
	case Immediate:
		c.push(func() { v := c.read(c.PC); c.PC++; f(c, v) })
	case ZeroPage:
		var addr uint16
		c.push(func() { addr = uint16(c.read(c.PC)); c.PC++ })
		c.push(func() { f(c, c.read(addr)) })
	case ZeroPageX, ZeroPageY:
		var base uint8
		idx := c.indexFor(mode)
		c.push(func() { base = c.read(c.PC); c.PC++ })
		c.push(func() { c.read(uint16(base)) })
		c.push(func() { f(c, c.read(uint16(base+idx))) })
	case Absolute:
		var lo, hi uint8
		c.push(func() { lo = c.read(c.PC); c.PC++ })
		c.push(func() { hi = c.read(c.PC); c.PC++ })
		c.push(func() { f(c, c.read(uint16(lo)|uint16(hi)<<8)) })
	case AbsoluteX, AbsoluteY:
		var lo, hi uint8
		idx := c.indexFor(mode)
		c.push(func() { lo = c.read(c.PC); c.PC++ })
		c.push(func() { hi = c.read(c.PC); c.PC++ })
		c.push(func() {
			base := uint16(lo) | uint16(hi)<<8
			addr := base + uint16(idx)
			if base&0xFF00 != addr&0xFF00 {
				wrong := (base & 0xFF00) | (addr & 0x00FF)
				c.read(wrong)
				c.push(func() { f(c, c.read(addr)) })
			} else {
				f(c, c.read(addr))
			}
		})
	case IndexedIndirect:
		var zp, lo, hi uint8
		c.push(func() { zp = c.read(c.PC); c.PC++ })
		c.push(func() { c.read(uint16(zp)) })
		c.push(func() { lo = c.read(uint16(zp + c.X)) })
		c.push(func() { hi = c.read(uint16(zp + c.X + 1)) })
		c.push(func() { f(c, c.read(uint16(lo)|uint16(hi)<<8)) })
	case IndirectIndexed:
		var zp, lo, hi uint8
		c.push(func() { zp = c.read(c.PC); c.PC++ })
		c.push(func() { lo = c.read(uint16(zp)) })
		c.push(func() { hi = c.read(uint16(zp + 1)) })
		c.push(func() {
			base := uint16(lo) | uint16(hi)<<8
			addr := base + uint16(c.Y)
			if base&0xFF00 != addr&0xFF00 {
				wrong := (base & 0xFF00) | (addr & 0x00FF)
				c.read(wrong)
				c.push(func() { f(c, c.read(addr)) })
			} else {
				f(c, c.read(addr))
			}
		})
	}
}

// resolveWrite generates the cycle sequence for a pure-write instruction
// (STA/STX/STY and the illegal SAX). Indexed writes always take
// the worst-case extra cycle: real hardware always performs the dummy
// read at the unfixed-up address regardless of whether the page
// actually changed, since by the time it would know, it has already
// issued the access.
func (c *CPU) resolveWrite(mode AddressingMode, f func(*CPU) uint8) {
	switch mode {
	case ZeroPage:
		var addr uint16
		c.push(func() { addr = uint16(c.read(c.PC)); c.PC++ })
		c.push(func() { c.write(addr, f(c)) })
	case ZeroPageX, ZeroPageY:
		var base uint8
		idx := c.indexFor(mode)
		c.push(func() { base = c.read(c.PC); c.PC++ })
		c.push(func() { c.read(uint16(base)) })
		c.push(func() { c.write(uint16(base+idx), f(c)) })
	case Absolute:
		var lo, hi uint8
		c.push(func() { lo = c.read(c.PC); c.PC++ })
		c.push(func() { hi = c.read(c.PC); c.PC++ })
		c.push(func() { c.write(uint16(lo)|uint16(hi)<<8, f(c)) })
	case AbsoluteX, AbsoluteY:
		var lo, hi uint8
		idx := c.indexFor(mode)
		var addr uint16
		c.push(func() { lo = c.read(c.PC); c.PC++ })
		c.push(func() { hi = c.read(c.PC); c.PC++ })
		c.push(func() {
			base := uint16(lo) | uint16(hi)<<8
			addr = base + uint16(idx)
			wrong := (base & 0xFF00) | (addr & 0x00FF)
			c.read(wrong)
		})
		c.push(func() { c.write(addr, f(c)) })
	case IndexedIndirect:
		var zp, lo, hi uint8
		c.push(func() { zp = c.read(c.PC); c.PC++ })
		c.push(func() { c.read(uint16(zp)) })
		c.push(func() { lo = c.read(uint16(zp + c.X)) })
		c.push(func() { hi = c.read(uint16(zp + c.X + 1)) })
		c.push(func() { c.write(uint16(lo)|uint16(hi)<<8, f(c)) })
	case IndirectIndexed:
		var zp, lo, hi uint8
		var addr uint16
		c.push(func() { zp = c.read(c.PC); c.PC++ })
		c.push(func() { lo = c.read(uint16(zp)) })
		c.push(func() { hi = c.read(uint16(zp + 1)) })
		c.push(func() {
			base := uint16(lo) | uint16(hi)<<8
			addr = base + uint16(c.Y)
			wrong := (base & 0xFF00) | (addr & 0x00FF)
			c.read(wrong)
		})
		c.push(func() { c.write(addr, f(c)) })
	}
}

// resolveRMW generates the cycle sequence for a read-modify-write
// instruction (ASL/LSR/ROL/ROR/INC/DEC and the illegal SLO/RLA/SRE/RRA/
// DCP/ISC family): resolve the address, read the operand, write it back
// unmodified (real 6502 silicon always does this dummy write), then
// write the modified value. Accumulator-mode RMW (ASL A, ...) skips
// addressing entirely and operates on the register in one cycle.
func (c *CPU) resolveRMW(mode AddressingMode, f func(*CPU, uint8) uint8) {
	if mode == Accumulator {
		c.push(func() { c.read(c.PC); c.A = f(c, c.A) })
		return
	}

	switch mode {
	case ZeroPage:
		var addr uint16
		var v uint8
		c.push(func() { addr = uint16(c.read(c.PC)); c.PC++ })
		c.push(func() { v = c.read(addr) })
		c.push(func() { c.write(addr, v) })
		c.push(func() { c.write(addr, f(c, v)) })
	case ZeroPageX:
		var base, v uint8
		var addr uint16
		c.push(func() { base = c.read(c.PC); c.PC++ })
		c.push(func() { c.read(uint16(base)) })
		c.push(func() { addr = uint16(base + c.X); v = c.read(addr) })
		c.push(func() { c.write(addr, v) })
		c.push(func() { c.write(addr, f(c, v)) })
	case Absolute:
		var lo, hi, v uint8
		var addr uint16
		c.push(func() { lo = c.read(c.PC); c.PC++ })
		c.push(func() { hi = c.read(c.PC); c.PC++ })
		c.push(func() { addr = uint16(lo) | uint16(hi)<<8; v = c.read(addr) })
		c.push(func() { c.write(addr, v) })
		c.push(func() { c.write(addr, f(c, v)) })
	case AbsoluteX, AbsoluteY:
		var lo, hi, v uint8
		idx := c.indexFor(mode)
		var addr uint16
		c.push(func() { lo = c.read(c.PC); c.PC++ })
		c.push(func() { hi = c.read(c.PC); c.PC++ })
		c.push(func() {
			base := uint16(lo) | uint16(hi)<<8
			addr = base + uint16(idx)
			wrong := (base & 0xFF00) | (addr & 0x00FF)
			c.read(wrong)
		})
		c.push(func() { v = c.read(addr) })
		c.push(func() { c.write(addr, v) })
		c.push(func() { c.write(addr, f(c, v)) })
	case IndexedIndirect:
		var zp, lo, hi, v uint8
		var addr uint16
		c.push(func() { zp = c.read(c.PC); c.PC++ })
		c.push(func() { c.read(uint16(zp)) })
		c.push(func() { lo = c.read(uint16(zp + c.X)) })
		c.push(func() { hi = c.read(uint16(zp + c.X + 1)) })
		c.push(func() { addr = uint16(lo) | uint16(hi)<<8; v = c.read(addr) })
		c.push(func() { c.write(addr, v) })
		c.push(func() { c.write(addr, f(c, v)) })
	case IndirectIndexed:
		var zp, lo, hi, v uint8
		var addr uint16
		c.push(func() { zp = c.read(c.PC); c.PC++ })
		c.push(func() { lo = c.read(uint16(zp)) })
		c.push(func() { hi = c.read(uint16(zp + 1)) })
		c.push(func() {
			base := uint16(lo) | uint16(hi)<<8
			addr = base + uint16(c.Y)
			wrong := (base & 0xFF00) | (addr & 0x00FF)
			c.read(wrong)
		})
		c.push(func() { v = c.read(addr) })
		c.push(func() { c.write(addr, v) })
		c.push(func() { c.write(addr, f(c, v)) })
	}
}

// decodeBranch handles the six Bxx mnemonics: 2 cycles if not taken, 3
// if taken within the same page, 4 if the branch target crosses a page.
func (c *CPU) decodeBranch(in instruction) {
	c.push(func() {
		offset := c.read(c.PC)
		c.PC++
		if !in.branch(c) {
			return
		}
		c.push(func() {
			old := c.PC
			target := uint16(int32(old) + int32(int8(offset)))
			c.read(old)
			if old&0xFF00 != target&0xFF00 {
				c.push(func() {
					c.read((old & 0xFF00) | (target & 0x00FF))
					c.PC = target
				})
			} else {
				c.PC = target
			}
		})
	})
}
