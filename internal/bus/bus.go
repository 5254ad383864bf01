// Package bus implements the NES system bus: CPU RAM, the register
// fan-out to the PPU/APU/cartridge, OAM DMA, and the per-cycle tick
// interleaving that drives the PPU and APU off of every CPU memory
// access, per spec.md §4.1.
package bus

import (
	"gones/internal/apu"
	"gones/internal/cartridge"
	"gones/internal/cpu"
	"gones/internal/input"
	"gones/internal/ppu"
)

// Bus wires the CPU to RAM, the PPU register file, the APU, the
// cartridge, and the controller ports. It satisfies cpu.Bus: every
// Read/Write is one CPU cycle, and drives the PPU three dots and the
// APU/mapper one step each, split 2+1 on reads and 3+0 on writes
// (spec.md §4.1).
type Bus struct {
	CPU   *cpu.CPU
	PPU   *ppu.PPU
	APU   *apu.APU
	Cart  *cartridge.Cartridge
	Input *input.Ports

	ram           [2048]byte
	openBus       uint8
	openBusStamp  uint64 // CPU cycle count at the last full-byte drive

	cycleIsWrite bool
}

// Open-bus decay thresholds, in CPU cycles (~1.79 MHz NTSC), grounded on
// the PPU's own "58 frames" (~58/60 s) decay constant: the top 2 bits
// fade first, the remaining 6 follow shortly after, approximating the
// two-stage decay spec.md's Data Model describes for the shared CPU bus
// latch (spec.md "Open bus").
const (
	openBusDecayHigh2 = 58 * 29781 // ~0.965s: top 2 bits clear
	openBusDecayAll   = 62 * 29781 // ~1.03s: remaining 6 bits clear
)

// New creates a Bus with no cartridge attached. AttachCartridge must be
// called before Reset/Clock.
func New() *Bus {
	b := &Bus{
		PPU:   ppu.New(),
		APU:   apu.New(),
		Input: input.NewPorts(),
	}
	b.CPU = cpu.New(b)
	b.PPU.SetNMICallback(func() { b.CPU.RequestNMI() })
	b.APU.SetDMCFetcher(b.dmcFetch)
	return b
}

// AttachCartridge loads a cartridge onto the bus, wiring it to the PPU
// for CHR/nametable access and mapper hooks.
func (b *Bus) AttachCartridge(c *cartridge.Cartridge) {
	b.Cart = c
	b.PPU.SetCartridge(c)
}

// Reset performs a hard reset: RAM is cleared, the PPU and APU return
// to power-on state, and the CPU reloads S, flags, and PC from the
// reset vector (spec.md §3).
func (b *Bus) Reset() {
	for i := range b.ram {
		b.ram[i] = 0
	}
	b.openBus = 0
	b.openBusStamp = 0
	b.PPU.Reset()
	b.APU.Reset()
	b.Input.Reset()
	b.CPU.Reset()
}

// SoftReset preserves RAM and re-reads the reset vector, decrementing
// the CPU's stack pointer by 3 rather than reinitializing it (spec.md
// §3).
func (b *Bus) SoftReset() {
	b.CPU.SoftReset()
}

// Clock advances the whole system by exactly one CPU cycle.
func (b *Bus) Clock() {
	b.CPU.Clock()
}

func (b *Bus) tickPPU(dots int) {
	for i := 0; i < dots; i++ {
		b.PPU.Tick()
	}
}

func (b *Bus) stepAPU() {
	if stall := b.APU.Step(); stall > 0 {
		b.CPU.Stall(stall)
	}
	b.updateIRQLine()
}

func (b *Bus) updateIRQLine() {
	b.CPU.SetIRQLine(b.APU.IRQAsserted() || b.Cart.IRQAsserted())
}

// setOpenBus drives a full byte onto the latch, stamping the cycle it
// happened on so later reads can compute decay.
func (b *Bus) setOpenBus(v uint8) {
	b.openBus = v
	b.openBusStamp = b.CPU.Cycles()
}

// readOpenBus returns the latch's current value, decayed toward zero in
// two stages if nothing has driven it for about a second (spec.md's
// Data Model "Open bus").
func (b *Bus) readOpenBus() uint8 {
	age := b.CPU.Cycles() - b.openBusStamp
	switch {
	case age >= openBusDecayAll:
		return 0
	case age >= openBusDecayHigh2:
		return b.openBus & 0x3F
	default:
		return b.openBus
	}
}

// Read services one CPU read cycle: pre-tick 2 PPU dots and one APU
// step, perform the memory access, then post-tick 1 PPU dot and one
// mapper step (spec.md §4.1's 2+1 split).
func (b *Bus) Read(addr uint16) uint8 {
	b.tickPPU(2)
	b.cycleIsWrite = false
	b.stepAPU()
	v := b.readMem(addr)
	b.setOpenBus(v)
	b.tickPPU(1)
	b.Cart.CPUStep()
	b.updateIRQLine()
	return v
}

// Write services one CPU write cycle: pre-tick 3 PPU dots and one APU
// step, perform the memory access, then one mapper step with no
// further PPU dots (spec.md §4.1's 3+0 split).
func (b *Bus) Write(addr uint16, value uint8) {
	b.tickPPU(3)
	b.cycleIsWrite = true
	b.stepAPU()
	b.writeMem(addr, value)
	b.setOpenBus(value)
	b.Cart.CPUStep()
	b.updateIRQLine()
}

func (b *Bus) readMem(addr uint16) uint8 {
	switch {
	case addr < 0x2000:
		return b.ram[addr&0x07FF]
	case addr < 0x4000:
		return b.PPU.ReadRegister(addr, b.readOpenBus())
	case addr == 0x4015:
		return b.APU.ReadStatus()
	case addr == 0x4016, addr == 0x4017:
		return b.Input.Read(addr)
	case addr < 0x4020:
		return b.readOpenBus() // write-only APU regs, $4014, and unmapped $4018-$401F
	default:
		if v, ok := b.Cart.PRGRead(addr); ok {
			return v
		}
		return b.readOpenBus()
	}
}

func (b *Bus) writeMem(addr uint16, value uint8) {
	switch {
	case addr < 0x2000:
		b.ram[addr&0x07FF] = value
	case addr < 0x4000:
		b.PPU.WriteRegister(addr, value)
	case addr == 0x4014:
		b.startOAMDMA(value)
	case addr == 0x4016:
		b.Input.Write(addr, value)
	case addr == 0x4017:
		b.APU.WriteRegister(addr, value)
	case addr < 0x4018:
		b.APU.WriteRegister(addr, value)
	case addr < 0x4020:
		// Unmapped APU/IO test-mode registers.
	default:
		b.Cart.PRGWrite(addr, value)
	}
}

// startOAMDMA runs $4014's transfer eagerly: 1 (or 2, if the triggering
// write landed on an odd CPU cycle) alignment cycles followed by 256
// read/write pairs copying a CPU page into OAM, each cycle driving the
// PPU/APU/mapper exactly as Read/Write would. The CPU is then told to
// stall for the cycles already spent here (spec.md §4.5, §8 scenario
// 2).
func (b *Bus) startOAMDMA(page uint8) {
	idle := 1
	if b.CPU.Cycles()%2 == 1 {
		idle = 2
	}
	for i := 0; i < idle; i++ {
		b.idleTick()
	}

	base := uint16(page) << 8
	start := b.PPU.OAMAddr()
	for i := 0; i < 256; i++ {
		v := b.Read(base + uint16(i))
		b.dmaOAMWriteTick(start+uint8(i), v)
	}

	b.CPU.Stall(idle + 512)
}

func (b *Bus) idleTick() {
	b.tickPPU(2)
	b.cycleIsWrite = false
	b.stepAPU()
	b.tickPPU(1)
	b.Cart.CPUStep()
	b.updateIRQLine()
}

func (b *Bus) dmaOAMWriteTick(index uint8, value uint8) {
	b.tickPPU(3)
	b.cycleIsWrite = true
	b.stepAPU()
	b.PPU.WriteOAM(index, value)
	b.setOpenBus(value)
	b.Cart.CPUStep()
	b.updateIRQLine()
}

// dmcFetch services the DMC channel's DMA reads from cartridge PRG
// space. The full stall table (spec.md §4.4) depends on whether the
// CPU was reading or writing and, during OAM DMA, which sub-cycle the
// fetch landed on; this implementation reproduces the read/write split
// and falls back to the documented +3/+2 defaults rather than the full
// OAM-DMA-interleaved table (see DESIGN.md).
func (b *Bus) dmcFetch(addr uint16) (uint8, int) {
	v, _ := b.Cart.PRGRead(addr)
	if b.cycleIsWrite {
		return v, 2
	}
	return v, 3
}
