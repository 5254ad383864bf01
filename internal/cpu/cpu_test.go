package cpu

import "testing"

// testBus is a flat 64 KiB RAM used to exercise the CPU in isolation,
// without the PPU/APU tick fan-out bus.go adds.
type testBus struct {
	mem [65536]byte
}

func (b *testBus) Read(addr uint16) uint8     { return b.mem[addr] }
func (b *testBus) Write(addr uint16, v uint8) { b.mem[addr] = v }

func newTestCPU(program []byte, origin uint16) (*CPU, *testBus) {
	bus := &testBus{}
	copy(bus.mem[origin:], program)
	bus.mem[0xFFFC] = byte(origin)
	bus.mem[0xFFFD] = byte(origin >> 8)
	c := New(bus)
	c.Reset()
	return c, bus
}

// runInstructions clocks the CPU through exactly n complete
// instructions (fetch plus every queued cycle).
func runInstructions(c *CPU, n int) {
	for i := 0; i < n; i++ {
		c.Clock()
		for len(c.queue) > 0 {
			c.Clock()
		}
	}
}

func TestResetLoadsVectorAndStackPointer(t *testing.T) {
	c, _ := newTestCPU([]byte{0xEA}, 0x8000)
	if c.PC != 0x8000 {
		t.Fatalf("PC = %#04x, want 0x8000", c.PC)
	}
	if c.SP != 0xFD {
		t.Fatalf("SP = %#02x, want 0xFD", c.SP)
	}
	if !c.I {
		t.Fatal("I flag should be set after reset")
	}
	if c.Cycles() != 7 {
		t.Fatalf("Cycles() = %d, want 7", c.Cycles())
	}
}

func TestLDAImmediateSetsZeroAndNegative(t *testing.T) {
	c, _ := newTestCPU([]byte{0xA9, 0x00, 0xA9, 0x80, 0xA9, 0x42}, 0x8000)

	runInstructions(c, 1)
	if c.A != 0 || !c.Z || c.N {
		t.Fatalf("LDA #$00: A=%#02x Z=%v N=%v", c.A, c.Z, c.N)
	}

	runInstructions(c, 1)
	if c.A != 0x80 || c.Z || !c.N {
		t.Fatalf("LDA #$80: A=%#02x Z=%v N=%v", c.A, c.Z, c.N)
	}

	runInstructions(c, 1)
	if c.A != 0x42 || c.Z || c.N {
		t.Fatalf("LDA #$42: A=%#02x Z=%v N=%v", c.A, c.Z, c.N)
	}
}

func TestSTAZeroPageWritesMemory(t *testing.T) {
	c, bus := newTestCPU([]byte{0xA9, 0x42, 0x85, 0x10}, 0x8000)
	runInstructions(c, 2)
	if bus.mem[0x10] != 0x42 {
		t.Fatalf("mem[0x10] = %#02x, want 0x42", bus.mem[0x10])
	}
}

func TestADCSetsCarryAndOverflow(t *testing.T) {
	// 0x50 + 0x50 overflows into negative: V set, C clear.
	c, _ := newTestCPU([]byte{0xA9, 0x50, 0x69, 0x50}, 0x8000)
	runInstructions(c, 2)
	if c.A != 0xA0 {
		t.Fatalf("A = %#02x, want 0xA0", c.A)
	}
	if !c.V {
		t.Fatal("V should be set on signed overflow")
	}
	if c.C {
		t.Fatal("C should be clear")
	}
}

func TestBranchTakenAddsCycleNotTakenDoesNot(t *testing.T) {
	// BEQ with Z already clear should not branch (2 cycles); with Z set
	// it should (3, or 4 across a page boundary - here same page).
	c, _ := newTestCPU([]byte{0xF0, 0x02, 0xEA, 0xEA}, 0x8000)
	startCycle := c.Cycles()
	runInstructions(c, 1)
	if c.Cycles()-startCycle != 2 {
		t.Fatalf("not-taken BEQ cost %d cycles, want 2", c.Cycles()-startCycle)
	}

	c2, _ := newTestCPU([]byte{0xA9, 0x00, 0xF0, 0x02}, 0x8000)
	runInstructions(c2, 1) // LDA #$00 sets Z
	startCycle = c2.Cycles()
	runInstructions(c2, 1)
	if c2.Cycles()-startCycle != 3 {
		t.Fatalf("taken same-page BEQ cost %d cycles, want 3", c2.Cycles()-startCycle)
	}
}

func TestStackPushPullRoundTrips(t *testing.T) {
	c, _ := newTestCPU([]byte{0xA9, 0x37, 0x48, 0xA9, 0x00, 0x68}, 0x8000)
	runInstructions(c, 3) // LDA #$37; PHA; LDA #$00
	if c.A != 0 {
		t.Fatalf("A = %#02x before PLA, want 0", c.A)
	}
	runInstructions(c, 1) // PLA
	if c.A != 0x37 {
		t.Fatalf("A = %#02x after PLA, want 0x37", c.A)
	}
}

func TestBRKPushesBFlag(t *testing.T) {
	c, bus := newTestCPU([]byte{0x00}, 0x8000)
	bus.mem[0xFFFE] = 0x00
	bus.mem[0xFFFF] = 0x90
	runInstructions(c, 1)
	pushed := bus.mem[0x0100+int(c.SP)+1]
	if pushed&bFlagMask == 0 {
		t.Fatalf("BRK should push B=1, got flags %#02x", pushed)
	}
	if pushed&unusedMask == 0 {
		t.Fatalf("pushed flags should always carry U=1, got %#02x", pushed)
	}
}

func TestNMIServicedBeforeNextOpcodeAndPushesClearB(t *testing.T) {
	c, bus := newTestCPU([]byte{0xEA, 0xEA, 0xEA}, 0x8000)
	bus.mem[0xFFFA] = 0x00
	bus.mem[0xFFFB] = 0x90
	// NMI requested while the first NOP is still in flight is polled on
	// that NOP's own next-to-last cycle (its only cycle besides the
	// opcode fetch), so the NOP still completes in full before the
	// dispatch is acted on (spec.md §4.5's deferred one-cycle polling).
	c.RequestNMI()
	runInstructions(c, 1)
	if c.PC != 0x8001 {
		t.Fatalf("PC = %#04x after the in-flight NOP, want 0x8001 (NOP must still complete)", c.PC)
	}
	runInstructions(c, 1) // the deferred interrupt now fires instead of fetching the next NOP
	if c.PC != 0x9000 {
		t.Fatalf("PC = %#04x after NMI, want 0x9000", c.PC)
	}
	pushed := bus.mem[0x0100+int(c.SP)+1]
	if pushed&bFlagMask != 0 {
		t.Fatalf("NMI should push B=0, got flags %#02x", pushed)
	}
}

// TestNMIDuringTakenBranchFinalCycleDefersToTheNextInstruction exercises
// the specific edge case spec.md §4.5 calls out: a taken, same-page
// branch's final cycle does not poll, so an NMI asserted only once that
// cycle has started isn't seen until the branch target's own
// instruction completes.
func TestNMIDuringTakenBranchFinalCycleDefersToTheNextInstruction(t *testing.T) {
	// LDA #$00 sets Z; BEQ +0 is taken, same page, landing right back on
	// the NOP that follows the branch.
	c, bus := newTestCPU([]byte{0xA9, 0x00, 0xF0, 0x00, 0xEA, 0xEA}, 0x8000)
	bus.mem[0xFFFA] = 0x00
	bus.mem[0xFFFB] = 0x90
	runInstructions(c, 1) // LDA #$00

	// BEQ's poll point is its second cycle (offset fetch + branch
	// taken), not its third (PC-fixup); request NMI only once that
	// third cycle is already running by clocking the branch by hand.
	c.Clock() // cycle 1: opcode fetch, arms the not-taken-case poll tentatively
	c.Clock() // cycle 2: offset fetch, branch taken -> re-arms the poll for cycle 3
	c.RequestNMI()
	c.Clock() // cycle 3: PC fixup -- must NOT see this NMI per the suppression rule
	if c.PC != 0x8004 {
		t.Fatalf("PC = %#04x after taken branch, want 0x8004", c.PC)
	}
	if c.nmiPending {
		t.Fatal("NMI requested during a taken branch's final cycle must not be pending yet")
	}

	runInstructions(c, 1) // the NOP at the branch target: its own poll now sees the NMI
	runInstructions(c, 1) // deferred dispatch fires here instead of the second NOP
	if c.PC != 0x9000 {
		t.Fatalf("PC = %#04x, want NMI dispatched to 0x9000", c.PC)
	}
	_ = bus
}

func TestStallConsumesClocksWithoutProgress(t *testing.T) {
	c, _ := newTestCPU([]byte{0xEA}, 0x8000)
	c.Stall(5)
	pc := c.PC
	for i := 0; i < 5; i++ {
		c.Clock()
	}
	if c.PC != pc {
		t.Fatalf("PC advanced during stall: %#04x -> %#04x", pc, c.PC)
	}
	if len(c.queue) != 0 {
		t.Fatal("instruction queue should stay empty during stall")
	}
}
