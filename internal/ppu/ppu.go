// Package ppu implements the NES Picture Processing Unit (2C02): the
// 341-dot/262-scanline rendering pipeline, its CPU-visible register
// file, and the sprite/background fetch machinery, per spec.md §4.3.
package ppu

import "gones/internal/cartridge"

const (
	dotsPerScanline   = 341
	scanlinesPerFrame = 262
	visibleScanlines  = 240
	postRenderLine    = 240
	vblankStartLine   = 241
	preRenderLine     = 261
)

// Cartridge is everything the PPU needs from the loaded cartridge: CHR
// and nametable address space, the mapper's A12 edge signal and its two
// write/scanline hooks (MMC5), per spec.md §4.2.
type Cartridge interface {
	CHRRead(addr uint16, kind cartridge.FetchKind) uint8
	CHRWrite(addr uint16, value uint8)
	NametableRead(addr uint16) uint8
	NametableWrite(addr uint16, value uint8)
	PPUA12Toggle()
	PPUWriteHook(addr uint16, value uint8)
	PPUScanlineHook(scanline int)
}

// PPU is a cycle-stepped NES 2C02. Tick must be called once per PPU dot;
// the bus is responsible for calling it the correct number of times per
// CPU cycle (spec.md §4.1's 2+1/3+0 split).
type PPU struct {
	cart Cartridge

	// $2000-$2007 CPU-visible state.
	ctrl   uint8
	mask   uint8
	status uint8

	oamAddr uint8
	oam     [256]byte

	// Loopy scroll/address registers (spec.md §3, §4.3).
	v, t uint16
	x    uint8
	w    bool

	readBuffer uint8

	paletteRAM [32]byte

	scanline int // 0-261; 261 is pre-render
	dot      int
	oddFrame bool

	frameBuffer [256 * 240]uint32

	// Background fetch pipeline.
	ntLatch, atLatch, loLatch, hiLatch uint8
	bgShiftLo, bgShiftHi               uint16
	atShiftLo, atShiftHi               uint16

	// Sprite pipeline.
	secondaryOAM    [32]byte
	spriteCount     int
	spritePatternLo [8]uint8
	spritePatternHi [8]uint8
	spriteAttr      [8]uint8
	spriteX         [8]uint8
	spriteIsZero    [8]bool
	sprite0OnLine   bool
	spriteOverflow  bool
	sprite0Hit      bool

	lastA12 bool

	nmiOutput   bool
	nmiOccurred bool
	nmiPrevious bool

	frameCallback func(frame *[256 * 240]uint32)
	nmiCallback   func()

	frameCount uint64
}

// New creates a PPU with no cartridge attached; SetCartridge must be
// called before Tick.
func New() *PPU {
	p := &PPU{}
	p.Reset()
	return p
}

// SetCartridge attaches (or replaces) the loaded cartridge.
func (p *PPU) SetCartridge(c Cartridge) { p.cart = c }

// SetNMICallback installs the function invoked on the NMI output's
// rising edge (spec.md §4.3's PPUCTRL NMI-enable race included).
func (p *PPU) SetNMICallback(cb func()) { p.nmiCallback = cb }

// SetFrameCallback installs the function invoked once a frame is
// complete, at scanline 240 dot 0 (spec.md §4.3 "Frame emission").
func (p *PPU) SetFrameCallback(cb func(frame *[256 * 240]uint32)) { p.frameCallback = cb }

// FrameCount returns the number of frames completed since Reset, used
// by Core.StepFrame to detect when one frame has elapsed.
func (p *PPU) FrameCount() uint64 { return p.frameCount }

// Reset restores power-on PPU state. Soft and hard reset are identical
// for the PPU itself (spec.md §3's reset distinctions are CPU/RAM
// concerns).
func (p *PPU) Reset() {
	p.ctrl, p.mask, p.status = 0, 0, 0
	p.oamAddr = 0
	p.v, p.t, p.x, p.w = 0, 0, 0, false
	p.readBuffer = 0
	p.scanline, p.dot = 0, 0
	p.oddFrame = false
	p.nmiOutput, p.nmiOccurred, p.nmiPrevious = false, false, false
	p.sprite0Hit, p.spriteOverflow = false, false
	p.lastA12 = false
	p.frameCount = 0
	for i := range p.oam {
		p.oam[i] = 0
	}
	for i := range p.frameBuffer {
		p.frameBuffer[i] = 0xFF000000
	}
}

// FrameBuffer returns the most recently completed frame's ARGB pixels.
// The returned pointer aliases PPU-owned storage and is only valid
// until the next Tick; callers that need to retain it must copy.
func (p *PPU) FrameBuffer() *[256 * 240]uint32 { return &p.frameBuffer }

func (p *PPU) renderingEnabled() bool { return p.mask&0x18 != 0 }
func (p *PPU) showBackground() bool   { return p.mask&0x08 != 0 }
func (p *PPU) showSprites() bool      { return p.mask&0x10 != 0 }

// Tick advances the PPU by exactly one dot.
func (p *PPU) Tick() {
	switch {
	case p.scanline == preRenderLine:
		p.preRenderScanline()
	case p.scanline < visibleScanlines:
		p.visibleScanline()
	case p.scanline == postRenderLine:
		// Idle; frame callback already fired when we arrived here.
	default:
		// VBlank scanlines 241-260.
		if p.scanline == vblankStartLine && p.dot == 1 {
			p.status |= 0x80
			p.setNMIOccurred(true)
		}
	}

	p.advanceDot()
}

// advanceDot moves the dot/scanline counters, handling the odd-frame
// short pre-render line and the frame-complete callback at scanline
// 240 dot 0 (spec.md §4.3).
func (p *PPU) advanceDot() {
	p.dot++
	if p.scanline == preRenderLine && p.dot == 340 && p.oddFrame && p.renderingEnabled() {
		p.dot++ // skip the idle dot on odd frames while rendering
	}
	if p.dot > 340 {
		p.dot = 0
		p.scanline++
		if p.scanline > preRenderLine {
			p.scanline = 0
			p.oddFrame = !p.oddFrame
		}
		if p.scanline == postRenderLine && p.dot == 0 {
			p.frameCount++
			if p.frameCallback != nil {
				p.frameCallback(&p.frameBuffer)
			}
		}
		if p.scanline == 0 {
			p.cart.PPUScanlineHook(0)
		} else if p.scanline < visibleScanlines {
			p.cart.PPUScanlineHook(p.scanline)
		}
	}
}

// setNMIOccurred updates the VBlank-flag half of the NMI output latch
// and fires the callback on nmiOutput&&nmiOccurred's rising edge, per
// the classic PPU/CPU NMI race model (spec.md §4.3).
func (p *PPU) setNMIOccurred(v bool) {
	p.nmiOccurred = v
	p.updateNMI()
}

func (p *PPU) updateNMI() {
	nmi := p.nmiOutput && p.nmiOccurred
	if nmi && !p.nmiPrevious && p.nmiCallback != nil {
		p.nmiCallback()
	}
	p.nmiPrevious = nmi
}

// signalCHRAddress feeds addr into the mapper A12 edge detector
// whenever a PPU CHR fetch crosses it, per spec.md §4.2/§4.3.
func (p *PPU) signalCHRAddress(addr uint16) {
	a12 := addr&0x1000 != 0
	if a12 && !p.lastA12 {
		p.cart.PPUA12Toggle()
	}
	p.lastA12 = a12
}
