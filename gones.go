// Package gones implements a cycle-accurate NES emulator core: a 6502
// CPU, 2C02 PPU, 2A03 APU, and a cartridge/mapper subsystem wired
// together by a shared system bus. It exports the surface a host
// front-end needs to load a ROM, step frames, forward controller
// input, and drain audio - nothing about windowing, audio output
// devices, or persistence is in scope here (see SPEC_FULL.md §1).
package gones

import (
	"errors"
	"fmt"

	"gones/internal/bus"
	"gones/internal/cartridge"
	"gones/internal/input"
)

// Logger matches the variadic logging hook spec.md §6.7 describes. Any
// type satisfying it - including the standard library's *log.Logger -
// can be passed in Config.
type Logger interface {
	Printf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

// Button is a host-facing NES button identity, mirroring
// internal/input.Button so the facade doesn't leak an internal package
// into the public API.
type Button = input.Button

const (
	ButtonA      = input.ButtonA
	ButtonB      = input.ButtonB
	ButtonSelect = input.ButtonSelect
	ButtonStart  = input.ButtonStart
	ButtonUp     = input.ButtonUp
	ButtonDown   = input.ButtonDown
	ButtonLeft   = input.ButtonLeft
	ButtonRight  = input.ButtonRight
)

// FrameCallback receives the most recently completed frame's 256x240
// ARGB pixels. The slice aliases core-owned storage and is only valid
// for the duration of the call (spec.md §6 "Frame callback").
type FrameCallback func(pixels *[256 * 240]uint32, opaque any)

// SampleCallback receives a batch of interleaved audio samples: mono
// one int16 per sample, stereo two (L,R) per frame (spec.md §6 "Sample
// callback").
type SampleCallback func(samples []int16, opaque any)

// Config configures a Core at construction, following the teacher's
// plain-struct-with-constructor-defaults pattern rather than a
// flag/TOML settings layer (SPEC_FULL.md §10).
type Config struct {
	SampleRate int
	Stereo     bool
	OnFrame    FrameCallback
	OnSample   SampleCallback
	Opaque     any
	Logger     Logger
}

// Core is the emulator: one Config-configured instance owns its own
// bus, CPU, PPU, APU, and loaded cartridge. A Core is not safe for
// concurrent use (spec.md §5).
type Core struct {
	bus    *bus.Bus
	cfg    Config
	player [2]*input.Controller
}

// New creates a Core with no cartridge loaded; LoadROM must be called
// before StepFrame. Unset Config fields take zero-value defaults: a
// sample rate of 0 disables the resampler (SetOutput is skipped), and
// a nil Logger is replaced with a no-op.
func New(cfg Config) *Core {
	if cfg.Logger == nil {
		cfg.Logger = nopLogger{}
	}
	c := &Core{cfg: cfg, bus: bus.New()}
	c.player[0] = c.bus.Input.Controller1
	c.player[1] = c.bus.Input.Controller2

	c.bus.PPU.SetFrameCallback(func(frame *[256 * 240]uint32) {
		if c.cfg.OnFrame != nil {
			c.cfg.OnFrame(frame, c.cfg.Opaque)
		}
	})
	if cfg.SampleRate > 0 {
		c.bus.APU.SetOutput(cfg.SampleRate, cfg.Stereo, func(samples []int16) {
			if c.cfg.OnSample != nil {
				c.cfg.OnSample(samples, c.cfg.Opaque)
			}
		})
	}
	return c
}

// LoadROM parses an iNES/NES2.0 image (optionally seeded with existing
// battery-backed save RAM), attaches it to the bus, and performs a hard
// reset. It returns an error on a malformed header or unsupported
// mapper (spec.md §6 "ROM loading", §7).
func (c *Core) LoadROM(rom []byte, sram []byte) error {
	cart, err := cartridge.Load(rom, sram)
	if err != nil {
		return fmt.Errorf("gones: load ROM: %w", err)
	}
	c.bus.AttachCartridge(cart)
	c.bus.Reset()
	c.cfg.Logger.Printf("gones: loaded ROM, mapper wired, %d-byte image", len(rom))
	return nil
}

// ErrNoCartridge reports that no cartridge has been attached via
// LoadROM. No Core method returns it: StepFrame and the SRAM accessors
// do nothing (or return zero) when no cartridge is loaded.
var ErrNoCartridge = errors.New("gones: no cartridge loaded")

// Controller latches one button's pressed state for the given player
// (0 or 1). Simultaneous up+down or left+right is cancelled to neither
// pressed before latching, matching real controller wiring that ties
// both directions to the same electrical contact pair (spec.md §6.3).
func (c *Core) Controller(player int, button Button, pressed bool) {
	if player != 0 && player != 1 {
		return
	}
	ctrl := c.player[player]
	ctrl.SetButton(button, pressed)
	if ctrl.IsPressed(input.ButtonUp) && ctrl.IsPressed(input.ButtonDown) {
		ctrl.SetButton(input.ButtonUp, false)
		ctrl.SetButton(input.ButtonDown, false)
	}
	if ctrl.IsPressed(input.ButtonLeft) && ctrl.IsPressed(input.ButtonRight) {
		ctrl.SetButton(input.ButtonLeft, false)
		ctrl.SetButton(input.ButtonRight, false)
	}
}

// StepFrame runs the CPU (and, transitively, the PPU/APU/mapper) until
// the next frame callback fires, i.e. until the PPU next reaches
// scanline 240 (spec.md §6 "Step"). The first call after a reset covers
// only the 240 visible scanlines; each later call covers one full
// 262-scanline frame.
func (c *Core) StepFrame() {
	if c.bus.Cart == nil {
		return
	}
	target := c.bus.PPU.FrameCount() + 1
	for c.bus.PPU.FrameCount() < target {
		c.bus.Clock()
	}
}

// Reset performs a hard or soft reset of the running cartridge (spec.md
// §6 "Reset", §3).
func (c *Core) Reset(hard bool) {
	if hard {
		c.bus.Reset()
	} else {
		c.bus.SoftReset()
	}
}

// SRAMDirty returns the number of battery-backed SRAM bytes changed
// since the last call, or 0 if no cartridge is loaded or it has no
// battery (spec.md §6 "SRAM inspection").
func (c *Core) SRAMDirty() int {
	if c.bus.Cart == nil {
		return 0
	}
	return c.bus.Cart.SRAMDirty()
}

// SRAMCopy copies the cartridge's current battery-backed RAM into buf,
// returning the number of bytes copied.
func (c *Core) SRAMCopy(buf []byte) int {
	if c.bus.Cart == nil {
		return 0
	}
	return c.bus.Cart.SRAMCopy(buf)
}

// HasBattery reports whether the loaded cartridge persists SRAM.
func (c *Core) HasBattery() bool {
	return c.bus.Cart != nil && c.bus.Cart.HasBattery()
}
