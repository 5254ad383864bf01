// Command gones is a thin Ebitengine front-end for the gones NES
// emulator core: it owns the window, the PCM audio player, ROM file
// loading, and keyboard-to-controller mapping, leaving every emulation
// concern to the gones package.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"gones"
)

const (
	sampleRate  = 44100
	nesWidth    = 256
	nesHeight   = 240
	windowScale = 3
)

type keyBinding struct {
	key    ebiten.Key
	button gones.Button
}

var player1Keys = []keyBinding{
	{ebiten.KeyZ, gones.ButtonA},
	{ebiten.KeyX, gones.ButtonB},
	{ebiten.KeyBackslash, gones.ButtonSelect},
	{ebiten.KeyEnter, gones.ButtonStart},
	{ebiten.KeyUp, gones.ButtonUp},
	{ebiten.KeyDown, gones.ButtonDown},
	{ebiten.KeyLeft, gones.ButtonLeft},
	{ebiten.KeyRight, gones.ButtonRight},
}

type game struct {
	core    *gones.Core
	img     *ebiten.Image
	pixels  []byte
	hasROM  bool
}

func newGame(core *gones.Core, hasROM bool) *game {
	return &game{
		core:   core,
		img:    ebiten.NewImage(nesWidth, nesHeight),
		pixels: make([]byte, nesWidth*nesHeight*4),
		hasROM: hasROM,
	}
}

func (g *game) Update() error {
	if !g.hasROM {
		return nil
	}
	for _, kb := range player1Keys {
		g.core.Controller(0, kb.button, ebiten.IsKeyPressed(kb.key))
	}
	g.core.StepFrame()
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	if !g.hasROM {
		ebitenutil.DebugPrint(screen, "no ROM loaded; pass a .nes file as the first argument")
		return
	}
	g.img.WritePixels(g.pixels)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(windowScale, windowScale)
	screen.DrawImage(g.img, op)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return nesWidth * windowScale, nesHeight * windowScale
}

func (g *game) onFrame(pixels *[256 * 240]uint32, _ any) {
	for i, p := range pixels {
		o := i * 4
		g.pixels[o+0] = byte(p >> 16) // R
		g.pixels[o+1] = byte(p >> 8)  // G
		g.pixels[o+2] = byte(p)       // B
		g.pixels[o+3] = 0xFF          // A
	}
}

func main() {
	romPath := ""
	flag.Parse()
	if flag.NArg() > 0 {
		romPath = flag.Arg(0)
	}

	logger := log.New(os.Stderr, "gones: ", log.LstdFlags)
	stream := newAudioStream()

	g := newGame(nil, false)
	core := gones.New(gones.Config{
		SampleRate: sampleRate,
		Stereo:     true,
		Logger:     logger,
		OnFrame:    g.onFrame,
		OnSample: func(samples []int16, _ any) {
			stream.push(samples)
		},
	})
	g.core = core

	if romPath != "" {
		rom, err := os.ReadFile(romPath)
		if err != nil {
			logger.Printf("reading ROM %s: %v", romPath, err)
		} else if err := core.LoadROM(rom, nil); err != nil {
			logger.Printf("loading ROM %s: %v", romPath, err)
		} else {
			g.hasROM = true
		}
	}

	audioCtx := audio.NewContext(sampleRate)
	audioPlayer, err := audioCtx.NewPlayer(stream)
	if err != nil {
		logger.Printf("creating audio player: %v", err)
	} else {
		audioPlayer.SetBufferSize(0)
		audioPlayer.Play()
	}

	ebiten.SetWindowTitle("gones")
	ebiten.SetWindowSize(nesWidth*windowScale, nesHeight*windowScale)
	if err := ebiten.RunGame(g); err != nil {
		logger.Printf("run: %v", err)
	}
}
