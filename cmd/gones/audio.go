package main

import (
	"bytes"
	"encoding/binary"
	"sync"
)

// audioStream is an io.Reader that ebiten/v2/audio polls for PCM bytes.
// gones' sample callback pushes interleaved int16 frames in on one
// goroutine (the emulation loop) while ebiten's audio player drains
// them on another, so access to the backing buffer is mutex-guarded.
type audioStream struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func newAudioStream() *audioStream {
	return &audioStream{}
}

// push appends one sample batch (mono or interleaved stereo int16s) as
// little-endian bytes.
func (s *audioStream) push(samples []int16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range samples {
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], uint16(v))
		s.buf.Write(b[:])
	}
	// Cap backlog so a paused/slow audio device doesn't grow this
	// without bound across a long play session.
	const maxBacklog = 1 << 20
	if s.buf.Len() > maxBacklog {
		s.buf.Next(s.buf.Len() - maxBacklog)
	}
}

// Read implements io.Reader. Silence is emitted when the buffer is
// temporarily empty rather than blocking, since ebiten's audio player
// expects Read to return promptly.
func (s *audioStream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, _ := s.buf.Read(p)
	for i := n; i < len(p); i++ {
		p[i] = 0
	}
	return len(p), nil
}
