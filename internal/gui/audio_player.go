package gui

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"sync"

	"github.com/gkplab/audiotag/internal/wave"
)

// Player plays clip segments through whatever command-line WAV player the
// platform provides. One segment plays at a time; starting a new one stops
// the previous playback.
type Player struct {
	mu  sync.Mutex
	cmd *exec.Cmd

	// onFinished is called from the playback goroutine when a segment
	// plays to the end (not when it is stopped).
	onFinished func()
}

// NewPlayer creates an idle player
func NewPlayer() *Player {
	return &Player{}
}

// Play writes the [start, end] segment of clip to a temporary WAV file and
// plays it in the background. The file is removed when playback ends.
func (p *Player) Play(clip *wave.Clip, start, end float64) error {
	if clip == nil {
		return fmt.Errorf("no audio loaded")
	}
	segment := clip.Segment(start, end)
	if segment.Len() == 0 {
		return fmt.Errorf("nothing to play between %g and %g", start, end)
	}

	p.Stop()

	f, err := os.CreateTemp("", "audiotag-*.wav")
	if err != nil {
		return fmt.Errorf("create temp audio file: %w", err)
	}
	path := f.Name()
	f.Close()
	if err := segment.WriteWAV(path); err != nil {
		os.Remove(path)
		return err
	}

	cmd, err := playbackCommand(path)
	if err != nil {
		os.Remove(path)
		return err
	}
	if err := cmd.Start(); err != nil {
		os.Remove(path)
		return fmt.Errorf("start audio player: %w", err)
	}

	p.mu.Lock()
	p.cmd = cmd
	p.mu.Unlock()

	go func() {
		err := cmd.Wait()
		p.mu.Lock()
		if p.cmd == cmd {
			p.cmd = nil
		}
		p.mu.Unlock()
		os.Remove(path)
		// A killed process reports an error, so the callback only fires
		// when playback finished normally.
		if err == nil && p.onFinished != nil {
			p.onFinished()
		}
	}()

	return nil
}

// Stop kills the running playback, if any
func (p *Player) Stop() {
	p.mu.Lock()
	cmd := p.cmd
	p.cmd = nil
	p.mu.Unlock()

	if cmd != nil && cmd.Process != nil {
		cmd.Process.Kill()
	}
}

// playbackCommand picks a WAV-capable player using platform-specific commands
func playbackCommand(path string) (*exec.Cmd, error) {
	switch runtime.GOOS {
	case "darwin": // macOS
		return exec.Command("afplay", path), nil
	case "linux":
		// Try multiple commands in order of preference
		if _, err := exec.LookPath("ffplay"); err == nil {
			return exec.Command("ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet", path), nil
		}
		if _, err := exec.LookPath("play"); err == nil {
			// SoX play command
			return exec.Command("play", "-q", path), nil
		}
		if _, err := exec.LookPath("paplay"); err == nil {
			return exec.Command("paplay", path), nil
		}
		if _, err := exec.LookPath("aplay"); err == nil {
			return exec.Command("aplay", "-q", path), nil
		}
		return nil, fmt.Errorf("no audio player found. Install ffplay, sox, paplay, or aplay")
	case "windows":
		// Use Windows Media Player
		return exec.Command("cmd", "/c", "start", "/min", path), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}
