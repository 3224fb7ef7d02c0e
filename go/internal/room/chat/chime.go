package chat

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Tone describes the synthesized chime.
type Tone struct {
	Frequency  float64
	Duration   time.Duration
	Attack     time.Duration
	PeakGain   float64
	FloorGain  float64
	SampleRate int
}

// DefaultTone is a short 800 Hz sine blip.
func DefaultTone() Tone {
	return Tone{
		Frequency:  800,
		Duration:   300 * time.Millisecond,
		Attack:     10 * time.Millisecond,
		PeakGain:   0.1,
		FloorGain:  0.001,
		SampleRate: 8000,
	}
}

// SynthesizeWAV renders the tone as 16-bit mono PCM in a WAV container. The
// gain ramps linearly to PeakGain over Attack, then decays exponentially to
// FloorGain at Duration.
func SynthesizeWAV(t Tone) []byte {
	n := int(t.Duration.Seconds() * float64(t.SampleRate))
	attack := t.Attack.Seconds()
	total := t.Duration.Seconds()

	pcm := make([]int16, n)
	for i := 0; i < n; i++ {
		at := float64(i) / float64(t.SampleRate)
		var gain float64
		switch {
		case at < attack:
			gain = t.PeakGain * at / attack
		case total > attack:
			gain = t.PeakGain * math.Pow(t.FloorGain/t.PeakGain, (at-attack)/(total-attack))
		}
		pcm[i] = int16(gain * math.Sin(2*math.Pi*t.Frequency*at) * math.MaxInt16)
	}

	dataLen := uint32(n * 2)
	buf := bytes.NewBuffer(make([]byte, 0, 44+int(dataLen)))
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, 36+dataLen)
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(buf, binary.LittleEndian, uint32(t.SampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(t.SampleRate*2))
	binary.Write(buf, binary.LittleEndian, uint16(2))
	binary.Write(buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, dataLen)
	binary.Write(buf, binary.LittleEndian, pcm)
	return buf.Bytes()
}

// Player plays a WAV clip.
type Player interface {
	Play(ctx context.Context, wav []byte) error
}

// CommandPlayer pipes the clip into an external audio command, e.g. "aplay -q -".
type CommandPlayer struct {
	Name string
	Args []string
}

// ParseCommandPlayer splits a command line such as "paplay /dev/stdin" into a
// CommandPlayer.
func ParseCommandPlayer(command string) (CommandPlayer, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return CommandPlayer{}, fmt.Errorf("empty audio command")
	}
	return CommandPlayer{Name: fields[0], Args: fields[1:]}, nil
}

func (p CommandPlayer) Play(ctx context.Context, wav []byte) error {
	if p.Name == "" {
		return fmt.Errorf("no audio command configured")
	}
	cmd := exec.CommandContext(ctx, p.Name, p.Args...)
	cmd.Stdin = bytes.NewReader(wav)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("run %s: %w: %s", p.Name, err, bytes.TrimSpace(out))
	}
	return nil
}

// ToneChimer plays a synthesized tone and falls back to a pre-recorded cue
// when synthesis playback fails.
type ToneChimer struct {
	player   Player
	fallback Chimer

	once sync.Once
	wav  []byte
	tone Tone
}

// NewToneChimer creates a chimer for the given tone.
func NewToneChimer(tone Tone, player Player, fallback Chimer) *ToneChimer {
	return &ToneChimer{player: player, fallback: fallback, tone: tone}
}

func (c *ToneChimer) Chime(ctx context.Context) error {
	c.once.Do(func() { c.wav = SynthesizeWAV(c.tone) })

	var err error
	if c.player != nil {
		if err = c.player.Play(ctx, c.wav); err == nil {
			return nil
		}
		log.Debug().Err(err).Msg("tone playback failed, trying fallback cue")
	}
	if c.fallback == nil {
		if err == nil {
			err = fmt.Errorf("no player or fallback configured")
		}
		return err
	}
	return c.fallback.Chime(ctx)
}

// BellChimer is the pre-recorded fallback cue: the terminal bell.
type BellChimer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewBellChimer rings the bell on out.
func NewBellChimer(out io.Writer) *BellChimer {
	return &BellChimer{out: out}
}

func (b *BellChimer) Chime(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, err := b.out.Write([]byte{'\a'})
	return err
}
