package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/zhouzirui/hearthly/backend/internal/model/voice"
	"github.com/zhouzirui/hearthly/backend/internal/observability"
)

const (
	// DefaultSampleRate 是识别前统一的采样率。
	DefaultSampleRate = 24000
	defaultBitrate    = "128k"
	defaultTimeout    = 60 * time.Second
	defaultParallel   = 4
)

// Config controls how ffmpeg is invoked.
type Config struct {
	FFmpegPath    string
	ScratchDir    string // 为空时使用 os.TempDir()
	Timeout       time.Duration
	MaxConcurrent int
	SampleRate    int
	Bitrate       string
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		FFmpegPath:    "ffmpeg",
		Timeout:       defaultTimeout,
		MaxConcurrent: defaultParallel,
		SampleRate:    DefaultSampleRate,
		Bitrate:       defaultBitrate,
	}
}

// Runner executes an external process and returns its stderr.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stderr []byte, err error)
}

// ExecRunner runs processes through os/exec.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = io.Discard
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.Bytes(), err
}

// Normalized is a mono 16-bit PCM WAV produced for one request.
// The backing scratch directory lives until Release is called.
type Normalized struct {
	Data []byte
	Path string
	dir  string
}

// Bytes returns the WAV payload.
func (n *Normalized) Bytes() []byte {
	return n.Data
}

// Release removes the scratch directory. Safe to call more than once.
func (n *Normalized) Release() error {
	if n == nil || n.dir == "" {
		return nil
	}
	dir := n.dir
	n.dir = ""
	if err := os.RemoveAll(dir); err != nil {
		return voice.NewError(voice.KindIO, "audio.release", err, "remove scratch dir: %v", err)
	}
	return nil
}

// Transcoder converts audio with ffmpeg, one private scratch directory per invocation.
type Transcoder struct {
	cfg    Config
	runner Runner
	slots  *semaphore.Weighted
	logger zerolog.Logger
}

// NewTranscoder creates a Transcoder. A nil runner means ExecRunner.
func NewTranscoder(cfg Config, runner Runner, logger zerolog.Logger) *Transcoder {
	defaults := DefaultConfig()
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = defaults.FFmpegPath
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = defaults.MaxConcurrent
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = defaults.SampleRate
	}
	if cfg.Bitrate == "" {
		cfg.Bitrate = defaults.Bitrate
	}
	if runner == nil {
		runner = ExecRunner{}
	}

	return &Transcoder{
		cfg:    cfg,
		runner: runner,
		slots:  semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		logger: logger.With().Str("component", "transcoder").Logger(),
	}
}

// SampleRate returns the rate Normalize resamples to.
func (t *Transcoder) SampleRate() int {
	return t.cfg.SampleRate
}

// Normalize converts container audio (WebM/Opus, MP3, WAV...) to mono 16-bit PCM WAV.
// The input file is removed before returning; the output stays until Release.
func (t *Transcoder) Normalize(ctx context.Context, input []byte) (*Normalized, error) {
	const op = "audio.normalize"

	dir, err := t.scratchDir()
	if err != nil {
		return nil, voice.NewError(voice.KindIO, op, err, "create scratch dir: %v", err)
	}

	id := uuid.NewString()
	inPath := filepath.Join(dir, id+".input")
	outPath := filepath.Join(dir, id+".wav")

	if err := os.WriteFile(inPath, input, 0o600); err != nil {
		_ = os.RemoveAll(dir)
		return nil, voice.NewError(voice.KindIO, op, err, "write input: %v", err)
	}

	args := []string{
		"-hide_banner",
		"-i", inPath,
		"-ac", "1",
		"-ar", strconv.Itoa(t.cfg.SampleRate),
		"-acodec", "pcm_s16le",
		"-y", outPath,
	}
	runErr := t.run(ctx, op, args)
	_ = os.Remove(inPath)
	if runErr != nil {
		_ = os.RemoveAll(dir)
		return nil, runErr
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, voice.NewError(voice.KindIO, op, err, "read output: %v", err)
	}

	if format, inspectErr := InspectWAV(data); inspectErr == nil {
		t.logger.Debug().
			Int("input_bytes", len(input)).
			Int("wav_bytes", len(data)).
			Uint16("channels", format.Channels).
			Uint32("sample_rate", format.SampleRate).
			Float64("seconds", format.Duration()).
			Msg("pcm conversion done")
	}

	return &Normalized{Data: data, Path: outPath, dir: dir}, nil
}

// ToDeliveryFormat transcodes PCM/WAV bytes to mono MP3 at the configured bitrate.
func (t *Transcoder) ToDeliveryFormat(ctx context.Context, pcm []byte) ([]byte, error) {
	const op = "audio.deliver"

	dir, err := t.scratchDir()
	if err != nil {
		return nil, voice.NewError(voice.KindIO, op, err, "create scratch dir: %v", err)
	}
	defer os.RemoveAll(dir)

	id := uuid.NewString()
	inPath := filepath.Join(dir, id+".wav")
	outPath := filepath.Join(dir, id+".mp3")

	if err := os.WriteFile(inPath, pcm, 0o600); err != nil {
		return nil, voice.NewError(voice.KindIO, op, err, "write input: %v", err)
	}

	args := []string{
		"-hide_banner",
		"-i", inPath,
		"-acodec", "mp3",
		"-b:a", t.cfg.Bitrate,
		"-ac", "1",
		"-ar", strconv.Itoa(t.cfg.SampleRate),
		"-y", outPath,
	}
	if err := t.run(ctx, op, args); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, voice.NewError(voice.KindIO, op, err, "read output: %v", err)
	}

	t.logger.Debug().Int("mp3_bytes", len(data)).Msg("mp3 conversion done")
	return data, nil
}

func (t *Transcoder) scratchDir() (string, error) {
	return os.MkdirTemp(t.cfg.ScratchDir, "hearthly-*")
}

// run executes ffmpeg under the concurrency bound and the per-call timeout.
func (t *Transcoder) run(ctx context.Context, op string, args []string) error {
	if err := t.slots.Acquire(ctx, 1); err != nil {
		return voice.NewError(voice.KindTranscode, op, err, "waiting for ffmpeg slot: %v", err)
	}
	defer t.slots.Release(1)

	observability.FFmpegStarted()
	defer observability.FFmpegFinished()

	runCtx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	stderr, err := t.runner.Run(runCtx, t.cfg.FFmpegPath, args...)
	if err == nil {
		return nil
	}

	diagnostic := string(stderr)
	if diagnostic == "" {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			diagnostic = fmt.Sprintf("ffmpeg timed out after %s", t.cfg.Timeout)
		} else {
			diagnostic = err.Error()
		}
	}

	t.logger.Error().Err(err).Str("op", op).Msg("ffmpeg failed")
	return &voice.Error{Kind: voice.KindTranscode, Op: op, Message: diagnostic, Err: err}
}
