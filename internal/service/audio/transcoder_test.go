package audio

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/hearthly/backend/internal/model/voice"
)

// fakeRunner imitates ffmpeg: the last argument is the output path.
type fakeRunner struct {
	mu      sync.Mutex
	output  []byte
	stderr  []byte
	err     error
	calls   [][]string
	inputs  []string
	present []bool
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, append([]string{name}, args...))
	in := argAfter(args, "-i")
	f.inputs = append(f.inputs, in)
	_, statErr := os.Stat(in)
	f.present = append(f.present, statErr == nil)

	if f.err != nil {
		return f.stderr, f.err
	}
	out := args[len(args)-1]
	if err := os.WriteFile(out, f.output, 0o600); err != nil {
		return nil, err
	}
	return f.stderr, nil
}

func argAfter(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

func newTestTranscoder(t *testing.T, runner Runner) (*Transcoder, string) {
	t.Helper()
	scratch := t.TempDir()
	cfg := DefaultConfig()
	cfg.ScratchDir = scratch
	return NewTranscoder(cfg, runner, zerolog.Nop()), scratch
}

func TestNormalizeRunsFFmpegWithPCMArgs(t *testing.T) {
	wav, err := SilentWAV(DefaultSampleRate, 0.1)
	require.NoError(t, err)
	runner := &fakeRunner{output: wav}
	tc, scratch := newTestTranscoder(t, runner)

	norm, err := tc.Normalize(context.Background(), []byte("webm-bytes"))
	require.NoError(t, err)
	assert.Equal(t, wav, norm.Data)

	require.Len(t, runner.calls, 1)
	call := runner.calls[0]
	assert.Equal(t, "ffmpeg", call[0])
	assert.Equal(t, "1", argAfter(call, "-ac"))
	assert.Equal(t, "24000", argAfter(call, "-ar"))
	assert.Equal(t, "pcm_s16le", argAfter(call, "-acodec"))
	assert.Equal(t, ".wav", filepath.Ext(call[len(call)-1]))

	// input existed while ffmpeg ran and is gone afterwards
	assert.True(t, runner.present[0])
	assert.NoFileExists(t, runner.inputs[0])
	assert.FileExists(t, norm.Path)

	require.NoError(t, norm.Release())
	assert.NoFileExists(t, norm.Path)
	require.NoError(t, norm.Release())

	entries, err := os.ReadDir(scratch)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNormalizeFailureCarriesStderrAndCleansUp(t *testing.T) {
	stderr := "temp_input.webm: Invalid data found when processing input\n"
	runner := &fakeRunner{stderr: []byte(stderr), err: errors.New("exit status 1")}
	tc, scratch := newTestTranscoder(t, runner)

	norm, err := tc.Normalize(context.Background(), []byte("not audio"))
	require.Error(t, err)
	assert.Nil(t, norm)

	var verr *voice.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, voice.KindTranscode, verr.Kind)
	assert.Equal(t, stderr, verr.Message)

	entries, err := os.ReadDir(scratch)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch area must be cleaned after failure")
}

func TestNormalizeLaunchFailureUsesErrorText(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ScratchDir = t.TempDir()
	cfg.FFmpegPath = filepath.Join(cfg.ScratchDir, "missing-ffmpeg")
	tc := NewTranscoder(cfg, nil, zerolog.Nop())

	_, err := tc.Normalize(context.Background(), []byte("x"))
	require.Error(t, err)
	assert.True(t, voice.IsKind(err, voice.KindTranscode))
	assert.Contains(t, err.Error(), "missing-ffmpeg")
}

func TestNormalizeScratchWriteFailureIsIO(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ScratchDir = filepath.Join(t.TempDir(), "does", "not", "exist")
	runner := &fakeRunner{}
	tc := NewTranscoder(cfg, runner, zerolog.Nop())

	_, err := tc.Normalize(context.Background(), []byte("x"))
	require.Error(t, err)
	assert.True(t, voice.IsKind(err, voice.KindIO))
	assert.Empty(t, runner.calls)
}

func TestConcurrentNormalizeUsesDistinctPaths(t *testing.T) {
	wav, err := SilentWAV(DefaultSampleRate, 0.01)
	require.NoError(t, err)
	runner := &fakeRunner{output: wav}
	tc, _ := newTestTranscoder(t, runner)

	const n = 16
	results := make([]*Normalized, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			norm, err := tc.Normalize(context.Background(), []byte{byte(i)})
			assert.NoError(t, err)
			results[i] = norm
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, in := range runner.inputs {
		assert.False(t, seen[in], "input path reused: %s", in)
		seen[in] = true
	}
	for _, norm := range results {
		require.NotNil(t, norm)
		assert.False(t, seen[norm.Path])
		seen[norm.Path] = true
		assert.NoError(t, norm.Release())
	}
}

func TestToDeliveryFormatArgs(t *testing.T) {
	runner := &fakeRunner{output: []byte{0xFF, 0xFB, 0x90}}
	tc, scratch := newTestTranscoder(t, runner)

	mp3, err := tc.ToDeliveryFormat(context.Background(), []byte("RIFF"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xFB, 0x90}, mp3)

	call := runner.calls[0]
	assert.Equal(t, "mp3", argAfter(call, "-acodec"))
	assert.Equal(t, "128k", argAfter(call, "-b:a"))
	assert.Equal(t, "1", argAfter(call, "-ac"))
	assert.Equal(t, "24000", argAfter(call, "-ar"))

	entries, err := os.ReadDir(scratch)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNormalizeRoundTripWithFFmpeg(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}

	silent, err := SilentWAV(16000, 1)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.ScratchDir = t.TempDir()
	tc := NewTranscoder(cfg, nil, zerolog.Nop())
	ctx := context.Background()

	first, err := tc.Normalize(ctx, silent)
	require.NoError(t, err)
	defer first.Release()

	format, err := InspectWAV(first.Data)
	require.NoError(t, err)
	assert.True(t, format.IsNormalized(DefaultSampleRate), "got %+v", format)
	assert.InDelta(t, 1.0, format.Duration(), 0.05)

	second, err := tc.Normalize(ctx, first.Data)
	require.NoError(t, err)
	defer second.Release()

	again, err := InspectWAV(second.Data)
	require.NoError(t, err)
	assert.True(t, again.IsNormalized(DefaultSampleRate))
	assert.InDelta(t, format.Duration(), again.Duration(), 0.05)
}
