package pipeline

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/rs/zerolog"

	"github.com/zhouzirui/hearthly/backend/internal/model/voice"
	"github.com/zhouzirui/hearthly/backend/internal/observability"
	"github.com/zhouzirui/hearthly/backend/internal/service/ai"
	"github.com/zhouzirui/hearthly/backend/internal/service/audio"
)

// Artifact 规范化后的音频，使用完毕后必须 Release。
type Artifact interface {
	Bytes() []byte
	Release() error
}

// Normalizer converts uploaded audio into the transcription format.
type Normalizer interface {
	Normalize(ctx context.Context, input []byte) (Artifact, error)
}

// Transcriber turns normalized speech into text.
type Transcriber interface {
	Transcribe(ctx context.Context, wav []byte, lang voice.Language) (string, error)
}

// Generator produces the reply text.
type Generator interface {
	Generate(ctx context.Context, transcript, instructions string) (string, error)
}

// Synthesizer turns reply text into MP3 audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, lang voice.Language) ([]byte, error)
}

// ComposeFunc builds persona instructions.
type ComposeFunc func(lang voice.Language, flags voice.Flags) (string, error)

// Dependencies 管线依赖的各个组件。
type Dependencies struct {
	Normalizer  Normalizer
	Transcriber Transcriber
	Composer    ComposeFunc // 为空时使用 ai.ComposeInstructions
	Generator   Generator
	Synthesizer Synthesizer
}

// Pipeline 语音处理链：转码 → 识别 → 人设指令 → 生成 → 合成。
type Pipeline struct {
	deps   Dependencies
	logger zerolog.Logger
}

// New creates a pipeline over deps.
func New(deps Dependencies, logger zerolog.Logger) *Pipeline {
	if deps.Composer == nil {
		deps.Composer = ai.ComposeInstructions
	}
	return &Pipeline{
		deps:   deps,
		logger: logger.With().Str("component", "pipeline").Logger(),
	}
}

// FromTranscoder adapts an audio.Transcoder to Normalizer.
func FromTranscoder(t *audio.Transcoder) Normalizer {
	return transcoderNormalizer{t: t}
}

type transcoderNormalizer struct {
	t *audio.Transcoder
}

func (n transcoderNormalizer) Normalize(ctx context.Context, input []byte) (Artifact, error) {
	normalized, err := n.t.Normalize(ctx, input)
	if err != nil {
		return nil, err
	}
	return normalized, nil
}

// Run 处理一次完整的语音对话请求。各阶段顺序执行，任一失败立即返回，不重试、不返回部分结果。
func (p *Pipeline) Run(ctx context.Context, req *voice.AudioRequest) (*voice.AudioResponse, error) {
	r := &run{pipeline: p, logger: p.requestLogger(ctx)}
	started := time.Now()

	resp, err := r.execute(ctx, req)
	if err != nil {
		outcome := observability.OutcomeServerError
		if voice.IsClientError(err) {
			outcome = observability.OutcomeClientError
		}
		observability.RecordRequest(outcome)

		r.logger.Warn().
			Err(err).
			Str("stage", StageOf(err).String()).
			Str("kind", string(voice.KindOf(err))).
			Dur("elapsed", time.Since(started)).
			Msg("pipeline failed")
		return nil, err
	}

	observability.RecordRequest(observability.OutcomeSuccess)
	r.logger.Info().
		Str("language", string(req.Language)).
		Dur("elapsed", time.Since(started)).
		Msg("pipeline finished")
	return resp, nil
}

func (p *Pipeline) requestLogger(ctx context.Context) zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return l.With().Str("component", "pipeline").Logger()
	}
	return p.logger
}

// run 单次请求的状态
type run struct {
	pipeline *Pipeline
	state    State
	logger   zerolog.Logger
}

func (r *run) execute(ctx context.Context, req *voice.AudioRequest) (*voice.AudioResponse, error) {
	deps := r.pipeline.deps

	if req == nil {
		return nil, r.fail(Validating, voice.NewError(voice.KindDecode, "pipeline.validate", nil, "request body is empty"))
	}

	if err := r.step(Validating, func() error {
		return voice.ValidateLanguage("pipeline.validate", req.Language)
	}); err != nil {
		return nil, err
	}

	var normalized Artifact
	if err := r.step(Normalizing, func() error {
		raw, err := base64.StdEncoding.DecodeString(req.Audio)
		if err != nil {
			return voice.NewError(voice.KindDecode, "pipeline.decode", err, "audio is not valid base64: %v", err)
		}
		r.logger.Debug().Int("input_bytes", len(raw)).Msg("audio decoded")

		normalized, err = deps.Normalizer.Normalize(ctx, raw)
		return err
	}); err != nil {
		return nil, err
	}

	var transcript string
	if err := r.step(Transcribing, func() error {
		var err error
		transcript, err = deps.Transcriber.Transcribe(ctx, normalized.Bytes(), req.Language)
		if releaseErr := normalized.Release(); releaseErr != nil {
			r.logger.Warn().Err(releaseErr).Msg("failed to release normalized audio")
		}
		return err
	}); err != nil {
		return nil, err
	}
	r.logger.Debug().Str("transcript", transcript).Msg("transcription received")

	var instructions string
	if err := r.step(Composing, func() error {
		var err error
		instructions, err = deps.Composer(req.Language, req.Flags())
		return err
	}); err != nil {
		return nil, err
	}

	var reply string
	if err := r.step(Generating, func() error {
		var err error
		reply, err = deps.Generator.Generate(ctx, transcript, instructions)
		return err
	}); err != nil {
		return nil, err
	}

	var speech []byte
	if err := r.step(Synthesizing, func() error {
		var err error
		speech, err = deps.Synthesizer.Synthesize(ctx, reply, req.Language)
		return err
	}); err != nil {
		return nil, err
	}

	var resp *voice.AudioResponse
	_ = r.step(Assembling, func() error {
		resp = &voice.AudioResponse{
			Audio:      base64.StdEncoding.EncodeToString(speech),
			Transcript: transcript,
		}
		return nil
	})
	r.logger.Debug().
		Int("reply_chars", len(reply)).
		Int("mp3_bytes", len(speech)).
		Msg("response assembled")

	r.state = Done
	return resp, nil
}

// step 执行一个阶段并记录耗时
func (r *run) step(state State, fn func() error) error {
	r.state = state
	started := time.Now()
	err := fn()
	observability.ObserveStage(state.String(), time.Since(started))
	if err != nil {
		return r.fail(state, err)
	}
	return nil
}

func (r *run) fail(state State, err error) error {
	r.state = Failed
	observability.RecordError(state.String(), string(voice.KindOf(err)))
	return &StageError{State: state, Err: err}
}
