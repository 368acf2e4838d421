package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/hearthly/backend/internal/config"
	"github.com/zhouzirui/hearthly/backend/internal/model/voice"
	"github.com/zhouzirui/hearthly/backend/internal/observability"
	"github.com/zhouzirui/hearthly/backend/internal/service/audio"
	"github.com/zhouzirui/hearthly/backend/internal/service/speech"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] 无法加载 .env，改用系统环境变量: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("配置加载失败")
	}
	logger := observability.InitLogger(cfg.Log.Level, true)

	mode := flag.String("mode", "", "模式: normalize, mp3, transcribe, synthesize")
	in := flag.String("in", "", "输入音频文件路径 (normalize/mp3/transcribe)")
	out := flag.String("out", "", "输出文件路径 (normalize/mp3/synthesize)")
	text := flag.String("text", "", "synthesize 输入文本")
	lang := flag.String("lang", string(voice.English), "语言代码: en, hi, pa")
	timeout := flag.Duration("timeout", 90*time.Second, "整体超时时间")

	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	transcoder := audio.NewTranscoder(cfg.Audio.Transcoder(), nil, logger)
	speechSvc := speech.NewService(cfg.OpenAI.Speech(), logger)

	var runErr error
	switch *mode {
	case "normalize":
		runErr = runNormalize(ctx, transcoder, *in, *out)
	case "mp3":
		runErr = runDeliver(ctx, transcoder, *in, *out)
	case "transcribe":
		runErr = runTranscribe(ctx, transcoder, speechSvc, *in, voice.Language(*lang))
	case "synthesize":
		runErr = runSynthesize(ctx, speechSvc, *text, voice.Language(*lang), *out)
	default:
		flag.Usage()
		log.Fatal().Msg("请通过 -mode 指定 normalize, mp3, transcribe 或 synthesize")
	}

	if runErr != nil {
		log.Fatal().Err(runErr).Str("mode", *mode).Str("kind", string(voice.KindOf(runErr))).Msg("执行失败")
	}
}

func requireFlag(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("-%s is required", name)
	}
	return nil
}

// runNormalize 转成 24kHz 单声道 PCM WAV 并打印格式
func runNormalize(ctx context.Context, t *audio.Transcoder, in, out string) error {
	if err := requireFlag("in", in); err != nil {
		return err
	}
	if err := requireFlag("out", out); err != nil {
		return err
	}

	input, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	normalized, err := t.Normalize(ctx, input)
	if err != nil {
		return err
	}
	defer normalized.Release()

	format, err := audio.InspectWAV(normalized.Bytes())
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, normalized.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	log.Info().
		Str("out", out).
		Uint16("channels", format.Channels).
		Uint32("sample_rate", format.SampleRate).
		Uint16("bits", format.BitsPerSample).
		Float64("seconds", format.Duration()).
		Msg("normalize 完成")
	return nil
}

// runDeliver WAV → MP3
func runDeliver(ctx context.Context, t *audio.Transcoder, in, out string) error {
	if err := requireFlag("in", in); err != nil {
		return err
	}
	if err := requireFlag("out", out); err != nil {
		return err
	}

	pcm, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	mp3, err := t.ToDeliveryFormat(ctx, pcm)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, mp3, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	log.Info().Str("out", out).Int("bytes", len(mp3)).Msg("mp3 转换完成")
	return nil
}

func runTranscribe(ctx context.Context, t *audio.Transcoder, svc *speech.Service, in string, lang voice.Language) error {
	if err := requireFlag("in", in); err != nil {
		return err
	}

	input, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	normalized, err := t.Normalize(ctx, input)
	if err != nil {
		return err
	}
	defer normalized.Release()

	transcript, err := svc.Transcribe(ctx, normalized.Bytes(), lang)
	if err != nil {
		return err
	}

	fmt.Println(transcript)
	return nil
}

func runSynthesize(ctx context.Context, svc *speech.Service, text string, lang voice.Language, out string) error {
	if err := requireFlag("text", text); err != nil {
		return err
	}
	if out == "" {
		out = fmt.Sprintf("tts_%s_%d.mp3", lang, time.Now().Unix())
	}

	mp3, err := svc.Synthesize(ctx, text, lang)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, mp3, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	log.Info().Str("out", out).Int("bytes", len(mp3)).Msg("TTS 合成完成")
	return nil
}
