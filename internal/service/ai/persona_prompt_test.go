package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/hearthly/backend/internal/model/voice"
)

func TestComposeInstructionsDeterministic(t *testing.T) {
	flags := voice.Flags{GenZ: true, Sarcastic: true}
	for _, lang := range voice.SupportedLanguages() {
		first, err := ComposeInstructions(lang, flags)
		require.NoError(t, err)
		second, err := ComposeInstructions(lang, flags)
		require.NoError(t, err)
		assert.Equal(t, first, second, lang)
	}
}

func TestComposeInstructionsLayout(t *testing.T) {
	got, err := ComposeInstructions(voice.English, voice.Flags{})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(got, sharedInstructions))
	assert.Contains(t, got, languagePhrasing[voice.English])
	assert.True(t, strings.HasSuffix(got, toneInstructions[voice.English][voice.ToneCalm]))
	assert.NotContains(t, got, genzSlang[voice.English])
}

func TestComposeInstructionsTonePrecedence(t *testing.T) {
	cases := []struct {
		name  string
		flags voice.Flags
		want  voice.Tone
	}{
		{name: "baseline", flags: voice.Flags{}, want: voice.ToneCalm},
		{name: "sarcastic", flags: voice.Flags{Sarcastic: true}, want: voice.ToneSarcastic},
		{name: "shenanigan beats sarcastic", flags: voice.Flags{Sarcastic: true, Shenanigan: true}, want: voice.ToneShenanigan},
		{name: "seductive beats sarcastic", flags: voice.Flags{Sarcastic: true, Seductive: true}, want: voice.ToneSeductive},
		{name: "seductive beats shenanigan", flags: voice.Flags{Shenanigan: true, Seductive: true}, want: voice.ToneSeductive},
		{name: "all on", flags: voice.Flags{GenZ: true, Sarcastic: true, Shenanigan: true, Seductive: true}, want: voice.ToneSeductive},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, lang := range voice.SupportedLanguages() {
				got, err := ComposeInstructions(lang, tc.flags)
				require.NoError(t, err)

				for tone, text := range toneInstructions[lang] {
					if tone == tc.want {
						assert.Contains(t, got, text, lang)
					} else {
						assert.NotContains(t, got, text, "%s/%s", lang, tone)
					}
				}
			}
		})
	}
}

func TestComposeInstructionsGenZStacksOnEveryTone(t *testing.T) {
	for _, lang := range voice.SupportedLanguages() {
		for _, tone := range voice.Tones() {
			flags := flagsFor(tone)
			plain, err := ComposeInstructions(lang, flags)
			require.NoError(t, err)

			flags.GenZ = true
			slang, err := ComposeInstructions(lang, flags)
			require.NoError(t, err)

			assert.Equal(t, plain+blockSeparator+genzSlang[lang], slang, "%s/%s", lang, tone)
		}
	}
}

func TestComposeInstructionsRejectsUnknownLanguage(t *testing.T) {
	for _, lang := range []voice.Language{"", "fr", "EN", "en "} {
		got, err := ComposeInstructions(lang, voice.Flags{GenZ: true})
		assert.Empty(t, got)
		assert.True(t, voice.IsKind(err, voice.KindInvalidLanguage), "%q", lang)
	}
}

func TestTablesCoverEveryLanguage(t *testing.T) {
	for _, lang := range voice.SupportedLanguages() {
		assert.NotEmpty(t, languagePhrasing[lang], lang)
		assert.NotEmpty(t, genzSlang[lang], lang)
		for _, tone := range voice.Tones() {
			assert.NotEmpty(t, toneInstructions[lang][tone], "%s/%s", lang, tone)
		}
	}
}

func TestCatalog(t *testing.T) {
	catalog := Catalog(func(lang voice.Language) string { return "v-" + string(lang) })

	require.Len(t, catalog.Languages, 3)
	assert.Equal(t, "en", catalog.Languages[0].Code)
	assert.Equal(t, "v-pa", catalog.Languages[2].Voice)
	assert.Len(t, catalog.Personas, len(voice.Tones())+1)

	assert.Empty(t, Catalog(nil).Languages[1].Voice)
}

func flagsFor(tone voice.Tone) voice.Flags {
	switch tone {
	case voice.ToneSeductive:
		return voice.Flags{Seductive: true}
	case voice.ToneShenanigan:
		return voice.Flags{Shenanigan: true}
	case voice.ToneSarcastic:
		return voice.Flags{Sarcastic: true}
	default:
		return voice.Flags{}
	}
}
