package tts

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/polly/types"

	"server/internal/domain"
)

type stubSynthesizer struct {
	gotInput *polly.SynthesizeSpeechInput
	audio    string
	err      error
}

func (s *stubSynthesizer) SynthesizeSpeech(_ context.Context, params *polly.SynthesizeSpeechInput, _ ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error) {
	s.gotInput = params
	if s.err != nil {
		return nil, s.err
	}
	return &polly.SynthesizeSpeechOutput{
		AudioStream: io.NopCloser(strings.NewReader(s.audio)),
	}, nil
}

type memWriter struct {
	gotName string
	gotData []byte
	err     error
}

func (m *memWriter) Write(_ context.Context, name string, data []byte) (string, error) {
	m.gotName = name
	m.gotData = data
	return name, m.err
}

func TestNarrateStoresMP3(t *testing.T) {
	synth := &stubSynthesizer{audio: "fake mp3"}
	store := &memWriter{}
	n := NewNarrator(synth, store, "Brian")

	name, err := n.Narrate(context.Background(), "a spoken summary", "")
	if err != nil {
		t.Fatalf("Narrate() error = %v", err)
	}
	if !strings.HasPrefix(name, "audio_") || !strings.HasSuffix(name, ".mp3") {
		t.Fatalf("name = %q, want audio_<uuid>.mp3", name)
	}
	if store.gotName != name {
		t.Fatalf("stored name = %q, returned %q", store.gotName, name)
	}
	if string(store.gotData) != "fake mp3" {
		t.Fatalf("stored data = %q", store.gotData)
	}

	in := synth.gotInput
	if in.OutputFormat != types.OutputFormatMp3 {
		t.Fatalf("output format = %v", in.OutputFormat)
	}
	if in.Engine != types.EngineNeural {
		t.Fatalf("engine = %v", in.Engine)
	}
	if in.VoiceId != types.VoiceIdBrian {
		t.Fatalf("voice = %v", in.VoiceId)
	}
	if *in.Text != "a spoken summary" {
		t.Fatalf("text = %q", *in.Text)
	}
}

func TestNarrateTruncatesLongText(t *testing.T) {
	synth := &stubSynthesizer{audio: "x"}
	n := NewNarrator(synth, &memWriter{}, "")

	if _, err := n.Narrate(context.Background(), strings.Repeat("a", maxSpeechChars+500), ""); err != nil {
		t.Fatalf("Narrate() error = %v", err)
	}
	if got := len(*synth.gotInput.Text); got != maxSpeechChars {
		t.Fatalf("sent %d chars, want %d", got, maxSpeechChars)
	}
}

func TestNarrateRejectsEmptyText(t *testing.T) {
	n := NewNarrator(&stubSynthesizer{}, &memWriter{}, "")
	if _, err := n.Narrate(context.Background(), "   ", ""); err == nil {
		t.Fatal("expected error for empty text")
	}
}

func TestNarratePollyFailure(t *testing.T) {
	n := NewNarrator(&stubSynthesizer{err: errors.New("throttled")}, &memWriter{}, "")
	if _, err := n.Narrate(context.Background(), "text", ""); !errors.Is(err, domain.ErrProviderFailure) {
		t.Fatalf("error = %v, want ErrProviderFailure", err)
	}
}

func TestVoiceFor(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   types.VoiceId
	}{
		{name: "empty header uses fallback", header: "", want: types.VoiceIdBrian},
		{name: "english", header: "en-US,en;q=0.9", want: types.VoiceIdBrian},
		{name: "spanish", header: "es-ES,es;q=0.9,en;q=0.5", want: types.VoiceIdLucia},
		{name: "german", header: "de", want: types.VoiceIdVicki},
		{name: "japanese", header: "ja-JP", want: types.VoiceIdTakumi},
		{name: "garbage uses fallback", header: ";;;", want: types.VoiceIdBrian},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := VoiceFor(tc.header, types.VoiceIdBrian); got != tc.want {
				t.Fatalf("VoiceFor(%q) = %v, want %v", tc.header, got, tc.want)
			}
		})
	}
}
