package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/polly/types"
	"github.com/google/uuid"

	"server/internal/domain"
)

// maxSpeechChars bounds the text sent to Polly. The neural engine rejects
// inputs above 3000 billed characters.
const maxSpeechChars = 3000

// SpeechSynthesizer is the slice of the Polly client the narrator uses.
type SpeechSynthesizer interface {
	SynthesizeSpeech(ctx context.Context, params *polly.SynthesizeSpeechInput, optFns ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error)
}

// AudioWriter persists a synthesized file and returns its stored name.
type AudioWriter interface {
	Write(ctx context.Context, name string, data []byte) (string, error)
}

// Narrator synthesizes speech for summaries and stores the resulting mp3.
type Narrator struct {
	client       SpeechSynthesizer
	store        AudioWriter
	defaultVoice types.VoiceId
}

func NewNarrator(client SpeechSynthesizer, store AudioWriter, defaultVoice string) *Narrator {
	voice := types.VoiceId(strings.TrimSpace(defaultVoice))
	if voice == "" {
		voice = types.VoiceIdBrian
	}
	return &Narrator{client: client, store: store, defaultVoice: voice}
}

// Narrate synthesizes the text with the voice matching acceptLanguage, writes
// the mp3 to the audio store, and returns the stored file name.
func (n *Narrator) Narrate(ctx context.Context, text, acceptLanguage string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("tts: nothing to narrate")
	}
	if runes := []rune(text); len(runes) > maxSpeechChars {
		text = string(runes[:maxSpeechChars])
	}

	out, err := n.client.SynthesizeSpeech(ctx, &polly.SynthesizeSpeechInput{
		Text:         aws.String(text),
		OutputFormat: types.OutputFormatMp3,
		VoiceId:      VoiceFor(acceptLanguage, n.defaultVoice),
		Engine:       types.EngineNeural,
	})
	if err != nil {
		return "", fmt.Errorf("%w: polly: %v", domain.ErrProviderFailure, err)
	}
	defer func() {
		_ = out.AudioStream.Close()
	}()

	audio, err := io.ReadAll(out.AudioStream)
	if err != nil {
		return "", fmt.Errorf("%w: polly: read audio stream: %v", domain.ErrProviderFailure, err)
	}

	name := fmt.Sprintf("audio_%s.mp3", uuid.NewString())
	stored, err := n.store.Write(ctx, name, audio)
	if err != nil {
		return "", fmt.Errorf("tts: store audio: %w", err)
	}
	return stored, nil
}
