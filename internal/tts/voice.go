// Package tts turns summaries into spoken narration through Amazon Polly.
package tts

import (
	"github.com/aws/aws-sdk-go-v2/service/polly/types"
	"golang.org/x/text/language"
)

// supportedTags and voiceForTag are parallel: the matcher index picks the
// Polly voice for the closest supported language.
var supportedTags = []language.Tag{
	language.English,
	language.Spanish,
	language.French,
	language.German,
	language.Italian,
	language.Portuguese,
	language.Japanese,
	language.Korean,
	language.Chinese,
}

var voiceForTag = []types.VoiceId{
	types.VoiceIdBrian,
	types.VoiceIdLucia,
	types.VoiceIdLea,
	types.VoiceIdVicki,
	types.VoiceIdBianca,
	types.VoiceIdCamila,
	types.VoiceIdTakumi,
	types.VoiceIdSeoyeon,
	types.VoiceIdZhiyu,
}

var voiceMatcher = language.NewMatcher(supportedTags)

// VoiceFor picks the narration voice for an Accept-Language header. Unknown
// or empty headers get the fallback voice.
func VoiceFor(acceptLanguage string, fallback types.VoiceId) types.VoiceId {
	if acceptLanguage == "" {
		return fallback
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return fallback
	}
	_, index, conf := voiceMatcher.Match(tags...)
	if conf == language.No {
		return fallback
	}
	return voiceForTag[index]
}
