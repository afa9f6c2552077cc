package internal_transformer_google

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internal_transformer "github.com/vocalisai/api/call-api/internal/transformer"
	"github.com/vocalisai/pkg/commons"
	"github.com/vocalisai/pkg/utils"
)

func newTestLogger(t *testing.T) commons.Logger {
	t.Helper()
	logger, err := commons.NewApplicationLogger()
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return logger
}

func TestNewGoogleOption_NoCredentials(t *testing.T) {
	opt, err := NewGoogleOption(newTestLogger(t), internal_transformer.Credential{}, utils.Option{})
	assert.Error(t, err)
	assert.Nil(t, opt)
}

func TestNewGoogleOption_APIKeyAndProject(t *testing.T) {
	cred := internal_transformer.Credential{"key": "api-key", "project_id": "proj-1"}
	opt, err := NewGoogleOption(newTestLogger(t), cred, utils.Option{})
	require.NoError(t, err)
	assert.Len(t, opt.GetClientOptions(), 2)
	assert.Equal(t, "projects/proj-1/locations/global/recognizers/_", opt.GetRecognizer(nil))
}

func TestGetRecognizer_Region(t *testing.T) {
	cred := internal_transformer.Credential{"key": "api-key", "project_id": "proj-1"}
	opt, _ := NewGoogleOption(newTestLogger(t), cred, utils.Option{})

	rec := opt.GetRecognizer(utils.Option{"listen.region": "asia-south1"})
	assert.Equal(t, "projects/proj-1/locations/asia-south1/recognizers/_", rec)
}

func TestSpeechToTextOptions_Defaults(t *testing.T) {
	cred := internal_transformer.Credential{"key": "api-key"}
	opt, _ := NewGoogleOption(newTestLogger(t), cred, utils.Option{})

	cfg := opt.SpeechToTextOptions(nil)
	assert.Equal(t, []string{"en-US"}, cfg.LanguageCodes)
	assert.Equal(t, "long", cfg.Model)
	assert.True(t, cfg.Features.EnableAutomaticPunctuation)
	assert.Nil(t, cfg.Features.DiarizationConfig)
}

func TestSpeechToTextOptions_Overrides(t *testing.T) {
	cred := internal_transformer.Credential{"key": "api-key"}
	opt, _ := NewGoogleOption(newTestLogger(t), cred, utils.Option{})

	cfg := opt.SpeechToTextOptions(utils.Option{
		internal_transformer.OptionLanguage:    "en-IN, hi-IN",
		internal_transformer.OptionSTTModel:    "telephony",
		internal_transformer.OptionPunctuate:   false,
		internal_transformer.OptionDiarization: true,
	})
	assert.Equal(t, []string{"en-IN", "hi-IN"}, cfg.LanguageCodes)
	assert.Equal(t, "telephony", cfg.Model)
	assert.False(t, cfg.Features.EnableAutomaticPunctuation)
	assert.NotNil(t, cfg.Features.DiarizationConfig)
}

func TestTextToSpeechOptions_VoiceOverride(t *testing.T) {
	cred := internal_transformer.Credential{"key": "api-key"}
	opt, _ := NewGoogleOption(newTestLogger(t), cred, utils.Option{})

	voice, audioCfg := opt.TextToSpeechOptions(utils.Option{
		internal_transformer.OptionVoice: "en-GB-Neural2-A",
	})
	assert.Equal(t, "en-GB-Neural2-A", voice.Name)
	assert.EqualValues(t, 16000, audioCfg.SampleRateHertz)
}
