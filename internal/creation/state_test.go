package creation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func str(s string) *string { return &s }

func edit(t *testing.T, s State, e FormEdit) State {
	t.Helper()
	next, err := Reduce(s, Action{Type: ActionEdit, Edit: &e})
	require.NoError(t, err)
	return next
}

func readyForVoice(t *testing.T) State {
	t.Helper()
	s := edit(t, NewState(), FormEdit{Script: str(strings.Repeat("a", 60)), Category: str("educational")})
	s, err := Reduce(s, Action{Type: ActionNext})
	require.NoError(t, err)
	return s
}

func TestNewState(t *testing.T) {
	s := NewState()
	assert.Equal(t, StepScript, s.Step)
	assert.Equal(t, 1, s.Step.Index())
	assert.Equal(t, 0.5, s.Form.MusicVolume)
	assert.Equal(t, 100, s.Form.Filters.Brightness)
	assert.False(t, s.Generating)
}

func TestNextFromScriptRequiresLengthAndCategory(t *testing.T) {
	tests := []struct {
		name     string
		script   string
		category string
		wantErr  bool
	}{
		{"tooShort", strings.Repeat("a", 49), "educational", true},
		{"exactlyMinimum", strings.Repeat("a", 50), "educational", false},
		{"noCategory", strings.Repeat("a", 60), "", true},
		{"multibyteCountsRunes", strings.Repeat("é", 50), "motivation", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := edit(t, NewState(), FormEdit{Script: str(tt.script), Category: str(tt.category)})
			next, err := Reduce(s, Action{Type: ActionNext})
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				assert.Equal(t, s, next)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, StepVoiceStyle, next.Step)
		})
	}
}

func TestNextFromVoiceRequiresVoiceAndTemplate(t *testing.T) {
	s := readyForVoice(t)
	_, err := Reduce(s, Action{Type: ActionNext})
	assert.ErrorIs(t, err, ErrValidation)

	s = edit(t, s, FormEdit{VoiceID: str("voice1"), TemplateID: str("motivation")})
	s, err = Reduce(s, Action{Type: ActionNext})
	require.NoError(t, err)
	assert.Equal(t, StepMusicFilters, s.Step)

	_, err = Reduce(s, Action{Type: ActionNext})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestBackKeepsForm(t *testing.T) {
	s := readyForVoice(t)
	s = edit(t, s, FormEdit{VoiceID: str("voice1"), TemplateID: str("motivation")})
	s, err := Reduce(s, Action{Type: ActionNext})
	require.NoError(t, err)

	s, err = Reduce(s, Action{Type: ActionBack})
	require.NoError(t, err)
	assert.Equal(t, StepVoiceStyle, s.Step)
	s, err = Reduce(s, Action{Type: ActionBack})
	require.NoError(t, err)
	assert.Equal(t, StepScript, s.Step)
	assert.Equal(t, "voice1", s.Form.VoiceID)

	_, err = Reduce(s, Action{Type: ActionBack})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestGenerateLifecycle(t *testing.T) {
	s := readyForVoice(t)
	_, err := Reduce(s, Action{Type: ActionGenerate})
	assert.ErrorIs(t, err, ErrValidation)

	s = edit(t, s, FormEdit{VoiceID: str("voice1"), TemplateID: str("motivation")})
	s, err = Reduce(s, Action{Type: ActionGenerate})
	require.NoError(t, err)
	assert.True(t, s.Generating)

	for _, typ := range []ActionType{ActionEdit, ActionNext, ActionBack, ActionGenerate} {
		_, err := Reduce(s, Action{Type: typ, Edit: &FormEdit{Title: str("x")}})
		assert.ErrorIs(t, err, ErrBusy, typ)
	}

	failed, err := Reduce(s, Action{Type: ActionGenerateFailed})
	require.NoError(t, err)
	assert.False(t, failed.Generating)
	assert.Equal(t, StepVoiceStyle, failed.Step)
	assert.Equal(t, MessageGenerateFailed, failed.Message)

	done, err := Reduce(s, Action{Type: ActionGenerateSucceeded, Video: &GeneratedVideo{Title: "T", VideoURL: PlaceholderVideoURL}})
	require.NoError(t, err)
	assert.Equal(t, StepGenerated, done.Step)
	assert.Equal(t, 4, done.Step.Index())
	assert.Equal(t, MessageGenerated, done.Message)
	require.NotNil(t, done.Video)
	assert.Equal(t, PlaceholderVideoURL, done.Video.VideoURL)

	_, err = Reduce(done, Action{Type: ActionBack})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = Reduce(done, Action{Type: ActionEdit, Edit: &FormEdit{Title: str("x")}})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	reset, err := Reduce(done, Action{Type: ActionReset})
	require.NoError(t, err)
	assert.Equal(t, NewState(), reset)
}

func TestGenerateOutcomeRequiresSubmission(t *testing.T) {
	_, err := Reduce(NewState(), Action{Type: ActionGenerateFailed})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = Reduce(NewState(), Action{Type: ActionGenerateSucceeded, Video: &GeneratedVideo{}})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestGenerateRejectsWhitespaceScript(t *testing.T) {
	s := NewState()
	s.Step = StepVoiceStyle
	s.Form.Script = "   "
	s.Form.VoiceID = "voice1"
	s.Form.TemplateID = "motivation"
	_, err := Reduce(s, Action{Type: ActionGenerate})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSummaryAndTitle(t *testing.T) {
	assert.Equal(t, "short...", Summary("short"))
	assert.Equal(t, strings.Repeat("b", 100)+"...", Summary(strings.Repeat("b", 150)))
	assert.Equal(t, DefaultTitle, Form{Title: "  "}.TitleOrDefault())
	assert.Equal(t, "Mine", Form{Title: "Mine"}.TitleOrDefault())
}

func TestClientAction(t *testing.T) {
	assert.True(t, ActionGenerate.ClientAction())
	assert.False(t, ActionGenerateSucceeded.ClientAction())
	assert.False(t, ActionType("jump").ClientAction())
}
