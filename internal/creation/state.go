// Package creation implements the four-step video creation wizard: a pure reducer over an
// immutable form state, plus the Flow that performs the submission side effects.
package creation

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/invisireel/backend/internal/models"
)

// MinScriptLength is the number of characters the script needs before leaving the first step.
const MinScriptLength = 50

// User-visible status messages.
const (
	MessageGenerated      = "Video generated successfully!"
	MessageGenerateFailed = "Error generating video. Please try again."
	DefaultTitle          = "Untitled Video"
)

var (
	// ErrValidation blocks a transition because the current step is incomplete.
	ErrValidation = errors.New("validation failed")
	// ErrBusy is returned for form changes while a submission is in flight.
	ErrBusy = errors.New("video is being generated")
	// ErrInvalidTransition is returned for actions the current step does not accept.
	ErrInvalidTransition = errors.New("action not allowed in current step")
)

// Step is a wizard position.
type Step string

const (
	StepScript       Step = "script"
	StepVoiceStyle   Step = "voice_style"
	StepMusicFilters Step = "music_filters"
	StepGenerated    Step = "generated"
)

// Index returns the 1-based position shown in the progress bar.
func (s Step) Index() int {
	switch s {
	case StepScript:
		return 1
	case StepVoiceStyle:
		return 2
	case StepMusicFilters:
		return 3
	case StepGenerated:
		return 4
	}
	return 0
}

// Form is everything the user has entered.
type Form struct {
	Title       string         `json:"title"`
	Script      string         `json:"script"`
	Category    string         `json:"category"`
	VoiceID     string         `json:"voice_id"`
	TemplateID  string         `json:"template_id"`
	MusicID     string         `json:"music_id"`
	MusicVolume float64        `json:"music_volume"`
	Filters     models.Filters `json:"filters"`
}

// GeneratedVideo is the result shown on the final step.
type GeneratedVideo struct {
	ID           *uuid.UUID         `json:"id,omitempty"`
	Title        string             `json:"title"`
	Status       models.VideoStatus `json:"status"`
	VideoURL     string             `json:"video_url"`
	ThumbnailURL string             `json:"thumbnail_url"`
}

// State is the whole wizard. Values are never mutated in place; Reduce returns a new one.
type State struct {
	Step       Step            `json:"step"`
	Form       Form            `json:"form"`
	Generating bool            `json:"generating"`
	Message    string          `json:"message,omitempty"`
	Video      *GeneratedVideo `json:"video,omitempty"`
	JobID      *uuid.UUID      `json:"job_id,omitempty"`
}

// NewState returns the empty wizard on the script step.
func NewState() State {
	return State{
		Step: StepScript,
		Form: Form{MusicVolume: 0.5, Filters: models.DefaultFilters()},
	}
}

// ActionType names a reducer input.
type ActionType string

const (
	ActionEdit              ActionType = "edit"
	ActionNext              ActionType = "next"
	ActionBack              ActionType = "back"
	ActionGenerate          ActionType = "generate"
	ActionGenerateFailed    ActionType = "generate_failed"
	ActionGenerateSucceeded ActionType = "generate_succeeded"
	ActionReset             ActionType = "reset"
)

// ClientAction reports whether t may be sent by a client; the generate outcomes are produced internally.
func (t ActionType) ClientAction() bool {
	switch t {
	case ActionEdit, ActionNext, ActionBack, ActionGenerate, ActionReset:
		return true
	}
	return false
}

// FormEdit is a partial form update; nil fields are left unchanged.
type FormEdit struct {
	Title       *string         `json:"title,omitempty"`
	Script      *string         `json:"script,omitempty"`
	Category    *string         `json:"category,omitempty"`
	VoiceID     *string         `json:"voice_id,omitempty"`
	TemplateID  *string         `json:"template_id,omitempty"`
	MusicID     *string         `json:"music_id,omitempty"`
	MusicVolume *float64        `json:"music_volume,omitempty"`
	Filters     *models.Filters `json:"filters,omitempty"`
}

// Action is one reducer input.
type Action struct {
	Type    ActionType      `json:"type"`
	Edit    *FormEdit       `json:"edit,omitempty"`
	Video   *GeneratedVideo `json:"-"`
	Message string          `json:"-"`
}

// Reduce applies a to s. On error the returned state is s unchanged.
func Reduce(s State, a Action) (State, error) {
	if s.Generating {
		switch a.Type {
		case ActionEdit, ActionNext, ActionBack, ActionGenerate:
			return s, ErrBusy
		}
	}

	switch a.Type {
	case ActionEdit:
		if s.Step == StepGenerated {
			return s, ErrInvalidTransition
		}
		if a.Edit == nil {
			return s, nil
		}
		next := s
		next.Form = applyEdit(s.Form, *a.Edit)
		next.Message = ""
		return next, nil

	case ActionNext:
		var target Step
		switch s.Step {
		case StepScript:
			if err := validateScriptStep(s.Form); err != nil {
				return s, err
			}
			target = StepVoiceStyle
		case StepVoiceStyle:
			if err := validateVoiceStep(s.Form); err != nil {
				return s, err
			}
			target = StepMusicFilters
		default:
			return s, ErrInvalidTransition
		}
		next := s
		next.Step = target
		next.Message = ""
		return next, nil

	case ActionBack:
		var target Step
		switch s.Step {
		case StepVoiceStyle:
			target = StepScript
		case StepMusicFilters:
			target = StepVoiceStyle
		default:
			return s, ErrInvalidTransition
		}
		next := s
		next.Step = target
		next.Message = ""
		return next, nil

	case ActionGenerate:
		if s.Step != StepVoiceStyle && s.Step != StepMusicFilters {
			return s, ErrInvalidTransition
		}
		if err := validateSubmission(s.Form); err != nil {
			return s, err
		}
		next := s
		next.Generating = true
		next.Message = ""
		return next, nil

	case ActionGenerateFailed:
		if !s.Generating {
			return s, ErrInvalidTransition
		}
		next := s
		next.Generating = false
		next.Message = a.Message
		if next.Message == "" {
			next.Message = MessageGenerateFailed
		}
		return next, nil

	case ActionGenerateSucceeded:
		if !s.Generating || a.Video == nil {
			return s, ErrInvalidTransition
		}
		video := *a.Video
		next := s
		next.Generating = false
		next.Step = StepGenerated
		next.Video = &video
		next.Message = MessageGenerated
		return next, nil

	case ActionReset:
		return NewState(), nil
	}
	return s, fmt.Errorf("%w: unknown action %q", ErrInvalidTransition, a.Type)
}

func applyEdit(f Form, e FormEdit) Form {
	if e.Title != nil {
		f.Title = *e.Title
	}
	if e.Script != nil {
		f.Script = *e.Script
	}
	if e.Category != nil {
		f.Category = *e.Category
	}
	if e.VoiceID != nil {
		f.VoiceID = *e.VoiceID
	}
	if e.TemplateID != nil {
		f.TemplateID = *e.TemplateID
	}
	if e.MusicID != nil {
		f.MusicID = *e.MusicID
	}
	if e.MusicVolume != nil {
		f.MusicVolume = *e.MusicVolume
	}
	if e.Filters != nil {
		f.Filters = *e.Filters
	}
	return f
}

func validateScriptStep(f Form) error {
	if n := utf8.RuneCountInString(f.Script); n < MinScriptLength {
		return fmt.Errorf("%w: script must be at least %d characters (currently %d)", ErrValidation, MinScriptLength, n)
	}
	if f.Category == "" {
		return fmt.Errorf("%w: select a category", ErrValidation)
	}
	return nil
}

func validateVoiceStep(f Form) error {
	if f.VoiceID == "" || f.TemplateID == "" {
		return fmt.Errorf("%w: select a voice and a template", ErrValidation)
	}
	return nil
}

func validateSubmission(f Form) error {
	if strings.TrimSpace(f.Script) == "" || f.VoiceID == "" || f.TemplateID == "" {
		return fmt.Errorf("%w: script, voice and template are required", ErrValidation)
	}
	return nil
}

// Summary returns the stored description: the first 100 characters of the script followed by an ellipsis.
func Summary(script string) string {
	runes := []rune(script)
	if len(runes) > 100 {
		runes = runes[:100]
	}
	return string(runes) + "..."
}

// TitleOrDefault returns the form title or the placeholder title.
func (f Form) TitleOrDefault() string {
	if t := strings.TrimSpace(f.Title); t != "" {
		return t
	}
	return DefaultTitle
}
