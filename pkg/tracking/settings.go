package tracking

import (
	"math"

	"github.com/teslashibe/go-gazereader/pkg/bionic"
	"github.com/teslashibe/go-gazereader/pkg/opacity"
	"github.com/teslashibe/go-gazereader/pkg/pacing"
)

// Settings holds the reader-adjustable options. They can be changed at
// runtime without restarting the session.
type Settings struct {
	// Spotlight
	FocusRadius float64 `json:"focusRadius"` // px
	MinOpacity  float64 `json:"minOpacity"`
	MaxOpacity  float64 `json:"maxOpacity"`
	FalloffType string  `json:"falloffType"` // "gaussian" or "linear"

	// Paragraph focus
	BlurAmount       float64 `json:"blurAmount"` // px; 0 disables dimming
	LineGuideEnabled bool    `json:"lineGuideEnabled"`

	// Paced reading
	WordsPerPage       int `json:"wordsPerPage"`
	AdvanceSensitivity int `json:"advanceSensitivity"` // 1..10, 0 keeps the default threshold

	// Emphasis
	BionicEnabled   bool    `json:"bionicEnabled"`
	BionicIntensity float64 `json:"bionicIntensity"`
}

// DefaultSettings returns the out-of-the-box reader options.
func DefaultSettings() Settings {
	p := opacity.DefaultParams()
	return Settings{
		FocusRadius: p.Radius,
		MinOpacity:  p.Min,
		MaxOpacity:  p.Max,
		FalloffType: p.Falloff.String(),

		BlurAmount:       3,
		LineGuideEnabled: true,

		WordsPerPage: pacing.DefaultWordsPerPage,

		BionicIntensity: bionic.DefaultIntensity,
	}
}

// Validate checks every field and returns the first problem as a
// *SettingsError.
func (s Settings) Validate() error {
	switch {
	case !(s.FocusRadius > 0) || math.IsInf(s.FocusRadius, 0):
		return &SettingsError{Field: "focusRadius", Message: "must be a positive number of pixels"}
	case !(s.MinOpacity >= 0 && s.MinOpacity <= 1):
		return &SettingsError{Field: "minOpacity", Message: "must be between 0 and 1"}
	case !(s.MaxOpacity >= 0 && s.MaxOpacity <= 1):
		return &SettingsError{Field: "maxOpacity", Message: "must be between 0 and 1"}
	case s.MinOpacity > s.MaxOpacity:
		return &SettingsError{Field: "minOpacity", Message: "must not exceed maxOpacity"}
	case !(s.BlurAmount >= 0) || math.IsInf(s.BlurAmount, 0):
		return &SettingsError{Field: "blurAmount", Message: "must not be negative"}
	case s.WordsPerPage < 1:
		return &SettingsError{Field: "wordsPerPage", Message: "must be at least 1"}
	case s.AdvanceSensitivity < 0 || s.AdvanceSensitivity > 10:
		return &SettingsError{Field: "advanceSensitivity", Message: "must be between 1 and 10"}
	case !(s.BionicIntensity >= 0 && s.BionicIntensity <= 1):
		return &SettingsError{Field: "bionicIntensity", Message: "must be between 0 and 1"}
	}
	if _, err := opacity.ParseFalloff(s.FalloffType); err != nil {
		return &SettingsError{Field: "falloffType", Message: `must be "gaussian" or "linear"`}
	}
	return nil
}

// OpacityParams returns the spotlight configuration. Call on validated
// settings; an unknown falloff falls back to gaussian.
func (s Settings) OpacityParams() opacity.Params {
	f, _ := opacity.ParseFalloff(s.FalloffType)
	return opacity.Params{
		Radius:  s.FocusRadius,
		Min:     s.MinOpacity,
		Max:     s.MaxOpacity,
		Falloff: f,
	}
}

// AdvanceThreshold returns the word-advance threshold for the configured
// sensitivity.
func (s Settings) AdvanceThreshold() float64 {
	if s.AdvanceSensitivity == 0 {
		return pacing.DefaultAdvanceThreshold
	}
	return pacing.ThresholdForSensitivity(s.AdvanceSensitivity)
}

// Dimming reports whether non-focused paragraphs should be dimmed.
func (s Settings) Dimming() bool {
	return s.BlurAmount > 0
}
