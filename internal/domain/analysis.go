package domain

// PitchAngle is one suggested way to pitch the prospect to a show.
type PitchAngle struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// FitAnalysis is the AI-generated fit assessment for one podcast.
// Produced by the matching backend; the engine never mutates it.
type FitAnalysis struct {
	Description string       `json:"description"`           // Cleaned show description
	FitReasons  []string     `json:"fit_reasons"`           // Ordered, strongest first
	PitchAngles []PitchAngle `json:"pitch_angles,omitempty"`
}
