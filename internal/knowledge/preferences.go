package knowledge

// Preferences shape how answers are generated for a tenant.
type Preferences struct {
	Mode            string `json:"mode"`
	Tone            string `json:"tone"`
	RefinementLevel string `json:"refinement_level"`
	Model           string `json:"model"`
}

// DefaultPreferences returns the preferences used when a tenant has no overrides.
func DefaultPreferences() Preferences {
	return Preferences{
		Mode:            "productivity",
		Tone:            "supportive",
		RefinementLevel: "standard",
		Model:           "gpt-4o",
	}
}

// PreferenceOverrides holds the fields a tenant has explicitly set.
// A nil field means "use the default".
type PreferenceOverrides struct {
	Mode            *string `json:"mode,omitempty"`
	Tone            *string `json:"tone,omitempty"`
	RefinementLevel *string `json:"refinement_level,omitempty"`
	Model           *string `json:"model,omitempty"`
}

// Merge applies the overrides that are present over defaults.
func Merge(defaults Preferences, o PreferenceOverrides) Preferences {
	out := defaults
	if o.Mode != nil {
		out.Mode = *o.Mode
	}
	if o.Tone != nil {
		out.Tone = *o.Tone
	}
	if o.RefinementLevel != nil {
		out.RefinementLevel = *o.RefinementLevel
	}
	if o.Model != nil {
		out.Model = *o.Model
	}
	return out
}

// Apply returns o updated with every field present in update.
func (o PreferenceOverrides) Apply(update PreferenceOverrides) PreferenceOverrides {
	if update.Mode != nil {
		o.Mode = update.Mode
	}
	if update.Tone != nil {
		o.Tone = update.Tone
	}
	if update.RefinementLevel != nil {
		o.RefinementLevel = update.RefinementLevel
	}
	if update.Model != nil {
		o.Model = update.Model
	}
	return o
}
