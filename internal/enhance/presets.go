package enhance

// Preset is a named, ready-made enhancement prompt.
type Preset struct {
	Name   string `json:"name"`
	Prompt string `json:"prompt"`
}

var stylePresets = []Preset{
	{
		Name:   "Standard Enhance",
		Prompt: DefaultPrompt,
	},
	{
		Name:   "Cinematic",
		Prompt: "Give this a cinematic look with dramatic lighting, deep shadows, and rich, moody colors. Add a slight film grain.",
	},
	{
		Name:   "Vintage",
		Prompt: "Apply a vintage film aesthetic. Add subtle grain, slightly faded colors, and warm tones characteristic of old photographs.",
	},
	{
		Name:   "Product Shot",
		Prompt: "Transform this into a minimalist product shot. Create a clean, bright, seamless background, sharp focus on the subject, and soft, natural-looking shadows.",
	},
}

// StylePresets returns the built-in prompt presets.
func StylePresets() []Preset {
	out := make([]Preset, len(stylePresets))
	copy(out, stylePresets)
	return out
}
