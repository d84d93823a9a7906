package theme

import (
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	Morning   = "morning"
	Afternoon = "afternoon"
	Evening   = "evening"
	Night     = "night"
)

// Tokens is the palette for one part of the day.
type Tokens struct {
	Name         string
	Primary      string
	Secondary    string
	Accent       string
	Background   string
	Text         string
	Gradient     string
	HeroGradient string
}

var palettes = map[string]Tokens{
	Morning: {
		Name:         Morning,
		Primary:      "#F59E0B",
		Secondary:    "#FCD34D",
		Accent:       "#FBBF24",
		Background:   "from-amber-50 to-orange-50",
		Text:         "text-amber-900",
		Gradient:     "from-amber-500 to-orange-500",
		HeroGradient: "from-amber-900 via-orange-900 to-yellow-800",
	},
	Afternoon: {
		Name:         Afternoon,
		Primary:      "#3B82F6",
		Secondary:    "#60A5FA",
		Accent:       "#93C5FD",
		Background:   "from-blue-50 to-sky-50",
		Text:         "text-blue-900",
		Gradient:     "from-blue-500 to-sky-500",
		HeroGradient: "from-blue-900 via-sky-900 to-cyan-800",
	},
	Evening: {
		Name:         Evening,
		Primary:      "#8B5CF6",
		Secondary:    "#A78BFA",
		Accent:       "#C4B5FD",
		Background:   "from-purple-50 to-violet-50",
		Text:         "text-purple-900",
		Gradient:     "from-purple-500 to-violet-500",
		HeroGradient: "from-purple-900 via-violet-900 to-indigo-800",
	},
	Night: {
		Name:         Night,
		Primary:      "#1F2937",
		Secondary:    "#374151",
		Accent:       "#4B5563",
		Background:   "from-gray-900 to-slate-900",
		Text:         "text-gray-100",
		Gradient:     "from-gray-700 to-slate-700",
		HeroGradient: "from-slate-900 via-gray-900 to-black",
	},
}

// ForTime picks the palette for t's local hour: morning [06,12),
// afternoon [12,17), evening [17,21), night otherwise.
func ForTime(t time.Time) Tokens {
	switch h := t.Hour(); {
	case h >= 6 && h < 12:
		return palettes[Morning]
	case h >= 12 && h < 17:
		return palettes[Afternoon]
	case h >= 17 && h < 21:
		return palettes[Evening]
	default:
		return palettes[Night]
	}
}

// Named returns the palette by name.
func Named(name string) (Tokens, bool) {
	t, ok := palettes[name]
	return t, ok
}

func All() []Tokens {
	return []Tokens{palettes[Morning], palettes[Afternoon], palettes[Evening], palettes[Night]}
}

func (t Tokens) Title() string {
	return cases.Title(language.English).String(t.Name)
}
