package combined

// Level is the display level of a severity, matching common alert styles.
type Level string

// Levels.
const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Upper bounds (inclusive) of the lower three severities.
const (
	StableMax     = 30
	FineMax       = 60
	ConcerningMax = 80
)

// Severity describes how the combined index should be presented.
type Severity struct {
	Name     string `json:"name"`
	Level    Level  `json:"level"`
	Color    string `json:"color"`
	Briefing string `json:"briefing"`
}

var (
	stable = Severity{
		Name:     "stable",
		Level:    LevelSuccess,
		Color:    "#198754",
		Briefing: "Your current risk is very stable.",
	}
	fine = Severity{
		Name:     "fine",
		Level:    LevelInfo,
		Color:    "#0dcaf0",
		Briefing: "Your current risk is fine, but stay attentive.",
	}
	concerning = Severity{
		Name:     "concerning",
		Level:    LevelWarning,
		Color:    "#ffc107",
		Briefing: "Your current risk needs attention. Schedule pressure and high stress raise it; get more sleep and try light exercise or meditation.",
	}
	alert = Severity{
		Name:     "alert",
		Level:    LevelError,
		Color:    "#dc3545",
		Briefing: "Your current risk is at alert level. Act now: review every risk factor and draw up an improvement plan.",
	}
)

// Classify maps a combined index to its severity.
func Classify(combined int) Severity {
	switch {
	case combined <= StableMax:
		return stable
	case combined <= FineMax:
		return fine
	case combined <= ConcerningMax:
		return concerning
	default:
		return alert
	}
}
