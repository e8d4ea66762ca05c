package score

// ClearType is the numeric lamp code denoting clear quality, as stored in
// the play databases.
type ClearType int

const (
	ClearNoPlay ClearType = iota
	ClearFailed
	ClearAssistEasy
	ClearLightAssistEasy
	ClearEasy
	ClearNormal
	ClearHard
	ClearExHard
	ClearFullCombo
	ClearPerfect
	ClearMax
)

var clearNames = map[ClearType]string{
	ClearNoPlay:          "NoPlay",
	ClearFailed:          "Failed",
	ClearAssistEasy:      "AssistEasy",
	ClearLightAssistEasy: "LightAssistEasy",
	ClearEasy:            "Easy",
	ClearNormal:          "Normal",
	ClearHard:            "Hard",
	ClearExHard:          "ExHard",
	ClearFullCombo:       "FullCombo",
	ClearPerfect:         "Perfect",
	ClearMax:             "Max",
}

// String returns the canonical lamp name, "Unknown" for codes outside the
// vocabulary.
func (c ClearType) String() string {
	if name, ok := clearNames[c]; ok {
		return name
	}
	return "Unknown"
}
