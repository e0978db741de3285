package session

// Stage is the phase of the overall game.
type Stage int

const (
	StageBefore Stage = iota
	StageBegin
	StageRound
	StageFinal
	StageAfter
)

var stageNames = map[string]Stage{
	"BEFORE": StageBefore,
	"BEGIN":  StageBegin,
	"ROUND":  StageRound,
	"FINAL":  StageFinal,
	"AFTER":  StageAfter,
}

// ParseStage maps a wire stage name to a Stage.
func ParseStage(s string) (Stage, bool) {
	st, ok := stageNames[s]
	return st, ok
}

func (s Stage) String() string {
	switch s {
	case StageBegin:
		return "begin"
	case StageRound:
		return "round"
	case StageFinal:
		return "final"
	case StageAfter:
		return "after"
	default:
		return "before"
	}
}
