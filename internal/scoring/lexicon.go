// Package scoring implements the heuristic answer scoring engine: text
// metrics, lexicon matching, mode-parameterized dimension scoring, grading,
// feedback and the lightweight per-minute scorer used while recording.
package scoring

// Severity ranks how much a filler detracts from clarity.
type Severity int

const (
	SeverityMild   Severity = 1
	SeverityMedium Severity = 2
	SeverityHeavy  Severity = 3
)

// FillerCategory separates vocalized hesitations from verbal crutches.
type FillerCategory string

const (
	CategoryVocal  FillerCategory = "vocal"
	CategoryVerbal FillerCategory = "verbal"
)

// FillerTerm is one entry of the filler lexicon.
type FillerTerm struct {
	Phrase   string
	Severity Severity
	Category FillerCategory
}

// Fillers is the tiered filler lexicon, heaviest tier first.
var Fillers = []FillerTerm{
	{"uhm", SeverityHeavy, CategoryVocal},
	{"um", SeverityHeavy, CategoryVocal},
	{"uh", SeverityHeavy, CategoryVocal},
	{"hmm", SeverityHeavy, CategoryVocal},
	{"er", SeverityHeavy, CategoryVocal},
	{"ah", SeverityHeavy, CategoryVocal},
	{"emm", SeverityHeavy, CategoryVocal},

	{"basically", SeverityMedium, CategoryVerbal},
	{"literally", SeverityMedium, CategoryVerbal},
	{"honestly", SeverityMedium, CategoryVerbal},
	{"actually", SeverityMedium, CategoryVerbal},
	{"i mean", SeverityMedium, CategoryVerbal},
	{"sort of", SeverityMedium, CategoryVerbal},
	{"kind of", SeverityMedium, CategoryVerbal},

	{"like", SeverityMild, CategoryVerbal},
	{"you know", SeverityMild, CategoryVerbal},
	{"so", SeverityMild, CategoryVerbal},
	{"well", SeverityMild, CategoryVerbal},
	{"okay", SeverityMild, CategoryVerbal},
	{"right", SeverityMild, CategoryVerbal},
}

// PowerVerbs are assertive, outcome-oriented action verbs.
var PowerVerbs = []string{
	"implemented", "led", "built", "designed", "optimized", "achieved",
	"delivered", "managed", "created", "developed", "improved", "increased",
	"reduced", "launched", "collaborated", "architected", "spearheaded",
	"mentored", "exceeded", "directed",
}

// ConfidenceVerbs drive behavioral confidence: the power verbs plus the
// outcome verbs written answers lean on.
var ConfidenceVerbs = append(append([]string{}, PowerVerbs...),
	"succeeded", "innovated", "resolved",
)

// PositiveWords raise tone and enthusiasm in voice mode.
var PositiveWords = []string{
	"excellent", "great", "proud", "excited", "passionate", "succeeds",
	"achieved", "thrilled",
}

// SpeechFillers are the crutch phrases penalized by behavioral clarity. Each
// phrase counts once no matter how often it repeats.
var SpeechFillers = []string{
	"um", "uh", "like", "you know", "basically", "literally", "actually",
}

// Phase names one step of the STAR method.
type Phase int

const (
	Situation Phase = iota
	Task
	Action
	Result
)

var phaseNames = [...]string{"situation", "task", "action", "result"}

func (p Phase) String() string {
	if p < Situation || p > Result {
		return "unknown"
	}
	return phaseNames[p]
}

// Phases lists the STAR phases in method order.
var Phases = []Phase{Situation, Task, Action, Result}

// STARLexicon holds indicator phrases per STAR phase.
type STARLexicon map[Phase][]string

// SpokenSTAR detects STAR phases in transcribed answers.
var SpokenSTAR = STARLexicon{
	Situation: {"situation", "context", "background", "when i was", "at my previous", "in my role"},
	Task:      {"task", "responsibility", "challenge", "goal", "objective", "assigned to"},
	Action:    {"i decided", "i implemented", "i built", "i led", "i worked", "i created", "i resolved"},
	Result:    {"result", "outcome", "achieved", "reduced by", "increased by", "improved by", "%", "percent"},
}

// WrittenSTAR detects STAR phases in typed answers.
var WrittenSTAR = STARLexicon{
	Situation: {"when", "while", "was", "working", "project", "time", "during", "at", "my"},
	Task:      {"responsible", "tasked", "needed", "had to", "required", "goal", "objective", "challenge"},
	Action:    {"decided", "implemented", "developed", "built", "led", "created", "initiated", "proposed", "organized", "coordinated", "resolved"},
	Result:    {"resulted", "achieved", "improved", "reduced", "increased", "%", "percent", "saved", "successfully", "outcome", "completed"},
}
