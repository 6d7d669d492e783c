package surveys

import "time"

// Survey is a public question with a fixed set of answer options.
type Survey struct {
	ID           int64
	Question     string
	OwnerID      int64
	CreationDate time.Time
	OwnerName    string
	Options      []Option
}

// Option is one selectable answer of a survey.
type Option struct {
	ID       int64
	SurveyID int64
	Text     string
}

// OptionStat reports the response count and share for one option.
type OptionStat struct {
	OptionID   int64
	Text       string
	Count      int64
	Percentage int
}

// decisionKind classifies one step of an option reconciliation plan.
type decisionKind int

const (
	keepOption decisionKind = iota
	overwriteOption
	insertOption
)

// optionDecision is one step of the plan applied when a survey's options
// are replaced. Options that received responses are never deleted; the
// supplied texts overwrite them by position, extras become new rows, and
// surviving rows beyond the supplied list keep their text.
type optionDecision struct {
	kind     decisionKind
	optionID int64
	text     string
}

// planOptions computes the reconciliation plan for the surviving options
// (those that still have responses after the response-free ones were
// deleted) against the newly supplied texts.
func planOptions(surviving []Option, supplied []string) []optionDecision {
	plan := make([]optionDecision, 0, max(len(surviving), len(supplied)))
	for i, text := range supplied {
		if i < len(surviving) {
			plan = append(plan, optionDecision{kind: overwriteOption, optionID: surviving[i].ID, text: text})
			continue
		}
		plan = append(plan, optionDecision{kind: insertOption, text: text})
	}
	for i := len(supplied); i < len(surviving); i++ {
		plan = append(plan, optionDecision{kind: keepOption, optionID: surviving[i].ID})
	}
	return plan
}
