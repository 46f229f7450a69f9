package template

import (
	"fmt"
	"strings"

	"github.com/tgienger/rooted/internal/errs"
)

// Validate checks the invariants instantiation relies on. All problems are
// reported in one validation error.
//
// Connections to unknown uids are not an error here; the instantiator skips
// and counts them.
func (t *Template) Validate() error {
	var problems []string
	seen := make(map[string]bool, len(t.Blocks))
	starts := 0

	for i, b := range t.Blocks {
		m := b.Header()
		if m.UID == "" {
			problems = append(problems, fmt.Sprintf("block %d has no uid", i))
		} else if seen[m.UID] {
			problems = append(problems, "duplicate uid "+m.UID)
		}
		seen[m.UID] = true

		switch v := b.(type) {
		case StartBlock:
			starts++
		case TaskBlock:
			if v.Duration < 0 {
				problems = append(problems, "task "+m.UID+" has a negative duration")
			}
			if v.RiskFactor < 0 {
				problems = append(problems, "task "+m.UID+" has a negative risk factor")
			}
		case WaitBlock:
			if v.DelayDays < 0 {
				problems = append(problems, "wait "+m.UID+" has a negative delay")
			}
		case FilterBlock:
			problems = append(problems, t.filterProblems(v)...)
		}
	}

	switch {
	case starts == 0:
		problems = append(problems, "no start block")
	case starts > 1:
		problems = append(problems, "more than one start block")
	}

	if len(problems) > 0 {
		return errs.Validation("validate template", "%s", strings.Join(problems, "; "))
	}
	return nil
}

func (t *Template) filterProblems(f FilterBlock) []string {
	var problems []string
	uid := f.Header().UID
	if f.QuestionUID == "" {
		problems = append(problems, "filter "+uid+" has no question")
	} else if q, ok := t.Block(f.QuestionUID); !ok {
		problems = append(problems, "filter "+uid+" refers to unknown block "+f.QuestionUID)
	} else if !q.Kind().Answers() {
		problems = append(problems, "filter "+uid+" refers to "+string(q.Kind())+" block "+f.QuestionUID+", which records no answer")
	}
	if _, ok := ParseOperator(string(f.Operator)); !ok {
		problems = append(problems, "filter "+uid+" has unknown operator "+string(f.Operator))
	}
	if strings.TrimSpace(f.Value) == "" {
		problems = append(problems, "filter "+uid+" has no comparison value")
	}
	return problems
}
