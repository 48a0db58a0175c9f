package assistant

import (
	"fmt"
	"strings"

	"github.com/trezcool/unichat/core/student"
)

// Roll-up answers never list more entries than this.
const maxRollupEntries = 3

// Keyword classes, scanned in this order: the first class found in the question wins.
var (
	gradeKeywords    = []string{"grade", "evaluation", "exam", "nota", "avaliação", "prova"}
	scheduleKeywords = []string{"schedule", "class", "subject", "horário", "aula", "disciplina"}
	billingKeywords  = []string{"tuition", "financial", "payment", "mensalidade", "financeiro", "pagamento"}
)

// Simulate answers `question` from `sc` alone, without a model.
// It never fails and always returns a non-empty answer.
func Simulate(question string, sc student.Context) string {
	q := strings.ToLower(question)
	name := sc.DisplayName()

	switch {
	case containsAny(q, gradeKeywords):
		return gradesAnswer(q, name, sc.Grades)
	case containsAny(q, scheduleKeywords):
		return scheduleAnswer(q, name, sc.Schedule)
	case containsAny(q, billingKeywords):
		return billingAnswer(name, sc.Billing)
	default:
		return fmt.Sprintf("Hello %s! I understood your question about '%s'. How can I help you further? "+
			"You can ask about your grades, class schedule, tuition or other academic matters.", name, question)
	}
}

func gradesAnswer(q, name string, grades []student.Grade) string {
	if len(grades) == 0 {
		return fmt.Sprintf("Hello %s! I could not find any grades for you in the system. "+
			"Please contact the registrar's office for more details.", name)
	}
	for _, g := range grades {
		if mentions(q, g.Subject) {
			return fmt.Sprintf("Hello %s! Your grade in %s is %s.", name, g.Subject, g.Final)
		}
	}

	pairs := make([]string, 0, maxRollupEntries)
	for _, g := range grades[:min(len(grades), maxRollupEntries)] {
		pairs = append(pairs, fmt.Sprintf("%s: %s", g.Subject, g.Final))
	}
	return fmt.Sprintf("Hello %s! You have the following grades on record: %s", name, strings.Join(pairs, ", "))
}

func scheduleAnswer(q, name string, classes []student.Class) string {
	if len(classes) == 0 {
		return fmt.Sprintf("Hello %s! I could not find your class schedule in the system. "+
			"Please check with the coordination office.", name)
	}
	for _, c := range classes {
		if mentions(q, c.Subject) {
			return fmt.Sprintf("Hello %s! Your %s class is on %s from %s to %s in room %s.",
				name, c.Subject, c.Weekday, c.StartTime, c.EndTime, c.Room)
		}
	}

	lines := make([]string, 0, maxRollupEntries)
	for _, c := range classes[:min(len(classes), maxRollupEntries)] {
		lines = append(lines, fmt.Sprintf("%s: %s %s-%s", c.Subject, c.Weekday, c.StartTime, c.EndTime))
	}
	return fmt.Sprintf("Hello %s! Your class schedule is: %s", name, strings.Join(lines, "; "))
}

func billingAnswer(name string, billing []student.Billing) string {
	if len(billing) == 0 {
		return fmt.Sprintf("Hello %s! I could not find any financial information in the system. "+
			"Please contact the financial office.", name)
	}
	b := billing[0]
	return fmt.Sprintf("Hello %s! Your next tuition payment of R$%s is due on %s and its status is %s.",
		name, b.Amount, b.DueDate, b.Status)
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// mentions reports whether the lowercased question `q` names `subject`.
func mentions(q string, subject student.Text) bool {
	s := strings.ToLower(strings.TrimSpace(subject.String()))
	return s != "" && strings.Contains(q, s)
}
