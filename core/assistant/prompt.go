package assistant

import (
	"fmt"
	"strings"

	"github.com/trezcool/unichat/core/student"
)

// Prompt sections never list more entries than this.
const maxPromptEntries = 5

const (
	genericPrompt = `You are an academic assistant named UniChat. You help students with information
about their grades, schedules, finances and other academic matters.
Be polite and direct in your answers. If you do not have enough information,
ask for more details or suggest that the student contact the coordination office.`

	closingInstruction = `Be polite and direct in your answers. Use the information above to put your answers in context.
If you do not have enough information, ask for more details or suggest that the student contact the coordination office.`
)

// Compose builds the system prompt describing `sc` to the model.
// An empty context gets the generic persona prompt.
func Compose(sc student.Context) string {
	if sc.IsEmpty() {
		return genericPrompt
	}

	name := sc.DisplayName()
	var b strings.Builder
	fmt.Fprintf(&b, "You are an academic assistant named UniChat helping %s.\n\n", name)
	b.WriteString("Student information:\n")
	fmt.Fprintf(&b, "- Name: %s\n", name)
	fmt.Fprintf(&b, "- Course: %s\n", sc.Course)
	fmt.Fprintf(&b, "- Term: %s\n\n", sc.Term)

	if len(sc.Grades) > 0 {
		b.WriteString("Grades:\n")
		for _, g := range sc.Grades[:min(len(sc.Grades), maxPromptEntries)] {
			fmt.Fprintf(&b, "- %s: %s\n", g.Subject, g.Final)
		}
		b.WriteString("\n")
	}

	if len(sc.Schedule) > 0 {
		b.WriteString("Schedule:\n")
		for _, c := range sc.Schedule[:min(len(sc.Schedule), maxPromptEntries)] {
			fmt.Fprintf(&b, "- %s: %s %s - %s\n", c.Subject, c.Weekday, c.StartTime, c.EndTime)
		}
		b.WriteString("\n")
	}

	b.WriteString(closingInstruction)
	return b.String()
}
