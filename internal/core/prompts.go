package core

import (
	"fmt"
	"strings"

	"apshelper.com/job-helper/internal/model"
)

const (
	chatSystemInstruction = `You are an expert assistant specializing in the Australian Public Service (APS) Integrated Leadership System (ILS).
You help job applicants with:

1. Understanding APS ILS competencies:
   - Achieves Results
   - Supports Productive Working Relationships
   - Displays Personal Drive and Integrity
   - Communicates with Influence
   - Shapes Strategic Thinking

2. Crafting responses to selection criteria
3. Structuring STAR (Situation, Task, Action, Result) responses
4. Understanding APS work level standards (APS 1-6, EL 1-2, SES)
5. General advice on APS job applications

Be professional, concise, and supportive.`

	taggingSystemInstruction = "You are a tagging assistant. Return only comma-separated tags."

	assessmentSystemInstruction = `You are an experienced APS selection panel member. You assess work examples
against the Integrated Leadership System (ILS) for a target classification.
Be specific, fair and constructive, and quote the candidate's own words when
pointing out evidence.`
)

func taggingPrompt(content string) string {
	return fmt.Sprintf(`Analyze this text related to APS job applications and provide 3-5 relevant tags.
Tags should be based on:
- APS ILS competencies (Achieves Results, Supports Productive Working Relationships, etc.)
- Work level (APS1-6, EL1-2, SES)
- Key skills or themes
- Document type

Respond ONLY with a comma-separated list of tags, nothing else.

Text to analyze:
%s`, content)
}

// chatPrompt wraps the user's message with retrieved ILS context, if any.
func chatPrompt(message, ilsContext string) string {
	if ilsContext == "" {
		return message
	}
	return fmt.Sprintf(`The following ILS behaviours may be relevant to the question:

--- CONTEXT START ---
%s
--- CONTEXT END ---

%s`, ilsContext, message)
}

func assessmentPrompt(exampleText, level string, refs []model.ILSReference) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Target classification: %s\n\n", level)

	if len(refs) > 0 {
		sb.WriteString("ILS behaviours to assess against:\n")
		for _, r := range refs {
			sb.WriteString(formatReference(r))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Work example:\n")
	sb.WriteString(exampleText)
	sb.WriteString(`

Provide:
1. The ILS capabilities and behaviours the example demonstrates, with evidence.
2. Whether it meets the expectations of the target classification, and why.
3. Gaps or missing STAR elements (Situation, Task, Action, Result).
4. Concrete suggestions to strengthen the example.`)
	return sb.String()
}

func formatReference(r model.ILSReference) string {
	return fmt.Sprintf("- %s / %s (%s): %s", r.CapabilityName, r.Behaviour, r.APSLevel, r.Description)
}

// ParseTags splits a comma-separated AI reply into trimmed, non-empty tags.
func ParseTags(reply string) []string {
	tags := []string{}
	for _, t := range strings.Split(reply, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
