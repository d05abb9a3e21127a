package llm

import (
	"fmt"
	"strings"

	"github.com/PabloGalante/farum-panel/internal/domain"
)

const baseSystemPrompt = `
You are "Farum", a coding assistant embedded in the user's editor.

Your role:
- You answer questions about the code the user is working on.
- You explain, refactor, fix and optimize code when asked.
- You do NOT invent APIs. When unsure, say so and suggest how to verify.

General style guidelines:
- Answer in the SAME LANGUAGE as the user.
- Be concise and put code in fenced blocks tagged with the file language.
- Prefer small, focused changes over rewrites.
- Refer to symbols by name when the editor context lists them.
`

const explainInstructions = `
Intent: explain

Focus:
- Describe what the selected code does and why.
- Call out non-obvious behavior and edge cases.
`

const refactorInstructions = `
Intent: refactor

Focus:
- Propose a cleaner version that keeps behavior unchanged.
- Show the full replacement for the selected code.
`

const improveInstructions = `
Intent: improve

Focus:
- Find bugs and risky patterns in the selected code.
- Propose the smallest fix for each one.
`

const examplesInstructions = `
Intent: examples

Focus:
- Show short, runnable examples of how to use the selected code.
`

const sourcesInstructions = `
Intent: cite sources

Focus:
- Point to official documentation for the APIs involved.
`

const lineByLineInstructions = `
Intent: line by line

Focus:
- Walk through the selected code one line at a time.
`

// Prompt represents the system prompt + the content to send as "user".
type Prompt struct {
	System string
	User   string
}

// BuildPrompt builds the system prompt and the user content from the
// request and its editor state.
func BuildPrompt(req domain.ChatRequest) Prompt {
	system := baseSystemPrompt + intentInstructions(req.UserIntent)

	var user strings.Builder
	if ed := req.Editor; ed != nil {
		if ed.FilePath != "" {
			fmt.Fprintf(&user, "Active file: %s", ed.FilePath)
			if ed.FileLanguage != "" {
				fmt.Fprintf(&user, " (%s)", ed.FileLanguage)
			}
			user.WriteString("\n")
		}
		if len(ed.SymbolNames) > 0 {
			fmt.Fprintf(&user, "Symbols in scope: %s\n", strings.Join(ed.SymbolNames, ", "))
		}
		if ed.CodeBlock != "" {
			fmt.Fprintf(&user, "\nSelected code:\n```%s\n%s\n```\n", ed.FileLanguage, ed.CodeBlock)
		} else if ed.FileText != "" {
			fmt.Fprintf(&user, "\nFile contents:\n```%s\n%s\n```\n", ed.FileLanguage, ed.FileText)
		}
		user.WriteString("\n")
	}
	user.WriteString("User message:\n")
	user.WriteString(req.Message)

	return Prompt{
		System: system,
		User:   user.String(),
	}
}

func intentInstructions(intent domain.UserIntent) string {
	switch intent {
	case domain.IntentExplainCodeSelection:
		return explainInstructions
	case domain.IntentSuggestAlternateImplementation:
		return refactorInstructions
	case domain.IntentApplyCommonBestPractices, domain.IntentImproveCode:
		return improveInstructions
	case domain.IntentShowExamples:
		return examplesInstructions
	case domain.IntentCiteSources:
		return sourcesInstructions
	case domain.IntentExplainLineByLine:
		return lineByLineInstructions
	default:
		return ""
	}
}
