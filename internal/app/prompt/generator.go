// Package prompt turns panel interactions into prompt text and user intents.
// Everything here is pure.
package prompt

import (
	"strings"

	"github.com/PabloGalante/farum-panel/internal/domain"
)

const helpText = `I'm Farum, your coding assistant in the editor. You can:

- Ask me anything about your code, or general software questions.
- Select code and right click to Explain, Refactor, Fix or Optimize it.
- Click a suggested follow-up under any answer to dig deeper.

Quick actions:
- /clear: start a fresh conversation in this tab.
- /help: show this message.`

var contextMenuPrompts = map[domain.EditorContextCommand]string{
	domain.CommandExplainCode:  "Explain selected code",
	domain.CommandRefactorCode: "Refactor selected code",
	domain.CommandFixCode:      "Fix selected code",
	domain.CommandOptimizeCode: "Optimize selected code",
}

var onboardingPrompts = map[domain.OnboardingInteractionType]string{
	domain.OnboardingHelpClicked: "What can Farum help me with?",
	domain.OnboardingStartChat:   "Help me get started with this project",
}

// Generator implements domain.PromptGenerator.
type Generator struct{}

func NewGenerator() Generator {
	return Generator{}
}

func (Generator) GenerateForContextMenuCommand(cmd domain.EditorContextCommand) string {
	if p, ok := contextMenuPrompts[cmd]; ok {
		return p
	}
	return ""
}

func (Generator) GenerateForOnboardingInteraction(in domain.OnboardingInteraction) string {
	if p, ok := onboardingPrompts[in.Type]; ok {
		return p
	}
	return ""
}

func (Generator) GenerateHelpText() string {
	return helpText
}

// Recognizer implements domain.IntentRecognizer with keyword matching.
type Recognizer struct{}

func NewRecognizer() Recognizer {
	return Recognizer{}
}

var promptKeywords = []struct {
	keywords []string
	intent   domain.UserIntent
}{
	{[]string{"explain"}, domain.IntentExplainCodeSelection},
	{[]string{"refactor"}, domain.IntentSuggestAlternateImplementation},
	{[]string{"fix"}, domain.IntentApplyCommonBestPractices},
	{[]string{"optimize", "optimise"}, domain.IntentImproveCode},
}

// FromPromptMessage matches on the first word, so "fix this" is a fix but
// "how do I fix this" is not.
func (Recognizer) FromPromptMessage(message string) domain.UserIntent {
	lowered := strings.ToLower(strings.TrimSpace(message))
	if lowered == "" {
		return ""
	}
	for _, rule := range promptKeywords {
		for _, k := range rule.keywords {
			if strings.HasPrefix(lowered, k) {
				return rule.intent
			}
		}
	}
	return ""
}

func (Recognizer) FromContextMenuCommand(cmd domain.EditorContextCommand) domain.UserIntent {
	switch cmd {
	case domain.CommandExplainCode:
		return domain.IntentExplainCodeSelection
	case domain.CommandRefactorCode:
		return domain.IntentSuggestAlternateImplementation
	case domain.CommandFixCode:
		return domain.IntentApplyCommonBestPractices
	case domain.CommandOptimizeCode:
		return domain.IntentImproveCode
	default:
		return ""
	}
}

func (Recognizer) FromOnboardingInteraction(domain.OnboardingInteraction) domain.UserIntent {
	return ""
}

func (Recognizer) FromFollowUpType(t domain.FollowUpType) domain.UserIntent {
	switch t {
	case domain.FollowUpAlternatives:
		return domain.IntentSuggestAlternateImplementation
	case domain.FollowUpCommonPractices:
		return domain.IntentApplyCommonBestPractices
	case domain.FollowUpImprovements:
		return domain.IntentImproveCode
	case domain.FollowUpMoreExamples:
		return domain.IntentShowExamples
	case domain.FollowUpCiteSources:
		return domain.IntentCiteSources
	case domain.FollowUpLineByLine:
		return domain.IntentExplainLineByLine
	default:
		return ""
	}
}
