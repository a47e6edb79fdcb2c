package resolver

import (
	"fmt"
	"strings"

	"handbook-rag/internal/models"
)

// followupPhrases mark a question as a follow-up to the previous turn.
var followupPhrases = []string{
	"what should i do then",
	"what should i do",
	"then what",
	"what then",
	"alternatives",
	"instead",
}

func isFollowUp(question string) bool {
	lower := strings.ToLower(question)
	for _, phrase := range followupPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// rewriteFollowUp embeds the prior turn verbatim so retrieval and
// generation see the full exchange. The original question is kept
// untouched for the context store and the response.
func rewriteFollowUp(turn models.Turn, question string) string {
	return fmt.Sprintf("Previous question: %s\nPrevious answer: %s\nFollow-up question: %s",
		turn.LastQuestion, turn.LastAnswer, question)
}

// cannedFollowups maps question keywords to the follow-up questions
// users most commonly ask next. A plain lookup table on purpose; no
// model call involved.
var cannedFollowups = []struct {
	keywords  []string
	questions []string
}{
	{
		keywords: []string{"license", "licence"},
		questions: []string{
			"What documents do I need to bring?",
			"How much does it cost?",
			"How long is the test?",
		},
	},
	{
		keywords: []string{"tired", "fatigue"},
		questions: []string{
			"What are the signs of driver fatigue?",
			"How can I prevent getting tired while driving?",
			"What should I do if I feel drowsy?",
		},
	},
	{
		keywords: []string{"speed"},
		questions: []string{
			"What are the penalties for speeding?",
			"Are there different speed limits for different vehicles?",
			"How do weather conditions affect speed limits?",
		},
	},
}

var defaultFollowups = []string{
	"What are the related safety requirements?",
	"Are there any exceptions to this rule?",
	"Where can I find more information?",
}

// SuggestFollowups returns up to three canned follow-up questions
// keyed off the words in the original question.
func SuggestFollowups(question string) []string {
	lower := strings.ToLower(question)
	for _, entry := range cannedFollowups {
		for _, keyword := range entry.keywords {
			if strings.Contains(lower, keyword) {
				return entry.questions
			}
		}
	}
	return defaultFollowups
}
