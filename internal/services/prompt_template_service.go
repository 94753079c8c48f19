package services

import (
	"fmt"
	"strings"
)

type PromptIntent string

const (
	PromptIntentBuyerPersona PromptIntent = "buyer_persona"
	PromptIntentChildrenAd   PromptIntent = "children_ad"
	PromptIntentGeneric      PromptIntent = "generic"
)

const (
	buyerPersonaTemplate = `You are an experienced marketing strategist. Create a detailed buyer persona based on the request below.
Cover demographics, goals, pain points, buying motivations, objections and the channels this person trusts.
Give the persona a name and keep it realistic and specific.

Request: %s`

	childrenAdTemplate = `You are a creative copywriter who writes safe, age-appropriate advertising for children's products.
Write a playful, engaging ad for the request below that kids will enjoy and parents will trust.
Keep the language simple, avoid pressure tactics and never make unsafe or exaggerated claims.

Request: %s`

	genericTemplate = `Write a compelling, creative response to the following:

%s`
)

// PromptTemplate pairs a matcher over the lower-cased question with the
// instruction text that replaces it. Text has exactly one %s verb.
type PromptTemplate struct {
	Intent PromptIntent
	Match  func(lowered string) bool
	Text   string
}

func containsAll(words ...string) func(string) bool {
	return func(lowered string) bool {
		for _, w := range words {
			if !strings.Contains(lowered, w) {
				return false
			}
		}
		return true
	}
}

// promptTemplates is evaluated in order; the first match wins. The last entry
// matches everything.
var promptTemplates = []PromptTemplate{
	{Intent: PromptIntentBuyerPersona, Match: containsAll("buyer persona"), Text: buyerPersonaTemplate},
	{Intent: PromptIntentChildrenAd, Match: containsAll("ad", "children"), Text: childrenAdTemplate},
	{Intent: PromptIntentGeneric, Match: func(string) bool { return true }, Text: genericTemplate},
}

// SelectPromptTemplate classifies question and returns the matching intent and
// the expanded instruction. Matching is case-insensitive; the question is
// interpolated with its original casing.
func SelectPromptTemplate(question string) (PromptIntent, string) {
	lowered := strings.ToLower(question)
	for _, tmpl := range promptTemplates {
		if tmpl.Match(lowered) {
			return tmpl.Intent, fmt.Sprintf(tmpl.Text, question)
		}
	}
	// unreachable while the generic entry is last
	return PromptIntentGeneric, fmt.Sprintf(genericTemplate, question)
}
