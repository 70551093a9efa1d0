package ai

import (
	"math/rand/v2"
	"strings"
)

// ResponseStrategy produces an assistant reply for a message handled by an
// agent with the given specialization tag. Implementations must be
// in-process and infallible; anything that can fail (network, model calls)
// belongs behind a different contract.
type ResponseStrategy interface {
	Respond(specialization, message string) string
}

const fallbackSpecialization = "general"

var cannedResponses = map[string][]string{
	"productivity": {
		"Let's break that down into smaller steps so nothing slips through.",
		"I'd tackle the highest-priority item first and timebox the rest.",
		"Try batching similar tasks together; context switching is the real cost.",
		"Block out a focused hour for this and protect it like a meeting.",
	},
	"strategy": {
		"Before committing, write down what success looks like in 90 days.",
		"That sounds like a strength worth doubling down on.",
		"Consider the opportunity cost: what are you saying no to by saying yes here?",
		"Start with the smallest experiment that could prove the idea wrong.",
	},
	"marketing": {
		"Lead with the outcome your customer gets, not the feature list.",
		"One clear channel done well beats five done halfway.",
		"Repurpose that into three formats: a post, an email, and a short video.",
		"Talk to five customers this week. Their words are your best copy.",
	},
	"finance": {
		"Separate must-spend from nice-to-spend before anything else.",
		"A simple weekly cash check-in beats a perfect monthly report.",
		"Price from value delivered, not hours spent.",
		"Set aside a fixed percentage for taxes the moment money lands.",
	},
	"wellness": {
		"A ten-minute walk now will pay for itself in focus this afternoon.",
		"Protect your sleep this week. Everything else compounds on it.",
		"Schedule the break like it's a client meeting. It is: the client is you.",
		"Done is better than perfect. Ship it and rest.",
	},
	"general": {
		"Here's how I'd approach it: start small, measure, then scale what works.",
		"Good question. Let's focus on the one change with the biggest payoff.",
		"You're closer than you think. What's the next concrete step?",
		"Write down the decision you're avoiding; that's usually the real task.",
	},
}

// CannedResponder picks a random canned sentence keyed by specialization,
// falling back to the general pool for unknown tags.
type CannedResponder struct {
	pick func(n int) int
}

// NewCannedResponder returns a responder backed by the process-wide RNG.
func NewCannedResponder() *CannedResponder {
	return &CannedResponder{pick: rand.IntN}
}

// Respond implements ResponseStrategy. The incoming message is accepted for
// interface compatibility; the canned pools do not depend on it.
func (c *CannedResponder) Respond(specialization, _ string) string {
	tag := strings.ToLower(strings.TrimSpace(specialization))
	candidates, ok := cannedResponses[tag]
	if !ok || len(candidates) == 0 {
		candidates = cannedResponses[fallbackSpecialization]
	}
	return candidates[c.pick(len(candidates))]
}
