package chatbot

import (
	"sort"
	"strings"
)

// Entry is one question/answer pair in the knowledge base
type Entry struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Keywords []string `json:"keywords"`
}

// Bot answers free-text safety questions by matching against a small
// knowledge base. Matching is keyword overlap with a similarity fallback,
// below the threshold it returns the fallback answer.
type Bot struct {
	entries   []Entry
	threshold float64
	fallback  string
}

const defaultThreshold = 0.35

// New creates a bot over the given knowledge base
func New(entries []Entry, fallback string) *Bot {
	return &Bot{
		entries:   entries,
		threshold: defaultThreshold,
		fallback:  fallback,
	}
}

// Reply holds the selected answer and its match score
type Reply struct {
	Answer  string  `json:"answer"`
	Matched bool    `json:"matched"`
	Score   float64 `json:"score"`
}

// Ask returns the best-matching answer for a question
func (b *Bot) Ask(question string) Reply {
	tokens := tokenize(question)
	if len(tokens) == 0 {
		return Reply{Answer: b.fallback}
	}

	best := Reply{Answer: b.fallback}
	for _, entry := range b.entries {
		score := b.score(tokens, entry)
		if score > best.Score {
			best = Reply{Answer: entry.Answer, Score: score}
		}
	}

	if best.Score < b.threshold {
		return Reply{Answer: b.fallback, Score: best.Score}
	}
	best.Matched = true
	return best
}

// score combines keyword hits with token overlap against the stored question
func (b *Bot) score(tokens []string, entry Entry) float64 {
	tokenSet := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		tokenSet[t] = true
	}

	// Keyword hits dominate: any keyword present is a strong signal.
	keywordHits := 0
	for _, kw := range entry.Keywords {
		if tokenSet[strings.ToLower(kw)] {
			keywordHits++
		}
	}
	keywordScore := 0.0
	if len(entry.Keywords) > 0 {
		keywordScore = float64(keywordHits) / float64(len(entry.Keywords))
	}

	questionTokens := tokenize(entry.Question)
	overlap := 0
	for _, t := range questionTokens {
		if tokenSet[t] {
			overlap++
		}
	}
	overlapScore := 0.0
	if n := max(len(tokens), len(questionTokens)); n > 0 {
		overlapScore = float64(overlap) / float64(n)
	}

	if keywordScore > overlapScore {
		return keywordScore
	}
	return overlapScore
}

var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "is": true, "are": true,
	"what": true, "how": true, "do": true, "i": true, "to": true,
	"of": true, "for": true, "in": true, "on": true, "my": true,
}

func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})

	tokens := fields[:0]
	for _, f := range fields {
		if !stopWords[f] {
			tokens = append(tokens, f)
		}
	}
	sort.Strings(tokens)
	return tokens
}

// DefaultKnowledgeBase covers the standing vehicle safety pointers
func DefaultKnowledgeBase() []Entry {
	return []Entry{
		{
			Question: "What are the speed limits for the Terrex?",
			Answer:   "Terrex speed limits: 60 km/h on roads, 40 km/h cross-country, 20 km/h in camp. Always follow the vehicle commander's orders.",
			Keywords: []string{"speed", "limit", "terrex"},
		},
		{
			Question: "What are the speed limits for the Belrex?",
			Answer:   "Belrex speed limits: 60 km/h on roads, 30 km/h cross-country, 20 km/h in camp. Always follow the vehicle commander's orders.",
			Keywords: []string{"speed", "limit", "belrex"},
		},
		{
			Question: "What checks must be done before driving?",
			Answer:   "Complete the BPC (basic periodic checks) before every drive: fluid levels, tyre pressure, lights, horn, brakes. Record the checks in the vehicle logbook.",
			Keywords: []string{"checks", "bpc", "before", "driving"},
		},
		{
			Question: "What should I do if the vehicle breaks down?",
			Answer:   "Pull over safely, switch on hazard lights, place the warning triangle 30m behind the vehicle, and inform your vehicle commander and the MT line immediately.",
			Keywords: []string{"breakdown", "breaks", "down", "emergency"},
		},
		{
			Question: "How many hours of rest are required before driving?",
			Answer:   "Drivers must have at least 6 hours of uninterrupted rest before operating a vehicle. Report to your commander if you are unfit to drive.",
			Keywords: []string{"rest", "hours", "sleep", "fatigue"},
		},
		{
			Question: "What is the minimum distance to keep behind another vehicle?",
			Answer:   "Keep at least 30m behind the vehicle in front during convoy moves, 50m at speeds above 40 km/h.",
			Keywords: []string{"distance", "convoy", "behind", "following"},
		},
	}
}

// DefaultFallback is returned when no entry clears the match threshold
const DefaultFallback = "I don't have an answer for that. Please check with your vehicle commander or refer to the unit safety directives."
