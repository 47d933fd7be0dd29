package chatbot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testBot() *Bot {
	return New(DefaultKnowledgeBase(), DefaultFallback)
}

func TestAsk_KeywordMatch(t *testing.T) {
	reply := testBot().Ask("what is the speed limit for the terrex")

	assert.True(t, reply.Matched)
	assert.Contains(t, reply.Answer, "Terrex speed limits")
}

func TestAsk_DistinguishesVehicles(t *testing.T) {
	reply := testBot().Ask("belrex speed limit?")

	assert.True(t, reply.Matched)
	assert.Contains(t, reply.Answer, "Belrex")
}

func TestAsk_FallbackBelowThreshold(t *testing.T) {
	reply := testBot().Ask("what is the meaning of life")

	assert.False(t, reply.Matched)
	assert.Equal(t, DefaultFallback, reply.Answer)
}

func TestAsk_EmptyQuestion(t *testing.T) {
	reply := testBot().Ask("   ")

	assert.False(t, reply.Matched)
	assert.Equal(t, DefaultFallback, reply.Answer)
}

func TestAsk_CaseAndPunctuationInsensitive(t *testing.T) {
	bot := testBot()

	lower := bot.Ask("vehicle breaks down what to do")
	upper := bot.Ask("VEHICLE BREAKS DOWN, what to do!!")

	assert.Equal(t, lower.Answer, upper.Answer)
	assert.True(t, upper.Matched)
}
