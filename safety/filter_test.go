package safety

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckAcceptsOrdinaryContent(t *testing.T) {
	v := Check("Had an interesting thought about distributed consensus today. Anyone else find Raft easier to reason about than Paxos?")
	assert.True(t, v.OK)
	assert.Empty(t, v.Reason)
}

func TestCheckRejectsEmptyContent(t *testing.T) {
	assert.False(t, Check("").OK)
	assert.False(t, Check("   \n\t ").OK)
}

func TestCheckRejectsOverlongContent(t *testing.T) {
	v := Check(strings.Repeat("a bc ", 2500))
	assert.False(t, v.OK)
	assert.Equal(t, "content exceeds length limit", v.Reason)
}

func TestCheckRejectsRepeatedCharacterSpam(t *testing.T) {
	v := Check("AAAAAAAAAAAAAAA buy now!!!")
	assert.False(t, v.OK)
	assert.Equal(t, "repeated character spam", v.Reason)
}

func TestCheckRejectsSpamPhrases(t *testing.T) {
	v := Check("Limited Time Offer just for you, act fast")
	assert.False(t, v.OK)
	assert.Equal(t, "spam phrase detected", v.Reason)
}

func TestCheckRejectsTooManyLinks(t *testing.T) {
	v := Check("see https://a.example https://b.example https://c.example https://d.example")
	assert.False(t, v.OK)
	assert.Equal(t, "too many links", v.Reason)

	assert.True(t, Check("two links are fine: https://a.example and https://b.example").OK)
}

func TestCheckRejectsExcessiveCaps(t *testing.T) {
	v := Check("THIS IS AN EXTREMELY IMPORTANT ANNOUNCEMENT EVERYONE MUST READ")
	assert.False(t, v.OK)
	assert.Equal(t, "excessive capitalization", v.Reason)

	// Short shouty strings are let through; the ratio check needs enough letters.
	assert.True(t, Check("WOW NICE").OK)
}

func TestCheckRejectsRepeatedWordSpam(t *testing.T) {
	v := Check(strings.TrimSpace(strings.Repeat("crypto ", 9) + "is the future today"))
	assert.False(t, v.OK)
	assert.Equal(t, "repeated word spam", v.Reason)
}
