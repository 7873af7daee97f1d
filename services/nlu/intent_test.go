package nlu

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bookwise/models"
)

func TestClassifyGreeting(t *testing.T) {
	c := NewClassifier(0.6)
	for _, text := range []string{"hi", "Hello!", "good morning"} {
		intent, conf := c.Classify(text, SessionContext{State: models.StateCollectingIntent})
		assert.Equal(t, IntentGreeting, intent, "text %q", text)
		assert.GreaterOrEqual(t, conf, 0.9)
	}
}

func TestClassifySchedule(t *testing.T) {
	c := NewClassifier(0.6)
	intent, conf := c.Classify("I need to book a meeting", SessionContext{State: models.StateCollectingIntent})
	assert.Equal(t, IntentSchedule, intent)
	assert.GreaterOrEqual(t, conf, 0.7)
}

func TestClassifyCancelBeatsSchedule(t *testing.T) {
	c := NewClassifier(0.6)
	// Carries both cancel and schedule keywords; cancel wins the tie.
	intent, _ := c.Classify("cancel my appointment", SessionContext{State: models.StateConfirming})
	assert.Equal(t, IntentCancel, intent)
}

func TestClassifyAvailability(t *testing.T) {
	c := NewClassifier(0.6)
	intent, _ := c.Classify("what's my availability this week", SessionContext{State: models.StateCollectingIntent})
	assert.Equal(t, IntentCheckAvailability, intent)
}

func TestClassifySmalltalk(t *testing.T) {
	c := NewClassifier(0.6)
	intent, _ := c.Classify("help", SessionContext{State: models.StateCollectingIntent})
	assert.Equal(t, IntentSmalltalk, intent)

	intent, _ = c.Classify("thanks, goodbye", SessionContext{State: models.StateCollectingIntent})
	assert.Equal(t, IntentSmalltalk, intent)
}

func TestClassifyMidFlowPrior(t *testing.T) {
	c := NewClassifier(0.6)

	// "tomorrow at 2" has no intent keyword, but mid-flow with entities it
	// continues the booking rather than resolving to unknown.
	intent, conf := c.Classify("tomorrow at 2", SessionContext{
		State:       models.StateCollectingSlots,
		HasEntities: true,
	})
	assert.Equal(t, IntentSchedule, intent)
	assert.GreaterOrEqual(t, conf, 0.6)

	// The same text at the start of a conversation is unknown.
	intent, _ = c.Classify("the weather is nice", SessionContext{State: models.StateCollectingIntent})
	assert.Equal(t, IntentUnknown, intent)
}

func TestClassifyEmpty(t *testing.T) {
	c := NewClassifier(0.6)
	intent, conf := c.Classify("   ", SessionContext{State: models.StateCollectingIntent})
	assert.Equal(t, IntentUnknown, intent)
	assert.Zero(t, conf)
}

func TestAffirmativeNegative(t *testing.T) {
	assert.True(t, Affirmative("yes"))
	assert.True(t, Affirmative("Yes, book it"))
	assert.True(t, Affirmative("sounds good"))
	assert.False(t, Affirmative("not yes"))

	assert.True(t, Negative("no"))
	assert.True(t, Negative("nope, another time"))
	assert.False(t, Negative("noon"))
}
