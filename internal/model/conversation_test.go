package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{
		StatusBotAttending, StatusWaitingEvaluation, StatusAttending,
		StatusSentToSeller, StatusFinished, StatusSold, StatusLost,
	} {
		assert.True(t, s.Valid(), "status %s", s)
	}
	assert.False(t, Status("").Valid())
	assert.False(t, Status("escalated").Valid())
	assert.False(t, Status("BOT_ATTENDING").Valid(), "values are case sensitive")
}

func TestStatusRequiresSeller(t *testing.T) {
	requires := map[Status]bool{
		StatusBotAttending:      false,
		StatusWaitingEvaluation: false,
		StatusAttending:         false,
		StatusSentToSeller:      true,
		StatusFinished:          true,
		StatusSold:              true,
		StatusLost:              true,
	}
	for s, want := range requires {
		assert.Equal(t, want, s.RequiresSeller(), "status %s", s)
	}
}

func TestQueueEligible(t *testing.T) {
	cases := []struct {
		name     string
		conv     Conversation
		eligible bool
	}{
		{"bot attending", Conversation{Status: StatusBotAttending}, true},
		{"attending is display only", Conversation{Status: StatusAttending}, true},
		{"finished still eligible", Conversation{Status: StatusFinished}, true},
		{"sent to seller", Conversation{Status: StatusSentToSeller}, false},
		{"fallback mode", Conversation{Status: StatusBotAttending, FallbackMode: true}, false},
		{"fallback and seller", Conversation{Status: StatusSentToSeller, FallbackMode: true}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.eligible, tc.conv.QueueEligible())
		})
	}
}
