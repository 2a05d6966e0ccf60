package db

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"go-lifeline/types"
)

func TestUnreadRecipientIsTheOtherParty(t *testing.T) {
	assert.Equal(t, "unreadForReporter", unreadRecipient(types.RoleResponder))
	assert.Equal(t, "unreadForResponder", unreadRecipient(types.RoleReporter))
}

func TestUnreadOwnIsTheViewersField(t *testing.T) {
	assert.Equal(t, "unreadForReporter", unreadOwn(types.RoleReporter))
	assert.Equal(t, "unreadForResponder", unreadOwn(types.RoleResponder))
}

// Replays a conversation against plain counters the way AppendMessage and
// MarkRead drive the Firestore fields: appends increment the recipient's
// field, opening a view zeroes the viewer's own.
func TestUnreadAccountingSequence(t *testing.T) {
	counters := map[string]int{}

	for i := 0; i < 3; i++ {
		counters[unreadRecipient(types.RoleResponder)]++
	}
	counters[unreadRecipient(types.RoleReporter)]++

	assert.Equal(t, 3, counters["unreadForReporter"])
	assert.Equal(t, 1, counters["unreadForResponder"])

	// The reporter opens the conversation: own counter resets, the
	// responder's is untouched. Reopening is idempotent.
	counters[unreadOwn(types.RoleReporter)] = 0
	counters[unreadOwn(types.RoleReporter)] = 0

	assert.Equal(t, 0, counters["unreadForReporter"])
	assert.Equal(t, 1, counters["unreadForResponder"])
}
