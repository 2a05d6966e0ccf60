package chatlog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-lifeline/types"
)

func TestAppendThenParseRoundTrip(t *testing.T) {
	at := func(h, m int) time.Time {
		return time.Date(2026, 8, 30, h, m, 0, 0, time.UTC)
	}

	blob := Append("", types.RoleReporter, "น้ำถึงเอว", at(10, 30))
	blob = Append(blob, types.RoleResponder, "กำลังไป", at(10, 32))

	clean, msgs := Parse(blob)
	assert.Empty(t, clean)
	require.Len(t, msgs, 2)

	assert.Equal(t, types.RoleReporter, msgs[0].Sender)
	assert.Equal(t, "10:30", msgs[0].Time)
	assert.Equal(t, "น้ำถึงเอว", msgs[0].Text)

	assert.Equal(t, types.RoleResponder, msgs[1].Sender)
	assert.Equal(t, "10:32", msgs[1].Time)
	assert.Equal(t, "กำลังไป", msgs[1].Text)
}

func TestParseKeepsCleanDescription(t *testing.T) {
	desc := "บ้านถูกน้ำท่วม\n\nมีผู้ป่วยติดเตียง 1 คน"
	blob := Append(desc, types.RoleResponder, "อีก 10 นาทีถึง", time.Date(2026, 8, 30, 14, 5, 0, 0, time.UTC))

	clean, msgs := Parse(blob)
	assert.Equal(t, desc, clean)
	require.Len(t, msgs, 1)
	assert.Equal(t, types.RoleResponder, msgs[0].Sender)
	assert.Equal(t, "14:05", msgs[0].Time)
}

func TestParseEmptyBlob(t *testing.T) {
	clean, msgs := Parse("")
	assert.Empty(t, clean)
	assert.Empty(t, msgs)
}

func TestParseMalformedSegmentDegradesToUnknown(t *testing.T) {
	blob := "คำอธิบายเดิม\n\n💬 garbled without a header"

	clean, msgs := Parse(blob)
	assert.Equal(t, "คำอธิบายเดิม", clean)
	require.Len(t, msgs, 1)
	assert.Equal(t, types.SenderUnknown, msgs[0].Sender)
	assert.Contains(t, msgs[0].Text, "garbled")
}

func TestParseUnknownLabelKeepsTimeAndText(t *testing.T) {
	blob := "\n\n💬 [ใครบางคน 09:15]: สวัสดี"

	_, msgs := Parse(blob)
	require.Len(t, msgs, 1)
	assert.Equal(t, types.SenderUnknown, msgs[0].Sender)
	assert.Equal(t, "09:15", msgs[0].Time)
	assert.Equal(t, "สวัสดี", msgs[0].Text)
}

func TestParseIsIdempotentOverManyAppends(t *testing.T) {
	blob := "น้ำท่วมหนัก"
	now := time.Date(2026, 8, 30, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		blob = Append(blob, types.RoleReporter, "ข้อความ", now.Add(time.Duration(i)*time.Minute))
	}

	clean1, msgs1 := Parse(blob)
	clean2, msgs2 := Parse(blob)
	assert.Equal(t, clean1, clean2)
	assert.Equal(t, msgs1, msgs2)
	assert.Len(t, msgs1, 5)
	assert.Equal(t, "น้ำท่วมหนัก", clean1)
}
