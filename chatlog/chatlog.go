// Package chatlog encodes and decodes the conversation that both parties
// append into a case's description field. The field stays a single text blob
// so the persisted schema needs no second collection; every message is one
// paragraph marked with a sentinel:
//
//	💬 [ผู้ประสบภัย 10:30]: ข้อความ
package chatlog

import (
	"regexp"
	"strings"
	"time"

	"go-lifeline/types"
)

const (
	// Sentinel distinguishes a message paragraph from the original free text.
	Sentinel = "💬"

	// Separator between paragraphs of the blob.
	Separator = "\n\n"

	LabelReporter  = "ผู้ประสบภัย"
	LabelResponder = "เจ้าหน้าที่"
)

var timePattern = regexp.MustCompile(`\d{2}:\d{2}`)

func label(sender types.Role) string {
	if sender == types.RoleResponder {
		return LabelResponder
	}
	return LabelReporter
}

// Append returns the blob with one new message paragraph added. The caller
// writes the result back over the whole description field; two concurrent
// appends race last-write-wins, which is accepted for a two-party
// conversation (see DESIGN.md).
func Append(blob string, sender types.Role, text string, now time.Time) string {
	return blob + Separator + Sentinel + " [" + label(sender) + " " + now.Format("15:04") + "]: " + text
}

// Parse splits the blob into the original free-text description and the
// conversation entries, in append order. Malformed message paragraphs degrade
// to sender "unknown" with the raw paragraph as text; Parse never fails.
func Parse(blob string) (cleanDesc string, msgs []types.Message) {
	if blob == "" {
		return "", nil
	}

	var descParts []string
	for _, part := range strings.Split(blob, Separator) {
		if !strings.HasPrefix(strings.TrimSpace(part), Sentinel) {
			descParts = append(descParts, part)
			continue
		}
		msgs = append(msgs, parseSegment(part))
	}
	return strings.Join(descParts, Separator), msgs
}

func parseSegment(part string) types.Message {
	metaEnd := strings.Index(part, "]:")
	if metaEnd == -1 {
		return types.Message{Sender: types.SenderUnknown, Text: part}
	}

	meta := part[:metaEnd]
	text := strings.TrimSpace(part[metaEnd+2:])

	sender := types.SenderUnknown
	if strings.Contains(meta, LabelReporter) {
		sender = types.RoleReporter
	} else if strings.Contains(meta, LabelResponder) {
		sender = types.RoleResponder
	}

	return types.Message{
		Sender: sender,
		Time:   timePattern.FindString(meta),
		Text:   text,
	}
}
