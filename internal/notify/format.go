package notify

import (
	"bytes"
	"encoding/json"
	"strings"
)

// FormatBody renders the text posted to the destination chat:
//
//	Topic: <name>
//	Text: <text>
//	Contacts: <compact JSON>
//
// Contacts that are not valid JSON are rendered verbatim.
func FormatBody(topicName, text string, contacts []byte) string {
	var compact bytes.Buffer
	if err := json.Compact(&compact, contacts); err != nil {
		compact.Reset()
		compact.Write(bytes.TrimSpace(contacts))
	}
	if compact.Len() == 0 {
		compact.WriteString("null")
	}

	var b strings.Builder
	b.Grow(len(topicName) + len(text) + compact.Len() + 28)
	b.WriteString("Topic: ")
	b.WriteString(topicName)
	b.WriteString("\nText: ")
	b.WriteString(text)
	b.WriteString("\nContacts: ")
	b.Write(compact.Bytes())
	return b.String()
}
