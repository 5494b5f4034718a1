// Package chat answers "how do I sign X" questions from a fixed knowledge
// base of Indian Sign Language descriptions.
package chat

import (
	"fmt"
	"strings"
)

const (
	GreetingReply = "Hello! I can teach you ISL signs. Ask me: 'How to sign help?'"
	UnknownReply  = "I don't know that sign yet. Try asking about: hello, help, thank you, family, eat, water."
	EmptyReply    = "Please say something."
)

// Sign is one knowledge base entry.
type Sign struct {
	Word        string `json:"word"`
	Explanation string `json:"explanation"`
}

// DefaultSigns is checked in order; the first word contained in a message
// wins.
var DefaultSigns = []Sign{
	{"hello", "In ISL, you wave your hand with an open palm near your head."},
	{"thank", "Place your hand on your chin and move it forward, like blowing a kiss."},
	{"sorry", "Make a fist and rub it in a circular motion over your heart."},
	{"help", "Place one hand under the other and lift both hands up together."},
	{"yes", "Make a fist and nod it up and down like nodding your head."},
	{"no", "Extend your index and middle finger and tap them to your thumb."},
	{"please", "Place your open hand on your chest and move it in a circular motion."},
	{"love", "Cross both arms over your chest, as if hugging yourself."},
	{"family", "Make 'F' handshapes with both hands and move them in a circle."},
	{"eat", "Bring your fingers together and tap them to your mouth repeatedly."},
	{"water", "Tap your index finger to your chin (like the letter 'W')."},
	{"learn", "Place your fingers on your forehead and then move them to your other palm."},
}

type Bot struct {
	signs []Sign
}

// New returns a bot over signs, or DefaultSigns when signs is empty. Words
// are matched case-insensitively.
func New(signs []Sign) *Bot {
	if len(signs) == 0 {
		signs = DefaultSigns
	}
	kb := make([]Sign, len(signs))
	for i, s := range signs {
		kb[i] = Sign{Word: strings.ToLower(s.Word), Explanation: s.Explanation}
	}
	return &Bot{signs: kb}
}

// Reply answers message. Matching is by substring, so "know" matches "no".
func (b *Bot) Reply(message string) string {
	msg := strings.ToLower(strings.TrimSpace(message))
	if msg == "" {
		return EmptyReply
	}

	for _, s := range b.signs {
		if strings.Contains(msg, s.Word) {
			return fmt.Sprintf("Sign for %q: %s", s.Word, s.Explanation)
		}
	}

	if strings.Contains(msg, "hi") || strings.Contains(msg, "hello") {
		return GreetingReply
	}
	return UnknownReply
}

// Signs returns the knowledge base in match order.
func (b *Bot) Signs() []Sign {
	return append([]Sign(nil), b.signs...)
}
