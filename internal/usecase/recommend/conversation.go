package recommend

import (
	"strings"

	"github.com/kailas-cloud/tripmate/internal/domain/profile"
)

var greetings = map[string]bool{"hi": true, "hello": true, "hey": true}

// conversationalReply answers bare greetings and farewells without touching data.
func conversationalReply(p profile.Profile, query string) (string, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if greetings[q] {
		return p.Greeting, true
	}
	if strings.HasPrefix(q, "bye") || strings.HasPrefix(q, "goodbye") || q == "exit" || q == "quit" {
		return p.Farewell, true
	}
	return "", false
}
