// Package consent resolves how a player's name may be displayed.
//
// A player who consented on any single result is shown by full name in
// every leaderboard. Everyone else is shown by initials.
package consent

import (
	"strings"
	"unicode/utf8"

	"github.com/okian/tourboard/internal/domain/model"
)

// Anonymous is shown when no usable name exists.
const Anonymous = "Anonymous"

// Consented reports the effective consent for a player: the OR of the
// in-scope aggregate flag and the identity's lifetime flag.
func Consented(agg model.PlayerAggregate, id model.PlayerIdentity) bool {
	return agg.AnyConsent || id.EverConsented
}

// DisplayName produces the string shown for a player.
func DisplayName(consented bool, id model.PlayerIdentity) string {
	if consented {
		return fullName(id)
	}
	return initials(id)
}

func fullName(id model.PlayerIdentity) string {
	if name := strings.TrimSpace(id.DisplayName); name != "" {
		return name
	}
	joined := strings.TrimSpace(strings.TrimSpace(id.Forename) + " " + strings.TrimSpace(id.Surname))
	if joined != "" {
		return joined
	}
	return Anonymous
}

func initials(id model.PlayerIdentity) string {
	parts := make([]string, 0, 2)
	for _, name := range []string{id.Forename, id.Surname} {
		if r, ok := firstRune(name); ok {
			parts = append(parts, string(r)+".")
		}
	}
	if len(parts) == 0 {
		return Anonymous
	}
	return strings.Join(parts, " ")
}

func firstRune(s string) (rune, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, r != utf8.RuneError
}
