package lobby

import (
	"fmt"
	"strings"

	"github.com/robalobadob/wordduel/internal/store"
)

// FormatLeaderboard renders standings as "LEADERBOARD:\n1. name - N wins\n...".
func FormatLeaderboard(top []store.Standing) string {
	var b strings.Builder
	b.WriteString("LEADERBOARD:\n")
	for i, s := range top {
		fmt.Fprintf(&b, "%d. %s - %d wins\n", i+1, s.Username, s.Wins)
	}
	return b.String()
}

// FormatSearch renders a player search result.
func FormatSearch(term string, found []store.Account) string {
	if len(found) == 0 {
		return "No players found matching: " + term
	}
	var b strings.Builder
	b.WriteString("SEARCH RESULTS:\n")
	for _, a := range found {
		fmt.Fprintf(&b, "%s - %d wins\n", a.Username, a.Wins)
	}
	return b.String()
}

// FormatGameConfig renders the timings block shown to admins.
func FormatGameConfig(gc store.GameConfig) string {
	return fmt.Sprintf("GAME CONFIGURATION:\nwait_time: %d seconds\nround_duration: %d seconds\n", gc.WaitTime, gc.RoundDuration)
}
