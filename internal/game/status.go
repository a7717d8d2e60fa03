// internal/game/status.go
//
// Renders a View as the single-line status string clients poll for.
// Clients match on fixed substrings ("Waiting for another player",
// "Round expired", "Game finished. Winner: ..." and so on), so the wording
// here is part of the wire contract.

package game

import "fmt"

// NotInGame is the status for a user with no live session.
const NotInGame = "Not in a game"

// Render formats v for the player it was built for.
func Render(v View) string {
	switch v.Phase {
	case PhaseWaiting:
		if v.SecondsLeft > 0 {
			return fmt.Sprintf("Waiting for another player... (%d seconds left)", v.SecondsLeft)
		}
		return "Waiting for another player..."

	case PhaseStarting:
		return fmt.Sprintf("Game started! Round 1 starting in %d %s...", v.SecondsLeft, plural(v.SecondsLeft))

	case PhaseRoundActive:
		if v.RoundExpired {
			return fmt.Sprintf("%s | Round expired! The word was: %s. Waiting for next round...", v.Word, v.Word)
		}
		if v.Wrong >= MaxWrongGuesses {
			return fmt.Sprintf("%s | You got 5 letters wrong! The word was: %s. Waiting for the other player's round result...", v.Word, v.Word)
		}
		return fmt.Sprintf("%s | Score: %d/%d | Wrong: %d/%d | Time: %ds",
			v.Masked, v.Score, WinningScore, v.Wrong, MaxWrongGuesses, v.SecondsLeft)

	case PhaseRoundResolved:
		next := fmt.Sprintf("Starting next round in %d %s...", v.SecondsLeft, plural(v.SecondsLeft))
		switch {
		case v.Resolution == ResolutionTimeout:
			return fmt.Sprintf("%s | Round expired! The word was: %s. %s", v.Word, v.Word, next)
		case v.RoundWinner == v.viewer:
			return fmt.Sprintf("%s | You won the round! %s", v.Masked, next)
		default:
			return fmt.Sprintf("%s | %s won the round! The word was: %s. %s", v.Word, v.RoundWinner, v.Word, next)
		}

	case PhaseMatchComplete:
		var msg string
		if v.Winner == v.viewer {
			msg = "Congratulations! You won the game!"
		} else {
			msg = "Game finished. Winner: " + v.Winner + "."
		}
		if v.Word == "" {
			return msg
		}
		return fmt.Sprintf("%s | %s The final word was: %s (%d/%d rounds)", v.Word, msg, v.Word, WinningScore, WinningScore)
	}
	return NotInGame
}

func plural(n int) string {
	if n == 1 {
		return "second"
	}
	return "seconds"
}
