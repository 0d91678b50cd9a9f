package model

import "github.com/gosimple/slug"

// Reveal phases a game session passes through between idle and playing.
const (
	RevealShowing = "showing" // a pattern is displayed before input is accepted
	RevealWaiting = "waiting" // the player waits for a random go signal
	RevealNone    = ""        // input is accepted immediately
)

// Game is an arcade mini-game. ID is the canonical name stored on score records.
type Game struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Timed  bool   `json:"timed"`
	Reveal string `json:"-"`
}

// Games is the arcade catalog, in the order the arcade and profile pages list them.
var Games = []Game{
	{ID: "memory-matrix", Name: "Memory Matrix", Reveal: RevealShowing},
	{ID: "reaction-test", Name: "Reaction Test", Timed: true, Reveal: RevealWaiting},
	{ID: "pattern-pulse", Name: "Pattern Pulse", Reveal: RevealShowing},
	{ID: "binary-breaker", Name: "Binary Breaker", Timed: true, Reveal: RevealNone},
}

// LookupGame resolves a game by ID or display name. "Memory Matrix", "memory matrix" and
// "memory-matrix" all resolve to the same game.
func LookupGame(name string) (Game, bool) {
	id := slug.Make(name)
	for _, g := range Games {
		if g.ID == id {
			return g, true
		}
	}
	return Game{}, false
}
