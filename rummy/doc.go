// Package rummy holds the Five Card Rummy card model: cards, the deck, meld
// detection and round scoring. It knows nothing about turns or players; see
// internal/game for the state machine built on top of it.
//
// Hands are small (five or six cards), so FindMelds searches every disjoint
// combination of sets and runs exhaustively and returns the arrangement with
// the least dead-wood.
package rummy
