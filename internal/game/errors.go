package game

import (
	"errors"
	"fmt"

	"github.com/lox/rummy/rummy"
)

// ErrIllegalMove is wrapped by every rejected move. It is recoverable: the
// state is unchanged and the caller may try again.
var ErrIllegalMove = errors.New("illegal move")

// Reason classifies why a move was rejected
type Reason string

const (
	ReasonWrongPlayer      Reason = "wrong_player"
	ReasonWrongPhase       Reason = "wrong_phase"
	ReasonCardNotInHand    Reason = "card_not_in_hand"
	ReasonKnockNotLegal    Reason = "knock_not_legal"
	ReasonDiscardJustDrawn Reason = "discard_just_drawn"
	ReasonDiscardEmpty     Reason = "discard_empty"
	ReasonUnknownPlayer    Reason = "unknown_player"
	ReasonMatchOver        Reason = "match_over"
)

// IllegalMoveError describes a rejected move
type IllegalMoveError struct {
	Reason   Reason
	PlayerID string
	Phase    Phase
	Card     *rummy.Card
}

func (e *IllegalMoveError) Error() string {
	msg := fmt.Sprintf("illegal move by %q in %s: %s", e.PlayerID, e.Phase, e.Reason)
	if e.Card != nil {
		msg += " (" + e.Card.String() + ")"
	}
	return msg
}

// Unwrap makes errors.Is(err, ErrIllegalMove) hold
func (e *IllegalMoveError) Unwrap() error {
	return ErrIllegalMove
}

func illegal(reason Reason, playerID string, phase Phase) *IllegalMoveError {
	return &IllegalMoveError{Reason: reason, PlayerID: playerID, Phase: phase}
}

func illegalCard(reason Reason, playerID string, phase Phase, c rummy.Card) *IllegalMoveError {
	return &IllegalMoveError{Reason: reason, PlayerID: playerID, Phase: phase, Card: &c}
}

// IsIllegalMove reports whether err was caused by a rejected move and returns
// the reason.
func IsIllegalMove(err error) (Reason, bool) {
	var ime *IllegalMoveError
	if errors.As(err, &ime) {
		return ime.Reason, true
	}
	return "", false
}
