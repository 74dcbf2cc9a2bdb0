package rummy

import "slices"

// Outcome describes how a round ended
type Outcome uint8

const (
	// OutcomeGoingOut means the knocker melded every card
	OutcomeGoingOut Outcome = iota
	// OutcomeKnock means the knocker had the lowest dead-wood
	OutcomeKnock
	// OutcomeUndercut means an opponent matched or beat the knocker
	OutcomeUndercut
	// OutcomeStalemate means the deck ran out (or the turn limit was hit)
	// before anyone knocked
	OutcomeStalemate
)

// String returns the string representation of the outcome
func (o Outcome) String() string {
	switch o {
	case OutcomeGoingOut:
		return "going out"
	case OutcomeKnock:
		return "knock"
	case OutcomeUndercut:
		return "undercut"
	case OutcomeStalemate:
		return "stalemate"
	default:
		return "unknown"
	}
}

// NoKnocker marks a round that ended without a knock
const NoKnocker = -1

// ScoreRules are the tunable parts of round scoring
type ScoreRules struct {
	UndercutBonus int  // added to the undercutter's differential
	GinBonus      int  // added when the knocker goes out
	LayOffs       bool // opponents may lay dead-wood onto the knocker's melds
}

// DefaultScoreRules returns the standard house rules
func DefaultScoreRules() ScoreRules {
	return ScoreRules{
		UndercutBonus: 10,
		GinBonus:      0,
		LayOffs:       true,
	}
}

// ScoredHand is one player's final hand
type ScoredHand struct {
	PlayerID string
	Hand     Hand
}

// HandResult is the scoring breakdown for one player
type HandResult struct {
	PlayerID   string
	Melds      []Meld
	Deadwood   []Card // after any layoffs
	LaidOff    []Card
	Points     int // dead-wood points after layoffs
	RoundScore int
}

// RoundScore is the result of scoring a round
type RoundScore struct {
	Outcome Outcome
	Knocker int // index into Hands, NoKnocker for a stalemate
	Winner  int // index of the scoring player, NoKnocker if nobody scores
	Hands   []HandResult
}

// Clone returns a copy that shares no slices with s
func (s RoundScore) Clone() RoundScore {
	out := s
	out.Hands = make([]HandResult, len(s.Hands))
	for i, h := range s.Hands {
		h.Melds = make([]Meld, len(s.Hands[i].Melds))
		for j, m := range s.Hands[i].Melds {
			h.Melds[j] = Meld{Kind: m.Kind, Cards: slices.Clone(m.Cards)}
		}
		h.Deadwood = slices.Clone(h.Deadwood)
		h.LaidOff = slices.Clone(h.LaidOff)
		out.Hands[i] = h
	}
	return out
}

// Points returns the round score keyed by player id
func (s RoundScore) Points() map[string]int {
	out := make(map[string]int, len(s.Hands))
	for _, h := range s.Hands {
		out[h.PlayerID] = h.RoundScore
	}
	return out
}

// Loser returns the index of the player left with the most dead-wood, ties
// going to the lowest index.
func (s RoundScore) Loser() int {
	loser := 0
	for i, h := range s.Hands {
		if h.Points > s.Hands[loser].Points {
			loser = i
		}
	}
	return loser
}

// ScoreRound evaluates every hand, applies layoffs against the knocker's melds
// and then the differential-with-undercut scoring.
func ScoreRound(hands []ScoredHand, knocker int, rules ScoreRules) RoundScore {
	results := make([]HandResult, len(hands))
	for i, h := range hands {
		eval := FindMelds(h.Hand)
		results[i] = HandResult{
			PlayerID: h.PlayerID,
			Melds:    eval.Melds,
			Deadwood: eval.Deadwood,
			Points:   eval.DeadwoodPoints,
		}
	}

	if knocker != NoKnocker && rules.LayOffs && results[knocker].Points > 0 {
		for i := range results {
			if i == knocker || len(results[i].Deadwood) == 0 {
				continue
			}
			laid, remaining := LayOff(results[knocker].Melds, results[i].Deadwood)
			results[i].LaidOff = laid
			results[i].Deadwood = remaining
			results[i].Points = Hand(remaining).Points()
		}
	}

	deadwood := make([]int, len(results))
	for i, r := range results {
		deadwood[i] = r.Points
	}
	points, outcome, winner := Differential(deadwood, knocker, rules)
	for i := range results {
		results[i].RoundScore = points[i]
	}

	return RoundScore{
		Outcome: outcome,
		Knocker: knocker,
		Winner:  winner,
		Hands:   results,
	}
}

// Differential applies the scoring policy to final dead-wood counts.
//
// A knocker with zero dead-wood scores the sum of every opponent's dead-wood
// plus the gin bonus. Otherwise, if an opponent has equal or lower dead-wood
// than the knocker, the lowest such opponent (ties to the first seat after the
// knocker) undercuts and scores the difference plus the undercut bonus. If
// not, the knocker scores the sum of each opponent's dead-wood minus their
// own. Everybody else scores zero; a stalemate scores zero for all.
func Differential(deadwood []int, knocker int, rules ScoreRules) (points []int, outcome Outcome, winner int) {
	points = make([]int, len(deadwood))
	if knocker == NoKnocker {
		return points, OutcomeStalemate, NoKnocker
	}

	n := len(deadwood)
	own := deadwood[knocker]

	if own == 0 {
		for i, d := range deadwood {
			if i != knocker {
				points[knocker] += d
			}
		}
		points[knocker] += rules.GinBonus
		return points, OutcomeGoingOut, knocker
	}

	undercutter := NoKnocker
	for step := 1; step < n; step++ {
		i := (knocker + step) % n
		if deadwood[i] > own {
			continue
		}
		if undercutter == NoKnocker || deadwood[i] < deadwood[undercutter] {
			undercutter = i
		}
	}
	if undercutter != NoKnocker {
		points[undercutter] = own - deadwood[undercutter] + rules.UndercutBonus
		return points, OutcomeUndercut, undercutter
	}

	for i, d := range deadwood {
		if i != knocker {
			points[knocker] += d - own
		}
	}
	return points, OutcomeKnock, knocker
}

// MatchWinner returns the index of the leading player once any score reaches
// the limit, ties going to the lowest index. ok is false while the match
// continues.
func MatchWinner(scores []int, limit int) (winner int, ok bool) {
	if len(scores) == 0 {
		return NoKnocker, false
	}
	winner = 0
	for i, s := range scores {
		if s > scores[winner] {
			winner = i
		}
	}
	if scores[winner] < limit {
		return NoKnocker, false
	}
	return winner, true
}
