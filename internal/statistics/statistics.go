package statistics

import (
	"fmt"
	"math"
	"sort"

	"github.com/lox/rummy/rummy"
)

// MaxSeats bounds the seat analytics
const MaxSeats = 6

// outcomes indexes per-outcome counters
const outcomes = int(rummy.OutcomeStalemate) + 1

// RoundResult is one round from the hero's point of view
type RoundResult struct {
	Outcome    rummy.Outcome
	HeroPoints int  // round score credited to the hero
	HeroKnock  bool // the hero knocked
}

// MatchResult represents the outcome of a single simulated match
type MatchResult struct {
	Seed   int64 // RNG seed for this match (for replay)
	Seat   int   // hero's seat, 0-based
	Won    bool
	Score  int // hero's final score
	Margin int // hero's final score minus the best opponent's
	Rounds []RoundResult
}

// SeatStats tracks statistics for a specific seat
type SeatStats struct {
	Matches   int
	Wins      int
	SumMargin float64
}

// Statistics tracks simulation statistics for the hero across many matches
type Statistics struct {
	Matches    int
	Wins       int
	SumMargin  float64
	SumMargin2 float64   // Sum of squares for variance calculation
	Values     []float64 // Store all margins for median/percentile calculation

	// Round analytics
	Rounds           int
	OutcomeCounts    [outcomes]int
	HeroPointsBy     [outcomes]int // hero points per outcome
	HeroPoints       int           // total for the ledger check
	HeroKnocks       int
	HeroUndercutLoss int // hero knocked and was undercut

	// Seat analytics
	SeatResults [MaxSeats]SeatStats

	// Match length analytics
	LongestMatch  int
	ShortestMatch int
}

// Mean returns the mean final margin per match
func (s *Statistics) Mean() float64 {
	if s.Matches == 0 {
		return 0
	}
	return s.SumMargin / float64(s.Matches)
}

// Variance returns the sample variance of the margins
func (s *Statistics) Variance() float64 {
	if s.Matches < 2 {
		return 0
	}
	mean := s.Mean()
	return (s.SumMargin2 - float64(s.Matches)*mean*mean) / float64(s.Matches-1)
}

// StdDev returns the sample standard deviation of the margins
func (s *Statistics) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// StdError returns the standard error of the mean
func (s *Statistics) StdError() float64 {
	if s.Matches == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Matches))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	margin := 1.96 * s.StdError()
	return mean - margin, mean + margin
}

// WinRate returns the fraction of matches the hero won
func (s *Statistics) WinRate() float64 {
	if s.Matches == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Matches)
}

// AverageRounds returns the mean number of rounds per match
func (s *Statistics) AverageRounds() float64 {
	if s.Matches == 0 {
		return 0
	}
	return float64(s.Rounds) / float64(s.Matches)
}

// Add incorporates a match result into the statistics
func (s *Statistics) Add(result MatchResult) {
	margin := float64(result.Margin)
	s.Matches++
	s.SumMargin += margin
	s.SumMargin2 += margin * margin
	s.Values = append(s.Values, margin)
	if result.Won {
		s.Wins++
	}

	for _, r := range result.Rounds {
		s.Rounds++
		s.OutcomeCounts[r.Outcome]++
		s.HeroPointsBy[r.Outcome] += r.HeroPoints
		s.HeroPoints += r.HeroPoints
		if r.HeroKnock {
			s.HeroKnocks++
			if r.Outcome == rummy.OutcomeUndercut {
				s.HeroUndercutLoss++
			}
		}
	}

	if seat := result.Seat; seat >= 0 && seat < MaxSeats {
		s.SeatResults[seat].Matches++
		s.SeatResults[seat].SumMargin += margin
		if result.Won {
			s.SeatResults[seat].Wins++
		}
	}

	n := len(result.Rounds)
	if n > s.LongestMatch {
		s.LongestMatch = n
	}
	if s.ShortestMatch == 0 || n < s.ShortestMatch {
		s.ShortestMatch = n
	}
}

// Median returns the median margin
func (s *Statistics) Median() float64 {
	return s.Percentile(0.5)
}

// Percentile returns the margin at the given percentile (0.0 to 1.0)
func (s *Statistics) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := make([]float64, len(s.Values))
	copy(sorted, s.Values)
	sort.Float64s(sorted)

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// SeatWinRate returns the hero's win rate from a seat
func (s *Statistics) SeatWinRate(seat int) float64 {
	if seat < 0 || seat >= MaxSeats || s.SeatResults[seat].Matches == 0 {
		return 0
	}
	ss := s.SeatResults[seat]
	return float64(ss.Wins) / float64(ss.Matches)
}

// IsLedgerBalanced checks the per-outcome points add up to the total
func (s *Statistics) IsLedgerBalanced() bool {
	sum := 0
	for _, p := range s.HeroPointsBy {
		sum += p
	}
	return sum == s.HeroPoints
}

// Validate performs consistency checks on the collected data
func (s *Statistics) Validate() error {
	if !s.IsLedgerBalanced() {
		return fmt.Errorf("ledger mismatch: hero points %d do not match per-outcome totals %v",
			s.HeroPoints, s.HeroPointsBy)
	}

	if s.Matches <= 0 {
		return fmt.Errorf("invalid matches count: %d", s.Matches)
	}

	if len(s.Values) != s.Matches {
		return fmt.Errorf("values array length (%d) does not match matches count (%d)",
			len(s.Values), s.Matches)
	}

	if s.Wins > s.Matches {
		return fmt.Errorf("wins (%d) exceed matches (%d)", s.Wins, s.Matches)
	}

	if s.HeroPointsBy[rummy.OutcomeStalemate] != 0 {
		return fmt.Errorf("stalemates scored %d points", s.HeroPointsBy[rummy.OutcomeStalemate])
	}

	rounds := 0
	for _, c := range s.OutcomeCounts {
		rounds += c
	}
	if rounds != s.Rounds {
		return fmt.Errorf("outcome total (%d) does not match rounds (%d)", rounds, s.Rounds)
	}

	seatMatches := 0
	for _, ss := range s.SeatResults {
		seatMatches += ss.Matches
	}
	if seatMatches != s.Matches {
		return fmt.Errorf("seat matches total (%d) does not match total matches (%d)",
			seatMatches, s.Matches)
	}

	return nil
}
