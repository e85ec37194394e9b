/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package ranks scores guesses about how one rank compares to another.
//
// A rank is a closed range of elo values. One range is at or above another
// when its lowest value reaches the other's highest, and at or below when its
// highest value does not exceed the other's lowest. Ranges that overlap are
// neither, and a guess against them never scores.
package ranks

// CorrectScoreReward is awarded for a correct guess.
const CorrectScoreReward = 10

// RankRange is the elo band covered by a rank. MaxElo is expected to be at
// least MinElo; callers that load ranks are responsible for enforcing it.
type RankRange struct {
	MinElo int `json:"min_elo" yaml:"min_elo"`
	MaxElo int `json:"max_elo" yaml:"max_elo"`
}

// VoteInput is a single guess: whether the real rank is higher than the fake
// rank shown alongside the clip.
type VoteInput struct {
	FakeRank      RankRange
	RealRank      RankRange
	GuessedHigher bool
}

// IsAtOrAbove reports whether a sits entirely at or above b.
func IsAtOrAbove(a, b RankRange) bool {
	return a.MinElo >= b.MaxElo
}

// IsAtOrBelow reports whether a sits entirely at or below b.
func IsAtOrBelow(a, b RankRange) bool {
	return a.MaxElo <= b.MinElo
}

// ComputeVoteScore returns CorrectScoreReward for a correct guess and zero
// otherwise. The at-or-below test runs first: identical single-elo ranges
// count as lower, while identical wider ranges overlap and never score.
func ComputeVoteScore(v VoteInput) int {
	switch {
	case IsAtOrBelow(v.RealRank, v.FakeRank):
		if !v.GuessedHigher {
			return CorrectScoreReward
		}
	case IsAtOrAbove(v.RealRank, v.FakeRank):
		if v.GuessedHigher {
			return CorrectScoreReward
		}
	}

	return 0
}

// Correct reports whether a stored score was earned by a correct guess.
func Correct(score int) bool {
	return score == CorrectScoreReward
}
