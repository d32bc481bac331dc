package fsrs

import (
	"math"
	"time"
)

// rating is the internal grade applied to a review. The public surface only
// grades correctness as a boolean; correct maps to ratingGood and incorrect
// to ratingAgain. The finer hard/easy grades of multi-grade schedulers are
// deliberately not exposed.
type rating int

const (
	ratingAgain rating = iota
	ratingGood
)

// retrievability estimates the probability of recall after elapsed time t
// given stability s, using the FSRS power-law forgetting curve.
func retrievability(elapsed time.Duration, stability float64) float64 {
	if stability <= 0 {
		return 0
	}
	days := elapsed.Hours() / 24
	if days < 0 {
		days = 0
	}
	return math.Pow(1+retrievabilityFactor*days/stability, retrievabilityDecay)
}

// growStability computes the post-success stability. Growth is strictly
// positive and shrinks as difficulty rises, as stability itself rises, and as
// retrievability at review time approaches 1 (reviewing early earns less).
func growStability(stability, difficulty, r float64, params *Params) float64 {
	growth := params.GrowthRate *
		((MaxDifficulty + 1 - difficulty) / MaxDifficulty) *
		math.Pow(stability, params.GrowthStabilityPower) *
		math.Exp(1-r)
	return stability * (1 + growth)
}

// penalizeStability collapses stability after a failed grading, never below
// the configured floor.
func penalizeStability(stability float64, params *Params) float64 {
	s := stability * params.ForgetStabilityFactor
	if s < params.MinStability {
		return params.MinStability
	}
	return s
}

func clampDifficulty(d float64) float64 {
	if d < MinDifficulty {
		return MinDifficulty
	}
	if d > MaxDifficulty {
		return MaxDifficulty
	}
	return d
}

// intervalDays maps stability to a whole-day interval at the configured
// desired retention. The mapping is monotone increasing in stability; at the
// default 0.9 retention the interval equals the stability.
func intervalDays(stability float64, params *Params) int {
	raw := stability / retrievabilityFactor *
		(math.Pow(params.DesiredRetention, 1/retrievabilityDecay) - 1)
	days := int(math.Round(raw))
	if days < params.MinIntervalDays {
		days = params.MinIntervalDays
	}
	if days > params.MaxIntervalDays {
		days = params.MaxIntervalDays
	}
	return days
}

// elapsedRetrievability derives the recall probability at grading time from
// the card's last review. Cards without a prior review are treated as if they
// were reviewed exactly on schedule.
func elapsedRetrievability(card CardState, now time.Time, params *Params) float64 {
	if card.LastReviewed == nil {
		return params.DesiredRetention
	}
	return retrievability(now.Sub(*card.LastReviewed), card.Stability)
}

// learningStepMinutes returns the learning step for a card that stays in the
// learning state after its gradedCount-th grading.
func learningStepMinutes(gradedCount int, params *Params) int {
	idx := gradedCount - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(params.LearningStepMinutes) {
		idx = len(params.LearningStepMinutes) - 1
	}
	return params.LearningStepMinutes[idx]
}

// nextState computes the full post-grading card state. It is the single place
// that encodes the state machine:
//
//	new        --any-->       learning (first short step)
//	learning   --correct-->   review once the learning steps are exhausted,
//	                          otherwise the next learning step
//	learning   --incorrect--> learning (restart at the first step, no lapse)
//	review     --correct-->   review (stability grows, difficulty eases)
//	review     --incorrect--> relearning (lapse, stability penalized)
//	relearning --correct-->   review (interval from the updated stability)
//	relearning --incorrect--> relearning (another lapse, short step again)
//
// Lapses increment only on failed gradings in review/relearning. The returned
// scheduledDays is fractional for sub-day learning steps and whole-day for
// review intervals.
func nextState(card CardState, grade rating, now time.Time, params *Params) (CardState, float64) {
	next := card
	next.Reps++
	reviewedAt := now
	next.LastReviewed = &reviewedAt

	var scheduledDays float64

	switch card.State {
	case StateNew:
		next.State = StateLearning
		if grade == ratingGood {
			next.Stability = params.InitialStabilityGood
			next.Difficulty = clampDifficulty(card.Difficulty - params.RecallDifficultyBonus)
		} else {
			next.Stability = params.InitialStabilityAgain
			next.Difficulty = clampDifficulty(card.Difficulty + params.LapseDifficultyPenalty)
		}
		scheduledDays = minutesToDays(params.LearningStepMinutes[0])

	case StateLearning:
		if grade == ratingGood {
			r := elapsedRetrievability(card, now, params)
			next.Stability = growStability(card.Stability, card.Difficulty, r, params)
			next.Difficulty = clampDifficulty(card.Difficulty - params.RecallDifficultyBonus)
			if next.Reps > len(params.LearningStepMinutes) {
				next.State = StateReview
				scheduledDays = float64(intervalDays(next.Stability, params))
			} else {
				scheduledDays = minutesToDays(learningStepMinutes(next.Reps, params))
			}
		} else {
			// Failing in learning restarts the steps without a lapse.
			next.Stability = penalizeStability(card.Stability, params)
			next.Difficulty = clampDifficulty(card.Difficulty + params.LapseDifficultyPenalty)
			scheduledDays = minutesToDays(params.LearningStepMinutes[0])
		}

	case StateReview, StateRelearning:
		if grade == ratingGood {
			r := elapsedRetrievability(card, now, params)
			next.State = StateReview
			next.Stability = growStability(card.Stability, card.Difficulty, r, params)
			next.Difficulty = clampDifficulty(card.Difficulty - params.RecallDifficultyBonus)
			scheduledDays = float64(intervalDays(next.Stability, params))
		} else {
			next.State = StateRelearning
			next.Lapses++
			next.Stability = penalizeStability(card.Stability, params)
			next.Difficulty = clampDifficulty(card.Difficulty + params.LapseDifficultyPenalty)
			scheduledDays = minutesToDays(params.RelearnStepMinutes)
		}
	}

	nextReview := addScheduledDays(now, scheduledDays)
	next.NextReview = &nextReview

	return next, scheduledDays
}

func minutesToDays(minutes int) float64 {
	return float64(minutes) / (24 * 60)
}

// addScheduledDays advances now by the scheduled interval: whole days via
// calendar arithmetic, sub-day steps via wall-clock duration.
func addScheduledDays(now time.Time, scheduledDays float64) time.Time {
	if scheduledDays >= 1 && scheduledDays == math.Trunc(scheduledDays) {
		return now.AddDate(0, 0, int(scheduledDays))
	}
	return now.Add(time.Duration(scheduledDays * 24 * float64(time.Hour)))
}
