package scoring

// Outcome is the correctness category of one prediction against a final score.
type Outcome string

const (
	OutcomeExact   Outcome = "exact"
	OutcomeCorrect Outcome = "correct_outcome"
	OutcomeMiss    Outcome = "miss"
)

const (
	ExactScorePoints   = 3
	CorrectResultPoint = 1
)

type result int

const (
	resultAwayWin result = iota - 1
	resultDraw
	resultHomeWin
)

func resultOf(home, away int) result {
	switch {
	case home > away:
		return resultHomeWin
	case home < away:
		return resultAwayWin
	default:
		return resultDraw
	}
}

// Classify compares a predicted scoreline with the actual one.
func Classify(predictedHome, predictedAway, actualHome, actualAway int) Outcome {
	if predictedHome == actualHome && predictedAway == actualAway {
		return OutcomeExact
	}
	if resultOf(predictedHome, predictedAway) == resultOf(actualHome, actualAway) {
		return OutcomeCorrect
	}
	return OutcomeMiss
}

// PointsFor maps an outcome to points. A multiplier below 1 counts as 1.
func PointsFor(outcome Outcome, multiplier int) int {
	if multiplier < 1 {
		multiplier = 1
	}
	switch outcome {
	case OutcomeExact:
		return ExactScorePoints * multiplier
	case OutcomeCorrect:
		return CorrectResultPoint * multiplier
	default:
		return 0
	}
}

// CalculatePoints returns 3*multiplier for an exact score, 1*multiplier for the right
// result and 0 otherwise.
func CalculatePoints(predictedHome, predictedAway, actualHome, actualAway, multiplier int) int {
	return PointsFor(Classify(predictedHome, predictedAway, actualHome, actualAway), multiplier)
}
