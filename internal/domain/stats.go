package domain

// StatsSummary aggregates a user's review workload and history. It is
// computed read-only from the concept table; nothing in the scheduler
// consumes it.
type StatsSummary struct {
	TotalConcepts   int     `json:"total_concepts"`
	DueConcepts     int     `json:"due_concepts"`
	NewConcepts     int     `json:"new_concepts"`
	LearningCount   int     `json:"learning_count"`
	ReviewCount     int     `json:"review_count"`
	RelearningCount int     `json:"relearning_count"`
	TotalAttempts   int     `json:"total_attempts"`
	TotalCorrect    int     `json:"total_correct"`
	Accuracy        float64 `json:"accuracy"`
	AvgStability    float64 `json:"avg_stability"`
	AvgDifficulty   float64 `json:"avg_difficulty"`
}
