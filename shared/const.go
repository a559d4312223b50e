package shared

const (
	UserID  = "user_id"
	GuestID = "guest_id"
	Role    = "role"

	RoleAdmin   = "admin"
	RoleLearner = "learner"

	GuestCookieName = "learnoir_guest_id"

	AnswerKindExact       = "exact"
	AnswerKindNumeric     = "numeric"
	AnswerKindMultiSelect = "multi_select"

	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"

	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)
