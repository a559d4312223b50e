package dto

import "time"

// ==================== PRACTICE REQUEST DTOs ====================

type StartSessionRequest struct {
	SectionID   string `json:"section_id" validate:"required"`
	Difficulty  string `json:"difficulty" validate:"required,oneof=easy medium hard"`
	TargetCount int    `json:"target_count" validate:"required,min=1,max=100"`
}

func (s StartSessionRequest) Validate() error {
	return GetValidator().Struct(s)
}

type IssueInstanceRequest struct {
	SectionID  string `json:"section_id" validate:"required"`
	Difficulty string `json:"difficulty" validate:"required,oneof=easy medium hard"`
	SessionID  string `json:"session_id,omitempty"`
}

func (i IssueInstanceRequest) Validate() error {
	return GetValidator().Struct(i)
}

type SubmitAttemptRequest struct {
	Token string `json:"token" validate:"required"`
	// No required tag: zero values like "" and 0 are legitimate answers and
	// must be scored, not rejected at validation.
	Answer     interface{} `json:"answer"`
	InstanceID string      `json:"instance_id,omitempty"` // advisory; token is authoritative
}

func (s SubmitAttemptRequest) Validate() error {
	return GetValidator().Struct(s)
}

type RevealAnswerRequest struct {
	Token  string      `json:"token" validate:"required"`
	Answer interface{} `json:"answer,omitempty"`
}

func (r RevealAnswerRequest) Validate() error {
	return GetValidator().Struct(r)
}

// ==================== PRACTICE RESPONSE DTOs ====================

// InstanceResponse is the public view of a practice instance. The answer key
// never appears here.
type InstanceResponse struct {
	ID         string   `json:"id"`
	SectionID  string   `json:"section_id"`
	Difficulty string   `json:"difficulty"`
	Title      string   `json:"title"`
	Prompt     string   `json:"prompt"`
	Options    []string `json:"options,omitempty"`
}

type IssueInstanceResponse struct {
	Instance  InstanceResponse `json:"instance"`
	SessionID string           `json:"session_id"`
	Token     string           `json:"token"`
	ExpiresAt int64            `json:"expires_at"`
}

type SessionResponse struct {
	ID          string     `json:"id"`
	SectionID   string     `json:"section_id"`
	Difficulty  string     `json:"difficulty"`
	Status      string     `json:"status"`
	TargetCount int        `json:"target_count"`
	Total       int        `json:"total"`
	Correct     int        `json:"correct"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type SubmitAttemptResponse struct {
	Correct bool            `json:"correct"`
	Session SessionResponse `json:"session"`
}

type RevealAnswerResponse struct {
	Answer  interface{}     `json:"answer"`
	Correct bool            `json:"correct"`
	Session SessionResponse `json:"session"`
}

type SessionSummaryResponse struct {
	Session  SessionResponse `json:"session"`
	ScorePct int             `json:"score_pct"`
}

type MissedAttemptResponse struct {
	AttemptID      string      `json:"attempt_id"`
	InstanceID     string      `json:"instance_id"`
	Prompt         string      `json:"prompt"`
	SubmittedJSON  string      `json:"submitted"`
	ExpectedAnswer interface{} `json:"expected_answer"`
	CreatedAt      time.Time   `json:"created_at"`
}

type SessionHistoryEntry struct {
	Session  SessionResponse         `json:"session"`
	ScorePct int                     `json:"score_pct"`
	Missed   []MissedAttemptResponse `json:"missed"`
}

type SessionHistoryResponse struct {
	Sessions []SessionHistoryEntry `json:"sessions"`
	Total    int                   `json:"total"`
}

// ==================== ADMIN REPORTING DTOs ====================

type AdminSessionListResponse struct {
	Sessions []SessionResponse `json:"sessions"`
	Total    int               `json:"total"`
}

type AdminAttemptResponse struct {
	ID            string    `json:"id"`
	SessionID     string    `json:"session_id"`
	InstanceID    string    `json:"instance_id"`
	AnswerPayload string    `json:"answer_payload"`
	OK            bool      `json:"ok"`
	RevealUsed    bool      `json:"reveal_used"`
	CreatedAt     time.Time `json:"created_at"`
}

type AdminAttemptListResponse struct {
	Attempts []AdminAttemptResponse `json:"attempts"`
	Total    int                    `json:"total"`
}
