// model/practice.go
package model

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/Jhector1/learnoir-api/shared"
)

// PracticeSection groups practice instances under a lesson topic
type PracticeSection struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	Slug        string    `json:"slug" gorm:"unique;not null"`
	Title       string    `json:"title" gorm:"not null"`
	Description string    `json:"description" gorm:"type:text"`
	IsActive    bool      `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PracticeInstance is one concrete problem: a public prompt plus a hidden
// answer key. The key is only ever sent to a client through the reveal path
// or the post-hoc missed list.
type PracticeInstance struct {
	ID         string          `json:"id" gorm:"primaryKey"`
	SectionID  string          `json:"section_id" gorm:"not null;index"`
	Difficulty string          `json:"difficulty" gorm:"not null"` // easy, medium, hard
	Title      string          `json:"title" gorm:"not null"`
	Prompt     string          `json:"prompt" gorm:"type:text"`
	Options    json.RawMessage `json:"options,omitempty" gorm:"type:text"` // JSON array of choices
	AnswerKey  json.RawMessage `json:"-" gorm:"type:text"`                 // hidden expected answer
	IsActive   bool            `json:"is_active" gorm:"default:true"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`

	// Relationship
	Section PracticeSection `json:"-" gorm:"foreignKey:SectionID"`
}

// AnswerKey is the tagged variant behind PracticeInstance.AnswerKey. Kind
// selects the comparison rule; the verifier never inspects the fields itself.
type AnswerKey struct {
	Kind      string   `json:"kind"` // exact, numeric, multi_select
	Text      string   `json:"text,omitempty"`
	Value     float64  `json:"value,omitempty"`
	Tolerance float64  `json:"tolerance,omitempty"`
	Choices   []string `json:"choices,omitempty"`
}

func (i *PracticeInstance) Key() (*AnswerKey, error) {
	var key AnswerKey
	if err := json.Unmarshal(i.AnswerKey, &key); err != nil {
		return nil, err
	}
	return &key, nil
}

// Matches compares a submitted answer against the key using the rule for the
// key's kind. Unknown kinds never match.
func (k *AnswerKey) Matches(answer interface{}) bool {
	switch k.Kind {
	case shared.AnswerKindExact:
		submitted, ok := answer.(string)
		if !ok {
			return false
		}
		return strings.EqualFold(strings.TrimSpace(k.Text), strings.TrimSpace(submitted))
	case shared.AnswerKindNumeric:
		v, ok := toFloat(answer)
		if !ok {
			return false
		}
		diff := v - k.Value
		if diff < 0 {
			diff = -diff
		}
		return diff <= k.Tolerance
	case shared.AnswerKindMultiSelect:
		submitted, ok := toStringSet(answer)
		if !ok {
			return false
		}
		expected := make(map[string]struct{}, len(k.Choices))
		for _, c := range k.Choices {
			expected[normalizeChoice(c)] = struct{}{}
		}
		if len(submitted) != len(expected) {
			return false
		}
		for c := range submitted {
			if _, found := expected[c]; !found {
				return false
			}
		}
		return true
	}

	return false
}

// Reveal returns the client-facing representation of the expected answer.
func (k *AnswerKey) Reveal() interface{} {
	switch k.Kind {
	case shared.AnswerKindNumeric:
		return k.Value
	case shared.AnswerKindMultiSelect:
		return k.Choices
	default:
		return k.Text
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func toStringSet(v interface{}) (map[string]struct{}, bool) {
	items, ok := v.([]interface{})
	if !ok {
		if strs, isStrs := v.([]string); isStrs {
			set := make(map[string]struct{}, len(strs))
			for _, s := range strs {
				set[normalizeChoice(s)] = struct{}{}
			}
			return set, true
		}
		return nil, false
	}

	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		s, isStr := item.(string)
		if !isStr {
			return nil, false
		}
		set[normalizeChoice(s)] = struct{}{}
	}
	return set, true
}

func normalizeChoice(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// PracticeSession is a bounded run of attempts owned by exactly one actor.
// Counters only move through atomic increments in the repository.
type PracticeSession struct {
	ID          string     `json:"id" gorm:"primaryKey"`
	ActorRef    string     `json:"actor_ref" gorm:"not null;index"` // user:<id> or guest:<id>
	SectionID   string     `json:"section_id" gorm:"not null"`
	Difficulty  string     `json:"difficulty" gorm:"not null"`
	Status      string     `json:"status" gorm:"not null;default:active"` // active, completed
	TargetCount int        `json:"target_count" gorm:"not null"`
	Total       int        `json:"total" gorm:"not null;default:0"`
	Correct     int        `json:"correct" gorm:"not null;default:0"`
	StartedAt   time.Time  `json:"started_at" gorm:"not null"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ScorePct is defined as 0 for a session with no attempts, not an error.
func (s *PracticeSession) ScorePct() int {
	if s.Total == 0 {
		return 0
	}
	return int((float64(s.Correct)*100/float64(s.Total)) + 0.5)
}

// PracticeAttempt is one scored submission. Rows are append-only and never
// reassigned to another session.
type PracticeAttempt struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	SessionID     string    `json:"session_id" gorm:"not null;index"`
	InstanceID    string    `json:"instance_id" gorm:"not null"`
	AnswerPayload string    `json:"answer_payload" gorm:"type:text"`
	OK            bool      `json:"ok" gorm:"not null"`
	RevealUsed    bool      `json:"reveal_used" gorm:"not null;default:false"`
	CreatedAt     time.Time `json:"created_at" gorm:"not null"`

	// Relationship
	Instance PracticeInstance `json:"-" gorm:"foreignKey:InstanceID"`
}
