package repositories

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Jhector1/learnoir-api/model"
	"github.com/Jhector1/learnoir-api/shared"
)

// PracticeRepository handles practice section, instance, session and attempt
// persistence. Session counters are only touched through atomic SQL increments
// so concurrent submissions against the same session serialize in the database.
type PracticeRepository struct {
	BaseRepository
}

func NewPracticeRepository(db *gorm.DB) *PracticeRepository {
	return &PracticeRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// ==================== SECTION METHODS ====================

func (ds *PracticeRepository) CreateSection(section *model.PracticeSection) (*model.PracticeSection, error) {
	if section.ID == "" {
		id, _ := uuid.NewV7()
		section.ID = id.String()
	}
	section.CreatedAt = time.Now()
	section.UpdatedAt = time.Now()

	if err := ds.db.Create(section).Error; err != nil {
		return nil, err
	}
	return section, nil
}

func (ds *PracticeRepository) GetSection(id string) (*model.PracticeSection, error) {
	var section model.PracticeSection
	if err := ds.db.Where("id = ?", id).First(&section).Error; err != nil {
		return nil, err
	}
	return &section, nil
}

func (ds *PracticeRepository) GetSectionBySlug(slug string) (*model.PracticeSection, error) {
	var section model.PracticeSection
	if err := ds.db.Where("slug = ?", slug).First(&section).Error; err != nil {
		return nil, err
	}
	return &section, nil
}

// ==================== INSTANCE METHODS ====================

func (ds *PracticeRepository) CreateInstance(instance *model.PracticeInstance) (*model.PracticeInstance, error) {
	if instance.ID == "" {
		id, _ := uuid.NewV7()
		instance.ID = id.String()
	}
	instance.CreatedAt = time.Now()
	instance.UpdatedAt = time.Now()

	if err := ds.db.Create(instance).Error; err != nil {
		return nil, err
	}
	return instance, nil
}

func (ds *PracticeRepository) GetInstance(id string) (*model.PracticeInstance, error) {
	var instance model.PracticeInstance
	if err := ds.db.Where("id = ? AND is_active = ?", id, true).First(&instance).Error; err != nil {
		return nil, err
	}
	return &instance, nil
}

// PickInstance selects a random active instance for the section/difficulty.
func (ds *PracticeRepository) PickInstance(sectionID, difficulty string) (*model.PracticeInstance, error) {
	var instance model.PracticeInstance
	err := ds.db.Where("section_id = ? AND difficulty = ? AND is_active = ?", sectionID, difficulty, true).
		Order("RANDOM()").
		First(&instance).Error
	if err != nil {
		return nil, err
	}
	return &instance, nil
}

// ==================== SESSION METHODS ====================

func (ds *PracticeRepository) CreateSession(session *model.PracticeSession) (*model.PracticeSession, error) {
	id, _ := uuid.NewV7()
	session.ID = id.String()
	if err := ds.db.Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

func (ds *PracticeRepository) GetSession(id string) (*model.PracticeSession, error) {
	var session model.PracticeSession
	if err := ds.db.Where("id = ?", id).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (ds *PracticeRepository) GetActiveSession(actorRef, sectionID, difficulty string) (*model.PracticeSession, error) {
	var session model.PracticeSession
	err := ds.db.Where("actor_ref = ? AND section_id = ? AND difficulty = ? AND status = ?",
		actorRef, sectionID, difficulty, shared.SessionStatusActive).
		Order("started_at DESC").
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (ds *PracticeRepository) GetSessionsByActor(actorRef, status string, limit int) ([]model.PracticeSession, error) {
	var sessions []model.PracticeSession
	query := ds.db.Where("actor_ref = ?", actorRef)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Order("started_at DESC").
		Limit(limit).
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// RecordAttempt appends the attempt and bumps the owning session's counters in
// one transaction. The increment only lands on an active session; the
// conditional completion update stamps completed_at once total reaches the
// target. All counter math happens inside single UPDATE statements, so two
// concurrent submissions cannot race past each other. Reveals against a
// completed session are still recorded, counters untouched, so the disclosure
// reclassifies the instance's misses. The second return reports whether this
// attempt completed the session.
func (ds *PracticeRepository) RecordAttempt(attempt *model.PracticeAttempt) (*model.PracticeSession, bool, error) {
	var session model.PracticeSession
	completedNow := false

	err := ds.db.Transaction(func(tx *gorm.DB) error {
		correctDelta := 0
		if attempt.OK {
			correctDelta = 1
		}

		res := tx.Model(&model.PracticeSession{}).
			Where("id = ? AND status = ?", attempt.SessionID, shared.SessionStatusActive).
			Updates(map[string]interface{}{
				"total":      gorm.Expr("total + 1"),
				"correct":    gorm.Expr("correct + ?", correctDelta),
				"updated_at": time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var probe model.PracticeSession
			if err := tx.Where("id = ?", attempt.SessionID).First(&probe).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return shared.NewSessionNotFoundError()
				}
				return err
			}
			if !attempt.RevealUsed {
				return shared.NewSessionCompletedError()
			}

			id, _ := uuid.NewV7()
			attempt.ID = id.String()
			attempt.CreatedAt = time.Now()
			if err := tx.Create(attempt).Error; err != nil {
				return err
			}
			session = probe
			return nil
		}

		id, _ := uuid.NewV7()
		attempt.ID = id.String()
		attempt.CreatedAt = time.Now()
		if err := tx.Create(attempt).Error; err != nil {
			return err
		}

		now := time.Now()
		res = tx.Model(&model.PracticeSession{}).
			Where("id = ? AND status = ? AND total >= target_count", attempt.SessionID, shared.SessionStatusActive).
			Updates(map[string]interface{}{
				"status":       shared.SessionStatusCompleted,
				"completed_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		completedNow = res.RowsAffected > 0

		return tx.Where("id = ?", attempt.SessionID).First(&session).Error
	})
	if err != nil {
		return nil, false, err
	}

	return &session, completedNow, nil
}

// ==================== ATTEMPT METHODS ====================

// GetMissedAttempts returns the actionable review set for a session: wrong
// answers on instances the actor never had revealed. A reveal within the
// session reclassifies every miss on that instance as non-actionable.
func (ds *PracticeRepository) GetMissedAttempts(sessionID string) ([]model.PracticeAttempt, error) {
	var attempts []model.PracticeAttempt
	err := ds.db.Preload("Instance").
		Where("session_id = ? AND ok = ? AND reveal_used = ?", sessionID, false, false).
		Where("NOT EXISTS (SELECT 1 FROM practice_attempts revealed"+
			" WHERE revealed.session_id = practice_attempts.session_id"+
			" AND revealed.instance_id = practice_attempts.instance_id"+
			" AND revealed.reveal_used = ?)", true).
		Order("created_at ASC").
		Find(&attempts).Error
	if err != nil {
		return nil, err
	}
	return attempts, nil
}

func (ds *PracticeRepository) GetAttemptsBySession(sessionID string) ([]model.PracticeAttempt, error) {
	var attempts []model.PracticeAttempt
	err := ds.db.Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&attempts).Error
	if err != nil {
		return nil, err
	}
	return attempts, nil
}

// ==================== ADMIN REPORTING METHODS ====================

func (ds *PracticeRepository) ListSessions(status string, limit int) ([]model.PracticeSession, error) {
	var sessions []model.PracticeSession
	query := ds.db.Model(&model.PracticeSession{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Order("started_at DESC").
		Limit(limit).
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}
