package repositories

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Jhector1/learnoir-api/model"
	"github.com/Jhector1/learnoir-api/shared"
)

func newTestRepo(t *testing.T) *PracticeRepository {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&model.PracticeSection{},
		&model.PracticeInstance{},
		&model.PracticeSession{},
		&model.PracticeAttempt{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return NewPracticeRepository(db)
}

func seedInstance(t *testing.T, repo *PracticeRepository, sectionID, difficulty string) *model.PracticeInstance {
	t.Helper()

	key, _ := json.Marshal(model.AnswerKey{Kind: shared.AnswerKindExact, Text: "Tokyo"})
	instance, err := repo.CreateInstance(&model.PracticeInstance{
		SectionID:  sectionID,
		Difficulty: difficulty,
		Title:      "Capital of Japan",
		Prompt:     "What is the capital of Japan?",
		AnswerKey:  key,
		IsActive:   true,
	})
	if err != nil {
		t.Fatalf("failed to seed instance: %v", err)
	}
	return instance
}

func seedSession(t *testing.T, repo *PracticeRepository, actorRef string, target int) *model.PracticeSession {
	t.Helper()

	session, err := repo.CreateSession(&model.PracticeSession{
		ActorRef:    actorRef,
		SectionID:   "section-1",
		Difficulty:  shared.DifficultyEasy,
		Status:      shared.SessionStatusActive,
		TargetCount: target,
		StartedAt:   time.Now(),
	})
	if err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}
	return session
}

func TestRecordAttemptIncrementsCounters(t *testing.T) {
	repo := newTestRepo(t)
	instance := seedInstance(t, repo, "section-1", shared.DifficultyEasy)
	session := seedSession(t, repo, "guest:g1", 5)

	verdicts := []bool{true, false, true}
	for i, ok := range verdicts {
		updated, completedNow, err := repo.RecordAttempt(&model.PracticeAttempt{
			SessionID:  session.ID,
			InstanceID: instance.ID,
			OK:         ok,
		})
		if err != nil {
			t.Fatalf("attempt %d failed: %v", i, err)
		}
		if completedNow {
			t.Fatalf("attempt %d must not complete the session", i)
		}
		if updated.Total != i+1 {
			t.Fatalf("after attempt %d: total = %d, want %d", i, updated.Total, i+1)
		}
	}

	final, err := repo.GetSession(session.ID)
	if err != nil {
		t.Fatalf("failed to reload session: %v", err)
	}
	if final.Total != 3 || final.Correct != 2 {
		t.Fatalf("counters = %d/%d, want 3/2", final.Correct, final.Total)
	}
	if final.Status != shared.SessionStatusActive {
		t.Fatalf("session below target must stay active, got %q", final.Status)
	}
}

func TestRecordAttemptCompletesAtTarget(t *testing.T) {
	repo := newTestRepo(t)
	instance := seedInstance(t, repo, "section-1", shared.DifficultyEasy)
	session := seedSession(t, repo, "guest:g1", 2)

	first, completedNow, err := repo.RecordAttempt(&model.PracticeAttempt{SessionID: session.ID, InstanceID: instance.ID, OK: true})
	if err != nil {
		t.Fatalf("first attempt failed: %v", err)
	}
	if completedNow {
		t.Fatalf("session must not report completion early")
	}
	if first.Status != shared.SessionStatusActive || first.CompletedAt != nil {
		t.Fatalf("session must not complete early: %+v", first)
	}

	second, completedNow, err := repo.RecordAttempt(&model.PracticeAttempt{SessionID: session.ID, InstanceID: instance.ID, OK: false})
	if err != nil {
		t.Fatalf("second attempt failed: %v", err)
	}
	if !completedNow {
		t.Fatalf("the target attempt must report completion")
	}
	if second.Status != shared.SessionStatusCompleted {
		t.Fatalf("session must complete at target, got %q", second.Status)
	}
	if second.CompletedAt == nil {
		t.Fatalf("completed session must carry a completion timestamp")
	}
	if second.Total != 2 {
		t.Fatalf("total = %d, want exactly the target", second.Total)
	}
}

func TestRecordAttemptRejectsCompletedSession(t *testing.T) {
	repo := newTestRepo(t)
	instance := seedInstance(t, repo, "section-1", shared.DifficultyEasy)
	session := seedSession(t, repo, "guest:g1", 1)

	if _, _, err := repo.RecordAttempt(&model.PracticeAttempt{SessionID: session.ID, InstanceID: instance.ID, OK: true}); err != nil {
		t.Fatalf("completing attempt failed: %v", err)
	}

	_, _, err := repo.RecordAttempt(&model.PracticeAttempt{SessionID: session.ID, InstanceID: instance.ID, OK: true})
	appErr, ok := shared.GetAppError(err)
	if !ok || appErr.Kind != shared.KindSessionCompleted {
		t.Fatalf("expected %s, got %v", shared.KindSessionCompleted, err)
	}

	// The rejection must leave the counters frozen at the target.
	final, err := repo.GetSession(session.ID)
	if err != nil {
		t.Fatalf("failed to reload session: %v", err)
	}
	if final.Total != 1 {
		t.Fatalf("total moved past target: %d", final.Total)
	}

	attempts, err := repo.GetAttemptsBySession(session.ID)
	if err != nil {
		t.Fatalf("failed to list attempts: %v", err)
	}
	if len(attempts) != 1 {
		t.Fatalf("rejected submission must not be recorded, got %d attempts", len(attempts))
	}
}

func TestRecordAttemptUnknownSession(t *testing.T) {
	repo := newTestRepo(t)
	instance := seedInstance(t, repo, "section-1", shared.DifficultyEasy)

	_, _, err := repo.RecordAttempt(&model.PracticeAttempt{SessionID: "missing", InstanceID: instance.ID, OK: true})
	appErr, ok := shared.GetAppError(err)
	if !ok || appErr.Kind != shared.KindSessionNotFound {
		t.Fatalf("expected %s, got %v", shared.KindSessionNotFound, err)
	}

	// Reveals against a missing session are rejected the same way.
	_, _, err = repo.RecordAttempt(&model.PracticeAttempt{SessionID: "missing", InstanceID: instance.ID, RevealUsed: true})
	appErr, ok = shared.GetAppError(err)
	if !ok || appErr.Kind != shared.KindSessionNotFound {
		t.Fatalf("expected %s for reveal, got %v", shared.KindSessionNotFound, err)
	}
}

func TestRecordRevealOnCompletedSession(t *testing.T) {
	repo := newTestRepo(t)
	instance := seedInstance(t, repo, "section-1", shared.DifficultyEasy)
	session := seedSession(t, repo, "guest:g1", 1)

	if _, _, err := repo.RecordAttempt(&model.PracticeAttempt{SessionID: session.ID, InstanceID: instance.ID, OK: false}); err != nil {
		t.Fatalf("completing attempt failed: %v", err)
	}

	updated, completedNow, err := repo.RecordAttempt(&model.PracticeAttempt{SessionID: session.ID, InstanceID: instance.ID, RevealUsed: true})
	if err != nil {
		t.Fatalf("reveal on completed session must be recorded: %v", err)
	}
	if completedNow {
		t.Fatalf("a post-completion reveal must not report completion")
	}
	if updated.Total != 1 || updated.Correct != 0 {
		t.Fatalf("post-completion reveal must leave counters frozen, got %d/%d", updated.Correct, updated.Total)
	}

	attempts, err := repo.GetAttemptsBySession(session.ID)
	if err != nil {
		t.Fatalf("failed to list attempts: %v", err)
	}
	if len(attempts) != 2 {
		t.Fatalf("the reveal must be recorded, got %d attempts", len(attempts))
	}

	missed, err := repo.GetMissedAttempts(session.ID)
	if err != nil {
		t.Fatalf("failed to load missed attempts: %v", err)
	}
	if len(missed) != 0 {
		t.Fatalf("the reveal must reclassify the miss, got %d missed", len(missed))
	}
}

func TestGetMissedAttempts(t *testing.T) {
	repo := newTestRepo(t)
	reviewed := seedInstance(t, repo, "section-1", shared.DifficultyEasy)
	session := seedSession(t, repo, "guest:g1", 10)

	key, _ := json.Marshal(model.AnswerKey{Kind: shared.AnswerKindExact, Text: "fleeting"})
	revealed, err := repo.CreateInstance(&model.PracticeInstance{
		SectionID:  "section-1",
		Difficulty: shared.DifficultyEasy,
		Title:      "Define ephemeral",
		Prompt:     "Give a one-word synonym for 'ephemeral'.",
		AnswerKey:  key,
		IsActive:   true,
	})
	if err != nil {
		t.Fatalf("failed to seed second instance: %v", err)
	}

	attempts := []model.PracticeAttempt{
		{SessionID: session.ID, InstanceID: reviewed.ID, OK: true},
		{SessionID: session.ID, InstanceID: reviewed.ID, OK: false},
		{SessionID: session.ID, InstanceID: reviewed.ID, OK: false},
		{SessionID: session.ID, InstanceID: revealed.ID, OK: false},
		{SessionID: session.ID, InstanceID: revealed.ID, OK: false, RevealUsed: true},
	}
	for i := range attempts {
		if _, _, err := repo.RecordAttempt(&attempts[i]); err != nil {
			t.Fatalf("attempt %d failed: %v", i, err)
		}
	}

	missed, err := repo.GetMissedAttempts(session.ID)
	if err != nil {
		t.Fatalf("failed to load missed attempts: %v", err)
	}
	if len(missed) != 2 {
		t.Fatalf("missed = %d, want the 2 misses on the never-revealed instance", len(missed))
	}
	for _, attempt := range missed {
		if attempt.OK || attempt.RevealUsed {
			t.Fatalf("missed list contains a non-missed attempt: %+v", attempt)
		}
		if attempt.InstanceID != reviewed.ID {
			t.Fatalf("misses on a revealed instance are not actionable: %+v", attempt)
		}
		if attempt.Instance.Prompt == "" {
			t.Fatalf("missed attempt must preload its instance")
		}
	}
}

func TestGetSessionsByActor(t *testing.T) {
	repo := newTestRepo(t)

	for i := 0; i < 3; i++ {
		_, err := repo.CreateSession(&model.PracticeSession{
			ActorRef:    "guest:g1",
			SectionID:   "section-1",
			Difficulty:  shared.DifficultyEasy,
			Status:      shared.SessionStatusActive,
			TargetCount: 5,
			StartedAt:   time.Now().Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("failed to create session %d: %v", i, err)
		}
	}
	seedSession(t, repo, "guest:other", 5)

	sessions, err := repo.GetSessionsByActor("guest:g1", "", 10)
	if err != nil {
		t.Fatalf("failed to list sessions: %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("sessions = %d, want only the actor's own 3", len(sessions))
	}
	for i := 1; i < len(sessions); i++ {
		if sessions[i].StartedAt.After(sessions[i-1].StartedAt) {
			t.Fatalf("sessions must be ordered newest first")
		}
	}

	limited, err := repo.GetSessionsByActor("guest:g1", "", 2)
	if err != nil {
		t.Fatalf("failed to list limited sessions: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("limit not applied, got %d", len(limited))
	}

	completed, err := repo.GetSessionsByActor("guest:g1", shared.SessionStatusCompleted, 10)
	if err != nil {
		t.Fatalf("failed to filter sessions: %v", err)
	}
	if len(completed) != 0 {
		t.Fatalf("status filter not applied, got %d", len(completed))
	}
}

func TestGetActiveSession(t *testing.T) {
	repo := newTestRepo(t)
	session := seedSession(t, repo, "guest:g1", 5)

	found, err := repo.GetActiveSession("guest:g1", "section-1", shared.DifficultyEasy)
	if err != nil {
		t.Fatalf("failed to find active session: %v", err)
	}
	if found.ID != session.ID {
		t.Fatalf("found wrong session: %q", found.ID)
	}

	if _, err := repo.GetActiveSession("guest:g1", "section-1", shared.DifficultyHard); err != gorm.ErrRecordNotFound {
		t.Fatalf("expected record not found for other difficulty, got %v", err)
	}
}

func TestPickInstanceHonorsFilters(t *testing.T) {
	repo := newTestRepo(t)
	seedInstance(t, repo, "section-1", shared.DifficultyEasy)

	key, _ := json.Marshal(model.AnswerKey{Kind: shared.AnswerKindExact, Text: "x"})
	inactive, err := repo.CreateInstance(&model.PracticeInstance{
		SectionID:  "section-1",
		Difficulty: shared.DifficultyHard,
		Title:      "Inactive",
		Prompt:     "inactive",
		AnswerKey:  key,
		IsActive:   true,
	})
	if err != nil {
		t.Fatalf("failed to create inactive instance: %v", err)
	}
	if err := repo.DB().Model(inactive).Update("is_active", false).Error; err != nil {
		t.Fatalf("failed to deactivate instance: %v", err)
	}

	picked, err := repo.PickInstance("section-1", shared.DifficultyEasy)
	if err != nil {
		t.Fatalf("failed to pick instance: %v", err)
	}
	if picked.Difficulty != shared.DifficultyEasy {
		t.Fatalf("picked wrong difficulty: %q", picked.Difficulty)
	}

	if _, err := repo.PickInstance("section-1", shared.DifficultyHard); err != gorm.ErrRecordNotFound {
		t.Fatalf("inactive instances must never be picked, got %v", err)
	}
}
