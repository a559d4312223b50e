// services/practice.go
package services

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Jhector1/learnoir-api/dto"
	"github.com/Jhector1/learnoir-api/model"
	"github.com/Jhector1/learnoir-api/shared"
)

// PracticeService issues practice instances under capability tokens, verifies
// submitted answers and aggregates verdicts into sessions.
type PracticeService struct {
	context.DefaultService

	sqlSvc   *PostgresService
	codecSvc *KeyCodecService
}

const PRACTICE_SVC = "practice_svc"

// Sessions started implicitly by issue use this target.
const defaultTargetCount = 10

func (svc PracticeService) Id() string {
	return PRACTICE_SVC
}

func (svc *PracticeService) Configure(ctx *context.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *PracticeService) Start() error {
	svc.sqlSvc = svc.Service(POSTGRES_SVC).(*PostgresService)
	svc.codecSvc = svc.Service(KEY_CODEC_SVC).(*KeyCodecService)
	return nil
}

// ==================== SESSION LIFECYCLE ====================

func (svc *PracticeService) StartSession(actor model.Actor, req dto.StartSessionRequest) (*dto.SessionResponse, error) {
	if actor.IsZero() {
		return nil, shared.NewUnauthorizedError(nil, "No resolvable actor for this request")
	}

	if _, err := svc.sqlSvc.PracticeRepo().GetSection(req.SectionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError(err, "Practice section not found")
		}
		return nil, shared.NewInternalError(err, "Failed to load practice section")
	}

	session := &model.PracticeSession{
		ActorRef:    actor.Ref(),
		SectionID:   req.SectionID,
		Difficulty:  req.Difficulty,
		Status:      shared.SessionStatusActive,
		TargetCount: req.TargetCount,
		StartedAt:   time.Now(),
	}

	session, err := svc.sqlSvc.PracticeRepo().CreateSession(session)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to start practice session")
	}

	practiceSessionsStarted.Inc()

	resp := mapSessionToResponse(session)
	return &resp, nil
}

// ==================== INSTANCE ISSUER ====================

// Issue picks an instance for the section/difficulty and signs a capability
// token binding {instance, session, actor, expiry}. The answer key stays
// server-side; only the public view leaves the process.
func (svc *PracticeService) Issue(actor model.Actor, req dto.IssueInstanceRequest) (*dto.IssueInstanceResponse, error) {
	if actor.IsZero() {
		return nil, shared.NewUnauthorizedError(nil, "No resolvable actor for this request")
	}

	session, err := svc.resolveSession(actor, req)
	if err != nil {
		return nil, err
	}

	instance, err := svc.sqlSvc.PracticeRepo().PickInstance(req.SectionID, req.Difficulty)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError(err, "No practice instances for this section and difficulty")
		}
		return nil, shared.NewInternalError(err, "Failed to pick practice instance")
	}

	claims := CapabilityClaims{
		InstanceID: instance.ID,
		SessionID:  session.ID,
		ExpiresAt:  svc.codecSvc.ExpiryFromNow(),
	}
	claims.BindActor(actor)

	token, err := svc.codecSvc.Sign(claims)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to sign practice token")
	}

	practiceTokensIssued.Inc()

	return &dto.IssueInstanceResponse{
		Instance:  mapInstanceToResponse(instance),
		SessionID: session.ID,
		Token:     token,
		ExpiresAt: claims.ExpiresAt,
	}, nil
}

// resolveSession returns the session the issued token will be bound to: the
// one the client names (ownership enforced), otherwise the actor's active
// session for the section/difficulty, otherwise a freshly started one. Every
// token therefore carries a session.
func (svc *PracticeService) resolveSession(actor model.Actor, req dto.IssueInstanceRequest) (*model.PracticeSession, error) {
	if req.SessionID != "" {
		session, err := svc.sqlSvc.PracticeRepo().GetSession(req.SessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, shared.NewSessionNotFoundError()
			}
			return nil, shared.NewInternalError(err, "Failed to load practice session")
		}
		if session.ActorRef != actor.Ref() {
			return nil, shared.NewSessionNotFoundError()
		}
		if session.Status != shared.SessionStatusActive {
			return nil, shared.NewSessionCompletedError()
		}
		if session.SectionID != req.SectionID || session.Difficulty != req.Difficulty {
			return nil, shared.NewBadRequestError(nil, "Session does not match the requested section and difficulty")
		}
		return session, nil
	}

	session, err := svc.sqlSvc.PracticeRepo().GetActiveSession(actor.Ref(), req.SectionID, req.Difficulty)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.NewInternalError(err, "Failed to load practice session")
	}

	started, startErr := svc.StartSession(actor, dto.StartSessionRequest{
		SectionID:   req.SectionID,
		Difficulty:  req.Difficulty,
		TargetCount: defaultTargetCount,
	})
	if startErr != nil {
		return nil, startErr
	}

	return svc.sqlSvc.PracticeRepo().GetSession(started.ID)
}

// ==================== ATTEMPT VERIFIER ====================

// Submit walks the verification state machine: token validation, actor
// binding, instance load, answer comparison, then the transactional record.
// Every rejection carries its specific kind; none are recorded as attempts.
func (svc *PracticeService) Submit(actor model.Actor, req dto.SubmitAttemptRequest) (*dto.SubmitAttemptResponse, error) {
	claims, instance, err := svc.validateSubmission(actor, req.Token, req.InstanceID)
	if err != nil {
		return nil, err
	}

	key, err := instance.Key()
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to parse answer key")
	}

	ok := key.Matches(req.Answer)
	session, err := svc.recordAttempt(claims, instance, req.Answer, ok, false)
	if err != nil {
		return nil, err
	}

	return &dto.SubmitAttemptResponse{
		Correct: ok,
		Session: mapSessionToResponse(session),
	}, nil
}

// Reveal shows the expected answer and records the attempt with reveal_used
// set, which keeps it out of the missed-review list regardless of the verdict
// and reclassifies the session's earlier misses on the same instance as
// non-actionable. Unlike Submit, a reveal still lands on a completed session;
// only the counters stay frozen there.
func (svc *PracticeService) Reveal(actor model.Actor, req dto.RevealAnswerRequest) (*dto.RevealAnswerResponse, error) {
	claims, instance, err := svc.validateSubmission(actor, req.Token, "")
	if err != nil {
		return nil, err
	}

	key, err := instance.Key()
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to parse answer key")
	}

	ok := req.Answer != nil && key.Matches(req.Answer)
	session, err := svc.recordAttempt(claims, instance, req.Answer, ok, true)
	if err != nil {
		return nil, err
	}

	return &dto.RevealAnswerResponse{
		Answer:  key.Reveal(),
		Correct: ok,
		Session: mapSessionToResponse(session),
	}, nil
}

func (svc *PracticeService) validateSubmission(actor model.Actor, token, advisoryInstanceID string) (*CapabilityClaims, *model.PracticeInstance, error) {
	claims, err := svc.codecSvc.Verify(token)
	if err != nil {
		return nil, nil, err
	}

	if !claims.Actor().SameAs(actor) {
		return nil, nil, shared.NewActorMismatchError()
	}

	if claims.SessionID == "" {
		return nil, nil, shared.NewBadRequestError(nil, "Practice token is not bound to a session")
	}

	// The token's instance id is authoritative; a client-supplied id is
	// advisory and must agree when present.
	if advisoryInstanceID != "" && advisoryInstanceID != claims.InstanceID {
		return nil, nil, shared.NewBadRequestError(nil, "Submitted instance id does not match the token")
	}

	instance, err := svc.sqlSvc.PracticeRepo().GetInstance(claims.InstanceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, shared.NewInstanceNotFoundError(claims.InstanceID)
		}
		return nil, nil, shared.NewInternalError(err, "Failed to load practice instance")
	}

	return claims, instance, nil
}

func (svc *PracticeService) recordAttempt(claims *CapabilityClaims, instance *model.PracticeInstance, answer interface{}, ok, revealUsed bool) (*model.PracticeSession, error) {
	answerJSON, err := json.Marshal(answer)
	if err != nil {
		return nil, shared.NewBadRequestError(err, "Failed to serialize answer")
	}

	attempt := &model.PracticeAttempt{
		SessionID:     claims.SessionID,
		InstanceID:    instance.ID,
		AnswerPayload: string(answerJSON),
		OK:            ok,
		RevealUsed:    revealUsed,
	}

	session, completedNow, err := svc.sqlSvc.PracticeRepo().RecordAttempt(attempt)
	if err != nil {
		if _, isApp := shared.GetAppError(err); isApp {
			return nil, err
		}
		return nil, shared.NewInternalError(err, "Failed to record practice attempt")
	}

	observeAttempt(ok, revealUsed)
	if completedNow {
		practiceSessionsCompleted.Inc()
	}

	return session, nil
}

// ==================== SESSION AGGREGATION VIEWS ====================

func (svc *PracticeService) GetSummary(actor model.Actor, sessionID string) (*dto.SessionSummaryResponse, error) {
	session, err := svc.loadOwnedSession(actor, sessionID)
	if err != nil {
		return nil, err
	}

	return &dto.SessionSummaryResponse{
		Session:  mapSessionToResponse(session),
		ScorePct: session.ScorePct(),
	}, nil
}

// GetHistory returns the actor's sessions newest-first, each with its missed
// set: wrong answers on instances the actor never had revealed, the actionable
// items for review. The expected answer is safe to expose here because the
// verdicts are already recorded.
func (svc *PracticeService) GetHistory(actor model.Actor, status string, limit int) (*dto.SessionHistoryResponse, error) {
	if actor.IsZero() {
		return nil, shared.NewUnauthorizedError(nil, "No resolvable actor for this request")
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	sessions, err := svc.sqlSvc.PracticeRepo().GetSessionsByActor(actor.Ref(), status, limit)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to load practice history")
	}

	entries := make([]dto.SessionHistoryEntry, len(sessions))
	for i, session := range sessions {
		missed, err := svc.sqlSvc.PracticeRepo().GetMissedAttempts(session.ID)
		if err != nil {
			return nil, shared.NewInternalError(err, "Failed to load missed attempts")
		}

		missedResponses := make([]dto.MissedAttemptResponse, 0, len(missed))
		for _, attempt := range missed {
			key, keyErr := attempt.Instance.Key()
			if keyErr != nil {
				log.WithFields(log.Fields{
					"attempt_id":  attempt.ID,
					"instance_id": attempt.InstanceID,
				}).Warnf("Failed to parse answer key: %v", keyErr)
				continue
			}
			missedResponses = append(missedResponses, dto.MissedAttemptResponse{
				AttemptID:      attempt.ID,
				InstanceID:     attempt.InstanceID,
				Prompt:         attempt.Instance.Prompt,
				SubmittedJSON:  attempt.AnswerPayload,
				ExpectedAnswer: key.Reveal(),
				CreatedAt:      attempt.CreatedAt,
			})
		}

		entries[i] = dto.SessionHistoryEntry{
			Session:  mapSessionToResponse(&sessions[i]),
			ScorePct: sessions[i].ScorePct(),
			Missed:   missedResponses,
		}
	}

	return &dto.SessionHistoryResponse{
		Sessions: entries,
		Total:    len(entries),
	}, nil
}

// ==================== ADMIN REPORTING ====================

func (svc *PracticeService) AdminListSessions(status string, limit int) (*dto.AdminSessionListResponse, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	sessions, err := svc.sqlSvc.PracticeRepo().ListSessions(status, limit)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to list practice sessions")
	}

	responses := make([]dto.SessionResponse, len(sessions))
	for i := range sessions {
		responses[i] = mapSessionToResponse(&sessions[i])
	}

	return &dto.AdminSessionListResponse{Sessions: responses, Total: len(responses)}, nil
}

func (svc *PracticeService) AdminListAttempts(sessionID string) (*dto.AdminAttemptListResponse, error) {
	if _, err := svc.sqlSvc.PracticeRepo().GetSession(sessionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewSessionNotFoundError()
		}
		return nil, shared.NewInternalError(err, "Failed to load practice session")
	}

	attempts, err := svc.sqlSvc.PracticeRepo().GetAttemptsBySession(sessionID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to list practice attempts")
	}

	responses := make([]dto.AdminAttemptResponse, len(attempts))
	for i, attempt := range attempts {
		responses[i] = dto.AdminAttemptResponse{
			ID:            attempt.ID,
			SessionID:     attempt.SessionID,
			InstanceID:    attempt.InstanceID,
			AnswerPayload: attempt.AnswerPayload,
			OK:            attempt.OK,
			RevealUsed:    attempt.RevealUsed,
			CreatedAt:     attempt.CreatedAt,
		}
	}

	return &dto.AdminAttemptListResponse{Attempts: responses, Total: len(responses)}, nil
}

// ==================== HELPERS ====================

func (svc *PracticeService) loadOwnedSession(actor model.Actor, sessionID string) (*model.PracticeSession, error) {
	session, err := svc.sqlSvc.PracticeRepo().GetSession(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewSessionNotFoundError()
		}
		return nil, shared.NewInternalError(err, "Failed to load practice session")
	}

	// Foreign sessions look like missing ones to the caller.
	if session.ActorRef != actor.Ref() {
		return nil, shared.NewSessionNotFoundError()
	}

	return session, nil
}

func mapSessionToResponse(session *model.PracticeSession) dto.SessionResponse {
	return dto.SessionResponse{
		ID:          session.ID,
		SectionID:   session.SectionID,
		Difficulty:  session.Difficulty,
		Status:      session.Status,
		TargetCount: session.TargetCount,
		Total:       session.Total,
		Correct:     session.Correct,
		StartedAt:   session.StartedAt,
		CompletedAt: session.CompletedAt,
	}
}

func mapInstanceToResponse(instance *model.PracticeInstance) dto.InstanceResponse {
	var options []string
	if instance.Options != nil {
		if err := json.Unmarshal(instance.Options, &options); err != nil {
			log.Printf("Failed to unmarshal options for instance %s: %v", instance.ID, err)
			options = nil
		}
	}

	return dto.InstanceResponse{
		ID:         instance.ID,
		SectionID:  instance.SectionID,
		Difficulty: instance.Difficulty,
		Title:      instance.Title,
		Prompt:     instance.Prompt,
		Options:    options,
	}
}
