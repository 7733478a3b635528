package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/facecoach/internal/analysis"
	"github.com/yoockh/facecoach/internal/cache"
	"github.com/yoockh/facecoach/internal/models"
	mongorepo "github.com/yoockh/facecoach/internal/repositories/mongo"
	"github.com/yoockh/facecoach/internal/storage"
	"github.com/yoockh/facecoach/internal/utils"
)

// SessionResult bundles everything produced when a session stops.
type SessionResult struct {
	Session  *models.PracticeSession      `json:"session"`
	Detailed analysis.DetailedReport      `json:"detailed_report"`
	Backend  *analysis.BackendReport      `json:"backend_report"`
	Unified  analysis.UnifiedFeedbackData `json:"unified"`
}

type SessionService interface {
	Start(ctx context.Context, userID, scenarioID string, goals []string) (*models.PracticeSession, error)
	Get(ctx context.Context, sessionID string) (*models.PracticeSession, error)
	ProcessFrame(sessionID string, f *analysis.LandmarkFrame) error
	AddVector(sessionID string, t float64, probs []float64) error
	LiveFeedback(sessionID string, goals []string) (analysis.LiveFeedback, error)
	Stop(ctx context.Context, sessionID string) (*SessionResult, error)
	History(ctx context.Context, userID string, limit int64) ([]models.FeedbackHistory, error)
}

// liveSession pairs one engine with its mutex. The engine is single-writer
// by design; every mutation and report read goes through mu.
type liveSession struct {
	mu         sync.Mutex
	engine     *analysis.Engine
	userID     string
	scenarioID string
	goals      []string
}

type sessionService struct {
	sessions mongorepo.SessionRepository
	feedback mongorepo.FeedbackRepository
	uploader storage.Uploader // optional; nil skips thumbnail upload
	cache    cache.Cache      // optional; nil skips unified report caching
	log      *logrus.Logger

	mu   sync.RWMutex
	live map[string]*liveSession
}

func NewSessionService(sessions mongorepo.SessionRepository, feedback mongorepo.FeedbackRepository,
	uploader storage.Uploader, c cache.Cache, log *logrus.Logger) SessionService {
	if log == nil {
		log = logrus.New()
	}
	return &sessionService{
		sessions: sessions,
		feedback: feedback,
		uploader: uploader,
		cache:    c,
		log:      log,
		live:     map[string]*liveSession{},
	}
}

const unifiedCacheTTL = 24 * time.Hour

func unifiedCacheKey(sessionID string) string {
	return "session:" + sessionID + ":unified"
}

func (s *sessionService) Start(ctx context.Context, userID, scenarioID string, goals []string) (*models.PracticeSession, error) {
	const op = "SessionService.Start"

	if userID == "" || scenarioID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id and scenario_id are required", nil)
	}
	if err := analysis.ValidateGoals(goals); err != nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, err.Error(), err)
	}

	engine := analysis.NewEngine()
	engine.StartSession(scenarioID)

	now := time.Now().UTC()
	session := &models.PracticeSession{
		SessionID:  uuid.NewString(),
		UserID:     userID,
		ScenarioID: scenarioID,
		Goals:      goals,
		Status:     "active",
		CreatedAt:  now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create session", err)
	}

	s.mu.Lock()
	s.live[session.SessionID] = &liveSession{
		engine:     engine,
		userID:     userID,
		scenarioID: scenarioID,
		goals:      goals,
	}
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"session_id": session.SessionID,
		"scenario":   scenarioID,
		"goals":      len(goals),
	}).Info("practice session started")
	return session, nil
}

func (s *sessionService) Get(ctx context.Context, sessionID string) (*models.PracticeSession, error) {
	const op = "SessionService.Get"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}
	out, err := s.sessions.GetBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get session", err)
	}
	return out, nil
}

func (s *sessionService) lookup(sessionID string) (*liveSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ls, ok := s.live[sessionID]
	return ls, ok
}

func (s *sessionService) ProcessFrame(sessionID string, f *analysis.LandmarkFrame) error {
	const op = "SessionService.ProcessFrame"

	ls, ok := s.lookup(sessionID)
	if !ok {
		return utils.E(utils.CodeNotFound, op, "session is not active", nil)
	}
	ls.mu.Lock()
	ls.engine.ProcessFrame(f)
	ls.mu.Unlock()
	return nil
}

func (s *sessionService) AddVector(sessionID string, t float64, probs []float64) error {
	const op = "SessionService.AddVector"

	ls, ok := s.lookup(sessionID)
	if !ok {
		return utils.E(utils.CodeNotFound, op, "session is not active", nil)
	}
	ls.mu.Lock()
	err := ls.engine.AddTimelineEvent(t, probs)
	ls.mu.Unlock()
	if err != nil {
		return utils.E(utils.CodeInvalidArgument, op, err.Error(), err)
	}
	return nil
}

func (s *sessionService) LiveFeedback(sessionID string, goals []string) (analysis.LiveFeedback, error) {
	const op = "SessionService.LiveFeedback"

	ls, ok := s.lookup(sessionID)
	if !ok {
		return nil, utils.E(utils.CodeNotFound, op, "session is not active", nil)
	}
	if len(goals) == 0 {
		goals = ls.goals
	}
	ls.mu.Lock()
	fb := ls.engine.GetLiveFeedback(goals)
	ls.mu.Unlock()
	return fb, nil
}

// Stop ends a session. It is idempotent: the first call deregisters the
// engine (halting ingestion) before reading final state and persisting the
// reports; later calls return the stored result without regenerating.
func (s *sessionService) Stop(ctx context.Context, sessionID string) (*SessionResult, error) {
	const op = "SessionService.Stop"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}

	s.mu.Lock()
	ls, ok := s.live[sessionID]
	if ok {
		delete(s.live, sessionID)
	}
	s.mu.Unlock()

	if !ok {
		return s.stoppedResult(ctx, sessionID)
	}

	ls.mu.Lock()
	detailed := ls.engine.GetDetailedReport()
	backend, repErr := ls.engine.GetBackendReport()
	ls.mu.Unlock()

	now := time.Now().UTC()
	duration := int64(detailed.SessionDuration)

	if repErr != nil {
		// No valid frames: end the session but report the empty timeline as
		// a structured error so callers can render a no-data state.
		if err := s.sessions.End(ctx, sessionID, now, duration, &detailed, nil); err != nil {
			s.log.WithError(err).Warn("failed to end empty session")
		}
		return nil, utils.E(utils.CodeNotFound, op, "no data in timeline", repErr)
	}

	s.uploadThumbnails(ctx, sessionID, backend)

	unified := analysis.GenerateUnifiedReport(backend, detailed, ls.goals, ls.scenarioID)

	if err := s.sessions.End(ctx, sessionID, now, duration, &detailed, backend); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to end session", err)
	}
	if err := s.feedback.Save(ctx, &models.FeedbackHistory{
		SessionID:  sessionID,
		UserID:     ls.userID,
		ScenarioID: ls.scenarioID,
		Goals:      ls.goals,
		Unified:    unified,
		CreatedAt:  now,
	}); err != nil {
		s.log.WithError(err).WithField("session_id", sessionID).Error("failed to save feedback history")
	}
	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, unifiedCacheKey(sessionID), unified, unifiedCacheTTL); err != nil {
			s.log.WithError(err).Warn("unified report cache write failed")
		}
	}

	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"session_id": sessionID,
		"overall":    unified.OverallScore,
		"duration":   unified.Duration,
	}).Info("practice session stopped")

	return &SessionResult{Session: session, Detailed: detailed, Backend: backend, Unified: unified}, nil
}

// stoppedResult serves repeat Stop calls from the persisted reports.
func (s *sessionService) stoppedResult(ctx context.Context, sessionID string) (*SessionResult, error) {
	const op = "SessionService.Stop"

	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != "ended" || session.BackendReport == nil || session.DetailedReport == nil {
		return nil, utils.E(utils.CodeConflict, op, "session is not active", nil)
	}

	var unified analysis.UnifiedFeedbackData
	hit := false
	if s.cache != nil {
		hit, _ = s.cache.GetJSON(ctx, unifiedCacheKey(sessionID), &unified)
	}
	if !hit {
		unified = analysis.GenerateUnifiedReport(session.BackendReport, *session.DetailedReport, session.Goals, session.ScenarioID)
	}
	return &SessionResult{
		Session:  session,
		Detailed: *session.DetailedReport,
		Backend:  session.BackendReport,
		Unified:  unified,
	}, nil
}

// uploadThumbnails moves captured key-moment snapshots to object storage,
// best effort: a missing uploader or a failed upload leaves the moment
// without a thumbnail rather than failing the report.
func (s *sessionService) uploadThumbnails(ctx context.Context, sessionID string, backend *analysis.BackendReport) {
	if s.uploader == nil {
		return
	}
	for i := range backend.Insights.KeyMoments {
		km := &backend.Insights.KeyMoments[i]
		if km.ThumbB64 == "" {
			continue
		}
		raw := km.ThumbB64
		if idx := strings.Index(raw, ","); idx >= 0 {
			raw = raw[idx+1:] // strip data:image/...;base64,
		}
		img, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			s.log.WithError(err).Warn("key moment thumbnail decode failed")
			km.ThumbB64 = ""
			continue
		}
		name := "key-moments/" + sessionID + "/" + uuid.NewString() + ".jpg"
		url, err := s.uploader.Upload(ctx, name, "image/jpeg", bytes.NewReader(img))
		if err != nil {
			s.log.WithError(err).Warn("key moment thumbnail upload failed")
			km.ThumbB64 = ""
			continue
		}
		km.ThumbURL = url
		km.ThumbB64 = ""
	}
}

func (s *sessionService) History(ctx context.Context, userID string, limit int64) ([]models.FeedbackHistory, error) {
	const op = "SessionService.History"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	out, err := s.feedback.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list feedback history", err)
	}
	return out, nil
}
