package service

import (
	"context"
	"encoding/json"
	"errors"
	"exam_portal_backend/internal/model"
	"exam_portal_backend/internal/repository"
	"exam_portal_backend/internal/util"
	"exam_portal_backend/pkg/logger"
	"exam_portal_backend/pkg/tracing"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	maxTitleLen        = 200
	maxQuestionTextLen = 500
	// 总分写入 decimal(5,2)，上限 999.99
	maxExamMarks = 999
)

type ExamService struct {
	Repo           *repository.ExamRepository
	SubmissionRepo *repository.SubmissionRepository
	Cache          *repository.ExamCacheRepository

	exposeOptions atomic.Bool
	cacheTTL      atomic.Int64
}

func NewExamService(repo *repository.ExamRepository, submissionRepo *repository.SubmissionRepository, cache *repository.ExamCacheRepository) *ExamService {
	s := &ExamService{Repo: repo, SubmissionRepo: submissionRepo, Cache: cache}
	s.exposeOptions.Store(true)
	return s
}

// SetDeliveryPolicy 配置热更新时调用
func (s *ExamService) SetDeliveryPolicy(exposeOptions bool, cacheTTL time.Duration) {
	s.exposeOptions.Store(exposeOptions)
	s.cacheTTL.Store(int64(cacheTTL))
}

func (s *ExamService) CreateExam(ctx context.Context, req CreateExamReq) (_ *model.Exam, err error) {
	ctx, span := tracing.Start(ctx, "ExamService.CreateExam")
	defer func() { tracing.End(span, err) }()

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", util.ErrInvalidExam)
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return nil, fmt.Errorf("%w: title exceeds %d characters", util.ErrInvalidExam, maxTitleLen)
	}

	exam := &model.Exam{
		Title:       title,
		Description: req.Description,
		Questions:   make([]model.Question, 0, len(req.Questions)),
	}

	totalMarks := 0
	for i, q := range req.Questions {
		question, qErr := buildQuestion(q)
		if qErr != nil {
			return nil, fmt.Errorf("%w: question %d: %v", util.ErrInvalidExam, i+1, qErr)
		}
		totalMarks += question.MaxMarks
		if totalMarks > maxExamMarks {
			return nil, fmt.Errorf("%w: total marks exceed %d", util.ErrInvalidExam, maxExamMarks)
		}
		exam.Questions = append(exam.Questions, question)
	}

	if err = s.Repo.Create(ctx, exam); err != nil {
		return nil, fmt.Errorf("create exam: %w", err)
	}

	logger.Log.Info("Exam created",
		zap.String("examId", exam.ID),
		zap.Int("questions", len(exam.Questions)),
	)
	return exam, nil
}

func buildQuestion(req CreateQuestionReq) (model.Question, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return model.Question{}, errors.New("text is required")
	}
	if utf8.RuneCountInString(text) > maxQuestionTextLen {
		return model.Question{}, fmt.Errorf("text exceeds %d characters", maxQuestionTextLen)
	}

	qType := model.QuestionType(req.QuestionType)
	if !qType.Valid() {
		return model.Question{}, fmt.Errorf("unknown question type %q", req.QuestionType)
	}

	maxMarks := req.MaxMarks
	if maxMarks == 0 {
		maxMarks = 1
	}
	if maxMarks < 0 {
		return model.Question{}, errors.New("max_marks must be positive")
	}
	if maxMarks > maxExamMarks {
		return model.Question{}, fmt.Errorf("max_marks exceeds %d", maxExamMarks)
	}

	var options datatypes.JSON
	if len(req.Options) > 0 && string(req.Options) != "null" {
		if !json.Valid(req.Options) {
			return model.Question{}, errors.New("options must be valid JSON")
		}
		options = datatypes.JSON(req.Options)
	}

	return model.Question{
		Text:         text,
		QuestionType: qType,
		MaxMarks:     maxMarks,
		Options:      options,
	}, nil
}

// GetExam 学生端取卷；优先读缓存
func (s *ExamService) GetExam(ctx context.Context, examID string) (_ *ExamPayload, err error) {
	ctx, span := tracing.Start(ctx, "ExamService.GetExam", attribute.String("exam.id", examID))
	defer func() { tracing.End(span, err) }()

	if !model.IsUUID(examID) {
		return nil, util.ErrExamNotFound
	}

	payload, ok := s.loadCached(ctx, examID)
	if !ok {
		exam, findErr := s.Repo.FindWithQuestions(ctx, examID)
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			return nil, util.ErrExamNotFound
		}
		if findErr != nil {
			return nil, fmt.Errorf("load exam %s: %w", examID, findErr)
		}

		payload = &ExamPayload{}
		if err := util.CopyDTO(payload, exam); err != nil {
			return nil, err
		}
		if payload.Questions == nil {
			payload.Questions = []QuestionPayload{}
		}
		for i := range exam.Questions {
			if len(exam.Questions[i].Options) > 0 {
				payload.Questions[i].Options = json.RawMessage(exam.Questions[i].Options)
			}
		}
		s.storeCached(ctx, examID, payload)
	}

	if !s.exposeOptions.Load() {
		for i := range payload.Questions {
			payload.Questions[i].Options = nil
		}
	}

	return payload, nil
}

func (s *ExamService) loadCached(ctx context.Context, examID string) (*ExamPayload, bool) {
	data, ok, err := s.Cache.Get(ctx, examID)
	if err != nil {
		logger.Log.Warn("Exam cache read failed", zap.String("examId", examID), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var payload ExamPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		logger.Log.Warn("Exam cache entry corrupt", zap.String("examId", examID), zap.Error(err))
		return nil, false
	}
	return &payload, true
}

func (s *ExamService) storeCached(ctx context.Context, examID string, payload *ExamPayload) {
	ttl := time.Duration(s.cacheTTL.Load())
	if ttl <= 0 || !s.Cache.Enabled() {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := s.Cache.Set(ctx, examID, data, ttl); err != nil {
		logger.Log.Warn("Exam cache write failed", zap.String("examId", examID), zap.Error(err))
	}
}

// GetExamForAdmin 后台查看试卷，不经过缓存
func (s *ExamService) GetExamForAdmin(ctx context.Context, examID string) (*model.Exam, error) {
	if !model.IsUUID(examID) {
		return nil, util.ErrExamNotFound
	}
	exam, err := s.Repo.FindWithQuestions(ctx, examID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrExamNotFound
	}
	return exam, err
}

func (s *ExamService) ListExams(ctx context.Context) ([]repository.ExamListRow, error) {
	return s.Repo.List(ctx)
}

func (s *ExamService) DeleteExam(ctx context.Context, examID string) (err error) {
	ctx, span := tracing.Start(ctx, "ExamService.DeleteExam", attribute.String("exam.id", examID))
	defer func() { tracing.End(span, err) }()

	if !model.IsUUID(examID) {
		return util.ErrExamNotFound
	}

	delErr := s.Repo.Delete(ctx, examID)
	if errors.Is(delErr, gorm.ErrRecordNotFound) {
		return util.ErrExamNotFound
	}
	if delErr != nil {
		return fmt.Errorf("delete exam %s: %w", examID, delErr)
	}

	if cacheErr := s.Cache.Delete(ctx, examID); cacheErr != nil {
		logger.Log.Warn("Exam cache invalidation failed", zap.String("examId", examID), zap.Error(cacheErr))
	}

	logger.Log.Info("Exam deleted", zap.String("examId", examID))
	return nil
}

func (s *ExamService) ListSubmissions(ctx context.Context, examID string) ([]SubmissionSummary, error) {
	if !model.IsUUID(examID) {
		return nil, util.ErrExamNotFound
	}
	if _, err := s.Repo.FindByID(ctx, examID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrExamNotFound
		}
		return nil, err
	}
	rows, err := s.SubmissionRepo.ListByExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	summaries := make([]SubmissionSummary, 0, len(rows))
	if err := util.CopyDTO(&summaries, &rows); err != nil {
		return nil, err
	}
	return summaries, nil
}
