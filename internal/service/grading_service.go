package service

import (
	"context"
	"errors"
	"exam_portal_backend/internal/model"
	"exam_portal_backend/internal/repository"
	"exam_portal_backend/internal/util"
	"exam_portal_backend/pkg/logger"
	"exam_portal_backend/pkg/monitoring"
	"exam_portal_backend/pkg/tracing"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// marksPlaces 与 decimal(5,2) 列保持一致
const marksPlaces = 2

type GradingService struct {
	DB             *gorm.DB
	SubmissionRepo *repository.SubmissionRepository

	requireComplete atomic.Bool
	now             func() time.Time
}

func NewGradingService(db *gorm.DB, submissionRepo *repository.SubmissionRepository, requireComplete bool) *GradingService {
	s := &GradingService{
		DB:             db,
		SubmissionRepo: submissionRepo,
		now:            time.Now,
	}
	s.requireComplete.Store(requireComplete)
	return s
}

func (s *GradingService) SetRequireComplete(v bool) {
	s.requireComplete.Store(v)
}

func (s *GradingService) RequireComplete() bool {
	return s.requireComplete.Load()
}

// RecomputeScore 总分为全部答案得分之和，不做增量累加。
// requireComplete 为 true 时，只有每道答案都已录分才视为已评分。
func RecomputeScore(answers []model.Answer, requireComplete bool) (decimal.Decimal, bool) {
	total := decimal.Zero
	complete := true
	for _, a := range answers {
		total = total.Add(a.MarksObtained)
		if a.MarkedAt == nil {
			complete = false
		}
	}
	graded := complete || !requireComplete
	return total, graded
}

func (s *GradingService) GetSubmissionForGrading(ctx context.Context, submissionID uint) (*GradingView, error) {
	sub, err := s.SubmissionRepo.FindForGrading(ctx, submissionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrSubmissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load submission %d: %w", submissionID, err)
	}
	return buildGradingView(sub), nil
}

func buildGradingView(sub *model.Submission) *GradingView {
	view := &GradingView{
		SubmissionID: sub.ID,
		ExamID:       sub.ExamID,
		Score:        sub.Score.InexactFloat64(),
		IsGraded:     sub.IsGraded,
		GradedAt:     sub.GradedAt,
		Answers:      make([]GradingAnswer, 0, len(sub.Answers)),
	}
	if sub.Exam != nil {
		view.ExamTitle = sub.Exam.Title
	}
	if sub.Student != nil {
		view.StudentName = sub.Student.Name
		view.RegNumber = sub.Student.RegNumber
	}

	for _, a := range sub.Answers {
		ga := GradingAnswer{
			ID:            a.ID,
			QuestionID:    a.QuestionID,
			StudentAnswer: a.StudentAnswer,
			MarksObtained: a.MarksObtained.InexactFloat64(),
			MarkedAt:      a.MarkedAt,
		}
		if a.Question != nil {
			ga.QuestionText = a.Question.Text
			ga.QuestionType = string(a.Question.QuestionType)
			ga.MaxMarks = a.Question.MaxMarks
			view.MaxScore += a.Question.MaxMarks
		}
		view.Answers = append(view.Answers, ga)
	}
	return view
}

// Grade 保存本次录入的分数并重新计算总分，整个过程在一个事务内
func (s *GradingService) Grade(ctx context.Context, submissionID uint, marks map[uint]decimal.Decimal) (_ *GradeResult, err error) {
	ctx, span := tracing.Start(ctx, "GradingService.Grade",
		attribute.Int64("submission.id", int64(submissionID)),
		attribute.Int("marks", len(marks)),
	)
	defer func() { tracing.End(span, err) }()

	requireComplete := s.requireComplete.Load()
	var result *GradeResult

	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.SubmissionRepo.WithTx(tx)

		sub, err := repo.FindByID(ctx, submissionID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrSubmissionNotFound
		}
		if err != nil {
			return err
		}

		answers, err := repo.ListAnswers(ctx, submissionID)
		if err != nil {
			return err
		}
		if err := validateMarks(answers, marks); err != nil {
			return err
		}

		markedAt := s.now()
		for i := range answers {
			m, ok := marks[answers[i].ID]
			if !ok {
				continue
			}
			if err := repo.UpdateAnswerMarks(ctx, answers[i].ID, m, markedAt); err != nil {
				return fmt.Errorf("save marks for answer %d: %w", answers[i].ID, err)
			}
			answers[i].MarksObtained = m
			answers[i].MarkedAt = &markedAt
		}

		score, graded := RecomputeScore(answers, requireComplete)
		sub.Score = score
		sub.IsGraded = graded
		if graded {
			if sub.GradedAt == nil {
				sub.GradedAt = &markedAt
			}
		} else {
			sub.GradedAt = nil
		}
		if err := repo.UpdateGrade(ctx, sub); err != nil {
			return fmt.Errorf("save submission score: %w", err)
		}

		marked := 0
		for _, a := range answers {
			if a.MarkedAt != nil {
				marked++
			}
		}
		result = &GradeResult{
			SubmissionID: sub.ID,
			Score:        score.InexactFloat64(),
			IsGraded:     graded,
			Marked:       marked,
			Total:        len(answers),
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	monitoring.ObserveGrading(result.IsGraded)
	logger.Log.Info("Submission graded",
		zap.Uint("submissionId", submissionID),
		zap.Float64("score", result.Score),
		zap.Bool("graded", result.IsGraded),
		zap.Int("marked", result.Marked),
		zap.Int("total", result.Total),
	)
	return result, nil
}

// validateMarks 分数范围 0 ≤ marks ≤ max_marks，且最多两位小数
func validateMarks(answers []model.Answer, marks map[uint]decimal.Decimal) error {
	byID := make(map[uint]*model.Answer, len(answers))
	for i := range answers {
		byID[answers[i].ID] = &answers[i]
	}

	for answerID, m := range marks {
		a, ok := byID[answerID]
		if !ok {
			return fmt.Errorf("%w: %d", util.ErrAnswerNotInSubmission, answerID)
		}
		if m.IsNegative() || m.Exponent() < -marksPlaces && !m.Equal(m.Round(marksPlaces)) {
			return fmt.Errorf("%w: answer %d got %s", util.ErrInvalidMarks, answerID, m.String())
		}
		if a.Question != nil && m.GreaterThan(decimal.NewFromInt(int64(a.Question.MaxMarks))) {
			return fmt.Errorf("%w: answer %d got %s, max %d", util.ErrInvalidMarks, answerID, m.String(), a.Question.MaxMarks)
		}
	}
	return nil
}
