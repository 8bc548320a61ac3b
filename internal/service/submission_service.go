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
	"sort"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type SubmissionService struct {
	DB             *gorm.DB
	ExamRepo       *repository.ExamRepository
	StudentRepo    *repository.StudentRepository
	SubmissionRepo *repository.SubmissionRepository
}

func NewSubmissionService(db *gorm.DB, examRepo *repository.ExamRepository, studentRepo *repository.StudentRepository, submissionRepo *repository.SubmissionRepository) *SubmissionService {
	return &SubmissionService{
		DB:             db,
		ExamRepo:       examRepo,
		StudentRepo:    studentRepo,
		SubmissionRepo: submissionRepo,
	}
}

// Submit 记录学生对某场考试的唯一一次作答。
// 学生的 upsert、重复检查、提交与答案写入在同一事务中完成，
// (student_id, exam_id) 唯一索引兜底并发重复提交。
func (s *SubmissionService) Submit(ctx context.Context, examID string, req SubmitReq) (_ *model.Submission, err error) {
	ctx, span := tracing.Start(ctx, "SubmissionService.Submit",
		attribute.String("exam.id", examID),
		attribute.Int("answers", len(req.Answers)),
	)
	defer func() {
		tracing.End(span, err)
		monitoring.ObserveSubmission(submissionOutcome(err))
	}()

	if !model.IsUUID(examID) {
		return nil, util.ErrExamNotFound
	}

	regNumber := strings.TrimSpace(req.RegNumber)

	var submission *model.Submission
	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		examRepo := s.ExamRepo.WithTx(tx)
		studentRepo := s.StudentRepo.WithTx(tx)
		submissionRepo := s.SubmissionRepo.WithTx(tx)

		if _, err := examRepo.FindByID(ctx, examID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrExamNotFound
			}
			return err
		}

		student, err := studentRepo.Upsert(ctx, regNumber, strings.TrimSpace(req.Name))
		if err != nil {
			return fmt.Errorf("upsert student: %w", err)
		}

		exists, err := submissionRepo.ExistsForStudent(ctx, student.ID, examID)
		if err != nil {
			return err
		}
		if exists {
			return util.ErrAlreadySubmitted
		}

		questions, err := examRepo.ListQuestions(ctx, examID)
		if err != nil {
			return err
		}
		answers, err := buildAnswers(questions, req.Answers)
		if err != nil {
			return err
		}

		submission = &model.Submission{
			ExamID:    examID,
			StudentID: student.ID,
			Answers:   answers,
		}
		if err := submissionRepo.Create(ctx, submission); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return util.ErrAlreadySubmitted
			}
			return fmt.Errorf("create submission: %w", err)
		}
		return nil
	})
	if txErr != nil {
		if errors.Is(txErr, util.ErrAlreadySubmitted) {
			logger.Log.Info("Duplicate submission rejected",
				zap.String("examId", examID),
				zap.String("regNumber", regNumber),
			)
		}
		return nil, txErr
	}

	logger.Log.Info("Submission recorded",
		zap.String("examId", examID),
		zap.String("regNumber", regNumber),
		zap.Uint("submissionId", submission.ID),
		zap.Int("answers", len(submission.Answers)),
	)
	return submission, nil
}

// buildAnswers 答案按题目ID排序写入；题目必须属于本场考试，每道题最多一条
func buildAnswers(questions []model.Question, raw map[string]string) ([]model.Answer, error) {
	valid := make(map[uint]struct{}, len(questions))
	for _, q := range questions {
		valid[q.ID] = struct{}{}
	}

	seen := make(map[uint]struct{}, len(raw))
	answers := make([]model.Answer, 0, len(raw))
	for key, text := range raw {
		qid, err := strconv.ParseUint(strings.TrimSpace(key), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", util.ErrUnknownQuestion, key)
		}
		if _, ok := valid[uint(qid)]; !ok {
			return nil, fmt.Errorf("%w: %d", util.ErrUnknownQuestion, qid)
		}
		// "7"、"07"、" 7" 指向同一道题
		if _, dup := seen[uint(qid)]; dup {
			return nil, fmt.Errorf("%w: %d", util.ErrDuplicateAnswer, qid)
		}
		seen[uint(qid)] = struct{}{}
		answers = append(answers, model.Answer{
			QuestionID:    uint(qid),
			StudentAnswer: text,
		})
	}

	sort.Slice(answers, func(i, j int) bool {
		return answers[i].QuestionID < answers[j].QuestionID
	})
	return answers, nil
}

func submissionOutcome(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, util.ErrAlreadySubmitted):
		return "duplicate"
	default:
		return "rejected"
	}
}

// CheckStatus 任何查询不到的情况都返回 Found=false，不区分原因
func (s *SubmissionService) CheckStatus(ctx context.Context, examID, regNumber string) (_ *StatusResult, err error) {
	ctx, span := tracing.Start(ctx, "SubmissionService.CheckStatus", attribute.String("exam.id", examID))
	defer func() { tracing.End(span, err) }()

	regNumber = strings.TrimSpace(regNumber)
	if !model.IsUUID(examID) || regNumber == "" {
		return &StatusResult{Found: false}, nil
	}

	sub, findErr := s.SubmissionRepo.FindByExamAndRegNumber(ctx, examID, regNumber)
	if errors.Is(findErr, gorm.ErrRecordNotFound) {
		return &StatusResult{Found: false}, nil
	}
	if findErr != nil {
		return nil, fmt.Errorf("check status: %w", findErr)
	}

	graded := sub.IsGraded
	score := sub.Score.InexactFloat64()
	return &StatusResult{Found: true, Graded: &graded, Score: &score}, nil
}

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// ListStudents 返回的 Page/Limit 为实际生效的分页参数
func (s *SubmissionService) ListStudents(ctx context.Context, page, limit int) (*util.PageResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxPageLimit {
		limit = defaultPageLimit
	}

	students, total, err := s.StudentRepo.List(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	return &util.PageResponse{
		List:  students,
		Total: total,
		Page:  page,
		Limit: limit,
	}, nil
}
