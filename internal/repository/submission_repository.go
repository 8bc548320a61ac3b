package repository

import (
	"context"
	"exam_portal_backend/internal/model"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SubmissionRepository struct {
	DB *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{DB: db}
}

func (r *SubmissionRepository) WithTx(tx *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{DB: tx}
}

// Create 连同 Answers 一起写入
func (r *SubmissionRepository) Create(ctx context.Context, submission *model.Submission) error {
	return r.DB.WithContext(ctx).Create(submission).Error
}

func (r *SubmissionRepository) ExistsForStudent(ctx context.Context, studentID uint, examID string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Submission{}).
		Where("student_id = ? AND exam_id = ?", studentID, examID).
		Count(&count).Error
	return count > 0, err
}

// FindByExamAndRegNumber 通过考试ID和学号定位唯一提交
func (r *SubmissionRepository) FindByExamAndRegNumber(ctx context.Context, examID, regNumber string) (*model.Submission, error) {
	var s model.Submission
	err := r.DB.WithContext(ctx).
		Joins("JOIN students ON students.id = submissions.student_id").
		Where("submissions.exam_id = ? AND students.reg_number = ?", examID, regNumber).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// FindForGrading 预加载学生、考试及答案对应的题目
func (r *SubmissionRepository) FindForGrading(ctx context.Context, id uint) (*model.Submission, error) {
	var s model.Submission
	err := r.DB.WithContext(ctx).
		Preload("Student").
		Preload("Exam").
		Preload("Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("answers.question_id ASC, answers.id ASC")
		}).
		Preload("Answers.Question").
		First(&s, id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SubmissionRepository) FindByID(ctx context.Context, id uint) (*model.Submission, error) {
	var s model.Submission
	if err := r.DB.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SubmissionRepository) ListAnswers(ctx context.Context, submissionID uint) ([]model.Answer, error) {
	var answers []model.Answer
	err := r.DB.WithContext(ctx).
		Preload("Question").
		Where("submission_id = ?", submissionID).
		Order("question_id ASC, id ASC").
		Find(&answers).Error
	return answers, err
}

func (r *SubmissionRepository) UpdateAnswerMarks(ctx context.Context, answerID uint, marks decimal.Decimal, markedAt time.Time) error {
	return r.DB.WithContext(ctx).Model(&model.Answer{}).
		Where("id = ?", answerID).
		Updates(map[string]interface{}{
			"marks_obtained": marks,
			"marked_at":      markedAt,
		}).Error
}

func (r *SubmissionRepository) UpdateGrade(ctx context.Context, submission *model.Submission) error {
	return r.DB.WithContext(ctx).Model(&model.Submission{}).
		Where("id = ?", submission.ID).
		Updates(map[string]interface{}{
			"score":     submission.Score,
			"is_graded": submission.IsGraded,
			"graded_at": submission.GradedAt,
		}).Error
}

type SubmissionListRow struct {
	ID          uint            `json:"id"`
	StudentID   uint            `json:"student_id"`
	StudentName string          `json:"student_name"`
	RegNumber   string          `json:"reg_number"`
	Score       decimal.Decimal `json:"score"`
	IsGraded    bool            `json:"is_graded"`
	GradedAt    *time.Time      `json:"graded_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (r *SubmissionRepository) ListByExam(ctx context.Context, examID string) ([]SubmissionListRow, error) {
	var rows []SubmissionListRow
	err := r.DB.WithContext(ctx).Table("submissions s").
		Select("s.id, s.student_id, st.name AS student_name, st.reg_number, s.score, s.is_graded, s.graded_at, s.created_at").
		Joins("JOIN students st ON st.id = s.student_id").
		Where("s.exam_id = ?", examID).
		Order("s.created_at ASC, s.id ASC").
		Scan(&rows).Error
	return rows, err
}

// ListAnswersByExam 导出成绩时一次取出整场考试的答案
func (r *SubmissionRepository) ListAnswersByExam(ctx context.Context, examID string) ([]model.Answer, error) {
	var answers []model.Answer
	err := r.DB.WithContext(ctx).
		Joins("JOIN submissions ON submissions.id = answers.submission_id").
		Where("submissions.exam_id = ?", examID).
		Order("answers.submission_id ASC, answers.question_id ASC").
		Find(&answers).Error
	return answers, err
}
