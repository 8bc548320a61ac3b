package repository

import (
	"context"
	"exam_portal_backend/internal/model"

	"gorm.io/gorm"
)

type ExamRepository struct {
	DB *gorm.DB
}

func NewExamRepository(db *gorm.DB) *ExamRepository {
	return &ExamRepository{DB: db}
}

func (r *ExamRepository) WithTx(tx *gorm.DB) *ExamRepository {
	return &ExamRepository{DB: tx}
}

// Create 连同题目一起写入，题目按切片顺序插入
func (r *ExamRepository) Create(ctx context.Context, exam *model.Exam) error {
	return r.DB.WithContext(ctx).Create(exam).Error
}

func (r *ExamRepository) FindByID(ctx context.Context, id string) (*model.Exam, error) {
	var exam model.Exam
	err := r.DB.WithContext(ctx).First(&exam, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &exam, nil
}

// FindWithQuestions 题目按插入顺序返回
func (r *ExamRepository) FindWithQuestions(ctx context.Context, id string) (*model.Exam, error) {
	var exam model.Exam
	err := r.DB.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.id ASC")
		}).
		First(&exam, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &exam, nil
}

func (r *ExamRepository) ListQuestions(ctx context.Context, examID string) ([]model.Question, error) {
	var qs []model.Question
	err := r.DB.WithContext(ctx).Where("exam_id = ?", examID).Order("id ASC").Find(&qs).Error
	return qs, err
}

type ExamListRow struct {
	model.Exam
	QuestionCount   int `json:"question_count"`
	TotalMarks      int `json:"total_marks"`
	SubmissionCount int `json:"submission_count"`
}

func (r *ExamRepository) List(ctx context.Context) ([]ExamListRow, error) {
	var rows []ExamListRow
	err := r.DB.WithContext(ctx).Table("exams e").
		Select("e.*, " +
			"(SELECT COUNT(*) FROM questions q WHERE q.exam_id = e.id) AS question_count, " +
			"(SELECT COALESCE(SUM(q.max_marks), 0) FROM questions q WHERE q.exam_id = e.id) AS total_marks, " +
			"(SELECT COUNT(*) FROM submissions s WHERE s.exam_id = e.id) AS submission_count").
		Order("e.created_at DESC").
		Scan(&rows).Error
	return rows, err
}

// Delete 级联删除题目、提交和答案；不依赖数据库外键
func (r *ExamRepository) Delete(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subIDs := tx.Model(&model.Submission{}).Select("id").Where("exam_id = ?", id)
		if err := tx.Where("submission_id IN (?)", subIDs).Delete(&model.Answer{}).Error; err != nil {
			return err
		}
		if err := tx.Where("exam_id = ?", id).Delete(&model.Submission{}).Error; err != nil {
			return err
		}
		if err := tx.Where("exam_id = ?", id).Delete(&model.Question{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Exam{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
