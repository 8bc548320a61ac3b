package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// swagger:model Student
type Student struct {
	BaseModel
	Name      string `gorm:"size:100;not null" json:"name"`
	RegNumber string `gorm:"size:50;not null;uniqueIndex" json:"reg_number"`
}

func (Student) TableName() string {
	return "students"
}

// swagger:model Submission
type Submission struct {
	BaseModel
	ExamID    string          `gorm:"type:varchar(36);not null;uniqueIndex:idx_submission_student_exam,priority:2" json:"exam"`
	Exam      *Exam           `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	StudentID uint            `gorm:"not null;uniqueIndex:idx_submission_student_exam,priority:1" json:"student"`
	Student   *Student        `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Score     decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"score"`
	IsGraded  bool            `gorm:"not null;default:false" json:"is_graded"`
	GradedAt  *time.Time      `json:"graded_at,omitempty"`
	Answers   []Answer        `gorm:"foreignKey:SubmissionID;constraint:OnDelete:CASCADE" json:"answers,omitempty"`
}

func (Submission) TableName() string {
	return "submissions"
}

// swagger:model Answer
type Answer struct {
	BaseModel
	SubmissionID  uint            `gorm:"not null;uniqueIndex:idx_answer_submission_question,priority:1" json:"submission"`
	QuestionID    uint            `gorm:"index;not null;uniqueIndex:idx_answer_submission_question,priority:2" json:"question"`
	Question      *Question       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	StudentAnswer string          `gorm:"type:text;not null" json:"student_answer"`
	MarksObtained decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"marks_obtained"`
	// 管理员录入分数的时间，为空表示尚未评分
	MarkedAt *time.Time `json:"marked_at,omitempty"`
}

func (Answer) TableName() string {
	return "answers"
}
