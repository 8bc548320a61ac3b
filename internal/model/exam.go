package model

import (
	"gorm.io/datatypes"
)

type QuestionType string

const (
	QuestionMCQ  QuestionType = "MCQ"
	QuestionText QuestionType = "TEXT"
)

func (t QuestionType) Valid() bool {
	return t == QuestionMCQ || t == QuestionText
}

// swagger:model Exam
type Exam struct {
	UUIDBase
	Title       string     `gorm:"size:200;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Questions   []Question `gorm:"foreignKey:ExamID;constraint:OnDelete:CASCADE" json:"questions,omitempty"`
}

func (Exam) TableName() string {
	return "exams"
}

// swagger:model Question
type Question struct {
	BaseModel
	ExamID       string         `gorm:"index;type:varchar(36);not null" json:"exam"`
	Text         string         `gorm:"size:500;not null" json:"text"`
	QuestionType QuestionType   `gorm:"size:10;not null" json:"question_type"`
	MaxMarks     int            `gorm:"not null;default:1" json:"max_marks"`
	Options      datatypes.JSON `json:"options"`
}

func (Question) TableName() string {
	return "questions"
}
