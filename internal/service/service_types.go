package service

import (
	"encoding/json"
	"time"
)

// QuestionPayload 学生端看到的题目
type QuestionPayload struct {
	ID           uint            `json:"id"`
	ExamID       string          `json:"exam"`
	Text         string          `json:"text"`
	QuestionType string          `json:"question_type"`
	MaxMarks     int             `json:"max_marks"`
	Options      json.RawMessage `json:"options" copier:"-"`
}

// ExamPayload 学生端看到的试卷
type ExamPayload struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	CreatedAt   time.Time         `json:"created_at"`
	Questions   []QuestionPayload `json:"questions"`
}

type CreateQuestionReq struct {
	Text         string          `json:"text" binding:"required,max=500"`
	QuestionType string          `json:"question_type" binding:"required,oneof=MCQ TEXT"`
	MaxMarks     int             `json:"max_marks" binding:"omitempty,min=1"`
	Options      json.RawMessage `json:"options"`
}

type CreateExamReq struct {
	Title       string              `json:"title" binding:"required,max=200"`
	Description string              `json:"description"`
	Questions   []CreateQuestionReq `json:"questions" binding:"dive"`
}

type SubmitReq struct {
	RegNumber string            `json:"reg_number" binding:"required,regnumber"`
	Name      string            `json:"name" binding:"required,max=100"`
	Answers   map[string]string `json:"answers" binding:"required"`
}

// StatusResult Found 为 false 时其余字段不输出
type StatusResult struct {
	Found  bool     `json:"found"`
	Graded *bool    `json:"graded,omitempty"`
	Score  *float64 `json:"score,omitempty"`
}

// GradingAnswer 阅卷视图中的一道答案，题目信息只读
type GradingAnswer struct {
	ID            uint       `json:"id"`
	QuestionID    uint       `json:"question_id"`
	QuestionText  string     `json:"question_text"`
	QuestionType  string     `json:"question_type"`
	MaxMarks      int        `json:"max_marks"`
	StudentAnswer string     `json:"student_answer"`
	MarksObtained float64    `json:"marks_obtained"`
	MarkedAt      *time.Time `json:"marked_at,omitempty"`
}

type GradingView struct {
	SubmissionID uint            `json:"submission_id"`
	ExamID       string          `json:"exam_id"`
	ExamTitle    string          `json:"exam_title"`
	StudentName  string          `json:"student_name"`
	RegNumber    string          `json:"reg_number"`
	Score        float64         `json:"score"`
	IsGraded     bool            `json:"is_graded"`
	GradedAt     *time.Time      `json:"graded_at,omitempty"`
	MaxScore     int             `json:"max_score"`
	Answers      []GradingAnswer `json:"answers"`
}

type GradeResult struct {
	SubmissionID uint    `json:"submission_id"`
	Score        float64 `json:"score"`
	IsGraded     bool    `json:"is_graded"`
	Marked       int     `json:"marked"`
	Total        int     `json:"total"`
}

// SubmissionSummary 后台提交列表的一行
type SubmissionSummary struct {
	ID          uint       `json:"id"`
	StudentID   uint       `json:"student_id"`
	StudentName string     `json:"student_name"`
	RegNumber   string     `json:"reg_number"`
	Score       float64    `json:"score"`
	IsGraded    bool       `json:"is_graded"`
	GradedAt    *time.Time `json:"graded_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type LoginReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResult struct {
	Token string `json:"token"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type GradeReq struct {
	// key 为答案ID
	Marks map[string]float64 `json:"marks" binding:"required"`
}

type ExportResult struct {
	URL         string `json:"url"`
	Object      string `json:"object"`
	Submissions int    `json:"submissions"`
}
