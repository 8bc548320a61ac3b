package service

import (
	"context"
	"encoding/json"
	"errors"
	"exam_portal_backend/internal/model"
	"exam_portal_backend/internal/repository"
	"exam_portal_backend/internal/testutil"
	"exam_portal_backend/internal/util"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type testEnv struct {
	db         *gorm.DB
	exam       *ExamService
	submission *SubmissionService
	grading    *GradingService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	examRepo := repository.NewExamRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)

	return &testEnv{
		db:         db,
		exam:       NewExamService(examRepo, submissionRepo, repository.NewExamCacheRepository(nil)),
		submission: NewSubmissionService(db, examRepo, studentRepo, submissionRepo),
		grading:    NewGradingService(db, submissionRepo, true),
	}
}

func (e *testEnv) createExam(t *testing.T, title string, maxMarks ...int) *model.Exam {
	t.Helper()

	req := CreateExamReq{Title: title}
	for i, m := range maxMarks {
		req.Questions = append(req.Questions, CreateQuestionReq{
			Text:         "Question " + strconv.Itoa(i+1),
			QuestionType: "TEXT",
			MaxMarks:     m,
		})
	}
	exam, err := e.exam.CreateExam(context.Background(), req)
	if err != nil {
		t.Fatalf("create exam: %v", err)
	}
	return exam
}

func answersFor(exam *model.Exam, texts ...string) map[string]string {
	answers := make(map[string]string, len(texts))
	for i, text := range texts {
		answers[strconv.FormatUint(uint64(exam.Questions[i].ID), 10)] = text
	}
	return answers
}

func (e *testEnv) count(t *testing.T, m interface{}) int64 {
	t.Helper()
	var n int64
	if err := e.db.Model(m).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func (e *testEnv) answerIDs(t *testing.T, submissionID uint) []uint {
	t.Helper()
	answers, err := e.grading.SubmissionRepo.ListAnswers(context.Background(), submissionID)
	if err != nil {
		t.Fatalf("list answers: %v", err)
	}
	ids := make([]uint, len(answers))
	for i, a := range answers {
		ids[i] = a.ID
	}
	return ids
}

func TestGetExamReturnsQuestionsInCreationOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	exam, err := env.exam.CreateExam(ctx, CreateExamReq{
		Title:       "Physics",
		Description: "Mechanics",
		Questions: []CreateQuestionReq{
			{Text: "First", QuestionType: "MCQ", MaxMarks: 2, Options: json.RawMessage(`["a","b"]`)},
			{Text: "Second", QuestionType: "TEXT"},
			{Text: "Third", QuestionType: "TEXT", MaxMarks: 4},
		},
	})
	if err != nil {
		t.Fatalf("create exam: %v", err)
	}

	payload, err := env.exam.GetExam(ctx, exam.ID)
	if err != nil {
		t.Fatalf("get exam: %v", err)
	}

	if payload.ID != exam.ID || payload.Title != "Physics" || payload.Description != "Mechanics" {
		t.Fatalf("unexpected exam payload: %+v", payload)
	}
	if len(payload.Questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(payload.Questions))
	}
	wantText := []string{"First", "Second", "Third"}
	wantMarks := []int{2, 1, 4}
	for i, q := range payload.Questions {
		if q.Text != wantText[i] {
			t.Fatalf("question %d: expected %q, got %q", i, wantText[i], q.Text)
		}
		if q.MaxMarks != wantMarks[i] {
			t.Fatalf("question %d: expected max_marks %d, got %d", i, wantMarks[i], q.MaxMarks)
		}
		if q.ExamID != exam.ID {
			t.Fatalf("question %d: expected exam %s, got %s", i, exam.ID, q.ExamID)
		}
	}
	if payload.Questions[0].QuestionType != "MCQ" {
		t.Fatalf("expected MCQ, got %s", payload.Questions[0].QuestionType)
	}

	var options []string
	if err := json.Unmarshal(payload.Questions[0].Options, &options); err != nil {
		t.Fatalf("decode options: %v", err)
	}
	if len(options) != 2 || options[0] != "a" || options[1] != "b" {
		t.Fatalf("unexpected options: %v", options)
	}
	if payload.Questions[1].Options != nil {
		t.Fatalf("expected nil options for TEXT question, got %s", payload.Questions[1].Options)
	}
}

func TestGetExamHidesOptionsWhenDisabled(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	exam, err := env.exam.CreateExam(ctx, CreateExamReq{
		Title: "Quiz",
		Questions: []CreateQuestionReq{
			{Text: "Pick one", QuestionType: "MCQ", Options: json.RawMessage(`{"a":"yes","b":"no"}`)},
		},
	})
	if err != nil {
		t.Fatalf("create exam: %v", err)
	}

	env.exam.SetDeliveryPolicy(false, 0)
	payload, err := env.exam.GetExam(ctx, exam.ID)
	if err != nil {
		t.Fatalf("get exam: %v", err)
	}
	if payload.Questions[0].Options != nil {
		t.Fatalf("expected options to be stripped, got %s", payload.Questions[0].Options)
	}
}

func TestGetExamUnknownIDIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, id := range []string{model.GenerateUUID(), "not-a-uuid", ""} {
		if _, err := env.exam.GetExam(ctx, id); !errors.Is(err, util.ErrExamNotFound) {
			t.Fatalf("id %q: expected ErrExamNotFound, got %v", id, err)
		}
	}
	if n := env.count(t, &model.Exam{}); n != 0 {
		t.Fatalf("expected no exams, got %d", n)
	}
}

func TestCreateExamRejectsInvalidQuestions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cases := []CreateExamReq{
		{Title: "  "},
		{Title: "Bad type", Questions: []CreateQuestionReq{{Text: "q", QuestionType: "ESSAY"}}},
		{Title: "Empty text", Questions: []CreateQuestionReq{{Text: " ", QuestionType: "TEXT"}}},
		{Title: "Negative", Questions: []CreateQuestionReq{{Text: "q", QuestionType: "TEXT", MaxMarks: -1}}},
		{Title: "Bad options", Questions: []CreateQuestionReq{{Text: "q", QuestionType: "MCQ", Options: json.RawMessage(`{`)}}},
		{Title: "Question too heavy", Questions: []CreateQuestionReq{{Text: "q", QuestionType: "TEXT", MaxMarks: 1000}}},
		{Title: "Total too heavy", Questions: []CreateQuestionReq{
			{Text: "q1", QuestionType: "TEXT", MaxMarks: 500},
			{Text: "q2", QuestionType: "TEXT", MaxMarks: 500},
		}},
	}
	for _, req := range cases {
		if _, err := env.exam.CreateExam(ctx, req); !errors.Is(err, util.ErrInvalidExam) {
			t.Fatalf("%q: expected ErrInvalidExam, got %v", req.Title, err)
		}
	}
	if n := env.count(t, &model.Exam{}); n != 0 {
		t.Fatalf("expected no exams, got %d", n)
	}
}

func TestSubmitCreatesOneAnswerPerEntry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	exam := env.createExam(t, "Chemistry", 2, 3, 4)

	sub, err := env.submission.Submit(ctx, exam.ID, SubmitReq{
		RegNumber: "S1",
		Name:      "Alice",
		Answers:   answersFor(exam, "H2O", "NaCl"),
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if !sub.Score.IsZero() || sub.IsGraded {
		t.Fatalf("expected ungraded submission with score 0, got score=%s graded=%v", sub.Score, sub.IsGraded)
	}

	answers, err := env.grading.SubmissionRepo.ListAnswers(ctx, sub.ID)
	if err != nil {
		t.Fatalf("list answers: %v", err)
	}
	if len(answers) != 2 {
		t.Fatalf("expected 2 answers, got %d", len(answers))
	}
	for _, a := range answers {
		if !a.MarksObtained.IsZero() {
			t.Fatalf("answer %d: expected 0 marks, got %s", a.ID, a.MarksObtained)
		}
		if a.MarkedAt != nil {
			t.Fatalf("answer %d: expected unmarked", a.ID)
		}
	}
	if answers[0].StudentAnswer != "H2O" || answers[1].StudentAnswer != "NaCl" {
		t.Fatalf("answers not stored verbatim: %q, %q", answers[0].StudentAnswer, answers[1].StudentAnswer)
	}
}

func TestSubmitTwiceIsRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	exam := env.createExam(t, "History", 1, 1)

	req := SubmitReq{RegNumber: "S1", Name: "Alice", Answers: answersFor(exam, "a", "b")}
	if _, err := env.submission.Submit(ctx, exam.ID, req); err != nil {
		t.Fatalf("first submit: %v", err)
	}

	second := SubmitReq{RegNumber: "S1", Name: "Someone Else", Answers: answersFor(exam, "c")}
	if _, err := env.submission.Submit(ctx, exam.ID, second); !errors.Is(err, util.ErrAlreadySubmitted) {
		t.Fatalf("expected ErrAlreadySubmitted, got %v", err)
	}

	if n := env.count(t, &model.Submission{}); n != 1 {
		t.Fatalf("expected 1 submission, got %d", n)
	}
	if n := env.count(t, &model.Answer{}); n != 2 {
		t.Fatalf("expected 2 answers, got %d", n)
	}

	// 姓名以第一次提交为准
	student, err := env.submission.StudentRepo.FindByRegNumber(ctx, "S1")
	if err != nil {
		t.Fatalf("find student: %v", err)
	}
	if student.Name != "Alice" {
		t.Fatalf("expected first-write name Alice, got %q", student.Name)
	}
}

func TestSubmitSameStudentDifferentExams(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	first := env.createExam(t, "Exam A", 1)
	second := env.createExam(t, "Exam B", 1)

	for _, exam := range []*model.Exam{first, second} {
		req := SubmitReq{RegNumber: "S9", Name: "Bob", Answers: answersFor(exam, "x")}
		if _, err := env.submission.Submit(ctx, exam.ID, req); err != nil {
			t.Fatalf("submit to %s: %v", exam.Title, err)
		}
	}
	if n := env.count(t, &model.Student{}); n != 1 {
		t.Fatalf("expected 1 student, got %d", n)
	}
	if n := env.count(t, &model.Submission{}); n != 2 {
		t.Fatalf("expected 2 submissions, got %d", n)
	}
}

func TestSubmitUnknownExamOrQuestion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	exam := env.createExam(t, "Biology", 1)
	other := env.createExam(t, "Geography", 1)

	_, err := env.submission.Submit(ctx, model.GenerateUUID(), SubmitReq{RegNumber: "S1", Name: "A", Answers: map[string]string{}})
	if !errors.Is(err, util.ErrExamNotFound) {
		t.Fatalf("expected ErrExamNotFound, got %v", err)
	}

	foreign := answersFor(other, "wrong exam")
	if _, err := env.submission.Submit(ctx, exam.ID, SubmitReq{RegNumber: "S1", Name: "A", Answers: foreign}); !errors.Is(err, util.ErrUnknownQuestion) {
		t.Fatalf("expected ErrUnknownQuestion, got %v", err)
	}
	bad := map[string]string{"abc": "x"}
	if _, err := env.submission.Submit(ctx, exam.ID, SubmitReq{RegNumber: "S1", Name: "A", Answers: bad}); !errors.Is(err, util.ErrUnknownQuestion) {
		t.Fatalf("expected ErrUnknownQuestion, got %v", err)
	}

	// 失败的提交整体回滚
	if n := env.count(t, &model.Submission{}); n != 0 {
		t.Fatalf("expected no submissions, got %d", n)
	}
	if n := env.count(t, &model.Student{}); n != 0 {
		t.Fatalf("expected no students, got %d", n)
	}
}

func TestCheckStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	exam := env.createExam(t, "Art", 5)
	other := env.createExam(t, "Music", 5)

	if _, err := env.submission.Submit(ctx, exam.ID, SubmitReq{RegNumber: "S1", Name: "Alice", Answers: answersFor(exam, "x")}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	res, err := env.submission.CheckStatus(ctx, exam.ID, "S1")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !res.Found || res.Graded == nil || *res.Graded || res.Score == nil || *res.Score != 0 {
		t.Fatalf("expected found ungraded with score 0, got %+v", res)
	}

	misses := []struct {
		name, examID, reg string
	}{
		{"unknown student", exam.ID, "S404"},
		{"mismatched exam", other.ID, "S1"},
		{"unknown exam", model.GenerateUUID(), "S1"},
		{"malformed exam", "nope", "S1"},
		{"empty reg number", exam.ID, ""},
	}
	for _, m := range misses {
		res, err := env.submission.CheckStatus(ctx, m.examID, m.reg)
		if err != nil {
			t.Fatalf("%s: %v", m.name, err)
		}
		if res.Found || res.Graded != nil || res.Score != nil {
			t.Fatalf("%s: expected found=false only, got %+v", m.name, res)
		}
	}
}

func TestGradeSumsMarksAndIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	exam := env.createExam(t, "Maths", 5, 5, 5)

	sub, err := env.submission.Submit(ctx, exam.ID, SubmitReq{RegNumber: "S2", Name: "Carol", Answers: answersFor(exam, "1", "2", "3")})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	ids := env.answerIDs(t, sub.ID)
	marks := map[uint]decimal.Decimal{
		ids[0]: decimal.NewFromInt(3),
		ids[1]: decimal.NewFromInt(4),
		ids[2]: decimal.NewFromInt(5),
	}

	for i := 0; i < 2; i++ {
		res, err := env.grading.Grade(ctx, sub.ID, marks)
		if err != nil {
			t.Fatalf("grade #%d: %v", i+1, err)
		}
		if res.Score != 12 || !res.IsGraded {
			t.Fatalf("grade #%d: expected score 12 graded, got %+v", i+1, res)
		}
	}

	stored, err := env.grading.SubmissionRepo.FindByID(ctx, sub.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !stored.Score.Equal(decimal.NewFromInt(12)) || !stored.IsGraded || stored.GradedAt == nil {
		t.Fatalf("unexpected stored submission: score=%s graded=%v gradedAt=%v", stored.Score, stored.IsGraded, stored.GradedAt)
	}
}

func TestGradePartialRequiresAllAnswersMarked(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	exam := env.createExam(t, "Literature", 5, 5)

	sub, err := env.submission.Submit(ctx, exam.ID, SubmitReq{RegNumber: "S3", Name: "Dan", Answers: answersFor(exam, "a", "b")})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	ids := env.answerIDs(t, sub.ID)

	res, err := env.grading.Grade(ctx, sub.ID, map[uint]decimal.Decimal{ids[0]: decimal.RequireFromString("2.5")})
	if err != nil {
		t.Fatalf("partial grade: %v", err)
	}
	if res.IsGraded || res.Score != 2.5 || res.Marked != 1 || res.Total != 2 {
		t.Fatalf("expected partial ungraded result, got %+v", res)
	}

	status, err := env.submission.CheckStatus(ctx, exam.ID, "S3")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if *status.Graded {
		t.Fatalf("expected graded=false after partial grading")
	}

	res, err = env.grading.Grade(ctx, sub.ID, map[uint]decimal.Decimal{ids[1]: decimal.NewFromInt(0)})
	if err != nil {
		t.Fatalf("complete grade: %v", err)
	}
	if !res.IsGraded || res.Score != 2.5 {
		t.Fatalf("expected graded with 2.5, got %+v", res)
	}
}

func TestGradePartialWithoutRequireComplete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.grading.SetRequireComplete(false)
	exam := env.createExam(t, "Economics", 5, 5)

	sub, err := env.submission.Submit(ctx, exam.ID, SubmitReq{RegNumber: "S4", Name: "Eve", Answers: answersFor(exam, "a", "b")})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	ids := env.answerIDs(t, sub.ID)

	res, err := env.grading.Grade(ctx, sub.ID, map[uint]decimal.Decimal{ids[0]: decimal.NewFromInt(4)})
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if !res.IsGraded || res.Score != 4 {
		t.Fatalf("expected graded with 4, got %+v", res)
	}
}

func TestGradeRejectsInvalidMarks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	exam := env.createExam(t, "Drama", 5)
	otherExam := env.createExam(t, "Dance", 5)

	sub, err := env.submission.Submit(ctx, exam.ID, SubmitReq{RegNumber: "S5", Name: "Fay", Answers: answersFor(exam, "a")})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	otherSub, err := env.submission.Submit(ctx, otherExam.ID, SubmitReq{RegNumber: "S5", Name: "Fay", Answers: answersFor(otherExam, "b")})
	if err != nil {
		t.Fatalf("submit other: %v", err)
	}
	id := env.answerIDs(t, sub.ID)[0]
	foreignID := env.answerIDs(t, otherSub.ID)[0]

	cases := []struct {
		name  string
		marks map[uint]decimal.Decimal
		want  error
	}{
		{"negative", map[uint]decimal.Decimal{id: decimal.NewFromInt(-1)}, util.ErrInvalidMarks},
		{"above max", map[uint]decimal.Decimal{id: decimal.RequireFromString("5.01")}, util.ErrInvalidMarks},
		{"three decimals", map[uint]decimal.Decimal{id: decimal.RequireFromString("1.234")}, util.ErrInvalidMarks},
		{"foreign answer", map[uint]decimal.Decimal{foreignID: decimal.NewFromInt(1)}, util.ErrAnswerNotInSubmission},
	}
	for _, c := range cases {
		if _, err := env.grading.Grade(ctx, sub.ID, c.marks); !errors.Is(err, c.want) {
			t.Fatalf("%s: expected %v, got %v", c.name, c.want, err)
		}
	}

	if _, err := env.grading.Grade(ctx, 9999, map[uint]decimal.Decimal{}); !errors.Is(err, util.ErrSubmissionNotFound) {
		t.Fatalf("expected ErrSubmissionNotFound, got %v", err)
	}

	stored, err := env.grading.SubmissionRepo.FindByID(ctx, sub.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !stored.Score.IsZero() || stored.IsGraded {
		t.Fatalf("rejected grading must not change the submission: score=%s graded=%v", stored.Score, stored.IsGraded)
	}
}

func TestMath101Scenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	exam := env.createExam(t, "Math101", 5, 5)

	sub, err := env.submission.Submit(ctx, exam.ID, SubmitReq{
		RegNumber: "S1",
		Name:      "Alice",
		Answers:   answersFor(exam, "42", "7"),
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !sub.Score.IsZero() || sub.IsGraded {
		t.Fatalf("expected new submission ungraded with score 0")
	}

	view, err := env.grading.GetSubmissionForGrading(ctx, sub.ID)
	if err != nil {
		t.Fatalf("grading view: %v", err)
	}
	if view.ExamTitle != "Math101" || view.RegNumber != "S1" || view.StudentName != "Alice" || view.MaxScore != 10 {
		t.Fatalf("unexpected grading view: %+v", view)
	}
	if len(view.Answers) != 2 || view.Answers[0].StudentAnswer != "42" || view.Answers[1].StudentAnswer != "7" {
		t.Fatalf("unexpected answers in grading view: %+v", view.Answers)
	}

	_, err = env.grading.Grade(ctx, sub.ID, map[uint]decimal.Decimal{
		view.Answers[0].ID: decimal.NewFromInt(5),
		view.Answers[1].ID: decimal.NewFromInt(3),
	})
	if err != nil {
		t.Fatalf("grade: %v", err)
	}

	res, err := env.submission.CheckStatus(ctx, exam.ID, "S1")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	got, _ := json.Marshal(res)
	if string(got) != `{"found":true,"graded":true,"score":8}` {
		t.Fatalf("unexpected status body: %s", got)
	}
}

func TestDeleteExamCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	exam := env.createExam(t, "Temp", 1, 1)
	keep := env.createExam(t, "Keep", 1)

	if _, err := env.submission.Submit(ctx, exam.ID, SubmitReq{RegNumber: "S1", Name: "A", Answers: answersFor(exam, "a", "b")}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := env.submission.Submit(ctx, keep.ID, SubmitReq{RegNumber: "S1", Name: "A", Answers: answersFor(keep, "c")}); err != nil {
		t.Fatalf("submit keep: %v", err)
	}

	if err := env.exam.DeleteExam(ctx, exam.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := env.exam.DeleteExam(ctx, exam.ID); !errors.Is(err, util.ErrExamNotFound) {
		t.Fatalf("expected ErrExamNotFound on second delete, got %v", err)
	}

	if n := env.count(t, &model.Question{}); n != 1 {
		t.Fatalf("expected 1 question left, got %d", n)
	}
	if n := env.count(t, &model.Submission{}); n != 1 {
		t.Fatalf("expected 1 submission left, got %d", n)
	}
	if n := env.count(t, &model.Answer{}); n != 1 {
		t.Fatalf("expected 1 answer left, got %d", n)
	}
	// 学生不属于考试，保留
	if n := env.count(t, &model.Student{}); n != 1 {
		t.Fatalf("expected student to remain, got %d", n)
	}
}

func TestListExamsAndSubmissions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	exam := env.createExam(t, "Stats", 2, 3)

	if _, err := env.submission.Submit(ctx, exam.ID, SubmitReq{RegNumber: "S1", Name: "Alice", Answers: answersFor(exam, "a", "b")}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	exams, err := env.exam.ListExams(ctx)
	if err != nil {
		t.Fatalf("list exams: %v", err)
	}
	if len(exams) != 1 || exams[0].QuestionCount != 2 || exams[0].TotalMarks != 5 || exams[0].SubmissionCount != 1 {
		t.Fatalf("unexpected exam list: %+v", exams)
	}

	subs, err := env.exam.ListSubmissions(ctx, exam.ID)
	if err != nil {
		t.Fatalf("list submissions: %v", err)
	}
	if len(subs) != 1 || subs[0].RegNumber != "S1" || subs[0].StudentName != "Alice" || subs[0].Score != 0 || subs[0].IsGraded {
		t.Fatalf("unexpected submissions: %+v", subs)
	}

	if _, err := env.exam.ListSubmissions(ctx, model.GenerateUUID()); !errors.Is(err, util.ErrExamNotFound) {
		t.Fatalf("expected ErrExamNotFound, got %v", err)
	}
}

func TestCreateExamAcceptsTotalAtScoreLimit(t *testing.T) {
	env := newTestEnv(t)
	exam := env.createExam(t, "Heavy", 500, 499)
	if len(exam.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(exam.Questions))
	}
}

func TestSubmitRejectsSameQuestionWrittenTwice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	exam := env.createExam(t, "Single", 5)
	qid := strconv.FormatUint(uint64(exam.Questions[0].ID), 10)

	_, err := env.submission.Submit(ctx, exam.ID, SubmitReq{
		RegNumber: "S1",
		Name:      "Alice",
		Answers:   map[string]string{qid: "a", "0" + qid: "b", " " + qid: "c"},
	})
	if !errors.Is(err, util.ErrDuplicateAnswer) {
		t.Fatalf("expected ErrDuplicateAnswer, got %v", err)
	}
	if n := env.count(t, &model.Submission{}); n != 0 {
		t.Fatalf("expected no submissions, got %d", n)
	}
	if n := env.count(t, &model.Answer{}); n != 0 {
		t.Fatalf("expected no answers, got %d", n)
	}
}

func TestAnswerUniquePerSubmissionQuestion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	exam := env.createExam(t, "Unique", 5)

	sub, err := env.submission.Submit(ctx, exam.ID, SubmitReq{RegNumber: "S1", Name: "Alice", Answers: answersFor(exam, "x")})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	extra := &model.Answer{SubmissionID: sub.ID, QuestionID: exam.Questions[0].ID, StudentAnswer: "again"}
	if err := env.db.Create(extra).Error; !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("expected ErrDuplicatedKey, got %v", err)
	}
}

// 并发提交时另一请求先写入，唯一索引冲突也应报告为重复提交
func TestSubmitConcurrentInsertReportsAlreadySubmitted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	exam := env.createExam(t, "Race", 5)

	injected := false
	err := env.db.Callback().Create().Before("gorm:create").Register("test:concurrent_submission", func(tx *gorm.DB) {
		if injected || tx.Statement.Schema == nil || tx.Statement.Schema.Table != "submissions" {
			return
		}
		sub, ok := tx.Statement.Dest.(*model.Submission)
		if !ok {
			return
		}
		injected = true
		now := time.Now()
		if err := tx.Session(&gorm.Session{NewDB: true}).Exec(
			"INSERT INTO submissions (exam_id, student_id, score, is_graded, created_at, updated_at) VALUES (?, ?, 0, false, ?, ?)",
			sub.ExamID, sub.StudentID, now, now,
		).Error; err != nil {
			tx.AddError(err)
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	_, err = env.submission.Submit(ctx, exam.ID, SubmitReq{RegNumber: "S1", Name: "Alice", Answers: answersFor(exam, "x")})
	if !injected {
		t.Fatal("conflicting insert did not run")
	}
	if !errors.Is(err, util.ErrAlreadySubmitted) {
		t.Fatalf("expected ErrAlreadySubmitted, got %v", err)
	}
	if n := env.count(t, &model.Submission{}); n != 0 {
		t.Fatalf("expected rollback, got %d submissions", n)
	}

	if _, err := env.submission.Submit(ctx, exam.ID, SubmitReq{RegNumber: "S1", Name: "Alice", Answers: answersFor(exam, "x")}); err != nil {
		t.Fatalf("submit after rollback: %v", err)
	}
}

func TestListStudentsReturnsEffectivePaging(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	exam := env.createExam(t, "Paging", 1)
	for _, reg := range []string{"S1", "S2", "S3"} {
		if _, err := env.submission.Submit(ctx, exam.ID, SubmitReq{RegNumber: reg, Name: reg, Answers: answersFor(exam, "x")}); err != nil {
			t.Fatalf("submit %s: %v", reg, err)
		}
	}

	cases := []struct {
		page, limit         int
		wantPage, wantLimit int
		wantLen             int
	}{
		{0, 500, 1, 20, 3},
		{-3, 0, 1, 20, 3},
		{2, 2, 2, 2, 1},
		{1, 100, 1, 100, 3},
	}
	for _, c := range cases {
		res, err := env.submission.ListStudents(ctx, c.page, c.limit)
		if err != nil {
			t.Fatalf("list students: %v", err)
		}
		students := res.List.([]model.Student)
		if res.Page != c.wantPage || res.Limit != c.wantLimit || res.Total != 3 || len(students) != c.wantLen {
			t.Errorf("page=%d limit=%d: got page=%d limit=%d total=%d len=%d",
				c.page, c.limit, res.Page, res.Limit, res.Total, len(students))
		}
	}
}
