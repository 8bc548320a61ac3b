package util

import "errors"

var (
	ErrExamNotFound          = errors.New("exam not found")
	ErrSubmissionNotFound    = errors.New("submission not found")
	ErrAlreadySubmitted      = errors.New("already submitted")
	ErrUnknownQuestion       = errors.New("answer references a question outside this exam")
	ErrDuplicateAnswer       = errors.New("more than one answer for the same question")
	ErrInvalidMarks          = errors.New("marks must be between 0 and the question's max marks")
	ErrAnswerNotInSubmission = errors.New("answer does not belong to this submission")
	ErrInvalidExam           = errors.New("invalid exam definition")
	ErrExportNotFound        = errors.New("export not found")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrUserNotFound          = errors.New("user not found")
	ErrPermissionDenied      = errors.New("permission denied")
)
