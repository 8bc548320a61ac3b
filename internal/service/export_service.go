package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"exam_portal_backend/internal/model"
	"exam_portal_backend/internal/repository"
	"exam_portal_backend/internal/util"
	"exam_portal_backend/pkg/logger"
	"exam_portal_backend/pkg/tracing"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ExportService struct {
	ExamRepo       *repository.ExamRepository
	SubmissionRepo *repository.SubmissionRepository
	Storage        *StorageService
}

func NewExportService(examRepo *repository.ExamRepository, submissionRepo *repository.SubmissionRepository, storage *StorageService) *ExportService {
	return &ExportService{
		ExamRepo:       examRepo,
		SubmissionRepo: submissionRepo,
		Storage:        storage,
	}
}

// ExportResults 生成成绩 CSV 并上传，返回访问地址
func (s *ExportService) ExportResults(ctx context.Context, examID string) (_ *ExportResult, err error) {
	ctx, span := tracing.Start(ctx, "ExportService.ExportResults", attribute.String("exam.id", examID))
	defer func() { tracing.End(span, err) }()

	if !model.IsUUID(examID) {
		return nil, util.ErrExamNotFound
	}
	exam, findErr := s.ExamRepo.FindWithQuestions(ctx, examID)
	if errors.Is(findErr, gorm.ErrRecordNotFound) {
		return nil, util.ErrExamNotFound
	}
	if findErr != nil {
		return nil, fmt.Errorf("load exam %s: %w", examID, findErr)
	}

	rows, err := s.SubmissionRepo.ListByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	answers, err := s.SubmissionRepo.ListAnswersByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}

	data, err := RenderResultsCSV(exam.Questions, rows, answers)
	if err != nil {
		return nil, err
	}

	// 文件名带随机段，不能由考试ID和时间推出
	object := fmt.Sprintf("%s%s/results-%s-%s.csv", exportPrefix, examID, time.Now().Format("20060102150405"), uuid.NewString())
	url, err := s.Storage.Put(ctx, object, data, util.MimeCSV)
	if err != nil {
		return nil, fmt.Errorf("upload export: %w", err)
	}

	logger.Log.Info("Results exported",
		zap.String("examId", examID),
		zap.String("object", object),
		zap.Int("submissions", len(rows)),
	)
	return &ExportResult{URL: url, Object: object, Submissions: len(rows)}, nil
}

const exportPrefix = "exports/"

// CleanExportObject 规范化下载/删除请求中的对象名，只允许 exports/ 下的 csv
func CleanExportObject(object string) (string, bool) {
	p := path.Clean("/" + strings.TrimPrefix(object, "/"))
	p = strings.TrimPrefix(p, "/")
	if !strings.HasPrefix(p, exportPrefix) || path.Ext(p) != ".csv" {
		return "", false
	}
	return p, true
}

// OpenExport 读取已导出的成绩文件，调用方负责关闭
func (s *ExportService) OpenExport(ctx context.Context, object string) (io.ReadCloser, string, error) {
	clean, ok := CleanExportObject(object)
	if !ok {
		return nil, "", util.ErrExportNotFound
	}
	rc, err := s.Storage.Open(ctx, clean)
	if err != nil {
		return nil, "", err
	}
	return rc, path.Base(clean), nil
}

// DeleteExport 删除不再需要的导出文件
func (s *ExportService) DeleteExport(ctx context.Context, object string) error {
	clean, ok := CleanExportObject(object)
	if !ok {
		return util.ErrExportNotFound
	}
	if err := s.Storage.Delete(ctx, clean); err != nil {
		return err
	}
	logger.Log.Info("Export deleted", zap.String("object", clean))
	return nil
}

// csvCell 以公式字符开头的单元格加 ' 前缀，避免表格软件执行
func csvCell(v string) string {
	if v == "" {
		return v
	}
	switch v[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + v
	}
	return v
}

// RenderResultsCSV 每个提交一行，题目列按题目顺序排列，未作答留空
func RenderResultsCSV(questions []model.Question, rows []repository.SubmissionListRow, answers []model.Answer) ([]byte, error) {
	marks := make(map[uint]map[uint]decimal.Decimal, len(rows))
	for _, a := range answers {
		if marks[a.SubmissionID] == nil {
			marks[a.SubmissionID] = make(map[uint]decimal.Decimal)
		}
		marks[a.SubmissionID][a.QuestionID] = a.MarksObtained
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"reg_number", "name", "score", "graded"}
	for i, q := range questions {
		header = append(header, fmt.Sprintf("q%d_%d", i+1, q.ID))
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, r := range rows {
		record := []string{
			csvCell(r.RegNumber),
			csvCell(r.StudentName),
			r.Score.StringFixed(2),
			strconv.FormatBool(r.IsGraded),
		}
		for _, q := range questions {
			if m, ok := marks[r.ID][q.ID]; ok {
				record = append(record, m.StringFixed(2))
			} else {
				record = append(record, "")
			}
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
