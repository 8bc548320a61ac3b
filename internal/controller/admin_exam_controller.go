package controller

import (
	"errors"
	"exam_portal_backend/internal/service"
	"exam_portal_backend/internal/util"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type AdminExamController struct {
	ExamService       *service.ExamService
	SubmissionService *service.SubmissionService
	ExportService     *service.ExportService
}

func NewAdminExamController(examService *service.ExamService, submissionService *service.SubmissionService, exportService *service.ExportService) *AdminExamController {
	return &AdminExamController{
		ExamService:       examService,
		SubmissionService: submissionService,
		ExportService:     exportService,
	}
}

// CreateExam godoc
// @Summary 创建考试
// @Description 创建考试并按顺序写入题目
// @Tags 后台-考试
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.CreateExamReq true "考试信息"
// @Success 201 {object} util.Response{data=model.Exam}
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /admin/exams [post]
func (c *AdminExamController) CreateExam(ctx *gin.Context) {
	var req service.CreateExamReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, util.BindErrorMessage(err))
		return
	}

	exam, err := c.ExamService.CreateExam(ctx.Request.Context(), req)
	if err != nil {
		if errors.Is(err, util.ErrInvalidExam) {
			util.BadRequest(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, exam)
}

// ListExams godoc
// @Summary 考试列表
// @Description 按创建时间倒序，附带题目数、总分和提交数
// @Tags 后台-考试
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]repository.ExamListRow}
// @Router /admin/exams [get]
func (c *AdminExamController) ListExams(ctx *gin.Context) {
	exams, err := c.ExamService.ListExams(ctx.Request.Context())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, exams)
}

// GetExam godoc
// @Summary 考试详情
// @Tags 后台-考试
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "考试ID"
// @Success 200 {object} util.Response{data=model.Exam}
// @Failure 404 {object} util.Response "考试不存在"
// @Router /admin/exams/{id} [get]
func (c *AdminExamController) GetExam(ctx *gin.Context) {
	exam, err := c.ExamService.GetExamForAdmin(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, util.ErrExamNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, exam)
}

// DeleteExam godoc
// @Summary 删除考试
// @Description 同时删除题目、提交和答案
// @Tags 后台-考试
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "考试ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response "考试不存在"
// @Router /admin/exams/{id} [delete]
func (c *AdminExamController) DeleteExam(ctx *gin.Context) {
	if err := c.ExamService.DeleteExam(ctx.Request.Context(), ctx.Param("id")); err != nil {
		if errors.Is(err, util.ErrExamNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// ListSubmissions godoc
// @Summary 考试的提交列表
// @Tags 后台-考试
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "考试ID"
// @Success 200 {object} util.Response{data=[]service.SubmissionSummary}
// @Failure 404 {object} util.Response "考试不存在"
// @Router /admin/exams/{id}/submissions [get]
func (c *AdminExamController) ListSubmissions(ctx *gin.Context) {
	subs, err := c.ExamService.ListSubmissions(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, util.ErrExamNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, subs)
}

// ExportResults godoc
// @Summary 导出成绩
// @Description 生成 CSV 并上传到配置的存储
// @Tags 后台-考试
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "考试ID"
// @Success 200 {object} util.Response{data=service.ExportResult}
// @Failure 404 {object} util.Response "考试不存在"
// @Router /admin/exams/{id}/export [post]
func (c *AdminExamController) ExportResults(ctx *gin.Context) {
	result, err := c.ExportService.ExportResults(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, util.ErrExamNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// DownloadExport godoc
// @Summary 下载导出的成绩文件
// @Tags 后台-考试
// @Produce text/csv
// @Security ApiKeyAuth
// @Param object path string true "导出接口返回的 object"
// @Success 200 {file} file
// @Failure 404 {object} util.Response "文件不存在"
// @Router /admin/exports/{object} [get]
func (c *AdminExamController) DownloadExport(ctx *gin.Context) {
	rc, name, err := c.ExportService.OpenExport(ctx.Request.Context(), ctx.Param("object"))
	if err != nil {
		if errors.Is(err, util.ErrExportNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	defer rc.Close()

	ctx.DataFromReader(http.StatusOK, -1, util.MimeCSV, rc, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, name),
	})
}

// DeleteExport godoc
// @Summary 删除导出的成绩文件
// @Tags 后台-考试
// @Produce json
// @Security ApiKeyAuth
// @Param object path string true "导出接口返回的 object"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response "文件不存在"
// @Router /admin/exports/{object} [delete]
func (c *AdminExamController) DeleteExport(ctx *gin.Context) {
	if err := c.ExportService.DeleteExport(ctx.Request.Context(), ctx.Param("object")); err != nil {
		if errors.Is(err, util.ErrExportNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// ListStudents godoc
// @Summary 学生列表
// @Tags 后台-学生
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /admin/students [get]
func (c *AdminExamController) ListStudents(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	result, err := c.SubmissionService.ListStudents(ctx.Request.Context(), page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, result)
}
