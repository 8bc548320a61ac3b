package controller

import (
	"errors"
	"exam_portal_backend/internal/service"
	"exam_portal_backend/internal/util"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ExamController 学生端接口，响应体保持与前端约定的固定格式
type ExamController struct {
	ExamService       *service.ExamService
	SubmissionService *service.SubmissionService
}

func NewExamController(examService *service.ExamService, submissionService *service.SubmissionService) *ExamController {
	return &ExamController{
		ExamService:       examService,
		SubmissionService: submissionService,
	}
}

// swagger:model CheckStatusRequest
type CheckStatusRequest struct {
	RegNumber string `json:"reg_number"`
}

// Index godoc
// @Summary 服务在线状态
// @Tags 学生端
// @Produce json
// @Success 200 {object} map[string]string
// @Router / [get]
func (c *ExamController) Index(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "exam-portal",
		"time":    time.Now().Format(time.RFC3339),
	})
}

// GetExam godoc
// @Summary 获取试卷
// @Description 返回考试及其全部题目，题目按创建顺序排列
// @Tags 学生端
// @Produce json
// @Param id path string true "考试ID"
// @Success 200 {object} service.ExamPayload
// @Failure 404 {object} util.ErrorResponse "考试不存在"
// @Router /exam/{id}/ [get]
func (c *ExamController) GetExam(ctx *gin.Context) {
	exam, err := c.ExamService.GetExam(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, util.ErrExamNotFound) {
			util.PublicNotFound(ctx)
			return
		}
		util.PublicInternalError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, exam)
}

// Submit godoc
// @Summary 提交答卷
// @Description 每个学号对每场考试只能提交一次
// @Tags 学生端
// @Accept json
// @Produce json
// @Param id path string true "考试ID"
// @Param body body service.SubmitReq true "答卷"
// @Success 200 {object} util.MessageResponse "Submitted!"
// @Failure 400 {object} util.MessageResponse "Already submitted! 或参数错误"
// @Failure 404 {object} util.ErrorResponse "考试不存在"
// @Router /submit/{id}/ [post]
func (c *ExamController) Submit(ctx *gin.Context) {
	var req service.SubmitReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.Message(ctx, http.StatusBadRequest, util.BindErrorMessage(err))
		return
	}

	_, err := c.SubmissionService.Submit(ctx.Request.Context(), ctx.Param("id"), req)
	switch {
	case err == nil:
		util.Message(ctx, http.StatusOK, util.MsgSubmitted)
	case errors.Is(err, util.ErrAlreadySubmitted):
		util.Message(ctx, http.StatusBadRequest, util.MsgAlreadySubmitted)
	case errors.Is(err, util.ErrExamNotFound):
		util.PublicNotFound(ctx)
	case errors.Is(err, util.ErrUnknownQuestion), errors.Is(err, util.ErrDuplicateAnswer):
		util.Message(ctx, http.StatusBadRequest, err.Error())
	default:
		util.PublicInternalError(ctx, err)
	}
}

// CheckStatus godoc
// @Summary 查询成绩
// @Description 未找到提交时只返回 found=false
// @Tags 学生端
// @Accept json
// @Produce json
// @Param id path string true "考试ID"
// @Param body body CheckStatusRequest true "学号"
// @Success 200 {object} service.StatusResult
// @Router /check/{id}/ [post]
func (c *ExamController) CheckStatus(ctx *gin.Context) {
	var req CheckStatusRequest
	// 请求体缺失或格式错误时按未找到处理
	_ = ctx.ShouldBindJSON(&req)

	result, err := c.SubmissionService.CheckStatus(ctx.Request.Context(), ctx.Param("id"), req.RegNumber)
	if err != nil {
		util.PublicInternalError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}
