package controller

import (
	"errors"
	"exam_portal_backend/internal/service"
	"exam_portal_backend/internal/util"
	"exam_portal_backend/pkg/logger"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type GradeController struct {
	GradingService *service.GradingService
}

func NewGradeController(gradingService *service.GradingService) *GradeController {
	return &GradeController{GradingService: gradingService}
}

// GetSubmission godoc
// @Summary 阅卷视图
// @Description 返回提交、学生信息以及每道答案对应的题目和满分
// @Tags 评分
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "提交ID"
// @Success 200 {object} util.Response{data=service.GradingView}
// @Failure 404 {object} util.Response "提交不存在"
// @Router /admin/submissions/{id} [get]
func (c *GradeController) GetSubmission(ctx *gin.Context) {
	id, ok := util.ParseID(ctx.Param("id"))
	if !ok {
		util.NotFound(ctx)
		return
	}

	view, err := c.GradingService.GetSubmissionForGrading(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, util.ErrSubmissionNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// Grade godoc
// @Summary 录入分数
// @Description 保存各答案得分并重新计算总分
// @Tags 评分
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "提交ID"
// @Param body body service.GradeReq true "答案ID到分数的映射"
// @Success 200 {object} util.Response{data=service.GradeResult}
// @Failure 400 {object} util.Response "分数不合法"
// @Failure 404 {object} util.Response "提交不存在"
// @Router /admin/submissions/{id}/grade [put]
func (c *GradeController) Grade(ctx *gin.Context) {
	id, ok := util.ParseID(ctx.Param("id"))
	if !ok {
		util.NotFound(ctx)
		return
	}

	var req service.GradeReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, util.BindErrorMessage(err))
		return
	}

	marks := make(map[uint]decimal.Decimal, len(req.Marks))
	for key, value := range req.Marks {
		answerID, ok := util.ParseID(key)
		if !ok {
			util.BadRequest(ctx, fmt.Sprintf("invalid answer id %q", key))
			return
		}
		marks[answerID] = decimal.NewFromFloat(value)
	}

	result, err := c.GradingService.Grade(ctx.Request.Context(), id, marks)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrSubmissionNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrInvalidMarks), errors.Is(err, util.ErrAnswerNotInSubmission):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	if claims := util.GetUserFromContext(ctx); claims != nil {
		logger.Log.Info("Marks saved by",
			zap.Uint("userId", claims.UserID),
			zap.Uint("submissionId", id),
		)
	}
	util.Success(ctx, result)
}
