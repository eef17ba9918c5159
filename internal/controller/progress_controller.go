package controller

import (
	"errors"
	"sharklearning_backend/internal/service"
	"sharklearning_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	ProgressService *service.ProgressService
}

func NewProgressController(progressService *service.ProgressService) *ProgressController {
	return &ProgressController{ProgressService: progressService}
}

// @Summary 获取进度总览
// @Description 获取用户的课程完成统计、最近进度和已获成就
// @Tags 学习进度
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /progress/overview [get]
func (c *ProgressController) GetOverview(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	overview, err := c.ProgressService.GetOverview(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, overview)
}

// @Summary 获取课程进度
// @Description 获取用户在某门课程上的进度，无记录时返回零值默认
// @Tags 学习进度
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Success 200 {object} util.Response
// @Router /progress/courses/{courseId} [get]
func (c *ProgressController) GetCourseProgress(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	courseID := util.MustParseUint(ctx.Param("courseId"))
	if courseID == 0 {
		util.BadRequest(ctx, "Invalid course ID")
		return
	}

	progress, err := c.ProgressService.GetProgress(user.UserID, courseID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, progress)
}

type UpdateProgressRequest struct {
	Percentage *int `json:"percentage" binding:"required,min=0,max=100"`
	Completed  bool `json:"completed"`
}

// @Summary 更新课程进度
// @Description 覆盖写课程进度百分比与完成状态，完成转变会同步评估成就
// @Tags 学习进度
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Param progress body UpdateProgressRequest true "进度信息"
// @Success 200 {object} util.Response
// @Router /progress/courses/{courseId} [put]
func (c *ProgressController) UpdateCourseProgress(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	courseID := util.MustParseUint(ctx.Param("courseId"))
	if courseID == 0 {
		util.BadRequest(ctx, "Invalid course ID")
		return
	}

	var req UpdateProgressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.ValidationError(ctx, map[string]string{"percentage": "must be an integer between 0 and 100"})
		return
	}

	progress, err := c.ProgressService.UpsertProgress(user.UserID, courseID, *req.Percentage, req.Completed)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrCourseNotFound):
			util.NotFoundMessage(ctx, err.Error())
		case errors.Is(err, util.ErrInvalidPercentage):
			util.ValidationError(ctx, map[string]string{"percentage": err.Error()})
		case errors.Is(err, util.ErrProgressRegression):
			util.ValidationError(ctx, map[string]string{"percentage": err.Error()})
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, progress)
}
