package controller

import (
	"errors"
	"net/http"
	"sharklearning_backend/internal/service"
	"sharklearning_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	QuizService *service.QuizService
}

func NewQuizController(quizService *service.QuizService) *QuizController {
	return &QuizController{QuizService: quizService}
}

// @Summary 获取课程测验列表
// @Description 获取课程下已发布测验的摘要，不含题目
// @Tags 测验
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Success 200 {object} util.Response
// @Router /courses/{courseId}/quizzes [get]
func (c *QuizController) ListForCourse(ctx *gin.Context) {
	courseID := util.MustParseUint(ctx.Param("courseId"))
	if courseID == 0 {
		util.BadRequest(ctx, "Invalid course ID")
		return
	}

	summaries, err := c.QuizService.ListForCourse(courseID)
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFoundMessage(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, summaries)
}

// @Summary 获取测验（作答视图）
// @Description 获取含题目的测验，正确答案已剥离；限时测验从取题时开始计时
// @Tags 测验
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param quizId path string true "测验ID"
// @Success 200 {object} util.Response
// @Router /quizzes/{quizId} [get]
func (c *QuizController) GetQuizForTaking(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	quiz, err := c.QuizService.GetQuizForTaking(user.UserID, ctx.Param("quizId"))
	if err != nil {
		switch {
		case errors.Is(err, util.ErrQuizNotFound), errors.Is(err, util.ErrQuizNotPublished):
			util.NotFoundMessage(ctx, util.ErrQuizNotFound.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, quiz)
}

type SubmitAttemptRequest struct {
	Answers          map[string]string `json:"answers"`
	TimeSpentSeconds int               `json:"timeSpentSeconds" binding:"min=0"`
}

// @Summary 提交测验答卷
// @Description 判分并保存一次提交，返回逐题判分明细
// @Tags 测验
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param quizId path string true "测验ID"
// @Param attempt body SubmitAttemptRequest true "答卷"
// @Success 201 {object} util.Response
// @Router /quizzes/{quizId}/attempts [post]
func (c *QuizController) SubmitAttempt(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req SubmitAttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.ValidationError(ctx, map[string]string{"answers": "malformed answer payload"})
		return
	}

	result, err := c.QuizService.SubmitAttempt(user.UserID, ctx.Param("quizId"), req.Answers, req.TimeSpentSeconds)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrQuizNotFound), errors.Is(err, util.ErrQuizNotPublished):
			util.NotFoundMessage(ctx, util.ErrQuizNotFound.Error())
		case errors.Is(err, util.ErrAttemptLimitExceeded):
			util.Error(ctx, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, util.ErrQuizTimeExpired):
			util.Error(ctx, http.StatusUnprocessableEntity, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, result)
}

// @Summary 获取历史答卷
// @Description 获取当前用户在该测验上的全部提交记录
// @Tags 测验
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param quizId path string true "测验ID"
// @Success 200 {object} util.Response
// @Router /quizzes/{quizId}/attempts [get]
func (c *QuizController) GetAttempts(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	attempts, err := c.QuizService.GetAttempts(user.UserID, ctx.Param("quizId"))
	if err != nil {
		if errors.Is(err, util.ErrQuizNotFound) {
			util.NotFoundMessage(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, attempts)
}
