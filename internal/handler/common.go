package handler

import (
	"errors"
	"net/http"
	"raffle-platform/internal/middleware"
	"raffle-platform/internal/model"
	apperrors "raffle-platform/pkg/app_errors"
	"raffle-platform/pkg/logger"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Routes 依權限分好的路由群組
type Routes struct {
	Public *gin.RouterGroup
	User   *gin.RouterGroup
	Admin  *gin.RouterGroup
}

// NewRoutes authn 負責驗證身分並設定 actor
func NewRoutes(r *gin.Engine, authn gin.HandlerFunc) Routes {
	public := r.Group("/api/v1")
	return Routes{
		Public: public,
		User:   public.Group("", authn),
		Admin:  public.Group("/admin", authn, middleware.RequireAdmin()),
	}
}

// IDUri 路徑上的數字 id
type IDUri struct {
	ID int `uri:"id" binding:"required,min=1"`
}

func BindJson(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return err
	}
	return nil
}

func BindQuery(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindQuery(obj); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return err
	}
	return nil
}

func BindUri(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindUri(obj); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return err
	}
	return nil
}

// currentActor 路由已掛上驗證時一定存在
func currentActor(c *gin.Context) model.Actor {
	actor, _ := middleware.ActorFrom(c)
	return actor
}

// handleError 依錯誤類別回應，號碼衝突時附上明細
func handleError(c *gin.Context, err error, operation string) {
	err = apperrors.FromDatabase(err)
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))

	var conflict *apperrors.ConflictError
	if errors.As(err, &conflict) {
		log.Warn("Some numbers unavailable")
		c.JSON(http.StatusConflict, gin.H{
			"error":  "Some numbers unavailable",
			"detail": conflict.Detail,
		})
		return
	}

	switch apperrors.KindOf(err) {
	case apperrors.KindNotFound:
		log.Warn("Not found")
		c.JSON(http.StatusNotFound, gin.H{"error": errorMessage(err)})
	case apperrors.KindConflict:
		log.Warn("Conflict")
		c.JSON(http.StatusConflict, gin.H{"error": errorMessage(err)})
	case apperrors.KindInvalidInput:
		log.Warn("Invalid input")
		c.JSON(http.StatusBadRequest, gin.H{"error": errorMessage(err)})
	case apperrors.KindForbidden:
		log.Warn("Forbidden")
		c.JSON(http.StatusForbidden, gin.H{"error": errorMessage(err)})
	case apperrors.KindUnauthorized:
		log.Warn("Unauthorized")
		c.JSON(http.StatusUnauthorized, gin.H{"error": errorMessage(err)})
	default:
		log.Error("Unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}

// errorMessage 只回傳已知錯誤的文字，不外洩包裝過的內部訊息
func errorMessage(err error) string {
	sentinel, ok := apperrors.Sentinel(err)
	if !ok {
		return "Internal server error"
	}
	msg := sentinel.Error()
	return strings.ToUpper(msg[:1]) + msg[1:]
}

func handleSuccess(c *gin.Context, data interface{}, statusCode int) {
	if data != nil {
		c.JSON(statusCode, data)
	} else {
		c.Status(statusCode)
	}
}
