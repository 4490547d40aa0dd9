package server

import (
	"errors"
	"net/http"

	"github.com/emrgen/travelexpense/internal/auth"
	"github.com/emrgen/travelexpense/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Response is the envelope of every JSON response.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	respond(c, http.StatusOK, "success", data)
}

func Created(c *gin.Context, data interface{}) {
	respond(c, http.StatusCreated, "created", data)
}

func Accepted(c *gin.Context, message string, data interface{}) {
	respond(c, http.StatusAccepted, message, data)
}

func BadRequest(c *gin.Context, message string) {
	respond(c, http.StatusBadRequest, message, nil)
}

func respond(c *gin.Context, status int, message string, data interface{}) {
	code := 0
	if status >= http.StatusBadRequest {
		code = status
	}
	c.JSON(status, Response{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// Error maps a service error to its HTTP status and writes it.
func Error(c *gin.Context, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		respond(c, http.StatusBadRequest, verr.Message, verr)
		return
	}

	status, message := errorStatus(err)
	if status >= http.StatusInternalServerError {
		logrus.Errorf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}

	respond(c, status, message, nil)
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "データが見つかりません"
	case errors.Is(err, service.ErrProposalNotFound):
		return http.StatusNotFound, "改訂の提案が見つからないか期限切れです。もう一度保存してください"
	case errors.Is(err, service.ErrRevisionConflict):
		return http.StatusConflict, "他の保存と競合しました。もう一度保存してください"
	case errors.Is(err, service.ErrRevisionInProgress):
		return http.StatusConflict, "この会社の規程は現在保存中です"
	case errors.Is(err, service.ErrNoExistingRegulation):
		return http.StatusConflict, "改訂元の規程が存在しません"
	case errors.Is(err, service.ErrInvalidApplicationKind):
		return http.StatusBadRequest, "申請種別が不正です"
	case errors.Is(err, service.ErrInvalidStatus):
		return http.StatusBadRequest, "申請ステータスが不正です"
	case errors.Is(err, service.ErrSaveTimeout):
		return http.StatusGatewayTimeout, "保存がタイムアウトしました"
	case errors.Is(err, service.ErrBackendUnavailable):
		return http.StatusServiceUnavailable, "データベースに接続できません"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "メールアドレスまたはパスワードが正しくありません"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenRevoked):
		return http.StatusUnauthorized, "認証に失敗しました"
	case errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict, "このメールアドレスは既に登録されています"
	case errors.Is(err, auth.ErrResetTokenInvalid):
		return http.StatusBadRequest, "パスワードリセットの有効期限が切れています"
	}

	return http.StatusInternalServerError, "内部エラーが発生しました"
}
