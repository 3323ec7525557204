package controllers

import (
	"errors"
	"net/http"

	"betting_assistant/models"
	"betting_assistant/pkg/errs"
	"betting_assistant/pkg/stats"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// HistoryNotifier 历史记录变更的订阅方（WebSocket、Telegram）
type HistoryNotifier interface {
	AnalysisSaved(record models.AnalysisRecord, summary stats.Summary)
	OutcomeUpdated(record models.AnalysisRecord, summary stats.Summary)
}

// respondError 按错误类型返回对应状态码
func respondError(ctx *gin.Context, err error) {
	status := errs.HTTPStatus(err)
	body := gin.H{
		"error": err.Error(),
		"code":  errs.TypeOf(err),
	}

	// 对用户只展示错误信息，底层原因记录在日志中
	var e errs.Error
	if errors.As(err, &e) {
		body["error"] = e.GetMessage()
	}

	var validation *errs.ValidationError
	if errors.As(err, &validation) && len(validation.Fields) > 0 {
		body["fields"] = validation.Fields
	}
	var missing *errs.CredentialMissing
	if errors.As(err, &missing) && missing.Redirect != "" {
		body["redirect"] = missing.Redirect
	}

	if status >= http.StatusInternalServerError {
		logrus.WithFields(logrus.Fields{
			"path": ctx.FullPath(),
			"code": errs.TypeOf(err),
		}).Errorf("请求处理失败: %v", err)
	}

	ctx.JSON(status, body)
}
