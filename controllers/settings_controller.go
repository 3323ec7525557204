package controllers

import (
	"net/http"

	"betting_assistant/pkg/errs"
	"betting_assistant/pkg/history"

	"github.com/gin-gonic/gin"
)

// SettingsController API密钥设置
type SettingsController struct {
	store  *history.Store
	prefix string
}

// NewSettingsController 创建设置控制器，prefix 为密钥前缀校验
func NewSettingsController(store *history.Store, prefix string) *SettingsController {
	return &SettingsController{store: store, prefix: prefix}
}

// CredentialRequest 保存密钥请求
type CredentialRequest struct {
	APIKey string `json:"apiKey"`
}

// GetCredential 查看密钥是否已配置，只返回掩码
func (s *SettingsController) GetCredential(ctx *gin.Context) {
	value, ok := s.store.GetCredential(ctx.Request.Context())

	ctx.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"configured": ok,
			"apiKey":     history.MaskCredential(value),
		},
	})
}

// SaveCredential 保存密钥
func (s *SettingsController) SaveCredential(ctx *gin.Context) {
	var req CredentialRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondError(ctx, errs.NewValidation("请求参数格式错误", "apiKey"))
		return
	}

	if err := s.store.SetCredential(ctx.Request.Context(), req.APIKey, s.prefix); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "API key saved successfully!",
		"data": gin.H{
			"configured": true,
			"apiKey":     history.MaskCredential(req.APIKey),
		},
	})
}

// ClearCredential 清除密钥
func (s *SettingsController) ClearCredential(ctx *gin.Context) {
	if err := s.store.ClearCredential(ctx.Request.Context()); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "API key cleared",
		"data":    gin.H{"configured": false},
	})
}
