package controllers

import (
	"context"
	"net/http"

	"betting_assistant/models"
	"betting_assistant/pkg/errs"
	"betting_assistant/pkg/history"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// CredentialRedirect 缺少API密钥时前端跳转的设置页
const CredentialRedirect = "/settings?redirect=analysis"

// Analyzer 生成投注分析的远程服务
type Analyzer interface {
	Analyze(ctx context.Context, apiKey string, req models.AnalysisRequest) (*models.AnalysisResult, error)
}

// AnalysisController 投注分析
type AnalysisController struct {
	analyzer    Analyzer
	store       *history.Store
	history     *HistoryController
	fallbackKey string
}

// NewAnalysisController 创建分析控制器，fallbackKey 为服务端兜底密钥
func NewAnalysisController(analyzer Analyzer, store *history.Store, historyController *HistoryController, fallbackKey string) *AnalysisController {
	return &AnalysisController{
		analyzer:    analyzer,
		store:       store,
		history:     historyController,
		fallbackKey: fallbackKey,
	}
}

// Analyze 只生成分析，不保存
func (a *AnalysisController) Analyze(ctx *gin.Context) {
	result, err := a.analyze(ctx)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": result})
}

// CreateAnalysis 生成分析并保存到历史
func (a *AnalysisController) CreateAnalysis(ctx *gin.Context) {
	result, err := a.analyze(ctx)
	if err != nil {
		respondError(ctx, err)
		return
	}

	record, err := a.history.save(ctx, result.ToRecord())
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"data": gin.H{
			"analysis": result,
			"record":   record,
		},
	})
}

func (a *AnalysisController) analyze(ctx *gin.Context) (*models.AnalysisResult, error) {
	var req models.AnalysisRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		logrus.Warnf("分析参数错误: %v", err)
		return nil, errs.NewValidation("Missing required fields")
	}
	if missing := req.MissingFields(); len(missing) > 0 {
		return nil, errs.NewValidation("Missing required fields", missing...)
	}
	if req.BetType == "" {
		req.BetType = models.DefaultBetType
	}

	apiKey, ok := a.store.GetCredential(ctx.Request.Context())
	if !ok {
		apiKey = a.fallbackKey
	}
	if apiKey == "" {
		return nil, errs.NewCredentialMissing(CredentialRedirect)
	}

	logrus.WithFields(logrus.Fields{
		"sport":   req.Sport,
		"league":  req.League,
		"teams":   req.Teams,
		"betType": req.BetType,
	}).Info("开始生成投注分析")

	return a.analyzer.Analyze(ctx.Request.Context(), apiKey, req)
}
