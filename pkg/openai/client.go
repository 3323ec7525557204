package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"betting_assistant/models"
	"betting_assistant/pkg/errs"

	"github.com/sirupsen/logrus"
)

const serviceName = "openai"

// 请求参数
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4"
	temperature    = 0.2
	maxTokens      = 2000
)

const systemPrompt = "You are an expert sports betting analyst with deep knowledge of statistics, team dynamics, and betting strategies. Provide detailed, data-driven betting insights."

// Client OpenAI chat completions 客户端
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewClient 创建客户端，参数为空时使用默认值
func NewClient(baseURL, model string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	MaxTokens      int            `json:"max_tokens"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Analyze 请求模型生成投注分析
func (c *Client) Analyze(ctx context.Context, apiKey string, req models.AnalysisRequest) (*models.AnalysisResult, error) {
	if missing := req.MissingFields(); len(missing) > 0 {
		return nil, errs.NewValidation("Missing required fields", missing...)
	}
	if apiKey == "" {
		return nil, errs.NewCredentialMissing("")
	}

	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: BuildPrompt(req)},
		},
		Temperature:    temperature,
		MaxTokens:      maxTokens,
		ResponseFormat: responseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, err
	}

	body, err := c.doRequest(ctx, apiKey, payload)
	if err != nil {
		logrus.WithError(err).Error("OpenAI请求失败")
		return nil, errs.NewRemoteServiceFailure(serviceName, "Failed to generate analysis", err)
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errs.NewRemoteServiceFailure(serviceName, "Failed to generate analysis", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errs.NewRemoteServiceFailure(serviceName, "Failed to generate analysis", fmt.Errorf("响应中没有choices"))
	}

	return &models.AnalysisResult{
		Event: models.EventInfo{
			Sport:  req.Sport,
			League: req.League,
			Teams:  req.Teams,
			Date:   req.EventDate,
		},
		BetType:  req.BetType,
		Insights: ParseInsights(resp.Choices[0].Message.Content),
	}, nil
}

func (c *Client) doRequest(ctx context.Context, apiKey string, payload []byte) ([]byte, error) {
	url := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("POST %s 请求失败: %d %s", url, resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

// ParseInsights 解析模型输出，非JSON时保留原文
func ParseInsights(content string) *models.AnalysisInsights {
	var insights models.AnalysisInsights
	if err := json.Unmarshal([]byte(content), &insights); err != nil {
		logrus.Warnf("模型输出不是合法JSON: %v", err)
		return &models.AnalysisInsights{RawAnalysis: content}
	}

	insights.Confidence = insights.Confidence.Clamp()
	for i := range insights.AlternativeBets {
		insights.AlternativeBets[i].Confidence = insights.AlternativeBets[i].Confidence.Clamp()
	}
	return &insights
}

// BuildPrompt 根据赛事信息生成用户提示词
func BuildPrompt(req models.AnalysisRequest) string {
	eventDate := req.EventDate
	if eventDate == "" {
		eventDate = "Upcoming"
	}
	betType := req.BetType
	if betType == "" {
		betType = "All available options"
	}

	var b strings.Builder
	b.WriteString("I need a detailed betting analysis for the following event:\n\n")
	fmt.Fprintf(&b, "Sport: %s\n", req.Sport)
	fmt.Fprintf(&b, "League: %s\n", req.League)
	fmt.Fprintf(&b, "Teams/Participants: %s\n", req.Teams)
	fmt.Fprintf(&b, "Event Date: %s\n", eventDate)
	fmt.Fprintf(&b, "Bet Type to Analyze: %s\n", betType)
	if req.CustomQuestion != "" {
		fmt.Fprintf(&b, "Additional Question: %s\n", req.CustomQuestion)
	}
	b.WriteString(`
Please provide a comprehensive betting analysis with the following structure in JSON format:

{
  "summary": "A detailed overview of your betting recommendation and rationale",
  "keyFactors": ["List key statistical factors that influence your recommendation"],
  "recommendation": "Your specific betting recommendation (team, spread, over/under, etc.)",
  "confidence": "A decimal between 0 and 1 indicating confidence level",
  "alternativeBets": [{"bet": "Alternative bet 1", "confidence": 0.7}, {"bet": "Alternative bet 2", "confidence": 0.6}],
  "risksToConsider": ["Risk factor 1", "Risk factor 2"],
  "additionalInsights": "Any other relevant information for betting decisions"
}

Base your analysis on team statistics, recent performance, head-to-head history, injuries, venue factors, weather (if relevant), and betting trends.
`)
	return b.String()
}
