package mlb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"betting_assistant/models"
	"betting_assistant/pkg/errs"
	"betting_assistant/pkg/redis"

	"github.com/sirupsen/logrus"
)

const serviceName = "mlb"

// DefaultBaseURL statsapi 地址
const DefaultBaseURL = "https://statsapi.mlb.com/api/v1"

// Cache 可选的结果缓存，由 Redis JSON 缓存实现
type Cache interface {
	GetCache(key string, dest interface{}) (bool, error)
	SetCacheWithExpiration(key string, value interface{}, expiration time.Duration) error
}

// Client MLB 赛程和统计客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      Cache
	cacheTTL   time.Duration
	now        func() time.Time
}

// StatsQuery 赛季统计查询，TeamID 和 PlayerID 至少一个
type StatsQuery struct {
	TeamID   string
	PlayerID string
	Season   string
	Group    string
}

// NewClient 创建客户端，cache 为 nil 时不缓存
func NewClient(baseURL string, timeout time.Duration, cache Cache, cacheTTL time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		cache:      cache,
		cacheTTL:   cacheTTL,
		now:        time.Now,
	}
}

type scheduleResponse struct {
	Dates []struct {
		Date  string        `json:"date"`
		Games []models.Game `json:"games"`
	} `json:"dates"`
}

type statsResponse struct {
	Stats []models.StatsGroup `json:"stats"`
}

// Schedule 获取指定日期的比赛，date 为空时取当天
func (c *Client) Schedule(ctx context.Context, date string) ([]models.Game, error) {
	if date == "" {
		date = c.now().UTC().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, errs.NewValidation("date must be YYYY-MM-DD", "date")
	}

	cacheKey := redis.CacheKey(redis.CacheKeyMLBSchedule, date)
	games := []models.Game{}
	if c.fromCache(cacheKey, &games) {
		return games, nil
	}

	params := url.Values{}
	params.Set("sportId", "1")
	params.Set("date", date)

	var resp scheduleResponse
	if err := c.getJSON(ctx, "/schedule?"+params.Encode(), &resp); err != nil {
		return nil, errs.NewRemoteServiceFailure(serviceName, "Failed to fetch MLB schedule", err)
	}

	for i := range resp.Dates {
		games = append(games, resp.Dates[i].Games...)
	}

	c.toCache(cacheKey, games)
	return games, nil
}

// Upcoming 获取指定日期的赛事并映射为展示格式
func (c *Client) Upcoming(ctx context.Context, date string) ([]models.UpcomingEvent, error) {
	games, err := c.Schedule(ctx, date)
	if err != nil {
		return nil, err
	}

	events := make([]models.UpcomingEvent, 0, len(games))
	for i := range games {
		events = append(events, games[i].ToUpcomingEvent())
	}
	return events, nil
}

// Stats 获取球队或球员的赛季统计
func (c *Client) Stats(ctx context.Context, q StatsQuery) ([]models.StatsGroup, error) {
	if q.TeamID == "" && q.PlayerID == "" {
		return nil, errs.NewValidation("teamId or playerId required", "teamId", "playerId")
	}
	if q.Season == "" {
		q.Season = strconv.Itoa(c.now().Year())
	}
	if q.Group == "" {
		q.Group = models.StatsGroupHitting
	}

	scope, id := "teams", q.TeamID
	if id == "" {
		scope, id = "people", q.PlayerID
	}

	cacheKey := redis.CacheKey(redis.CacheKeyMLBStats, scope, id, q.Season, q.Group)
	groups := []models.StatsGroup{}
	if c.fromCache(cacheKey, &groups) {
		return groups, nil
	}

	params := url.Values{}
	params.Set("stats", "season")
	params.Set("season", q.Season)
	params.Set("group", q.Group)
	path := fmt.Sprintf("/%s/%s/stats?%s", scope, url.PathEscape(id), params.Encode())

	var resp statsResponse
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, errs.NewRemoteServiceFailure(serviceName, "Failed to fetch MLB stats", err)
	}
	if resp.Stats != nil {
		groups = resp.Stats
	}

	c.toCache(cacheKey, groups)
	return groups, nil
}

func (c *Client) getJSON(ctx context.Context, path string, dest interface{}) error {
	reqURL := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s 请求失败: %d %s", reqURL, resp.StatusCode, string(body))
	}
	return json.Unmarshal(body, dest)
}

func (c *Client) fromCache(key string, dest interface{}) bool {
	if c.cache == nil {
		return false
	}
	hit, err := c.cache.GetCache(key, dest)
	if err != nil {
		logrus.Warnf("读取缓存失败 %s: %v", key, err)
		return false
	}
	if hit {
		logrus.Debugf("命中缓存 %s", key)
	}
	return hit
}

func (c *Client) toCache(key string, value interface{}) {
	if c.cache == nil {
		return
	}
	if err := c.cache.SetCacheWithExpiration(key, value, c.cacheTTL); err != nil {
		logrus.Warnf("写入缓存失败 %s: %v", key, err)
	}
}
