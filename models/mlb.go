package models

import (
	"encoding/json"
	"fmt"
)

// MLB 统计分组
const (
	StatsGroupHitting  = "hitting"
	StatsGroupPitching = "pitching"
	StatsGroupFielding = "fielding"
)

// NamedRef MLB接口中的 {id, name} 引用
type NamedRef struct {
	ID   int    `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// GameTeam 比赛中的一方
type GameTeam struct {
	Team         NamedRef `json:"team"`
	Score        *int     `json:"score,omitempty"`
	IsWinner     bool     `json:"isWinner,omitempty"`
	SeriesNumber int      `json:"seriesNumber,omitempty"`
}

// GameTeams 主客队
type GameTeams struct {
	Away GameTeam `json:"away"`
	Home GameTeam `json:"home"`
}

// GameStatus 比赛状态
type GameStatus struct {
	AbstractGameState string `json:"abstractGameState,omitempty"`
	DetailedState     string `json:"detailedState,omitempty"`
	StatusCode        string `json:"statusCode,omitempty"`
}

// Game MLB赛程中的一场比赛
type Game struct {
	GamePk   int        `json:"gamePk"`
	GameDate string     `json:"gameDate"`
	Season   string     `json:"season"`
	GameType string     `json:"gameType,omitempty"`
	Status   GameStatus `json:"status"`
	Teams    GameTeams  `json:"teams"`
	Venue    *NamedRef  `json:"venue,omitempty"`
	League   *NamedRef  `json:"league,omitempty"`
}

// Matchup "客队 vs 主队"
func (g *Game) Matchup() string {
	return fmt.Sprintf("%s vs %s", g.Teams.Away.Team.Name, g.Teams.Home.Team.Name)
}

// UpcomingEvent 供前端展示的赛事
type UpcomingEvent struct {
	ID         int    `json:"id"`
	Sport      string `json:"sport"`
	SportName  string `json:"sportName"`
	League     string `json:"league"`
	Teams      string `json:"teams"`
	Date       string `json:"date"`
	Venue      string `json:"venue"`
	HomeTeamID int    `json:"homeTeamId"`
	AwayTeamID int    `json:"awayTeamId"`
	Season     string `json:"season"`
}

// ToUpcomingEvent 映射为展示用赛事
func (g *Game) ToUpcomingEvent() UpcomingEvent {
	league := "MLB"
	if g.League != nil && g.League.Name != "" {
		league = g.League.Name
	}
	venue := ""
	if g.Venue != nil {
		venue = g.Venue.Name
	}
	return UpcomingEvent{
		ID:         g.GamePk,
		Sport:      "baseball",
		SportName:  "Baseball",
		League:     league,
		Teams:      g.Matchup(),
		Date:       g.GameDate,
		Venue:      venue,
		HomeTeamID: g.Teams.Home.Team.ID,
		AwayTeamID: g.Teams.Away.Team.ID,
		Season:     g.Season,
	}
}

// StatsGroup 一组赛季统计，splits 原样透传
type StatsGroup struct {
	Type   NamedRefDisplay `json:"type"`
	Group  NamedRefDisplay `json:"group"`
	Splits json.RawMessage `json:"splits,omitempty"`
}

// NamedRefDisplay MLB接口中的 {displayName}
type NamedRefDisplay struct {
	DisplayName string `json:"displayName"`
}
