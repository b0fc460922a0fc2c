package handler

import (
	"bytes"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/habitlog/internal/db"
	"github.com/habitlog/internal/service"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	sanitizer = bluemonday.UGCPolicy()
)

const (
	habitTotal = 5
	dateFormat = "2006-01-02"

	sessionIDKey      = "session_id"
	sessionOpenAIKey  = "openai_key"
	sessionWeatherKey = "weather_key"
)

// habitOption 表示一条固定的打卡项
type habitOption struct {
	Emoji string `json:"emoji"`
	Name  string `json:"name"`
}

// 五个固定习惯，与页面复选框一一对应
var habitOptions = []habitOption{
	{"🌅", "기상 미션"},
	{"💧", "물 마시기"},
	{"📚", "공부/독서"},
	{"🏃", "운동하기"},
	{"😴", "수면"},
}

// 可选城市，首项为默认值
var cityOptions = []string{
	"Seoul", "Busan", "Incheon", "Daegu", "Daejeon",
	"Gwangju", "Ulsan", "Suwon", "Seongnam", "Jeju",
}

type checkInPayload struct {
	Habits []bool `json:"habits"`
	Mood   int    `json:"mood"`
}

type reportPayload struct {
	Habits     []bool `json:"habits"`
	Mood       int    `json:"mood"`
	City       string `json:"city"`
	Persona    string `json:"persona"`
	OpenAIKey  string `json:"openai_key"`
	WeatherKey string `json:"weather_key"`
}

// ShowDashboard 渲染打卡仪表盘页面
func (a *API) ShowDashboard(c *gin.Context) {
	data := gin.H{
		"title":         "AI 습관 트래커",
		"habits":        habitOptions,
		"cities":        cityOptions,
		"personas":      service.Personas(),
		"history":       historyPayload(nil),
		"metrics":       metricsPayload(0, 0, 7),
		"hasOpenAIKey":  a.cfg.OpenAIAPIKey != "",
		"hasWeatherKey": a.cfg.WeatherAPIKey != "",
	}

	sid := a.sessionID(c)
	if err := a.history.Seed(sid); err != nil {
		data["error"] = "기록을 불러오지 못했어요."
		c.HTML(http.StatusInternalServerError, "dashboard.html", data)
		return
	}

	records, err := a.history.Recent(sid)
	if err != nil {
		data["error"] = "기록을 불러오지 못했어요."
		c.HTML(http.StatusInternalServerError, "dashboard.html", data)
		return
	}

	data["history"] = historyPayload(records)
	c.HTML(http.StatusOK, "dashboard.html", data)
}

// CheckIn 接收当前打卡状态，写入当日记录并返回最新指标与历史。
// 页面上每次输入变化都会调用，保证当日记录始终反映最新状态。
func (a *API) CheckIn(c *gin.Context) {
	var payload checkInPayload
	if !bindJSON(c, &payload, "요청 형식이 올바르지 않아요.") {
		return
	}
	if !validateCheckIn(c, payload.Habits, payload.Mood) {
		return
	}

	completedNames, completed := completedHabits(payload.Habits)
	rate := service.CompletionRate(completed, habitTotal)

	sid := a.sessionID(c)
	if err := a.history.Seed(sid); err != nil {
		respondError(c, http.StatusInternalServerError, "기록을 불러오지 못했어요.")
		return
	}
	if err := a.history.UpsertToday(sid, rate, completed, payload.Mood); err != nil {
		respondError(c, http.StatusInternalServerError, "기록을 저장하지 못했어요.")
		return
	}

	records, err := a.history.Recent(sid)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "기록을 불러오지 못했어요.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"metrics":          metricsPayload(rate, completed, payload.Mood),
		"completed_habits": completedNames,
		"history":          historyPayload(records),
	})
}

// GenerateReport 依次调用天气、随机图片与报告生成，
// 每个合作方的缺席都折叠为各自面板的提示语，永不让本次交互失败。
func (a *API) GenerateReport(c *gin.Context) {
	var payload reportPayload
	if !bindJSON(c, &payload, "요청 형식이 올바르지 않아요.") {
		return
	}
	if !validateCheckIn(c, payload.Habits, payload.Mood) {
		return
	}
	city := strings.TrimSpace(payload.City)
	if city == "" {
		respondError(c, http.StatusBadRequest, "도시를 선택해 주세요.")
		return
	}

	completedNames, completed := completedHabits(payload.Habits)
	rate := service.CompletionRate(completed, habitTotal)

	sid := a.sessionID(c)
	if err := a.history.Seed(sid); err != nil {
		respondError(c, http.StatusInternalServerError, "기록을 불러오지 못했어요.")
		return
	}
	if err := a.history.UpsertToday(sid, rate, completed, payload.Mood); err != nil {
		respondError(c, http.StatusInternalServerError, "기록을 저장하지 못했어요.")
		return
	}

	openAIKey := a.resolveKey(c, payload.OpenAIKey, sessionOpenAIKey, a.cfg.OpenAIAPIKey)
	weatherKey := a.resolveKey(c, payload.WeatherKey, sessionWeatherKey, a.cfg.WeatherAPIKey)

	// 顺序调用：先天气、再随机图片、最后报告，输出顺序保持确定
	ctx := c.Request.Context()
	weather := a.weather.Fetch(ctx, city, weatherKey)
	image := a.images.Fetch(ctx)

	input := service.ReportInput{
		Date:    time.Now().Format(dateFormat),
		City:    city,
		Mood:    payload.Mood,
		Habits:  completedNames,
		Weather: weather,
		Image:   image,
		Persona: payload.Persona,
	}

	result := gin.H{
		"metrics": metricsPayload(rate, completed, payload.Mood),
	}

	if weather != nil {
		result["weather"] = weather
	} else {
		result["weather_error"] = "날씨 정보를 가져오지 못했어요. (API Key/네트워크를 확인해 주세요)"
	}

	if image != nil {
		result["image"] = image
	} else {
		result["image_error"] = "강아지 이미지를 가져오지 못했어요."
	}

	report, err := a.reports.Generate(ctx, openAIKey, input)
	switch {
	case err == nil:
		result["report"] = gin.H{
			"text": report,
			"html": renderReportHTML(report),
		}
	case errors.Is(err, service.ErrAIAPIKeyMissing):
		result["report_error"] = "OpenAI API Key가 필요해요. 설정에서 입력해 주세요."
	default:
		log.Printf("report generation failed: %v", err)
		result["report_error"] = "리포트 생성에 실패했어요. 잠시 후 다시 시도해 주세요."
	}

	result["share_text"] = service.BuildShareText(input, rate, completed, report)

	c.JSON(http.StatusOK, result)
}

// sessionID 返回当前会话的标识，首次访问时生成并写回会话
func (a *API) sessionID(c *gin.Context) string {
	sess := sessions.Default(c)
	if value, ok := sess.Get(sessionIDKey).(string); ok && value != "" {
		return value
	}

	id := uuid.NewString()
	sess.Set(sessionIDKey, id)
	if err := sess.Save(); err != nil {
		log.Printf("failed to save session: %v", err)
	}
	return id
}

// resolveKey 决定生效的凭证：请求字段 > 会话覆盖 > 环境默认值。
// 请求里带了新值时同时写回会话，后续请求无需重复输入。
func (a *API) resolveKey(c *gin.Context, fromRequest, sessionKey, fallback string) string {
	sess := sessions.Default(c)

	if key := strings.TrimSpace(fromRequest); key != "" {
		sess.Set(sessionKey, key)
		if err := sess.Save(); err != nil {
			log.Printf("failed to save session: %v", err)
		}
		return key
	}

	if value, ok := sess.Get(sessionKey).(string); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}

	return fallback
}

func validateCheckIn(c *gin.Context, habits []bool, mood int) bool {
	if len(habits) != habitTotal {
		respondError(c, http.StatusBadRequest, "습관 체크 항목은 5개여야 해요.")
		return false
	}
	if mood < 1 || mood > 10 {
		respondError(c, http.StatusBadRequest, "기분 점수는 1~10 사이여야 해요.")
		return false
	}
	return true
}

func completedHabits(flags []bool) ([]string, int) {
	names := make([]string, 0, len(flags))
	for i, checked := range flags {
		if checked && i < len(habitOptions) {
			names = append(names, habitOptions[i].Name)
		}
	}
	return names, len(names)
}

func metricsPayload(rate, completed, mood int) gin.H {
	return gin.H{
		"rate":            rate,
		"rate_label":      formatPercent(rate),
		"completed":       completed,
		"completed_label": formatRatio(completed, habitTotal),
		"mood":            mood,
		"mood_label":      formatRatio(mood, 10),
	}
}

func historyPayload(records []db.DailyRecord) []gin.H {
	items := make([]gin.H, 0, len(records))
	for _, record := range records {
		items = append(items, gin.H{
			"date":      record.Date,
			"rate":      record.Rate,
			"completed": record.Completed,
			"mood":      record.Mood,
		})
	}
	return items
}

// renderReportHTML 将模型输出的 Markdown 渲染为净化后的 HTML
func renderReportHTML(report string) string {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(report), &buf); err != nil {
		log.Printf("failed to render report markdown: %v", err)
		return ""
	}
	return sanitizer.Sanitize(buf.String())
}
