package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// 三种固定的教练人格，页面上的选项值即这里的常量
const (
	PersonaSpartan    = "스파르타 코치"
	PersonaMentor     = "따뜻한 멘토"
	PersonaGameMaster = "게임 마스터"
)

// Personas 返回可选人格列表，顺序与页面一致
func Personas() []string {
	return []string{PersonaSpartan, PersonaMentor, PersonaGameMaster}
}

const defaultReportModel = "gpt-5-mini"

// ReportInput 描述一次生成请求所需的全部上下文
type ReportInput struct {
	Date    string
	City    string
	Mood    int
	Habits  []string
	Weather *WeatherSnapshot
	Image   *ImageSnapshot
	Persona string
}

// reportPayload 是随提示词一起下发的结构化原始数据
type reportPayload struct {
	Date            string           `json:"date"`
	City            string           `json:"city"`
	Mood            int              `json:"mood_1_to_10"`
	CompletedHabits []string         `json:"completed_habits"`
	Weather         *WeatherSnapshot `json:"weather"`
	Dog             *ImageSnapshot   `json:"dog"`
}

// ReportService 基于大模型接口生成教练风格的状态报告。
type ReportService struct {
	client *aiReportClient
}

// NewReportService 构造默认的 ReportService
func NewReportService() *ReportService {
	return &ReportService{client: newAIReportClient(defaultReportModel)}
}

// SetHTTPClient 覆盖默认 HTTP 客户端，主要用于测试。
func (s *ReportService) SetHTTPClient(client httpDoer) {
	s.client.SetHTTPClient(client)
}

// Generate 按选中的人格生成一份五段式报告，返回纯文本。
// Key 为空时返回 ErrAIAPIKeyMissing 且不发起请求；
// 任何上游失败或空输出都以 error 形式返回，由调用方折叠成提示语。
func (s *ReportService) Generate(ctx context.Context, apiKey string, input ReportInput) (string, error) {
	prompt, err := buildReportPrompt(input)
	if err != nil {
		return "", err
	}
	logReportExchange("prompt", prompt)

	text, err := s.client.createResponse(ctx, apiKey, personaInstruction(input.Persona), prompt)
	if err != nil {
		return "", err
	}

	logReportExchange("response", text)
	return text, nil
}

// personaInstruction 返回人格对应的系统指令，未知选项回退到游戏主持人。
func personaInstruction(persona string) string {
	switch strings.TrimSpace(persona) {
	case PersonaSpartan:
		return "당신은 엄격한 스파르타 코치다. 변명은 차단하고, 핵심만 찌르며, " +
			"실행 가능한 액션을 강하게 지시한다. 다만 인신공격은 금지."
	case PersonaMentor:
		return "당신은 따뜻한 멘토다. 공감과 격려를 기반으로, 작은 성취를 강화하고 " +
			"현실적인 다음 단계를 제시한다."
	default:
		return "당신은 RPG 게임 마스터다. 사용자를 플레이어로 보고, 오늘의 상태를 버프/디버프로 묘사하며 " +
			"퀘스트 형태로 내일 미션을 제시한다. 유쾌하고 몰입감 있게."
	}
}

// buildReportPrompt 拼装固定的五段式输出要求、可读摘要与 JSON 原始数据
func buildReportPrompt(input ReportInput) (string, error) {
	payload := reportPayload{
		Date:            input.Date,
		City:            input.City,
		Mood:            input.Mood,
		CompletedHabits: input.Habits,
		Weather:         input.Weather,
		Dog:             input.Image,
	}
	if payload.CompletedHabits == nil {
		payload.CompletedHabits = []string{}
	}

	var raw bytes.Buffer
	encoder := json.NewEncoder(&raw)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(payload); err != nil {
		return "", fmt.Errorf("序列化报告数据失败: %w", err)
	}

	var builder strings.Builder
	builder.WriteString("아래 사용자 데이터를 기반으로 'AI 습관 트래커' 컨디션 리포트를 작성해줘.\n\n")
	builder.WriteString("[요구 출력 형식]\n")
	builder.WriteString("1) 컨디션 등급: S/A/B/C/D 중 하나 (한 줄)\n")
	builder.WriteString("2) 습관 분석: 잘한 점 2가지 + 개선 1가지 (불릿)\n")
	builder.WriteString("3) 날씨 코멘트: 오늘 날씨에 맞춘 조언 1~2문장\n")
	builder.WriteString("4) 내일 미션: 3개의 구체적인 미션 (체크리스트 형태)\n")
	builder.WriteString("5) 오늘의 한마디: 1문장 (스타일에 맞게)\n\n")
	builder.WriteString("[참고]\n")
	builder.WriteString("- 달성률이 낮으면 원인 가설 + 최소 미션 전략을 제시해.\n")
	builder.WriteString("- 기분 점수(1~10)를 중요 신호로 활용해.\n")
	builder.WriteString("- 날씨/강아지 품종도 자연스럽게 한 번은 언급해.\n\n")
	builder.WriteString("[요약 텍스트]\n")
	builder.WriteString("- " + weatherLine(input.Weather) + "\n")
	builder.WriteString("- " + dogLine(input.Image) + "\n\n")
	builder.WriteString("[원본 데이터(JSON)]\n")
	builder.WriteString(strings.TrimSpace(raw.String()))

	return builder.String(), nil
}

// weatherLine 生成一行人类可读的天气摘要
func weatherLine(weather *WeatherSnapshot) string {
	if weather == nil {
		return "날씨 정보 없음"
	}
	return fmt.Sprintf("%s 현재 날씨: %s, %s°C (체감 %s°C), 습도 %s%%",
		weather.City,
		orDash(weather.Description),
		formatFloat(weather.Temp),
		formatFloat(weather.FeelsLike),
		formatInt(weather.Humidity),
	)
}

// dogLine 生成一行狗狗品种摘要
func dogLine(image *ImageSnapshot) string {
	if image == nil {
		return "강아지 정보 없음"
	}
	return "오늘의 강아지 품종: " + image.Breed
}

// BuildShareText 拼装原样复制分享用的纯文本块
func BuildShareText(input ReportInput, rate, completed int, report string) string {
	habitLine := "없음"
	if len(input.Habits) > 0 {
		habitLine = strings.Join(input.Habits, ", ")
	}

	weatherShort := "날씨 없음"
	if input.Weather != nil {
		weatherShort = fmt.Sprintf("%s / %s°C", orDash(input.Weather.Description), formatFloat(input.Weather.Temp))
	}

	dogShort := "강아지 없음"
	if input.Image != nil {
		dogShort = input.Image.Breed
	}

	body := strings.TrimSpace(report)
	if body == "" {
		body = "(리포트 없음)"
	}

	var builder strings.Builder
	builder.WriteString("[AI 습관 트래커 공유]\n")
	builder.WriteString(fmt.Sprintf("- 날짜: %s\n", input.Date))
	builder.WriteString(fmt.Sprintf("- 도시: %s\n", input.City))
	builder.WriteString(fmt.Sprintf("- 달성률: %d%% (%d/5)\n", rate, completed))
	builder.WriteString(fmt.Sprintf("- 완료 습관: %s\n", habitLine))
	builder.WriteString(fmt.Sprintf("- 기분: %d/10\n", input.Mood))
	builder.WriteString(fmt.Sprintf("- 날씨: %s\n", weatherShort))
	builder.WriteString(fmt.Sprintf("- 오늘의 강아지: %s\n", dogShort))
	builder.WriteString("\n[AI 코치 리포트]\n")
	builder.WriteString(body)
	builder.WriteString("\n")

	return builder.String()
}

func formatFloat(value *float64) string {
	if value == nil {
		return "?"
	}
	return strconv.FormatFloat(*value, 'f', -1, 64)
}

func formatInt(value *int) string {
	if value == nil {
		return "?"
	}
	return strconv.Itoa(*value)
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "?"
	}
	return value
}
