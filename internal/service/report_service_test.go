package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
)

func sampleReportInput() ReportInput {
	temp := 21.5
	feels := 22.1
	humidity := 40
	return ReportInput{
		Date:   "2026-08-26",
		City:   "Seoul",
		Mood:   8,
		Habits: []string{"기상 미션", "물 마시기", "수면"},
		Weather: &WeatherSnapshot{
			City:        "Seoul",
			Description: "맑음",
			Temp:        &temp,
			FeelsLike:   &feels,
			Humidity:    &humidity,
		},
		Image:   &ImageSnapshot{URL: "https://images.dog.ceo/breeds/shiba-inu/abc.jpg", Breed: "shiba inu"},
		Persona: PersonaSpartan,
	}
}

func responsesBody(text string) string {
	return `{"output":[{"type":"message","content":[{"type":"output_text","text":` + jsonQuote(text) + `}]}]}`
}

func jsonQuote(s string) string {
	quoted, _ := json.Marshal(s)
	return string(quoted)
}

func TestGenerateWithoutKeySkipsRequest(t *testing.T) {
	t.Parallel()

	doer := &stubDoer{responder: func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, responsesBody("무시"))
	}}

	svc := NewReportService()
	svc.SetHTTPClient(doer)

	_, err := svc.Generate(context.Background(), "", sampleReportInput())
	if !errors.Is(err, ErrAIAPIKeyMissing) {
		t.Fatalf("expected ErrAIAPIKeyMissing, got %v", err)
	}
	if doer.calls != 0 {
		t.Fatalf("expected zero requests without api key, got %d", doer.calls)
	}
}

func TestGenerateSendsPersonaAndData(t *testing.T) {
	t.Parallel()

	var captured responsesRequest
	doer := &stubDoer{responder: func(req *http.Request) (*http.Response, error) {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			t.Fatalf("failed to read request body: %v", err)
		}
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Fatalf("failed to parse request body: %v", err)
		}
		if req.URL.Path != "/v1/responses" {
			t.Fatalf("unexpected request path: %s", req.URL.Path)
		}
		if got := req.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("unexpected authorization header: %s", got)
		}
		return jsonResponse(http.StatusOK, responsesBody("1) 컨디션 등급: A"))
	}}

	svc := NewReportService()
	svc.SetHTTPClient(doer)

	report, err := svc.Generate(context.Background(), "test-key", sampleReportInput())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if report != "1) 컨디션 등급: A" {
		t.Fatalf("unexpected report text: %q", report)
	}

	if captured.Model != "gpt-5-mini" {
		t.Fatalf("unexpected model: %s", captured.Model)
	}
	if !strings.Contains(captured.Instructions, "스파르타 코치") {
		t.Fatalf("instructions should carry the persona: %s", captured.Instructions)
	}
	for _, fragment := range []string{
		"[요구 출력 형식]",
		"[원본 데이터(JSON)]",
		`"mood_1_to_10": 8`,
		`"city": "Seoul"`,
		"Seoul 현재 날씨: 맑음, 21.5°C (체감 22.1°C), 습도 40%",
		"오늘의 강아지 품종: shiba inu",
	} {
		if !strings.Contains(captured.Input, fragment) {
			t.Fatalf("prompt missing %q:\n%s", fragment, captured.Input)
		}
	}
}

func TestGeneratePromptWithAbsentCollaborators(t *testing.T) {
	t.Parallel()

	var captured responsesRequest
	doer := &stubDoer{responder: func(req *http.Request) (*http.Response, error) {
		body, _ := io.ReadAll(req.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Fatalf("failed to parse request body: %v", err)
		}
		return jsonResponse(http.StatusOK, responsesBody("ok"))
	}}

	svc := NewReportService()
	svc.SetHTTPClient(doer)

	input := sampleReportInput()
	input.Weather = nil
	input.Image = nil
	input.Habits = nil

	if _, err := svc.Generate(context.Background(), "test-key", input); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	if !strings.Contains(captured.Input, "날씨 정보 없음") {
		t.Fatalf("prompt should mark absent weather:\n%s", captured.Input)
	}
	if !strings.Contains(captured.Input, "강아지 정보 없음") {
		t.Fatalf("prompt should mark absent dog:\n%s", captured.Input)
	}
	if !strings.Contains(captured.Input, `"completed_habits": []`) {
		t.Fatalf("empty habits should serialize as empty list:\n%s", captured.Input)
	}
}

func TestGenerateCollapsesUpstreamFailures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		responder func(req *http.Request) (*http.Response, error)
	}{
		{"auth failure", func(req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusUnauthorized, `{"error":{"message":"invalid api key"}}`)
		}},
		{"transport failure", func(req *http.Request) (*http.Response, error) {
			return nil, io.ErrUnexpectedEOF
		}},
		{"blank output", func(req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, responsesBody("   "))
		}},
		{"no output items", func(req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `{"output":[]}`)
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewReportService()
			svc.SetHTTPClient(&stubDoer{responder: tc.responder})

			if _, err := svc.Generate(context.Background(), "test-key", sampleReportInput()); err == nil {
				t.Fatal("expected error from failed generation")
			}
		})
	}
}

func TestPersonaInstructionFallsBackToGameMaster(t *testing.T) {
	t.Parallel()

	if got := personaInstruction(PersonaMentor); !strings.Contains(got, "따뜻한 멘토") {
		t.Fatalf("mentor instruction unexpected: %s", got)
	}
	if got := personaInstruction("알 수 없는 스타일"); !strings.Contains(got, "게임 마스터") {
		t.Fatalf("unknown persona should fall back to game master: %s", got)
	}
	if got := personaInstruction(""); !strings.Contains(got, "게임 마스터") {
		t.Fatalf("empty persona should fall back to game master: %s", got)
	}
}

func TestBuildShareText(t *testing.T) {
	t.Parallel()

	input := sampleReportInput()
	share := BuildShareText(input, 60, 3, "오늘도 수고했어요.")

	for _, fragment := range []string{
		"[AI 습관 트래커 공유]",
		"- 날짜: 2026-08-26",
		"- 도시: Seoul",
		"- 달성률: 60% (3/5)",
		"- 완료 습관: 기상 미션, 물 마시기, 수면",
		"- 기분: 8/10",
		"- 날씨: 맑음 / 21.5°C",
		"- 오늘의 강아지: shiba inu",
		"[AI 코치 리포트]",
		"오늘도 수고했어요.",
	} {
		if !strings.Contains(share, fragment) {
			t.Fatalf("share text missing %q:\n%s", fragment, share)
		}
	}
}

func TestBuildShareTextPlaceholders(t *testing.T) {
	t.Parallel()

	input := sampleReportInput()
	input.Weather = nil
	input.Image = nil
	input.Habits = nil

	share := BuildShareText(input, 0, 0, "")

	for _, fragment := range []string{
		"- 달성률: 0% (0/5)",
		"- 완료 습관: 없음",
		"- 날씨: 날씨 없음",
		"- 오늘의 강아지: 강아지 없음",
		"(리포트 없음)",
	} {
		if !strings.Contains(share, fragment) {
			t.Fatalf("share text missing %q:\n%s", fragment, share)
		}
	}
}
