package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrAIAPIKeyMissing 表示未提供必需的 OpenAI API Key。
var ErrAIAPIKeyMissing = errors.New("api key is required")

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// responsesRequest 对应 OpenAI Responses API 的请求体
type responsesRequest struct {
	Model        string `json:"model"`
	Instructions string `json:"instructions,omitempty"`
	Input        string `json:"input"`
}

// responsesResponse 只解析产出文本与错误信息
type responsesResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// aiReportClient 封装对 OpenAI Responses 接口的单次同步调用。
// 不做重试、不做流式输出。
type aiReportClient struct {
	http    httpDoer
	baseURL string
	model   string
}

func newAIReportClient(defaultModel string) *aiReportClient {
	return &aiReportClient{
		http:    &http.Client{Timeout: 180 * time.Second},
		baseURL: "https://api.openai.com/v1",
		model:   strings.TrimSpace(defaultModel),
	}
}

func (c *aiReportClient) SetHTTPClient(client httpDoer) {
	if client == nil {
		c.http = &http.Client{Timeout: 180 * time.Second}
		return
	}
	c.http = client
}

// createResponse 发起一次生成调用并返回拼接后的输出文本。
// Key 为空时直接返回 ErrAIAPIKeyMissing，不发起请求。
func (c *aiReportClient) createResponse(ctx context.Context, apiKey, instructions, input string) (string, error) {
	if strings.TrimSpace(apiKey) == "" {
		return "", ErrAIAPIKeyMissing
	}

	client := c.http
	if client == nil {
		client = http.DefaultClient
	}

	payload := responsesRequest{
		Model:        c.model,
		Instructions: strings.TrimSpace(instructions),
		Input:        input,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("构造请求失败: %w", err)
	}

	endpoint := strings.TrimRight(c.baseURL, "/") + "/responses"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("创建 OpenAI 请求失败: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", "habitlog-ai/1.0")

	resp, err := client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("请求 OpenAI 接口失败: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("读取 OpenAI 响应失败: %w", err)
	}

	var parsed responsesResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("解析 OpenAI 响应失败: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		errMsg := strings.TrimSpace(parsed.Error.Message)
		if errMsg == "" {
			errMsg = strings.TrimSpace(string(respBody))
		}
		if errMsg == "" {
			errMsg = resp.Status
		}
		return "", fmt.Errorf("OpenAI 接口返回错误：%s", errMsg)
	}

	var builder strings.Builder
	for _, item := range parsed.Output {
		for _, content := range item.Content {
			if content.Type == "output_text" {
				builder.WriteString(content.Text)
			}
		}
	}

	text := strings.TrimSpace(builder.String())
	if text == "" {
		return "", fmt.Errorf("OpenAI 接口未返回结果")
	}
	return text, nil
}
