package service

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// WeatherSnapshot 是归一化后的当前天气。
// 上游缺失的子字段保持为 nil/空串，不视为错误。
type WeatherSnapshot struct {
	City        string   `json:"city"`
	Description string   `json:"description,omitempty"`
	Temp        *float64 `json:"temp"`
	FeelsLike   *float64 `json:"feels_like"`
	Humidity    *int     `json:"humidity"`
}

// openWeatherResponse 对应 OpenWeatherMap 当前天气接口的响应片段
type openWeatherResponse struct {
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp      *float64 `json:"temp"`
		FeelsLike *float64 `json:"feels_like"`
		Humidity  *int     `json:"humidity"`
	} `json:"main"`
}

// WeatherService 包装 OpenWeatherMap 当前天气接口。
// 任何失败（缺 Key 除外，缺 Key 直接短路）都折叠为 nil，不向上抛错。
type WeatherService struct {
	http    httpDoer
	baseURL string
	cache   *memoCache
}

// NewWeatherService 构造默认的 WeatherService
func NewWeatherService() *WeatherService {
	return &WeatherService{
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: "https://api.openweathermap.org",
		cache:   newMemoCache(),
	}
}

// SetHTTPClient 覆盖默认 HTTP 客户端，主要用于测试。
func (s *WeatherService) SetHTTPClient(client httpDoer) {
	if client == nil {
		s.http = &http.Client{Timeout: 10 * time.Second}
		return
	}
	s.http = client
}

// Fetch 返回城市当前天气（摄氏、韩语描述），拿不到数据时返回 nil。
// Key 为空时不发起网络请求；成功结果按 city+key 缓存 10 分钟。
func (s *WeatherService) Fetch(ctx context.Context, city, apiKey string) *WeatherSnapshot {
	city = strings.TrimSpace(city)
	apiKey = strings.TrimSpace(apiKey)
	if city == "" || apiKey == "" {
		return nil
	}

	cacheKey := "weather|" + city + "|" + apiKey
	if cached, ok := s.cache.Get(cacheKey); ok {
		if snapshot, ok := cached.(*WeatherSnapshot); ok {
			return snapshot
		}
	}

	params := url.Values{}
	params.Set("q", city)
	params.Set("appid", apiKey)
	params.Set("units", "metric")
	params.Set("lang", "kr")
	endpoint := s.baseURL + "/data/2.5/weather?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil
	}

	resp, err := s.http.Do(req)
	if err != nil {
		log.Printf("[WEATHER] request failed: %v", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[WEATHER] unexpected status: %s", resp.Status)
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil
	}

	var payload openWeatherResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Printf("[WEATHER] malformed payload: %v", err)
		return nil
	}

	snapshot := &WeatherSnapshot{
		City:      city,
		Temp:      payload.Main.Temp,
		FeelsLike: payload.Main.FeelsLike,
		Humidity:  payload.Main.Humidity,
	}
	if len(payload.Weather) > 0 {
		snapshot.Description = payload.Weather[0].Description
	}

	s.cache.Set(cacheKey, snapshot, externalCacheTTL)
	return snapshot
}
