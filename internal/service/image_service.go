package service

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// ImageSnapshot 是随机图片接口的归一化结果
type ImageSnapshot struct {
	URL   string `json:"url"`
	Breed string `json:"breed"`
}

// dogAPIResponse 对应 Dog CEO 随机图片接口的响应
type dogAPIResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// 品种约定藏在图片路径里：.../breeds/<breed>/xxx.jpg
var breedPattern = regexp.MustCompile(`/breeds/([^/]+)/`)

// ImageService 包装 Dog CEO 随机图片接口，失败折叠为 nil。
type ImageService struct {
	http    httpDoer
	baseURL string
	cache   *memoCache
}

// NewImageService 构造默认的 ImageService
func NewImageService() *ImageService {
	return &ImageService{
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: "https://dog.ceo",
		cache:   newMemoCache(),
	}
}

// SetHTTPClient 覆盖默认 HTTP 客户端，主要用于测试。
func (s *ImageService) SetHTTPClient(client httpDoer) {
	if client == nil {
		s.http = &http.Client{Timeout: 10 * time.Second}
		return
	}
	s.http = client
}

// Fetch 返回一张随机狗狗图片及推导出的品种标签，失败返回 nil。
// 接口无参数，缓存使用单一全局键，窗口 10 分钟。
func (s *ImageService) Fetch(ctx context.Context) *ImageSnapshot {
	const cacheKey = "image|random-dog"
	if cached, ok := s.cache.Get(cacheKey); ok {
		if snapshot, ok := cached.(*ImageSnapshot); ok {
			return snapshot
		}
	}

	endpoint := s.baseURL + "/api/breeds/image/random"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil
	}

	resp, err := s.http.Do(req)
	if err != nil {
		log.Printf("[IMAGE] request failed: %v", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[IMAGE] unexpected status: %s", resp.Status)
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil
	}

	var payload dogAPIResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Printf("[IMAGE] malformed payload: %v", err)
		return nil
	}
	if payload.Status != "success" || strings.TrimSpace(payload.Message) == "" {
		return nil
	}

	snapshot := &ImageSnapshot{
		URL:   payload.Message,
		Breed: breedFromURL(payload.Message),
	}

	s.cache.Set(cacheKey, snapshot, externalCacheTTL)
	return snapshot
}

// breedFromURL 从图片路径中提取品种标签，连字符替换为空格，
// 未匹配时回退 "unknown"。
func breedFromURL(imageURL string) string {
	match := breedPattern.FindStringSubmatch(imageURL)
	if len(match) < 2 {
		return "unknown"
	}
	breed := strings.TrimSpace(strings.ReplaceAll(match[1], "-", " "))
	if breed == "" {
		return "unknown"
	}
	return breed
}
