package handler

import (
	"github.com/habitlog/internal/config"
	"github.com/habitlog/internal/service"
	"gorm.io/gorm"
)

// API 持有各 HTTP 处理函数共享的依赖
type API struct {
	cfg     config.AppConfig
	history *service.HistoryService
	weather *service.WeatherService
	images  *service.ImageService
	reports *service.ReportService
}

// NewAPI 构建处理函数集合并初始化领域服务
func NewAPI(gdb *gorm.DB, cfg config.AppConfig) *API {
	return &API{
		cfg:     cfg,
		history: service.NewHistoryService(gdb),
		weather: service.NewWeatherService(),
		images:  service.NewImageService(),
		reports: service.NewReportService(),
	}
}

// Weather 暴露天气客户端，便于测试注入 HTTP 桩
func (a *API) Weather() *service.WeatherService {
	return a.weather
}

// Images 暴露随机图片客户端
func (a *API) Images() *service.ImageService {
	return a.images
}

// Reports 暴露报告生成服务
func (a *API) Reports() *service.ReportService {
	return a.reports
}
