package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/habitlog/internal/config"
	"github.com/habitlog/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRouterTest(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := gdb.AutoMigrate(&db.DailyRecord{}); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	db.DB = gdb
	t.Cleanup(func() {
		db.DB.Unscoped().Where("1 = 1").Delete(&db.DailyRecord{})
		if sqlDB, err := db.DB.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return SetupRouter(config.AppConfig{SessionSecret: "test-secret"})
}

func TestPing(t *testing.T) {
	r := setupRouterTest(t)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "pong") {
		t.Fatalf("unexpected ping body: %q", rr.Body.String())
	}
}

func TestDashboardRendersWithSeededHistory(t *testing.T) {
	r := setupRouterTest(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	body := rr.Body.String()
	for _, fragment := range []string{"AI 습관 트래커", "기상 미션", "스파르타 코치", "Seoul"} {
		if !strings.Contains(body, fragment) {
			t.Fatalf("dashboard page missing %q", fragment)
		}
	}
	if len(rr.Result().Cookies()) == 0 {
		t.Fatal("expected a session cookie on first visit")
	}
}
