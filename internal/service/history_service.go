package service

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/habitlog/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// historyWindow 为滚动历史保留的天数
	historyWindow = 7
	dateFormat    = "2006-01-02"
)

// 演示用的前 6 天样本数据，顺序为最早到最晚
var (
	seedRates = []int{40, 60, 80, 20, 100, 60}
	seedMoods = []int{5, 6, 7, 4, 8, 6}
)

// HistoryService 负责会话维度的 7 日打卡历史
// 同一会话同一天只保留一条记录，写入后按日期裁剪到最近 7 天
type HistoryService struct {
	db *gorm.DB
}

// NewHistoryService 构造 HistoryService
func NewHistoryService(gdb *gorm.DB) *HistoryService {
	return &HistoryService{db: gdb}
}

// Seed 为新会话填充演示历史：前 6 天样本 + 今天的占位记录。
// 幂等：该会话已有记录时不做任何事。
func (s *HistoryService) Seed(sessionID string) error {
	var count int64
	if err := s.db.Model(&db.DailyRecord{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("count history: %w", err)
	}
	if count > 0 {
		return nil
	}

	today := time.Now()
	records := make([]db.DailyRecord, 0, len(seedRates)+1)
	for i, rate := range seedRates {
		day := today.AddDate(0, 0, i-len(seedRates))
		records = append(records, db.DailyRecord{
			SessionID: sessionID,
			Date:      day.Format(dateFormat),
			Rate:      rate,
			Completed: completedFromRate(rate),
			Mood:      seedMoods[i],
		})
	}
	// 今天的占位：尚未打卡，心情取中间值
	records = append(records, db.DailyRecord{
		SessionID: sessionID,
		Date:      today.Format(dateFormat),
		Rate:      0,
		Completed: 0,
		Mood:      5,
	})

	if err := s.db.Create(&records).Error; err != nil {
		return fmt.Errorf("seed history: %w", err)
	}
	return nil
}

// UpsertToday 以当前自然日为键写入最新的打卡结果
func (s *HistoryService) UpsertToday(sessionID string, rate, completed, mood int) error {
	return s.Upsert(sessionID, time.Now().Format(dateFormat), rate, completed, mood)
}

// Upsert 处理幂等写入：同一 (session, date) 存在则覆盖数值，否则创建。
// 写入后执行保留策略，仅留下该会话按日期最新的 7 条。
func (s *HistoryService) Upsert(sessionID, date string, rate, completed, mood int) error {
	record := db.DailyRecord{
		SessionID: sessionID,
		Date:      date,
		Rate:      rate,
		Completed: completed,
		Mood:      mood,
	}

	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"rate", "completed", "mood", "updated_at"}),
	}).Create(&record).Error; err != nil {
		return fmt.Errorf("upsert daily record: %w", err)
	}

	return s.trim(sessionID)
}

// Recent 返回该会话的历史记录，按日期升序，最多 7 条
func (s *HistoryService) Recent(sessionID string) ([]db.DailyRecord, error) {
	var records []db.DailyRecord
	if err := s.db.Where("session_id = ?", sessionID).
		Order("date ASC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list daily records: %w", err)
	}
	return records, nil
}

// Today 返回该会话今天的记录，不存在时返回 nil
func (s *HistoryService) Today(sessionID string) (*db.DailyRecord, error) {
	var record db.DailyRecord
	err := s.db.Where("session_id = ? AND date = ?", sessionID, time.Now().Format(dateFormat)).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load today record: %w", err)
	}
	return &record, nil
}

// trim 裁剪保留策略：仅保留该会话日期最新的 historyWindow 条
func (s *HistoryService) trim(sessionID string) error {
	var keep []string
	if err := s.db.Model(&db.DailyRecord{}).
		Where("session_id = ?", sessionID).
		Order("date DESC").
		Limit(historyWindow).
		Pluck("date", &keep).Error; err != nil {
		return fmt.Errorf("load retention window: %w", err)
	}

	if err := s.db.Unscoped().
		Where("session_id = ? AND date NOT IN ?", sessionID, keep).
		Delete(&db.DailyRecord{}).Error; err != nil {
		return fmt.Errorf("trim history: %w", err)
	}
	return nil
}

// CompletionRate 计算达成率：round(completed / total * 100)
func CompletionRate(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

func completedFromRate(rate int) int {
	return int(math.Round(float64(rate) / 100 * 5))
}
