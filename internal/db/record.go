package db

import "gorm.io/gorm"

// DailyRecord 记录某个会话在某一自然日的打卡结果
// SessionID + Date 采用唯一索引，保证同一天幂等覆盖而不是追加
// Date 使用 2006-01-02 文本格式，排序即日期序
// Rate 为 0~100 的整数百分比，Completed 为 0~5，Mood 为 1~10
type DailyRecord struct {
	gorm.Model
	SessionID string `gorm:"index;index:idx_daily_record_unique,unique"`
	Date      string `gorm:"index:idx_daily_record_unique,unique"`
	Rate      int
	Completed int
	Mood      int
}

// TableName 重写确保唯一索引作用到 session_id + date
func (DailyRecord) TableName() string {
	return "daily_records"
}
