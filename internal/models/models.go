package models

import "time"

// Sheet 以不透明 JSON 存储角色卡，按 owner 查询。
type Sheet struct {
	ID        uint   `gorm:"primaryKey"`
	Owner     string `gorm:"index:idx_sheet_owner;size:64;not null"`
	SheetData string `gorm:"type:text;not null"`
	CreatedAt time.Time
}
