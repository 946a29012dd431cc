package model

import (
	"time"
)

type ChatMessage struct {
	Id        int64     `gorm:"primaryKey;autoIncrement"`
	RoomId    string    `gorm:"type:varchar(255);not null;index"`
	Sender    string    `gorm:"type:varchar(255);not null"`
	Text      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
