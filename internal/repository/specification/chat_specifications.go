package specification

import (
	"gorm.io/gorm"
)

// ByRoom filters records belonging to one room
type ByRoom struct {
	RoomId string
}

func (s ByRoom) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("room_id = ?", s.RoomId)
}

// ByMessageId filters embedding rows derived from one message
type ByMessageId struct {
	MessageId int64
}

func (s ByMessageId) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("message_id = ?", s.MessageId)
}
