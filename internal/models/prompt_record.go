package models

import (
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrPromptRecordImmutable = errors.New("prompt records are immutable")

// PromptRecord is one persisted question/answer exchange.
// Question holds the raw user text, never the expanded template.
type PromptRecord struct {
	ID        uint              `gorm:"primarykey" json:"id"`
	Question  string            `gorm:"type:text;not null" json:"question"`
	Answer    string            `gorm:"type:text;not null" json:"answer"`
	Backend   string            `gorm:"index;size:32" json:"-"`
	Meta      datatypes.JSONMap `json:"-"`
	CreatedAt time.Time         `json:"-"`
}

// BeforeUpdate rejects every update.
func (r *PromptRecord) BeforeUpdate(tx *gorm.DB) error {
	return ErrPromptRecordImmutable
}
