package model

import (
	"time"

	"gorm.io/datatypes"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Session{},
	&Record{},
}

// Session is one saved annotation session: the video it belongs to and the
// schema its records follow.
type Session struct {
	ID        string         `json:"id" gorm:"primaryKey;size:36"`
	SavedAt   time.Time      `json:"savedAt" gorm:"index"`
	VideoPath string         `json:"videoPath" gorm:"size:1024"`
	Schema    datatypes.JSON `json:"schema"`
	Records   []Record       `json:"records" gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
}

func (*Session) TableName() string {
	return "annotation_sessions"
}

// Record is the annotation row of one frame.
type Record struct {
	ID         uint              `json:"id" gorm:"primarykey;autoIncrement"`
	SessionID  string            `json:"sessionId" gorm:"size:36;uniqueIndex:idx_session_frame"`
	FrameIndex int               `json:"frameIndex" gorm:"uniqueIndex:idx_session_frame"`
	Values     datatypes.JSONMap `json:"values"`
}

func (*Record) TableName() string {
	return "annotation_records"
}
