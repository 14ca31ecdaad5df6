package models

import (
	"time"

	"github.com/google/uuid"
)

// VideoStatus is the processing state of a video job.
type VideoStatus string

const (
	VideoStatusPending    VideoStatus = "pending"
	VideoStatusProcessing VideoStatus = "processing"
	VideoStatusCompleted  VideoStatus = "completed"
	VideoStatusFailed     VideoStatus = "failed"
)

// Valid reports whether s is a known status.
func (s VideoStatus) Valid() bool {
	switch s {
	case VideoStatusPending, VideoStatusProcessing, VideoStatusCompleted, VideoStatusFailed:
		return true
	}
	return false
}

// Video is one video job row.
type Video struct {
	ID              uuid.UUID   `json:"id"`
	UserID          uuid.UUID   `json:"user_id"`
	Title           string      `json:"title"`
	Description     string      `json:"description,omitempty"`
	Script          string      `json:"script"`
	Category        string      `json:"category,omitempty"`
	VoiceID         string      `json:"voice_id,omitempty"`
	Template        string      `json:"template,omitempty"`
	BackgroundMusic string      `json:"background_music,omitempty"`
	Status          VideoStatus `json:"status"`
	Views           int         `json:"views"`
	VideoURL        string      `json:"video_url,omitempty"`
	ThumbnailURL    string      `json:"thumbnail_url,omitempty"`
	Edit            EditParams  `json:"edit"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// EditParams holds the editor fields. Nil pointers mean "never saved". Background music lives on Video.
type EditParams struct {
	TrimStart    *float64      `json:"trim_start,omitempty"`
	TrimEnd      *float64      `json:"trim_end,omitempty"`
	TextOverlays []TextOverlay `json:"text_overlays,omitempty"`
	MusicVolume  *float64      `json:"music_volume,omitempty"`
	Filters      *Filters      `json:"filters,omitempty"`
}

// TextOverlay is one caption placed on the video timeline.
type TextOverlay struct {
	ID        string   `json:"id"`
	Text      string   `json:"text"`
	Position  Position `json:"position"`
	FontSize  int      `json:"fontSize"`
	Color     string   `json:"color"`
	StartTime float64  `json:"startTime"`
	EndTime   float64  `json:"endTime"`
}

// Position is a percentage offset inside the frame.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Filters are slider levels in percent; 100 means unchanged.
type Filters struct {
	Brightness int `json:"brightness"`
	Contrast   int `json:"contrast"`
	Saturation int `json:"saturation"`
}

// DefaultFilters returns the neutral filter levels.
func DefaultFilters() Filters {
	return Filters{Brightness: 100, Contrast: 100, Saturation: 100}
}

// NewVideo holds the fields written when a creation flow submits a job.
type NewVideo struct {
	UserID          uuid.UUID
	Title           string
	Description     string
	Script          string
	Category        string
	VoiceID         string
	Template        string
	BackgroundMusic string
	Status          VideoStatus
}

// VideoStats are dashboard aggregates computed from listed rows.
type VideoStats struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	Processing int `json:"processing"`
	Views      int `json:"views"`
}
