// Package store persists courses, lectures, and notes in MongoDB
package store

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Lecture lifecycle states.
const (
	StatusTranscribed = "transcribed"
	StatusProcessed   = "processed"
)

// Course groups lectures under a subject.
type Course struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      string             `bson:"userId" json:"userId"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Icon        string             `bson:"icon" json:"icon"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Lecture is one recorded or uploaded session. Content holds the generated
// HTML notes once processing finishes.
type Lecture struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          string             `bson:"userId" json:"userId"`
	CourseID        primitive.ObjectID `bson:"courseId" json:"courseId"`
	Title           string             `bson:"title" json:"title"`
	Transcription   string             `bson:"transcription" json:"transcription"`
	Content         string             `bson:"content,omitempty" json:"content,omitempty"`
	KeyPoints       []string           `bson:"keyPoints,omitempty" json:"keyPoints,omitempty"`
	Status          string             `bson:"status" json:"status"`
	DurationSeconds float64            `bson:"durationSeconds,omitempty" json:"durationSeconds,omitempty"`
	AudioURL        string             `bson:"audioUrl,omitempty" json:"audioUrl,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Note is a freestanding user note, independent of any lecture.
type Note struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"userId" json:"userId"`
	Title     string             `bson:"title" json:"title"`
	Content   string             `bson:"content" json:"content"`
	Tags      []string           `bson:"tags,omitempty" json:"tags,omitempty"`
	Type      string             `bson:"type,omitempty" json:"type,omitempty"`
	Status    string             `bson:"status,omitempty" json:"status,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
