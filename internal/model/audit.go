package model

import "time"

// CodeSnapshot is one append-only audit entry of a mirrored buffer.
type CodeSnapshot struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"sessionId"`
	AuthorID   string    `json:"authorId"`
	Code       string    `json:"code"`
	Language   string    `json:"language"`
	CapturedAt time.Time `json:"capturedAt"`
}

// DebugLog records one AI analysis request and the answer that was returned.
type DebugLog struct {
	ID           int64     `json:"id"`
	SessionID    string    `json:"sessionId"`
	AuthorID     string    `json:"authorId"`
	ErrorMessage string    `json:"errorMessage"`
	CodeSnippet  string    `json:"codeSnippet"`
	AIResponse   string    `json:"aiResponse"`
	CapturedAt   time.Time `json:"capturedAt"`
}
