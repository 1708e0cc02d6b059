package store

import "time"

type User struct {
	ID           int64     `json:"id"`
	GoogleID     string    `json:"google_id,omitempty"` // empty for password accounts
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	ProfilePhoto string    `json:"profile_photo,omitempty"`
	PasswordHash string    `json:"-"` // Do not expose this in JSON responses
	APIKey       string    `json:"api_key"`
	CreatedAt    time.Time `json:"created_at"`
}

type CompanyUpload struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	Filename      string    `json:"filename"`
	Filepath      string    `json:"-"`
	Tags          []string  `json:"tags"`
	TagsJSON      string    `json:"-"` // Stored as JSON string for DB
	ParsedContent string    `json:"-"`
	UploadDate    time.Time `json:"upload_date"`
}

type Personality struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	Name           string    `json:"name"`
	Gender         string    `json:"gender"`
	Age            int       `json:"age"`
	BehaviorPrompt string    `json:"behavior_prompt"`
	CreatedAt      time.Time `json:"created_at"`
}

type QueryRecord struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Query     string    `json:"query"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
}

type Rating struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Query     string    `json:"query"`
	Response  string    `json:"response"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
}
