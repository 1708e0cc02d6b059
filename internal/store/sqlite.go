package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// ErrTagOverlap is returned when an upload's tag set intersects the tags of
// another upload already owned by the same user.
var ErrTagOverlap = errors.New("tag set overlaps an existing upload")

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS users (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        google_id TEXT UNIQUE,
        email TEXT UNIQUE NOT NULL,
        name TEXT,
        profile_photo TEXT,
        password_hash TEXT,
        api_key TEXT UNIQUE NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS company_uploads (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        user_id INTEGER NOT NULL,
        description TEXT,
        category TEXT,
        filename TEXT NOT NULL,
        filepath TEXT NOT NULL,
        tags_json TEXT NOT NULL, -- JSON array of case-normalized tag strings
        parsed_content TEXT NOT NULL,
        upload_date DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (user_id) REFERENCES users (id)
    );

    CREATE TABLE IF NOT EXISTS personalities (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        user_id INTEGER NOT NULL,
        name TEXT NOT NULL,
        gender TEXT NOT NULL,
        age INTEGER NOT NULL,
        behavior_prompt TEXT,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (user_id) REFERENCES users (id)
    );

    CREATE TABLE IF NOT EXISTS query_history (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        user_id INTEGER NOT NULL,
        query TEXT NOT NULL,
        response TEXT NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (user_id) REFERENCES users (id)
    );

    CREATE TABLE IF NOT EXISTS ratings (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        user_id INTEGER NOT NULL,
        query TEXT NOT NULL,
        response TEXT NOT NULL,
        rating INTEGER NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (user_id) REFERENCES users (id)
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

// User methods

func (s *SQLiteStore) CreateUser(email, passwordHash, apiKey string) (*User, error) {
	res, err := s.db.Exec("INSERT INTO users (email, password_hash, api_key) VALUES (?, ?, ?)", email, passwordHash, apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetUserByID(id)
}

func (s *SQLiteStore) CreateGoogleUser(googleID, email, name, profilePhoto, apiKey string) (*User, error) {
	res, err := s.db.Exec(
		"INSERT INTO users (google_id, email, name, profile_photo, api_key) VALUES (?, ?, ?, ?, ?)",
		googleID, email, name, profilePhoto, apiKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert google user: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetUserByID(id)
}

const userColumns = "id, google_id, email, name, profile_photo, password_hash, api_key, created_at"

func (s *SQLiteStore) scanUser(row *sql.Row) (*User, error) {
	var user User
	var googleID, name, photo, passwordHash sql.NullString
	err := row.Scan(&user.ID, &googleID, &user.Email, &name, &photo, &passwordHash, &user.APIKey, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	user.GoogleID = googleID.String
	user.Name = name.String
	user.ProfilePhoto = photo.String
	user.PasswordHash = passwordHash.String
	return &user, nil
}

func (s *SQLiteStore) GetUserByID(id int64) (*User, error) {
	return s.scanUser(s.db.QueryRow("SELECT "+userColumns+" FROM users WHERE id = ?", id))
}

func (s *SQLiteStore) GetUserByEmail(email string) (*User, error) {
	return s.scanUser(s.db.QueryRow("SELECT "+userColumns+" FROM users WHERE email = ?", email))
}

func (s *SQLiteStore) GetUserByGoogleID(googleID string) (*User, error) {
	return s.scanUser(s.db.QueryRow("SELECT "+userColumns+" FROM users WHERE google_id = ?", googleID))
}

func (s *SQLiteStore) GetUserByAPIKey(apiKey string) (*User, error) {
	return s.scanUser(s.db.QueryRow("SELECT "+userColumns+" FROM users WHERE api_key = ?", apiKey))
}

// ResolveOwner maps a tagged owner reference to its user row. Returns nil
// (not an error) when no user matches.
func (s *SQLiteStore) ResolveOwner(ref OwnerRef) (*User, error) {
	if ref.IsLocal() {
		return s.GetUserByID(ref.localID)
	}
	return s.GetUserByGoogleID(ref.externalID)
}

// Upload methods

// CreateUpload inserts an upload after checking the tag-overlap invariant:
// no two uploads owned by the same user may share a tag. Tags are
// case-normalized before storage.
func (s *SQLiteStore) CreateUpload(upload *CompanyUpload) error {
	normalized := make([]string, 0, len(upload.Tags))
	for _, tag := range upload.Tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" {
			normalized = append(normalized, tag)
		}
	}
	upload.Tags = normalized

	tagsBytes, err := json.Marshal(upload.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}
	upload.TagsJSON = string(tagsBytes)

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin upload transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query("SELECT tags_json FROM company_uploads WHERE user_id = ?", upload.UserID)
	if err != nil {
		return fmt.Errorf("failed to query existing tags: %w", err)
	}
	existing := make(map[string]bool)
	for rows.Next() {
		var tagsJSON string
		if err := rows.Scan(&tagsJSON); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan existing tags: %w", err)
		}
		var tags []string
		if err := json.Unmarshal([]byte(tagsJSON), &tags); err != nil {
			rows.Close()
			return fmt.Errorf("failed to unmarshal existing tags: %w", err)
		}
		for _, tag := range tags {
			existing[tag] = true
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed iterating existing tags: %w", err)
	}

	for _, tag := range upload.Tags {
		if existing[tag] {
			return fmt.Errorf("tag %q: %w", tag, ErrTagOverlap)
		}
	}

	now := time.Now()
	res, err := tx.Exec(
		"INSERT INTO company_uploads (user_id, description, category, filename, filepath, tags_json, parsed_content, upload_date) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		upload.UserID, upload.Description, upload.Category, upload.Filename, upload.Filepath, upload.TagsJSON, upload.ParsedContent, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert upload: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit upload: %w", err)
	}

	upload.ID, _ = res.LastInsertId()
	upload.UploadDate = now
	return nil
}

// GetUploadsByUserID returns the user's uploads in storage order, the order
// their text is concatenated in when several tags match one query.
func (s *SQLiteStore) GetUploadsByUserID(userID int64) ([]CompanyUpload, error) {
	rows, err := s.db.Query(
		"SELECT id, user_id, description, category, filename, filepath, tags_json, parsed_content, upload_date FROM company_uploads WHERE user_id = ? ORDER BY id ASC",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query uploads: %w", err)
	}
	defer rows.Close()
	return scanUploads(rows)
}

// SearchUploads filters a user's uploads by a keyword against description and
// tags, and/or an exact category.
func (s *SQLiteStore) SearchUploads(userID int64, keyword, category string) ([]CompanyUpload, error) {
	uploads, err := s.GetUploadsByUserID(userID)
	if err != nil {
		return nil, err
	}

	keyword = strings.ToLower(strings.TrimSpace(keyword))
	var out []CompanyUpload
	for _, upload := range uploads {
		if category != "" && upload.Category != category {
			continue
		}
		if keyword != "" && !uploadMatchesKeyword(upload, keyword) {
			continue
		}
		out = append(out, upload)
	}
	return out, nil
}

func uploadMatchesKeyword(upload CompanyUpload, keyword string) bool {
	if strings.Contains(strings.ToLower(upload.Description), keyword) {
		return true
	}
	for _, tag := range upload.Tags {
		if tag == keyword {
			return true
		}
	}
	return false
}

func scanUploads(rows *sql.Rows) ([]CompanyUpload, error) {
	var uploads []CompanyUpload
	for rows.Next() {
		var upload CompanyUpload
		var description, category sql.NullString
		if err := rows.Scan(&upload.ID, &upload.UserID, &description, &category, &upload.Filename, &upload.Filepath, &upload.TagsJSON, &upload.ParsedContent, &upload.UploadDate); err != nil {
			return nil, fmt.Errorf("failed to scan upload row: %w", err)
		}
		upload.Description = description.String
		upload.Category = category.String
		if err := json.Unmarshal([]byte(upload.TagsJSON), &upload.Tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tags for upload %d: %w", upload.ID, err)
		}
		uploads = append(uploads, upload)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating upload rows: %w", err)
	}
	return uploads, nil
}

// Personality methods

func (s *SQLiteStore) CreatePersonality(p *Personality) error {
	now := time.Now()
	res, err := s.db.Exec(
		"INSERT INTO personalities (user_id, name, gender, age, behavior_prompt, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		p.UserID, p.Name, p.Gender, p.Age, p.BehaviorPrompt, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert personality: %w", err)
	}
	p.ID, _ = res.LastInsertId()
	p.CreatedAt = now
	return nil
}

// GetPersonalitiesByUserID returns newest first; the first row is the default
// personality for chat sessions that don't pick one explicitly.
func (s *SQLiteStore) GetPersonalitiesByUserID(userID int64) ([]Personality, error) {
	rows, err := s.db.Query(
		"SELECT id, user_id, name, gender, age, behavior_prompt, created_at FROM personalities WHERE user_id = ? ORDER BY created_at DESC, id DESC",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query personalities: %w", err)
	}
	defer rows.Close()

	var personalities []Personality
	for rows.Next() {
		var p Personality
		var behavior sql.NullString
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Gender, &p.Age, &behavior, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan personality row: %w", err)
		}
		p.BehaviorPrompt = behavior.String
		personalities = append(personalities, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating personality rows: %w", err)
	}
	return personalities, nil
}

// GetDefaultPersonality returns the most recently created personality, or nil
// if the user has none.
func (s *SQLiteStore) GetDefaultPersonality(userID int64) (*Personality, error) {
	personalities, err := s.GetPersonalitiesByUserID(userID)
	if err != nil {
		return nil, err
	}
	if len(personalities) == 0 {
		return nil, nil
	}
	return &personalities[0], nil
}

// History and rating methods

func (s *SQLiteStore) AppendQueryHistory(userID int64, query, response string) error {
	_, err := s.db.Exec(
		"INSERT INTO query_history (user_id, query, response) VALUES (?, ?, ?)",
		userID, query, response,
	)
	if err != nil {
		return fmt.Errorf("failed to insert query history: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetQueryHistory(userID int64, limit int) ([]QueryRecord, error) {
	rows, err := s.db.Query(
		"SELECT id, user_id, query, response, created_at FROM query_history WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?",
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var records []QueryRecord
	for rows.Next() {
		var rec QueryRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Query, &rec.Response, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating history rows: %w", err)
	}
	return records, nil
}

func (s *SQLiteStore) CreateRating(userID int64, query, response string, rating int) error {
	_, err := s.db.Exec(
		"INSERT INTO ratings (user_id, query, response, rating) VALUES (?, ?, ?, ?)",
		userID, query, response, rating,
	)
	if err != nil {
		return fmt.Errorf("failed to insert rating: %w", err)
	}
	return nil
}
