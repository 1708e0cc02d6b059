package store

import (
	"errors"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	// A file-backed database: sql.DB pools connections, and every connection
	// to ":memory:" gets its own empty database.
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustCreateUser(t *testing.T, s *SQLiteStore, email string) *User {
	t.Helper()
	user, err := s.CreateUser(email, "hash", "key-"+email)
	if err != nil {
		t.Fatalf("CreateUser(%s) failed: %v", email, err)
	}
	return user
}

func TestParseOwnerKey(t *testing.T) {
	ref, err := ParseOwnerKey("42")
	if err != nil || !ref.IsLocal() {
		t.Errorf("ParseOwnerKey(42) = (%v, %v), want local", ref, err)
	}

	ref, err = ParseOwnerKey("108374652091")
	if err != nil || !ref.IsLocal() {
		t.Errorf("large numeric key must parse as local, got (%v, %v)", ref, err)
	}

	ref, err = ParseOwnerKey("g-abc123x")
	if err != nil || ref.IsLocal() {
		t.Errorf("ParseOwnerKey(g-abc123x) = (%v, %v), want external", ref, err)
	}

	if _, err := ParseOwnerKey(""); err == nil {
		t.Error("empty owner key must be rejected")
	}
}

func TestResolveOwner(t *testing.T) {
	s := newTestStore(t)

	local := mustCreateUser(t, s, "local@example.com")
	google, err := s.CreateGoogleUser("goog-123", "g@example.com", "G User", "", "key-g")
	if err != nil {
		t.Fatalf("CreateGoogleUser failed: %v", err)
	}

	got, err := s.ResolveOwner(LocalOwner(local.ID))
	if err != nil || got == nil || got.ID != local.ID {
		t.Errorf("ResolveOwner(local) = (%+v, %v)", got, err)
	}

	got, err = s.ResolveOwner(ExternalOwner("goog-123"))
	if err != nil || got == nil || got.ID != google.ID {
		t.Errorf("ResolveOwner(external) = (%+v, %v)", got, err)
	}

	got, err = s.ResolveOwner(LocalOwner(9999))
	if err != nil || got != nil {
		t.Errorf("unknown owner must resolve to nil, got (%+v, %v)", got, err)
	}
}

func TestGetUserByAPIKey(t *testing.T) {
	s := newTestStore(t)
	user := mustCreateUser(t, s, "a@example.com")

	got, err := s.GetUserByAPIKey(user.APIKey)
	if err != nil || got == nil || got.ID != user.ID {
		t.Errorf("GetUserByAPIKey = (%+v, %v)", got, err)
	}
}

func TestCreateUpload_NormalizesTags(t *testing.T) {
	s := newTestStore(t)
	user := mustCreateUser(t, s, "a@example.com")

	upload := &CompanyUpload{
		UserID:        user.ID,
		Filename:      "policy.pdf",
		Filepath:      "/tmp/policy.pdf",
		Tags:          []string{" Refund ", "POLICY", ""},
		ParsedContent: "Refunds within 30 days.",
	}
	if err := s.CreateUpload(upload); err != nil {
		t.Fatalf("CreateUpload failed: %v", err)
	}

	got, err := s.GetUploadsByUserID(user.ID)
	if err != nil {
		t.Fatalf("GetUploadsByUserID failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 upload, got %d", len(got))
	}
	if len(got[0].Tags) != 2 || got[0].Tags[0] != "refund" || got[0].Tags[1] != "policy" {
		t.Errorf("tags not normalized: %v", got[0].Tags)
	}
}

func TestCreateUpload_TagOverlapRejected(t *testing.T) {
	s := newTestStore(t)
	user := mustCreateUser(t, s, "a@example.com")
	other := mustCreateUser(t, s, "b@example.com")

	first := &CompanyUpload{
		UserID: user.ID, Filename: "a", Filepath: "/a",
		Tags: []string{"refund", "policy"}, ParsedContent: "x",
	}
	if err := s.CreateUpload(first); err != nil {
		t.Fatalf("first upload failed: %v", err)
	}

	overlapping := &CompanyUpload{
		UserID: user.ID, Filename: "b", Filepath: "/b",
		Tags: []string{"POLICY", "shipping"}, ParsedContent: "y",
	}
	if err := s.CreateUpload(overlapping); !errors.Is(err, ErrTagOverlap) {
		t.Fatalf("overlapping tags = %v, want ErrTagOverlap", err)
	}

	// The rejected insert must leave nothing behind.
	uploads, _ := s.GetUploadsByUserID(user.ID)
	if len(uploads) != 1 {
		t.Errorf("rejected upload was partially committed, have %d rows", len(uploads))
	}

	disjoint := &CompanyUpload{
		UserID: user.ID, Filename: "c", Filepath: "/c",
		Tags: []string{"shipping"}, ParsedContent: "z",
	}
	if err := s.CreateUpload(disjoint); err != nil {
		t.Errorf("disjoint tags must be accepted: %v", err)
	}

	// Same tags under a different owner are fine.
	theirs := &CompanyUpload{
		UserID: other.ID, Filename: "d", Filepath: "/d",
		Tags: []string{"refund"}, ParsedContent: "w",
	}
	if err := s.CreateUpload(theirs); err != nil {
		t.Errorf("other user's identical tags must be accepted: %v", err)
	}
}

func TestGetUploadsByUserID_StorageOrder(t *testing.T) {
	s := newTestStore(t)
	user := mustCreateUser(t, s, "a@example.com")

	for i, tag := range []string{"one", "two", "three"} {
		upload := &CompanyUpload{
			UserID: user.ID, Filename: "f", Filepath: "/f",
			Tags: []string{tag}, ParsedContent: tag,
		}
		if err := s.CreateUpload(upload); err != nil {
			t.Fatalf("upload %d failed: %v", i, err)
		}
	}

	uploads, err := s.GetUploadsByUserID(user.ID)
	if err != nil {
		t.Fatalf("GetUploadsByUserID failed: %v", err)
	}
	if len(uploads) != 3 || uploads[0].ParsedContent != "one" || uploads[2].ParsedContent != "three" {
		t.Errorf("uploads not in storage order: %+v", uploads)
	}
}

func TestSearchUploads(t *testing.T) {
	s := newTestStore(t)
	user := mustCreateUser(t, s, "a@example.com")

	docs := []*CompanyUpload{
		{UserID: user.ID, Filename: "f1", Filepath: "/1", Description: "Return policy handbook", Category: "legal", Tags: []string{"refund"}, ParsedContent: "a"},
		{UserID: user.ID, Filename: "f2", Filepath: "/2", Description: "Shipping rates", Category: "ops", Tags: []string{"shipping"}, ParsedContent: "b"},
	}
	for _, d := range docs {
		if err := s.CreateUpload(d); err != nil {
			t.Fatalf("CreateUpload failed: %v", err)
		}
	}

	byKeyword, err := s.SearchUploads(user.ID, "policy", "")
	if err != nil || len(byKeyword) != 1 || byKeyword[0].Filename != "f1" {
		t.Errorf("keyword search = (%+v, %v)", byKeyword, err)
	}

	byTag, err := s.SearchUploads(user.ID, "shipping", "")
	if err != nil || len(byTag) != 1 || byTag[0].Filename != "f2" {
		t.Errorf("tag search = (%+v, %v)", byTag, err)
	}

	byCategory, err := s.SearchUploads(user.ID, "", "legal")
	if err != nil || len(byCategory) != 1 || byCategory[0].Filename != "f1" {
		t.Errorf("category search = (%+v, %v)", byCategory, err)
	}
}

func TestPersonalities_NewestIsDefault(t *testing.T) {
	s := newTestStore(t)
	user := mustCreateUser(t, s, "a@example.com")

	for _, name := range []string{"First", "Second"} {
		p := &Personality{UserID: user.ID, Name: name, Gender: "female", Age: 23}
		if err := s.CreatePersonality(p); err != nil {
			t.Fatalf("CreatePersonality(%s) failed: %v", name, err)
		}
	}

	def, err := s.GetDefaultPersonality(user.ID)
	if err != nil {
		t.Fatalf("GetDefaultPersonality failed: %v", err)
	}
	if def == nil || def.Name != "Second" {
		t.Errorf("default personality = %+v, want the most recent", def)
	}
}

func TestGetDefaultPersonality_NoneIsNil(t *testing.T) {
	s := newTestStore(t)
	user := mustCreateUser(t, s, "a@example.com")

	def, err := s.GetDefaultPersonality(user.ID)
	if err != nil || def != nil {
		t.Errorf("expected (nil, nil) for user without personalities, got (%+v, %v)", def, err)
	}
}

func TestQueryHistoryRoundTrip(t *testing.T) {
	s := newTestStore(t)
	user := mustCreateUser(t, s, "a@example.com")

	if err := s.AppendQueryHistory(user.ID, "q1", "a1"); err != nil {
		t.Fatalf("AppendQueryHistory failed: %v", err)
	}
	if err := s.AppendQueryHistory(user.ID, "q2", "a2"); err != nil {
		t.Fatalf("AppendQueryHistory failed: %v", err)
	}

	records, err := s.GetQueryHistory(user.ID, 10)
	if err != nil {
		t.Fatalf("GetQueryHistory failed: %v", err)
	}
	if len(records) != 2 || records[0].Query != "q2" {
		t.Errorf("history not newest-first: %+v", records)
	}
}

func TestCreateRating(t *testing.T) {
	s := newTestStore(t)
	user := mustCreateUser(t, s, "a@example.com")

	if err := s.CreateRating(user.ID, "q", "a", 4); err != nil {
		t.Errorf("CreateRating failed: %v", err)
	}
}
