package session

import (
	"fmt"
	"testing"
)

func galleryEntry(id int64) Session {
	img := fmt.Sprintf("data:image/png;base64,AAA%d", id)
	return Session{
		ID:            id,
		UserImage:     img,
		OriginalImage: img,
		Prompt:        "p",
		Status:        StatusIdle,
	}
}

func TestGalleryUpsertReplacesByID(t *testing.T) {
	var g Gallery
	g.Upsert(galleryEntry(1))
	g.Upsert(galleryEntry(2))

	updated := galleryEntry(1)
	updated.Prompt = "changed"
	g.Upsert(updated)

	if g.Len() != 2 {
		t.Fatalf("gallery length = %d, want 2", g.Len())
	}
	sessions := g.Sessions()
	if sessions[0].ID != 1 || sessions[0].Prompt != "changed" {
		t.Fatalf("front entry = %+v, want replaced session 1 at front", sessions[0])
	}
	if sessions[1].ID != 2 {
		t.Fatalf("second entry ID = %d, want 2", sessions[1].ID)
	}
}

func TestGalleryEvictsOldestBeyondCap(t *testing.T) {
	var g Gallery
	for id := int64(1); id <= int64(MaxSessions); id++ {
		g.Upsert(galleryEntry(id))
	}
	g.Upsert(galleryEntry(11))

	if g.Len() != MaxSessions {
		t.Fatalf("gallery length = %d, want %d", g.Len(), MaxSessions)
	}
	if _, found := g.Find(1); found {
		t.Fatal("oldest session should have been evicted")
	}
	if got := g.Sessions()[0].ID; got != 11 {
		t.Fatalf("front ID = %d, want 11", got)
	}
}

func TestGalleryDelete(t *testing.T) {
	var g Gallery
	g.Upsert(galleryEntry(1))
	g.Upsert(galleryEntry(2))

	if !g.Delete(1) {
		t.Fatal("Delete(1) = false, want true")
	}
	if g.Delete(1) {
		t.Fatal("second Delete(1) = true, want false")
	}
	if g.Len() != 1 {
		t.Fatalf("gallery length = %d, want 1", g.Len())
	}
}

func TestGalleryReplaceDropsDuplicatesAndTruncates(t *testing.T) {
	entries := make([]Session, 0, 14)
	for id := int64(1); id <= 12; id++ {
		entries = append(entries, galleryEntry(id))
	}
	entries = append(entries, galleryEntry(1), galleryEntry(2))

	var g Gallery
	g.Replace(entries)
	if g.Len() != MaxSessions {
		t.Fatalf("gallery length = %d, want %d", g.Len(), MaxSessions)
	}
	if got := g.Sessions()[0].ID; got != 1 {
		t.Fatalf("front ID = %d, want first occurrence kept", got)
	}
}
