package services

import (
	"bytes"
	"context"
	"image"
	"testing"
	"time"

	"campus-events-api/utils"
)

func fixedClockMedia(store ObjectStore) *MediaService {
	s := NewMediaService(store, testPublicBase+"/")
	s.now = func() time.Time { return time.UnixMilli(1_700_000_000_123) }
	return s
}

func rawUpload(name, contentType string, body []byte) UploadFile {
	return UploadFile{Filename: name, ContentType: contentType, Size: int64(len(body)), Body: bytes.NewReader(body)}
}

func TestUploadSizeBoundary(t *testing.T) {
	store := newMemoryStore()
	media := fixedClockMedia(store)
	ctx := context.Background()

	exact := make([]byte, MaxUploadSize)
	if _, err := media.Upload(ctx, rawUpload("big.png", "image/png", exact), "activities", false); err != nil {
		t.Fatalf("exactly 5 MiB must be accepted: %v", err)
	}

	over := make([]byte, MaxUploadSize+1)
	_, err := media.Upload(ctx, rawUpload("huge.png", "image/png", over), "activities", false)
	assertKind(t, err, utils.KindBadRequest, "File size exceeds the 5MB limit")

	if store.puts != 1 {
		t.Fatalf("oversized file reached storage: %d puts", store.puts)
	}
}

func TestUploadRejectsUndeclaredOversizeBody(t *testing.T) {
	store := newMemoryStore()
	media := fixedClockMedia(store)

	body := make([]byte, MaxUploadSize+10)
	file := UploadFile{Filename: "a.png", ContentType: "image/png", Size: 0, Body: bytes.NewReader(body)}
	_, err := media.Upload(context.Background(), file, "activities", false)
	assertKind(t, err, utils.KindBadRequest, "File size exceeds the 5MB limit")
	if store.puts != 0 {
		t.Fatal("storage was called")
	}
}

func TestUploadContentTypes(t *testing.T) {
	png := pngBytes(t, 4, 4)

	tests := []struct {
		name        string
		contentType string
		body        []byte
		wantErr     bool
	}{
		{"declared png", "image/png", png, false},
		{"declared jpg alias", "image/jpg", png, false},
		{"declared with params", "image/webp; charset=binary", png, false},
		{"declared text", "text/plain", png, true},
		{"declared pdf", "application/pdf", png, true},
		{"sniffed png", "", png, false},
		{"sniffed from octet-stream", "application/octet-stream", png, false},
		{"sniffed text", "", []byte("just some text"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemoryStore()
			media := fixedClockMedia(store)
			_, err := media.Upload(context.Background(), rawUpload("f.png", tt.contentType, tt.body), "activities", false)
			if tt.wantErr {
				assertKind(t, err, utils.KindBadRequest, "Invalid file type. Only PNG, JPG, GIF and WEBP images are allowed")
				if store.puts != 0 {
					t.Fatal("invalid file reached storage")
				}
				return
			}
			if err != nil {
				t.Fatalf("upload: %v", err)
			}
		})
	}
}

func TestUploadKeyAndURL(t *testing.T) {
	store := newMemoryStore()
	media := fixedClockMedia(store)

	result, err := media.Upload(context.Background(), rawUpload("dir/poster.png", "image/png", pngBytes(t, 4, 4)), "/activities/", false)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	wantKey := "activities/1700000000123-poster.png"
	if result.Key != wantKey {
		t.Fatalf("key = %q, want %q", result.Key, wantKey)
	}
	if result.URL != testPublicBase+"/"+wantKey {
		t.Fatalf("url = %q", result.URL)
	}
	if key, ok := media.KeyFromURL(result.URL); !ok || key != wantKey {
		t.Fatalf("KeyFromURL = %q, %v", key, ok)
	}
	if _, ok := media.KeyFromURL("https://elsewhere.test/x.png"); ok {
		t.Fatal("foreign url mapped to a key")
	}
	if !store.has(wantKey) {
		t.Fatal("object not stored")
	}
}

func TestUploadResizesLargeImages(t *testing.T) {
	store := newMemoryStore()
	media := fixedClockMedia(store)

	result, err := media.Upload(context.Background(), rawUpload("wide.png", "image/png", pngBytes(t, 3840, 1000)), "activities", true)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	object, _ := store.Get(context.Background(), result.Key)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(object.Body))
	if err != nil {
		t.Fatalf("decode stored image: %v", err)
	}
	if format != "png" || object.ContentType != "image/png" {
		t.Fatalf("format = %s (%s), want png", format, object.ContentType)
	}
	if cfg.Width != 1920 || cfg.Height != 500 {
		t.Fatalf("resized to %dx%d, want 1920x500", cfg.Width, cfg.Height)
	}
}

func TestUploadDoesNotUpscale(t *testing.T) {
	store := newMemoryStore()
	media := fixedClockMedia(store)

	result, err := media.Upload(context.Background(), rawUpload("small.png", "image/png", pngBytes(t, 64, 32)), "activities", true)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	object, _ := store.Get(context.Background(), result.Key)
	cfg, _, err := image.DecodeConfig(bytes.NewReader(object.Body))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Width != 64 || cfg.Height != 32 {
		t.Fatalf("small image changed size to %dx%d", cfg.Width, cfg.Height)
	}
}

func TestUploadResizeFailureIsBadRequest(t *testing.T) {
	store := newMemoryStore()
	media := fixedClockMedia(store)

	_, err := media.Upload(context.Background(), rawUpload("broken.jpg", "image/jpeg", []byte("not really a jpeg")), "activities", true)
	assertKind(t, err, utils.KindBadRequest, "Error resizing image")
	if store.puts != 0 {
		t.Fatal("broken image reached storage")
	}
}

func TestFetchAndRemove(t *testing.T) {
	store := newMemoryStore()
	media := fixedClockMedia(store)
	ctx := context.Background()

	_, err := media.Fetch(ctx, "activities/missing.png")
	assertKind(t, err, utils.KindNotFound, "File not found")

	store.objects["docs/guide.pdf"] = &StoredObject{Body: []byte("%PDF")}
	store.objects["misc/blob"] = &StoredObject{Body: []byte("x")}
	store.objects["activities/a.png"] = &StoredObject{Body: []byte("x"), ContentType: "image/png"}

	tests := map[string]string{
		"docs/guide.pdf":   "application/pdf",
		"/misc/blob":       "application/octet-stream",
		"activities/a.png": "image/png",
	}
	for key, want := range tests {
		object, err := media.Fetch(ctx, key)
		if err != nil {
			t.Fatalf("fetch %s: %v", key, err)
		}
		if object.ContentType != want {
			t.Errorf("content type of %s = %q, want %q", key, object.ContentType, want)
		}
	}

	object, _ := media.Fetch(ctx, "docs/guide.pdf")
	if object.Filename != "guide.pdf" {
		t.Fatalf("filename = %q", object.Filename)
	}

	if err := media.Remove(ctx, "docs/guide.pdf"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := media.Remove(ctx, "docs/guide.pdf"); err != nil {
		t.Fatalf("removing a missing object must succeed: %v", err)
	}
}
