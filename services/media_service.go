package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"mime"
	"path"
	"strings"
	"time"

	"campus-events-api/utils"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp"
)

const (
	// MaxUploadSize is inclusive: a file of exactly this many bytes is accepted.
	MaxUploadSize int64 = 5 * 1024 * 1024

	MaxImageWidth  = 1920
	MaxImageHeight = 1080
	ResizeQuality  = 85

	defaultContentType = "application/octet-stream"
)

var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/jpg":  true,
	"image/gif":  true,
	"image/webp": true,
}

// UploadFile describes an incoming file. Size is the declared size and is
// checked before Body is read.
type UploadFile struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type UploadResult struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// MediaObject is a stored object returned by Fetch.
type MediaObject struct {
	Body        []byte
	Filename    string
	ContentType string
}

type MediaService struct {
	store      ObjectStore
	publicBase string
	now        func() time.Time
}

func NewMediaService(store ObjectStore, publicBase string) *MediaService {
	return &MediaService{
		store:      store,
		publicBase: strings.TrimRight(publicBase, "/"),
		now:        time.Now,
	}
}

func normalizeContentType(contentType string) string {
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

func invalidFileType() error {
	return utils.BadRequest("Invalid file type. Only PNG, JPG, GIF and WEBP images are allowed")
}

func fileTooLarge() error {
	return utils.BadRequest("File size exceeds the 5MB limit")
}

// Upload validates file, optionally shrinks it, and stores it under
// {folder}/{epochMillis}-{filename}.
func (s *MediaService) Upload(ctx context.Context, file UploadFile, folder string, resize bool) (*UploadResult, error) {
	if file.Size > MaxUploadSize {
		return nil, fileTooLarge()
	}

	contentType := normalizeContentType(file.ContentType)
	declared := contentType != "" && contentType != defaultContentType
	if declared && !allowedImageTypes[contentType] {
		return nil, invalidFileType()
	}

	if file.Body == nil {
		return nil, utils.BadRequest("File is empty")
	}
	body, err := io.ReadAll(io.LimitReader(file.Body, MaxUploadSize+1))
	if err != nil {
		return nil, utils.Wrap(err, "Error reading file")
	}
	if int64(len(body)) > MaxUploadSize {
		return nil, fileTooLarge()
	}
	if len(body) == 0 {
		return nil, utils.BadRequest("File is empty")
	}

	if !declared {
		contentType = normalizeContentType(mimetype.Detect(body).String())
		if !allowedImageTypes[contentType] {
			return nil, invalidFileType()
		}
	}

	if resize {
		body, contentType, err = resizeImage(body, contentType)
		if err != nil {
			log.Printf("Error resizing image %s: %v", file.Filename, err)
			return nil, utils.BadRequest("Error resizing image")
		}
	}

	filename := path.Base(strings.ReplaceAll(file.Filename, "\\", "/"))
	if filename == "." || filename == "/" || filename == "" {
		filename = "upload"
	}
	key := fmt.Sprintf("%s/%d-%s", strings.Trim(folder, "/"), s.now().UnixMilli(), filename)

	if err := s.store.Put(ctx, key, body, contentType); err != nil {
		return nil, utils.Wrap(err, "Error uploading file")
	}

	return &UploadResult{Key: key, URL: s.URLFor(key)}, nil
}

// resizeImage fits the image inside MaxImageWidth x MaxImageHeight without
// upscaling. PNG and GIF keep their format; everything else is written as JPEG.
func resizeImage(body []byte, contentType string) ([]byte, string, error) {
	img, err := imaging.Decode(bytes.NewReader(body), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", err
	}

	var fitted image.Image = imaging.Fit(img, MaxImageWidth, MaxImageHeight, imaging.Lanczos)

	format, outType := imaging.JPEG, "image/jpeg"
	switch contentType {
	case "image/png":
		format, outType = imaging.PNG, "image/png"
	case "image/gif":
		format, outType = imaging.GIF, "image/gif"
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, fitted, format, imaging.JPEGQuality(ResizeQuality)); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), outType, nil
}

// URLFor returns the public URL of key.
func (s *MediaService) URLFor(key string) string {
	return s.publicBase + "/" + key
}

// KeyFromURL maps a public URL produced by Upload back to its key.
func (s *MediaService) KeyFromURL(url string) (string, bool) {
	prefix := s.publicBase + "/"
	if !strings.HasPrefix(url, prefix) || len(url) == len(prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}

func (s *MediaService) Fetch(ctx context.Context, key string) (*MediaObject, error) {
	key = strings.TrimLeft(key, "/")
	if key == "" {
		return nil, utils.NotFound("File not found")
	}

	object, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return nil, utils.NotFound("File not found")
		}
		return nil, utils.Wrap(err, "Error fetching file")
	}

	filename := path.Base(key)
	contentType := object.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(path.Ext(filename))
	}
	if contentType == "" {
		contentType = defaultContentType
	}

	return &MediaObject{Body: object.Body, Filename: filename, ContentType: contentType}, nil
}

// Remove is idempotent: a missing object counts as removed.
func (s *MediaService) Remove(ctx context.Context, key string) error {
	err := s.store.Delete(ctx, strings.TrimLeft(key, "/"))
	if err == nil || errors.Is(err, ErrObjectNotFound) {
		return nil
	}
	return utils.Wrap(err, "Error deleting file")
}
