package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"campus-events-api/database"
	"campus-events-api/models"
	"campus-events-api/repositories"
	"campus-events-api/utils"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPublicBase = "https://cdn.example.test/bucket"

type memoryStore struct {
	mu      sync.Mutex
	objects map[string]*StoredObject
	putErr  error
	puts    int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string]*StoredObject{}}
}

func (m *memoryStore) Put(ctx context.Context, key string, body []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.putErr != nil {
		return m.putErr
	}
	m.objects[key] = &StoredObject{Body: append([]byte(nil), body...), ContentType: contentType}
	return nil
}

func (m *memoryStore) Get(ctx context.Context, key string) (*StoredObject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	object, ok := m.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return object, nil
}

func (m *memoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return ErrObjectNotFound
	}
	delete(m.objects, key)
	return nil
}

func (m *memoryStore) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

type sentMail struct {
	To    string
	Name  string
	Link  string
	Title string
}

type recordingMailer struct {
	mu     sync.Mutex
	resets []sentMail
	confs  []sentMail
	err    error
}

func (r *recordingMailer) SendPasswordResetEmail(email, name, resetLink string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resets = append(r.resets, sentMail{To: email, Name: name, Link: resetLink})
	return r.err
}

func (r *recordingMailer) SendRegistrationConfirmation(email, name, activityTitle string, startDate time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.confs = append(r.confs, sentMail{To: email, Name: name, Title: activityTitle})
	return r.err
}

type testEnv struct {
	db            *gorm.DB
	users         *repositories.UserRepository
	activityRepo  *repositories.ActivityRepository
	registrations *repositories.RegistrationRepository
	store         *memoryStore
	mailer        *recordingMailer
	media         *MediaService
	directory     *UserService
	activities    *ActivityService
	ledger        *RegistrationService
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Initialize("sqlite", ":memory:", logger.Silent)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	env := &testEnv{
		db:            db,
		users:         repositories.NewUserRepository(db),
		activityRepo:  repositories.NewActivityRepository(db),
		registrations: repositories.NewRegistrationRepository(db),
		store:         newMemoryStore(),
		mailer:        &recordingMailer{},
	}
	env.media = NewMediaService(env.store, testPublicBase)
	env.directory = NewUserService(env.users)
	env.activities = NewActivityService(env.activityRepo, env.media)
	env.ledger = NewRegistrationService(env.registrations, env.activityRepo, env.mailer)
	env.ledger.dispatch = func(f func()) { f() }
	return env
}

// createUser stores a user with a cheap hash and returns it as a caller.
func (e *testEnv) createUser(t *testing.T, first, last, email string, role models.Role) Caller {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("Password1!"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	user := models.User{
		ID:        uuid.New().String(),
		FirstName: first,
		LastName:  last,
		Email:     email,
		Password:  string(hash),
		Role:      role,
	}
	if err := e.users.Create(context.Background(), &user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return Caller{ID: user.ID, Role: role}
}

func activityFields(title, start string, tags ...string) models.ActivityFields {
	return models.ActivityFields{
		Title:     title,
		StartDate: start,
		EndDate:   start,
		Location:  "Main Hall",
		Tags:      tags,
	}
}

// createActivity creates an activity owned by owner and fails the test on error.
func (e *testEnv) createActivity(t *testing.T, owner Caller, fields models.ActivityFields) *models.Activity {
	t.Helper()
	activity, err := e.activities.Create(context.Background(), fields, owner, nil)
	if err != nil {
		t.Fatalf("create activity %q: %v", fields.Title, err)
	}
	return activity
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 7 {
		img.Set(x, h/2, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func assertKind(t *testing.T, err error, kind utils.ErrorKind, message string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %q, got nil", message)
	}
	var appErr *utils.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *utils.AppError, got %T: %v", err, err)
	}
	if appErr.Kind != kind {
		t.Fatalf("expected kind %v, got %v (%s)", kind, appErr.Kind, appErr.Message)
	}
	if message != "" && appErr.Message != message {
		t.Fatalf("expected message %q, got %q", message, appErr.Message)
	}
}
