package services

import (
  "context"
  "fmt"
  "sync"
  "testing"

  "github.com/glebarez/sqlite"
  "github.com/stretchr/testify/require"
  "gorm.io/gorm"

  "github.com/sineva-org/sineva-backend/internal/db"
)

func newTestDB(t *testing.T) *gorm.DB {
  t.Helper()
  gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
  require.NoError(t, err)
  sqlDB, err := gdb.DB()
  require.NoError(t, err)
  sqlDB.SetMaxOpenConns(1)
  t.Cleanup(func() { _ = sqlDB.Close() })
  require.NoError(t, db.Migrate(gdb))
  return gdb
}

type fakeScheduler struct {
  mu      sync.Mutex
  emails  []string
  err     error
}

func (f *fakeScheduler) ScheduleCleanup(ctx context.Context, email string) error {
  f.mu.Lock()
  defer f.mu.Unlock()
  if f.err != nil {
    return f.err
  }
  f.emails = append(f.emails, email)
  return nil
}

type fakeSender struct {
  mu      sync.Mutex
  codes   map[string]string
  err     error
}

func (f *fakeSender) SendOTP(ctx context.Context, toEmail string, code string) error {
  f.mu.Lock()
  defer f.mu.Unlock()
  if f.err != nil {
    return f.err
  }
  if f.codes == nil {
    f.codes = map[string]string{}
  }
  f.codes[toEmail] = code
  return nil
}

func (f *fakeSender) last(email string) string {
  f.mu.Lock()
  defer f.mu.Unlock()
  return f.codes[email]
}

type fakeHost struct {
  mu        sync.Mutex
  uploads   []fakeUpload
  err       error
}

type fakeUpload struct {
  Folder        string
  Data          []byte
  ContentType   string
}

func (f *fakeHost) Upload(ctx context.Context, folder string, data []byte, contentType string) (string, error) {
  f.mu.Lock()
  defer f.mu.Unlock()
  if f.err != nil {
    return "", f.err
  }
  f.uploads = append(f.uploads, fakeUpload{Folder: folder, Data: data, ContentType: contentType})
  return fmt.Sprintf("https://cdn.test/%s/%d.png", folder, len(f.uploads)), nil
}

type fakeGemini struct {
  resp      *GenerateResponse
  err       error
  calls     []geminiCall
}

type geminiCall struct {
  Model   string
  Parts   []Part
}

func (f *fakeGemini) GenerateContent(ctx context.Context, model string, parts []Part) (*GenerateResponse, error) {
  f.calls = append(f.calls, geminiCall{Model: model, Parts: parts})
  if f.err != nil {
    return nil, f.err
  }
  return f.resp, nil
}

func (f *fakeGemini) ImageModel() string { return "image-model" }
func (f *fakeGemini) TextModel() string  { return "text-model" }
