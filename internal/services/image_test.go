package services

import (
  "bytes"
  "context"
  "encoding/base64"
  "errors"
  "image"
  "image/color"
  "image/png"
  "net/http"
  "net/http/httptest"
  "testing"

  "github.com/google/uuid"
  "github.com/stretchr/testify/assert"
  "github.com/stretchr/testify/require"

  "github.com/sineva-org/sineva-backend/internal/logger"
  "github.com/sineva-org/sineva-backend/internal/repos"
  "github.com/sineva-org/sineva-backend/internal/types"
)

type imageFixture struct {
  svc       ImageService
  repo      repos.ImageRepo
  gemini    *fakeGemini
  host      *fakeHost
  userID    uuid.UUID
}

func newImageFixture(t *testing.T) *imageFixture {
  t.Helper()
  gdb := newTestDB(t)
  owner, err := repos.NewAuthUserRepo(gdb, logger.NewNop()).UpsertOTP(context.Background(), nil, "a@b.com", "x")
  require.NoError(t, err)
  f := &imageFixture{
    repo:   repos.NewImageRepo(gdb, logger.NewNop()),
    gemini: &fakeGemini{},
    host:   &fakeHost{},
    userID: owner.ID,
  }
  f.svc = NewImageService(logger.NewNop(), f.repo, f.gemini, f.host, nil, 10<<20)
  return f
}

func pngBytes(t *testing.T, w, h int) []byte {
  t.Helper()
  img := image.NewNRGBA(image.Rect(0, 0, w, h))
  for x := 0; x < w; x++ {
    img.Set(x, 0, color.NRGBA{R: 255, A: 255})
  }
  var buf bytes.Buffer
  require.NoError(t, png.Encode(&buf, img))
  return buf.Bytes()
}

func imageResponse(data []byte) *GenerateResponse {
  return &GenerateResponse{Candidates: []Candidate{{Content: Content{Parts: []Part{
    {InlineData: &InlineData{MimeType: "image/png", Data: base64.StdEncoding.EncodeToString(data)}},
  }}}}}
}

func TestCreateImageRequiresInput(t *testing.T) {
  f := newImageFixture(t)
  _, err := f.svc.CreateImage(context.Background(), f.userID, CreateImageInput{Prompt: "  "})
  assert.ErrorIs(t, err, ErrPromptOrImageRequired)
}

func TestCreateImageFromPrompt(t *testing.T) {
  ctx := context.Background()
  f := newImageFixture(t)
  generated := pngBytes(t, 4, 4)
  f.gemini.resp = imageResponse(generated)

  res, err := f.svc.CreateImage(ctx, f.userID, CreateImageInput{Prompt: " a red fox "})
  require.NoError(t, err)
  require.NotNil(t, res.Image)
  assert.Equal(t, "a red fox", res.Image.Prompt)
  assert.Equal(t, "https://cdn.test/ai_generated_images/1.png", res.Image.ImageURL)

  require.Len(t, f.gemini.calls, 1)
  assert.Equal(t, "image-model", f.gemini.calls[0].Model)
  require.Len(t, f.gemini.calls[0].Parts, 1)
  assert.Equal(t, "a red fox", f.gemini.calls[0].Parts[0].Text)
  assert.Equal(t, generated, f.host.uploads[0].Data)

  // Same prompt again replaces the url on the same record.
  again, err := f.svc.CreateImage(ctx, f.userID, CreateImageInput{Prompt: "a red fox"})
  require.NoError(t, err)
  assert.Equal(t, res.Image.ID, again.Image.ID)
  assert.Equal(t, "https://cdn.test/ai_generated_images/2.png", again.Image.ImageURL)

  n, err := f.repo.CountByUser(ctx, nil, f.userID)
  require.NoError(t, err)
  assert.EqualValues(t, 1, n)
}

func TestCreateImageWithFileEditsReference(t *testing.T) {
  f := newImageFixture(t)
  f.gemini.resp = imageResponse(pngBytes(t, 2, 2))

  res, err := f.svc.CreateImage(context.Background(), f.userID, CreateImageInput{
    Prompt: "make it blue",
    File:   &UploadedFile{Data: pngBytes(t, 3000, 1000), ContentType: "image/png"},
  })
  require.NoError(t, err)
  assert.Equal(t, "https://cdn.test/ai_generated_images/1.png make it blue", res.Image.Prompt)
  assert.Equal(t, "https://cdn.test/ai_generated_images/2.png", res.Image.ImageURL)

  ref, err := png.Decode(bytes.NewReader(f.host.uploads[0].Data))
  require.NoError(t, err)
  assert.Equal(t, 2048, ref.Bounds().Dx())

  parts := f.gemini.calls[0].Parts
  require.Len(t, parts, 2)
  require.NotNil(t, parts[0].InlineData)
  assert.Equal(t, "image/png", parts[0].InlineData.MimeType)
  assert.Equal(t, "make it blue", parts[1].Text)
}

func TestCreateImageFileOnlySkipsModel(t *testing.T) {
  f := newImageFixture(t)
  res, err := f.svc.CreateImage(context.Background(), f.userID, CreateImageInput{
    File: &UploadedFile{Data: pngBytes(t, 8, 8), ContentType: "image/png"},
  })
  require.NoError(t, err)
  assert.Empty(t, f.gemini.calls)
  assert.Equal(t, res.Image.ImageURL, res.Image.Prompt)
}

func TestCreateImageRejectsUndecodableFile(t *testing.T) {
  f := newImageFixture(t)
  _, err := f.svc.CreateImage(context.Background(), f.userID, CreateImageInput{
    File: &UploadedFile{Data: []byte("not an image"), ContentType: "image/png"},
  })
  assert.ErrorIs(t, err, ErrUnsupportedImage)
  assert.Empty(t, f.host.uploads)
}

func TestCreateImageFromURL(t *testing.T) {
  src := pngBytes(t, 5, 5)
  srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
    if r.URL.Path != "/ok.png" {
      http.NotFound(w, r)
      return
    }
    w.Header().Set("Content-Type", "image/png")
    _, _ = w.Write(src)
  }))
  defer srv.Close()

  f := newImageFixture(t)
  f.gemini.resp = imageResponse(pngBytes(t, 2, 2))

  res, err := f.svc.CreateImage(context.Background(), f.userID, CreateImageInput{Prompt: "edit", ImageURL: srv.URL + "/ok.png"})
  require.NoError(t, err)
  assert.Equal(t, srv.URL+"/ok.png edit", res.Image.Prompt)
  assert.Equal(t, base64.StdEncoding.EncodeToString(src), f.gemini.calls[0].Parts[0].InlineData.Data)

  _, err = f.svc.CreateImage(context.Background(), f.userID, CreateImageInput{Prompt: "edit", ImageURL: srv.URL + "/missing.png"})
  assert.ErrorIs(t, err, ErrImageURLFetch)
}

func TestCreateImageModelOutcomes(t *testing.T) {
  ctx := context.Background()
  f := newImageFixture(t)

  f.gemini.resp = &GenerateResponse{}
  _, err := f.svc.CreateImage(ctx, f.userID, CreateImageInput{Prompt: "x"})
  assert.ErrorIs(t, err, ErrNoCandidates)

  f.gemini.resp = &GenerateResponse{Candidates: []Candidate{{Content: Content{Parts: []Part{{Text: "I cannot draw that"}}}}}}
  res, err := f.svc.CreateImage(ctx, f.userID, CreateImageInput{Prompt: "x"})
  require.NoError(t, err)
  assert.Nil(t, res.Image)
  assert.Equal(t, "I cannot draw that", res.Text)

  f.gemini.resp = &GenerateResponse{Candidates: []Candidate{{}}}
  _, err = f.svc.CreateImage(ctx, f.userID, CreateImageInput{Prompt: "x"})
  assert.ErrorIs(t, err, ErrNoImageInResponse)

  f.gemini.err = errors.New("upstream")
  _, err = f.svc.CreateImage(ctx, f.userID, CreateImageInput{Prompt: "x"})
  assert.ErrorIs(t, err, f.gemini.err)

  n, err := f.repo.CountByUser(ctx, nil, f.userID)
  require.NoError(t, err)
  assert.EqualValues(t, 0, n)
}

func TestUpdateImage(t *testing.T) {
  ctx := context.Background()
  f := newImageFixture(t)
  img, err := f.repo.Create(ctx, nil, &types.Image{UserID: f.userID, Prompt: "old", ImageURL: "https://x/old.png"})
  require.NoError(t, err)

  _, err = f.svc.UpdateImage(ctx, f.userID, img.ID, UpdateImageInput{})
  assert.ErrorIs(t, err, ErrTextOrImageRequired)

  _, err = f.svc.UpdateImage(ctx, uuid.New(), img.ID, UpdateImageInput{Text: "hijack"})
  assert.ErrorIs(t, err, ErrImageNotFound)

  updated, err := f.svc.UpdateImage(ctx, f.userID, img.ID, UpdateImageInput{Text: "new"})
  require.NoError(t, err)
  assert.Equal(t, "new", updated.Prompt)
  assert.Equal(t, "https://x/old.png", updated.ImageURL)

  // An explicit url wins over an uploaded file.
  updated, err = f.svc.UpdateImage(ctx, f.userID, img.ID, UpdateImageInput{
    ImageURL: "https://x/explicit.png",
    File:     &UploadedFile{Data: pngBytes(t, 2, 2), ContentType: "image/png"},
  })
  require.NoError(t, err)
  assert.Equal(t, "https://x/explicit.png", updated.ImageURL)
  assert.Equal(t, "new", updated.Prompt)
}

func TestListingPages(t *testing.T) {
  ctx := context.Background()
  f := newImageFixture(t)
  for _, p := range []string{"a", "b", "c"} {
    _, err := f.repo.Create(ctx, nil, &types.Image{UserID: f.userID, Prompt: p, ImageURL: "u"})
    require.NoError(t, err)
  }

  all, err := f.svc.ListUserImages(ctx, f.userID)
  require.NoError(t, err)
  assert.Len(t, all, 3)

  page, err := f.svc.ListUserImagesPage(ctx, f.userID, 2, 2)
  require.NoError(t, err)
  assert.EqualValues(t, 3, page.Total)
  assert.Len(t, page.Images, 1)
  assert.Equal(t, 2, page.TotalPages())

  global, err := f.svc.ListAllImagesPage(ctx, 1, 10)
  require.NoError(t, err)
  assert.EqualValues(t, 3, global.Total)
  assert.Len(t, global.Images, 3)
}

func TestGeneratePrompts(t *testing.T) {
  ctx := context.Background()
  f := newImageFixture(t)

  _, err := f.svc.GeneratePrompts(ctx, " ")
  assert.ErrorIs(t, err, ErrDetailsRequired)

  f.gemini.resp = &GenerateResponse{Candidates: []Candidate{{Content: Content{Parts: []Part{{Text: `["one","two","three"]`}}}}}}
  prompts, err := f.svc.GeneratePrompts(ctx, "a beach")
  require.NoError(t, err)
  assert.Equal(t, []string{"one", "two", "three"}, prompts)
  assert.Equal(t, "text-model", f.gemini.calls[0].Model)
  assert.Contains(t, f.gemini.calls[0].Parts[0].Text, `"a beach"`)

  f.gemini.resp = &GenerateResponse{Candidates: []Candidate{{}}}
  _, err = f.svc.GeneratePrompts(ctx, "a beach")
  assert.ErrorIs(t, err, ErrNoTextInResponse)
}

func TestParsePromptList(t *testing.T) {
  assert.Equal(t, []string{"a", "b"}, ParsePromptList("```json\n[\"a\",\"b\"]\n```"))
  assert.Equal(t, []string{"1. first", "2. second"}, ParsePromptList("1. first\n\n  2. second \n"))
}

func TestUploadUserImage(t *testing.T) {
  f := newImageFixture(t)
  url, err := f.svc.UploadUserImage(context.Background(), &UploadedFile{Data: pngBytes(t, 3, 3), ContentType: "image/png"})
  require.NoError(t, err)
  assert.Equal(t, "https://cdn.test/user_uploads/1.png", url)
  assert.Equal(t, UserUploadsFolder, f.host.uploads[0].Folder)
}
