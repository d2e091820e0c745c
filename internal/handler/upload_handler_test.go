package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/makoto/rentman/internal/model"
	"github.com/makoto/rentman/internal/storage"
)

// fakeImageStore はメモリ上のImageStore実装。
type fakeImageStore struct {
	objects map[string][]byte
	types   map[string]string
}

func newFakeImageStore() *fakeImageStore {
	return &fakeImageStore{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func (s *fakeImageStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.objects[key] = data
	s.types[key] = contentType
	return nil
}

func (s *fakeImageStore) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, "", storage.ErrImageNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), s.types[key], nil
}

func (s *fakeImageStore) Remove(ctx context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

// pngBytes はPNGマジックナンバー付きのダミー画像データを返す。
func pngBytes() []byte {
	return append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)
}

// multipartRequest はimageフィールド付きのmultipartリクエストを生成する。
func multipartRequest(t *testing.T, filename string, data []byte, user *model.User) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", filename)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := fw.Write(data); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	mw.Close()

	req := authedRequest(http.MethodPost, "/api/upload/image", buf.String(), user)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadHandler_UploadImage(t *testing.T) {
	store := newFakeImageStore()
	h := NewUploadHandler(store, 5*1024*1024, "http://localhost:8080")

	req := multipartRequest(t, "house.png", pngBytes(), &model.User{ID: "user-1"})
	rec := httptest.NewRecorder()
	h.UploadImage(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp uploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if resp.OriginalName != "house.png" {
		t.Errorf("expected original name preserved, got %q", resp.OriginalName)
	}
	if !strings.HasSuffix(resp.Filename, ".png") {
		t.Errorf("expected generated .png filename, got %q", resp.Filename)
	}
	if resp.Filename == "house.png" {
		t.Error("stored filename must not be the client-supplied name")
	}
	if !strings.HasPrefix(resp.URL, "http://localhost:8080/images/") {
		t.Errorf("unexpected URL: %q", resp.URL)
	}
	if _, ok := store.objects[resp.Filename]; !ok {
		t.Error("expected object stored under generated key")
	}
}

func TestUploadHandler_UploadImage_RejectsNonImage(t *testing.T) {
	h := NewUploadHandler(newFakeImageStore(), 5*1024*1024, "http://localhost:8080")

	// 拡張子がpngでも中身で判定して拒否する
	req := multipartRequest(t, "evil.png", []byte("#!/bin/sh\nrm -rf /\n"), &model.User{ID: "user-1"})
	rec := httptest.NewRecorder()
	h.UploadImage(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if got := decodeError(t, rec).Code; got != model.ErrCodeInvalidImageType {
		t.Errorf("expected INVALID_IMAGE_TYPE, got %q", got)
	}
}

func TestUploadHandler_UploadImage_RequiresAuth(t *testing.T) {
	h := NewUploadHandler(newFakeImageStore(), 5*1024*1024, "http://localhost:8080")

	req := multipartRequest(t, "house.png", pngBytes(), nil)
	rec := httptest.NewRecorder()
	h.UploadImage(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestUploadHandler_ServeImage(t *testing.T) {
	store := newFakeImageStore()
	store.objects["abc.png"] = pngBytes()
	store.types["abc.png"] = "image/png"
	h := NewUploadHandler(store, 5*1024*1024, "http://localhost:8080")

	req := withURLParam(authedRequest(http.MethodGet, "/images/abc.png", "", nil), "filename", "abc.png")
	rec := httptest.NewRecorder()
	h.ServeImage(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected image/png, got %q", ct)
	}
	if !bytes.Equal(rec.Body.Bytes(), pngBytes()) {
		t.Error("unexpected image payload")
	}
}

func TestUploadHandler_ServeImage_NotFound(t *testing.T) {
	h := NewUploadHandler(newFakeImageStore(), 5*1024*1024, "http://localhost:8080")

	req := withURLParam(authedRequest(http.MethodGet, "/images/ghost.png", "", nil), "filename", "ghost.png")
	rec := httptest.NewRecorder()
	h.ServeImage(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestUploadHandler_ServeImage_RejectsTraversal(t *testing.T) {
	h := NewUploadHandler(newFakeImageStore(), 5*1024*1024, "http://localhost:8080")

	req := withURLParam(authedRequest(http.MethodGet, "/images/x", "", nil), "filename", "../secrets.txt")
	rec := httptest.NewRecorder()
	h.ServeImage(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for traversal attempt, got %d", rec.Code)
	}
}
