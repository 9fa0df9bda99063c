package api

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"

	"chatkeep/internal/service/account"
)

func TestIsAllowedImage(t *testing.T) {
	cases := []struct {
		contentType string
		filename    string
		want        bool
	}{
		{"image/png", "avatar.png", true},
		{"image/jpeg", "photo.JPG", true},
		{"image/jpeg", "photo.jpeg", true},
		{"text/plain", "avatar.png", false},
		{"image/png", "notes.txt", false},
		{"image/gif", "anim.gif", false},
		{"application/pdf", "doc.pdf", false},
	}
	for _, tc := range cases {
		if got := isAllowedImage(tc.contentType, tc.filename); got != tc.want {
			t.Errorf("isAllowedImage(%q, %q) = %v, want %v", tc.contentType, tc.filename, got, tc.want)
		}
	}
}

func TestUploadRequiresSession(t *testing.T) {
	router, _ := newTestServer(t)

	resp := postFile(t, router, nil, "file", "avatar.png", "image/png", []byte("png-bytes"))
	assertStatus(t, resp, http.StatusUnauthorized)
}

func TestUploadHappyPath(t *testing.T) {
	router, env := newTestServer(t)
	cookie := signupAndLogin(t, router, "frank", "pw", "f@x.com")

	resp := postFile(t, router, cookie, "file", "avatar.png", "image/png", []byte("png-bytes"))
	assertStatus(t, resp, http.StatusCreated)

	var body struct {
		FileID string `json:"fileId"`
	}
	decodeJSON(t, resp.Body.Bytes(), &body)
	if body.FileID != env.blobs.fileID.Hex() {
		t.Fatalf("expected fileId %s, got %s", env.blobs.fileID.Hex(), body.FileID)
	}
	if env.blobs.lastName != "avatar.png" {
		t.Fatalf("expected original filename, got %q", env.blobs.lastName)
	}
	userID := env.accounts.byUsername["frank"].ID
	if env.accounts.attached[userID] != env.blobs.fileID {
		t.Fatalf("expected image linked to user record")
	}
}

func TestUploadMissingFile(t *testing.T) {
	router, _ := newTestServer(t)
	cookie := signupAndLogin(t, router, "gina", "pw", "g@x.com")

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	writer.Close()
	resp := postMultipart(t, router, cookie, writer.FormDataContentType(), &buf)
	assertStatus(t, resp, http.StatusBadRequest)
}

func TestUploadRejectsMismatchedContentType(t *testing.T) {
	router, env := newTestServer(t)
	cookie := signupAndLogin(t, router, "hank", "pw", "h@x.com")

	// .png extension but a non-image declared type
	resp := postFile(t, router, cookie, "file", "avatar.png", "text/plain", []byte("not an image"))
	assertStatus(t, resp, http.StatusBadRequest)

	// image declared type but a non-image extension
	resp = postFile(t, router, cookie, "file", "notes.txt", "image/png", []byte("not an image"))
	assertStatus(t, resp, http.StatusBadRequest)

	if env.blobs.lastName != "" {
		t.Fatalf("rejected upload must not reach blob storage")
	}
}

func TestUploadRejectsExtraFileField(t *testing.T) {
	router, env := newTestServer(t)
	cookie := signupAndLogin(t, router, "kate", "pw", "k@x.com")

	// a second file part alongside "file"
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, field := range []string{"file", "extra"} {
		part, err := writer.CreateFormFile(field, "avatar.png")
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := part.Write([]byte("png-bytes")); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	writer.Close()
	resp := postMultipart(t, router, cookie, writer.FormDataContentType(), &buf)
	assertStatus(t, resp, http.StatusBadRequest)

	// a single file part under the wrong field name
	resp = postFile(t, router, cookie, "avatar", "avatar.png", "image/png", []byte("png-bytes"))
	assertStatus(t, resp, http.StatusBadRequest)

	if env.blobs.lastName != "" {
		t.Fatalf("rejected upload must not reach blob storage")
	}
}

func TestUploadTooLargeRejectedBeforeValidation(t *testing.T) {
	router, env := newTestServer(t)
	cookie := signupAndLogin(t, router, "iris", "pw", "i@x.com")

	oversized := bytes.Repeat([]byte("a"), maxUploadBytes+1024)
	resp := postFile(t, router, cookie, "file", "huge.png", "image/png", oversized)
	assertStatus(t, resp, http.StatusRequestEntityTooLarge)

	if env.blobs.lastName != "" {
		t.Fatalf("oversized upload must not reach blob storage")
	}
}

func TestUploadVanishedUser(t *testing.T) {
	router, env := newTestServer(t)
	cookie := signupAndLogin(t, router, "jack", "pw", "j@x.com")
	env.accounts.attachErr = account.ErrNotFound

	resp := postFile(t, router, cookie, "file", "avatar.png", "image/png", []byte("png-bytes"))
	assertStatus(t, resp, http.StatusNotFound)
}

func postFile(t *testing.T, router *gin.Engine, cookies []*http.Cookie, field, filename, contentType string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	writer.Close()

	return postMultipart(t, router, cookies, writer.FormDataContentType(), &buf)
}

func postMultipart(t *testing.T, router *gin.Engine, cookies []*http.Cookie, contentType string, body *bytes.Buffer) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/login/session-status/upload", body)
	req.Header.Set("Content-Type", contentType)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}
