package images_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/JaimeStill/image-lab/internal/images"
	"github.com/JaimeStill/image-lab/pkg/openapi"
	"github.com/JaimeStill/image-lab/pkg/routes"
	"github.com/JaimeStill/image-lab/pkg/storage"
	"github.com/google/uuid"
)

var maxIntText = strconv.Itoa(math.MaxInt)

type validationBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

func upload(t *testing.T, base, name string, data []byte) images.Image {
	t.Helper()
	body, ct := multipartBody(t, name, data, nil)
	resp, raw := do(t, http.MethodPost, base+"/images", body, ct)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST /images = %d: %s", resp.StatusCode, raw)
	}

	var img images.Image
	if err := json.Unmarshal(raw, &img); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	return img
}

func representation(t *testing.T, base string, id uuid.UUID) (int, images.Image) {
	t.Helper()
	resp, raw := do(t, http.MethodGet, base+"/images/"+id.String()+"/representation", nil, "")
	var img images.Image
	if resp.StatusCode == http.StatusOK {
		if err := json.Unmarshal(raw, &img); err != nil {
			t.Fatalf("decode representation: %v", err)
		}
	}
	return resp.StatusCode, img
}

func TestHandler_CatScenario(t *testing.T) {
	f := newFixture(t)
	srv := f.server(t)

	img := upload(t, srv.URL, "cat.png", pngBytes(t, 200, 200))
	if img.Extension != "png" || img.OriginalName != "cat.png" {
		t.Fatalf("created record = %+v", img)
	}

	resp, data := do(t, http.MethodGet, srv.URL+"/images/"+img.ID.String()+"?"+form("width", "50", "height", "50"), nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("show = %d: %s", resp.StatusCode, data)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("show Content-Type = %q, want image/png", ct)
	}
	if _, w, h := decodeConfig(t, data); w != 50 || h != 50 {
		t.Errorf("show size = %dx%d, want 50x50", w, h)
	}
	if _, w, _ := decodeConfig(t, f.blob(t, img.ID)); w != 200 {
		t.Errorf("stored width after show = %d, want 200", w)
	}

	body, ct := formBody("width", "50", "height", "50")
	resp, data = do(t, http.MethodPut, srv.URL+"/images/"+img.ID.String()+"/resize", body, ct)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("resize = %d: %s", resp.StatusCode, data)
	}

	code, found := representation(t, srv.URL, img.ID)
	if code != http.StatusOK {
		t.Fatalf("representation = %d", code)
	}
	if found.Extension != "png" {
		t.Errorf("extension after resize = %q, want png", found.Extension)
	}
	if _, w, h := decodeConfig(t, f.blob(t, img.ID)); w != 50 || h != 50 {
		t.Errorf("stored size after resize = %dx%d, want 50x50", w, h)
	}
}

func TestHandler_ShowValidation(t *testing.T) {
	f := newFixture(t)
	srv := f.server(t)
	img := upload(t, srv.URL, "cat.png", pngBytes(t, 20, 20))

	tests := []struct {
		name      string
		query     string
		wantField string
	}{
		{"angle out of range beside crop", form("width", "5", "height", "5", "x_coordinate", "0", "y_coordinate", "0", "angle", "720"), images.FieldAngle},
		{"negative width", form("width", "-1", "height", "5"), images.FieldWidth},
		{"bad boolean", form("greyscale", "maybe"), images.FieldGreyscale},
		{"transparency range", form("transparency", "101"), images.FieldTransparency},
		{"brightness integer", form("brightness", "1.5"), images.FieldBrightness},
		{"angle number", form("angle", "left"), images.FieldAngle},
		{"resize beyond max dimension", form("width", "100000", "height", "100000"), images.FieldWidth},
		{"resize derived beyond max dimension", form("width", "0", "height", "100000"), images.FieldWidth},
		{"crop origin at max int", form("width", "1", "height", "1", "x_coordinate", maxIntText, "y_coordinate", "0"), images.FieldX},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, raw := do(t, http.MethodGet, srv.URL+"/images/"+img.ID.String()+"?"+tt.query, nil, "")
			if resp.StatusCode != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want 422: %s", resp.StatusCode, raw)
			}

			var body validationBody
			if err := json.Unmarshal(raw, &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Error != "validation failed" {
				t.Errorf("error = %q", body.Error)
			}
			if body.Fields[tt.wantField] == "" {
				t.Errorf("fields = %v, want %s", body.Fields, tt.wantField)
			}
		})
	}
}

func TestHandler_ShowNegotiation(t *testing.T) {
	f := newFixture(t)
	srv := f.server(t)
	img := upload(t, srv.URL, "cat.png", pngBytes(t, 8, 8))

	tests := []struct {
		accept     string
		wantType   string
		wantFormat string
	}{
		{"image/jpeg", "image/jpeg", "jpeg"},
		{"image/gif", "image/gif", "gif"},
		{"image/png", "image/png", "png"},
		{"image/*", "image/png", "png"},
		{"", "image/png", "png"},
	}

	for _, tt := range tests {
		t.Run(tt.accept, func(t *testing.T) {
			resp, data := do(t, http.MethodGet, srv.URL+"/images/"+img.ID.String(), nil, "", "Accept", tt.accept)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			if ct := resp.Header.Get("Content-Type"); ct != tt.wantType {
				t.Errorf("Content-Type = %q, want %q", ct, tt.wantType)
			}
			if format, _, _ := decodeConfig(t, data); format != tt.wantFormat {
				t.Errorf("format = %q, want %q", format, tt.wantFormat)
			}
		})
	}
}

func TestHandler_NotFoundBeforeValidation(t *testing.T) {
	f := newFixture(t)
	srv := f.server(t)
	missing := uuid.New().String()

	tests := []struct {
		name   string
		method string
		path   string
	}{
		{"show", http.MethodGet, "/images/" + missing + "?angle=9999"},
		{"malformed id", http.MethodGet, "/images/not-a-uuid"},
		{"representation", http.MethodGet, "/images/" + missing + "/representation"},
		{"download", http.MethodGet, "/images/" + missing + "/download"},
		{"resize", http.MethodPut, "/images/" + missing + "/resize?width=abc"},
		{"encode", http.MethodPut, "/images/" + missing + "/encode?format=bmp"},
		{"delete", http.MethodDelete, "/images/" + missing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, raw := do(t, tt.method, srv.URL+tt.path, nil, "")
			if resp.StatusCode != http.StatusNotFound {
				t.Errorf("%s %s = %d, want 404: %s", tt.method, tt.path, resp.StatusCode, raw)
			}
		})
	}
}

func TestHandler_MutationValidation(t *testing.T) {
	f := newFixture(t)
	srv := f.server(t)
	img := upload(t, srv.URL, "cat.png", pngBytes(t, 10, 10))
	id := img.ID.String()

	tests := []struct {
		name      string
		path      string
		form      string
		wantField string
	}{
		{"resize missing height", "/resize", form("width", "5"), images.FieldHeight},
		{"crop missing y", "/crop", form("width", "5", "height", "5", "x_coordinate", "1"), images.FieldY},
		{"crop outside", "/crop", form("width", "5", "height", "5", "x_coordinate", "90", "y_coordinate", "90"), images.FieldX},
		{"opacity missing", "/set-opacity", "", images.FieldTransparency},
		{"brightness range", "/change-brightness", form("brightness", "-101"), images.FieldBrightness},
		{"rotate range", "/rotate", form("angle", "361"), images.FieldAngle},
		{"encode unsupported", "/encode", form("format", "bmp"), images.FieldFormat},
		{"encode jpeg spelling", "/encode", form("format", "jpeg"), images.FieldFormat},
		{"resize beyond max dimension", "/resize", form("width", "100000", "height", "100000"), images.FieldWidth},
		{"crop origin at max int", "/crop", form("width", "1", "height", "1", "x_coordinate", maxIntText, "y_coordinate", "0"), images.FieldX},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, raw := do(t, http.MethodPut, srv.URL+"/images/"+id+tt.path, strings.NewReader(tt.form), "application/x-www-form-urlencoded")
			if resp.StatusCode != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want 422: %s", resp.StatusCode, raw)
			}

			var body validationBody
			json.Unmarshal(raw, &body)
			if body.Fields[tt.wantField] == "" {
				t.Errorf("fields = %v, want %s", body.Fields, tt.wantField)
			}
		})
	}
}

func TestHandler_PersistedTransforms(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		form     string
		wantType string
		wantExt  string
	}{
		{"greyscale", "/turn-greyscale", "", "image/png", "png"},
		{"opacity", "/set-opacity", form("transparency", "50"), "image/png", "png"},
		{"brightness", "/change-brightness", form("brightness", "25"), "image/png", "png"},
		{"rotate", "/rotate", form("angle", "-45.5"), "image/png", "png"},
		{"crop", "/crop", form("width", "4", "height", "4", "x_coordinate", "2", "y_coordinate", "2"), "image/png", "png"},
		{"encode jpg", "/encode", form("format", "jpg"), "image/jpeg", "jpeg"},
		{"encode gif", "/encode", form("format", "gif"), "image/gif", "gif"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			srv := f.server(t)
			img := upload(t, srv.URL, "cat.png", pngBytes(t, 10, 10))

			resp, data := do(t, http.MethodPut, srv.URL+"/images/"+img.ID.String()+tt.path,
				strings.NewReader(tt.form), "application/x-www-form-urlencoded")
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d: %s", resp.StatusCode, data)
			}
			if ct := resp.Header.Get("Content-Type"); ct != tt.wantType {
				t.Errorf("Content-Type = %q, want %q", ct, tt.wantType)
			}
			if !bytes.Equal(data, f.blob(t, img.ID)) {
				t.Error("response differs from stored blob")
			}

			_, found := representation(t, srv.URL, img.ID)
			if found.Extension != tt.wantExt {
				t.Errorf("extension = %q, want %q", found.Extension, tt.wantExt)
			}
			if found.OriginalName != "cat."+tt.wantExt {
				t.Errorf("original_name = %q, want cat.%s", found.OriginalName, tt.wantExt)
			}
		})
	}
}

func TestHandler_QueryParamsOnPut(t *testing.T) {
	f := newFixture(t)
	srv := f.server(t)
	img := upload(t, srv.URL, "cat.png", pngBytes(t, 10, 10))

	resp, raw := do(t, http.MethodPut, srv.URL+"/images/"+img.ID.String()+"/resize?"+form("width", "3", "height", "2"), nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, raw)
	}
	if _, w, h := decodeConfig(t, raw); w != 3 || h != 2 {
		t.Errorf("size = %dx%d, want 3x2", w, h)
	}
}

func TestHandler_Insert(t *testing.T) {
	f := newFixture(t)
	srv := f.server(t)
	img := upload(t, srv.URL, "base.png", pngBytes(t, 20, 20))
	target := srv.URL + "/images/" + img.ID.String() + "/insert"

	body, ct := multipartBody(t, "logo.jpg", jpegBytes(t, 4, 4), url.Values{"position": {"top-right"}})
	resp, raw := do(t, http.MethodPut, target, body, ct)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("insert = %d: %s", resp.StatusCode, raw)
	}
	if _, w, h := decodeConfig(t, raw); w != 20 || h != 20 {
		t.Errorf("size = %dx%d, want 20x20", w, h)
	}

	body, ct = multipartBody(t, "logo.jpg", jpegBytes(t, 4, 4), url.Values{"position": {"middle"}})
	resp, raw = do(t, http.MethodPut, target, body, ct)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("bad position = %d, want 422: %s", resp.StatusCode, raw)
	}

	body, ct = multipartBody(t, "", nil, url.Values{"position": {"center"}})
	resp, raw = do(t, http.MethodPut, target, body, ct)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("missing file = %d, want 422: %s", resp.StatusCode, raw)
	}
}

func TestHandler_Upload(t *testing.T) {
	f := newFixture(t)
	srv := f.server(t)

	t.Run("not multipart", func(t *testing.T) {
		body, ct := formBody("file", "x")
		resp, raw := do(t, http.MethodPost, srv.URL+"/images", body, ct)
		if resp.StatusCode != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want 422: %s", resp.StatusCode, raw)
		}
	})

	t.Run("not an image", func(t *testing.T) {
		body, ct := multipartBody(t, "notes.txt", []byte("plain text"), nil)
		resp, raw := do(t, http.MethodPost, srv.URL+"/images", body, ct)
		if resp.StatusCode != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want 422: %s", resp.StatusCode, raw)
		}
	})

	t.Run("too large", func(t *testing.T) {
		body, ct := multipartBody(t, "big.png", make([]byte, maxUpload+1024), nil)
		resp, raw := do(t, http.MethodPost, srv.URL+"/images", body, ct)
		if resp.StatusCode != http.StatusRequestEntityTooLarge {
			t.Errorf("status = %d, want 413: %s", resp.StatusCode, raw)
		}
	})
}

func TestHandler_ReplaceAndDownload(t *testing.T) {
	f := newFixture(t)
	srv := f.server(t)
	img := upload(t, srv.URL, "cat.png", pngBytes(t, 6, 6))

	replacement := jpegBytes(t, 9, 3)
	body, ct := multipartBody(t, "café photo.jpg", replacement, nil)
	resp, raw := do(t, http.MethodPut, srv.URL+"/images/"+img.ID.String(), body, ct)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("replace = %d: %s", resp.StatusCode, raw)
	}

	var replaced images.Image
	json.Unmarshal(raw, &replaced)
	if replaced.ID != img.ID || replaced.Extension != "jpeg" {
		t.Errorf("replaced = %+v", replaced)
	}

	resp, data := do(t, http.MethodGet, srv.URL+"/images/"+img.ID.String()+"/download", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("download = %d", resp.StatusCode)
	}
	if !bytes.Equal(data, replacement) {
		t.Error("download bytes differ from replacement upload")
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("Content-Type = %q, want image/jpeg", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment;") || !strings.Contains(cd, "filename") {
		t.Errorf("Content-Disposition = %q", cd)
	}
}

func TestHandler_ListAndDelete(t *testing.T) {
	f := newFixture(t)
	srv := f.server(t)
	a := upload(t, srv.URL, "a.png", pngBytes(t, 2, 2))
	b := upload(t, srv.URL, "b.png", pngBytes(t, 2, 2))

	resp, raw := do(t, http.MethodGet, srv.URL+"/images", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list = %d", resp.StatusCode)
	}
	var list []images.Image
	if err := json.Unmarshal(raw, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("list length = %d, want 2", len(list))
	}

	for _, listed := range list {
		_, found := representation(t, srv.URL, listed.ID)
		if !sameImage(listed, found) {
			t.Errorf("list entry %+v != representation %+v", listed, found)
		}
	}

	resp, raw = do(t, http.MethodDelete, srv.URL+"/images/"+a.ID.String(), nil, "")
	if resp.StatusCode != http.StatusNoContent || len(raw) != 0 {
		t.Fatalf("delete = %d %q, want 204 with empty body", resp.StatusCode, raw)
	}

	if code, _ := representation(t, srv.URL, a.ID); code != http.StatusNotFound {
		t.Errorf("representation after delete = %d, want 404", code)
	}
	if code, _ := representation(t, srv.URL, b.ID); code != http.StatusOK {
		t.Errorf("sibling representation = %d, want 200", code)
	}
}

// failingDeletes refuses to remove anything.
type failingDeletes struct {
	storage.System
}

func (failingDeletes) DeletePrefix(context.Context, string) error {
	return errors.New("permission denied")
}

func TestHandler_DeleteStorageFailure(t *testing.T) {
	f := newFixture(t)
	img := f.create(t, "cat.png", pngBytes(t, 2, 2))

	sys := images.New(failingDeletes{f.blobs}, f.meta, testLogger(), images.Options{BaseURL: testBaseURL})
	h := images.NewHandler(sys, testLogger(), maxUpload)
	mux := http.NewServeMux()
	routes.Register(mux, "", openapi.NewSpec("test", "0.0.0"), h.Routes())
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	resp, raw := do(t, http.MethodDelete, srv.URL+"/images/"+img.ID.String(), nil, "")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("delete = %d, want 500: %s", resp.StatusCode, raw)
	}

	var body map[string]string
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "file could not be deleted" {
		t.Errorf("error = %q, want %q", body["error"], "file could not be deleted")
	}

	if _, err := f.meta.Find(context.Background(), img.ID); err != nil {
		t.Errorf("Find() after failed delete error = %v, want record kept", err)
	}
	if code, _ := representation(t, srv.URL, img.ID); code != http.StatusOK {
		t.Errorf("representation after failed delete = %d, want 200", code)
	}
}
