package images_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/JaimeStill/image-lab/internal/images"
	"github.com/JaimeStill/image-lab/pkg/lifecycle"
	"github.com/JaimeStill/image-lab/pkg/openapi"
	"github.com/JaimeStill/image-lab/pkg/routes"
	"github.com/JaimeStill/image-lab/pkg/storage"
	"github.com/google/uuid"
)

const testBaseURL = "http://images.test"

const maxUpload = 1 << 20

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	sys   images.System
	blobs storage.System
	meta  images.MetadataStore
	dir   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	blobs, err := storage.New(&storage.Config{BasePath: dir}, testLogger())
	if err != nil {
		t.Fatalf("storage.New() failed: %v", err)
	}

	lc := lifecycle.New()
	if err := blobs.Start(lc); err != nil {
		t.Fatalf("storage Start() failed: %v", err)
	}
	lc.WaitForStartup()

	meta := images.NewFileMetadata(blobs)
	sys := images.New(blobs, meta, testLogger(), images.Options{BaseURL: testBaseURL, JPEGQuality: 90, MaxDimension: 1000})

	return &fixture{sys: sys, blobs: blobs, meta: meta, dir: dir}
}

// server exposes the fixture through the real route table.
func (f *fixture) server(t *testing.T) *httptest.Server {
	t.Helper()

	h := images.NewHandler(f.sys, testLogger(), maxUpload)
	mux := http.NewServeMux()
	routes.Register(mux, "", openapi.NewSpec("test", "0.0.0"), h.Routes())

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func (f *fixture) create(t *testing.T, name string, data []byte) *images.Image {
	t.Helper()
	img, err := f.sys.Create(context.Background(), images.Upload{Name: name, Data: data})
	if err != nil {
		t.Fatalf("Create(%s) failed: %v", name, err)
	}
	return img
}

func (f *fixture) blob(t *testing.T, id uuid.UUID) []byte {
	t.Helper()
	img, err := f.meta.Find(context.Background(), id)
	if err != nil {
		t.Fatalf("Find(%s) failed: %v", id, err)
	}
	data, err := f.blobs.Retrieve(context.Background(), img.StorageKey())
	if err != nil {
		t.Fatalf("Retrieve(%s) failed: %v", img.StorageKey(), err)
	}
	return data
}

func solid(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	return img
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, solid(w, h, color.NRGBA{R: 200, G: 80, B: 40, A: 255})); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

// apngBytes marks a PNG as animated by inserting an acTL chunk after IHDR.
func apngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	data := pngBytes(t, w, h)

	// signature (8) + IHDR length, type, body, crc (4+4+13+4)
	const ihdrEnd = 33

	body := make([]byte, 8)
	binary.BigEndian.PutUint32(body[0:4], 1)

	chunk := binary.BigEndian.AppendUint32(nil, uint32(len(body)))
	chunk = append(chunk, "acTL"...)
	chunk = append(chunk, body...)
	chunk = binary.BigEndian.AppendUint32(chunk, crc32.ChecksumIEEE(chunk[4:]))

	out := append([]byte{}, data[:ihdrEnd]...)
	out = append(out, chunk...)
	return append(out, data[ihdrEnd:]...)
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, solid(w, h, color.NRGBA{R: 30, G: 120, B: 220, A: 255}), nil); err != nil {
		t.Fatalf("jpeg encode: %v", err)
	}
	return buf.Bytes()
}

// decodeConfig reports the format name and size of encoded bytes.
func decodeConfig(t *testing.T, data []byte) (string, int, int) {
	t.Helper()
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeConfig() failed: %v", err)
	}
	return format, cfg.Width, cfg.Height
}

// multipartBody builds a form with an optional file part and plain fields.
func multipartBody(t *testing.T, filename string, data []byte, fields url.Values) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if data != nil {
		part, err := w.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		part.Write(data)
	}
	for k, vs := range fields {
		for _, v := range vs {
			w.WriteField(k, v)
		}
	}
	w.Close()

	return &buf, w.FormDataContentType()
}

func do(t *testing.T, method, target string, body io.Reader, contentType string, header ...string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, target, body)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func form(pairs ...string) string {
	v := url.Values{}
	for i := 0; i+1 < len(pairs); i += 2 {
		v.Set(pairs[i], pairs[i+1])
	}
	return v.Encode()
}

func formBody(pairs ...string) (io.Reader, string) {
	return strings.NewReader(form(pairs...)), "application/x-www-form-urlencoded"
}
