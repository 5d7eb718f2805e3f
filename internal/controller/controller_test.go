package controller_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	appcontext "github.com/SeakMengs/CertEditor/internal/app_context"
	"github.com/SeakMengs/CertEditor/internal/config"
	"github.com/SeakMengs/CertEditor/internal/controller"
	"github.com/SeakMengs/CertEditor/internal/record"
	"github.com/SeakMengs/CertEditor/internal/route"
	"github.com/SeakMengs/CertEditor/internal/session"
	"github.com/SeakMengs/CertEditor/internal/util"
	"github.com/SeakMengs/CertEditor/pkg/certedit"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type pdfAssembler struct{}

func (pdfAssembler) Assemble(w io.Writer, _ image.Image, _ certedit.PageSpec) error {
	_, err := w.Write([]byte("%PDF-test"))
	return err
}

type recordMap map[string]certedit.Record

func (m recordMap) Get(_ context.Context, id string) (certedit.Record, error) {
	rec, ok := m[id]
	if !ok {
		return certedit.Record{}, record.ErrRecordNotFound
	}
	return rec, nil
}

type testServer struct {
	router *gin.Engine
	app    *appcontext.Application
	blobs  *certedit.MemoryBlobStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		for tag, fn := range map[string]validator.Func{"strNotEmpty": util.StrNotEmpty, "cmin": util.CustomMin, "cmax": util.CustomMax} {
			if err := v.RegisterValidation(tag, fn); err != nil {
				t.Fatalf("failed to register %s: %v", tag, err)
			}
		}
	}

	blobs := certedit.NewMemoryBlobStore()
	blank := certedit.RasterizerFunc(func(context.Context, certedit.Snapshot, float64) (image.Image, error) {
		return image.NewRGBA(image.Rect(0, 0, 4, 2)), nil
	})
	sessions := session.NewRegistry(session.Options{
		Blobs:      blobs,
		Rasterizer: blank,
		Assembler:  pdfAssembler{},
		Now:        func() time.Time { return time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC) },
	})

	cfg := config.Config{Editor: config.EditorConfig{TemplateDir: t.TempDir()}}
	app := &appcontext.Application{
		Config:   &cfg,
		Logger:   zap.NewNop().Sugar(),
		Sessions: sessions,
		Fonts:    certedit.NewFontLoader(nil, nil),
		Blobs:    blobs,
		Records: recordMap{
			"abc123456789": {ID: "abc123456789", FirstName: "Amit", LastName: "Shah"},
		},
	}

	c := controller.NewController(app)
	r := gin.New()
	r.GET("/", c.Index.Index)
	api := r.Group("/api")
	route.V1_Templates(api, c.Template)
	route.V1_Editors(api, c.Editor)

	return &testServer{router: r, app: app, blobs: blobs}
}

func (s *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

type editorBody struct {
	Success bool `json:"success"`
	Data    struct {
		Editor controller.EditorResponse `json:"editor"`
	} `json:"data"`
}

func decodeEditor(t *testing.T, w *httptest.ResponseRecorder) controller.EditorResponse {
	t.Helper()
	var body editorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	if !body.Success {
		t.Fatalf("expected success, got %s", w.Body.String())
	}
	return body.Data.Editor
}

func fieldState(ed controller.EditorResponse, key certedit.FieldKey) certedit.FieldState {
	for _, f := range ed.State.Fields {
		if f.Key == key {
			return f
		}
	}
	return certedit.FieldState{}
}

func (s *testServer) open(t *testing.T, body any) controller.EditorResponse {
	t.Helper()
	w := s.do(http.MethodPost, "/api/v1/editors", body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 opening editor, got %d: %s", w.Code, w.Body.String())
	}
	return decodeEditor(t, w)
}

func TestOpenEditor(t *testing.T) {
	s := newTestServer(t)

	ed := s.open(t, gin.H{
		"documentType": "certificate",
		"record":       gin.H{"id": "abc123456789", "firstName": "Amit", "lastName": "Shah"},
	})

	if ed.ID == "" {
		t.Fatal("expected an editor id")
	}
	if ed.State.DocumentType != certedit.DocumentCertificate || ed.State.Subject != "Amit Shah" {
		t.Errorf("unexpected state %+v", ed.State)
	}
	if got := fieldState(ed, certedit.FieldStudentName).Text; got != "Amit Shah" {
		t.Errorf("expected seeded student name, got %q", got)
	}
	if s.app.Sessions.Len() != 1 {
		t.Errorf("expected one open session, got %d", s.app.Sessions.Len())
	}
}

func TestOpenEditorByRecordId(t *testing.T) {
	s := newTestServer(t)

	ed := s.open(t, gin.H{"documentType": "marksheet", "recordId": "abc123456789"})
	if got := fieldState(ed, certedit.FieldRollNumber).Text; got != "456789" {
		t.Errorf("expected roll number from the record, got %q", got)
	}

	w := s.do(http.MethodPost, "/api/v1/editors", gin.H{"documentType": "marksheet", "recordId": "missing"})
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for an unknown record, got %d", w.Code)
	}
}

func TestOpenEditorValidation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body any
	}{
		{"missing type", gin.H{}},
		{"unknown type", gin.H{"documentType": "diploma"}},
		{"blank record id", gin.H{"documentType": "certificate", "recordId": "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := s.do(http.MethodPost, "/api/v1/editors", tt.body); w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestEditorNotFound(t *testing.T) {
	s := newTestServer(t)

	if w := s.do(http.MethodGet, "/api/v1/editors/nope", nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestDragThroughPointerEvents(t *testing.T) {
	s := newTestServer(t)
	ed := s.open(t, gin.H{"documentType": "certificate"})
	base := "/api/v1/editors/" + ed.ID
	bounds := gin.H{"left": 0, "top": 0, "width": 500, "height": 100}

	// Without move mode a press does nothing.
	w := s.do(http.MethodPost, base+"/pointer", gin.H{"kind": "pointerdown", "field": "grade", "bounds": bounds})
	if w.Code != http.StatusOK || strings.Contains(w.Body.String(), `"changed":true`) {
		t.Fatalf("expected ignored press, got %d: %s", w.Code, w.Body.String())
	}

	if w := s.do(http.MethodPatch, base+"/move-mode", gin.H{"enabled": true}); w.Code != http.StatusOK {
		t.Fatalf("expected 200 enabling move mode, got %d", w.Code)
	}
	s.do(http.MethodPost, base+"/pointer", gin.H{"kind": "pointerdown", "field": "grade", "bounds": bounds})
	s.do(http.MethodPost, base+"/pointer", gin.H{"kind": "pointermove", "clientX": 400, "clientY": 20, "bounds": bounds})
	s.do(http.MethodPost, base+"/pointer", gin.H{"kind": "pointerup", "bounds": bounds})

	got := decodeEditor(t, s.do(http.MethodGet, base, nil))
	if p := fieldState(got, certedit.FieldGrade).Position; p != (certedit.Position{Top: 20, Left: 80}) {
		t.Errorf("expected grade at 20/80, got %+v", p)
	}
	if got.State.Dragging != "" {
		t.Errorf("drag still active: %q", got.State.Dragging)
	}

	reset := decodeEditor(t, s.do(http.MethodPost, base+"/reset", nil))
	if p := fieldState(reset, certedit.FieldGrade).Position; p != (certedit.Position{Top: 71, Left: 50}) {
		t.Errorf("expected grade back at its default, got %+v", p)
	}
}

func TestPointerValidation(t *testing.T) {
	s := newTestServer(t)
	ed := s.open(t, gin.H{"documentType": "certificate"})

	tests := []struct {
		name string
		body any
	}{
		{"unknown kind", gin.H{"kind": "click"}},
		{"press without field", gin.H{"kind": "pointerdown"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := s.do(http.MethodPost, "/api/v1/editors/"+ed.ID+"/pointer", tt.body); w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
		})
	}
}

func TestUpdateField(t *testing.T) {
	s := newTestServer(t)
	cert := s.open(t, gin.H{"documentType": "certificate"})
	mark := s.open(t, gin.H{"documentType": "marksheet"})

	tests := []struct {
		name     string
		path     string
		body     any
		expected int
	}{
		{"certificate content", "/api/v1/editors/" + cert.ID + "/fields/grade", gin.H{"content": "Grade: A+"}, http.StatusOK},
		{"unknown field", "/api/v1/editors/" + cert.ID + "/fields/bogus", gin.H{"content": "x"}, http.StatusBadRequest},
		{"field of the other template", "/api/v1/editors/" + mark.ID + "/fields/enrollmentNo", gin.H{"content": "x"}, http.StatusBadRequest},
		{"certificate overrides", "/api/v1/editors/" + cert.ID + "/fields/grade", gin.H{"overrides": gin.H{"fontSize": 20}}, http.StatusBadRequest},
		{"marksheet overrides", "/api/v1/editors/" + mark.ID + "/fields/totalMarks", gin.H{"overrides": gin.H{"fontSize": 22, "fontWeight": "bold", "color": "#336699"}}, http.StatusOK},
		{"bad colour", "/api/v1/editors/" + mark.ID + "/fields/totalMarks", gin.H{"overrides": gin.H{"fontSize": 22, "color": "blue"}}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := s.do(http.MethodPatch, tt.path, tt.body); w.Code != tt.expected {
				t.Errorf("expected %d, got %d: %s", tt.expected, w.Code, w.Body.String())
			}
		})
	}

	got := decodeEditor(t, s.do(http.MethodGet, "/api/v1/editors/"+mark.ID, nil))
	style := fieldState(got, certedit.FieldTotalMarks).Style
	if style.FontSize != 22 || style.FontWeight != certedit.FontWeightBold || style.Color != "#336699" {
		t.Errorf("overrides not applied: %+v", style)
	}
}

func TestUpdateFieldKeepsOmittedOverrides(t *testing.T) {
	s := newTestServer(t)
	mark := s.open(t, gin.H{"documentType": "marksheet"})
	path := "/api/v1/editors/" + mark.ID + "/fields/totalMarks"

	if w := s.do(http.MethodPatch, path, gin.H{"overrides": gin.H{"fontSize": 22, "fontWeight": "bold", "color": "#336699"}}); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	got := decodeEditor(t, s.do(http.MethodPatch, path, gin.H{"overrides": gin.H{"fontSize": 24}}))
	style := fieldState(got, certedit.FieldTotalMarks).Style
	if style.FontSize != 24 {
		t.Errorf("expected font size 24, got %v", style.FontSize)
	}
	if style.FontWeight != certedit.FontWeightBold {
		t.Errorf("expected weight to stay bold, got %q", style.FontWeight)
	}
	if style.Color != "#336699" {
		t.Errorf("expected colour to stay #336699, got %q", style.Color)
	}

	got = decodeEditor(t, s.do(http.MethodPatch, path, gin.H{"overrides": gin.H{"fontSize": 24, "fontWeight": "regular"}}))
	if w := fieldState(got, certedit.FieldTotalMarks).Style.FontWeight; w != certedit.FontWeightRegular {
		t.Errorf("expected an explicit regular weight to apply, got %q", w)
	}
}

func TestSetStyle(t *testing.T) {
	s := newTestServer(t)
	ed := s.open(t, gin.H{"documentType": "certificate"})

	got := decodeEditor(t, s.do(http.MethodPatch, "/api/v1/editors/"+ed.ID+"/style", gin.H{"fontFamily": "Georgia", "fontSize": 20}))
	if got.State.Global.FontFamily != "Georgia" || got.State.Global.FontSize != 20 {
		t.Errorf("unexpected global style %+v", got.State.Global)
	}
	if size := fieldState(got, certedit.FieldStudentName).Style.FontSize; size != 28 {
		t.Errorf("expected student name at 28, got %v", size)
	}
}

func signatureUpload(t *testing.T, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("signatureFile", filename)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(data)
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func signaturePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 60, 30))
	img.Set(10, 10, color.Black)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestSignatureUploadAndRemove(t *testing.T) {
	s := newTestServer(t)
	ed := s.open(t, gin.H{"documentType": "certificate"})
	path := "/api/v1/editors/" + ed.ID + "/signature"

	upload := func(filename string, data []byte) *httptest.ResponseRecorder {
		body, contentType := signatureUpload(t, filename, data)
		req := httptest.NewRequest(http.MethodPost, path, body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		return w
	}

	w := upload("sig.png", signaturePNG(t))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !fieldState(decodeEditor(t, w), certedit.FieldSignature).HasImage {
		t.Error("signature not marked as image")
	}

	// Replacing revokes the previous upload.
	upload("sig.png", signaturePNG(t))
	if s.blobs.Len() != 1 {
		t.Errorf("expected one live signature, got %d", s.blobs.Len())
	}

	if w := upload("sig.gif", signaturePNG(t)); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for gif, got %d", w.Code)
	}
	if w := upload("sig.png", []byte("not an image")); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for garbage, got %d", w.Code)
	}
	if s.blobs.Len() != 1 {
		t.Errorf("rejected uploads left blobs behind: %d", s.blobs.Len())
	}

	got := decodeEditor(t, s.do(http.MethodDelete, path, nil))
	if fieldState(got, certedit.FieldSignature).HasImage || s.blobs.Len() != 0 {
		t.Errorf("signature not removed, %d live blobs", s.blobs.Len())
	}
}

func TestExport(t *testing.T) {
	s := newTestServer(t)
	ed := s.open(t, gin.H{
		"documentType": "certificate",
		"record":       gin.H{"firstName": "Amit", "lastName": "Shah"},
	})

	w := s.do(http.MethodPost, "/api/v1/editors/"+ed.ID+"/export", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("expected application/pdf, got %q", ct)
	}
	expected := `attachment; filename="Amit_Shah_Certificate_2024-03-15.pdf"`
	if cd := w.Header().Get("Content-Disposition"); cd != expected {
		t.Errorf("expected %q, got %q", expected, cd)
	}
	if w.Body.String() != "%PDF-test" {
		t.Errorf("unexpected body %q", w.Body.String())
	}

	got := decodeEditor(t, s.do(http.MethodGet, "/api/v1/editors/"+ed.ID, nil))
	if len(got.Notifications) != 1 || got.Notifications[0].Level != certedit.NotifySuccess {
		t.Errorf("expected a success notification, got %+v", got.Notifications)
	}
}

func TestCloseEditor(t *testing.T) {
	s := newTestServer(t)
	ed := s.open(t, gin.H{"documentType": "certificate"})
	path := "/api/v1/editors/" + ed.ID

	if w := s.do(http.MethodDelete, path, nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w := s.do(http.MethodGet, path, nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 after close, got %d", w.Code)
	}
	if w := s.do(http.MethodPost, path+"/export", nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 exporting a closed editor, got %d", w.Code)
	}
}

func TestTemplatesAndFonts(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/v1/templates", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"documentType":"marksheet"`) {
		t.Errorf("unexpected templates response %d: %s", w.Code, w.Body.String())
	}

	w = s.do(http.MethodGet, "/api/v1/fonts", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"fonts":[`) {
		t.Errorf("unexpected fonts response %d: %s", w.Code, w.Body.String())
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err      error
		expected int
	}{
		{session.ErrSessionNotFound, http.StatusNotFound},
		{fmt.Errorf("lookup: %w", record.ErrRecordNotFound), http.StatusNotFound},
		{certedit.ErrEditorClosed, http.StatusGone},
		{certedit.ErrExportInProgress, http.StatusConflict},
		{&certedit.UnknownFieldError{Key: "bogus"}, http.StatusBadRequest},
		{record.ErrLookupDisabled, http.StatusBadRequest},
		{errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := controller.StatusForError(tt.err); got != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}
