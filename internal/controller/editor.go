package controller

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/SeakMengs/CertEditor/internal/constant"
	"github.com/SeakMengs/CertEditor/internal/util"
	"github.com/SeakMengs/CertEditor/pkg/certedit"
	"github.com/gin-gonic/gin"
)

type EditorController struct {
	*baseController
}

type editorResponse struct {
	ID            string                  `json:"id"`
	State         certedit.State          `json:"state"`
	Exporting     bool                    `json:"exporting"`
	Notifications []certedit.Notification `json:"notifications"`
}

func (ec EditorController) editorResponse(ctx *gin.Context, id string) {
	s, err := ec.app.Sessions.Get(id)
	if err != nil {
		ec.responseError(ctx, "Editor not found", err)
		return
	}

	notes := s.Notes.Drain()
	if notes == nil {
		notes = []certedit.Notification{}
	}

	util.ResponseSuccess(ctx, gin.H{
		"editor": editorResponse{
			ID:            s.ID,
			State:         s.Editor.State(),
			Exporting:     s.Exporter.Busy(),
			Notifications: notes,
		},
	})
}

// defaultBackground uses {documentType}.png from the template directory when present.
func (ec EditorController) defaultBackground(d certedit.DocumentType) certedit.ImageRef {
	key := string(d) + ".png"
	if _, err := os.Stat(filepath.Join(ec.app.Config.Editor.TemplateDir, key)); err != nil {
		return certedit.ImageRef{}
	}
	return certedit.ImageRef{Origin: certedit.OriginLocal, Key: key}
}

func (ec EditorController) OpenEditor(ctx *gin.Context) {
	type Request struct {
		DocumentType string             `json:"documentType" form:"documentType" binding:"required,oneof=certificate marksheet"`
		RecordID     string             `json:"recordId" form:"recordId" binding:"omitempty,strNotEmpty,max=100"`
		Record       *certedit.Record   `json:"record"`
		Background   *certedit.ImageRef `json:"background"`
	}
	var body Request

	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	docType, err := certedit.ParseDocumentType(body.DocumentType)
	if err != nil {
		ec.responseError(ctx, "Invalid document type", err)
		return
	}
	tmpl, err := certedit.TemplateFor(docType)
	if err != nil {
		ec.responseError(ctx, "Invalid document type", err)
		return
	}

	if body.Background != nil && !body.Background.IsZero() {
		tmpl.Background = *body.Background
	} else {
		tmpl.Background = ec.defaultBackground(docType)
	}

	var rec certedit.Record
	switch {
	case body.Record != nil:
		rec = *body.Record
	case body.RecordID != "":
		rec, err = ec.app.Records.Get(ctx.Request.Context(), strings.TrimSpace(body.RecordID))
		if err != nil {
			ec.responseError(ctx, "Failed to get record", err)
			return
		}
	}

	s, err := ec.app.Sessions.Open(tmpl, rec)
	if err != nil {
		ec.responseError(ctx, "Failed to open editor", err)
		return
	}

	ec.editorResponse(ctx, s.ID)
}

func (ec EditorController) GetEditor(ctx *gin.Context) {
	s, ok := ec.getSession(ctx)
	if !ok {
		return
	}
	ec.editorResponse(ctx, s.ID)
}

func (ec EditorController) CloseEditor(ctx *gin.Context) {
	s, ok := ec.getSession(ctx)
	if !ok {
		return
	}

	if err := ec.app.Sessions.Close(ctx.Request.Context(), s.ID); err != nil {
		ec.responseError(ctx, "Failed to close editor", err)
		return
	}
	util.ResponseSuccess(ctx, nil)
}

func (ec EditorController) SetMoveMode(ctx *gin.Context) {
	type Request struct {
		Enabled *bool `json:"enabled" form:"enabled" binding:"required"`
	}
	var body Request

	s, ok := ec.getSession(ctx)
	if !ok {
		return
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	if err := s.Editor.SetMoveMode(*body.Enabled); err != nil {
		ec.responseError(ctx, "Failed to set move mode", err)
		return
	}
	ec.editorResponse(ctx, s.ID)
}

func (ec EditorController) SetStyle(ctx *gin.Context) {
	type Request struct {
		FontFamily string  `json:"fontFamily" form:"fontFamily" binding:"omitempty,strNotEmpty,cmax=100"`
		FontSize   float64 `json:"fontSize" form:"fontSize" binding:"omitempty,gte=1,lte=200"`
	}
	var body Request

	s, ok := ec.getSession(ctx)
	if !ok {
		return
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	if err := s.Editor.SetGlobalFont(strings.TrimSpace(body.FontFamily), body.FontSize); err != nil {
		ec.responseError(ctx, "Failed to set style", err)
		return
	}
	ec.editorResponse(ctx, s.ID)
}

func (ec EditorController) UpdateField(ctx *gin.Context) {
	type Overrides struct {
		FontSize   float64 `json:"fontSize" binding:"required,gte=1,lte=200"`
		FontWeight string  `json:"fontWeight" binding:"omitempty,oneof=regular bold normal 400 700"`
		Color      string  `json:"color" binding:"omitempty,hexcolor"`
		FontFamily string  `json:"fontFamily" binding:"omitempty,strNotEmpty,cmax=100"`
	}
	type Request struct {
		Content   *string    `json:"content" binding:"omitempty,max=500"`
		Overrides *Overrides `json:"overrides"`
	}
	var body Request

	s, ok := ec.getSession(ctx)
	if !ok {
		return
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	key := certedit.FieldKey(ctx.Params.ByName("fieldKey"))
	if !s.Editor.Template().Has(key) {
		ec.responseError(ctx, "Unknown field", &certedit.UnknownFieldError{Key: key, DocumentType: s.Editor.DocumentType()})
		return
	}

	if body.Content != nil {
		if err := s.Editor.SetContent(key, *body.Content); err != nil {
			ec.responseError(ctx, "Failed to update field", err)
			return
		}
	}

	if body.Overrides != nil {
		current, err := s.Editor.Field(key)
		if err != nil {
			ec.responseError(ctx, "Failed to update field", err)
			return
		}
		if current.Overrides == nil {
			util.ResponseFailed(ctx, http.StatusBadRequest, "Field styling follows the global controls", util.GenerateErrorMessages(fmt.Errorf("%s fields cannot be styled individually", s.Editor.DocumentType()), "overrides"), nil)
			return
		}

		o := certedit.VisualOverrides{
			FontSize:   body.Overrides.FontSize,
			FontWeight: certedit.ParseFontWeight(body.Overrides.FontWeight),
			Color:      body.Overrides.Color,
			FontFamily: strings.TrimSpace(body.Overrides.FontFamily),
		}
		if strings.TrimSpace(body.Overrides.FontWeight) == "" {
			o.FontWeight = current.Overrides.FontWeight
		}
		if o.Color == "" {
			o.Color = current.Overrides.Color
		}
		if o.FontFamily == "" {
			o.FontFamily = current.Overrides.FontFamily
		}
		if err := s.Editor.SetOverrides(key, o); err != nil {
			ec.responseError(ctx, "Failed to update field", err)
			return
		}
	}

	ec.editorResponse(ctx, s.ID)
}

func (ec EditorController) HandlePointer(ctx *gin.Context) {
	type Request struct {
		Kind    string           `json:"kind" binding:"required,oneof=pointerdown pointermove pointerup pointerleave touchstart touchmove touchend"`
		Field   string           `json:"field" binding:"required_if=Kind pointerdown,required_if=Kind touchstart"`
		ClientX float64          `json:"clientX"`
		ClientY float64          `json:"clientY"`
		Touches []certedit.Touch `json:"touches"`
		Bounds  certedit.Bounds  `json:"bounds"`
	}
	var body Request

	s, ok := ec.getSession(ctx)
	if !ok {
		return
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	changed, err := s.Editor.HandlePointer(certedit.PointerEvent{
		Kind:    certedit.PointerKind(body.Kind),
		Field:   certedit.FieldKey(body.Field),
		ClientX: body.ClientX,
		ClientY: body.ClientY,
		Touches: body.Touches,
		Bounds:  body.Bounds,
	})
	if err != nil {
		ec.responseError(ctx, "Failed to handle pointer event", err)
		return
	}

	dragging, _ := s.Editor.Dragging()
	util.ResponseSuccess(ctx, gin.H{
		"changed":  changed,
		"dragging": dragging,
		"fields":   s.Editor.State().Fields,
	})
}

func (ec EditorController) ResetPositions(ctx *gin.Context) {
	s, ok := ec.getSession(ctx)
	if !ok {
		return
	}

	if err := s.Editor.ResetPositions(); err != nil {
		ec.responseError(ctx, "Failed to reset positions", err)
		return
	}
	ec.editorResponse(ctx, s.ID)
}

func (ec EditorController) UploadSignature(ctx *gin.Context) {
	s, ok := ec.getSession(ctx)
	if !ok {
		return
	}

	sigFile, err := ctx.FormFile("signatureFile")
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "No signature file uploaded", util.GenerateErrorMessages(errors.New("signature file is required"), "signatureFile"), nil)
		return
	}

	ext := strings.ToLower(filepath.Ext(sigFile.Filename))
	if !slices.Contains(constant.ALLOWED_SIGNATURE_FILE_TYPE, ext) {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid file type", util.GenerateErrorMessages(fmt.Errorf("invalid file type %s", ext), "signatureFile"), nil)
		return
	}
	if sigFile.Size > constant.MAX_SIGNATURE_FILE_SIZE {
		util.ResponseFailed(ctx, http.StatusBadRequest, "File too large", util.GenerateErrorMessages(errors.New("signature file must be at most 5 MB"), "signatureFile"), nil)
		return
	}

	file, err := sigFile.Open()
	if err != nil {
		ec.responseError(ctx, "Failed to read signature file", err)
		return
	}
	defer file.Close()

	data, err := certedit.NormalizeSignature(file)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid signature image", util.GenerateErrorMessages(err, "signatureFile"), nil)
		return
	}

	reqCtx := ctx.Request.Context()
	handle, err := ec.app.Blobs.Put(reqCtx, bytes.NewReader(data), int64(len(data)), "image/png")
	if err != nil {
		ec.responseError(ctx, "Failed to store signature", err)
		return
	}

	if err := s.Editor.SetSignatureImage(reqCtx, handle); err != nil {
		// The editor never took ownership, release the upload here.
		if rerr := ec.app.Blobs.Revoke(context.WithoutCancel(reqCtx), handle); rerr != nil {
			ec.app.Logger.Warnf("Failed to revoke orphan signature %s: %v", handle, rerr)
		}
		ec.responseError(ctx, "Failed to set signature", err)
		return
	}

	ec.editorResponse(ctx, s.ID)
}

func (ec EditorController) RemoveSignature(ctx *gin.Context) {
	s, ok := ec.getSession(ctx)
	if !ok {
		return
	}

	if err := s.Editor.ClearSignatureImage(ctx.Request.Context()); err != nil {
		ec.responseError(ctx, "Failed to remove signature", err)
		return
	}
	ec.editorResponse(ctx, s.ID)
}

// Export answers with the PDF as an attachment. Failures answer with the
// envelope and leave a notification on the editor.
func (ec EditorController) Export(ctx *gin.Context) {
	s, ok := ec.getSession(ctx)
	if !ok {
		return
	}

	_, err := s.Exporter.Export(ctx.Request.Context(), s.Editor, certedit.DelivererFunc(func(_ context.Context, d certedit.Download) error {
		ctx.Header("X-Export-Id", d.ID)
		util.ResponseAttachment(ctx, d.Filename, d.ContentType, d.Data)
		return nil
	}))
	if err != nil {
		ec.responseError(ctx, "Failed to export", err)
		return
	}
}
