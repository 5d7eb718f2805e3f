package controller

import (
	"errors"
	"net/http"

	appcontext "github.com/SeakMengs/CertEditor/internal/app_context"
	"github.com/SeakMengs/CertEditor/internal/record"
	"github.com/SeakMengs/CertEditor/internal/session"
	"github.com/SeakMengs/CertEditor/internal/util"
	"github.com/SeakMengs/CertEditor/pkg/certedit"
	"github.com/gin-gonic/gin"
)

type baseController struct {
	app *appcontext.Application
}

type Controller struct {
	Index    *IndexController
	Template *TemplateController
	Editor   *EditorController
}

func newBaseController(app *appcontext.Application) *baseController {
	return &baseController{app: app}
}

func NewController(app *appcontext.Application) *Controller {
	bc := newBaseController(app)

	return &Controller{
		Index:    &IndexController{baseController: bc},
		Template: &TemplateController{baseController: bc},
		Editor:   &EditorController{baseController: bc},
	}
}

const ErrEditorIdRequired = "editor id is required"

func (b *baseController) getSession(ctx *gin.Context) (*session.Session, bool) {
	editorId := ctx.Params.ByName("editorId")
	if editorId == "" {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Editor id is required", util.GenerateErrorMessages(errors.New(ErrEditorIdRequired), "editorId"), nil)
		return nil, false
	}

	s, err := b.app.Sessions.Get(editorId)
	if err != nil {
		b.responseError(ctx, "Editor not found", err)
		return nil, false
	}
	return s, true
}

func statusForError(err error) int {
	var ufe *certedit.UnknownFieldError
	switch {
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, record.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, certedit.ErrEditorClosed):
		return http.StatusGone
	case errors.Is(err, certedit.ErrExportInProgress):
		return http.StatusConflict
	case errors.Is(err, certedit.ErrUnknownDocumentType), errors.Is(err, record.ErrLookupDisabled), errors.As(err, &ufe):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (b *baseController) responseError(ctx *gin.Context, message string, err error) {
	code := statusForError(err)
	if code == http.StatusInternalServerError {
		b.app.Logger.Errorf("%s: %v", message, err)
	}
	util.ResponseFailed(ctx, code, message, util.GenerateErrorMessages(err), nil)
}
