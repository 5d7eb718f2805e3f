package controller

import (
	"github.com/SeakMengs/CertEditor/internal/util"
	"github.com/SeakMengs/CertEditor/pkg/certedit"
	"github.com/gin-gonic/gin"
)

type TemplateController struct {
	*baseController
}

type templateField struct {
	Key         certedit.FieldKey `json:"key"`
	Label       string            `json:"label"`
	Placeholder string            `json:"placeholder,omitempty"`
	Position    certedit.Position `json:"position"`
}

type templateResponse struct {
	DocumentType certedit.DocumentType `json:"documentType"`
	Title        string                `json:"title"`
	Orientation  certedit.Orientation  `json:"orientation"`
	Page         certedit.Size         `json:"page"`
	FontFamily   string                `json:"fontFamily"`
	FontSize     float64               `json:"fontSize"`
	Standalone   bool                  `json:"standalone"`
	Fields       []templateField       `json:"fields"`
}

func toTemplateResponse(t *certedit.Template) templateResponse {
	defaults := t.DefaultPositions()
	fields := make([]templateField, 0, len(t.Fields))
	for _, f := range t.Fields {
		fields = append(fields, templateField{
			Key:         f.Key,
			Label:       f.Label,
			Placeholder: f.Placeholder,
			Position:    defaults[f.Key],
		})
	}

	return templateResponse{
		DocumentType: t.Type,
		Title:        t.Type.Title(),
		Orientation:  t.Orientation,
		Page:         t.Page,
		FontFamily:   t.FontFamily,
		FontSize:     t.FontSize,
		Standalone:   t.Standalone,
		Fields:       fields,
	}
}

func (tc TemplateController) GetTemplates(ctx *gin.Context) {
	util.ResponseSuccess(ctx, gin.H{
		"templates": []templateResponse{
			toTemplateResponse(certedit.CertificateTemplate()),
			toTemplateResponse(certedit.MarksheetTemplate()),
		},
	})
}

func (tc TemplateController) GetFonts(ctx *gin.Context) {
	util.ResponseSuccess(ctx, gin.H{
		"fonts": tc.app.Fonts.Families(),
	})
}
