package route

import (
	"github.com/SeakMengs/CertEditor/internal/controller"
	"github.com/gin-gonic/gin"
)

func V1_Editors(r *gin.RouterGroup, ec *controller.EditorController) {
	v1 := r.Group("/v1/editors")
	{
		v1.POST("", ec.OpenEditor)
		v1.GET("/:editorId", ec.GetEditor)
		v1.DELETE("/:editorId", ec.CloseEditor)
		v1.PATCH("/:editorId/move-mode", ec.SetMoveMode)
		v1.PATCH("/:editorId/style", ec.SetStyle)
		v1.PATCH("/:editorId/fields/:fieldKey", ec.UpdateField)
		v1.POST("/:editorId/pointer", ec.HandlePointer)
		v1.POST("/:editorId/reset", ec.ResetPositions)
		v1.POST("/:editorId/signature", ec.UploadSignature)
		v1.DELETE("/:editorId/signature", ec.RemoveSignature)
		v1.POST("/:editorId/export", ec.Export)
	}
}
