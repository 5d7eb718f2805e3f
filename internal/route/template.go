package route

import (
	"github.com/SeakMengs/CertEditor/internal/controller"
	"github.com/gin-gonic/gin"
)

func V1_Templates(r *gin.RouterGroup, tc *controller.TemplateController) {
	v1 := r.Group("/v1")
	{
		v1.GET("/templates", tc.GetTemplates)
		v1.GET("/fonts", tc.GetFonts)
	}
}
