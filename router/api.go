package router

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/songquanpeng/prompt-studio/controller"
	"github.com/songquanpeng/prompt-studio/middleware"
)

func SetApiRouter(router *gin.Engine, h *controller.Handler) {
	apiRouter := router.Group("/api")
	apiRouter.Use(middleware.SessionState(h.Sessions))
	{
		apiRouter.GET("/status", h.GetStatus)

		userRoute := apiRouter.Group("/user")
		{
			userRoute.POST("/login", h.Login)
			userRoute.GET("/logout", h.Logout)
		}

		authRoute := apiRouter.Group("")
		authRoute.Use(middleware.UserAuth(h.Auth != nil))
		{
			authRoute.GET("/models", h.GetModels)
			authRoute.GET("/prompt_template/default", h.GetDefaultPromptTemplate)

			datasetRoute := authRoute.Group("/dataset")
			{
				datasetRoute.POST("", h.UploadDataset)
				datasetRoute.GET("", h.GetDataset)
				datasetRoute.PUT("/answer_field", h.UpdateAnswerField)
			}

			evalRoute := authRoute.Group("/evaluations")
			{
				evalRoute.GET("/algorithms", h.GetAlgorithms)
				evalRoute.POST("", h.RunEvaluation)
				evalRoute.GET("", h.ListEvaluations)
				evalRoute.DELETE("", h.ClearEvaluations)
				evalRoute.DELETE("/:index", h.DeleteEvaluation)

				downloadRoute := evalRoute.Group("/:index")
				downloadRoute.Use(gzip.Gzip(gzip.DefaultCompression))
				{
					downloadRoute.GET("/summary", h.DownloadSummary)
					downloadRoute.GET("/detail", h.DownloadDetail)
				}
			}
		}
	}
}
