package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// NewRouter builds the engine with recovery, request ids, logging and CORS.
// An empty origin list or "*" allows every origin.
func NewRouter(handler *Handler, allowedOrigins []string, logger *logrus.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), RequestLogger(logger))

	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", requestIDHeader},
		ExposeHeaders: []string{requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(allowedOrigins) == 0 || contains(allowedOrigins, "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = allowedOrigins
	}
	router.Use(cors.New(corsConfig))

	SetupRoutes(router, handler)
	return router
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

func SetupRoutes(router *gin.Engine, handler *Handler) {
	api := router.Group("/api")
	{
		api.GET("/health", handler.Health)

		api.GET("/properties", handler.SearchProperties)
		api.GET("/featured", handler.GetFeaturedProperties)
		api.GET("/properties/:id", handler.GetProperty)
		api.GET("/properties/:id/analysis", handler.GetPropertyAnalysis)
		api.GET("/properties/:id/amenities", handler.GetPropertyAmenities)
		api.GET("/properties/:id/risk", handler.GetPropertyRisk)
		api.POST("/analysis", handler.AnalyzeProperty)

		api.GET("/suburbs", handler.ListSuburbs)
		api.GET("/suburbs/:name", handler.GetSuburb)
		api.GET("/suburbs/:name/price-history", handler.GetSuburbPriceHistory)
		api.GET("/locations", handler.ListLocations)
		api.GET("/locations/suggest", handler.SuggestLocations)

		api.POST("/refresh", handler.RefreshListings)
		api.POST("/update-coordinates", handler.UpdateCoordinates)
	}
}
