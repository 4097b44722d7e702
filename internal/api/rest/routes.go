package rest

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RouterOptions настройки HTTP-роутера
type RouterOptions struct {
	APIToken string
}

func NewRouter(handler *Handler, opts RouterOptions, logger logrus.FieldLogger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID())
	r.Use(accessLog(logger))

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", requestIDHeader}
	corsCfg.ExposeHeaders = []string{requestIDHeader}
	r.Use(cors.New(corsCfg))

	r.GET("/", handler.Home)
	r.GET("/health", handler.Health)
	r.GET("/attributes", handler.Attributes)
	r.GET("/attributes/:category", handler.Category)

	protected := r.Group("/", bearerAuth(opts.APIToken))
	protected.POST("/predict", handler.Predict)
	protected.POST("/classify", handler.Classify)

	return r
}
