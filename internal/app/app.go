package app

import (
	"time"

	"github.com/gin-gonic/gin"

	"studyspots/internal/explorer"
	"studyspots/internal/live"
	"studyspots/internal/locations"
	"studyspots/internal/middleware"
	"studyspots/internal/reviews"
	"studyspots/internal/store"
)

type Deps struct {
	Store         store.Store
	Sessions      *explorer.Registry
	Hub           *live.Hub
	SessionSecret string
	SessionTTL    time.Duration
	CORSOrigins   []string
}

func Router(d Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(d.CORSOrigins))
	_ = r.SetTrustedProxies(nil)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1")
	v1.GET("/locations", locations.List(d.Store))
	v1.POST("/locations", locations.Create(d.Store))
	v1.GET("/reviews", reviews.List(d.Store))
	v1.POST("/reviews", reviews.Create(d.Store))

	v1.POST("/sessions", explorer.CreateSession(d.Sessions, d.SessionSecret, d.SessionTTL))

	s := v1.Group("/session")
	s.Use(middleware.RequireSession(d.SessionSecret))

	s.GET("", explorer.GetView(d.Sessions))
	s.DELETE("", explorer.EndSession(d.Sessions))
	s.GET("/ws", explorer.Watch(d.Sessions, d.Hub))
	s.PUT("/filters", explorer.SetFilters(d.Sessions))
	s.POST("/filter-panel", explorer.SetFilterPanel(d.Sessions))
	s.POST("/map-click", explorer.MapClickHandler(d.Sessions))
	s.POST("/markers/:id/select", explorer.SelectMarker(d.Sessions))
	s.POST("/panel/close", explorer.ClosePanel(d.Sessions))
	s.POST("/form/open", explorer.OpenForm(d.Sessions))
	s.POST("/form/pick", explorer.RequestPick(d.Sessions))
	s.POST("/form/cancel", explorer.CancelForm(d.Sessions))
	s.POST("/locations", explorer.CreateLocation(d.Sessions))
	s.POST("/locations/:id/reviews", explorer.SubmitReview(d.Sessions))

	return r
}
