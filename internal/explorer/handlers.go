package explorer

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"studyspots/internal/filter"
	"studyspots/internal/live"
)

type reviewReq struct {
	ReviewText string  `json:"reviewText"`
	Rating     float64 `json:"rating"`
}

type filterPanelReq struct {
	Open bool `json:"open"`
}

func CreateSession(reg *Registry, secret string, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		id, ctrl := reg.Create(ctx)
		token, err := MakeToken(secret, id, ttl)
		if err != nil {
			reg.Remove(id)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token_error"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"token": token, "view": ctrl.View()})
	}
}

func EndSession(reg *Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		reg.Remove(c.GetString("sessionID"))
		c.Status(http.StatusNoContent)
	}
}

func GetView(reg *Registry) gin.HandlerFunc {
	return withSession(reg, func(c *gin.Context, ctrl *Controller) {
		c.JSON(http.StatusOK, ctrl.View())
	})
}

func SetFilters(reg *Registry) gin.HandlerFunc {
	return withSession(reg, func(c *gin.Context, ctrl *Controller) {
		var f filter.Criteria
		if err := c.ShouldBindJSON(&f); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
			return
		}
		respond(c, ctrl, ctrl.SetFilters(f))
	})
}

func SetFilterPanel(reg *Registry) gin.HandlerFunc {
	return withSession(reg, func(c *gin.Context, ctrl *Controller) {
		var req filterPanelReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
			return
		}
		respond(c, ctrl, ctrl.SetFilterPanel(req.Open))
	})
}

func MapClickHandler(reg *Registry) gin.HandlerFunc {
	return withSession(reg, func(c *gin.Context, ctrl *Controller) {
		var click MapClick
		if err := c.ShouldBindJSON(&click); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
			return
		}
		respond(c, ctrl, ctrl.HandleMapClick(click))
	})
}

func SelectMarker(reg *Registry) gin.HandlerFunc {
	return withSession(reg, func(c *gin.Context, ctrl *Controller) {
		id, ok := locationParam(c)
		if !ok {
			return
		}
		respond(c, ctrl, ctrl.SelectMarker(id))
	})
}

func ClosePanel(reg *Registry) gin.HandlerFunc {
	return withSession(reg, func(c *gin.Context, ctrl *Controller) {
		respond(c, ctrl, ctrl.ClosePanel())
	})
}

func OpenForm(reg *Registry) gin.HandlerFunc {
	return withSession(reg, func(c *gin.Context, ctrl *Controller) {
		respond(c, ctrl, ctrl.OpenAddLocation())
	})
}

func RequestPick(reg *Registry) gin.HandlerFunc {
	return withSession(reg, func(c *gin.Context, ctrl *Controller) {
		draft := NewLocationForm()
		if err := c.ShouldBindJSON(&draft); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
			return
		}
		respond(c, ctrl, ctrl.RequestMapPick(draft))
	})
}

func CancelForm(reg *Registry) gin.HandlerFunc {
	return withSession(reg, func(c *gin.Context, ctrl *Controller) {
		respond(c, ctrl, ctrl.CancelAddLocation())
	})
}

func CreateLocation(reg *Registry) gin.HandlerFunc {
	return withSession(reg, func(c *gin.Context, ctrl *Controller) {
		form := NewLocationForm()
		if err := c.ShouldBindJSON(&form); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
			return
		}
		loc, err := ctrl.CreateLocation(form)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"location": loc, "view": ctrl.View()})
	})
}

func SubmitReview(reg *Registry) gin.HandlerFunc {
	return withSession(reg, func(c *gin.Context, ctrl *Controller) {
		id, ok := locationParam(c)
		if !ok {
			return
		}
		var req reviewReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
			return
		}
		r, err := ctrl.SubmitReview(id, req.ReviewText, req.Rating)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"review": r, "view": ctrl.View()})
	})
}

// Watch streams the session view over a websocket. The session is kept
// alive for as long as the connection is open.
func Watch(reg *Registry, hub *live.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetString("sessionID")
		ctrl, release, err := reg.Attach(id)
		if err != nil {
			writeError(c, err)
			return
		}
		defer release()

		hub.Serve(c, id, func() (uint64, any) {
			v := ctrl.View()
			return v.Version, v
		})
	}
}

func withSession(reg *Registry, fn func(*gin.Context, *Controller)) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctrl, err := reg.Get(c.GetString("sessionID"))
		if err != nil {
			writeError(c, err)
			return
		}
		fn(c, ctrl)
	}
}

func locationParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_location_id"})
		return 0, false
	}
	return id, true
}

func respond(c *gin.Context, ctrl *Controller, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ctrl.View())
}

func writeError(c *gin.Context, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Code, "field": verr.Field})
	case errors.Is(err, ErrUnknownLocation):
		c.JSON(http.StatusNotFound, gin.H{"error": "location_not_found"})
	case errors.Is(err, ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "session_not_found"})
	default:
		log.Printf("session request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
