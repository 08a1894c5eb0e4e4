package locations

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"studyspots/internal/model"
	"studyspots/internal/store"
)

func List(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		out, err := st.ListLocations(ctx)
		if err != nil {
			log.Printf("list locations: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_fetch_locations"})
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func Create(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var loc model.Location
		if err := c.ShouldBindJSON(&loc); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		id, err := st.InsertLocation(ctx, loc)
		if err != nil {
			log.Printf("insert location %q: %v", loc.Name, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_insert_location"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"message": "Location added", "insertedId": id})
	}
}
