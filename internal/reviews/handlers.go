package reviews

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"studyspots/internal/model"
	"studyspots/internal/store"
)

const maxBody = 4 << 20

func List(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		out, err := st.ListReviews(ctx)
		if err != nil {
			log.Printf("list reviews: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_fetch_reviews"})
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// Create inserts one review object or an array of them.
func Create(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBody))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
			return
		}
		batch, err := decodeReviews(body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		n, err := st.InsertReviews(ctx, batch)
		if err != nil {
			log.Printf("insert %d reviews: %v", len(batch), err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_insert_reviews"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"message": "Reviews added", "insertedCount": n})
	}
}

func decodeReviews(body []byte) ([]model.Review, error) {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		var batch []model.Review
		if err := json.Unmarshal(body, &batch); err != nil {
			return nil, err
		}
		return batch, nil
	}
	var one model.Review
	if err := json.Unmarshal(body, &one); err != nil {
		return nil, err
	}
	return []model.Review{one}, nil
}
