package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// newReviewID names reviews that arrive without an id, e.g. bulk imports.
func newReviewID() string {
	return fmt.Sprintf("rev-%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}
