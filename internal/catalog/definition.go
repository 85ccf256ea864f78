package catalog

import "time"

// ExerciseDefinition is a shared catalog entry that routine exercises
// reference. Not user-owned.
type ExerciseDefinition struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	VideoURL    string    `json:"video_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
