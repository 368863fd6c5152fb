// Package store persists workflow document versions.
//
// Every successful merge or format produces a new canonical document; the
// store keeps the history so diffs can be computed between any two saved
// versions. Two backends are provided: memory (tests, ephemeral CLI use)
// and mongo (shared deployments). Version numbers are per-workflow and
// monotonically increasing; version IDs are UUIDs so externally shared
// references stay unambiguous across workflows.
package store

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for store operations.
var (
	// ErrNotFound is returned when a workflow or version does not exist.
	ErrNotFound = errors.New("not found")

	// ErrEmptyWorkflow is returned when the workflow name is empty.
	ErrEmptyWorkflow = errors.New("workflow name must not be empty")
)

// Version is one saved revision of a workflow document.
type Version struct {
	// ID is a UUID identifying this version globally.
	ID string `json:"id" bson:"_id"`
	// Workflow is the owning workflow's name.
	Workflow string `json:"workflow" bson:"workflow"`
	// Number is the per-workflow sequence number, starting at 1.
	Number int `json:"number" bson:"number"`
	// Document is the canonical serialized workflow.
	Document string `json:"document" bson:"document"`
	// CreatedAt is the save timestamp in UTC.
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Store is the interface for version storage backends.
type Store interface {
	// Put saves a new version of the workflow's document and returns it
	// with its assigned ID and sequence number.
	Put(ctx context.Context, workflow, document string) (Version, error)

	// Get retrieves one version by workflow name and sequence number.
	// Returns ErrNotFound if it does not exist.
	Get(ctx context.Context, workflow string, number int) (Version, error)

	// Latest retrieves the most recent version of a workflow.
	// Returns ErrNotFound for an unknown workflow.
	Latest(ctx context.Context, workflow string) (Version, error)

	// List returns all versions of a workflow in ascending sequence
	// order. An unknown workflow yields an empty slice, not an error.
	List(ctx context.Context, workflow string) ([]Version, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}
