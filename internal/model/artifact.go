package model

import "time"

// ArtifactStatus represents the status of a produced artifact.
type ArtifactStatus string

const (
	// ArtifactStatusCreated indicates the producing stage registered the file.
	ArtifactStatusCreated ArtifactStatus = "created"
)

// ArtifactRecord is the registry entry of a file produced by a pipeline
// stage. Registration is a claim, readiness checks still verify the file
// exists in the workspace before trusting it.
type ArtifactRecord struct {
	FileName  string
	CreatedBy string
	Status    ArtifactStatus
	CreatedAt time.Time
}
