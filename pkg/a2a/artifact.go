package a2a

import "github.com/google/uuid"

/*
Artifact is the output of a task.
*/
type Artifact struct {
	ArtifactID string         `json:"artifactId"`
	Name       *string        `json:"name,omitempty"`
	Parts      []Part         `json:"parts"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func NewArtifact(parts ...Part) Artifact {
	return Artifact{
		ArtifactID: uuid.NewString(),
		Parts:      parts,
	}
}

func NewTextArtifact(name string, text string) Artifact {
	artifact := NewArtifact(NewTextPart(text))
	artifact.Name = &name
	return artifact
}

func NewFileArtifact(name string, mimeType string, data string) Artifact {
	artifact := NewArtifact(Part{
		Kind: PartKindFile,
		File: &FilePart{
			MimeType: &mimeType,
			Bytes:    data,
		},
	})
	artifact.Name = &name
	return artifact
}
