package candidates

import "time"

// Candidate is one recruiting subject and the raw sources collected for them.
type Candidate struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"ownerId"`
	Name            string    `json:"name"`
	ResumePath      string    `json:"resumePath,omitempty"`
	ResumeMimeType  string    `json:"resumeMimeType,omitempty"`
	ResumeText      string    `json:"resumeText"`
	LinkedInURL     string    `json:"linkedinUrl"`
	LinkedInContent string    `json:"linkedinContent"`
	ScreeningNotes  string    `json:"screeningNotes"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// CreateInput carries the fields accepted when a candidate is created.
type CreateInput struct {
	Name           string `json:"name"`
	LinkedInURL    string `json:"linkedinUrl"`
	ScreeningNotes string `json:"screeningNotes"`
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Name            *string `json:"name"`
	LinkedInURL     *string `json:"linkedinUrl"`
	LinkedInContent *string `json:"linkedinContent"`
	ScreeningNotes  *string `json:"screeningNotes"`
}

// Availability reports which sources have data for a candidate.
type Availability struct {
	Resume    bool `json:"resume"`
	LinkedIn  bool `json:"linkedin"`
	Screening bool `json:"screening"`
}

// Identity is the caller as resolved by the auth middleware.
type Identity struct {
	ID    string
	Email string
	Name  string
}
