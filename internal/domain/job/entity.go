// internal/domain/job/entity.go
package job

import "time"

type Status string

const (
	// StatusPending marks anonymous submissions awaiting moderation.
	StatusPending   Status = "PENDING"
	StatusPublished Status = "PUBLISHED"
)

type Job struct {
	ID           int64     `json:"id" db:"id"`
	PublisherID  *int64    `json:"publisher_id,omitempty" db:"publisher_id"`
	Title        string    `json:"title" db:"title"`
	Company      string    `json:"company" db:"company"`
	Location     string    `json:"location,omitempty" db:"location"`
	Description  string    `json:"description" db:"description"`
	Salary       string    `json:"salary,omitempty" db:"salary"`
	ApplyURL     string    `json:"apply_url,omitempty" db:"apply_url"`
	ContactEmail string    `json:"contact_email,omitempty" db:"contact_email"`
	Tags         []string  `json:"tags,omitempty" db:"tags"`
	Status       Status    `json:"status" db:"status"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// PublishedBy reports whether the job belongs to the principal with id.
// Anonymous submissions have no publisher and belong to nobody.
func (j *Job) PublishedBy(id int64) bool {
	return j != nil && j.PublisherID != nil && *j.PublisherID == id
}
