package types

import "time"

// Project is a unit of work owned by exactly one manager with an unordered
// set of member users.
type Project struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	ManagerID   string    `json:"manager_id" db:"manager_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`

	// Manager is the owning user's summary, populated on reads.
	Manager *UserSummary `json:"manager,omitempty"`

	// Members is the project's member set. Always present (possibly empty)
	// on reads so clients can distinguish "no members" from "not loaded".
	Members []UserSummary `json:"members"`

	// Tasks is populated only on the single-project detail view.
	Tasks []Task `json:"tasks,omitempty"`
}
