package subjects

import "time"

// SubjectTitle is a curriculum subject worksheets are filed under.
type SubjectTitle struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Approval links a user to a subject title they may access in strict mode.
type Approval struct {
	UserID         int64
	SubjectTitleID int64
	Approved       bool
	CreatedAt      time.Time
}
