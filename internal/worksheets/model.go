package worksheets

import "time"

// Worksheet is a canonical PDF shared by all users. FileKey is the
// relative storage key of the PDF inside the uploads root; the file itself
// is never rewritten after upload.
type Worksheet struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	SubjectTitleID int64     `json:"subjectTitleId"`
	FileKey        string    `json:"fileKey"`
	PageCount      int       `json:"pageCount"`
	HasText        bool      `json:"hasText"`
	CreatedBy      int64     `json:"createdBy"`
	CreatedAt      time.Time `json:"createdAt"`
}
