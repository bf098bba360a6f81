package subjects

import "context"

var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "subject title not found" }

type Repo interface {
	CreateTitle(ctx context.Context, name string) (SubjectTitle, error)
	ListTitles(ctx context.Context) ([]SubjectTitle, error)
	Approve(ctx context.Context, userID, subjectTitleID int64) error
	IsApproved(ctx context.Context, userID, subjectTitleID int64) (bool, error)
}
