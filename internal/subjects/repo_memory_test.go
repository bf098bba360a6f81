package subjects

import (
	"context"
	"errors"
	"testing"
)

func TestCreateTitleReusesExistingName(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	first, err := repo.CreateTitle(ctx, "Mathematics")
	if err != nil {
		t.Fatalf("CreateTitle: %v", err)
	}
	second, err := repo.CreateTitle(ctx, "mathematics")
	if err != nil {
		t.Fatalf("CreateTitle again: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("duplicate name created a new title: %d vs %d", first.ID, second.ID)
	}

	titles, err := repo.ListTitles(ctx)
	if err != nil {
		t.Fatalf("ListTitles: %v", err)
	}
	if len(titles) != 1 {
		t.Fatalf("len(titles) = %d, want 1", len(titles))
	}
}

func TestListTitlesSortedByName(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	for _, name := range []string{"Science", "Art", "Mathematics"} {
		if _, err := repo.CreateTitle(ctx, name); err != nil {
			t.Fatalf("CreateTitle %q: %v", name, err)
		}
	}

	titles, err := repo.ListTitles(ctx)
	if err != nil {
		t.Fatalf("ListTitles: %v", err)
	}
	want := []string{"Art", "Mathematics", "Science"}
	for i, name := range want {
		if titles[i].Name != name {
			t.Fatalf("titles[%d] = %q, want %q", i, titles[i].Name, name)
		}
	}
}

func TestApprovalLifecycle(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	title, err := repo.CreateTitle(ctx, "Mathematics")
	if err != nil {
		t.Fatalf("CreateTitle: %v", err)
	}

	if ok, _ := repo.IsApproved(ctx, 5, title.ID); ok {
		t.Fatal("approval granted before Approve")
	}
	if err := repo.Approve(ctx, 5, title.ID); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if ok, _ := repo.IsApproved(ctx, 5, title.ID); !ok {
		t.Fatal("approval not recorded")
	}
	if ok, _ := repo.IsApproved(ctx, 6, title.ID); ok {
		t.Fatal("approval leaked to another user")
	}

	if err := repo.Approve(ctx, 5, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("approve unknown title err = %v, want ErrNotFound", err)
	}
}
