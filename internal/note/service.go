// Package note holds the business logic for note operations: slug
// assignment, the ownership policy, and the uniqueness invariant. It has no
// knowledge of HTTP; every operation takes the calling user's ID explicitly.
package note

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/okuznet/zametki/internal/model"
	"github.com/okuznet/zametki/internal/slug"
	"github.com/okuznet/zametki/internal/store"
)

// MaxTitleLength matches the schema bound on the title column.
const MaxTitleLength = 100

// ErrNotFound is returned when a note does not exist or belongs to someone
// else. The two cases are deliberately indistinguishable so note existence
// never leaks to non-owners.
var ErrNotFound = errors.New("note not found")

// ErrInvalidTitle is returned when a title is empty or exceeds MaxTitleLength.
var ErrInvalidTitle = errors.New("title must be 1-100 characters")

// ErrInvalidSlug is returned when an explicit slug is malformed: over
// slug.MaxLength or containing characters outside latin letters, digits,
// hyphens and underscores.
var ErrInvalidSlug = errors.New("slug must be 1-100 url-safe characters")

// Repository is the storage the service runs on. *store.NoteStore satisfies it.
type Repository interface {
	Create(title, text, slug string, authorID int64) (*model.Note, error)
	GetBySlug(slug string) (*model.Note, error)
	ListByAuthor(authorID int64) ([]model.Note, error)
	ExistsSlugExcept(slug string, exceptID uuid.UUID) (bool, error)
	Update(id uuid.UUID, title, text, slug string) (*model.Note, error)
	Delete(id uuid.UUID) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// canAccess is the ownership policy: only the author may see or change a
// note. Evaluated fresh on every call, never cached.
func canAccess(userID int64, n *model.Note) bool {
	return n.AuthorID == userID
}

func validTitle(title string) bool {
	return title != "" && utf8.RuneCountInString(title) <= MaxTitleLength
}

// List returns the caller's notes in insertion order, and only those.
func (s *Service) List(userID int64) ([]model.Note, error) {
	return s.repo.ListByAuthor(userID)
}

// Create persists a new note owned by userID. An empty slugValue derives the
// slug from the title, disambiguating on collision; an explicit slugValue is
// validated and a collision fails with *slug.DuplicateError before any write.
func (s *Service) Create(userID int64, title, text, slugValue string) (*model.Note, error) {
	title = strings.TrimSpace(title)
	if !validTitle(title) {
		return nil, ErrInvalidTitle
	}

	if slugValue == "" {
		derived, err := slug.Derive(s.repo, title, uuid.Nil)
		if err != nil {
			return nil, err
		}
		slugValue = derived
	} else {
		if !slug.Valid(slugValue) {
			return nil, ErrInvalidSlug
		}
		if err := slug.Unique(s.repo, slugValue, uuid.Nil); err != nil {
			return nil, err
		}
	}

	n, err := s.repo.Create(title, text, slugValue, userID)
	if errors.Is(err, store.ErrSlugTaken) {
		// Transactional backstop fired: someone claimed the slug between
		// validation and insert. Same outcome as the validation failure.
		return nil, &slug.DuplicateError{Slug: slugValue}
	}
	if err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}
	return n, nil
}

// Detail returns the note with the given slug if userID is its author,
// ErrNotFound otherwise.
func (s *Service) Detail(userID int64, slugValue string) (*model.Note, error) {
	n, err := s.repo.GetBySlug(slugValue)
	if err != nil {
		return nil, fmt.Errorf("detail: %w", err)
	}
	if n == nil || !canAccess(userID, n) {
		return nil, ErrNotFound
	}
	return n, nil
}

// Update rewrites title, text and slug of the caller's note. An empty
// newSlug re-derives from the title; either way the slug is revalidated
// excluding the note's own row.
func (s *Service) Update(userID int64, slugValue, title, text, newSlug string) (*model.Note, error) {
	n, err := s.Detail(userID, slugValue)
	if err != nil {
		return nil, err
	}

	title = strings.TrimSpace(title)
	if !validTitle(title) {
		return nil, ErrInvalidTitle
	}

	if newSlug == "" {
		derived, err := slug.Derive(s.repo, title, n.ID)
		if err != nil {
			return nil, err
		}
		newSlug = derived
	} else {
		if !slug.Valid(newSlug) {
			return nil, ErrInvalidSlug
		}
		if err := slug.Unique(s.repo, newSlug, n.ID); err != nil {
			return nil, err
		}
	}

	updated, err := s.repo.Update(n.ID, title, text, newSlug)
	if errors.Is(err, store.ErrSlugTaken) {
		return nil, &slug.DuplicateError{Slug: newSlug}
	}
	if err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}
	return updated, nil
}

// Delete permanently removes the caller's note.
func (s *Service) Delete(userID int64, slugValue string) error {
	n, err := s.Detail(userID, slugValue)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(n.ID); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return nil
}
