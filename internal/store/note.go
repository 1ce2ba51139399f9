package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/okuznet/zametki/internal/model"
)

// ErrSlugTaken is returned when an insert or update would violate the
// unique slug constraint. The existence check and the write happen in one
// transaction, with the UNIQUE index as the backstop.
var ErrSlugTaken = errors.New("slug already taken")

type NoteStore struct {
	db *sql.DB
}

func NewNoteStore(db *sql.DB) *NoteStore {
	return &NoteStore{db: db}
}

func scanNote(scanner interface{ Scan(...any) error }) (*model.Note, error) {
	var n model.Note
	var id string
	err := scanner.Scan(&id, &n.Title, &n.Text, &n.Slug, &n.AuthorID, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	n.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse note id: %w", err)
	}
	return &n, nil
}

const noteCols = `id, title, text, slug, author_id, created_at, updated_at`

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Create inserts a new note after re-checking slug uniqueness inside the
// same transaction, so two concurrent creates cannot both slip through.
func (s *NoteStore) Create(title, text, slug string, authorID int64) (*model.Note, error) {
	id := uuid.New()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var taken bool
	err = tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM notes WHERE slug = ?)`, slug).Scan(&taken)
	if err != nil {
		return nil, fmt.Errorf("check slug: %w", err)
	}
	if taken {
		return nil, ErrSlugTaken
	}

	_, err = tx.Exec(
		`INSERT INTO notes (id, title, text, slug, author_id) VALUES (?, ?, ?, ?, ?)`,
		id.String(), title, text, slug, authorID,
	)
	if isUniqueViolation(err) {
		return nil, ErrSlugTaken
	}
	if err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

func (s *NoteStore) GetByID(id uuid.UUID) (*model.Note, error) {
	row := s.db.QueryRow(`SELECT `+noteCols+` FROM notes WHERE id = ?`, id.String())
	n, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	return n, nil
}

// GetBySlug looks a note up by its exact slug. Slugs are case-sensitive.
func (s *NoteStore) GetBySlug(slug string) (*model.Note, error) {
	row := s.db.QueryRow(`SELECT `+noteCols+` FROM notes WHERE slug = ?`, slug)
	n, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get note by slug: %w", err)
	}
	return n, nil
}

// ListByAuthor returns the author's notes in insertion order.
func (s *NoteStore) ListByAuthor(authorID int64) ([]model.Note, error) {
	rows, err := s.db.Query(
		`SELECT `+noteCols+` FROM notes WHERE author_id = ? ORDER BY created_at, rowid`,
		authorID,
	)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var notes []model.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, *n)
	}
	return notes, rows.Err()
}

// ExistsSlugExcept reports whether any note other than exceptID holds the
// slug. Pass uuid.Nil to check against all notes.
func (s *NoteStore) ExistsSlugExcept(slug string, exceptID uuid.UUID) (bool, error) {
	var taken bool
	err := s.db.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM notes WHERE slug = ? AND id <> ?)`,
		slug, exceptID.String(),
	).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("slug exists: %w", err)
	}
	return taken, nil
}

// Update rewrites title, text and slug in one transaction, re-checking that
// no other note holds the new slug.
func (s *NoteStore) Update(id uuid.UUID, title, text, slug string) (*model.Note, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var taken bool
	err = tx.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM notes WHERE slug = ? AND id <> ?)`,
		slug, id.String(),
	).Scan(&taken)
	if err != nil {
		return nil, fmt.Errorf("check slug: %w", err)
	}
	if taken {
		return nil, ErrSlugTaken
	}

	_, err = tx.Exec(
		`UPDATE notes SET title = ?, text = ?, slug = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		title, text, slug, id.String(),
	)
	if isUniqueViolation(err) {
		return nil, ErrSlugTaken
	}
	if err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

func (s *NoteStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM notes WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return nil
}

// Count returns the total number of notes across all authors.
func (s *NoteStore) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM notes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count notes: %w", err)
	}
	return n, nil
}
