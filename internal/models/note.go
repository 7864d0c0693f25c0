package models

import "time"

// NotesPerPage is the fixed page size of the notes list.
const NotesPerPage = 6

// NoteDB represents a note record in the database
type NoteDB struct {
	ID            int64     `json:"id" db:"id"`
	UserID        int64     `json:"user_id" db:"user_id"`
	Title         string    `json:"title" db:"title"`
	Content       string    `json:"content" db:"content"`
	ImageFilename *string   `json:"image_filename" db:"image_filename"` // Relative to the upload directory
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// HasImage reports whether the note references a stored image.
func (n *NoteDB) HasImage() bool {
	return n.ImageFilename != nil && *n.ImageFilename != ""
}

// NotesPage is one page of a user's notes.
type NotesPage struct {
	Items   []NoteDB
	Page    int
	PerPage int
	Total   int
	Search  string
}

// Pages returns the number of pages, at least 1.
func (p *NotesPage) Pages() int {
	if p.PerPage <= 0 || p.Total == 0 {
		return 1
	}
	return (p.Total + p.PerPage - 1) / p.PerPage
}

func (p *NotesPage) HasPrev() bool { return p.Page > 1 }
func (p *NotesPage) HasNext() bool { return p.Page < p.Pages() }
func (p *NotesPage) PrevNum() int  { return p.Page - 1 }
func (p *NotesPage) NextNum() int  { return p.Page + 1 }

// PageNumbers lists every page number, used by the pagination bar.
func (p *NotesPage) PageNumbers() []int {
	nums := make([]int, 0, p.Pages())
	for i := 1; i <= p.Pages(); i++ {
		nums = append(nums, i)
	}
	return nums
}
