package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/sbilibin2017/gw-notes/internal/images"
	"github.com/sbilibin2017/gw-notes/internal/logger"
	"github.com/sbilibin2017/gw-notes/internal/middlewares"
	"github.com/sbilibin2017/gw-notes/internal/models"
	"github.com/sbilibin2017/gw-notes/internal/repositories"
)

//go:generate mockgen -source=notes.go -destination=mock_notes.go -package=services

const maxTitleLength = 200

// NoteReader defines read operations for notes. Every method is scoped by owner.
type NoteReader interface {
	List(ctx context.Context, userID int64, search string, limit, offset int) ([]models.NoteDB, error)
	Count(ctx context.Context, userID int64, search string) (int, error)
	Get(ctx context.Context, id, userID int64) (*models.NoteDB, error)
}

// NoteWriter defines write operations for notes. Every method is scoped by owner.
type NoteWriter interface {
	Create(ctx context.Context, note *models.NoteDB) error
	Update(ctx context.Context, note *models.NoteDB) error
	Delete(ctx context.Context, id, userID int64) error
}

// ImageStore stores and removes note images.
type ImageStore interface {
	Accept(r io.Reader, filename string) (string, error)
	Remove(name string) error
}

// KafkaWriter defines a Kafka writer abstraction.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OperationCounter counts note operations for metrics.
type OperationCounter interface {
	IncNoteOperation(op string)
}

// NoteInput is the add/edit note form. Image is optional.
type NoteInput struct {
	Title     string
	Content   string
	Image     io.Reader
	ImageName string
}

func (in *NoteInput) hasImage() bool {
	return in.Image != nil && in.ImageName != ""
}

// NoteService handles note operations for the logged-in user.
type NoteService struct {
	reader      NoteReader
	writer      NoteWriter
	images      ImageStore
	kafkaWriter KafkaWriter
	counter     OperationCounter
}

// NewNoteService creates a new NoteService. kafkaWriter and counter may be nil.
func NewNoteService(
	reader NoteReader,
	writer NoteWriter,
	images ImageStore,
	kafkaWriter KafkaWriter,
	counter OperationCounter,
) *NoteService {
	return &NoteService{
		reader:      reader,
		writer:      writer,
		images:      images,
		kafkaWriter: kafkaWriter,
		counter:     counter,
	}
}

func validateNote(in *NoteInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)

	if in.Title == "" {
		return newValidationError("Title is required")
	}
	if utf8.RuneCountInString(in.Title) > maxTitleLength {
		return newValidationError("Title must be at most 200 characters")
	}
	return nil
}

// List returns one page of the user's notes, optionally filtered by search.
// Pages start at 1; a page past the end is empty.
func (s *NoteService) List(ctx context.Context, userID int64, page int, search string) (*models.NotesPage, error) {
	if page < 1 {
		page = 1
	}

	result := &models.NotesPage{
		Items:   []models.NoteDB{},
		Page:    page,
		PerPage: models.NotesPerPage,
		Search:  search,
	}

	total, err := s.reader.Count(ctx, userID, search)
	if err != nil {
		logger.FromContext(ctx).Errorw("failed to count notes", "user_id", userID, "error", err)
		return nil, storageError("count notes", err)
	}
	result.Total = total

	offset := (page - 1) * models.NotesPerPage
	if offset >= total {
		return result, nil
	}

	notes, err := s.reader.List(ctx, userID, search, models.NotesPerPage, offset)
	if err != nil {
		logger.FromContext(ctx).Errorw("failed to list notes", "user_id", userID, "error", err)
		return nil, storageError("list notes", err)
	}
	result.Items = notes
	return result, nil
}

// Get returns a note owned by the user.
func (s *NoteService) Get(ctx context.Context, userID, noteID int64) (*models.NoteDB, error) {
	note, err := s.reader.Get(ctx, noteID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			logger.FromContext(ctx).Infow("note not found", "note_id", noteID, "user_id", userID)
			return nil, ErrNoteNotFound
		}
		logger.FromContext(ctx).Errorw("failed to get note", "note_id", noteID, "user_id", userID, "error", err)
		return nil, storageError("get note", err)
	}
	return note, nil
}

// Create validates the input, stores the optional image and saves the note.
func (s *NoteService) Create(ctx context.Context, userID int64, in NoteInput) (*models.NoteDB, error) {
	if err := validateNote(&in); err != nil {
		return nil, err
	}

	note := &models.NoteDB{
		UserID:  userID,
		Title:   in.Title,
		Content: in.Content,
	}

	if in.hasImage() {
		name, err := s.storeImage(ctx, in)
		if err != nil {
			return nil, err
		}
		note.ImageFilename = &name
	}

	if err := s.writer.Create(ctx, note); err != nil {
		logger.FromContext(ctx).Errorw("failed to create note", "user_id", userID, "error", err)
		s.removeImage(ctx, note.ImageFilename)
		return nil, storageError("create note", err)
	}

	stored := note.ImageFilename
	middlewares.AfterRollback(ctx, func() { s.removeImage(ctx, stored) })
	middlewares.AfterCommit(ctx, func() { s.published(ctx, note, models.NoteCreated) })
	return note, nil
}

// Update changes title and content, and replaces the image when a new one is
// uploaded. The previous image file is removed once the change is committed;
// the new one is removed if it is rolled back.
func (s *NoteService) Update(ctx context.Context, userID, noteID int64, in NoteInput) (*models.NoteDB, error) {
	note, err := s.Get(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}

	if err := validateNote(&in); err != nil {
		return nil, err
	}

	note.Title = in.Title
	note.Content = in.Content

	previous := note.ImageFilename
	if in.hasImage() {
		name, err := s.storeImage(ctx, in)
		if err != nil {
			return nil, err
		}
		note.ImageFilename = &name
	}

	if err := s.writer.Update(ctx, note); err != nil {
		if in.hasImage() {
			s.removeImage(ctx, note.ImageFilename)
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNoteNotFound
		}
		logger.FromContext(ctx).Errorw("failed to update note", "note_id", noteID, "user_id", userID, "error", err)
		return nil, storageError("update note", err)
	}

	if in.hasImage() {
		stored := note.ImageFilename
		middlewares.AfterRollback(ctx, func() { s.removeImage(ctx, stored) })
		middlewares.AfterCommit(ctx, func() { s.removeImage(ctx, previous) })
	}

	middlewares.AfterCommit(ctx, func() { s.published(ctx, note, models.NoteUpdated) })
	return note, nil
}

// Delete removes a note owned by the user. Its image file is removed once the
// deletion is committed.
func (s *NoteService) Delete(ctx context.Context, userID, noteID int64) error {
	note, err := s.Get(ctx, userID, noteID)
	if err != nil {
		return err
	}

	if err := s.writer.Delete(ctx, noteID, userID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrNoteNotFound
		}
		logger.FromContext(ctx).Errorw("failed to delete note", "note_id", noteID, "user_id", userID, "error", err)
		return storageError("delete note", err)
	}

	middlewares.AfterCommit(ctx, func() {
		s.removeImage(ctx, note.ImageFilename)
		s.published(ctx, note, models.NoteDeleted)
	})
	return nil
}

func (s *NoteService) storeImage(ctx context.Context, in NoteInput) (string, error) {
	name, err := s.images.Accept(in.Image, in.ImageName)
	switch {
	case err == nil:
		return name, nil
	case errors.Is(err, images.ErrInvalidFileType):
		return "", newValidationError("Invalid file type. Allowed types: png, jpg, jpeg, gif, bmp, webp")
	case errors.Is(err, images.ErrInvalidImage):
		return "", newValidationError("The uploaded file is not a valid image")
	default:
		logger.FromContext(ctx).Errorw("failed to store image", "filename", in.ImageName, "error", err)
		return "", storageError("store image", err)
	}
}

// removeImage deletes a stored image; failures are logged only.
func (s *NoteService) removeImage(ctx context.Context, name *string) {
	if name == nil || *name == "" {
		return
	}
	if err := s.images.Remove(*name); err != nil {
		logger.FromContext(ctx).Warnw("failed to remove image", "name", *name, "error", err)
	}
}

// published counts the operation and publishes a NoteEvent to Kafka.
func (s *NoteService) published(ctx context.Context, note *models.NoteDB, op string) {
	if s.counter != nil {
		s.counter.IncNoteOperation(op)
	}

	log := logger.FromContext(ctx)
	if s.kafkaWriter == nil {
		log.Debugw("Kafka writer not configured, skipping publishing", "note_id", note.ID, "operation", op)
		return
	}

	event := models.NoteEvent{
		EventID:   uuid.NewString(),
		Timestamp: time.Now().Unix(),
		UserID:    note.UserID,
		NoteID:    note.ID,
		Operation: op,
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Errorw("Failed to marshal note event for Kafka", "event_id", event.EventID, "error", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(note.UserID, 10)),
		Value: data,
	}

	if err := s.kafkaWriter.WriteMessages(ctx, msg); err != nil {
		log.Errorw("Failed to publish note event to Kafka", "event_id", event.EventID, "error", err)
	} else {
		log.Infow("Note event published to Kafka", "event_id", event.EventID, "note_id", note.ID, "operation", op)
	}
}
