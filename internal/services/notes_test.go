package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbilibin2017/gw-notes/internal/images"
	"github.com/sbilibin2017/gw-notes/internal/models"
	"github.com/sbilibin2017/gw-notes/internal/repositories"
)

type noteMocks struct {
	reader  *MockNoteReader
	writer  *MockNoteWriter
	images  *MockImageStore
	kafka   *MockKafkaWriter
	counter *MockOperationCounter
}

func newNoteService(t *testing.T) (*NoteService, noteMocks) {
	ctrl := gomock.NewController(t)
	m := noteMocks{
		reader:  NewMockNoteReader(ctrl),
		writer:  NewMockNoteWriter(ctrl),
		images:  NewMockImageStore(ctrl),
		kafka:   NewMockKafkaWriter(ctrl),
		counter: NewMockOperationCounter(ctrl),
	}
	return NewNoteService(m.reader, m.writer, m.images, m.kafka, m.counter), m
}

func strPtr(s string) *string { return &s }

func TestNoteService_List(t *testing.T) {
	ctx := context.Background()
	svc, m := newNoteService(t)

	notes := []models.NoteDB{{ID: 13, UserID: 1, Title: "n13"}}
	m.reader.EXPECT().Count(ctx, int64(1), "go").Return(13, nil)
	m.reader.EXPECT().List(ctx, int64(1), "go", 6, 12).Return(notes, nil)

	page, err := svc.List(ctx, 1, 3, "go")
	require.NoError(t, err)
	assert.Equal(t, notes, page.Items)
	assert.Equal(t, 3, page.Page)
	assert.Equal(t, 3, page.Pages())
	assert.Equal(t, "go", page.Search)
	assert.False(t, page.HasNext())
}

func TestNoteService_List_PageClampedToOne(t *testing.T) {
	ctx := context.Background()
	svc, m := newNoteService(t)

	m.reader.EXPECT().Count(ctx, int64(1), "").Return(2, nil)
	m.reader.EXPECT().List(ctx, int64(1), "", 6, 0).Return([]models.NoteDB{{ID: 1}, {ID: 2}}, nil)

	page, err := svc.List(ctx, 1, 0, "")
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Len(t, page.Items, 2)
}

func TestNoteService_List_PastLastPage(t *testing.T) {
	ctx := context.Background()
	svc, m := newNoteService(t)

	m.reader.EXPECT().Count(ctx, int64(1), "").Return(6, nil)

	page, err := svc.List(ctx, 1, 2, "")
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.NotNil(t, page.Items)
}

func TestNoteService_List_StorageError(t *testing.T) {
	ctx := context.Background()
	svc, m := newNoteService(t)

	m.reader.EXPECT().Count(ctx, int64(1), "").Return(0, errors.New("db down"))

	_, err := svc.List(ctx, 1, 1, "")
	var se *StorageError
	assert.ErrorAs(t, err, &se)
}

func TestNoteService_Get_OtherUsersNote(t *testing.T) {
	ctx := context.Background()
	svc, m := newNoteService(t)

	// Note 5 belongs to user 2; the repository is always asked with the caller's id.
	m.reader.EXPECT().Get(ctx, int64(5), int64(1)).Return(nil, repositories.ErrNotFound)

	_, err := svc.Get(ctx, 1, 5)
	assert.ErrorIs(t, err, ErrNoteNotFound)
}

func TestNoteService_Create(t *testing.T) {
	ctx := context.Background()
	svc, m := newNoteService(t)

	body := strings.NewReader("image bytes")
	m.images.EXPECT().Accept(body, "photo.png").Return("abcdef0123456789.png", nil)
	m.writer.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, n *models.NoteDB) error {
		assert.Equal(t, int64(1), n.UserID)
		assert.Equal(t, "Title", n.Title)
		assert.Equal(t, "Body", n.Content)
		require.NotNil(t, n.ImageFilename)
		assert.Equal(t, "abcdef0123456789.png", *n.ImageFilename)
		n.ID = 42
		return nil
	})
	m.counter.EXPECT().IncNoteOperation(models.NoteCreated)
	m.kafka.EXPECT().WriteMessages(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, msgs ...kafka.Message) error {
		require.Len(t, msgs, 1)
		var ev models.NoteEvent
		require.NoError(t, json.Unmarshal(msgs[0].Value, &ev))
		assert.Equal(t, int64(42), ev.NoteID)
		assert.Equal(t, int64(1), ev.UserID)
		assert.Equal(t, models.NoteCreated, ev.Operation)
		assert.NotEmpty(t, ev.EventID)
		assert.Equal(t, "1", string(msgs[0].Key))
		return nil
	})

	note, err := svc.Create(ctx, 1, NoteInput{Title: "  Title ", Content: "Body\n", Image: body, ImageName: "photo.png"})
	require.NoError(t, err)
	assert.Equal(t, int64(42), note.ID)
}

func TestNoteService_Create_WithoutImage(t *testing.T) {
	ctx := context.Background()
	svc, m := newNoteService(t)

	m.writer.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, n *models.NoteDB) error {
		assert.Nil(t, n.ImageFilename)
		return nil
	})
	m.counter.EXPECT().IncNoteOperation(models.NoteCreated)
	m.kafka.EXPECT().WriteMessages(ctx, gomock.Any()).Return(errors.New("broker unavailable"))

	// A failed publish does not fail the operation.
	_, err := svc.Create(ctx, 1, NoteInput{Title: "Title"})
	assert.NoError(t, err)
}

func TestNoteService_Create_Validation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newNoteService(t)

	tests := []struct {
		name  string
		title string
		msg   string
	}{
		{name: "empty title", title: "", msg: "Title is required"},
		{name: "blank title", title: "   ", msg: "Title is required"},
		{name: "title too long", title: strings.Repeat("t", 201), msg: "Title must be at most 200 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, 1, NoteInput{Title: tt.title})
			v, ok := IsValidation(err)
			require.True(t, ok)
			assert.Equal(t, tt.msg, v.Message)
		})
	}
}

func TestNoteService_Create_DisallowedExtension(t *testing.T) {
	ctx := context.Background()
	svc, m := newNoteService(t)

	m.images.EXPECT().Accept(gomock.Any(), "evil.exe").Return("", images.ErrInvalidFileType)

	_, err := svc.Create(ctx, 1, NoteInput{Title: "t", Image: strings.NewReader("MZ"), ImageName: "evil.exe"})
	v, ok := IsValidation(err)
	require.True(t, ok)
	assert.Contains(t, v.Message, "Invalid file type")
}

func TestNoteService_Create_UndecodableImage(t *testing.T) {
	ctx := context.Background()
	svc, m := newNoteService(t)

	m.images.EXPECT().Accept(gomock.Any(), "fake.png").Return("", images.ErrInvalidImage)

	_, err := svc.Create(ctx, 1, NoteInput{Title: "t", Image: strings.NewReader("nope"), ImageName: "fake.png"})
	_, ok := IsValidation(err)
	assert.True(t, ok)
}

func TestNoteService_Create_RemovesImageWhenSaveFails(t *testing.T) {
	ctx := context.Background()
	svc, m := newNoteService(t)

	m.images.EXPECT().Accept(gomock.Any(), "a.jpg").Return("0011223344556677.jpg", nil)
	m.writer.EXPECT().Create(ctx, gomock.Any()).Return(errors.New("insert failed"))
	m.images.EXPECT().Remove("0011223344556677.jpg").Return(nil)

	_, err := svc.Create(ctx, 1, NoteInput{Title: "t", Image: strings.NewReader("x"), ImageName: "a.jpg"})
	var se *StorageError
	assert.ErrorAs(t, err, &se)
}

func TestNoteService_Update_ReplacesImage(t *testing.T) {
	ctx := context.Background()
	svc, m := newNoteService(t)

	existing := &models.NoteDB{ID: 5, UserID: 1, Title: "old", ImageFilename: strPtr("old.png")}
	m.reader.EXPECT().Get(ctx, int64(5), int64(1)).Return(existing, nil)

	gomock.InOrder(
		m.images.EXPECT().Accept(gomock.Any(), "new.png").Return("new0000000000000.png", nil),
		m.writer.EXPECT().Update(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, n *models.NoteDB) error {
			assert.Equal(t, "new title", n.Title)
			assert.Equal(t, "new0000000000000.png", *n.ImageFilename)
			return nil
		}),
		m.images.EXPECT().Remove("old.png").Return(nil),
	)
	m.counter.EXPECT().IncNoteOperation(models.NoteUpdated)
	m.kafka.EXPECT().WriteMessages(ctx, gomock.Any()).Return(nil)

	note, err := svc.Update(ctx, 1, 5, NoteInput{Title: "new title", Image: strings.NewReader("x"), ImageName: "new.png"})
	require.NoError(t, err)
	assert.Equal(t, "new0000000000000.png", *note.ImageFilename)
}

func TestNoteService_Update_KeepsImageWithoutUpload(t *testing.T) {
	ctx := context.Background()
	svc, m := newNoteService(t)

	existing := &models.NoteDB{ID: 5, UserID: 1, Title: "old", ImageFilename: strPtr("old.png")}
	m.reader.EXPECT().Get(ctx, int64(5), int64(1)).Return(existing, nil)
	m.writer.EXPECT().Update(ctx, gomock.Any()).Return(nil)
	m.counter.EXPECT().IncNoteOperation(models.NoteUpdated)
	m.kafka.EXPECT().WriteMessages(ctx, gomock.Any()).Return(nil)

	note, err := svc.Update(ctx, 1, 5, NoteInput{Title: "new", Content: "c"})
	require.NoError(t, err)
	assert.Equal(t, "old.png", *note.ImageFilename)
	assert.Equal(t, "c", note.Content)
}

func TestNoteService_Update_FailureRemovesNewImage(t *testing.T) {
	ctx := context.Background()
	svc, m := newNoteService(t)

	existing := &models.NoteDB{ID: 5, UserID: 1, Title: "old", ImageFilename: strPtr("old.png")}
	m.reader.EXPECT().Get(ctx, int64(5), int64(1)).Return(existing, nil)
	m.images.EXPECT().Accept(gomock.Any(), "new.png").Return("new0000000000000.png", nil)
	m.writer.EXPECT().Update(ctx, gomock.Any()).Return(errors.New("update failed"))
	m.images.EXPECT().Remove("new0000000000000.png").Return(nil)

	_, err := svc.Update(ctx, 1, 5, NoteInput{Title: "new", Image: strings.NewReader("x"), ImageName: "new.png"})
	var se *StorageError
	assert.ErrorAs(t, err, &se)
}

func TestNoteService_Update_OtherUsersNote(t *testing.T) {
	ctx := context.Background()
	svc, m := newNoteService(t)

	m.reader.EXPECT().Get(ctx, int64(5), int64(2)).Return(nil, repositories.ErrNotFound)

	_, err := svc.Update(ctx, 2, 5, NoteInput{Title: "hijack"})
	assert.ErrorIs(t, err, ErrNoteNotFound)
}

func TestNoteService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, m := newNoteService(t)

	existing := &models.NoteDB{ID: 5, UserID: 1, ImageFilename: strPtr("pic.webp")}
	m.reader.EXPECT().Get(ctx, int64(5), int64(1)).Return(existing, nil)
	m.writer.EXPECT().Delete(ctx, int64(5), int64(1)).Return(nil)
	m.images.EXPECT().Remove("pic.webp").Return(errors.New("already gone"))
	m.counter.EXPECT().IncNoteOperation(models.NoteDeleted)
	m.kafka.EXPECT().WriteMessages(ctx, gomock.Any()).Return(nil)

	assert.NoError(t, svc.Delete(ctx, 1, 5))
}

func TestNoteService_Delete_OtherUsersNote(t *testing.T) {
	ctx := context.Background()
	svc, m := newNoteService(t)

	m.reader.EXPECT().Get(ctx, int64(5), int64(2)).Return(nil, repositories.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, 2, 5), ErrNoteNotFound)
}

func TestNoteService_NoKafkaWriter(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	writer := NewMockNoteWriter(ctrl)
	svc := NewNoteService(NewMockNoteReader(ctrl), writer, NewMockImageStore(ctrl), nil, nil)

	writer.EXPECT().Create(ctx, gomock.Any()).Return(nil)

	_, err := svc.Create(ctx, 1, NoteInput{Title: "t"})
	assert.NoError(t, err)
}
