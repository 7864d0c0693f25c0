package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/sbilibin2017/gw-notes/internal/models"
	"github.com/sbilibin2017/gw-notes/internal/services"
)

func TestGetNoteHandler(t *testing.T) {
	image := "0123456789abcdef.png"
	created := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	note := &models.NoteDB{
		ID:            5,
		UserID:        1,
		Title:         "Trip",
		Content:       "Pack bags",
		ImageFilename: &image,
		CreatedAt:     created,
		UpdatedAt:     created.Add(time.Hour),
	}

	tests := []struct {
		name         string
		id           string
		mockSetup    func(m *MockNoteGetter)
		expectedCode int
		expectedBody map[string]any
	}{
		{
			name: "success",
			id:   "5",
			mockSetup: func(m *MockNoteGetter) {
				m.EXPECT().Get(gomock.Any(), int64(1), int64(5)).Return(note, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: map[string]any{
				"success":        true,
				"message":        "OK",
				"id":             float64(5),
				"title":          "Trip",
				"content":        "Pack bags",
				"image_filename": image,
				"image_url":      "/uploads/" + image,
				"created_at":     "2024-03-01 09:30:00",
				"updated_at":     "2024-03-01 10:30:00",
			},
		},
		{
			name: "not found or not owned",
			id:   "6",
			mockSetup: func(m *MockNoteGetter) {
				m.EXPECT().Get(gomock.Any(), int64(1), int64(6)).Return(nil, services.ErrNoteNotFound)
			},
			expectedCode: http.StatusNotFound,
			expectedBody: map[string]any{"success": false, "message": "Note not found"},
		},
		{
			name:         "malformed id",
			id:           "abc",
			mockSetup:    func(m *MockNoteGetter) {},
			expectedCode: http.StatusNotFound,
			expectedBody: map[string]any{"success": false, "message": "Note not found"},
		},
		{
			name: "internal error",
			id:   "5",
			mockSetup: func(m *MockNoteGetter) {
				m.EXPECT().Get(gomock.Any(), int64(1), int64(5)).
					Return(nil, &services.StorageError{Op: "get note", Err: errors.New("pq: relation does not exist")})
			},
			expectedCode: http.StatusInternalServerError,
			expectedBody: map[string]any{"success": false, "message": "Internal server error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			m := NewMockNoteGetter(ctrl)
			tt.mockSetup(m)

			req := asUser(httptest.NewRequest(http.MethodGet, "/get_note/"+tt.id, nil), 1, "john")
			req = withRouteParam(req, "id", tt.id)
			rr := httptest.NewRecorder()

			NewGetNoteHandler(m).ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedCode, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			assert.Equal(t, tt.expectedBody, decodeResponse(t, rr))
		})
	}
}

func TestGetNoteHandler_NoImage(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := NewMockNoteGetter(ctrl)
	m.EXPECT().Get(gomock.Any(), int64(1), int64(2)).Return(&models.NoteDB{ID: 2, Title: "t"}, nil)

	req := withRouteParam(asUser(httptest.NewRequest(http.MethodGet, "/get_note/2", nil), 1, "john"), "id", "2")
	rr := httptest.NewRecorder()

	NewGetNoteHandler(m).ServeHTTP(rr, req)

	body := decodeResponse(t, rr)
	assert.Nil(t, body["image_filename"])
	assert.Nil(t, body["image_url"])
	assert.Contains(t, body, "image_url")
}
