package middlewares

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbilibin2017/gw-notes/internal/flash"
	"github.com/sbilibin2017/gw-notes/internal/jwt"
	"github.com/sbilibin2017/gw-notes/internal/models"
	"github.com/sbilibin2017/gw-notes/internal/repositories"
)

func TestSessionMiddleware(t *testing.T) {
	claims := &jwt.Claims{UserID: 7}
	claims.ID = "sid-7"
	renewed := &jwt.Claims{UserID: 7}
	renewed.ID = "sid-7"

	sessionCookie := &http.Cookie{Name: jwt.CookieName, Value: "renewed"}
	expiredCookie := &http.Cookie{Name: jwt.CookieName, Value: "", MaxAge: -1}

	tests := []struct {
		name         string
		setup        func(tok *MockTokener, rev *MockRevocationChecker, users *MockUserGetter)
		wantIdentity bool
		wantCookie   string
		wantCleared  bool
	}{
		{
			name: "NoToken",
			setup: func(tok *MockTokener, _ *MockRevocationChecker, _ *MockUserGetter) {
				tok.EXPECT().GetTokenFromRequest(gomock.Any(), gomock.Any()).
					Return("", jwt.ErrTokenMissing)
			},
		},
		{
			name: "InvalidToken",
			setup: func(tok *MockTokener, _ *MockRevocationChecker, _ *MockUserGetter) {
				tok.EXPECT().GetTokenFromRequest(gomock.Any(), gomock.Any()).Return("bad", nil)
				tok.EXPECT().GetClaims(gomock.Any(), "bad").Return(nil, jwt.ErrInvalidToken)
				tok.EXPECT().ExpiredCookie().Return(expiredCookie)
			},
			wantCleared: true,
		},
		{
			name: "RevokedSession",
			setup: func(tok *MockTokener, rev *MockRevocationChecker, _ *MockUserGetter) {
				tok.EXPECT().GetTokenFromRequest(gomock.Any(), gomock.Any()).Return("tok", nil)
				tok.EXPECT().GetClaims(gomock.Any(), "tok").Return(claims, nil)
				rev.EXPECT().IsRevoked(gomock.Any(), "sid-7").Return(true, nil)
				tok.EXPECT().ExpiredCookie().Return(expiredCookie)
			},
			wantCleared: true,
		},
		{
			name: "RevocationStoreDown",
			setup: func(tok *MockTokener, rev *MockRevocationChecker, _ *MockUserGetter) {
				tok.EXPECT().GetTokenFromRequest(gomock.Any(), gomock.Any()).Return("tok", nil)
				tok.EXPECT().GetClaims(gomock.Any(), "tok").Return(claims, nil)
				rev.EXPECT().IsRevoked(gomock.Any(), "sid-7").Return(false, errors.New("redis down"))
				tok.EXPECT().ExpiredCookie().Return(expiredCookie)
			},
			wantCleared: true,
		},
		{
			name: "DeletedUser",
			setup: func(tok *MockTokener, rev *MockRevocationChecker, users *MockUserGetter) {
				tok.EXPECT().GetTokenFromRequest(gomock.Any(), gomock.Any()).Return("tok", nil)
				tok.EXPECT().GetClaims(gomock.Any(), "tok").Return(claims, nil)
				rev.EXPECT().IsRevoked(gomock.Any(), "sid-7").Return(false, nil)
				users.EXPECT().GetByID(gomock.Any(), int64(7)).Return(nil, repositories.ErrNotFound)
				tok.EXPECT().ExpiredCookie().Return(expiredCookie)
			},
			wantCleared: true,
		},
		{
			name: "ValidSessionIsRenewed",
			setup: func(tok *MockTokener, rev *MockRevocationChecker, users *MockUserGetter) {
				tok.EXPECT().GetTokenFromRequest(gomock.Any(), gomock.Any()).Return("tok", nil)
				tok.EXPECT().GetClaims(gomock.Any(), "tok").Return(claims, nil)
				rev.EXPECT().IsRevoked(gomock.Any(), "sid-7").Return(false, nil)
				users.EXPECT().GetByID(gomock.Any(), int64(7)).Return(&models.UserDB{ID: 7, Username: "alice"}, nil)
				tok.EXPECT().Renew(gomock.Any(), claims).Return("renewed", renewed, nil)
				tok.EXPECT().NewCookie("renewed", renewed).Return(sessionCookie)
			},
			wantIdentity: true,
			wantCookie:   "renewed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			tok := NewMockTokener(ctrl)
			rev := NewMockRevocationChecker(ctrl)
			users := NewMockUserGetter(ctrl)
			tt.setup(tok, rev, users)

			var identity *Identity
			var authenticated bool
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				identity, authenticated = GetIdentity(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			handler := SessionMiddleware(tok, rev, users)(next)
			req := httptest.NewRequest(http.MethodGet, "/notes", nil)
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, tt.wantIdentity, authenticated)
			if tt.wantIdentity {
				require.NotNil(t, identity)
				assert.Equal(t, int64(7), identity.UserID)
				assert.Equal(t, "alice", identity.Username)
				assert.Same(t, renewed, identity.Claims)
			}

			cookies := rr.Result().Cookies()
			switch {
			case tt.wantCookie != "":
				require.Len(t, cookies, 1)
				assert.Equal(t, tt.wantCookie, cookies[0].Value)
			case tt.wantCleared:
				require.Len(t, cookies, 1)
				assert.Equal(t, -1, cookies[0].MaxAge)
			default:
				assert.Empty(t, cookies)
			}
		})
	}
}

func TestRequireLogin(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	handler := RequireLogin(next)

	t.Run("Anonymous", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/notes?page=2&search=go", nil)
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusFound, rr.Code)
		assert.Equal(t, "/login?next=%2Fnotes%3Fpage%3D2%26search%3Dgo", rr.Header().Get("Location"))

		cookies := rr.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, flash.CookieName, cookies[0].Name)
	})

	t.Run("Authenticated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/notes", nil)
		req = req.WithContext(WithIdentity(req.Context(), &Identity{UserID: 1}))
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusTeapot, rr.Code)
	})
}

func TestRequireLoginJSON(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireLoginJSON(next)

	req := httptest.NewRequest(http.MethodGet, "/get_note/1", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, LoginRequiredMessage, body["message"])
}

func TestGetIdentity_Anonymous(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := GetIdentity(req.Context())
	assert.False(t, ok)
}
