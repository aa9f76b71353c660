package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"blogapi/internal/model"
	"blogapi/internal/repository/postgres"
	"blogapi/internal/service"
	serviceMocks "blogapi/internal/service/mocks"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func samplePost(id string) *model.Post {
	return &model.Post{
		ID:      id,
		Title:   "A",
		Content: "B",
		Author:  model.Author{FirstName: "J", LastName: "D"},
		Created: time.Date(2017, 7, 15, 11, 9, 35, 158_000_000, time.UTC),
	}
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeError(t *testing.T, resp *http.Response) errorPayload {
	t.Helper()
	var res errorPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	return res
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(postgres.NewPostPostgres(db)))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "SERVICE_UNAVAILABLE", decodeError(t, resp).Error.Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListPosts(t *testing.T) {
	mockSvc := new(serviceMocks.MockPostService)
	app := fiber.New()
	app.Get("/posts", ListPosts(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("List", mock.Anything).Return([]model.Post{*samplePost(id)}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/posts", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var result []model.WirePost
		json.NewDecoder(resp.Body).Decode(&result)
		require.Len(t, result, 1)
		assert.Equal(t, id, result[0].ID)
		assert.Equal(t, "J D", result[0].Author)
		assert.Equal(t, "2017-07-15T11:09:35.158Z", result[0].Created)
		mockSvc.AssertExpectations(t)
	})

	t.Run("empty list is an array", func(t *testing.T) {
		mockSvc.On("List", mock.Anything).Return([]model.Post{}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/posts", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, "[]", string(body))
	})

	t.Run("store unavailable", func(t *testing.T) {
		mockSvc.On("List", mock.Anything).Return(nil, fmt.Errorf("%w: dial tcp", service.ErrStoreUnavailable)).Once()

		req := httptest.NewRequest(http.MethodGet, "/posts", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		res := decodeError(t, resp)
		assert.Equal(t, "STORE_UNAVAILABLE", res.Error.Code)
		assert.NotContains(t, res.Error.Message, "dial tcp")
	})

	t.Run("unexpected error", func(t *testing.T) {
		mockSvc.On("List", mock.Anything).Return(nil, errors.New("boom")).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/posts", nil))

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "INTERNAL_ERROR", decodeError(t, resp).Error.Code)
	})
}

func TestGetPost(t *testing.T) {
	mockSvc := new(serviceMocks.MockPostService)
	app := fiber.New()
	app.Get("/posts/:id", GetPost(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Get", mock.Anything, id).Return(samplePost(id), nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/posts/"+id, nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var result model.WirePost
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, id, result.ID)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Get", mock.Anything, id).Return(nil, service.ErrNotFound).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/posts/"+id, nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
		mockSvc.AssertExpectations(t)
	})
}

func TestCreatePost(t *testing.T) {
	mockSvc := new(serviceMocks.MockPostService)
	app := fiber.New()
	app.Post("/posts", CreatePost(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Create", mock.Anything, mock.MatchedBy(func(d model.PostDraft) bool {
			return d.Title == "A" && d.Content == "B" && d.Author.FullName() == "J D"
		})).Return(samplePost(id), nil).Once()

		body := `{"title":"A","content":"B","author":{"firstName":"J","lastName":"D"}}`
		resp, _ := app.Test(jsonRequest(http.MethodPost, "/posts", body))

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		var result model.WirePost
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, id, result.ID)
		assert.Equal(t, "J D", result.Author)
		mockSvc.AssertExpectations(t)
	})

	t.Run("missing fields", func(t *testing.T) {
		resp, _ := app.Test(jsonRequest(http.MethodPost, "/posts", `{"title":"A"}`))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		res := decodeError(t, resp)
		assert.Equal(t, "VALIDATION_ERROR", res.Error.Code)
		assert.Contains(t, res.Error.Message, "author")
		assert.Contains(t, res.Error.Message, "content")
		assert.Contains(t, res.Error.Details, "content")
		mockSvc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("malformed json", func(t *testing.T) {
		resp, _ := app.Test(jsonRequest(http.MethodPost, "/posts", `{"title":`))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_BODY", decodeError(t, resp).Error.Code)
	})

	t.Run("store unavailable", func(t *testing.T) {
		mockSvc.On("Create", mock.Anything, mock.Anything).Return(nil, service.ErrStoreUnavailable).Once()

		body := `{"title":"A","content":"B","author":{"firstName":"J","lastName":"D"}}`
		resp, _ := app.Test(jsonRequest(http.MethodPost, "/posts", body))

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "STORE_UNAVAILABLE", decodeError(t, resp).Error.Code)
	})
}

func TestUpdatePost(t *testing.T) {
	mockSvc := new(serviceMocks.MockPostService)
	app := fiber.New()
	app.Put("/posts/:id", UpdatePost(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		title := "Z"
		updated := samplePost(id)
		updated.Title = title
		mockSvc.On("Update", mock.Anything, id, model.PostPatch{Title: &title}).Return(updated, nil).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPut, "/posts/"+id, `{"title":"Z"}`))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var result model.WirePost
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, "Z", result.Title)
		mockSvc.AssertExpectations(t)
	})

	t.Run("echoed id and created are accepted", func(t *testing.T) {
		id := uuid.New().String()
		content := "X"
		mockSvc.On("Update", mock.Anything, id, model.PostPatch{Content: &content}).Return(samplePost(id), nil).Once()

		body := fmt.Sprintf(`{"id":%q,"content":"X","created":"2017-07-15T11:09:35.158Z"}`, id)
		resp, _ := app.Test(jsonRequest(http.MethodPut, "/posts/"+id, body))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("id mismatch", func(t *testing.T) {
		id := uuid.New().String()

		resp, _ := app.Test(jsonRequest(http.MethodPut, "/posts/"+id, `{"id":"other","title":"Z"}`))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "ID_MISMATCH", decodeError(t, resp).Error.Code)
	})

	t.Run("invalid author", func(t *testing.T) {
		id := uuid.New().String()

		resp, _ := app.Test(jsonRequest(http.MethodPut, "/posts/"+id, `{"author":"Mary Ann Lee"}`))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		res := decodeError(t, resp)
		assert.Equal(t, "VALIDATION_ERROR", res.Error.Code)
		assert.Contains(t, res.Error.Details, "author")
	})

	t.Run("not an object", func(t *testing.T) {
		resp, _ := app.Test(jsonRequest(http.MethodPut, "/posts/"+uuid.New().String(), `[1,2]`))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_BODY", decodeError(t, resp).Error.Code)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Update", mock.Anything, id, mock.Anything).Return(nil, service.ErrNotFound).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPut, "/posts/"+id, `{"title":"Z"}`))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
		mockSvc.AssertExpectations(t)
	})
}

func TestDeletePost(t *testing.T) {
	mockSvc := new(serviceMocks.MockPostService)
	app := fiber.New()
	app.Delete("/posts/:id", DeletePost(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Delete", mock.Anything, id).Return(nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/posts/"+id, nil))

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.Empty(t, body)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Delete", mock.Anything, id).Return(service.ErrNotFound).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/posts/"+id, nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("service error", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Delete", mock.Anything, id).Return(errors.New("delete error")).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/posts/"+id, nil))

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestRouting(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(),
	})

	mockSvc := new(serviceMocks.MockPostService)
	RegisterRoutes(app, nil, mockSvc)

	t.Run("not found route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/non-existent", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		// Health endpoint only allows GET
		req := httptest.NewRequest(http.MethodPost, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		assert.Equal(t, "METHOD_NOT_ALLOWED", decodeError(t, resp).Error.Code)
	})
}

func TestPathIDOutlivesRequest(t *testing.T) {
	mockSvc := new(serviceMocks.MockPostService)
	app := fiber.New()
	app.Get("/posts/:id", GetPost(mockSvc))

	var seen []string
	mockSvc.On("Get", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { seen = append(seen, args.String(1)) }).
		Return(nil, service.ErrNotFound)

	first := uuid.New().String()
	second := uuid.New().String()
	for _, id := range []string{first, second} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/posts/"+id, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	}

	assert.Equal(t, []string{first, second}, seen)
}
