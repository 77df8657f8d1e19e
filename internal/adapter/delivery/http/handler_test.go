package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gavv/httpexpect/v2"
	"github.com/go-chi/httplog/v2"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/vadimbarashkov/shorturl/internal/entity"

	httpMock "github.com/vadimbarashkov/shorturl/mocks/http"
)

type HandlersTestSuite struct {
	suite.Suite
	logger         *httplog.Logger
	now            time.Time
	urlUseCaseMock *httpMock.MockUrlUseCase
	server         *httptest.Server
	e              *httpexpect.Expect
}

func (suite *HandlersTestSuite) SetupSuite() {
	suite.logger = httplog.NewLogger("", httplog.Options{Writer: io.Discard})
	suite.now = time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)
}

func (suite *HandlersTestSuite) SetupSubTest() {
	suite.urlUseCaseMock = httpMock.NewMockUrlUseCase(suite.T())

	router := NewRouter(suite.logger, suite.urlUseCaseMock)
	suite.server = httptest.NewServer(router)
	suite.T().Cleanup(func() {
		suite.server.Close()
	})

	suite.e = httpexpect.Default(suite.T(), suite.server.URL)
}

func (suite *HandlersTestSuite) TearDownSubTest() {
	suite.urlUseCaseMock.AssertExpectations(suite.T())
}

func (suite *HandlersTestSuite) record(originalURL string, accessCount int64) *entity.URL {
	return &entity.URL{
		ShortCode:   "abc123",
		OriginalURL: originalURL,
		URLStats: entity.URLStats{
			AccessCount: accessCount,
		},
		CreatedAt: suite.now,
		UpdatedAt: suite.now,
	}
}

func (suite *HandlersTestSuite) TestPing() {
	const path = "/ping"

	suite.Run("success", func() {
		suite.e.GET(path).
			Expect().
			Status(http.StatusOK).
			Text().IsEqual("pong")
	})
}

func (suite *HandlersTestSuite) TestDocs() {
	suite.Run("swagger document", func() {
		suite.e.GET(swaggerPath).
			Expect().
			Status(http.StatusOK).
			Body().Contains("openapi")
	})
}

func (suite *HandlersTestSuite) TestShortenURL() {
	const path = "/shorten"

	suite.Run("empty request body", func() {
		resp := suite.e.POST(path).
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object()

		resp.HasValue("error", "empty request body")
	})

	suite.Run("invalid request body", func() {
		resp := suite.e.POST(path).
			WithJSON("invalid body").
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object()

		resp.HasValue("error", "invalid request body")
	})

	suite.Run("missing url", func() {
		resp := suite.e.POST(path).
			WithJSON(map[string]string{}).
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object()

		resp.HasValue("error", "validation error")
		resp.Value("errors").Array().Value(0).Object().
			HasValue("field", "url").
			HasValue("message", "this field is required")
	})

	suite.Run("validation error", func() {
		resp := suite.e.POST(path).
			WithJSON(map[string]string{"url": "invalid url"}).
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object()

		resp.HasValue("error", "validation error")
		resp.Value("errors").Array().Value(0).Object().
			HasValue("field", "url").
			HasValue("message", "invalid url")
	})

	suite.Run("server error", func() {
		suite.urlUseCaseMock.
			On("ShortenURL", mock.Anything, "https://example.com").
			Once().
			Return(nil, false, errors.New("unknown error"))

		resp := suite.e.POST(path).
			WithJSON(map[string]string{"url": "https://example.com"}).
			Expect().
			Status(http.StatusInternalServerError).
			JSON().Object()

		resp.HasValue("error", "unknown error")
	})

	suite.Run("created", func() {
		suite.urlUseCaseMock.
			On("ShortenURL", mock.Anything, "https://example.com").
			Once().
			Return(suite.record("https://example.com", 0), true, nil)

		resp := suite.e.POST(path).
			WithJSON(map[string]string{"url": "https://example.com"}).
			Expect().
			Status(http.StatusCreated).
			JSON().Object()

		resp.HasValue("shortCode", "abc123")
		resp.HasValue("originalUrl", "https://example.com")
		resp.HasValue("accessCount", 0)
		resp.ContainsKey("createdAt")
		resp.ContainsKey("updatedAt")
	})

	suite.Run("already shortened", func() {
		suite.urlUseCaseMock.
			On("ShortenURL", mock.Anything, "https://example.com").
			Once().
			Return(suite.record("https://example.com", 4), false, nil)

		resp := suite.e.POST(path).
			WithJSON(map[string]string{"url": "https://example.com"}).
			Expect().
			Status(http.StatusOK).
			JSON().Object()

		resp.HasValue("shortCode", "abc123")
		resp.HasValue("accessCount", 4)
	})
}

func (suite *HandlersTestSuite) TestRedirect() {
	const path = "/%s"

	suite.Run("url not found", func() {
		suite.urlUseCaseMock.
			On("ResolveShortCode", mock.Anything, "abc123").
			Once().
			Return(nil, entity.ErrURLNotFound)

		resp := suite.e.GET(fmt.Sprintf(path, "abc123")).
			WithRedirectPolicy(httpexpect.DontFollowRedirects).
			Expect().
			Status(http.StatusNotFound).
			JSON().Object()

		resp.HasValue("error", "url not found")
	})

	suite.Run("server error", func() {
		suite.urlUseCaseMock.
			On("ResolveShortCode", mock.Anything, "abc123").
			Once().
			Return(nil, errors.New("unknown error"))

		resp := suite.e.GET(fmt.Sprintf(path, "abc123")).
			WithRedirectPolicy(httpexpect.DontFollowRedirects).
			Expect().
			Status(http.StatusInternalServerError).
			JSON().Object()

		resp.ContainsKey("error")
	})

	suite.Run("success", func() {
		suite.urlUseCaseMock.
			On("ResolveShortCode", mock.Anything, "abc123").
			Once().
			Return(suite.record("https://example.com/a", 1), nil)

		suite.e.GET(fmt.Sprintf(path, "abc123")).
			WithRedirectPolicy(httpexpect.DontFollowRedirects).
			Expect().
			Status(http.StatusFound).
			Header("Location").IsEqual("https://example.com/a")
	})
}

func (suite *HandlersTestSuite) TestModifyURL() {
	const path = "/shorten/%s/"

	suite.Run("empty request body", func() {
		resp := suite.e.PUT(fmt.Sprintf(path, "abc123")).
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object()

		resp.HasValue("error", "empty request body")
	})

	suite.Run("invalid request body", func() {
		resp := suite.e.PUT(fmt.Sprintf(path, "abc123")).
			WithJSON("invalid body").
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object()

		resp.HasValue("error", "invalid request body")
	})

	suite.Run("validation error", func() {
		resp := suite.e.PUT(fmt.Sprintf(path, "abc123")).
			WithJSON(map[string]string{"url": "invalid url"}).
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object()

		resp.HasValue("error", "validation error")
		resp.Value("errors").Array().Value(0).Object().
			HasValue("field", "url").
			ContainsKey("message")
	})

	suite.Run("url not found", func() {
		suite.urlUseCaseMock.
			On("ModifyURL", mock.Anything, "abc123", "https://new-example.com").
			Once().
			Return(nil, entity.ErrURLNotFound)

		resp := suite.e.PUT(fmt.Sprintf(path, "abc123")).
			WithJSON(map[string]string{"url": "https://new-example.com"}).
			Expect().
			Status(http.StatusNotFound).
			JSON().Object()

		resp.HasValue("error", "url not found")
	})

	suite.Run("server error", func() {
		suite.urlUseCaseMock.
			On("ModifyURL", mock.Anything, "abc123", "https://new-example.com").
			Once().
			Return(nil, errors.New("unknown error"))

		resp := suite.e.PUT(fmt.Sprintf(path, "abc123")).
			WithJSON(map[string]string{"url": "https://new-example.com"}).
			Expect().
			Status(http.StatusInternalServerError).
			JSON().Object()

		resp.ContainsKey("error")
	})

	suite.Run("success", func() {
		suite.urlUseCaseMock.
			On("ModifyURL", mock.Anything, "abc123", "https://new-example.com").
			Once().
			Return(suite.record("https://new-example.com", 2), nil)

		resp := suite.e.PUT(fmt.Sprintf(path, "abc123")).
			WithJSON(map[string]string{"url": "https://new-example.com"}).
			Expect().
			Status(http.StatusOK).
			JSON().Object()

		resp.HasValue("shortCode", "abc123")
		resp.HasValue("originalUrl", "https://new-example.com")
		resp.HasValue("accessCount", 2)
		resp.ContainsKey("createdAt")
		resp.ContainsKey("updatedAt")
	})
}

func (suite *HandlersTestSuite) TestDeactivateURL() {
	const path = "/%s/"

	suite.Run("server error", func() {
		suite.urlUseCaseMock.
			On("DeactivateURL", mock.Anything, "abc123").
			Once().
			Return(errors.New("unknown error"))

		resp := suite.e.DELETE(fmt.Sprintf(path, "abc123")).
			Expect().
			Status(http.StatusInternalServerError).
			JSON().Object()

		resp.HasValue("error", "unknown error")
	})

	suite.Run("success", func() {
		suite.urlUseCaseMock.
			On("DeactivateURL", mock.Anything, "abc123").
			Once().
			Return(nil)

		suite.e.DELETE(fmt.Sprintf(path, "abc123")).
			Expect().
			Status(http.StatusNoContent).
			NoContent()
	})
}

func (suite *HandlersTestSuite) TestGetURLStats() {
	const path = "/stats/%s/"

	suite.Run("url not found", func() {
		suite.urlUseCaseMock.
			On("GetURLStats", mock.Anything, "abc123").
			Once().
			Return(nil, entity.ErrURLNotFound)

		resp := suite.e.GET(fmt.Sprintf(path, "abc123")).
			Expect().
			Status(http.StatusNotFound).
			JSON().Object()

		resp.HasValue("error", "url not found")
	})

	suite.Run("server error", func() {
		suite.urlUseCaseMock.
			On("GetURLStats", mock.Anything, "abc123").
			Once().
			Return(nil, errors.New("unknown error"))

		resp := suite.e.GET(fmt.Sprintf(path, "abc123")).
			Expect().
			Status(http.StatusInternalServerError).
			JSON().Object()

		resp.ContainsKey("error")
	})

	suite.Run("success", func() {
		suite.urlUseCaseMock.
			On("GetURLStats", mock.Anything, "abc123").
			Once().
			Return(suite.record("https://example.com", 1), nil)

		resp := suite.e.GET(fmt.Sprintf(path, "abc123")).
			Expect().
			Status(http.StatusOK).
			JSON().Object()

		resp.HasValue("shortCode", "abc123")
		resp.HasValue("originalUrl", "https://example.com")
		resp.HasValue("accessCount", int64(1))
		resp.HasValue("createdAt", suite.now.Format(time.RFC3339))
		resp.HasValue("updatedAt", suite.now.Format(time.RFC3339))
	})

	suite.Run("without trailing slash", func() {
		suite.urlUseCaseMock.
			On("GetURLStats", mock.Anything, "abc123").
			Once().
			Return(suite.record("https://example.com", 1), nil)

		suite.e.GET("/stats/abc123").
			Expect().
			Status(http.StatusOK).
			JSON().Object().
			HasValue("shortCode", "abc123")
	})
}

func TestURLHandler(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}
