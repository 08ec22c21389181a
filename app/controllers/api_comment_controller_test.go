package controllers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PixelForum/app/models"
	"github.com/ManuelReschke/PixelForum/app/repository"
	"github.com/ManuelReschke/PixelForum/app/services"
	"github.com/ManuelReschke/PixelForum/internal/pkg/cache"
	"github.com/ManuelReschke/PixelForum/internal/pkg/database/dbtest"
	"github.com/ManuelReschke/PixelForum/internal/pkg/middleware"
	"github.com/ManuelReschke/PixelForum/internal/pkg/security"
)

const testSecret = "controller-test-secret"

type commentAPI struct {
	app   *fiber.App
	db    *gorm.DB
	x, y  *models.User
	post  *models.Post
	repos *repository.Repositories
}

func newCommentAPI(t *testing.T) *commentAPI {
	t.Helper()

	db := dbtest.New(t)
	repos := repository.NewRepositories(db)
	svc := services.NewCommentService(repos.Comment, cache.NewMemoryCountStore(time.Minute, time.Minute), nil)

	x := dbtest.SeedUser(t, db, "userx")
	y := dbtest.SeedUser(t, db, "usery")
	post := dbtest.SeedPost(t, db, x)

	app := fiber.New()
	requireAuth := middleware.BearerAuthMiddleware(testSecret, repos.User)
	cc := NewCommentController(svc)
	app.Get("/comments/:postId", cc.HandleListComments)
	app.Post("/comments/:postId", requireAuth, cc.HandleCreateComment)
	app.Put("/comments/:commentId", requireAuth, cc.HandleUpdateComment)
	app.Delete("/comments/:commentId", requireAuth, cc.HandleDeleteComment)
	pc := NewPostController(repos.Post, svc)
	app.Get("/posts/:postId", pc.HandleGetPost)

	return &commentAPI{app: app, db: db, x: x, y: y, post: post, repos: repos}
}

func tokenFor(t *testing.T, u *models.User) string {
	t.Helper()
	token, err := security.GenerateAccessToken(u.ID, u.Username, time.Hour, testSecret)
	require.NoError(t, err)
	return token
}

func (a *commentAPI) do(t *testing.T, method, path, token, body string) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var payload map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &payload))
	}
	return resp, payload
}

func (a *commentAPI) list(t *testing.T) []models.CommentView {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/comments/"+itoa(a.post.ID), nil)
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var views []models.CommentView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&views))
	return views
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func TestCommentAPI_ListEmptyPost(t *testing.T) {
	a := newCommentAPI(t)

	resp, _ := a.do(t, http.MethodGet, "/comments/"+itoa(a.post.ID), "", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, a.list(t))
}

func TestCommentAPI_ListInvalidPostID(t *testing.T) {
	a := newCommentAPI(t)

	for _, id := range []string{"abc", "0", "-1"} {
		resp, body := a.do(t, http.MethodGet, "/comments/"+id, "", "")
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, id)
		assert.Equal(t, "bad_request", body["error"])
	}
}

func TestCommentAPI_CreateRequiresAuthentication(t *testing.T) {
	a := newCommentAPI(t)

	resp, body := a.do(t, http.MethodPost, "/comments/"+itoa(a.post.ID), "", `{"content":"hi"}`)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "unauthorized", body["error"])

	resp, body = a.do(t, http.MethodPost, "/comments/"+itoa(a.post.ID), "not-a-token", `{"content":"hi"}`)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "forbidden", body["error"])

	assert.Empty(t, a.list(t))
}

func TestCommentAPI_CreateReturnsCommentWithAuthor(t *testing.T) {
	a := newCommentAPI(t)

	resp, body := a.do(t, http.MethodPost, "/comments/"+itoa(a.post.ID), tokenFor(t, a.x), `{"content":"  Nice post  "}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Comment added successfully", body["message"])

	comment, ok := body["comment"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "  Nice post  ", comment["content"])
	assert.Equal(t, "userx", comment["username"])
	assert.EqualValues(t, a.x.ID, comment["user_id"])
	assert.NotZero(t, comment["id"])
	assert.Contains(t, comment, "created_at")
	assert.Contains(t, comment, "profile_picture_url")
}

func TestCommentAPI_CreateValidation(t *testing.T) {
	a := newCommentAPI(t)
	token := tokenFor(t, a.x)

	for _, body := range []string{`{"content":""}`, `{"content":"   \n\t"}`, `{}`} {
		resp, payload := a.do(t, http.MethodPost, "/comments/"+itoa(a.post.ID), token, body)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, body)
		assert.Equal(t, "validation_error", payload["error"])
	}

	resp, payload := a.do(t, http.MethodPost, "/comments/"+itoa(a.post.ID), token, `{"content":`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "bad_request", payload["error"])

	assert.Empty(t, a.list(t))
}

func TestCommentAPI_CreateUnknownPost(t *testing.T) {
	a := newCommentAPI(t)

	resp, body := a.do(t, http.MethodPost, "/comments/9999", tokenFor(t, a.x), `{"content":"hello"}`)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Post not found", body["message"])
}

// X comments, Y fails to edit and delete it, X edits then deletes it.
func TestCommentAPI_OwnershipScenario(t *testing.T) {
	a := newCommentAPI(t)
	tokenX, tokenY := tokenFor(t, a.x), tokenFor(t, a.y)

	resp, body := a.do(t, http.MethodPost, "/comments/"+itoa(a.post.ID), tokenX, `{"content":"Nice post"}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	id := uint(body["comment"].(map[string]any)["id"].(float64))
	path := "/comments/" + itoa(id)

	resp, body = a.do(t, http.MethodPut, path, tokenY, `{"content":"Hacked"}`)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "permission_denied", body["error"])

	resp, body = a.do(t, http.MethodDelete, path, tokenY, "")
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "permission_denied", body["error"])

	views := a.list(t)
	require.Len(t, views, 1)
	assert.Equal(t, "Nice post", views[0].Content)

	resp, body = a.do(t, http.MethodPut, path, tokenX, `{"content":"Nice post!"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Comment updated successfully", body["message"])
	assert.Equal(t, "Nice post!", a.list(t)[0].Content)

	resp, body = a.do(t, http.MethodDelete, path, tokenX, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Comment deleted successfully", body["message"])
	assert.Empty(t, a.list(t))

	resp, body = a.do(t, http.MethodDelete, path, tokenX, "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Comment not found", body["message"])
}

func TestCommentAPI_UpdateEdgeCases(t *testing.T) {
	a := newCommentAPI(t)
	c := dbtest.SeedComment(t, a.db, a.post, a.x, "original", time.Now().UTC())
	token := tokenFor(t, a.x)

	resp, _ := a.do(t, http.MethodPut, "/comments/"+itoa(c.ID), token, `{"content":"   "}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = a.do(t, http.MethodPut, "/comments/424242", token, `{"content":"text"}`)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = a.do(t, http.MethodPut, "/comments/"+itoa(c.ID), "", `{"content":"text"}`)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	assert.Equal(t, "original", a.list(t)[0].Content)
}

func TestCommentAPI_ListChronological(t *testing.T) {
	a := newCommentAPI(t)
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	dbtest.SeedComment(t, a.db, a.post, a.y, "second", base.Add(time.Minute))
	dbtest.SeedComment(t, a.db, a.post, a.x, "first", base)
	dbtest.SeedComment(t, a.db, a.post, a.x, "third", base.Add(2*time.Minute))

	views := a.list(t)
	require.Len(t, views, 3)
	assert.Equal(t, []string{"first", "second", "third"}, []string{views[0].Content, views[1].Content, views[2].Content})
	assert.Equal(t, "usery", views[1].Username)
}

func TestCommentAPI_DisabledUserRejected(t *testing.T) {
	a := newCommentAPI(t)
	require.NoError(t, a.db.Model(&models.User{}).Where("id = ?", a.y.ID).Update("status", models.STATUS_DISABLED).Error)

	resp, _ := a.do(t, http.MethodPost, "/comments/"+itoa(a.post.ID), tokenFor(t, a.y), `{"content":"hi"}`)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestPostAPI_GetPostWithCommentCount(t *testing.T) {
	a := newCommentAPI(t)
	token := tokenFor(t, a.x)

	resp, body := a.do(t, http.MethodGet, "/posts/"+itoa(a.post.ID), "", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Hello", body["title"])
	assert.Equal(t, "userx", body["username"])
	assert.EqualValues(t, 0, body["comment_count"])

	a.do(t, http.MethodPost, "/comments/"+itoa(a.post.ID), token, `{"content":"one"}`)
	a.do(t, http.MethodPost, "/comments/"+itoa(a.post.ID), token, `{"content":"two"}`)

	_, body = a.do(t, http.MethodGet, "/posts/"+itoa(a.post.ID), "", "")
	assert.EqualValues(t, 2, body["comment_count"])

	resp, _ = a.do(t, http.MethodGet, "/posts/777", "", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
