package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/wristcheck/internal/handler"
	"github.com/user/wristcheck/internal/model"
)

func TestWishlistAddAndMyOwn(t *testing.T) {
	f := newFixture(t, handler.Options{})
	alice, token := f.user("alice", false)

	w := f.do(http.MethodPost, "/wishlist/add/", map[string]string{"watch_id": "rolex-1"}, token)
	requireStatus(t, http.StatusCreated, w)
	entry := decode[model.WishlistEntry](t, w)
	assert.Equal(t, alice.ID, entry.UserID)
	assert.Equal(t, "rolex-1", entry.WatchID)

	w = f.do(http.MethodPost, "/wishlist/add/", map[string]string{"watch_id": "rolex-1"}, token)
	requireStatus(t, http.StatusBadRequest, w)
	assert.Equal(t, map[string][]string{"non_field_errors": {"The fields user, watch_id must make a unique set."}},
		decode[map[string][]string](t, w))

	w = f.do(http.MethodGet, "/wishlist/my_own/", nil, token)
	requireStatus(t, http.StatusOK, w)
	mine := decode[page[model.WishlistEntry]](t, w)
	require.EqualValues(t, 1, mine.Count)
	assert.Equal(t, entry.ID, mine.Results[0].ID)

	requireStatus(t, http.StatusUnauthorized, f.do(http.MethodPost, "/wishlist/add/", map[string]string{"watch_id": "x"}, ""))
}

func TestWishlistSoftDeleteFreesPair(t *testing.T) {
	f := newFixture(t, handler.Options{})
	_, token := f.user("alice", false)
	_, other := f.user("bob", false)

	entry := decode[model.WishlistEntry](t, f.do(http.MethodPost, "/wishlist/add/", map[string]string{"watch_id": "omega-2"}, token))
	path := fmt.Sprintf("/wishlist/%d/", entry.ID)

	requireStatus(t, http.StatusForbidden, f.do(http.MethodDelete, path, nil, other))
	requireStatus(t, http.StatusOK, f.do(http.MethodGet, path, nil, token))
	assert.Equal(t, http.StatusNoContent, f.do(http.MethodDelete, path, nil, token).Code)
	requireStatus(t, http.StatusNotFound, f.do(http.MethodGet, path, nil, token))

	// 软删除的行仍在库中
	var total int64
	require.NoError(t, f.repos.DB.Unscoped().Model(&model.WishlistEntry{}).Count(&total).Error)
	assert.EqualValues(t, 1, total)

	requireStatus(t, http.StatusCreated, f.do(http.MethodPost, "/wishlist/add/", map[string]string{"watch_id": "omega-2"}, token))
	mine := decode[page[model.WishlistEntry]](t, f.do(http.MethodGet, "/wishlist/my_own/", nil, token))
	assert.EqualValues(t, 1, mine.Count)
}

func TestWishlistRetrieveNotFoundBeforeObjectCheck(t *testing.T) {
	f := newFixture(t, handler.Options{})
	_, token := f.user("alice", false)

	requireStatus(t, http.StatusNotFound, f.do(http.MethodGet, "/wishlist/999/", nil, token))
	requireStatus(t, http.StatusNotFound, f.do(http.MethodGet, "/wishlist/abc/", nil, token))
	// 对象级检查在查找之后，匿名访问不存在的记录同样是 404
	requireStatus(t, http.StatusNotFound, f.do(http.MethodGet, "/wishlist/999/", nil, ""))

	entry := decode[model.WishlistEntry](t, f.do(http.MethodPost, "/wishlist/add/", map[string]string{"watch_id": "w"}, token))
	requireStatus(t, http.StatusUnauthorized, f.do(http.MethodGet, fmt.Sprintf("/wishlist/%d/", entry.ID), nil, ""))
}

func TestFavoriteStatus(t *testing.T) {
	f := newFixture(t, handler.Options{})
	_, token := f.user("alice", false)
	for _, id := range []string{"a", "c"} {
		requireStatus(t, http.StatusCreated, f.do(http.MethodPost, "/wishlist/add/", map[string]string{"watch_id": id}, token))
	}

	w := f.do(http.MethodGet, "/wishlist/favorite_status/?watch_ids=c,b&watch_ids=a", nil, token)
	requireStatus(t, http.StatusOK, w)
	type status struct {
		WatchID    string `json:"watch_id"`
		IsFavorite bool   `json:"is_favorite"`
	}
	assert.Equal(t, []status{
		{WatchID: "c", IsFavorite: true},
		{WatchID: "b", IsFavorite: false},
		{WatchID: "a", IsFavorite: true},
	}, decode[[]status](t, w))

	w = f.do(http.MethodGet, "/wishlist/favorite_status/", nil, token)
	requireStatus(t, http.StatusBadRequest, w)
	assert.Equal(t, map[string][]string{"watch_ids": {"This field is required."}}, decode[map[string][]string](t, w))
}

func TestWishlistAdminEndpoints(t *testing.T) {
	f := newFixture(t, handler.Options{})
	alice, token := f.user("alice", false)
	_, admin := f.user("root", true)

	requireStatus(t, http.StatusForbidden, f.do(http.MethodGet, "/wishlist/", nil, token))
	requireStatus(t, http.StatusForbidden, f.do(http.MethodPost, "/wishlist/", map[string]string{"user": alice.ID.String(), "watch_id": "x"}, token))

	w := f.do(http.MethodPost, "/wishlist/", map[string]string{"user": alice.ID.String(), "watch_id": "tudor-9"}, admin)
	requireStatus(t, http.StatusCreated, w)
	assert.Equal(t, alice.ID, decode[model.WishlistEntry](t, w).UserID)

	w = f.do(http.MethodPost, "/wishlist/", map[string]string{"user": "not-a-uuid", "watch_id": "x"}, admin)
	requireStatus(t, http.StatusBadRequest, w)
	assert.Contains(t, decode[map[string][]string](t, w), "user")

	f.do(http.MethodPost, "/wishlist/add/", map[string]string{"watch_id": "seiko-1"}, admin)

	w = f.do(http.MethodGet, "/wishlist/?user__username=alice", nil, admin)
	requireStatus(t, http.StatusOK, w)
	list := decode[page[model.WishlistEntry]](t, w)
	require.EqualValues(t, 1, list.Count)
	assert.Equal(t, "tudor-9", list.Results[0].WatchID)

	w = f.do(http.MethodGet, "/wishlist/?search=SEIKO", nil, admin)
	requireStatus(t, http.StatusOK, w)
	assert.EqualValues(t, 1, decode[page[model.WishlistEntry]](t, w).Count)
}
