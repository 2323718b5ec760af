package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"virtualwardrobe/models"
	"virtualwardrobe/repository"
	"virtualwardrobe/tasks"
	"virtualwardrobe/test"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadItem(t *testing.T) {
	env := newTestEnv(t)
	user := test.FakeUser(env.db, "")

	req := test.NewUploadRequest("/wardrobe/uploadItem", user.ID,
		map[string]string{"clothName": "  Blue Shirt ", "clothType": "top"},
		"shirt.webp", "image/webp", []byte("webp-bytes"))
	rec := env.do(req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var out models.WardrobeItemOut
	decode(t, rec, &out)
	assert.Equal(t, "Blue Shirt", out.ClothName)
	assert.Equal(t, "top", out.ClothType)
	assert.Equal(t, user.ID, out.UserID)
	assert.Equal(t, models.AnalysisPending, out.AnalysisStatus)
	assert.True(t, strings.HasPrefix(out.ImageURL, "https://fakebucketurl.com/wardrobe/"+user.ID+"/"))

	var item models.WardrobeItem
	require.NoError(t, env.db.First(&item, "id = ?", out.ID).Error)
	assert.True(t, strings.HasSuffix(item.ImageKey, "_Blue_Shirt.webp"), item.ImageKey)
	assert.True(t, env.blobs.Has(item.ImageKey))
	assert.Equal(t, user.Email, env.blobs.Objects[item.ImageKey].Metadata["uploadedBy"])
	assert.Equal(t, "shirt.webp", env.blobs.Objects[item.ImageKey].Metadata["originalName"])
	assert.Equal(t, []string{tasks.TypeAnalyzeItem}, env.enqueuer.Types())
}

func TestUploadItemEnqueueFailureKeepsItem(t *testing.T) {
	env := newTestEnv(t)
	user := test.FakeUser(env.db, "")
	env.enqueuer.Err = errors.New("redis down")

	req := test.NewUploadRequest("/wardrobe/uploadItem", user.ID,
		map[string]string{"clothName": "Jeans", "clothType": "bottom"},
		"jeans.webp", "image/webp", []byte("webp-bytes"))
	rec := env.do(req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var out models.WardrobeItemOut
	decode(t, rec, &out)
	assert.Equal(t, models.AnalysisIdle, out.AnalysisStatus)

	var item models.WardrobeItem
	require.NoError(t, env.db.First(&item, "id = ?", out.ID).Error)
	assert.Equal(t, models.AnalysisIdle, item.AnalysisStatus)
}

func TestUpdateAnalysisKeepsRename(t *testing.T) {
	env := newTestEnv(t)
	user := test.FakeUser(env.db, "")
	item := test.FakeItem(env.db, user, "shirt", "top")
	items := &repository.WardrobeRepository{DB: env.db}

	rec := env.do(test.NewJSONAuthRequest(http.MethodPut, "/wardrobe/"+item.ID, user.ID, echo.Map{"clothName": "Linen shirt"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.NoError(t, items.UpdateAnalysis(context.Background(), item.ID, models.AnalysisUpdate{
		Status:     models.AnalysisCompleted,
		Attributes: &models.ItemAttributes{Color: "white", Pattern: "solid", Material: "linen", Category: "top"},
	}))

	saved, err := items.FindItem(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Linen shirt", saved.Name)
	assert.Equal(t, models.AnalysisCompleted, saved.AnalysisStatus)
	assert.Equal(t, "linen", *saved.Material)

	assert.ErrorIs(t, items.UpdateAnalysis(context.Background(), "missing", models.AnalysisUpdate{Status: models.AnalysisFailed}), repository.ErrNotFound)
}

func TestUploadItemValidation(t *testing.T) {
	env := newTestEnv(t)
	user := test.FakeUser(env.db, "")

	cases := map[string]struct {
		fields      map[string]string
		contentType string
		data        []byte
		field       string
	}{
		"missing-image": {map[string]string{"clothName": "Shirt", "clothType": "top"}, "", nil, "image"},
		"not-an-image":  {map[string]string{"clothName": "Shirt", "clothType": "top"}, "text/plain", []byte("hello"), "image"},
		"blank-name":    {map[string]string{"clothName": "   ", "clothType": "top"}, "image/webp", []byte("webp"), "clothName"},
		"missing-type":  {map[string]string{"clothName": "Shirt"}, "image/webp", []byte("webp"), "clothType"},
		"broken-jpeg":   {map[string]string{"clothName": "Shirt", "clothType": "top"}, "image/jpeg", []byte("not a jpeg"), "image"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := env.do(test.NewUploadRequest("/wardrobe/uploadItem", user.ID, tc.fields, "file", tc.contentType, tc.data))
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), `"field":"`+tc.field+`"`)
		})
	}
	assert.Empty(t, env.blobs.Objects)
	assert.Empty(t, env.enqueuer.Tasks)
}

func TestListItems(t *testing.T) {
	env := newTestEnv(t)
	user := test.FakeUser(env.db, "")
	other := test.FakeUser(env.db, "other@example.com")
	test.FakeItem(env.db, user, "shirt", "top")
	test.FakeItem(env.db, user, "jeans", "bottom")
	test.FakeItem(env.db, other, "dress", "dress")

	for _, req := range []*http.Request{
		test.NewAuthRequest(http.MethodGet, "/wardrobe/items", user.ID),
		test.NewJSONAuthRequest(http.MethodPost, "/wardrobe/getItem", user.ID, echo.Map{}),
	} {
		rec := env.do(req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var out []models.WardrobeItemOut
		decode(t, rec, &out)
		require.Len(t, out, 2)
		for _, item := range out {
			assert.Equal(t, user.ID, item.UserID)
			assert.Equal(t, "https://fakebucketurl.com/wardrobe/"+user.ID+"/"+item.ClothName+".jpg", item.ImageURL)
		}
	}
}

func TestUpdateItem(t *testing.T) {
	env := newTestEnv(t)
	user := test.FakeUser(env.db, "")
	other := test.FakeUser(env.db, "other@example.com")
	item := test.FakeItem(env.db, user, "shirt", "top")

	rec := env.do(test.NewJSONAuthRequest(http.MethodPut, "/wardrobe/"+item.ID, user.ID, models.UpdateItemIn{ClothName: "Linen shirt"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out models.WardrobeItemOut
	decode(t, rec, &out)
	assert.Equal(t, "Linen shirt", out.ClothName)

	var stored models.WardrobeItem
	require.NoError(t, env.db.First(&stored, "id = ?", item.ID).Error)
	assert.Equal(t, "Linen shirt", stored.Name)

	rec = env.do(test.NewJSONAuthRequest(http.MethodPut, "/wardrobe/"+item.ID, other.ID, models.UpdateItemIn{ClothName: "Mine now"}))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(test.NewJSONAuthRequest(http.MethodPut, "/wardrobe/missing-id", user.ID, models.UpdateItemIn{ClothName: "Ghost"}))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(test.NewJSONAuthRequest(http.MethodPut, "/wardrobe/"+item.ID, user.ID, models.UpdateItemIn{ClothName: "  "}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteItem(t *testing.T) {
	env := newTestEnv(t)
	user := test.FakeUser(env.db, "")
	other := test.FakeUser(env.db, "other@example.com")
	item := test.FakeItem(env.db, user, "shirt", "top")
	env.blobs.Put(item.ImageKey, []byte("jpeg"), "image/jpeg")

	rec := env.do(test.NewAuthRequest(http.MethodDelete, "/wardrobe/"+item.ID, other.ID))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.True(t, env.blobs.Has(item.ImageKey))

	rec = env.do(test.NewAuthRequest(http.MethodDelete, "/wardrobe/"+item.ID, user.ID))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out models.SuccessOut
	decode(t, rec, &out)
	assert.True(t, out.Success)
	assert.False(t, env.blobs.Has(item.ImageKey))

	var count int64
	env.db.Model(&models.WardrobeItem{}).Where("id = ?", item.ID).Count(&count)
	assert.Zero(t, count)

	rec = env.do(test.NewAuthRequest(http.MethodDelete, "/wardrobe/"+item.ID, user.ID))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteItemSchedulesCleanupWhenStoreFails(t *testing.T) {
	env := newTestEnv(t)
	user := test.FakeUser(env.db, "")
	item := test.FakeItem(env.db, user, "shirt", "top")
	env.blobs.FailDelete = errors.New("r2 unavailable")

	rec := env.do(test.NewAuthRequest(http.MethodDelete, "/wardrobe/"+item.ID, user.ID))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{tasks.TypeDeleteBlob}, env.enqueuer.Types())
}
