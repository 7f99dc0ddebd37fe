package tasks

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/M2YTech/libaas-backend/dbhelper"
	"github.com/M2YTech/libaas-backend/models"
	"github.com/M2YTech/libaas-backend/test"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func stringPtr(s string) *string {
	return &s
}

// servePhoto is the stand in for the R2 download URL the worker follows.
func servePhoto(t *testing.T, content []byte, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write(content)
	}))
}

func TestAnalyzeProfilePhotoTask(t *testing.T) {
	fmt.Println("Starting TestAnalyzeProfilePhotoTask")
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	mockServer := servePhoto(t, test.TinyPNG, http.StatusOK)
	defer mockServer.Close()

	user := test.FakeUser(db)
	user.ImageURL = stringPtr(fmt.Sprintf("profiles/%v/photo.png", user.ID))
	user.AnalysisStatus = "pending"
	db.Save(&user)

	fakeTask, err := NewProfileAnalysisTask(user.ID)
	require.NoError(t, err)
	awsServiceMock := &test.AWSProviderMock{MockUrl: mockServer.URL}

	err = HandleAnalyzeProfilePhotoTask(context.Background(), fakeTask, db,
		test.VisionLLMMock{Response: test.MockVisionResponse}, awsServiceMock, nil)
	assert.NoError(t, err)

	var updated models.UserAccount
	db.First(&updated, user.ID)
	assert.Equal(t, "completed", updated.AnalysisStatus)
	assert.Nil(t, updated.AnalysisErrorMessage)
	assert.Contains(t, string(updated.VisionInsights), "oval face, warm undertone")
	assert.Contains(t, string(updated.VisionInsights), "mock-vision")
}

func TestAnalyzeProfilePhotoTaskNoPhoto(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()

	user := test.FakeUser(db)

	fakeTask, err := NewProfileAnalysisTask(user.ID)
	require.NoError(t, err)

	err = HandleAnalyzeProfilePhotoTask(context.Background(), fakeTask, db,
		test.VisionLLMMock{Response: test.MockVisionResponse}, &test.AWSProviderMock{}, nil)
	assert.NoError(t, err)

	var updated models.UserAccount
	db.First(&updated, user.ID)
	assert.Equal(t, "failed", updated.AnalysisStatus)
	require.NotNil(t, updated.AnalysisErrorMessage)
	assert.Equal(t, "No profile photo to analyze", *updated.AnalysisErrorMessage)
	assert.Contains(t, string(updated.VisionInsights), "unknown")
}

func TestAnalyzeProfilePhotoTaskProviderError(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	mockServer := servePhoto(t, test.TinyPNG, http.StatusOK)
	defer mockServer.Close()

	user := test.FakeUser(db)
	user.ImageURL = stringPtr(fmt.Sprintf("profiles/%v/photo.png", user.ID))
	user.AnalysisStatus = "pending"
	db.Save(&user)

	fakeTask, err := NewProfileAnalysisTask(user.ID)
	require.NoError(t, err)
	awsServiceMock := &test.AWSProviderMock{MockUrl: mockServer.URL}

	err = HandleAnalyzeProfilePhotoTask(context.Background(), fakeTask, db,
		test.VisionLLMMock{Err: fmt.Errorf("vision provider down")}, awsServiceMock, nil)
	assert.Error(t, err)

	var updated models.UserAccount
	db.First(&updated, user.ID)
	// Retriable failure, asynq gets the error back and the status stays pending
	assert.Equal(t, "pending", updated.AnalysisStatus)
	assert.Equal(t, 1, updated.AnalysisRetryTimes)
	require.NotNil(t, updated.AnalysisErrorMessage)
	assert.Equal(t, "Failed to analyze profile photo, please try again later", *updated.AnalysisErrorMessage)
}

func TestAnalyzeProfilePhotoTaskUnparseableReply(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	mockServer := servePhoto(t, test.TinyPNG, http.StatusOK)
	defer mockServer.Close()

	user := test.FakeUser(db)
	user.ImageURL = stringPtr(fmt.Sprintf("profiles/%v/photo.png", user.ID))
	user.AnalysisStatus = "pending"
	db.Save(&user)

	fakeTask, err := NewProfileAnalysisTask(user.ID)
	require.NoError(t, err)
	awsServiceMock := &test.AWSProviderMock{MockUrl: mockServer.URL}

	err = HandleAnalyzeProfilePhotoTask(context.Background(), fakeTask, db,
		test.VisionLLMMock{Response: "I refuse to answer in JSON."}, awsServiceMock, nil)
	assert.Error(t, err)

	var updated models.UserAccount
	db.First(&updated, user.ID)
	assert.Equal(t, 1, updated.AnalysisRetryTimes)
	require.NotNil(t, updated.AnalysisErrorMessage)
	assert.Equal(t, "Failed to parse analysis result, please try again later", *updated.AnalysisErrorMessage)
}

func TestProcessWardrobeImageTask(t *testing.T) {
	fmt.Println("Starting TestProcessWardrobeImageTask")
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	mockServer := servePhoto(t, test.TinyPNG, http.StatusOK)
	defer mockServer.Close()

	user := test.FakeUser(db)
	item := models.WardrobeItem{
		OwnerID:          user.ID,
		Name:             "Raw Upload",
		Category:         "Tops",
		SubCategory:      "shirt",
		Color:            "white",
		Style:            "casual",
		Pattern:          "plain",
		ImageURL:         stringPtr(fmt.Sprintf("%v/raw.png", user.ID)),
		ProcessingStatus: "pending",
	}
	require.NoError(t, db.Create(&item).Error)

	fakeTask, err := NewWardrobeImageTask(item.ID)
	require.NoError(t, err)
	awsServiceMock := &test.AWSProviderMock{MockUrl: mockServer.URL}

	err = HandleProcessWardrobeImageTask(context.Background(), fakeTask, db, awsServiceMock)
	assert.NoError(t, err)

	var updated models.WardrobeItem
	db.First(&updated, item.ID)
	assert.Equal(t, "completed", updated.ProcessingStatus)
	assert.Nil(t, updated.ProcessErrorMessage)
}

func TestProcessWardrobeImageTaskAlreadyCompleted(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()

	user := test.FakeUser(db)
	item := test.FakeWardrobeItem(db, user.ID, "Blue Shirt", "Tops")

	fakeTask, err := NewWardrobeImageTask(item.ID)
	require.NoError(t, err)

	// No mock server, a completed item must not trigger any download
	err = HandleProcessWardrobeImageTask(context.Background(), fakeTask, db, &test.AWSProviderMock{})
	assert.NoError(t, err)
}

func TestProcessWardrobeImageTaskDownloadFails(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	mockServer := servePhoto(t, []byte("gone"), http.StatusNotFound)
	defer mockServer.Close()

	user := test.FakeUser(db)
	item := models.WardrobeItem{
		OwnerID:          user.ID,
		Name:             "Raw Upload",
		Category:         "Tops",
		Color:            "white",
		ImageURL:         stringPtr(fmt.Sprintf("%v/raw.png", user.ID)),
		ProcessingStatus: "pending",
	}
	require.NoError(t, db.Create(&item).Error)

	fakeTask, err := NewWardrobeImageTask(item.ID)
	require.NoError(t, err)
	awsServiceMock := &test.AWSProviderMock{MockUrl: mockServer.URL}

	err = HandleProcessWardrobeImageTask(context.Background(), fakeTask, db, awsServiceMock)
	assert.Error(t, err)

	var updated models.WardrobeItem
	db.First(&updated, item.ID)
	assert.Equal(t, "pending", updated.ProcessingStatus)
	assert.Equal(t, 1, updated.ProcessRetryTimes)
	require.NotNil(t, updated.ProcessErrorMessage)
	assert.Equal(t, "Failed to read item image, please upload it again", *updated.ProcessErrorMessage)
}

func TestStyleTipFanoutTask(t *testing.T) {
	fmt.Println("Starting TestStyleTipFanoutTask")
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()

	// Eligible user, has insights and an active push token
	withInsights := test.FakeUser(db)
	withInsights.StyleInsights = datatypes.JSON([]byte(test.MockInsightsResponse))
	db.Save(&withInsights)

	// Skipped, never generated insights
	test.FakeUserV2(db, "Fresh Signup", "fresh@example.com")

	fakeTask, err := NewStyleTipFanoutTask()
	require.NoError(t, err)

	err = HandleStyleTipFanoutTask(context.Background(), fakeTask, db,
		test.TipGeneratorMock{Response: "Wear breathable cotton in this heat."}, nil)
	assert.NoError(t, err)
}

func TestStyleTipFanoutTaskProviderError(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()

	withInsights := test.FakeUser(db)
	withInsights.StyleInsights = datatypes.JSON([]byte(test.MockInsightsResponse))
	db.Save(&withInsights)

	fakeTask, err := NewStyleTipFanoutTask()
	require.NoError(t, err)

	// A single failed user does not fail the whole fanout
	err = HandleStyleTipFanoutTask(context.Background(), fakeTask, db,
		test.TipGeneratorMock{Err: fmt.Errorf("tip provider down")}, nil)
	assert.NoError(t, err)
}
