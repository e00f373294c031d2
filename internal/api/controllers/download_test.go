package controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidgrab/vidgrab/internal/domain"
	"github.com/vidgrab/vidgrab/internal/ytdlp"
)

func i64(v int64) *int64     { return &v }
func f64(v float64) *float64 { return &v }

func dialAndSend(t *testing.T, env *testEnv, req domain.DownloadRequest) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(env.wsURL(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.WriteJSON(req))
	return conn
}

func readRecord(t *testing.T, conn *websocket.Conn) domain.ProgressRecord {
	t.Helper()
	var rec domain.ProgressRecord
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&rec))
	return rec
}

func TestStreamFullDownloadScenario(t *testing.T) {
	job := newFakeJob()
	env := newTestEnv(t, &fakeExecutor{job: job}, &fakeExtractor{})

	conn := dialAndSend(t, env, domain.DownloadRequest{URL: "https://x/y", FormatID: "22"})

	// synthetic acceptance record arrives before any executor tick
	rec := readRecord(t, conn)
	assert.Equal(t, domain.StatusDownloading, rec.Status)
	assert.Nil(t, rec.DownloadedBytes)

	job.events <- ytdlp.ByteProgress{
		DownloadedBytes: i64(1048576),
		TotalBytes:      i64(10485760),
		Speed:           f64(500000),
	}
	rec = readRecord(t, conn)
	assert.Equal(t, domain.StatusDownloading, rec.Status)
	assert.Equal(t, int64(1048576), *rec.DownloadedBytes)

	job.events <- ytdlp.Finished{Filename: "y.mp4", Title: "some title"}
	rec = readRecord(t, conn)
	assert.Equal(t, domain.StatusFinished, rec.Status)
	assert.Equal(t, "y.mp4", rec.Filename)

	// server closes cleanly after the terminal record
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure),
		"expected clean close, got %v", err)
}

func TestStreamValidationErrorClosesWithoutJob(t *testing.T) {
	exec := &fakeExecutor{job: newFakeJob()}
	env := newTestEnv(t, exec, &fakeExtractor{})

	start, end := 10, 5
	conn := dialAndSend(t, env, domain.DownloadRequest{
		URL: "https://x/y", ExtractAudio: true, StartTime: &start, EndTime: &end,
	})

	rec := readRecord(t, conn)
	assert.Equal(t, domain.StatusError, rec.Status)
	assert.NotEmpty(t, rec.Message)

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))

	assert.Equal(t, int32(0), exec.starts.Load())
}

func TestStreamJobFailureSurfacesMessage(t *testing.T) {
	job := newFakeJob()
	env := newTestEnv(t, &fakeExecutor{job: job}, &fakeExtractor{})

	conn := dialAndSend(t, env, domain.DownloadRequest{URL: "https://x/y", FormatID: "22"})
	_ = readRecord(t, conn) // synthetic

	job.events <- ytdlp.Failed{Message: "network timeout"}
	rec := readRecord(t, conn)
	assert.Equal(t, domain.StatusError, rec.Status)
	assert.Equal(t, "network timeout", rec.Message)

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))
}

func TestStreamClientCloseCancelsJob(t *testing.T) {
	job := newFakeJob()
	env := newTestEnv(t, &fakeExecutor{job: job}, &fakeExtractor{})

	conn := dialAndSend(t, env, domain.DownloadRequest{URL: "https://x/y", FormatID: "22"})
	_ = readRecord(t, conn) // synthetic

	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool {
		return job.cancels.Load() >= 1
	}, 5*time.Second, 10*time.Millisecond, "job must be cancelled when the client goes away")
}

func TestStreamSecondRequestDoesNotDisturbRunningJob(t *testing.T) {
	job := newFakeJob()
	exec := &fakeExecutor{job: job}
	env := newTestEnv(t, exec, &fakeExtractor{})

	conn := dialAndSend(t, env, domain.DownloadRequest{URL: "https://x/y", FormatID: "22"})
	_ = readRecord(t, conn) // synthetic

	// one channel, one job: this second request is rejected outright
	require.NoError(t, conn.WriteJSON(domain.DownloadRequest{URL: "https://x/z", FormatID: "18"}))

	job.events <- ytdlp.Finished{Filename: "y.mp4"}
	rec := readRecord(t, conn)
	assert.Equal(t, domain.StatusFinished, rec.Status)
	assert.Equal(t, int32(1), exec.starts.Load())
}

func TestPostDownloadAcknowledges(t *testing.T) {
	job := newFakeJob()
	close(job.events)
	env := newTestEnv(t, &fakeExecutor{job: job}, &fakeExtractor{})

	body, _ := json.Marshal(domain.DownloadRequest{URL: "https://x/y", ExtractAudio: true})
	resp, err := http.Post(env.srv.URL+"/api/download", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	var ack struct {
		Message string `json:"message"`
		JobID   string `json:"job_id"`
		Status  string `json:"status"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ack))
	assert.Equal(t, "download started", ack.Message)
	assert.Equal(t, "job-1", ack.JobID)
	assert.Equal(t, "queued", ack.Status)
}

func TestPostDownloadRejectsInvalidRequest(t *testing.T) {
	exec := &fakeExecutor{job: newFakeJob()}
	env := newTestEnv(t, exec, &fakeExtractor{})

	body, _ := json.Marshal(domain.DownloadRequest{URL: "https://x/y"})
	resp, err := http.Post(env.srv.URL+"/api/download", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, int32(0), exec.starts.Load())
}
