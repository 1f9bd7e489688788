package devserver

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"net/http"
	"testing"
	"time"

	"github.com/smartagrinode/agrinode/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkCommand(t *testing.T, baseURL string) string {
	t.Helper()
	resp, err := http.Get(baseURL + "/api/device/check-command")
	require.NoError(t, err)
	defer resp.Body.Close()

	var cmd string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cmd))
	return cmd
}

func TestCheckCommand_DefaultsToStop(t *testing.T) {
	_, ts := newTestServer(t, Options{})
	assert.Equal(t, CommandStop, checkCommand(t, ts.URL))
}

func TestSensorSimulation(t *testing.T) {
	_, ts := newTestServer(t, Options{SensorDelay: 20 * time.Millisecond})
	ctx := context.Background()
	c, _ := signIn(t, ts, "alice")

	ack, err := c.TriggerSensors(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Sensor measurement requested", ack.Message)

	assert.Equal(t, CommandMeasureSensors, checkCommand(t, ts.URL))
	assert.Equal(t, CommandStop, checkCommand(t, ts.URL), "trigger commands are consumed once")

	var status *models.SensorStatus
	require.Eventually(t, func() bool {
		status, err = c.LatestSensors(ctx)
		return err == nil && status.Complete()
	}, 2*time.Second, 10*time.Millisecond)

	assert.GreaterOrEqual(t, status.Data.N, 30.0)
	assert.LessOrEqual(t, status.Data.N, 100.0)
	assert.GreaterOrEqual(t, status.Data.P, 20.0)
	assert.LessOrEqual(t, status.Data.K, 80.0)
	assert.GreaterOrEqual(t, status.Data.PH, 5.5)
	assert.LessOrEqual(t, status.Data.PH, 7.5)
}

func TestSensorHardwareReading(t *testing.T) {
	_, ts := newTestServer(t, Options{SensorDelay: time.Hour})
	ctx := context.Background()
	c, _ := signIn(t, ts, "alice")

	_, err := c.TriggerSensors(ctx)
	require.NoError(t, err)

	status, err := c.LatestSensors(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SensorStatusPending, status.Status)
	assert.Nil(t, status.Data)

	resp, out := doRequest(t, "POST", ts.URL+"/api/device/update-sensors", []byte(`{"N":55,"P":40,"K":35,"ph":6.8}`), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "received", out["status"])

	status, err = c.LatestSensors(ctx)
	require.NoError(t, err)
	require.True(t, status.Complete())
	assert.Equal(t, models.SensorReading{N: 55, P: 40, K: 35, PH: 6.8}, *status.Data)
}

func TestSensorTrigger_ClearsPreviousReading(t *testing.T) {
	_, ts := newTestServer(t, Options{SensorDelay: time.Hour})
	ctx := context.Background()
	c, _ := signIn(t, ts, "alice")

	doRequest(t, "POST", ts.URL+"/api/device/update-sensors", []byte(`{"N":55,"P":40,"K":35,"ph":6.8}`), nil)
	_, err := c.TriggerSensors(ctx)
	require.NoError(t, err)

	status, err := c.LatestSensors(ctx)
	require.NoError(t, err)
	assert.False(t, status.Complete())
}

func TestWeedScanSimulation(t *testing.T) {
	_, ts := newTestServer(t, Options{ScanInterval: 5 * time.Millisecond, ScanImages: 3})
	ctx := context.Background()
	c, _ := signIn(t, ts, "alice")

	ack, err := c.TriggerWeedScan(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Weed scan requested", ack.Message)
	assert.Equal(t, CommandStartWeedScan, checkCommand(t, ts.URL))

	var results *models.WeedScanResults
	require.Eventually(t, func() bool {
		results, err = c.WeedScanResults(ctx)
		return err == nil && results.Count == 3
	}, 5*time.Second, 10*time.Millisecond)

	for _, frame := range results.Results {
		data, err := frame.DecodeImage()
		require.NoError(t, err)
		assert.NotEmpty(t, data)
		assert.LessOrEqual(t, frame.WeedCount, 5)
	}

	// No more frames arrive once the scan is complete.
	time.Sleep(30 * time.Millisecond)
	results, err = c.WeedScanResults(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, results.Count)
}

func TestUploadImage(t *testing.T) {
	_, ts := newTestServer(t, Options{ScanInterval: time.Hour})
	ctx := context.Background()
	c, _ := signIn(t, ts, "alice")

	_, err := c.TriggerWeedScan(ctx)
	require.NoError(t, err)

	resp, out := doRequest(t, "POST", ts.URL+"/api/device/upload-image", nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Empty body", out["error"])

	img := fieldImage(t, 128, 128, image.Rect(16, 16, 48, 48))
	resp, out = doRequest(t, "POST", ts.URL+"/api/device/upload-image", img, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "processed", out["status"])
	assert.Equal(t, 1.0, out["weed_count"])

	results, err := c.WeedScanResults(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, results.Count)
	assert.Equal(t, 1, results.Results[0].WeedCount)

	resp, _ = doRequest(t, "POST", ts.URL+"/api/device/upload-image", []byte("not an image"), nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestDevice_StopCancelsSimulations(t *testing.T) {
	opts := Options{SensorDelay: time.Hour, ScanInterval: time.Hour, ScanImages: 8}
	d := newDevice(NewGreenDetector(), opts, nopLogger())
	ctx := context.Background()

	d.requestSensors(ctx)
	d.requestScan(ctx)

	done := make(chan struct{})
	go func() {
		d.stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stop did not return")
	}

	_, err := d.addFrame(ctx, fieldImage(t, 32, 32))
	assert.NoError(t, err, "hardware uploads still land after the simulations stop")
}

func TestDevice_NewScanDiscardsOldFrames(t *testing.T) {
	d := newDevice(NewGreenDetector(), Options{ScanInterval: time.Hour, ScanImages: 1}, nopLogger())
	defer d.stop()
	ctx := context.Background()

	_, err := d.addFrame(ctx, fieldImage(t, 32, 32))
	require.NoError(t, err)
	assert.Equal(t, 1, d.scanResults().Count)

	d.requestScan(ctx)
	assert.Equal(t, 0, d.scanResults().Count)
}

func TestSyntheticFrame(t *testing.T) {
	d := newDevice(NewGreenDetector(), Options{}, nopLogger())
	defer d.stop()

	frame, err := syntheticFrame(d.rng)
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(frame))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 640, cfg.Width)
	assert.Equal(t, 480, cfg.Height)
}
