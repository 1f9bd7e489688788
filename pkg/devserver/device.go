package devserver

import (
	"context"
	"encoding/base64"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/smartagrinode/agrinode/pkg/logging"
	"github.com/smartagrinode/agrinode/pkg/models"
	"go.uber.org/zap"
)

// Commands the field device picks up from check-command.
const (
	CommandStop           = "STOP"
	CommandMeasureSensors = "MEASURE_SENSORS"
	CommandStartWeedScan  = "START_WEED_SCAN"
)

// device is the in-memory state shared between the dashboard side and the
// hardware side. When no hardware reports in, simulations fill the gap.
type device struct {
	weed   WeedModel
	opts   Options
	logger *logging.Logger

	mu      sync.Mutex
	command string
	sensor  *models.SensorReading
	scan    []models.WeedScanImage
	rng     *rand.Rand

	ctx        context.Context
	cancel     context.CancelFunc
	sensorStop context.CancelFunc
	scanStop   context.CancelFunc
	wg         sync.WaitGroup
}

func newDevice(weed WeedModel, opts Options, logger *logging.Logger) *device {
	ctx, cancel := context.WithCancel(context.Background())
	return &device{
		weed:    weed,
		opts:    opts,
		logger:  logger.Named("device"),
		command: CommandStop,
		rng:     rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed)),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// takeCommand returns the pending command and resets trigger commands to STOP.
func (d *device) takeCommand() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	cmd := d.command
	if cmd == CommandMeasureSensors || cmd == CommandStartWeedScan {
		d.command = CommandStop
	}
	return cmd
}

// requestSensors queues a measurement and starts the fallback that fills in a
// reading after SensorDelay unless the hardware answers first.
func (d *device) requestSensors(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.command = CommandMeasureSensors
	d.sensor = nil
	if d.sensorStop != nil {
		d.sensorStop()
	}
	simCtx, stop := context.WithCancel(d.ctx)
	d.sensorStop = stop

	d.logger.Info(ctx, "sensor measurement requested")
	d.wg.Add(1)
	go d.simulateSensors(simCtx)
}

func (d *device) simulateSensors(ctx context.Context) {
	defer d.wg.Done()

	timer := time.NewTimer(d.opts.SensorDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if ctx.Err() != nil || d.sensor != nil {
		return
	}
	d.sensor = &models.SensorReading{
		N:  uniform(d.rng, 30, 100),
		P:  uniform(d.rng, 20, 80),
		K:  uniform(d.rng, 20, 80),
		PH: uniform(d.rng, 5.5, 7.5),
	}
	d.logger.Debug(ctx, "simulated sensor reading stored")
}

// updateSensors stores a reading reported by the hardware.
func (d *device) updateSensors(reading models.SensorReading) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r := reading
	d.sensor = &r
}

// latestSensors returns the poll view of the current measurement.
func (d *device) latestSensors() models.SensorStatus {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.sensor == nil {
		return models.SensorStatus{Status: models.SensorStatusPending}
	}
	r := *d.sensor
	return models.SensorStatus{Status: models.SensorStatusComplete, Data: &r}
}

// requestScan queues a camera scan, clears earlier frames and starts the
// fallback that produces ScanImages frames one by one.
func (d *device) requestScan(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.command = CommandStartWeedScan
	d.scan = nil
	if d.scanStop != nil {
		d.scanStop()
	}
	simCtx, stop := context.WithCancel(d.ctx)
	d.scanStop = stop

	d.logger.Info(ctx, "weed scan requested", zap.Int("images", d.opts.ScanImages))
	d.wg.Add(1)
	go d.simulateScan(simCtx)
}

func (d *device) simulateScan(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.opts.ScanInterval)
	defer ticker.Stop()

	for i := 0; i < d.opts.ScanImages; i++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		d.mu.Lock()
		frame, err := syntheticFrame(d.rng)
		d.mu.Unlock()
		if err != nil {
			d.logger.Warn(ctx, "failed to render simulated frame", zap.Error(err))
			continue
		}

		if _, err := d.addFrame(ctx, frame); err != nil {
			d.logger.Warn(ctx, "failed to analyse simulated frame", zap.Error(err))
		}
	}
}

// addFrame runs detection on a camera frame and appends it to the scan.
func (d *device) addFrame(ctx context.Context, frame []byte) (int, error) {
	det, err := d.weed.Detect(frame)
	if err != nil {
		return 0, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}
	d.scan = append(d.scan, models.WeedScanImage{
		Image:     base64.StdEncoding.EncodeToString(det.Annotated),
		WeedCount: det.Count(),
	})
	return det.Count(), nil
}

// scanResults returns a copy of the frames received so far.
func (d *device) scanResults() models.WeedScanResults {
	d.mu.Lock()
	defer d.mu.Unlock()

	results := make([]models.WeedScanImage, len(d.scan))
	copy(results, d.scan)
	return models.WeedScanResults{Count: len(results), Results: results}
}

// stop cancels running simulations and waits for them to exit.
func (d *device) stop() {
	d.cancel()
	d.wg.Wait()
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
