package main

import (
	"context"

	"github.com/smartagrinode/agrinode/pkg/config"
	"github.com/smartagrinode/agrinode/pkg/models"
	"github.com/smartagrinode/agrinode/pkg/poller"
)

// Poll keys; starting a poll under a key replaces the running one.
const (
	pollSensors  = "sensors"
	pollWeedScan = "weed-scan"
)

type pollResult[T any] struct {
	value T
	err   error
}

// await launches job under key and blocks until it finishes or ctx ends.
func await[T any](ctx context.Context, app *App, key string, cfg config.PollJobConfig, job poller.Job[T]) (T, error) {
	p := poller.New[T](poller.Config{Interval: cfg.Interval, MaxAttempts: cfg.MaxAttempts}, app.logger)

	done := make(chan pollResult[T], 1)
	h := poller.Launch(ctx, app.polls, key, p, job, func(v T, err error) {
		done <- pollResult[T]{v, err}
	})

	select {
	case res := <-done:
		return res.value, res.err
	case <-ctx.Done():
		app.polls.Cancel(key)
		h.Wait()
		var zero T
		return zero, ctx.Err()
	}
}

// measureSensors triggers the soil sensors and waits for the reading.
func (a *App) measureSensors(ctx context.Context) (*models.SensorReading, error) {
	status, err := await(ctx, a, pollSensors, a.cfg.Poll.Sensors, poller.Job[*models.SensorStatus]{
		Name: pollSensors,
		Trigger: func(ctx context.Context) error {
			ack, err := a.client.TriggerSensors(ctx)
			if err != nil {
				return err
			}
			a.printer.Info("%s", ack.Message)
			return nil
		},
		Check: func(ctx context.Context) (*models.SensorStatus, bool, error) {
			status, err := a.client.LatestSensors(ctx)
			if err != nil {
				return nil, false, err
			}
			return status, status.Complete(), nil
		},
		Progress: a.printer.SensorProgress,
	})
	if err != nil {
		return nil, err
	}
	return status.Data, nil
}

// scanField triggers a camera scan and collects frames until the expected
// number has arrived. On timeout the frames received so far are returned
// along with the error.
func (a *App) scanField(ctx context.Context) (*models.WeedScanResults, error) {
	expected := a.cfg.Poll.ScanImages
	return await(ctx, a, pollWeedScan, a.cfg.Poll.WeedScan, poller.Job[*models.WeedScanResults]{
		Name: pollWeedScan,
		Trigger: func(ctx context.Context) error {
			ack, err := a.client.TriggerWeedScan(ctx)
			if err != nil {
				return err
			}
			a.printer.Info("%s", ack.Message)
			return nil
		},
		Check: func(ctx context.Context) (*models.WeedScanResults, bool, error) {
			res, err := a.client.WeedScanResults(ctx)
			if err != nil {
				return nil, false, err
			}
			return res, res.Count >= expected, nil
		},
		Progress: func(res *models.WeedScanResults) {
			a.printer.ScanProgress(res, expected)
		},
	})
}
