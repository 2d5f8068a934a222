package shinobi

import (
	"bytes"
	"context"
	"errors"
	"io"

	"shinobi-relay/internal/relayerr"
	"shinobi-relay/pkg/models"
)

const opFetchSnapshot = "fetch snapshot"

// FetchSnapshot downloads the current JPEG of a single monitor.
// It makes exactly one attempt.
func (c *Client) FetchSnapshot(ctx context.Context, group, monitorID string) (models.Snapshot, error) {
	resp, err := c.HTTP.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetPathParams(map[string]string{
			"groupKey":  group,
			"monitorID": monitorID,
		}).
		Get("/jpeg/{groupKey}/{monitorID}/s.jpg")

	if err != nil {
		return models.Snapshot{}, relayerr.ForMonitor(relayerr.UpstreamUnavailable, opFetchSnapshot, monitorID, err)
	}

	body := resp.RawBody()
	defer body.Close()

	if resp.IsError() {
		_, _ = io.Copy(io.Discard, body)
		return models.Snapshot{}, relayerr.ForMonitor(relayerr.SnapshotUnavailable, opFetchSnapshot, monitorID,
			errors.New(resp.Status()))
	}

	var buf bytes.Buffer
	if n := resp.RawResponse.ContentLength; n > 0 {
		buf.Grow(int(n))
	}
	if _, err := buf.ReadFrom(body); err != nil {
		return models.Snapshot{}, relayerr.ForMonitor(relayerr.UpstreamUnavailable, opFetchSnapshot, monitorID, err)
	}

	if buf.Len() == 0 {
		return models.Snapshot{}, relayerr.ForMonitor(relayerr.SnapshotUnavailable, opFetchSnapshot, monitorID,
			errors.New("response body is empty"))
	}

	return models.Snapshot{MonitorID: monitorID, Data: buf.Bytes()}, nil
}
