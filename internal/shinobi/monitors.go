package shinobi

import (
	"context"
	"encoding/json"

	"shinobi-relay/internal/relayerr"
	"shinobi-relay/pkg/models"
)

const opListMonitors = "list monitors"

// ListMonitors returns the monitors of a group in the order Shinobi lists them.
func (c *Client) ListMonitors(ctx context.Context, group string) ([]models.Monitor, error) {
	resp, err := c.HTTP.R().
		SetContext(ctx).
		SetPathParam("groupKey", group).
		SetHeader("Accept", "application/json").
		Get("/smonitor/{groupKey}")

	if err != nil {
		return nil, relayerr.New(relayerr.UpstreamUnavailable, opListMonitors, err)
	}

	if resp.IsError() {
		return nil, relayerr.Errorf(relayerr.UpstreamProtocolError, opListMonitors,
			"status %d: %s", resp.StatusCode(), truncate(resp.String()))
	}

	// A bad API key yields 200 with {"ok":false,...}, which fails here too.
	var monitors []models.Monitor
	if err := json.Unmarshal(resp.Body(), &monitors); err != nil {
		return nil, relayerr.Errorf(relayerr.UpstreamProtocolError, opListMonitors,
			"decode response: %w", err)
	}

	for i, m := range monitors {
		if m.ID == "" {
			return nil, relayerr.Errorf(relayerr.UpstreamProtocolError, opListMonitors,
				"monitor at index %d has no mid", i)
		}
	}

	return monitors, nil
}

func truncate(s string) string {
	const maxBody = 200
	if len(s) > maxBody {
		return s[:maxBody] + "..."
	}
	return s
}
