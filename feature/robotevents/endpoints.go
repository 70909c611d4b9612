package robotevents

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// SeasonEvents lists every event of a season.
func (c *Client) SeasonEvents(ctx context.Context, seasonID string) ([]map[string]any, error) {
	return c.collect(ctx, "/seasons/"+url.PathEscape(seasonID)+"/events", nil)
}

// EventDetail fetches a single event, including its embedded division list.
func (c *Client) EventDetail(ctx context.Context, eventID string) (map[string]any, error) {
	body, err := c.Get(ctx, "/events/"+url.PathEscape(eventID), nil)
	if err != nil {
		return nil, err
	}

	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decoding event %s failed: %w", eventID, err)
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("event %s: unexpected response shape", eventID)
	}
	// Detail responses may come wrapped in a data envelope.
	if data, ok := obj["data"].(map[string]any); ok {
		return data, nil
	}
	return obj, nil
}

// EventTeams lists the teams attending an event.
func (c *Client) EventTeams(ctx context.Context, eventID string) ([]map[string]any, error) {
	return c.collect(ctx, "/events/"+url.PathEscape(eventID)+"/teams", nil)
}

// EventSkills lists skills results for an event.
func (c *Client) EventSkills(ctx context.Context, eventID string) ([]map[string]any, error) {
	return c.collect(ctx, "/events/"+url.PathEscape(eventID)+"/skills", nil)
}

// DivisionMatches lists the matches of one division.
func (c *Client) DivisionMatches(ctx context.Context, eventID, divisionID string) ([]map[string]any, error) {
	return c.collect(ctx, divisionPath(eventID, divisionID)+"/matches", nil)
}

// DivisionRankings lists the qualification rankings of one division.
func (c *Client) DivisionRankings(ctx context.Context, eventID, divisionID string) ([]map[string]any, error) {
	return c.collect(ctx, divisionPath(eventID, divisionID)+"/rankings", nil)
}

// DivisionFinalistRankings lists the elimination-alliance rankings of one
// division.
func (c *Client) DivisionFinalistRankings(ctx context.Context, eventID, divisionID string) ([]map[string]any, error) {
	return c.collect(ctx, divisionPath(eventID, divisionID)+"/finalistRankings", nil)
}

func divisionPath(eventID, divisionID string) string {
	return "/events/" + url.PathEscape(eventID) + "/divisions/" + url.PathEscape(divisionID)
}

// collect walks every page of a paginated endpoint.
func (c *Client) collect(ctx context.Context, endpoint string, query url.Values) ([]map[string]any, error) {
	return CollectAll(ctx, c.logger, func(ctx context.Context, page, perPage int) (any, error) {
		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		q.Set("page", strconv.Itoa(page))
		q.Set("per_page", strconv.Itoa(perPage))

		body, err := c.Get(ctx, endpoint, q)
		if err != nil {
			return nil, err
		}

		var raw any
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, fmt.Errorf("decoding page %d of %s failed: %w", page, endpoint, err)
		}
		return raw, nil
	})
}
