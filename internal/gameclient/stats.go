package gameclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/BioHazard786/chessrelay/internal/lobby"
)

var httpClient = &http.Client{Timeout: 10 * time.Second}

// FetchStats reads the server's /stats snapshot.
func FetchStats(ctx context.Context, statsURL string) (lobby.Stats, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statsURL, nil)
	if err != nil {
		return lobby.Stats{}, NewError("fetch stats", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return lobby.Stats{}, NewError("fetch stats", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return lobby.Stats{}, WrapError("fetch stats", ErrStatsUnavailable, resp.Status)
	}

	var stats lobby.Stats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return lobby.Stats{}, NewError("fetch stats", fmt.Errorf("decode: %w", err))
	}
	return stats, nil
}
