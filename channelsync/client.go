package channelsync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// ChannelClient talks to the sales channel's price API. The channel batch
// endpoint is all-or-nothing: either every line was accepted or the response
// itemizes the rejects.
type ChannelClient struct {
	baseURL   string
	apiKey    string
	apiKeyHdr string
	http      *http.Client
	limiter   <-chan time.Time
}

func NewChannelClient() (*ChannelClient, error) {
	baseURL := strings.TrimSpace(os.Getenv("CHANNEL_API_BASE_URL"))
	if baseURL == "" {
		return nil, errors.New("CHANNEL_API_BASE_URL is not set")
	}
	apiKey := strings.TrimSpace(os.Getenv("CHANNEL_API_KEY"))
	if apiKey == "" {
		return nil, errors.New("CHANNEL_API_KEY is not set")
	}
	apiKeyHeader := strings.TrimSpace(os.Getenv("CHANNEL_API_KEY_HEADER"))
	if apiKeyHeader == "" {
		apiKeyHeader = "X-API-Key"
	}
	rateLimitPerMin := int64(10)
	if v := strings.TrimSpace(os.Getenv("CHANNEL_RATE_LIMIT_PER_MIN")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			rateLimitPerMin = n
		}
	}
	interval := time.Minute / time.Duration(rateLimitPerMin)

	return &ChannelClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		apiKeyHdr: apiKeyHeader,
		http:      &http.Client{Timeout: 30 * time.Second},
		limiter:   time.Tick(interval),
	}, nil
}

func (c *ChannelClient) UpdatePrices(ctx context.Context, updates []PriceUpdate) (UpdateResult, error) {
	<-c.limiter

	payload, err := json.Marshal(map[string]interface{}{"updates": updates})
	if err != nil {
		return UpdateResult{}, err
	}

	endpoint := c.baseURL + "/v1/prices/batch"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return UpdateResult{}, err
	}
	req.Header.Set(c.apiKeyHdr, c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return UpdateResult{}, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return UpdateResult{}, fmt.Errorf("channel api error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed UpdateResult
	if err := json.Unmarshal(body, &parsed); err != nil {
		return UpdateResult{}, err
	}
	return parsed, nil
}
