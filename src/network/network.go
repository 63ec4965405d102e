package network

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"shop-sim-viewer/src/logger"
	"shop-sim-viewer/src/models"
)

// AsyncNetworkManager performs single-shot HTTP requests. It never retries: a failed request is
// reported to the caller, which decides what to show.
type AsyncNetworkManager struct {
	Config *models.MConfig
	Client *http.Client
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAsyncNetworkManager(cfg *models.MConfig, log *logger.Logger) *AsyncNetworkManager {
	nm := &AsyncNetworkManager{
		Config: cfg,
		Logger: log,
	}
	nm.Client = nm.createClient()
	return nm
}

// -----------------------------------------------------------------------------

func (nm *AsyncNetworkManager) createClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if proxyStr := nm.Config.API.Proxy; proxyStr != "" {
		proxyURL, err := url.Parse(proxyStr)
		if err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		} else {
			nm.Logger.Warning("Ignoring invalid proxy %q: %v", proxyStr, err)
		}
	}

	// Zero means no client timeout; cancellation then comes only from the request context.
	return &http.Client{
		Transport: transport,
		Timeout:   time.Duration(nm.Config.API.TimeoutSeconds) * time.Second,
	}
}

// -----------------------------------------------------------------------------

// Get performs a GET request with the given query parameters.
func (nm *AsyncNetworkManager) Get(ctx context.Context, urlStr string, params map[string]string) (int, []byte, error) {
	reqUrl, err := url.Parse(urlStr)
	if err != nil {
		return 0, nil, err
	}

	q := reqUrl.Query()
	for k, v := range params {
		q.Add(k, v)
	}
	reqUrl.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqUrl.String(), nil)
	if err != nil {
		return 0, nil, err
	}
	return nm.do(req)
}

// -----------------------------------------------------------------------------

// PostJSON sends payload as a JSON body.
func (nm *AsyncNetworkManager) PostJSON(ctx context.Context, urlStr string, payload interface{}) (int, []byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, urlStr, bytes.NewReader(data))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return nm.do(req)
}

// -----------------------------------------------------------------------------

func (nm *AsyncNetworkManager) do(req *http.Request) (int, []byte, error) {
	if ua := nm.Config.API.UserAgent; ua != "" {
		req.Header.Set("User-Agent", ua)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := nm.Client.Do(req)
	if err != nil {
		nm.Logger.Info("Request %s %s failed: %v", req.Method, req.URL.Path, err)
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response body: %w", err)
	}

	nm.Logger.Debug("%s %s -> %d (%s)", req.Method, req.URL.Path, resp.StatusCode, time.Since(start).Round(time.Millisecond))
	return resp.StatusCode, body, nil
}
