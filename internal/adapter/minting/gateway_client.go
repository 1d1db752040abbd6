package minting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/srgjo27/nft_ticket/internal/core/ports"
)

const maxResponseBytes = 1 << 20

// GatewayClient talks to the collection gateway that deploys NFT contracts
// and mints tokens on behalf of the service.
type GatewayClient struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

var _ ports.Minter = (*GatewayClient)(nil)

func NewGatewayClient(baseURL string, timeout time.Duration, log *zap.Logger) (*GatewayClient, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("minting: gateway url is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("minting: invalid gateway url %q: %w", baseURL, err)
	}

	return &GatewayClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log.Named("gateway"),
	}, nil
}

type deployRequest struct {
	Name        string `json:"name"`
	TotalSupply int    `json:"totalSupply"`
}

type deployResponse struct {
	ContractAddress string `json:"contractAddress"`
}

type mintRequest struct {
	ImageRef    string `json:"imageRef"`
	Name        string `json:"name"`
	Description string `json:"description"`
	TokenIndex  int    `json:"tokenIndex"`
}

// StatusError is returned for any non-2xx gateway answer.
type StatusError struct {
	StatusCode int
	Method     string
	Path       string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("minting: unexpected %d response from %s %s: %s", e.StatusCode, e.Method, e.Path, e.Body)
}

func (c *GatewayClient) DeployCollection(ctx context.Context, name string, totalSupply int) (string, error) {
	body, err := c.do(ctx, http.MethodPost, "/collections", deployRequest{Name: name, TotalSupply: totalSupply})
	if err != nil {
		return "", err
	}

	var resp deployResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("minting: decode deploy response: %w", err)
	}

	c.log.Info("collection deployed", zap.String("name", name), zap.Int("total_supply", totalSupply), zap.String("contract_address", resp.ContractAddress))
	return resp.ContractAddress, nil
}

// MintUnit mints the token with the given index. The gateway treats a repeated
// index on the same contract as a no-op success.
func (c *GatewayClient) MintUnit(ctx context.Context, req ports.MintRequest) error {
	path := "/collections/" + url.PathEscape(req.ContractAddress) + "/tokens"
	_, err := c.do(ctx, http.MethodPost, path, mintRequest{
		ImageRef:    req.ImageRef,
		Name:        req.Name,
		Description: req.Description,
		TokenIndex:  req.TokenIndex,
	})
	return err
}

func (c *GatewayClient) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("minting: encode request body: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("minting: create request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("minting: request to %s %s failed: %w", method, path, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("minting: read response body: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, &StatusError{
			StatusCode: response.StatusCode,
			Method:     method,
			Path:       path,
			Body:       strings.TrimSpace(string(body)),
		}
	}
	return body, nil
}
