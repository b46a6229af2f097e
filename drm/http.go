package drm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"hlsgate/models"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// caps the exchange response we are willing to buffer
const maxExchangeResponseSize = 1 << 20

// HTTPExchanger posts the exchange request as JSON to a key-exchange
// endpoint and reads the clearKeys object from the reply.
type HTTPExchanger struct {
	client   models.HTTPClient
	endpoint string
}

func NewHTTPExchanger(client models.HTTPClient, endpoint string) *HTTPExchanger {
	return &HTTPExchanger{
		client:   client,
		endpoint: endpoint,
	}
}

func (e *HTTPExchanger) Exchange(
	ctx context.Context,
	request *models.ExchangeRequest,
) (map[string]string, error) {
	payload, err := sonic.ConfigDefault.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to encode exchange request: %w", err)
	}
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		e.endpoint,
		bytes.NewReader(payload),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxExchangeResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("exchange service returned status code: %d", resp.StatusCode)
	}
	return parseClearKeys(body)
}

func parseClearKeys(body []byte) (map[string]string, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("malformed exchange response")
	}
	result := gjson.GetBytes(body, "clearKeys")
	if !result.IsObject() {
		return nil, errors.New("exchange response has no clearKeys object")
	}
	clearKeys := make(map[string]string)
	result.ForEach(func(kid, key gjson.Result) bool {
		if key.Type == gjson.String {
			clearKeys[kid.String()] = key.String()
		}
		return true
	})
	return clearKeys, nil
}
