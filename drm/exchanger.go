package drm

import (
	"context"
	"maps"

	"hlsgate/models"
)

// Exchanger performs the secret key exchange for a single kid and returns
// every clear key the service handed back, indexed by kid.
type Exchanger interface {
	Exchange(ctx context.Context, request *models.ExchangeRequest) (map[string]string, error)
}

type ExchangerFunc func(ctx context.Context, request *models.ExchangeRequest) (map[string]string, error)

func (f ExchangerFunc) Exchange(
	ctx context.Context,
	request *models.ExchangeRequest,
) (map[string]string, error) {
	return f(ctx, request)
}

// StaticExchanger answers from a fixed kid to key table, ignoring the token.
type StaticExchanger struct {
	keys map[string]string
}

func NewStaticExchanger(keys map[string]string) *StaticExchanger {
	return &StaticExchanger{keys: maps.Clone(keys)}
}

func (e *StaticExchanger) Exchange(
	_ context.Context,
	request *models.ExchangeRequest,
) (map[string]string, error) {
	clearKeys := make(map[string]string, 1)
	if key, ok := e.keys[request.KID]; ok {
		clearKeys[request.KID] = key
	}
	return clearKeys, nil
}

// chained tries each exchanger in order until one returns the requested kid
type chained []Exchanger

func Chain(exchangers ...Exchanger) Exchanger {
	if len(exchangers) == 1 {
		return exchangers[0]
	}
	return chained(exchangers)
}

func (c chained) Exchange(
	ctx context.Context,
	request *models.ExchangeRequest,
) (map[string]string, error) {
	var lastErr error
	clearKeys := make(map[string]string)
	for _, exchanger := range c {
		keys, err := exchanger.Exchange(ctx, request)
		if err != nil {
			lastErr = err
			continue
		}
		maps.Copy(clearKeys, keys)
		if _, ok := keys[request.KID]; ok {
			return clearKeys, nil
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return clearKeys, nil
}
