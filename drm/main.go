// Package drm derives AES-128 content keys from client play auth tokens
// through an external key-exchange service and memoizes them per key id.
package drm

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"hlsgate/models"
	"hlsgate/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	drmTypePrivateEncrypt = "private_encrypt"
	sessionIDPrefix       = "hlsgate-"
)

// KeyStore is the subset of keystore.Store the deriver needs.
type KeyStore interface {
	Has(kid string) bool
	Get(kid string) (models.DerivedKey, error)
	Set(kid string, key models.DerivedKey)
}

type Deriver struct {
	store     KeyStore
	exchanger Exchanger
	timeout   time.Duration
	inflight  singleflight.Group
}

func NewDeriver(store KeyStore, exchanger Exchanger, timeout time.Duration) *Deriver {
	return &Deriver{
		store:     store,
		exchanger: exchanger,
		timeout:   timeout,
	}
}

// Derive returns the key for kid, asking the exchanger only when the
// store does not already hold one. Concurrent calls for the same uncached
// kid and the same play auth share a single exchange; a different token
// always gets its own.
func (d *Deriver) Derive(
	ctx context.Context,
	playAuth string,
	kid string,
) (models.DerivedKey, error) {
	if d.store.Has(kid) {
		if key, err := d.store.Get(kid); err == nil {
			zap.S().Debugf("using cached key for kid %s", kid)
			return key, nil
		}
	}

	ch := d.inflight.DoChan(flightKey(kid, playAuth), func() (any, error) {
		// a flight that finished between Has and DoChan already stored it
		if key, err := d.store.Get(kid); err == nil {
			return key, nil
		}
		// detached so one client hanging up does not fail the others
		exchangeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()
		return d.exchange(exchangeCtx, playAuth, kid)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w for kid %s: %w", util.ErrExchange, kid, ctx.Err())
	case result := <-ch:
		if result.Err != nil {
			return nil, result.Err
		}
		return result.Val.(models.DerivedKey), nil
	}
}

// kid is length-prefixed so distinct pairs never map to the same key
func flightKey(kid string, playAuth string) string {
	return strconv.Itoa(len(kid)) + ":" + kid + playAuth
}

func (d *Deriver) exchange(
	ctx context.Context,
	playAuth string,
	kid string,
) (models.DerivedKey, error) {
	request := &models.ExchangeRequest{
		SecretKey: playAuth,
		KID:       kid,
		SessionID: sessionIDPrefix + uuid.NewString(),
		DRMType:   drmTypePrivateEncrypt,
	}
	zap.S().Debugf("exchanging key for kid %s (session %s)", kid, request.SessionID)

	clearKeys, err := d.exchanger.Exchange(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("%w for kid %s: %w", util.ErrExchange, kid, err)
	}
	keyStr, ok := clearKeys[kid]
	if !ok || keyStr == "" {
		return nil, fmt.Errorf("%w for kid %s", util.ErrDerivation, kid)
	}
	key := models.DerivedKey(keyStr)
	if !util.IsValidAESKey(key) {
		return nil, fmt.Errorf(
			"%w for kid %s: expected 16 byte key, got %d",
			util.ErrDerivation, kid, len(key),
		)
	}

	d.store.Set(kid, key)
	zap.S().Infof("derived key for kid %s", kid)
	return key, nil
}
