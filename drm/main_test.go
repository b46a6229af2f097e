package drm

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"hlsgate/keystore"
	"hlsgate/models"
	"hlsgate/util"
)

const testKey = "0123456789abcdef"

func countingExchanger(calls *atomic.Int32, keys map[string]string) Exchanger {
	return ExchangerFunc(func(_ context.Context, req *models.ExchangeRequest) (map[string]string, error) {
		calls.Add(1)
		return keys, nil
	})
}

func TestDeriveCachesPerKid(t *testing.T) {
	var calls atomic.Int32
	store := keystore.New()
	deriver := NewDeriver(store, countingExchanger(&calls, map[string]string{"kid-1": testKey}), time.Second)

	first, err := deriver.Derive(context.Background(), "auth", "kid-1")
	if err != nil {
		t.Fatalf("first Derive failed: %v", err)
	}
	second, err := deriver.Derive(context.Background(), "auth", "kid-1")
	if err != nil {
		t.Fatalf("second Derive failed: %v", err)
	}

	if calls.Load() != 1 {
		t.Errorf("exchange calls: got %d, want 1", calls.Load())
	}
	if string(first) != testKey || string(second) != testKey {
		t.Errorf("unexpected keys %q, %q", first, second)
	}
	if !store.Has("kid-1") {
		t.Error("derived key was not stored")
	}
}

func TestDeriveSendsRequest(t *testing.T) {
	var got *models.ExchangeRequest
	var sessions []string
	exchanger := ExchangerFunc(func(_ context.Context, req *models.ExchangeRequest) (map[string]string, error) {
		got = req
		sessions = append(sessions, req.SessionID)
		return map[string]string{req.KID: testKey}, nil
	})
	deriver := NewDeriver(keystore.New(), exchanger, time.Second)

	if _, err := deriver.Derive(context.Background(), "play-auth-token", "kid-a"); err != nil {
		t.Fatalf("Derive failed: %v", err)
	}
	if _, err := deriver.Derive(context.Background(), "play-auth-token", "kid-b"); err != nil {
		t.Fatalf("Derive failed: %v", err)
	}

	if got.SecretKey != "play-auth-token" {
		t.Errorf("SecretKey: got %q", got.SecretKey)
	}
	if got.KID != "kid-b" {
		t.Errorf("KID: got %q", got.KID)
	}
	if got.DRMType != drmTypePrivateEncrypt {
		t.Errorf("DRMType: got %q", got.DRMType)
	}
	if len(sessions) != 2 || sessions[0] == sessions[1] {
		t.Errorf("session ids should be unique per call: %v", sessions)
	}
	for _, session := range sessions {
		if !strings.HasPrefix(session, sessionIDPrefix) {
			t.Errorf("session id %q lacks prefix", session)
		}
	}
}

func TestDeriveMissingKid(t *testing.T) {
	var calls atomic.Int32
	store := keystore.New()
	deriver := NewDeriver(store, countingExchanger(&calls, map[string]string{"other": testKey}), time.Second)

	_, err := deriver.Derive(context.Background(), "auth", "kid-1")
	if !errors.Is(err, util.ErrDerivation) {
		t.Fatalf("expected ErrDerivation, got %v", err)
	}
	if !strings.Contains(err.Error(), "kid-1") {
		t.Errorf("error should mention kid: %v", err)
	}
	if store.Has("kid-1") {
		t.Error("failed derivation must not populate the store")
	}
}

func TestDeriveInvalidKeyLength(t *testing.T) {
	var calls atomic.Int32
	deriver := NewDeriver(keystore.New(), countingExchanger(&calls, map[string]string{"kid-1": "short"}), time.Second)

	_, err := deriver.Derive(context.Background(), "auth", "kid-1")
	if !errors.Is(err, util.ErrDerivation) {
		t.Fatalf("expected ErrDerivation, got %v", err)
	}
}

func TestDeriveMultiByteKeyRejected(t *testing.T) {
	var calls atomic.Int32
	// 16 characters but more than 16 bytes
	keys := map[string]string{"kid-1": "ééééééééééééééé1"}
	deriver := NewDeriver(keystore.New(), countingExchanger(&calls, keys), time.Second)

	if _, err := deriver.Derive(context.Background(), "auth", "kid-1"); !errors.Is(err, util.ErrDerivation) {
		t.Fatalf("expected ErrDerivation, got %v", err)
	}
}

func TestDeriveExchangeFailure(t *testing.T) {
	exchanger := ExchangerFunc(func(context.Context, *models.ExchangeRequest) (map[string]string, error) {
		return nil, errors.New("connection refused")
	})
	deriver := NewDeriver(keystore.New(), exchanger, time.Second)

	_, err := deriver.Derive(context.Background(), "auth", "kid-1")
	if !errors.Is(err, util.ErrExchange) {
		t.Fatalf("expected ErrExchange, got %v", err)
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("error should keep the cause: %v", err)
	}
}

func TestDeriveExchangeTimeout(t *testing.T) {
	exchanger := ExchangerFunc(func(ctx context.Context, _ *models.ExchangeRequest) (map[string]string, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	deriver := NewDeriver(keystore.New(), exchanger, 20*time.Millisecond)

	_, err := deriver.Derive(context.Background(), "auth", "kid-1")
	if !errors.Is(err, util.ErrExchange) {
		t.Fatalf("expected ErrExchange, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestDeriveConcurrentDifferentKids(t *testing.T) {
	var calls atomic.Int32
	keys := map[string]string{"kid-1": testKey, "kid-2": "fedcba9876543210"}
	store := keystore.New()
	deriver := NewDeriver(store, countingExchanger(&calls, keys), time.Second)

	var wg sync.WaitGroup
	for _, kid := range []string{"kid-1", "kid-2", "kid-1", "kid-2"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key, err := deriver.Derive(context.Background(), "auth", kid)
			if err != nil {
				t.Errorf("Derive(%s) failed: %v", kid, err)
				return
			}
			if string(key) != keys[kid] {
				t.Errorf("Derive(%s) = %q, want %q", kid, key, keys[kid])
			}
		}()
	}
	wg.Wait()
	if store.Len() != 2 {
		t.Errorf("store Len: got %d, want 2", store.Len())
	}
}

// waits until the exchanger has been entered want times
func waitForCalls(t *testing.T, calls *atomic.Int32, want int32) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() < want {
		if time.Now().After(deadline) {
			t.Fatalf("exchange calls: got %d, want %d", calls.Load(), want)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestDeriveConcurrentSameKidSharesExchange(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	exchanger := ExchangerFunc(func(_ context.Context, req *models.ExchangeRequest) (map[string]string, error) {
		calls.Add(1)
		<-release
		return map[string]string{req.KID: testKey}, nil
	})
	store := keystore.New()
	deriver := NewDeriver(store, exchanger, 5*time.Second)

	const callers = 8
	keys := make([]models.DerivedKey, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			keys[i], errs[i] = deriver.Derive(context.Background(), "auth", "kid-1")
		}()
	}

	waitForCalls(t, &calls, 1)
	// give the remaining callers time to join the flight
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("exchange calls: got %d, want 1", calls.Load())
	}
	for i := range callers {
		if errs[i] != nil {
			t.Errorf("caller %d failed: %v", i, errs[i])
			continue
		}
		if string(keys[i]) != testKey {
			t.Errorf("caller %d got %q, want %q", i, keys[i], testKey)
		}
	}
	if store.Len() != 1 {
		t.Errorf("store Len: got %d, want 1", store.Len())
	}
}

func TestDeriveConcurrentTokensAreIsolated(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	exchanger := ExchangerFunc(func(_ context.Context, req *models.ExchangeRequest) (map[string]string, error) {
		calls.Add(1)
		if req.SecretKey == "bad-auth" {
			<-release
			return map[string]string{}, nil
		}
		return map[string]string{req.KID: testKey}, nil
	})
	store := keystore.New()
	deriver := NewDeriver(store, exchanger, 5*time.Second)

	badErr := make(chan error, 1)
	go func() {
		_, err := deriver.Derive(context.Background(), "bad-auth", "kid-1")
		badErr <- err
	}()
	waitForCalls(t, &calls, 1)

	// the bad exchange is still blocked; this caller must not wait on it
	key, err := deriver.Derive(context.Background(), "good-auth", "kid-1")
	if err != nil {
		t.Fatalf("Derive with good token failed: %v", err)
	}
	if string(key) != testKey {
		t.Errorf("got %q, want %q", key, testKey)
	}
	if calls.Load() != 2 {
		t.Errorf("exchange calls: got %d, want 2", calls.Load())
	}

	close(release)
	if err := <-badErr; !errors.Is(err, util.ErrDerivation) {
		t.Errorf("expected ErrDerivation for bad token, got %v", err)
	}
	if !store.Has("kid-1") {
		t.Error("key from the good token should stay cached")
	}
}

func TestFlightKeyDistinguishesPairs(t *testing.T) {
	if flightKey("a", "bc") == flightKey("ab", "c") {
		t.Error("different kid/token pairs must not share a flight key")
	}
	if flightKey("kid", "auth") != flightKey("kid", "auth") {
		t.Error("same pair must share a flight key")
	}
}

func TestStaticExchanger(t *testing.T) {
	exchanger := NewStaticExchanger(map[string]string{"kid-1": testKey})
	deriver := NewDeriver(keystore.New(), exchanger, time.Second)

	key, err := deriver.Derive(context.Background(), "ignored", "kid-1")
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}
	if string(key) != testKey {
		t.Errorf("got %q, want %q", key, testKey)
	}
	if _, err := deriver.Derive(context.Background(), "ignored", "kid-2"); !errors.Is(err, util.ErrDerivation) {
		t.Errorf("expected ErrDerivation for unknown kid, got %v", err)
	}
}

func TestChainFallsThrough(t *testing.T) {
	failing := ExchangerFunc(func(context.Context, *models.ExchangeRequest) (map[string]string, error) {
		return nil, errors.New("unavailable")
	})
	exchanger := Chain(failing, NewStaticExchanger(map[string]string{"kid-1": testKey}))

	keys, err := exchanger.Exchange(context.Background(), &models.ExchangeRequest{KID: "kid-1"})
	if err != nil {
		t.Fatalf("Exchange failed: %v", err)
	}
	if keys["kid-1"] != testKey {
		t.Errorf("got %q, want %q", keys["kid-1"], testKey)
	}

	_, err = exchanger.Exchange(context.Background(), &models.ExchangeRequest{KID: "kid-2"})
	if err == nil || err.Error() != "unavailable" {
		t.Errorf("expected last exchanger error, got %v", err)
	}
}
