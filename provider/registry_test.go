package provider

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndResolve(t *testing.T) {
	registry := NewRegistry()
	adapter := &fakeAdapter{name: "sipay"}

	require.NoError(t, registry.Register("Sipay", adapter))

	got, err := registry.Resolve("sipay")
	require.NoError(t, err)
	assert.Same(t, adapter, got)

	got, err = registry.Resolve("SIPAY")
	require.NoError(t, err)
	assert.Same(t, adapter, got)
}

func TestRegistry_RegisterRejects(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register("iyzico", &fakeAdapter{name: "iyzico"}))

	tests := []struct {
		name    string
		id      string
		adapter Adapter
		message string
	}{
		{"empty id", " ", &fakeAdapter{name: "x"}, "cannot be empty"},
		{"nil adapter", "x", nil, "cannot be nil"},
		{"duplicate", "iyzico", &fakeAdapter{name: "iyzico"}, "already registered"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := registry.Register(tt.id, tt.adapter)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestRegistry_ResolveUnknown(t *testing.T) {
	registry := NewRegistry()

	adapter, err := registry.Resolve("paypal")
	assert.Nil(t, adapter)

	var unknown *UnknownProviderError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "paypal", unknown.Provider)
	assert.Contains(t, err.Error(), "is not registered")
}

func TestRegistry_Names(t *testing.T) {
	registry := registryWith(t, &fakeAdapter{name: "sipay"}, &fakeAdapter{name: "iyzico"}, &fakeAdapter{name: "kuveytturk"})
	assert.Equal(t, []string{"iyzico", "kuveytturk", "sipay"}, registry.Names())
}

func TestRegistry_ConcurrentResolve(t *testing.T) {
	registry := registryWith(t, &fakeAdapter{name: "sipay"})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := registry.Resolve("sipay")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}

func TestFactoryRegistry(t *testing.T) {
	factories := NewFactoryRegistry()
	factories.Register("Test", func(creds Credentials) (Adapter, error) {
		return &fakeAdapter{name: "test"}, nil
	})

	factory, err := factories.Get("test")
	require.NoError(t, err)
	adapter, err := factory(nil)
	require.NoError(t, err)
	assert.Equal(t, "test", adapter.Name())

	_, err = factories.Get("missing")
	var unknown *UnknownProviderError
	assert.ErrorAs(t, err, &unknown)
	assert.Equal(t, []string{"test"}, factories.Names())
}

func TestBuildRegistry(t *testing.T) {
	var received Credentials
	RegisterFactory("build-ok", func(creds Credentials) (Adapter, error) {
		received = creds
		return &fakeAdapter{name: "build-ok"}, nil
	})
	RegisterFactory("build-fail", func(creds Credentials) (Adapter, error) {
		return nil, &ConfigurationError{Provider: "build-fail", Field: "secret", Reason: "is missing"}
	})
	assert.Contains(t, FactoryNames(), "build-ok")

	creds := Credentials{"secret": "s"}
	registry, err := BuildRegistry(map[string]Credentials{"build-ok": creds})
	require.NoError(t, err)
	assert.Equal(t, []string{"build-ok"}, registry.Names())

	// the adapter owns a copy
	creds["secret"] = "changed"
	assert.Equal(t, "s", received["secret"])

	_, err = BuildRegistry(map[string]Credentials{"build-ok": {}, "build-fail": {}})
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "secret", cfgErr.Field)

	_, err = BuildRegistry(map[string]Credentials{"nope": {}})
	var unknown *UnknownProviderError
	assert.ErrorAs(t, err, &unknown)
}

func TestCredentials_Redacted(t *testing.T) {
	creds := Credentials{"apiKey": "live-key", "secretKey": "live-secret"}

	for _, out := range []string{creds.String(), fmt.Sprintf("%v", creds), fmt.Sprintf("%#v", creds), fmt.Sprint(creds)} {
		assert.NotContains(t, out, "live-key")
		assert.NotContains(t, out, "live-secret")
	}
	assert.Equal(t, []string{"apiKey", "secretKey"}, creds.Keys())
	assert.Equal(t, "fallback", creds.GetOr("baseURL", "fallback"))
}
