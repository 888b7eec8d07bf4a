// internal/common/database/database_test.go
package database

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"loan-workers/internal/common/config"
	"loan-workers/internal/common/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresClient_Ping(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	mock.ExpectPing()
	mock.ExpectClose()

	client := &PostgresClient{DB: db}
	require.NoError(t, client.Ping(context.Background()))
	require.NoError(t, client.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisClient_Ping(t *testing.T) {
	mr := miniredis.RunT(t)

	client := NewRedis(config.RedisConfig{Address: mr.Addr()})
	defer client.Close()

	require.NoError(t, client.Ping(context.Background()))

	mr.Close()
	err := client.Ping(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeStoreUnavailable))
}

func TestPostgresClient_PingFailureIsRetryable(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing().WillReturnError(stderrors.New("connection refused"))

	err = (&PostgresClient{DB: db}).Ping(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeStoreUnavailable))
}

func TestNewPostgres_PoolDefaults(t *testing.T) {
	client, err := NewPostgres(config.PostgresConfig{Host: "localhost", Port: 5432, SSLMode: "disable"})
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, defaultMaxOpen, client.DB.Stats().MaxOpenConnections)
}

func TestElasticsearchClient_Ping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := NewElasticsearch(config.ElasticsearchConfig{URL: server.URL})
	require.NoError(t, err)
	assert.NoError(t, client.Ping(context.Background()))
}

func esServer(t *testing.T, handler http.HandlerFunc) *ElasticsearchClient {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := NewElasticsearch(config.ElasticsearchConfig{Addresses: []string{server.URL}})
	require.NoError(t, err)
	return client
}

func TestEnsureIndex_Exists(t *testing.T) {
	var calls []string
	client := esServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})

	created, err := client.EnsureIndex(context.Background(), "loan-decisions", []byte(`{}`))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, []string{"HEAD /loan-decisions"}, calls)
}

func TestEnsureIndex_Creates(t *testing.T) {
	var body string
	client := esServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		_, _ = w.Write([]byte(`{"acknowledged":true}`))
	})

	created, err := client.EnsureIndex(context.Background(), "loan-decisions", []byte(`{"mappings":{}}`))
	require.NoError(t, err)
	assert.True(t, created)
	assert.JSONEq(t, `{"mappings":{}}`, body)
}

func TestEnsureIndex_LostRace(t *testing.T) {
	client := esServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"type":"resource_already_exists_exception"}}`))
	})

	created, err := client.EnsureIndex(context.Background(), "loan-decisions", []byte(`{}`))
	require.NoError(t, err)
	assert.False(t, created)
}

func TestReadiness(t *testing.T) {
	status, ready := Readiness(context.Background(), map[string]Check{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return stderrors.New("down") },
	})

	assert.False(t, ready)
	assert.Equal(t, map[string]string{"postgres": "ok", "redis": "down"}, status)

	_, ready = Readiness(context.Background(), map[string]Check{
		"zeebe": func(context.Context) error { return nil },
	})
	assert.True(t, ready)
}
