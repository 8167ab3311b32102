//go:build integration

package main_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/farelink/service-estimates/internal/application"
	"github.com/farelink/service-estimates/internal/credentials"
	"github.com/farelink/service-estimates/internal/domain/estimate"
	"github.com/farelink/service-estimates/internal/events"
	"github.com/farelink/service-estimates/internal/handler"
	"github.com/farelink/service-estimates/internal/provider"
	"github.com/farelink/service-estimates/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// testInfra holds shared test infrastructure.
type testInfra struct {
	Redis        *redis.Client
	KafkaBrokers []string
	Cleanup      func()
}

// estimateStack holds the wired-up gateway components under test.
type estimateStack struct {
	Router  *gin.Engine
	Store   *repository.RedisContinuationStore
	Cleanup func()
}

// setupContainers starts Redis and Kafka testcontainers.
func setupContainers(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()

	// Start Redis container with log-based wait strategy.
	redisReq := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor: wait.ForLog("Ready to accept connections").
			WithStartupTimeout(60 * time.Second),
	}
	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: redisReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start Redis container")

	redisHost, err := redisContainer.Host(ctx)
	require.NoError(t, err)
	redisPort, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)

	redisClient := redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%s", redisHost, redisPort.Port()),
	})

	// Poll until Redis actually answers pings.
	require.Eventually(t, func() bool {
		return redisClient.Ping(ctx).Err() == nil
	}, 30*time.Second, 1*time.Second, "Redis not ready for connections")

	// Start Kafka container using confluent-local (supports KRaft natively).
	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")

	kafkaBrokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	// Pre-create required topics.
	createTopics(t, kafkaBrokers, events.TopicEstimateEvents)

	cleanup := func() {
		_ = redisClient.Close()
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
		if err := redisContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Redis container: %v", err)
		}
	}

	return &testInfra{
		Redis:        redisClient,
		KafkaBrokers: kafkaBrokers,
		Cleanup:      cleanup,
	}
}

// upstreamFixture is the fake provider and identity backend for a test run.
type upstreamFixture struct {
	Identity *httptest.Server
	Upstream *httptest.Server
}

// startUpstreams launches fake identity and provider HTTP backends. The
// provider backend serves the estimate and product endpoints for any
// provider id, with the product flavor keyed by providerProducts.
func startUpstreams(t *testing.T, providerProducts map[string]estimate.ProductInfo) *upstreamFixture {
	t.Helper()

	identity := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("token") == "" {
			http.Error(w, "missing session token", http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "it-" + uuid.NewString()})
	}))
	t.Cleanup(identity.Close)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/estimates", func(w http.ResponseWriter, r *http.Request) {
		var query provider.EstimateQuery
		if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"price":    21.40,
			"currency": "USD",
			"distance": 11.3,
		})
	})
	mux.HandleFunc("GET /v1/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		providerID := r.PathValue("id")
		product, ok := providerProducts[providerID]
		if !ok {
			http.Error(w, "unknown product", http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(product)
	})
	upstream := httptest.NewServer(mux)
	t.Cleanup(upstream.Close)

	return &upstreamFixture{Identity: identity, Upstream: upstream}
}

// setupEstimateStack wires the full gateway against real Redis and Kafka and
// the given fake upstreams.
func setupEstimateStack(t *testing.T, infra *testInfra, upstreams *upstreamFixture, providerIDs []string) *estimateStack {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	store := repository.NewRedisContinuationStore(infra.Redis)
	producer := events.NewProducer(infra.KafkaBrokers, logger)

	registry := provider.NewRegistry()
	for _, id := range providerIDs {
		registry.Register(id, provider.NewHTTPClient(id, upstreams.Upstream.URL))
	}

	creds := credentials.NewHTTPProvider(upstreams.Identity.URL)
	service := application.NewEstimateService(registry, creds, store, producer, logger)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler.NewEstimateHandler(service).RegisterRoutes(&router.RouterGroup)

	return &estimateStack{
		Router:  router,
		Store:   store,
		Cleanup: func() { _ = producer.Close() },
	}
}

// consumeOneEvent reads from a Kafka topic until it finds an event of the expected type.
func consumeOneEvent(t *testing.T, brokers []string, topic, expectedType string, timeout time.Duration) events.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	groupID := fmt.Sprintf("test-assert-%s", uuid.New().String()[:8])
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q on topic %q", expectedType, topic)
			}
			continue
		}
		ce, err := events.ParseCloudEvent(msg.Value)
		if err != nil {
			continue
		}
		if ce.Type == expectedType {
			return ce
		}
	}
}

// createTopics pre-creates Kafka topics so producers don't fail with "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	topicConfigs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	err = controllerConn.CreateTopics(topicConfigs...)
	require.NoError(t, err, "failed to create Kafka topics")

	// Give Kafka a moment to propagate topic metadata.
	time.Sleep(1 * time.Second)
}
