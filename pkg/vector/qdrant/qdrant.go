// Package qdrant provides a Qdrant vector database driver over gRPC.
package qdrant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/papercomputeco/marquee/pkg/vector"
)

const (
	// DefaultCollectionName is the default collection name for storing catalog embeddings.
	DefaultCollectionName = "movies"

	// DefaultPort is Qdrant's gRPC port.
	DefaultPort = 6334

	payloadDocID   = "doc_id"
	payloadContent = "content"
)

// pointNamespace scopes the UUIDs derived from catalog ids.
var pointNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("marquee/qdrant/points"))

// Driver implements vector.Driver using Qdrant.
type Driver struct {
	client     *qdrant.Client
	collection string
	dimensions uint
	logger     *slog.Logger
}

// Config holds configuration for the Qdrant driver.
type Config struct {
	// Target is "host:port" or a URL such as "http://localhost:6334".
	// An https scheme enables TLS.
	Target string

	// APIKey is sent with every request when non-empty.
	APIKey string

	CollectionName string
	Dimensions     uint
}

// NewDriver connects to Qdrant and creates the collection with cosine
// distance if it does not exist yet.
func NewDriver(ctx context.Context, c Config, logger *slog.Logger) (*Driver, error) {
	if c.Target == "" {
		return nil, errors.New("qdrant target is required")
	}
	if c.Dimensions == 0 {
		return nil, errors.New("dimensions must be greater than 0")
	}

	collection := c.CollectionName
	if collection == "" {
		collection = DefaultCollectionName
	}

	host, port, useTLS, err := parseTarget(c.Target)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: c.APIKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: creating qdrant client: %v", vector.ErrStoreUnavailable, err)
	}

	exists, err := client.CollectionExists(ctx, collection)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: checking collection %q: %v", vector.ErrStoreUnavailable, collection, err)
	}

	if !exists {
		err = client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(c.Dimensions),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("%w: creating collection %q: %v", vector.ErrStoreUnavailable, collection, err)
		}
	}

	logger.Info("connected to Qdrant",
		"host", host,
		"port", port,
		"collection", collection,
		"created", !exists,
	)

	return &Driver{
		client:     client,
		collection: collection,
		dimensions: c.Dimensions,
		logger:     logger,
	}, nil
}

// parseTarget splits a target into host, port and whether TLS is wanted.
func parseTarget(target string) (string, int, bool, error) {
	useTLS := false
	hostport := target

	if strings.Contains(target, "://") {
		u, err := url.Parse(target)
		if err != nil {
			return "", 0, false, fmt.Errorf("parsing qdrant target: %w", err)
		}
		useTLS = u.Scheme == "https"
		hostport = u.Host
	}

	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		// No port given.
		return hostport, DefaultPort, useTLS, nil
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, false, fmt.Errorf("invalid qdrant port %q: %w", portStr, err)
	}

	return host, port, useTLS, nil
}

// pointID maps a catalog id onto the UUID point id Qdrant requires.
// The original id is kept in the payload.
func pointID(id string) *qdrant.PointId {
	return qdrant.NewID(uuid.NewSHA1(pointNamespace, []byte(id)).String())
}

// Upsert stores documents and waits for Qdrant to apply them.
func (d *Driver) Upsert(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	if err := vector.ValidateBatch(docs, d.dimensions); err != nil {
		return err
	}

	points := make([]*qdrant.PointStruct, len(docs))
	for i, doc := range docs {
		payload := doc.Metadata.Map()
		payload[payloadDocID] = doc.ID
		payload[payloadContent] = doc.Content

		points[i] = &qdrant.PointStruct{
			Id:      pointID(doc.ID),
			Vectors: qdrant.NewVectors(doc.Embedding...),
			Payload: qdrant.NewValueMap(payload),
		}
	}

	_, err := d.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: d.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("upserting points: %w", err)
	}

	d.logger.Debug("upserted points to qdrant",
		"count", len(docs),
	)

	return nil
}

// Query finds the topK nearest documents. Qdrant reports cosine
// similarity, which is converted to distance as 1 - score.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int) ([]vector.QueryResult, error) {
	if topK <= 0 {
		topK = vector.DefaultTopK
	}

	if err := vector.CheckQuery(embedding, d.dimensions); err != nil {
		return nil, err
	}

	points, err := d.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: d.collection,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("querying points: %w", err)
	}

	results := make([]vector.QueryResult, 0, len(points))
	for _, p := range points {
		doc := documentFromPayload(p.GetPayload())
		results = append(results, vector.QueryResult{
			Document: doc,
			Distance: 1 - float64(p.GetScore()),
		})
	}

	d.logger.Debug("queried qdrant",
		"results", len(results),
	)

	return results, nil
}

// Count returns the exact number of points in the collection.
func (d *Driver) Count(ctx context.Context) (int, error) {
	n, err := d.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: d.collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("counting points: %w", err)
	}
	return int(n), nil
}

// IDs returns the catalog id of every stored point.
func (d *Driver) IDs(ctx context.Context) ([]string, error) {
	n, err := d.Count(ctx)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}

	points, err := d.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: d.collection,
		Limit:          qdrant.PtrOf(uint32(n)),
		WithPayload:    qdrant.NewWithPayloadInclude(payloadDocID),
	})
	if err != nil {
		return nil, fmt.Errorf("scrolling points: %w", err)
	}

	ids := make([]string, 0, len(points))
	for _, p := range points {
		if v, ok := p.GetPayload()[payloadDocID]; ok {
			ids = append(ids, v.GetStringValue())
		}
	}
	return ids, nil
}

// Get retrieves documents by their catalog ids. Embeddings are not
// returned.
func (d *Driver) Get(ctx context.Context, ids []string) ([]vector.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = pointID(id)
	}

	points, err := d.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: d.collection,
		Ids:            pointIDs,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("getting points: %w", err)
	}

	docs := make([]vector.Document, 0, len(points))
	for _, p := range points {
		docs = append(docs, documentFromPayload(p.GetPayload()))
	}

	return docs, nil
}

// Delete removes documents by their catalog ids.
func (d *Driver) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = pointID(id)
	}

	_, err := d.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: d.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelector(pointIDs...),
	})
	if err != nil {
		return fmt.Errorf("deleting points: %w", err)
	}

	d.logger.Debug("deleted points from qdrant",
		"count", len(ids),
	)

	return nil
}

// Close closes the gRPC connection.
func (d *Driver) Close() error {
	return d.client.Close()
}

func documentFromPayload(payload map[string]*qdrant.Value) vector.Document {
	flat := make(map[string]any, len(payload))
	for k, v := range payload {
		flat[k] = v.GetStringValue()
	}

	id, _ := flat[payloadDocID].(string)
	content, _ := flat[payloadContent].(string)

	return vector.Document{
		ID:       id,
		Content:  content,
		Metadata: vector.MetadataFromMap(flat),
	}
}
