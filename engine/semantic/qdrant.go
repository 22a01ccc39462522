package semantic

import (
	"context"
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/jacobwagner8/Cosmos-Hiring-Assessment/engine/domain"
)

// QdrantIndex is the sole owner of all Qdrant operations. The collection
// is populated out-of-band by the ingestion scripts; this side only reads.
type QdrantIndex struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	collection  string
}

// NewQdrant creates a QdrantIndex connected to Qdrant at the given gRPC address.
func NewQdrant(addr string, collection string) (*QdrantIndex, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("semantic: dial qdrant %s: %w", addr, err)
	}
	return &QdrantIndex{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  collection,
	}, nil
}

// Close closes the underlying gRPC connection.
func (q *QdrantIndex) Close() error {
	return q.conn.Close()
}

// Healthy reports whether the collection is reachable and exists.
func (q *QdrantIndex) Healthy(ctx context.Context) error {
	list, err := q.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("semantic: list collections: %w: %w", domain.ErrIndexUnavailable, err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == q.collection {
			return nil
		}
	}
	return fmt.Errorf("semantic: collection %q not found: %w", q.collection, domain.ErrIndexUnavailable)
}

// tieSlack is the number of extra candidates fetched past limit. Qdrant
// picks the members of an exact-limit result set arbitrarily when a score
// tie straddles the cutoff, so we over-fetch and cut locally by (score, ID).
const tieSlack = 8

func fetchLimit(limit int) uint64 {
	return uint64(limit + tieSlack)
}

// Search performs k-NN similarity search against the collection. The
// collection is configured with cosine distance, so scores come back in
// [-1, 1] already.
func (q *QdrantIndex) Search(ctx context.Context, vector []float32, limit int) ([]domain.ScoredRecord, error) {
	resp, err := q.points.Search(ctx, &pb.SearchPoints{
		CollectionName: q.collection,
		Vector:         vector,
		Limit:          fetchLimit(limit),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("semantic: search: %w: %w", domain.ErrIndexUnavailable, err)
	}

	results := make([]domain.ScoredRecord, len(resp.GetResult()))
	for i, r := range resp.GetResult() {
		rec := domain.Record{
			ID:       pointIDString(r.GetId()),
			Metadata: make(map[string]string, len(r.GetPayload())),
		}
		for k, val := range r.GetPayload() {
			rec.Metadata[k] = payloadString(val)
		}
		results[i] = domain.ScoredRecord{Record: rec, Score: r.GetScore()}
	}
	return rankCut(results, limit), nil
}

func pointIDString(id *pb.PointId) string {
	if u := id.GetUuid(); u != "" {
		return u
	}
	return fmt.Sprintf("%d", id.GetNum())
}

// payloadString flattens a Qdrant payload value to its string form.
// Non-string primitives are formatted; nested values fall back to fmt.
func payloadString(v *pb.Value) string {
	switch kind := v.GetKind().(type) {
	case *pb.Value_StringValue:
		return kind.StringValue
	case *pb.Value_IntegerValue:
		return fmt.Sprintf("%d", kind.IntegerValue)
	case *pb.Value_DoubleValue:
		return fmt.Sprintf("%g", kind.DoubleValue)
	case *pb.Value_BoolValue:
		return fmt.Sprintf("%t", kind.BoolValue)
	default:
		return v.String()
	}
}
