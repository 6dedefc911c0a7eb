package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/calfai/herd/internal/domain/models"
)

const (
	recordsCollection  = "cattle_records"
	profilesCollection = "users"
	reportsCollection  = "daily_reports"
)

// Repository defines the document-store operations the application needs.
type Repository interface {
	ListRawRecords(ctx context.Context, ownerID string) ([]map[string]any, error)
	ListRawRecordsSince(ctx context.Context, since time.Time) ([]map[string]any, error)
	AppendRecord(ctx context.Context, rec models.Record) error
	WatchRecords(ctx context.Context, ownerID string) (<-chan struct{}, error)
	GetProfile(ctx context.Context, accountID string) (*models.Profile, error)
	MergeProfile(ctx context.Context, accountID string, fields map[string]any) error
	SaveDailyReport(ctx context.Context, report models.DailyReport) error
}

// MongoDBRepository implements Repository against a MongoDB deployment.
type MongoDBRepository struct {
	client *mongo.Client
	dbName string
	logger *zap.Logger
}

// NewMongoDBRepository connects and pings the configured deployment.
func NewMongoDBRepository(ctx context.Context, uri, dbName string, logger *zap.Logger) (*MongoDBRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{client: client, dbName: dbName, logger: logger}, nil
}

// recordWrite is the flat document shape appended for each prediction
// outcome. Field names are the canonical wire names; legacy aliases only ever
// appear on documents written by older clients.
type recordWrite struct {
	OwnerID    string           `bson:"ownerId"`
	AnimalID   string           `bson:"Animal_ID"`
	Measured   models.Measured  `bson:",inline"`
	Yield      float64          `bson:"predictedYield"`
	Condition  string           `bson:"healthStatus"`
	Risk       models.RiskLevel `bson:"riskLevel"`
	Confidence float64          `bson:"confidence"`
	CreatedAt  time.Time        `bson:"createdAt"`
}

// ListRawRecords returns every record document for the owner, undecoded. The
// feed layer owns alias normalization and ordering.
func (r *MongoDBRepository) ListRawRecords(ctx context.Context, ownerID string) ([]map[string]any, error) {
	return r.listRaw(ctx, bson.M{"ownerId": ownerID})
}

// ListRawRecordsSince returns every record written at or after the given
// instant, across owners. Used by the nightly report.
func (r *MongoDBRepository) ListRawRecordsSince(ctx context.Context, since time.Time) ([]map[string]any, error) {
	return r.listRaw(ctx, bson.M{"createdAt": bson.M{"$gte": since}})
}

func (r *MongoDBRepository) listRaw(ctx context.Context, filter bson.M) ([]map[string]any, error) {
	collection := r.client.Database(r.dbName).Collection(recordsCollection)

	cursor, err := collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find records: %w", err)
	}

	var docs []map[string]any
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return docs, nil
}

// AppendRecord inserts one history entry. Records are never updated in place.
func (r *MongoDBRepository) AppendRecord(ctx context.Context, rec models.Record) error {
	if rec.Outcome == nil {
		return errors.New("record has no outcome")
	}

	doc := recordWrite{
		OwnerID:    rec.OwnerID,
		AnimalID:   rec.AnimalID,
		Measured:   rec.Measured,
		Yield:      rec.Outcome.YieldLiters,
		Condition:  rec.Outcome.Condition,
		Risk:       rec.Outcome.Risk,
		Confidence: rec.Outcome.Confidence,
		CreatedAt:  rec.CreatedAt,
	}

	collection := r.client.Database(r.dbName).Collection(recordsCollection)
	if _, err := collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

// WatchRecords opens a change stream scoped to the owner's records and
// returns a notification channel. Concurrent bursts may collapse into one
// pending notification; the consumer rebuilds the snapshot wholesale anyway.
// The channel closes when ctx is cancelled or the stream dies.
func (r *MongoDBRepository) WatchRecords(ctx context.Context, ownerID string) (<-chan struct{}, error) {
	collection := r.client.Database(r.dbName).Collection(recordsCollection)

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "fullDocument.ownerId", Value: ownerID}}}},
	}
	streamOpts := options.ChangeStream().SetFullDocument(options.UpdateLookup)

	stream, err := collection.Watch(ctx, pipeline, streamOpts)
	if err != nil {
		return nil, fmt.Errorf("open change stream: %w", err)
	}

	notifications := make(chan struct{}, 1)

	go func() {
		defer close(notifications)
		defer func() {
			if err := stream.Close(context.Background()); err != nil {
				r.logger.Debug("change stream close failed", zap.Error(err))
			}
		}()

		for stream.Next(ctx) {
			select {
			case notifications <- struct{}{}:
			default:
			}
		}

		if err := stream.Err(); err != nil && !errors.Is(err, context.Canceled) {
			r.logger.Warn("change stream terminated", zap.String("owner_id", ownerID), zap.Error(err))
		}
	}()

	return notifications, nil
}

// GetProfile loads the mirrored profile document for an account. A missing
// document is not an error; it returns nil.
func (r *MongoDBRepository) GetProfile(ctx context.Context, accountID string) (*models.Profile, error) {
	collection := r.client.Database(r.dbName).Collection(profilesCollection)

	var profile models.Profile
	err := collection.FindOne(ctx, bson.M{"_id": accountID}).Decode(&profile)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load profile %s: %w", accountID, err)
	}
	return &profile, nil
}

// MergeProfile upserts only the provided fields, leaving unrelated fields on
// the document untouched.
func (r *MongoDBRepository) MergeProfile(ctx context.Context, accountID string, fields map[string]any) error {
	collection := r.client.Database(r.dbName).Collection(profilesCollection)

	update := bson.M{"$set": fields}
	opts := options.Update().SetUpsert(true)

	if _, err := collection.UpdateByID(ctx, accountID, update, opts); err != nil {
		return fmt.Errorf("merge profile %s: %w", accountID, err)
	}
	return nil
}

// SaveDailyReport saves an aggregated daily summary.
func (r *MongoDBRepository) SaveDailyReport(ctx context.Context, report models.DailyReport) error {
	collection := r.client.Database(r.dbName).Collection(reportsCollection)
	if _, err := collection.InsertOne(ctx, report); err != nil {
		return fmt.Errorf("failed to insert daily report: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
