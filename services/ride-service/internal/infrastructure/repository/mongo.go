package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ride-hail/services/ride-service/internal/domain"
	"ride-hail/shared/ride"
	"ride-hail/shared/types"
)

// MongoRepository persists ride requests in a single collection. The
// conditional transition is one FindOneAndUpdate whose filter includes the
// current status, so two racing accepts are serialized by the database and
// at most one filter matches.
type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{col: db.Collection("ride_requests")}
}

type mongoRideRequest struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	RiderID     string             `bson:"riderId"`
	DriverID    string             `bson:"driverId,omitempty"`
	Status      ride.Status        `bson:"status"`
	Source      types.Coordinate   `bson:"source"`
	Destination types.Coordinate   `bson:"destination"`
	CreatedAt   time.Time          `bson:"createdAt"`
}

func (m *mongoRideRequest) toDomain() *ride.Request {
	return &ride.Request{
		ID:          m.ID.Hex(),
		RiderID:     m.RiderID,
		DriverID:    m.DriverID,
		Status:      m.Status,
		Source:      m.Source,
		Destination: m.Destination,
		CreatedAt:   m.CreatedAt,
	}
}

func (r *MongoRepository) Create(ctx context.Context, req *ride.Request) (*ride.Request, error) {
	doc := mongoRideRequest{
		ID:          primitive.NewObjectID(),
		RiderID:     req.RiderID,
		Status:      ride.StatusPending,
		Source:      req.Source,
		Destination: req.Destination,
		CreatedAt:   time.Now(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to insert ride request: %v", err)
	}
	return doc.toDomain(), nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (*ride.Request, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	var doc mongoRideRequest
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch ride request: %v", err)
	}
	return doc.toDomain(), nil
}

func (r *MongoRepository) UpdateStatus(ctx context.Context, id string, expected *ride.Status, next ride.Status, driverID string) (*ride.Request, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	filter := bson.M{"_id": oid}
	if expected != nil {
		filter["status"] = *expected
	} else {
		// still monotone when unconditional: only statuses that may move
		// to next can match
		var froms []ride.Status
		for _, s := range []ride.Status{ride.StatusPending, ride.StatusAccepted, ride.StatusCanceled} {
			if s.CanTransitionTo(next) {
				froms = append(froms, s)
			}
		}
		filter["status"] = bson.M{"$in": froms}
	}

	set := bson.M{"status": next}
	if next == ride.StatusAccepted {
		set["driverId"] = driverID
	}

	var doc mongoRideRequest
	err = r.col.FindOneAndUpdate(ctx,
		filter,
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err == nil {
		return doc.toDomain(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to update ride request: %v", err)
	}

	// The filter did not match: tell a vanished request apart from a lost race.
	current, getErr := r.GetByID(ctx, id)
	if getErr != nil {
		return nil, domain.ErrNotFound
	}
	if expected != nil && current.Status != *expected {
		return nil, domain.ErrConflict
	}
	return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, current.Status, next)
}

func (r *MongoRepository) GetActiveByUser(ctx context.Context, userID string) (*ride.Request, error) {
	filter := bson.M{
		"status": bson.M{"$in": []ride.Status{ride.StatusPending, ride.StatusAccepted}},
		"$or": []bson.M{
			{"riderId": userID},
			{"driverId": userID},
		},
	}

	var doc mongoRideRequest
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch active ride request: %v", err)
	}
	return doc.toDomain(), nil
}
