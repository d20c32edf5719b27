// Package metadata keeps FileRecord documents in a MongoDB collection.
package metadata

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"s3transfer/internal/apperr"
	"s3transfer/internal/models"
)

const appName = "s3transfer"

type Store struct {
	client *mongo.Client
	col    *mongo.Collection
}

// Connect opens a client for url and binds the store to db.collection.
func Connect(ctx context.Context, url, db, collection string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(url).SetAppName(appName))
	if err != nil {
		return nil, apperr.NewMetadataError("connect", "", fmt.Errorf("connect to %s: %w", url, err))
	}
	slog.Info("Initialized MongoDB connection", "database", db, "collection", collection)
	return &Store{client: client, col: client.Database(db).Collection(collection)}, nil
}

// NewWithCollection binds a store to an existing collection.
func NewWithCollection(col *mongo.Collection) *Store {
	return &Store{client: col.Database().Client(), col: col}
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return apperr.NewMetadataError("ping", "", err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) Save(ctx context.Context, record models.FileRecord) error {
	if _, err := s.col.InsertOne(ctx, record); err != nil {
		slog.Error("Error saving file record", "file_path", record.FilePath, "error", err)
		return apperr.NewMetadataError("save", record.FilePath, err)
	}
	slog.Info("Saved file record", "file_path", record.FilePath)
	return nil
}

// FindByLaneAndHour returns the lane's records whose timestamp falls inside
// the given hour of date, both ends inclusive. hour is not validated here.
func (s *Store) FindByLaneAndHour(ctx context.Context, lane string, hour int, date time.Time) ([]models.FileRecord, error) {
	start, end := HourWindow(date, hour)

	cur, err := s.col.Find(ctx, bson.M{
		"lane_id": lane,
		"timestamp": bson.M{
			"$gte": start,
			"$lte": end,
		},
	})
	if err != nil {
		slog.Error("Error getting files by lane and hour", "lane_id", lane, "hour", hour, "error", err)
		return nil, apperr.NewMetadataError("find", "", err)
	}

	records := []models.FileRecord{}
	if err := cur.All(ctx, &records); err != nil {
		return nil, apperr.NewMetadataError("find", "", fmt.Errorf("decode records: %w", err))
	}

	slog.Info("Found files for lane", "lane_id", lane, "hour", hour, "count", len(records))
	return records, nil
}

// UpdateStatus sets status, and localPath when non-empty, on the record
// identified by filePath. A filter matching no document yields
// apperr.ErrRecordNotFound.
func (s *Store) UpdateStatus(ctx context.Context, filePath string, status models.Status, localPath string) error {
	set := bson.M{"status": status}
	if localPath != "" {
		set["local_path"] = localPath
	}

	res, err := s.col.UpdateOne(ctx, bson.M{"file_path": filePath}, bson.M{"$set": set})
	if err != nil {
		slog.Error("Error updating file status", "file_path", filePath, "error", err)
		return apperr.NewMetadataError("update", filePath, err)
	}
	if res.MatchedCount == 0 {
		return apperr.NewMetadataError("update", filePath, apperr.ErrRecordNotFound)
	}

	slog.Info("Updated file status", "file_path", filePath, "status", status)
	return nil
}

// HourWindow returns [hour:00:00.000000, hour:59:59.999999] on date's
// calendar day in date's location.
func HourWindow(date time.Time, hour int) (time.Time, time.Time) {
	y, m, d := date.Date()
	start := time.Date(y, m, d, hour, 0, 0, 0, date.Location())
	end := time.Date(y, m, d, hour, 59, 59, 999999000, date.Location())
	return start, end
}
