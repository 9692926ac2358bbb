package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/physiohome/chat-service/internal/models"
	"github.com/physiohome/chat-service/internal/repository"
)

type ReportRepo struct {
	collection *mongo.Collection
}

var _ repository.ReportRepository = (*ReportRepo)(nil)

func NewReportRepository(db *DB) *ReportRepo {
	return &ReportRepo{
		collection: db.Database.Collection(models.Report{}.CollectionName()),
	}
}

func (r *ReportRepo) Create(ctx context.Context, report *models.Report) error {
	if report.ID == "" {
		report.ID = primitive.NewObjectID().Hex()
	}
	if report.ReportedAt.IsZero() {
		report.ReportedAt = time.Now()
	}
	if _, err := r.collection.InsertOne(ctx, report); err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

func (r *ReportRepo) GetByID(ctx context.Context, reportID string) (*models.Report, error) {
	var report models.Report
	err := r.collection.FindOne(ctx, bson.M{"_id": reportID}).Decode(&report)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	return &report, nil
}

func (r *ReportRepo) ListByRoom(ctx context.Context, roomID string) ([]*models.Report, error) {
	return r.find(ctx, bson.M{"room_id": roomID})
}

func (r *ReportRepo) List(ctx context.Context, status models.ReportStatus) ([]*models.Report, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	return r.find(ctx, filter)
}

func (r *ReportRepo) find(ctx context.Context, filter bson.M) ([]*models.Report, error) {
	opts := options.Find().SetSort(bson.D{{Key: "reported_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	var reports []*models.Report
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, fmt.Errorf("decode reports: %w", err)
	}
	return reports, nil
}

func (r *ReportRepo) TransitionFromPending(ctx context.Context, reportID string, to models.ReportStatus, reviewedBy, resolution string) (*models.Report, error) {
	now := time.Now()
	filter := bson.M{
		"_id":    reportID,
		"status": models.ReportStatusPending,
	}
	update := bson.M{"$set": bson.M{
		"status":      to,
		"reviewed_at": now,
		"reviewed_by": reviewedBy,
		"resolution":  resolution,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var report models.Report
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&report)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Either missing or already terminal; look once more to tell them apart.
		if _, getErr := r.GetByID(ctx, reportID); getErr != nil {
			return nil, getErr
		}
		return nil, models.ErrInvalidTransition
	}
	if err != nil {
		return nil, fmt.Errorf("transition report: %w", err)
	}
	return &report, nil
}

func (r *ReportRepo) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

func (r *ReportRepo) CountByStatus(ctx context.Context, status models.ReportStatus) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"status": status})
}
