package rules

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	peakHoursCollection       = "peak_hours"
	slotHoldRulesCollection   = "slot_hold_rules"
	preferenceRulesCollection = "preference_rules"
	bookingRulesCollection    = "booking_rules"
)

// MongoSource reads rule documents from the rules database.
type MongoSource struct {
	db *mongo.Database
}

// NewMongoSource creates a source over the given database.
func NewMongoSource(db *mongo.Database) *MongoSource {
	if db == nil {
		panic("rules: mongo database required")
	}
	return &MongoSource{db: db}
}

// EnsureIndexes creates the lookup indexes the rule queries rely on.
func (s *MongoSource) EnsureIndexes(ctx context.Context) error {
	peak := s.db.Collection(peakHoursCollection)
	_, err := peak.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "day", Value: 1}, {Key: "is_active", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("rules: create peak hours index: %w", err)
	}
	prefs := s.db.Collection(preferenceRulesCollection)
	_, err = prefs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "preference_type", Value: 1}, {Key: "is_active", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("rules: create preference rules index: %w", err)
	}
	return nil
}

// PeakHourRules returns the active peak-hour rules for the given day.
func (s *MongoSource) PeakHourRules(ctx context.Context, day string) ([]PeakHourRule, error) {
	cursor, err := s.db.Collection(peakHoursCollection).Find(ctx, bson.M{
		"day":       day,
		"is_active": true,
	})
	if err != nil {
		return nil, fmt.Errorf("rules: find peak hours: %w", err)
	}
	defer cursor.Close(ctx)

	var out []PeakHourRule
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("rules: decode peak hours: %w", err)
	}
	return out, nil
}

// HoldRule returns the active hold-duration rule, or the default when none
// is configured.
func (s *MongoSource) HoldRule(ctx context.Context) (HoldRule, error) {
	var rule HoldRule
	err := s.db.Collection(slotHoldRulesCollection).
		FindOne(ctx, bson.M{"is_active": true}).
		Decode(&rule)
	if err == mongo.ErrNoDocuments {
		return HoldRule{HoldDurationSeconds: int(DefaultHoldDuration.Seconds()), Active: true}, nil
	}
	if err != nil {
		return HoldRule{}, fmt.Errorf("rules: find hold rule: %w", err)
	}
	return rule, nil
}

// PreferenceRules returns all active consultant preference rules.
func (s *MongoSource) PreferenceRules(ctx context.Context) ([]PreferenceRule, error) {
	cursor, err := s.db.Collection(preferenceRulesCollection).Find(ctx, bson.M{"is_active": true},
		options.Find().SetSort(bson.D{{Key: "preference_type", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("rules: find preference rules: %w", err)
	}
	defer cursor.Close(ctx)

	var out []PreferenceRule
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("rules: decode preference rules: %w", err)
	}
	return out, nil
}

// BookingRule returns the active booking bounds rule, or defaults when none
// is configured.
func (s *MongoSource) BookingRule(ctx context.Context) (BookingRule, error) {
	var rule BookingRule
	err := s.db.Collection(bookingRulesCollection).
		FindOne(ctx, bson.M{"is_active": true}).
		Decode(&rule)
	if err == mongo.ErrNoDocuments {
		return DefaultBookingRule(), nil
	}
	if err != nil {
		return BookingRule{}, fmt.Errorf("rules: find booking rule: %w", err)
	}
	return rule, nil
}
