package repository

import (
	"context"
	"fmt"
	"time"

	"airfare-collector/internal/domain/entity"
	"airfare-collector/internal/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRawResponseRepository implements RawResponseRepository on a MongoDB collection
type MongoRawResponseRepository struct {
	collection *mongo.Collection
}

// rawResponseDocument is the stored form of a raw response
type rawResponseDocument struct {
	SourceRef     string    `bson:"sourceRef"`
	ScrapeDate    time.Time `bson:"scrapeDate"`
	Origin        string    `bson:"origin"`
	Destination   string    `bson:"destination"`
	DepartureDate time.Time `bson:"departureDate"`
	AgencyCode    string    `bson:"agencyCode"`
	SeatClass     string    `bson:"seatClass"`
	Adults        int       `bson:"adults"`
	Children      int       `bson:"children"`
	Infants       int       `bson:"infants"`
	Body          []byte    `bson:"body"`
	FetchedAt     time.Time `bson:"fetchedAt"`
}

// NewMongoRawResponseRepository creates a new MongoDB raw response repository
func NewMongoRawResponseRepository(db *mongo.Database) repository.RawResponseRepository {
	collection := db.Collection("raw_responses")

	ctx := context.Background()

	// One document per request key and scrape date
	sourceRefIndex := mongo.IndexModel{
		Keys:    bson.M{"sourceRef": 1},
		Options: options.Index().SetUnique(true),
	}

	// Ingest selects by scrape date window
	scrapeDateIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "scrapeDate", Value: 1},
			{Key: "sourceRef", Value: 1},
		},
	}

	collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		sourceRefIndex,
		scrapeDateIndex,
	})

	return &MongoRawResponseRepository{
		collection: collection,
	}
}

// Save upserts the response keyed by its source reference
func (r *MongoRawResponseRepository) Save(ctx context.Context, raw entity.RawResponse) (string, error) {
	ref := sourceRef(raw.Provenance)
	doc := toRawDocument(raw, ref, time.Now())

	_, err := r.collection.ReplaceOne(ctx,
		bson.M{"sourceRef": ref},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return "", fmt.Errorf("failed to store raw response: %w", err)
	}
	return ref, nil
}

// List finds stored responses by scrape date window
func (r *MongoRawResponseRepository) List(ctx context.Context, filter entity.RawFilter) ([]entity.RawResponse, error) {
	cursor, err := r.collection.Find(ctx, scrapeDateQuery(filter), &options.FindOptions{
		Sort: bson.D{
			{Key: "scrapeDate", Value: 1},
			{Key: "sourceRef", Value: 1},
		},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []rawResponseDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]entity.RawResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toRawResponse())
	}
	return out, nil
}

func scrapeDateQuery(filter entity.RawFilter) bson.M {
	query := bson.M{}
	window := bson.M{}
	if !filter.ScrapedFrom.IsZero() {
		window["$gte"] = filter.ScrapedFrom
	}
	if !filter.ScrapedTo.IsZero() {
		window["$lte"] = filter.ScrapedTo
	}
	if len(window) > 0 {
		query["scrapeDate"] = window
	}
	return query
}

func toRawDocument(raw entity.RawResponse, ref string, fetchedAt time.Time) rawResponseDocument {
	return rawResponseDocument{
		SourceRef:     ref,
		ScrapeDate:    raw.ScrapeDate,
		Origin:        raw.Key.Origin,
		Destination:   raw.Key.Destination,
		DepartureDate: raw.Key.DepartureDate,
		AgencyCode:    raw.Key.AgencyCode,
		SeatClass:     raw.Key.SeatClass,
		Adults:        raw.Key.Passengers.Adults,
		Children:      raw.Key.Passengers.Children,
		Infants:       raw.Key.Passengers.Infants,
		Body:          raw.Body,
		FetchedAt:     fetchedAt,
	}
}

func (doc rawResponseDocument) toRawResponse() entity.RawResponse {
	return entity.RawResponse{
		Provenance: entity.Provenance{
			ScrapeDate: doc.ScrapeDate.UTC(),
			SourceRef:  doc.SourceRef,
			Key: entity.RequestKey{
				Origin:        doc.Origin,
				Destination:   doc.Destination,
				DepartureDate: doc.DepartureDate.UTC(),
				AgencyCode:    doc.AgencyCode,
				SeatClass:     doc.SeatClass,
				Passengers: entity.Passengers{
					Adults:   doc.Adults,
					Children: doc.Children,
					Infants:  doc.Infants,
				},
			},
		},
		Body: doc.Body,
	}
}
