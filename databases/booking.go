package databases

// go generate: mockery --name BookingDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ford69/flexi-ride-api/models"
)

const bookingName = "bookings"

// BookingDatabase contains the methods to use with the booking database
type BookingDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Booking, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Booking, error)
	FindWithRequester(ctx context.Context, filter interface{}) ([]models.BookingWithRequester, error)
	InsertOne(ctx context.Context, booking models.Booking) (interface{}, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}) (*mongo.DeleteResult, error)
}

type bookingDatabase struct {
	db DatabaseHelper
}

// NewBookingDatabase initializes a new instance of booking database with the provided db connection
func NewBookingDatabase(db DatabaseHelper) BookingDatabase {
	return &bookingDatabase{
		db: db,
	}
}

func (b *bookingDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Booking, error) {
	booking := &models.Booking{}
	err := b.db.Collection(bookingName).FindOne(ctx, filter).Decode(&booking)
	if err != nil {
		return nil, err
	}
	return booking, nil
}

func (b *bookingDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Booking, error) {
	cursor, err := b.db.Collection(bookingName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	var bookings []models.Booking
	if err := cursor.Decode(&bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// FindWithRequester joins the requesting user's public identity onto each
// booking, for owner and admin views
func (b *bookingDatabase) FindWithRequester(ctx context.Context, filter interface{}) ([]models.BookingWithRequester, error) {
	pipeline := []bson.M{
		{"$match": filter},
		{"$lookup": bson.M{
			"from":         userName,
			"localField":   "booking.userId",
			"foreignField": "_id",
			"as":           "requesterDocs",
		}},
		{"$addFields": bson.M{
			"requester": bson.M{
				"_id":      bson.M{"$arrayElemAt": []interface{}{"$requesterDocs._id", 0}},
				"username": bson.M{"$arrayElemAt": []interface{}{"$requesterDocs.user.username", 0}},
				"email":    bson.M{"$arrayElemAt": []interface{}{"$requesterDocs.user.email", 0}},
			},
		}},
		{"$project": bson.M{"requesterDocs": 0}},
	}
	cursor, err := b.db.Collection(bookingName).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var bookings []models.BookingWithRequester
	if err := cursor.Decode(&bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (b *bookingDatabase) InsertOne(ctx context.Context, booking models.Booking) (interface{}, error) {
	res, err := b.db.Collection(bookingName).InsertOne(ctx, booking)
	if err != nil {
		return nil, err
	}
	return res.Decode(), nil
}

func (b *bookingDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}) (*mongo.UpdateResult, error) {
	return b.db.Collection(bookingName).UpdateOne(ctx, filter, update)
}

func (b *bookingDatabase) DeleteOne(ctx context.Context, filter interface{}) (*mongo.DeleteResult, error) {
	return b.db.Collection(bookingName).DeleteOne(ctx, filter)
}
