package databases

// go generate: mockery --name CarDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ford69/flexi-ride-api/models"
)

const carName = "cars"

// CarDatabase contains the methods to use with the car database
type CarDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Car, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Car, error)
	FindPaged(ctx context.Context, filter interface{}, limit, page int) ([]models.Car, error)
	InsertOne(ctx context.Context, car models.Car) (interface{}, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}) (*mongo.DeleteResult, error)
}

type carDatabase struct {
	db DatabaseHelper
}

// NewCarDatabase initializes a new instance of car database with the provided db connection
func NewCarDatabase(db DatabaseHelper) CarDatabase {
	return &carDatabase{
		db: db,
	}
}

func (c *carDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Car, error) {
	car := &models.Car{}
	err := c.db.Collection(carName).FindOne(ctx, filter).Decode(&car)
	if err != nil {
		return nil, err
	}
	return car, nil
}

func (c *carDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Car, error) {
	cursor, err := c.db.Collection(carName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	var cars []models.Car
	if err := cursor.Decode(&cars); err != nil {
		return nil, err
	}
	return cars, nil
}

func (c *carDatabase) FindPaged(ctx context.Context, filter interface{}, limit, page int) ([]models.Car, error) {
	return c.Find(ctx, filter, newMongoPaginate(limit, page).getPaginatedOpts())
}

func (c *carDatabase) InsertOne(ctx context.Context, car models.Car) (interface{}, error) {
	res, err := c.db.Collection(carName).InsertOne(ctx, car)
	if err != nil {
		return nil, err
	}
	return res.Decode(), nil
}

func (c *carDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}) (*mongo.UpdateResult, error) {
	return c.db.Collection(carName).UpdateOne(ctx, filter, update)
}

func (c *carDatabase) DeleteOne(ctx context.Context, filter interface{}) (*mongo.DeleteResult, error) {
	return c.db.Collection(carName).DeleteOne(ctx, filter)
}
