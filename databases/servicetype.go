package databases

// go generate: mockery --name ServiceTypeDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ford69/flexi-ride-api/models"
)

const serviceTypeName = "serviceTypes"

// ServiceTypeDatabase contains the methods to use with the service catalog database
type ServiceTypeDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.ServiceType, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.ServiceType, error)
	InsertOne(ctx context.Context, serviceType models.ServiceType) (interface{}, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}) (*mongo.UpdateResult, error)
	CountDocuments(ctx context.Context, filter interface{}) (int64, error)
}

type serviceTypeDatabase struct {
	db DatabaseHelper
}

// NewServiceTypeDatabase initializes a new instance of service type database with the provided db connection
func NewServiceTypeDatabase(db DatabaseHelper) ServiceTypeDatabase {
	return &serviceTypeDatabase{
		db: db,
	}
}

func (s *serviceTypeDatabase) FindOne(ctx context.Context, filter interface{}) (*models.ServiceType, error) {
	serviceType := &models.ServiceType{}
	err := s.db.Collection(serviceTypeName).FindOne(ctx, filter).Decode(&serviceType)
	if err != nil {
		return nil, err
	}
	return serviceType, nil
}

func (s *serviceTypeDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.ServiceType, error) {
	cursor, err := s.db.Collection(serviceTypeName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	var serviceTypes []models.ServiceType
	if err := cursor.Decode(&serviceTypes); err != nil {
		return nil, err
	}
	return serviceTypes, nil
}

func (s *serviceTypeDatabase) InsertOne(ctx context.Context, serviceType models.ServiceType) (interface{}, error) {
	res, err := s.db.Collection(serviceTypeName).InsertOne(ctx, serviceType)
	if err != nil {
		return nil, err
	}
	return res.Decode(), nil
}

func (s *serviceTypeDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}) (*mongo.UpdateResult, error) {
	return s.db.Collection(serviceTypeName).UpdateOne(ctx, filter, update)
}

func (s *serviceTypeDatabase) CountDocuments(ctx context.Context, filter interface{}) (int64, error) {
	return s.db.Collection(serviceTypeName).CountDocuments(ctx, filter)
}
