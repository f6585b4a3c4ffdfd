package databases

// go generate: mockery --name CaseDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Sunshine050/emergency-project-sub001/models"
)

const caseName = "cases"

// CaseDatabase contains the methods to use with the case database
type CaseDatabase interface {
	FindOne(context.Context, interface{}, ...*options.FindOneOptions) (*models.EmergencyCase, error)
	Find(context.Context, interface{}, ...*options.FindOptions) ([]models.EmergencyCase, error)
	InsertOne(context.Context, interface{}, ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	CompareAndSwap(ctx context.Context, id string, version int64, details models.CaseDetails) (bool, error)
	CountDocuments(context.Context, interface{}, ...*options.CountOptions) (int64, error)
	Aggregate(context.Context, interface{}) (CursorHelper, error)
}

type caseDatabase struct {
	db DatabaseHelper
}

// NewCaseDatabase initializes a new instance of case database with the provided db connection
func NewCaseDatabase(db DatabaseHelper) CaseDatabase {
	return &caseDatabase{
		db: db,
	}
}

func (c *caseDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.EmergencyCase, error) {
	emergencyCase := &models.EmergencyCase{}
	err := c.db.Collection(caseName).FindOne(ctx, filter, opts...).Decode(&emergencyCase)
	if err != nil {
		return nil, err
	}
	return emergencyCase, nil
}

func (c *caseDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.EmergencyCase, error) {
	var cases []models.EmergencyCase
	cr := c.db.Collection(caseName).Find(ctx, filter, opts...)
	err := cr.Decode(&cases)
	if err != nil {
		return nil, err
	}
	return cases, nil
}

func (c *caseDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	res, err := c.db.Collection(caseName).InsertOne(ctx, document, opts...)
	return res, err
}

// CompareAndSwap writes the new case details only if the stored version
// still matches the version the caller read. A false return with a nil
// error means the version moved underneath the caller (or the case is
// gone); the caller decides whether to retry.
func (c *caseDatabase) CompareAndSwap(ctx context.Context, id string, version int64, details models.CaseDetails) (bool, error) {
	filter := bson.M{"_id": id, "__v": version}
	update := bson.M{
		"$set": bson.M{"case": details},
		"$inc": bson.M{"__v": 1},
	}
	res, err := c.db.Collection(caseName).UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (c *caseDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return c.db.Collection(caseName).CountDocuments(ctx, filter, opts...)
}

func (c *caseDatabase) Aggregate(ctx context.Context, pipeline interface{}) (CursorHelper, error) {
	return c.db.Collection(caseName).Aggregate(ctx, pipeline)
}
