package databases

// go generate: mockery --name OrganizationDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Sunshine050/emergency-project-sub001/models"
)

const organizationName = "organizations"

// OrganizationDatabase contains the methods to use with the organization
// database. Organizations are owned by the identity subsystem, so the
// core only ever reads them.
type OrganizationDatabase interface {
	FindOne(context.Context, interface{}, ...*options.FindOneOptions) (*models.Organization, error)
	Find(context.Context, interface{}, ...*options.FindOptions) ([]models.Organization, error)
	CountDocuments(context.Context, interface{}, ...*options.CountOptions) (int64, error)
}

type organizationDatabase struct {
	db DatabaseHelper
}

// NewOrganizationDatabase initializes a new instance of organization database with the provided db connection
func NewOrganizationDatabase(db DatabaseHelper) OrganizationDatabase {
	return &organizationDatabase{
		db: db,
	}
}

func (o *organizationDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Organization, error) {
	org := &models.Organization{}
	err := o.db.Collection(organizationName).FindOne(ctx, filter, opts...).Decode(&org)
	if err != nil {
		return nil, err
	}
	return org, nil
}

func (o *organizationDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Organization, error) {
	var orgs []models.Organization
	cr := o.db.Collection(organizationName).Find(ctx, filter, opts...)
	err := cr.Decode(&orgs)
	if err != nil {
		return nil, err
	}
	return orgs, nil
}

func (o *organizationDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return o.db.Collection(organizationName).CountDocuments(ctx, filter, opts...)
}
