package databases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Sunshine050/emergency-project-sub001/databases"
	"github.com/Sunshine050/emergency-project-sub001/databases/mocks"
	"github.com/Sunshine050/emergency-project-sub001/models"
)

func caseMocks() (*mocks.DatabaseHelper, *mocks.CollectionHelper) {
	dbHelper := &mocks.DatabaseHelper{}
	casesColl := &mocks.CollectionHelper{}
	dbHelper.On("Collection", "cases").Return(casesColl)
	return dbHelper, casesColl
}

func TestCaseFindOne(t *testing.T) {
	dbHelper, casesColl := caseMocks()

	srHelper := &mocks.SingleResultHelper{}
	srHelper.On("Decode", mock.AnythingOfType("**models.EmergencyCase")).Return(nil).
		Run(func(args mock.Arguments) {
			emergencyCase := args.Get(0).(**models.EmergencyCase)
			(*emergencyCase).ID = "c1"
			(*emergencyCase).Details.Status = models.StatusPending
			(*emergencyCase).Version = 2
		})
	casesColl.On("FindOne", mock.Anything, mock.Anything).Return(srHelper)

	caseDB := databases.NewCaseDatabase(dbHelper)
	emergencyCase, err := caseDB.FindOne(context.Background(), map[string]string{"_id": "c1"})
	assert.NoError(t, err)
	assert.Equal(t, "c1", emergencyCase.ID)
	assert.Equal(t, models.StatusPending, emergencyCase.Details.Status)
	assert.Equal(t, int64(2), emergencyCase.Version)
}

func TestCaseFindOneMissing(t *testing.T) {
	dbHelper, casesColl := caseMocks()

	srHelper := &mocks.SingleResultHelper{}
	srHelper.On("Decode", mock.AnythingOfType("**models.EmergencyCase")).Return(mongo.ErrNoDocuments)
	casesColl.On("FindOne", mock.Anything, mock.Anything).Return(srHelper)

	caseDB := databases.NewCaseDatabase(dbHelper)
	emergencyCase, err := caseDB.FindOne(context.Background(), map[string]string{"_id": "missing"})
	assert.Nil(t, emergencyCase)
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)
}

func TestCaseCompareAndSwap(t *testing.T) {
	tests := []struct {
		name         string
		matchedCount int64
		updateErr    error
		swapped      bool
		wantErr      bool
	}{
		{"version matches", 1, nil, true, false},
		{"version moved", 0, nil, false, false},
		{"store error", 0, errors.New("mocked-update-error"), false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dbHelper, casesColl := caseMocks()
			var result *mongo.UpdateResult
			if tt.updateErr == nil {
				result = &mongo.UpdateResult{MatchedCount: tt.matchedCount, ModifiedCount: tt.matchedCount}
			}
			casesColl.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(result, tt.updateErr)

			caseDB := databases.NewCaseDatabase(dbHelper)
			swapped, err := caseDB.CompareAndSwap(context.Background(), "c1", 3, models.CaseDetails{Status: models.StatusAssigned})
			assert.Equal(t, tt.swapped, swapped)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
