package databases_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Sunshine050/emergency-project-sub001/databases"
	"github.com/Sunshine050/emergency-project-sub001/databases/mocks"
	"github.com/Sunshine050/emergency-project-sub001/models"
)

func notificationMocks() (*mocks.DatabaseHelper, *mocks.CollectionHelper, *mocks.CollectionHelper) {
	dbHelper := &mocks.DatabaseHelper{}
	notificationsColl := &mocks.CollectionHelper{}
	countersColl := &mocks.CollectionHelper{}
	dbHelper.On("Collection", "notifications").Return(notificationsColl)
	dbHelper.On("Collection", "notification_counters").Return(countersColl)
	return dbHelper, notificationsColl, countersColl
}

func TestNotificationAppend(t *testing.T) {
	dbHelper, notificationsColl, countersColl := notificationMocks()
	notificationsColl.On("InsertOne", mock.Anything, mock.Anything).Return(nil, nil)
	countersColl.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{ModifiedCount: 1}, nil)

	notificationDB := databases.NewNotificationDatabase(dbHelper)
	err := notificationDB.Append(context.Background(), models.Notification{
		ID:        "n1",
		UserID:    "u1",
		Type:      "case_assigned",
		CreatedAt: time.Now().UTC(),
	})
	assert.NoError(t, err)
	countersColl.AssertNumberOfCalls(t, "UpdateOne", 1)
}

func TestNotificationAppendInsertError(t *testing.T) {
	dbHelper, notificationsColl, countersColl := notificationMocks()
	notificationsColl.On("InsertOne", mock.Anything, mock.Anything).
		Return(nil, errors.New("mocked-insert-error"))

	notificationDB := databases.NewNotificationDatabase(dbHelper)
	err := notificationDB.Append(context.Background(), models.Notification{ID: "n1", UserID: "u1"})
	assert.Error(t, err)
	// the counter must not move when the insert failed
	countersColl.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestNotificationMarkRead(t *testing.T) {
	dbHelper, notificationsColl, countersColl := notificationMocks()
	notificationsColl.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil)
	countersColl.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{ModifiedCount: 1}, nil)

	notificationDB := databases.NewNotificationDatabase(dbHelper)
	modified, err := notificationDB.MarkRead(context.Background(), "u1", "n1")
	assert.NoError(t, err)
	assert.True(t, modified)
	countersColl.AssertNumberOfCalls(t, "UpdateOne", 1)
}

// Marking an already-read notification matches no document. The call
// still succeeds and the unread counter stays untouched, so client
// retries converge instead of driving the counter negative.
func TestNotificationMarkReadAlreadyRead(t *testing.T) {
	dbHelper, notificationsColl, countersColl := notificationMocks()
	notificationsColl.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 0, ModifiedCount: 0}, nil)

	notificationDB := databases.NewNotificationDatabase(dbHelper)
	modified, err := notificationDB.MarkRead(context.Background(), "u1", "n1")
	assert.NoError(t, err)
	assert.False(t, modified)
	countersColl.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestNotificationMarkAllRead(t *testing.T) {
	dbHelper, notificationsColl, countersColl := notificationMocks()
	notificationsColl.On("UpdateMany", mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 3, ModifiedCount: 3}, nil)
	countersColl.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{ModifiedCount: 1}, nil)

	notificationDB := databases.NewNotificationDatabase(dbHelper)
	modified, err := notificationDB.MarkAllRead(context.Background(), "u1")
	assert.NoError(t, err)
	assert.Equal(t, int64(3), modified)
}

func TestNotificationDeleteOneUnread(t *testing.T) {
	dbHelper, notificationsColl, countersColl := notificationMocks()

	srHelper := &mocks.SingleResultHelper{}
	srHelper.On("Decode", mock.AnythingOfType("**models.Notification")).Return(nil).
		Run(func(args mock.Arguments) {
			notification := args.Get(0).(**models.Notification)
			(*notification).ID = "n1"
			(*notification).UserID = "u1"
			(*notification).IsRead = false
		})
	notificationsColl.On("FindOne", mock.Anything, mock.Anything).Return(srHelper)
	notificationsColl.On("DeleteOne", mock.Anything, mock.Anything).Return(int64(1), nil)
	countersColl.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{ModifiedCount: 1}, nil)

	notificationDB := databases.NewNotificationDatabase(dbHelper)
	deleted, err := notificationDB.DeleteOne(context.Background(), "u1", "n1")
	assert.NoError(t, err)
	assert.True(t, deleted)
	countersColl.AssertNumberOfCalls(t, "UpdateOne", 1)
}

func TestNotificationDeleteOneRead(t *testing.T) {
	dbHelper, notificationsColl, countersColl := notificationMocks()

	srHelper := &mocks.SingleResultHelper{}
	srHelper.On("Decode", mock.AnythingOfType("**models.Notification")).Return(nil).
		Run(func(args mock.Arguments) {
			notification := args.Get(0).(**models.Notification)
			(*notification).ID = "n1"
			(*notification).UserID = "u1"
			(*notification).IsRead = true
		})
	notificationsColl.On("FindOne", mock.Anything, mock.Anything).Return(srHelper)
	notificationsColl.On("DeleteOne", mock.Anything, mock.Anything).Return(int64(1), nil)

	notificationDB := databases.NewNotificationDatabase(dbHelper)
	deleted, err := notificationDB.DeleteOne(context.Background(), "u1", "n1")
	assert.NoError(t, err)
	assert.True(t, deleted)
	countersColl.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestNotificationDeleteOneMissing(t *testing.T) {
	dbHelper, notificationsColl, _ := notificationMocks()

	srHelper := &mocks.SingleResultHelper{}
	srHelper.On("Decode", mock.AnythingOfType("**models.Notification")).Return(mongo.ErrNoDocuments)
	notificationsColl.On("FindOne", mock.Anything, mock.Anything).Return(srHelper)

	notificationDB := databases.NewNotificationDatabase(dbHelper)
	deleted, err := notificationDB.DeleteOne(context.Background(), "u1", "missing")
	assert.NoError(t, err)
	assert.False(t, deleted)
	notificationsColl.AssertNotCalled(t, "DeleteOne", mock.Anything, mock.Anything)
}

func TestNotificationUnreadCount(t *testing.T) {
	tests := []struct {
		name      string
		stored    int64
		decodeErr error
		expected  int64
	}{
		{"positive counter", 7, nil, 7},
		{"no counter document", 0, mongo.ErrNoDocuments, 0},
		{"negative counter clamps to zero", -2, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dbHelper, _, countersColl := notificationMocks()

			srHelper := &mocks.SingleResultHelper{}
			srHelper.On("Decode", mock.AnythingOfType("**models.NotificationCounter")).Return(tt.decodeErr).
				Run(func(args mock.Arguments) {
					counter := args.Get(0).(**models.NotificationCounter)
					(*counter).UserID = "u1"
					(*counter).Unread = tt.stored
				})
			countersColl.On("FindOne", mock.Anything, mock.Anything).Return(srHelper)

			notificationDB := databases.NewNotificationDatabase(dbHelper)
			unread, err := notificationDB.UnreadCount(context.Background(), "u1")
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, unread)
		})
	}
}
