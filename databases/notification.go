package databases

// go generate: mockery --name NotificationDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Sunshine050/emergency-project-sub001/models"
)

const (
	notificationName        = "notifications"
	notificationCounterName = "notification_counters"
)

// NotificationDatabase contains the methods to use with the notification
// database. A per-user unread counter is maintained alongside the
// collection so UnreadCount never scans.
type NotificationDatabase interface {
	Append(ctx context.Context, notification models.Notification) error
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Notification, error)
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID string) (bool, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	DeleteOne(ctx context.Context, userID, notificationID string) (bool, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
}

type notificationDatabase struct {
	db DatabaseHelper
}

// NewNotificationDatabase initializes a new instance of notification database with the provided db connection
func NewNotificationDatabase(db DatabaseHelper) NotificationDatabase {
	return &notificationDatabase{
		db: db,
	}
}

// Append inserts the notification and bumps the owner's unread counter.
// The insert is the atomicity boundary; a crash between insert and
// counter bump self-heals on the next MarkAllRead.
func (n *notificationDatabase) Append(ctx context.Context, notification models.Notification) error {
	_, err := n.db.Collection(notificationName).InsertOne(ctx, notification)
	if err != nil {
		return err
	}
	return n.adjustCounter(ctx, notification.UserID, 1)
}

func (n *notificationDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Notification, error) {
	var notifications []models.Notification
	cr := n.db.Collection(notificationName).Find(ctx, filter, opts...)
	err := cr.Decode(&notifications)
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func (n *notificationDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Notification, error) {
	notification := &models.Notification{}
	err := n.db.Collection(notificationName).FindOne(ctx, filter, opts...).Decode(&notification)
	if err != nil {
		return nil, err
	}
	return notification, nil
}

// MarkRead flips the read flag. The filter matches only unread
// documents, so marking an already-read notification matches nothing
// and the counter is left alone, which makes retries harmless.
func (n *notificationDatabase) MarkRead(ctx context.Context, userID, notificationID string) (bool, error) {
	filter := bson.M{"_id": notificationID, "userID": userID, "isRead": false}
	update := bson.M{"$set": bson.M{"isRead": true}}
	res, err := n.db.Collection(notificationName).UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	if res.ModifiedCount == 0 {
		return false, nil
	}
	return true, n.adjustCounter(ctx, userID, -1)
}

// MarkAllRead flips every unread notification for the user and resets
// the counter to zero in one pass.
func (n *notificationDatabase) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	filter := bson.M{"userID": userID, "isRead": false}
	update := bson.M{"$set": bson.M{"isRead": true}}
	res, err := n.db.Collection(notificationName).UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	counterFilter := bson.M{"_id": userID}
	counterUpdate := bson.M{"$set": bson.M{"unread": int64(0)}}
	opts := options.Update().SetUpsert(true)
	_, err = n.db.Collection(notificationCounterName).UpdateOne(ctx, counterFilter, counterUpdate, opts)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// DeleteOne removes a notification owned by userID. If the deleted
// notification was unread the counter is decremented.
func (n *notificationDatabase) DeleteOne(ctx context.Context, userID, notificationID string) (bool, error) {
	notification, err := n.FindOne(ctx, bson.M{"_id": notificationID, "userID": userID})
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return false, nil
		}
		return false, err
	}
	deleted, err := n.db.Collection(notificationName).DeleteOne(ctx, bson.M{"_id": notificationID, "userID": userID})
	if err != nil {
		return false, err
	}
	if deleted == 0 {
		return false, nil
	}
	if !notification.IsRead {
		return true, n.adjustCounter(ctx, userID, -1)
	}
	return true, nil
}

func (n *notificationDatabase) UnreadCount(ctx context.Context, userID string) (int64, error) {
	counter := &models.NotificationCounter{}
	err := n.db.Collection(notificationCounterName).FindOne(ctx, bson.M{"_id": userID}).Decode(&counter)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, nil
		}
		return 0, err
	}
	if counter.Unread < 0 {
		return 0, nil
	}
	return counter.Unread, nil
}

func (n *notificationDatabase) adjustCounter(ctx context.Context, userID string, delta int64) error {
	filter := bson.M{"_id": userID}
	update := bson.M{"$inc": bson.M{"unread": delta}}
	opts := options.Update().SetUpsert(true)
	_, err := n.db.Collection(notificationCounterName).UpdateOne(ctx, filter, update, opts)
	return err
}
