package services

import (
	"context"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDB collection names
const (
	NotificationDBName     = "fintrack"
	NotificationCollection = "notification_log"
)

// NotificationLog keeps a delivery audit trail in MongoDB. It is optional:
// with no MONGODB_URI every method is a no-op, so callers never branch on
// whether the log is configured.
type NotificationLog struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NotificationEntry is one delivery attempt document.
type NotificationEntry struct {
	AlertID        uint      `bson:"alert_id"`
	UserID         uint      `bson:"user_id"`
	Recipient      string    `bson:"recipient"`
	Subject        string    `bson:"subject"`
	Target         string    `bson:"target"`
	TriggeredValue string    `bson:"triggered_value"`
	Delivered      bool      `bson:"delivered"`
	Error          string    `bson:"error,omitempty"`
	SentAt         time.Time `bson:"sent_at"`
}

// NewNotificationLog connects to MongoDB when uri is non-empty. An empty uri
// or a failed connection yields a disabled log and no error; delivery
// auditing is best effort.
func NewNotificationLog(uri string) *NotificationLog {
	if uri == "" {
		log.Println("MONGODB_URI not set, notification log disabled")
		return &NotificationLog{}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(uri).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1)).
		SetMaxPoolSize(10).
		SetConnectTimeout(30 * time.Second).
		SetRetryWrites(true)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		log.Printf("Failed to connect to MongoDB, notification log disabled: %v", err)
		return &NotificationLog{}
	}
	if err := client.Ping(ctx, nil); err != nil {
		log.Printf("Failed to ping MongoDB, notification log disabled: %v", err)
		client.Disconnect(ctx)
		return &NotificationLog{}
	}

	collection := client.Database(NotificationDBName).Collection(NotificationCollection)
	collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "sent_at", Value: -1}},
	})

	log.Println("MongoDB notification log connected")
	return &NotificationLog{client: client, collection: collection}
}

// Enabled reports whether deliveries are being recorded.
func (n *NotificationLog) Enabled() bool {
	return n != nil && n.collection != nil
}

// Record writes one delivery attempt. Failures are logged, never returned;
// an audit miss must not affect alert evaluation.
func (n *NotificationLog) Record(ctx context.Context, alertID, userID uint, recipient, subject, target string, value decimal.Decimal, sendErr error) {
	if !n.Enabled() {
		return
	}

	entry := NotificationEntry{
		AlertID:        alertID,
		UserID:         userID,
		Recipient:      recipient,
		Subject:        subject,
		Target:         target,
		TriggeredValue: value.String(),
		Delivered:      sendErr == nil,
		SentAt:         time.Now(),
	}
	if sendErr != nil {
		entry.Error = sendErr.Error()
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := n.collection.InsertOne(ctx, entry); err != nil {
		log.Printf("Failed to record notification for alert %d: %v", alertID, err)
	}
}

// Close disconnects the underlying client.
func (n *NotificationLog) Close() error {
	if !n.Enabled() {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return n.client.Disconnect(ctx)
}
