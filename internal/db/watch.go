package db

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"github.com/ukydev/opsboard/internal/events"
	"github.com/ukydev/opsboard/internal/models"
)

// WatchedCollections are the collections the dashboard listens to.
var WatchedCollections = []string{
	models.CollectionBookings,
	models.CollectionEmployees,
	models.CollectionHolidays,
	models.CollectionBankHolidays,
	models.CollectionVehicles,
	models.CollectionMaintenance,
	models.CollectionChecks,
	models.CollectionDefects,
}

// Watcher turns MongoDB change streams into events. Change streams need a
// replica set.
type Watcher struct {
	Database    *mongo.Database
	Collections []string
	Publisher   events.Publisher
}

// Run watches every collection until ctx is cancelled or a stream fails.
func (w *Watcher) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, name := range w.Collections {
		name := name
		g.Go(func() error { return w.watch(ctx, name) })
	}
	return g.Wait()
}

func (w *Watcher) watch(ctx context.Context, name string) error {
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	stream, err := w.Database.Collection(name).Watch(ctx, mongo.Pipeline{}, opts)
	if err != nil {
		return fmt.Errorf("watch %s: %w", name, err)
	}
	defer stream.Close(context.Background())

	logger := log.WithField("collection", name)
	logger.Info("change stream opened")
	for stream.Next(ctx) {
		var change changeEvent
		if err := stream.Decode(&change); err != nil {
			logger.WithError(err).Warn("undecodable change event")
			continue
		}
		ev, ok := change.toEvent(name)
		if !ok {
			continue
		}
		if err := w.Publisher.Publish(ctx, ev); err != nil {
			logger.WithError(err).WithField("id", ev.ID).Warn("publish change event")
		}
	}
	if err := stream.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("change stream %s: %w", name, err)
	}
	return nil
}

type changeEvent struct {
	OperationType string `bson:"operationType"`
	DocumentKey   struct {
		ID primitive.ObjectID `bson:"_id"`
	} `bson:"documentKey"`
	FullDocument bson.Raw            `bson:"fullDocument,omitempty"`
	ClusterTime  primitive.Timestamp `bson:"clusterTime"`
}

func (c changeEvent) toEvent(collection string) (models.Event, bool) {
	var op models.Op
	switch c.OperationType {
	case "insert":
		op = models.OpCreated
	case "update", "replace":
		op = models.OpUpdated
	case "delete":
		op = models.OpDeleted
	default:
		return models.Event{}, false
	}

	ev := models.NewEvent(collection, op, c.DocumentKey.ID.Hex(), nil)
	if c.ClusterTime.T != 0 {
		ev.At = time.Unix(int64(c.ClusterTime.T), 0).UTC()
	}
	if op != models.OpDeleted && len(c.FullDocument) > 0 {
		doc, err := decodeDocument(collection, c.FullDocument)
		if err != nil {
			log.WithError(err).WithField("collection", collection).Warn("undecodable change document")
		} else {
			ev.Document = doc
		}
	}
	return ev, true
}

func decodeDocument(collection string, raw bson.Raw) (interface{}, error) {
	var doc interface{}
	switch collection {
	case models.CollectionBookings:
		doc = &models.Booking{}
	case models.CollectionEmployees:
		doc = &models.Employee{}
	case models.CollectionHolidays:
		doc = &models.Holiday{}
	case models.CollectionBankHolidays:
		doc = &models.BankHoliday{}
	case models.CollectionVehicles:
		doc = &models.Vehicle{}
	case models.CollectionMaintenance:
		doc = &models.MaintenanceBooking{}
	case models.CollectionChecks:
		doc = &models.VehicleCheck{}
	case models.CollectionDefects:
		doc = &models.Defect{}
	default:
		return nil, fmt.Errorf("unknown collection %q", collection)
	}
	if err := bson.Unmarshal(raw, doc); err != nil {
		return nil, err
	}
	return doc, nil
}
