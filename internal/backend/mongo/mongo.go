// Package mongo is the MongoDB Backend driver (spec.md §6's `--backend
// mongodb`). spec.md's own vocabulary — "collection", document-shaped
// rows with bson tags already on every internal/models type — points at
// a document store as the original implementation's primary backend, so
// this driver is grounded directly in spec.md §3/§4 rather than in any
// single teacher file; go.mongodb.org/mongo-driver is confirmed as the
// ecosystem-standard choice by several other_examples/manifests entries.
package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Jylpah/blitzstats/internal/backend"
)

// Backend is the MongoDB-backed driver. It satisfies backend.Backend.
type Backend struct {
	client *mongo.Client
	db     *mongo.Database
	uri    string
}

// Open connects to uri and selects dbName.
func Open(ctx context.Context, uri, dbName string) (*Backend, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, &backend.ErrFatal{Op: "mongo.Connect", Err: err}
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, &backend.ErrFatal{Op: "mongo.Ping", Err: err}
	}
	return &Backend{client: client, db: client.Database(dbName), uri: uri}, nil
}

func (b *Backend) Name() string { return "mongodb" }

func (b *Backend) URIs() map[string]string {
	return map[string]string{"mongodb": b.uri}
}

func (b *Backend) Close(ctx context.Context) error {
	return b.client.Disconnect(ctx)
}

// wrapErr classifies a mongo-driver error as transient (network/server
// selection failures) or fatal (everything else), matching spec.md §7's
// taxonomy.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return &backend.ErrTransient{Op: op, Err: err}
	}
	return &backend.ErrFatal{Op: op, Err: err}
}

func (b *Backend) coll(name string) *mongo.Collection { return b.db.Collection(name) }

// EnsureSchema creates the indexes spec.md §6 requires; Mongo collections
// themselves are created implicitly on first write.
func (b *Backend) EnsureSchema(ctx context.Context) error {
	type idx struct {
		coll string
		keys bson.D
		opts *options.IndexOptions
	}
	indexes := []idx{
		{backend.TableTankStats, bson.D{{Key: "account_id", Value: 1}, {Key: "tank_id", Value: 1}, {Key: "last_battle_time", Value: -1}},
			options.Index().SetUnique(true)},
		{backend.TableTankStats, bson.D{{Key: "tank_id", Value: 1}, {Key: "last_battle_time", Value: -1}}, nil},
		{backend.TablePlayerAchievements, bson.D{{Key: "account_id", Value: 1}, {Key: "updated", Value: -1}},
			options.Index().SetUnique(true)},
		{backend.TableReleases, bson.D{{Key: "launch_time", Value: 1}}, nil},
		{backend.TableStatsToDelete, bson.D{{Key: "type", Value: 1}, {Key: "id", Value: 1}}, nil},
		{backend.TableErrorLog, bson.D{{Key: "account_id", Value: 1}, {Key: "time", Value: -1}, {Key: "type", Value: 1}}, nil},
	}
	for _, i := range indexes {
		model := mongo.IndexModel{Keys: i.keys}
		if i.opts != nil {
			model.Options = i.opts
		}
		if _, err := b.coll(i.coll).Indexes().CreateOne(ctx, model); err != nil {
			return wrapErr(fmt.Sprintf("EnsureSchema(%s)", i.coll), err)
		}
	}
	return nil
}
