package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chatstack/chat-service/internal/config"
	"github.com/chatstack/chat-service/internal/model"
	registrycache "github.com/chatstack/chat-service/internal/registry/cache"
	registrymigrate "github.com/chatstack/chat-service/internal/registry/migrate"
	registrystore "github.com/chatstack/chat-service/internal/registry/store"
	"github.com/chatstack/chat-service/internal/security"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const dbName = "chat_service"

func init() {
	registrystore.Register(registrystore.Plugin{
		Name: "mongo",
		Loader: func(ctx context.Context) (registrystore.MessageStore, error) {
			cfg := config.FromContext(ctx)
			opts := options.Client().ApplyURI(cfg.DBURL)
			if cfg.DBMaxOpenConns > 0 {
				opts.SetMaxPoolSize(uint64(cfg.DBMaxOpenConns))
			}
			if cfg.DBMaxIdleConns > 0 {
				opts.SetMinPoolSize(uint64(cfg.DBMaxIdleConns))
			}
			client, err := mongo.Connect(opts)
			if err != nil {
				return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
			}
			if err := client.Ping(ctx, nil); err != nil {
				return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
			}
			return &MongoStore{
				client:     client,
				db:         client.Database(dbName),
				groupCache: registrycache.GroupCacheFromContext(ctx),
			}, nil
		},
	})

	registrymigrate.Register(registrymigrate.Plugin{Order: 100, Migrator: &mongoMigrator{}})
}

type mongoMigrator struct{}

func (m *mongoMigrator) Name() string { return "mongo-schema" }
func (m *mongoMigrator) Migrate(ctx context.Context) error {
	cfg := config.FromContext(ctx)
	if cfg == nil || !cfg.DatastoreMigrateAtStart {
		return nil
	}
	if cfg.DatastoreType != "mongo" {
		return nil // skip if not using mongo
	}

	log.Info("Running migration", "name", m.Name())
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.DBURL))
	if err != nil {
		return fmt.Errorf("mongo migration: failed to connect: %w", err)
	}
	defer client.Disconnect(ctx)

	db := client.Database(dbName)

	collections := map[string][]mongo.IndexModel{
		"messages": {
			{Keys: bson.D{{Key: "between", Value: 1}}},
			{Keys: bson.D{{Key: "between", Value: 1}, {Key: "sent", Value: 1}}},
			{Keys: bson.D{{Key: "group_id", Value: 1}}},
		},
		"groups": {},
		"users":  {},
	}

	for name, indexes := range collections {
		db.CreateCollection(ctx, name)
		if len(indexes) > 0 {
			if _, err := db.Collection(name).Indexes().CreateMany(ctx, indexes); err != nil {
				return fmt.Errorf("mongo migration: failed to create indexes for %s: %w", name, err)
			}
		}
	}

	log.Info("MongoDB schema migration complete")
	return nil
}

// MongoStore implements MessageStore using MongoDB.
type MongoStore struct {
	client     *mongo.Client
	db         *mongo.Database
	groupCache registrycache.GroupCache
}

// ForceImport is a no-op variable that can be referenced to ensure this package's init() runs.
var ForceImport = 0

// --- MongoDB document types ---

type messageDoc struct {
	ID      string   `bson:"_id"`
	Between []string `bson:"between"`
	GroupID string   `bson:"group_id,omitempty"`
	SentAt  int64    `bson:"sent"`
	Body    string   `bson:"body"`
	Seen    []bool   `bson:"seen"`
}

type groupDoc struct {
	ID        string    `bson:"_id"`
	Title     string    `bson:"title"`
	Users     []string  `bson:"users"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type userDoc struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	AvatarURL string    `bson:"avatar_url,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

func (d messageDoc) asModel() model.Message {
	return model.Message{
		ID:           d.ID,
		Participants: d.Between,
		GroupID:      d.GroupID,
		SentAt:       d.SentAt,
		Body:         d.Body,
		Seen:         d.Seen,
	}
}

func (d groupDoc) asModel() model.Group {
	return model.Group{
		ID:        d.ID,
		Title:     d.Title,
		Users:     d.Users,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// --- Collection accessors ---

func (s *MongoStore) messages() *mongo.Collection { return s.db.Collection("messages") }
func (s *MongoStore) groups() *mongo.Collection   { return s.db.Collection("groups") }
func (s *MongoStore) users() *mongo.Collection    { return s.db.Collection("users") }

// --- Messages ---

func (s *MongoStore) AppendMessage(ctx context.Context, msg *model.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	doc := messageDoc{
		ID:      msg.ID,
		Between: msg.Participants,
		GroupID: msg.GroupID,
		SentAt:  msg.SentAt,
		Body:    msg.Body,
		Seen:    msg.Seen,
	}
	if _, err := s.messages().InsertOne(ctx, doc); err != nil {
		return &registrystore.StoreError{Op: "append-message", Err: err}
	}
	return nil
}

func (s *MongoStore) MessagesByParticipant(ctx context.Context, userID string) ([]model.Message, error) {
	cur, err := s.messages().Find(ctx, bson.M{"between": userID})
	if err != nil {
		return nil, &registrystore.StoreError{Op: "find-by-participant", Err: err}
	}
	var docs []messageDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, &registrystore.StoreError{Op: "find-by-participant", Err: err}
	}
	out := make([]model.Message, len(docs))
	for i, d := range docs {
		out[i] = d.asModel()
	}
	return out, nil
}

func (s *MongoStore) MessagesByParticipantSet(ctx context.Context, participants []string, groupID string) ([]model.Message, error) {
	// Group messages must match the group id AND still contain every
	// requested participant: a membership edit must not leak messages from
	// before the requester joined the conversation's participant set.
	filter := bson.M{"between": bson.M{"$all": participants}}
	if groupID != "" {
		filter["group_id"] = groupID
	} else {
		filter["group_id"] = bson.M{"$exists": false}
	}
	cur, err := s.messages().Find(ctx, filter)
	if err != nil {
		return nil, &registrystore.StoreError{Op: "find-conversation", Err: err}
	}
	var docs []messageDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, &registrystore.StoreError{Op: "find-conversation", Err: err}
	}
	out := make([]model.Message, len(docs))
	for i, d := range docs {
		out[i] = d.asModel()
	}
	return out, nil
}

func (s *MongoStore) UpdateSeen(ctx context.Context, msg model.Message) error {
	var filter bson.M
	if msg.ID != "" {
		filter = bson.M{"_id": msg.ID}
	} else {
		// Legacy documents written before surrogate ids were assigned.
		filter = bson.M{"between": msg.Participants, "sent": msg.SentAt}
	}
	result, err := s.messages().UpdateOne(ctx, filter, bson.M{"$set": bson.M{"seen": msg.Seen}})
	if err != nil {
		return &registrystore.StoreError{Op: "update-seen", Err: err}
	}
	if result.MatchedCount == 0 {
		return &registrystore.NotFoundError{Resource: "message", ID: msg.ID}
	}
	return nil
}

// --- Groups ---

func (s *MongoStore) FindGroup(ctx context.Context, id string) (*model.Group, error) {
	if s.groupCache != nil && s.groupCache.Available() {
		if cached, err := s.groupCache.Get(ctx, id); err == nil && cached != nil {
			security.CacheHit()
			return cached, nil
		}
		security.CacheMiss()
	}

	var doc groupDoc
	err := s.groups().FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, &registrystore.StoreError{Op: "find-group", Err: err}
	}
	group := doc.asModel()

	if s.groupCache != nil && s.groupCache.Available() {
		if err := s.groupCache.Set(ctx, group); err != nil {
			log.Warn("Failed to cache group", "group", id, "err", err)
		}
	}
	return &group, nil
}

func (s *MongoStore) SaveGroup(ctx context.Context, group model.Group) (bool, error) {
	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"title":      group.Title,
			"users":      group.Users,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}
	result, err := s.groups().UpdateOne(ctx, bson.M{"_id": group.ID}, update, options.UpdateOne().SetUpsert(true))
	if err != nil {
		return false, &registrystore.StoreError{Op: "save-group", Err: err}
	}

	if s.groupCache != nil && s.groupCache.Available() {
		if err := s.groupCache.Remove(ctx, group.ID); err != nil {
			log.Warn("Failed to invalidate cached group", "group", group.ID, "err", err)
		}
	}
	return result.UpsertedCount > 0, nil
}

func (s *MongoStore) ListGroups(ctx context.Context) ([]model.Group, error) {
	cur, err := s.groups().Find(ctx, bson.M{})
	if err != nil {
		return nil, &registrystore.StoreError{Op: "list-groups", Err: err}
	}
	var docs []groupDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, &registrystore.StoreError{Op: "list-groups", Err: err}
	}
	out := make([]model.Group, len(docs))
	for i, d := range docs {
		out[i] = d.asModel()
	}
	return out, nil
}

// --- Users ---

func (s *MongoStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	var doc userDoc
	err := s.users().FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &registrystore.NotFoundError{Resource: "user", ID: id}
	}
	if err != nil {
		return nil, &registrystore.StoreError{Op: "get-user", Err: err}
	}
	return &model.User{
		ID:        doc.ID,
		Name:      doc.Name,
		AvatarURL: doc.AvatarURL,
		CreatedAt: doc.CreatedAt,
	}, nil
}

func (s *MongoStore) ListUsers(ctx context.Context) ([]model.User, error) {
	cur, err := s.users().Find(ctx, bson.M{})
	if err != nil {
		return nil, &registrystore.StoreError{Op: "list-users", Err: err}
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, &registrystore.StoreError{Op: "list-users", Err: err}
	}
	out := make([]model.User, len(docs))
	for i, d := range docs {
		out[i] = model.User{
			ID:        d.ID,
			Name:      d.Name,
			AvatarURL: d.AvatarURL,
			CreatedAt: d.CreatedAt,
		}
	}
	return out, nil
}

func (s *MongoStore) SaveUser(ctx context.Context, user model.User) error {
	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"name":       user.Name,
			"avatar_url": user.AvatarURL,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}
	_, err := s.users().UpdateOne(ctx, bson.M{"_id": user.ID}, update, options.UpdateOne().SetUpsert(true))
	if err != nil {
		return &registrystore.StoreError{Op: "save-user", Err: err}
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var _ registrystore.MessageStore = (*MongoStore)(nil)
