package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoDatabase = "swarmbot"

// MongoStore persists to MongoDB. Each record type lives in its own
// collection under the swarmbot database.
type MongoStore struct {
	client    *mongo.Client
	messages  *mongo.Collection
	toolCalls *mongo.Collection
	usage     *mongo.Collection
}

func NewMongoStore(ctx context.Context, uri string) (*MongoStore, error) {
	if uri == "" {
		return nil, errors.New("mongo uri is required")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	db := client.Database(mongoDatabase)
	return &MongoStore{
		client:    client,
		messages:  db.Collection("messages"),
		toolCalls: db.Collection("tool_calls"),
		usage:     db.Collection("usage_log"),
	}, nil
}

type mongoMessage struct {
	SessionID string    `bson:"session_id"`
	Role      string    `bson:"role"`
	Content   string    `bson:"content"`
	CreatedAt time.Time `bson:"created_at"`
}

type mongoToolCall struct {
	SessionID  string    `bson:"session_id"`
	Tool       string    `bson:"tool"`
	Arguments  string    `bson:"arguments"`
	OK         bool      `bson:"ok"`
	Result     string    `bson:"result"`
	DurationMS int64     `bson:"duration_ms"`
	CreatedAt  time.Time `bson:"created_at"`
}

type mongoUsage struct {
	SessionID        string    `bson:"session_id"`
	Provider         string    `bson:"provider"`
	Model            string    `bson:"model"`
	PromptTokens     int       `bson:"prompt_tokens"`
	CompletionTokens int       `bson:"completion_tokens"`
	Cost             float64   `bson:"cost"`
	CreatedAt        time.Time `bson:"created_at"`
}

func (s *MongoStore) LogMessage(ctx context.Context, msg Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	_, err := s.messages.InsertOne(ctx, mongoMessage{
		SessionID: msg.SessionID,
		Role:      msg.Role,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	})
	return err
}

func (s *MongoStore) LogToolCall(ctx context.Context, call ToolCall) error {
	if call.CreatedAt.IsZero() {
		call.CreatedAt = time.Now().UTC()
	}
	_, err := s.toolCalls.InsertOne(ctx, mongoToolCall{
		SessionID:  call.SessionID,
		Tool:       call.Tool,
		Arguments:  call.Arguments,
		OK:         call.OK,
		Result:     call.Result,
		DurationMS: call.DurationMS,
		CreatedAt:  call.CreatedAt,
	})
	return err
}

func (s *MongoStore) LogUsage(ctx context.Context, usage Usage) error {
	if usage.CreatedAt.IsZero() {
		usage.CreatedAt = time.Now().UTC()
	}
	_, err := s.usage.InsertOne(ctx, mongoUsage{
		SessionID:        usage.SessionID,
		Provider:         usage.Provider,
		Model:            usage.Model,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		Cost:             usage.Cost,
		CreatedAt:        usage.CreatedAt,
	})
	return err
}

func (s *MongoStore) Messages(ctx context.Context, sessionID string, limit int) ([]Message, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(int64(effectiveLimit(limit)))
	cursor, err := s.messages.Find(ctx, bson.M{"session_id": sessionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []mongoMessage
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]Message, 0, len(docs))
	for _, d := range docs {
		out = append(out, Message{SessionID: d.SessionID, Role: d.Role, Content: d.Content, CreatedAt: d.CreatedAt})
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func (s *MongoStore) ToolCalls(ctx context.Context, sessionID string, limit int) ([]ToolCall, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(int64(effectiveLimit(limit)))
	cursor, err := s.toolCalls.Find(ctx, bson.M{"session_id": sessionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []mongoToolCall
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]ToolCall, 0, len(docs))
	for _, d := range docs {
		out = append(out, ToolCall{
			SessionID:  d.SessionID,
			Tool:       d.Tool,
			Arguments:  d.Arguments,
			OK:         d.OK,
			Result:     d.Result,
			DurationMS: d.DurationMS,
			CreatedAt:  d.CreatedAt,
		})
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func (s *MongoStore) UsageBetween(ctx context.Context, from, to time.Time) ([]Usage, error) {
	filter := bson.M{"created_at": bson.M{"$gte": from, "$lt": to}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := s.usage.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []mongoUsage
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]Usage, 0, len(docs))
	for _, d := range docs {
		out = append(out, Usage{
			SessionID:        d.SessionID,
			Provider:         d.Provider,
			Model:            d.Model,
			PromptTokens:     d.PromptTokens,
			CompletionTokens: d.CompletionTokens,
			Cost:             d.Cost,
			CreatedAt:        d.CreatedAt,
		})
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
