package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/carbonacre/carbonacre/internal/biomass"
	"github.com/carbonacre/carbonacre/internal/models"
)

// Mongo implements Store on MongoDB collections.
type Mongo struct {
	db            *mongo.Database
	plots         *mongo.Collection
	trees         *mongo.Collection
	estimates     *mongo.Collection
	prices        *mongo.Collection
	creditResults *mongo.Collection
	packages      *mongo.Collection
	users         *mongo.Collection
}

// estimateDoc wraps a biomass estimate with its owning tree id for the
// unique-key upsert.
type estimateDoc struct {
	TreeID    primitive.ObjectID `bson:"treeId"`
	Estimate  biomass.Estimate   `bson:"estimate"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

// NewMongo wires the collections and ensures indexes. The unique index on
// estimates.treeId is what gives SaveEstimate its upsert semantics under
// concurrent writers (last write wins).
func NewMongo(ctx context.Context, db *mongo.Database) (*Mongo, error) {
	m := &Mongo{
		db:            db,
		plots:         db.Collection("plots"),
		trees:         db.Collection("trees"),
		estimates:     db.Collection("estimates"),
		prices:        db.Collection("market_prices"),
		creditResults: db.Collection("credit_results"),
		packages:      db.Collection("mrv_packages"),
		users:         db.Collection("users"),
	}

	if _, err := m.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return nil, fmt.Errorf("users index: %w", err)
	}
	if _, err := m.plots.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: -1}},
	}); err != nil {
		return nil, fmt.Errorf("plots index: %w", err)
	}
	if _, err := m.trees.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "plotId", Value: 1}},
	}); err != nil {
		return nil, fmt.Errorf("trees index: %w", err)
	}
	if _, err := m.estimates.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "treeId", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return nil, fmt.Errorf("estimates index: %w", err)
	}
	if _, err := m.prices.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "date", Value: -1}},
	}); err != nil {
		return nil, fmt.Errorf("prices index: %w", err)
	}

	return m, nil
}

// --- Plots ---

func (m *Mongo) InsertPlot(ctx context.Context, plot *models.Plot) error {
	res, err := m.plots.InsertOne(ctx, plot)
	if err != nil {
		return fmt.Errorf("insert plot: %w", err)
	}
	plot.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (m *Mongo) GetPlot(ctx context.Context, id primitive.ObjectID) (*models.Plot, error) {
	var plot models.Plot
	err := m.plots.FindOne(ctx, bson.M{"_id": id}).Decode(&plot)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get plot: %w", err)
	}
	return &plot, nil
}

func (m *Mongo) ListPlots(ctx context.Context, ownerID primitive.ObjectID) ([]models.Plot, error) {
	cur, err := m.plots.Find(ctx, bson.M{"ownerId": ownerID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list plots: %w", err)
	}
	defer cur.Close(ctx)

	var out []models.Plot
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode plots: %w", err)
	}
	return out, nil
}

func (m *Mongo) UpdatePlot(ctx context.Context, plot *models.Plot) error {
	plot.UpdatedAt = time.Now().UTC()
	res, err := m.plots.ReplaceOne(ctx, bson.M{"_id": plot.ID}, plot)
	if err != nil {
		return fmt.Errorf("update plot: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) DeletePlot(ctx context.Context, id primitive.ObjectID) error {
	res, err := m.plots.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete plot: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	// Orphaned trees are removed with their plot.
	if _, err := m.trees.DeleteMany(ctx, bson.M{"plotId": id}); err != nil {
		return fmt.Errorf("delete plot trees: %w", err)
	}
	return nil
}

// --- Trees ---

func (m *Mongo) InsertTree(ctx context.Context, tree *models.Tree) error {
	res, err := m.trees.InsertOne(ctx, tree)
	if err != nil {
		return fmt.Errorf("insert tree: %w", err)
	}
	tree.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (m *Mongo) GetTree(ctx context.Context, id primitive.ObjectID) (*models.Tree, error) {
	var tree models.Tree
	err := m.trees.FindOne(ctx, bson.M{"_id": id}).Decode(&tree)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tree: %w", err)
	}
	return &tree, nil
}

func (m *Mongo) ListTrees(ctx context.Context, plotID primitive.ObjectID) ([]models.Tree, error) {
	cur, err := m.trees.Find(ctx, bson.M{"plotId": plotID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list trees: %w", err)
	}
	defer cur.Close(ctx)

	var out []models.Tree
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode trees: %w", err)
	}
	return out, nil
}

func (m *Mongo) UpdateTree(ctx context.Context, tree *models.Tree) error {
	tree.UpdatedAt = time.Now().UTC()
	res, err := m.trees.ReplaceOne(ctx, bson.M{"_id": tree.ID}, tree)
	if err != nil {
		return fmt.Errorf("update tree: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) DeleteTree(ctx context.Context, id primitive.ObjectID) error {
	res, err := m.trees.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete tree: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	_, _ = m.estimates.DeleteOne(ctx, bson.M{"treeId": id})
	return nil
}

// --- Estimates ---

// SaveEstimate inserts or replaces the estimate for the tree. Conflicts on
// the unique treeId key update rather than duplicate.
func (m *Mongo) SaveEstimate(ctx context.Context, treeID primitive.ObjectID, est *biomass.Estimate) error {
	doc := estimateDoc{TreeID: treeID, Estimate: *est, UpdatedAt: time.Now().UTC()}
	_, err := m.estimates.UpdateOne(ctx,
		bson.M{"treeId": treeID},
		bson.M{"$set": doc},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert estimate: %w", err)
	}
	return nil
}

func (m *Mongo) GetEstimate(ctx context.Context, treeID primitive.ObjectID) (*biomass.Estimate, error) {
	var doc estimateDoc
	err := m.estimates.FindOne(ctx, bson.M{"treeId": treeID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get estimate: %w", err)
	}
	return &doc.Estimate, nil
}

// --- Market prices ---

func (m *Mongo) InsertMarketPrice(ctx context.Context, price *models.MarketPrice) error {
	res, err := m.prices.InsertOne(ctx, price)
	if err != nil {
		return fmt.Errorf("insert market price: %w", err)
	}
	price.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// LatestMarketPrice returns the most recent price row by date descending.
func (m *Mongo) LatestMarketPrice(ctx context.Context) (*models.MarketPrice, error) {
	var price models.MarketPrice
	err := m.prices.FindOne(ctx, bson.M{},
		options.FindOne().SetSort(bson.D{{Key: "date", Value: -1}})).Decode(&price)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest market price: %w", err)
	}
	return &price, nil
}

// --- Credit results ---

func (m *Mongo) InsertCreditResult(ctx context.Context, result *models.CreditResult) error {
	res, err := m.creditResults.InsertOne(ctx, result)
	if err != nil {
		return fmt.Errorf("insert credit result: %w", err)
	}
	result.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// --- MRV packages ---

func (m *Mongo) InsertPackage(ctx context.Context, pkg *models.MRVPackage) error {
	if _, err := m.packages.InsertOne(ctx, pkg); err != nil {
		return fmt.Errorf("insert package: %w", err)
	}
	return nil
}

func (m *Mongo) GetPackage(ctx context.Context, id string) (*models.MRVPackage, error) {
	var pkg models.MRVPackage
	err := m.packages.FindOne(ctx, bson.M{"_id": id}).Decode(&pkg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get package: %w", err)
	}
	return &pkg, nil
}

func (m *Mongo) SetPackageAnchor(ctx context.Context, id, txID string) error {
	res, err := m.packages.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"ledgerTxId": txID}})
	if err != nil {
		return fmt.Errorf("set package anchor: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Users ---

func (m *Mongo) InsertUser(ctx context.Context, user *models.User) error {
	res, err := m.users.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	user.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (m *Mongo) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := m.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

func (m *Mongo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := m.users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &user, nil
}
