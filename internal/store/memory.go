package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/carbonacre/carbonacre/internal/biomass"
	"github.com/carbonacre/carbonacre/internal/models"
)

// Memory is an in-memory Store for tests and local development.
type Memory struct {
	mu            sync.Mutex
	plots         map[primitive.ObjectID]models.Plot
	trees         map[primitive.ObjectID]models.Tree
	estimates     map[primitive.ObjectID]biomass.Estimate
	prices        []models.MarketPrice
	creditResults []models.CreditResult
	packages      map[string]models.MRVPackage
	users         map[primitive.ObjectID]models.User
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		plots:     make(map[primitive.ObjectID]models.Plot),
		trees:     make(map[primitive.ObjectID]models.Tree),
		estimates: make(map[primitive.ObjectID]biomass.Estimate),
		packages:  make(map[string]models.MRVPackage),
		users:     make(map[primitive.ObjectID]models.User),
	}
}

func (m *Memory) InsertPlot(_ context.Context, plot *models.Plot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if plot.ID.IsZero() {
		plot.ID = primitive.NewObjectID()
	}
	m.plots[plot.ID] = *plot
	return nil
}

func (m *Memory) GetPlot(_ context.Context, id primitive.ObjectID) (*models.Plot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	plot, ok := m.plots[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &plot, nil
}

func (m *Memory) ListPlots(_ context.Context, ownerID primitive.ObjectID) ([]models.Plot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Plot
	for _, p := range m.plots {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) UpdatePlot(_ context.Context, plot *models.Plot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plots[plot.ID]; !ok {
		return ErrNotFound
	}
	plot.UpdatedAt = time.Now().UTC()
	m.plots[plot.ID] = *plot
	return nil
}

func (m *Memory) DeletePlot(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plots[id]; !ok {
		return ErrNotFound
	}
	delete(m.plots, id)
	for tid, t := range m.trees {
		if t.PlotID == id {
			delete(m.trees, tid)
		}
	}
	return nil
}

func (m *Memory) InsertTree(_ context.Context, tree *models.Tree) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tree.ID.IsZero() {
		tree.ID = primitive.NewObjectID()
	}
	m.trees[tree.ID] = *tree
	return nil
}

func (m *Memory) GetTree(_ context.Context, id primitive.ObjectID) (*models.Tree, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tree, ok := m.trees[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &tree, nil
}

func (m *Memory) ListTrees(_ context.Context, plotID primitive.ObjectID) ([]models.Tree, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Tree
	for _, t := range m.trees {
		if t.PlotID == plotID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) UpdateTree(_ context.Context, tree *models.Tree) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trees[tree.ID]; !ok {
		return ErrNotFound
	}
	tree.UpdatedAt = time.Now().UTC()
	m.trees[tree.ID] = *tree
	return nil
}

func (m *Memory) DeleteTree(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trees[id]; !ok {
		return ErrNotFound
	}
	delete(m.trees, id)
	delete(m.estimates, id)
	return nil
}

func (m *Memory) SaveEstimate(_ context.Context, treeID primitive.ObjectID, est *biomass.Estimate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.estimates[treeID] = *est
	return nil
}

func (m *Memory) GetEstimate(_ context.Context, treeID primitive.ObjectID) (*biomass.Estimate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	est, ok := m.estimates[treeID]
	if !ok {
		return nil, ErrNotFound
	}
	return &est, nil
}

func (m *Memory) InsertMarketPrice(_ context.Context, price *models.MarketPrice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if price.ID.IsZero() {
		price.ID = primitive.NewObjectID()
	}
	m.prices = append(m.prices, *price)
	return nil
}

func (m *Memory) LatestMarketPrice(_ context.Context) (*models.MarketPrice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prices) == 0 {
		return nil, ErrNotFound
	}
	latest := m.prices[0]
	for _, p := range m.prices[1:] {
		if p.Date.After(latest.Date) {
			latest = p
		}
	}
	return &latest, nil
}

func (m *Memory) InsertCreditResult(_ context.Context, result *models.CreditResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if result.ID.IsZero() {
		result.ID = primitive.NewObjectID()
	}
	m.creditResults = append(m.creditResults, *result)
	return nil
}

// CreditResultCount reports stored snapshots, for tests.
func (m *Memory) CreditResultCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.creditResults)
}

func (m *Memory) InsertPackage(_ context.Context, pkg *models.MRVPackage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.packages[pkg.ID] = *pkg
	return nil
}

func (m *Memory) GetPackage(_ context.Context, id string) (*models.MRVPackage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pkg, ok := m.packages[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &pkg, nil
}

func (m *Memory) SetPackageAnchor(_ context.Context, id, txID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pkg, ok := m.packages[id]
	if !ok {
		return ErrNotFound
	}
	pkg.LedgerTxID = txID
	m.packages[id] = pkg
	return nil
}

func (m *Memory) InsertUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return ErrDuplicate
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	m.users[user.ID] = *user
	return nil
}

func (m *Memory) GetUser(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, ErrNotFound
}
