package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/fitrackhq/fitrack/internal/app"
	"github.com/fitrackhq/fitrack/internal/common"
	"github.com/fitrackhq/fitrack/internal/interfaces"
	"github.com/fitrackhq/fitrack/internal/models"
	"github.com/fitrackhq/fitrack/internal/services/investment"
	"github.com/fitrackhq/fitrack/internal/services/metrics"
	"github.com/fitrackhq/fitrack/internal/services/portfolio"
	"golang.org/x/crypto/bcrypt"
)

// newTestServer creates a Server backed by in-memory storage and real services.
func newTestServer(t *testing.T) (*Server, *memStorage) {
	t.Helper()
	storage := newMemStorage()
	logger := common.NewSilentLogger()
	cfg := common.NewDefaultConfig()

	a := &app.App{
		Config:            cfg,
		Logger:            logger,
		Storage:           storage,
		MetricsService:    metrics.NewService(storage, logger),
		PortfolioService:  portfolio.NewService(storage, logger),
		InvestmentService: investment.NewService(storage, logger),
		StartupTime:       time.Now(),
	}
	return NewServer(a), storage
}

// seedUser stores a user and returns a signed bearer token for it.
func seedUser(t *testing.T, srv *Server, storage *memStorage, userID, email string) string {
	t.Helper()
	user := &models.User{
		UserID:    userID,
		Email:     email,
		Name:      "Test User",
		Role:      models.RoleUser,
		CreatedAt: time.Now(),
	}
	if err := storage.users.SaveUser(context.Background(), user); err != nil {
		t.Fatalf("seedUser: %v", err)
	}
	token, err := signJWT(user, &srv.app.Config.Auth)
	if err != nil {
		t.Fatalf("seedUser: sign token: %v", err)
	}
	return token
}

// seedPasswordUser stores a user with a bcrypt-hashed password.
func seedPasswordUser(t *testing.T, storage *memStorage, userID, email, password string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	if err != nil {
		t.Fatalf("seedPasswordUser: %v", err)
	}
	user := &models.User{
		UserID:       userID,
		Email:        email,
		Name:         "Test User",
		PasswordHash: string(hash),
		Role:         models.RoleUser,
		CreatedAt:    time.Now(),
	}
	if err := storage.users.SaveUser(context.Background(), user); err != nil {
		t.Fatalf("seedPasswordUser: %v", err)
	}
}

func jsonBody(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal JSON: %v", err)
	}
	return bytes.NewBuffer(data)
}

// doRequest runs a request through the full middleware stack.
func doRequest(srv *Server, method, path, token string, body *bytes.Buffer) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, body)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func responseData(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	resp := decodeResponse(t, rec)
	data, ok := resp["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("response has no data object: %v", resp)
	}
	return data
}

// listAll returns options that fetch an entire ledger oldest-first.
func listAll() interfaces.ListOptions {
	return interfaces.ListOptions{OrderBy: "date_asc"}
}

// --- In-memory storage fake ---

type memStorage struct {
	users       *memUserStore
	accounts    *memAccountStore
	investments *memInvestmentStore
	ledger      *memLedgerStore
}

func newMemStorage() *memStorage {
	return &memStorage{
		users:       &memUserStore{users: map[string]*models.User{}},
		accounts:    &memAccountStore{accounts: map[string]*models.Account{}},
		investments: &memInvestmentStore{investments: map[string]*models.Investment{}},
		ledger:      &memLedgerStore{},
	}
}

func (m *memStorage) UserStore() interfaces.UserStore             { return m.users }
func (m *memStorage) AccountStore() interfaces.AccountStore       { return m.accounts }
func (m *memStorage) InvestmentStore() interfaces.InvestmentStore { return m.investments }
func (m *memStorage) LedgerStore() interfaces.LedgerStore         { return m.ledger }
func (m *memStorage) Close() error                                { return nil }

var _ interfaces.StorageManager = (*memStorage)(nil)

type memUserStore struct {
	users map[string]*models.User
}

func (s *memUserStore) GetUser(_ context.Context, userID string) (*models.User, error) {
	return s.users[userID], nil
}

func (s *memUserStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (s *memUserStore) SaveUser(_ context.Context, user *models.User) error {
	s.users[user.UserID] = user
	return nil
}

func (s *memUserStore) DeleteUser(_ context.Context, userID string) error {
	delete(s.users, userID)
	return nil
}

type memAccountStore struct {
	accounts map[string]*models.Account
}

func (s *memAccountStore) Get(_ context.Context, userID, id string) (*models.Account, error) {
	a := s.accounts[id]
	if a == nil || a.UserID != userID {
		return nil, nil
	}
	return a, nil
}

func (s *memAccountStore) List(_ context.Context, userID string) ([]*models.Account, error) {
	var out []*models.Account
	for _, a := range s.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Description < out[j].Description })
	return out, nil
}

func (s *memAccountStore) Save(_ context.Context, account *models.Account) error {
	s.accounts[account.ID] = account
	return nil
}

func (s *memAccountStore) Delete(_ context.Context, userID, id string) error {
	if a := s.accounts[id]; a != nil && a.UserID == userID {
		delete(s.accounts, id)
	}
	return nil
}

type memInvestmentStore struct {
	investments map[string]*models.Investment
}

func (s *memInvestmentStore) Get(_ context.Context, userID, id string) (*models.Investment, error) {
	inv := s.investments[id]
	if inv == nil || inv.UserID != userID {
		return nil, nil
	}
	return inv, nil
}

func (s *memInvestmentStore) List(_ context.Context, userID string) ([]*models.Investment, error) {
	var out []*models.Investment
	for _, inv := range s.investments {
		if inv.UserID == userID {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Description < out[j].Description })
	return out, nil
}

func (s *memInvestmentStore) ListByAccount(_ context.Context, userID, accountID string) ([]*models.Investment, error) {
	var out []*models.Investment
	for _, inv := range s.investments {
		if inv.UserID == userID && inv.AccountID == accountID {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Description < out[j].Description })
	return out, nil
}

func (s *memInvestmentStore) Save(_ context.Context, investment *models.Investment) error {
	s.investments[investment.ID] = investment
	return nil
}

func (s *memInvestmentStore) Delete(_ context.Context, userID, id string) error {
	if inv := s.investments[id]; inv != nil && inv.UserID == userID {
		delete(s.investments, id)
	}
	return nil
}

func (s *memInvestmentStore) UnassignAccount(_ context.Context, userID, accountID string) (int, error) {
	count := 0
	for _, inv := range s.investments {
		if inv.UserID == userID && inv.AccountID == accountID {
			inv.AccountID = ""
			count++
		}
	}
	return count, nil
}

func (s *memInvestmentStore) Touch(_ context.Context, userID, id string, at time.Time) error {
	if inv := s.investments[id]; inv != nil && inv.UserID == userID {
		inv.UpdatedAt = at
	}
	return nil
}

type memLedgerStore struct {
	txs []*models.Transaction
}

func (s *memLedgerStore) Get(_ context.Context, userID, id string) (*models.Transaction, error) {
	for _, tx := range s.txs {
		if tx.ID == id && tx.UserID == userID {
			return tx, nil
		}
	}
	return nil, nil
}

func (s *memLedgerStore) Save(_ context.Context, tx *models.Transaction) error {
	for i, existing := range s.txs {
		if existing.ID == tx.ID {
			s.txs[i] = tx
			return nil
		}
	}
	s.txs = append(s.txs, tx)
	return nil
}

func (s *memLedgerStore) Delete(_ context.Context, userID, id string) error {
	for i, tx := range s.txs {
		if tx.ID == id && tx.UserID == userID {
			s.txs = append(s.txs[:i], s.txs[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *memLedgerStore) DeleteByInvestment(_ context.Context, userID, investmentID string) (int, error) {
	var kept []*models.Transaction
	count := 0
	for _, tx := range s.txs {
		if tx.UserID == userID && tx.InvestmentID == investmentID {
			count++
			continue
		}
		kept = append(kept, tx)
	}
	s.txs = kept
	return count, nil
}

func (s *memLedgerStore) List(_ context.Context, userID, investmentID string, opts interfaces.ListOptions) ([]*models.Transaction, error) {
	var out []*models.Transaction
	for _, tx := range s.txs {
		if tx.UserID == userID && tx.InvestmentID == investmentID {
			out = append(out, tx)
		}
	}
	asc := opts.OrderBy == "date_asc"
	sort.Slice(out, func(i, j int) bool {
		if !out[i].TransactionDate.Equal(out[j].TransactionDate) {
			if asc {
				return out[i].TransactionDate.Before(out[j].TransactionDate)
			}
			return out[i].TransactionDate.After(out[j].TransactionDate)
		}
		if asc {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if opts.Skip > 0 {
		if opts.Skip >= len(out) {
			return nil, nil
		}
		out = out[opts.Skip:]
	}
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (s *memLedgerStore) Count(_ context.Context, userID, investmentID string) (int, error) {
	count := 0
	for _, tx := range s.txs {
		if tx.UserID == userID && tx.InvestmentID == investmentID {
			count++
		}
	}
	return count, nil
}

func (s *memLedgerStore) SumIncome(_ context.Context, investmentIDs []string, since *time.Time) (float64, error) {
	ids := make(map[string]bool, len(investmentIDs))
	for _, id := range investmentIDs {
		ids[id] = true
	}
	total := 0.0
	for _, tx := range s.txs {
		if !ids[tx.InvestmentID] || !tx.Type.IsIncome() {
			continue
		}
		if since != nil && tx.TransactionDate.Before(*since) {
			continue
		}
		total += tx.SignedAmount()
	}
	return total, nil
}

func (s *memLedgerStore) LatestSnapshotBefore(_ context.Context, investmentID string, txType models.TransactionType, cutoff time.Time) (*models.Transaction, error) {
	var latest *models.Transaction
	for _, tx := range s.txs {
		if tx.InvestmentID != investmentID || tx.Type != txType || !tx.TransactionDate.Before(cutoff) {
			continue
		}
		if latest == nil ||
			tx.TransactionDate.After(latest.TransactionDate) ||
			(tx.TransactionDate.Equal(latest.TransactionDate) && tx.CreatedAt.After(latest.CreatedAt)) {
			latest = tx
		}
	}
	return latest, nil
}

func (s *memLedgerStore) AggregateSnapshotsByMonth(_ context.Context, investmentID string, from, to time.Time, reducer interfaces.SnapshotReducer) ([]interfaces.MonthlySnapshot, error) {
	type key struct {
		year  int
		month int
		typ   models.TransactionType
	}
	amounts := make(map[key]float64)
	latestAt := make(map[key]time.Time)
	for _, tx := range s.txs {
		if tx.InvestmentID != investmentID || !tx.Type.IsSnapshot() {
			continue
		}
		if tx.TransactionDate.Before(from) || !tx.TransactionDate.Before(to) {
			continue
		}
		d := tx.TransactionDate.UTC()
		k := key{d.Year(), int(d.Month()), tx.Type}
		switch reducer {
		case interfaces.SnapshotReducerLatest:
			if at, ok := latestAt[k]; !ok || tx.TransactionDate.After(at) {
				amounts[k] = tx.Amount
				latestAt[k] = tx.TransactionDate
			}
		default:
			if cur, ok := amounts[k]; !ok || tx.Amount > cur {
				amounts[k] = tx.Amount
			}
		}
	}
	out := make([]interfaces.MonthlySnapshot, 0, len(amounts))
	for k, amount := range amounts {
		out = append(out, interfaces.MonthlySnapshot{Year: k.year, Month: k.month, Type: k.typ, Amount: amount})
	}
	return out, nil
}

func (s *memLedgerStore) AggregateIncomeByMonth(_ context.Context, investmentIDs []string, from, to time.Time) ([]interfaces.MonthlyIncome, error) {
	ids := make(map[string]bool, len(investmentIDs))
	for _, id := range investmentIDs {
		ids[id] = true
	}
	type key struct {
		year  int
		month int
	}
	totals := make(map[key]float64)
	for _, tx := range s.txs {
		if !ids[tx.InvestmentID] || !tx.Type.IsIncome() {
			continue
		}
		if tx.TransactionDate.Before(from) || !tx.TransactionDate.Before(to) {
			continue
		}
		d := tx.TransactionDate.UTC()
		totals[key{d.Year(), int(d.Month())}] += tx.SignedAmount()
	}
	out := make([]interfaces.MonthlyIncome, 0, len(totals))
	for k, total := range totals {
		out = append(out, interfaces.MonthlyIncome{Year: k.year, Month: k.month, Income: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out, nil
}
