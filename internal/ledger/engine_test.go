package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/egwallet/egwallet/internal/account"
	"github.com/egwallet/egwallet/internal/journal"
	"github.com/egwallet/egwallet/internal/logging"
	"github.com/egwallet/egwallet/internal/notification"
	"github.com/egwallet/egwallet/internal/policy"
)

type captureNotifier struct {
	mu   sync.Mutex
	sent []notification.Message
}

func (n *captureNotifier) Send(_ context.Context, msg notification.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return nil
}

type fixture struct {
	engine   *Engine
	store    account.Store
	accounts *account.Service
	notifier *captureNotifier
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := account.NewMemoryStore()
	notifier := &captureNotifier{}
	engine := NewEngine(store, journal.NewMemory(), policy.NewGate(decimal.Zero), notifier, logging.Discard())
	return fixture{engine: engine, store: store, accounts: account.NewService(store), notifier: notifier}
}

func (f fixture) newAccount(t *testing.T, name, email, phone string, kyc account.KYCStatus) account.Account {
	t.Helper()
	acct, err := f.accounts.Create(context.Background(), account.CreateInput{Name: name, Email: email, Phone: phone})
	require.NoError(t, err)
	if kyc != account.KYCPending {
		acct, err = f.accounts.SetKYCStatus(context.Background(), acct.ID, kyc)
		require.NoError(t, err)
	}
	return acct
}

// Alice sends her full balance to Bob; the transfer stays pending until an
// admin approves, then settles completely.
func TestSubmitApproveSettles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.newAccount(t, "Alice", "alice@example.com", "+1111", account.KYCApproved)
	bob := f.newAccount(t, "Bob", "bob@example.com", "+2222", account.KYCApproved)
	account.SeedBalance(f.store, alice.ID, "USD", decimal.NewFromInt(1000))

	tx, err := f.engine.Submit(ctx, alice.ID, bob.ID, decimal.NewFromInt(1000), "USD")
	require.NoError(t, err)
	require.Equal(t, journal.StatusPending, tx.Status)

	// Submission holds no funds.
	a, _ := f.store.Get(ctx, alice.ID)
	require.True(t, a.Balance("USD").Equal(decimal.NewFromInt(1000)))

	settled, err := f.engine.Approve(ctx, tx.ID, "admin-1")
	require.NoError(t, err)
	require.Equal(t, journal.StatusCompleted, settled.Status)
	require.NotNil(t, settled.ApprovedAt)
	require.NotNil(t, settled.CompletedAt)
	require.Equal(t, "admin-1", settled.AdminID)

	a, _ = f.store.Get(ctx, alice.ID)
	b, _ := f.store.Get(ctx, bob.ID)
	require.True(t, a.Balance("USD").IsZero(), "alice should be drained, got %s", a.Balance("USD"))
	require.True(t, b.Balance("USD").Equal(decimal.NewFromInt(1000)))

	require.Len(t, f.notifier.sent, 1)
	require.Equal(t, bob.ID, f.notifier.sent[0].Destination)
}

func TestSubmitKYCRequiredLeavesNoRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.newAccount(t, "Alice", "alice@example.com", "+1111", account.KYCPending)
	bob := f.newAccount(t, "Bob", "bob@example.com", "+2222", account.KYCApproved)
	account.SeedBalance(f.store, alice.ID, "USD", decimal.NewFromInt(1000))

	_, err := f.engine.Submit(ctx, alice.ID, bob.ID, decimal.NewFromInt(100), "USD")
	require.ErrorIs(t, err, policy.ErrKYCRequired)

	list, err := f.engine.List(ctx, alice.ID)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestSubmitLimitExceeded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.newAccount(t, "Alice", "alice@example.com", "+1111", account.KYCApproved)
	bob := f.newAccount(t, "Bob", "bob@example.com", "+2222", account.KYCApproved)

	_, err := f.engine.Submit(ctx, alice.ID, bob.ID, decimal.NewFromInt(300_000), "USD")
	require.ErrorIs(t, err, policy.ErrLimitExceeded)
}

func TestSubmitSelfTransfer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.newAccount(t, "Alice", "alice@example.com", "+1111", account.KYCApproved)

	_, err := f.engine.Submit(ctx, alice.ID, alice.ID, decimal.NewFromInt(10), "USD")
	require.ErrorIs(t, err, policy.ErrSelfTransfer)
}

func TestSubmitUnknownAccounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.newAccount(t, "Alice", "alice@example.com", "+1111", account.KYCApproved)

	_, err := f.engine.Submit(ctx, "missing", alice.ID, decimal.NewFromInt(10), "USD")
	require.ErrorIs(t, err, account.ErrNotFound)

	_, err = f.engine.Submit(ctx, alice.ID, "missing", decimal.NewFromInt(10), "USD")
	require.ErrorIs(t, err, account.ErrNotFound)
}

// Settlement failures end up recorded on the transaction, not returned as
// call errors, and leave balances untouched.
func TestApproveSettlementFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.newAccount(t, "Alice", "alice@example.com", "+1111", account.KYCApproved)
	bob := f.newAccount(t, "Bob", "bob@example.com", "+2222", account.KYCApproved)
	account.SeedBalance(f.store, alice.ID, "USD", decimal.NewFromInt(50))

	tx, err := f.engine.Submit(ctx, alice.ID, bob.ID, decimal.NewFromInt(100), "USD")
	require.NoError(t, err)

	// Balance shrinks between submission and approval.
	require.NoError(t, f.store.Debit(ctx, alice.ID, "USD", decimal.NewFromInt(10)))

	failed, err := f.engine.Approve(ctx, tx.ID, "admin-1")
	require.NoError(t, err)
	require.Equal(t, journal.StatusFailed, failed.Status)
	require.Contains(t, failed.Reason, "insufficient funds")

	a, _ := f.store.Get(ctx, alice.ID)
	b, _ := f.store.Get(ctx, bob.ID)
	require.True(t, a.Balance("USD").Equal(decimal.NewFromInt(40)))
	require.True(t, b.Balance("USD").IsZero())
	require.Empty(t, f.notifier.sent)
}

func TestApproveIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.newAccount(t, "Alice", "alice@example.com", "+1111", account.KYCApproved)
	bob := f.newAccount(t, "Bob", "bob@example.com", "+2222", account.KYCApproved)
	account.SeedBalance(f.store, alice.ID, "USD", decimal.NewFromInt(500))

	tx, err := f.engine.Submit(ctx, alice.ID, bob.ID, decimal.NewFromInt(200), "USD")
	require.NoError(t, err)

	first, err := f.engine.Approve(ctx, tx.ID, "admin-1")
	require.NoError(t, err)
	require.Equal(t, journal.StatusCompleted, first.Status)

	second, err := f.engine.Approve(ctx, tx.ID, "admin-2")
	require.NoError(t, err)
	require.Equal(t, journal.StatusCompleted, second.Status)
	require.Equal(t, "admin-1", second.AdminID)

	// Exactly one balance mutation.
	a, _ := f.store.Get(ctx, alice.ID)
	b, _ := f.store.Get(ctx, bob.ID)
	require.True(t, a.Balance("USD").Equal(decimal.NewFromInt(300)))
	require.True(t, b.Balance("USD").Equal(decimal.NewFromInt(200)))
}

func TestConcurrentApprovalOfCompetingTransfers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.newAccount(t, "Alice", "alice@example.com", "+1111", account.KYCApproved)
	bob := f.newAccount(t, "Bob", "bob@example.com", "+2222", account.KYCApproved)
	account.SeedBalance(f.store, alice.ID, "USD", decimal.NewFromInt(100))

	tx1, err := f.engine.Submit(ctx, alice.ID, bob.ID, decimal.NewFromInt(60), "USD")
	require.NoError(t, err)
	tx2, err := f.engine.Submit(ctx, alice.ID, bob.ID, decimal.NewFromInt(60), "USD")
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]journal.Transaction, 2)
	for i, id := range []string{tx1.ID, tx2.ID} {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			res, err := f.engine.Approve(ctx, id, "admin-1")
			require.NoError(t, err)
			results[i] = res
		}(i, id)
	}
	wg.Wait()

	completed, failed := 0, 0
	for _, res := range results {
		switch res.Status {
		case journal.StatusCompleted:
			completed++
		case journal.StatusFailed:
			failed++
		}
	}
	require.Equal(t, 1, completed, "exactly one transfer settles")
	require.Equal(t, 1, failed, "the other fails at settlement")

	a, _ := f.store.Get(ctx, alice.ID)
	b, _ := f.store.Get(ctx, bob.ID)
	require.True(t, a.Balance("USD").Equal(decimal.NewFromInt(40)), "alice ends at 40, got %s", a.Balance("USD"))
	require.True(t, b.Balance("USD").Equal(decimal.NewFromInt(60)))
}

func TestConcurrentDoubleApproveSettlesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.newAccount(t, "Alice", "alice@example.com", "+1111", account.KYCApproved)
	bob := f.newAccount(t, "Bob", "bob@example.com", "+2222", account.KYCApproved)
	account.SeedBalance(f.store, alice.ID, "USD", decimal.NewFromInt(100))

	tx, err := f.engine.Submit(ctx, alice.ID, bob.ID, decimal.NewFromInt(30), "USD")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.Approve(ctx, tx.ID, "admin-1")
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	a, _ := f.store.Get(ctx, alice.ID)
	b, _ := f.store.Get(ctx, bob.ID)
	require.True(t, a.Balance("USD").Equal(decimal.NewFromInt(70)))
	require.True(t, b.Balance("USD").Equal(decimal.NewFromInt(30)))
}

func TestRejectIsTerminalAndIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.newAccount(t, "Alice", "alice@example.com", "+1111", account.KYCApproved)
	bob := f.newAccount(t, "Bob", "bob@example.com", "+2222", account.KYCApproved)
	account.SeedBalance(f.store, alice.ID, "USD", decimal.NewFromInt(100))

	tx, err := f.engine.Submit(ctx, alice.ID, bob.ID, decimal.NewFromInt(50), "USD")
	require.NoError(t, err)

	rejected, err := f.engine.Reject(ctx, tx.ID, "admin-1", "fraud review")
	require.NoError(t, err)
	require.Equal(t, journal.StatusRejected, rejected.Status)
	require.Equal(t, "fraud review", rejected.Reason)

	// Approving a rejected transfer is a no-op returning the terminal state.
	still, err := f.engine.Approve(ctx, tx.ID, "admin-2")
	require.NoError(t, err)
	require.Equal(t, journal.StatusRejected, still.Status)

	a, _ := f.store.Get(ctx, alice.ID)
	require.True(t, a.Balance("USD").Equal(decimal.NewFromInt(100)))
}

func TestApproveUnknownTransaction(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.Approve(context.Background(), "00000000-0000-0000-0000-000000000000", "admin-1")
	require.ErrorIs(t, err, journal.ErrNotFound)
}

func TestListNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.newAccount(t, "Alice", "alice@example.com", "+1111", account.KYCApproved)
	bob := f.newAccount(t, "Bob", "bob@example.com", "+2222", account.KYCApproved)
	account.SeedBalance(f.store, alice.ID, "USD", decimal.NewFromInt(100))

	tx1, err := f.engine.Submit(ctx, alice.ID, bob.ID, decimal.NewFromInt(10), "USD")
	require.NoError(t, err)
	tx2, err := f.engine.Submit(ctx, alice.ID, bob.ID, decimal.NewFromInt(20), "USD")
	require.NoError(t, err)

	list, err := f.engine.List(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, tx2.ID, list[0].ID)
	require.Equal(t, tx1.ID, list[1].ID)

	// Recipient sees the same transfers.
	list, err = f.engine.List(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)

	_, err = f.engine.List(ctx, "missing")
	require.ErrorIs(t, err, account.ErrNotFound)
}
