package ipn

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paybridge/datatrans-gateway/internal/domain"
	"github.com/paybridge/datatrans-gateway/internal/repository"
	"github.com/paybridge/datatrans-gateway/internal/testutil"
)

func TestReconciler_CompletesContribution(t *testing.T) {
	db := testutil.SetupTestDB(t)
	r := NewReconciler(repository.NewContributionRepository(db), repository.NewEventRepository(db), db, 100, false)
	ctx := context.Background()

	testutil.SeedContribution(t, db, 42, "INV-42", "10.50", domain.ContributionStatusPending, testutil.Int64Ptr(1))

	res, err := r.Process(ctx, successNotification())
	require.NoError(t, err)
	assert.False(t, res.Duplicate)
	assert.Equal(t, "10.5", res.Amount.String())

	invoiceID, status := testutil.GetContribution(t, db, 42)
	assert.Equal(t, "TXN-99", invoiceID)
	assert.Equal(t, domain.ContributionStatusCompleted, status)
}

func TestReconciler_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	r := NewReconciler(repository.NewContributionRepository(db), repository.NewEventRepository(db), db, 100, false)
	ctx := context.Background()

	testutil.SeedContribution(t, db, 42, "INV-42", "10.50", domain.ContributionStatusPending, testutil.Int64Ptr(1))

	first, err := r.Process(ctx, successNotification())
	require.NoError(t, err)
	assert.False(t, first.Duplicate)

	// The gateway resends until acknowledged; the replay must be a
	// successful no-op even though the invoice id has changed.
	second, err := r.Process(ctx, successNotification())
	require.NoError(t, err)
	assert.True(t, second.Duplicate)

	invoiceID, status := testutil.GetContribution(t, db, 42)
	assert.Equal(t, "TXN-99", invoiceID)
	assert.Equal(t, domain.ContributionStatusCompleted, status)
}

func TestReconciler_AmountMismatch(t *testing.T) {
	db := testutil.SetupTestDB(t)
	r := NewReconciler(repository.NewContributionRepository(db), repository.NewEventRepository(db), db, 100, false)
	ctx := context.Background()

	testutil.SeedContribution(t, db, 42, "INV-42", "10.50", domain.ContributionStatusPending, testutil.Int64Ptr(1))

	n := successNotification()
	n.AmountMinor = 999

	_, err := r.Process(ctx, n)
	require.ErrorIs(t, err, domain.ErrAmountMismatch)

	invoiceID, status := testutil.GetContribution(t, db, 42)
	assert.Equal(t, "INV-42", invoiceID, "contribution must stay unmutated")
	assert.Equal(t, domain.ContributionStatusPending, status)
}

func TestReconciler_InvoiceMismatch(t *testing.T) {
	db := testutil.SetupTestDB(t)
	r := NewReconciler(repository.NewContributionRepository(db), repository.NewEventRepository(db), db, 100, false)
	ctx := context.Background()

	testutil.SeedContribution(t, db, 42, "INV-OTHER", "10.50", domain.ContributionStatusPending, testutil.Int64Ptr(1))

	_, err := r.Process(ctx, successNotification())
	require.ErrorIs(t, err, domain.ErrInvoiceMismatch)

	invoiceID, status := testutil.GetContribution(t, db, 42)
	assert.Equal(t, "INV-OTHER", invoiceID)
	assert.Equal(t, domain.ContributionStatusPending, status)
}

func TestReconciler_ContributionNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	r := NewReconciler(repository.NewContributionRepository(db), repository.NewEventRepository(db), db, 100, false)

	_, err := r.Process(context.Background(), successNotification())
	require.ErrorIs(t, err, domain.ErrContributionNotFound)
}

func TestReconciler_MissingPageContext(t *testing.T) {
	db := testutil.SetupTestDB(t)
	r := NewReconciler(repository.NewContributionRepository(db), repository.NewEventRepository(db), db, 100, false)
	ctx := context.Background()

	testutil.SeedContribution(t, db, 42, "INV-42", "10.50", domain.ContributionStatusPending, nil)

	_, err := r.Process(ctx, successNotification())
	require.ErrorIs(t, err, domain.ErrMissingPageContext)

	_, status := testutil.GetContribution(t, db, 42)
	assert.Equal(t, domain.ContributionStatusPending, status)
}

func TestReconciler_EventComponent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	r := NewReconciler(repository.NewContributionRepository(db), repository.NewEventRepository(db), db, 100, false)
	ctx := context.Background()

	testutil.SeedContribution(t, db, 42, "INV-42", "10.50", domain.ContributionStatusPending, nil)
	testutil.SeedEvent(t, db, 5, "Annual Gala")

	n := successNotification()
	n.Component = domain.ComponentEvent
	n.EventID = testutil.Int64Ptr(5)
	n.ParticipantID = testutil.Int64Ptr(11)

	res, err := r.Process(ctx, n)
	require.NoError(t, err)
	assert.False(t, res.Duplicate)

	invoiceID, status := testutil.GetContribution(t, db, 42)
	assert.Equal(t, "TXN-99", invoiceID)
	assert.Equal(t, domain.ContributionStatusCompleted, status)
}

func TestReconciler_EventNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	r := NewReconciler(repository.NewContributionRepository(db), repository.NewEventRepository(db), db, 100, false)
	ctx := context.Background()

	testutil.SeedContribution(t, db, 42, "INV-42", "10.50", domain.ContributionStatusPending, nil)

	n := successNotification()
	n.Component = domain.ComponentEvent
	n.EventID = testutil.Int64Ptr(999)
	n.ParticipantID = testutil.Int64Ptr(11)

	_, err := r.Process(ctx, n)
	require.ErrorIs(t, err, domain.ErrEventNotFound)

	_, status := testutil.GetContribution(t, db, 42)
	assert.Equal(t, domain.ContributionStatusPending, status)
}

func TestReconciler_StatusPolicy(t *testing.T) {
	tests := []struct {
		name    string
		strict  bool
		status  domain.ContributionStatus
		wantErr error
	}{
		{
			name:   "lenient completes cancelled order",
			strict: false,
			status: domain.ContributionStatusCancelled,
		},
		{
			name:    "strict refuses cancelled order",
			strict:  true,
			status:  domain.ContributionStatusCancelled,
			wantErr: domain.ErrNotPending,
		},
		{
			name:   "strict completes pending order",
			strict: true,
			status: domain.ContributionStatusPending,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			r := NewReconciler(repository.NewContributionRepository(db), repository.NewEventRepository(db), db, 100, tc.strict)

			testutil.SeedContribution(t, db, 42, "INV-42", "10.50", tc.status, testutil.Int64Ptr(1))

			_, err := r.Process(context.Background(), successNotification())
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				_, status := testutil.GetContribution(t, db, 42)
				assert.Equal(t, tc.status, status)
				return
			}
			require.NoError(t, err)
			_, status := testutil.GetContribution(t, db, 42)
			assert.Equal(t, domain.ContributionStatusCompleted, status)
		})
	}
}

func TestReconciler_ConcurrentNotifications(t *testing.T) {
	db := testutil.SetupTestDB(t)
	r := NewReconciler(repository.NewContributionRepository(db), repository.NewEventRepository(db), db, 100, false)
	ctx := context.Background()

	testutil.SeedContribution(t, db, 42, "INV-42", "10.50", domain.ContributionStatusPending, testutil.Int64Ptr(1))

	const workers = 2
	results := make([]*ReconcileResult, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = r.Process(ctx, successNotification())
		}()
	}
	wg.Wait()

	// The row lock serializes the two transactions: the loser observes
	// "completed" and must report a duplicate, never a second completion.
	completions, duplicates := 0, 0
	for i := range workers {
		require.NoError(t, errs[i])
		if results[i].Duplicate {
			duplicates++
		} else {
			completions++
		}
	}
	assert.Equal(t, 1, completions)
	assert.Equal(t, 1, duplicates)

	invoiceID, status := testutil.GetContribution(t, db, 42)
	assert.Equal(t, "TXN-99", invoiceID)
	assert.Equal(t, domain.ContributionStatusCompleted, status)
}
