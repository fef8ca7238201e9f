package entries

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/entrydesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/entrydesk-backend/pkg/errors"
)

func TestConcurrentDecisionsHaveOneWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, userPrincipal(), validInput(t, "2023-10-01"))
	require.NoError(t, err)

	admins := []Principal{adminPrincipal(), adminPrincipal(), adminPrincipal(), adminPrincipal()}
	errs := make([]error, len(admins))
	var wg sync.WaitGroup
	for i, admin := range admins {
		wg.Add(1)
		go func(i int, admin Principal) {
			defer wg.Done()
			if i%2 == 0 {
				_, errs[i] = f.svc.Approve(ctx, admin, created.ID)
				return
			}
			_, errs[i] = f.svc.Reject(ctx, admin, created.ID, "over budget")
		}(i, admin)
	}
	wg.Wait()

	winners := 0
	var winner Principal
	for i, err := range errs {
		if err == nil {
			winners++
			winner = admins[i]
			continue
		}
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "unexpected error: %v", err)
	}
	require.Equal(t, 1, winners)

	stored, err := f.svc.Get(ctx, winner, created.ID)
	require.NoError(t, err)
	assert.NotEqual(t, enums.EntryStatusPending, stored.Status)
	require.NotNil(t, stored.ReviewerID)
	assert.Equal(t, winner.ID, *stored.ReviewerID)

	decisions := countOutbox(t, f.conn, enums.EventEntryApproved) + countOutbox(t, f.conn, enums.EventEntryRejected)
	assert.Equal(t, int64(1), decisions)
}
