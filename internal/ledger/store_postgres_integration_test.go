//go:build integration

package ledger_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"

	"verinode/internal/ledger"
	"verinode/pkg/testutil"
	"verinode/pkg/testutil/containers"
)

type PostgresLedgerSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *ledger.PostgresStore
}

func TestPostgresLedgerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresLedgerSuite))
}

func (s *PostgresLedgerSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = ledger.NewPostgres(s.postgres.DB)
}

func (s *PostgresLedgerSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "uniqueness_markers"))
}

func (s *PostgresLedgerSuite) TestCommitAndContains() {
	ctx := context.Background()

	seen, err := s.store.Contains(ctx, "marker-1")
	s.Require().NoError(err)
	s.False(seen)

	s.Require().NoError(s.store.Commit(ctx, "marker-1"))

	seen, err = s.store.Contains(ctx, "marker-1")
	s.Require().NoError(err)
	s.True(seen)

	size, err := s.store.Size(ctx)
	s.Require().NoError(err)
	s.Equal(1, size)
}

func (s *PostgresLedgerSuite) TestCommitIsIdempotent() {
	ctx := context.Background()

	s.Require().NoError(s.store.Commit(ctx, "marker-2"))
	s.Require().NoError(s.store.Commit(ctx, "marker-2"))

	size, err := s.store.Size(ctx)
	s.Require().NoError(err)
	s.Equal(1, size)
}

func (s *PostgresLedgerSuite) TestConcurrentCommits() {
	ctx := context.Background()

	result := testutil.RunConcurrent(20, func(idx int) error {
		return s.store.Commit(ctx, fmt.Sprintf("marker-%d", idx%5))
	})
	s.Equal(int32(20), result.Successes)

	size, err := s.store.Size(ctx)
	s.Require().NoError(err)
	s.Equal(5, size)
}
