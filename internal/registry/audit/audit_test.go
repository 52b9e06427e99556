package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	dErrors "tasjeel/pkg/domain-errors"
)

// =============================================================================
// Audit Test Suite
// =============================================================================

type AuditSuite struct {
	suite.Suite
	sink    *InMemorySink
	auditor *Auditor
}

func TestAuditSuite(t *testing.T) {
	suite.Run(t, new(AuditSuite))
}

func (s *AuditSuite) SetupTest() {
	s.sink = NewInMemorySink()
	var err error
	s.auditor, err = New(s.sink)
	s.Require().NoError(err)
}

// =============================================================================
// Diff
// =============================================================================

func (s *AuditSuite) TestDiff() {
	s.Run("changed field is emitted", func() {
		changes := Diff(
			Snapshot{"district": String("Old Town")},
			Snapshot{"district": String("New Town")},
		)
		s.Require().Len(changes, 1)
		s.Equal("district", changes[0].Field)
		s.Equal("Old Town", *changes[0].Old)
		s.Equal("New Town", *changes[0].New)
	})

	s.Run("unchanged field is skipped", func() {
		changes := Diff(
			Snapshot{"district": String("Same")},
			Snapshot{"district": String("Same")},
		)
		s.Empty(changes)
	})

	s.Run("nil old value is never emitted", func() {
		changes := Diff(
			Snapshot{"phone": nil},
			Snapshot{"phone": String("0700123456")},
		)
		s.Empty(changes)
	})

	s.Run("field absent from old snapshot is skipped", func() {
		changes := Diff(
			Snapshot{},
			Snapshot{"phone": String("0700123456")},
		)
		s.Empty(changes)
	})

	s.Run("change to nil is emitted", func() {
		changes := Diff(
			Snapshot{"phone": String("0700123456")},
			Snapshot{"phone": nil},
		)
		s.Require().Len(changes, 1)
		s.Nil(changes[0].New)
	})

	s.Run("ownership fields are excluded", func() {
		changes := Diff(
			Snapshot{FieldCreatedBy: String("u-1"), FieldCreatedAt: String("2024-01-01")},
			Snapshot{FieldCreatedBy: String("u-2"), FieldCreatedAt: String("2024-02-02")},
		)
		s.Empty(changes)
	})

	s.Run("changes are sorted by field name", func() {
		changes := Diff(
			Snapshot{"b": String("1"), "a": String("1"), "c": String("1")},
			Snapshot{"b": String("2"), "a": String("2"), "c": String("2")},
		)
		s.Require().Len(changes, 3)
		s.Equal("a", changes[0].Field)
		s.Equal("b", changes[1].Field)
		s.Equal("c", changes[2].Field)
	})
}

// =============================================================================
// Record
// =============================================================================

func (s *AuditSuite) TestRecord() {
	ctx := context.Background()
	entityID := uuid.New()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	s.Run("no changes writes nothing", func() {
		n, err := s.auditor.Record(ctx, KindProperty, entityID,
			Snapshot{"district": String("Same")},
			Snapshot{"district": String("Same")},
			"u-1", at)
		s.NoError(err)
		s.Zero(n)
	})

	s.Run("change-set shares actor and timestamp", func() {
		n, err := s.auditor.Record(ctx, KindProperty, entityID,
			Snapshot{"district": String("Old"), "plot_no": String("1")},
			Snapshot{"district": String("New"), "plot_no": String("2")},
			"u-1", at)
		s.NoError(err)
		s.Equal(2, n)

		entries, err := s.sink.ListByEntity(ctx, KindProperty, entityID)
		s.Require().NoError(err)
		s.Require().Len(entries, 2)
		for _, e := range entries {
			s.Equal("u-1", e.UpdatedBy)
			s.Equal(at, e.UpdatedAt)
			s.Equal(entityID, e.EntityID)
		}
	})

	s.Run("sink failure is a fatal audit error", func() {
		failing, err := New(failingSink{})
		s.Require().NoError(err)

		_, err = failing.Record(ctx, KindProperty, entityID,
			Snapshot{"district": String("Old")},
			Snapshot{"district": String("New")},
			"u-1", at)
		s.Error(err)
		s.True(dErrors.Is(err, dErrors.CodeAuditFailure))
	})

	s.Run("nil sink is rejected at construction", func() {
		_, err := New(nil)
		s.Error(err)
	})
}

type failingSink struct{}

func (failingSink) Append(context.Context, []Entry) error {
	return errors.New("disk full")
}

// =============================================================================
// Snapshot Helpers
// =============================================================================

func (s *AuditSuite) TestStringOrNil() {
	s.Nil(StringOrNil(""))
	s.Equal("x", *StringOrNil("x"))
}
