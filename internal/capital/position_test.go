package capital

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/gfob-engine/pkg/errors"
)

type PositionTrackerTestSuite struct {
	suite.Suite
	tracker *PositionTracker
}

func (s *PositionTrackerTestSuite) SetupTest() {
	tracker, err := NewPositionTracker(3)
	s.Require().NoError(err)
	s.tracker = tracker
}

func TestPositionTrackerSuite(t *testing.T) {
	suite.Run(t, new(PositionTrackerTestSuite))
}

func (s *PositionTrackerTestSuite) TestNewPositionTrackerRejectsNonPositiveCeiling() {
	for _, max := range []int{0, -1} {
		tracker, err := NewPositionTracker(max)
		s.Nil(tracker)
		s.Require().Error(err)
		s.Equal(errors.ErrCodeInvalidParameter, errors.GetCode(err))
	}
}

func (s *PositionTrackerTestSuite) TestCanOpenUpToCeiling() {
	s.True(s.tracker.CanOpen())
	s.tracker.Opened()
	s.tracker.Opened()
	s.True(s.tracker.CanOpen())
	s.tracker.Opened()
	s.False(s.tracker.CanOpen())
	s.Equal(3, s.tracker.TotalHoldings())

	s.Require().NoError(s.tracker.Closed())
	s.True(s.tracker.CanOpen())
	s.Equal(2, s.tracker.TotalHoldings())
}

func (s *PositionTrackerTestSuite) TestClosedWithoutOpenHoldingsFails() {
	err := s.tracker.Closed()
	s.Require().Error(err)
	s.Equal(errors.ErrCodePositionUnderflow, errors.GetCode(err))
	s.Equal(0, s.tracker.TotalHoldings())
}

func (s *PositionTrackerTestSuite) TestDynamicPositionSizeSplitsAcrossFreeSlots() {
	cash := decimal.NewFromInt(9000)

	// All three slots free.
	s.True(s.tracker.DynamicPositionSize(cash).Equal(decimal.NewFromInt(3000)))

	s.tracker.Opened()
	s.True(s.tracker.DynamicPositionSize(cash).Equal(decimal.NewFromInt(4500)))

	s.tracker.Opened()
	s.True(s.tracker.DynamicPositionSize(cash).Equal(decimal.NewFromInt(9000)))
}

func (s *PositionTrackerTestSuite) TestDynamicPositionSizeZeroWhenFull() {
	s.tracker.Opened()
	s.tracker.Opened()
	s.tracker.Opened()
	s.True(s.tracker.DynamicPositionSize(decimal.NewFromInt(9000)).IsZero())
}

func (s *PositionTrackerTestSuite) TestDynamicPositionSizeZeroWhenNoCash() {
	s.True(s.tracker.DynamicPositionSize(decimal.Zero).IsZero())
	s.True(s.tracker.DynamicPositionSize(decimal.NewFromInt(-100)).IsZero())
}
