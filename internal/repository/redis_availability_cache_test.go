package repository

import (
	"context"
	"testing"
	"time"

	"github.com/metinatakli/seat-reservation-core/internal/domain"
	"github.com/metinatakli/seat-reservation-core/internal/mocks"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type AvailabilityCacheTestSuite struct {
	suite.Suite
	client *mocks.MockRedisClient
	cache  *RedisAvailabilityCache
}

func (s *AvailabilityCacheTestSuite) SetupTest() {
	s.client = new(mocks.MockRedisClient)
	s.cache = NewRedisAvailabilityCache(s.client)
}

func TestAvailabilityCacheSuite(t *testing.T) {
	suite.Run(t, new(AvailabilityCacheTestSuite))
}

func (s *AvailabilityCacheTestSuite) TestGetReturnsNilOnMiss() {
	s.client.On("Get", mock.Anything, "availability:7").Return(redis.NewStringResult("", redis.Nil))

	got, err := s.cache.Get(context.Background(), 7)

	s.Require().NoError(err)
	s.Nil(got)
	s.client.AssertExpectations(s.T())
}

func (s *AvailabilityCacheTestSuite) TestGetDecodesSnapshot() {
	payload := `{"showtime_id":7,"locked_seat_ids":[1,2],"booked_seat_ids":[3]}`
	s.client.On("Get", mock.Anything, "availability:7").Return(redis.NewStringResult(payload, nil))

	got, err := s.cache.Get(context.Background(), 7)

	s.Require().NoError(err)
	s.Equal(&domain.Availability{ShowtimeID: 7, LockedSeatIDs: []int{1, 2}, BookedSeatIDs: []int{3}}, got)
}

func (s *AvailabilityCacheTestSuite) TestGetPropagatesRedisErrors() {
	s.client.On("Get", mock.Anything, "availability:7").Return(redis.NewStringResult("", mocks.RedisDown("connection refused")))

	_, err := s.cache.Get(context.Background(), 7)

	s.EqualError(err, "connection refused")
}

func (s *AvailabilityCacheTestSuite) TestSetSkipsNonPositiveTTL() {
	err := s.cache.Set(context.Background(), &domain.Availability{ShowtimeID: 7}, 0)

	s.Require().NoError(err)
	s.client.AssertNotCalled(s.T(), "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *AvailabilityCacheTestSuite) TestSetStoresSnapshot() {
	s.client.On("Set", mock.Anything, "availability:7", mock.Anything, 2*time.Second).
		Return(redis.NewStatusResult("OK", nil))

	err := s.cache.Set(context.Background(), &domain.Availability{ShowtimeID: 7}, 2*time.Second)

	s.Require().NoError(err)
	s.client.AssertExpectations(s.T())
}

func (s *AvailabilityCacheTestSuite) TestInvalidateDeletesKey() {
	s.client.On("Del", mock.Anything, []string{"availability:7"}).Return(redis.NewIntResult(1, nil))

	err := s.cache.Invalidate(context.Background(), 7)

	s.Require().NoError(err)
	s.client.AssertExpectations(s.T())
}
