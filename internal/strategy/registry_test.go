package strategy

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/gfob-engine/pkg/errors"
)

type RegistryTestSuite struct {
	suite.Suite
	registry Registry
}

func (s *RegistryTestSuite) SetupTest() {
	s.registry = NewRegistry()
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistryTestSuite))
}

func (s *RegistryTestSuite) TestRegisterAndGet() {
	def := validDefinition()
	s.Require().NoError(s.registry.RegisterStrategy(def))

	got, err := s.registry.GetStrategy(def.ID)
	s.Require().NoError(err)
	s.Equal(def.ID, got.ID)
	s.Equal(def.Name, got.Name)
	s.Len(got.Exits, 1)
}

func (s *RegistryTestSuite) TestRegisterDuplicateIDRejected() {
	s.Require().NoError(s.registry.RegisterStrategy(validDefinition()))

	err := s.registry.RegisterStrategy(validDefinition())
	s.Require().Error(err)
	s.Equal(errors.ErrCodeStrategyExists, errors.GetCode(err))
}

func (s *RegistryTestSuite) TestRegisterInvalidDefinitionRejected() {
	def := validDefinition()
	def.Entry = nil

	err := s.registry.RegisterStrategy(def)
	s.Require().Error(err)
	s.Equal(errors.ErrCodeInvalidStrategy, errors.GetCode(err))

	_, err = s.registry.GetStrategy(def.ID)
	s.Error(err)
}

func (s *RegistryTestSuite) TestGetMissingStrategy() {
	_, err := s.registry.GetStrategy("unknown")
	s.Require().Error(err)
	s.Equal(errors.ErrCodeStrategyNotRegistered, errors.GetCode(err))
}

func (s *RegistryTestSuite) TestListStrategiesOrderedByID() {
	third := validDefinition()
	third.ID = "charlie"
	first := validDefinition()
	first.ID = "alpha"
	second := validDefinition()
	second.ID = "bravo"

	s.Require().NoError(s.registry.RegisterStrategy(third))
	s.Require().NoError(s.registry.RegisterStrategy(first))
	s.Require().NoError(s.registry.RegisterStrategy(second))

	defs := s.registry.ListStrategies()
	s.Require().Len(defs, 3)
	s.Equal("alpha", defs[0].ID)
	s.Equal("bravo", defs[1].ID)
	s.Equal("charlie", defs[2].ID)
}

func (s *RegistryTestSuite) TestClear() {
	s.Require().NoError(s.registry.RegisterStrategy(validDefinition()))
	s.registry.Clear()

	s.Empty(s.registry.ListStrategies())
	_, err := s.registry.GetStrategy(validDefinition().ID)
	s.Error(err)
}
