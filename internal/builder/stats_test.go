package builder_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"grantnet/netintel/internal/builder"
	"grantnet/netintel/internal/testfixture"
)

func TestNetworkStatistics_Reference(t *testing.T) {
	s := testfixture.Build().NetworkStatistics()

	assert.Equal(t, 15, s.NodeCount)
	assert.Equal(t, 18, s.EdgeCount)
	assert.Equal(t, 5, s.FoundationCount)
	assert.Equal(t, 10, s.GranteeCount)
	assert.InDelta(t, 36.0/210.0, s.Density, 1e-9)
	assert.InDelta(t, 36.0/15.0, s.AverageDegree, 1e-9)
	assert.InDelta(t, 18.0/5.0, s.AvgGrantsPerFoundation, 1e-9)
	assert.InDelta(t, 18.0/10.0, s.AvgFundersPerGrantee, 1e-9)
	assert.Equal(t, testfixture.Horizon, s.MostConnectedFoundation, "4-way tie resolves to smallest id")
	assert.Equal(t, testfixture.TeachForAmerica, s.MostConnectedGrantee)
	assert.Equal(t, 19, s.TotalGrantCount)
	assert.InDelta(t, 7_290_000.0, s.TotalGrantAmount, 1e-6)
	assert.InDelta(t, 7_290_000.0/19.0, s.AverageGrantAmount, 1e-6)
	assert.True(t, s.Connectivity.IsConnected)
	assert.Equal(t, 1, s.Connectivity.NumComponents)
	assert.Equal(t, 15, s.Connectivity.LargestComponentSize)
}

func TestNetworkStatistics_Disconnected(t *testing.T) {
	b := testfixture.Build()
	b.Update(context.Background(), testfixture.IslandPayload())

	s := b.NetworkStatistics()
	assert.False(t, s.Connectivity.IsConnected)
	assert.Equal(t, 2, s.Connectivity.NumComponents)
	assert.Equal(t, 15, s.Connectivity.LargestComponentSize)
}

func TestNetworkStatistics_Empty(t *testing.T) {
	s := builder.New().NetworkStatistics()
	assert.Zero(t, s.NodeCount)
	assert.Zero(t, s.Density)
	assert.Zero(t, s.AverageGrantAmount)
	assert.False(t, s.Connectivity.IsConnected)
	assert.Empty(t, s.MostConnectedFoundation)
}
