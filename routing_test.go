package modscot

import (
	"fmt"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/api/metric"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T, partitionCount int) *partitionRouter {
	pr, err := newPartitionRouter(partitionCount, 1, NewSLogger(zap.NewNop(), true), newInstrumenter("test", metric.NoopMeter{}))
	require.NoError(t, err)

	return pr
}

func TestNewPartitioner(t *testing.T) {
	tests := map[string]struct {
		partitionCount int
		expectedError  string
	}{
		"InvalidZeroPartitions": {
			partitionCount: 0,
			expectedError:  "A partition router can only work with a partitionCount that is a power of two but was [0]",
		},
		"ValidOnePartition": {
			partitionCount: 1,
		},
		"ValidTwoPartitions": {
			partitionCount: 2,
		},
		"Invalid3Partitions": {
			partitionCount: 3,
			expectedError:  "A partition router can only work with a partitionCount that is a power of two but was [3]",
		},
		"Valid16Partitions": {
			partitionCount: 16,
		},
		"Invalid24Partitions": {
			partitionCount: 24,
			expectedError:  "A partition router can only work with a partitionCount that is a power of two but was [24]",
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			pr, err := newPartitionRouter(tc.partitionCount, 1, nil, newInstrumenter("test", metric.NoopMeter{}))

			if tc.expectedError == "" {
				assert.NoError(t, err)
				if assert.NotNil(t, pr) {
					assert.Len(t, pr.eventQueues, tc.partitionCount)
				}
			} else {
				assert.EqualError(t, err, tc.expectedError)
			}
		})
	}
}

func TestConsistentHashing(t *testing.T) {
	eventID := "1093561982312489022"

	for i := 0; i < 12; i++ {
		partitionCount := int(math.Pow(float64(2), float64(i)))

		t.Run(fmt.Sprintf("With_%d_Partitions", partitionCount), func(t *testing.T) {
			pr := newTestRouter(t, partitionCount)
			partition := pr.partitionForEventID(eventID)

			for i := 0; i < 100; i++ {
				assert.Equal(t, partition, pr.partitionForEventID(eventID))
			}
		})
	}
}

func TestHashDistribution(t *testing.T) {
	eventIDs := make([]string, 0)
	for i := 0; i < 200000; i++ {
		eventIDs = append(eventIDs, uuid.New().String())
	}

	for i := 0; i < 4; i++ {
		partitionCount := int(math.Pow(float64(2), float64(i)))
		partitionHitCount := make([]int, partitionCount)

		t.Run(fmt.Sprintf("With_%d_Partitions", partitionCount), func(t *testing.T) {
			pr := newTestRouter(t, partitionCount)

			for _, id := range eventIDs {
				partition := pr.partitionForEventID(id)
				partitionHitCount[partition] = partitionHitCount[partition] + 1
			}

			expectedHitsPerPartition := float64(len(eventIDs)) / float64(partitionCount)
			deviationTolerance := 5.0 * expectedHitsPerPartition / 100
			for partition, hitCount := range partitionHitCount {
				assert.InDeltaf(t, expectedHitsPerPartition, hitCount, deviationTolerance, "All partitions should have received about [%.1f] hits but partition [%d] got [%d]", expectedHitsPerPartition, partition, hitCount)
			}
		})
	}
}

func TestRouteEventLandsOnItsPartition(t *testing.T) {
	pr := newTestRouter(t, 4)
	e := &Event{ID: "evt-1"}

	pr.routeEvent(e)

	routed := <-pr.eventQueues[pr.partitionForEventID("evt-1")]
	assert.Same(t, e, routed)
}

func TestHashMask(t *testing.T) {
	for i := 0; i < 16; i++ {
		partitionCount := int(math.Pow(float64(2), float64(i)))

		t.Run(fmt.Sprintf("With_%d_Partitions", partitionCount), func(t *testing.T) {
			assert.Equal(t, partitionCount-1, hashMask(partitionCount))
		})
	}
}
