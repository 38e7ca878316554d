package modscot

import (
	"context"
	"hash/crc32"

	"github.com/pkg/errors"
)

// partitionRouter spreads events over a fixed set of queues. An event id always lands on the same
// queue so a redelivery is processed after its original delivery
type partitionRouter struct {
	log         SLogger
	eventQueues []chan *Event
	mask        uint32

	*instrumenter
}

func newPartitionRouter(partitionCount int, queueBufferSize int, log SLogger, instrumenter *instrumenter) (*partitionRouter, error) {
	if !isPowerOfTwo(partitionCount) {
		return nil, errors.Errorf("A partition router can only work with a partitionCount that is a power of two but was [%d]", partitionCount)
	}

	queues := make([]chan *Event, 0, partitionCount)
	for len(queues) < partitionCount {
		queues = append(queues, make(chan *Event, queueBufferSize))
	}

	return &partitionRouter{
		log:          log,
		eventQueues:  queues,
		mask:         uint32(hashMask(partitionCount)),
		instrumenter: instrumenter,
	}, nil
}

// routeEvent blocks until the event's partition queue accepts it
func (pr *partitionRouter) routeEvent(e *Event) {
	partition := pr.partitionForEventID(e.ID)
	pr.log.Debugf("Dispatching event [%s] to partition [%d]", e.ID, partition)

	wait := measure(func() { pr.eventQueues[partition] <- e })
	pr.coreMetrics.eventDispatchLatencyMillis.Record(context.Background(), wait.Milliseconds())
}

// close lets the workers drain their queues and return
func (pr *partitionRouter) close() {
	for _, q := range pr.eventQueues {
		close(q)
	}
}

func (pr *partitionRouter) partitionForEventID(eventID string) int {
	return int(crc32.ChecksumIEEE([]byte(eventID)) & pr.mask)
}

func isPowerOfTwo(val int) bool {
	return val > 0 && val&(val-1) == 0
}

// hashMask keeps the low bits of a hash that index one of partitionCount partitions
func hashMask(partitionCount int) int {
	return partitionCount - 1
}
