package datastoredb

import (
	"context"
	"time"

	"cloud.google.com/go/datastore"
	"go.opentelemetry.io/otel/api/key"
	"go.opentelemetry.io/otel/api/metric"
)

const (
	opConnect = "connect"
	opClose   = "close"
	opGet     = "get"
	opGetAll  = "getAll"
	opPut     = "put"
	opDelete  = "delete"
)

var instrumentedOps = []string{opConnect, opClose, opGet, opGetAll, opPut, opDelete}

// opInstruments are the bound metrics of one datastore operation
type opInstruments struct {
	calls    metric.BoundInt64Counter
	failures metric.BoundInt64Counter
	millis   metric.BoundInt64Measure
}

// meteredDatastorer records call counts, failures and latency of every call to the wrapped datastorer.
// A missing entity is an expected answer and not counted as a failure
type meteredDatastorer struct {
	next        datastorer
	instruments map[string]opInstruments
}

func newDatastorerWithTelemetry(next datastorer, name string, meter metric.Meter) *meteredDatastorer {
	nameKey := key.New("name")
	labels := meter.Labels(nameKey.String(name))

	md := &meteredDatastorer{next: next, instruments: make(map[string]opInstruments, len(instrumentedOps))}
	for _, op := range instrumentedOps {
		prefix := "datastorer_" + op + "_"
		md.instruments[op] = opInstruments{
			calls:    meter.NewInt64Counter(prefix+"Calls", metric.WithKeys(nameKey)).Bind(labels),
			failures: meter.NewInt64Counter(prefix+"Errors", metric.WithKeys(nameKey)).Bind(labels),
			millis:   meter.NewInt64Measure(prefix+"ProcessingTimeMillis", metric.WithKeys(nameKey)).Bind(labels),
		}
	}

	return md
}

// observe returns a func to defer with a pointer to the operation's named error
func (md *meteredDatastorer) observe(op string) func(err *error) {
	start := time.Now()

	return func(err *error) {
		ctx := context.Background()
		inst := md.instruments[op]

		inst.calls.Add(ctx, 1)
		inst.millis.Record(ctx, time.Since(start).Milliseconds())
		if *err != nil && *err != datastore.ErrNoSuchEntity {
			inst.failures.Add(ctx, 1)
		}
	}
}

func (md *meteredDatastorer) connect() (err error) {
	defer md.observe(opConnect)(&err)
	return md.next.connect()
}

func (md *meteredDatastorer) Close() (err error) {
	defer md.observe(opClose)(&err)
	return md.next.Close()
}

func (md *meteredDatastorer) Get(ctx context.Context, k *datastore.Key, dest interface{}) (err error) {
	defer md.observe(opGet)(&err)
	return md.next.Get(ctx, k, dest)
}

func (md *meteredDatastorer) GetAll(ctx context.Context, q *datastore.Query, dest interface{}) (keys []*datastore.Key, err error) {
	defer md.observe(opGetAll)(&err)
	return md.next.GetAll(ctx, q, dest)
}

func (md *meteredDatastorer) Put(ctx context.Context, k *datastore.Key, src interface{}) (stored *datastore.Key, err error) {
	defer md.observe(opPut)(&err)
	return md.next.Put(ctx, k, src)
}

func (md *meteredDatastorer) Delete(ctx context.Context, k *datastore.Key) (err error) {
	defer md.observe(opDelete)(&err)
	return md.next.Delete(ctx, k)
}
