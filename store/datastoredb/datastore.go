package datastoredb

import (
	"context"
	"sync"

	"cloud.google.com/go/datastore"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
)

// datastorer lists the datastore.Client calls made for community settings plus connect, which
// (re)creates the underlying client
type datastorer interface {
	connect() error
	Close() error
	Get(ctx context.Context, k *datastore.Key, dest interface{}) error
	GetAll(ctx context.Context, q *datastore.Query, dest interface{}) ([]*datastore.Key, error)
	Put(ctx context.Context, k *datastore.Key, src interface{}) (*datastore.Key, error)
	Delete(ctx context.Context, k *datastore.Key) error
}

// cloudClient holds the live datastore.Client for a project. The client options are kept so
// that a reconnect picks up rotated credentials files
type cloudClient struct {
	mu        sync.RWMutex
	client    *datastore.Client
	projectID string
	opts      []option.ClientOption
}

func newCloudClient(projectID string, opts []option.ClientOption) *cloudClient {
	return &cloudClient{projectID: projectID, opts: opts}
}

func (cc *cloudClient) connect() error {
	fresh, err := datastore.NewClient(context.Background(), cc.projectID, cc.opts...)
	if err != nil {
		return errors.Wrapf(err, "Error connecting to datastore of project [%s]", cc.projectID)
	}

	cc.mu.Lock()
	stale := cc.client
	cc.client = fresh
	cc.mu.Unlock()

	if stale != nil {
		stale.Close()
	}

	return nil
}

func (cc *cloudClient) current() *datastore.Client {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	return cc.client
}

func (cc *cloudClient) Close() error {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	if cc.client == nil {
		return nil
	}

	err := cc.client.Close()
	cc.client = nil

	return err
}

func (cc *cloudClient) Get(ctx context.Context, k *datastore.Key, dest interface{}) error {
	return cc.current().Get(ctx, k, dest)
}

func (cc *cloudClient) GetAll(ctx context.Context, q *datastore.Query, dest interface{}) ([]*datastore.Key, error) {
	return cc.current().GetAll(ctx, q, dest)
}

func (cc *cloudClient) Put(ctx context.Context, k *datastore.Key, src interface{}) (*datastore.Key, error) {
	return cc.current().Put(ctx, k, src)
}

func (cc *cloudClient) Delete(ctx context.Context, k *datastore.Key) error {
	return cc.current().Delete(ctx, k)
}
