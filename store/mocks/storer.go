// Package mocks contains testify mocks of the store package interfaces and of ticket.Repository
package mocks

import (
	"github.com/alexandre-normand/modscot/store"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
)

// Storer is a mock of store.GlobalSiloStringStorer. Operations on the default silo are recorded
// as silo operations on the empty silo so tests only set expectations on the silo methods
type Storer struct {
	mock.Mock
}

// ExpectSetting sets up a GetSiloString expectation returning a stored value
func (ms *Storer) ExpectSetting(communityID string, key string, value string) *mock.Call {
	return ms.On("GetSiloString", communityID, key).Return(value, nil)
}

// ExpectMissingSetting sets up a GetSiloString expectation for a key that was never stored
func (ms *Storer) ExpectMissingSetting(communityID string, key string) *mock.Call {
	return ms.On("GetSiloString", communityID, key).Return("", errors.Wrap(store.ErrKeyNotFound, key))
}

// GetString records a GetSiloString on the default silo
func (ms *Storer) GetString(key string) (value string, err error) {
	return ms.GetSiloString("", key)
}

// GetSiloString mocks an implementation of GetSiloString
func (ms *Storer) GetSiloString(silo string, key string) (value string, err error) {
	args := ms.Called(silo, key)

	return args.String(0), args.Error(1)
}

// PutString records a PutSiloString on the default silo
func (ms *Storer) PutString(key string, value string) (err error) {
	return ms.PutSiloString("", key, value)
}

// PutSiloString mocks an implementation of PutSiloString
func (ms *Storer) PutSiloString(silo string, key string, value string) (err error) {
	return ms.Called(silo, key, value).Error(0)
}

// DeleteString records a DeleteSiloString on the default silo
func (ms *Storer) DeleteString(key string) (err error) {
	return ms.DeleteSiloString("", key)
}

// DeleteSiloString mocks an implementation of DeleteSiloString
func (ms *Storer) DeleteSiloString(silo string, key string) (err error) {
	return ms.Called(silo, key).Error(0)
}

// Scan records a ScanSilo on the default silo
func (ms *Storer) Scan() (entries map[string]string, err error) {
	return ms.ScanSilo("")
}

// ScanSilo mocks an implementation of ScanSilo. A nil first return value yields an empty map
func (ms *Storer) ScanSilo(silo string) (entries map[string]string, err error) {
	args := ms.Called(silo)

	if entries, _ = args.Get(0).(map[string]string); entries == nil {
		entries = map[string]string{}
	}

	return entries, args.Error(1)
}

// GlobalScan mocks an implementation of GlobalScan
func (ms *Storer) GlobalScan() (entries map[string]map[string]string, err error) {
	args := ms.Called()
	entries, _ = args.Get(0).(map[string]map[string]string)

	return entries, args.Error(1)
}

// Close mocks an implementation of Close
func (ms *Storer) Close() (err error) {
	return ms.Called().Error(0)
}
