package pipeline

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/order-extractor/constants"
	"github.com/joseph-ayodele/order-extractor/internal/async"
	"github.com/joseph-ayodele/order-extractor/internal/common"
	"github.com/joseph-ayodele/order-extractor/internal/entity"
	"github.com/joseph-ayodele/order-extractor/internal/export"
	"github.com/joseph-ayodele/order-extractor/internal/extract"
	"github.com/joseph-ayodele/order-extractor/internal/mail"
	"github.com/joseph-ayodele/order-extractor/internal/testutil"
)

type fakeSource struct {
	messages map[string]*mail.RawMessage
}

func (f *fakeSource) ListMessageIDs(context.Context, string) ([]string, error) {
	if len(f.messages) == 0 {
		return nil, mail.ErrNoMessages
	}
	ids := make([]string, 0, len(f.messages))
	for id := range f.messages {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeSource) GetMessage(_ context.Context, id string) (*mail.RawMessage, error) {
	m, ok := f.messages[id]
	if !ok {
		return nil, errors.New("no such message")
	}
	return m, nil
}

type memStore struct {
	mu    sync.Mutex
	saved map[string]*entity.ExtractorData
	err   error
}

func (m *memStore) SaveExtraction(_ context.Context, d *entity.ExtractorData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.saved == nil {
		m.saved = map[string]*entity.ExtractorData{}
	}
	m.saved[d.Order.ID] = d
	return nil
}

func (m *memStore) GetOrder(_ context.Context, id string) (*entity.ExtractorData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.saved[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return d, nil
}

func (m *memStore) ListOrders(context.Context, *time.Time, *time.Time) ([]*entity.ExtractorData, error) {
	return nil, nil
}

func encoded(html string) string {
	return base64.URLEncoding.EncodeToString([]byte(html))
}

func TestProcessMessage(t *testing.T) {
	ts := int64(1700000000000)
	src := &fakeSource{messages: map[string]*mail.RawMessage{
		"m1": {ID: "m1", InternalDate: &ts, Body: encoded(testutil.BurgerReceipt().HTML())},
	}}
	store := &memStore{}
	dir := t.TempDir()
	p := NewProcessor(nil, nil, WithSource(src), WithStore(store), WithJSONWriter(export.NewJSONWriter(dir, nil)))

	res, err := p.ProcessMessage(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusSaved, res.Status)
	assert.Equal(t, filepath.Join(dir, "message-m1.json"), res.DumpPath)
	assert.FileExists(t, res.DumpPath)
	require.NotNil(t, res.Data.Order.DatePurchased)
	assert.Equal(t, ts, res.Data.Order.DatePurchased.UnixMilli())
	assert.Contains(t, store.saved, res.Data.Order.ID)
}

func TestProcessMessageDecodeFailure(t *testing.T) {
	src := &fakeSource{messages: map[string]*mail.RawMessage{"bad": {ID: "bad", Body: "%%%"}}}
	p := NewProcessor(nil, nil, WithSource(src))

	_, err := p.ProcessMessage(context.Background(), "bad")
	assert.Error(t, err)
}

func TestProcessHTMLWithoutStore(t *testing.T) {
	p := NewProcessor(nil, nil)
	res, err := p.ProcessHTML(context.Background(), "doc", testutil.BurgerReceipt().HTML(), nil)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusExtracted, res.Status)
	assert.Empty(t, res.DumpPath)
	assert.Nil(t, res.Data.Order.DatePurchased)
}

func TestProcessHTMLExtractionFailure(t *testing.T) {
	store := &memStore{}
	p := NewProcessor(nil, nil, WithStore(store))
	r := testutil.BurgerReceipt()
	r.OmitSkeleton = true

	_, err := p.ProcessHTML(context.Background(), "doc", r.HTML(), nil)
	assert.ErrorIs(t, err, extract.ErrStructureNotFound)
	assert.Empty(t, store.saved)
}

func TestProcessHTMLSaveFailure(t *testing.T) {
	p := NewProcessor(nil, nil, WithStore(&memStore{err: common.ErrDatabase}))
	_, err := p.ProcessHTML(context.Background(), "doc", testutil.BurgerReceipt().HTML(), nil)
	assert.ErrorIs(t, err, common.ErrDatabase)
}

func TestProcessFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "order-7.html")
	require.NoError(t, os.WriteFile(path, []byte(testutil.BurgerReceipt().HTML()), 0o644))
	p := NewProcessor(nil, nil)

	res, err := p.ProcessFile(context.Background(), path, nil)
	require.NoError(t, err)
	assert.Equal(t, "order-7", res.Ref)

	_, err = p.ProcessFile(context.Background(), filepath.Join(dir, "notes.txt"), nil)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestProcessJobsThroughQueue(t *testing.T) {
	src := &fakeSource{messages: map[string]*mail.RawMessage{
		"m1": {ID: "m1", Body: encoded(testutil.BurgerReceipt().HTML())},
	}}
	store := &memStore{}
	p := NewProcessor(nil, nil, WithSource(src), WithStore(store))
	q := async.NewProcessorQueue(p, nil, async.WithWorkers(2))

	ids, err := p.FetchAll(context.Background(), "")
	require.NoError(t, err)
	for _, id := range ids {
		require.NoError(t, q.Enqueue(context.Background(), async.Job{Kind: constants.JobKindMessage, Ref: id}))
	}
	require.NoError(t, q.Enqueue(context.Background(), async.Job{Kind: "carrier-pigeon", Ref: "x"}))
	q.Shutdown(context.Background())

	assert.Equal(t, int64(1), q.Processed())
	assert.Equal(t, int64(1), q.Failed())
	assert.Len(t, store.saved, 1)
}

func TestFetchAllWithoutSource(t *testing.T) {
	_, err := NewProcessor(nil, nil).FetchAll(context.Background(), "")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}
