package trace

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/elsatrace/internal/elsa"
	"github.com/roach88/elsatrace/internal/testutil"
)

const instanceListing = `{"items":[
	{"id":"wf-1","name":"Order","status":"Finished","createdAt":"2024-01-01T09:00:00Z","updatedAt":"2024-01-01T10:15:30Z"},
	{"Id":"wf-2","DefinitionId":"def-7","Status":"Running","CreatedAt":"2024-01-01T08:00:05Z"},
	{"id":"wf-3"},
	{"name":"no id"}
]}`

func TestInstanceOptions(t *testing.T) {
	opts := InstanceOptions(decode(t, instanceListing), nil)
	require.Len(t, opts, 3, "entries without id are dropped")

	assert.Equal(t, "Order (Finished · 10:15:30) - wf-1", opts[0].Label, "updatedAt wins")
	assert.Equal(t, "def-7 (Running · 08:00:05) - wf-2", opts[1].Label)
	assert.Equal(t, "Workflow (Unknown) - wf-3", opts[2].Label)
	assert.Nil(t, opts[2].Timestamp)
}

func TestInstanceOptions_EmptyNameIsKept(t *testing.T) {
	opts := InstanceOptions(decode(t, `[
		{"id":"wf-3","name":"","definitionId":"def-9"},
		{"id":"wf-4","name":null,"definitionId":"def-9"}
	]`), nil)
	require.Len(t, opts, 2)
	assert.Equal(t, "", opts[0].Name)
	assert.Equal(t, " (Unknown) - wf-3", opts[0].Label)
	assert.Equal(t, "def-9", opts[1].Name, "null name falls back to the definition id")
}

func TestInstanceOptions_Location(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	opts := InstanceOptions(decode(t, instanceListing), loc)
	assert.Equal(t, "Order (Finished · 12:15:30) - wf-1", opts[0].Label)
}

func TestInstanceOptions_Malformed(t *testing.T) {
	assert.Empty(t, InstanceOptions(nil, nil))
	assert.Empty(t, InstanceOptions("nope", nil))
	assert.NotNil(t, InstanceOptions(map[string]any{}, nil))
}

func newTestCatalog(t *testing.T) (*Catalog, *testutil.FakeSource, *testutil.ManualClock) {
	t.Helper()
	src := testutil.NewFakeSource()
	src.SetListing(decode(t, instanceListing), nil)
	clock := testutil.NewManualClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	return NewCatalog(src, CatalogOptions{Clock: clock, CacheSize: 1 << 20}), src, clock
}

func TestCatalog_CachesWithinTTL(t *testing.T) {
	c, src, clock := newTestCatalog(t)
	ctx := context.Background()
	page := elsa.Page{Take: 50}

	first, err := c.Options(ctx, page)
	require.NoError(t, err)
	require.Len(t, first, 3)

	clock.Advance(59 * time.Second)
	second, err := c.Options(ctx, page)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, src.Calls(elsa.OpWorkflowInstances))

	clock.Advance(time.Second)
	_, err = c.Options(ctx, page)
	require.NoError(t, err)
	assert.Equal(t, 2, src.Calls(elsa.OpWorkflowInstances), "expired after the stale time")
}

func TestCatalog_PagesAreCachedSeparately(t *testing.T) {
	c, src, _ := newTestCatalog(t)
	ctx := context.Background()

	_, err := c.Options(ctx, elsa.Page{Take: 50})
	require.NoError(t, err)
	_, err = c.Options(ctx, elsa.Page{Skip: 50, Take: 50})
	require.NoError(t, err)
	assert.Equal(t, 2, src.Calls(elsa.OpWorkflowInstances))
}

func TestCatalog_Invalidate(t *testing.T) {
	c, src, _ := newTestCatalog(t)
	ctx := context.Background()

	_, err := c.Options(ctx, elsa.Page{})
	require.NoError(t, err)
	c.Invalidate()
	_, err = c.Options(ctx, elsa.Page{})
	require.NoError(t, err)
	assert.Equal(t, 2, src.Calls(elsa.OpWorkflowInstances))
}

func TestCatalog_ErrorsAreNotCached(t *testing.T) {
	c, src, _ := newTestCatalog(t)
	src.SetListing(nil, errors.New("Elsa API 401: Unauthorized"))
	ctx := context.Background()

	_, err := c.Options(ctx, elsa.Page{})
	assert.EqualError(t, err, "Elsa API 401: Unauthorized")

	src.SetListing(decode(t, instanceListing), nil)
	opts, err := c.Options(ctx, elsa.Page{})
	require.NoError(t, err)
	assert.Len(t, opts, 3)
	assert.Equal(t, 2, src.Calls(elsa.OpWorkflowInstances))
}

func TestCatalog_SubSecondTTLStillExpires(t *testing.T) {
	src := testutil.NewFakeSource()
	src.SetListing(decode(t, instanceListing), nil)
	clock := testutil.NewManualClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	c := NewCatalog(src, CatalogOptions{TTL: 500 * time.Millisecond, Clock: clock, CacheSize: 1 << 20})
	ctx := context.Background()

	_, err := c.Options(ctx, elsa.Page{})
	require.NoError(t, err)
	clock.Advance(2 * time.Second)
	_, err = c.Options(ctx, elsa.Page{})
	require.NoError(t, err)
	assert.Equal(t, 2, src.Calls(elsa.OpWorkflowInstances))
}

func TestExpireSeconds(t *testing.T) {
	assert.Equal(t, 1, expireSeconds(time.Millisecond))
	assert.Equal(t, 1, expireSeconds(time.Second))
	assert.Equal(t, 2, expireSeconds(1500*time.Millisecond))
	assert.Equal(t, 60, expireSeconds(time.Minute))
}
