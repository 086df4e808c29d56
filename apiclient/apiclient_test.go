package apiclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func TestUnwrapListShapes(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want int
	}{
		{"bare array", `[{"id":1,"name":"a"},{"id":2,"name":"b"}]`, 2},
		{"data envelope", `{"data":[{"id":1,"name":"a"}]}`, 1},
		{"orders envelope", `{"orders":[{"id":1,"name":"a"}]}`, 1},
		{"empty array", `[]`, 0},
		{"null data", `{"data":null}`, 0},
		{"unknown shape", `{"something":{"id":1}}`, 0},
		{"scalar", `42`, 0},
		{"garbage", `{{{`, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := UnwrapList[item]([]byte(tc.raw))
			require.NotNil(t, got)
			assert.Len(t, got, tc.want)
		})
	}
}

func TestUnwrapListPrefersDataKey(t *testing.T) {
	raw := `{"data":[{"id":1,"name":"a"}],"orders":[{"id":2,"name":"b"},{"id":3,"name":"c"}]}`
	got := UnwrapList[item]([]byte(raw))
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].ID)
}

func TestDebouncerCollapsesRapidInput(t *testing.T) {
	var fetches int32
	var mu sync.Mutex
	var delivered []string

	d := NewDebouncer(20*time.Millisecond,
		func(ctx context.Context, value string) (interface{}, error) {
			atomic.AddInt32(&fetches, 1)
			return "result:" + value, nil
		},
		func(value string, result interface{}, err error) {
			mu.Lock()
			delivered = append(delivered, value)
			mu.Unlock()
		})

	// Rapid typing: only the final value should fetch.
	for _, v := range []string{"9", "98", "987", "9876"} {
		d.Schedule(context.Background(), v)
		time.Sleep(2 * time.Millisecond)
	}
	time.Sleep(60 * time.Millisecond)

	assert.Equal(t, int32(1), atomic.LoadInt32(&fetches))
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, delivered, 1)
	assert.Equal(t, "9876", delivered[0])
}

func TestDebouncerDropsStaleResponse(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	var delivered []string

	d := NewDebouncer(5*time.Millisecond,
		func(ctx context.Context, value string) (interface{}, error) {
			if value == "old" {
				<-release
			}
			return value, nil
		},
		func(value string, result interface{}, err error) {
			mu.Lock()
			delivered = append(delivered, value)
			mu.Unlock()
		})

	d.Schedule(context.Background(), "old")
	time.Sleep(20 * time.Millisecond) // "old" fetch is now blocked in flight
	d.Schedule(context.Background(), "new")
	close(release)
	time.Sleep(40 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, delivered, 1)
	assert.Equal(t, "new", delivered[0])
}

func TestDebouncerCachesIdenticalValues(t *testing.T) {
	var fetches int32
	var mu sync.Mutex
	var delivered int

	d := NewDebouncer(5*time.Millisecond,
		func(ctx context.Context, value string) (interface{}, error) {
			atomic.AddInt32(&fetches, 1)
			return value, nil
		},
		func(value string, result interface{}, err error) {
			mu.Lock()
			delivered++
			mu.Unlock()
		})

	d.Schedule(context.Background(), "42")
	time.Sleep(30 * time.Millisecond)
	d.Schedule(context.Background(), "42")
	time.Sleep(30 * time.Millisecond)

	assert.Equal(t, int32(1), atomic.LoadInt32(&fetches))
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, delivered)
}

func TestDownloadPDF(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.7 content"))
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	doc, err := c.DownloadPDF(context.Background(), "/order/receipt-pdf?orderId=1")
	require.NoError(t, err)

	assert.Equal(t, int64(16), doc.Size())
	require.NoError(t, doc.Close())
	require.NoError(t, doc.Close()) // idempotent
	_, err = os.Stat(doc.path)
	assert.True(t, os.IsNotExist(err))
}

func TestDownloadPDFEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	_, err = c.DownloadPDF(context.Background(), "/order/receipt-pdf?orderId=1")
	assert.ErrorIs(t, err, ErrEmptyPDF)
}

func TestDownloadPDFSessionExpired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	_, err = c.DownloadPDF(context.Background(), "/order/receipt-pdf?orderId=1")
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestGetJSONSessionExpired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	var dest map[string]any
	err = c.GetJSON(context.Background(), "/dashboard/stats", &dest)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestGetListUnwraps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"id":1,"name":"a"},{"id":2,"name":"b"}]}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	list, err := GetList[item](context.Background(), c, "/client/all")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
