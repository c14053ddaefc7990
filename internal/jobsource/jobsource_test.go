package jobsource_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"jobmate/alerts-service/internal/jobsource"
)

func TestFetchJobs_NoBaseServesMock(t *testing.T) {
	res, err := jobsource.New("", nil).FetchJobs(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.From != jobsource.FromMock || len(res.Jobs) == 0 {
		t.Fatalf("got from=%q with %d jobs", res.From, len(res.Jobs))
	}
	for _, j := range res.Jobs {
		if j.ID == "" || j.Title == "" {
			t.Errorf("bundled job missing id or title: %+v", j)
		}
	}
}

func TestFetchJobs_API(t *testing.T) {
	var gotPath, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotAccept = r.URL.Path, r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":7,"title":"Go Developer","company":"Acme"}]`))
	}))
	defer srv.Close()

	res, err := jobsource.New(srv.URL+"/", nil).FetchJobs(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if gotPath != "/jobs" || gotAccept != "application/json" {
		t.Errorf("request path=%q accept=%q", gotPath, gotAccept)
	}
	if res.From != jobsource.FromAPI || len(res.Jobs) != 1 || res.Jobs[0].ID != "7" {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestFetchJobs_FallsBackOnBadAPI(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `[]`},
		{"object payload", http.StatusOK, `{"jobs":[]}`},
		{"garbage", http.StatusOK, `not json`},
	}
	for _, c := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(c.status)
			w.Write([]byte(c.body))
		}))
		res, err := jobsource.New(srv.URL, nil).FetchJobs(context.Background())
		srv.Close()
		if err != nil {
			t.Errorf("%s: unexpected error %v", c.name, err)
			continue
		}
		if res.From != jobsource.FromMock {
			t.Errorf("%s: from = %q, want mock", c.name, res.From)
		}
	}
}

// An oversized feed is rejected even when its prefix would decode.
func TestFetchJobs_OversizedBodyFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":1,"title":"Go Developer"}]`))
		w.Write([]byte(strings.Repeat(" ", 9<<20)))
	}))
	defer srv.Close()

	res, err := jobsource.New(srv.URL, nil).FetchJobs(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.From != jobsource.FromMock {
		t.Errorf("from = %q, want mock", res.From)
	}
}

func TestFetchJobs_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := jobsource.New(srv.URL, nil).FetchJobs(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
