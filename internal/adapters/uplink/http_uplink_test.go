package uplink

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/ghsecuritylab/488-final-project-code/internal/domain"
)

func modelForServer(t *testing.T, srv *httptest.Server) *domain.BoardModel {
	t.Helper()
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse server url: %v", err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatalf("parse server port: %v", err)
	}
	return &domain.BoardModel{
		ID:         "IAC-7",
		TableName:  "energy_data",
		RemoteIP:   u.Hostname(),
		RemotePort: port,
		RemoteDir:  "/ingest",
		HostName:   "db.example.edu",
	}
}

func TestHTTPUplinkSendLiveParsesSuggestedInterval(t *testing.T) {
	var got payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			return
		}
		if r.URL.Path != "/ingest" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte("2.5"))
	}))
	defer srv.Close()

	m := modelForServer(t, srv)
	up := NewHTTPUplink(m, time.Second)

	snap := domain.Snapshot{
		BoardID:  "IAC-7",
		TakenAt:  time.Unix(1700000000, 0).UTC(),
		Readings: []domain.PortReading{{Name: "PortA", Description: "Temp in C", Value: 21.5}},
	}

	interval, err := up.SendLive(m, snap)
	if err != nil {
		t.Fatalf("send live: %v", err)
	}
	if interval != 2500*time.Millisecond {
		t.Fatalf("expected suggested interval 2.5s, got %s", interval)
	}
	if got.Table != "energy_data" || got.Backlog {
		t.Fatalf("unexpected payload %+v", got)
	}
	if len(got.Snapshot.Readings) != 1 || got.Snapshot.Readings[0].Value != 21.5 {
		t.Fatalf("snapshot not carried: %+v", got.Snapshot)
	}
}

func TestHTTPUplinkSendsSentinelReadings(t *testing.T) {
	var got payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
	}))
	defer srv.Close()

	m := modelForServer(t, srv)
	up := NewHTTPUplink(m, time.Second)

	snap := domain.Snapshot{
		BoardID: "IAC-7",
		TakenAt: time.Unix(1700000000, 0).UTC(),
		Readings: []domain.PortReading{
			{Name: "PortA", Description: "Temp in C", Value: 21.5},
			{Name: "PortB", Description: "Current in A", Value: domain.ErrHighValue},
			{Name: "PortC", Description: "Voltage in V", Value: domain.ErrLowValue},
		},
	}

	if _, err := up.SendLive(m, snap); err != nil {
		t.Fatalf("send with sentinels: %v", err)
	}
	r := got.Snapshot.Readings
	if len(r) != 3 {
		t.Fatalf("expected 3 readings on the wire, got %+v", r)
	}
	if r[0].Value != 21.5 {
		t.Fatalf("plain value mangled: %f", r[0].Value)
	}
	if !math.IsInf(r[1].Value, 1) || !math.IsInf(r[2].Value, -1) {
		t.Fatalf("sentinels lost on the wire: %+v", r)
	}
}

func TestHTTPUplinkSendBacklogFlagsEntry(t *testing.T) {
	var got payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	m := modelForServer(t, srv)
	up := NewHTTPUplink(m, time.Second)

	interval, err := up.SendBacklog(m, domain.Snapshot{BoardID: "IAC-7"})
	if err != nil {
		t.Fatalf("send backlog: %v", err)
	}
	if interval != 0 {
		t.Fatalf("empty body must mean no suggestion, got %s", interval)
	}
	if !got.Backlog {
		t.Fatal("backlog sends must be flagged")
	}
}

func TestHTTPUplinkServerErrorFailsSend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "table missing", http.StatusInternalServerError)
	}))
	defer srv.Close()

	m := modelForServer(t, srv)
	up := NewHTTPUplink(m, time.Second)

	if _, err := up.SendLive(m, domain.Snapshot{}); err == nil {
		t.Fatal("expected error on 500 response")
	}
}

func TestHTTPUplinkConnectivity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	m := modelForServer(t, srv)
	up := NewHTTPUplink(m, time.Second)

	if !up.IsConnected() {
		t.Fatal("expected connected while server is up")
	}
	if err := up.Connect("ssid", "pw"); err != nil {
		t.Fatalf("connect while up: %v", err)
	}

	srv.Close()

	if up.IsConnected() {
		t.Fatal("expected disconnected after server shutdown")
	}
	if err := up.Connect("ssid", "pw"); err == nil {
		t.Fatal("expected connect failure after server shutdown")
	}
}

func TestSuggestedInterval(t *testing.T) {
	cases := []struct {
		body string
		want time.Duration
	}{
		{"5", 5 * time.Second},
		{" 0.5\n", 500 * time.Millisecond},
		{"", 0},
		{"-1", 0},
		{"soon", 0},
	}
	for _, c := range cases {
		if got := suggestedInterval(c.body); got != c.want {
			t.Errorf("suggestedInterval(%q) = %s, want %s", c.body, got, c.want)
		}
	}
}

func TestHTTPUplinkBringUpRequiresEndpoint(t *testing.T) {
	m := &domain.BoardModel{}
	up := NewHTTPUplink(m, time.Second)
	if err := up.BringUp(); err == nil {
		t.Fatal("expected bring-up failure without an endpoint")
	}
}
