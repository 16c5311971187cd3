// Package testutil provides shared test helpers: a seeded stub backend over
// httptest and a temporary credential store.
package testutil

import (
	"net/http/httptest"
	"os"
	"testing"

	"github.com/starford/mannaz/internal/credstore"
	"github.com/starford/mannaz/internal/stubserver"
)

// TestSecret signs stub tokens in tests.
const TestSecret = "test-secret"

// SeedFixtures is the data set behind StubBackend. Passwords are the
// username followed by "-password".
func SeedFixtures() stubserver.Fixtures {
	fx := stubserver.Fixtures{
		Users: []stubserver.FixtureUser{
			{Name: "Ana Petrova", Username: "ana", Email: "ana@example.edu", Password: "ana-password", Bio: "CS, year 3"},
			{Name: "Boris Ivanov", Username: "boris", Email: "boris@example.edu", Password: "boris-password"},
			{Name: "Clara Diaz", Username: "clara", Email: "clara@example.edu", Password: "clara-password"},
		},
		Posts: []stubserver.FixturePost{
			{Author: "ana", Type: "note", Title: "Graph algorithms summary", Content: "BFS, DFS, Dijkstra", Tags: []string{"algorithms", "midterm"}},
			{Author: "boris", Type: "job", Title: "Backend intern", Content: "Summer internship", Company: "Initech", Location: "Remote"},
			{Author: "clara", Type: "thread", Title: "Study group for finals?", Content: "Anyone up for a weekly session?"},
		},
		Messages: []stubserver.FixtureMessage{
			{From: "boris", To: "ana", Content: "Did you finish the assignment?"},
			{From: "ana", To: "boris", Content: "Almost, sending it tonight", Read: true},
		},
	}
	return fx
}

// StubBackend starts a seeded stub server over httptest and returns its base
// URL plus the server for direct state manipulation.
func StubBackend(t *testing.T) (string, *stubserver.Server) {
	t.Helper()
	srv := stubserver.New(TestSecret, nil, nil)
	srv.Seed(SeedFixtures())

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts.URL, srv
}

// TestCredStore creates a temporary SQLite credential store that is
// automatically cleaned up.
func TestCredStore(t *testing.T) *credstore.Store {
	t.Helper()
	dbFile, err := os.CreateTemp("", "mannaz-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	store, err := credstore.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}
