package npclassifier_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"structmeta/internal/compound"
	"structmeta/internal/services"
	"structmeta/internal/services/npclassifier"
)

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := npclassifier.New("  "); err == nil {
		t.Fatal("expected error when base url missing")
	}
}

func TestClassifyEthanol(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/classify" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("smiles"); got != "CCO" {
			t.Errorf("expected smiles=CCO, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pathway_results": [], "superclass_results": ["Alcohols"], "class_results": ["Ethanol"], "isglycoside": false}`))
	}))
	t.Cleanup(server.Close)

	client, err := npclassifier.New(server.URL + "/")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	result, err := client.Classify(context.Background(), "CCO")
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	want := compound.Taxonomy{Pathway: compound.Unknown, Superclass: "Alcohols", Class: "Ethanol"}
	if got := result.Taxonomy(); got != want {
		t.Fatalf("Taxonomy() = %+v, want %+v", got, want)
	}
	if result.IsGlycoside == nil || *result.IsGlycoside {
		t.Fatalf("expected isglycoside=false to be captured, got %v", result.IsGlycoside)
	}
}

func TestClassifyEscapesStructure(t *testing.T) {
	const structure = "C[C@H](N)C(=O)O.[Na+]"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("smiles"); got != structure {
			t.Errorf("structure not round-tripped: %q", got)
		}
		_, _ = w.Write([]byte(`{"pathway_results":["Amino acids and Peptides","Alkaloids"]}`))
	}))
	t.Cleanup(server.Close)

	client, err := npclassifier.New(server.URL)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	result, err := client.Classify(context.Background(), structure)
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if got := result.Taxonomy().Pathway; got != "Amino acids and Peptides|Alkaloids" {
		t.Fatalf("unexpected pathway %q", got)
	}
	if got := result.Taxonomy().Class; got != compound.Unknown {
		t.Fatalf("missing class list should be unknown, got %q", got)
	}
}

func TestClassifyFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		marker  error
	}{
		{
			name: "non json body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("<html>Internal error</html>"))
			},
			marker: services.ErrMalformed,
		},
		{
			name: "wrong shape",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"pathway_results": "Alkaloids"}`))
			},
			marker: services.ErrMalformed,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			marker: services.ErrUnexpected,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			t.Cleanup(server.Close)

			client, err := npclassifier.New(server.URL)
			if err != nil {
				t.Fatalf("New returned error: %v", err)
			}
			_, err = client.Classify(context.Background(), "CCO")
			if !errors.Is(err, tt.marker) {
				t.Fatalf("expected %v, got %v", tt.marker, err)
			}
			if !services.Degradable(err) {
				t.Fatalf("expected degradable error, got %v", err)
			}
		})
	}
}

func TestClassifyTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})

	client, err := npclassifier.New(server.URL, npclassifier.WithTimeout(50*time.Millisecond))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.Classify(context.Background(), "CCO"); !services.Degradable(err) {
		t.Fatalf("expected degradable timeout error, got %v", err)
	}
}
