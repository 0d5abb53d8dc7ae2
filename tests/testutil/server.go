package testutil

import (
	"log"
	"log/slog"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"

	"github.com/tendant/simple-deck/pkg/simpledeck/api"
	memorystorage "github.com/tendant/simple-deck/pkg/simpledeck/storage/memory"
	"github.com/tendant/simple-deck/pkg/simpledeck/store"
	memoryrepo "github.com/tendant/simple-deck/pkg/simpledeck/store/repo/memory"
)

// SetupTestServer creates a document service backed by memory storage with
// its routes mounted under /api. Extra options are applied to the service.
func SetupTestServer(opts ...store.Option) (*httptest.Server, *store.Service) {
	repo := memoryrepo.New()
	memBackend := memorystorage.New()

	opts = append([]store.Option{
		store.WithRepository(repo),
		store.WithBlobStore(memBackend),
	}, opts...)
	svc, err := store.New(opts...)
	if err != nil {
		log.Fatal(err)
	}

	filesHandler := api.NewFilesHandler(svc, slog.Default())

	r := chi.NewRouter()
	r.Mount("/api", filesHandler.Routes())

	return httptest.NewServer(r), svc
}
