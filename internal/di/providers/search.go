package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/answerhubapp/answerhub-server/internal/config"
	"github.com/answerhubapp/answerhub-server/internal/logger"
	"github.com/answerhubapp/answerhub-server/internal/search"
	"github.com/answerhubapp/answerhub-server/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.SearchIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve search index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.NewSearchIndex(search.Options{
		DataPath: cfg.Data.BasePath,
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	return &SearchIndexHandle{SearchIndex: index}, nil
}

// ProvideSearchService provides the search service.
func ProvideSearchService(i do.Injector) (*service.SearchService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSearchService(storeHandle.Store, indexHandle.SearchIndex, log), nil
}

// TriggerSearchReindexIfNeeded rebuilds the index in the background when
// it is empty but the store has questions (fresh index or mapping bump).
func TriggerSearchReindexIfNeeded(i do.Injector) {
	log := do.MustInvoke[*logger.Logger](i)
	searchService := do.MustInvoke[*service.SearchService](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	go func() {
		ctx := context.Background()

		docCount, err := searchService.DocumentCount()
		if err != nil {
			log.Warn("could not check search index, skipping reindex", "error", err)
			return
		}
		if docCount > 0 {
			return
		}

		questionCount, err := storeHandle.CountQuestions(ctx)
		if err != nil || questionCount == 0 {
			return
		}

		log.Info("search index empty, rebuilding", "questions", questionCount)
		if _, err := searchService.ReindexAll(ctx); err != nil {
			log.Error("background reindex failed", "error", err)
		}
	}()
}
