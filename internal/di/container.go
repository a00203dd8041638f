// Package di provides dependency injection configuration for the AnswerHub server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/answerhubapp/answerhub-server/internal/auth"
	"github.com/answerhubapp/answerhub-server/internal/config"
	"github.com/answerhubapp/answerhub-server/internal/di/providers"
	"github.com/answerhubapp/answerhub-server/internal/logger"
	"github.com/answerhubapp/answerhub-server/internal/service"
	"github.com/answerhubapp/answerhub-server/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)
	do.Provide(injector, providers.ProvideValidator)

	// Event bus
	do.Provide(injector, providers.ProvideEventBus)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideSearchService)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Workers
	do.Provide(injector, providers.ProvideRecorder)

	// Business services
	do.Provide(injector, providers.ProvideInteractionService)
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideUserService)
	do.Provide(injector, providers.ProvideQuestionService)
	do.Provide(injector, providers.ProvideAnswerService)
	do.Provide(injector, providers.ProvideVoteService)
	do.Provide(injector, providers.ProvideTagService)
	do.Provide(injector, providers.ProvideCollectionService)
	do.Provide(injector, providers.ProvideRecommendService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	// Invoke core services to trigger initialization
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*validation.Validator](injector)
	_ = do.MustInvoke[*providers.EventBusHandle](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*service.SearchService](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)
	_ = do.MustInvoke[*providers.RecorderHandle](injector)

	// Business services
	_ = do.MustInvoke[*service.InteractionService](injector)
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.UserService](injector)
	_ = do.MustInvoke[*service.QuestionService](injector)
	_ = do.MustInvoke[*service.AnswerService](injector)
	_ = do.MustInvoke[*service.VoteService](injector)
	_ = do.MustInvoke[*service.TagService](injector)
	_ = do.MustInvoke[*service.CollectionService](injector)
	_ = do.MustInvoke[*service.RecommendService](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	// Rebuild the search index in the background if it is behind the store
	providers.TriggerSearchReindexIfNeeded(injector)

	return nil
}
