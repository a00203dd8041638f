package api

import (
	"github.com/answerhubapp/answerhub-server/internal/service"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Auth        *service.AuthService
	User        *service.UserService
	Question    *service.QuestionService
	Answer      *service.AnswerService
	Vote        *service.VoteService
	Tag         *service.TagService
	Collection  *service.CollectionService
	Recommend   *service.RecommendService
	Search      *service.SearchService
	Interaction *service.InteractionService
}
