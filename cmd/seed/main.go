// Package main provides a tool to seed the database with test content.
//
// It creates a handful of users, tagged questions, answers, and votes so
// feeds, search, and the leaderboard have something to show during
// development.
//
// Usage:
//
//	DATA_PATH=~/Answerhub/data go run ./cmd/seed
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/answerhubapp/answerhub-server/internal/auth"
	"github.com/answerhubapp/answerhub-server/internal/domain"
	"github.com/answerhubapp/answerhub-server/internal/id"
	"github.com/answerhubapp/answerhub-server/internal/jobs"
	"github.com/answerhubapp/answerhub-server/internal/logger"
	"github.com/answerhubapp/answerhub-server/internal/service"
	"github.com/answerhubapp/answerhub-server/internal/store"
	"github.com/answerhubapp/answerhub-server/internal/validation"
)

var questionCount = flag.Int("questions", 20, "How many questions to create")

var tagPool = []string{
	"go", "databases", "networking", "testing", "concurrency",
	"deployment", "security", "performance", "api-design", "debugging",
}

func main() {
	flag.Parse()

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("Failed to resolve home directory: %v", err)
		}
		dataPath = filepath.Join(home, "Answerhub", "data")
	}
	dbPath := filepath.Join(dataPath, "db")

	fmt.Printf("Opening database at: %s\n", dbPath)

	s, err := store.New(dbPath, nil, store.NewNoopEmitter())
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	quiet := logger.New(logger.Config{Writer: os.Stderr, Level: logger.ParseLevel("error")})
	v := validation.New()

	recorder := jobs.NewRecorder(s, quiet, 1024)
	ctx, cancel := context.WithCancel(context.Background())
	go recorder.Run(ctx)

	interactions := service.NewInteractionService(s, recorder, quiet)
	questions := service.NewQuestionService(s, interactions, service.NoopSearchIndexer{}, v, quiet)
	defer questions.Close()
	answers := service.NewAnswerService(s, interactions, v, quiet)
	votes := service.NewVoteService(s, interactions, quiet)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	userIDs := createUsers(ctx, s)
	fmt.Printf("Created %d users\n", len(userIDs))

	questionIDs := createQuestions(ctx, questions, userIDs, rng)
	fmt.Printf("Created %d questions\n", len(questionIDs))

	answered := createAnswers(ctx, answers, userIDs, questionIDs, rng)
	fmt.Printf("Created %d answers\n", answered)

	voted := castVotes(ctx, votes, userIDs, questionIDs, rng)
	fmt.Printf("Cast %d votes\n", voted)

	// Let the recorder drain queued interactions before closing.
	cancel()
	waitCtx, waitCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer waitCancel()
	if err := recorder.Wait(waitCtx); err != nil {
		log.Printf("Recorder did not drain in time: %v", err)
	}

	fmt.Println("Done")
}

func createUsers(ctx context.Context, s *store.Store) []string {
	names := []string{"Alice", "Bruna", "Chen", "Dmitri", "Esther", "Farid"}

	hash, err := auth.HashPassword("password123")
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	ids := make([]string, 0, len(names))
	for _, name := range names {
		userID, err := id.Generate("user")
		if err != nil {
			log.Fatalf("Failed to generate user ID: %v", err)
		}

		now := time.Now()
		u := &domain.User{
			ID:           userID,
			Name:         name,
			Email:        fmt.Sprintf("%s@example.com", userID),
			PasswordHash: hash,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		err = s.RunInTxn(ctx, func(uow *store.UnitOfWork) error {
			return s.CreateUser(uow, u)
		})
		if err != nil {
			log.Fatalf("Failed to create user %s: %v", name, err)
		}
		ids = append(ids, userID)
	}
	return ids
}

func createQuestions(ctx context.Context, questions *service.QuestionService, userIDs []string, rng *rand.Rand) []string {
	ids := make([]string, 0, *questionCount)
	for i := 0; i < *questionCount; i++ {
		author := userIDs[rng.Intn(len(userIDs))]

		tags := make([]string, 1+rng.Intn(3))
		for j := range tags {
			tags[j] = tagPool[rng.Intn(len(tagPool))]
		}

		q, err := questions.Create(ctx, author, service.CreateQuestionRequest{
			Title: fmt.Sprintf("How do I handle scenario %d correctly?", i+1),
			Body:  fmt.Sprintf("I keep running into scenario %d in my project and none of the approaches I tried so far behave the way the documentation suggests.", i+1),
			Tags:  tags,
		})
		if err != nil {
			log.Printf("Failed to create question %d: %v", i+1, err)
			continue
		}
		ids = append(ids, q.ID)
	}
	return ids
}

func createAnswers(ctx context.Context, answers *service.AnswerService, userIDs, questionIDs []string, rng *rand.Rand) int {
	created := 0
	for _, qid := range questionIDs {
		for i := 0; i < rng.Intn(4); i++ {
			author := userIDs[rng.Intn(len(userIDs))]
			_, err := answers.Create(ctx, author, qid, service.CreateAnswerRequest{
				Body: fmt.Sprintf("Have you tried restructuring the approach? In my experience option %d works reliably.", i+1),
			})
			if err != nil {
				log.Printf("Failed to create answer on %s: %v", qid, err)
				continue
			}
			created++
		}
	}
	return created
}

func castVotes(ctx context.Context, votes *service.VoteService, userIDs, questionIDs []string, rng *rand.Rand) int {
	cast := 0
	for _, qid := range questionIDs {
		for _, uid := range userIDs {
			if rng.Intn(3) != 0 {
				continue
			}
			kind := domain.VoteUp
			if rng.Intn(5) == 0 {
				kind = domain.VoteDown
			}
			target := domain.Target{Kind: domain.TargetQuestion, ID: qid}
			if _, err := votes.Toggle(ctx, uid, target, kind); err != nil {
				log.Printf("Failed to vote on %s: %v", qid, err)
				continue
			}
			cast++
		}
	}
	return cast
}
