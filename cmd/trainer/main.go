package main

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/ppodrugin/silver-greek-bot/internal/config"
	"github.com/ppodrugin/silver-greek-bot/internal/domain/entities"
	"github.com/ppodrugin/silver-greek-bot/internal/logger"
	"github.com/ppodrugin/silver-greek-bot/internal/repository"
	"github.com/ppodrugin/silver-greek-bot/internal/service"
	"github.com/ppodrugin/silver-greek-bot/internal/storage"
)

func main() {
	_ = godotenv.Load()

	userID := pflag.Int64("user", 1, "user id to run the session as")
	username := pflag.String("username", "", "username recorded for the session user")
	pflag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	zlog, err := logger.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := storage.Open(ctx, storage.Options{
		Engine:          cfg.DB.Engine(),
		DSN:             cfg.DB.DSN(),
		MaxConns:        cfg.DB.MaxConnections,
		MaxConnLifetime: cfg.DB.MaxConnLifetime,
	})
	if err != nil {
		zlog.Fatal("failed to open database", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	if err := db.EnsureSchema(ctx); err != nil {
		zlog.Fatal("failed to ensure schema", zap.Error(err))
	}

	report, err := db.MigrateOwnership(ctx)
	if err != nil && !errors.Is(err, storage.ErrMigrationIncomplete) {
		zlog.Fatal("failed to migrate ownership", zap.Error(err))
	}
	if errors.Is(err, storage.ErrMigrationIncomplete) {
		zlog.Warn("ownership migration dropped unattributable rows",
			zap.Strings("tables", report.MigratedTables),
			zap.Int64("rows_dropped", report.RowsDropped),
		)
	} else if len(report.MigratedTables) > 0 {
		zlog.Info("ownership migration complete",
			zap.Strings("tables", report.MigratedTables),
			zap.Int64("owner", report.FallbackOwner),
			zap.Int64("rows_backfilled", report.RowsBackfilled),
		)
	}

	// Initialize repositories and services.
	userRepo := repository.NewUserRepository(db)
	wordRepo := repository.NewWordRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)

	userService := service.NewUserService(userRepo)
	trainerService := service.NewTrainerService(wordRepo)
	vocabService := service.NewVocabularyService(wordRepo, lessonRepo, categoryRepo)

	created, err := userService.EnsureUser(ctx, *userID, *username)
	if err != nil {
		zlog.Fatal("failed to register user", zap.Error(err))
	}
	if created {
		zlog.Info("registered new user", zap.Int64("user_id", *userID))
	}

	session := &repl{
		userID:  *userID,
		trainer: trainerService,
		vocab:   vocabService,
		in:      bufio.NewScanner(os.Stdin),
	}
	if err := session.run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		zlog.Fatal("session ended with error", zap.Error(err))
	}
}

type repl struct {
	userID  int64
	trainer *service.TrainerService
	vocab   *service.VocabularyService
	in      *bufio.Scanner
}

func (r *repl) run(ctx context.Context) error {
	fmt.Println("commands: add, train, stats, export, reset, lessons, categories, quit")

	for {
		fmt.Print("> ")
		line, ok := r.readLine(ctx)
		if !ok {
			return ctx.Err()
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		var err error
		switch fields[0] {
		case "add":
			err = r.add(ctx, fields[1:])
		case "train":
			err = r.train(ctx, fields[1:])
		case "stats":
			err = r.stats(ctx)
		case "export":
			err = r.export(ctx)
		case "reset":
			err = r.reset(ctx)
		case "lessons":
			err = r.listGroups(ctx, "lessons")
		case "categories":
			err = r.listGroups(ctx, "categories")
		case "quit", "exit":
			return nil
		default:
			fmt.Printf("unknown command %q\n", fields[0])
		}
		if err != nil {
			fmt.Println("error:", err)
		}
	}
}

// readLine reads a single line, treating EOF or a cancelled context as the
// end of the session.
func (r *repl) readLine(ctx context.Context) (string, bool) {
	if ctx.Err() != nil {
		return "", false
	}
	if !r.in.Scan() {
		return "", false
	}
	return r.in.Text(), true
}

// add reads pairs until a lone "." and stores them. Optional arguments:
// lesson=<name>, category=<name> and reversed.
func (r *repl) add(ctx context.Context, args []string) error {
	var lesson, category string
	var reversed bool
	for _, arg := range args {
		switch {
		case strings.HasPrefix(arg, "lesson="):
			lesson = strings.TrimPrefix(arg, "lesson=")
		case strings.HasPrefix(arg, "category="):
			category = strings.TrimPrefix(arg, "category=")
		case arg == "reversed":
			reversed = true
		default:
			return fmt.Errorf("unknown argument %q", arg)
		}
	}

	fmt.Println("enter pairs, finish with a single '.' line:")
	var sb strings.Builder
	for {
		line, ok := r.readLine(ctx)
		if !ok || line == "." {
			break
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}

	report, err := r.vocab.AddWords(ctx, r.userID, sb.String(), reversed, lesson, category)
	if err != nil {
		return err
	}

	fmt.Printf("added %d, skipped %d duplicates, vocabulary size %d\n",
		report.Added, report.Skipped, report.Total)
	for _, problem := range report.Problems {
		fmt.Println("  skipped:", problem)
	}
	return nil
}

// train runs quiz turns until the user enters "stop".
func (r *repl) train(ctx context.Context, args []string) error {
	var scope service.TrainerScope
	for _, arg := range args {
		switch {
		case strings.HasPrefix(arg, "lesson="):
			id, err := resolveGroup(ctx, r.vocab.Lessons, r.userID, strings.TrimPrefix(arg, "lesson="))
			if err != nil {
				return err
			}
			scope.LessonID = id
		case strings.HasPrefix(arg, "category="):
			id, err := resolveGroup(ctx, r.vocab.Categories, r.userID, strings.TrimPrefix(arg, "category="))
			if err != nil {
				return err
			}
			scope.CategoryID = id
		default:
			return fmt.Errorf("unknown argument %q", arg)
		}
	}

	for {
		turn, err := r.trainer.BeginTurn(ctx, r.userID, scope)
		if err != nil {
			if errors.Is(err, service.ErrNothingToTrain) {
				fmt.Println("nothing to train yet, add some words first")
				return nil
			}
			return err
		}

		fmt.Printf("translate: %s\n? ", turn.Prompt)
		answer, ok := r.readLine(ctx)
		if !ok || answer == "stop" {
			return nil
		}

		result, err := r.trainer.SubmitAnswer(ctx, r.userID, turn.WordID, answer)
		if err != nil {
			return err
		}
		if result.Correct {
			fmt.Println("correct!")
		} else {
			fmt.Printf("wrong, expected %q\n", result.Expected)
		}
	}
}

func (r *repl) stats(ctx context.Context) error {
	stats, err := r.vocab.Stats(ctx, r.userID)
	if err != nil {
		return err
	}
	fmt.Printf("words: %d, correct: %d, wrong: %d, accuracy: %.1f%%, lessons: %d, categories: %d\n",
		stats.TotalWords, stats.TotalSuccess, stats.TotalFailure,
		stats.Accuracy*100, stats.LessonCount, stats.CategoryCount)

	hardest, err := r.vocab.HardestWords(ctx, r.userID, 5)
	if err != nil {
		return err
	}
	if len(hardest) > 0 {
		fmt.Println("hardest words:")
		for _, w := range hardest {
			fmt.Printf("  %s (%d/%d)\n", w.SourceText, w.SuccessCount, w.Attempts())
		}
	}
	return nil
}

func (r *repl) export(ctx context.Context) error {
	rows, err := r.vocab.Export(ctx, r.userID)
	if err != nil {
		return err
	}
	w := csv.NewWriter(os.Stdout)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return nil
}

func (r *repl) reset(ctx context.Context) error {
	affected, err := r.vocab.ResetStatistics(ctx, r.userID)
	if err != nil {
		return err
	}
	fmt.Printf("reset statistics on %d words\n", affected)
	return nil
}

func (r *repl) listGroups(ctx context.Context, kind string) error {
	list := r.vocab.Lessons
	if kind == "categories" {
		list = r.vocab.Categories
	}
	groups, err := list(ctx, r.userID)
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		fmt.Println("no", kind)
		return nil
	}
	for _, g := range groups {
		fmt.Printf("%d\t%s\n", g.ID, g.Name)
	}
	return nil
}

// resolveGroup maps a group name to its id for scoping a training session.
func resolveGroup(
	ctx context.Context,
	list func(context.Context, int64) ([]*entities.Group, error),
	userID int64,
	name string,
) (*int64, error) {
	groups, err := list(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		if g.Name == name {
			return &g.ID, nil
		}
	}
	return nil, fmt.Errorf("no group named %q", name)
}
