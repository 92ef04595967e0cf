package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"board-reviewer/internal/config"
	"board-reviewer/internal/domain"
	"board-reviewer/internal/infra/files"
	"board-reviewer/internal/infra/postgres"
	infraredis "board-reviewer/internal/infra/redis"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// NewImportCmd loads question-bank JSON files into Postgres.
func NewImportCmd(configPath *string) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "import [subject...]",
		Short: "Import question banks from JSON files into Postgres",
		Long: "Reads {dir}/{SUBJECT}.json for each subject (all files in dir when none are given), " +
			"validates the questions and upserts them into question_banks.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.Quiz.QuestionsDir
			}
			return runImport(cmd.Context(), cfg, dir, args)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "directory of {SUBJECT}.json files (defaults to quiz.questionsDir)")
	return cmd
}

func runImport(ctx context.Context, cfg config.Config, dir string, subjects []string) error {
	if dir == "" {
		return fmt.Errorf("no questions directory configured")
	}
	if len(subjects) == 0 {
		found, err := files.Subjects(dir)
		if err != nil {
			return err
		}
		subjects = found
	}
	if len(subjects) == 0 {
		return fmt.Errorf("no question banks in %s", dir)
	}

	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}
	db, err := openBun(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	// Drop cached banks so running servers pick up the new questions.
	var cache *infraredis.QuestionRepository
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		cache = infraredis.NewQuestionRepository(client, nil, 0)
	}

	importer := postgres.NewQuestionImporter(db)
	opts := domain.ParseOptions{Lenient: cfg.Quiz.Lenient}
	for _, subject := range subjects {
		data, err := os.ReadFile(filepath.Join(dir, subject+".json"))
		if err != nil {
			return err
		}
		n, warnings, err := importer.Import(ctx, subject, data, opts)
		for _, w := range warnings {
			log.Warn().Str("subject", subject).Msg(w)
		}
		if err != nil {
			return err
		}
		log.Info().Str("subject", subject).Int("questions", n).Msg("question bank imported")
		if cache != nil {
			if err := cache.Invalidate(ctx, subject); err != nil {
				log.Warn().Err(err).Str("subject", subject).Msg("invalidate cached questions")
			}
		}
	}
	return nil
}
