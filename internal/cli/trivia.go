package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"trivia-quiz-service/internal/config"
	"trivia-quiz-service/internal/logging"
	"trivia-quiz-service/internal/trivia"
)

func newTriviaClient(configPath string) (*trivia.Client, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	return trivia.NewClient(trivia.Config{
		BaseURL:   cfg.Trivia.BaseURL,
		UserAgent: cfg.Trivia.UserAgent,
		Timeout:   config.TTLDuration(cfg.Trivia.Timeout, 10*time.Second),
	}, logger), nil
}

// NewQuestionsCmd fetches a batch of questions and prints them as JSON.
func NewQuestionsCmd(configPath *string) *cobra.Command {
	var q trivia.QuestionQuery
	cmd := &cobra.Command{
		Use:   "questions",
		Short: "Fetch trivia questions from the upstream API",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newTriviaClient(*configPath)
			if err != nil {
				return err
			}
			questions, err := client.Questions(cmd.Context(), q)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(questions)
		},
	}
	cmd.Flags().IntVar(&q.Amount, "amount", trivia.DefaultAmount, "number of questions (1-50)")
	cmd.Flags().StringVar(&q.Type, "type", "multiple", "question type: multiple or boolean")
	cmd.Flags().StringVar(&q.Difficulty, "difficulty", "medium", "easy, medium or hard")
	cmd.Flags().StringVar(&q.Category, "category", "", "upstream category id")
	return cmd
}

// NewCategoriesCmd lists the upstream categories.
func NewCategoriesCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List trivia categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newTriviaClient(*configPath)
			if err != nil {
				return err
			}
			categories, err := client.Categories(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME")
			for _, c := range categories {
				fmt.Fprintf(w, "%d\t%s\n", c.ID, c.Name)
			}
			return w.Flush()
		},
	}
}
