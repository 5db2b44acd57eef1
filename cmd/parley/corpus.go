package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/parley-dev/parley/internal/corpus"
	"github.com/parley-dev/parley/modules/corpus/sqlite"
)

// importFile is the JSON shape `parley corpus import` consumes.
type importFile struct {
	Questions []importQuestion `json:"questions"`
	Curated   []importCurated  `json:"curated"`
}

type importQuestion struct {
	ID            string `json:"id"`
	Category      string `json:"category"`
	Subcategory   string `json:"subcategory"`
	ExamID        string `json:"exam_id"`
	SubcategoryID string `json:"subcategory_id"`
	Text          string `json:"text"`
}

type importCurated struct {
	Institution string         `json:"institution"`
	Background  string         `json:"background"`
	Question    importQuestion `json:"question"`
}

func (q importQuestion) toCorpus() corpus.Question {
	id := q.ID
	if id == "" {
		id = uuid.NewString()
	}
	return corpus.Question{
		ID:            id,
		Category:      q.Category,
		Subcategory:   q.Subcategory,
		ExamID:        q.ExamID,
		SubcategoryID: q.SubcategoryID,
		Text:          q.Text,
	}
}

func corpusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "corpus",
		Short: "Question corpus management",
	}
	cmd.PersistentFlags().String("db", "parley.db", "Path to the corpus database")
	cmd.AddCommand(corpusImportCmd(), corpusStatsCmd())
	return cmd
}

func corpusImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import questions from a JSON file",
		Long: `Import reads a JSON file with "questions" and optional "curated" arrays
and upserts them into the corpus database. Questions without an id get
a generated one; re-importing a file with ids is idempotent.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, _ := cmd.Flags().GetString("db")

			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var file importFile
			if err := json.Unmarshal(raw, &file); err != nil {
				return fmt.Errorf("parsing %s: %w", args[0], err)
			}
			if len(file.Questions) == 0 && len(file.Curated) == 0 {
				return fmt.Errorf("%s contains no questions", args[0])
			}

			store, err := sqlite.Open(dbPath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			ctx := cmd.Context()
			for _, q := range file.Questions {
				if err := store.Insert(ctx, q.toCorpus()); err != nil {
					return err
				}
			}
			for _, c := range file.Curated {
				if err := store.InsertCurated(ctx, c.Institution, c.Background, c.Question.toCorpus()); err != nil {
					return err
				}
			}

			fmt.Printf("Imported %d questions and %d curated questions into %s\n",
				len(file.Questions), len(file.Curated), dbPath)
			return nil
		},
	}
}

func corpusStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show corpus size per category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dbPath, _ := cmd.Flags().GetString("db")

			store, err := sqlite.Open(dbPath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			counts, total, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if total == 0 {
				fmt.Println("Corpus is empty.")
				return nil
			}

			for _, cc := range counts {
				cat := cc.Category
				if cat == "" {
					cat = "(uncategorized)"
				}
				fmt.Printf("  %-24s %d\n", cat, cc.Count)
			}
			fmt.Printf("Total: %d questions\n", total)

			if sample, err := store.Random(cmd.Context(), 1); err == nil && len(sample) > 0 {
				fmt.Printf("Sample: %s\n", sample[0].Text)
			}
			return nil
		},
	}
}
