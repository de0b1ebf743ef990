package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/twokinds/twokinds-api/internal/config"
	"github.com/twokinds/twokinds-api/internal/database"
	"github.com/twokinds/twokinds-api/internal/models"
)

var seedIntros = []string{
	"There are two kinds of",
	"In this world, there are two kinds of",
	"You can divide everything into two kinds of",
}

var seedTypes = []string{
	"people",
	"dogs",
	"refrigerators",
}

// NewSeedCmd creates the seed command. It populates the intros and
// saying_types lookup tables used by the create form.
func NewSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed lookup tables",
		Long:  "Insert the default intro phrases and saying types. Skips tables that already have rows.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			db, err := database.New(cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer func() {
				if err := db.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
				}
			}()

			ctx := context.Background()
			if err := db.Migrate(ctx); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}

			introRepo := database.NewIntroRepository(db)
			typeRepo := database.NewTypeRepository(db)

			existing, err := introRepo.List(ctx)
			if err != nil {
				return fmt.Errorf("failed to list intros: %w", err)
			}
			if len(existing) > 0 {
				fmt.Printf("Intros table already has %d rows, skipping\n", len(existing))
			} else {
				for _, text := range seedIntros {
					intro := &models.Intro{IntroText: text}
					if err := introRepo.Create(ctx, intro); err != nil {
						return fmt.Errorf("failed to seed intro %q: %w", text, err)
					}
					fmt.Printf("Seeded intro %d: %s\n", intro.ID, text)
				}
			}

			types, err := typeRepo.List(ctx)
			if err != nil {
				return fmt.Errorf("failed to list types: %w", err)
			}
			if len(types) > 0 {
				fmt.Printf("Types table already has %d rows, skipping\n", len(types))
			} else {
				for _, name := range seedTypes {
					t := &models.SayingType{Name: name}
					if err := typeRepo.Create(ctx, t); err != nil {
						return fmt.Errorf("failed to seed type %q: %w", name, err)
					}
					fmt.Printf("Seeded type %d: %s\n", t.ID, name)
				}
			}

			fmt.Println("Seed complete.")
			return nil
		},
	}

	return cmd
}
