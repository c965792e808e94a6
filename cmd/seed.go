/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/taskflow/apiserver/config"
	"github.com/taskflow/apiserver/internal/db"
	"github.com/taskflow/apiserver/internal/store"
	"github.com/taskflow/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

const seedPassword = "password123"

// seedCmd populates an empty database with demo accounts and sample data.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with demo data",
	Long: `Seeds demo accounts (admin@example.com, manager@example.com,
user@example.com, all with password "password123"), one sample project,
and one sample task. Does nothing if users already exist.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		ctx := cmd.Context()

		dbConn, err := db.Open(ctx, cfg)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		return seedDatabase(ctx, dbConn, cmd)
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func seedDatabase(ctx context.Context, dbConn *sql.DB, cmd *cobra.Command) error {
	users := store.NewUserRepository(dbConn)
	projects := store.NewProjectRepository(dbConn)
	tasks := store.NewTaskRepository(dbConn)

	count, err := users.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		cmd.Println("Database already seeded.")
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	accounts := []types.User{
		{Name: "Admin User", Email: "admin@example.com", Role: "admin"},
		{Name: "Manager User", Email: "manager@example.com", Role: "manager"},
		{Name: "Regular User", Email: "user@example.com", Role: "user"},
	}
	created := make(map[string]types.User, len(accounts))
	for _, account := range accounts {
		account.PasswordHash = string(hashed)
		user, err := users.Create(ctx, account)
		if err != nil {
			return fmt.Errorf("seed user %s: %w", account.Email, err)
		}
		created[user.Role] = user
	}

	project, err := projects.Create(ctx, types.Project{
		Name:        "TaskFlow Development",
		Description: "Development of the TaskFlow application.",
		ManagerID:   created["manager"].ID,
	}, []string{created["user"].ID})
	if err != nil {
		return fmt.Errorf("seed project: %w", err)
	}

	now := time.Now()
	assignee := created["user"].ID
	if _, err := tasks.Create(ctx, types.Task{
		Title:       "Initial Setup",
		Description: "Setup the project structure.",
		Status:      types.TaskStatusDone,
		DueDate:     &now,
		ProjectID:   project.ID,
		AssignedTo:  &assignee,
	}); err != nil {
		return fmt.Errorf("seed task: %w", err)
	}

	cmd.Println("Database seeded successfully.")
	return nil
}
