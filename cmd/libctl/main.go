// Command libctl runs operator tasks against the lending database.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"library-lending/internal/core/bootstrap"
	"library-lending/internal/core/config"
	"library-lending/internal/core/database"
	"library-lending/internal/domain"
	"library-lending/internal/service"
)

func main() {
	_ = godotenv.Load()
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var cfgPath string
	root := &cobra.Command{
		Use:           "libctl",
		Short:         "Operator tasks for the library lending service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", os.Getenv("CONFIG_PATH"), "config file")
	load := func() *config.Config { return config.Load(cfgPath) }
	root.AddCommand(migrateCmd(load), seedCmd(load), createUserCmd(load))
	return root
}

func migrateCmd(load func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := load()
			log, cleanup := bootstrap.Logger(cfg)
			defer cleanup()
			cfg.DB.AutoMigrate = false
			db, err := bootstrap.OpenDB(cfg, log)
			if err != nil {
				return err
			}
			if err := database.Migrate(db, domain.Models()...); err != nil {
				return err
			}
			log.Info("schema migrated", zap.String("driver", cfg.DB.Driver))
			return nil
		},
	}
}

func withApp(load func() *config.Config, fn func(ctx context.Context, app *bootstrap.App) error) error {
	cfg := load()
	cfg.DB.AutoMigrate = true
	cfg.Kafka.Brokers = nil
	log, cleanup := bootstrap.Logger(cfg)
	defer cleanup()
	app, err := bootstrap.New(cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(context.Background(), app)
}

func seedCmd(load func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create demo accounts and books (idempotent)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(load, func(ctx context.Context, app *bootstrap.App) error {
				rep, err := service.Seed(ctx, app.Svc)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d users, %d books\n", rep.Users, rep.Books)
				return nil
			})
		},
	}
}

func createUserCmd(load func() *config.Config) *cobra.Command {
	var email, name, role string
	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create an account; the password is read from the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := domain.Role(strings.ToUpper(role))
			if !r.Valid() {
				return fmt.Errorf("unknown role %q", role)
			}
			pw, err := readPassword(cmd, "Password: ")
			if err != nil {
				return err
			}
			if len(pw) < 8 {
				return errors.New("password must have at least 8 characters")
			}
			return withApp(load, func(ctx context.Context, app *bootstrap.App) error {
				u, err := app.Svc.Accounts.CreateUser(ctx, service.UserInput{Name: name, Email: email, Password: pw, Role: r})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%s)\n", u.Role, u.Email, u.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleMember), "MEMBER, LIBRARIAN or ADMIN")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func readPassword(cmd *cobra.Command, prompt string) (string, error) {
	fd := int(syscall.Stdin)
	if !term.IsTerminal(fd) {
		return "", errors.New("create-user needs an interactive terminal for the password")
	}
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
