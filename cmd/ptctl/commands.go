package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jwc684/ptmaster-sub001/internal/account"
	"github.com/jwc684/ptmaster-sub001/internal/config"
	"github.com/jwc684/ptmaster-sub001/internal/shop"
	"github.com/jwc684/ptmaster-sub001/pkg/logger"
	"github.com/jwc684/ptmaster-sub001/pkg/utils"
)

// passwordEnv is read when --password is omitted, keeping secrets out of
// shell history.
const passwordEnv = "PTCTL_PASSWORD"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ptctl",
		Short:         "Operator tasks for the PT platform",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMigrateCmd(), newCreatePlatformAdminCmd(), newCreateShopCmd(), newCreateShopAdminCmd())
	return root
}

func loadConfig() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)
	return cfg, log, nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply (up) or roll back one step of (down) the schema",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(utils.MigrateUp), string(utils.MigrateDown)},
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := utils.MigrateDirection(args[0])
			if dir != utils.MigrateUp && dir != utils.MigrateDown {
				return fmt.Errorf("unknown direction %q", args[0])
			}
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			if err := utils.Migrate(cfg.PostgresURL(), dir); err != nil {
				return err
			}
			log.Info("migrations done", "direction", dir)
			return nil
		},
	}
}

// withServices opens Postgres and hands the shop and account services to fn.
func withServices(ctx context.Context, cfg config.Config, fn func(*shop.Service, *account.Service) error) error {
	db, err := utils.OpenPostgres(ctx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{MaxOpenConns: 2, MaxIdleConns: 1})
	if err != nil {
		return err
	}
	defer db.Close()

	shops := shop.NewService(shop.NewPostgresRepo(db))
	accounts := account.NewService(account.NewPostgresRepo(db), shops, nil)
	return fn(shops, accounts)
}

func passwordFrom(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if v := os.Getenv(passwordEnv); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("--password or %s is required", passwordEnv)
}

func newCreatePlatformAdminCmd() *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "create-platform-admin",
		Short: "Create a SUPER_ADMIN account (no HTTP path exists for this)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			pw, err := passwordFrom(password)
			if err != nil {
				return err
			}
			return withServices(cmd.Context(), cfg, func(_ *shop.Service, accounts *account.Service) error {
				a, err := accounts.CreatePlatformAdmin(cmd.Context(), account.PlatformAdminInput{Name: name, Email: email, Password: pw})
				if err != nil {
					return err
				}
				log.Info("platform admin created", "account_id", a.ID)
				fmt.Fprintln(cmd.OutOrStdout(), a.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "password (min 12 chars); prefer "+passwordEnv)
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newCreateShopCmd() *cobra.Command {
	var in shop.CreateInput
	cmd := &cobra.Command{
		Use:   "create-shop",
		Short: "Create an active shop",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			return withServices(cmd.Context(), cfg, func(shops *shop.Service, _ *account.Service) error {
				sh, err := shops.Create(cmd.Context(), in)
				if err != nil {
					return err
				}
				log.Info("shop created", "shop_id", sh.ID, "slug", sh.Slug)
				fmt.Fprintln(cmd.OutOrStdout(), sh.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "shop name")
	cmd.Flags().StringVar(&in.Slug, "slug", "", "unique lowercase slug")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("slug")
	return cmd
}

func newCreateShopAdminCmd() *cobra.Command {
	var name, email, password, shopID string
	cmd := &cobra.Command{
		Use:   "create-shop-admin",
		Short: "Create the ADMIN account of a shop",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			pw, err := passwordFrom(password)
			if err != nil {
				return err
			}
			return withServices(cmd.Context(), cfg, func(_ *shop.Service, accounts *account.Service) error {
				a, err := accounts.CreateShopAdmin(cmd.Context(), account.AdminInput{Name: name, Email: email, Password: pw, ShopID: shopID})
				if err != nil {
					return err
				}
				log.Info("shop admin created", "account_id", a.ID, "shop_id", shopID)
				fmt.Fprintln(cmd.OutOrStdout(), a.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "password (min 8 chars); prefer "+passwordEnv)
	cmd.Flags().StringVar(&shopID, "shop", "", "shop id")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("shop")
	return cmd
}
