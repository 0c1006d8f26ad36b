package db

import (
	"context"
	"fmt"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/spf13/cobra"

	"github.com/kumbirai/warehouse-management-system-sub005/cmd/utils"
	"github.com/kumbirai/warehouse-management-system-sub005/db"
	"github.com/kumbirai/warehouse-management-system-sub005/db/migrations"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/provisioning"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/tenant"
	"github.com/kumbirai/warehouse-management-system-sub005/pkg/config"
	"github.com/kumbirai/warehouse-management-system-sub005/pkg/log"
)

const DBConfigOptionFlagName = "database-url"

type DatabaseCommand struct{}

func (c *DatabaseCommand) Command(globalOptions *utils.GlobalOptionsType) *cobra.Command {
	cmd := &cobra.Command{
		Use:              "db",
		Short:            "Database related commands",
		PersistentPreRun: utils.PropagatePersistentPreRun,
		RunE:             utils.CallHelpCommand,
	}

	// ADD COMMANDs:
	cmd.AddCommand(c.adminMigrationsCmd(cmd.Context(), globalOptions))     // 'admin migrate up|down'
	cmd.AddCommand(c.tenantPerTenantMigrationsCmd(cmd.Context(), globalOptions)) // 'tenant migrate up|down'
	cmd.AddCommand(c.setupCmd(globalOptions))                              // 'setup'

	return cmd
}

// adminMigrationsCmd returns a cobra.Command responsible for running the migrations of the `admin-migrations`
// folder, which hold the tenant catalog and the outbox. The migrations are tracked in the table `admin_migrations`.
func (c *DatabaseCommand) adminMigrationsCmd(ctx context.Context, globalOptions *utils.GlobalOptionsType) *cobra.Command {
	adminCmd := &cobra.Command{
		Use:              "admin",
		Short:            "Admin schema migration helpers. Will execute the migrations of the `admin-migrations` folder, which hold the tenant catalog and the event outbox. The migrations are tracked in the table `admin_migrations`.",
		PersistentPreRun: utils.PropagatePersistentPreRun,
		RunE:             utils.CallHelpCommand,
	}

	executeMigrationsFn := func(ctx context.Context, dir migrate.MigrationDirection, count int) error {
		if err := ExecuteMigrations(ctx, globalOptions.DatabaseURL, dir, count, migrations.AdminMigrationRouter); err != nil {
			return fmt.Errorf("executing migrations for %s: %w", adminCmd.Name(), err)
		}
		return nil
	}
	adminCmd.AddCommand(MigrateCmd(ctx, executeMigrationsFn))

	return adminCmd
}

// tenantPerTenantMigrationsCmd returns a cobra.Command responsible for running the migrations of the
// `tenant-migrations` folder on the schema of the desired tenant(s).
func (c *DatabaseCommand) tenantPerTenantMigrationsCmd(ctx context.Context, globalOptions *utils.GlobalOptionsType) *cobra.Command {
	opts := utils.TenantRoutingOptions{}
	var configOptions config.ConfigOptions = utils.TenantRoutingConfigOptions(&opts)

	tenantCmd := &cobra.Command{
		Use:   "tenant",
		Short: "Per-tenant schema migration helpers. Will execute the migrations of the `tenant-migrations` folder on the schema of the desired tenant, according with the --all or --tenant-id configs. The migrations are tracked in the table `tenant_migrations`.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			utils.PropagatePersistentPreRun(cmd, args)
			configOptions.Require()
			if err := configOptions.SetValues(); err != nil {
				log.Ctx(cmd.Context()).Fatalf("Error setting values of config options: %v", err)
			}
		},
		RunE: utils.CallHelpCommand,
	}

	executeMigrationsFn := func(ctx context.Context, dir migrate.MigrationDirection, count int) error {
		if err := executeMigrationsPerTenant(ctx, globalOptions.DatabaseURL, opts, dir, count, migrations.TenantMigrationRouter); err != nil {
			return fmt.Errorf("executing migrations for %s: %w", tenantCmd.Name(), err)
		}
		return nil
	}
	tenantCmd.AddCommand(MigrateCmd(ctx, executeMigrationsFn))

	if err := configOptions.Init(tenantCmd); err != nil {
		log.Ctx(tenantCmd.Context()).Fatalf("initializing config options: %v", err)
	}

	return tenantCmd
}

// setupCmd returns a cobra.Command that brings a database from scratch to a
// fully usable state: it applies the admin migrations and then provisions the
// schema of every registered tenant.
func (c *DatabaseCommand) setupCmd(globalOptions *utils.GlobalOptionsType) *cobra.Command {
	return &cobra.Command{
		Use:              "setup",
		Short:            "Apply the admin migrations and provision the schema of every registered tenant.",
		PersistentPreRun: utils.PropagatePersistentPreRun,
		Run: func(cmd *cobra.Command, _ []string) {
			ctx := cmd.Context()

			if err := ExecuteMigrations(ctx, globalOptions.DatabaseURL, migrate.Up, 0, migrations.AdminMigrationRouter); err != nil {
				log.Ctx(ctx).Fatalf("Error executing admin migrations: %v", err)
			}

			if err := provisionAllTenantSchemas(ctx, globalOptions.DatabaseURL); err != nil {
				log.Ctx(ctx).Fatalf("Error provisioning tenant schemas: %v", err)
			}
		},
	}
}

// provisionAllTenantSchemas ensures every registered tenant's schema exists
// with the tenant migrations applied. EnsureSchemaReady is idempotent, so
// re-running setup on a healthy database is a no-op.
func provisionAllTenantSchemas(ctx context.Context, adminDatabaseURL string) error {
	adminDBConnectionPool, err := db.OpenDBConnectionPool(adminDatabaseURL)
	if err != nil {
		return fmt.Errorf("opening the admin database connection pool: %w", err)
	}
	defer adminDBConnectionPool.Close()

	tenantManager := tenant.NewManager(tenant.WithDatabase(adminDBConnectionPool))
	provisioningManager := provisioning.NewManager(provisioning.WithDatabase(adminDBConnectionPool))

	tenants, err := tenantManager.GetAllTenants(ctx, nil)
	if err != nil {
		return fmt.Errorf("getting all tenants: %w", err)
	}

	for _, tnt := range tenants {
		log.Ctx(ctx).Infof("Provisioning schema %s for tenant %s", tnt.SchemaName, tnt.ID)
		if err = provisioningManager.EnsureSchemaReady(ctx, tnt.SchemaName); err != nil {
			return fmt.Errorf("ensuring schema %s is ready: %w", tnt.SchemaName, err)
		}
	}

	return nil
}
